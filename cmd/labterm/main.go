package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/drake/labterm/classify"
	"github.com/drake/labterm/config"
	"github.com/drake/labterm/logging"
	"github.com/drake/labterm/session"
	"github.com/drake/labterm/validator"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults to the platform config dir)")
	script := flag.String("classifier-script", "", "path to a Lua classify_screen script; if empty, the built-in table classifier is used")
	training := flag.Bool("training", false, "log in to the training system instead of production")
	sampleID := flag.String("validate-sample", "", "validate a sample id and exit")
	flag.Parse()

	if *sampleID != "" {
		if validator.Validate(*sampleID) {
			fmt.Println("valid")
			os.Exit(0)
		}
		fmt.Println("invalid")
		os.Exit(1)
	}

	path := *configPath
	if path == "" {
		initPath, err := config.InitFile()
		if err != nil {
			fmt.Fprintln(os.Stderr, "init config:", err)
			os.Exit(1)
		}
		path = initPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	var classifier classify.Classifier
	scriptPath := *script
	if scriptPath == "" {
		scriptPath = cfg.ClassifierScript
	}
	if scriptPath != "" {
		lc, err := classify.NewLuaClassifier(scriptPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load classifier script:", err)
			os.Exit(1)
		}
		defer lc.Close()
		if w, err := classify.NewWatcher(lc); err == nil {
			defer w.Stop()
		}
		classifier = lc
	} else {
		classifier = classify.NewTableClassifier()
	}

	logger := logging.NewDefault()
	conn := session.New(*cfg, classifier, logger)

	if err := conn.Connect(*training); err != nil {
		fmt.Fprintln(os.Stderr, "connect:", err)
		os.Exit(1)
	}
	defer conn.Disconnect()

	fr := conn.Current()
	if fr != nil {
		fmt.Println(fr.Text())
	}
}
