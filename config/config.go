// Package config loads connection profiles for the session driver.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config is the full set of options consumed at connect time (spec §6).
type Config struct {
	Address    string `yaml:"address"`
	Port       int    `yaml:"port"`
	Answerback string `yaml:"answerback"`
	SystemUser string `yaml:"system_user"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`

	CancelAction         string `yaml:"cancel_action"`
	LogoutAction         string `yaml:"logout_action"`
	MainMenuType         string `yaml:"main_menu_type"`
	MainMenuTrainingType string `yaml:"main_menu_training_type"`

	HistorySize       int      `yaml:"history_size"`
	TerminalNames     []string `yaml:"terminal_names"`
	WindowWidth       int      `yaml:"window_width"`
	WindowHeight      int      `yaml:"window_height"`
	ClassifierScript  string   `yaml:"classifier_script"`

	LoginDeadlineMS int `yaml:"login_deadline_ms"`
	MaxReturnTries  int `yaml:"max_return_tries"`

	// Mnemonics carries workflow-chosen menu codes (specimen-enquiry code,
	// patient-enquiry code, authorisation code, etc). The core never
	// interprets these; it only sends them by name.
	Mnemonics map[string]string `yaml:"mnemonics"`
}

// defaults mirrors the values the original driver hard-codes.
func defaults() Config {
	return Config{
		Port:                 23,
		SystemUser:           "AIX",
		CancelAction:         "^",
		LogoutAction:         "Q",
		MainMenuType:         "MainMenu",
		MainMenuTrainingType: "MainMenu_Training",
		HistorySize:          5,
		TerminalNames:        []string{"", "VT100", "VT102", "NETWORK-VIRTUAL-TERMINAL", "UNKNWN"},
		WindowWidth:          80,
		WindowHeight:         24,
		LoginDeadlineMS:      20000,
		MaxReturnTries:       10,
	}
}

// Load reads and parses a YAML config file, filling unset fields with
// the documented defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Port == 0 {
		cfg.Port = 23
	}
	return &cfg, nil
}

// Dir resolves the platform configuration directory, preferring
// XDG_CONFIG_HOME / APPDATA over the bare home-directory fallback.
func Dir() (string, error) {
	if runtime.GOOS == "windows" {
		if appdata := os.Getenv("APPDATA"); appdata != "" {
			return filepath.Join(appdata, "labterm"), nil
		}
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "labterm"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "labterm"), nil
}

// InitFile ensures the config directory exists and returns the path to
// the default config file within it, creating a minimal one (empty
// address, port 23) if absent.
func InitFile() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte("address: \"\"\nport: 23\n"), 0o644); err != nil {
			return "", fmt.Errorf("writing default config: %w", err)
		}
	}
	return path, nil
}
