package session

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/drake/labterm/ansi"
	"github.com/drake/labterm/classify"
	"github.com/drake/labterm/config"
	"github.com/drake/labterm/errs"
	"github.com/drake/labterm/logging"
	"github.com/drake/labterm/screen"
	"github.com/drake/labterm/telnet"
)

// Connection is the process-wide session state of spec §3: transport
// handle, answerback string, candidate terminal names, current rendered
// screen, history ring, and classifier. There is exactly one per process
// in normal use; tests construct many (spec §9).
type Connection struct {
	ID     string
	cfg    config.Config
	log    logging.Logger
	tp     *telnet.Transport
	class  classify.Classifier
	history *screen.History
	current *screen.Screen

	state State
}

// New constructs a Connection in the Disconnected state. classifier and
// logger are the polymorphic capabilities spec §9 calls out; logger may
// be nil, in which case logging.Nop is used.
func New(cfg config.Config, classifier classify.Classifier, logger logging.Logger) *Connection {
	if logger == nil {
		logger = logging.Nop{}
	}
	histSize := cfg.HistorySize
	if histSize <= 0 {
		histSize = 5
	}
	return &Connection{
		ID:      uuid.NewString(),
		cfg:     cfg,
		log:     logger,
		class:   classifier,
		history: screen.NewHistory(histSize),
		state:   StateDisconnected,
	}
}

// State reports the driver's current state machine node.
func (c *Connection) State() State { return c.state }

// Current returns the most recently rendered Screen, or nil before the
// first successful read.
func (c *Connection) Current() *screen.Screen { return c.current }

// Connect opens the transport and performs the documented login dialogue
// (spec §4.6): read-until login prompt, send system-user, await ENQ
// (handled transparently by the transport layer), then, only when
// Config.User or Config.Password is set, read-until the user prompt and
// send user and read-until the password prompt and send password (an
// empty one of the two is asked for interactively, the password with
// terminal echo off), then read screens until the classifier reports
// the main-menu type.
func (c *Connection) Connect(training bool) error {
	c.state = StateConnecting
	c.log.Info(c.ID, "connecting", "address", c.cfg.Address, "port", c.cfg.Port)

	tp, err := telnet.Dial(c.cfg.Address, c.cfg.Port, c.cfg.TerminalNames, uint16(c.cfg.WindowWidth), uint16(c.cfg.WindowHeight), c.cfg.Answerback)
	if err != nil {
		c.state = StateDisconnected
		return err
	}
	c.tp = tp

	deadline := time.Now().Add(time.Duration(c.cfg.LoginDeadlineMS) * time.Millisecond)

	c.state = StateWaitLogin
	if _, err := c.readUntil("login: ", deadline); err != nil {
		return c.failConnect(err)
	}
	if err := c.writeLine(c.cfg.SystemUser); err != nil {
		return c.failConnect(err)
	}

	// The ENQ/answerback exchange happens transparently inside the
	// transport's ReadEager loop; we just need to read past it to the
	// user prompt.
	c.state = StateWaitAnswerback

	if c.cfg.User != "" || promptsConfigured(c.cfg) {
		c.state = StateWaitUser
		if _, err := c.readUntil("User ID :", deadline); err != nil {
			return c.failConnect(err)
		}
		user := c.cfg.User
		if user == "" {
			user = c.promptInteractive("Enter your TelePath username: ", false)
		}
		if err := c.writeLine(user); err != nil {
			return c.failConnect(err)
		}

		c.state = StateWaitPassword
		if _, err := c.readUntil("Password:", deadline); err != nil {
			return c.failConnect(err)
		}
		pw := c.cfg.Password
		if pw == "" {
			pw = c.promptInteractive("", true)
		}
		if err := c.writeLine(pw); err != nil {
			return c.failConnect(err)
		}
	}

	c.state = StateWaitMainMenu
	targetType := c.cfg.MainMenuType
	for time.Now().Before(deadline) {
		fr, err := c.Read(1000, 150, true)
		if err != nil {
			return c.failConnect(err)
		}
		if fr == nil {
			continue
		}
		if fr.Type == "ChangePassword" {
			return c.failConnect(errs.New(errs.KindLoginFailure, "host requires a mandatory password change"))
		}
		if fr.Type == targetType {
			c.state = StateConnected
			if training {
				if mnemonic, ok := c.cfg.Mnemonics["training_system"]; ok {
					c.Send(mnemonic, true, 1000)
					c.Read(1000, 150, true)
				}
			}
			c.log.Info(c.ID, "login complete", "type", fr.Type)
			return nil
		}
	}
	return c.failConnect(errs.New(errs.KindLoginFailure, "main menu not reached before login deadline"))
}

func promptsConfigured(cfg config.Config) bool {
	return cfg.User != "" || cfg.Password != ""
}

func (c *Connection) failConnect(err error) error {
	c.log.Error(c.ID, "login failed", "err", err.Error())
	c.state = StateDisconnected
	if c.tp != nil {
		c.tp.Close()
	}
	return err
}

// promptInteractive prompts on the controlling terminal, disabling local
// echo for secrets (spec §6: "if absent, the driver prompts interactively
// with password echo disabled").
func (c *Connection) promptInteractive(prompt string, secret bool) string {
	fmt.Fprint(os.Stderr, prompt)
	if !secret {
		var s string
		fmt.Scanln(&s)
		return s
	}
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return ""
	}
	return string(pw)
}

// Send encodes message, appends a carriage return, writes it, and
// optionally consumes the echoed bytes so the next Read sees only the
// host's response (spec §4.6).
func (c *Connection) Send(message string, echoReadback bool, waitMS int) error {
	if err := c.writeLine(message); err != nil {
		return err
	}
	if echoReadback && message != "" {
		deadline := time.Now().Add(time.Duration(waitMS) * time.Millisecond)
		c.readUntil(message, deadline)
	}
	return nil
}

// SendRaw writes raw bytes without text encoding or a trailing carriage
// return, used for control characters such as EOT.
func (c *Connection) SendRaw(data []byte) error {
	if c.tp == nil {
		return errs.New(errs.KindTransport, "not connected")
	}
	return c.tp.WriteBytes(data)
}

func (c *Connection) writeLine(message string) error {
	if c.tp == nil {
		return errs.New(errs.KindTransport, "not connected")
	}
	return c.tp.WriteBytes(telnet.EscapeIAC([]byte(message + "\r")))
}

// readUntil blocks, accumulating ReadEager chunks, until substr has been
// seen or deadline elapses.
func (c *Connection) readUntil(substr string, deadline time.Time) (string, error) {
	var acc []byte
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return string(acc), errs.New(errs.KindTimeout, "timed out waiting for "+substr)
		}
		wait := remaining
		if wait > 2*time.Second {
			wait = 2 * time.Second
		}
		chunk, err := c.tp.ReadEager(wait, 100*time.Millisecond)
		if err != nil {
			return string(acc), err
		}
		acc = append(acc, chunk...)
		if indexOf(string(acc), substr) {
			return string(acc), nil
		}
	}
}

func indexOf(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return len(haystack) >= len(needle) && contains(haystack, needle)
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

// Read drains the transport into a buffer, tokenizes it, translates it
// into operations, renders a frame on top of the previous frame's lines,
// classifies it, and appends it to the history ring (spec §4.6).
func (c *Connection) Read(maxWaitMS, sliceWaitMS int, waitIfEmpty bool) (*screen.Screen, error) {
	if c.tp == nil {
		return nil, errs.New(errs.KindTransport, "not connected")
	}

	maxWait := time.Duration(maxWaitMS) * time.Millisecond
	sliceWait := time.Duration(sliceWaitMS) * time.Millisecond

	buf, err := c.tp.ReadEager(maxWait, sliceWait)
	if err != nil {
		return nil, err
	}
	if len(buf) == 0 && !waitIfEmpty {
		return nil, nil
	}
	if len(buf) == 0 {
		return nil, nil
	}

	tok := &ansi.Tokenizer{}
	cmds := tok.Tokenize(buf)
	for _, a := range tok.Anomalies {
		c.log.Debug(c.ID, a.String())
	}

	ops := screen.Translate(cmds)
	fr := screen.Apply(c.current, ops)

	cls := c.class.Classify(fr.Lines, fr.HasErrors)
	fr.Type = cls.Type
	fr.Options = cls.Options
	fr.OptionString = cls.OptionString
	fr.DefaultOption = cls.DefaultOption

	c.current = fr
	c.history.Push(fr.Clone())
	return fr, nil
}

// ReturnToMainMenu repeatedly sends the cancel-action key and reads until
// the screen classifies as the configured main-menu type (or, outside
// force mode, the training main-menu type), failing with NavigationLost
// after maxTries (spec §4.6). It is idempotent: if already on the main
// menu it performs zero sends (spec §8).
func (c *Connection) ReturnToMainMenu(force bool, maxTries int) error {
	atMainMenu := func() bool {
		if c.current == nil {
			return false
		}
		if c.current.Type == c.cfg.MainMenuType {
			return true
		}
		return !force && c.cfg.MainMenuTrainingType != "" && c.current.Type == c.cfg.MainMenuTrainingType
	}

	c.state = StateRecovering
	tries := 0
	for !atMainMenu() {
		if tries >= maxTries {
			return errs.New(errs.KindNavigationLost, fmt.Sprintf("could not reach %s in %d attempts", c.cfg.MainMenuType, maxTries))
		}
		if err := c.Send(c.cfg.CancelAction, false, 500); err != nil {
			return err
		}
		if _, err := c.Read(1000, 150, true); err != nil {
			return err
		}
		tries++
	}
	c.state = StateConnected
	return nil
}

// Disconnect performs a best-effort return-to-main-menu, sends the
// logout key and EOT, then closes the transport. All I/O errors during
// disconnect are logged and swallowed (spec §4.6).
func (c *Connection) Disconnect() {
	c.state = StateDisconnecting
	if c.tp == nil {
		c.state = StateDisconnected
		return
	}

	if err := c.ReturnToMainMenu(true, c.cfg.MaxReturnTries); err != nil {
		c.log.Warn(c.ID, "disconnect: return to main menu failed", "err", err.Error())
	}
	if err := c.Send(c.cfg.LogoutAction, false, 500); err != nil {
		c.log.Warn(c.ID, "disconnect: logout send failed", "err", err.Error())
	}
	if err := c.SendRaw([]byte{telnet.EOT}); err != nil {
		c.log.Warn(c.ID, "disconnect: EOT send failed", "err", err.Error())
	}
	if err := c.tp.Close(); err != nil {
		c.log.Warn(c.ID, "disconnect: close failed", "err", err.Error())
	}
	c.tp = nil
	c.state = StateDisconnected
	c.log.Info(c.ID, "disconnected")
}
