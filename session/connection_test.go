package session

import (
	"errors"
	"testing"

	"github.com/drake/labterm/classify"
	"github.com/drake/labterm/config"
	"github.com/drake/labterm/errs"
	"github.com/drake/labterm/screen"
)

func testConnection(cfg config.Config) *Connection {
	return New(cfg, classify.NewTableClassifier(), nil)
}

func TestNewStartsDisconnected(t *testing.T) {
	c := testConnection(config.Config{})
	if c.State() != StateDisconnected {
		t.Errorf("expected StateDisconnected, got %v", c.State())
	}
	if c.ID == "" {
		t.Error("expected a generated session id")
	}
}

func TestSendWithoutTransportReturnsTransportError(t *testing.T) {
	c := testConnection(config.Config{})
	err := c.Send("hello", false, 0)
	var e *errs.Error
	if !errors.As(err, &e) || e.Kind != errs.KindTransport {
		t.Fatalf("expected a transport error, got %v", err)
	}
}

func TestSendRawWithoutTransportReturnsTransportError(t *testing.T) {
	c := testConnection(config.Config{})
	err := c.SendRaw([]byte{0x04})
	var e *errs.Error
	if !errors.As(err, &e) || e.Kind != errs.KindTransport {
		t.Fatalf("expected a transport error, got %v", err)
	}
}

func TestReadWithoutTransportReturnsTransportError(t *testing.T) {
	c := testConnection(config.Config{})
	_, err := c.Read(10, 5, false)
	var e *errs.Error
	if !errors.As(err, &e) || e.Kind != errs.KindTransport {
		t.Fatalf("expected a transport error, got %v", err)
	}
}

func TestReturnToMainMenuIdempotentWhenAlreadyThere(t *testing.T) {
	cfg := config.Config{MainMenuType: "MainMenu"}
	c := testConnection(cfg)
	c.current = &screen.Screen{Type: "MainMenu"}
	c.state = StateConnected

	if err := c.ReturnToMainMenu(true, 5); err != nil {
		t.Fatalf("expected no error when already on the main menu, got %v", err)
	}
	if c.state != StateConnected {
		t.Errorf("expected state to settle on Connected, got %v", c.state)
	}
}

func TestReturnToMainMenuFailsFastWithZeroTries(t *testing.T) {
	cfg := config.Config{MainMenuType: "MainMenu"}
	c := testConnection(cfg)
	c.current = &screen.Screen{Type: "SomeOtherScreen"}

	err := c.ReturnToMainMenu(true, 0)
	var e *errs.Error
	if !errors.As(err, &e) || e.Kind != errs.KindNavigationLost {
		t.Fatalf("expected NavigationLost, got %v", err)
	}
}

func TestDisconnectWithoutTransportIsNoop(t *testing.T) {
	c := testConnection(config.Config{})
	c.state = StateConnected
	c.Disconnect()
	if c.state != StateDisconnected {
		t.Errorf("expected StateDisconnected after Disconnect, got %v", c.state)
	}
}

func TestStateStringMapping(t *testing.T) {
	tests := map[State]string{
		StateDisconnected:   "Disconnected",
		StateConnecting:     "Connecting",
		StateWaitLogin:      "WaitLogin",
		StateWaitAnswerback: "WaitAnswerback",
		StateWaitUser:       "WaitUser",
		StateWaitPassword:   "WaitPassword",
		StateWaitMainMenu:   "WaitMainMenu",
		StateConnected:      "Connected",
		StateNavigating:     "Navigating",
		StateRecovering:     "Recovering",
		StateDisconnecting:  "Disconnecting",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
