// Package session implements the session driver that glues the
// transport, tokenizer, translator, virtual screen, and classifier
// together, exposing connect/send/read/return_to_main_menu/disconnect
// (spec §4.6).
package session

// State is a node in the session driver's state machine (spec §4.6).
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateWaitLogin
	StateWaitAnswerback
	StateWaitUser
	StateWaitPassword
	StateWaitMainMenu
	StateConnected
	StateNavigating
	StateRecovering
	StateDisconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateWaitLogin:
		return "WaitLogin"
	case StateWaitAnswerback:
		return "WaitAnswerback"
	case StateWaitUser:
		return "WaitUser"
	case StateWaitPassword:
		return "WaitPassword"
	case StateWaitMainMenu:
		return "WaitMainMenu"
	case StateConnected:
		return "Connected"
	case StateNavigating:
		return "Navigating"
	case StateRecovering:
		return "Recovering"
	case StateDisconnecting:
		return "Disconnecting"
	default:
		return "Unknown"
	}
}
