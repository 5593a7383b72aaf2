// Package errs defines the error taxonomy shared by the transport, parser,
// screen, classifier, and session driver layers.
package errs

import "fmt"

// Kind identifies one of the error categories a caller may branch on.
type Kind int

const (
	KindTransport Kind = iota
	KindNegotiation
	KindParseAnomaly
	KindRenderAnomaly
	KindHost
	KindNavigationLost
	KindTimeout
	KindLoginFailure
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "TransportError"
	case KindNegotiation:
		return "NegotiationError"
	case KindParseAnomaly:
		return "ParseAnomaly"
	case KindRenderAnomaly:
		return "RenderAnomaly"
	case KindHost:
		return "HostError"
	case KindNavigationLost:
		return "NavigationLost"
	case KindTimeout:
		return "Timeout"
	case KindLoginFailure:
		return "LoginFailure"
	default:
		return "UnknownError"
	}
}

// Error wraps an underlying cause with one of the taxonomy kinds.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind, so callers can
// use errors.Is(err, errs.Timeout) style sentinels built with New(kind, "").
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Sentinel values for errors.Is comparisons against a bare kind.
var (
	Transport      = &Error{Kind: KindTransport}
	Negotiation    = &Error{Kind: KindNegotiation}
	ParseAnomaly   = &Error{Kind: KindParseAnomaly}
	RenderAnomaly  = &Error{Kind: KindRenderAnomaly}
	Host           = &Error{Kind: KindHost}
	NavigationLost = &Error{Kind: KindNavigationLost}
	Timeout        = &Error{Kind: KindTimeout}
	LoginFailure   = &Error{Kind: KindLoginFailure}
)
