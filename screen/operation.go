// Package screen converts tokenized ANSI commands into absolute-coordinate
// operations and renders them onto a virtual screen (spec §4.3, §4.4).
package screen

// EraseKind identifies whether an Operation erases nothing, a line, or
// the whole screen.
type EraseKind int

const (
	EraseNone EraseKind = iota
	EraseLine
	EraseScreen
)

// Operation is an absolute-coordinate screen mutation (spec §3). Popup
// and AUX-port operations are tagged variants riding in the same list as
// ordinary writes, per the design note against sentinel coordinates.
type Operation struct {
	Line        int
	Column      int
	Text        string
	Highlighted bool
	EraseKind   EraseKind
	EraseTarget int // 0, 1, or 2; 0 whenever EraseKind == EraseNone

	// IsPopup marks a tmessage device-control notice: Text carries the
	// host error/notice, Line/Column are 0, and Apply must not mutate
	// the screen lines.
	IsPopup bool

	// IsAux marks AUX-port (simulated printer) output: Text carries the
	// captured payload and Apply must not mutate the screen lines.
	IsAux bool
}
