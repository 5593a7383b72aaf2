package screen

import (
	"strings"

	"github.com/drake/labterm/ansi"
)

// translator walks a RawCommand list maintaining a local cursor and
// highlight flag, emitting Operations (spec §4.3). It is grounded on the
// original driver's parse_raw_ANSI cursor/highlight bookkeeping loop.
type translator struct {
	line       int
	column     int
	highlight  bool
	auxPending bool
}

// Translate converts a tokenized command list into an ordered Operation
// list. The emitted list preserves insertion order (spec §4.3).
func Translate(cmds []ansi.RawCommand) []Operation {
	tr := &translator{}
	var ops []Operation

	for _, cmd := range cmds {
		switch cmd.Kind {
		case ansi.KindCSI:
			ops = append(ops, tr.applyCSI(cmd)...)
		case ansi.KindDeviceControl:
			if cmd.Name == "tmessage" {
				ops = append(ops, Operation{IsPopup: true, Text: popupText(cmd.RawParams)})
			}
		case ansi.KindBell, ansi.KindNF, ansi.KindAnswerback:
			// no cursor/screen effect
		}

		if cmd.Text != "" {
			ops = append(ops, tr.emitText(cmd.Text))
		}
	}
	return ops
}

// applyCSI updates cursor/highlight state for a single CSI command and
// returns any Operation(s) it directly emits (erase ops; positioning and
// SGR never emit by themselves).
func (tr *translator) applyCSI(cmd ansi.RawCommand) []Operation {
	if cmd.Private {
		// e.g. CSI ?25h/l cursor show/hide: no-op per spec §4.2.
		return nil
	}

	switch cmd.Final {
	case 'H', 'f':
		row := cmd.Params[0]
		col := cmd.Params[1]
		// The host uses both 0- and 1-based rows; the translator
		// normalises rows to 0-based but preserves column literals
		// verbatim (spec §4.3, §9 open question).
		if row > 0 {
			row--
		}
		tr.line = row
		tr.column = col
		return nil

	case 'A': // cursor up
		tr.line -= paramOrDefault(cmd.Params[0], 1)
		if tr.line < 0 {
			tr.line = 0
		}
		return nil
	case 'B': // cursor down
		tr.line += paramOrDefault(cmd.Params[0], 1)
		return nil
	case 'C': // cursor forward
		tr.column += paramOrDefault(cmd.Params[0], 1)
		return nil
	case 'D': // cursor back
		tr.column -= paramOrDefault(cmd.Params[0], 1)
		if tr.column < 0 {
			tr.column = 0
		}
		return nil
	case 'E': // next line, column 0
		tr.line += paramOrDefault(cmd.Params[0], 1)
		tr.column = 0
		return nil
	case 'F': // previous line, column 0
		tr.line -= paramOrDefault(cmd.Params[0], 1)
		if tr.line < 0 {
			tr.line = 0
		}
		tr.column = 0
		return nil
	case 'G': // cursor horizontal absolute
		tr.column = cmd.Params[0]
		return nil

	case 'J':
		return []Operation{{Line: tr.line, Column: tr.column, EraseKind: EraseScreen, EraseTarget: cmd.Params[0]}}
	case 'K':
		return []Operation{{Line: tr.line, Column: tr.column, EraseKind: EraseLine, EraseTarget: cmd.Params[0]}}

	case 'm':
		// The host's SGR form is always the 3-field bold;bg;fg (e.g.
		// ESC[1;44;37m); the highlight toggle keys on the third field.
		switch cmd.Params[2] {
		case 37:
			tr.highlight = true
		case 32:
			tr.highlight = false
		}
		return nil

	case 'i':
		// AUX-port: handled via trailing text below as an aux op instead
		// of a normal write; mark the state so emitText knows.
		tr.auxPending = true
		return nil
	}

	return nil
}

// emitText emits a write Operation at the current cursor for literal text
// that followed a positioning/SGR/erase command, then advances the
// column so successive text without an explicit cursor move appends
// naturally (spec §4.3).
func (tr *translator) emitText(text string) Operation {
	if tr.auxPending {
		tr.auxPending = false
		return Operation{IsAux: true, Text: text}
	}
	op := Operation{Line: tr.line, Column: tr.column, Text: text, Highlighted: tr.highlight}
	tr.column += len(text)
	return op
}

func paramOrDefault(p, def int) int {
	if p == 0 {
		return def
	}
	return p
}

// popupText reassembles a tmessage device-control body into a single
// human-readable string, joining its quoted segments with a space.
func popupText(raw string) string {
	var parts []string
	var cur strings.Builder
	inQuotes := false
	for _, r := range raw {
		switch {
		case r == '"':
			if inQuotes {
				parts = append(parts, cur.String())
				cur.Reset()
			}
			inQuotes = !inQuotes
		case inQuotes:
			cur.WriteRune(r)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(raw)
	}
	return strings.Join(parts, " ")
}
