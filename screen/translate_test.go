package screen

import (
	"testing"

	"github.com/drake/labterm/ansi"
)

func csi(final byte, params ...int) ansi.RawCommand {
	var p [3]int
	copy(p[:], params)
	return ansi.RawCommand{Kind: ansi.KindCSI, Final: final, Params: p}
}

func TestTranslateCursorPositionThenText(t *testing.T) {
	cmds := []ansi.RawCommand{csi('H', 3, 10)}
	cmds[0].Text = "hello"

	ops := Translate(cmds)
	if len(ops) != 1 {
		t.Fatalf("expected 1 operation, got %d: %+v", len(ops), ops)
	}
	op := ops[0]
	if op.Line != 2 || op.Column != 10 || op.Text != "hello" {
		t.Errorf("unexpected op %+v", op)
	}
}

func TestTranslateHighlightToggle(t *testing.T) {
	// Real SGR sequences from the host are the 3-field bold;bg;fg form
	// (e.g. ESC[1;44;37m); the highlight toggle keys on the third field.
	highlightOn := csi('m', 1, 44, 37)
	highlightOn.Text = "bright"
	highlightOff := csi('m', 1, 44, 32)
	highlightOff.Text = "dim"

	ops := Translate([]ansi.RawCommand{highlightOn, highlightOff})
	if len(ops) != 2 {
		t.Fatalf("expected 2 ops, got %+v", ops)
	}
	if !ops[0].Highlighted {
		t.Error("expected first chunk highlighted")
	}
	if ops[1].Highlighted {
		t.Error("expected second chunk not highlighted")
	}
}

func TestTranslateEraseLineAndScreen(t *testing.T) {
	ops := Translate([]ansi.RawCommand{csi('K', 2), csi('J', 0)})
	if len(ops) != 2 {
		t.Fatalf("expected 2 ops, got %+v", ops)
	}
	if ops[0].EraseKind != EraseLine || ops[0].EraseTarget != 2 {
		t.Errorf("unexpected erase-line op %+v", ops[0])
	}
	if ops[1].EraseKind != EraseScreen || ops[1].EraseTarget != 0 {
		t.Errorf("unexpected erase-screen op %+v", ops[1])
	}
}

func TestTranslateAuxPortTagsNextText(t *testing.T) {
	aux := csi('i')
	aux.Text = "AUXDATA"

	ops := Translate([]ansi.RawCommand{aux})
	if len(ops) != 1 || !ops[0].IsAux || ops[0].Text != "AUXDATA" {
		t.Fatalf("expected a single aux operation, got %+v", ops)
	}
}

func TestTranslatePopupDeviceControl(t *testing.T) {
	cmd := ansi.RawCommand{Kind: ansi.KindDeviceControl, Name: "tmessage", RawParams: `"Invalid sample number"`}
	ops := Translate([]ansi.RawCommand{cmd})
	if len(ops) != 1 || !ops[0].IsPopup || ops[0].Text != "Invalid sample number" {
		t.Fatalf("expected a popup operation, got %+v", ops)
	}
}

func TestTranslatePrivateCSIIsNoOp(t *testing.T) {
	hide := ansi.RawCommand{Kind: ansi.KindCSI, Final: 'l', Private: true}
	ops := Translate([]ansi.RawCommand{hide})
	if len(ops) != 0 {
		t.Fatalf("expected no ops for a private sequence, got %+v", ops)
	}
}

func TestTranslateCursorMovementAdvancesColumn(t *testing.T) {
	first := csi('H', 1, 1)
	first.Text = "ab"
	second := ansi.RawCommand{Text: "cd"}

	ops := Translate([]ansi.RawCommand{first, second})
	if len(ops) != 2 {
		t.Fatalf("expected 2 ops, got %+v", ops)
	}
	if ops[1].Column != 3 {
		t.Errorf("expected column to advance past prior text, got %d", ops[1].Column)
	}
}
