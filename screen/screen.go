package screen

import "strings"

// Chunk is a text fragment written on a frame, keyed by (line, column),
// tagged with whether the write carried the highlight bit.
type Chunk struct {
	Line, Column int
	Text         string
	Highlighted  bool
}

// Screen is the rendered state of the virtual terminal after applying a
// frame's Operations on top of the previous frame's lines (spec §3, §4.4).
type Screen struct {
	Lines []string

	Ops       []Operation
	Chunks    []Chunk
	AuxData   []string
	Errors    []string
	HasErrors bool

	CursorLine, CursorColumn int

	Type          string
	Options       []string
	OptionString  string
	DefaultOption string
}

// Clone copies the frame with its own line storage so the history ring
// never shares mutable lines with the live frame (design note §9). The
// per-frame Ops, Chunks, AuxData and Errors are not carried over.
func (s *Screen) Clone() *Screen {
	cp := *s
	cp.Lines = append([]string(nil), s.Lines...)
	cp.Ops = nil
	cp.Chunks = nil
	cp.AuxData = nil
	cp.Errors = nil
	return &cp
}

// Apply executes ops in order on a new Screen that starts from a copy of
// the previous frame's lines; prev itself is not modified. Implements the
// five-case dispatch of spec §4.4.
func Apply(prev *Screen, ops []Operation) *Screen {
	s := &Screen{}
	if prev != nil {
		s.Lines = append([]string(nil), prev.Lines...)
	}
	s.Ops = ops

	for _, op := range ops {
		switch {
		case op.IsPopup:
			s.Errors = append(s.Errors, op.Text)
			s.HasErrors = true

		case op.IsAux:
			s.AuxData = append(s.AuxData, op.Text)

		case op.EraseKind == EraseLine:
			s.ensureLine(op.Line)
			applyEraseLine(s, op)

		case op.EraseKind == EraseScreen:
			s.ensureLine(op.Line)
			applyEraseScreen(s, op)

		default:
			s.ensureLine(op.Line)
			writeText(s, op)
			s.Chunks = append(s.Chunks, Chunk{Line: op.Line, Column: op.Column, Text: op.Text, Highlighted: op.Highlighted})
			s.CursorLine, s.CursorColumn = op.Line, op.Column+len(op.Text)
		}
	}

	sortChunks(s.Chunks)
	return s
}

// ensureLine pads Lines with empty strings so index `line` exists.
func (s *Screen) ensureLine(line int) {
	if line < 0 {
		return
	}
	for len(s.Lines) <= line {
		s.Lines = append(s.Lines, "")
	}
}

// applyEraseLine implements spec §4.4 step 3.
func applyEraseLine(s *Screen, op Operation) {
	line := s.Lines[op.Line]
	switch op.EraseTarget {
	case 0: // cursor -> end of line: truncate to column
		if op.Column <= len(line) {
			s.Lines[op.Line] = line[:op.Column]
		}
	case 1: // start of line -> cursor: left-pad the prefix with spaces
		if op.Column <= len(line) {
			s.Lines[op.Line] = strings.Repeat(" ", op.Column) + line[op.Column:]
		} else {
			s.Lines[op.Line] = strings.Repeat(" ", op.Column)
		}
	case 2: // whole line
		s.Lines[op.Line] = ""
	}
}

// applyEraseScreen implements spec §4.4 step 4.
func applyEraseScreen(s *Screen, op Operation) {
	switch op.EraseTarget {
	case 0: // truncate current line to column, drop all subsequent lines
		line := s.Lines[op.Line]
		if op.Column <= len(line) {
			line = line[:op.Column]
		}
		s.Lines = append(s.Lines[:op.Line], line)
	case 1: // pad current line's prefix, keep content at/after column, wipe preceding lines
		line := s.Lines[op.Line]
		var kept string
		if op.Column <= len(line) {
			kept = strings.Repeat(" ", op.Column) + line[op.Column:]
		} else {
			kept = strings.Repeat(" ", op.Column)
		}
		for i := 0; i < op.Line; i++ {
			s.Lines[i] = ""
		}
		s.Lines[op.Line] = kept
	case 2: // clear entirely
		s.Lines = nil
	}
}

// writeText implements spec §4.4 step 5: write text at column,
// materialising implicit spaces, overwriting the range
// [column, column+len(text)).
func writeText(s *Screen, op Operation) {
	line := s.Lines[op.Line]
	if len(line) < op.Column {
		line += strings.Repeat(" ", op.Column-len(line))
	}
	end := op.Column + len(op.Text)
	var rebuilt strings.Builder
	rebuilt.WriteString(line[:op.Column])
	rebuilt.WriteString(op.Text)
	if end < len(line) {
		rebuilt.WriteString(line[end:])
	}
	s.Lines[op.Line] = rebuilt.String()
}

func sortChunks(chunks []Chunk) {
	// small-N insertion sort by (line, column); frames rarely carry more
	// than a handful of written fields.
	for i := 1; i < len(chunks); i++ {
		for j := i; j > 0 && less(chunks[j], chunks[j-1]); j-- {
			chunks[j], chunks[j-1] = chunks[j-1], chunks[j]
		}
	}
}

func less(a, b Chunk) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Column < b.Column
}

// Text concatenates Lines with newlines, the frame's flattened text view.
func (s *Screen) Text() string {
	return strings.Join(s.Lines, "\n")
}

// ChunkOrNone returns the unique chunk at (line, column), filtered to
// highlighted writes by default; pass highlighted=false to look among
// unhighlighted writes instead. Returns ("", false) if missing or
// ambiguous (spec §4.4, §6).
func (s *Screen) ChunkOrNone(line, column int, highlighted ...bool) (string, bool) {
	want := true
	if len(highlighted) > 0 {
		want = highlighted[0]
	}
	var found string
	count := 0
	for _, c := range s.Chunks {
		if c.Line == line && c.Column == column && c.Highlighted == want {
			found = c.Text
			count++
		}
	}
	if count == 1 {
		return found, true
	}
	return "", false
}
