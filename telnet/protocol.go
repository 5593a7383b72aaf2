// Package telnet implements the option-negotiation state machine and raw
// byte transport for a telnet session to a LIMS host.
package telnet

import "bytes"

// Telnet command codes.
const (
	CmdIAC  byte = 255
	CmdWILL byte = 251
	CmdWONT byte = 252
	CmdDO   byte = 253
	CmdDONT byte = 254
	CmdNOP  byte = 241
	CmdSB   byte = 250
	CmdSE   byte = 240
	CmdGA   byte = 249
	CmdEOR  byte = 239
)

// Telnet subnegotiation qualifiers.
const (
	SubIS   byte = 0
	SubSEND byte = 1
)

// Telnet option codes relevant to a LIMS ANSI session.
const (
	OptEcho   byte = 1
	OptSGA    byte = 3 // Suppress Go Ahead
	OptTTYPE  byte = 24
	OptEOR    byte = 25
	OptNAWS   byte = 31
)

// EventKind identifies the kind of a parsed telnet event.
type EventKind int

const (
	EventDataReceive EventKind = iota
	EventDataSend
	EventIAC
	EventNegotiation
	EventSubnegotiation
)

// Event carries parser output: either bytes to hand to the ANSI tokenizer
// (EventDataReceive), bytes to write back to the host (EventDataSend), or
// a notification of a completed negotiation.
type Event struct {
	Kind    EventKind
	Command byte
	Option  byte
	Data    []byte
}

// --- Compatibility table ---

// CompatibilityEntry is the negotiation state for a single option.
type CompatibilityEntry struct {
	Local       bool
	Remote      bool
	LocalState  bool
	RemoteState bool
}

const (
	bitLocal       byte = 1
	bitRemote      byte = 1 << 1
	bitLocalState  byte = 1 << 2
	bitRemoteState byte = 1 << 3
)

func (e CompatibilityEntry) toU8() byte {
	var res byte
	if e.Local {
		res |= bitLocal
	}
	if e.Remote {
		res |= bitRemote
	}
	if e.LocalState {
		res |= bitLocalState
	}
	if e.RemoteState {
		res |= bitRemoteState
	}
	return res
}

func entryFromU8(value byte) CompatibilityEntry {
	return CompatibilityEntry{
		Local:       value&bitLocal == bitLocal,
		Remote:      value&bitRemote == bitRemote,
		LocalState:  value&bitLocalState == bitLocalState,
		RemoteState: value&bitRemoteState == bitRemoteState,
	}
}

// CompatibilityTable tracks negotiation state for all 256 telnet options
// using a compact 4-bit-per-option representation.
type CompatibilityTable struct {
	options [256]byte
}

func NewCompatibilityTable() CompatibilityTable { return CompatibilityTable{} }

// DefaultCompatibility enables the options a LIMS host is expected to
// negotiate: ECHO, SUPPRESS-GO-AHEAD, TERMINAL-TYPE, NAWS, plus EOR.
func DefaultCompatibility() CompatibilityTable {
	t := NewCompatibilityTable()
	t.Support(OptEcho)
	t.Support(OptSGA)
	t.Support(OptTTYPE)
	t.Support(OptNAWS)
	t.Support(OptEOR)
	return t
}

func (t *CompatibilityTable) Support(option byte) {
	e := t.Get(option)
	e.Local, e.Remote = true, true
	t.Set(option, e)
}

func (t *CompatibilityTable) Get(option byte) CompatibilityEntry {
	return entryFromU8(t.options[option])
}

func (t *CompatibilityTable) Set(option byte, entry CompatibilityEntry) {
	t.options[option] = entry.toU8()
}

// --- Parser ---

// Parser consumes raw bytes from the wire and produces Events: data bytes
// for the ANSI tokenizer, and negotiation replies to write back.
type Parser struct {
	Options CompatibilityTable
	buffer  []byte

	// lastSubCmd records the option of the last accepted DO TTYPE or
	// DO NAWS. decodeSub does not consult it: it dispatches on the option
	// byte carried in the IAC SB <opt> ... IAC SE span itself.
	lastSubCmd byte

	ttypeNames  []string
	ttypeCursor int
	windowW     uint16
	windowH     uint16
}

// NewParser creates a parser with the given compatibility table and the
// terminal-type name list to cycle through during TTYPE subnegotiation.
func NewParser(table CompatibilityTable, terminalNames []string, windowW, windowH uint16) *Parser {
	return &Parser{
		Options:    table,
		buffer:     make([]byte, 0, 256),
		ttypeNames: terminalNames,
		windowW:    windowW,
		windowH:    windowH,
	}
}

// Receive ingests data read from the socket and returns parsed events.
func (p *Parser) Receive(data []byte) []Event {
	p.buffer = append(p.buffer, data...)
	return p.process()
}

// EscapeIAC doubles IAC bytes for outbound data so the host's parser
// does not mistake a literal 0xFF byte for a command introducer.
func EscapeIAC(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		out = append(out, b)
		if b == CmdIAC {
			out = append(out, CmdIAC)
		}
	}
	return out
}

// --- internal state machine (adapted from the extract/process split of a
// typical telnet parser: a byte-at-a-time state machine that slices the
// buffer into plain-data, IAC-command, negotiation, and subnegotiation
// spans before decoding each span) ---

type spanKind int

const (
	spanNone spanKind = iota
	spanIAC
	spanNeg
	spanSub
)

type span struct {
	kind spanKind
	buf  []byte
}

func (p *Parser) process() []Event {
	var out []Event
	for _, sp := range p.extract() {
		switch sp.kind {
		case spanNone, spanIAC, spanNeg:
			out = append(out, p.decodeCommand(sp.buf)...)
		case spanSub:
			out = append(out, p.decodeSub(sp.buf)...)
		}
	}
	return out
}

func (p *Parser) extract() []span {
	const (
		stNormal = iota
		stIAC
		stNeg
		stSub
		stSubOpt
		stSubIAC
	)

	var res []span
	state := stNormal
	begin := 0
	buf := p.buffer
	p.buffer = nil

	for i := 0; i < len(buf); i++ {
		val := buf[i]
		switch state {
		case stNormal:
			if val == CmdIAC {
				if begin != i {
					res = append(res, span{kind: spanNone, buf: buf[begin:i]})
				}
				state = stIAC
				begin = i
			}
		case stIAC:
			switch val {
			case CmdIAC:
				state = stNormal
			case CmdGA, CmdEOR, CmdNOP:
				res = append(res, span{kind: spanIAC, buf: buf[begin : i+1]})
				state = stNormal
				begin = i + 1
			case CmdSB:
				state = stSub
			default:
				state = stNeg
			}
		case stNeg:
			res = append(res, span{kind: spanNeg, buf: buf[begin : i+1]})
			state = stNormal
			begin = i + 1
		case stSub:
			state = stSubOpt
		case stSubOpt:
			if val == CmdIAC {
				state = stSubIAC
			}
		case stSubIAC:
			if val == CmdSE {
				res = append(res, span{kind: spanSub, buf: buf[begin : i+1]})
				state = stNormal
				begin = i + 1
			} else if val != CmdIAC {
				state = stSubOpt
			}
		}
	}

	if begin < len(buf) {
		switch state {
		case stSub, stSubOpt, stSubIAC, stIAC, stNeg:
			p.buffer = append(p.buffer, buf[begin:]...)
		default:
			res = append(res, span{kind: spanNone, buf: buf[begin:]})
		}
	}

	return res
}

func (p *Parser) decodeCommand(buf []byte) []Event {
	var out []Event
	if len(buf) >= 2 && buf[0] == CmdIAC {
		cmd := buf[1]
		if cmd != CmdSE {
			if len(buf) == 2 {
				out = append(out, Event{Kind: EventIAC, Command: cmd})
			} else if len(buf) == 3 {
				out = append(out, p.negotiate(cmd, buf[2])...)
			}
		}
	} else if len(buf) > 0 {
		out = append(out, Event{Kind: EventDataReceive, Data: buf})
	}
	return out
}

func (p *Parser) decodeSub(buf []byte) []Event {
	if len(buf) < 5 || buf[len(buf)-2] != CmdIAC || buf[len(buf)-1] != CmdSE {
		p.buffer = append(p.buffer, buf...)
		return nil
	}
	opt := buf[2]
	payload := buf[3 : len(buf)-2]

	switch opt {
	case OptTTYPE:
		if len(payload) > 0 && payload[0] == SubSEND {
			return []Event{p.ttypeReply()}
		}
	case OptNAWS:
		// host does not normally query NAWS via SB/SEND; width/height are
		// pushed proactively once DO NAWS is accepted (see negotiate).
	}
	return []Event{{Kind: EventSubnegotiation, Option: opt, Data: payload}}
}

// negotiate mirrors the option-negotiation contract of spec §4.1.
func (p *Parser) negotiate(command, opt byte) []Event {
	entry := p.Options.Get(opt)
	var out []Event

	reply := func(cmd byte) Event {
		return Event{Kind: EventDataSend, Data: []byte{CmdIAC, cmd, opt}}
	}

	switch command {
	case CmdWILL:
		switch opt {
		case OptEcho, OptSGA:
			entry.RemoteState = true
			p.Options.Set(opt, entry)
			out = append(out, reply(CmdDO))
		default:
			// Generic options are accepted or refused per the
			// compatibility table's Remote flag, same as the teacher's
			// entry.Remote-gated negotiation.
			if entry.Remote {
				entry.RemoteState = true
				p.Options.Set(opt, entry)
				out = append(out, reply(CmdDO))
			} else {
				out = append(out, reply(CmdDONT))
			}
		}

	case CmdDO:
		switch opt {
		case OptTTYPE:
			entry.LocalState = true
			p.Options.Set(opt, entry)
			p.lastSubCmd = OptTTYPE
			out = append(out, reply(CmdWILL))
		case OptNAWS:
			entry.LocalState = true
			p.Options.Set(opt, entry)
			p.lastSubCmd = OptNAWS
			out = append(out, reply(CmdWILL))
			out = append(out, p.nawsReply())
		default:
			if entry.Local {
				entry.LocalState = true
				p.Options.Set(opt, entry)
				out = append(out, reply(CmdWILL))
			} else {
				out = append(out, reply(CmdWONT))
			}
		}

	case CmdWONT:
		entry.RemoteState = false
		p.Options.Set(opt, entry)

	case CmdDONT:
		entry.LocalState = false
		p.Options.Set(opt, entry)
	}

	out = append(out, Event{Kind: EventNegotiation, Command: command, Option: opt})
	return out
}

// ttypeReply cycles through the configured terminal-name list each time
// the host asks, exactly as the original driver's TERMCOUNTER does.
func (p *Parser) ttypeReply() Event {
	name := ""
	if len(p.ttypeNames) > 0 {
		name = p.ttypeNames[p.ttypeCursor%len(p.ttypeNames)]
		p.ttypeCursor++
	}
	buf := make([]byte, 0, len(name)+8)
	buf = append(buf, CmdIAC, CmdSB, OptTTYPE, SubIS)
	buf = append(buf, name...)
	buf = append(buf, CmdIAC, CmdSE)
	return Event{Kind: EventDataSend, Data: buf}
}

// nawsReply reports the configured window dimensions as big-endian
// 16-bit values per the telnet NAWS RFC.
func (p *Parser) nawsReply() Event {
	buf := []byte{
		CmdIAC, CmdSB, OptNAWS,
		byte(p.windowW >> 8), byte(p.windowW),
		byte(p.windowH >> 8), byte(p.windowH),
		CmdIAC, CmdSE,
	}
	return Event{Kind: EventDataSend, Data: buf}
}

// --- line/prompt buffering, used by Transport.ReadEager callers that
// want newline-delimited output in addition to the raw byte stream ---

// LineBuffer splits received data into complete lines, matching a LIMS
// host's CRLF convention.
type LineBuffer struct {
	buf bytes.Buffer
}

func (b *LineBuffer) Feed(data []byte) []string {
	b.buf.Write(data)
	raw := b.buf.Bytes()
	var lines []string
	last := 0
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\n' {
			end := i
			if end > last && raw[end-1] == '\r' {
				end--
			}
			lines = append(lines, string(raw[last:end]))
			last = i + 1
		}
	}
	if last > 0 {
		remaining := append([]byte(nil), raw[last:]...)
		b.buf.Reset()
		b.buf.Write(remaining)
	}
	return lines
}

func (b *LineBuffer) Pending() string { return b.buf.String() }
