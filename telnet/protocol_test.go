package telnet

import (
	"bytes"
	"testing"
)

func TestNegotiateWillEchoRepliesDO(t *testing.T) {
	p := NewParser(DefaultCompatibility(), nil, 80, 24)
	events := p.Receive([]byte{CmdIAC, CmdWILL, OptEcho})

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(events), events)
	}
	if events[0].Kind != EventDataSend || !bytes.Equal(events[0].Data, []byte{CmdIAC, CmdDO, OptEcho}) {
		t.Errorf("expected DO ECHO reply, got %+v", events[0])
	}
	if events[1].Kind != EventNegotiation {
		t.Errorf("expected trailing negotiation event, got %+v", events[1])
	}
}

func TestNegotiateDoTTYPERepliesWillAndCyclesNames(t *testing.T) {
	p := NewParser(DefaultCompatibility(), []string{"VT100", "VT102"}, 80, 24)

	events := p.Receive([]byte{CmdIAC, CmdDO, OptTTYPE})
	if len(events) != 2 || !bytes.Equal(events[0].Data, []byte{CmdIAC, CmdWILL, OptTTYPE}) {
		t.Fatalf("expected WILL TTYPE reply, got %+v", events)
	}

	sub := append([]byte{CmdIAC, CmdSB, OptTTYPE, SubSEND}, CmdIAC, CmdSE)
	events = p.Receive(sub)
	if len(events) != 1 || events[0].Kind != EventDataSend {
		t.Fatalf("expected one TTYPE IS reply, got %+v", events)
	}
	if !bytes.Contains(events[0].Data, []byte("VT100")) {
		t.Errorf("expected first reply to carry VT100, got %v", events[0].Data)
	}

	events = p.Receive(sub)
	if !bytes.Contains(events[0].Data, []byte("VT102")) {
		t.Errorf("expected second reply to cycle to VT102, got %v", events[0].Data)
	}
}

func TestNegotiateDoNAWSRepliesWillThenPushesSize(t *testing.T) {
	p := NewParser(DefaultCompatibility(), nil, 80, 24)
	events := p.Receive([]byte{CmdIAC, CmdDO, OptNAWS})
	if len(events) != 3 {
		t.Fatalf("expected WILL + size push + negotiation, got %d: %+v", len(events), events)
	}
	if !bytes.Equal(events[0].Data, []byte{CmdIAC, CmdWILL, OptNAWS}) {
		t.Errorf("expected WILL NAWS, got %+v", events[0])
	}
	want := []byte{CmdIAC, CmdSB, OptNAWS, 0, 80, 0, 24, CmdIAC, CmdSE}
	if !bytes.Equal(events[1].Data, want) {
		t.Errorf("expected NAWS size push %v, got %v", want, events[1].Data)
	}
}

func TestNegotiateUnsupportedOptionRejected(t *testing.T) {
	p := NewParser(DefaultCompatibility(), nil, 80, 24)

	events := p.Receive([]byte{CmdIAC, CmdWILL, 99})
	if len(events) != 2 || !bytes.Equal(events[0].Data, []byte{CmdIAC, CmdDONT, 99}) {
		t.Fatalf("expected DONT for unsupported WILL, got %+v", events)
	}

	events = p.Receive([]byte{CmdIAC, CmdDO, 99})
	if len(events) != 2 || !bytes.Equal(events[0].Data, []byte{CmdIAC, CmdWONT, 99}) {
		t.Fatalf("expected WONT for unsupported DO, got %+v", events)
	}
}

func TestReceiveSplitAcrossReads(t *testing.T) {
	p := NewParser(DefaultCompatibility(), nil, 80, 24)

	events := p.Receive([]byte{CmdIAC, CmdDO})
	if len(events) != 0 {
		t.Fatalf("expected no events for truncated command, got %+v", events)
	}
	events = p.Receive([]byte{OptNAWS})
	if len(events) == 0 {
		t.Fatal("expected events once the option byte arrives")
	}
}

func TestReceivePlainDataPassesThrough(t *testing.T) {
	p := NewParser(DefaultCompatibility(), nil, 80, 24)
	events := p.Receive([]byte("hello"))
	if len(events) != 1 || events[0].Kind != EventDataReceive || string(events[0].Data) != "hello" {
		t.Fatalf("expected a single data-receive event, got %+v", events)
	}
}

func TestEscapeIACDoublesIAC(t *testing.T) {
	in := []byte{CmdIAC, 'a', CmdIAC, CmdIAC}
	want := []byte{CmdIAC, CmdIAC, 'a', CmdIAC, CmdIAC, CmdIAC, CmdIAC}
	if got := EscapeIAC(in); !bytes.Equal(got, want) {
		t.Errorf("EscapeIAC(%v) = %v, want %v", in, got, want)
	}
}

func TestLineBufferSplitsCRLF(t *testing.T) {
	var lb LineBuffer
	lines := lb.Feed([]byte("line1\r\nline2\nline3"))
	if len(lines) != 2 || lines[0] != "line1" || lines[1] != "line2" {
		t.Fatalf("unexpected lines: %v", lines)
	}
	if lb.Pending() != "line3" {
		t.Errorf("expected pending %q, got %q", "line3", lb.Pending())
	}
}

func TestMalformedSubnegotiationDoesNotPanic(t *testing.T) {
	p := NewParser(DefaultCompatibility(), nil, 80, 24)
	p.Receive([]byte{CmdIAC, CmdSB, CmdIAC, CmdSE})
}
