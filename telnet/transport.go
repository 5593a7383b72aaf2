package telnet

import (
	"fmt"
	"net"
	"time"

	"github.com/drake/labterm/errs"
)

const (
	// ENQ is the literal data-stream byte that requests an answerback,
	// distinct from telnet command bytes (spec §4.1).
	ENQ byte = 0x05
	// EOT terminates the session at the wire level on logout.
	EOT byte = 0x04
)

// Transport is a single-threaded, synchronous telnet byte transport. It
// never starts a goroutine of its own: ReadEager blocks the calling
// goroutine directly, per the single-threaded cooperative scheduling
// model of the session driver (spec §5).
type Transport struct {
	conn   net.Conn
	parser *Parser

	Answerback string
}

// Dial opens a TCP connection and configures keepalive the way a
// long-lived LIMS session needs it.
func Dial(address string, port int, terminalNames []string, windowW, windowH uint16, answerback string) (*Transport, error) {
	addr := fmt.Sprintf("%s:%d", address, port)
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return nil, errs.Wrap(errs.KindTransport, "dial "+addr, err)
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetKeepAlive(true)
		tcpConn.SetKeepAlivePeriod(30 * time.Second)
	}
	return &Transport{
		conn:       conn,
		parser:     NewParser(DefaultCompatibility(), terminalNames, windowW, windowH),
		Answerback: answerback,
	}, nil
}

// WriteBytes sends data exactly as given (it does not IAC-escape; callers
// sending text escape it first) and blocks up to a short timeout waiting
// for the bytes to be accepted by the socket.
func (t *Transport) WriteBytes(data []byte) error {
	t.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	defer t.conn.SetWriteDeadline(time.Time{})
	if _, err := t.conn.Write(data); err != nil {
		return errs.Wrap(errs.KindTransport, "write", err)
	}
	return nil
}

// ReadEager reads in sliceWait slices: while nothing has arrived it keeps
// polling until maxWait; once data has arrived it keeps concatenating
// reads until a slice comes back empty or cumulative wait reaches
// maxWait. It returns plain data bytes (telnet commands are consumed and
// replied to internally) ready for the ANSI tokenizer.
func (t *Transport) ReadEager(maxWait, sliceWait time.Duration) ([]byte, error) {
	var out []byte
	deadline := time.Now().Add(maxWait)
	buf := make([]byte, 4096)

	for {
		t.conn.SetReadDeadline(time.Now().Add(sliceWait))
		n, err := t.conn.Read(buf)
		t.conn.SetReadDeadline(time.Time{})

		if n > 0 {
			data, werr := t.ingest(buf[:n])
			if werr != nil {
				return out, werr
			}
			out = append(out, data...)
		}

		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				if n == 0 && len(out) == 0 && time.Now().Before(deadline) {
					continue
				}
				return out, nil
			}
			return out, errs.Wrap(errs.KindTransport, "read", err)
		}

		if n == 0 || time.Now().After(deadline) {
			return out, nil
		}
	}
}

// ingest feeds raw socket bytes through the telnet parser, writes any
// negotiation replies back to the host, handles the ENQ/answerback
// handshake, and returns the plain data bytes.
func (t *Transport) ingest(raw []byte) ([]byte, error) {
	var data []byte
	for _, ev := range t.parser.Receive(raw) {
		switch ev.Kind {
		case EventDataSend:
			if err := t.WriteBytes(ev.Data); err != nil {
				return data, err
			}
		case EventDataReceive:
			data = append(data, t.consumeENQ(ev.Data)...)
		case EventIAC, EventNegotiation, EventSubnegotiation:
			// negotiation side effects already applied inside the parser
		}
	}
	return data, nil
}

// consumeENQ strips and answers a literal ENQ byte before the remaining
// data reaches the ANSI tokenizer (spec §4.1).
func (t *Transport) consumeENQ(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		if b == ENQ {
			t.WriteBytes([]byte(t.Answerback))
			continue
		}
		out = append(out, b)
	}
	return out
}

// Close releases the underlying socket.
func (t *Transport) Close() error {
	return t.conn.Close()
}
