package ripwire

import "fmt"

// ErrMalformed reports a packet that fails structural validation: bad
// command, bad version, a nonzero reserved field, or a byte count that
// doesn't divide evenly into 20-byte RTEs.
type ErrMalformed struct {
	Reason string
}

func (e *ErrMalformed) Error() string {
	return fmt.Sprintf("ripwire: malformed message: %s", e.Reason)
}

// Message is a decoded RIPv2 packet: a command, and up to MaxEntries RTEs.
// The version field is fixed at Version and the reserved field at zero, so
// neither is retained after decode.
type Message struct {
	Command byte
	Entries []RTE
}

// Encode serializes m. It returns ErrMalformed if m carries more than
// MaxEntries entries or an unrecognized command — callers are expected to
// paginate beforehand (see Paginate).
func Encode(m Message) ([]byte, error) {
	if m.Command != CommandRequest && m.Command != CommandResponse {
		return nil, &ErrMalformed{Reason: fmt.Sprintf("bad command %d", m.Command)}
	}
	if len(m.Entries) > MaxEntries {
		return nil, &ErrMalformed{Reason: fmt.Sprintf("too many entries: %d > %d", len(m.Entries), MaxEntries)}
	}

	buf := make([]byte, headerSize+rteSize*len(m.Entries))
	buf[0] = m.Command
	buf[1] = Version
	// buf[2:4] reserved, left zero

	for i, e := range m.Entries {
		if e.AFI == 0 && e.AFI != AFIUnspec {
			e.AFI = AFIInet
		}
		off := headerSize + i*rteSize
		encodeRTE(buf[off:off+rteSize], e)
	}

	return buf, nil
}

// Decode parses a raw RIPv2 datagram. It fails with ErrMalformed when the
// command is neither Request nor Response, the version is not 2, the
// reserved field is nonzero, or the trailing bytes don't form an integral
// number of RTEs.
func Decode(buf []byte) (Message, error) {
	if len(buf) < headerSize {
		return Message{}, &ErrMalformed{Reason: fmt.Sprintf("short header: %d bytes", len(buf))}
	}

	cmd := buf[0]
	if cmd != CommandRequest && cmd != CommandResponse {
		return Message{}, &ErrMalformed{Reason: fmt.Sprintf("bad command %d", cmd)}
	}

	version := buf[1]
	if version != Version {
		return Message{}, &ErrMalformed{Reason: fmt.Sprintf("bad version %d", version)}
	}

	if buf[2] != 0 || buf[3] != 0 {
		return Message{}, &ErrMalformed{Reason: "nonzero reserved field"}
	}

	payload := len(buf) - headerSize
	if payload%rteSize != 0 {
		return Message{}, &ErrMalformed{Reason: fmt.Sprintf("trailing bytes: payload=%d not a multiple of %d", payload, rteSize)}
	}

	n := payload / rteSize
	if n > MaxEntries {
		return Message{}, &ErrMalformed{Reason: fmt.Sprintf("too many entries: %d > %d", n, MaxEntries)}
	}

	entries := make([]RTE, n)
	for i := 0; i < n; i++ {
		off := headerSize + i*rteSize
		entries[i] = decodeRTE(buf[off : off+rteSize])
	}

	return Message{Command: cmd, Entries: entries}, nil
}

// Paginate splits entries into chunks of at most MaxEntries RTEs each, one
// Message per chunk, so that no single Encode call ever needs to reject a
// message for being oversized. A nil/empty input still yields a single
// empty-bodied message when forcePage is true (periodic updates must send
// at least one packet even with zero routes); otherwise it yields none.
func Paginate(command byte, entries []RTE, forcePage bool) []Message {
	if len(entries) == 0 {
		if forcePage {
			return []Message{{Command: command}}
		}
		return nil
	}

	var pages []Message
	for len(entries) > 0 {
		n := len(entries)
		if n > MaxEntries {
			n = MaxEntries
		}
		pages = append(pages, Message{Command: command, Entries: append([]RTE(nil), entries[:n]...)})
		entries = entries[n:]
	}
	return pages
}
