package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/haukened/rr-dns/internal/dns/domain"
)

// tcpLenPrefix is the width of the length field TCP framing prepends to
// every message (spec §4.1 "Framing": "TCP: each message is prefixed with
// a 2-octet big-endian length.").
const tcpLenPrefix = 2

// EncodeTCP serializes msg and prepends the 2-octet big-endian length
// prefix TCP framing requires.
func EncodeTCP(msg domain.Message) ([]byte, error) {
	body, err := EncodeMessage(msg)
	if err != nil {
		return nil, err
	}
	if len(body) > 0xffff {
		return nil, fmt.Errorf("wire: message too large for TCP framing: %d bytes", len(body))
	}
	out := make([]byte, tcpLenPrefix+len(body))
	binary.BigEndian.PutUint16(out[:tcpLenPrefix], uint16(len(body)))
	copy(out[tcpLenPrefix:], body)
	return out, nil
}

// ReadTCPMessage reads one length-prefixed message from r and decodes it.
// It blocks until a full message has arrived or r returns an error.
func ReadTCPMessage(r io.Reader, now time.Time) (domain.Message, error) {
	var lenBuf [tcpLenPrefix]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return domain.Message{}, err
	}
	n := binary.BigEndian.Uint16(lenBuf[:])
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return domain.Message{}, err
	}
	return DecodeMessage(body, now)
}
