package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/haukened/rr-dns/internal/dns/domain"
)

const headerSize = 12

// ErrShortHeader means data is too short to even contain a 12-octet
// header, so no transaction ID can be recovered. Per spec §4.1/§7, a
// transport sees this distinguished from every other decode failure: it is
// the only case where a malformed query must be dropped silently rather
// than answered with a FORMERR response.
var ErrShortHeader = errors.New("wire: message too short for header")

// encodeHeader writes the fixed 12-octet header (RFC 1035 §4.1.1).
func encodeHeader(h domain.Header) []byte {
	buf := make([]byte, headerSize)
	binary.BigEndian.PutUint16(buf[0:2], h.ID)

	var flags uint16
	if h.QR {
		flags |= 1 << 15
	}
	flags |= uint16(h.OpCode&0x0f) << 11
	if h.AA {
		flags |= 1 << 10
	}
	if h.TC {
		flags |= 1 << 9
	}
	if h.RD {
		flags |= 1 << 8
	}
	if h.RA {
		flags |= 1 << 7
	}
	flags |= uint16(h.Z&0x07) << 4
	flags |= uint16(h.RCode) & 0x0f
	binary.BigEndian.PutUint16(buf[2:4], flags)

	binary.BigEndian.PutUint16(buf[4:6], h.QDCount)
	binary.BigEndian.PutUint16(buf[6:8], h.ANCount)
	binary.BigEndian.PutUint16(buf[8:10], h.NSCount)
	binary.BigEndian.PutUint16(buf[10:12], h.ARCount)
	return buf
}

// decodeHeader parses the fixed 12-octet header.
func decodeHeader(data []byte) (domain.Header, error) {
	if len(data) < headerSize {
		return domain.Header{}, fmt.Errorf("%w: %d bytes", ErrShortHeader, len(data))
	}
	flags := binary.BigEndian.Uint16(data[2:4])
	return domain.Header{
		ID:      binary.BigEndian.Uint16(data[0:2]),
		QR:      flags&(1<<15) != 0,
		OpCode:  domain.OpCode((flags >> 11) & 0x0f),
		AA:      flags&(1<<10) != 0,
		TC:      flags&(1<<9) != 0,
		RD:      flags&(1<<8) != 0,
		RA:      flags&(1<<7) != 0,
		Z:       uint8((flags >> 4) & 0x07),
		RCode:   domain.RCode(flags & 0x0f),
		QDCount: binary.BigEndian.Uint16(data[4:6]),
		ANCount: binary.BigEndian.Uint16(data[6:8]),
		NSCount: binary.BigEndian.Uint16(data[8:10]),
		ARCount: binary.BigEndian.Uint16(data[10:12]),
	}, nil
}
