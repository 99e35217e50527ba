package wire

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/haukened/rr-dns/internal/dns/domain"
)

const maxNameOctets = 255

// decodeName reads a label sequence starting at offset in the full message
// buffer data, following compression pointers (RFC 1035 §4.1.4). It returns
// the decoded name, the offset immediately after the sequence as it
// appeared at the call site (i.e. not following the target of a followed
// pointer), and an error.
//
// Per spec §4.1 "Name decoding": a pointer target must lie strictly before
// the pointer's own position (this both guarantees termination and rejects
// forward-reference loops), and the cumulative label bytes read across any
// chain of pointers must not exceed 255 octets.
func decodeName(data []byte, offset int) (domain.Name, int, error) {
	var labels []string
	cur := offset
	cumulative := 0
	jumped := false
	endOffset := -1

	for {
		if cur >= len(data) {
			return "", 0, fmt.Errorf("wire: name offset %d out of bounds", cur)
		}
		lengthByte := data[cur]
		switch {
		case lengthByte == 0x00:
			cur++
			if !jumped {
				endOffset = cur
			}
			name := strings.Join(labels, ".")
			if name == "" {
				name = "."
			} else {
				name += "."
			}
			return domain.CanonicalName(name), endOffset, nil

		case lengthByte&0xc0 == 0xc0:
			if cur+1 >= len(data) {
				return "", 0, fmt.Errorf("wire: truncated compression pointer at %d", cur)
			}
			ptr := int(binary.BigEndian.Uint16(data[cur:cur+2]) & 0x3fff)
			if ptr >= cur {
				return "", 0, fmt.Errorf("wire: compression pointer at %d does not point strictly backward (target %d)", cur, ptr)
			}
			if !jumped {
				endOffset = cur + 2
			}
			jumped = true
			cur = ptr

		case lengthByte&0xc0 != 0x00:
			return "", 0, fmt.Errorf("wire: reserved label length pattern 0x%02x at offset %d", lengthByte, cur)

		default:
			labelLen := int(lengthByte)
			cur++
			if cur+labelLen > len(data) {
				return "", 0, fmt.Errorf("wire: label at %d exceeds message bounds", cur)
			}
			cumulative += labelLen + 1
			if cumulative > maxNameOctets {
				return "", 0, fmt.Errorf("wire: name exceeds %d octets", maxNameOctets)
			}
			labels = append(labels, string(data[cur:cur+labelLen]))
			cur += labelLen
		}
	}
}

// nameTable tracks the byte offset each previously-encoded name (and each
// of its suffixes) was written at, so later names can compress against it.
type nameTable map[domain.Name]int

// encodeName writes name into buf, compressing against any suffix already
// present in table when doing so is legal (offset < 0x4000). Every
// uncompressed suffix written is recorded in table at its start offset so
// later names can point back to it.
func encodeName(buf []byte, name domain.Name, table nameTable) []byte {
	labels := name.Labels()

	for i := 0; i < len(labels); i++ {
		suffix := domain.CanonicalName(strings.Join(labels[i:], "."))
		if ptr, ok := table[suffix]; ok {
			buf = append(buf, byte(0xc0|(ptr>>8)), byte(ptr&0xff))
			return buf
		}
		pos := len(buf)
		if pos < 0x4000 {
			table[suffix] = pos
		}
		label := labels[i]
		buf = append(buf, byte(len(label)))
		buf = append(buf, label...)
	}
	buf = append(buf, 0)
	return buf
}
