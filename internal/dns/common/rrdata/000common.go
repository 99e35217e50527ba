package rrdata

import (
	"fmt"
	"net"
	"strings"

	"github.com/haukened/rr-dns/internal/dns/common/utils"
)

// EncodeDomainName encodes a domain name into wire format (length-prefixed
// labels ending in a zero octet). Used by every RDATA shape that embeds a
// domain name. Per spec §4.1, names inside RDATA are always written
// uncompressed; the message-level encoder owns compression of owner names.
func EncodeDomainName(name string) ([]byte, error) {
	name = utils.CanonicalDNSName(name)
	if name == "" {
		return []byte{0}, nil
	}
	labels := strings.Split(name, ".")
	var encoded []byte
	for _, label := range labels {
		if len(label) == 0 {
			continue
		}
		if len(label) > 63 {
			return nil, fmt.Errorf("label too long: %s", label)
		}
		encoded = append(encoded, byte(len(label)))
		encoded = append(encoded, label...)
	}
	encoded = append(encoded, 0)
	return encoded, nil
}

// DecodeDomainName decodes a length-prefixed label sequence with no
// compression pointers; this is the form RDATA always carries on its own
// (the message decoder resolves any compression before handing RDATA bytes
// here).
func DecodeDomainName(b []byte) (string, error) {
	var labels []string
	for i := 0; i < len(b); {
		labelLen := int(b[i])
		if labelLen == 0 {
			break
		}
		if labelLen&0xc0 != 0 {
			return "", fmt.Errorf("rrdata: unexpected compression pointer in RDATA name")
		}
		i++
		if i+labelLen > len(b) {
			return "", fmt.Errorf("rrdata: invalid domain name encoding")
		}
		labels = append(labels, string(b[i:i+labelLen]))
		i += labelLen
	}
	if len(labels) == 0 {
		return "", nil
	}
	return strings.Join(labels, "."), nil
}

// domainNameWireLen returns how many bytes DecodeDomainName consumed for the
// name starting at b, used by multi-name RDATA shapes (SOA, MINFO) to find
// the offset of the field that follows.
func domainNameWireLen(b []byte) (int, error) {
	for i := 0; i < len(b); {
		labelLen := int(b[i])
		if labelLen == 0 {
			return i + 1, nil
		}
		if labelLen&0xc0 != 0 {
			return 0, fmt.Errorf("rrdata: unexpected compression pointer in RDATA name")
		}
		i += 1 + labelLen
	}
	return 0, fmt.Errorf("rrdata: unterminated domain name")
}

func isIPv4(ip net.IP) bool {
	return ip != nil && ip.To4() != nil
}

func isIPv6(ip net.IP) bool {
	return ip != nil && ip.To16() != nil && ip.To4() == nil
}
