// Package wire converts between byte buffers and structured domain.Message
// values, bit-exact to RFC 1035/1034/2782/3596/4343.
package wire

import (
	"time"

	"github.com/haukened/rr-dns/internal/dns/domain"
)

// DNSCodec encodes and decodes whole DNS messages. A single implementation
// serves both directions of both roles this server plays: it builds and
// parses queries sent to upstream servers, and it parses and builds queries
// and responses exchanged with clients.
type DNSCodec interface {
	// Encode serializes msg into its wire form. The caller is responsible
	// for framing (UDP datagram boundary, or a 2-octet length prefix over
	// TCP) and for truncation (see TruncateForUDP).
	Encode(msg domain.Message) ([]byte, error)

	// Decode parses a wire-form message. now is used to compute absolute
	// expiry for any records the message carries, which matters when this
	// decodes an upstream response destined for the cache.
	Decode(data []byte, now time.Time) (domain.Message, error)
}

// MaxUDPSize is the historic UDP message size limit this server enforces in
// the absence of EDNS(0) support (spec §4.1 "Framing").
const MaxUDPSize = 512
