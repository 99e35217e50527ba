package wire

import (
	"time"

	"github.com/haukened/rr-dns/internal/dns/common/log"
	"github.com/haukened/rr-dns/internal/dns/domain"
)

// udpCodec implements DNSCodec. Despite the name (kept from the original
// single-protocol codec this grew out of), it is protocol agnostic: UDP
// truncation (TruncateForUDP) and TCP length-prefix framing (EncodeTCP,
// ReadTCPMessage) are separate functions of this package that the
// transports call; this codec does neither.
type udpCodec struct {
	logger log.Logger
}

// NewUDPCodec creates a new instance of udpCodec using the provided logger.
func NewUDPCodec(logger log.Logger) *udpCodec {
	return &udpCodec{logger: logger}
}

// Encode serializes msg into its wire form.
func (c *udpCodec) Encode(msg domain.Message) ([]byte, error) {
	out, err := EncodeMessage(msg)
	if err != nil {
		c.logger.Debug(map[string]any{
			"id":    msg.Header.ID,
			"error": err.Error(),
		}, "failed to encode message")
		return nil, err
	}
	c.logger.Debug(map[string]any{
		"id":   msg.Header.ID,
		"size": len(out),
		"an":   len(msg.Answers),
	}, "encoded message")
	return out, nil
}

// Decode parses a wire-form message.
func (c *udpCodec) Decode(data []byte, now time.Time) (domain.Message, error) {
	msg, err := DecodeMessage(data, now)
	if err != nil {
		c.logger.Debug(map[string]any{
			"size":  len(data),
			"error": err.Error(),
		}, "failed to decode message")
		return domain.Message{}, err
	}
	return msg, nil
}

var _ DNSCodec = &udpCodec{}
