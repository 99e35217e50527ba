package transport

import (
	"context"
	"fmt"

	"github.com/haukened/rr-dns/internal/dns/common/clock"
	"github.com/haukened/rr-dns/internal/dns/common/log"
	"github.com/haukened/rr-dns/internal/dns/resolver"
)

// ServerTransport defines the interface for DNS transport implementations.
type ServerTransport interface {
	Start(ctx context.Context, handler resolver.DNSResponder) error
	Stop() error
	Address() string
}

// TransportType names a wire transport rr-dns knows how to speak.
type TransportType string

const (
	TransportUDP TransportType = "udp"
	TransportTCP TransportType = "tcp"
)

// NewTransport creates a new transport instance based on the specified type.
// This factory function allows for easy extension to support additional
// transport protocols in the future while maintaining a consistent interface.
func NewTransport(transportType TransportType, addr string, logger log.Logger, clk clock.Clock) (ServerTransport, error) {
	switch transportType {
	case TransportUDP:
		return NewUDPTransport(addr, logger, clk), nil

	case TransportTCP:
		return NewTCPTransport(addr, logger, clk), nil

	default:
		return nil, fmt.Errorf("unsupported transport type: %s", transportType)
	}
}

// GetSupportedTransports returns a list of currently supported transport types.
func GetSupportedTransports() []TransportType {
	return []TransportType{
		TransportUDP,
		TransportTCP,
	}
}

// IsTransportSupported checks if a given transport type is currently supported.
func IsTransportSupported(transportType TransportType) bool {
	supported := GetSupportedTransports()
	for _, t := range supported {
		if t == transportType {
			return true
		}
	}
	return false
}
