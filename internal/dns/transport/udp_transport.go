package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/haukened/rr-dns/internal/dns/common/clock"
	"github.com/haukened/rr-dns/internal/dns/common/log"
	"github.com/haukened/rr-dns/internal/dns/domain"
	"github.com/haukened/rr-dns/internal/dns/resolver"
	"github.com/haukened/rr-dns/internal/dns/wire"
)

// maxUDPMessageSize is the classic DNS-over-UDP ceiling; rr-dns does not
// negotiate EDNS0, so every response must fit here or be truncated
// (spec §4.1 "Framing").
const maxUDPMessageSize = 512

// UDPTransport implements ServerTransport for standard DNS over UDP
// (RFC 1035). It handles socket management and wire framing while
// delegating DNS logic to the resolver.
type UDPTransport struct {
	addr   string
	conn   *net.UDPConn
	logger log.Logger
	clock  clock.Clock

	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
}

// NewUDPTransport creates a new UDP transport instance. clk sources the
// timestamp stamped on every decoded query and reply, so tests can freeze
// or advance it without sleeping; production callers pass clock.RealClock{}.
func NewUDPTransport(addr string, logger log.Logger, clk clock.Clock) *UDPTransport {
	return &UDPTransport{
		addr:   addr,
		logger: logger,
		clock:  clk,
		stopCh: make(chan struct{}),
	}
}

// Start begins listening for UDP DNS queries on the configured address.
func (t *UDPTransport) Start(ctx context.Context, handler resolver.DNSResponder) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("UDP transport already running")
	}

	udpAddr, err := net.ResolveUDPAddr("udp", t.addr)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address %s: %w", t.addr, err)
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("failed to bind UDP socket on %s: %w", t.addr, err)
	}

	t.conn = conn
	t.running = true
	t.stopCh = make(chan struct{})

	t.logger.Info(map[string]any{
		"transport": "udp",
		"address":   t.addr,
	}, "DNS transport started")

	go t.listenLoop(ctx, handler)

	return nil
}

// Stop gracefully shuts down the UDP transport.
func (t *UDPTransport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return nil
	}

	close(t.stopCh)

	var closeErr error
	if t.conn != nil {
		closeErr = t.conn.Close()
		if closeErr != nil {
			t.logger.Warn(map[string]any{
				"error": closeErr.Error(),
			}, "error closing UDP connection")
		}
	}

	t.running = false

	t.logger.Info(map[string]any{
		"transport": "udp",
		"address":   t.addr,
	}, "DNS transport stopped")

	return closeErr
}

// Address returns the network address the transport is bound to.
func (t *UDPTransport) Address() string {
	return t.addr
}

// listenLoop continuously listens for UDP packets and spawns one task per
// datagram (spec §5 "Scheduling model").
func (t *UDPTransport) listenLoop(ctx context.Context, handler resolver.DNSResponder) {
	buffer := make([]byte, maxUDPMessageSize)

	for {
		select {
		case <-ctx.Done():
			t.logger.Debug(nil, "UDP transport stopping due to context cancellation")
			return
		case <-t.stopCh:
			t.logger.Debug(nil, "UDP transport stopping due to stop signal")
			return
		default:
			n, clientAddr, err := t.conn.ReadFromUDP(buffer)
			if err != nil {
				t.mu.RLock()
				running := t.running
				t.mu.RUnlock()
				if !running {
					return
				}
				t.logger.Warn(map[string]any{
					"error": err.Error(),
				}, "failed to read UDP packet")
				continue
			}

			packet := make([]byte, n)
			copy(packet, buffer[:n])
			go t.handlePacket(ctx, packet, clientAddr, handler)
		}
	}
}

// handlePacket decodes one datagram, dispatches it to handler, and writes
// back a response truncated to fit the 512-octet UDP ceiling if needed.
func (t *UDPTransport) handlePacket(ctx context.Context, data []byte, clientAddr *net.UDPAddr, handler resolver.DNSResponder) {
	now := t.clock.Now()

	query, err := wire.DecodeMessage(data, now)
	if err != nil {
		if errors.Is(err, wire.ErrShortHeader) {
			// No recoverable ID; spec §7 says to simply drop it rather
			// than guess at a response.
			t.logger.Warn(map[string]any{
				"client": clientAddr.String(),
				"error":  err.Error(),
				"size":   len(data),
			}, "failed to decode DNS query")
			return
		}

		t.logger.Warn(map[string]any{
			"client":   clientAddr.String(),
			"query_id": query.Header.ID,
			"error":    err.Error(),
			"size":     len(data),
		}, "failed to decode DNS query past header, sending FORMERR")

		response := domain.NewErrorResponse(query, domain.RCode(1))
		if _, encoded, encErr := wire.TruncateForUDP(response, maxUDPMessageSize); encErr == nil {
			_, _ = t.conn.WriteToUDP(encoded, clientAddr)
		}
		return
	}

	response := handler.HandleQuery(ctx, query, clientAddr, now)

	_, encoded, err := wire.TruncateForUDP(response, maxUDPMessageSize)
	if err != nil {
		t.logger.Error(map[string]any{
			"client":   clientAddr.String(),
			"query_id": response.Header.ID,
			"error":    err.Error(),
		}, "failed to encode DNS response")
		return
	}

	if _, err := t.conn.WriteToUDP(encoded, clientAddr); err != nil {
		t.logger.Error(map[string]any{
			"client":   clientAddr.String(),
			"query_id": response.Header.ID,
			"error":    err.Error(),
		}, "failed to send DNS response")
	}
}
