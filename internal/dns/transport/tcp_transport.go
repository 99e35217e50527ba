package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/haukened/rr-dns/internal/dns/common/clock"
	"github.com/haukened/rr-dns/internal/dns/common/log"
	"github.com/haukened/rr-dns/internal/dns/domain"
	"github.com/haukened/rr-dns/internal/dns/resolver"
	"github.com/haukened/rr-dns/internal/dns/wire"
)

// tcpIdleTimeout bounds how long a connection may sit with no query in
// flight before the transport reclaims it.
const tcpIdleTimeout = 30 * time.Second

// TCPTransport implements ServerTransport for DNS over TCP (RFC 1035
// §4.2.2). Each accepted connection is handled by its own task; queries
// on a connection are read and answered one at a time, which is what
// keeps responses in arrival order without any extra bookkeeping
// (spec §5 "Ordering").
type TCPTransport struct {
	addr     string
	listener net.Listener
	logger   log.Logger
	clock    clock.Clock

	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewTCPTransport creates a new TCP transport instance. clk sources the
// timestamp stamped on every decoded query and reply, so tests can freeze
// or advance it without sleeping; production callers pass clock.RealClock{}.
func NewTCPTransport(addr string, logger log.Logger, clk clock.Clock) *TCPTransport {
	return &TCPTransport{
		addr:   addr,
		logger: logger,
		clock:  clk,
		stopCh: make(chan struct{}),
	}
}

// Start begins accepting TCP DNS connections on the configured address.
func (t *TCPTransport) Start(ctx context.Context, handler resolver.DNSResponder) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("TCP transport already running")
	}

	ln, err := net.Listen("tcp", t.addr)
	if err != nil {
		return fmt.Errorf("failed to bind TCP socket on %s: %w", t.addr, err)
	}

	t.listener = ln
	t.running = true
	t.stopCh = make(chan struct{})

	t.logger.Info(map[string]any{
		"transport": "tcp",
		"address":   t.addr,
	}, "DNS transport started")

	go t.acceptLoop(ctx, handler)

	return nil
}

// Stop gracefully shuts down the TCP transport, closing the listener and
// every connection currently in flight.
func (t *TCPTransport) Stop() error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	close(t.stopCh)
	t.running = false
	var closeErr error
	if t.listener != nil {
		closeErr = t.listener.Close()
	}
	t.mu.Unlock()

	t.wg.Wait()

	t.logger.Info(map[string]any{
		"transport": "tcp",
		"address":   t.addr,
	}, "DNS transport stopped")

	return closeErr
}

// Address returns the network address the transport is bound to.
func (t *TCPTransport) Address() string {
	return t.addr
}

// acceptLoop accepts connections and spawns one task per connection
// (spec §5 "Scheduling model").
func (t *TCPTransport) acceptLoop(ctx context.Context, handler resolver.DNSResponder) {
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			select {
			case <-t.stopCh:
				return
			case <-ctx.Done():
				return
			default:
			}
			t.logger.Warn(map[string]any{
				"error": err.Error(),
			}, "failed to accept TCP connection")
			continue
		}

		t.wg.Add(1)
		go t.handleConn(ctx, conn, handler)
	}
}

// handleConn serves one TCP connection: it reads a length-prefixed query,
// answers it, writes the length-prefixed response, and repeats. Doing
// this serially on a single goroutine is what guarantees responses leave
// in the order their queries arrived.
func (t *TCPTransport) handleConn(ctx context.Context, conn net.Conn, handler resolver.DNSResponder) {
	defer t.wg.Done()
	defer conn.Close()

	remote := conn.RemoteAddr()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stopCh:
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(tcpIdleTimeout))

		now := t.clock.Now()
		query, err := wire.ReadTCPMessage(conn, now)
		if err != nil {
			connClosed := errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
			if connClosed || errors.Is(err, wire.ErrShortHeader) {
				// Either the connection closed mid-read, or the message
				// was too short to even carry a recoverable ID; spec §7
				// says to simply drop it rather than guess at a response.
				if connClosed {
					t.logger.Debug(map[string]any{
						"client": remote.String(),
						"error":  err.Error(),
					}, "TCP connection closed")
				} else {
					t.logger.Warn(map[string]any{
						"client": remote.String(),
						"error":  err.Error(),
					}, "failed to decode DNS query")
				}
				return
			}
			if _, ok := err.(net.Error); ok {
				t.logger.Debug(map[string]any{
					"client": remote.String(),
					"error":  err.Error(),
				}, "TCP connection closed")
				return
			}

			// The length-prefixed body was fully read but failed to parse
			// past the header, which DecodeMessage still hands back with
			// a recoverable ID; answer with FORMERR per spec §4.1/§7.
			t.logger.Warn(map[string]any{
				"client":   remote.String(),
				"query_id": query.Header.ID,
				"error":    err.Error(),
			}, "failed to decode DNS query past header, sending FORMERR")

			response := domain.NewErrorResponse(query, domain.RCode(1))
			if encoded, encErr := wire.EncodeTCP(response); encErr == nil {
				_, _ = conn.Write(encoded)
			}
			return
		}

		response := handler.HandleQuery(ctx, query, remote, now)

		encoded, err := wire.EncodeTCP(response)
		if err != nil {
			t.logger.Error(map[string]any{
				"client":   remote.String(),
				"query_id": response.Header.ID,
				"error":    err.Error(),
			}, "failed to encode DNS response")
			return
		}

		if _, err := conn.Write(encoded); err != nil {
			t.logger.Error(map[string]any{
				"client":   remote.String(),
				"query_id": response.Header.ID,
				"error":    err.Error(),
			}, "failed to send DNS response")
			return
		}
	}
}
