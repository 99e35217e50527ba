// Package upstream performs the low-level network exchange of one DNS
// message with one upstream server (spec §4.5 "Per-iteration loop" step 3):
// dial, write, read, decode, with a per-server timeout. It owns no
// resolution policy — server selection, retries, and referral following
// belong to the recursive resolver, which calls Client.Query once per
// candidate server per iteration.
package upstream

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/haukened/rr-dns/internal/dns/domain"
	"github.com/haukened/rr-dns/internal/dns/wire"
)

// DialFunc opens a network connection, the seam tests use to avoid real
// sockets (spec §9 design notes carry this pattern from the teacher's
// upstream gateway).
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Client issues non-recursive queries to upstream nameservers over UDP or
// TCP. It is deliberately policy-free: spec §4.5's candidate ordering,
// retry-on-TC, and per-server timeout budget live in the recursive
// resolver, which is the only caller.
type Client struct {
	timeout time.Duration
	dial    DialFunc
}

// Options configures a Client. Dial defaults to net.Dialer.DialContext.
type Options struct {
	Timeout time.Duration
	Dial    DialFunc
}

// New returns a Client with a per-query timeout (spec §4.5 "per-server
// budget, e.g. 5s").
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Dial == nil {
		opts.Dial = (&net.Dialer{}).DialContext
	}
	return &Client{timeout: opts.Timeout, dial: opts.Dial}
}

// Query sends msg to addr over network ("udp" or "tcp") and returns the
// decoded response. The recursive resolver is responsible for retrying a
// truncated UDP answer (TC=1) over TCP (spec §4.5 step 3).
func (c *Client) Query(ctx context.Context, network, addr string, msg domain.Message, now time.Time) (domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dial(ctx, network, addr)
	if err != nil {
		return domain.Message{}, fmt.Errorf("upstream: dial %s %s: %w", network, addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	switch network {
	case "udp":
		return c.queryUDP(conn, msg, now)
	case "tcp":
		return c.queryTCP(conn, msg, now)
	default:
		return domain.Message{}, fmt.Errorf("upstream: unsupported network %q", network)
	}
}

func (c *Client) queryUDP(conn net.Conn, msg domain.Message, now time.Time) (domain.Message, error) {
	out, err := wire.EncodeMessage(msg)
	if err != nil {
		return domain.Message{}, fmt.Errorf("upstream: encode: %w", err)
	}
	if _, err := conn.Write(out); err != nil {
		return domain.Message{}, fmt.Errorf("upstream: write: %w", err)
	}
	buf := make([]byte, wire.MaxUDPSize)
	n, err := conn.Read(buf)
	if err != nil {
		return domain.Message{}, fmt.Errorf("upstream: read: %w", err)
	}
	resp, err := wire.DecodeMessage(buf[:n], now)
	if err != nil {
		return domain.Message{}, fmt.Errorf("upstream: decode: %w", err)
	}
	return resp, nil
}

func (c *Client) queryTCP(conn net.Conn, msg domain.Message, now time.Time) (domain.Message, error) {
	out, err := wire.EncodeTCP(msg)
	if err != nil {
		return domain.Message{}, fmt.Errorf("upstream: encode: %w", err)
	}
	if _, err := conn.Write(out); err != nil {
		return domain.Message{}, fmt.Errorf("upstream: write: %w", err)
	}
	resp, err := wire.ReadTCPMessage(conn, now)
	if err != nil {
		return domain.Message{}, fmt.Errorf("upstream: decode: %w", err)
	}
	return resp, nil
}
