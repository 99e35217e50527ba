package resolver

import (
	"context"
	"net"
	"time"

	"github.com/haukened/rr-dns/internal/dns/domain"
	"github.com/haukened/rr-dns/internal/dns/zone"
)

// ZoneStore is the subset of *zone.Store the resolver depends on (spec §4.2
// "Zone store", §4.5 "Best-known delegation"). A narrow interface rather
// than the concrete type so tests can substitute a fake store.
type ZoneStore interface {
	AuthoritativeZone(name domain.Name) (*zone.Zone, bool)
	HintZone() (*zone.Zone, bool)
	NSDelegation(name domain.Name) (owner domain.Name, ns []domain.RR, ok bool)
}

// Cache is the subset of *cache.Cache the resolver depends on (spec §4.3).
type Cache interface {
	Get(q domain.Question, now time.Time) ([]domain.RR, bool)
	Put(rrs []domain.RR, now time.Time)
}

// UpstreamQuerier sends one message to one upstream server and returns its
// decoded response (spec §4.5 step 3). Implemented by *upstream.Client.
type UpstreamQuerier interface {
	Query(ctx context.Context, network, addr string, msg domain.Message, now time.Time) (domain.Message, error)
}

// DNSResponder answers a single client query, the contract the network
// front-end calls into (spec §2 "Data flow").
type DNSResponder interface {
	HandleQuery(ctx context.Context, query domain.Message, clientAddr net.Addr, now time.Time) domain.Message
}
