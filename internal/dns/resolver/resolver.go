// Package resolver answers a single question against zones, the cache, and
// (when recursion is desired and local data is insufficient) the recursive
// resolver, per spec §4.4-4.5.
package resolver

import (
	"context"
	"net"
	"time"

	"github.com/haukened/rr-dns/internal/dns/common/log"
	"github.com/haukened/rr-dns/internal/dns/common/utils"
	"github.com/haukened/rr-dns/internal/dns/domain"
)

// Recursor resolves a question iteratively against upstream nameservers
// (spec §4.5), the component HandleQuery hands off to on a local miss with
// RD=1.
type Recursor interface {
	Resolve(ctx context.Context, q domain.Question, now time.Time) (answers []domain.RR, rcode domain.RCode, err error)
}

// Resolver implements DNSResponder: it is the single entry point the
// transport front-end calls for every decoded query (spec §2 "Data flow").
type Resolver struct {
	zones    ZoneStore
	cache    Cache
	recursor Recursor
}

// New constructs a Resolver. recursor may be nil, which degrades every
// recursion-desired miss to SERVFAIL — used by callers that only need local
// (authoritative-plus-cache) resolution, e.g. tests.
func New(zones ZoneStore, cache Cache, recursor Recursor) *Resolver {
	return &Resolver{zones: zones, cache: cache, recursor: recursor}
}

// HandleQuery answers query, implementing spec §4.4 end to end: validate the
// request shape, resolve locally, and fall back to recursion when the
// client asked for it and local data did not settle the question.
func (r *Resolver) HandleQuery(ctx context.Context, query domain.Message, clientAddr net.Addr, now time.Time) domain.Message {
	if len(query.Questions) != 1 {
		log.Debug(map[string]any{"client": addrString(clientAddr)}, "formerr: not exactly one question")
		return withRA(domain.NewErrorResponse(query, domain.RCode(1)))
	}
	if query.Header.OpCode != domain.OpCodeQuery {
		return withRA(domain.NewErrorResponse(query, domain.RCode(4)))
	}

	q := query.Question()
	if !q.Class.IsImplemented() {
		return withRA(domain.NewErrorResponse(query, domain.RCode(4)))
	}

	lr := r.resolveLocal(q, now)
	if lr.foundLocally {
		resp := domain.NewResponseMessage(query, lr.rcode, lr.answers, lr.authority, nil)
		resp.Header.AA = lr.aa
		return withRA(resp)
	}

	if !query.Header.RD {
		// Spec §4.4 step 4 / §8 edge case: non-recursive miss is NOERROR
		// with an empty answer, not NXDOMAIN — this server simply isn't
		// authoritative for the name and was not asked to go further.
		return withRA(domain.NewResponseMessage(query, 0, lr.answers, nil, nil))
	}

	if r.recursor == nil {
		log.Warn(map[string]any{"name": string(q.Name)}, "recursion desired but no recursor configured")
		return withRA(domain.NewErrorResponse(query, domain.RCode(2)))
	}

	log.Debug(map[string]any{"name": string(q.Name), "apex": utils.GetApexDomain(string(q.Name))}, "falling back to recursion")

	answers, rcode, err := r.recursor.Resolve(ctx, q, now)
	if err != nil {
		log.Error(map[string]any{"name": string(q.Name), "error": err.Error()}, "recursive resolution failed")
		return withRA(domain.NewErrorResponse(query, domain.RCode(2)))
	}
	merged := append(append([]domain.RR{}, lr.answers...), answers...)
	resp := domain.NewResponseMessage(query, rcode, merged, nil, nil)
	return withRA(resp)
}

// withRA sets RA (recursion available), which this server always offers.
func withRA(m domain.Message) domain.Message {
	m.Header.RA = true
	return m
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}
