package resolver

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/rr-dns/internal/dns/common/log"
	"github.com/haukened/rr-dns/internal/dns/domain"
)

// lastSuccessCapacity bounds the last-known-good-server memo so a resolver
// fielding queries across many zones can't grow it without limit.
const lastSuccessCapacity = 4096

// Defaults for the recursive resolver's budgets (spec §4.5 "Overall budget").
const (
	DefaultMaxReferrals     = 32
	DefaultTotalTimeout     = 10 * time.Second
	DefaultMaxNSDepth       = 8
	DefaultPerServerTimeout = 5 * time.Second
)

// ErrRecursionExhausted is returned (wrapped into SERVFAIL by the caller)
// when every candidate at an iteration failed, or a budget ran out.
var ErrRecursionExhausted = fmt.Errorf("recursive resolver: exhausted candidates or budget")

// RecursiveResolver implements iterative descent from the best-known
// delegation down to an authoritative answer, per spec §4.5. It satisfies
// the Recursor interface consumed by Resolver.
type RecursiveResolver struct {
	zones  ZoneStore
	cache  Cache
	client UpstreamQuerier

	maxReferrals int
	maxNSDepth   int
	totalTimeout time.Duration
	serverTimeout time.Duration

	lastSuccess *lru.Cache[string, time.Time] // server addr -> last time it answered usefully
}

// RecursiveOptions configures a RecursiveResolver. Zero values take the
// package defaults.
type RecursiveOptions struct {
	MaxReferrals     int
	MaxNSDepth       int
	TotalTimeout     time.Duration
	PerServerTimeout time.Duration
}

// NewRecursive constructs a RecursiveResolver over zones (for root hints and
// any locally-known delegations), cache (for learned delegations and as the
// destination of every record it resolves), and client (the single-server
// query primitive).
func NewRecursive(zones ZoneStore, cache Cache, client UpstreamQuerier, opts RecursiveOptions) *RecursiveResolver {
	if opts.MaxReferrals <= 0 {
		opts.MaxReferrals = DefaultMaxReferrals
	}
	if opts.MaxNSDepth <= 0 {
		opts.MaxNSDepth = DefaultMaxNSDepth
	}
	if opts.TotalTimeout <= 0 {
		opts.TotalTimeout = DefaultTotalTimeout
	}
	if opts.PerServerTimeout <= 0 {
		opts.PerServerTimeout = DefaultPerServerTimeout
	}
	lastSuccess, err := lru.New[string, time.Time](lastSuccessCapacity)
	if err != nil {
		// lastSuccessCapacity is a positive compile-time constant; New only
		// errors on a non-positive size.
		panic(fmt.Sprintf("resolver: building last-success cache: %v", err))
	}
	return &RecursiveResolver{
		zones:         zones,
		cache:         cache,
		client:        client,
		maxReferrals:  opts.MaxReferrals,
		maxNSDepth:    opts.MaxNSDepth,
		totalTimeout:  opts.TotalTimeout,
		serverTimeout: opts.PerServerTimeout,
		lastSuccess:   lastSuccess,
	}
}

// Resolve answers q by iterative descent, restarting on each CNAME the
// upstream chain yields (spec §4.5 combined with the CNAME chasing of §4.4,
// extended across the network).
func (rr *RecursiveResolver) Resolve(ctx context.Context, q domain.Question, now time.Time) ([]domain.RR, domain.RCode, error) {
	ctx, cancel := context.WithTimeout(ctx, rr.totalTimeout)
	defer cancel()
	return rr.resolveWithStack(ctx, q, now, map[domain.Name]bool{}, 0)
}

func (rr *RecursiveResolver) resolveWithStack(ctx context.Context, q domain.Question, now time.Time, stack map[domain.Name]bool, depth int) ([]domain.RR, domain.RCode, error) {
	var chain []domain.RR
	qname := q.Name
	visited := map[domain.Name]bool{}

	for hop := 0; ; hop++ {
		if hop > maxCNAMEChain || visited[qname] {
			return chain, domain.RCode(2), nil
		}
		visited[qname] = true

		answers, rcode, err := rr.resolveIterative(ctx, qname, q.Type, q.Class, now, stack, depth)
		if err != nil {
			return chain, domain.RCode(2), err
		}
		if rcode == domain.RCode(3) || rcode != 0 {
			return append(chain, answers...), rcode, nil
		}
		if len(answers) == 0 {
			// Authoritative NODATA (spec §8 "Non-recursive query" family):
			// name exists but not with this type.
			return chain, 0, nil
		}
		head := answers[0]
		if head.Type == domain.RRTypeCNAME && q.Type != domain.RRTypeCNAME {
			chain = append(chain, head)
			target, terr := targetName(head)
			if terr != nil {
				return chain, domain.RCode(2), nil
			}
			qname = target
			continue
		}
		chain = append(chain, answers...)
		return chain, rcode, nil
	}
}

// delegation is the current best-known zone cut the iterative loop is
// descending from (spec §4.5 "Best-known delegation").
type delegation struct {
	owner   domain.Name
	nsNames []domain.Name
	glue    map[domain.Name][]net.IP
}

// resolveIterative runs spec §4.5's per-iteration loop for a single
// (qname, qtype): pick the best delegation, query its nameservers, follow
// referrals, and stop on an authoritative answer, NXDOMAIN, or exhaustion.
func (rr *RecursiveResolver) resolveIterative(ctx context.Context, qname domain.Name, qtype domain.RRType, class domain.RRClass, now time.Time, stack map[domain.Name]bool, depth int) ([]domain.RR, domain.RCode, error) {
	cur := rr.bestDelegation(qname, now)
	referrals := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, ErrRecursionExhausted
		}
		if referrals > rr.maxReferrals {
			return nil, 0, ErrRecursionExhausted
		}

		addrs := rr.resolveCandidates(ctx, cur, now, stack, depth)
		if len(addrs) == 0 {
			return nil, 0, ErrRecursionExhausted
		}

		progressed := false
		for _, addr := range addrs {
			msg, ok := rr.queryCandidate(ctx, addr, qname, qtype, class, now)
			if !ok {
				continue
			}
			rr.markGood(addr, now)

			answers := bailiwickFilter(msg.Answers, cur.owner)
			authority := bailiwickFilter(msg.Authority, cur.owner)
			additional := bailiwickFilter(msg.Additional, cur.owner)

			if msg.Header.AA {
				if len(answers) > 0 {
					rr.cache.Put(answers, now)
					return answers, msg.Header.RCode, nil
				}
				if msg.Header.RCode == domain.RCode(3) {
					return nil, domain.RCode(3), nil
				}
				if msg.Header.RCode != 0 {
					return nil, msg.Header.RCode, nil
				}
				return nil, 0, nil // authoritative NODATA
			}

			if newOwner, newNS, ok := findReferral(authority, cur.owner, qname); ok {
				rr.cache.Put(authority, now)
				rr.cache.Put(additional, now)
				cur = delegation{
					owner:   newOwner,
					nsNames: nsTargets(newNS),
					glue:    extractGlue(additional, newNS),
				}
				referrals++
				progressed = true
				break
			}
			// Answer unrelated to this delegation or malformed; try the
			// next candidate server.
		}
		if !progressed {
			return nil, 0, ErrRecursionExhausted
		}
	}
}

// bestDelegation picks the longest-suffix-matching NS set known for name,
// preferring the cache's most specific hit over the zone store's, and
// falling back to root hints (spec §4.5 step 1).
func (rr *RecursiveResolver) bestDelegation(name domain.Name, now time.Time) delegation {
	zOwner, zNS, zOK := rr.zones.NSDelegation(name)

	var cOwner domain.Name
	var cNS []domain.RR
	cOK := false
	for candidate := name; ; candidate = candidate.Parent() {
		if rrs, ok := rr.cache.Get(domain.Question{Name: candidate, Type: domain.RRTypeNS, Class: domain.RRClassIN}, now); ok && len(rrs) > 0 {
			cOwner, cNS, cOK = candidate, rrs, true
			break
		}
		if candidate.IsRoot() {
			break
		}
	}

	owner, ns, ok := zOwner, zNS, zOK
	if cOK && (!zOK || len(cOwner.Labels()) > len(zOwner.Labels())) {
		owner, ns, ok = cOwner, cNS, true
	}
	if !ok {
		if hint, hok := rr.zones.HintZone(); hok {
			key := domain.CacheKeyFor(domain.CanonicalName("."), domain.RRTypeNS, domain.RRClassIN)
			if rrs := hint.Records[key]; len(rrs) > 0 {
				names := nsTargets(rrs)
				return delegation{owner: domain.CanonicalName("."), nsNames: names, glue: glueFromRecords(hint.Records, names)}
			}
		}
		return delegation{owner: domain.CanonicalName(".")}
	}
	return delegation{owner: owner, nsNames: nsTargets(ns)}
}

// glueFromRecords collects the A records stored for each of names directly
// out of a zone's record index, the root-hints equivalent of the glue a
// referral would otherwise supply over the wire.
func glueFromRecords(records map[string][]domain.RR, names []domain.Name) map[domain.Name][]net.IP {
	out := make(map[domain.Name][]net.IP)
	for _, name := range names {
		key := domain.CacheKeyFor(name, domain.RRTypeA, domain.RRClassIN)
		for _, rr := range records[key] {
			if ip := net.ParseIP(rr.Text); ip != nil {
				out[name] = append(out[name], ip)
			}
		}
	}
	return out
}

// resolveCandidates turns a delegation's NS names into an ordered list of
// "ip:53" addresses to try (spec §4.5 step 1-2): cache, then glue, then
// (cycle-guarded, depth-bounded) recursive A resolution, then randomized
// with a soft preference for servers that have answered recently.
func (rr *RecursiveResolver) resolveCandidates(ctx context.Context, cur delegation, now time.Time, stack map[domain.Name]bool, depth int) []string {
	var resolved, unresolved []domain.Name
	ips := make(map[domain.Name]net.IP)

	for _, ns := range cur.nsNames {
		if ip, ok := rr.cacheAddr(ns, now); ok {
			ips[ns] = ip
			resolved = append(resolved, ns)
			continue
		}
		if glueIPs, ok := cur.glue[ns]; ok && len(glueIPs) > 0 {
			ips[ns] = glueIPs[0]
			resolved = append(resolved, ns)
			continue
		}
		unresolved = append(unresolved, ns)
	}

	if len(resolved) == 0 && depth < rr.maxNSDepth {
		for _, ns := range unresolved {
			if stack[ns] {
				continue
			}
			stack[ns] = true
			answers, rcode, err := rr.resolveWithStack(ctx, domain.Question{Name: ns, Type: domain.RRTypeA, Class: domain.RRClassIN}, now, stack, depth+1)
			delete(stack, ns)
			if err != nil || rcode != 0 || len(answers) == 0 {
				continue
			}
			if ip := net.ParseIP(answers[0].Text); ip != nil {
				ips[ns] = ip
				resolved = append(resolved, ns)
			}
		}
	}

	addrs := make([]string, 0, len(resolved))
	for _, ns := range resolved {
		addrs = append(addrs, net.JoinHostPort(ips[ns].String(), "53"))
	}
	rr.orderByPreference(addrs)
	return addrs
}

// cacheAddr looks up a cached A record for an NS name.
func (rr *RecursiveResolver) cacheAddr(ns domain.Name, now time.Time) (net.IP, bool) {
	rrs, ok := rr.cache.Get(domain.Question{Name: ns, Type: domain.RRTypeA, Class: domain.RRClassIN}, now)
	if !ok || len(rrs) == 0 {
		return nil, false
	}
	ip := net.ParseIP(rrs[0].Text)
	if ip == nil {
		return nil, false
	}
	return ip, true
}

// orderByPreference shuffles addrs for load spreading, then stable-sorts
// servers that answered successfully within the last minute to the front
// (spec §9 design notes: "last-known-good-server soft preference").
func (rr *RecursiveResolver) orderByPreference(addrs []string) {
	rand.Shuffle(len(addrs), func(i, j int) { addrs[i], addrs[j] = addrs[j], addrs[i] })

	good := make(map[string]bool, len(addrs))
	for _, a := range addrs {
		if t, ok := rr.lastSuccess.Get(a); ok && time.Since(t) < time.Minute {
			good[a] = true
		}
	}
	if len(good) == 0 {
		return
	}
	preferred := addrs[:0:0]
	var rest []string
	for _, a := range addrs {
		if good[a] {
			preferred = append(preferred, a)
		} else {
			rest = append(rest, a)
		}
	}
	copy(addrs, append(preferred, rest...))
}

func (rr *RecursiveResolver) markGood(addr string, now time.Time) {
	rr.lastSuccess.Add(addr, now)
}

// queryCandidate issues a non-recursive query to addr over UDP, retrying
// over TCP on truncation (spec §4.5 step 3).
func (rr *RecursiveResolver) queryCandidate(ctx context.Context, addr string, qname domain.Name, qtype domain.RRType, class domain.RRClass, now time.Time) (domain.Message, bool) {
	q, err := domain.NewQuestion(qname, qtype, class)
	if err != nil {
		return domain.Message{}, false
	}
	msg := domain.NewQueryMessage(uint16(rand.Intn(1<<16)), false, q)

	ctx, cancel := context.WithTimeout(ctx, rr.serverTimeout)
	defer cancel()

	resp, err := rr.client.Query(ctx, "udp", addr, msg, now)
	if err != nil {
		log.Debug(map[string]any{"server": addr, "error": err.Error()}, "upstream udp query failed")
		return domain.Message{}, false
	}
	if resp.Header.TC {
		resp, err = rr.client.Query(ctx, "tcp", addr, msg, now)
		if err != nil {
			log.Debug(map[string]any{"server": addr, "error": err.Error()}, "upstream tcp retry failed")
			return domain.Message{}, false
		}
	}
	return resp, true
}

// bailiwickFilter drops every record not owned by a name under owner (spec
// §4.5 step 3 "bailiwick check"): an upstream server may only speak for
// names within the zone it was delegated.
func bailiwickFilter(rrs []domain.RR, owner domain.Name) []domain.RR {
	out := make([]domain.RR, 0, len(rrs))
	for _, rr := range rrs {
		if rr.Name.IsSubdomainOf(owner) {
			out = append(out, rr)
		}
	}
	return out
}

// findReferral looks for an NS RRset in authority whose owner is a proper,
// more specific descendant of the current delegation and a suffix of qname
// (spec §4.5 step 3 "referral"): the next zone cut to descend to.
func findReferral(authority []domain.RR, currentOwner, qname domain.Name) (domain.Name, []domain.RR, bool) {
	var newOwner domain.Name
	var ns []domain.RR
	for _, rr := range authority {
		if rr.Type != domain.RRTypeNS {
			continue
		}
		if rr.Name == currentOwner || !qname.IsSubdomainOf(rr.Name) {
			continue
		}
		if len(rr.Name.Labels()) <= len(currentOwner.Labels()) {
			continue
		}
		if newOwner == "" || len(rr.Name.Labels()) > len(newOwner.Labels()) {
			newOwner = rr.Name
		}
	}
	if newOwner == "" {
		return "", nil, false
	}
	for _, rr := range authority {
		if rr.Type == domain.RRTypeNS && rr.Name == newOwner {
			ns = append(ns, rr)
		}
	}
	return newOwner, ns, true
}

// nsTargets extracts the target name of every NS record in rrs.
func nsTargets(rrs []domain.RR) []domain.Name {
	out := make([]domain.Name, 0, len(rrs))
	for _, rr := range rrs {
		if rr.Type != domain.RRTypeNS {
			continue
		}
		target, err := targetName(rr) // NS RDATA presentation is also just the target name
		if err != nil {
			continue
		}
		out = append(out, target)
	}
	return out
}

// extractGlue pairs every A record in additional with the NS name it
// provides an address for.
func extractGlue(additional []domain.RR, ns []domain.RR) map[domain.Name][]net.IP {
	names := make(map[domain.Name]bool, len(ns))
	for _, n := range ns {
		target, err := targetName(n)
		if err == nil {
			names[target] = true
		}
	}
	out := make(map[domain.Name][]net.IP)
	for _, rr := range additional {
		if rr.Type != domain.RRTypeA || !names[rr.Name] {
			continue
		}
		ip := net.ParseIP(rr.Text)
		if ip == nil {
			continue
		}
		out[rr.Name] = append(out[rr.Name], ip)
	}
	return out
}
