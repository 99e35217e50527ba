package zone

import (
	"sync/atomic"

	"github.com/haukened/rr-dns/internal/dns/domain"
)

// Store is the zone database: a set of zones keyed by origin (spec §3
// "Zone store"). Reads take a stable snapshot reference; reload builds a
// new snapshot offline and swaps it in atomically (spec §9 "Shared
// ownership of the zone store") so no reader is ever blocked.
type Store struct {
	current atomic.Pointer[snapshot]
}

type snapshot struct {
	zones        map[domain.Name]*Zone
	originsByLen []domain.Name            // all origins, longest (most labels) first
	nsIndex      map[domain.Name][]domain.RR // NS RRs by owner, merged across every zone
}

// NewStore returns an empty store. Use Load to populate it.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(&snapshot{zones: map[domain.Name]*Zone{}})
	return s
}

// Load atomically replaces the store's contents with zones, merging any
// zones that share an origin (spec §4.2 "Zone merge").
func (s *Store) Load(zones []*Zone) {
	merged := make(map[domain.Name]*Zone, len(zones))
	for _, z := range zones {
		if existing, ok := merged[z.Origin]; ok {
			existing.Merge(z)
			continue
		}
		merged[z.Origin] = z
	}
	origins := make([]domain.Name, 0, len(merged))
	nsIndex := make(map[domain.Name][]domain.RR)
	for origin, z := range merged {
		origins = append(origins, origin)
		for _, rrs := range z.Records {
			if len(rrs) > 0 && rrs[0].Type == domain.RRTypeNS {
				nsIndex[rrs[0].Name] = append(nsIndex[rrs[0].Name], rrs...)
			}
		}
	}
	sortOriginsLongestFirst(origins)
	s.current.Store(&snapshot{zones: merged, originsByLen: origins, nsIndex: nsIndex})
}

// AuthoritativeZone returns the authoritative zone whose origin is the
// longest suffix of name, per spec §4.2 "Zone selection". An authoritative
// zone at origin X shadows hint records under X, so hint zones are skipped
// here entirely.
func (s *Store) AuthoritativeZone(name domain.Name) (*Zone, bool) {
	snap := s.current.Load()
	for _, origin := range snap.originsByLen {
		z := snap.zones[origin]
		if !z.IsAuthoritative() {
			continue
		}
		if name.IsSubdomainOf(origin) {
			return z, true
		}
	}
	return nil, false
}

// HintZone returns the non-authoritative root-rooted pseudo-zone, used by
// the recursive resolver as seed delegation data (spec §3 "Zone store").
func (s *Store) HintZone() (*Zone, bool) {
	snap := s.current.Load()
	z, ok := snap.zones["."]
	if !ok || z.IsAuthoritative() {
		return nil, false
	}
	return z, true
}

// NSDelegation scans all zones (authoritative and hint) for an NS RRset
// whose owner is a suffix of name, returning the longest-suffix match
// (spec §4.5 "Best-known delegation"). It does not consult the cache; the
// recursive resolver combines this with its own cache scan, and always has
// the root hints as an ultimate fallback.
func (s *Store) NSDelegation(name domain.Name) (owner domain.Name, ns []domain.RR, ok bool) {
	snap := s.current.Load()
	for candidate := name; ; candidate = candidate.Parent() {
		if rrs, found := snap.nsIndex[candidate]; found {
			return candidate, rrs, true
		}
		if candidate.IsRoot() {
			break
		}
	}
	return "", nil, false
}

// Lookup answers (name, qtype, class) against the selected authoritative
// zone only; it does not chase CNAMEs or consult the cache, both of which
// are the local resolver's job (spec §4.4).
func (s *Store) Lookup(name domain.Name, qtype domain.RRType, class domain.RRClass) (z *Zone, result LookupResult, ok bool) {
	zone, found := s.AuthoritativeZone(name)
	if !found {
		return nil, LookupResult{}, false
	}
	return zone, zone.Lookup(name, qtype, class), true
}

// Zones returns every zone currently loaded, for diagnostics.
func (s *Store) Zones() []*Zone {
	snap := s.current.Load()
	out := make([]*Zone, 0, len(snap.zones))
	for _, z := range snap.zones {
		out = append(out, z)
	}
	return out
}
