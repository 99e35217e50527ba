// Package zone is the in-memory, longest-suffix-match database of
// authoritative and hint records (spec §4.2 "Zone store").
package zone

import (
	"sort"
	"strings"

	"github.com/haukened/rr-dns/internal/dns/domain"
)

// Zone is a named origin plus the RRs owned by names under it. It is
// authoritative iff SOA is non-nil (spec §3 "Zone").
type Zone struct {
	Origin  domain.Name
	SOA     *domain.RR
	Records map[string][]domain.RR // CacheKeyFor(name, type, class) -> RR set
	owners  map[domain.Name]bool
}

// NewZone constructs an empty zone at origin.
func NewZone(origin domain.Name) *Zone {
	return &Zone{
		Origin:  origin,
		Records: make(map[string][]domain.RR),
		owners:  make(map[domain.Name]bool),
	}
}

// IsAuthoritative reports whether z carries an SOA at its apex.
func (z *Zone) IsAuthoritative() bool {
	return z.SOA != nil
}

// Add inserts rr into the zone, collapsing duplicates with byte-equal RDATA
// (spec §3 "Zone" invariant) and tracking an apex SOA.
func (z *Zone) Add(rr domain.RR) {
	if rr.Type == domain.RRTypeSOA && rr.Name == z.Origin {
		soa := rr
		z.SOA = &soa
	}
	key := rr.CacheKey()
	for _, existing := range z.Records[key] {
		if existing.RDataEqual(rr) {
			return
		}
	}
	z.Records[key] = append(z.Records[key], rr)
	z.owners[rr.Name] = true
}

// Merge folds other's records into z, used when multiple files declare the
// same origin (spec §4.2 "Zone merge"): the later-read SOA wins.
func (z *Zone) Merge(other *Zone) {
	for _, rrs := range other.Records {
		for _, rr := range rrs {
			z.Add(rr)
		}
	}
	if other.SOA != nil {
		z.SOA = other.SOA
	}
}

// LookupResult is the outcome of looking up (name, qtype) within a single
// zone (spec §4.2 "Lookup semantics within a zone").
type LookupResult struct {
	Answers    []domain.RR
	CNAME      *domain.RR // set when the owner has a CNAME instead of qtype
	NXDomain   bool       // name does not exist at all under this zone
	NoData     bool       // name exists, but not with qtype
}

// Lookup implements spec §4.2 steps 1-4 for a single zone.
func (z *Zone) Lookup(name domain.Name, qtype domain.RRType, class domain.RRClass) LookupResult {
	direct := z.Records[domain.CacheKeyFor(name, qtype, class)]
	if len(direct) > 0 {
		return LookupResult{Answers: direct}
	}

	if qtype != domain.RRTypeCNAME {
		cnames := z.Records[domain.CacheKeyFor(name, domain.RRTypeCNAME, class)]
		if len(cnames) > 0 {
			cname := cnames[0]
			return LookupResult{CNAME: &cname}
		}
	}

	if rrs, cname, ok := z.lookupWildcard(name, qtype, class); ok {
		return LookupResult{Answers: rrs, CNAME: cname}
	}

	if !name.IsSubdomainOf(z.Origin) {
		return LookupResult{NXDomain: true}
	}
	if z.ownerExists(name) {
		return LookupResult{NoData: true}
	}
	return LookupResult{NXDomain: true}
}

// lookupWildcard implements spec §4.2 step 3: a wildcard owner `*.x.y`
// applies to any descendant of `x.y` that has no explicit record of its
// own, matching one or more labels to the left of the `*`.
func (z *Zone) lookupWildcard(name domain.Name, qtype domain.RRType, class domain.RRClass) ([]domain.RR, *domain.RR, bool) {
	if z.ownerExists(name) {
		return nil, nil, false
	}
	labels := name.Labels()
	for i := 1; i < len(labels); i++ {
		suffix := domain.CanonicalName(strings.Join(labels[i:], "."))
		wildcard := domain.CanonicalName("*." + suffix.String())
		if rrs := z.Records[domain.CacheKeyFor(wildcard, qtype, class)]; len(rrs) > 0 {
			synthesized := make([]domain.RR, len(rrs))
			for j, rr := range rrs {
				rr.Name = name
				synthesized[j] = rr
			}
			return synthesized, nil, true
		}
		if qtype != domain.RRTypeCNAME {
			if cnames := z.Records[domain.CacheKeyFor(wildcard, domain.RRTypeCNAME, class)]; len(cnames) > 0 {
				cname := cnames[0]
				cname.Name = name
				return nil, &cname, true
			}
		}
	}
	return nil, nil, false
}

// ownerExists reports whether name has any record of any type in z,
// distinguishing NODATA from NXDOMAIN.
func (z *Zone) ownerExists(name domain.Name) bool {
	return z.owners[name]
}

// sortOriginsLongestFirst orders names by descending label count, so a
// linear scan finds the longest-suffix match first.
func sortOriginsLongestFirst(names []domain.Name) {
	sort.Slice(names, func(i, j int) bool {
		return len(names[i].Labels()) > len(names[j].Labels())
	})
}
