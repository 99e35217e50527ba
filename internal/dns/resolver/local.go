package resolver

import (
	"time"

	"github.com/haukened/rr-dns/internal/dns/domain"
	"github.com/haukened/rr-dns/internal/dns/zone"
)

// maxCNAMEChain bounds CNAME chasing so a loop (or pathological depth)
// cannot spin forever (spec §4.4 "CNAME chasing": "a hop budget, e.g. 16").
const maxCNAMEChain = 16

// localResult is the outcome of resolving a question against zones and the
// cache only, with no upstream traffic (spec §4.4 "Local resolution").
type localResult struct {
	answers     []domain.RR
	authority   []domain.RR
	rcode       domain.RCode
	aa          bool
	foundLocally bool // false means nothing local answered this; recursion may still help
}

// resolveLocal implements spec §4.4 steps 1-2: walk the zone store and cache
// for q.Name, following CNAMEs entirely within local data, and classify the
// outcome as an answer, NODATA, or NXDOMAIN. It never issues upstream
// queries; a zero-value foundLocally means the caller should fall through to
// the recursive resolver.
func (r *Resolver) resolveLocal(q domain.Question, now time.Time) localResult {
	var chain []domain.RR
	visited := make(map[domain.Name]bool)
	name := q.Name

	for hop := 0; ; hop++ {
		if hop > maxCNAMEChain || visited[name] {
			return localResult{rcode: domain.RCode(2), foundLocally: true}
		}
		visited[name] = true

		if z, ok := r.zones.AuthoritativeZone(name); ok {
			result := z.Lookup(name, q.Type, q.Class)
			switch {
			case len(result.Answers) > 0:
				chain = append(chain, result.Answers...)
				return localResult{answers: chain, rcode: 0, aa: true, foundLocally: true}
			case result.CNAME != nil:
				chain = append(chain, *result.CNAME)
				target, err := targetName(*result.CNAME)
				if err != nil {
					return localResult{rcode: domain.RCode(2), foundLocally: true}
				}
				name = target
				continue
			case result.NoData:
				return localResult{authority: soaOf(z), rcode: 0, aa: true, foundLocally: true}
			default:
				return localResult{authority: soaOf(z), rcode: domain.RCode(3), aa: true, foundLocally: true}
			}
		}

		if rrs, ok := r.cache.Get(domain.Question{Name: name, Type: q.Type, Class: q.Class}, now); ok {
			chain = append(chain, rrs...)
			return localResult{answers: chain, rcode: 0, aa: false, foundLocally: true}
		}

		if q.Type != domain.RRTypeCNAME {
			if cnames, ok := r.cache.Get(domain.Question{Name: name, Type: domain.RRTypeCNAME, Class: q.Class}, now); ok && len(cnames) > 0 {
				chain = append(chain, cnames[0])
				target, err := targetName(cnames[0])
				if err != nil {
					return localResult{rcode: domain.RCode(2), foundLocally: true}
				}
				name = target
				continue
			}
		}

		if len(chain) > 0 {
			// A zone or cache CNAME led to a name with no further local
			// data; the caller may still recurse for the final link.
			return localResult{answers: chain, foundLocally: false}
		}
		return localResult{foundLocally: false}
	}
}

// targetName extracts the canonical target name from a CNAME record's
// presentation text (spec §3 "Resource record": Text carries zone-file
// presentation form, which for CNAME is exactly the target name).
func targetName(rr domain.RR) (domain.Name, error) {
	return domain.CanonicalName(rr.Text), nil
}

// soaOf returns z's apex SOA as a single-element Authority section, or nil
// if the zone somehow has none (spec §4.2 requires an authoritative zone
// carry an SOA, so this is only a defensive nil-check).
func soaOf(z *zone.Zone) []domain.RR {
	if z.SOA == nil {
		return nil
	}
	return []domain.RR{*z.SOA}
}
