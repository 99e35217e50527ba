package domain

import (
	"fmt"
	"time"
)

// RR is a DNS resource record (spec §3 "Resource record"): an owner name,
// type, class, TTL, and RDATA. RDATA is carried as wire-encoded bytes (Data)
// plus its zone-file presentation text (Text); callers that only have one
// form populate the other via common/rrdata before constructing an RR that
// needs to be encoded or re-presented.
type RR struct {
	Name      Name
	Type      RRType
	Class     RRClass
	ttl       uint32
	expiresAt *time.Time // nil for authoritative (zone) records, which never expire from memory
	Data      []byte      // wire-encoded RDATA
	Text      string      // zone-file presentation form of RDATA, e.g. "10 mail.example.com."
}

// NewAuthoritativeRR constructs a non-expiring RR, the form zone records take.
func NewAuthoritativeRR(name Name, typ RRType, class RRClass, ttl uint32, data []byte, text string) (RR, error) {
	rr := RR{Name: name, Type: typ, Class: class, ttl: ttl, Data: data, Text: text}
	if err := rr.Validate(); err != nil {
		return RR{}, err
	}
	return rr, nil
}

// NewCachedRR constructs an RR with an absolute expiry computed from ttl and
// now, the form records take once they pass through the cache.
func NewCachedRR(name Name, typ RRType, class RRClass, ttl uint32, data []byte, text string, now time.Time) (RR, error) {
	exp := now.Add(time.Duration(ttl) * time.Second)
	rr := RR{Name: name, Type: typ, Class: class, ttl: ttl, expiresAt: &exp, Data: data, Text: text}
	if err := rr.Validate(); err != nil {
		return RR{}, err
	}
	return rr, nil
}

// Validate checks structural invariants from spec §3.
func (rr RR) Validate() error {
	if rr.Name == "" {
		return fmt.Errorf("resource record: owner name must not be empty")
	}
	if rr.ttl > 1<<31-1 {
		return fmt.Errorf("resource record: ttl %d exceeds 2^31-1", rr.ttl)
	}
	if rr.Text == "" && len(rr.Data) == 0 {
		return fmt.Errorf("resource record: either wire data or presentation text must be set")
	}
	return nil
}

// CacheKey returns the (name, type, class) index key used by both the zone
// store and the cache for lookup (spec §4.3 "Indexing").
func (rr RR) CacheKey() string {
	return CacheKeyFor(rr.Name, rr.Type, rr.Class)
}

// CacheKeyFor builds the index key shared by RR.CacheKey and cache/zone
// lookups, so all three agree on identity without constructing an RR.
func CacheKeyFor(name Name, typ RRType, class RRClass) string {
	return fmt.Sprintf("%s|%d|%d", name, typ, class)
}

// TTL returns the effective TTL for wire encoding: the original TTL for
// authoritative records, or the remaining time-to-live for cached records
// (spec §4.3 "TTL accounting").
func (rr RR) TTL() uint32 {
	if rr.expiresAt == nil {
		return rr.ttl
	}
	remaining := time.Until(*rr.expiresAt).Seconds()
	if remaining <= 0 {
		return 0
	}
	return uint32(remaining)
}

// IsExpired reports whether a cached record's TTL has run out. Always false
// for authoritative records.
func (rr RR) IsExpired(now time.Time) bool {
	if rr.expiresAt == nil {
		return false
	}
	return now.After(*rr.expiresAt)
}

// IsAuthoritative reports whether rr came from a zone rather than the cache.
func (rr RR) IsAuthoritative() bool {
	return rr.expiresAt == nil
}

// ExpiresAt returns the absolute expiry instant and whether one is set.
func (rr RR) ExpiresAt() (time.Time, bool) {
	if rr.expiresAt == nil {
		return time.Time{}, false
	}
	return *rr.expiresAt, true
}

// RDataEqual reports whether two RRs carry byte-identical wire RDATA, the
// definition of "duplicate" used when collapsing a set of RRs (spec §3).
func (rr RR) RDataEqual(other RR) bool {
	return bytesEqual(rr.Data, other.Data)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
