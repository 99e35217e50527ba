package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-dns/internal/dns/common/log"
	"github.com/haukened/rr-dns/internal/dns/common/rrdata"
	"github.com/haukened/rr-dns/internal/dns/domain"
)

// wildcardZone builds the spec §8 worked example: an apex SOA, a direct
// record at y.x, and a wildcard *.x covering every other descendant of x.
func wildcardZone(t *testing.T) *Zone {
	t.Helper()
	const file = "" +
		"@ IN SOA ns.x. host.x. 1 3600 600 604800 300\n" +
		"y IN A 192.0.2.1\n" +
		"* IN A 192.0.2.254\n"
	z, err := loadZoneBody(t, "x.", file)
	require.NoError(t, err)
	return z
}

// loadZoneBody writes content to a temp zone file named after origin and
// loads it, matching the LoadZoneFile-from-filename convention the loader
// tests already use.
func loadZoneBody(t *testing.T, origin, content string) (*Zone, error) {
	t.Helper()
	dir := t.TempDir()
	path := writeTempFile(t, dir, origin+"zone", content)
	return LoadZoneFile(path, log.NewNoopLogger())
}

func TestZone_Wildcard_DirectHitWinsOverWildcard(t *testing.T) {
	z := wildcardZone(t)

	res := z.Lookup(domain.CanonicalName("y.x."), domain.RRTypeA, domain.RRClassIN)
	require.Len(t, res.Answers, 1)
	assert.Equal(t, "192.0.2.1", res.Answers[0].Text)
}

func TestZone_Wildcard_MatchesUndeclaredSibling(t *testing.T) {
	z := wildcardZone(t)

	res := z.Lookup(domain.CanonicalName("z.x."), domain.RRTypeA, domain.RRClassIN)
	require.Len(t, res.Answers, 1)
	assert.Equal(t, "192.0.2.254", res.Answers[0].Text)
	assert.Equal(t, domain.Name("z.x."), res.Answers[0].Name)
}

func TestZone_Wildcard_MatchesDeeperDescendant(t *testing.T) {
	z := wildcardZone(t)

	res := z.Lookup(domain.CanonicalName("a.b.x."), domain.RRTypeA, domain.RRClassIN)
	require.Len(t, res.Answers, 1)
	assert.Equal(t, domain.Name("a.b.x."), res.Answers[0].Name)
}

// TestZone_Wildcard_ParentNameDoesNotMatch covers the spec §8 edge case: a
// query for the name the wildcard hangs under ("x." for "*.x.") is not
// matched by the wildcard and must not get a synthesized answer.
func TestZone_Wildcard_ParentNameDoesNotMatch(t *testing.T) {
	z := wildcardZone(t)

	res := z.Lookup(domain.CanonicalName("x."), domain.RRTypeA, domain.RRClassIN)
	assert.Nil(t, res.Answers)
	assert.True(t, res.NoData, "x. is the apex, which exists via its SOA, so it's NODATA for A")
}

func TestZone_Wildcard_NoMatchOutsideOrigin(t *testing.T) {
	z := wildcardZone(t)

	res := z.Lookup(domain.CanonicalName("y.other."), domain.RRTypeA, domain.RRClassIN)
	assert.True(t, res.NXDomain)
}

func soaRR(t *testing.T, name, mname, rname string, serial uint32) domain.RR {
	t.Helper()
	text := mname + " " + rname + " " + itoa(serial) + " 3600 600 604800 300"
	data, err := rrdata.EncodeSOAData(text)
	require.NoError(t, err)
	rr, err := domain.NewAuthoritativeRR(domain.CanonicalName(name), domain.RRTypeSOA, domain.RRClassIN, 3600, data, text)
	require.NoError(t, err)
	return rr
}

func itoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	digits := make([]byte, 0, 10)
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// TestZone_Merge_LatestSOAWins exercises spec §4.2's same-origin SOA
// conflict rule: when two files declare the same origin, the SOA read
// later wins, even though both zones' ordinary records are kept.
func TestZone_Merge_LatestSOAWins(t *testing.T) {
	origin := domain.CanonicalName("example.com.")
	first := NewZone(origin)
	first.Add(soaRR(t, "example.com.", "ns1.example.com.", "host.example.com.", 1))

	second := NewZone(origin)
	second.Add(soaRR(t, "example.com.", "ns2.example.com.", "host.example.com.", 2))

	first.Merge(second)

	require.NotNil(t, first.SOA)
	assert.Equal(t, second.SOA.Text, first.SOA.Text)
}

func TestZone_Merge_KeepsRecordsFromBoth(t *testing.T) {
	origin := domain.CanonicalName("example.com.")
	first := NewZone(origin)
	aRR, err := domain.NewAuthoritativeRR(domain.CanonicalName("www.example.com."), domain.RRTypeA, domain.RRClassIN, 300, []byte{192, 0, 2, 1}, "192.0.2.1")
	require.NoError(t, err)
	first.Add(aRR)

	second := NewZone(origin)
	mxRR, err := domain.NewAuthoritativeRR(domain.CanonicalName("example.com."), domain.RRTypeMX, domain.RRClassIN, 300, nil, "10 mail.example.com.")
	require.NoError(t, err)
	second.Add(mxRR)

	first.Merge(second)

	assert.Len(t, first.Lookup(domain.CanonicalName("www.example.com."), domain.RRTypeA, domain.RRClassIN).Answers, 1)
	assert.Len(t, first.Lookup(domain.CanonicalName("example.com."), domain.RRTypeMX, domain.RRClassIN).Answers, 1)
}
