package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-dns/internal/dns/cache"
	"github.com/haukened/rr-dns/internal/dns/common/rrdata"
	"github.com/haukened/rr-dns/internal/dns/domain"
	"github.com/haukened/rr-dns/internal/dns/zone"
)

func cacheNew(t *testing.T) (*cache.Cache, error) {
	t.Helper()
	return cache.New(1000, time.Hour)
}

func mustQuestion(t *testing.T, name string, typ domain.RRType) domain.Question {
	t.Helper()
	q, err := domain.NewQuestion(domain.CanonicalName(name), typ, domain.RRClassIN)
	require.NoError(t, err)
	return q
}

func mustA(t *testing.T, name, ip string, ttl uint32) domain.RR {
	t.Helper()
	data, err := rrdata.EncodeAData(ip)
	require.NoError(t, err)
	rr, err := domain.NewAuthoritativeRR(domain.CanonicalName(name), domain.RRTypeA, domain.RRClassIN, ttl, data, ip)
	require.NoError(t, err)
	return rr
}

func mustCNAME(t *testing.T, name, target string, ttl uint32) domain.RR {
	t.Helper()
	data, err := rrdata.EncodeCNAMEData(target)
	require.NoError(t, err)
	rr, err := domain.NewAuthoritativeRR(domain.CanonicalName(name), domain.RRTypeCNAME, domain.RRClassIN, ttl, data, domain.CanonicalName(target).String())
	require.NoError(t, err)
	return rr
}

func mustSOA(t *testing.T, origin string) domain.RR {
	t.Helper()
	text := "ns1.example.com. hostmaster.example.com. 1 3600 900 604800 86400"
	data, err := rrdata.EncodeSOAData(text)
	require.NoError(t, err)
	rr, err := domain.NewAuthoritativeRR(domain.CanonicalName(origin), domain.RRTypeSOA, domain.RRClassIN, 3600, data, text)
	require.NoError(t, err)
	return rr
}

func newZoneStore(t *testing.T, zones ...*zone.Zone) *zone.Store {
	t.Helper()
	s := zone.NewStore()
	s.Load(zones)
	return s
}

type stubRecursor struct {
	answers []domain.RR
	rcode   domain.RCode
	err     error
}

func (s *stubRecursor) Resolve(ctx context.Context, q domain.Question, now time.Time) ([]domain.RR, domain.RCode, error) {
	return s.answers, s.rcode, s.err
}

func TestHandleQuery_AuthoritativeHit(t *testing.T) {
	z := zone.NewZone(domain.CanonicalName("example.com."))
	z.Add(mustSOA(t, "example.com."))
	z.Add(mustA(t, "www.example.com.", "1.2.3.4", 300))
	zones := newZoneStore(t, z)

	c, err := cacheNew(t)
	require.NoError(t, err)

	r := New(zones, c, nil)
	q := mustQuestion(t, "www.example.com.", domain.RRTypeA)
	query := domain.NewQueryMessage(1, false, q)

	resp := r.HandleQuery(context.Background(), query, nil, time.Now())
	assert.Equal(t, domain.RCode(0), resp.Header.RCode)
	assert.True(t, resp.Header.AA)
	assert.True(t, resp.Header.RA)
	require.Len(t, resp.Answers, 1)
	assert.Equal(t, domain.CanonicalName("www.example.com."), resp.Answers[0].Name)
}

func TestHandleQuery_NXDomainCarriesSOA(t *testing.T) {
	z := zone.NewZone(domain.CanonicalName("example.com."))
	z.Add(mustSOA(t, "example.com."))
	zones := newZoneStore(t, z)
	c, err := cacheNew(t)
	require.NoError(t, err)

	r := New(zones, c, nil)
	q := mustQuestion(t, "nope.example.com.", domain.RRTypeA)
	query := domain.NewQueryMessage(2, false, q)

	resp := r.HandleQuery(context.Background(), query, nil, time.Now())
	assert.Equal(t, domain.RCode(3), resp.Header.RCode)
	assert.True(t, resp.Header.AA)
	require.Len(t, resp.Authority, 1)
	assert.Equal(t, domain.RRTypeSOA, resp.Authority[0].Type)
}

func TestHandleQuery_NoDataIsNoErrorEmptyAnswer(t *testing.T) {
	z := zone.NewZone(domain.CanonicalName("example.com."))
	z.Add(mustSOA(t, "example.com."))
	z.Add(mustA(t, "www.example.com.", "1.2.3.4", 300))
	zones := newZoneStore(t, z)
	c, err := cacheNew(t)
	require.NoError(t, err)

	r := New(zones, c, nil)
	q := mustQuestion(t, "www.example.com.", domain.RRTypeAAAA)
	query := domain.NewQueryMessage(3, false, q)

	resp := r.HandleQuery(context.Background(), query, nil, time.Now())
	assert.Equal(t, domain.RCode(0), resp.Header.RCode)
	assert.Empty(t, resp.Answers)
	assert.True(t, resp.Header.AA)
}

func TestHandleQuery_CNAMEChaseWithinZone(t *testing.T) {
	z := zone.NewZone(domain.CanonicalName("example.com."))
	z.Add(mustSOA(t, "example.com."))
	z.Add(mustCNAME(t, "alias.example.com.", "www.example.com.", 300))
	z.Add(mustA(t, "www.example.com.", "1.2.3.4", 300))
	zones := newZoneStore(t, z)
	c, err := cacheNew(t)
	require.NoError(t, err)

	r := New(zones, c, nil)
	q := mustQuestion(t, "alias.example.com.", domain.RRTypeA)
	query := domain.NewQueryMessage(4, false, q)

	resp := r.HandleQuery(context.Background(), query, nil, time.Now())
	assert.Equal(t, domain.RCode(0), resp.Header.RCode)
	require.Len(t, resp.Answers, 2)
	assert.Equal(t, domain.RRTypeCNAME, resp.Answers[0].Type)
	assert.Equal(t, domain.RRTypeA, resp.Answers[1].Type)
}

func TestHandleQuery_NonRecursiveMissIsEmptyNoError(t *testing.T) {
	zones := newZoneStore(t)
	c, err := cacheNew(t)
	require.NoError(t, err)

	r := New(zones, c, nil)
	q := mustQuestion(t, "unknown.example.net.", domain.RRTypeA)
	query := domain.NewQueryMessage(5, false, q)

	resp := r.HandleQuery(context.Background(), query, nil, time.Now())
	assert.Equal(t, domain.RCode(0), resp.Header.RCode)
	assert.Empty(t, resp.Answers)
	assert.False(t, resp.Header.AA)
}

func TestHandleQuery_RecursionDesiredFallsThroughToRecursor(t *testing.T) {
	zones := newZoneStore(t)
	c, err := cacheNew(t)
	require.NoError(t, err)

	answer := mustA(t, "www.upstream.test.", "9.9.9.9", 60)
	recursor := &stubRecursor{answers: []domain.RR{answer}, rcode: 0}

	r := New(zones, c, recursor)
	q := mustQuestion(t, "www.upstream.test.", domain.RRTypeA)
	query := domain.NewQueryMessage(6, true, q)

	resp := r.HandleQuery(context.Background(), query, nil, time.Now())
	assert.Equal(t, domain.RCode(0), resp.Header.RCode)
	require.Len(t, resp.Answers, 1)
	assert.False(t, resp.Header.AA)
}

func TestHandleQuery_RecursorErrorIsServfail(t *testing.T) {
	zones := newZoneStore(t)
	c, err := cacheNew(t)
	require.NoError(t, err)

	recursor := &stubRecursor{err: assertAnError{}}
	r := New(zones, c, recursor)
	q := mustQuestion(t, "www.upstream.test.", domain.RRTypeA)
	query := domain.NewQueryMessage(7, true, q)

	resp := r.HandleQuery(context.Background(), query, nil, time.Now())
	assert.Equal(t, domain.RCode(2), resp.Header.RCode)
}

func TestHandleQuery_MultiQuestionIsFormerr(t *testing.T) {
	zones := newZoneStore(t)
	c, err := cacheNew(t)
	require.NoError(t, err)

	r := New(zones, c, nil)
	q := mustQuestion(t, "example.com.", domain.RRTypeA)
	query := domain.NewQueryMessage(8, false, q)
	query.Questions = append(query.Questions, q)

	resp := r.HandleQuery(context.Background(), query, nil, time.Now())
	assert.Equal(t, domain.RCode(1), resp.Header.RCode)
}

func TestHandleQuery_NonQueryOpcodeIsNotimp(t *testing.T) {
	zones := newZoneStore(t)
	c, err := cacheNew(t)
	require.NoError(t, err)

	r := New(zones, c, nil)
	q := mustQuestion(t, "example.com.", domain.RRTypeA)
	query := domain.NewQueryMessage(9, false, q)
	query.Header.OpCode = domain.OpCodeStatus

	resp := r.HandleQuery(context.Background(), query, nil, time.Now())
	assert.Equal(t, domain.RCode(4), resp.Header.RCode)
}

// TestHandleQuery_CNAMELoopIsServfail covers spec §8 "CNAME loop
// protection": a zone with a CNAME->b, b CNAME->a must resolve a query for
// either name to SERVFAIL within the hop bound instead of spinning forever.
func TestHandleQuery_CNAMELoopIsServfail(t *testing.T) {
	z := zone.NewZone(domain.CanonicalName("example.com."))
	z.Add(mustSOA(t, "example.com."))
	z.Add(mustCNAME(t, "a.example.com.", "b.example.com.", 300))
	z.Add(mustCNAME(t, "b.example.com.", "a.example.com.", 300))
	zones := newZoneStore(t, z)
	c, err := cacheNew(t)
	require.NoError(t, err)

	r := New(zones, c, nil)
	q := mustQuestion(t, "a.example.com.", domain.RRTypeA)
	query := domain.NewQueryMessage(10, false, q)

	done := make(chan domain.Message, 1)
	go func() {
		done <- r.HandleQuery(context.Background(), query, nil, time.Now())
	}()

	select {
	case resp := <-done:
		assert.Equal(t, domain.RCode(2), resp.Header.RCode)
	case <-time.After(2 * time.Second):
		t.Fatal("HandleQuery did not return; CNAME loop was not bounded")
	}
}

type assertAnError struct{}

func (assertAnError) Error() string { return "boom" }
