package zone

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-dns/internal/dns/common/log"
	"github.com/haukened/rr-dns/internal/dns/domain"
)

func TestReloader_Reload(t *testing.T) {
	dir := t.TempDir()
	hostsPath := writeTempFile(t, dir, "hosts", "10.0.0.1 router.lan\n")
	zonePath := writeTempFile(t, dir, "example.com.zone", "@ IN SOA ns.example.com. host.example.com. 1 3600 600 604800 300\nwww IN A 192.0.2.1\n")

	store := NewStore()
	reloader := NewReloader(store, Sources{
		HostsFiles: []string{hostsPath},
		ZoneFiles:  []string{zonePath},
	}, log.NewNoopLogger())

	require.NoError(t, reloader.Reload())

	hint, ok := store.HintZone()
	require.True(t, ok)
	assert.Len(t, hint.Lookup(domain.CanonicalName("router.lan."), domain.RRTypeA, domain.RRClassIN).Answers, 1)

	authZone, ok := store.AuthoritativeZone(domain.CanonicalName("www.example.com."))
	require.True(t, ok)
	assert.Len(t, authZone.Lookup(domain.CanonicalName("www.example.com."), domain.RRTypeA, domain.RRClassIN).Answers, 1)
}

func TestReloader_Reload_PartialFailureStillSwaps(t *testing.T) {
	dir := t.TempDir()
	goodZone := writeTempFile(t, dir, "good.example.zone", "@ IN SOA ns.good.example. host.good.example. 1 3600 600 604800 300\n")
	missingZone := filepath.Join(dir, "missing.zone")

	store := NewStore()
	reloader := NewReloader(store, Sources{
		ZoneFiles: []string{goodZone, missingZone},
	}, log.NewNoopLogger())

	err := reloader.Reload()
	assert.Error(t, err)

	_, ok := store.AuthoritativeZone(domain.CanonicalName("good.example."))
	assert.True(t, ok)
}

func TestReloader_WatchFilesystem_TriggersReload(t *testing.T) {
	dir := t.TempDir()
	zonePath := writeTempFile(t, dir, "example.com.zone", "@ IN SOA ns.example.com. host.example.com. 1 3600 600 604800 300\n")

	store := NewStore()
	reloader := NewReloader(store, Sources{ZoneDirs: []string{dir}}, log.NewNoopLogger())
	require.NoError(t, reloader.Reload())
	defer reloader.Close()

	require.NoError(t, reloader.WatchFilesystem())

	require.NoError(t, os.WriteFile(zonePath, []byte("@ IN SOA ns.example.com. host.example.com. 2 3600 600 604800 300\nwww IN A 192.0.2.5\n"), 0o644))

	require.Eventually(t, func() bool {
		z, ok := store.AuthoritativeZone(domain.CanonicalName("www.example.com."))
		return ok && len(z.Lookup(domain.CanonicalName("www.example.com."), domain.RRTypeA, domain.RRClassIN).Answers) == 1
	}, 2*time.Second, 20*time.Millisecond)
}
