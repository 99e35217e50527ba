package zone

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	"github.com/haukened/rr-dns/internal/dns/common/log"
	"github.com/haukened/rr-dns/internal/dns/domain"
)

// LoadHostsFile parses a single hosts-format file into the root hint zone
// (spec §6 "-a <file>").
func LoadHostsFile(path string, logger log.Logger) (*Zone, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rrs, err := ParseHosts(f, path, logger)
	z := NewZone(domain.CanonicalName("."))
	for _, rr := range rrs {
		z.Add(rr)
	}
	return z, err
}

// LoadHostsDir parses every regular file directly within dir as a hosts
// file, aggregating per-file results into one hint zone (spec §6 "-A
// <dir>"). A file that fails to parse does not stop the rest of the
// directory from loading.
func LoadHostsDir(dir string, logger log.Logger) (*Zone, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	z := NewZone(domain.CanonicalName("."))
	var errs error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		part, err := LoadHostsFile(path, logger)
		if err != nil {
			errs = multierr.Append(errs, err)
		}
		if part != nil {
			z.Merge(part)
		}
	}
	return z, errs
}

// LoadZoneFile parses a single zone file (spec §6 "-z <file>"). The zone's
// origin is derived from the file's base name, minus any ".zone" suffix,
// unless the file itself sets one with $ORIGIN.
func LoadZoneFile(path string, logger log.Logger) (*Zone, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	defaultOrigin := originFromFilename(path)
	z, err := ParseZoneFile(f, path, defaultOrigin, logger)
	return z, err
}

// LoadZoneDir parses every regular file directly within dir as a zone
// file (spec §6 "-Z <dir>"), returning one *Zone per file. Zones sharing
// an origin are merged by Store.Load, not here.
func LoadZoneDir(dir string, logger log.Logger) ([]*Zone, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var zones []*Zone
	var errs error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		z, err := LoadZoneFile(path, logger)
		if err != nil {
			errs = multierr.Append(errs, err)
		}
		if z != nil {
			zones = append(zones, z)
		}
	}
	return zones, errs
}

// originFromFilename derives a default zone origin from a zone file's base
// name (e.g. "example.com.zone" -> "example.com."), used when the file
// itself carries no $ORIGIN directive.
func originFromFilename(path string) domain.Name {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".zone")
	return domain.CanonicalName(base)
}
