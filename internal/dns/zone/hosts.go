package zone

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"

	"go.uber.org/multierr"

	"github.com/haukened/rr-dns/internal/dns/common/log"
	"github.com/haukened/rr-dns/internal/dns/common/rrdata"
	"github.com/haukened/rr-dns/internal/dns/domain"
)

// defaultHostsTTL is the TTL given to records synthesized from a hosts file,
// which carries no TTL field of its own (spec §6 "Hosts-file records").
const defaultHostsTTL = uint32(300)

// ParseHosts reads an /etc/hosts-style file and returns one A or AAAA record
// per (IP, hostname) pair into the "." hint zone. A malformed line is logged
// and skipped so the rest of the file still loads (spec §7 "Configuration
// errors"); the returned error, if non-nil, aggregates every skipped line.
func ParseHosts(r io.Reader, source string, logger log.Logger) ([]domain.RR, error) {
	scanner := bufio.NewScanner(r)

	var out []domain.RR
	var errs error
	lineNum := 0

	logger.Debug(map[string]any{"source": source}, "parse_hosts_start")

	for scanner.Scan() {
		lineNum++
		line := strings.TrimPrefix(scanner.Text(), "\ufeff")

		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			errs = multierr.Append(errs, fmt.Errorf("%s:%d: expected <ip> <hostname>...", source, lineNum))
			logger.Debug(map[string]any{"source": source, "line": lineNum}, "hosts_skip_malformed")
			continue
		}

		ip := net.ParseIP(fields[0])
		if ip == nil {
			errs = multierr.Append(errs, fmt.Errorf("%s:%d: invalid IP literal %q", source, lineNum, fields[0]))
			logger.Debug(map[string]any{"source": source, "line": lineNum, "ip": fields[0]}, "hosts_skip_bad_ip")
			continue
		}

		rtype, text := domain.RRTypeAAAA, ip.String()
		if v4 := ip.To4(); v4 != nil {
			rtype, text = domain.RRTypeA, v4.String()
		}
		data, err := rrdata.Encode(rtype, text)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s:%d: %w", source, lineNum, err))
			continue
		}

		for _, host := range fields[1:] {
			name := domain.CanonicalName(host)
			rr, err := domain.NewAuthoritativeRR(name, rtype, domain.RRClassIN, defaultHostsTTL, data, text)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s:%d: %w", source, lineNum, err))
				continue
			}
			out = append(out, rr)
			logger.Debug(map[string]any{"source": source, "line": lineNum, "name": string(name)}, "hosts_emit_rr")
		}
	}

	if err := scanner.Err(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", source, err))
	}

	logger.Debug(map[string]any{"source": source, "count": len(out)}, "parse_hosts_done")
	return out, errs
}
