package zone

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/haukened/rr-dns/internal/dns/common/log"
	"github.com/haukened/rr-dns/internal/dns/common/rrdata"
	"github.com/haukened/rr-dns/internal/dns/domain"
)

// defaultZoneTTL seeds TTL inheritance for a zone file whose first record
// line omits a TTL (spec §6 "Zone file format": "omitted TTL inherits the
// previous line's" has no prior line to inherit from on line one).
const defaultZoneTTL = uint32(3600)

// zoneLine is one logical record or directive line: the token sequence
// between unparenthesized newlines, plus whether the original physical line
// began with whitespace (the RFC 1035 §5.1 signal that its owner name is
// omitted and inherits the previous line's).
type zoneLine struct {
	tokens       []string
	ownerOmitted bool
}

// ParseZoneFile reads an RFC 1035 §5 zone file subset and returns the zone
// it describes. Supported directives: `$ORIGIN <name>`; `$INCLUDE` and
// `$TTL` are explicit parse errors (spec §6). A malformed record line is
// aggregated into the returned error and the rest of the file still loads
// (spec §7 "Configuration errors"), matching ParseHosts's per-line
// tolerance.
//
// z.Origin is set from the file's first `$ORIGIN` directive, if any,
// otherwise from defaultOrigin; later `$ORIGIN` directives only change how
// subsequent relative names are completed; they never rewrite records
// already added (Open Question decision: $ORIGIN is not retroactive).
func ParseZoneFile(r io.Reader, source string, defaultOrigin domain.Name, logger log.Logger) (*Zone, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	lines, err := tokenizeZoneFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	z := NewZone(defaultOrigin)
	currentOrigin := defaultOrigin
	originFixed := false

	st := &zoneParseState{lastTTL: defaultZoneTTL}

	var errs error
	for i, line := range lines {
		lineNo := i + 1
		if len(line.tokens) == 0 {
			continue
		}

		if strings.HasPrefix(line.tokens[0], "$") {
			switch strings.ToUpper(line.tokens[0]) {
			case "$ORIGIN":
				if len(line.tokens) != 2 {
					errs = multierr.Append(errs, fmt.Errorf("%s:%d: $ORIGIN requires exactly one name", source, lineNo))
					continue
				}
				currentOrigin = domain.CanonicalName(line.tokens[1])
				if !originFixed {
					z.Origin = currentOrigin
					originFixed = true
				}
			case "$INCLUDE", "$TTL":
				errs = multierr.Append(errs, fmt.Errorf("%s:%d: unsupported directive %s", source, lineNo, line.tokens[0]))
			default:
				errs = multierr.Append(errs, fmt.Errorf("%s:%d: unknown directive %s", source, lineNo, line.tokens[0]))
			}
			continue
		}

		rr, err := parseRecordLine(line, currentOrigin, st)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s:%d: %w", source, lineNo, err))
			continue
		}
		hasCNAME := len(z.Records[domain.CacheKeyFor(rr.Name, domain.RRTypeCNAME, rr.Class)]) > 0
		if (rr.Type == domain.RRTypeCNAME && !hasCNAME && z.ownerExists(rr.Name)) ||
			(rr.Type != domain.RRTypeCNAME && hasCNAME) {
			errs = multierr.Append(errs, fmt.Errorf("%s:%d: CNAME cannot coexist with other records at %s", source, lineNo, rr.Name))
			continue
		}
		z.Add(rr)
		logger.Debug(map[string]any{"source": source, "line": lineNo, "name": rr.Name.String(), "type": rr.Type.String()}, "zonefile_emit_rr")
	}

	return z, errs
}

// zoneParseState carries the owner/TTL inheritance required by spec §6
// across successive record lines within one file.
type zoneParseState struct {
	haveOwner bool
	lastOwner domain.Name
	lastTTL   uint32
}

// parseRecordLine implements the `[<owner>] [<ttl>] [<class>] <type>
// <rdata...>` grammar of spec §6 "Zone file format", including TTL/class
// appearing in either order, both long-standing zone-file conventions.
func parseRecordLine(line zoneLine, origin domain.Name, st *zoneParseState) (domain.RR, error) {
	tokens := line.tokens
	idx := 0

	var owner domain.Name
	if line.ownerOmitted {
		if !st.haveOwner {
			return domain.RR{}, fmt.Errorf("owner name omitted with no previous line to inherit from")
		}
		owner = st.lastOwner
	} else {
		owner = completeName(tokens[0], origin)
		idx = 1
	}

	ttl := st.lastTTL
	class := domain.RRClassIN

	for idx < len(tokens) {
		tok := tokens[idx]
		if n, ok := parseUint32(tok); ok {
			ttl = n
			idx++
			continue
		}
		if c := domain.ParseRRClass(strings.ToUpper(tok)); c != 0 {
			class = c
			idx++
			continue
		}
		break
	}

	if idx >= len(tokens) {
		return domain.RR{}, fmt.Errorf("missing record type")
	}
	typeTok := strings.ToUpper(tokens[idx])
	rtype := domain.RRTypeFromString(typeTok)
	if rtype == 0 {
		return domain.RR{}, fmt.Errorf("unknown or unsupported record type %q", tokens[idx])
	}
	idx++

	text, err := buildRDataText(rtype, tokens[idx:], origin)
	if err != nil {
		return domain.RR{}, err
	}
	data, err := rrdata.Encode(rtype, text)
	if err != nil {
		return domain.RR{}, fmt.Errorf("%s: %w", rtype, err)
	}

	rr, err := domain.NewAuthoritativeRR(owner, rtype, class, ttl, data, text)
	if err != nil {
		return domain.RR{}, err
	}

	st.lastOwner = owner
	st.haveOwner = true
	st.lastTTL = ttl
	return rr, nil
}

// buildRDataText renders rtype's remaining tokens into the presentation
// text format rrdata.Encode expects, completing relative domain names
// against origin (spec §6 "Relative owner names are completed with the
// current origin" — applied identically to in-RDATA names).
func buildRDataText(rtype domain.RRType, tokens []string, origin domain.Name) (string, error) {
	switch rtype {
	case domain.RRTypeA, domain.RRTypeAAAA:
		if len(tokens) != 1 {
			return "", fmt.Errorf("%s record requires exactly one address", rtype)
		}
		return tokens[0], nil

	case domain.RRTypeNS, domain.RRTypeCNAME, domain.RRTypePTR,
		domain.RRTypeMB, domain.RRTypeMD, domain.RRTypeMF, domain.RRTypeMG, domain.RRTypeMR:
		if len(tokens) != 1 {
			return "", fmt.Errorf("%s record requires exactly one target name", rtype)
		}
		return completeName(tokens[0], origin).String(), nil

	case domain.RRTypeMX:
		if len(tokens) != 2 {
			return "", fmt.Errorf("MX record requires preference and exchange")
		}
		return fmt.Sprintf("%s %s", tokens[0], completeName(tokens[1], origin)), nil

	case domain.RRTypeSOA:
		if len(tokens) != 7 {
			return "", fmt.Errorf("SOA record requires 7 fields")
		}
		mname := completeName(tokens[0], origin)
		rname := completeName(tokens[1], origin)
		return fmt.Sprintf("%s %s %s %s %s %s %s", mname, rname, tokens[2], tokens[3], tokens[4], tokens[5], tokens[6]), nil

	case domain.RRTypeSRV:
		if len(tokens) != 4 {
			return "", fmt.Errorf("SRV record requires priority, weight, port and target")
		}
		return fmt.Sprintf("%s %s %s %s", tokens[0], tokens[1], tokens[2], completeName(tokens[3], origin)), nil

	case domain.RRTypeMINFO:
		if len(tokens) != 2 {
			return "", fmt.Errorf("MINFO record requires rmailbx and emailbx")
		}
		return fmt.Sprintf("%s %s", completeName(tokens[0], origin), completeName(tokens[1], origin)), nil

	case domain.RRTypeHINFO:
		if len(tokens) != 2 {
			return "", fmt.Errorf("HINFO record requires cpu and os")
		}
		return fmt.Sprintf("\"%s\" %s", tokens[0], tokens[1]), nil

	case domain.RRTypeTXT:
		if len(tokens) == 0 {
			return "", fmt.Errorf("TXT record requires at least one string")
		}
		return strings.Join(tokens, ";"), nil

	case domain.RRTypeNULL, domain.RRTypeWKS:
		return strings.Join(tokens, ""), nil

	default:
		return "", fmt.Errorf("unsupported record type %s", rtype)
	}
}

// completeName resolves a zone-file name token against origin: `@` is the
// origin itself, a trailing-dot token is already absolute, anything else
// is relative and gets origin appended (spec §6 "`@` denotes the current
// origin ... Relative owner names are completed with the current origin").
func completeName(tok string, origin domain.Name) domain.Name {
	if tok == "@" {
		return origin
	}
	if strings.HasSuffix(tok, ".") {
		return domain.CanonicalName(tok)
	}
	if origin.IsRoot() {
		return domain.CanonicalName(tok + ".")
	}
	return domain.CanonicalName(tok + "." + origin.String())
}

func parseUint32(s string) (uint32, bool) {
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// tokenizeZoneFile splits zone-file bytes into logical lines of tokens,
// honoring `;` end-of-line comments, double-quoted strings that may
// contain spaces, `\X`/`\DDD` escapes, and parenthesized groups that span
// physical newlines (spec §6 "Zone file format").
func tokenizeZoneFile(data []byte) ([]zoneLine, error) {
	var lines []zoneLine
	var current []string
	var tok []byte

	inToken := false
	inQuote := false
	parenDepth := 0
	atLineStart := true
	ownerOmitted := false

	flushTok := func() {
		if inToken {
			current = append(current, string(tok))
			tok = tok[:0]
			inToken = false
		}
	}
	flushLine := func() {
		flushTok()
		if len(current) > 0 {
			lines = append(lines, zoneLine{tokens: current, ownerOmitted: ownerOmitted})
			current = nil
		}
		atLineStart = true
		ownerOmitted = false
	}

	i := 0
	for i < len(data) {
		c := data[i]

		if inQuote {
			if c == '\\' && i+1 < len(data) {
				n, b, err := decodeZoneEscape(data[i+1:])
				if err != nil {
					return nil, err
				}
				tok = append(tok, b)
				inToken = true
				i += 1 + n
				continue
			}
			if c == '"' {
				inQuote = false
				i++
				continue
			}
			tok = append(tok, c)
			inToken = true
			i++
			continue
		}

		switch {
		case c == '"':
			flushTok()
			inQuote = true
			inToken = true
			atLineStart = false
			i++
		case c == ';':
			for i < len(data) && data[i] != '\n' {
				i++
			}
		case c == '(':
			flushTok()
			parenDepth++
			atLineStart = false
			i++
		case c == ')':
			flushTok()
			if parenDepth > 0 {
				parenDepth--
			}
			atLineStart = false
			i++
		case c == '\n':
			flushTok()
			if parenDepth == 0 {
				flushLine()
			}
			i++
		case c == ' ' || c == '\t' || c == '\r':
			if atLineStart && len(current) == 0 && !inToken {
				ownerOmitted = true
			}
			flushTok()
			i++
		case c == '\\' && i+1 < len(data):
			n, b, err := decodeZoneEscape(data[i+1:])
			if err != nil {
				return nil, err
			}
			tok = append(tok, b)
			inToken = true
			atLineStart = false
			i += 1 + n
		default:
			tok = append(tok, c)
			inToken = true
			atLineStart = false
			i++
		}
	}

	if inQuote {
		return nil, fmt.Errorf("unterminated quoted string")
	}
	flushLine()
	return lines, nil
}

// decodeZoneEscape decodes one `\X` or `\DDD` escape (spec §6 "Escapes")
// starting just after the backslash, returning the number of bytes it
// consumed from rest and the literal octet it represents.
func decodeZoneEscape(rest []byte) (consumed int, b byte, err error) {
	if len(rest) == 0 {
		return 0, 0, fmt.Errorf("trailing backslash")
	}
	if rest[0] >= '0' && rest[0] <= '9' {
		if len(rest) < 3 {
			return 0, 0, fmt.Errorf("incomplete \\DDD escape")
		}
		n, err := strconv.Atoi(string(rest[:3]))
		if err != nil || n > 255 {
			return 0, 0, fmt.Errorf("invalid \\DDD escape %q", rest[:3])
		}
		return 3, byte(n), nil
	}
	return 1, rest[0], nil
}
