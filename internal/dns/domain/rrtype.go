package domain

import "fmt"

// RRType represents a DNS resource record type code (RFC 1035 §3.2.2) or
// QTYPE code (RFC 1035 §3.2.3). Codes outside the closed enumeration below
// are still representable as opaque records; they just have no named
// constant and no structured RDATA decoder.
type RRType uint16

// DNS resource record type constants. This is the closed set of types the
// wire codec and zone store understand structurally; everything else is
// carried as an opaque (type code, raw RDATA) pair.
const (
	RRTypeA     RRType = 1  // A - host address
	RRTypeNS    RRType = 2  // NS - authoritative name server
	RRTypeMD    RRType = 3  // MD - mail destination (historical)
	RRTypeMF    RRType = 4  // MF - mail forwarder (historical)
	RRTypeCNAME RRType = 5  // CNAME - canonical name for an alias
	RRTypeSOA   RRType = 6  // SOA - start of a zone of authority
	RRTypeMB    RRType = 7  // MB - mailbox domain name (historical)
	RRTypeMG    RRType = 8  // MG - mail group member (historical)
	RRTypeMR    RRType = 9  // MR - mail rename domain name (historical)
	RRTypeNULL  RRType = 10 // NULL - null RR (historical)
	RRTypeWKS   RRType = 11 // WKS - well known service description (historical)
	RRTypePTR   RRType = 12 // PTR - domain name pointer
	RRTypeHINFO RRType = 13 // HINFO - host information (historical)
	RRTypeMINFO RRType = 14 // MINFO - mailbox/mail list information (historical)
	RRTypeMX    RRType = 15 // MX - mail exchange
	RRTypeTXT   RRType = 16 // TXT - text strings
	RRTypeAAAA  RRType = 28 // AAAA - IPv6 host address (RFC 3596)
	RRTypeSRV   RRType = 33 // SRV - server selection (RFC 2782)

	// RRTypeANY is a QTYPE only ("*" in RFC 1035 §3.2.3): "all records for
	// this name". It is never the type of a stored record.
	RRTypeANY RRType = 255
)

// knownTypes is the closed set with a structured RDATA codec.
var knownTypes = map[RRType]string{
	RRTypeA:     "A",
	RRTypeNS:    "NS",
	RRTypeMD:    "MD",
	RRTypeMF:    "MF",
	RRTypeCNAME: "CNAME",
	RRTypeSOA:   "SOA",
	RRTypeMB:    "MB",
	RRTypeMG:    "MG",
	RRTypeMR:    "MR",
	RRTypeNULL:  "NULL",
	RRTypeWKS:   "WKS",
	RRTypePTR:   "PTR",
	RRTypeHINFO: "HINFO",
	RRTypeMINFO: "MINFO",
	RRTypeMX:    "MX",
	RRTypeTXT:   "TXT",
	RRTypeAAAA:  "AAAA",
	RRTypeSRV:   "SRV",
	RRTypeANY:   "ANY",
}

// IsKnown reports whether t has a named, structurally-decoded RDATA format.
// Unknown types are not invalid — they are carried as opaque RDATA per
// spec §3 "Record type".
func (t RRType) IsKnown() bool {
	_, ok := knownTypes[t]
	return ok
}

// IsQueryOnly reports whether t is only meaningful as a QTYPE, never as the
// type of a stored resource record.
func (t RRType) IsQueryOnly() bool {
	return t == RRTypeANY
}

// String returns the textual mnemonic for t, or "TYPE<n>" for unknown codes
// (the RFC 3597 convention for opaque types).
func (t RRType) String() string {
	if name, ok := knownTypes[t]; ok {
		return name
	}
	return fmt.Sprintf("TYPE%d", uint16(t))
}

// RRTypeFromString converts a mnemonic to its RRType. Callers normalize case
// before calling. Returns 0 ("reserved", never a real record) for
// unrecognized mnemonics.
func RRTypeFromString(s string) RRType {
	for code, name := range knownTypes {
		if name == s {
			return code
		}
	}
	return 0
}
