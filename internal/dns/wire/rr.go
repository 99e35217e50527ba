package wire

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/haukened/rr-dns/internal/dns/common/rrdata"
	"github.com/haukened/rr-dns/internal/dns/domain"
)

// encodeQuestion writes a single question section entry.
func encodeQuestion(buf []byte, q domain.Question, table nameTable) []byte {
	buf = encodeName(buf, q.Name, table)
	tail := make([]byte, 4)
	binary.BigEndian.PutUint16(tail[0:2], uint16(q.Type))
	binary.BigEndian.PutUint16(tail[2:4], uint16(q.Class))
	return append(buf, tail...)
}

// decodeQuestion reads a single question section entry starting at offset.
func decodeQuestion(data []byte, offset int) (domain.Question, int, error) {
	name, offset, err := decodeName(data, offset)
	if err != nil {
		return domain.Question{}, 0, fmt.Errorf("wire: question name: %w", err)
	}
	if offset+4 > len(data) {
		return domain.Question{}, 0, fmt.Errorf("wire: truncated question at %d", offset)
	}
	q := domain.Question{
		Name:  name,
		Type:  domain.RRType(binary.BigEndian.Uint16(data[offset : offset+2])),
		Class: domain.RRClass(binary.BigEndian.Uint16(data[offset+2 : offset+4])),
	}
	return q, offset + 4, nil
}

// encodeRR writes a single resource record: owner name (compressed where
// legal), type, class, TTL, RDLENGTH, and RDATA (always uncompressed, per
// spec §4.1 "RR RDATA").
func encodeRR(buf []byte, rr domain.RR, table nameTable) ([]byte, error) {
	buf = encodeName(buf, rr.Name, table)
	tail := make([]byte, 8)
	binary.BigEndian.PutUint16(tail[0:2], uint16(rr.Type))
	binary.BigEndian.PutUint16(tail[2:4], uint16(rr.Class))
	binary.BigEndian.PutUint32(tail[4:8], rr.TTL())
	buf = append(buf, tail...)

	data := rr.Data
	if data == nil {
		encoded, err := rrdata.Encode(rr.Type, rr.Text)
		if err != nil {
			return nil, fmt.Errorf("wire: encode rdata for %s %s: %w", rr.Name, rr.Type, err)
		}
		data = encoded
	}
	if len(data) > 0xffff {
		return nil, fmt.Errorf("wire: rdata for %s %s exceeds 65535 octets", rr.Name, rr.Type)
	}
	rdlen := make([]byte, 2)
	binary.BigEndian.PutUint16(rdlen, uint16(len(data)))
	buf = append(buf, rdlen...)
	buf = append(buf, data...)
	return buf, nil
}

// decodeRR reads a single resource record starting at offset. RDATA that
// embeds domain names (NS, CNAME, SOA, PTR, MX, MB/MD/MF/MG/MR, MINFO)
// may itself use compression pointers into the full message, which is why
// decoding happens against the whole buffer rather than an isolated RDATA
// slice for those types; everything else is decoded as an opaque span.
func decodeRR(data []byte, offset int, now time.Time) (domain.RR, int, error) {
	name, offset, err := decodeName(data, offset)
	if err != nil {
		return domain.RR{}, 0, fmt.Errorf("wire: record name: %w", err)
	}
	if offset+10 > len(data) {
		return domain.RR{}, 0, fmt.Errorf("wire: truncated record header at %d", offset)
	}
	typ := domain.RRType(binary.BigEndian.Uint16(data[offset : offset+2]))
	class := domain.RRClass(binary.BigEndian.Uint16(data[offset+2 : offset+4]))
	ttl := binary.BigEndian.Uint32(data[offset+4 : offset+8])
	rdlen := int(binary.BigEndian.Uint16(data[offset+8 : offset+10]))
	offset += 10
	if offset+rdlen > len(data) {
		return domain.RR{}, 0, fmt.Errorf("wire: truncated rdata at %d", offset)
	}
	rdataBytes, text, err := decodeRData(data, offset, rdlen, typ)
	if err != nil {
		return domain.RR{}, 0, fmt.Errorf("wire: rdata for %s %s: %w", name, typ, err)
	}
	offset += rdlen

	rr, err := domain.NewCachedRR(name, typ, class, ttl, rdataBytes, text, now)
	if err != nil {
		return domain.RR{}, 0, fmt.Errorf("wire: %w", err)
	}
	return rr, offset, nil
}

// decodeRData resolves RDATA for record types whose presentation form
// requires chasing message-wide compression pointers (name-bearing types),
// and falls back to the raw RDATA bytes plus rrdata.Decode for the rest.
func decodeRData(data []byte, offset, rdlen int, typ domain.RRType) (raw []byte, text string, err error) {
	raw = append([]byte(nil), data[offset:offset+rdlen]...)
	switch typ {
	case domain.RRTypeNS, domain.RRTypeCNAME, domain.RRTypePTR,
		domain.RRTypeMB, domain.RRTypeMD, domain.RRTypeMF, domain.RRTypeMG, domain.RRTypeMR:
		name, _, err := decodeName(data, offset)
		if err != nil {
			return nil, "", err
		}
		raw, err := rrdata.EncodeDomainName(name.String())
		if err != nil {
			return nil, "", err
		}
		return raw, name.String(), nil
	case domain.RRTypeSOA:
		return decodeCompressedSOA(data, offset, rdlen)
	case domain.RRTypeMX:
		return decodeCompressedMX(data, offset, rdlen)
	case domain.RRTypeMINFO:
		return decodeCompressedMINFO(data, offset, rdlen)
	default:
		text, err := rrdata.Decode(typ, raw)
		if err != nil {
			return nil, "", err
		}
		return raw, text, nil
	}
}

func decodeCompressedSOA(data []byte, offset, rdlen int) ([]byte, string, error) {
	mname, next, err := decodeName(data, offset)
	if err != nil {
		return nil, "", err
	}
	rname, next2, err := decodeName(data, next)
	if err != nil {
		return nil, "", err
	}
	if next2+20 > len(data) {
		return nil, "", fmt.Errorf("truncated SOA integer fields")
	}
	u := make([]uint32, 5)
	for i := 0; i < 5; i++ {
		u[i] = binary.BigEndian.Uint32(data[next2+i*4 : next2+(i+1)*4])
	}
	text := fmt.Sprintf("%s %s %d %d %d %d %d", mname, rname, u[0], u[1], u[2], u[3], u[4])
	raw, err := rrdata.EncodeSOAData(text)
	if err != nil {
		return nil, "", err
	}
	return raw, text, nil
}

func decodeCompressedMX(data []byte, offset, rdlen int) ([]byte, string, error) {
	if offset+2 > len(data) {
		return nil, "", fmt.Errorf("truncated MX preference")
	}
	pref := binary.BigEndian.Uint16(data[offset : offset+2])
	exchange, _, err := decodeName(data, offset+2)
	if err != nil {
		return nil, "", err
	}
	text := fmt.Sprintf("%d %s", pref, exchange)
	raw, err := rrdata.EncodeMXData(text)
	if err != nil {
		return nil, "", err
	}
	return raw, text, nil
}

func decodeCompressedMINFO(data []byte, offset, rdlen int) ([]byte, string, error) {
	rmailbx, next, err := decodeName(data, offset)
	if err != nil {
		return nil, "", err
	}
	emailbx, _, err := decodeName(data, next)
	if err != nil {
		return nil, "", err
	}
	text := fmt.Sprintf("%s %s", rmailbx, emailbx)
	raw, err := rrdata.EncodeMINFOData(text)
	if err != nil {
		return nil, "", err
	}
	return raw, text, nil
}
