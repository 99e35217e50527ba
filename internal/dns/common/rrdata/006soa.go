package rrdata

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// EncodeSOAData encodes an SOA record string into its binary representation.
func EncodeSOAData(data string) ([]byte, error) {
	// data = "mname rname serial refresh retry expire minimum"
	parts := strings.Fields(data)
	if len(parts) != 7 {
		return nil, fmt.Errorf("invalid SOA record format (expected 7 fields): %s", data)
	}

	mname, err := EncodeDomainName(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid SOA mname: %v", err)
	}

	rname, err := EncodeDomainName(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid SOA rname: %v", err)
	}

	u32 := make([]byte, 20)
	for i := 0; i < 5; i++ {
		val, err := strconv.ParseUint(parts[i+2], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid SOA field %d: %v", i+2, err)
		}
		binary.BigEndian.PutUint32(u32[i*4:], uint32(val))
	}

	var encoded []byte
	encoded = append(encoded, mname...)
	encoded = append(encoded, rname...)
	encoded = append(encoded, u32...)

	return encoded, nil
}

// DecodeSOAData decodes an SOA record from its binary representation.
func DecodeSOAData(b []byte) (string, error) {
	mnameLen, err := domainNameWireLen(b)
	if err != nil {
		return "", fmt.Errorf("invalid SOA mname: %v", err)
	}
	mname, err := DecodeDomainName(b)
	if err != nil {
		return "", fmt.Errorf("invalid SOA mname: %v", err)
	}

	rest := b[mnameLen:]
	rnameLen, err := domainNameWireLen(rest)
	if err != nil {
		return "", fmt.Errorf("invalid SOA rname: %v", err)
	}
	rname, err := DecodeDomainName(rest)
	if err != nil {
		return "", fmt.Errorf("invalid SOA rname: %v", err)
	}

	tail := rest[rnameLen:]
	if len(tail) < 20 {
		return "", fmt.Errorf("SOA record missing integer fields")
	}

	var u32 [5]uint32
	for i := 0; i < 5; i++ {
		u32[i] = binary.BigEndian.Uint32(tail[i*4 : (i+1)*4])
	}

	return fmt.Sprintf("%s %s %d %d %d %d %d", mname, rname, u32[0], u32[1], u32[2], u32[3], u32[4]), nil
}
