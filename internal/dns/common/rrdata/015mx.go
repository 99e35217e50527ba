package rrdata

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// EncodeMXData encodes an MX record string into its binary representation.
func EncodeMXData(data string) ([]byte, error) {
	// data = "10 mail.example.com"
	parts := strings.Fields(data)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid MX record format (expected: preference domain): %s", data)
	}
	pref, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid MX preference: %s", parts[0])
	}
	prefBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(prefBytes, uint16(pref))
	encodedDomain, err := EncodeDomainName(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid MX exchange domain: %s", parts[1])
	}
	return append(prefBytes, encodedDomain...), nil
}

// DecodeMXData decodes MX (Mail Exchange) record data from the given byte slice.
func DecodeMXData(b []byte) (string, error) {
	if len(b) < 3 {
		return "", fmt.Errorf("invalid MX data length")
	}
	pref := binary.BigEndian.Uint16(b[:2])
	domain, err := DecodeDomainName(b[2:])
	if err != nil {
		return "", fmt.Errorf("invalid MX exchange domain: %v", err)
	}
	return fmt.Sprintf("%d %s", pref, domain), nil
}
