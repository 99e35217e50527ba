package rrdata

import (
	"fmt"
	"strings"
)

// EncodeMINFOData encodes a MINFO record (RFC 1035 §3.3.7): responsible
// mailbox and error mailbox, both domain names.
func EncodeMINFOData(data string) ([]byte, error) {
	parts := strings.Fields(data)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid MINFO record format (expected: rmailbx emailbx): %s", data)
	}
	rmailbx, err := EncodeDomainName(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid MINFO rmailbx: %v", err)
	}
	emailbx, err := EncodeDomainName(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid MINFO emailbx: %v", err)
	}
	return append(rmailbx, emailbx...), nil
}

// DecodeMINFOData decodes a MINFO record's RDATA.
func DecodeMINFOData(b []byte) (string, error) {
	rmailbxLen, err := domainNameWireLen(b)
	if err != nil {
		return "", fmt.Errorf("invalid MINFO rmailbx: %v", err)
	}
	rmailbx, err := DecodeDomainName(b)
	if err != nil {
		return "", fmt.Errorf("invalid MINFO rmailbx: %v", err)
	}
	emailbx, err := DecodeDomainName(b[rmailbxLen:])
	if err != nil {
		return "", fmt.Errorf("invalid MINFO emailbx: %v", err)
	}
	return fmt.Sprintf("%s %s", rmailbx, emailbx), nil
}
