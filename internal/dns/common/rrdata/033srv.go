package rrdata

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// EncodeSRVData encodes an SRV record string into its binary representation.
func EncodeSRVData(data string) ([]byte, error) {
	// data = "priority weight port target"
	parts := strings.Fields(data)
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid SRV record format (expected 4 fields): %s", data)
	}

	buf := make([]byte, 6)
	for i := 0; i < 3; i++ {
		val, err := strconv.ParseUint(parts[i], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid SRV field %d: %v", i, err)
		}
		binary.BigEndian.PutUint16(buf[i*2:], uint16(val))
	}

	target, err := EncodeDomainName(parts[3])
	if err != nil {
		return nil, fmt.Errorf("invalid SRV target: %v", err)
	}

	return append(buf, target...), nil
}

// DecodeSRVData decodes an SRV record's RDATA into its presentation form.
func DecodeSRVData(b []byte) (string, error) {
	if len(b) < 7 {
		return "", fmt.Errorf("invalid SRV data length")
	}
	priority := binary.BigEndian.Uint16(b[0:2])
	weight := binary.BigEndian.Uint16(b[2:4])
	port := binary.BigEndian.Uint16(b[4:6])
	target, err := DecodeDomainName(b[6:])
	if err != nil {
		return "", fmt.Errorf("invalid SRV target: %v", err)
	}
	return fmt.Sprintf("%d %d %d %s", priority, weight, port, target), nil
}
