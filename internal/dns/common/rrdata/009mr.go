package rrdata

// EncodeMRData encodes a historical MR record (RFC 1035 §3.3.8).
func EncodeMRData(data string) ([]byte, error) {
	return EncodeDomainName(data)
}

// DecodeMRData decodes a historical MR record.
func DecodeMRData(b []byte) (string, error) {
	return DecodeDomainName(b)
}
