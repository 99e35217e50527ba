package rrdata

// EncodeMDData encodes a historical MD record (RFC 1035 §3.3.4).
func EncodeMDData(data string) ([]byte, error) {
	return EncodeDomainName(data)
}

// DecodeMDData decodes a historical MD record.
func DecodeMDData(b []byte) (string, error) {
	return DecodeDomainName(b)
}
