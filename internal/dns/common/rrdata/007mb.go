package rrdata

// EncodeMBData encodes a historical MB record (RFC 1035 §3.3.3).
func EncodeMBData(data string) ([]byte, error) {
	return EncodeDomainName(data)
}

// DecodeMBData decodes a historical MB record.
func DecodeMBData(b []byte) (string, error) {
	return DecodeDomainName(b)
}
