package rrdata

// EncodeMFData encodes a historical MF record (RFC 1035 §3.3.5).
func EncodeMFData(data string) ([]byte, error) {
	return EncodeDomainName(data)
}

// DecodeMFData decodes a historical MF record.
func DecodeMFData(b []byte) (string, error) {
	return DecodeDomainName(b)
}
