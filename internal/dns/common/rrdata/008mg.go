package rrdata

// EncodeMGData encodes a historical MG record (RFC 1035 §3.3.6).
func EncodeMGData(data string) ([]byte, error) {
	return EncodeDomainName(data)
}

// DecodeMGData decodes a historical MG record.
func DecodeMGData(b []byte) (string, error) {
	return DecodeDomainName(b)
}
