package rrdata

// EncodePTRData encodes a PTR record string into its binary representation.
func EncodePTRData(data string) ([]byte, error) {
	// data = "ptr.example.com"
	return EncodeDomainName(data)
}

// DecodePTRData decodes a PTR (Pointer) record's RDATA from the given byte slice.
func DecodePTRData(b []byte) (string, error) {
	return DecodeDomainName(b)
}
