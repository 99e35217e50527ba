package rrdata

// EncodeNSData encodes an NS record string into its binary representation.
func EncodeNSData(data string) ([]byte, error) {
	// data = "ns.example.com"
	return EncodeDomainName(data)
}

// DecodeNSData decodes an NS record's RDATA into a domain name string.
func DecodeNSData(b []byte) (string, error) {
	return DecodeDomainName(b)
}
