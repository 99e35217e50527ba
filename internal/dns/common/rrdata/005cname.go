package rrdata

// EncodeCNAMEData encodes a CNAME record string into its binary representation.
func EncodeCNAMEData(data string) ([]byte, error) {
	// data = "cname.example.com"
	return EncodeDomainName(data)
}

// DecodeCNAMEData decodes a CNAME record's RDATA into a domain name string.
func DecodeCNAMEData(b []byte) (string, error) {
	return DecodeDomainName(b)
}
