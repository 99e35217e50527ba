package rrdata

import "encoding/hex"

// EncodeNULLData encodes a NULL record (RFC 1035 §3.3.10): the presentation
// form is a hex dump of the opaque payload, since NULL carries no structure.
func EncodeNULLData(data string) ([]byte, error) {
	return hex.DecodeString(data)
}

// DecodeNULLData renders a NULL record's opaque RDATA as hex.
func DecodeNULLData(b []byte) (string, error) {
	return hex.EncodeToString(b), nil
}
