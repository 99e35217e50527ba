package rrdata

import "encoding/hex"

// EncodeWKSData encodes a WKS record (RFC 1035 §3.4.2, historical). The
// address/protocol/service-bitmap structure has no practical zone-file use
// left, so it is carried as an opaque hex blob like NULL.
func EncodeWKSData(data string) ([]byte, error) {
	return hex.DecodeString(data)
}

// DecodeWKSData renders a WKS record's opaque RDATA as hex.
func DecodeWKSData(b []byte) (string, error) {
	return hex.EncodeToString(b), nil
}
