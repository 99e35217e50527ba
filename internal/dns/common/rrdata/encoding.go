package rrdata

import (
	"fmt"

	"github.com/haukened/rr-dns/internal/dns/domain"
)

// Encode converts a record's zone-file presentation text into its binary
// RDATA representation, based on its type.
func Encode(rrType domain.RRType, data string) ([]byte, error) {
	switch rrType {
	case domain.RRTypeA:
		return EncodeAData(data)
	case domain.RRTypeNS:
		return EncodeNSData(data)
	case domain.RRTypeMD:
		return EncodeMDData(data)
	case domain.RRTypeMF:
		return EncodeMFData(data)
	case domain.RRTypeCNAME:
		return EncodeCNAMEData(data)
	case domain.RRTypeSOA:
		return EncodeSOAData(data)
	case domain.RRTypeMB:
		return EncodeMBData(data)
	case domain.RRTypeMG:
		return EncodeMGData(data)
	case domain.RRTypeMR:
		return EncodeMRData(data)
	case domain.RRTypeNULL:
		return EncodeNULLData(data)
	case domain.RRTypeWKS:
		return EncodeWKSData(data)
	case domain.RRTypePTR:
		return EncodePTRData(data)
	case domain.RRTypeHINFO:
		return EncodeHINFOData(data)
	case domain.RRTypeMINFO:
		return EncodeMINFOData(data)
	case domain.RRTypeMX:
		return EncodeMXData(data)
	case domain.RRTypeTXT:
		return EncodeTXTData(data)
	case domain.RRTypeAAAA:
		return EncodeAAAAData(data)
	case domain.RRTypeSRV:
		return EncodeSRVData(data)
	default:
		return encoderNotImplemented(rrType)
	}
}

func encoderNotImplemented(t domain.RRType) ([]byte, error) {
	return nil, fmt.Errorf("%s record encoding not implemented", t)
}
