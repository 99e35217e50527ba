package rrdata

import (
	"fmt"

	"github.com/haukened/rr-dns/internal/dns/domain"
)

// Decode converts a record's binary RDATA into its zone-file presentation
// text, based on its type.
func Decode(rrType domain.RRType, data []byte) (string, error) {
	switch rrType {
	case domain.RRTypeA:
		return DecodeAData(data)
	case domain.RRTypeNS:
		return DecodeNSData(data)
	case domain.RRTypeMD:
		return DecodeMDData(data)
	case domain.RRTypeMF:
		return DecodeMFData(data)
	case domain.RRTypeCNAME:
		return DecodeCNAMEData(data)
	case domain.RRTypeSOA:
		return DecodeSOAData(data)
	case domain.RRTypeMB:
		return DecodeMBData(data)
	case domain.RRTypeMG:
		return DecodeMGData(data)
	case domain.RRTypeMR:
		return DecodeMRData(data)
	case domain.RRTypeNULL:
		return DecodeNULLData(data)
	case domain.RRTypeWKS:
		return DecodeWKSData(data)
	case domain.RRTypePTR:
		return DecodePTRData(data)
	case domain.RRTypeHINFO:
		return DecodeHINFOData(data)
	case domain.RRTypeMINFO:
		return DecodeMINFOData(data)
	case domain.RRTypeMX:
		return DecodeMXData(data)
	case domain.RRTypeTXT:
		return DecodeTXTData(data)
	case domain.RRTypeAAAA:
		return DecodeAAAAData(data)
	case domain.RRTypeSRV:
		return DecodeSRVData(data)
	default:
		// Types without a structured decoder are carried as opaque RDATA,
		// rendered in the RFC 3597 generic form `\# <length> <hex>`.
		if len(data) == 0 {
			return `\# 0`, nil
		}
		return fmt.Sprintf(`\# %d %x`, len(data), data), nil
	}
}

func decoderNotImplemented(t domain.RRType) (string, error) {
	return "", fmt.Errorf("%s record decoding not implemented", t)
}
