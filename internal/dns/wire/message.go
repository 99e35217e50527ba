package wire

import (
	"fmt"
	"time"

	"github.com/haukened/rr-dns/internal/dns/domain"
)

// EncodeMessage serializes msg into its wire form. Owner names compress
// against the question and any earlier records in the same message;
// RDATA-embedded names never compress (spec §4.1 "RR RDATA").
func EncodeMessage(msg domain.Message) ([]byte, error) {
	buf := encodeHeader(msg.Header)
	table := nameTable{}

	for _, q := range msg.Questions {
		buf = encodeQuestion(buf, q, table)
	}
	for _, section := range [][]domain.RR{msg.Answers, msg.Authority, msg.Additional} {
		for _, rr := range section {
			var err error
			buf, err = encodeRR(buf, rr, table)
			if err != nil {
				return nil, err
			}
		}
	}
	return buf, nil
}

// DecodeMessage parses a wire-form message, chasing compression pointers
// against the full buffer. On any error past the header, the returned
// Message still carries the successfully-decoded Header (and so its ID) so
// a caller can still build a FORMERR response per spec §4.1/§7 — only a
// header-decode failure itself (message shorter than 12 octets) returns a
// zero Header, since there is no ID to recover.
func DecodeMessage(data []byte, now time.Time) (domain.Message, error) {
	header, err := decodeHeader(data)
	if err != nil {
		return domain.Message{}, err
	}

	offset := headerSize
	questions := make([]domain.Question, 0, header.QDCount)
	for i := 0; i < int(header.QDCount); i++ {
		q, next, err := decodeQuestion(data, offset)
		if err != nil {
			return domain.Message{Header: header}, fmt.Errorf("wire: question %d: %w", i, err)
		}
		questions = append(questions, q)
		offset = next
	}

	decodeSection := func(count uint16) ([]domain.RR, error) {
		rrs := make([]domain.RR, 0, count)
		for i := 0; i < int(count); i++ {
			rr, next, err := decodeRR(data, offset, now)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			rrs = append(rrs, rr)
			offset = next
		}
		return rrs, nil
	}

	answers, err := decodeSection(header.ANCount)
	if err != nil {
		return domain.Message{Header: header, Questions: questions}, fmt.Errorf("wire: answer %w", err)
	}
	authority, err := decodeSection(header.NSCount)
	if err != nil {
		return domain.Message{Header: header, Questions: questions}, fmt.Errorf("wire: authority %w", err)
	}
	additional, err := decodeSection(header.ARCount)
	if err != nil {
		return domain.Message{Header: header, Questions: questions}, fmt.Errorf("wire: additional %w", err)
	}

	return domain.Message{
		Header:     header,
		Questions:  questions,
		Answers:    answers,
		Authority:  authority,
		Additional: additional,
	}, nil
}

// TruncateForUDP returns msg unchanged if it already fits within maxSize
// once encoded; otherwise it returns the result of msg.WithTruncation(),
// which a caller can always assume fits (an empty-sections response plus a
// single question is always far smaller than 512 octets).
func TruncateForUDP(msg domain.Message, maxSize int) (domain.Message, []byte, error) {
	encoded, err := EncodeMessage(msg)
	if err != nil {
		return msg, nil, err
	}
	if len(encoded) <= maxSize {
		return msg, encoded, nil
	}
	truncated := msg.WithTruncation()
	encoded, err = EncodeMessage(truncated)
	if err != nil {
		return truncated, nil, err
	}
	return truncated, encoded, nil
}
