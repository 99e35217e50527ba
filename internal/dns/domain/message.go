package domain

import "fmt"

// OpCode is the RFC 1035 §4.1.1 OPCODE field: the kind of query a message
// carries. Only OpCodeQuery is served; anything else yields NOTIMP.
type OpCode uint8

const (
	OpCodeQuery  OpCode = 0
	OpCodeIQuery OpCode = 1
	OpCodeStatus OpCode = 2
)

// Header is the fixed 12-octet DNS message header (spec §3 "Message").
type Header struct {
	ID      uint16
	QR      bool // query (false) or response (true)
	OpCode  OpCode
	AA      bool // authoritative answer
	TC      bool // truncated
	RD      bool // recursion desired
	RA      bool // recursion available
	Z       uint8
	RCode   RCode
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// Message is a full DNS message: header plus the four sections (spec §3
// "Message"). Questions is almost always length 1 in practice (this
// implementation only ever sends and expects single-question messages,
// per spec §7 "a query with QDCOUNT != 1 is a FORMERR"), but the section is
// modeled as a slice to mirror the wire format faithfully.
type Message struct {
	Header     Header
	Questions  []Question
	Answers    []RR
	Authority  []RR
	Additional []RR
}

// NewQueryMessage builds a single-question query message with the given id,
// recursion-desired bit, and question.
func NewQueryMessage(id uint16, rd bool, q Question) Message {
	return Message{
		Header: Header{
			ID:      id,
			QR:      false,
			OpCode:  OpCodeQuery,
			RD:      rd,
			QDCount: 1,
		},
		Questions: []Question{q},
	}
}

// NewResponseMessage builds a response message answering query, with the
// given rcode and record sections. It copies the query's ID, question, and
// RD bit, and always echoes AA/RA/TC as false; callers that need those bits
// set mutate the returned Message directly (e.g. the resolver sets AA for
// zone-authoritative answers, the transport sets TC when truncating).
func NewResponseMessage(query Message, rcode RCode, answers, authority, additional []RR) Message {
	resp := Message{
		Header: Header{
			ID:      query.Header.ID,
			QR:      true,
			OpCode:  query.Header.OpCode,
			RD:      query.Header.RD,
			RCode:   rcode,
			QDCount: uint16(len(query.Questions)),
			ANCount: uint16(len(answers)),
			NSCount: uint16(len(authority)),
			ARCount: uint16(len(additional)),
		},
		Questions:  query.Questions,
		Answers:    answers,
		Authority:  authority,
		Additional: additional,
	}
	return resp
}

// NewErrorResponse builds a response carrying only an error rcode and no
// record sections, the shape used for FORMERR/SERVFAIL/REFUSED/NOTIMP
// replies (spec §7 "Error responses").
func NewErrorResponse(query Message, rcode RCode) Message {
	return NewResponseMessage(query, rcode, nil, nil, nil)
}

// Validate checks section-count consistency and the validity of every
// record carried in the message.
func (m Message) Validate() error {
	if int(m.Header.QDCount) != len(m.Questions) {
		return fmt.Errorf("message: QDCOUNT %d does not match %d questions", m.Header.QDCount, len(m.Questions))
	}
	if int(m.Header.ANCount) != len(m.Answers) {
		return fmt.Errorf("message: ANCOUNT %d does not match %d answers", m.Header.ANCount, len(m.Answers))
	}
	if int(m.Header.NSCount) != len(m.Authority) {
		return fmt.Errorf("message: NSCOUNT %d does not match %d authority records", m.Header.NSCount, len(m.Authority))
	}
	if int(m.Header.ARCount) != len(m.Additional) {
		return fmt.Errorf("message: ARCOUNT %d does not match %d additional records", m.Header.ARCount, len(m.Additional))
	}
	for i, q := range m.Questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("message: question %d: %w", i, err)
		}
	}
	for i, rr := range append(append(append([]RR{}, m.Answers...), m.Authority...), m.Additional...) {
		if err := rr.Validate(); err != nil {
			return fmt.Errorf("message: record %d: %w", i, err)
		}
	}
	return nil
}

// IsError reports whether the message is a response carrying a non-NOERROR
// rcode.
func (m Message) IsError() bool {
	return m.Header.RCode != 0
}

// Question returns the message's sole question, the common case; it panics
// if called on a message with no question, which callers should never do
// since every query and response in this codebase carries exactly one.
func (m Message) Question() Question {
	return m.Questions[0]
}

// WithTruncation returns a copy of m with the TC flag set and all three
// record sections cleared, the shape required when a UDP response would
// exceed 512 octets (spec §4.1 "Framing").
func (m Message) WithTruncation() Message {
	m.Header.TC = true
	m.Header.ANCount = 0
	m.Header.NSCount = 0
	m.Header.ARCount = 0
	m.Answers = nil
	m.Authority = nil
	m.Additional = nil
	return m
}
