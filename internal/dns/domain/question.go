package domain

import "fmt"

// Question is a DNS query section entry (spec §3 "Question"): the name,
// type, and class being asked about. ID lives on Message, not here, so a
// Question can be compared or used as a cache/zone lookup key on its own.
type Question struct {
	Name  Name
	Type  RRType
	Class RRClass
}

// NewQuestion constructs a Question and validates its fields.
func NewQuestion(name Name, rrtype RRType, class RRClass) (Question, error) {
	q := Question{Name: name, Type: rrtype, Class: class}
	if err := q.Validate(); err != nil {
		return Question{}, err
	}
	return q, nil
}

// Validate checks whether the Question fields are structurally valid. A
// query type may legally be RRTypeANY ("*", spec §3.2.3), which is why
// validation here does not require the type be a storable RR type.
func (q Question) Validate() error {
	if q.Name == "" {
		return fmt.Errorf("question: name must not be empty")
	}
	if !q.Type.IsKnown() {
		return fmt.Errorf("question: unsupported type %d", uint16(q.Type))
	}
	if !q.Class.IsValid() {
		return fmt.Errorf("question: unsupported class %d", uint16(q.Class))
	}
	return nil
}

// CacheKey returns the (name, type, class) index key for this question.
func (q Question) CacheKey() string {
	return CacheKeyFor(q.Name, q.Type, q.Class)
}
