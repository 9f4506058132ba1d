package expr

import (
	"fmt"
	"regexp"
	"time"
)

// Kind classifies a bound value. The kind is resolved once, from the
// referenced field's declared type, when the value is constructed - never
// inferred ad hoc at a use site.
type Kind string

const (
	KindText   Kind = "text"
	KindNumber Kind = "number"
	KindDate   Kind = "date"
)

// Valid reports whether k is a member of the enumeration.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindNumber, KindDate:
		return true
	}
	return false
}

// Value is a sealed interface representing a typed bound value.
// Only TextValue, NumberValue, and DateValue implement it.
//
// Both serialization paths render values as strings, so every variant keeps
// the canonical literal text. Numeric bounds are validated but never stored
// as floats - float round-tripping breaks deterministic serialization.
type Value interface {
	boundValue() // Sealed - only types in this package implement it

	// Kind returns the value's classification.
	Kind() Kind

	// Wire returns the string form used by both codecs.
	Wire() string
}

// TextValue is a free-form string bound value.
type TextValue string

func (TextValue) boundValue() {}

func (TextValue) Kind() Kind { return KindText }

func (v TextValue) Wire() string { return string(v) }

// NumberValue is a decimal literal bound value. The literal is kept verbatim;
// use NewNumberValue to construct a validated instance.
type NumberValue string

func (NumberValue) boundValue() {}

func (NumberValue) Kind() Kind { return KindNumber }

func (v NumberValue) Wire() string { return string(v) }

// DateValue is an ISO 8601 calendar date (2006-01-02).
type DateValue string

func (DateValue) boundValue() {}

func (DateValue) Kind() Kind { return KindDate }

func (v DateValue) Wire() string { return string(v) }

// decimalLiteral matches an optionally signed decimal number.
// Exponent forms, Inf and NaN are rejected.
var decimalLiteral = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

// NewNumberValue validates lit as a decimal literal and returns it as a
// NumberValue. The literal is stored as entered.
func NewNumberValue(lit string) (NumberValue, error) {
	if !decimalLiteral.MatchString(lit) {
		return "", fmt.Errorf("invalid number literal %q", lit)
	}
	return NumberValue(lit), nil
}

// NewDateValue validates lit as an ISO 8601 calendar date.
func NewDateValue(lit string) (DateValue, error) {
	if _, err := time.Parse("2006-01-02", lit); err != nil {
		return "", fmt.Errorf("invalid date literal %q: %w", lit, err)
	}
	return DateValue(lit), nil
}

// ParseValue constructs a Value of the given kind from its literal text.
// This is the single entry point callers use once a field's declared kind
// is known.
func ParseValue(kind Kind, lit string) (Value, error) {
	switch kind {
	case KindText:
		return TextValue(lit), nil
	case KindNumber:
		return NewNumberValue(lit)
	case KindDate:
		return NewDateValue(lit)
	}
	return nil, fmt.Errorf("unknown value kind %q", kind)
}
