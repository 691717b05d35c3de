package queryir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// Value is a sealed interface for condition literals.
// Only String, Number, List and Null implement it.
type Value interface {
	value() // Sealed - only these types implement it
}

// String is a text literal.
type String string

func (String) value() {}

// Number is a numeric literal kept as its decimal text, so integers and
// decimals render exactly as written without float round-tripping.
type Number string

func (Number) value() {}

// List is a sequence literal, used with the IN operator.
type List []Value

func (List) value() {}

// Null is the NULL literal. JSON kinds without a literal form (booleans,
// objects, null) decode to Null.
type Null struct{}

func (Null) value() {}

// jsonNumber is the JSON number grammar (RFC 8259 §6).
var jsonNumber = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// Int creates a Number from an integer.
func Int(n int64) Number {
	return Number(strconv.FormatInt(n, 10))
}

// Float creates a Number from a float64 using the shortest exact representation.
func Float(f float64) Number {
	return Number(strconv.FormatFloat(f, 'g', -1, 64))
}

// Valid reports whether n is a well-formed decimal literal.
func (n Number) Valid() bool {
	return jsonNumber.MatchString(string(n))
}

// Strings builds a List of String values.
func Strings(values ...string) List {
	out := make(List, len(values))
	for i, v := range values {
		out[i] = String(v)
	}
	return out
}

// MarshalJSON implements json.Marshaler for Number.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid() {
		return nil, fmt.Errorf("invalid number literal %q", string(n))
	}
	return []byte(n), nil
}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// UnmarshalJSON implements json.Unmarshaler for List.
func (l *List) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*l = make(List, len(raw))
	for i, elem := range raw {
		v, err := DecodeValue(elem)
		if err != nil {
			return fmt.Errorf("list index %d: %w", i, err)
		}
		(*l)[i] = v
	}
	return nil
}

// DecodeValue decodes a JSON literal into a Value. An empty input (a missing
// "value" key) decodes to Null.
func DecodeValue(data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Null{}, nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return String(s), nil

	case '[':
		var l List
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, err
		}
		return l, nil

	case 't', 'f', 'n', '{':
		if !json.Valid(data) {
			return nil, fmt.Errorf("invalid JSON literal %q", data)
		}
		return Null{}, nil

	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		return Number(n.String()), nil
	}
}
