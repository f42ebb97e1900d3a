package codec

import "fmt"

// Strategy names how a domain type crosses the wire.
type Strategy int

const (
	RawScalar Strategy = iota + 1
	JSONBoxed
	ArrayLiteral
	OptionalWrapped
	TemporalStamp
)

func (s Strategy) String() string {
	switch s {
	case RawScalar:
		return "RawScalar"
	case JSONBoxed:
		return "JsonBoxed"
	case ArrayLiteral:
		return "ArrayLiteral"
	case OptionalWrapped:
		return "OptionalWrapped"
	case TemporalStamp:
		return "TemporalStamp"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Value is an encoded bind parameter: the driver argument plus the
// server-side type it must be cast to.
type Value struct {
	WireType string
	Null     bool
	arg      any
}

// Arg is what gets handed to the driver; nil for a wire null.
func (v Value) Arg() any {
	if v.Null {
		return nil
	}
	return v.arg
}

// Placeholder is a squirrel placeholder carrying the cast, e.g. "?::jsonb".
func (v Value) Placeholder() string {
	if v.WireType == "" {
		return "?"
	}
	return "?::" + v.WireType
}

// Text is the literal form of the value, used for array elements.
func (v Value) Text() (string, bool) {
	if v.Null {
		return "", false
	}
	switch a := v.arg.(type) {
	case string:
		return a, true
	case fmt.Stringer:
		return a.String(), true
	default:
		return fmt.Sprint(a), true
	}
}
