package codec

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// SerializationError reports a domain value that could not be turned into
// its wire form.
type SerializationError struct {
	Type string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("codec: serialize %s: %v", e.Type, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// DecodeError reports a wire value that does not map to the target type.
type DecodeError struct {
	Value  string
	Target string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("codec: decode %q into %s: %v", e.Value, e.Target, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RegistrationError is a programming error: a type without a rule, or a rule
// that refers to a type without one.
type RegistrationError struct {
	Problems []string
}

func (e *RegistrationError) Error() string {
	return "codec: registry incomplete: " + strings.Join(e.Problems, "; ")
}

func describe(v any) string {
	const maxLen = 120
	s := fmt.Sprintf("%v", v)
	if b, ok := v.([]byte); ok {
		s = string(b)
	}
	if len(s) <= maxLen {
		return s
	}
	cut := 0
	for cut < len(s) {
		_, size := utf8.DecodeRuneInString(s[cut:])
		if cut+size > maxLen {
			break
		}
		cut += size
	}
	return s[:cut] + "…"
}
