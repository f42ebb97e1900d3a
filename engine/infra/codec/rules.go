package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

var errNullValue = errors.New("unexpected NULL")

// RegisterScalar passes T through to the driver unchanged.
func RegisterScalar[T any](r *Registry, wireType string) {
	t := reflect.TypeFor[T]()
	r.add(&Rule{
		Type:     t,
		Strategy: RawScalar,
		WireType: wireType,
		encode: func(v any) (Value, error) {
			return Value{WireType: wireType, arg: v}, nil
		},
		decode: func(src any) (any, error) {
			if src == nil {
				return nil, &DecodeError{Value: "NULL", Target: t.String(), Err: errNullValue}
			}
			if v, ok := src.(T); ok {
				return v, nil
			}
			sv := reflect.ValueOf(src)
			if sv.Type().ConvertibleTo(t) && sv.Kind() != reflect.String && t.Kind() != reflect.String {
				return sv.Convert(t).Interface(), nil
			}
			return nil, &DecodeError{Value: describe(src), Target: t.String(), Err: fmt.Errorf("got %T", src)}
		},
	})
}

// RegisterEnum binds T by its canonical string and rebuilds it with parse.
// The wire type is the server-side enumeration the value is cast to.
func RegisterEnum[T ~string](r *Registry, wireType string, parse func(string) (T, error)) {
	RegisterText(r, wireType, func(v T) string { return string(v) }, parse)
}

// RegisterText binds T through its textual form, for identifiers and other
// values the driver should see as a quoted literal.
func RegisterText[T any](r *Registry, wireType string, format func(T) string, parse func(string) (T, error)) {
	t := reflect.TypeFor[T]()
	r.add(&Rule{
		Type:     t,
		Strategy: RawScalar,
		WireType: wireType,
		encode: func(v any) (Value, error) {
			return Value{WireType: wireType, arg: format(v.(T))}, nil
		},
		decode: func(src any) (any, error) {
			s, err := textOf(src, t)
			if err != nil {
				return nil, err
			}
			v, err := parse(s)
			if err != nil {
				return nil, &DecodeError{Value: s, Target: t.String(), Err: err}
			}
			return v, nil
		},
	})
}

// RegisterJSON boxes T as a JSON document tagged with wireType (jsonb).
func RegisterJSON[T any](r *Registry, wireType string) {
	t := reflect.TypeFor[T]()
	r.add(&Rule{
		Type:     t,
		Strategy: JSONBoxed,
		WireType: wireType,
		encode: func(v any) (Value, error) {
			data, err := json.Marshal(v)
			if err != nil {
				return Value{}, &SerializationError{Type: t.String(), Err: err}
			}
			return Value{WireType: wireType, arg: string(data)}, nil
		},
		decode: func(src any) (any, error) {
			var data []byte
			switch s := src.(type) {
			case nil:
				return nil, &DecodeError{Value: "NULL", Target: t.String(), Err: errNullValue}
			case string:
				data = []byte(s)
			case []byte:
				data = s
			default:
				return nil, &DecodeError{Value: describe(src), Target: t.String(), Err: fmt.Errorf("got %T", src)}
			}
			var out T
			if err := json.Unmarshal(data, &out); err != nil {
				return nil, &DecodeError{Value: describe(data), Target: t.String(), Err: err}
			}
			return out, nil
		},
	})
}

// RegisterArray encodes a collection S of E as an array literal. Each element
// is encoded by E's rule, which must already be registered and must produce
// text. The wire type is E's wire type with "[]" appended.
func RegisterArray[S any, E any](r *Registry, toSlice func(S) []E, fromSlice func([]E) S) {
	t, et := reflect.TypeFor[S](), reflect.TypeFor[E]()
	elemRule, ok := r.Rule(et)
	if !ok {
		r.problem("array %s registered before its element %s", t, et)
		return
	}
	wireType := elemRule.WireType + "[]"
	r.add(&Rule{
		Type:     t,
		Strategy: ArrayLiteral,
		WireType: wireType,
		Elem:     et,
		encode: func(v any) (Value, error) {
			elems := toSlice(v.(S))
			parts := make([]string, len(elems))
			for i, e := range elems {
				ev, err := elemRule.encode(e)
				if err != nil {
					return Value{}, err
				}
				s, ok := ev.Text()
				if !ok {
					return Value{}, &SerializationError{Type: t.String(), Err: errNullValue}
				}
				parts[i] = s
			}
			lit, err := formatTextArray(parts)
			if err != nil {
				return Value{}, &SerializationError{Type: t.String(), Err: err}
			}
			return Value{WireType: wireType, arg: lit}, nil
		},
		decode: func(src any) (any, error) {
			var raw []string
			switch s := src.(type) {
			case nil:
				return nil, &DecodeError{Value: "NULL", Target: t.String(), Err: errNullValue}
			case []string:
				raw = s
			case string:
				parsed, err := parseTextArray([]byte(s))
				if err != nil {
					return nil, &DecodeError{Value: describe(s), Target: t.String(), Err: err}
				}
				raw = parsed
			case []byte:
				parsed, err := parseTextArray(s)
				if err != nil {
					return nil, &DecodeError{Value: describe(s), Target: t.String(), Err: err}
				}
				raw = parsed
			default:
				return nil, &DecodeError{Value: describe(src), Target: t.String(), Err: fmt.Errorf("got %T", src)}
			}
			elems := make([]E, len(raw))
			for i, s := range raw {
				v, err := elemRule.decode(s)
				if err != nil {
					return nil, err
				}
				elems[i] = v.(E)
			}
			return fromSlice(elems), nil
		},
	})
}

// formatTextArray renders elems as a text-format text[] literal. Elements
// holding separators, quotes, blanks or NULL are quoted by pgtype.
func formatTextArray(elems []string) (string, error) {
	if elems == nil {
		elems = []string{}
	}
	buf, err := pgtype.NewMap().Encode(pgtype.TextArrayOID, pgtype.TextFormatCode, elems, nil)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// parseTextArray reads a text-format array literal. NULL elements are
// rejected.
func parseTextArray(src []byte) ([]string, error) {
	if src == nil {
		return nil, errNullValue
	}
	var out []string
	if err := pgtype.NewMap().Scan(pgtype.TextArrayOID, pgtype.TextFormatCode, src, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// RegisterSlice is RegisterArray for a plain []E.
func RegisterSlice[E any](r *Registry) {
	RegisterArray[[]E, E](r,
		func(s []E) []E { return s },
		func(s []E) []E { return s },
	)
}

// RegisterOptional maps *T to T's rule, with nil as a wire null. T must be
// registered first.
func RegisterOptional[T any](r *Registry) {
	t, inner := reflect.TypeFor[*T](), reflect.TypeFor[T]()
	innerRule, ok := r.Rule(inner)
	if !ok {
		r.problem("optional %s registered before %s", t, inner)
		return
	}
	r.add(&Rule{
		Type:     t,
		Strategy: OptionalWrapped,
		WireType: innerRule.WireType,
		Elem:     inner,
		encode: func(v any) (Value, error) {
			p := v.(*T)
			if p == nil {
				return Value{WireType: innerRule.WireType, Null: true}, nil
			}
			return innerRule.encode(*p)
		},
		decode: func(src any) (any, error) {
			if isNull(src) {
				return (*T)(nil), nil
			}
			if rv := reflect.ValueOf(src); rv.Kind() == reflect.Pointer {
				src = rv.Elem().Interface()
			}
			v, err := innerRule.decode(src)
			if err != nil {
				return nil, err
			}
			out := v.(T)
			return &out, nil
		},
	})
}

// RegisterTime binds time.Time as an absolute instant. Values are normalized
// to UTC and truncated to the store's microsecond precision so that what is
// read back equals what was written.
func RegisterTime(r *Registry, wireType string) {
	t := reflect.TypeFor[time.Time]()
	r.add(&Rule{
		Type:     t,
		Strategy: TemporalStamp,
		WireType: wireType,
		encode: func(v any) (Value, error) {
			ts := v.(time.Time)
			if ts.IsZero() {
				return Value{}, &SerializationError{Type: t.String(), Err: errors.New("zero time")}
			}
			return Value{WireType: wireType, arg: NormalizeTime(ts)}, nil
		},
		decode: func(src any) (any, error) {
			switch s := src.(type) {
			case time.Time:
				return NormalizeTime(s), nil
			case string:
				for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999Z07:00", "2006-01-02 15:04:05.999999Z07"} {
					if ts, err := time.Parse(layout, s); err == nil {
						return NormalizeTime(ts), nil
					}
				}
				return nil, &DecodeError{Value: s, Target: t.String(), Err: errors.New("unrecognized timestamp")}
			case nil:
				return nil, &DecodeError{Value: "NULL", Target: t.String(), Err: errNullValue}
			default:
				return nil, &DecodeError{Value: describe(src), Target: t.String(), Err: fmt.Errorf("got %T", src)}
			}
		},
	})
}

// NormalizeTime is the instant as the store keeps it.
func NormalizeTime(ts time.Time) time.Time {
	return ts.UTC().Truncate(storePrecision)
}

func textOf(src any, target reflect.Type) (string, error) {
	switch s := src.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case nil:
		return "", &DecodeError{Value: "NULL", Target: target.String(), Err: errNullValue}
	default:
		return "", &DecodeError{Value: describe(src), Target: target.String(), Err: fmt.Errorf("got %T", src)}
	}
}

func isNull(src any) bool {
	if src == nil {
		return true
	}
	rv := reflect.ValueOf(src)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
