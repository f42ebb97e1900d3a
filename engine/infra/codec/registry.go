package codec

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"sync"
	"time"
)

type (
	encodeFunc func(v any) (Value, error)
	decodeFunc func(src any) (any, error)
)

// Rule pairs a domain type with its wire strategy.
type Rule struct {
	Type     reflect.Type
	Strategy Strategy
	WireType string
	// Elem is the element type of ArrayLiteral rules and the inner type of
	// OptionalWrapped rules.
	Elem   reflect.Type
	encode encodeFunc
	decode decodeFunc
}

// Registry holds one rule per domain type. It is safe for concurrent use;
// rules are expected to be registered during startup and then only read.
type Registry struct {
	mu       sync.RWMutex
	rules    map[reflect.Type]*Rule
	problems []string
}

// NewRegistry returns a registry preloaded with rules for string, bool,
// int, int64, float64, time.Time and []string.
func NewRegistry() *Registry {
	r := &Registry{rules: make(map[reflect.Type]*Rule)}
	RegisterScalar[string](r, "text")
	RegisterScalar[bool](r, "boolean")
	RegisterScalar[int](r, "integer")
	RegisterScalar[int64](r, "bigint")
	RegisterScalar[float64](r, "double precision")
	RegisterTime(r, "timestamptz")
	RegisterSlice[string](r)
	return r
}

func (r *Registry) add(rule *Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.rules[rule.Type]; dup {
		r.problems = append(r.problems, fmt.Sprintf("duplicate rule for %s", rule.Type))
		return
	}
	r.rules[rule.Type] = rule
}

func (r *Registry) problem(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.problems = append(r.problems, fmt.Sprintf(format, args...))
}

// Rule returns the rule registered for t.
func (r *Registry) Rule(t reflect.Type) (*Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[t]
	return rule, ok
}

func (r *Registry) mustRule(t reflect.Type) (*Rule, error) {
	rule, ok := r.Rule(t)
	if !ok {
		return nil, &RegistrationError{Problems: []string{fmt.Sprintf("no rule for %s", t)}}
	}
	return rule, nil
}

// Encode converts a domain value into a bind value using the rule for its
// dynamic type.
func (r *Registry) Encode(v any) (Value, error) {
	if v == nil {
		return Value{}, errors.New("codec: cannot encode untyped nil")
	}
	rule, err := r.mustRule(reflect.TypeOf(v))
	if err != nil {
		return Value{}, err
	}
	return rule.encode(v)
}

// Decode converts a scanned column into a value of target.
func (r *Registry) Decode(src any, target reflect.Type) (any, error) {
	rule, err := r.mustRule(target)
	if err != nil {
		return nil, err
	}
	return rule.decode(src)
}

// Decode is the typed form of Registry.Decode.
func Decode[T any](r *Registry, src any) (T, error) {
	var zero T
	out, err := r.Decode(src, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}

// Verify checks that every listed type, and every type its rule refers to,
// has a rule, and that no registration went wrong. Call it at startup with
// every type a mapper binds or scans.
func (r *Registry) Verify(types ...reflect.Type) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	problems := slices.Clone(r.problems)
	seen := make(map[reflect.Type]bool)
	var walk func(t reflect.Type, from string)
	walk = func(t reflect.Type, from string) {
		if seen[t] {
			return
		}
		seen[t] = true
		rule, ok := r.rules[t]
		if !ok {
			problems = append(problems, "no rule for "+t.String()+from)
			return
		}
		if rule.Elem != nil {
			walk(rule.Elem, fmt.Sprintf(" (element of %s)", t))
		}
	}
	for _, t := range types {
		walk(t, "")
	}
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return &RegistrationError{Problems: problems}
}

// MustVerify panics when Verify fails.
func (r *Registry) MustVerify(types ...reflect.Type) {
	if err := r.Verify(types...); err != nil {
		panic(err)
	}
}

// Types lists the registered domain types.
func (r *Registry) Types() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]reflect.Type, 0, len(r.rules))
	for t := range r.rules {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// temporal precision of the store.
const storePrecision = time.Microsecond
