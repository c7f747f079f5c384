package docstore

import (
	"fmt"
	"strings"
)

// Op is a comparison operator in a filter expression.
type Op string

const (
	OpEq  Op = "="
	OpGTE Op = ">="
	OpLTE Op = "<="
)

// Condition compares one attribute against a value.
type Condition struct {
	Attr  string
	Op    Op
	Value any
}

// Eq builds an equality condition.
func Eq(attr string, v any) Condition { return Condition{Attr: attr, Op: OpEq, Value: v} }

// GTE builds a greater-than-or-equal condition.
func GTE(attr string, v any) Condition { return Condition{Attr: attr, Op: OpGTE, Value: v} }

// LTE builds a less-than-or-equal condition.
func LTE(attr string, v any) Condition { return Condition{Attr: attr, Op: OpLTE, Value: v} }

// Filter is a conjunction of conditions.
type Filter []Condition

// Validate checks attribute names and operators.
func (f Filter) Validate() error {
	for _, c := range f {
		if !ValidAttr(c.Attr) {
			return fmt.Errorf("%w: attribute %q", ErrInvalidInput, c.Attr)
		}
		switch c.Op {
		case OpEq, OpGTE, OpLTE:
		default:
			return fmt.Errorf("%w: operator %q", ErrInvalidInput, c.Op)
		}
	}
	return nil
}

// Match reports whether doc satisfies every condition.
func (f Filter) Match(doc Document) bool {
	for _, c := range f {
		cmp, ok := compare(doc[c.Attr], c.Value)
		if !ok {
			return false
		}
		switch c.Op {
		case OpEq:
			if cmp != 0 {
				return false
			}
		case OpGTE:
			if cmp < 0 {
				return false
			}
		case OpLTE:
			if cmp > 0 {
				return false
			}
		}
	}
	return true
}

// String renders the filter as an expression, for logs.
func (f Filter) String() string {
	parts := make([]string, len(f))
	for i, c := range f {
		parts[i] = fmt.Sprintf("%s %s %v", c.Attr, c.Op, c.Value)
	}
	return strings.Join(parts, " AND ")
}

// compare orders a stored value against a filter value. Numbers compare
// numerically and strings lexically; mismatched kinds never match.
func compare(stored, want any) (int, bool) {
	if a, ok := toFloat(stored); ok {
		b, ok := toFloat(want)
		if !ok {
			return 0, false
		}
		switch {
		case a < b:
			return -1, true
		case a > b:
			return 1, true
		}
		return 0, true
	}
	a, ok := stored.(string)
	if !ok {
		return 0, false
	}
	b, ok := want.(string)
	if !ok {
		return 0, false
	}
	return strings.Compare(a, b), true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
