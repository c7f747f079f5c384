package docstore

import (
	"fmt"
	"slices"
)

// Update is a partial document update, applied atomically by the store.
type Update struct {
	// Set replaces the named attributes.
	Set map[string]any

	// Increment adds a delta to numeric attributes (missing counts as zero).
	Increment map[string]float64

	// Toggle adds the member to a string-set attribute, or removes it when
	// already present.
	Toggle map[string]string
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return len(u.Set) == 0 && len(u.Increment) == 0 && len(u.Toggle) == 0
}

// Validate checks attribute names. The primary key can never be updated.
func (u Update) Validate() error {
	if u.Empty() {
		return fmt.Errorf("%w: empty update", ErrInvalidInput)
	}
	check := func(attr string) error {
		if !ValidAttr(attr) || attr == AttrID {
			return fmt.Errorf("%w: attribute %q", ErrInvalidInput, attr)
		}
		return nil
	}
	for k := range u.Set {
		if err := check(k); err != nil {
			return err
		}
	}
	for k := range u.Increment {
		if err := check(k); err != nil {
			return err
		}
	}
	for k := range u.Toggle {
		if err := check(k); err != nil {
			return err
		}
	}
	return nil
}

// Apply returns a copy of doc with the update applied. Attributes not named
// by the update are carried over untouched.
func (u Update) Apply(doc Document) (Document, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	out := doc.Clone()

	for k, v := range u.Set {
		enc, err := Encode(map[string]any{"v": v})
		if err != nil {
			return nil, err
		}
		out[k] = enc["v"]
	}

	for k, delta := range u.Increment {
		cur := 0.0
		if existing, ok := out[k]; ok && existing != nil {
			n, ok := toFloat(existing)
			if !ok {
				return nil, fmt.Errorf("%w: attribute %q is not numeric", ErrInvalidInput, k)
			}
			cur = n
		}
		out[k] = cur + delta
	}

	for k, member := range u.Toggle {
		set, err := stringSet(out[k])
		if err != nil {
			return nil, fmt.Errorf("%w: attribute %q: %v", ErrInvalidInput, k, err)
		}
		if i := slices.Index(set, member); i >= 0 {
			set = slices.Delete(set, i, i+1)
		} else {
			set = append(set, member)
		}
		vals := make([]any, len(set))
		for i, s := range set {
			vals[i] = s
		}
		out[k] = vals
	}

	return out, nil
}

func stringSet(v any) ([]string, error) {
	switch vals := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return slices.Clone(vals), nil
	case []any:
		out := make([]string, 0, len(vals))
		for _, e := range vals {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("set member %v is not a string", e)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("not a set")
}
