package schema

import (
	"slices"

	"github.com/roach88/eventc/internal/ir"
)

// Condition is a visibility predicate over one sibling field value.
// Conditions are for editors only; compilation never consults them.
type Condition struct {
	Key string
	Eq  any
	Ne  any
	In  []any
	// Set requires the sibling to be present (true) or absent (false).
	Set *bool
}

// Holds reports whether the condition is satisfied by values.
func (c Condition) Holds(values ir.Object) bool {
	v, present := values[c.Key]
	if c.Set != nil && *c.Set != present {
		return false
	}
	if c.Eq != nil && !sameValue(v, c.Eq) {
		return false
	}
	if c.Ne != nil && sameValue(v, c.Ne) {
		return false
	}
	if len(c.In) > 0 && !slices.ContainsFunc(c.In, func(want any) bool { return sameValue(v, want) }) {
		return false
	}
	return true
}

// Visible reports whether a field with the given conditions is shown.
func Visible(conditions []Condition, values ir.Object) bool {
	for _, c := range conditions {
		if !c.Holds(values) {
			return false
		}
	}
	return true
}

func sameValue(stored ir.Value, want any) bool {
	wantValue, err := ir.FromAny(want)
	if err != nil {
		return false
	}
	if stored == nil {
		stored = ir.Null{}
	}
	// Absent booleans read as false, which is how editors treat unset flags.
	if b, ok := wantValue.(ir.Bool); ok {
		if _, isNull := stored.(ir.Null); isNull {
			return !bool(b)
		}
	}
	return ir.Describe(stored) == ir.Describe(wantValue)
}
