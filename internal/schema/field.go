// Package schema models the typed, defaulted inputs an event declares and
// resolves a saved event node's stored values against them.
//
// Resolution is where every field value is normalized before any emission
// happens: defaults fill absent values, numeric literals are clamped into
// their declared bounds, and values outside a field's domain fail with a
// MismatchError.
package schema

import (
	"fmt"
	"slices"
)

// FieldType is the closed set of field kinds an event may declare.
type FieldType string

const (
	TypeValue       FieldType = "value"
	TypeVariable    FieldType = "variable"
	TypeActor       FieldType = "actor"
	TypeSelect      FieldType = "select"
	TypeCheckbox    FieldType = "checkbox"
	TypeText        FieldType = "text"
	TypeTextarea    FieldType = "textarea"
	TypeUnion       FieldType = "union"
	TypeLabel       FieldType = "label"
	TypeEvents      FieldType = "events"
	TypeCollapsable FieldType = "collapsable"
	TypeGroup       FieldType = "group"
	TypeOperator    FieldType = "operator"
)

// FieldTypes lists every FieldType in declaration order.
var FieldTypes = []FieldType{
	TypeValue, TypeVariable, TypeActor, TypeSelect, TypeCheckbox, TypeText,
	TypeTextarea, TypeUnion, TypeLabel, TypeEvents, TypeCollapsable, TypeGroup,
	TypeOperator,
}

// ParseFieldType validates s against the closed set.
func ParseFieldType(s string) (FieldType, error) {
	if slices.Contains(FieldTypes, FieldType(s)) {
		return FieldType(s), nil
	}
	return "", fmt.Errorf("unknown field type %q", s)
}

// Union constituent type names.
const (
	UnionNumber   = "number"
	UnionVariable = "variable"
	UnionActor    = "actor"
)

// Well-known handles.
const (
	// LastVariable is the sentinel handle for "the last used variable".
	LastVariable = "LAST_VARIABLE"
	// SelfActor is the handle for the actor that owns the script.
	SelfActor = "$self$"
	// PlayerActor is the player's actor handle.
	PlayerActor = "player"
)

// Branch control flags stored on conditional events.
const (
	// FlagDisableElse forces the false branch to compile as an empty block.
	FlagDisableElse = "__disableElse"
	// FlagCollapseElse only affects how the editor displays the false branch.
	FlagCollapseElse = "__collapseElse"
)

// FieldSpec declares one event input.
type FieldSpec struct {
	// Key is unique within the event. Empty only for label and group fields.
	Key  string
	Type FieldType
	// Label is editor text; it has no effect on compilation.
	Label string
	// Default is used when the node stores no value for Key.
	Default any
	// Min and Max are inclusive bounds for numeric literals.
	Min *int64
	Max *int64
	// Options is the legal domain of a select field.
	Options []string
	// Types and DefaultType describe a union field.
	Types       []string
	DefaultType string
	// Conditions control editor visibility only.
	Conditions []Condition
	// Fields holds the children of a group field.
	Fields []FieldSpec
	// MaxLength bounds text and textarea fields when positive.
	MaxLength int
}

// Int64 returns a pointer to n, for Min and Max.
func Int64(n int64) *int64 {
	return &n
}

// Bounded reports whether the field declares any numeric bound.
func (f FieldSpec) Bounded() bool {
	return f.Min != nil || f.Max != nil
}

// Clamp forces n into the field's [Min, Max] range.
func (f FieldSpec) Clamp(n int64) int64 {
	if f.Min != nil && n < *f.Min {
		return *f.Min
	}
	if f.Max != nil && n > *f.Max {
		return *f.Max
	}
	return n
}

// Flatten expands group fields depth-first and drops label fields, returning
// the keyed fields in declaration order.
func Flatten(fields []FieldSpec) ([]FieldSpec, error) {
	var out []FieldSpec
	seen := make(map[string]bool)
	if err := flattenInto(&out, seen, fields); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenInto(out *[]FieldSpec, seen map[string]bool, fields []FieldSpec) error {
	for _, f := range fields {
		switch f.Type {
		case TypeLabel:
			continue
		case TypeGroup:
			if err := flattenInto(out, seen, f.Fields); err != nil {
				return err
			}
			continue
		}
		if f.Key == "" {
			return fmt.Errorf("field of type %q has no key", f.Type)
		}
		if seen[f.Key] {
			return fmt.Errorf("duplicate field key %q", f.Key)
		}
		seen[f.Key] = true
		*out = append(*out, f)
	}
	return nil
}

// Validate checks a field list for definition errors: unknown types,
// inverted bounds, selects without options, unions whose default type is not
// a constituent, and defaults outside their own domain.
func Validate(fields []FieldSpec) error {
	flat, err := Flatten(fields)
	if err != nil {
		return err
	}
	for _, f := range flat {
		if _, err := ParseFieldType(string(f.Type)); err != nil {
			return fmt.Errorf("field %q: %w", f.Key, err)
		}
		if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
			return fmt.Errorf("field %q: min %d is greater than max %d", f.Key, *f.Min, *f.Max)
		}
		switch f.Type {
		case TypeSelect:
			if len(f.Options) == 0 {
				return fmt.Errorf("field %q: select has no options", f.Key)
			}
		case TypeUnion:
			if len(f.Types) == 0 {
				return fmt.Errorf("field %q: union has no constituent types", f.Key)
			}
			if f.DefaultType == "" || !slices.Contains(f.Types, f.DefaultType) {
				return fmt.Errorf("field %q: union default type %q is not one of %v", f.Key, f.DefaultType, f.Types)
			}
		}
		if _, err := resolveField(f, nil, false); err != nil {
			return fmt.Errorf("field %q: default: %w", f.Key, err)
		}
	}
	return nil
}

// ElseFields returns the standard field quadruple of a conditional event:
// the true branch, the collapse toggle, the false branch and the disable flag.
func ElseFields(trueLabel, falseLabel string) []FieldSpec {
	return []FieldSpec{
		{Key: "true", Label: trueLabel, Type: TypeEvents},
		{
			Key:        FlagCollapseElse,
			Label:      "Else",
			Type:       TypeCollapsable,
			Default:    false,
			Conditions: []Condition{{Key: FlagDisableElse, Ne: true}},
		},
		{
			Key:   "false",
			Label: falseLabel,
			Type:  TypeEvents,
			Conditions: []Condition{
				{Key: FlagCollapseElse, Ne: true},
				{Key: FlagDisableElse, Ne: true},
			},
		},
		{Key: FlagDisableElse, Type: TypeCheckbox, Default: false},
	}
}
