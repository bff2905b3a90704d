package schema

import (
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/eventc/internal/ir"
)

// Input holds an event's resolved field values, keyed by field key.
//
// After ResolveInput succeeds every keyed field has a value of the Go type its
// FieldType resolves to:
//
//	value                     ScriptValue
//	variable, actor           string (handle)
//	select, text, textarea    string
//	checkbox, collapsable     bool
//	union                     Union
//	operator                  ir.Comparison
//	events                    []ir.EventNode
//
// Accessors return the zero value for absent keys or mismatched types.
type Input struct {
	values map[string]any
	stored ir.Object
}

// NewInput builds an Input from already resolved values.
func NewInput(values map[string]any) Input {
	in := Input{values: make(map[string]any, len(values))}
	for k, v := range values {
		in.values[k] = v
	}
	return in
}

// ResolveInput resolves fields against the node's stored values. Absent
// values take the field default, numeric literals are clamped into the
// field's bounds and out-of-domain values fail with *MismatchError.
func ResolveInput(fields []FieldSpec, node ir.EventNode) (Input, error) {
	flat, err := Flatten(fields)
	if err != nil {
		return Input{}, err
	}
	in := Input{values: make(map[string]any, len(flat)), stored: node.Args}
	declared := make(map[string]bool, len(flat))
	for _, f := range flat {
		declared[f.Key] = true
		if f.Type == TypeEvents {
			in.values[f.Key] = node.Children[f.Key]
			continue
		}
		stored, present := node.Args[f.Key]
		v, err := resolveField(f, stored, present)
		if err != nil {
			return Input{}, err
		}
		in.values[f.Key] = v
	}
	// Undeclared flags such as __disableElse still reach compile funcs.
	for key, v := range node.Args {
		if declared[key] || !strings.HasPrefix(key, "__") {
			continue
		}
		if b, ok := v.(ir.Bool); ok {
			in.values[key] = bool(b)
		}
	}
	return in, nil
}

func resolveField(f FieldSpec, stored ir.Value, present bool) (any, error) {
	if _, isNull := stored.(ir.Null); isNull {
		present = false
	}
	if !present && f.Type != TypeUnion {
		if f.Default != nil {
			d, err := ir.FromAny(f.Default)
			if err != nil {
				return nil, mismatch(f, "", "invalid default: %v", err)
			}
			stored, present = d, true
		}
	}

	switch f.Type {
	case TypeValue:
		if !present {
			return Number(f.Clamp(0)), nil
		}
		sv, err := ParseScriptValue(stored)
		if err != nil {
			return nil, mismatch(f, ir.Describe(stored), "%v", err)
		}
		if sv.IsConst() {
			sv.Value = f.Clamp(sv.Value)
		}
		return sv, nil

	case TypeVariable:
		if !present {
			return LastVariable, nil
		}
		return handle(f, stored)

	case TypeActor:
		if !present {
			return SelfActor, nil
		}
		return handle(f, stored)

	case TypeSelect:
		if !present {
			if len(f.Options) == 0 {
				return "", nil
			}
			return f.Options[0], nil
		}
		s, err := scalarString(f, stored)
		if err != nil {
			return nil, err
		}
		if len(f.Options) > 0 && !slices.Contains(f.Options, s) {
			return nil, mismatch(f, s, "value is not one of %v", f.Options)
		}
		return s, nil

	case TypeCheckbox, TypeCollapsable:
		if !present {
			return false, nil
		}
		switch b := stored.(type) {
		case ir.Bool:
			return bool(b), nil
		case ir.Int:
			if b == 0 || b == 1 {
				return b == 1, nil
			}
		}
		return nil, mismatch(f, ir.Describe(stored), "expected a boolean")

	case TypeText, TypeTextarea:
		if !present {
			return "", nil
		}
		s, err := scalarString(f, stored)
		if err != nil {
			return nil, err
		}
		if f.MaxLength > 0 && len([]rune(s)) > f.MaxLength {
			return nil, mismatch(f, s, "text longer than %d characters", f.MaxLength)
		}
		return s, nil

	case TypeUnion:
		return resolveUnion(f, stored, present)

	case TypeOperator:
		if !present {
			return ir.EQ, nil
		}
		s, ok := stored.(ir.String)
		if !ok {
			return nil, mismatch(f, ir.Describe(stored), "expected an operator")
		}
		op, err := ir.ParseComparison(string(s))
		if err != nil {
			return nil, mismatch(f, string(s), "operator has no opcode mapping")
		}
		return op, nil

	case TypeEvents:
		return []ir.EventNode(nil), nil
	}
	return nil, mismatch(f, "", "unknown field type")
}

func scalarString(f FieldSpec, v ir.Value) (string, error) {
	switch s := v.(type) {
	case ir.String:
		return string(s), nil
	case ir.Int:
		return strconv.FormatInt(int64(s), 10), nil
	}
	return "", mismatch(f, ir.Describe(v), "expected a string")
}

// Has reports whether key has a resolved value.
func (in Input) Has(key string) bool {
	_, ok := in.values[key]
	return ok
}

// ScriptValue returns a value field.
func (in Input) ScriptValue(key string) ScriptValue {
	switch v := in.values[key].(type) {
	case ScriptValue:
		return v
	case Union:
		return v.ScriptValue()
	case int64:
		return Number(v)
	}
	return Number(0)
}

// Int returns a numeric view of key: the literal of a constant value field,
// the number member of a union, or 0/1 for booleans.
func (in Input) Int(key string) int64 {
	switch v := in.values[key].(type) {
	case ScriptValue:
		return v.Value
	case Union:
		return v.Number
	case int64:
		return v
	case int:
		return int64(v)
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

// Bool returns a checkbox, collapsable or flag value.
func (in Input) Bool(key string) bool {
	b, _ := in.values[key].(bool)
	return b
}

// String returns a handle, select or text value.
func (in Input) String(key string) string {
	s, _ := in.values[key].(string)
	return s
}

// Union returns a union field.
func (in Input) Union(key string) Union {
	u, _ := in.values[key].(Union)
	return u
}

// Operator returns an operator field.
func (in Input) Operator(key string) ir.Comparison {
	op, _ := in.values[key].(ir.Comparison)
	return op
}

// Events returns the child event list of an events field. Absent lists are
// empty, never an error.
func (in Input) Events(key string) []ir.EventNode {
	list, _ := in.values[key].([]ir.EventNode)
	return list
}

// Stored returns the raw stored arguments the input was resolved from.
func (in Input) Stored() ir.Object {
	return in.stored
}

// Fetch renders key as display text for auto labels.
func (in Input) Fetch(key string) string {
	switch v := in.values[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case ScriptValue:
		return v.String()
	case Union:
		return v.String()
	case ir.Comparison:
		return string(v)
	case []ir.EventNode:
		return strconv.Itoa(len(v))
	}
	return ""
}
