package schema

import (
	"slices"
	"strconv"

	"github.com/roach88/eventc/internal/ir"
)

// Union is a resolved union field. Only the member named by Type is
// meaningful; the others keep their zero value.
type Union struct {
	Type     string
	Number   int64
	Variable string
	Actor    string
}

// IsNumber reports whether the active member is a literal number.
func (u Union) IsNumber() bool {
	return u.Type == UnionNumber
}

// ScriptValue converts the active member into a script value. Actor unions
// have no script value form and yield a zero literal.
func (u Union) ScriptValue() ScriptValue {
	if u.Type == UnionVariable {
		return Variable(u.Variable)
	}
	return Number(u.Number)
}

func (u Union) String() string {
	switch u.Type {
	case UnionVariable:
		return "$" + u.Variable
	case UnionActor:
		return u.Actor
	}
	return strconv.FormatInt(u.Number, 10)
}

func resolveUnion(f FieldSpec, stored ir.Value, present bool) (Union, error) {
	typ := f.DefaultType
	var value ir.Value
	hasValue := false
	if present {
		switch v := stored.(type) {
		case ir.Int:
			typ, value, hasValue = UnionNumber, v, true
		case ir.String:
			typ, value, hasValue = bareStringMember(f), v, true
		case ir.Object:
			t, ok := v["type"].(ir.String)
			if !ok {
				return Union{}, mismatch(f, ir.Describe(v), "union value has no type discriminant")
			}
			typ = string(t)
			value, hasValue = v["value"]
		case ir.Null:
		default:
			return Union{}, mismatch(f, ir.Describe(v), "unsupported union value")
		}
	}
	if !slices.Contains(f.Types, typ) {
		return Union{}, mismatch(f, typ, "union type is not one of %v", f.Types)
	}
	if !hasValue {
		var err error
		if value, err = unionDefault(f, typ); err != nil {
			return Union{}, err
		}
	}

	u := Union{Type: typ}
	switch typ {
	case UnionNumber:
		n, ok := value.(ir.Int)
		if !ok {
			return Union{}, mismatch(f, ir.Describe(value), "number member must be an integer")
		}
		u.Number = f.Clamp(int64(n))
	case UnionVariable:
		h, err := handle(f, value)
		if err != nil {
			return Union{}, err
		}
		u.Variable = h
	case UnionActor:
		h, err := handle(f, value)
		if err != nil {
			return Union{}, err
		}
		u.Actor = h
	default:
		return Union{}, mismatch(f, typ, "unsupported union member type")
	}
	return u, nil
}

// bareStringMember decides which member a plain stored string belongs to.
func bareStringMember(f FieldSpec) string {
	if slices.Contains(f.Types, UnionVariable) {
		return UnionVariable
	}
	return UnionActor
}

// unionDefault looks up the member default in a per-type default map, falling
// back to the member's zero handle.
func unionDefault(f FieldSpec, typ string) (ir.Value, error) {
	if f.Default != nil {
		d, err := ir.FromAny(f.Default)
		if err != nil {
			return nil, mismatch(f, "", "invalid default: %v", err)
		}
		if obj, ok := d.(ir.Object); ok {
			if v, ok := obj[typ]; ok {
				return v, nil
			}
		} else if f.DefaultType == typ {
			return d, nil
		}
	}
	switch typ {
	case UnionVariable:
		return ir.String(LastVariable), nil
	case UnionActor:
		return ir.String(SelfActor), nil
	}
	return ir.Int(0), nil
}

func handle(f FieldSpec, v ir.Value) (string, error) {
	switch h := v.(type) {
	case ir.String:
		if h == "" {
			return "", mismatch(f, "", "empty handle")
		}
		return string(h), nil
	case ir.Int:
		return strconv.FormatInt(int64(h), 10), nil
	}
	return "", mismatch(f, ir.Describe(v), "expected a handle")
}
