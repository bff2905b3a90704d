package schema

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/roach88/eventc/internal/ir"
)

// ScriptValueType tags a ScriptValue node.
type ScriptValueType string

const (
	SVNumber   ScriptValueType = "number"
	SVVariable ScriptValueType = "variable"
	SVAdd      ScriptValueType = "add"
	SVSub      ScriptValueType = "sub"
	SVMul      ScriptValueType = "mul"
	SVDiv      ScriptValueType = "div"
	SVMod      ScriptValueType = "mod"
	SVMin      ScriptValueType = "min"
	SVMax      ScriptValueType = "max"
)

// Operators lists the binary expression node types.
var Operators = []ScriptValueType{SVAdd, SVSub, SVMul, SVDiv, SVMod, SVMin, SVMax}

// ScriptValue is a literal, a variable reference, or a binary expression
// over two script values.
type ScriptValue struct {
	Type     ScriptValueType
	Value    int64
	Variable string
	A, B     *ScriptValue
}

// Number returns a literal script value.
func Number(n int64) ScriptValue {
	return ScriptValue{Type: SVNumber, Value: n}
}

// Variable returns a script value referencing a variable handle.
func Variable(handle string) ScriptValue {
	return ScriptValue{Type: SVVariable, Variable: handle}
}

// Expr returns a binary expression node.
func Expr(op ScriptValueType, a, b ScriptValue) ScriptValue {
	return ScriptValue{Type: op, A: &a, B: &b}
}

// IsConst reports whether the value is a plain literal.
func (sv ScriptValue) IsConst() bool {
	return sv.Type == SVNumber
}

// IsOperator reports whether the value is a binary expression.
func (sv ScriptValue) IsOperator() bool {
	return slices.Contains(Operators, sv.Type)
}

// String renders the value for labels, e.g. "($V1 + 2)".
func (sv ScriptValue) String() string {
	switch sv.Type {
	case SVNumber:
		return strconv.FormatInt(sv.Value, 10)
	case SVVariable:
		return "$" + sv.Variable
	}
	if sv.A == nil || sv.B == nil {
		return string(sv.Type)
	}
	switch sv.Type {
	case SVMin, SVMax:
		return fmt.Sprintf("%s(%s, %s)", sv.Type, sv.A, sv.B)
	}
	return fmt.Sprintf("(%s %s %s)", sv.A, infix[sv.Type], sv.B)
}

var infix = map[ScriptValueType]string{
	SVAdd: "+",
	SVSub: "-",
	SVMul: "*",
	SVDiv: "/",
	SVMod: "%",
}

// ToValue converts the script value back to its stored form.
func (sv ScriptValue) ToValue() ir.Value {
	switch sv.Type {
	case SVNumber:
		return ir.Object{"type": ir.String(SVNumber), "value": ir.Int(sv.Value)}
	case SVVariable:
		return ir.Object{"type": ir.String(SVVariable), "value": ir.String(sv.Variable)}
	}
	obj := ir.Object{"type": ir.String(sv.Type)}
	if sv.A != nil {
		obj["valueA"] = sv.A.ToValue()
	}
	if sv.B != nil {
		obj["valueB"] = sv.B.ToValue()
	}
	return obj
}

// Variables returns every variable handle the value references, left to right.
func (sv ScriptValue) Variables() []string {
	switch {
	case sv.Type == SVVariable:
		return []string{sv.Variable}
	case sv.IsOperator():
		return append(sv.A.Variables(), sv.B.Variables()...)
	}
	return nil
}

// ParseScriptValue decodes a stored script value. Accepted forms are an
// integer literal, a bare variable handle string, {type, value} for numbers
// and variables, and {type, valueA, valueB} for expressions.
func ParseScriptValue(v ir.Value) (ScriptValue, error) {
	switch val := v.(type) {
	case ir.Int:
		return Number(int64(val)), nil
	case ir.String:
		if val == "" {
			return ScriptValue{}, fmt.Errorf("empty variable handle")
		}
		return Variable(string(val)), nil
	case ir.Object:
		return parseScriptValueObject(val)
	}
	return ScriptValue{}, fmt.Errorf("unsupported script value %s", ir.Describe(v))
}

func parseScriptValueObject(obj ir.Object) (ScriptValue, error) {
	t, ok := obj["type"].(ir.String)
	if !ok {
		return ScriptValue{}, fmt.Errorf("script value has no type")
	}
	switch typ := ScriptValueType(t); {
	case typ == SVNumber:
		n, ok := obj["value"].(ir.Int)
		if !ok {
			if _, present := obj["value"]; present {
				return ScriptValue{}, fmt.Errorf("number value must be an integer, got %s", ir.Describe(obj["value"]))
			}
			return Number(0), nil
		}
		return Number(int64(n)), nil
	case typ == SVVariable:
		switch h := obj["value"].(type) {
		case ir.String:
			if h == "" {
				return ScriptValue{}, fmt.Errorf("empty variable handle")
			}
			return Variable(string(h)), nil
		case ir.Int:
			return Variable(strconv.FormatInt(int64(h), 10)), nil
		}
		return ScriptValue{}, fmt.Errorf("variable value must be a handle, got %s", ir.Describe(obj["value"]))
	case slices.Contains(Operators, typ):
		a, err := operand(obj, "valueA")
		if err != nil {
			return ScriptValue{}, fmt.Errorf("%s: %w", typ, err)
		}
		b, err := operand(obj, "valueB")
		if err != nil {
			return ScriptValue{}, fmt.Errorf("%s: %w", typ, err)
		}
		return Expr(typ, a, b), nil
	default:
		return ScriptValue{}, fmt.Errorf("unknown script value type %q", typ)
	}
}

func operand(obj ir.Object, key string) (ScriptValue, error) {
	v, ok := obj[key]
	if !ok {
		return Number(0), nil
	}
	sv, err := ParseScriptValue(v)
	if err != nil {
		return ScriptValue{}, fmt.Errorf("%s: %w", key, err)
	}
	return sv, nil
}
