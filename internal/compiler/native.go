package compiler

import (
	"fmt"
	"strconv"

	"github.com/roach88/eventc/internal/emit"
	"github.com/roach88/eventc/internal/ir"
	"github.com/roach88/eventc/internal/schema"
)

// ABI selects how a native call receives its arguments.
type ABI string

const (
	// ABIStack pushes arguments in reverse, calls, then pops them.
	ABIStack ABI = "stack"
	// ABIRegisters writes arguments into .ARG0, .ARG1, ... before the call.
	ABIRegisters ABI = "registers"
)

// ParamKind says how a field value becomes a native argument.
type ParamKind string

const (
	// ParamValue evaluates a value field into a scratch local.
	ParamValue ParamKind = "value"
	// ParamVariable passes a variable's address.
	ParamVariable ParamKind = "variable"
	// ParamVariableValue passes a variable's current value.
	ParamVariableValue ParamKind = "variable_value"
	// ParamActor passes an actor's runtime index.
	ParamActor ParamKind = "actor"
	// ParamCheckbox passes 0 or 1.
	ParamCheckbox ParamKind = "checkbox"
	// ParamConst passes Param.Const; it has no field.
	ParamConst ParamKind = "const"
	// ParamUnion passes the active member of a union field.
	ParamUnion ParamKind = "union"
)

// paramFieldTypes is the field type each param kind reads.
var paramFieldTypes = map[ParamKind]schema.FieldType{
	ParamValue:         schema.TypeValue,
	ParamVariable:      schema.TypeVariable,
	ParamVariableValue: schema.TypeVariable,
	ParamActor:         schema.TypeActor,
	ParamCheckbox:      schema.TypeCheckbox,
	ParamUnion:         schema.TypeUnion,
}

// Param is one native argument, in call order.
type Param struct {
	Field string
	Kind  ParamKind
	Const int64
}

// NativeCall is the declarative form of the common event shape: evaluate the
// arguments, call one native and optionally copy its result into a variable.
type NativeCall struct {
	Name   string
	ABI    ABI
	Params []Param
	// Result names a variable field that receives .ARG0 after the call.
	Result string
	// Comment is emitted before the call when set.
	Comment string
}

func (n *NativeCall) abi() ABI {
	if n.ABI == "" {
		return ABIStack
	}
	return n.ABI
}

// Compile lowers the call in fixed phases: declare scratch locals, assign
// them, resolve aliases, comment, pass arguments, call, pop and copy the
// result.
func (n *NativeCall) Compile(c *Context) error {
	h := c.Helpers
	in := c.Input

	locals := make([]string, len(n.Params))
	next := 0
	if n.abi() == ABIStack {
		for i, p := range n.Params {
			if p.Kind == ParamValue {
				locals[i] = h.DeclareLocal("tmp"+strconv.Itoa(next), 1, true)
				next++
			}
		}
		for i, p := range n.Params {
			if p.Kind == ParamValue {
				if err := h.SetToScriptValue(locals[i], in.ScriptValue(p.Field)); err != nil {
					return fmt.Errorf("param %q: %w", p.Field, err)
				}
			}
		}
	}

	aliases := make([]string, len(n.Params))
	for i, p := range n.Params {
		if p.Kind != ParamVariable {
			continue
		}
		alias, err := h.VariableAlias(in.String(p.Field))
		if err != nil {
			return fmt.Errorf("param %q: %w", p.Field, err)
		}
		aliases[i] = alias
	}
	var result string
	if n.Result != "" {
		alias, err := h.VariableAlias(in.String(n.Result))
		if err != nil {
			return fmt.Errorf("result %q: %w", n.Result, err)
		}
		result = alias
	}

	if n.Comment != "" {
		h.Comment(n.Comment)
	}

	switch n.abi() {
	case ABIStack:
		for i := len(n.Params) - 1; i >= 0; i-- {
			if err := n.push(h, in, n.Params[i], locals[i], aliases[i]); err != nil {
				return err
			}
		}
		h.CallNative(n.Name)
		h.Pop(len(n.Params))
	case ABIRegisters:
		for i, p := range n.Params {
			if err := n.load(h, in, p, ir.Arg(i), aliases[i]); err != nil {
				return err
			}
		}
		h.CallNative(n.Name)
	default:
		return fmt.Errorf("native %s: unknown ABI %q", n.Name, n.ABI)
	}

	if result != "" {
		h.SetVariable(result, ir.RegResult)
	}
	return nil
}

func (n *NativeCall) push(h emit.Helpers, in schema.Input, p Param, local, alias string) error {
	switch p.Kind {
	case ParamValue:
		h.Push(local)
	case ParamVariable:
		h.PushConst(ir.Sym(alias))
	case ParamVariableValue:
		return h.PushVariable(in.String(p.Field))
	case ParamActor:
		return h.ActorPushByID(in.String(p.Field))
	case ParamCheckbox:
		h.PushConst(ir.IntOperand(in.Int(p.Field)))
	case ParamConst:
		h.PushConst(ir.IntOperand(p.Const))
	case ParamUnion:
		u := in.Union(p.Field)
		switch u.Type {
		case schema.UnionNumber:
			h.PushConst(ir.IntOperand(u.Number))
		case schema.UnionVariable:
			return h.PushVariable(u.Variable)
		case schema.UnionActor:
			return h.ActorPushByID(u.Actor)
		default:
			return fmt.Errorf("param %q: union has no active member", p.Field)
		}
	default:
		return fmt.Errorf("param %q: unknown kind %q", p.Field, p.Kind)
	}
	return nil
}

// load writes one argument register. Variable unions copy the variable's
// value, never its address.
func (n *NativeCall) load(h emit.Helpers, in schema.Input, p Param, reg, alias string) error {
	switch p.Kind {
	case ParamValue:
		return h.SetToScriptValue(reg, in.ScriptValue(p.Field))
	case ParamVariable:
		h.SetConst(reg, ir.Sym(alias))
	case ParamVariableValue:
		src, err := h.VariableAlias(in.String(p.Field))
		if err != nil {
			return err
		}
		h.SetVariable(reg, src)
	case ParamCheckbox:
		h.SetConst(reg, ir.IntOperand(in.Int(p.Field)))
	case ParamConst:
		h.SetConst(reg, ir.IntOperand(p.Const))
	case ParamUnion:
		u := in.Union(p.Field)
		switch u.Type {
		case schema.UnionNumber:
			h.SetConst(reg, ir.IntOperand(u.Number))
		case schema.UnionVariable:
			src, err := h.VariableAlias(u.Variable)
			if err != nil {
				return err
			}
			h.SetVariable(reg, src)
		default:
			return fmt.Errorf("param %q: %s members need the stack ABI", p.Field, u.Type)
		}
	default:
		return fmt.Errorf("param %q: %s arguments need the stack ABI", p.Field, p.Kind)
	}
	return nil
}

func (n *NativeCall) toValue() ir.Object {
	params := make(ir.Array, len(n.Params))
	for i, p := range n.Params {
		params[i] = ir.Object{
			"field": ir.String(p.Field),
			"kind":  ir.String(string(p.Kind)),
			"const": ir.Int(p.Const),
		}
	}
	return ir.Object{
		"name":    ir.String(n.Name),
		"abi":     ir.String(string(n.abi())),
		"params":  params,
		"result":  ir.String(n.Result),
		"comment": ir.String(n.Comment),
	}
}

// CallNative pushes operands in reverse, calls name and pops them again.
// Push and pop are paired by construction.
func CallNative(h emit.Helpers, name string, operands ...ir.Operand) {
	for i := len(operands) - 1; i >= 0; i-- {
		h.PushConst(operands[i])
	}
	h.CallNative(name)
	h.Pop(len(operands))
}

// LookupComparison maps a stored operator onto the comparison vocabulary.
func LookupComparison(op string) (ir.Comparison, error) {
	c, err := ir.ParseComparison(op)
	if err != nil {
		return "", fmt.Errorf("%w: %q", emit.ErrUnknownComparison, op)
	}
	return c, nil
}
