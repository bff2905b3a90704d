package events

import (
	"fmt"
	"strings"

	"github.com/roach88/eventc/internal/compiler"
	"github.com/roach88/eventc/internal/ir"
	"github.com/roach88/eventc/internal/schema"
)

func ifVariableCompare() *compiler.EventDefinition {
	fields := []schema.FieldSpec{
		{Key: "variable", Label: "Variable", Type: schema.TypeVariable, Default: schema.LastVariable},
		{Type: schema.TypeGroup, Fields: []schema.FieldSpec{
			{Key: "operator", Label: "Comparison", Type: schema.TypeOperator, Default: "=="},
			{Key: "value", Label: "Value", Type: schema.TypeValue, Default: 0,
				Min: schema.Int64(-32768), Max: schema.Int64(32767)},
		}},
	}
	fields = append(fields, schema.ElseFields("True", "False")...)

	return &compiler.EventDefinition{
		ID:     "EVENT_IF_VARIABLE_COMPARE",
		Name:   "If Variable Compare With Value",
		Groups: []string{GroupControlFlow},
		Fields: fields,
		AutoLabel: func(in schema.Input) string {
			return fmt.Sprintf("If $%s %s %s", in.Fetch("variable"), in.Fetch("operator"), in.Fetch("value"))
		},
		Compile: compileIfVariableCompare,
	}
}

func compileIfVariableCompare(c *compiler.Context) error {
	h := c.Helpers
	alias, err := h.VariableAlias(c.Input.String("variable"))
	if err != nil {
		return err
	}
	rhs, err := scriptValueOperand(c, "value")
	if err != nil {
		return err
	}
	return h.IfCompare(c.Input.Operator("operator"), ir.Sym(alias), rhs,
		c.Branch("true"), c.ElseBranch("false"))
}

// scriptValueOperand returns a constant operand for literal values, or
// evaluates the value into a scratch local named after key.
func scriptValueOperand(c *compiler.Context, key string) (ir.Operand, error) {
	sv := c.Input.ScriptValue(key)
	if sv.IsConst() {
		return ir.IntOperand(sv.Value), nil
	}
	local := c.Helpers.DeclareLocal(key, 1, true)
	if err := c.Helpers.SetToScriptValue(local, sv); err != nil {
		return ir.Operand{}, err
	}
	return ir.Sym(local), nil
}

func linkHost() *compiler.EventDefinition {
	return &compiler.EventDefinition{
		ID:        "EVENT_LINK_HOST",
		Name:      "Link Host",
		SubGroups: map[string]string{GroupMisc: GroupMultiplayer},
		Fields: []schema.FieldSpec{
			{Type: schema.TypeLabel, Label: "Host a link cable session as the master device."},
		},
		Compile: func(c *compiler.Context) error {
			return c.Helpers.Raw("VM_SIO_SET_MODE .SIO_MODE_MASTER")
		},
	}
}

// gbvmScript passes hand-written assembly through one validated statement
// per line. Blank lines are skipped.
func gbvmScript() *compiler.EventDefinition {
	return &compiler.EventDefinition{
		ID:     "EVENT_GBVM_SCRIPT",
		Name:   "GBVM Script",
		Groups: []string{GroupScript},
		Fields: []schema.FieldSpec{
			{Key: "script", Label: "Script", Type: schema.TypeTextarea},
		},
		Compile: func(c *compiler.Context) error {
			for i, line := range strings.Split(c.Input.String("script"), "\n") {
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if err := c.Helpers.Raw(line); err != nil {
					return fmt.Errorf("line %d: %w", i+1, err)
				}
			}
			return nil
		},
	}
}
