package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eventc/internal/ir"
)

func TestParseScriptValue(t *testing.T) {
	tests := []struct {
		name   string
		stored ir.Value
		want   ScriptValue
	}{
		{"bare int", ir.Int(3), Number(3)},
		{"bare handle", ir.String("V1"), Variable("V1")},
		{"number object", ir.Object{"type": ir.String("number"), "value": ir.Int(-2)}, Number(-2)},
		{"number without value", ir.Object{"type": ir.String("number")}, Number(0)},
		{"variable object", ir.Object{"type": ir.String("variable"), "value": ir.String("L0")}, Variable("L0")},
		{"numeric variable handle", ir.Object{"type": ir.String("variable"), "value": ir.Int(12)}, Variable("12")},
		{
			"nested expression",
			ir.Object{
				"type":   ir.String("max"),
				"valueA": ir.Int(1),
				"valueB": ir.Object{
					"type":   ir.String("mul"),
					"valueA": ir.String("V0"),
					"valueB": ir.Int(4),
				},
			},
			Expr(SVMax, Number(1), Expr(SVMul, Variable("V0"), Number(4))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScriptValue(tt.stored)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseScriptValueErrors(t *testing.T) {
	for _, stored := range []ir.Value{
		ir.Bool(true),
		ir.String(""),
		ir.Object{"value": ir.Int(1)},
		ir.Object{"type": ir.String("pow")},
		ir.Object{"type": ir.String("number"), "value": ir.String("x")},
		ir.Object{"type": ir.String("add"), "valueA": ir.Bool(false)},
	} {
		_, err := ParseScriptValue(stored)
		assert.Error(t, err, ir.Describe(stored))
	}
}

func TestScriptValueRoundTripThroughStoredForm(t *testing.T) {
	sv := Expr(SVSub, Variable("V4"), Expr(SVMin, Number(3), Variable("T0")))

	back, err := ParseScriptValue(sv.ToValue())
	require.NoError(t, err)
	assert.Equal(t, sv, back)
	assert.Equal(t, "($V4 - min(3, $T0))", sv.String())
	assert.Equal(t, []string{"V4", "T0"}, sv.Variables())
}
