package compiler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/roach88/eventc/internal/emit"
	"github.com/roach88/eventc/internal/ir"
	"github.com/roach88/eventc/internal/resolve"
	mockresolve "github.com/roach88/eventc/internal/resolve/mock"
	"github.com/roach88/eventc/internal/schema"
	"github.com/roach88/eventc/internal/testutil"
)

func getBrushTileDef() *EventDefinition {
	return &EventDefinition{
		ID:   "EVENT_GET_BRUSH_TILE",
		Name: "Get Brush Tile",
		Fields: []schema.FieldSpec{
			{Key: "x", Type: schema.TypeValue, Min: schema.Int64(0), Max: schema.Int64(255)},
			{Key: "y", Type: schema.TypeValue, Min: schema.Int64(0), Max: schema.Int64(255)},
			{Key: "output", Type: schema.TypeVariable},
		},
		Native: &NativeCall{
			Name:    "vm_get_brush_tile_pos",
			Comment: "Get Brush Tile",
			Params: []Param{
				{Field: "x", Kind: ParamValue},
				{Field: "y", Kind: ParamValue},
				{Field: "output", Kind: ParamVariable},
			},
		},
	}
}

// ifCompareDef is a minimal conditional event used across tests.
func ifCompareDef() *EventDefinition {
	fields := []schema.FieldSpec{
		{Key: "variable", Type: schema.TypeVariable},
		{Key: "operator", Type: schema.TypeOperator, Default: "=="},
		{Key: "value", Type: schema.TypeValue, Min: schema.Int64(0), Max: schema.Int64(255)},
	}
	fields = append(fields, schema.ElseFields("True", "False")...)
	return &EventDefinition{
		ID:     "EVENT_IF_VARIABLE_COMPARE",
		Fields: fields,
		Compile: func(c *Context) error {
			alias, err := c.Helpers.VariableAlias(c.Input.String("variable"))
			if err != nil {
				return err
			}
			return c.Helpers.IfCompare(c.Input.Operator("operator"),
				ir.Sym(alias), ir.IntOperand(c.Input.Int("value")),
				c.Branch("true"), c.ElseBranch("false"))
		},
	}
}

func markerDef(id, native string) *EventDefinition {
	return &EventDefinition{
		ID:      id,
		Compile: func(c *Context) error { c.Helpers.CallNative(native); return nil },
	}
}

func newTestCompiler(t *testing.T, defs ...*EventDefinition) *Compiler {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, reg.Register(defs...))
	return New(reg)
}

func TestCompileNativeCallScenario(t *testing.T) {
	c := newTestCompiler(t, getBrushTileDef())
	rec := testutil.NewRecorder(testutil.StaticResolver{Aliases: map[string]string{"V1": "A"}})

	err := c.CompileEvents(context.Background(), []ir.EventNode{{
		Command: "EVENT_GET_BRUSH_TILE",
		Args:    ir.Object{"x": ir.Int(3), "y": ir.Int(4), "output": ir.String("V1")},
	}}, rec)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"declare-local tmp0",
		"declare-local tmp1",
		"set tmp0=3",
		"set tmp1=4",
		"resolve-alias V1->A",
		"comment Get Brush Tile",
		"push-const A",
		"push tmp1",
		"push tmp0",
		"call-native vm_get_brush_tile_pos",
		"pop 3",
	}, rec.Lines())
	assert.Equal(t, 0, rec.Depth())
	assert.Empty(t, rec.Violations())
}

func TestCompileClampsNumericLiterals(t *testing.T) {
	c := newTestCompiler(t, getBrushTileDef())
	rec := testutil.NewRecorder(nil)

	err := c.CompileEvents(context.Background(), []ir.EventNode{{
		Command: "EVENT_GET_BRUSH_TILE",
		Args:    ir.Object{"x": ir.Int(300), "y": ir.Int(-5), "output": ir.String("V1")},
	}}, rec)
	require.NoError(t, err)

	lines := rec.Lines()
	assert.Contains(t, lines, "set tmp0=255")
	assert.Contains(t, lines, "set tmp1=0")
}

func TestCompileOperatorMapping(t *testing.T) {
	tests := []struct {
		operator string
		suffix   string
	}{
		{"==", ".EQ"},
		{"!=", ".NE"},
		{"<", ".LT"},
		{">", ".GT"},
		{"<=", ".LTE"},
		{">=", ".GTE"},
	}

	for _, tt := range tests {
		t.Run(tt.operator, func(t *testing.T) {
			c := newTestCompiler(t, ifCompareDef())
			rec := testutil.NewRecorder(nil)

			err := c.CompileEvents(context.Background(), []ir.EventNode{{
				Command: "EVENT_IF_VARIABLE_COMPARE",
				Args: ir.Object{
					"variable": ir.String("V0"),
					"operator": ir.String(tt.operator),
					"value":    ir.Int(7),
				},
			}}, rec)
			require.NoError(t, err)
			assert.Contains(t, rec.Lines(), "if "+tt.suffix+" V0 7")
		})
	}
}

func TestCompileUnknownOperatorIsSchemaMismatch(t *testing.T) {
	c := newTestCompiler(t, ifCompareDef())
	rec := testutil.NewRecorder(nil)

	err := c.CompileEvents(context.Background(), []ir.EventNode{{
		Command: "EVENT_IF_VARIABLE_COMPARE",
		Args:    ir.Object{"variable": ir.String("V0"), "operator": ir.String("between")},
	}}, rec)

	require.Error(t, err)
	assert.True(t, IsSchemaMismatch(err))
	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "EVENT_IF_VARIABLE_COMPARE", ce.EventID)
	assert.Equal(t, "operator", ce.Field)
	assert.Empty(t, rec.Calls(), "nothing is emitted for a rejected input")
}

func TestCompileBranchesNestInOrder(t *testing.T) {
	c := newTestCompiler(t, ifCompareDef(),
		markerDef("EVENT_A", "vm_a"), markerDef("EVENT_B", "vm_b"), markerDef("EVENT_C", "vm_c"))
	rec := testutil.NewRecorder(nil)

	err := c.CompileEvents(context.Background(), []ir.EventNode{
		{
			Command: "EVENT_IF_VARIABLE_COMPARE",
			Args:    ir.Object{"variable": ir.String("V0"), "value": ir.Int(1)},
			Children: map[string][]ir.EventNode{
				"true":  {{Command: "EVENT_A"}, {Command: "EVENT_B"}},
				"false": {{Command: "EVENT_C"}},
			},
		},
		{Command: "EVENT_C"},
	}, rec)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"resolve-alias V0->V0",
		"if .EQ V0 1",
		"not-taken",
		"call-native vm_c",
		"jump",
		"taken",
		"call-native vm_a",
		"call-native vm_b",
		"end-if",
		"call-native vm_c",
	}, rec.Lines())
}

func TestCompileNestedBranchesAgreeAcrossBackends(t *testing.T) {
	c := newTestCompiler(t, ifCompareDef(),
		markerDef("EVENT_A", "vm_a"), markerDef("EVENT_B", "vm_b"),
		markerDef("EVENT_C", "vm_c"), markerDef("EVENT_D", "vm_d"))
	events := []ir.EventNode{{
		Command: "EVENT_IF_VARIABLE_COMPARE",
		Args:    ir.Object{"variable": ir.String("V0"), "value": ir.Int(1)},
		Children: map[string][]ir.EventNode{
			"true": {
				{
					Command: "EVENT_IF_VARIABLE_COMPARE",
					Args:    ir.Object{"variable": ir.String("V1"), "value": ir.Int(2)},
					Children: map[string][]ir.EventNode{
						"true":  {{Command: "EVENT_A"}},
						"false": {{Command: "EVENT_B"}},
					},
				},
				{Command: "EVENT_C"},
			},
			"false": {{Command: "EVENT_D"}},
		},
	}}

	w := emit.NewWriter(testutil.IdentityResolver{})
	require.NoError(t, c.CompileEvents(context.Background(), events, w))
	var written []string
	for _, in := range w.Finish() {
		if in.Op == ir.OpCallNative {
			written = append(written, strings.TrimPrefix(in.Args[1], "_"))
		}
	}

	rec := testutil.NewRecorder(testutil.IdentityResolver{})
	require.NoError(t, c.CompileEvents(context.Background(), events, rec))

	assert.Equal(t, []string{"vm_d", "vm_b", "vm_a", "vm_c"}, written)
	assert.Equal(t, written, rec.Natives())
}

func TestCompileEmptyBranchesKeepShape(t *testing.T) {
	c := newTestCompiler(t, ifCompareDef())
	rec := testutil.NewRecorder(nil)

	err := c.CompileEvents(context.Background(), []ir.EventNode{{
		Command: "EVENT_IF_VARIABLE_COMPARE",
		Args:    ir.Object{"variable": ir.String("V0")},
	}}, rec)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"resolve-alias V0->V0",
		"if .EQ V0 0",
		"not-taken",
		"jump",
		"taken",
		"end-if",
	}, rec.Lines())
}

func TestCompileElseFlags(t *testing.T) {
	node := func(args ir.Object) ir.EventNode {
		args["variable"] = ir.String("V0")
		return ir.EventNode{
			Command: "EVENT_IF_VARIABLE_COMPARE",
			Args:    args,
			Children: map[string][]ir.EventNode{
				"false": {{Command: "EVENT_C"}},
			},
		}
	}

	t.Run("disable else drops the false branch", func(t *testing.T) {
		c := newTestCompiler(t, ifCompareDef(), markerDef("EVENT_C", "vm_c"))
		rec := testutil.NewRecorder(nil)
		err := c.CompileEvents(context.Background(),
			[]ir.EventNode{node(ir.Object{schema.FlagDisableElse: ir.Bool(true)})}, rec)
		require.NoError(t, err)
		assert.Empty(t, rec.Natives())
	})

	t.Run("collapse else is presentation only", func(t *testing.T) {
		c := newTestCompiler(t, ifCompareDef(), markerDef("EVENT_C", "vm_c"))
		rec := testutil.NewRecorder(nil)
		err := c.CompileEvents(context.Background(),
			[]ir.EventNode{node(ir.Object{schema.FlagCollapseElse: ir.Bool(true)})}, rec)
		require.NoError(t, err)
		assert.Equal(t, []string{"vm_c"}, rec.Natives())
	})
}

func TestCompileUnknownEvent(t *testing.T) {
	c := newTestCompiler(t, ifCompareDef())
	rec := testutil.NewRecorder(nil)

	err := c.CompileEvents(context.Background(), []ir.EventNode{{
		Command: "EVENT_IF_VARIABLE_COMPARE",
		Args:    ir.Object{"variable": ir.String("V0")},
		Children: map[string][]ir.EventNode{
			"true": {{Command: "EVENT_MISSING", ID: "n7"}},
		},
	}}, rec)

	require.Error(t, err)
	assert.True(t, IsUnknownEvent(err))
	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ir.Path("events[0].true[0]"), ce.Path)
	assert.Equal(t, "[UNKNOWN_EVENT] events[0].true[0] EVENT_MISSING#n7: no event registered with this id", ce.Error())
}

func TestCompileStackImbalance(t *testing.T) {
	leaky := &EventDefinition{
		ID: "EVENT_LEAKY",
		Compile: func(c *Context) error {
			c.Helpers.PushConst(ir.IntOperand(1))
			c.Helpers.CallNative("vm_leak")
			return nil
		},
	}
	c := newTestCompiler(t, leaky)

	err := c.CompileEvents(context.Background(), []ir.EventNode{{Command: "EVENT_LEAKY"}}, testutil.NewRecorder(nil))

	require.Error(t, err)
	assert.True(t, IsStackImbalance(err))
	assert.Contains(t, err.Error(), "EVENT_LEAKY")
}

func TestCompileUnbalancedBranchBody(t *testing.T) {
	def := &EventDefinition{
		ID: "EVENT_BAD_BRANCH",
		Compile: func(c *Context) error {
			return c.Helpers.IfCompare(ir.EQ, ir.Sym("A"), ir.IntOperand(0), func() error {
				c.Helpers.PushConst(ir.IntOperand(1))
				return nil
			}, nil)
		},
	}
	c := newTestCompiler(t, def)

	err := c.CompileEvents(context.Background(), []ir.EventNode{{Command: "EVENT_BAD_BRANCH"}},
		emit.NewWriter(testutil.IdentityResolver{}))

	assert.True(t, IsStackImbalance(err))
}

func TestCompileUnresolvedAliasNamesInnermostEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mockresolve.NewMockResolver(ctrl)
	r.EXPECT().VariableAlias("V0").Return("VAR_0", nil)
	r.EXPECT().VariableAlias("V404").Return("", &resolve.UnresolvedError{Kind: resolve.KindVariable, Handle: "V404"})

	c := newTestCompiler(t, ifCompareDef(), getBrushTileDef())
	err := c.CompileEvents(context.Background(), []ir.EventNode{{
		Command: "EVENT_IF_VARIABLE_COMPARE",
		Args:    ir.Object{"variable": ir.String("V0")},
		Children: map[string][]ir.EventNode{
			"false": {{
				Command: "EVENT_GET_BRUSH_TILE",
				Args:    ir.Object{"output": ir.String("V404")},
			}},
		},
	}}, emit.NewWriter(r))

	require.Error(t, err)
	assert.True(t, IsUnresolvedAlias(err))
	assert.True(t, resolve.IsUnresolved(err))
	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "EVENT_GET_BRUSH_TILE", ce.EventID)
	assert.Equal(t, ir.Path("events[0].false[0]"), ce.Path)
}

func TestCompileScratchLocalsReleasedPerEvent(t *testing.T) {
	c := newTestCompiler(t, getBrushTileDef())
	rec := testutil.NewRecorder(nil)

	node := ir.EventNode{Command: "EVENT_GET_BRUSH_TILE", Args: ir.Object{"output": ir.String("V1")}}
	require.NoError(t, c.CompileEvents(context.Background(), []ir.EventNode{node, node}, rec))
	assert.Empty(t, rec.Violations())

	w := emit.NewWriter(testutil.IdentityResolver{})
	require.NoError(t, c.CompileEvents(context.Background(), []ir.EventNode{node, node}, w))
	var locals, endLocals int
	for _, in := range w.Instructions() {
		switch in.Op {
		case ir.OpLocal:
			locals++
		case ir.OpEndLocal:
			endLocals++
		}
	}
	assert.Equal(t, 4, locals)
	assert.Equal(t, 4, endLocals)
}

func TestCompileRegisterABIWithResult(t *testing.T) {
	def := &EventDefinition{
		ID: "EVENT_GET_LEVEL_CODE_CHARACTER",
		Fields: []schema.FieldSpec{
			{
				Key:         "index",
				Type:        schema.TypeUnion,
				Types:       []string{schema.UnionNumber, schema.UnionVariable},
				DefaultType: schema.UnionNumber,
				Min:         schema.Int64(0),
				Max:         schema.Int64(23),
			},
			{Key: "variable", Type: schema.TypeVariable},
		},
		Native: &NativeCall{
			Name: "vm_get_level_code_character",
			ABI:  ABIRegisters,
			Params: []Param{
				{Field: "index", Kind: ParamUnion},
				{Field: "variable", Kind: ParamVariable},
			},
		},
	}
	c := newTestCompiler(t, def)
	rec := testutil.NewRecorder(nil)

	err := c.CompileEvents(context.Background(), []ir.EventNode{{
		Command: "EVENT_GET_LEVEL_CODE_CHARACTER",
		Args: ir.Object{
			"index":    ir.Object{"type": ir.String("variable"), "value": ir.String("V3")},
			"variable": ir.String("V9"),
		},
	}}, rec)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"resolve-alias V9->V9",
		"resolve-alias V3->V3",
		"set-variable .ARG0=V3",
		"set-const .ARG1=V9",
		"call-native vm_get_level_code_character",
	}, rec.Lines())
}

func TestCompileResultCopy(t *testing.T) {
	def := &EventDefinition{
		ID:     "EVENT_HAS_SAVED_LEVEL_CODE",
		Fields: []schema.FieldSpec{{Key: "variable", Type: schema.TypeVariable}},
		Native: &NativeCall{Name: "vm_has_saved_level_code", Result: "variable"},
	}
	c := newTestCompiler(t, def)
	rec := testutil.NewRecorder(nil)

	err := c.CompileEvents(context.Background(), []ir.EventNode{{
		Command: "EVENT_HAS_SAVED_LEVEL_CODE",
		Args:    ir.Object{"variable": ir.String("V2")},
	}}, rec)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"resolve-alias V2->V2",
		"call-native vm_has_saved_level_code",
		"set-variable V2=.ARG0",
	}, rec.Lines())
}

func TestCompileScriptRespectsCancellation(t *testing.T) {
	c := newTestCompiler(t, markerDef("EVENT_A", "vm_a"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.CompileScript(ctx, ir.Script{Name: "s", Events: []ir.EventNode{{Command: "EVENT_A"}}},
		testutil.NewRecorder(nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompileWriterEndToEnd(t *testing.T) {
	c := newTestCompiler(t, getBrushTileDef())
	r := resolve.New(resolve.Tables{Variables: map[string]string{"V1": "VAR_BRUSH"}})
	w := emit.NewWriter(r, emit.WithoutComments())

	err := c.CompileScript(context.Background(), ir.Script{
		Name: "brush",
		Events: []ir.EventNode{{
			Command: "EVENT_GET_BRUSH_TILE",
			Args: ir.Object{
				"x":      ir.Int(2),
				"y":      ir.Object{"type": ir.String("variable"), "value": ir.String("V1")},
				"output": ir.String("V1"),
			},
		}},
	}, w)
	require.NoError(t, err)

	want := "" +
		"        .local .LOCAL_TMP0_TMP0, 1\n" +
		"        .local .LOCAL_TMP1_TMP1, 1\n" +
		"        VM_SET_CONST            .LOCAL_TMP0_TMP0, 2\n" +
		"        VM_SET                  .LOCAL_TMP1_TMP1, VAR_BRUSH\n" +
		"        VM_PUSH_CONST           VAR_BRUSH\n" +
		"        VM_PUSH_VALUE           .LOCAL_TMP1_TMP1\n" +
		"        VM_PUSH_VALUE           .LOCAL_TMP0_TMP0\n" +
		"        VM_CALL_NATIVE          b_vm_get_brush_tile_pos, _vm_get_brush_tile_pos\n" +
		"        VM_POP                  3\n" +
		"        .endlocal .LOCAL_TMP1_TMP1\n" +
		"        .endlocal .LOCAL_TMP0_TMP0\n"
	assert.Equal(t, want, ir.Format(w.Finish()))
}

func TestLookupComparison(t *testing.T) {
	op, err := LookupComparison("<=")
	require.NoError(t, err)
	suffix, _ := op.Suffix()
	assert.Equal(t, ".LTE", suffix)

	op, err = LookupComparison(".EQ")
	require.NoError(t, err)
	assert.Equal(t, ir.EQ, op)

	_, err = LookupComparison("between")
	assert.ErrorIs(t, err, emit.ErrUnknownComparison)
}

func TestCallNativeHelperIsBalanced(t *testing.T) {
	rec := testutil.NewRecorder(nil)
	CallNative(rec, "vm_paint", ir.IntOperand(1), ir.Sym("VAR_Y"))

	assert.Equal(t, []string{
		"push-const VAR_Y",
		"push-const 1",
		"call-native vm_paint",
		"pop 2",
	}, rec.Lines())
	assert.Equal(t, 0, rec.Depth())
}
