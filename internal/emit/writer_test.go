package emit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eventc/internal/ir"
	"github.com/roach88/eventc/internal/resolve"
	"github.com/roach88/eventc/internal/schema"
)

func newTestWriter(opts ...Option) *Writer {
	r := resolve.New(resolve.Tables{
		Variables:    map[string]string{"V1": "VAR_SCORE", "V2": "VAR_LEVEL"},
		Actors:       map[string]int64{"cursor": 3},
		LastVariable: "V2",
	})
	return NewWriter(r.WithSelf("cursor"), opts...)
}

func TestWriterNativeCallSequence(t *testing.T) {
	w := newTestWriter()
	w.BeginEvent("EVENT_GET_BRUSH_TILE")

	tmp0 := w.DeclareLocal("tmp0", 1, true)
	tmp1 := w.DeclareLocal("tmp1", 1, true)
	require.NoError(t, w.SetToScriptValue(tmp0, schema.Number(3)))
	require.NoError(t, w.SetToScriptValue(tmp1, schema.Number(4)))
	alias, err := w.VariableAlias("V1")
	require.NoError(t, err)
	w.Comment("Get Brush Tile")
	w.PushConst(ir.Sym(alias))
	w.Push(tmp1)
	w.Push(tmp0)
	assert.Equal(t, 3, w.Depth())
	w.CallNative("vm_get_brush_tile_pos")
	w.Pop(3)
	w.EndEvent()

	want := "" +
		"        .local .LOCAL_TMP0_TMP0, 1\n" +
		"        .local .LOCAL_TMP1_TMP1, 1\n" +
		"        VM_SET_CONST            .LOCAL_TMP0_TMP0, 3\n" +
		"        VM_SET_CONST            .LOCAL_TMP1_TMP1, 4\n" +
		"        ; Get Brush Tile\n" +
		"        VM_PUSH_CONST           VAR_SCORE\n" +
		"        VM_PUSH_VALUE           .LOCAL_TMP1_TMP1\n" +
		"        VM_PUSH_VALUE           .LOCAL_TMP0_TMP0\n" +
		"        VM_CALL_NATIVE          b_vm_get_brush_tile_pos, _vm_get_brush_tile_pos\n" +
		"        VM_POP                  3\n" +
		"        .endlocal .LOCAL_TMP1_TMP1\n" +
		"        .endlocal .LOCAL_TMP0_TMP0\n"
	assert.Equal(t, want, w.String())
	assert.Equal(t, 0, w.Depth())
}

func TestWriterScratchLocalsScopedToEvent(t *testing.T) {
	w := newTestWriter()

	w.BeginEvent("outer")
	outer := w.DeclareLocal("x", 1, true)
	w.BeginEvent("inner")
	inner := w.DeclareLocal("x", 1, true)
	w.EndEvent()
	w.EndEvent()

	assert.Equal(t, ".LOCAL_TMP0_X", outer)
	assert.Equal(t, ".LOCAL_TMP1_X", inner, "scratch symbols never collide")

	ops := opsOf(w.Instructions())
	assert.Equal(t, []ir.Op{ir.OpLocal, ir.OpLocal, ir.OpEndLocal, ir.OpEndLocal}, ops)
	assert.Equal(t, []string{inner}, w.Instructions()[2].Args, "inner scope releases first")
}

func TestWriterNamedLocalsReleasedAtFinish(t *testing.T) {
	w := newTestWriter()

	require.NoError(t, w.ActorSetActive("cursor"))
	require.NoError(t, w.ActorSetActive("player"))
	out := w.Finish()

	require.Len(t, out, 4)
	assert.Equal(t, ir.Instruction{Op: ir.OpLocal, Args: []string{".LOCAL_ACTOR", "4"}}, out[0])
	assert.Equal(t, ir.Instruction{Op: ir.OpSetConst, Args: []string{".LOCAL_ACTOR", "3"}}, out[1])
	assert.Equal(t, ir.Instruction{Op: ir.OpSetConst, Args: []string{".LOCAL_ACTOR", "0"}}, out[2])
	assert.Equal(t, ir.Instruction{Op: ir.OpEndLocal, Args: []string{".LOCAL_ACTOR"}}, out[3])
}

func TestWriterSetToScriptValue(t *testing.T) {
	w := newTestWriter()

	require.NoError(t, w.SetToScriptValue("T", schema.Variable("V1")))
	require.NoError(t, w.SetToScriptValue("T", schema.Expr(schema.SVAdd, schema.Variable(resolve.LastVariable), schema.Number(1))))

	want := "" +
		"        VM_SET                  T, VAR_SCORE\n" +
		"        VM_RPN\n" +
		"            .R_REF VAR_LEVEL\n" +
		"            .R_INT16 1\n" +
		"            .R_OPERATOR .ADD\n" +
		"            .R_STOP\n" +
		"        VM_SET                  T, .ARG0\n" +
		"        VM_POP                  1\n"
	assert.Equal(t, want, w.String())
	assert.Equal(t, 0, w.Depth())
}

func TestWriterSetToScriptValueUnresolved(t *testing.T) {
	w := newTestWriter()

	err := w.SetToScriptValue("T", schema.Expr(schema.SVMul, schema.Number(2), schema.Variable("V9")))
	require.Error(t, err)
	assert.True(t, resolve.IsUnresolved(err))
}

func TestWriterIfCompareShape(t *testing.T) {
	w := newTestWriter()

	err := w.IfCompare(ir.LTE, ir.Sym("VAR_SCORE"), ir.IntOperand(10),
		func() error { w.CallNative("vm_taken"); return nil },
		func() error { w.CallNative("vm_not_taken"); return nil },
	)
	require.NoError(t, err)

	want := "" +
		"        VM_IF_CONST             .LTE, VAR_SCORE, 10, 1$, 0\n" +
		"        VM_CALL_NATIVE          b_vm_not_taken, _vm_not_taken\n" +
		"        VM_JUMP                 2$\n" +
		"1$:\n" +
		"        VM_CALL_NATIVE          b_vm_taken, _vm_taken\n" +
		"2$:\n"
	assert.Equal(t, want, w.String())
}

func TestWriterIfCompareEmptyBlocksKeepShape(t *testing.T) {
	w := newTestWriter()

	require.NoError(t, w.IfCompare(ir.EQ, ir.Sym("A"), ir.Sym("B"), nil, nil))

	assert.Equal(t,
		[]ir.Op{ir.OpIf, ir.OpJump, ir.OpLabel, ir.OpLabel},
		opsOf(w.Instructions()))
}

func TestWriterIfCompareNestedLabels(t *testing.T) {
	w := newTestWriter()

	err := w.IfCompare(ir.EQ, ir.Sym("A"), ir.IntOperand(1), func() error {
		return w.IfCompare(ir.NE, ir.Sym("B"), ir.IntOperand(2), nil, nil)
	}, nil)
	require.NoError(t, err)

	var labels []string
	for _, in := range w.Instructions() {
		if in.Op == ir.OpLabel {
			labels = append(labels, in.Args[0])
		}
	}
	assert.Equal(t, []string{"1$", "3$", "4$", "2$"}, labels)
}

func TestWriterIfCompareErrors(t *testing.T) {
	w := newTestWriter()

	err := w.IfCompare("between", ir.Sym("A"), ir.IntOperand(1), nil, nil)
	assert.True(t, errors.Is(err, ErrUnknownComparison))
	assert.Empty(t, w.Instructions(), "nothing is emitted for an unknown operator")

	err = w.IfCompare(ir.EQ, ir.Sym("A"), ir.IntOperand(1), func() error {
		w.PushConst(ir.IntOperand(1))
		return nil
	}, nil)
	assert.True(t, errors.Is(err, ErrUnbalancedBlock))

	err = w.IfCompare(ir.EQ, ir.IntOperand(1), ir.Sym("A"), nil, nil)
	assert.Error(t, err)
}

func TestWriterActorPushByID(t *testing.T) {
	w := newTestWriter()

	require.NoError(t, w.ActorPushByID(resolve.SelfActor))
	assert.Equal(t, 1, w.Depth())
	assert.Equal(t, []string{"3"}, w.Instructions()[0].Args)

	assert.Error(t, w.ActorPushByID("ghost"))
}

func TestWriterTextDialogue(t *testing.T) {
	w := newTestWriter()

	require.NoError(t, w.TextDialogue("Score: %d of 100%%", "VAR_SCORE"))

	want := "" +
		"        VM_LOAD_TEXT            1\n" +
		"        .dw VAR_SCORE\n" +
		"        .asciz \"Score: %d of 100%%\"\n" +
		"        VM_DISPLAY_TEXT\n"
	assert.Equal(t, want, w.String())

	err := w.TextDialogue("%d and %d", "VAR_SCORE")
	assert.True(t, errors.Is(err, ErrTextArguments))
}

func TestWriterRaw(t *testing.T) {
	w := newTestWriter()

	require.NoError(t, w.Raw("  VM_IDLE  "))
	assert.Equal(t, "        VM_IDLE\n", w.String())

	for _, stmt := range []string{"", "VM_IDLE ; VM_STOP", "VM_IDLE\nVM_STOP", "VM_IDLE\x00"} {
		err := w.Raw(stmt)
		assert.True(t, errors.Is(err, ErrRawRejected), "%q", stmt)
	}
}

func TestWriterWithoutComments(t *testing.T) {
	w := newTestWriter(WithoutComments())

	w.Comment("hidden")
	w.Newline()
	w.CallNative("vm_paint")

	assert.Equal(t, []ir.Op{ir.OpCallNative}, opsOf(w.Instructions()))
}

func TestWriterPopZeroIsNoop(t *testing.T) {
	w := newTestWriter()
	w.Pop(0)
	assert.Empty(t, w.Instructions())
}

func opsOf(out []ir.Instruction) []ir.Op {
	ops := make([]ir.Op, len(out))
	for i, in := range out {
		ops[i] = in.Op
	}
	return ops
}
