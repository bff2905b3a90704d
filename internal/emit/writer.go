package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/eventc/internal/ir"
	"github.com/roach88/eventc/internal/resolve"
	"github.com/roach88/eventc/internal/schema"
)

// Writer is the production Helpers backend. It appends ir.Instructions for
// one script and tracks operand stack depth as it goes. A Writer is not safe
// for concurrent use; compile each script with its own Writer.
type Writer struct {
	resolver resolve.Resolver
	out      []ir.Instruction
	depth    int

	labels   int
	localSeq int

	// scratch holds live scratch locals; marks index into it per open event.
	scratch []string
	marks   []int
	// named holds non-scratch locals, released by Finish.
	named map[string]string
	order []string

	comments bool
}

// Option configures a Writer.
type Option func(*Writer)

// WithoutComments drops comment and blank line output.
func WithoutComments() Option {
	return func(w *Writer) { w.comments = false }
}

// NewWriter returns a Writer resolving handles through r.
func NewWriter(r resolve.Resolver, opts ...Option) *Writer {
	w := &Writer{
		resolver: r,
		named:    make(map[string]string),
		comments: true,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

var _ Helpers = (*Writer)(nil)
var _ EventScoper = (*Writer)(nil)

func (w *Writer) emit(op ir.Op, args ...string) {
	in := ir.Instruction{Op: op, Args: args}
	w.depth += in.StackEffect()
	w.out = append(w.out, in)
}

// Instructions returns the instructions emitted so far.
func (w *Writer) Instructions() []ir.Instruction {
	return w.out
}

// Finish releases named locals and returns the complete instruction list.
func (w *Writer) Finish() []ir.Instruction {
	for i := len(w.order) - 1; i >= 0; i-- {
		w.emit(ir.OpEndLocal, w.named[w.order[i]])
	}
	w.order = nil
	w.named = make(map[string]string)
	return w.out
}

// String renders the instructions emitted so far as assembly.
func (w *Writer) String() string {
	return ir.Format(w.out)
}

func (w *Writer) Depth() int {
	return w.depth
}

// BeginEvent opens a scratch local scope.
func (w *Writer) BeginEvent(id string) {
	w.marks = append(w.marks, len(w.scratch))
}

// EndEvent releases the scratch locals declared since the matching BeginEvent.
func (w *Writer) EndEvent() {
	if len(w.marks) == 0 {
		return
	}
	mark := w.marks[len(w.marks)-1]
	w.marks = w.marks[:len(w.marks)-1]
	for i := len(w.scratch) - 1; i >= mark; i-- {
		w.emit(ir.OpEndLocal, w.scratch[i])
	}
	w.scratch = w.scratch[:mark]
}

func (w *Writer) PushConst(v ir.Operand) {
	w.emit(ir.OpPushConst, v.String())
}

func (w *Writer) Push(local string) {
	w.emit(ir.OpPushValue, local)
}

func (w *Writer) PushVariable(handle string) error {
	alias, err := w.VariableAlias(handle)
	if err != nil {
		return err
	}
	w.emit(ir.OpPushValue, alias)
	return nil
}

func (w *Writer) Pop(n int) {
	if n <= 0 {
		return
	}
	w.emit(ir.OpPop, strconv.Itoa(n))
}

func (w *Writer) DeclareLocal(name string, size int, scratch bool) string {
	if size < 1 {
		size = 1
	}
	if !scratch {
		if sym, ok := w.named[name]; ok {
			return sym
		}
		sym := ".LOCAL_" + symbolName(name)
		w.named[name] = sym
		w.order = append(w.order, name)
		w.emit(ir.OpLocal, sym, strconv.Itoa(size))
		return sym
	}
	sym := fmt.Sprintf(".LOCAL_TMP%d_%s", w.localSeq, symbolName(name))
	w.localSeq++
	w.scratch = append(w.scratch, sym)
	w.emit(ir.OpLocal, sym, strconv.Itoa(size))
	return sym
}

// symbolName upper-cases name and replaces anything outside [A-Z0-9_].
func symbolName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, name)
}

func (w *Writer) SetToScriptValue(dst string, v schema.ScriptValue) error {
	switch {
	case v.IsConst():
		w.SetConst(dst, ir.IntOperand(v.Value))
		return nil
	case v.Type == schema.SVVariable:
		alias, err := w.VariableAlias(v.Variable)
		if err != nil {
			return err
		}
		w.SetVariable(dst, alias)
		return nil
	case v.IsOperator():
		w.emit(ir.OpRPN)
		if err := w.rpn(v); err != nil {
			return err
		}
		w.emit(ir.OpRPNStop)
		w.SetVariable(dst, ir.RegResult)
		w.Pop(1)
		return nil
	}
	return fmt.Errorf("cannot assign script value of type %q", v.Type)
}

var rpnOperators = map[schema.ScriptValueType]string{
	schema.SVAdd: ".ADD",
	schema.SVSub: ".SUB",
	schema.SVMul: ".MUL",
	schema.SVDiv: ".DIV",
	schema.SVMod: ".MOD",
	schema.SVMin: ".MIN",
	schema.SVMax: ".MAX",
}

// rpn emits v in reverse polish order: operands left to right, then operator.
func (w *Writer) rpn(v schema.ScriptValue) error {
	switch {
	case v.IsConst():
		w.emit(ir.OpRPNInt, strconv.FormatInt(v.Value, 10))
	case v.Type == schema.SVVariable:
		alias, err := w.VariableAlias(v.Variable)
		if err != nil {
			return err
		}
		w.emit(ir.OpRPNRef, alias)
	case v.IsOperator():
		if v.A == nil || v.B == nil {
			return fmt.Errorf("%s expression is missing an operand", v.Type)
		}
		if err := w.rpn(*v.A); err != nil {
			return err
		}
		if err := w.rpn(*v.B); err != nil {
			return err
		}
		w.emit(ir.OpRPNOperator, rpnOperators[v.Type])
	default:
		return fmt.Errorf("unsupported script value type %q", v.Type)
	}
	return nil
}

func (w *Writer) SetConst(dst string, v ir.Operand) {
	w.emit(ir.OpSetConst, dst, v.String())
}

func (w *Writer) SetVariable(dst, src string) {
	w.emit(ir.OpSet, dst, src)
}

func (w *Writer) VariableAlias(handle string) (string, error) {
	return w.resolver.VariableAlias(handle)
}

func (w *Writer) CallNative(name string) {
	w.emit(ir.OpCallNative, "b_"+name, "_"+name)
}

func (w *Writer) Comment(text string) {
	if !w.comments {
		return
	}
	text = strings.Join(strings.Fields(text), " ")
	w.out = append(w.out, ir.Instruction{Op: ir.OpComment, Text: text})
}

func (w *Writer) Newline() {
	if !w.comments {
		return
	}
	w.out = append(w.out, ir.Instruction{Op: ir.OpNewline})
}

func (w *Writer) Raw(stmt string) error {
	if err := ValidateRaw(stmt); err != nil {
		return err
	}
	w.out = append(w.out, ir.Instruction{Op: ir.OpRaw, Text: strings.TrimSpace(stmt)})
	return nil
}

func (w *Writer) ActorPushByID(id string) error {
	idx, err := w.resolver.ActorIndex(id)
	if err != nil {
		return err
	}
	w.PushConst(ir.IntOperand(idx))
	return nil
}

func (w *Writer) ActorSetActive(id string) error {
	idx, err := w.resolver.ActorIndex(id)
	if err != nil {
		return err
	}
	actor := w.DeclareLocal("actor", 4, false)
	w.SetConst(actor, ir.IntOperand(idx))
	return nil
}

func (w *Writer) TextDialogue(text string, symbols ...string) error {
	n, err := CountPlaceholders(text)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTextArguments, err)
	}
	if n != len(symbols) {
		return fmt.Errorf("%w: %d placeholders, %d symbols", ErrTextArguments, n, len(symbols))
	}
	w.emit(ir.OpLoadText, strconv.Itoa(len(symbols)))
	if len(symbols) > 0 {
		w.emit(ir.OpTextArgs, symbols...)
	}
	w.out = append(w.out, ir.Instruction{Op: ir.OpTextString, Text: QuoteText(text)})
	w.emit(ir.OpDisplayText)
	return nil
}

func (w *Writer) nextLabel() string {
	w.labels++
	return strconv.Itoa(w.labels) + "$"
}

func (w *Writer) IfCompare(op ir.Comparison, lhs, rhs ir.Operand, taken, notTaken Block) error {
	suffix, ok := op.Suffix()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownComparison, op)
	}
	if lhs.Kind != ir.KindSym {
		return fmt.Errorf("left operand of a comparison must be a symbol, got %s", lhs)
	}
	takenLabel, endLabel := w.nextLabel(), w.nextLabel()

	opcode := ir.OpIf
	if rhs.Kind == ir.KindInt {
		opcode = ir.OpIfConst
	}
	w.emit(opcode, suffix, lhs.String(), rhs.String(), takenLabel, "0")

	if err := w.block(notTaken); err != nil {
		return fmt.Errorf("not taken: %w", err)
	}
	w.emit(ir.OpJump, endLabel)
	w.emit(ir.OpLabel, takenLabel)
	if err := w.block(taken); err != nil {
		return fmt.Errorf("taken: %w", err)
	}
	w.emit(ir.OpLabel, endLabel)
	return nil
}

func (w *Writer) block(b Block) error {
	if b == nil {
		return nil
	}
	before := w.depth
	if err := b(); err != nil {
		return err
	}
	if w.depth != before {
		return fmt.Errorf("%w: depth %d -> %d", ErrUnbalancedBlock, before, w.depth)
	}
	return nil
}
