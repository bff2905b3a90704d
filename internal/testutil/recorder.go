package testutil

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/eventc/internal/emit"
	"github.com/roach88/eventc/internal/ir"
	"github.com/roach88/eventc/internal/resolve"
	"github.com/roach88/eventc/internal/schema"
)

// Call is one recorded emission primitive.
type Call struct {
	Op   string
	Args []string
}

func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Op
	}
	return c.Op + " " + strings.Join(c.Args, " ")
}

// Recorder is an emit.Helpers double that records every primitive instead of
// producing assembly. Locals keep their declared names so recorded sequences
// read like the event contract: "declare-local tmp0", "push tmp0".
//
// Recorder also checks the scratch local lifetime rules and collects
// violations instead of failing, so tests can assert on them.
//
// Thread-safety: none. One Recorder per compile, like emit.Writer.
type Recorder struct {
	resolver resolve.Resolver
	calls    []Call
	depth    int

	live       []string
	marks      []int
	released   map[string]bool
	violations []string
}

// NewRecorder returns a Recorder resolving handles through r.
// A nil r resolves every handle to itself.
func NewRecorder(r resolve.Resolver) *Recorder {
	if r == nil {
		r = IdentityResolver{}
	}
	return &Recorder{resolver: r, released: make(map[string]bool)}
}

var _ emit.Helpers = (*Recorder)(nil)
var _ emit.EventScoper = (*Recorder)(nil)

func (r *Recorder) record(op string, args ...string) {
	r.calls = append(r.calls, Call{Op: op, Args: args})
}

// Calls returns every recorded call.
func (r *Recorder) Calls() []Call {
	return r.calls
}

// Lines returns the recorded calls rendered as strings.
func (r *Recorder) Lines() []string {
	lines := make([]string, len(r.calls))
	for i, c := range r.calls {
		lines[i] = c.String()
	}
	return lines
}

// Natives returns the native names called, in order.
func (r *Recorder) Natives() []string {
	var names []string
	for _, c := range r.calls {
		if c.Op == "call-native" {
			names = append(names, c.Args[0])
		}
	}
	return names
}

// Violations returns scratch local lifetime violations.
func (r *Recorder) Violations() []string {
	return r.violations
}

// Reset clears recorded calls but keeps the resolver.
func (r *Recorder) Reset() {
	*r = *NewRecorder(r.resolver)
}

func (r *Recorder) BeginEvent(id string) {
	r.marks = append(r.marks, len(r.live))
}

func (r *Recorder) EndEvent() {
	if len(r.marks) == 0 {
		r.violations = append(r.violations, "end-event without begin-event")
		return
	}
	mark := r.marks[len(r.marks)-1]
	r.marks = r.marks[:len(r.marks)-1]
	for _, name := range r.live[mark:] {
		r.released[name] = true
	}
	r.live = r.live[:mark]
}

func (r *Recorder) checkLive(name string) {
	if r.released[name] && !slices.Contains(r.live, name) {
		r.violations = append(r.violations, fmt.Sprintf("scratch local %q used after its event ended", name))
	}
}

func (r *Recorder) PushConst(v ir.Operand) {
	r.depth++
	r.record("push-const", v.String())
}

func (r *Recorder) Push(local string) {
	r.checkLive(local)
	r.depth++
	r.record("push", local)
}

func (r *Recorder) PushVariable(handle string) error {
	alias, err := r.resolver.VariableAlias(handle)
	if err != nil {
		return err
	}
	r.depth++
	r.record("push-variable", handle, alias)
	return nil
}

func (r *Recorder) Pop(n int) {
	if n <= 0 {
		return
	}
	r.depth -= n
	r.record("pop", strconv.Itoa(n))
}

func (r *Recorder) DeclareLocal(name string, size int, scratch bool) string {
	if scratch {
		delete(r.released, name)
		r.live = append(r.live, name)
		r.record("declare-local", name)
	} else {
		r.record("declare-local", name, "named")
	}
	return name
}

func (r *Recorder) SetToScriptValue(dst string, v schema.ScriptValue) error {
	r.checkLive(dst)
	for _, handle := range v.Variables() {
		if _, err := r.resolver.VariableAlias(handle); err != nil {
			return err
		}
	}
	r.record("set", dst+"="+v.String())
	return nil
}

func (r *Recorder) SetConst(dst string, v ir.Operand) {
	r.record("set-const", dst+"="+v.String())
}

func (r *Recorder) SetVariable(dst, src string) {
	r.record("set-variable", dst+"="+src)
}

func (r *Recorder) VariableAlias(handle string) (string, error) {
	alias, err := r.resolver.VariableAlias(handle)
	if err != nil {
		return "", err
	}
	r.record("resolve-alias", handle+"->"+alias)
	return alias, nil
}

func (r *Recorder) CallNative(name string) {
	r.record("call-native", name)
}

func (r *Recorder) Comment(text string) {
	r.record("comment", text)
}

func (r *Recorder) Newline() {
	r.record("newline")
}

func (r *Recorder) Raw(stmt string) error {
	if err := emit.ValidateRaw(stmt); err != nil {
		return err
	}
	r.record("raw", stmt)
	return nil
}

func (r *Recorder) ActorPushByID(id string) error {
	idx, err := r.resolver.ActorIndex(id)
	if err != nil {
		return err
	}
	r.depth++
	r.record("push-actor", id, strconv.FormatInt(idx, 10))
	return nil
}

func (r *Recorder) ActorSetActive(id string) error {
	idx, err := r.resolver.ActorIndex(id)
	if err != nil {
		return err
	}
	r.record("set-active-actor", id, strconv.FormatInt(idx, 10))
	return nil
}

func (r *Recorder) TextDialogue(text string, symbols ...string) error {
	n, err := emit.CountPlaceholders(text)
	if err != nil {
		return fmt.Errorf("%w: %v", emit.ErrTextArguments, err)
	}
	if n != len(symbols) {
		return fmt.Errorf("%w: %d placeholders, %d symbols", emit.ErrTextArguments, n, len(symbols))
	}
	for _, sym := range symbols {
		r.checkLive(sym)
	}
	r.record("text", append([]string{emit.QuoteText(text)}, symbols...)...)
	return nil
}

func (r *Recorder) IfCompare(op ir.Comparison, lhs, rhs ir.Operand, taken, notTaken emit.Block) error {
	suffix, ok := op.Suffix()
	if !ok {
		return fmt.Errorf("%w: %q", emit.ErrUnknownComparison, op)
	}
	if lhs.Kind != ir.KindSym {
		return fmt.Errorf("left operand of a comparison must be a symbol, got %s", lhs)
	}
	// Same layout as the assembly: the fall-through block runs first, then
	// a jump over the taken block.
	r.record("if", suffix, lhs.String(), rhs.String())
	r.record("not-taken")
	if err := r.block(notTaken); err != nil {
		return fmt.Errorf("not taken: %w", err)
	}
	r.record("jump")
	r.record("taken")
	if err := r.block(taken); err != nil {
		return fmt.Errorf("taken: %w", err)
	}
	r.record("end-if")
	return nil
}

func (r *Recorder) block(b emit.Block) error {
	if b == nil {
		return nil
	}
	before := r.depth
	if err := b(); err != nil {
		return err
	}
	if r.depth != before {
		return fmt.Errorf("%w: depth %d -> %d", emit.ErrUnbalancedBlock, before, r.depth)
	}
	return nil
}

func (r *Recorder) Depth() int {
	return r.depth
}
