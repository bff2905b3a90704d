// Package emit defines the emission capability surface event compile
// functions target, and Writer, the backend that turns it into VM assembly.
package emit

import (
	"errors"

	"github.com/roach88/eventc/internal/ir"
	"github.com/roach88/eventc/internal/schema"
)

// Block emits one branch body into the same Helpers it was created for.
// A nil Block is an empty body.
type Block func() error

// Helpers is everything an event compile function may emit.
//
// Operand stack pushes and pops are tracked by Depth. Scratch locals are a
// separate storage class and do not affect Depth.
type Helpers interface {
	// PushConst pushes a literal or a symbol's address.
	PushConst(v ir.Operand)
	// Push pushes the value held by a local.
	Push(local string)
	// PushVariable resolves handle and pushes the variable's value.
	PushVariable(handle string) error
	// Pop discards n operand slots.
	Pop(n int)

	// DeclareLocal declares a local and returns its symbol. Scratch locals
	// are released when the current event ends.
	DeclareLocal(name string, size int, scratch bool) string
	// SetToScriptValue assigns a resolved script value to dst.
	SetToScriptValue(dst string, v schema.ScriptValue) error
	// SetConst writes a literal into dst (a local, alias or register).
	SetConst(dst string, v ir.Operand)
	// SetVariable copies src into dst.
	SetVariable(dst, src string)
	// VariableAlias resolves a variable handle to its storage symbol.
	VariableAlias(handle string) (string, error)

	// CallNative invokes a native operation by name.
	CallNative(name string)

	Comment(text string)
	Newline()
	// Raw emits a single statement verbatim after validating it.
	Raw(stmt string) error

	// ActorPushByID pushes the actor's runtime index.
	ActorPushByID(id string) error
	// ActorSetActive makes the actor the target of following actor natives.
	ActorSetActive(id string) error

	// TextDialogue displays text; each %d is filled from the matching symbol
	// (an alias or a local) at runtime.
	TextDialogue(text string, symbols ...string) error

	// IfCompare dispatches on lhs op rhs. taken runs when the comparison
	// holds, notTaken otherwise. Both are always emitted.
	IfCompare(op ir.Comparison, lhs, rhs ir.Operand, taken, notTaken Block) error

	// Depth returns the current operand stack depth.
	Depth() int
}

// EventScoper is implemented by backends that scope scratch locals to a
// single event. The compiler brackets every event with these calls.
type EventScoper interface {
	BeginEvent(id string)
	EndEvent()
}

var (
	// ErrRawRejected is returned when a raw statement fails validation.
	ErrRawRejected = errors.New("raw statement rejected")
	// ErrUnknownComparison is returned for operators without an opcode suffix.
	ErrUnknownComparison = errors.New("comparison has no opcode mapping")
	// ErrUnbalancedBlock is returned when a branch body leaves the operand
	// stack at a different depth than it found it.
	ErrUnbalancedBlock = errors.New("branch body is not stack neutral")
	// ErrTextArguments is returned when dialogue placeholders and symbols
	// disagree in number.
	ErrTextArguments = errors.New("text placeholders do not match symbols")
)
