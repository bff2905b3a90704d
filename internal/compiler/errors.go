package compiler

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/eventc/internal/emit"
	"github.com/roach88/eventc/internal/ir"
	"github.com/roach88/eventc/internal/resolve"
	"github.com/roach88/eventc/internal/schema"
)

// Code classifies a CompileError.
type Code string

const (
	// CodeSchemaMismatch: an input value outside its field's domain, or an
	// operator with no opcode mapping.
	CodeSchemaMismatch Code = "SCHEMA_MISMATCH"
	// CodeStackImbalance: an event or branch body left the operand stack at a
	// different depth. Always a defect in the event definition.
	CodeStackImbalance Code = "STACK_IMBALANCE"
	// CodeUnresolvedAlias: a variable or actor handle the resolver cannot map.
	CodeUnresolvedAlias Code = "UNRESOLVED_ALIAS"
	// CodeUnknownEvent: a node whose command is not registered.
	CodeUnknownEvent Code = "UNKNOWN_EVENT"
	// CodeInvalidDefinition: a malformed event definition.
	CodeInvalidDefinition Code = "INVALID_DEFINITION"
	// CodeRawRejected: a raw statement failed validation.
	CodeRawRejected Code = "RAW_REJECTED"
	// CodeCompileFailed: any other failure inside a compile function.
	CodeCompileFailed Code = "COMPILE_FAILED"
)

// CompileError carries the offending event's identity with the failure.
type CompileError struct {
	Code    Code
	EventID string
	NodeID  string
	Path    ir.Path
	Field   string
	Message string
	// Pos locates errors in CUE event declarations.
	Pos token.Pos
	Err error
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	where := string(e.Path)
	if e.EventID != "" {
		if where != "" {
			where += " "
		}
		where += e.EventID
	}
	if e.NodeID != "" {
		where += "#" + e.NodeID
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if where == "" {
		return fmt.Sprintf("[%s] %s", e.Code, msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, where, msg)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first CompileError in err's chain, or ""
// when there is none.
func CodeOf(err error) Code {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

func IsSchemaMismatch(err error) bool  { return CodeOf(err) == CodeSchemaMismatch }
func IsStackImbalance(err error) bool  { return CodeOf(err) == CodeStackImbalance }
func IsUnresolvedAlias(err error) bool { return CodeOf(err) == CodeUnresolvedAlias }
func IsUnknownEvent(err error) bool    { return CodeOf(err) == CodeUnknownEvent }

// classify maps an error from schema, resolve or emit onto a Code.
func classify(err error) Code {
	switch {
	case schema.IsMismatch(err):
		return CodeSchemaMismatch
	case resolve.IsUnresolved(err):
		return CodeUnresolvedAlias
	case errors.Is(err, emit.ErrUnbalancedBlock):
		return CodeStackImbalance
	case errors.Is(err, emit.ErrRawRejected):
		return CodeRawRejected
	case errors.Is(err, emit.ErrUnknownComparison), errors.Is(err, emit.ErrTextArguments):
		return CodeSchemaMismatch
	}
	return CodeCompileFailed
}

// wrapEventError attaches event identity to err. An error raised by a nested
// event already names the innermost offender and is returned as is.
func wrapEventError(err error, def *EventDefinition, node ir.EventNode, path ir.Path) error {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce
	}
	out := &CompileError{
		Code:    classify(err),
		EventID: node.Command,
		NodeID:  node.ID,
		Path:    path,
		Err:     err,
	}
	var m *schema.MismatchError
	if errors.As(err, &m) {
		out.Field = m.Field
	}
	if def != nil {
		out.EventID = def.ID
	}
	return out
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := cueerrors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Code:    CodeInvalidDefinition,
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
			Err:     err,
		}
	}

	return err
}
