package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/eventc/internal/compiler"
	"github.com/roach88/eventc/internal/emit"
	"github.com/roach88/eventc/internal/events"
	"github.com/roach88/eventc/internal/ir"
	"github.com/roach88/eventc/internal/logger"
	"github.com/roach88/eventc/internal/resolve"
	"github.com/roach88/eventc/internal/testutil"
)

// Harness compiles scenarios against a fixed event registry.
type Harness struct {
	compiler *compiler.Compiler
	logger   *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger used for scenario progress.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// New returns a Harness compiling with reg.
func New(reg *compiler.Registry, opts ...Option) *Harness {
	h := &Harness{logger: logger.Discard()}
	for _, opt := range opts {
		opt(h)
	}
	h.compiler = compiler.New(reg, compiler.WithLogger(h.logger))
	return h
}

var builtinRegistry = sync.OnceValues(events.NewRegistry)

// Run executes a scenario against the built-in event catalog.
func Run(scenario *Scenario) (*Result, error) {
	reg, err := builtinRegistry()
	if err != nil {
		return nil, fmt.Errorf("load event catalog: %w", err)
	}
	return New(reg).Run(context.Background(), scenario)
}

// Run compiles the scenario and evaluates its expectations.
//
// The returned error reports a harness failure. Scenario failures are
// reported through Result.Pass and Result.Errors.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	if scenario == nil {
		return nil, errors.New("nil scenario")
	}
	r := resolve.New(scenario.Project)
	if scenario.Self != "" {
		r = r.WithSelf(scenario.Self)
	}
	script := scenario.Script()

	w := emit.NewWriter(r)
	writeErr := h.compiler.CompileScript(ctx, script, w)

	rec := testutil.NewRecorder(r)
	recordErr := h.compiler.CompileScript(ctx, script, rec)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if (writeErr == nil) != (recordErr == nil) {
		return nil, fmt.Errorf("backends disagree: writer: %v, recorder: %v", writeErr, recordErr)
	}

	result := NewResult()
	result.Calls = rec.Calls()
	for _, v := range rec.Violations() {
		result.AddError("scratch local violation: " + v)
	}

	if writeErr != nil {
		result.ErrorCode = string(compiler.CodeOf(writeErr))
		checkExpectedError(result, scenario.Expect, writeErr)
		h.logger.Debug("scenario finished", "scenario", scenario.Name, "pass", result.Pass, "code", result.ErrorCode)
		return result, nil
	}

	result.Instructions = w.Finish()
	result.Output = ir.Format(result.Instructions)
	if scenario.Expect != nil {
		result.AddError(fmt.Sprintf("expected error %s, but compilation succeeded", scenario.Expect.Error))
	}
	for _, err := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(err.Error())
	}

	h.logger.Debug("scenario finished", "scenario", scenario.Name, "pass", result.Pass)
	return result, nil
}

func checkExpectedError(result *Result, expect *ExpectClause, err error) {
	if expect == nil {
		result.AddError("unexpected compile error: " + err.Error())
		return
	}
	if result.ErrorCode != expect.Error {
		result.AddError(fmt.Sprintf("expected error %s, got %s: %v", expect.Error, result.ErrorCode, err))
	}
	if expect.Path == "" {
		return
	}
	var ce *compiler.CompileError
	if !errors.As(err, &ce) {
		result.AddError(fmt.Sprintf("expected error at %s, got an error without a path", expect.Path))
		return
	}
	if string(ce.Path) != expect.Path {
		result.AddError(fmt.Sprintf("expected error at %s, got %s", expect.Path, ce.Path))
	}
}
