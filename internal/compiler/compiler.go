package compiler

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/eventc/internal/emit"
	"github.com/roach88/eventc/internal/ir"
	"github.com/roach88/eventc/internal/schema"
)

const tracerName = "github.com/roach88/eventc/internal/compiler"

// Compiler walks event trees and lowers each node through its registered
// definition.
//
// One script compiles strictly in order: children are fully emitted inside
// their parent's branch before the parent's next instruction. Separate scripts
// may compile concurrently with separate Helpers.
type Compiler struct {
	registry *Registry
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for per-event debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *Compiler) { c.tracer = t }
}

// New returns a Compiler over reg.
func New(reg *Registry, opts ...Option) *Compiler {
	c := &Compiler{
		registry: reg,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the registry the compiler looks events up in.
func (c *Compiler) Registry() *Registry {
	return c.registry
}

// walk is the state shared by every node of one compile call.
type walk struct {
	ctx    context.Context
	events int
}

// CompileScript emits every event of script into h.
func (c *Compiler) CompileScript(ctx context.Context, script ir.Script, h emit.Helpers) error {
	ctx, span := c.tracer.Start(ctx, "eventc.compile_script",
		trace.WithAttributes(
			attribute.String("eventc.script", script.Name),
			attribute.Int("eventc.event_count", ir.Count(script.Events)),
		))
	defer span.End()

	w := &walk{ctx: ctx}
	err := c.compileList(w, script.Events, h, "", "events")
	span.SetAttributes(attribute.Int("eventc.events_compiled", w.events))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(CodeOf(err)))
		return err
	}
	c.logger.Debug("compiled script", "script", script.Name, "events", w.events)
	return nil
}

// CompileEvents emits a bare event list into h. Paths are rooted at "events".
func (c *Compiler) CompileEvents(ctx context.Context, events []ir.EventNode, h emit.Helpers) error {
	return c.compileList(&walk{ctx: ctx}, events, h, "", "events")
}

func (c *Compiler) compileList(w *walk, events []ir.EventNode, h emit.Helpers, parent ir.Path, key string) error {
	for i, node := range events {
		if err := c.compileNode(w, node, h, parent.Child(key, i)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileNode(w *walk, node ir.EventNode, h emit.Helpers, path ir.Path) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}

	def, ok := c.registry.Lookup(node.Command)
	if !ok {
		return &CompileError{
			Code:    CodeUnknownEvent,
			EventID: node.Command,
			NodeID:  node.ID,
			Path:    path,
			Message: "no event registered with this id",
		}
	}

	input, err := schema.ResolveInput(def.Fields, node)
	if err != nil {
		return wrapEventError(err, def, node, path)
	}

	scoper, scoped := h.(emit.EventScoper)
	if scoped {
		scoper.BeginEvent(def.ID)
	}
	before := h.Depth()
	cc := &Context{
		Input:    input,
		Helpers:  h,
		Event:    def,
		Node:     node,
		Path:     path,
		compiler: c,
		scope:    w,
	}
	err = def.compileFunc()(cc)
	after := h.Depth()
	if scoped {
		scoper.EndEvent()
	}
	if err != nil {
		return wrapEventError(err, def, node, path)
	}
	if after != before {
		return &CompileError{
			Code:    CodeStackImbalance,
			EventID: def.ID,
			NodeID:  node.ID,
			Path:    path,
			Message: fmt.Sprintf("operand stack depth %d after compile, expected %d", after, before),
		}
	}

	w.events++
	c.logger.Debug("compiled event", "event", def.ID, "path", string(path), "label", def.Label(input))
	return nil
}
