// Package compiler lowers saved event trees into VM instructions.
//
// An EventDefinition pairs a field schema with a compile function. The
// Compiler walks a script depth-first, resolves each node's input against its
// definition's fields and hands the result to the compile function together
// with the emission Helpers. Definitions live in a Registry built once at
// startup.
package compiler

import (
	"github.com/roach88/eventc/internal/emit"
	"github.com/roach88/eventc/internal/ir"
	"github.com/roach88/eventc/internal/schema"
)

// CompileFunc emits the instructions for one event instance.
type CompileFunc func(c *Context) error

// EventDefinition describes one event type.
type EventDefinition struct {
	// ID is the registry key, e.g. "EVENT_PAINT_TILE".
	ID          string
	Name        string
	Description string
	Groups      []string
	// SubGroups maps a group name to a sub-group name.
	SubGroups map[string]string
	Fields    []schema.FieldSpec

	// Compile emits the event. When nil, Native must be set.
	Compile CompileFunc
	// Native declares a plain native call; used when Compile is nil.
	Native *NativeCall

	// AutoLabel renders the editor label for an instance. Optional.
	AutoLabel func(in schema.Input) string
	// Helper carries editor helper metadata, e.g. distance overlays.
	Helper map[string]string
	// WaitUntilAfterInitFade delays the event until the scene fade-in ends.
	WaitUntilAfterInitFade bool
}

func (d *EventDefinition) compileFunc() CompileFunc {
	if d.Compile != nil {
		return d.Compile
	}
	if d.Native != nil {
		return d.Native.Compile
	}
	return nil
}

// Label returns the instance label for in, falling back to the event name.
func (d *EventDefinition) Label(in schema.Input) string {
	if d.AutoLabel != nil {
		if label := d.AutoLabel(in); label != "" {
			return label
		}
	}
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// ToValue describes the definition for registry fingerprints. Compile
// functions cannot be hashed, so the description covers the declared surface.
func (d *EventDefinition) ToValue() ir.Object {
	obj := ir.Object{
		"id":     ir.String(d.ID),
		"fields": fieldsValue(d.Fields),
	}
	if d.Native != nil {
		obj["native"] = d.Native.toValue()
	}
	if d.WaitUntilAfterInitFade {
		obj["wait_until_after_init_fade"] = ir.Bool(true)
	}
	return obj
}

func fieldsValue(fields []schema.FieldSpec) ir.Array {
	arr := make(ir.Array, 0, len(fields))
	for _, f := range fields {
		obj := ir.Object{
			"key":  ir.String(f.Key),
			"type": ir.String(string(f.Type)),
		}
		if f.Default != nil {
			if v, err := ir.FromAny(f.Default); err == nil {
				obj["default"] = v
			}
		}
		if f.Min != nil {
			obj["min"] = ir.Int(*f.Min)
		}
		if f.Max != nil {
			obj["max"] = ir.Int(*f.Max)
		}
		if len(f.Options) > 0 {
			obj["options"] = stringsValue(f.Options)
		}
		if len(f.Types) > 0 {
			obj["types"] = stringsValue(f.Types)
			obj["default_type"] = ir.String(f.DefaultType)
		}
		if f.MaxLength > 0 {
			obj["max_length"] = ir.Int(f.MaxLength)
		}
		if len(f.Fields) > 0 {
			obj["fields"] = fieldsValue(f.Fields)
		}
		arr = append(arr, obj)
	}
	return arr
}

func stringsValue(list []string) ir.Array {
	arr := make(ir.Array, len(list))
	for i, s := range list {
		arr[i] = ir.String(s)
	}
	return arr
}

// Context is handed to a CompileFunc. It is valid only for the duration of
// that call.
type Context struct {
	Input   schema.Input
	Helpers emit.Helpers
	Event   *EventDefinition
	Node    ir.EventNode
	Path    ir.Path

	compiler *Compiler
	scope    *walk
}

// Branch returns a Block that compiles the child list stored under key.
// A missing list compiles to nothing.
func (c *Context) Branch(key string) emit.Block {
	events := c.Input.Events(key)
	return func() error {
		return c.compiler.compileList(c.scope, events, c.Helpers, c.Path, key)
	}
}

// ElseBranch is Branch for the false side of a conditional: it is empty when
// the node sets __disableElse. __collapseElse never affects output.
func (c *Context) ElseBranch(key string) emit.Block {
	if c.Input.Bool(schema.FlagDisableElse) {
		return func() error { return nil }
	}
	return c.Branch(key)
}
