package events

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/eventc/internal/compiler"
	"github.com/roach88/eventc/internal/schema"
)

//go:embed catalog.cue
var catalogSource []byte

// catalogLabels adds instance labels to declared events. CUE cannot carry
// functions, so they are attached after loading.
var catalogLabels = map[string]func(schema.Input) string{
	"EVENT_CYCLE_CHARACTER": func(in schema.Input) string {
		return fmt.Sprintf("Cycle character at (%s, %s)", in.Fetch("x"), in.Fetch("y"))
	},
	"EVENT_PAINT_TILE": func(in schema.Input) string {
		return fmt.Sprintf("Paint tile at (%s, %s)", in.Fetch("x"), in.Fetch("y"))
	},
	"EVENT_GET_LEVEL_CODE_CHARACTER": func(in schema.Input) string {
		return fmt.Sprintf("Get level code character %s", in.Fetch("charIndex"))
	},
	"EVENT_SET_LEVEL_CODE_CHARACTER": func(in schema.Input) string {
		return fmt.Sprintf("Set level code character %s to %s", in.Fetch("charIndex"), in.Fetch("value"))
	},
}

// Declared loads the native-call events declared in the embedded catalog,
// in declaration order.
func Declared() ([]*compiler.EventDefinition, error) {
	return LoadCatalog("catalog.cue", catalogSource)
}

// LoadCatalog compiles CUE source holding an `event` struct into
// definitions. filename only appears in error positions.
func LoadCatalog(filename string, src []byte) ([]*compiler.EventDefinition, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile %s: %w", filename, err)
	}

	eventsVal := v.LookupPath(cue.ParsePath("event"))
	if !eventsVal.Exists() {
		return nil, fmt.Errorf("%s: no event struct", filename)
	}
	iter, err := eventsVal.Fields()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	var defs []*compiler.EventDefinition
	for iter.Next() {
		def, err := compiler.CompileEventDef(iter.Value())
		if err != nil {
			return nil, err
		}
		if label, ok := catalogLabels[def.ID]; ok {
			def.AutoLabel = label
		}
		defs = append(defs, def)
	}
	return defs, nil
}
