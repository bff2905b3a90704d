package compiler

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/eventc/internal/ir"
)

// ErrDuplicateEvent is returned when two definitions share an id.
var ErrDuplicateEvent = errors.New("duplicate event id")

// Registry maps event ids to definitions. It is filled at startup and read
// concurrently afterwards.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*EventDefinition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*EventDefinition)}
}

// Register validates and adds definitions. The batch is all or nothing: an
// invalid definition, or an id already registered or repeated in defs,
// leaves the registry unchanged.
func (r *Registry) Register(defs ...*EventDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		if errs := Validate(def); len(errs) > 0 {
			msgs := make([]string, len(errs))
			for i, e := range errs {
				msgs[i] = e.Error()
			}
			return &CompileError{
				Code:    CodeInvalidDefinition,
				EventID: def.ID,
				Message: strings.Join(msgs, "; "),
			}
		}
		if _, exists := r.defs[def.ID]; exists || seen[def.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateEvent, def.ID)
		}
		seen[def.ID] = true
	}
	for _, def := range defs {
		r.defs[def.ID] = def
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(defs ...*EventDefinition) {
	if err := r.Register(defs...); err != nil {
		panic(err)
	}
}

// Lookup returns the definition registered under id.
func (r *Registry) Lookup(id string) (*EventDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[id]
	return def, ok
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// Definitions returns every definition sorted by id.
func (r *Registry) Definitions() []*EventDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*EventDefinition, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Fingerprint identifies the registry contents for cache keys.
func (r *Registry) Fingerprint() (string, error) {
	defs := r.Definitions()
	arr := make(ir.Array, len(defs))
	for i, def := range defs {
		arr[i] = def.ToValue()
	}
	return ir.Fingerprint(ir.DomainRegistry, ir.Object{
		"compiler_version": ir.String(ir.CompilerVersion),
		"events":           arr,
	})
}
