// Package resolve maps user-facing variable handles and actor ids to the
// runtime slots the compiled script refers to.
package resolve

//go:generate mockgen -destination=mock/mock_resolver.go -package=mockresolve -source=resolver.go

import (
	"errors"
	"fmt"
)

// Resolver maps handles to runtime storage. Implementations must be
// deterministic; the compiler calls them once per use and never caches.
type Resolver interface {
	// VariableAlias returns the storage symbol for a variable handle.
	VariableAlias(handle string) (string, error)
	// ActorIndex returns the runtime index of an actor id.
	ActorIndex(id string) (int64, error)
}

// Kind of handle that failed to resolve.
const (
	KindVariable = "variable"
	KindActor    = "actor"
)

// UnresolvedError reports a handle the resolver cannot map.
type UnresolvedError struct {
	Kind   string
	Handle string
	Reason string
}

func (e *UnresolvedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unresolved %s %q: %s", e.Kind, e.Handle, e.Reason)
	}
	return fmt.Sprintf("unresolved %s %q", e.Kind, e.Handle)
}

// IsUnresolved reports whether err is or wraps an *UnresolvedError.
func IsUnresolved(err error) bool {
	var u *UnresolvedError
	return errors.As(err, &u)
}
