package testutil

import (
	"strconv"

	"github.com/roach88/eventc/internal/resolve"
)

// IdentityResolver resolves every variable handle to itself and every numeric
// actor id to its value. Non-numeric actor ids resolve to 0.
type IdentityResolver struct{}

func (IdentityResolver) VariableAlias(handle string) (string, error) {
	if handle == "" {
		return "", &resolve.UnresolvedError{Kind: resolve.KindVariable, Handle: handle}
	}
	return handle, nil
}

func (IdentityResolver) ActorIndex(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// StaticResolver resolves from fixed maps and fails on anything else.
type StaticResolver struct {
	Aliases map[string]string
	Actors  map[string]int64
}

func (s StaticResolver) VariableAlias(handle string) (string, error) {
	alias, ok := s.Aliases[handle]
	if !ok {
		return "", &resolve.UnresolvedError{Kind: resolve.KindVariable, Handle: handle}
	}
	return alias, nil
}

func (s StaticResolver) ActorIndex(id string) (int64, error) {
	idx, ok := s.Actors[id]
	if !ok {
		return 0, &resolve.UnresolvedError{Kind: resolve.KindActor, Handle: id}
	}
	return idx, nil
}
