// Package events is the built-in event catalog.
//
// Events that are a single native call are declared in catalog.cue. Events
// with control flow, text or computed arguments are written in Go against
// compiler.Context.
package events

import (
	"github.com/roach88/eventc/internal/compiler"
)

// Group names shared across events.
const (
	GroupControlFlow = "EVENT_GROUP_CONTROL_FLOW"
	GroupActor       = "EVENT_GROUP_ACTOR"
	GroupMisc        = "EVENT_GROUP_MISC"
	GroupMultiplayer = "EVENT_GROUP_MULTIPLAYER"
	GroupTest        = "EVENT_GROUP_TEST"
	GroupScript      = "EVENT_GROUP_SCRIPT"
)

// Coded returns the events implemented in Go.
func Coded() []*compiler.EventDefinition {
	return []*compiler.EventDefinition{
		ifVariableCompare(),
		ifActorDistanceFromActor(),
		moveActorToTest(),
		saveLevelCode(),
		loadLevelCode(),
		loadLevelCodeIntoMemory(),
		testStart(),
		testEnd(),
		testVerifyVariable(),
		linkHost(),
		gbvmScript(),
	}
}

// Builtin returns every built-in definition: the declared catalog followed
// by the Go events.
func Builtin() ([]*compiler.EventDefinition, error) {
	declared, err := Declared()
	if err != nil {
		return nil, err
	}
	return append(declared, Coded()...), nil
}

// Register adds every built-in definition to reg. A duplicate id is a
// startup failure.
func Register(reg *compiler.Registry) error {
	defs, err := Builtin()
	if err != nil {
		return err
	}
	return reg.Register(defs...)
}

// NewRegistry returns a registry holding the built-in catalog.
func NewRegistry() (*compiler.Registry, error) {
	reg := compiler.NewRegistry()
	if err := Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}
