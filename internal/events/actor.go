package events

import (
	"fmt"

	"github.com/roach88/eventc/internal/compiler"
	"github.com/roach88/eventc/internal/ir"
	"github.com/roach88/eventc/internal/schema"
)

func moveActorToTest() *compiler.EventDefinition {
	return &compiler.EventDefinition{
		ID:     "EVENT_MOVE_ACTOR_TO_TEST",
		Name:   "Move Actor to Test",
		Groups: []string{"Actor"},
		Fields: []schema.FieldSpec{
			{Key: "actor", Label: "Actor", Type: schema.TypeActor, Default: "0"},
		},
		Compile: func(c *compiler.Context) error {
			h := c.Helpers
			actor := c.Input.String("actor")
			h.Comment("Move actor to hardcoded position (5,10)")
			if err := h.ActorSetActive(actor); err != nil {
				return err
			}
			if err := h.ActorPushByID(actor); err != nil {
				return err
			}
			h.CallNative("vm_move_actor_to_test")
			h.Pop(1)
			return nil
		},
	}
}

// distanceNative leaves the tile distance between its two actor arguments
// in .ARG0.
const distanceNative = "vm_get_actor_distance"

func ifActorDistanceFromActor() *compiler.EventDefinition {
	elseFields := schema.ElseFields("True", "False")
	elseFields[1].Default = true

	fields := []schema.FieldSpec{
		{Key: "actorId", Label: "Actor", Type: schema.TypeActor, Default: schema.PlayerActor},
		{Type: schema.TypeGroup, Fields: []schema.FieldSpec{
			{Key: "operator", Label: "Comparison", Type: schema.TypeOperator, Default: "<="},
			{Key: "distance", Label: "Distance", Type: schema.TypeValue, Default: 0,
				Min: schema.Int64(0), Max: schema.Int64(181)},
		}},
		{Key: "otherActorId", Label: "From", Type: schema.TypeActor, Default: schema.SelfActor},
	}
	fields = append(fields, elseFields...)

	return &compiler.EventDefinition{
		ID:          "EVENT_IF_ACTOR_DISTANCE_FROM_ACTOR",
		Name:        "If Actor Distance From Actor",
		Description: "Conditionally run events based on the distance between two actors.",
		Groups:      []string{GroupControlFlow, GroupActor},
		SubGroups: map[string]string{
			GroupActor:       GroupControlFlow,
			GroupControlFlow: GroupActor,
		},
		Fields: fields,
		Helper: map[string]string{
			"type":     "distance",
			"actorId":  "otherActorId",
			"distance": "distance",
			"operator": "operator",
		},
		AutoLabel: func(in schema.Input) string {
			return fmt.Sprintf("If %s distance %s %s from %s",
				in.Fetch("actorId"), in.Fetch("operator"), in.Fetch("distance"), in.Fetch("otherActorId"))
		},
		Compile: compileIfActorDistance,
	}
}

// compileIfActorDistance measures the distance into a scratch local and
// compares it with the evaluated distance value. The native result is copied
// out of .ARG0 before the actor arguments are popped.
func compileIfActorDistance(c *compiler.Context) error {
	h := c.Helpers
	in := c.Input

	distance := h.DeclareLocal("distance", 1, true)
	measured := h.DeclareLocal("measured", 1, true)
	if err := h.SetToScriptValue(distance, in.ScriptValue("distance")); err != nil {
		return err
	}

	if err := h.ActorPushByID(in.String("otherActorId")); err != nil {
		return err
	}
	if err := h.ActorPushByID(in.String("actorId")); err != nil {
		return err
	}
	h.CallNative(distanceNative)
	h.SetVariable(measured, ir.RegResult)
	h.Pop(2)

	return h.IfCompare(in.Operator("operator"), ir.Sym(measured), ir.Sym(distance),
		c.Branch("true"), c.ElseBranch("false"))
}
