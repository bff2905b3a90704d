package events

import (
	"strings"

	"github.com/roach88/eventc/internal/compiler"
	"github.com/roach88/eventc/internal/ir"
	"github.com/roach88/eventc/internal/schema"
)

const defaultSuiteName = "Test Suite"

func testStart() *compiler.EventDefinition {
	return &compiler.EventDefinition{
		ID:     "EVENT_TEST_START",
		Name:   "Test: Start Test Suite",
		Groups: []string{GroupTest},
		Fields: []schema.FieldSpec{
			{Key: "test_name", Label: "Test Name", Type: schema.TypeText, Default: defaultSuiteName},
			{Key: "debug_enabled", Label: "Debug Messages", Type: schema.TypeCheckbox, Default: true},
		},
		Compile: func(c *compiler.Context) error {
			h := c.Helpers
			name := c.Input.String("test_name")
			if name == "" {
				name = defaultSuiteName
			}

			h.Comment("Start Test Suite: " + name)
			h.Newline()
			h.CallNative("test_harness_init")
			h.Newline()
			h.CallNative("test_start_execution")
			h.Newline()

			if c.Input.Bool("debug_enabled") {
				if err := h.TextDialogue("Starting tests: " + escapePercent(name)); err != nil {
					return err
				}
				h.Newline()
			}
			return nil
		},
	}
}

func testEnd() *compiler.EventDefinition {
	return &compiler.EventDefinition{
		ID:     "EVENT_TEST_END",
		Name:   "Test: End Test Suite",
		Groups: []string{GroupTest},
		Fields: []schema.FieldSpec{
			{Key: "show_results", Label: "Show Final Results", Type: schema.TypeCheckbox, Default: true},
		},
		Compile: func(c *compiler.Context) error {
			h := c.Helpers
			h.Comment("End Test Suite")
			h.Newline()

			if c.Input.Bool("show_results") {
				passed := h.DeclareLocal("passed_count", 1, true)
				failed := h.DeclareLocal("failed_count", 1, true)
				h.CallNative("test_get_passed_count")
				h.SetVariable(passed, ir.RegResult)
				h.CallNative("test_get_failed_count")
				h.SetVariable(failed, ir.RegResult)
				h.Newline()

				if err := h.TextDialogue("Tests Complete - Passed: %d Failed: %d", passed, failed); err != nil {
					return err
				}
				h.Newline()
			}

			h.CallNative("test_stop_execution")
			h.Newline()
			return nil
		},
	}
}

func testVerifyVariable() *compiler.EventDefinition {
	return &compiler.EventDefinition{
		ID:     "EVENT_TEST_VERIFY_VARIABLE",
		Name:   "Test: Verify Variable",
		Groups: []string{GroupTest},
		Fields: []schema.FieldSpec{
			{Key: "variable", Label: "Variable", Type: schema.TypeVariable, Default: schema.LastVariable},
			{Key: "expected_value", Label: "Expected Value", Type: schema.TypeValue, Default: 0,
				Min: schema.Int64(0), Max: schema.Int64(255)},
			{Key: "test_label", Label: "Test Label", Type: schema.TypeText, Default: "Test"},
			{Key: "true", Label: "On Pass", Type: schema.TypeEvents},
			{Key: "false", Label: "On Fail", Type: schema.TypeEvents},
		},
		AutoLabel: func(in schema.Input) string {
			return "Verify $" + in.Fetch("variable") + " == " + in.Fetch("expected_value")
		},
		Compile: compileVerifyVariable,
	}
}

// compileVerifyVariable reports PASS or FAIL, then runs the matching branch.
func compileVerifyVariable(c *compiler.Context) error {
	h := c.Helpers
	alias, err := h.VariableAlias(c.Input.String("variable"))
	if err != nil {
		return err
	}
	expected, err := scriptValueOperand(c, "expected_value")
	if err != nil {
		return err
	}

	label := escapePercent(c.Input.String("test_label"))
	report := func(verdict string) func() error {
		return func() error { return h.TextDialogue(label + ": " + verdict) }
	}
	if err := h.IfCompare(ir.EQ, ir.Sym(alias), expected, report("PASS"), report("FAIL")); err != nil {
		return err
	}
	return h.IfCompare(ir.EQ, ir.Sym(alias), expected, c.Branch("true"), c.Branch("false"))
}

// escapePercent makes user text safe to embed in dialogue format strings.
func escapePercent(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}
