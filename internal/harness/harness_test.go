package harness

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eventc/internal/compiler"
	"github.com/roach88/eventc/internal/ir"
	"github.com/roach88/eventc/internal/resolve"
)

func TestScenariosMatchGolden(t *testing.T) {
	scenarios, err := LoadScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, sc := range scenarios {
		t.Run(sc.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, sc)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRunReportsExpectedErrorPath(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("testdata", "scenarios", "unresolved_self.yaml"))
	require.NoError(t, err)

	result, err := Run(sc)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, string(compiler.CodeUnresolvedAlias), result.ErrorCode)
	assert.Empty(t, result.Output)
}

func TestRunWithSelfResolves(t *testing.T) {
	sc := &Scenario{
		Name:        "self_move",
		Description: "self resolves through the actor table",
		Project:     resolve.Tables{Actors: map[string]int64{"npc": 5}},
		Self:        "npc",
		Events: []ir.EventNode{
			{Command: "EVENT_MOVE_ACTOR_TO_TEST", Args: ir.Object{"actor": ir.String("$self$")}},
		},
		Assertions: []Assertion{
			{Type: AssertCallsContain, Lines: []string{"push-actor $self$ 5", "call-native vm_move_actor_to_test", "pop 1"}},
			{Type: AssertStackBalanced},
		},
	}

	result, err := Run(sc)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Contains(t, result.Output, "VM_PUSH_CONST           5")
}

func TestRunUnexpectedError(t *testing.T) {
	sc := &Scenario{
		Name:        "unknown",
		Description: "unknown command",
		Events:      []ir.EventNode{{Command: "EVENT_NOPE"}},
		Assertions:  []Assertion{{Type: AssertStackBalanced}},
	}

	result, err := Run(sc)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, string(compiler.CodeUnknownEvent), result.ErrorCode)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected compile error")
}

func TestRunExpectedErrorButCompiled(t *testing.T) {
	sc := &Scenario{
		Name:        "compiles",
		Description: "expects an error that never comes",
		Events:      []ir.EventNode{{Command: "EVENT_ENABLE_EDITOR"}},
		Expect:      &ExpectClause{Error: "UNKNOWN_EVENT"},
	}

	result, err := Run(sc)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected error UNKNOWN_EVENT")
}

func TestRunWrongErrorCodeAndPath(t *testing.T) {
	sc := &Scenario{
		Name:        "wrong",
		Description: "mismatched expectation",
		Events:      []ir.EventNode{{Command: "EVENT_NOPE"}},
		Expect:      &ExpectClause{Error: "SCHEMA_MISMATCH", Path: "events[1]"},
	}

	result, err := Run(sc)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "expected error SCHEMA_MISMATCH, got UNKNOWN_EVENT")
	assert.Contains(t, result.Errors[1], "expected error at events[1], got events[0]")
}

func TestRunFailingAssertion(t *testing.T) {
	sc := &Scenario{
		Name:        "count",
		Description: "wrong native count",
		Events:      []ir.EventNode{{Command: "EVENT_ENABLE_EDITOR"}},
		Assertions:  []Assertion{{Type: AssertNativeCount, Native: "vm_enable_editor", Count: 2}},
	}

	result, err := Run(sc)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "2 calls to vm_enable_editor")
}

func TestHarnessRunCancelled(t *testing.T) {
	reg := compiler.NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(reg).Run(ctx, &Scenario{Name: "x", Events: []ir.EventNode{{Command: "EVENT_X"}}})
	require.Error(t, err)
}

func TestRunNilScenario(t *testing.T) {
	_, err := New(compiler.NewRegistry()).Run(context.Background(), nil)
	require.Error(t, err)
}

func TestGoldenBytesForError(t *testing.T) {
	got := GoldenBytes(&Result{ErrorCode: "RAW_REJECTED"})
	assert.Equal(t, "error: RAW_REJECTED\n", string(got))
	assert.True(t, strings.HasSuffix(string(GoldenBytes(&Result{Output: "x\n"})), "\n"))
}
