package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eventc/internal/compiler"
	"github.com/roach88/eventc/internal/events"
	"github.com/roach88/eventc/internal/ir"
	"github.com/roach88/eventc/internal/project"
)

func executeValidate(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateValidProject(t *testing.T) {
	out, err := executeValidate(t, "text", gameProject)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All 2 script(s) valid")
}

func TestValidateReportsAllErrors(t *testing.T) {
	out, err := executeValidate(t, "text", "testdata/invalid.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "broken: events[0] command")
	assert.Contains(t, out, compiler.ErrScriptUnknownEvent)
	assert.Contains(t, out, "broken: events[1] storage_type")
	assert.Contains(t, out, compiler.ErrScriptFieldMismatch)
}

func TestValidateJSON(t *testing.T) {
	out, err := executeValidate(t, "json", "testdata/invalid.yaml")
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 2)
	assert.Equal(t, "broken", resp.Data.Errors[0].Script)
	assert.Equal(t, "events[0]", resp.Data.Errors[0].Path)
	assert.Equal(t, compiler.ErrScriptUnknownEvent, resp.Error.Code)
}

func TestValidateMissingProject(t *testing.T) {
	out, err := executeValidate(t, "text", "testdata/missing.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, project.ErrCodeNotFound)
}

func TestValidateProjectStrayChildren(t *testing.T) {
	reg, err := events.NewRegistry()
	require.NoError(t, err)
	p := &project.Project{Name: "p", Scripts: []ir.Script{{
		Name: "s",
		Events: []ir.EventNode{{
			Command:  "EVENT_ENABLE_EDITOR",
			Children: map[string][]ir.EventNode{"true": {{Command: "EVENT_ENABLE_EDITOR"}}},
		}},
	}}}

	issues := ValidateProject(reg, p, &OutputFormatter{Writer: io.Discard})
	require.Len(t, issues, 1)
	assert.Equal(t, "s", issues[0].Script)
	assert.Equal(t, compiler.ErrScriptStrayChildren, issues[0].Code)
	assert.Equal(t, "true", issues[0].Field)
}
