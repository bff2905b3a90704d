package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eventc/internal/config"
	"github.com/roach88/eventc/internal/store"
)

func executeRuns(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRunsCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// compileRun compiles project into the cache at db and returns the run id.
func compileRun(t *testing.T, db, project string) string {
	t.Helper()
	out, _, _ := executeCompile(t, &RootOptions{Format: "json"}, project, "--cache", db)
	var resp struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp.RunID
}

func TestRunsListEmpty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "eventc.db")
	out, err := executeRuns(t, &RootOptions{Format: "text"}, "list", "--cache", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestRunsListNewestFirst(t *testing.T) {
	db := filepath.Join(t.TempDir(), "eventc.db")
	first := compileRun(t, db, gameProject)
	second := compileRun(t, db, gameProject)
	require.NotEmpty(t, first)
	require.NotEqual(t, first, second)

	out, err := executeRuns(t, &RootOptions{Format: "json"}, "list", "--cache", db)
	require.NoError(t, err)

	var resp struct {
		Data []RunInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, second, resp.Data[0].ID)
	assert.Equal(t, first, resp.Data[1].ID)
	assert.Equal(t, 2, resp.Data[0].CacheHits)
	assert.Equal(t, store.RunOK, resp.Data[0].Status)

	out, err = executeRuns(t, &RootOptions{Format: "text"}, "list", "--cache", db, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "RUN")
	assert.Contains(t, out, second)
	assert.NotContains(t, out, first)
}

func TestRunsShowOutputs(t *testing.T) {
	db := filepath.Join(t.TempDir(), "eventc.db")
	id := compileRun(t, db, gameProject)

	compiled, _, err := executeCompile(t, &RootOptions{Format: "text"}, gameProject)
	require.NoError(t, err)

	out, err := executeRuns(t, &RootOptions{Format: "text"}, "show", id, "--cache", db, "--output")
	require.NoError(t, err)
	assert.Contains(t, out, "Run "+id)
	assert.Contains(t, out, "project: game")
	assert.Contains(t, out, "scripts: 2 (0 from cache)")
	assert.Contains(t, out, "; script editor_init (")
	assert.Contains(t, compiled, "        VM_CALL_NATIVE          b_vm_paint, _vm_paint\n")
	assert.Contains(t, out, "        VM_CALL_NATIVE          b_vm_paint, _vm_paint\n")
}

func TestRunsShowJSONWithoutOutput(t *testing.T) {
	db := filepath.Join(t.TempDir(), "eventc.db")
	id := compileRun(t, db, gameProject)

	out, err := executeRuns(t, &RootOptions{Format: "json"}, "show", id, "--cache", db)
	require.NoError(t, err)

	var resp struct {
		Data  RunInfo `json:"data"`
		RunID string  `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, id, resp.RunID)
	require.Len(t, resp.Data.Scripts, 2)
	assert.Equal(t, "editor_init", resp.Data.Scripts[0].Name)
	assert.Len(t, resp.Data.Scripts[0].Hash, 64)
	assert.Empty(t, resp.Data.Scripts[0].Output)
}

func TestRunsShowFailedRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "eventc.db")
	id := compileRun(t, db, "testdata/invalid.yaml")
	require.NotEmpty(t, id)

	out, err := executeRuns(t, &RootOptions{Format: "text"}, "show", id, "--cache", db)
	require.NoError(t, err)
	assert.Contains(t, out, "status:  "+store.RunFailed)
	assert.Contains(t, out, "UNKNOWN_EVENT")
	assert.NotContains(t, out, "; script")
}

func TestRunsShowUnknown(t *testing.T) {
	db := filepath.Join(t.TempDir(), "eventc.db")
	out, err := executeRuns(t, &RootOptions{Format: "text"}, "show", "no-such-run", "--cache", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeNotFound+"]")
}

func TestRunsCacheFromConfig(t *testing.T) {
	db := filepath.Join(t.TempDir(), "eventc.db")
	compileRun(t, db, gameProject)

	cfg := config.Default()
	cfg.Cache = db
	out, err := executeRuns(t, &RootOptions{Format: "json", Config: cfg}, "list")
	require.NoError(t, err)
	assert.Contains(t, out, `"project": "game"`)
}

func TestRunsNoCache(t *testing.T) {
	out, err := executeRuns(t, &RootOptions{Format: "text"}, "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeCache+"]")
	assert.Equal(t, 1, strings.Count(out, ErrCodeCache), out)
	assert.Equal(t, 1, strings.Count(err.Error(), ErrCodeCache), err.Error())
}

func TestRunsListFilter(t *testing.T) {
	db := filepath.Join(t.TempDir(), "eventc.db")
	okID := compileRun(t, db, gameProject)
	failedID := compileRun(t, db, "testdata/invalid.yaml")

	out, err := executeRuns(t, &RootOptions{Format: "json"}, "list", "--cache", db, "--status", store.RunFailed)
	require.NoError(t, err)
	var resp struct {
		Data []RunInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, failedID, resp.Data[0].ID)

	out, err = executeRuns(t, &RootOptions{Format: "json"}, "list", "--cache", db, "--project", "game")
	require.NoError(t, err)
	resp.Data = nil
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, okID, resp.Data[0].ID)
}
