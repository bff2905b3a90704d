package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const runSelect = `SELECT id, project, script_count, cache_hits, status, error, seq FROM compile_runs`

func TestCompileRunQuery(t *testing.T) {
	tests := []struct {
		name       string
		query      RunQuery
		wantSQL    string
		wantParams []any
	}{
		{
			name:       "no filter",
			query:      RunQuery{},
			wantSQL:    runSelect + " ORDER BY seq DESC, id COLLATE BINARY ASC LIMIT ?",
			wantParams: []any{-1},
		},
		{
			name:       "equals",
			query:      RunQuery{Filter: Equals{Column: "project", Value: "game"}, Limit: 5},
			wantSQL:    runSelect + " WHERE project = ? ORDER BY seq DESC, id COLLATE BINARY ASC LIMIT ?",
			wantParams: []any{"game", 5},
		},
		{
			name: "and",
			query: RunQuery{Filter: &And{Predicates: []Predicate{
				Equals{Column: "project", Value: "game"},
				&Equals{Column: "cache_hits", Value: 2},
			}}},
			wantSQL:    runSelect + " WHERE (project = ? AND cache_hits = ?) ORDER BY seq DESC, id COLLATE BINARY ASC LIMIT ?",
			wantParams: []any{"game", int64(2), -1},
		},
		{
			name:       "empty and",
			query:      RunQuery{Filter: And{}},
			wantSQL:    runSelect + " WHERE 1 = 1 ORDER BY seq DESC, id COLLATE BINARY ASC LIMIT ?",
			wantParams: []any{-1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := compileRunQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestCompileRunQueryRejects(t *testing.T) {
	tests := []struct {
		name    string
		filter  Predicate
		wantErr string
	}{
		{"unknown column", Equals{Column: "output; DROP TABLE compile_runs", Value: "x"}, "unknown run column"},
		{"bad value", Equals{Column: "status", Value: 1.5}, "unsupported value type"},
		{"nested bad", And{Predicates: []Predicate{Equals{Column: "nope", Value: "x"}}}, "unknown run column"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := compileRunQuery(RunQuery{Filter: tt.filter})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFindRuns(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	for _, r := range []Run{
		{Project: "game", Status: RunOK},
		{Project: "demo", Status: RunOK},
		{Project: "game", Status: RunFailed, Error: "[UNKNOWN_EVENT] x"},
	} {
		_, err := s.RecordRun(ctx, r)
		require.NoError(t, err)
	}

	runs, err := s.FindRuns(ctx, RunQuery{Filter: Equals{Column: "project", Value: "game"}})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, RunFailed, runs[0].Status)
	assert.Equal(t, RunOK, runs[1].Status)

	runs, err = s.FindRuns(ctx, RunQuery{Filter: And{Predicates: []Predicate{
		Equals{Column: "project", Value: "game"},
		Equals{Column: "status", Value: RunOK},
	}}})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)

	_, err = s.FindRuns(ctx, RunQuery{Filter: Equals{Column: "error", Value: "x"}})
	assert.Error(t, err)
}

func TestFindRunsEmptyStore(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	runs, err := s.FindRuns(ctx, RunQuery{})
	require.NoError(t, err)
	assert.Empty(t, runs)

	runs, err = s.ListRuns(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
