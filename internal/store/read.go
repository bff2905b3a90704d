package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrRunNotFound is returned when a run id is not in the log.
var ErrRunNotFound = errors.New("run not found")

// Lookup returns the output saved under hash.
func (s *Store) Lookup(ctx context.Context, hash string) (string, bool, error) {
	var output string
	err := s.db.QueryRowContext(ctx,
		`SELECT output FROM compiled_scripts WHERE hash = ?`, hash,
	).Scan(&output)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup script: %w", err)
	}
	return output, true, nil
}

// CompiledScript is one cache row.
type CompiledScript struct {
	Hash            string
	Name            string
	Output          string
	IRVersion       string
	CompilerVersion string
	Seq             int64
}

// ReadRun returns a run and the hashes of its scripts.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project, script_count, cache_hits, status, error, seq
		FROM compile_runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.Project, &run.ScriptCount, &run.CacheHits, &run.Status, &run.Error, &run.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT script_hash FROM run_scripts
		WHERE run_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return Run{}, fmt.Errorf("read run scripts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return Run{}, fmt.Errorf("scan run script: %w", err)
		}
		run.Scripts = append(run.Scripts, hash)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("read run scripts: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means all.
// Scripts are not loaded.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	return s.FindRuns(ctx, RunQuery{Limit: limit})
}

// RunOutputs returns the compiled scripts of a successful run in project
// order, so an earlier compile can be reproduced byte for byte.
func (s *Store) RunOutputs(ctx context.Context, id string) ([]CompiledScript, error) {
	if _, err := s.ReadRun(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.hash, c.script_name, c.output, c.ir_version, c.compiler_version, c.seq
		FROM run_scripts r
		JOIN compiled_scripts c ON c.hash = r.script_hash
		WHERE r.run_id = ?
		ORDER BY r.position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("run outputs: %w", err)
	}
	defer rows.Close()

	var out []CompiledScript
	for rows.Next() {
		var cs CompiledScript
		if err := rows.Scan(&cs.Hash, &cs.Name, &cs.Output, &cs.IRVersion, &cs.CompilerVersion, &cs.Seq); err != nil {
			return nil, fmt.Errorf("scan compiled script: %w", err)
		}
		out = append(out, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run outputs: %w", err)
	}
	return out, nil
}

// CountScripts returns the number of cached scripts.
func (s *Store) CountScripts(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM compiled_scripts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count scripts: %w", err)
	}
	return n, nil
}
