package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/eventc/internal/ir"
)

// Run status values.
const (
	RunOK     = "ok"
	RunFailed = "failed"
)

// Run is one project compile.
type Run struct {
	ID          string
	Project     string
	ScriptCount int
	CacheHits   int
	Status      string
	Error       string
	Seq         int64
	// Scripts holds the script hashes of a successful run, in project order.
	Scripts []string
}

// Save stores compiled output under hash. Saving a hash twice keeps the first
// row; equal hashes always carry equal output.
func (s *Store) Save(ctx context.Context, hash, script, output string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO compiled_scripts
		(hash, script_name, output, ir_version, compiler_version, seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`,
		hash,
		script,
		output,
		ir.Version,
		ir.CompilerVersion,
		s.clock.Next(),
	)
	if err != nil {
		return fmt.Errorf("save script: %w", err)
	}
	return nil
}

// RecordRun appends a run to the log and returns it with its id and seq
// filled in. Every hash in run.Scripts must already be saved.
func (s *Store) RecordRun(ctx context.Context, run Run) (Run, error) {
	if run.Status != RunOK && run.Status != RunFailed {
		return Run{}, fmt.Errorf("record run: invalid status %q", run.Status)
	}
	if run.Status == RunFailed && len(run.Scripts) > 0 {
		return Run{}, errors.New("record run: failed runs carry no scripts")
	}
	if run.ID == "" {
		run.ID = s.ids.Generate()
	}
	run.Seq = s.clock.Next()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO compile_runs
		(id, project, script_count, cache_hits, status, error, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Project,
		run.ScriptCount,
		run.CacheHits,
		run.Status,
		run.Error,
		run.Seq,
	)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	for i, hash := range run.Scripts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_scripts (run_id, position, script_hash)
			VALUES (?, ?, ?)
		`, run.ID, i, hash)
		if err != nil {
			return Run{}, fmt.Errorf("record run script %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	return run, nil
}
