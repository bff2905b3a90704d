package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Predicate filters compile runs. Only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Equals matches runs whose column equals Value. Value must be a string or
// an integer.
type Equals struct {
	Column string
	Value  any
}

func (Equals) predicateNode() {}

// And matches runs that satisfy every predicate. An empty And matches all.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// RunQuery selects runs for FindRuns.
type RunQuery struct {
	Filter Predicate // nil matches every run
	Limit  int       // <= 0 means no limit
}

// runColumns are the compile_runs columns a filter may name.
var runColumns = []string{"id", "project", "status", "script_count", "cache_hits", "seq"}

// compileRunQuery builds a parameterized SELECT over compile_runs. Values
// are never interpolated; column names are checked against runColumns.
// Results are always ordered newest first with id as tiebreaker.
func compileRunQuery(q RunQuery) (string, []any, error) {
	var b strings.Builder
	b.WriteString(`SELECT id, project, script_count, cache_hits, status, error, seq FROM compile_runs`)

	var params []any
	if q.Filter != nil {
		where, p, err := compilePredicate(q.Filter)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
		params = p
	}

	b.WriteString(" ORDER BY seq DESC, id COLLATE BINARY ASC LIMIT ?")
	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	params = append(params, limit)
	return b.String(), params, nil
}

func compilePredicate(p Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case Equals:
		return compileEquals(pred)
	case *Equals:
		return compileEquals(*pred)
	case And:
		return compileAnd(pred)
	case *And:
		return compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileEquals(eq Equals) (string, []any, error) {
	if !slices.Contains(runColumns, eq.Column) {
		return "", nil, fmt.Errorf("unknown run column %q", eq.Column)
	}
	switch v := eq.Value.(type) {
	case string:
		return eq.Column + " = ?", []any{v}, nil
	case int:
		return eq.Column + " = ?", []any{int64(v)}, nil
	case int64:
		return eq.Column + " = ?", []any{v}, nil
	default:
		return "", nil, fmt.Errorf("column %s: unsupported value type %T", eq.Column, eq.Value)
	}
}

func compileAnd(and And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}
	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, p := range and.Predicates {
		sql, ps, err := compilePredicate(p)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}
	if len(parts) == 1 {
		return parts[0], params, nil
	}
	return "(" + strings.Join(parts, " AND ") + ")", params, nil
}

// FindRuns returns the runs matching q, newest first. Scripts are not
// loaded.
func (s *Store) FindRuns(ctx context.Context, q RunQuery) ([]Run, error) {
	query, params, err := compileRunQuery(q)
	if err != nil {
		return nil, fmt.Errorf("find runs: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("find runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Project, &run.ScriptCount, &run.CacheHits, &run.Status, &run.Error, &run.Seq); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find runs: %w", err)
	}
	return runs, nil
}
