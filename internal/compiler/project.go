package compiler

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/eventc/internal/emit"
	"github.com/roach88/eventc/internal/ir"
	"github.com/roach88/eventc/internal/project"
)

// Cache stores compiled script output by script hash.
type Cache interface {
	Lookup(ctx context.Context, hash string) (output string, ok bool, err error)
	Save(ctx context.Context, hash, script, output string) error
}

// ProjectOptions configures CompileProject.
type ProjectOptions struct {
	// Workers bounds concurrent script compiles; zero or less means one.
	Workers int
	// Cache is consulted before and filled after each script compile.
	Cache Cache
	// Comments keeps comment and blank lines in the output.
	Comments bool
}

// ScriptResult is the compiled output of one script.
type ScriptResult struct {
	Name   string
	Hash   string
	Output string
	Cached bool
}

// CompileProject compiles every script of p, each with its own Writer.
// Scripts compile concurrently; results keep the project's script order. The
// first failure cancels the remaining scripts and no results are returned.
func (c *Compiler) CompileProject(ctx context.Context, p *project.Project, opts ProjectOptions) ([]ScriptResult, error) {
	ctx, span := c.tracer.Start(ctx, "eventc.compile_project",
		trace.WithAttributes(
			attribute.String("eventc.project", p.Name),
			attribute.Int("eventc.script_count", len(p.Scripts)),
		))
	defer span.End()

	regFP, err := c.registry.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("registry fingerprint: %w", err)
	}
	if !opts.Comments {
		regFP += "/nocomments"
	}
	base := p.Resolver()
	resFP, err := base.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("resolver fingerprint: %w", err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	results := make([]ScriptResult, len(p.Scripts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, script := range p.Scripts {
		g.Go(func() error {
			hash, err := ir.ScriptHash(script, regFP, resFP)
			if err != nil {
				return err
			}
			res := ScriptResult{Name: script.Name, Hash: hash}

			if opts.Cache != nil {
				out, ok, err := opts.Cache.Lookup(gctx, hash)
				if err != nil {
					return fmt.Errorf("script %s: cache lookup: %w", script.Name, err)
				}
				if ok {
					res.Output, res.Cached = out, true
					results[i] = res
					return nil
				}
			}

			var wopts []emit.Option
			if !opts.Comments {
				wopts = append(wopts, emit.WithoutComments())
			}
			w := emit.NewWriter(base.WithSelf(script.Self), wopts...)
			if err := c.CompileScript(gctx, script, w); err != nil {
				return fmt.Errorf("script %s: %w", script.Name, err)
			}
			res.Output = ir.Format(w.Finish())

			if opts.Cache != nil {
				if err := opts.Cache.Save(gctx, hash, script.Name, res.Output); err != nil {
					return fmt.Errorf("script %s: cache save: %w", script.Name, err)
				}
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(CodeOf(err)))
		return nil, err
	}

	cached := 0
	for _, r := range results {
		if r.Cached {
			cached++
		}
	}
	span.SetAttributes(attribute.Int("eventc.cache_hits", cached))
	c.logger.Info("compiled project", "project", p.Name, "scripts", len(results), "cached", cached)
	return results, nil
}
