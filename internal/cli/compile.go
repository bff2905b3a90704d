package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/eventc/internal/compiler"
	"github.com/roach88/eventc/internal/project"
	"github.com/roach88/eventc/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output     string   // output directory, one .s file per script
	Cache      string   // cache database path, overrides config
	Scripts    []string // compile only these scripts
	NoComments bool
	Workers    int
}

// CompiledScript is one script in the compile response.
type CompiledScript struct {
	Name   string `json:"name"`
	Hash   string `json:"hash"`
	Cached bool   `json:"cached"`
	Output string `json:"output"`
}

// CompilationResult is the compile command's response.
type CompilationResult struct {
	Project   string           `json:"project"`
	RunID     string           `json:"run_id,omitempty"`
	CacheHits int              `json:"cache_hits"`
	Scripts   []CompiledScript `json:"scripts"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <project>",
		Short: "Compile a project's scripts to assembly",
		Long: `Compile every script in a project file to stack VM assembly.

Scripts compile concurrently; output keeps the project's script order.
Any failing script fails the whole project and nothing is written.

With a cache database, scripts whose content hash was compiled before
are read back instead of recompiled, and every run is recorded.

Examples:
  eventc compile ./game.yaml
  eventc compile ./game.yaml -o ./build
  eventc compile ./game.yaml --cache ./eventc.db --script npc_interact`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output directory (one <script>.s per script)")
	cmd.Flags().StringVar(&opts.Cache, "cache", "", "cache database path")
	cmd.Flags().StringArrayVar(&opts.Scripts, "script", nil, "compile only this script (repeatable)")
	cmd.Flags().BoolVar(&opts.NoComments, "no-comments", false, "omit comments and blank lines")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "concurrent script compiles (default from config)")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := opts.settings()
	log := opts.log()

	reg, err := LoadRegistry(opts.Catalogs)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	formatter.VerboseLog("Loaded %d event definition(s)", reg.Len())

	proj, err := project.Load(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	proj, err = selectScripts(proj, opts.Scripts)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	formatter.VerboseLog("Compiling %d script(s) from %s", len(proj.Scripts), path)

	cachePath := cfg.Cache
	if opts.Cache != "" {
		cachePath = opts.Cache
	}
	var st *store.Store
	if cachePath != "" {
		st, err = store.Open(cachePath)
		if err != nil {
			return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeCache, Message: "opening cache", Err: err})
		}
		defer st.Close()
	}

	workers := cfg.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}
	popts := compiler.ProjectOptions{
		Workers:  workers,
		Comments: cfg.Comments && !opts.NoComments,
	}
	if st != nil {
		popts.Cache = st
	}

	c := compiler.New(reg, compiler.WithLogger(log))
	results, compileErr := c.CompileProject(ctx, proj, popts)

	result := CompilationResult{Project: proj.Name}
	if st != nil {
		run, err := st.RecordRun(ctx, newRun(proj, results, compileErr))
		if err != nil {
			return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeCache, Message: "recording run", Err: err})
		}
		result.RunID = run.ID
		log.Debug("recorded run", "run", run.ID, "status", run.Status)
	}
	if compileErr != nil {
		return formatter.FailRun(ExitFailure, compileErr, result.RunID)
	}

	for _, r := range results {
		if r.Cached {
			result.CacheHits++
		}
		result.Scripts = append(result.Scripts, CompiledScript{
			Name:   r.Name,
			Hash:   r.Hash,
			Cached: r.Cached,
			Output: r.Output,
		})
	}

	if opts.Output != "" {
		if err := writeScripts(opts.Output, result.Scripts); err != nil {
			return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeWriteFailed, Message: "writing output", Err: err})
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// selectScripts narrows p to the named scripts, keeping project order.
func selectScripts(p *project.Project, names []string) (*project.Project, error) {
	if len(names) == 0 {
		return p, nil
	}
	want := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := p.Script(name); !ok {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("no script named %q", name)}
		}
		want[name] = true
	}
	out := *p
	out.Scripts = nil
	for _, s := range p.Scripts {
		if want[s.Name] {
			out.Scripts = append(out.Scripts, s)
		}
	}
	return &out, nil
}

func newRun(p *project.Project, results []compiler.ScriptResult, err error) store.Run {
	run := store.Run{Project: p.Name, ScriptCount: len(p.Scripts), Status: store.RunOK}
	if err != nil {
		run.Status = store.RunFailed
		run.Error = err.Error()
		return run
	}
	for _, r := range results {
		run.Scripts = append(run.Scripts, r.Hash)
		if r.Cached {
			run.CacheHits++
		}
	}
	return run
}

// writeScripts writes each script to dir/<name>.s.
func writeScripts(dir string, scripts []CompiledScript) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, s := range scripts {
		if err := os.WriteFile(filepath.Join(dir, s.Name+".s"), []byte(s.Output), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// outputCompileSuccess prints the compiled scripts. Text output prints the
// assembly unless it was written to files.
func outputCompileSuccess(formatter *OutputFormatter, result CompilationResult, outputDir string) error {
	if formatter.JSON() {
		return formatter.Encode(CLIResponse{Status: "ok", Data: result, RunID: result.RunID})
	}

	w := formatter.Writer
	if outputDir == "" {
		for _, s := range result.Scripts {
			fmt.Fprintf(w, "; script %s\n", s.Name)
			fmt.Fprint(w, s.Output)
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintf(formatter.GetErrWriter(), "✓ Compiled %d script(s), %d from cache\n", len(result.Scripts), result.CacheHits)
	if outputDir != "" {
		fmt.Fprintf(formatter.GetErrWriter(), "Wrote assembly to %s\n", outputDir)
	}
	if result.RunID != "" {
		fmt.Fprintf(formatter.GetErrWriter(), "Run %s\n", result.RunID)
	}
	return nil
}
