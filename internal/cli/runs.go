package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/eventc/internal/store"
)

// RunsOptions holds flags for the runs commands.
type RunsOptions struct {
	*RootOptions
	Cache   string
	Limit   int
	Project string // runs list: only runs of this project
	Status  string // runs list: only runs with this status
	Output  bool   // runs show: print each script's assembly
}

// RunInfo is one recorded compile run.
type RunInfo struct {
	ID          string      `json:"id"`
	Project     string      `json:"project"`
	Status      string      `json:"status"`
	Error       string      `json:"error,omitempty"`
	ScriptCount int         `json:"script_count"`
	CacheHits   int         `json:"cache_hits"`
	Seq         int64       `json:"seq"`
	Scripts     []RunScript `json:"scripts,omitempty"`
}

// RunScript is one script of a successful run.
type RunScript struct {
	Name   string `json:"name"`
	Hash   string `json:"hash"`
	Output string `json:"output,omitempty"`
}

// NewRunsCommand creates the runs command and its list/show subcommands.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect compile runs recorded in the cache",
		Long: `Inspect the compile runs recorded in a cache database.

Every compile with a cache records a run: the project, its status and,
for successful runs, the content hash of each script in order. A run's
outputs can be printed again byte for byte.

Examples:
  eventc runs list --cache ./eventc.db
  eventc runs list --cache ./eventc.db --project game --status failed
  eventc runs show <run-id> --cache ./eventc.db --output`,
	}
	cmd.PersistentFlags().StringVar(&opts.Cache, "cache", "", "cache database path (default from config)")

	list := &cobra.Command{
		Use:           "list",
		Short:         "List recent runs, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunsList(cmd.Context(), opts, cmd)
		},
	}
	list.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list (0 for all)")
	list.Flags().StringVar(&opts.Project, "project", "", "only list runs of this project")
	list.Flags().StringVar(&opts.Status, "status", "", "only list runs with this status (ok, failed)")

	show := &cobra.Command{
		Use:           "show <run-id>",
		Short:         "Show one run and its scripts",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunsShow(cmd.Context(), opts, args[0], cmd)
		},
	}
	show.Flags().BoolVar(&opts.Output, "output", false, "print each script's assembly")

	cmd.AddCommand(list, show)
	return cmd
}

func (o *RunsOptions) openStore() (*store.Store, error) {
	path := o.Cache
	if path == "" {
		path = o.settings().Cache
	}
	if path == "" {
		return nil, &LoadError{Code: ErrCodeCache, Message: "no cache database: pass --cache or set cache in config"}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeCache, Message: "opening cache", Err: err}
	}
	return st, nil
}

// filter turns the list flags into a run predicate; nil lists every run.
func (o *RunsOptions) filter() store.Predicate {
	var preds []store.Predicate
	if o.Project != "" {
		preds = append(preds, store.Equals{Column: "project", Value: o.Project})
	}
	if o.Status != "" {
		preds = append(preds, store.Equals{Column: "status", Value: o.Status})
	}
	if len(preds) == 0 {
		return nil
	}
	return store.And{Predicates: preds}
}

func runRunsList(ctx context.Context, opts *RunsOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	defer st.Close()

	runs, err := st.FindRuns(ctx, store.RunQuery{Filter: opts.filter(), Limit: opts.Limit})
	if err != nil {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeCache, Message: "listing runs", Err: err})
	}

	infos := make([]RunInfo, len(runs))
	for i, r := range runs {
		infos[i] = runInfo(r)
	}

	if formatter.JSON() {
		return formatter.Success(infos)
	}
	if len(infos) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tPROJECT\tSTATUS\tSCRIPTS\tCACHED")
	for _, r := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", r.ID, r.Project, r.Status, r.ScriptCount, r.CacheHits)
	}
	return tw.Flush()
}

func runRunsShow(ctx context.Context, opts *RunsOptions, id string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	defer st.Close()

	run, err := st.ReadRun(ctx, id)
	if errors.Is(err, store.ErrRunNotFound) {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("no run with id %q", id)})
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeCache, Message: "reading run", Err: err})
	}
	info := runInfo(run)

	if run.Status == store.RunOK {
		outputs, err := st.RunOutputs(ctx, id)
		if err != nil {
			return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeCache, Message: "reading run outputs", Err: err})
		}
		for _, cs := range outputs {
			rs := RunScript{Name: cs.Name, Hash: cs.Hash}
			if opts.Output {
				rs.Output = cs.Output
			}
			info.Scripts = append(info.Scripts, rs)
		}
	}

	if formatter.JSON() {
		return formatter.Encode(CLIResponse{Status: "ok", Data: info, RunID: info.ID})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run %s\n", info.ID)
	fmt.Fprintf(w, "  project: %s\n", info.Project)
	fmt.Fprintf(w, "  status:  %s\n", info.Status)
	if info.Error != "" {
		fmt.Fprintf(w, "  error:   %s\n", info.Error)
	}
	fmt.Fprintf(w, "  scripts: %d (%d from cache)\n", info.ScriptCount, info.CacheHits)
	for _, s := range info.Scripts {
		fmt.Fprintf(w, "\n; script %s (%s)\n", s.Name, s.Hash)
		if s.Output != "" {
			fmt.Fprint(w, s.Output)
		}
	}
	return nil
}

func runInfo(r store.Run) RunInfo {
	return RunInfo{
		ID:          r.ID,
		Project:     r.Project,
		Status:      r.Status,
		Error:       r.Error,
		ScriptCount: r.ScriptCount,
		CacheHits:   r.CacheHits,
		Seq:         r.Seq,
	}
}
