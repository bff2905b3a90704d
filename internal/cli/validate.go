package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/eventc/internal/compiler"
	"github.com/roach88/eventc/internal/project"
)

// ValidationIssue is one validation error, tagged with its script.
// Definition errors carry no script.
type ValidationIssue struct {
	Script string `json:"script,omitempty"`
	compiler.ValidationError
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool              `json:"valid"`
	Scripts int               `json:"scripts"`
	Errors  []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <project>",
		Short: "Check a project without compiling it",
		Long: `Check every event in a project against the event registry without
emitting any assembly.

Reports unknown commands, arguments outside their field's domain, and
child lists stored under keys the event has no events field for. Also
checks the registered definitions themselves. All errors are reported,
not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	reg, err := LoadRegistry(opts.Catalogs)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	proj, err := project.Load(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	issues := ValidateProject(reg, proj, formatter)
	result := ValidationResult{Valid: len(issues) == 0, Scripts: len(proj.Scripts), Errors: issues}
	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// ValidateProject checks the registry's definitions and every script of p.
func ValidateProject(reg *compiler.Registry, p *project.Project, formatter *OutputFormatter) []ValidationIssue {
	var issues []ValidationIssue
	for _, def := range reg.Definitions() {
		for _, e := range compiler.Validate(def) {
			issues = append(issues, ValidationIssue{ValidationError: e})
		}
	}
	for _, script := range p.Scripts {
		formatter.VerboseLog("Validating script: %s", script.Name)
		for _, e := range compiler.ValidateScript(reg, script) {
			issues = append(issues, ValidationIssue{Script: script.Name, ValidationError: e})
		}
	}
	return issues
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ All %d script(s) valid\n", result.Scripts)
	return nil
}

// outputValidationErrors outputs every validation error.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	exit := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.JSON() {
		if err := formatter.Encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: errs[0].Code, Message: errs[0].Message},
		}); err != nil {
			return err
		}
		return exit
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range errs {
		where := e.Field
		if e.Path != "" {
			where = e.Path + " " + e.Field
		}
		if e.Script != "" {
			where = e.Script + ": " + where
		}
		fmt.Fprintf(formatter.Writer, "%s\n  %s: %s\n\n", where, e.Code, e.Message)
	}
	return exit
}
