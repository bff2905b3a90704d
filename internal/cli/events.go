package cli

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/eventc/internal/compiler"
	"github.com/roach88/eventc/internal/schema"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	Group string
}

// EventInfo describes one registered event.
type EventInfo struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Groups      []string    `json:"groups,omitempty"`
	Native      string      `json:"native,omitempty"`
	Fields      []FieldInfo `json:"fields,omitempty"`
}

// FieldInfo describes one input field of an event.
type FieldInfo struct {
	Key     string   `json:"key,omitempty"`
	Label   string   `json:"label,omitempty"`
	Type    string   `json:"type"`
	Default any      `json:"default,omitempty"`
	Min     *int64   `json:"min,omitempty"`
	Max     *int64   `json:"max,omitempty"`
	Options []string `json:"options,omitempty"`
	Types   []string `json:"types,omitempty"`
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events [event-id]",
		Short: "List registered events or describe one",
		Long: `List every registered event, or show the fields of one event.

Examples:
  eventc events
  eventc events --group EVENT_GROUP_CONTROL_FLOW
  eventc events EVENT_PAINT_TILE --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Group, "group", "", "only list events in this group")

	return cmd
}

func runEvents(opts *EventsOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	reg, err := LoadRegistry(opts.Catalogs)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	if len(args) == 1 {
		def, ok := reg.Lookup(args[0])
		if !ok {
			return formatter.Fail(ExitCommandError, &LoadError{
				Code:    ErrCodeNotFound,
				Message: fmt.Sprintf("no event registered with id %q", args[0]),
			})
		}
		return outputEvent(formatter, describeEvent(def))
	}

	var infos []EventInfo
	for _, def := range reg.Definitions() {
		if opts.Group != "" && !inGroup(def, opts.Group) {
			continue
		}
		infos = append(infos, describeEvent(def))
	}
	return outputEventList(formatter, infos)
}

func inGroup(def *compiler.EventDefinition, group string) bool {
	if slices.Contains(def.Groups, group) {
		return true
	}
	_, ok := def.SubGroups[group]
	return ok
}

func describeEvent(def *compiler.EventDefinition) EventInfo {
	info := EventInfo{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
		Groups:      def.Groups,
		Fields:      describeFields(def.Fields),
	}
	if def.Native != nil {
		info.Native = def.Native.Name
	}
	return info
}

func describeFields(fields []schema.FieldSpec) []FieldInfo {
	var out []FieldInfo
	for _, f := range fields {
		if f.Type == schema.TypeGroup {
			out = append(out, describeFields(f.Fields)...)
			continue
		}
		out = append(out, FieldInfo{
			Key:     f.Key,
			Label:   f.Label,
			Type:    string(f.Type),
			Default: f.Default,
			Min:     f.Min,
			Max:     f.Max,
			Options: f.Options,
			Types:   f.Types,
		})
	}
	return out
}

func outputEventList(formatter *OutputFormatter, infos []EventInfo) error {
	if formatter.JSON() {
		if infos == nil {
			infos = []EventInfo{}
		}
		return formatter.Success(infos)
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tNATIVE")
	for _, info := range infos {
		native := info.Native
		if native == "" {
			native = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", info.ID, info.Name, native)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(formatter.Writer, "\n%d event(s)\n", len(infos))
	return nil
}

func outputEvent(formatter *OutputFormatter, info EventInfo) error {
	if formatter.JSON() {
		return formatter.Success(info)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%s: %s\n", info.ID, info.Name)
	if info.Description != "" {
		fmt.Fprintf(w, "  %s\n", info.Description)
	}
	if len(info.Groups) > 0 {
		fmt.Fprintf(w, "  groups: %s\n", strings.Join(info.Groups, ", "))
	}
	if info.Native != "" {
		fmt.Fprintf(w, "  native: %s\n", info.Native)
	}
	if len(info.Fields) == 0 {
		return nil
	}
	fmt.Fprintln(w, "  fields:")
	for _, f := range info.Fields {
		if f.Key == "" {
			continue
		}
		line := fmt.Sprintf("    %s (%s)", f.Key, f.Type)
		if f.Default != nil {
			line += fmt.Sprintf(" default=%v", f.Default)
		}
		if f.Min != nil && f.Max != nil {
			line += fmt.Sprintf(" range=%d..%d", *f.Min, *f.Max)
		}
		if len(f.Options) > 0 {
			line += " options=" + strings.Join(f.Options, "|")
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
