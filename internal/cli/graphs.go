package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/leviathan/internal/store"
)

// GraphsOptions holds flags for the graphs command.
type GraphsOptions struct {
	*RootOptions
	Database string
}

// GraphEntry is one stored graph in JSON output. Name is empty for the
// unnamed graph.
type GraphEntry struct {
	Name    string `json:"name"`
	Triples int    `json:"triples"`
}

// NewGraphsCommand creates the graphs command.
func NewGraphsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graphs",
		Short: "List the graphs stored in a database",
		Long: `List the graphs stored in a database with their triple counts.

The unnamed graph comes first, then named graphs by IRI.

Example:
  leviathan graphs --db ./data.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraphs(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runGraphs(opts *GraphsOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	infos, err := st.Graphs(commandContext(cmd))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to list graphs", err)
	}

	if opts.Format == "json" {
		entries := make([]GraphEntry, 0, len(infos))
		for _, info := range infos {
			e := GraphEntry{Triples: info.Triples}
			if info.Name != nil {
				e.Name = info.Name.String()
			}
			entries = append(entries, e)
		}
		return formatter.Success(entries)
	}

	w := formatter.Writer
	if len(infos) == 0 {
		fmt.Fprintln(w, "No graphs stored.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GRAPH\tTRIPLES")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%d\n", formatGraph(info.Name), info.Triples)
	}
	return tw.Flush()
}
