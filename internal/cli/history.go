package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/leviathan/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Token    string // optional - filter to one execution
}

// HistoryEntry is one recorded execution in JSON output.
type HistoryEntry struct {
	Seq       int64  `json:"seq"`
	Token     string `json:"token"`
	Form      string `json:"form"`
	Query     string `json:"query"`
	Solutions int    `json:"solutions"`
	Partial   bool   `json:"partial,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the queries executed against a database",
		Long: `List the executions recorded by query --db, in sequence order.

Each entry shows the execution token, the query form and projection, the
number of solutions and whether the result was cut short by the timeout.

Examples:
  leviathan history --db ./data.db
  leviathan history --db ./data.db --execution 0190c4f2-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Token, "execution", "", "show only the execution with this token")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
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

	execs, err := st.ReadExecutions(commandContext(cmd))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to read executions", err)
	}

	entries := make([]HistoryEntry, 0, len(execs))
	for _, e := range execs {
		if opts.Token != "" && e.Token != opts.Token {
			continue
		}
		entries = append(entries, HistoryEntry{
			Seq:       e.Seq,
			Token:     e.Token,
			Form:      e.Form,
			Query:     e.Query,
			Solutions: e.Solutions,
			Partial:   e.Partial,
			ElapsedMS: e.Elapsed.Milliseconds(),
		})
	}

	if opts.Format == "json" {
		return formatter.Success(entries)
	}

	w := formatter.Writer
	if len(entries) == 0 {
		if opts.Token != "" {
			fmt.Fprintf(w, "No execution found with token: %s\n", opts.Token)
		} else {
			fmt.Fprintln(w, "No executions recorded.")
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tEXECUTION\tSOLUTIONS\tQUERY")
	for _, e := range entries {
		solutions := fmt.Sprint(e.Solutions)
		if e.Partial {
			solutions += " (partial)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.Seq, e.Token, solutions, e.Query)
	}
	return tw.Flush()
}
