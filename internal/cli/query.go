package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/leviathan/internal/dataset"
	"github.com/roach88/leviathan/internal/engine"
	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Database string
	Config   string
	Timeout  time.Duration

	// Tokens allows overriding the execution token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	Tokens engine.TokenGenerator
}

// QueryOutput is the JSON payload of the query command.
type QueryOutput struct {
	Execution string         `json:"execution"`
	Seq       int64          `json:"seq"`
	Partial   bool           `json:"partial,omitempty"`
	Elapsed   string         `json:"elapsed"`
	Result    *engine.Result `json:"result"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	return newQueryCommand(&QueryOptions{RootOptions: rootOpts})
}

func newQueryCommand(opts *QueryOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <plan>",
		Short: "Evaluate a plan's query",
		Long: `Evaluate the query of a plan file and print its solutions.

Without --db the query runs over the plan's own data. With --db it runs over
the graphs stored in the database, and the execution is recorded there.

Examples:
  leviathan query friends.yaml
  leviathan query --db ./data.db friends.cue --format json
  leviathan query --config engine.yaml --timeout 500ms big.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.Config, "config", "", "engine settings file (YAML or CUE)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "product evaluation budget, overrides the config (0 disables)")

	return cmd
}

func runQuery(opts *QueryOptions, planPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := LoadConfig(opts.Config)
	if err != nil {
		return formatter.Fail(ExitCommandError, loadErrorCode(err), "failed to load config", err)
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = opts.Timeout
	}
	logger := opts.logger(cmd.ErrOrStderr(), cfg.LogLevel)

	p, q, err := LoadPlan(planPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, loadErrorCode(err), "failed to load plan", err)
	}
	logger.Debug("plan loaded", "plan", p.Name, "query", q.String())

	var (
		data  dataset.Dataset
		st    *store.Store
		clock = engine.NewClock()
	)
	if opts.Database == "" {
		data, err = p.BuildDataset()
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodePlanInvalid, "failed to build dataset", err)
		}
	} else {
		st, err = store.Open(opts.Database)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()

		if p.HasData() {
			logger.Warn("plan data ignored, querying the database", "plan", p.Name, "db", opts.Database)
		}
		data, err = st.LoadDataset(commandContext(cmd))
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to load dataset", err)
		}
		last, err := st.LastSeq(commandContext(cmd))
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to read execution history", err)
		}
		clock = engine.NewClockAt(last)
	}

	engineOpts := append(cfg.EngineOptions(),
		engine.WithLogger(logger),
		engine.WithClock(clock),
	)
	if opts.Tokens != nil {
		engineOpts = append(engineOpts, engine.WithTokenGenerator(opts.Tokens))
	}
	eng := engine.New(data, engineOpts...)

	// Interrupts cancel the evaluation
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := eng.Execute(ctx, q)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeQueryFailed, "query failed", err)
	}

	if st != nil {
		if err := st.RecordExecution(ctx, executionRecord(q, res)); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to record execution", err)
		}
	}

	if opts.Format == "json" {
		return formatter.encode(CLIResponse{
			Status: "ok",
			Data: QueryOutput{
				Execution: res.Token,
				Seq:       res.Seq,
				Partial:   res.Partial,
				Elapsed:   res.Elapsed.String(),
				Result:    res,
			},
			Execution: res.Token,
		})
	}
	return writeResultText(formatter.Writer, res)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func executionRecord(q *eval.Query, res *engine.Result) store.Execution {
	return store.Execution{
		Token:     res.Token,
		Seq:       res.Seq,
		Query:     q.String(),
		Form:      string(res.Form),
		Solutions: res.Len(),
		Partial:   res.Partial,
		Elapsed:   res.Elapsed,
	}
}

// writeResultText prints an ASK result as true/false and a SELECT result as
// a table with one column per variable.
func writeResultText(w io.Writer, res *engine.Result) error {
	if res.Form == eval.FormAsk {
		fmt.Fprintln(w, res.Ask)
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for i, v := range res.Variables {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, "?"+v)
		}
		fmt.Fprintln(tw)
		for _, s := range res.Solutions {
			for i, v := range res.Variables {
				if i > 0 {
					fmt.Fprint(tw, "\t")
				}
				fmt.Fprint(tw, formatTerm(s.Get(v)))
			}
			fmt.Fprintln(tw)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w, plural(res.Len(), "solutions"))
	}

	if res.Partial {
		fmt.Fprintln(w, "warning: result is partial, a product stopped at the timeout")
	}
	fmt.Fprintf(w, "execution %s, seq %d\n", res.Token, res.Seq)
	return nil
}
