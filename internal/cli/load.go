package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/leviathan/internal/engine"
	"github.com/roach88/leviathan/internal/rdf"
	"github.com/roach88/leviathan/internal/store"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Database string
	Replace  bool
}

// LoadOutput is the JSON payload of the load command.
type LoadOutput struct {
	Graphs  int `json:"graphs"`
	Triples int `json:"triples"`
	Added   int `json:"added"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <plan>",
		Short: "Store a plan's data in a database",
		Long: `Write the data section of a plan file into a SQLite database.

Triples are added to the stored graphs. With --replace, every graph the plan
names is overwritten instead. The plan's query is compiled but not run.

Example:
  leviathan load --db ./data.db people.yaml
  leviathan load --db ./data.db --replace people.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().BoolVar(&opts.Replace, "replace", false, "overwrite graphs instead of adding to them")

	return cmd
}

func runLoad(opts *LoadOptions, planPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	ctx := commandContext(cmd)
	logger := opts.logger(cmd.ErrOrStderr(), slog.LevelInfo)

	p, _, err := LoadPlan(planPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, loadErrorCode(err), "failed to load plan", err)
	}
	built, err := p.BuildDataset()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodePlanInvalid, "failed to build dataset", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	// An empty unnamed graph is not part of the plan's data.
	var graphs []rdf.Graph
	out := LoadOutput{}
	for _, g := range built.Graphs() {
		if g.Name() == nil && g.IsEmpty() {
			continue
		}
		graphs = append(graphs, g)
		out.Graphs++
		out.Triples += g.Len()
	}

	if opts.Replace {
		for _, g := range graphs {
			if err := st.SaveGraph(ctx, g); err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to save graph", err)
			}
		}
		out.Added = out.Triples
	} else {
		stored, err := st.LoadDataset(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to load dataset", err)
		}
		for _, g := range graphs {
			out.Added += stored.ModifiableGraph(g.Name()).Assert(g.Triples()...)
		}
		if err := engine.New(stored, engine.WithLogger(logger)).Commit(ctx); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to commit graphs", err)
		}
	}
	logger.Info("plan data stored", "plan", p.Name, "db", opts.Database, "triples", out.Triples, "added", out.Added)

	if opts.Format == "json" {
		return formatter.Success(out)
	}
	fmt.Fprintf(formatter.Writer, "Loaded %s into %s (%d new)\n",
		plural(out.Triples, "triples"), plural(out.Graphs, "graphs"), out.Added)
	return nil
}
