package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/leviathan/internal/eval"
)

// ExplainOutput describes a compiled plan.
type ExplainOutput struct {
	Plan          string   `json:"plan"`
	Form          string   `json:"form"`
	Variables     []string `json:"variables"`
	DefaultGraphs []string `json:"default_graphs,omitempty"`
	NamedGraphs   []string `json:"named_graphs,omitempty"`
	Algebra       string   `json:"algebra"`
	Triples       int      `json:"triples"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <plan>",
		Short: "Show the operator tree a plan compiles to",
		Long: `Compile a plan file and print its query without running it.

The output names the query form, the projected variables, the dataset
clauses and the algebra expression the engine would evaluate.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runExplain(opts *RootOptions, planPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	p, q, err := LoadPlan(planPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, loadErrorCode(err), "failed to load plan", err)
	}

	out := ExplainOutput{
		Plan:      p.Name,
		Form:      string(q.Form),
		Variables: q.ProjectedVariables(),
		Algebra:   q.Root.String(),
	}
	if out.Form == "" {
		out.Form = string(eval.FormSelect)
	}
	for _, g := range q.DefaultGraphs {
		out.DefaultGraphs = append(out.DefaultGraphs, g.String())
	}
	for _, g := range q.NamedGraphs {
		out.NamedGraphs = append(out.NamedGraphs, g.String())
	}
	out.Triples = len(p.Data.Default)
	for _, rows := range p.Data.Graphs {
		out.Triples += len(rows)
	}

	if opts.Format == "json" {
		return formatter.Success(out)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "plan: %s\n", out.Plan)
	fmt.Fprintf(w, "form: %s\n", out.Form)
	fmt.Fprintf(w, "variables: %v\n", out.Variables)
	if len(out.DefaultGraphs) > 0 {
		fmt.Fprintf(w, "from: %v\n", out.DefaultGraphs)
	}
	if len(out.NamedGraphs) > 0 {
		fmt.Fprintf(w, "from named: %v\n", out.NamedGraphs)
	}
	fmt.Fprintf(w, "data: %s\n", plural(out.Triples, "triples"))
	fmt.Fprintf(w, "algebra: %s\n", out.Algebra)
	return nil
}
