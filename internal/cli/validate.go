package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// PlanCheck is the validation outcome of one plan file.
type PlanCheck struct {
	Path    string `json:"path"`
	Valid   bool   `json:"valid"`
	Code    string `json:"code,omitempty"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool        `json:"valid"`
	Plans []PlanCheck `json:"plans"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <plan>...",
		Short: "Validate plans without running them",
		Long: `Parse plan files, build their data and compile their queries.

Every file is checked; all problems are reported, each with its position
when the plan is a CUE file. Faster than query for development feedback.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	result := ValidationResult{Plans: make([]PlanCheck, 0, len(paths))}
	failed := 0
	for _, path := range paths {
		formatter.VerboseLog("Validating plan: %s", path)
		check := validatePlan(path)
		if !check.Valid {
			failed++
		}
		result.Plans = append(result.Plans, check)
	}
	result.Valid = failed == 0

	if opts.Format == "json" {
		response := CLIResponse{Status: "ok", Data: result}
		if failed > 0 {
			response.Status = "error"
			response.Error = &CLIError{Code: ErrCodePlanInvalid, Message: fmt.Sprintf("%d plan(s) invalid", failed)}
		}
		if err := formatter.encode(response); err != nil {
			return err
		}
	} else {
		for _, c := range result.Plans {
			if c.Valid {
				fmt.Fprintf(formatter.Writer, "✓ %s\n", c.Path)
				continue
			}
			fmt.Fprintf(formatter.Writer, "✗ %s\n", c.Path)
			if c.Line > 0 {
				fmt.Fprintf(formatter.Writer, "  line %d\n", c.Line)
			}
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", c.Code, c.Message)
		}
	}

	if failed > 0 {
		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed: %d plan(s) invalid", failed))
	}
	return nil
}

// validatePlan loads and compiles one plan and builds its dataset.
func validatePlan(path string) PlanCheck {
	check := PlanCheck{Path: path, Valid: true}

	p, _, err := LoadPlan(path)
	if err == nil {
		_, err = p.BuildDataset()
	}
	if err == nil {
		return check
	}

	check.Valid = false
	check.Code = ErrCodePlanInvalid
	check.Message = err.Error()
	var le *LoadError
	if errors.As(err, &le) {
		check.Code = le.Code
		check.Line = le.Line()
		check.Message = le.Message
	}
	return check
}
