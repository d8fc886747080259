package cli

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue/token"

	"github.com/roach88/leviathan/internal/config"
	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/plan"
)

// LoadError represents an error that occurred while loading a plan or
// config file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Line returns the line of the error, or 0 when unknown.
func (e *LoadError) Line() int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// LoadPlan reads a plan file and compiles its query.
func LoadPlan(path string) (*plan.Plan, *eval.Query, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("plan file not found: %s", path)}
	}

	p, err := plan.Load(path)
	if err != nil {
		return nil, nil, planLoadError(err)
	}
	q, err := p.Compile()
	if err != nil {
		return nil, nil, planLoadError(fmt.Errorf("%s: %w", path, err))
	}
	return p, q, nil
}

func planLoadError(err error) *LoadError {
	le := &LoadError{Code: ErrCodePlanInvalid, Message: err.Error()}
	var pe *plan.PlanError
	if errors.As(err, &pe) {
		le.Pos = pe.Pos
	}
	return le
}

// LoadConfig reads engine settings, or returns the defaults when path is
// empty.
func LoadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		code := ErrCodeConfig
		if errors.Is(err, os.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return cfg, &LoadError{Code: code, Message: err.Error()}
	}
	return cfg, nil
}

// loadErrorCode returns the code of a LoadError, or ErrCodeGeneric.
func loadErrorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeGeneric
}
