package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: one query and its
// expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Plan is the path of the plan file holding data and query.
	Plan string `yaml:"plan"`

	// Config is an optional engine settings file.
	Config string `yaml:"config,omitempty"`

	// ExecutionToken is the token the execution runs under. Defaults to
	// "test-execution".
	ExecutionToken string `yaml:"execution_token,omitempty"`

	// ExpectError, when set, is a substring of the error compiling or
	// executing the query must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assertions validate the result and the final store contents.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Assertion validates the result or the store.
type Assertion struct {
	// Type specifies the assertion type:
	// - "solution_count": Count solutions
	// - "column": Var takes Values, in order
	// - "contains": some solution matches Row
	// - "ask": the ASK result is Value
	// - "partial": the partial flag is Value
	// - "graph_triples": the store holds Count triples in Graph
	Type string `yaml:"type"`

	// Count is the expected number (solution_count, graph_triples).
	Count int `yaml:"count,omitempty"`

	// Var and Values describe a column (column).
	Var    string   `yaml:"var,omitempty"`
	Values []string `yaml:"values,omitempty"`

	// Row maps variables to expected terms (contains).
	Row map[string]string `yaml:"row,omitempty"`

	// Value is the expected flag (ask, partial).
	Value *bool `yaml:"value,omitempty"`

	// Graph is a graph IRI in plan notation; empty for the unnamed graph
	// (graph_triples).
	Graph string `yaml:"graph,omitempty"`
}

// Assertion type constants.
const (
	AssertSolutionCount = "solution_count"
	AssertColumn        = "column"
	AssertContains      = "contains"
	AssertAsk           = "ask"
	AssertPartial       = "partial"
	AssertGraphTriples  = "graph_triples"
)

// PlanNotFoundError is returned when a scenario references a plan file
// that doesn't exist.
type PlanNotFoundError struct {
	Scenario     string
	PlanPath     string
	ResolvedPath string
}

// Error implements the error interface.
func (e *PlanNotFoundError) Error() string {
	return fmt.Sprintf(
		"scenario %q references plan file %q which does not exist (resolved to: %s)",
		e.Scenario,
		e.PlanPath,
		e.ResolvedPath,
	)
}

// LoadScenario reads and parses a scenario YAML file. Plan and config
// paths are resolved relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving plan and config paths relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	planRef := scenario.Plan
	scenario.Plan = resolve(basePath, scenario.Plan)
	scenario.Config = resolve(basePath, scenario.Config)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if _, err := os.Stat(scenario.Plan); os.IsNotExist(err) {
		return nil, &PlanNotFoundError{
			Scenario:     scenario.Name,
			PlanPath:     planRef,
			ResolvedPath: scenario.Plan,
		}
	}
	if scenario.Config != "" {
		if _, err := os.Stat(scenario.Config); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: config file not found: %s", scenario.Config)
		}
	}

	return &scenario, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) || base == "" {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Plan == "" {
		return fmt.Errorf("plan is required")
	}

	if len(s.Assertions) == 0 && s.ExpectError == "" {
		return fmt.Errorf("assertions list is required unless expect_error is set")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertSolutionCount, AssertGraphTriples:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertColumn:
		if a.Var == "" {
			return fmt.Errorf("assertions[%d]: var is required for column", index)
		}
	case AssertContains:
		if len(a.Row) == 0 {
			return fmt.Errorf("assertions[%d]: row is required for contains", index)
		}
	case AssertAsk, AssertPartial:
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
