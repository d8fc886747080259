package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/roach88/leviathan/internal/config"
	"github.com/roach88/leviathan/internal/dataset"
	"github.com/roach88/leviathan/internal/engine"
	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/plan"
	"github.com/roach88/leviathan/internal/store"
	"github.com/roach88/leviathan/internal/testutil"
)

// Harness holds what one scenario run shares between its steps.
type Harness struct {
	store  *store.Store
	plan   *plan.Plan
	config config.Config
	labels *labelCounter
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Load the plan and the engine settings
// 2. Write the plan's data to a fresh in-memory store and read it back
// 3. Compile and execute the query, then record the execution
// 4. Evaluate assertions against the result and the store
//
// Run returns an error only when the scenario cannot be set up. A failing
// query is reported through the result.
func Run(scenario *Scenario) (*Result, error) {
	p, err := plan.Load(scenario.Plan)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	cfg := config.Default()
	if scenario.Config != "" {
		cfg, err = config.Load(scenario.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	// Create fresh in-memory SQLite database
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		plan:   p,
		config: cfg,
		labels: &labelCounter{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	ctx := context.Background()

	data, err := h.loadData(ctx)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	q, res, execErr := h.execute(ctx, data, scenario.ExecutionToken)
	switch {
	case execErr != nil:
		result.ExecutionError = execErr.Error()
		if scenario.ExpectError == "" {
			result.AddError(fmt.Sprintf("execution failed: %v", execErr))
		} else if !strings.Contains(execErr.Error(), scenario.ExpectError) {
			result.AddError(fmt.Sprintf("expected error containing %q, got: %v", scenario.ExpectError, execErr))
		}
	case scenario.ExpectError != "":
		result.Query = res
		result.AddError(fmt.Sprintf("expected error containing %q, but the query succeeded", scenario.ExpectError))
	default:
		result.Query = res
	}

	if res != nil {
		if err := h.record(ctx, q, res); err != nil {
			return nil, err
		}
	}

	actx := &AssertionContext{Store: st, Plan: p, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// loadData persists the plan's data and returns the dataset read back from
// the store.
func (h *Harness) loadData(ctx context.Context) (*dataset.Memory, error) {
	built, err := h.plan.BuildDataset(plan.WithBlankLabels(h.labels.next))
	if err != nil {
		return nil, fmt.Errorf("failed to build dataset: %w", err)
	}
	if err := h.store.SaveDataset(ctx, built); err != nil {
		return nil, fmt.Errorf("failed to save dataset: %w", err)
	}
	data, err := h.store.LoadDataset(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	return data, nil
}

// execute compiles and runs the query. Compile errors count as execution
// errors so scenarios can expect them.
func (h *Harness) execute(ctx context.Context, data *dataset.Memory, token string) (*eval.Query, *engine.Result, error) {
	q, err := h.plan.Compile(plan.WithBlankLabels(h.labels.next))
	if err != nil {
		return nil, nil, err
	}

	opts := append(h.config.EngineOptions(),
		engine.WithTokenGenerator(testutil.NewFixedToken(token)),
		engine.WithLogger(h.logger),
	)
	res, err := engine.New(data, opts...).Execute(ctx, q)
	return q, res, err
}

func (h *Harness) record(ctx context.Context, q *eval.Query, res *engine.Result) error {
	exec := store.Execution{
		Token:     res.Token,
		Seq:       res.Seq,
		Query:     q.String(),
		Form:      string(res.Form),
		Solutions: res.Len(),
		Partial:   res.Partial,
		Elapsed:   res.Elapsed,
	}
	if err := h.store.RecordExecution(ctx, exec); err != nil {
		return fmt.Errorf("failed to record execution: %w", err)
	}
	return nil
}

// labelCounter hands out blank node labels b1, b2, ... in order.
type labelCounter struct {
	n int
}

func (c *labelCounter) next() string {
	c.n++
	return "b" + strconv.Itoa(c.n)
}
