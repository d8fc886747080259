package engine

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/leviathan/internal/algebra"
	"github.com/roach88/leviathan/internal/dataset"
	"github.com/roach88/leviathan/internal/eval"
)

// Engine executes queries against one dataset.
type Engine struct {
	data       dataset.Dataset
	clock      *Clock
	tokens     TokenGenerator
	options    eval.Options
	optimizers []eval.Optimizer
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout bounds the time products may spend per execution. Products
// that run out return what they have and the result is marked partial.
// 0 disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.options.Timeout = d
	}
}

// WithParallel switches the partitioned parallel product on or off.
func WithParallel(on bool) Option {
	return func(e *Engine) {
		e.options.Parallel = on
	}
}

// WithMaxWorkers bounds the goroutines of a parallel product. 0 means
// GOMAXPROCS.
func WithMaxWorkers(n int) Option {
	return func(e *Engine) {
		e.options.MaxWorkers = n
	}
}

// WithTrimTemporaryVariables controls whether "_:" variables are dropped
// before DISTINCT and from results.
func WithTrimTemporaryVariables(on bool) Option {
	return func(e *Engine) {
		e.options.TrimTemporaryVariables = on
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithTokenGenerator sets the execution token source. Defaults to
// UUIDv7Generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) {
		e.tokens = g
	}
}

// WithClock sets the sequence clock, e.g. NewClockAt to continue numbering.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithOptimizers appends optimizers run on every query after the built-in
// fast paths and before the query's own.
func WithOptimizers(opts ...eval.Optimizer) Option {
	return func(e *Engine) {
		e.optimizers = append(e.optimizers, opts...)
	}
}

// New creates an Engine over data. Without options it evaluates in
// parallel, trims temporary variables and has no timeout.
func New(data dataset.Dataset, opts ...Option) *Engine {
	e := &Engine{
		data:    data,
		clock:   NewClock(),
		tokens:  UUIDv7Generator{},
		options: eval.DefaultOptions(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dataset returns the dataset queries run against.
func (e *Engine) Dataset() dataset.Dataset { return e.data }

// Options returns the evaluation options executions start from.
func (e *Engine) Options() eval.Options { return e.options }

// Clock returns the engine's sequence clock.
func (e *Engine) Clock() *Clock { return e.clock }

// Execute evaluates q and shapes the result.
//
// Cancelling ctx aborts the evaluation with an error. The timeout option
// does not: products that run out of budget stop early and the Result
// reports Partial.
func (e *Engine) Execute(ctx context.Context, q *eval.Query) (*Result, error) {
	if err := validate(q); err != nil {
		return nil, err
	}

	start := time.Now()
	token := e.tokens.Generate()
	seq := e.clock.Next()
	log := e.logger.With("execution", token, "seq", seq)
	log.Info("query starting",
		"query", q.String(),
		"default_graphs", len(q.DefaultGraphs),
		"named_graphs", len(q.NamedGraphs),
	)

	scoped := dataset.NewScoped(e.data)
	if len(q.DefaultGraphs) > 0 {
		scoped.SetDefaultGraphs(q.DefaultGraphs)
	}

	ec := eval.NewContext(ctx, scoped, q, e.options)
	ec.Logger = log
	ec.Optimizers = e.pipeline(q)

	root := ec.Optimize(q.Root)
	m, err := ec.Evaluate(root)
	if err != nil {
		log.Error("query failed", "error", err)
		return nil, &ExecutionError{
			Code:    ErrCodeEvaluation,
			Message: "evaluation failed",
			Token:   token,
			Cause:   err,
		}
	}

	res := shape(q, m, e.options.TrimTemporaryVariables)
	res.Token = token
	res.Seq = seq
	res.Partial = ec.Partial()
	res.Elapsed = time.Since(start)

	if res.Partial {
		log.Warn("query result truncated by timeout",
			"timeout", e.options.Timeout,
			"solutions", len(res.Solutions),
		)
	}
	log.Info("query finished",
		"solutions", len(res.Solutions),
		"elapsed", res.Elapsed,
		"partial", res.Partial,
	)
	return res, nil
}

// Commit flushes buffered graph changes to the dataset and its persister.
func (e *Engine) Commit(ctx context.Context) error {
	if err := e.data.Flush(ctx); err != nil {
		return &ExecutionError{Code: ErrCodeFlush, Message: "commit graph changes", Cause: err}
	}
	e.logger.Info("graph changes committed")
	return nil
}

func (e *Engine) pipeline(q *eval.Query) []eval.Optimizer {
	out := []eval.Optimizer{algebra.FastPaths{Ask: q.Form == eval.FormAsk}}
	out = append(out, e.optimizers...)
	return append(out, q.Optimizers...)
}

func validate(q *eval.Query) error {
	if q == nil {
		return NewInvalidQueryError("no query")
	}
	if q.Root == nil {
		return NewInvalidQueryError("query has no root operator")
	}
	if !slices.Contains([]eval.Form{"", eval.FormSelect, eval.FormAsk}, q.Form) {
		return NewInvalidQueryError("unsupported query form %q", q.Form)
	}
	if q.Limit < 0 || q.Offset < 0 {
		return NewInvalidQueryError("negative LIMIT or OFFSET")
	}
	return nil
}
