// Package eval holds the evaluation context that an algebra tree is walked
// with, the contracts operators and expressions implement, and the product
// join engine (serial, asynchronous with timeout, and partitioned parallel).
package eval

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/roach88/leviathan/internal/dataset"
	"github.com/roach88/leviathan/internal/multiset"
	"github.com/roach88/leviathan/internal/solution"
)

// Options are the evaluation settings carried by a Context.
type Options struct {
	// Parallel enables the partitioned parallel product.
	Parallel bool

	// MaxWorkers bounds the parallel product. 0 means GOMAXPROCS.
	MaxWorkers int

	// TrimTemporaryVariables makes Distinct drop "_:" variables first.
	TrimTemporaryVariables bool

	// Timeout applies to products. 0 disables it.
	Timeout time.Duration
}

// DefaultOptions returns parallel evaluation with trimming and no timeout.
func DefaultOptions() Options {
	return Options{Parallel: true, TrimTemporaryVariables: true}
}

// Context is the state carried through one evaluation.
//
// A Context belongs to one goroutine. Sub-queries get a child via NewChild;
// the child shares the dataset, options, timeout clock and partial flag but
// has its own graph scope and its own input and output multisets.
type Context struct {
	ctx context.Context

	Data  *dataset.Scoped
	Query *Query

	InputMultiset  *multiset.Multiset
	OutputMultiset *multiset.Multiset

	Binder     Binder
	Options    Options
	Optimizers []Optimizer
	Logger     *slog.Logger

	start   time.Time
	partial *atomic.Bool
}

// NewContext creates a root context. q may be nil when evaluating raw
// algebra.
func NewContext(ctx context.Context, data *dataset.Scoped, q *Query, opts Options) *Context {
	c := &Context{
		ctx:     ctx,
		Data:    data,
		Query:   q,
		Binder:  DefaultBinder{},
		Options: opts,
		Logger:  slog.Default(),
		start:   time.Now(),
		partial: new(atomic.Bool),
	}
	if q != nil {
		c.Optimizers = q.Optimizers
	}
	return c
}

// Context returns the standard context governing cancellation.
func (c *Context) Context() context.Context { return c.ctx }

// NewChild creates the context for a nested query q. The outer optimizer
// pipeline is shared. The graph scope is forked: the child starts from the
// current default and active graphs, and its own Set/Reset calls leave the
// parent untouched.
func (c *Context) NewChild(q *Query) *Context {
	var data *dataset.Scoped
	if c.Data != nil {
		data = c.Data.Fork()
	}
	return &Context{
		ctx:        c.ctx,
		Data:       data,
		Query:      q,
		Binder:     DefaultBinder{},
		Options:    c.Options,
		Optimizers: c.Optimizers,
		Logger:     c.Logger,
		start:      c.start,
		partial:    c.partial,
	}
}

// Evaluate evaluates op and records the result as the output multiset.
func (c *Context) Evaluate(op Operator) (*multiset.Multiset, error) {
	if err := c.ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", op, err)
	}
	result, err := op.Evaluate(c)
	if err != nil {
		return nil, err
	}
	c.OutputMultiset = result
	c.Logger.Debug("operator evaluated",
		"operator", op.String(),
		"kind", result.Kind().String(),
		"solutions", result.Len(),
	)
	return result, nil
}

// Optimize runs the optimizer pipeline over op.
func (c *Context) Optimize(op Operator) Operator {
	for _, o := range c.Optimizers {
		op = o.Optimize(op)
		c.Logger.Debug("optimizer applied", "optimizer", o.Name())
	}
	return op
}

// RemainingTimeout returns what is left of the timeout budget: 0 when no
// timeout is configured, and at least one nanosecond once it has run out so
// that products still return their (empty) partial result.
func (c *Context) RemainingTimeout() time.Duration {
	if c.Options.Timeout <= 0 {
		return 0
	}
	left := c.Options.Timeout - time.Since(c.start)
	if left <= 0 {
		return time.Nanosecond
	}
	return left
}

// MarkPartial records that a product was truncated by the timeout.
func (c *Context) MarkPartial() { c.partial.Store(true) }

// Partial reports whether any product in this evaluation was truncated.
func (c *Context) Partial() bool { return c.partial.Load() }

// WithBinder installs b and returns a function restoring the previous
// binder. Use with defer.
func (c *Context) WithBinder(b Binder) (restore func()) {
	prev := c.Binder
	c.Binder = b
	return func() { c.Binder = prev }
}

// WithInput installs m as the input multiset and returns a function
// restoring the previous one. Use with defer.
func (c *Context) WithInput(m *multiset.Multiset) (restore func()) {
	prev := c.InputMultiset
	c.InputMultiset = m
	return func() { c.InputMultiset = prev }
}

// Solution resolves id through the current binder.
func (c *Context) Solution(id int) (*solution.Set, bool) {
	if c.Binder == nil {
		return DefaultBinder{}.Solution(c, id)
	}
	return c.Binder.Solution(c, id)
}

func (c *Context) workers() int {
	if c.Options.MaxWorkers > 0 {
		return c.Options.MaxWorkers
	}
	return runtime.GOMAXPROCS(0)
}
