package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/leviathan/internal/dataset"
	"github.com/roach88/leviathan/internal/rdf"
)

// SaveGraph replaces the stored contents of g's graph with g's triples.
// Runs in one transaction: readers see the old or the new graph, never a
// mix. Implements dataset.Persister.
func (s *Store) SaveGraph(ctx context.Context, g rdf.Graph) error {
	key, err := graphKey(g.Name())
	if err != nil {
		return fmt.Errorf("save graph: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save graph %q: begin tx: %w", key, err)
	}
	defer tx.Rollback() // No-op if committed

	triples := g.Triples()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO graphs (uri, triple_count) VALUES (?, ?)
		ON CONFLICT(uri) DO UPDATE SET triple_count = excluded.triple_count
	`, key, len(triples)); err != nil {
		return fmt.Errorf("save graph %q: %w", key, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM quads WHERE graph = ?`, key); err != nil {
		return fmt.Errorf("save graph %q: clear quads: %w", key, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO quads (graph, triple_hash, position, subject, predicate, object)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(graph, triple_hash) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("save graph %q: prepare: %w", key, err)
	}
	defer stmt.Close()

	for i, t := range triples {
		subj, err := encodeTerm(t.Subject)
		if err != nil {
			return fmt.Errorf("save graph %q: subject: %w", key, err)
		}
		pred, err := encodeTerm(t.Predicate)
		if err != nil {
			return fmt.Errorf("save graph %q: predicate: %w", key, err)
		}
		obj, err := encodeTerm(t.Object)
		if err != nil {
			return fmt.Errorf("save graph %q: object: %w", key, err)
		}
		if _, err := stmt.ExecContext(ctx, key, tripleHash(t), i, subj, pred, obj); err != nil {
			return fmt.Errorf("save graph %q: insert %s: %w", key, t, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save graph %q: commit: %w", key, err)
	}
	return nil
}

// DeleteGraph removes uri's graph and its quads. Deleting an absent graph
// is not an error. Implements dataset.Persister.
func (s *Store) DeleteGraph(ctx context.Context, uri rdf.Term) error {
	key, err := graphKey(uri)
	if err != nil {
		return fmt.Errorf("delete graph: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM graphs WHERE uri = ?`, key); err != nil {
		return fmt.Errorf("delete graph %q: %w", key, err)
	}
	return nil
}

// SaveDataset saves every graph of ds, the unnamed one included.
func (s *Store) SaveDataset(ctx context.Context, ds dataset.Dataset) error {
	for _, g := range ds.Graphs() {
		if err := s.SaveGraph(ctx, g); err != nil {
			return err
		}
	}
	return nil
}

// Execution is the record of one query execution.
type Execution struct {
	Token     string
	Seq       int64
	Query     string
	Form      string
	Solutions int
	Partial   bool
	Elapsed   time.Duration
}

// RecordExecution appends an execution record.
// Uses ON CONFLICT(token) DO NOTHING - recording the same token twice is a no-op.
func (s *Store) RecordExecution(ctx context.Context, e Execution) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO executions (token, seq, query, form, solutions, partial, elapsed_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		e.Token,
		e.Seq,
		e.Query,
		e.Form,
		e.Solutions,
		e.Partial,
		int64(e.Elapsed),
	)
	if err != nil {
		return fmt.Errorf("record execution %s: %w", e.Token, err)
	}
	return nil
}
