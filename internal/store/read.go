package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/leviathan/internal/dataset"
	"github.com/roach88/leviathan/internal/rdf"
)

// ErrGraphNotFound is returned by LoadGraph for a graph the store does not
// hold.
var ErrGraphNotFound = errors.New("graph not found")

// GraphInfo describes a stored graph.
type GraphInfo struct {
	Name    rdf.Term // nil for the unnamed graph
	Triples int
}

// Graphs lists the stored graphs, the unnamed graph first, then named
// graphs by URI.
func (s *Store) Graphs(ctx context.Context) ([]GraphInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT uri, triple_count FROM graphs
		ORDER BY uri COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query graphs: %w", err)
	}
	defer rows.Close()

	infos := []GraphInfo{}
	for rows.Next() {
		var key string
		var info GraphInfo
		if err := rows.Scan(&key, &info.Triples); err != nil {
			return nil, fmt.Errorf("scan graph: %w", err)
		}
		info.Name = graphName(key)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate graphs: %w", err)
	}
	return infos, nil
}

// GraphURIs returns the names of the stored named graphs, sorted.
func (s *Store) GraphURIs(ctx context.Context) ([]rdf.Term, error) {
	infos, err := s.Graphs(ctx)
	if err != nil {
		return nil, err
	}
	uris := []rdf.Term{}
	for _, info := range infos {
		if info.Name != nil {
			uris = append(uris, info.Name)
		}
	}
	return uris, nil
}

// LoadGraph reads uri's graph in insertion order. Returns ErrGraphNotFound
// when the store does not hold it.
func (s *Store) LoadGraph(ctx context.Context, uri rdf.Term) (*rdf.MemGraph, error) {
	key, err := graphKey(uri)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM graphs WHERE uri = ?`, key).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load graph %q: %w", key, ErrGraphNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load graph %q: %w", key, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT subject, predicate, object FROM quads
		WHERE graph = ?
		ORDER BY position ASC, triple_hash COLLATE BINARY ASC
	`, key)
	if err != nil {
		return nil, fmt.Errorf("load graph %q: %w", key, err)
	}
	defer rows.Close()

	g := rdf.NewMemGraph(uri)
	for rows.Next() {
		t, err := scanTriple(rows)
		if err != nil {
			return nil, fmt.Errorf("load graph %q: %w", key, err)
		}
		g.Assert(t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load graph %q: iterate quads: %w", key, err)
	}
	return g, nil
}

// LoadDataset reads every stored graph into an in-memory dataset that
// writes committed changes back to s on Flush.
func (s *Store) LoadDataset(ctx context.Context, opts ...dataset.MemoryOption) (*dataset.Memory, error) {
	infos, err := s.Graphs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	graphs := make([]rdf.Graph, 0, len(infos))
	for _, info := range infos {
		g, err := s.LoadGraph(ctx, info.Name)
		if err != nil {
			return nil, fmt.Errorf("load dataset: %w", err)
		}
		graphs = append(graphs, g)
	}
	opts = append(opts, dataset.WithPersister(s))
	return dataset.NewMemory(graphs, opts...), nil
}

func scanTriple(rows *sql.Rows) (rdf.Triple, error) {
	var subj, pred, obj string
	if err := rows.Scan(&subj, &pred, &obj); err != nil {
		return rdf.Triple{}, fmt.Errorf("scan quad: %w", err)
	}
	s, err := decodeTerm("subject", subj)
	if err != nil {
		return rdf.Triple{}, err
	}
	p, err := decodeTerm("predicate", pred)
	if err != nil {
		return rdf.Triple{}, err
	}
	o, err := decodeTerm("object", obj)
	if err != nil {
		return rdf.Triple{}, err
	}
	return rdf.NewTriple(s, p, o), nil
}

// ReadExecutions returns the recorded executions ordered by seq.
//
// Returns an empty slice (not nil) if nothing was recorded.
func (s *Store) ReadExecutions(ctx context.Context) ([]Execution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, seq, query, form, solutions, partial, elapsed_ns
		FROM executions
		ORDER BY seq ASC, token COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}
	defer rows.Close()

	execs := []Execution{}
	for rows.Next() {
		var e Execution
		var elapsed int64
		if err := rows.Scan(&e.Token, &e.Seq, &e.Query, &e.Form, &e.Solutions, &e.Partial, &elapsed); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		e.Elapsed = time.Duration(elapsed)
		execs = append(execs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executions: %w", err)
	}
	return execs, nil
}

// LastSeq returns the highest recorded sequence number, 0 when none.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM executions`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}
