// Package store provides SQLite-backed persistence for datasets.
//
// Graphs are stored as quads: one row per (graph, triple). The unnamed
// default graph uses the empty string as its graph column. Terms are stored
// in N-Triples form and parsed back with rdf.ParseTerm.
//
// A Store implements dataset.Persister, so a dataset loaded with
// LoadDataset writes committed graph changes through on Flush. SaveGraph
// replaces a graph's rows in one transaction.
//
// The store also keeps a log of query executions (token, sequence number,
// result size) so that sequence numbering can continue across processes.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Quads are removed with their graph
//
// All reads order deterministically (ORDER BY ... COLLATE BINARY).
package store
