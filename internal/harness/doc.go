// Package harness runs conformance scenarios against the query engine.
//
// A scenario names a plan file, optional engine settings and the outcome
// the query must have. The plan's data is written to a fresh in-memory
// SQLite store and read back before the query runs, so every scenario also
// exercises persistence.
//
// # Scenario Format
//
//	name: friends_of_alice
//	description: "Alice's friends, ordered by name"
//	plan: plans/friends.yaml
//	config: engine.yaml
//	execution_token: friends-001
//	assertions:
//	  - type: solution_count
//	    count: 2
//	  - type: column
//	    var: name
//	    values: ['"Bob"', '"Carol"']
//	  - type: contains
//	    row: {name: '"Bob"', age: '25'}
//	  - type: graph_triples
//	    graph: http://example.org/friends
//	    count: 2
//
// Plan and config paths are relative to the scenario file. Terms in
// assertions use the plan's notation and prefixes; UNDEF stands for an
// unbound variable. A scenario that expects the execution to fail sets
// expect_error to a substring of the error instead.
//
// # Assertion Types
//
//   - solution_count: the number of solutions
//   - column: the values of one variable, in result order
//   - contains: some solution binds the given variables to the given terms
//   - ask: the boolean result of an ASK query
//   - partial: whether the result was cut short by the timeout
//   - graph_triples: the number of triples the store holds for a graph
//
// # Deterministic Testing
//
// Scenarios run with a fixed execution token, a fresh logical clock and
// sequential blank node labels, so results can be compared byte for byte
// against golden files. Go tests use RunWithGolden, which stores them under
// testdata/golden and regenerates them with:
//
//	go test ./internal/harness -update
//
// RunSuite runs every scenario of a directory and compares against golden
// files on disk, for use outside go test.
package harness
