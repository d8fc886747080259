// Package engine executes queries: it turns an eval.Query into a Result.
//
// One Execute call is one execution. Each execution gets a token (UUIDv7 by
// default) and a sequence number from the engine's logical clock; both are
// attached to every log line the evaluation emits and to the Result.
//
// EXECUTION:
//
//  1. The dataset is wrapped in a fresh graph scope. FROM graphs become the
//     default graph; FROM NAMED graphs restrict GRAPH ?g enumeration.
//  2. The optimizer pipeline runs: the built-in fast paths, then the
//     engine's optimizers, then the query's own.
//  3. The root operator is evaluated.
//  4. The result multiset is shaped: grouped results are flattened, the
//     projection is applied, temporary variables are dropped, and ASK
//     queries are reduced to a boolean.
//
// A product that runs out of the timeout budget does not fail the query:
// the result is returned with Partial set.
//
// Engines are safe for concurrent use. Executions share the dataset and the
// clock but nothing else.
package engine
