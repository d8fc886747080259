// Package rdf provides the term, triple and graph types the evaluation engine
// works over.
//
// This package sits at the bottom of the dependency graph: every other
// internal package imports rdf, rdf imports nothing internal.
//
// Key design constraints:
//   - Term is a sealed interface (IRI, BlankNode, Literal only)
//   - A nil Term means "unbound" wherever a Term is optional
//   - Term equality is decided by canonical keys (NFC-normalized), never by
//     Go value identity
//   - Graph lookups return fresh slices; callers may keep them
package rdf
