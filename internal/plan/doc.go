// Package plan reads plan files: structured descriptions of a dataset and a
// query's algebra tree, written in YAML or CUE. It is not a query-language
// parser; a plan spells out the operator tree directly.
//
//	name: friends
//	prefixes:
//	  ex: http://example.org/
//	  foaf: http://xmlns.com/foaf/0.1/
//	data:
//	  default:
//	    - [ex:alice, foaf:name, '"Alice"@en']
//	  graphs:
//	    http://example.org/friends:
//	      - [ex:alice, foaf:knows, ex:bob]
//	query:
//	  select: [n]
//	  where:
//	    bgp:
//	      - ["?p", foaf:name, "?n"]
//
// Term notation: <iri>, prefix:local, "lexical" with optional @lang or
// ^^datatype, bare integers, decimals and booleans, the keyword a for
// rdf:type, and blank nodes _:label or []. Blank nodes in data get fresh
// labels per plan; in patterns they are temporary variables. ?name is a
// variable. In YAML flow lists, terms starting with ? or [ and quoted
// literals must be quoted again; CUE plans quote every term.
package plan
