// Package query turns a clinical summary into retrieval queries.
//
// A Builder collects base terms from the summary in a fixed order (flag
// topic phrases, then codes and labels, then the chief complaint, with a
// narrative fallback) and expands them against a Synonyms table into two
// strings: a space-joined string for the embedder and a boolean
// OR-group/AND expression for the lexical index.
package query
