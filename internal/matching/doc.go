// Package matching implements the pure predicate matchers that decide
// whether a single request attribute (method, path, header, query
// parameter or body) satisfies a matcher spec.
//
// Every function here is total: a malformed pattern (bad regex,
// unparseable XML, invalid JSONPath) is reported as a non-match, never
// as an error or a panic. Matchers never mutate their inputs and never
// perform I/O.
package matching
