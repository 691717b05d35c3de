// Package querysql compiles a semantic query IR into SQL text.
//
// A Compiler pairs an immutable semantic layer with one compilation pass:
//
//  1. collect every entity the query references
//  2. map entities to the physical tables they need
//  3. connect those tables through the foreign-key graph
//  4. assign per-call table aliases (t1, t2, ...)
//  5. render SELECT, FROM/JOIN, WHERE, GROUP BY, HAVING, ORDER BY and
//     LIMIT/OFFSET, one clause per line, terminated by ";"
//
// All per-call state lives in a Workspace value, so a single Compiler is
// safe for concurrent use. Every set is iterated in sorted order and the
// output for a given query and layer is byte-for-byte stable.
//
// Literals are embedded, not parameterized. The output is meant for trusted
// analytics tooling and must not be fed untrusted values.
package querysql
