// Package history records every compilation the CLI performs.
//
// A record keeps the IR as JSON with its literals as written, the IR's
// fingerprint, the generated SQL or the typed error, and the optional
// natural-language question that produced the IR. Records are ordered by a store-assigned sequence number;
// no wall-clock timestamps are stored.
//
// Two backends are supported behind database/sql:
//
//	postgres://... or postgresql://...   PostgreSQL via pgx
//	anything else                        a SQLite database file
//
// Writes are idempotent on record ID.
package history
