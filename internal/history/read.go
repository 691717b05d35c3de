package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no record has the requested ID.
var ErrNotFound = errors.New("history record not found")

const selectColumns = `seq, id, fingerprint, question, ir, sql_text, status, error_code, error_message`

// Get returns the record with the given ID.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+selectColumns+` FROM compilations WHERE id = ?`), id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get %s: %w", id, err)
	}
	return rec, nil
}

// List returns up to limit records, newest first. A non-positive limit
// returns every record.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT ` + selectColumns + ` FROM compilations ORDER BY seq DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.query(ctx, "list", query, args...)
}

// ByFingerprint returns every record of the given IR fingerprint, oldest first.
func (s *Store) ByFingerprint(ctx context.Context, fingerprint string) ([]Record, error) {
	return s.query(ctx, "by fingerprint",
		`SELECT `+selectColumns+` FROM compilations WHERE fingerprint = ? ORDER BY seq ASC`,
		fingerprint)
}

func (s *Store) query(ctx context.Context, op, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var rec Record
	var status string
	err := sc.Scan(
		&rec.Seq,
		&rec.ID,
		&rec.Fingerprint,
		&rec.Question,
		&rec.IR,
		&rec.SQL,
		&status,
		&rec.ErrorCode,
		&rec.ErrorMessage,
	)
	rec.Status = Status(status)
	return rec, err
}
