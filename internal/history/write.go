package history

import (
	"context"
	"fmt"
	"log/slog"
)

// Write inserts rec and returns its sequence number. Writing an ID that is
// already present is a no-op that returns the existing sequence number.
// rec.Seq is ignored.
func (s *Store) Write(ctx context.Context, rec Record) (int64, error) {
	if rec.ID == "" {
		return 0, fmt.Errorf("write record: id is required")
	}
	if rec.Status != StatusOK && rec.Status != StatusError {
		return 0, fmt.Errorf("write record %s: invalid status %q", rec.ID, rec.Status)
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO compilations
		(id, fingerprint, question, ir, sql_text, status, error_code, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`),
		rec.ID,
		rec.Fingerprint,
		rec.Question,
		rec.IR,
		rec.SQL,
		string(rec.Status),
		rec.ErrorCode,
		rec.ErrorMessage,
	)
	if err != nil {
		return 0, fmt.Errorf("write record %s: %w", rec.ID, err)
	}

	var seq int64
	if err := s.db.QueryRowContext(ctx, s.rebind(`SELECT seq FROM compilations WHERE id = ?`), rec.ID).Scan(&seq); err != nil {
		return 0, fmt.Errorf("write record %s: read seq: %w", rec.ID, err)
	}

	slog.Debug("history record written",
		"id", rec.ID,
		"seq", seq,
		"status", rec.Status,
		"fingerprint", rec.Fingerprint)
	return seq, nil
}
