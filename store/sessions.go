package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"time"

	"github.com/emojiworks/facefont/internal/logging"
)

// Session ID format: 8 lowercase alphanumeric characters.
const (
	sessionIDLength = 8
	sessionIDChars  = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// NewSessionID generates a random session identifier.
func NewSessionID() string {
	buf := make([]byte, sessionIDLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand.Read does not fail on supported platforms.
		panic(err)
	}
	for i, b := range buf {
		buf[i] = sessionIDChars[int(b)%len(sessionIDChars)]
	}
	return string(buf)
}

// ValidateSessionID reports whether id has the expected format.
func ValidateSessionID(id string) bool {
	if len(id) != sessionIDLength {
		return false
	}
	for _, c := range id {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// Timestamps holds a session's modification markers. Nil means the event has
// never happened.
type Timestamps struct {
	LastCaptureEdit *time.Time
	LastGeneration  *time.Time
}

// Touch updates a session's last-activity marker if the session has persisted
// data. Sessions with no data have no row to touch.
func (s *Store) Touch(ctx context.Context, session string) error {
	if !ValidateSessionID(session) {
		return ErrInvalidSessionID
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET last_activity = ? WHERE id = ?",
		time.Now().UnixMilli(), session)
	if err != nil {
		return fmt.Errorf("store: touch session: %w", err)
	}
	return nil
}

// Timestamps returns the session's capture-edit and generation markers.
func (s *Store) Timestamps(ctx context.Context, session string) (Timestamps, error) {
	if !ValidateSessionID(session) {
		return Timestamps{}, ErrInvalidSessionID
	}
	var edit, gen sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT last_capture_edit, last_generation FROM sessions WHERE id = ?",
		session).Scan(&edit, &gen)
	if err == sql.ErrNoRows {
		return Timestamps{}, nil
	}
	if err != nil {
		return Timestamps{}, fmt.Errorf("store: read timestamps: %w", err)
	}

	var ts Timestamps
	if edit.Valid {
		t := time.UnixMilli(edit.Int64)
		ts.LastCaptureEdit = &t
	}
	if gen.Valid {
		t := time.UnixMilli(gen.Int64)
		ts.LastGeneration = &t
	}
	return ts, nil
}

// DeleteSession removes a session and everything stored under it.
// Returns false if the session had no persisted data.
func (s *Store) DeleteSession(ctx context.Context, session string) (bool, error) {
	if !ValidateSessionID(session) {
		return false, ErrInvalidSessionID
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", session)
	if err != nil {
		return false, fmt.Errorf("store: delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: delete session: %w", err)
	}
	return n > 0, nil
}

// CleanupExpired removes every session whose last activity is older than ttl.
// Returns the number of sessions removed. Session lifetime policy belongs to
// the caller; the store only executes the sweep.
func (s *Store) CleanupExpired(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().Add(-ttl).UnixMilli()
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE last_activity <= ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("store: cleanup: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: cleanup: %w", err)
	}
	if n > 0 {
		logging.Logger().Info("removed expired sessions", "count", n)
	}
	return int(n), nil
}

// ensureSession creates the session row on first write and refreshes its
// activity marker otherwise. Runs inside the caller's transaction.
func ensureSession(ctx context.Context, tx *sql.Tx, session string, now int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at, last_activity)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET last_activity = excluded.last_activity`,
		session, now, now)
	if err != nil {
		return fmt.Errorf("store: ensure session: %w", err)
	}
	return nil
}
