package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/emojiworks/facefont/bitmap"
	"github.com/emojiworks/facefont/emoji"
	"github.com/emojiworks/facefont/internal/logging"
)

// Capture is one stored bitmap for one glyph of one session.
type Capture struct {
	// Glyph identifies the capture.
	Glyph emoji.Glyph

	// Bitmap is the canonical-size pixel buffer.
	Bitmap *bitmap.Bitmap

	// PNG is the encoded form of Bitmap as stored on disk.
	PNG []byte

	// UpdatedAt is the time of the last Put for this glyph.
	UpdatedAt time.Time
}

// Put stores bm as the capture for glyph, replacing any existing capture
// wholesale, and advances the session's capture-edit marker.
//
// Writes to the same (session, glyph) key are serialized: a Put that arrives
// while another is in flight fails with ErrConcurrentModification and should
// be retried. Writes to different keys proceed independently. Readers see
// either the previous capture or the new one, never a torn write.
func (s *Store) Put(ctx context.Context, session string, glyph emoji.Glyph, bm *bitmap.Bitmap) error {
	if !ValidateSessionID(session) {
		return ErrInvalidSessionID
	}
	if bm.Width() != bitmap.CanonicalSize || bm.Height() != bitmap.CanonicalSize {
		return fmt.Errorf("store: capture for %s is %dx%d, want %dx%d",
			glyph.HexKey(), bm.Width(), bm.Height(), bitmap.CanonicalSize, bitmap.CanonicalSize)
	}

	lockKey := session + "/" + glyph.HexKey()
	if !s.locks.tryAcquire(lockKey) {
		return fmt.Errorf("%w: %s", ErrConcurrentModification, glyph.HexKey())
	}
	defer s.locks.release(lockKey)

	var png bytes.Buffer
	if err := bm.EncodePNG(&png); err != nil {
		return fmt.Errorf("store: encode capture: %w", err)
	}

	now := time.Now().UnixMilli()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := ensureSession(ctx, tx, session, now); err != nil {
			return err
		}
		position, err := s.capturePosition(ctx, tx, session, glyph)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO captures (session_id, hex_key, glyph, name, is_custom, position, png, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(session_id, hex_key) DO UPDATE SET
			  glyph = excluded.glyph,
			  name = excluded.name,
			  is_custom = excluded.is_custom,
			  png = excluded.png,
			  updated_at = excluded.updated_at`,
			session, glyph.HexKey(), glyph.String(), glyph.Name,
			boolInt(glyph.Custom), position, png.Bytes(), now)
		if err != nil {
			return fmt.Errorf("store: put capture: %w", err)
		}
		return touchCaptureEdit(ctx, tx, session, now)
	})
}

// capturePosition returns the ordering position for a new capture row.
// Standard glyphs sit at their registry index; custom glyphs append after the
// registry in insertion order. A replaced capture keeps its position.
func (s *Store) capturePosition(ctx context.Context, tx *sql.Tx, session string, glyph emoji.Glyph) (int, error) {
	if !glyph.Custom {
		for i, g := range s.registry.Glyphs() {
			if g.HexKey() == glyph.HexKey() {
				return i, nil
			}
		}
		return 0, fmt.Errorf("store: glyph %s not in registry", glyph.HexKey())
	}

	var max sql.NullInt64
	err := tx.QueryRowContext(ctx,
		"SELECT MAX(position) FROM captures WHERE session_id = ? AND is_custom = 1",
		session).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("store: next custom position: %w", err)
	}
	position := s.registry.Len()
	if max.Valid && int(max.Int64) >= position {
		position = int(max.Int64) + 1
	}
	return position, nil
}

// Get returns the capture stored for the glyph with the given hex key.
// Returns ErrNotFound if the session has no capture for it.
func (s *Store) Get(ctx context.Context, session, hexKey string) (*Capture, error) {
	if !ValidateSessionID(session) {
		return nil, ErrInvalidSessionID
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT glyph, name, is_custom, png, updated_at
		FROM captures WHERE session_id = ? AND hex_key = ?`,
		session, hexKey)
	c, err := scanCapture(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: capture %s", ErrNotFound, hexKey)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get capture: %w", err)
	}
	return c, nil
}

// Delete removes the capture with the given hex key.
// Returns false if no such capture existed.
func (s *Store) Delete(ctx context.Context, session, hexKey string) (bool, error) {
	if !ValidateSessionID(session) {
		return false, ErrInvalidSessionID
	}
	now := time.Now().UnixMilli()
	var deleted bool
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM captures WHERE session_id = ? AND hex_key = ?",
			session, hexKey)
		if err != nil {
			return fmt.Errorf("store: delete capture: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("store: delete capture: %w", err)
		}
		deleted = n > 0
		if !deleted {
			return nil
		}
		return touchCaptureEdit(ctx, tx, session, now)
	})
	return deleted, err
}

// List returns a point-in-time snapshot of the session's captures, ordered by
// registry position for standard glyphs followed by insertion order for
// custom glyphs.
func (s *Store) List(ctx context.Context, session string) ([]Capture, error) {
	if !ValidateSessionID(session) {
		return nil, ErrInvalidSessionID
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT glyph, name, is_custom, png, updated_at
		FROM captures WHERE session_id = ?
		ORDER BY position, hex_key`,
		session)
	if err != nil {
		return nil, fmt.Errorf("store: list captures: %w", err)
	}
	defer rows.Close()

	var captures []Capture
	for rows.Next() {
		c, err := scanCapture(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("store: list captures: %w", err)
		}
		captures = append(captures, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list captures: %w", err)
	}
	return captures, nil
}

// Clear removes every capture of the session and invalidates its cached font
// artifact. Returns the number of captures removed.
func (s *Store) Clear(ctx context.Context, session string) (int, error) {
	if !ValidateSessionID(session) {
		return 0, ErrInvalidSessionID
	}
	now := time.Now().UnixMilli()
	var count int
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM captures WHERE session_id = ?", session)
		if err != nil {
			return fmt.Errorf("store: clear captures: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("store: clear captures: %w", err)
		}
		count = int(n)
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM artifacts WHERE session_id = ?", session); err != nil {
			return fmt.Errorf("store: clear artifact: %w", err)
		}
		if count == 0 {
			return nil
		}
		return touchCaptureEdit(ctx, tx, session, now)
	})
	if err != nil {
		return 0, err
	}
	logging.Logger().Debug("cleared captures", "session", session, "count", count)
	return count, nil
}

// scanCapture builds a Capture from a row scanner over
// (glyph, name, is_custom, png, updated_at).
func scanCapture(scan func(...any) error) (*Capture, error) {
	var (
		glyphStr  string
		name      string
		isCustom  int
		png       []byte
		updatedAt int64
	)
	if err := scan(&glyphStr, &name, &isCustom, &png, &updatedAt); err != nil {
		return nil, err
	}
	bm, err := bitmap.DecodePNG(bytes.NewReader(png))
	if err != nil {
		return nil, fmt.Errorf("stored capture corrupt: %w", err)
	}
	return &Capture{
		Glyph: emoji.Glyph{
			Codepoints: []rune(glyphStr),
			Name:       name,
			Custom:     isCustom != 0,
		},
		Bitmap:    bm,
		PNG:       png,
		UpdatedAt: time.UnixMilli(updatedAt),
	}, nil
}

// touchCaptureEdit advances the session's capture-edit marker inside tx.
func touchCaptureEdit(ctx context.Context, tx *sql.Tx, session string, now int64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE sessions SET last_capture_edit = ?, last_activity = ? WHERE id = ?",
		now, now, session)
	if err != nil {
		return fmt.Errorf("store: touch capture edit: %w", err)
	}
	return nil
}

// inTx runs fn inside a transaction, committing on success.
func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// boolInt converts a bool to its SQLite integer form.
func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
