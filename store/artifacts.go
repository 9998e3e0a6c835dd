package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Artifact is a compiled font container for one session.
type Artifact struct {
	// FontName is the family name the font was built with.
	FontName string

	// WOFF2 is the compressed container, served byte for byte.
	WOFF2 []byte

	// GeneratedAt is the snapshot instant of the capture set the font was
	// assembled from.
	GeneratedAt time.Time
}

// SaveArtifact stores the compiled font for a session, replacing any previous
// artifact, and records generatedAt as the session's last generation time.
func (s *Store) SaveArtifact(ctx context.Context, session string, artifact Artifact) error {
	if !ValidateSessionID(session) {
		return ErrInvalidSessionID
	}
	now := time.Now().UnixMilli()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := ensureSession(ctx, tx, session, now); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO artifacts (session_id, font_name, woff2, generated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(session_id) DO UPDATE SET
			  font_name = excluded.font_name,
			  woff2 = excluded.woff2,
			  generated_at = excluded.generated_at`,
			session, artifact.FontName, artifact.WOFF2, artifact.GeneratedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("store: save artifact: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE sessions SET last_generation = ?, last_activity = ? WHERE id = ?",
			artifact.GeneratedAt.UnixMilli(), now, session)
		if err != nil {
			return fmt.Errorf("store: record generation: %w", err)
		}
		return nil
	})
}

// Artifact returns the session's compiled font, or ErrNotFound when no export
// has happened yet.
func (s *Store) Artifact(ctx context.Context, session string) (*Artifact, error) {
	if !ValidateSessionID(session) {
		return nil, ErrInvalidSessionID
	}
	var (
		a           Artifact
		generatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT font_name, woff2, generated_at FROM artifacts WHERE session_id = ?",
		session).Scan(&a.FontName, &a.WOFF2, &generatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: artifact", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: read artifact: %w", err)
	}
	a.GeneratedAt = time.UnixMilli(generatedAt)
	return &a, nil
}

// Stale reports whether the session's artifact is out of date: a capture was
// modified after the artifact's generation time, or no artifact exists at
// all. Sessions with neither captures nor artifact are not stale.
func (s *Store) Stale(ctx context.Context, session string) (bool, error) {
	ts, err := s.Timestamps(ctx, session)
	if err != nil {
		return false, err
	}
	if ts.LastGeneration == nil {
		return ts.LastCaptureEdit != nil, nil
	}
	if ts.LastCaptureEdit == nil {
		return false, nil
	}
	return ts.LastCaptureEdit.After(*ts.LastGeneration), nil
}
