package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/emojiworks/facefont/internal/logging"
	"github.com/emojiworks/facefont/segmenter"
)

// Settings returns the session's capture settings, falling back to the
// defaults when none are stored or the stored row is unreadable.
func (s *Store) Settings(ctx context.Context, session string) (segmenter.Settings, error) {
	if !ValidateSessionID(session) {
		return segmenter.Settings{}, ErrInvalidSessionID
	}

	var (
		got                    segmenter.Settings
		keepBG, keepCl, keepAc int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT padding, keep_background, keep_clothes, keep_accessories
		FROM settings WHERE session_id = ?`,
		session).Scan(&got.Padding, &keepBG, &keepCl, &keepAc)
	if err == sql.ErrNoRows {
		return segmenter.DefaultSettings(), nil
	}
	if err != nil {
		return segmenter.Settings{}, fmt.Errorf("store: read settings: %w", err)
	}

	got.KeepBackground = keepBG != 0
	got.KeepClothes = keepCl != 0
	got.KeepAccessories = keepAc != 0
	if err := got.Validate(); err != nil {
		logging.Logger().Warn("stored settings out of range, using defaults",
			"session", session, "err", err)
		return segmenter.DefaultSettings(), nil
	}
	return got, nil
}

// SaveSettings stores the session's capture settings, replacing any previous
// values.
func (s *Store) SaveSettings(ctx context.Context, session string, settings segmenter.Settings) error {
	if !ValidateSessionID(session) {
		return ErrInvalidSessionID
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := ensureSession(ctx, tx, session, now); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO settings (session_id, padding, keep_background, keep_clothes, keep_accessories)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(session_id) DO UPDATE SET
			  padding = excluded.padding,
			  keep_background = excluded.keep_background,
			  keep_clothes = excluded.keep_clothes,
			  keep_accessories = excluded.keep_accessories`,
			session, settings.Padding, boolInt(settings.KeepBackground),
			boolInt(settings.KeepClothes), boolInt(settings.KeepAccessories))
		if err != nil {
			return fmt.Errorf("store: save settings: %w", err)
		}
		return nil
	})
}
