package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Settings keys for the saved credential. Both values are written and
// cleared together.
const (
	keyAccessToken     = "access_token"
	keyTokenAcquiredAt = "token_acquired_at"
)

// LoadToken returns the persisted access token and acquisition time. A store
// with no saved token returns an empty token and no error.
func (s *Store) LoadToken(ctx context.Context) (string, time.Time, error) {
	token, err := s.getSetting(ctx, keyAccessToken)
	if err != nil {
		return "", time.Time{}, err
	}
	if token == "" {
		return "", time.Time{}, nil
	}

	var acquiredAt time.Time
	if raw, err := s.getSetting(ctx, keyTokenAcquiredAt); err == nil && raw != "" {
		if t, perr := time.Parse(time.RFC3339, raw); perr == nil {
			acquiredAt = t
		}
	}
	return token, acquiredAt, nil
}

// SaveToken persists the access token, replacing any previous one.
func (s *Store) SaveToken(ctx context.Context, token string, acquiredAt time.Time) error {
	if err := s.setSetting(ctx, keyAccessToken, token); err != nil {
		return err
	}
	return s.setSetting(ctx, keyTokenAcquiredAt, acquiredAt.Format(time.RFC3339))
}

// DeleteToken removes the persisted access token.
func (s *Store) DeleteToken(ctx context.Context) error {
	if err := s.deleteSetting(ctx, keyAccessToken); err != nil {
		return err
	}
	return s.deleteSetting(ctx, keyTokenAcquiredAt)
}

func (s *Store) getSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: failed to read setting %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) setSetting(ctx context.Context, key, value string) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("store: failed to write setting %s: %w", key, err)
	}
	return nil
}

func (s *Store) deleteSetting(ctx context.Context, key string) error {
	if _, err := s.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("store: failed to delete setting %s: %w", key, err)
	}
	return nil
}
