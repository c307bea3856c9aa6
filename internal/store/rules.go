package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nikhil-bhat/mailsort/internal/rules"
)

// AddRule inserts a new rule, assigning it an id and creation time.
func (s *Store) AddRule(ctx context.Context, r *rules.Rule) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("store: invalid rule: %w", err)
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	_, err := s.ExecContext(ctx, `
		INSERT INTO rules (
			id, sender, sender_match, subject, subject_match,
			label_id, label_name, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, r.Sender, r.SenderMatch, r.Subject, r.SubjectMatch,
		r.LabelID, r.LabelName, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: failed to add rule: %w", err)
	}
	return nil
}

// GetRule retrieves a rule by id, returning nil when it does not exist.
func (s *Store) GetRule(ctx context.Context, id string) (*rules.Rule, error) {
	r := &rules.Rule{}
	err := s.QueryRowContext(ctx, `
		SELECT id, sender, sender_match, subject, subject_match,
		       label_id, label_name, created_at
		FROM rules WHERE id = ?
	`, id).Scan(
		&r.ID, &r.Sender, &r.SenderMatch, &r.Subject, &r.SubjectMatch,
		&r.LabelID, &r.LabelName, &r.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: failed to get rule: %w", err)
	}
	return r, nil
}

// ListRules returns all rules in creation order. This is the only read the
// batch engine performs; the returned slice is a snapshot and safe to hold
// while rules are edited concurrently.
func (s *Store) ListRules(ctx context.Context) ([]rules.Rule, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT id, sender, sender_match, subject, subject_match,
		       label_id, label_name, created_at
		FROM rules
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("store: failed to list rules: %w", err)
	}
	defer rows.Close()

	var out []rules.Rule
	for rows.Next() {
		var r rules.Rule
		if err := rows.Scan(
			&r.ID, &r.Sender, &r.SenderMatch, &r.Subject, &r.SubjectMatch,
			&r.LabelID, &r.LabelName, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("store: failed to scan rule: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: failed to list rules: %w", err)
	}
	return out, nil
}

// UpdateRule replaces every field of an existing rule.
func (s *Store) UpdateRule(ctx context.Context, r *rules.Rule) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("store: invalid rule: %w", err)
	}

	res, err := s.ExecContext(ctx, `
		UPDATE rules
		SET sender = ?, sender_match = ?, subject = ?, subject_match = ?,
		    label_id = ?, label_name = ?
		WHERE id = ?
	`,
		r.Sender, r.SenderMatch, r.Subject, r.SubjectMatch,
		r.LabelID, r.LabelName, r.ID,
	)
	if err != nil {
		return fmt.Errorf("store: failed to update rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: failed to update rule: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("store: rule %s not found", r.ID)
	}
	return nil
}

// DeleteRule removes a rule by id.
func (s *Store) DeleteRule(ctx context.Context, id string) error {
	res, err := s.ExecContext(ctx, `DELETE FROM rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: failed to delete rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: failed to delete rule: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("store: rule %s not found", id)
	}
	return nil
}
