// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/babelcms/babel-go/internal/model"
)

// SeedLanguages inserts the supported language enumeration. Existing rows
// are left untouched so operators can toggle is_active without a reseed
// reverting it.
func (s *Store) SeedLanguages(ctx context.Context) error {
	now := time.Now()
	for _, l := range model.SupportedLanguages {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO languages (code, name, native_name, is_active, position, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(code) DO NOTHING`,
			l.Code, l.Name, l.NativeName, l.IsActive, l.Position, now, now,
		)
		if err != nil {
			return fmt.Errorf("seeding language %s: %w", l.Code, err)
		}
	}
	return nil
}

// ListLanguages returns all seeded languages ordered by position.
func (s *Store) ListLanguages(ctx context.Context) ([]model.Language, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, native_name, is_active, position, created_at, updated_at
		FROM languages
		ORDER BY position`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing languages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var languages []model.Language
	for rows.Next() {
		var l model.Language
		if err := rows.Scan(&l.ID, &l.Code, &l.Name, &l.NativeName,
			&l.IsActive, &l.Position, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning language: %w", err)
		}
		languages = append(languages, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating languages: %w", err)
	}
	return languages, nil
}
