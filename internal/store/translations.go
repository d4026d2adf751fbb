// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/babelcms/babel-go/internal/model"
)

// FindTranslation returns the translation for a (post, language) pair.
func (s *Store) FindTranslation(ctx context.Context, postID int64, lang string) (*model.Translation, error) {
	t := &model.Translation{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, original_post_id, language_code, title, excerpt, body, slug, status, created_at, updated_at
		FROM translations
		WHERE original_post_id = ? AND language_code = ?`, postID, lang,
	).Scan(&t.ID, &t.OriginalPostID, &t.LanguageCode, &t.Title, &t.Excerpt,
		&t.Body, &t.Slug, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding translation for post %d lang %s: %w", postID, lang, err)
	}
	return t, nil
}

// ListTranslations returns all translations for a post ordered by language code.
func (s *Store) ListTranslations(ctx context.Context, postID int64) ([]model.Translation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, original_post_id, language_code, title, excerpt, body, slug, status, created_at, updated_at
		FROM translations
		WHERE original_post_id = ?
		ORDER BY language_code`, postID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing translations for post %d: %w", postID, err)
	}
	defer func() { _ = rows.Close() }()
	return scanTranslations(rows)
}

// ListFailedTranslations returns translations stuck in the failed state.
func (s *Store) ListFailedTranslations(ctx context.Context) ([]model.Translation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, original_post_id, language_code, title, excerpt, body, slug, status, created_at, updated_at
		FROM translations
		WHERE status = ?
		ORDER BY updated_at`, model.TranslationStatusFailed,
	)
	if err != nil {
		return nil, fmt.Errorf("listing failed translations: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanTranslations(rows)
}

func scanTranslations(rows *sql.Rows) ([]model.Translation, error) {
	var out []model.Translation
	for rows.Next() {
		var t model.Translation
		if err := rows.Scan(&t.ID, &t.OriginalPostID, &t.LanguageCode, &t.Title, &t.Excerpt,
			&t.Body, &t.Slug, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning translation: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating translations: %w", err)
	}
	return out, nil
}

// UpsertTranslation inserts the translation or, when a row already exists
// for the (post, language) pair, updates it in place. Returns the row id.
func (s *Store) UpsertTranslation(ctx context.Context, t *model.Translation) (int64, error) {
	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO translations (original_post_id, language_code, title, excerpt, body, slug, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(original_post_id, language_code) DO UPDATE SET
			title = excluded.title,
			excerpt = excluded.excerpt,
			body = excluded.body,
			slug = excluded.slug,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		t.OriginalPostID, t.LanguageCode, t.Title, t.Excerpt, t.Body, t.Slug, t.Status, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("upserting translation: %w", err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM translations WHERE original_post_id = ? AND language_code = ?`,
		t.OriginalPostID, t.LanguageCode,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("reading upserted translation id: %w", err)
	}
	return id, nil
}

// MarkTranslationStatus updates only the status column.
func (s *Store) MarkTranslationStatus(ctx context.Context, id int64, status string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE translations SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now(), id,
	); err != nil {
		return fmt.Errorf("marking translation %d %s: %w", id, status, err)
	}
	return nil
}

// ReplaceSections replaces all translated sections of a translation in a
// single transaction so readers never observe a partially written set.
func (s *Store) ReplaceSections(ctx context.Context, translationID int64, sections []model.TranslatedSection) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning replace-sections tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM translated_sections WHERE translation_id = ?`, translationID,
	); err != nil {
		return fmt.Errorf("deleting old translated sections: %w", err)
	}

	now := time.Now()
	for _, sec := range sections {
		data := string(sec.Data)
		if data == "" {
			data = "{}"
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO translated_sections (translation_id, original_section_id, position, data, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			translationID, sec.OriginalSectionID, sec.Position, data, now,
		); err != nil {
			return fmt.Errorf("inserting translated section for section %d: %w", sec.OriginalSectionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing replace-sections tx: %w", err)
	}
	return nil
}

// ListTranslatedSections returns the sections of a translation ordered by position.
func (s *Store) ListTranslatedSections(ctx context.Context, translationID int64) ([]model.TranslatedSection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, translation_id, original_section_id, position, data, created_at
		FROM translated_sections
		WHERE translation_id = ?
		ORDER BY position`, translationID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing translated sections for translation %d: %w", translationID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.TranslatedSection
	for rows.Next() {
		var sec model.TranslatedSection
		var data string
		if err := rows.Scan(&sec.ID, &sec.TranslationID, &sec.OriginalSectionID,
			&sec.Position, &data, &sec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning translated section: %w", err)
		}
		sec.Data = json.RawMessage(data)
		out = append(out, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating translated sections: %w", err)
	}
	return out, nil
}

// DeleteTranslation removes the translation for a (post, language) pair
// together with its sections (ON DELETE CASCADE).
func (s *Store) DeleteTranslation(ctx context.Context, postID int64, lang string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM translations WHERE original_post_id = ? AND language_code = ?`,
		postID, lang,
	)
	if err != nil {
		return fmt.Errorf("deleting translation for post %d lang %s: %w", postID, lang, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllTranslations removes every translation and its sections.
func (s *Store) DeleteAllTranslations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM translations`); err != nil {
		return fmt.Errorf("deleting all translations: %w", err)
	}
	return nil
}
