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

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// GetPost returns a post by id.
func (s *Store) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	p := &model.Post{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, slug, excerpt, body, status, created_at, updated_at
		FROM posts
		WHERE id = ?`, id,
	).Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Body, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting post %d: %w", id, err)
	}
	return p, nil
}

// CreatePost inserts a post and returns its id.
func (s *Store) CreatePost(ctx context.Context, p *model.Post) (int64, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (title, slug, excerpt, body, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Title, p.Slug, p.Excerpt, p.Body, p.Status, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("creating post: %w", err)
	}
	return res.LastInsertId()
}

// ListActiveSections returns the active sections of a post ordered by position.
func (s *Store) ListActiveSections(ctx context.Context, postID int64) ([]model.Section, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, post_id, template_id, position, is_active, data, created_at, updated_at
		FROM sections
		WHERE post_id = ? AND is_active = 1
		ORDER BY position`, postID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sections for post %d: %w", postID, err)
	}
	defer func() { _ = rows.Close() }()

	var sections []model.Section
	for rows.Next() {
		var sec model.Section
		var data string
		if err := rows.Scan(&sec.ID, &sec.PostID, &sec.TemplateID, &sec.Position,
			&sec.IsActive, &data, &sec.CreatedAt, &sec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning section: %w", err)
		}
		sec.Data = json.RawMessage(data)
		sec.Kind = model.ResolveSectionKind(sec.TemplateID)
		sections = append(sections, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sections: %w", err)
	}
	return sections, nil
}

// CreateSection inserts a section and returns its id.
func (s *Store) CreateSection(ctx context.Context, sec *model.Section) (int64, error) {
	now := time.Now()
	data := string(sec.Data)
	if data == "" {
		data = "{}"
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sections (post_id, template_id, position, is_active, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sec.PostID, sec.TemplateID, sec.Position, sec.IsActive, data, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("creating section: %w", err)
	}
	return res.LastInsertId()
}

// DeleteSection removes a section.
func (s *Store) DeleteSection(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sections WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting section %d: %w", id, err)
	}
	return nil
}
