// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"time"
)

// Post statuses
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// Post represents a blog post in the source language. The translation
// pipeline treats posts as read-only input owned by the CMS layer.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Excerpt   string    `json:"excerpt"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPublished returns true if the post is published.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// SectionKind identifies the rendering component behind a section,
// resolved once from the template identifier at ingestion time.
type SectionKind string

// Section kinds
const (
	SectionKindHero     SectionKind = "hero"
	SectionKindRichText SectionKind = "richtext"
	SectionKindGallery  SectionKind = "gallery"
	SectionKindListing  SectionKind = "listing"
	SectionKindGeneric  SectionKind = "generic"
)

// sectionKindsByTemplate maps known template identifiers to kinds.
// Templates not listed here fall back to SectionKindGeneric.
var sectionKindsByTemplate = map[string]SectionKind{
	"hero":      SectionKindHero,
	"rich-text": SectionKindRichText,
	"richtext":  SectionKindRichText,
	"gallery":   SectionKindGallery,
	"listing":   SectionKindListing,
}

// ResolveSectionKind maps a template identifier to a SectionKind.
func ResolveSectionKind(templateID string) SectionKind {
	if kind, ok := sectionKindsByTemplate[templateID]; ok {
		return kind
	}
	return SectionKindGeneric
}

// Section represents one ordered content block belonging to a post.
// Data holds an arbitrary JSON tree whose shape depends on the template.
type Section struct {
	ID         int64           `json:"id"`
	PostID     int64           `json:"post_id"`
	TemplateID string          `json:"template_id"`
	Kind       SectionKind     `json:"kind"`
	Position   int             `json:"position"`
	IsActive   bool            `json:"is_active"`
	Data       json.RawMessage `json:"data"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
