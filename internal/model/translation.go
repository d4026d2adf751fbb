// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"time"
)

// Translation statuses
const (
	TranslationStatusPending   = "pending"
	TranslationStatusCompleted = "completed"
	TranslationStatusFailed    = "failed"
)

// Translation is the persisted result of translating one post into one
// target language. At most one row exists per (original post, language).
type Translation struct {
	ID             int64     `json:"id"`
	OriginalPostID int64     `json:"original_post_id"`
	LanguageCode   string    `json:"language_code"`
	Title          string    `json:"title"`
	Excerpt        string    `json:"excerpt"`
	Body           string    `json:"body"`
	Slug           string    `json:"slug"` // copied from the source, never machine-translated
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsCompleted returns true if the translation finished successfully.
func (t *Translation) IsCompleted() bool {
	return t.Status == TranslationStatusCompleted
}

// TranslatedSection is the per-section child of a Translation. Its
// lifecycle is tied to the parent: regenerating a translation deletes
// and recreates all of its sections.
type TranslatedSection struct {
	ID                int64           `json:"id"`
	TranslationID     int64           `json:"translation_id"`
	OriginalSectionID int64           `json:"original_section_id"`
	Position          int             `json:"position"`
	Data              json.RawMessage `json:"data"`
	CreatedAt         time.Time       `json:"created_at"`
}

// TranslationJob is a transient request to translate one post into one
// or more target languages.
type TranslationJob struct {
	PostID     int64    `json:"post_id"`
	Languages  []string `json:"languages"`
	Regenerate bool     `json:"regenerate"`
}

// Outcome statuses reported per language in a job result.
const (
	OutcomeExists    = "exists"
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// LanguageOutcome is the per-language result of a translation job.
type LanguageOutcome struct {
	Language string `json:"language"`
	Success  bool   `json:"success"`
	Status   string `json:"status"` // exists, completed, failed
	Error    string `json:"error,omitempty"`
}

// JobResult is the structured outcome of one translation job. A job never
// fails as a whole because one language failed; per-language errors are
// carried in Outcomes.
type JobResult struct {
	PostID   int64             `json:"post_id"`
	Outcomes []LanguageOutcome `json:"outcomes"`
}

// Succeeded returns true if every requested language completed or
// already existed.
func (r *JobResult) Succeeded() bool {
	for _, o := range r.Outcomes {
		if !o.Success {
			return false
		}
	}
	return true
}
