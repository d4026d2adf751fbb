// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package translate implements the machine-translation pipeline: content
// segmentation, structured-data walking, the provider client and the
// per-language orchestration that persists translation records.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/babelcms/babel-go/internal/model"
	"github.com/babelcms/babel-go/internal/store"
)

// ErrNoSupportedLanguages is returned when a job's language set is empty
// after filtering against the supported enumeration.
var ErrNoSupportedLanguages = errors.New("translate: no supported target languages requested")

// Translator drives the end-to-end translation of one post into one or
// more target languages. Languages are processed sequentially; a failure
// in one never blocks the next.
type Translator struct {
	store  *store.Store
	client *Client
	logger *slog.Logger
}

// NewTranslator creates a Translator.
func NewTranslator(s *store.Store, c *Client, logger *slog.Logger) *Translator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Translator{store: s, client: c, logger: logger}
}

// TranslatePost runs a translation job and returns the per-language
// outcome list. It returns an error only for request-level problems that
// apply before any language-specific work: an empty filtered language
// set or a missing source post.
func (t *Translator) TranslatePost(ctx context.Context, job model.TranslationJob) (*model.JobResult, error) {
	languages := model.FilterSupportedLanguages(job.Languages)
	if len(languages) == 0 {
		return nil, ErrNoSupportedLanguages
	}

	post, err := t.store.GetPost(ctx, job.PostID)
	if err != nil {
		return nil, fmt.Errorf("loading post %d: %w", job.PostID, err)
	}
	sections, err := t.store.ListActiveSections(ctx, job.PostID)
	if err != nil {
		return nil, fmt.Errorf("loading sections of post %d: %w", job.PostID, err)
	}

	result := &model.JobResult{PostID: job.PostID}
	for _, lang := range languages {
		outcome := t.translateLanguage(ctx, post, sections, lang, job.Regenerate)
		result.Outcomes = append(result.Outcomes, outcome)

		if outcome.Success {
			t.logger.Info("language translation finished",
				"post_id", post.ID, "language", lang, "status", outcome.Status)
		} else {
			t.logger.Error("language translation failed",
				"post_id", post.ID, "language", lang, "error", outcome.Error)
		}
	}
	return result, nil
}

// translateLanguage runs the state machine for one (post, language) pair.
func (t *Translator) translateLanguage(ctx context.Context, post *model.Post, sections []model.Section, lang string, regenerate bool) model.LanguageOutcome {
	existing, err := t.store.FindTranslation(ctx, post.ID, lang)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return t.recordFailure(ctx, post, lang, regenerate, fmt.Errorf("looking up existing translation: %w", err))
	}

	// Idempotency: a completed translation is only redone on regenerate.
	// Failed or pending leftovers are always retried.
	if existing != nil && existing.IsCompleted() && !regenerate {
		return model.LanguageOutcome{Language: lang, Success: true, Status: model.OutcomeExists}
	}

	record := &model.Translation{
		OriginalPostID: post.ID,
		LanguageCode:   lang,
		Title:          t.client.TranslateUnit(ctx, post.Title, lang),
		Excerpt:        t.client.TranslateUnit(ctx, post.Excerpt, lang),
		Body:           t.client.TranslateDocument(ctx, post.Body, lang),
		Slug:           post.Slug, // slugs are never machine-translated
		Status:         model.TranslationStatusCompleted,
	}

	translated := make([]model.TranslatedSection, 0, len(sections))
	for _, sec := range sections {
		data, err := t.translateSectionData(ctx, sec, lang)
		if err != nil {
			// A malformed payload keeps its original data rather than
			// aborting the language.
			t.logger.Warn("keeping original section data",
				"post_id", post.ID, "section_id", sec.ID, "language", lang, "error", err)
			data = sec.Data
		}
		translated = append(translated, model.TranslatedSection{
			OriginalSectionID: sec.ID,
			Position:          sec.Position,
			Data:              data,
		})
	}

	translationID, err := t.store.UpsertTranslation(ctx, record)
	if err != nil {
		return t.recordFailure(ctx, post, lang, regenerate, fmt.Errorf("persisting translation: %w", err))
	}
	if err := t.store.ReplaceSections(ctx, translationID, translated); err != nil {
		_ = t.store.MarkTranslationStatus(ctx, translationID, model.TranslationStatusFailed)
		return t.recordFailure(ctx, post, lang, regenerate, fmt.Errorf("persisting translated sections: %w", err))
	}

	t.logEvent(ctx, model.EventLevelInfo, post.ID, lang, regenerate,
		fmt.Sprintf("Translated post %q into %s", post.Title, model.LanguageName(lang)))

	return model.LanguageOutcome{Language: lang, Success: true, Status: model.OutcomeCompleted}
}

// translateSectionData rebuilds a section's JSON payload with prose
// leaves translated. Richtext sections carry long-form HTML, so their
// leaves always go through the segmenter; other kinds segment only
// when a leaf crosses the length threshold.
func (t *Translator) translateSectionData(ctx context.Context, sec model.Section, lang string) (json.RawMessage, error) {
	if len(sec.Data) == 0 {
		return sec.Data, nil
	}
	v, err := DecodeValue(sec.Data)
	if err != nil {
		return nil, err
	}

	leaf := func(ctx context.Context, text string) (string, error) {
		return t.client.TranslateText(ctx, text, lang), nil
	}
	if sec.Kind == model.SectionKindRichText {
		leaf = func(ctx context.Context, text string) (string, error) {
			return t.client.TranslateDocument(ctx, text, lang), nil
		}
	}

	out := TranslateTree(ctx, v, leaf)
	return json.Marshal(out)
}

// recordFailure persists a failed-status row (best effort, so the retry
// sweep and status queries can observe it) and builds the outcome.
func (t *Translator) recordFailure(ctx context.Context, post *model.Post, lang string, regenerate bool, cause error) model.LanguageOutcome {
	if _, err := t.store.UpsertTranslation(ctx, &model.Translation{
		OriginalPostID: post.ID,
		LanguageCode:   lang,
		Slug:           post.Slug,
		Status:         model.TranslationStatusFailed,
	}); err != nil {
		t.logger.Error("recording failed translation status", "post_id", post.ID, "language", lang, "error", err)
	}

	t.logEvent(ctx, model.EventLevelError, post.ID, lang, regenerate,
		fmt.Sprintf("Translation of post %d into %s failed: %v", post.ID, lang, cause))

	return model.LanguageOutcome{
		Language: lang,
		Success:  false,
		Status:   model.OutcomeFailed,
		Error:    cause.Error(),
	}
}

func (t *Translator) logEvent(ctx context.Context, level string, postID int64, lang string, regenerate bool, message string) {
	metadata, _ := json.Marshal(map[string]any{
		"post_id":    postID,
		"language":   lang,
		"regenerate": regenerate,
	})
	if err := t.store.CreateEvent(ctx, &model.Event{
		Level:    level,
		Category: model.EventCategoryTranslation,
		Message:  message,
		Metadata: string(metadata),
	}); err != nil {
		t.logger.Warn("writing translation event", "error", err)
	}
}
