// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/babelcms/babel-go/internal/model"
	"github.com/babelcms/babel-go/internal/store"
)

// TranslateRequest is the body of POST /posts/{id}/translate.
type TranslateRequest struct {
	Languages  []string `json:"languages"`
	Regenerate bool     `json:"regenerate"`
	Sync       bool     `json:"sync"`
}

// AcceptedResponse confirms a queued background job.
type AcceptedResponse struct {
	Accepted  bool     `json:"accepted"`
	JobID     string   `json:"job_id"`
	PostID    int64    `json:"post_id"`
	Languages []string `json:"languages"`
}

// postIDParam parses the {id} route parameter.
func postIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// TranslatePost handles POST /posts/{id}/translate.
// By default the job runs in the background and the request is answered
// with 202; "sync": true runs it inline and returns the outcome list.
func (h *Handler) TranslatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	postID, err := postIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post id")
		return
	}

	var req TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}
	if len(req.Languages) == 0 {
		WriteBadRequest(w, "At least one target language is required")
		return
	}

	languages := model.FilterSupportedLanguages(req.Languages)
	if len(languages) == 0 {
		WriteValidationError(w, map[string]string{"languages": "No supported target languages"})
		return
	}

	if _, err := h.store.GetPost(ctx, postID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteNotFound(w, "Post not found")
			return
		}
		h.logger.Error("loading post", "post_id", postID, "error", err)
		WriteInternalError(w, "Failed to load post")
		return
	}

	job := model.TranslationJob{
		PostID:     postID,
		Languages:  languages,
		Regenerate: req.Regenerate,
	}

	if req.Sync {
		h.recordJobAccepted(ctx, job, "")
		result, err := h.runner.Run(ctx, job)
		if err != nil {
			h.logger.Error("running translation job", "post_id", postID, "error", err)
			WriteInternalError(w, "Translation failed")
			return
		}
		h.status.Invalidate(ctx, postID)
		WriteSuccess(w, result)
		return
	}

	jobID, err := h.runner.Enqueue(job)
	if err != nil {
		h.logger.Error("queueing translation job", "post_id", postID, "error", err)
		WriteError(w, http.StatusServiceUnavailable, "queue_unavailable", "Could not queue translation job", nil)
		return
	}
	h.recordJobAccepted(ctx, job, jobID)

	WriteAccepted(w, AcceptedResponse{
		Accepted:  true,
		JobID:     jobID,
		PostID:    postID,
		Languages: languages,
	})
}

// recordJobAccepted writes the job-accepted milestone to the events
// table. jobID is empty for inline runs.
func (h *Handler) recordJobAccepted(ctx context.Context, job model.TranslationJob, jobID string) {
	metadata, _ := json.Marshal(map[string]any{
		"post_id":    job.PostID,
		"languages":  job.Languages,
		"regenerate": job.Regenerate,
		"job_id":     jobID,
	})
	if err := h.store.CreateEvent(ctx, &model.Event{
		Level:    model.EventLevelInfo,
		Category: model.EventCategoryTranslation,
		Message:  fmt.Sprintf("Translation job accepted for post %d", job.PostID),
		Metadata: string(metadata),
	}); err != nil {
		h.logger.Warn("writing job accepted event", "post_id", job.PostID, "error", err)
	}
}

// GetTranslations handles GET /posts/{id}/translations.
// An optional ?language=fr query filters to one language.
func (h *Handler) GetTranslations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	postID, err := postIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post id")
		return
	}

	if _, err := h.store.GetPost(ctx, postID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteNotFound(w, "Post not found")
			return
		}
		h.logger.Error("loading post", "post_id", postID, "error", err)
		WriteInternalError(w, "Failed to load post")
		return
	}

	records, err := h.status.ListTranslations(ctx, postID)
	if err != nil {
		h.logger.Error("listing translations", "post_id", postID, "error", err)
		WriteInternalError(w, "Failed to list translations")
		return
	}

	if lang := r.URL.Query().Get("language"); lang != "" {
		filtered := make([]model.Translation, 0, 1)
		for _, rec := range records {
			if rec.LanguageCode == lang {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	if records == nil {
		records = []model.Translation{}
	}
	WriteSuccess(w, records)
}

// DeleteTranslation handles DELETE /posts/{id}/translations/{lang}.
func (h *Handler) DeleteTranslation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	postID, err := postIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post id")
		return
	}
	lang := chi.URLParam(r, "lang")

	if err := h.store.DeleteTranslation(ctx, postID, lang); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteNotFound(w, "Translation not found")
			return
		}
		h.logger.Error("deleting translation", "post_id", postID, "language", lang, "error", err)
		WriteInternalError(w, "Failed to delete translation")
		return
	}

	h.status.Invalidate(ctx, postID)
	WriteSuccess(w, map[string]any{"deleted": true})
}

// DeleteAllTranslations handles DELETE /translations. It removes every
// translation record so the whole site can be retranslated from scratch.
func (h *Handler) DeleteAllTranslations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.store.DeleteAllTranslations(ctx); err != nil {
		h.logger.Error("deleting all translations", "error", err)
		WriteInternalError(w, "Failed to delete translations")
		return
	}

	h.status.InvalidateAll(ctx)
	WriteSuccess(w, map[string]any{"deleted": true})
}
