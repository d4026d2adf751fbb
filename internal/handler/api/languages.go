// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/babelcms/babel-go/internal/model"
)

// LanguageResponse is one entry of GET /languages.
type LanguageResponse struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
	IsActive   bool   `json:"is_active"`
}

// ListLanguages handles GET /languages. It reads the seeded languages
// table so additions made directly in the database are reflected.
func (h *Handler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	languages, err := h.store.ListLanguages(r.Context())
	if err != nil {
		h.logger.Error("listing languages", "error", err)
		WriteInternalError(w, "Failed to list languages")
		return
	}

	resp := make([]LanguageResponse, 0, len(languages))
	for _, l := range languages {
		resp = append(resp, LanguageResponse{
			Code:       l.Code,
			Name:       l.Name,
			NativeName: l.NativeName,
			IsActive:   l.IsActive,
		})
	}
	WriteSuccess(w, map[string]any{
		"source":    model.SourceLanguageCode,
		"languages": resp,
	})
}
