// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/babelcms/babel-go/internal/version"
)

// HealthResponse contains service health information.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DB().PingContext(r.Context()); err != nil {
		h.logger.Error("health check", "error", err)
		WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:  "unavailable",
			Version: version.Get().String(),
		})
		return
	}

	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version.Get().String(),
	})
}
