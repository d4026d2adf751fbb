// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babelcms/babel-go/internal/cache"
	"github.com/babelcms/babel-go/internal/model"
	"github.com/babelcms/babel-go/internal/runner"
	"github.com/babelcms/babel-go/internal/store"
	"github.com/babelcms/babel-go/internal/translate"
)

// prefixProvider is a deterministic stand-in for a translation provider.
type prefixProvider struct{ prefix string }

func (p *prefixProvider) ID() string { return "prefix" }

func (p *prefixProvider) Complete(_ context.Context, req translate.CompletionRequest) (string, error) {
	return p.prefix + req.Prompt, nil
}

type testEnv struct {
	router *chi.Mux
	store  *store.Store
	postID int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))

	s := store.New(db)
	ctx := context.Background()
	require.NoError(t, s.SeedLanguages(ctx))

	postID, err := s.CreatePost(ctx, &model.Post{
		Title:   "City guide",
		Slug:    "city-guide",
		Excerpt: "Where to go.",
		Body:    "<p>Visit the old town.</p>",
		Status:  model.PostStatusPublished,
	})
	require.NoError(t, err)

	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })
	status := cache.NewStatusCache(mem, s)

	client := translate.NewClient(&prefixProvider{prefix: "[T] "}, 0, nil)
	translator := translate.NewTranslator(s, client, nil)

	cfg := runner.DefaultConfig()
	cfg.OnJobDone = func(job model.TranslationJob) {
		status.Invalidate(context.Background(), job.PostID)
	}
	run := runner.New(translator, nil, cfg)
	run.Start(ctx)
	t.Cleanup(run.Stop)

	h := NewHandler(s, run, status, nil)
	router := chi.NewRouter()
	router.Route("/api", h.Routes)

	return &testEnv{router: router, store: s, postID: postID}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestTranslatePostSync(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/posts/1/translate",
		`{"languages":["fr"],"sync":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data model.JobResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Outcomes, 1)
	assert.Equal(t, model.OutcomeCompleted, resp.Data.Outcomes[0].Status)

	stored, err := env.store.FindTranslation(context.Background(), env.postID, "fr")
	require.NoError(t, err)
	assert.Equal(t, "[T] City guide", stored.Title)
}

func TestTranslatePostAsync(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/posts/1/translate", `{"languages":["it"]}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp struct {
		Data AcceptedResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Accepted)
	assert.NotEmpty(t, resp.Data.JobID)
	assert.Equal(t, []string{"it"}, resp.Data.Languages)

	deadline := time.After(5 * time.Second)
	for {
		if _, err := env.store.FindTranslation(context.Background(), env.postID, "it"); err == nil {
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for background translation")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestTranslatePostRecordsAcceptedEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec := env.do(t, http.MethodPost, "/api/posts/1/translate",
		`{"languages":["it"],"regenerate":true}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp struct {
		Data AcceptedResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// The accepted milestone is written before the background job runs,
	// so it is visible immediately.
	events, err := env.store.ListRecentEvents(ctx, 10)
	require.NoError(t, err)

	var accepted *model.Event
	for i := range events {
		if strings.Contains(events[i].Message, "accepted") {
			accepted = &events[i]
			break
		}
	}
	require.NotNil(t, accepted, "expected a job accepted event")
	assert.Equal(t, model.EventCategoryTranslation, accepted.Category)
	assert.Equal(t, model.EventLevelInfo, accepted.Level)
	assert.Contains(t, accepted.Metadata, `"regenerate":true`)
	assert.Contains(t, accepted.Metadata, resp.Data.JobID)
}

func TestTranslatePostValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/posts/1/translate", `{"languages":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/posts/1/translate", `{"languages":["xx","zz"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/posts/1/translate", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/posts/abc/translate", `{"languages":["fr"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/posts/999/translate", `{"languages":["fr"]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTranslations(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/posts/1/translations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/posts/1/translate",
		`{"languages":["fr","it"],"sync":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/posts/1/translations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []model.Translation `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)

	rec = env.do(t, http.MethodGet, "/api/posts/1/translations?language=it", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "it", resp.Data[0].LanguageCode)

	rec = env.do(t, http.MethodGet, "/api/posts/999/translations", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteTranslation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/posts/1/translate", `{"languages":["fr"],"sync":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/posts/1/translations/fr", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Status cache must not serve the deleted record.
	rec = env.do(t, http.MethodGet, "/api/posts/1/translations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/api/posts/1/translations/fr", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteAllTranslations(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/posts/1/translate", `{"languages":["fr","de"],"sync":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/translations", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/posts/1/translations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestListLanguages(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/languages", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Source    string             `json:"source"`
			Languages []LanguageResponse `json:"languages"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "en", resp.Data.Source)

	codes := make(map[string]bool)
	for _, l := range resp.Data.Languages {
		codes[l.Code] = l.IsActive
	}
	assert.True(t, codes["fr"])
	assert.True(t, codes["es"])
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Version)
}
