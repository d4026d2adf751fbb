// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babelcms/babel-go/internal/model"
	"github.com/babelcms/babel-go/internal/runner"
	"github.com/babelcms/babel-go/internal/store"
	"github.com/babelcms/babel-go/internal/translate"
)

// sweepProvider is a deterministic stand-in for a translation provider.
type sweepProvider struct{ prefix string }

func (p *sweepProvider) ID() string { return "sweep" }

func (p *sweepProvider) Complete(_ context.Context, req translate.CompletionRequest) (string, error) {
	return p.prefix + req.Prompt, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))
	return store.New(db)
}

func TestGroupByPost(t *testing.T) {
	failed := []model.Translation{
		{OriginalPostID: 1, LanguageCode: "fr"},
		{OriginalPostID: 2, LanguageCode: "it"},
		{OriginalPostID: 1, LanguageCode: "de"},
	}

	jobs := groupByPost(failed)
	assert.Equal(t, []model.TranslationJob{
		{PostID: 1, Languages: []string{"fr", "de"}},
		{PostID: 2, Languages: []string{"it"}},
	}, jobs)
}

func TestGroupByPostEmpty(t *testing.T) {
	assert.Empty(t, groupByPost(nil))
}

func TestSweepFailedReenqueuesOnlyFailedRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	postID, err := s.CreatePost(ctx, &model.Post{
		Title:   "Harbor walk",
		Slug:    "harbor-walk",
		Excerpt: "Along the water.",
		Body:    "<p>Start at the pier.</p>",
		Status:  model.PostStatusPublished,
	})
	require.NoError(t, err)

	_, err = s.UpsertTranslation(ctx, &model.Translation{
		OriginalPostID: postID,
		LanguageCode:   "fr",
		Slug:           "harbor-walk",
		Status:         model.TranslationStatusFailed,
	})
	require.NoError(t, err)
	_, err = s.UpsertTranslation(ctx, &model.Translation{
		OriginalPostID: postID,
		LanguageCode:   "it",
		Title:          "Passeggiata al porto",
		Slug:           "harbor-walk",
		Status:         model.TranslationStatusCompleted,
	})
	require.NoError(t, err)

	translator := translate.NewTranslator(s, translate.NewClient(&sweepProvider{prefix: "[S] "}, 0, nil), nil)
	run := runner.New(translator, nil, runner.DefaultConfig())
	run.Start(ctx)
	t.Cleanup(run.Stop)

	sched := New(s, run, 30, nil)
	require.NoError(t, sched.sweepFailed())

	deadline := time.After(5 * time.Second)
	for {
		rec, err := s.FindTranslation(ctx, postID, "fr")
		require.NoError(t, err)
		if rec.Status == model.TranslationStatusCompleted {
			assert.Equal(t, "[S] Harbor walk", rec.Title)
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for the retry, status %q", rec.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}

	it, err := s.FindTranslation(ctx, postID, "it")
	require.NoError(t, err)
	assert.Equal(t, "Passeggiata al porto", it.Title, "completed records must not be re-enqueued")

	failed, err := s.ListFailedTranslations(ctx)
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestStartDisabledInterval(t *testing.T) {
	s := New(nil, nil, 0, nil)
	assert.NoError(t, s.Start())
	// Nothing scheduled, so Stop must return immediately.
	s.Stop()
}
