// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/babelcms/babel-go/internal/model"
)

// testStore creates an in-memory SQLite database with migrations applied.
func testStore(t *testing.T) *Store {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return New(db)
}

func createTestPost(t *testing.T, s *Store) int64 {
	t.Helper()
	id, err := s.CreatePost(context.Background(), &model.Post{
		Title:   "Ten days in Lisbon",
		Slug:    "ten-days-in-lisbon",
		Excerpt: "A short trip report.",
		Body:    "<h2>Intro</h2><p>Hello world.</p>",
		Status:  model.PostStatusPublished,
	})
	if err != nil {
		t.Fatalf("failed to create post: %v", err)
	}
	return id
}

func TestGetPostNotFound(t *testing.T) {
	s := testStore(t)

	_, err := s.GetPost(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateAndGetPost(t *testing.T) {
	s := testStore(t)
	id := createTestPost(t, s)

	p, err := s.GetPost(context.Background(), id)
	if err != nil {
		t.Fatalf("GetPost returned error: %v", err)
	}
	if p.Title != "Ten days in Lisbon" {
		t.Errorf("expected title 'Ten days in Lisbon', got %q", p.Title)
	}
	if !p.IsPublished() {
		t.Error("expected post to be published")
	}
}

func TestListActiveSections(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	postID := createTestPost(t, s)

	for i, tpl := range []string{"hero", "rich-text", "gallery"} {
		if _, err := s.CreateSection(ctx, &model.Section{
			PostID:     postID,
			TemplateID: tpl,
			Position:   i,
			IsActive:   true,
			Data:       json.RawMessage(`{"heading":"Hi"}`),
		}); err != nil {
			t.Fatalf("failed to create section: %v", err)
		}
	}
	// Inactive sections must be excluded.
	if _, err := s.CreateSection(ctx, &model.Section{
		PostID: postID, TemplateID: "listing", Position: 3, IsActive: false,
	}); err != nil {
		t.Fatalf("failed to create inactive section: %v", err)
	}

	sections, err := s.ListActiveSections(ctx, postID)
	if err != nil {
		t.Fatalf("ListActiveSections returned error: %v", err)
	}
	if len(sections) != 3 {
		t.Fatalf("expected 3 active sections, got %d", len(sections))
	}
	if sections[1].Kind != model.SectionKindRichText {
		t.Errorf("expected richtext kind, got %q", sections[1].Kind)
	}
	for i, sec := range sections {
		if sec.Position != i {
			t.Errorf("expected section at position %d, got %d", i, sec.Position)
		}
	}
}

func TestUpsertTranslationIsSingleRow(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	postID := createTestPost(t, s)

	first, err := s.UpsertTranslation(ctx, &model.Translation{
		OriginalPostID: postID,
		LanguageCode:   "fr",
		Title:          "Dix jours à Lisbonne",
		Slug:           "ten-days-in-lisbon",
		Status:         model.TranslationStatusCompleted,
	})
	if err != nil {
		t.Fatalf("first upsert returned error: %v", err)
	}

	second, err := s.UpsertTranslation(ctx, &model.Translation{
		OriginalPostID: postID,
		LanguageCode:   "fr",
		Title:          "Dix jours à Lisbonne (v2)",
		Slug:           "ten-days-in-lisbon",
		Status:         model.TranslationStatusCompleted,
	})
	if err != nil {
		t.Fatalf("second upsert returned error: %v", err)
	}
	if first != second {
		t.Errorf("expected upsert to reuse row %d, got %d", first, second)
	}

	translations, err := s.ListTranslations(ctx, postID)
	if err != nil {
		t.Fatalf("ListTranslations returned error: %v", err)
	}
	if len(translations) != 1 {
		t.Fatalf("expected exactly one translation row, got %d", len(translations))
	}
	if translations[0].Title != "Dix jours à Lisbonne (v2)" {
		t.Errorf("expected updated title, got %q", translations[0].Title)
	}
}

func TestFindTranslation(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	postID := createTestPost(t, s)

	if _, err := s.FindTranslation(ctx, postID, "fr"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound before insert, got %v", err)
	}

	if _, err := s.UpsertTranslation(ctx, &model.Translation{
		OriginalPostID: postID, LanguageCode: "fr", Status: model.TranslationStatusCompleted,
	}); err != nil {
		t.Fatalf("upsert returned error: %v", err)
	}

	tr, err := s.FindTranslation(ctx, postID, "fr")
	if err != nil {
		t.Fatalf("FindTranslation returned error: %v", err)
	}
	if tr.LanguageCode != "fr" || tr.OriginalPostID != postID {
		t.Errorf("unexpected translation row: %+v", tr)
	}
}

func TestReplaceSectionsFullReplace(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	postID := createTestPost(t, s)

	trID, err := s.UpsertTranslation(ctx, &model.Translation{
		OriginalPostID: postID, LanguageCode: "de", Status: model.TranslationStatusCompleted,
	})
	if err != nil {
		t.Fatalf("upsert returned error: %v", err)
	}

	err = s.ReplaceSections(ctx, trID, []model.TranslatedSection{
		{OriginalSectionID: 1, Position: 0, Data: json.RawMessage(`{"heading":"Hallo"}`)},
		{OriginalSectionID: 2, Position: 1, Data: json.RawMessage(`{"heading":"Welt"}`)},
	})
	if err != nil {
		t.Fatalf("first ReplaceSections returned error: %v", err)
	}

	// A source section was removed; the replacement set shrinks and no
	// stale row may survive.
	err = s.ReplaceSections(ctx, trID, []model.TranslatedSection{
		{OriginalSectionID: 2, Position: 0, Data: json.RawMessage(`{"heading":"Welt 2"}`)},
	})
	if err != nil {
		t.Fatalf("second ReplaceSections returned error: %v", err)
	}

	sections, err := s.ListTranslatedSections(ctx, trID)
	if err != nil {
		t.Fatalf("ListTranslatedSections returned error: %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("expected 1 translated section after replace, got %d", len(sections))
	}
	if sections[0].OriginalSectionID != 2 {
		t.Errorf("expected section for original 2, got %d", sections[0].OriginalSectionID)
	}
}

func TestReplaceSectionsRollsBackOnConflict(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	postID := createTestPost(t, s)

	trID, err := s.UpsertTranslation(ctx, &model.Translation{
		OriginalPostID: postID, LanguageCode: "es", Status: model.TranslationStatusCompleted,
	})
	if err != nil {
		t.Fatalf("upsert returned error: %v", err)
	}

	if err := s.ReplaceSections(ctx, trID, []model.TranslatedSection{
		{OriginalSectionID: 1, Position: 0},
	}); err != nil {
		t.Fatalf("seed ReplaceSections returned error: %v", err)
	}

	// Duplicate original_section_id violates the unique index; the whole
	// replacement must roll back and leave the previous set intact.
	err = s.ReplaceSections(ctx, trID, []model.TranslatedSection{
		{OriginalSectionID: 7, Position: 0},
		{OriginalSectionID: 7, Position: 1},
	})
	if err == nil {
		t.Fatal("expected error for duplicate section ids, got nil")
	}

	sections, err := s.ListTranslatedSections(ctx, trID)
	if err != nil {
		t.Fatalf("ListTranslatedSections returned error: %v", err)
	}
	if len(sections) != 1 || sections[0].OriginalSectionID != 1 {
		t.Errorf("expected previous section set to survive rollback, got %+v", sections)
	}
}

func TestDeleteTranslation(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	postID := createTestPost(t, s)

	trID, err := s.UpsertTranslation(ctx, &model.Translation{
		OriginalPostID: postID, LanguageCode: "it", Status: model.TranslationStatusCompleted,
	})
	if err != nil {
		t.Fatalf("upsert returned error: %v", err)
	}
	if err := s.ReplaceSections(ctx, trID, []model.TranslatedSection{{OriginalSectionID: 1}}); err != nil {
		t.Fatalf("ReplaceSections returned error: %v", err)
	}

	if err := s.DeleteTranslation(ctx, postID, "it"); err != nil {
		t.Fatalf("DeleteTranslation returned error: %v", err)
	}
	if _, err := s.FindTranslation(ctx, postID, "it"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Child rows cascade.
	sections, err := s.ListTranslatedSections(ctx, trID)
	if err != nil {
		t.Fatalf("ListTranslatedSections returned error: %v", err)
	}
	if len(sections) != 0 {
		t.Errorf("expected cascade delete of sections, got %d rows", len(sections))
	}

	if err := s.DeleteTranslation(ctx, postID, "it"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for second delete, got %v", err)
	}
}

func TestDeleteAllTranslations(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	postID := createTestPost(t, s)

	for _, lang := range []string{"fr", "de"} {
		if _, err := s.UpsertTranslation(ctx, &model.Translation{
			OriginalPostID: postID, LanguageCode: lang, Status: model.TranslationStatusCompleted,
		}); err != nil {
			t.Fatalf("upsert returned error: %v", err)
		}
	}

	if err := s.DeleteAllTranslations(ctx); err != nil {
		t.Fatalf("DeleteAllTranslations returned error: %v", err)
	}
	translations, err := s.ListTranslations(ctx, postID)
	if err != nil {
		t.Fatalf("ListTranslations returned error: %v", err)
	}
	if len(translations) != 0 {
		t.Errorf("expected no translations, got %d", len(translations))
	}
}

func TestListFailedTranslations(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	postID := createTestPost(t, s)

	if _, err := s.UpsertTranslation(ctx, &model.Translation{
		OriginalPostID: postID, LanguageCode: "fr", Status: model.TranslationStatusCompleted,
	}); err != nil {
		t.Fatalf("upsert returned error: %v", err)
	}
	if _, err := s.UpsertTranslation(ctx, &model.Translation{
		OriginalPostID: postID, LanguageCode: "de", Status: model.TranslationStatusFailed,
	}); err != nil {
		t.Fatalf("upsert returned error: %v", err)
	}

	failed, err := s.ListFailedTranslations(ctx)
	if err != nil {
		t.Fatalf("ListFailedTranslations returned error: %v", err)
	}
	if len(failed) != 1 || failed[0].LanguageCode != "de" {
		t.Errorf("expected only the failed de translation, got %+v", failed)
	}
}

func TestSeedLanguages(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.SeedLanguages(ctx); err != nil {
		t.Fatalf("SeedLanguages returned error: %v", err)
	}
	// Seeding twice must not duplicate rows.
	if err := s.SeedLanguages(ctx); err != nil {
		t.Fatalf("second SeedLanguages returned error: %v", err)
	}

	languages, err := s.ListLanguages(ctx)
	if err != nil {
		t.Fatalf("ListLanguages returned error: %v", err)
	}
	if len(languages) != len(model.SupportedLanguages) {
		t.Errorf("expected %d languages, got %d", len(model.SupportedLanguages), len(languages))
	}
}

func TestEvents(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.CreateEvent(ctx, &model.Event{
		Level:    model.EventLevelInfo,
		Category: model.EventCategoryTranslation,
		Message:  "translation completed",
	}); err != nil {
		t.Fatalf("CreateEvent returned error: %v", err)
	}

	events, err := s.ListRecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecentEvents returned error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Metadata != "{}" {
		t.Errorf("expected empty metadata to default to '{}', got %q", events[0].Metadata)
	}
}
