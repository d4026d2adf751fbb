// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler retries failed translations on a fixed interval.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/babelcms/babel-go/internal/model"
	"github.com/babelcms/babel-go/internal/runner"
	"github.com/babelcms/babel-go/internal/store"
)

// Scheduler periodically sweeps the translations table and re-enqueues
// records stuck in the failed state.
type Scheduler struct {
	store  *store.Store
	runner *runner.Runner
	cron   *cron.Cron
	logger *slog.Logger
	every  int // sweep interval in minutes
}

// New creates a scheduler sweeping every `minutes` minutes. A zero or
// negative interval disables the sweep.
func New(s *store.Store, r *runner.Runner, minutes int, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:  s,
		runner: r,
		cron:   cron.New(),
		logger: logger,
		every:  minutes,
	}
}

// Start begins the retry sweep. It is a no-op when the interval is zero.
func (s *Scheduler) Start() error {
	if s.every <= 0 {
		s.logger.Info("retry sweep disabled")
		return nil
	}

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %dm", s.every), func() {
		if err := s.sweepFailed(); err != nil {
			s.logger.Error("failed translation sweep", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "sweep_minutes", s.every, "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// sweepFailed re-enqueues every failed translation, one job per post
// carrying all of that post's failed languages.
func (s *Scheduler) sweepFailed() error {
	ctx := context.Background()

	failed, err := s.store.ListFailedTranslations(ctx)
	if err != nil {
		return err
	}
	if len(failed) == 0 {
		return nil
	}

	s.logger.Info("retrying failed translations", "count", len(failed))

	jobs := groupByPost(failed)
	for _, job := range jobs {
		jobID, err := s.runner.Enqueue(job)
		if err != nil {
			s.logger.Error("re-enqueueing failed translation",
				"post_id", job.PostID, "languages", job.Languages, "error", err)
			continue
		}
		s.logger.Info("failed translation re-enqueued",
			"job_id", jobID, "post_id", job.PostID, "languages", job.Languages)
	}
	return nil
}

// groupByPost folds failed translation rows into one job per post,
// preserving the order rows were returned in.
func groupByPost(failed []model.Translation) []model.TranslationJob {
	index := make(map[int64]int)
	var jobs []model.TranslationJob
	for _, rec := range failed {
		i, ok := index[rec.OriginalPostID]
		if !ok {
			i = len(jobs)
			index[rec.OriginalPostID] = i
			jobs = append(jobs, model.TranslationJob{PostID: rec.OriginalPostID})
		}
		jobs[i].Languages = append(jobs[i].Languages, rec.LanguageCode)
	}
	return jobs
}
