// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package runner executes translation jobs in the background. Jobs are
// queued over a channel and drained by worker goroutines; a keyed lock
// serializes work on the same (post, language) pair so a background job
// and a synchronous request can never translate the same pair at once.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/babelcms/babel-go/internal/model"
	"github.com/babelcms/babel-go/internal/translate"
)

// QueuedJob is a translation job with its assigned id.
type QueuedJob struct {
	ID  string
	Job model.TranslationJob
}

// Config holds runner configuration.
type Config struct {
	Workers   int // Number of concurrent job workers
	QueueSize int

	// OnJobDone is called after a background job finishes, successfully
	// or not. Used to invalidate status caches.
	OnJobDone func(job model.TranslationJob)
}

// DefaultConfig returns default runner configuration.
func DefaultConfig() Config {
	return Config{
		Workers:   1,
		QueueSize: 100,
	}
}

// Runner drains the job queue.
type Runner struct {
	translator *translate.Translator
	logger     *slog.Logger
	queue      chan QueuedJob
	workers    int
	wg         sync.WaitGroup
	done       chan struct{}
	mu         sync.RWMutex
	running    bool
	locks      keyedMutex
	onJobDone  func(job model.TranslationJob)
}

// New creates a Runner.
func New(translator *translate.Translator, logger *slog.Logger, cfg Config) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		translator: translator,
		logger:     logger,
		queue:      make(chan QueuedJob, cfg.QueueSize),
		workers:    cfg.Workers,
		done:       make(chan struct{}),
		onJobDone:  cfg.OnJobDone,
	}
}

// Start starts the worker goroutines.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	r.logger.Info("starting translation runner", "workers", r.workers)

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx, i)
	}
}

// Stop stops the runner and waits for in-flight jobs to finish. Queued
// jobs that have not started are dropped.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	r.logger.Info("stopping translation runner")
	close(r.done)
	r.wg.Wait()
	r.logger.Info("translation runner stopped")
}

// Enqueue queues a job for background execution and returns its id.
func (r *Runner) Enqueue(job model.TranslationJob) (string, error) {
	r.mu.RLock()
	running := r.running
	r.mu.RUnlock()

	if !running {
		return "", fmt.Errorf("runner is not running")
	}

	queued := QueuedJob{ID: uuid.NewString(), Job: job}
	select {
	case r.queue <- queued:
		r.logger.Info("translation job queued",
			"job_id", queued.ID, "post_id", job.PostID, "languages", job.Languages)
		return queued.ID, nil
	default:
		return "", fmt.Errorf("job queue is full")
	}
}

// Run executes a job inline, holding the same per-pair locks the
// background workers use. Synchronous API requests go through here.
func (r *Runner) Run(ctx context.Context, job model.TranslationJob) (*model.JobResult, error) {
	unlock := r.locks.lockJob(job)
	defer unlock()
	return r.translator.TranslatePost(ctx, job)
}

// worker drains the queue.
func (r *Runner) worker(ctx context.Context, id int) {
	defer r.wg.Done()
	r.logger.Debug("translation worker started", "worker_id", id)

	for {
		select {
		case <-r.done:
			r.logger.Debug("translation worker stopping", "worker_id", id)
			return
		case <-ctx.Done():
			r.logger.Debug("translation worker context cancelled", "worker_id", id)
			return
		case queued := <-r.queue:
			r.process(ctx, queued)
		}
	}
}

func (r *Runner) process(ctx context.Context, queued QueuedJob) {
	result, err := r.Run(ctx, queued.Job)
	if r.onJobDone != nil {
		r.onJobDone(queued.Job)
	}
	if err != nil {
		r.logger.Error("translation job failed",
			"job_id", queued.ID, "post_id", queued.Job.PostID, "error", err)
		return
	}
	r.logger.Info("translation job finished",
		"job_id", queued.ID, "post_id", queued.Job.PostID, "succeeded", result.Succeeded())
}

// keyedMutex hands out one mutex per string key. Keys are never evicted;
// the key space is bounded by posts times supported languages.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// lockJob acquires the lock of every (post, language) pair the job
// touches, in sorted order so two overlapping jobs cannot deadlock.
func (k *keyedMutex) lockJob(job model.TranslationJob) (unlock func()) {
	languages := model.FilterSupportedLanguages(job.Languages)
	keys := make([]string, 0, len(languages))
	for _, lang := range languages {
		keys = append(keys, fmt.Sprintf("%d:%s", job.PostID, lang))
	}
	sort.Strings(keys)

	held := make([]*sync.Mutex, 0, len(keys))
	for _, key := range keys {
		m := k.get(key)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
