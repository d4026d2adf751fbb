// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/babelcms/babel-go/internal/model"
	"github.com/babelcms/babel-go/internal/store"
)

const statusKeyPrefix = "translations:"

// StatusCache serves translation status queries through a cache,
// falling back to the store on a miss. Writers invalidate per post.
type StatusCache struct {
	cache Cache
	store *store.Store
}

// NewStatusCache creates a StatusCache.
func NewStatusCache(c Cache, s *store.Store) *StatusCache {
	return &StatusCache{cache: c, store: s}
}

func statusKey(postID int64) string {
	return fmt.Sprintf("%s%d", statusKeyPrefix, postID)
}

// ListTranslations returns all translation records of a post, cached.
func (c *StatusCache) ListTranslations(ctx context.Context, postID int64) ([]model.Translation, error) {
	key := statusKey(postID)

	if data, err := c.cache.Get(ctx, key); err == nil {
		var cached []model.Translation
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		// Unreadable entry, fall through to the store.
		_ = c.cache.Delete(ctx, key)
	} else if !errors.Is(err, ErrCacheMiss) {
		// A broken cache backend must not take status queries down.
		return c.store.ListTranslations(ctx, postID)
	}

	records, err := c.store.ListTranslations(ctx, postID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(records); err == nil {
		_ = c.cache.Set(ctx, key, data, 0)
	}
	return records, nil
}

// Invalidate drops the cached status of one post.
func (c *StatusCache) Invalidate(ctx context.Context, postID int64) {
	_ = c.cache.Delete(ctx, statusKey(postID))
}

// InvalidateAll drops every cached status entry.
func (c *StatusCache) InvalidateAll(ctx context.Context) {
	_ = c.cache.DeleteByPrefix(ctx, statusKeyPrefix)
}
