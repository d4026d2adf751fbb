// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"github.com/babelcms/babel-go/internal/model"
)

const (
	// minTranslatableLen is the shortest string worth a provider call.
	minTranslatableLen = 3

	// maxAttempts bounds provider retries per text unit.
	maxAttempts = 2

	// retryBaseDelay is the base for the linearly increasing backoff.
	retryBaseDelay = 500 * time.Millisecond

	// charsPerToken is a rough character-to-token estimate used to size
	// the output budget proportionally to the input.
	charsPerToken = 3

	maxOutputTokenCap = 16384
)

const translateSystemPrompt = `You are a professional translator for a blog. Translate the user's text into %s.
Preserve all HTML markup, attributes, URLs and formatting exactly as they appear in the source.
Return only the translated text, with no explanations, code fences or wrapper tags.`

// Client translates individual text units through a Provider with
// bounded retry and original-text fallback. Translation failures degrade
// to "untranslated" per unit; they never abort a job.
type Client struct {
	provider Provider
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewClient creates a translation client. delay is the courtesy pause
// enforced between consecutive provider calls; zero disables pacing.
func NewClient(provider Provider, delay time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	var limiter *rate.Limiter
	if delay > 0 {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}
	return &Client{
		provider: provider,
		limiter:  limiter,
		logger:   logger,
	}
}

// TranslateUnit translates one text unit into the target language.
// Trivially short input is returned unchanged without a provider call.
// On permanent provider failure the original text is returned.
func (c *Client) TranslateUnit(ctx context.Context, text, langCode string) string {
	if utf8.RuneCountInString(text) < minTranslatableLen {
		return text
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return text
		}
	}

	req := CompletionRequest{
		System:    fmt.Sprintf(translateSystemPrompt, model.LanguageName(langCode)),
		Prompt:    text,
		MaxTokens: outputTokenBudget(text),
	}

	var out string
	err := retry.Do(ctx, retry.WithMaxRetries(maxAttempts-1, linearBackoff(retryBaseDelay)), func(ctx context.Context) error {
		completion, err := c.provider.Complete(ctx, req)
		if err != nil {
			return retry.RetryableError(err)
		}
		if strings.TrimSpace(completion) == "" {
			return retry.RetryableError(fmt.Errorf("%s: empty completion", c.provider.ID()))
		}
		out = completion
		return nil
	})
	if err != nil {
		c.logger.Warn("translation unit failed, keeping original text",
			"provider", c.provider.ID(),
			"language", langCode,
			"chars", len(text),
			"error", err,
		)
		return text
	}

	return Sanitize(out)
}

// TranslateDocument translates a long body by segmenting it into
// structurally bounded chunks, translating each in order, and rejoining
// the results with a blank line.
func (c *Client) TranslateDocument(ctx context.Context, body, langCode string) string {
	chunks := Segment(body)
	if len(chunks) == 0 {
		return ""
	}

	translated := make([]string, len(chunks))
	for i, chunk := range chunks {
		translated[i] = c.TranslateUnit(ctx, chunk.Text, langCode)
	}
	return Reassemble(translated)
}

// TranslateText picks the right strategy for a text of unknown size:
// long-form content goes through the segmenter, everything else is a
// single unit call.
func (c *Client) TranslateText(ctx context.Context, text, langCode string) string {
	if utf8.RuneCountInString(text) > chunkTarget {
		return c.TranslateDocument(ctx, text, langCode)
	}
	return c.TranslateUnit(ctx, text, langCode)
}

// linearBackoff waits base, 2*base, 3*base... between attempts.
func linearBackoff(base time.Duration) retry.Backoff {
	attempt := 0
	return retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		return time.Duration(attempt) * base, false
	})
}

// outputTokenBudget sizes the provider's output allowance proportionally
// to the input length, with headroom for languages that run longer than
// English.
func outputTokenBudget(text string) int {
	estimated := utf8.RuneCountInString(text)/charsPerToken + 1
	budget := estimated*2 + 128
	if budget > maxOutputTokenCap {
		return maxOutputTokenCap
	}
	return budget
}
