// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translate

import "strings"

// wrapperTags are document-level tags some providers wrap their output in.
var wrapperTags = []string{"html", "body", "div"}

// Sanitize strips provider response artifacts from a translated string:
// a surrounding fenced code block (with or without a language tag), a
// surrounding <html>/<body>/<div> wrapper pair, stray backticks, and
// leading/trailing whitespace. Interior markup is never touched, and
// sanitizing an already clean string is a no-op.
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}

	s = stripCodeFence(s)
	s = stripWrapperTags(s)
	s = strings.Trim(s, "`")
	return strings.TrimSpace(s)
}

// stripCodeFence removes a fenced code block surrounding the whole string.
// The opening fence may carry a language tag (```html). A trailing fence
// is only removed when an opening fence was present, so interior fences
// survive.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}

	rest := s[len("```"):]
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		// Drop the opening fence line including any language tag.
		rest = rest[idx+1:]
	} else {
		// Single-line response like ```text```.
		rest = strings.TrimPrefix(rest, "html")
	}

	rest = strings.TrimSpace(rest)
	rest = strings.TrimSuffix(rest, "```")
	return strings.TrimSpace(rest)
}

// stripWrapperTags removes one document wrapper pair per tag, outermost
// first, as long as the tags enclose the entire string.
func stripWrapperTags(s string) string {
	for {
		stripped := false
		for _, tag := range wrapperTags {
			open := "<" + tag + ">"
			closing := "</" + tag + ">"
			if len(s) > len(open)+len(closing) &&
				strings.HasPrefix(s, open) && strings.HasSuffix(s, closing) {
				s = strings.TrimSpace(s[len(open) : len(s)-len(closing)])
				stripped = true
			}
		}
		if !stripped {
			return s
		}
	}
}
