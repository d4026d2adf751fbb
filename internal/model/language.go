// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// SourceLanguageCode is the language posts are authored in. It is never
// a valid translation target.
const SourceLanguageCode = "en"

// Language represents a translation target language.
type Language struct {
	ID         int64     `json:"id"`
	Code       string    `json:"code"`        // ISO 639-1: fr, it, de, es
	Name       string    `json:"name"`        // French, Italian, German, Spanish
	NativeName string    `json:"native_name"` // Français, Italiano, Deutsch, Español
	IsActive   bool      `json:"is_active"`   // enabled as a translation target
	Position   int       `json:"position"`    // sort order
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SupportedLanguages is the fixed enumeration of translation targets.
// Extending the list does not change the pipeline shape.
var SupportedLanguages = []Language{
	{Code: "fr", Name: "French", NativeName: "Français", IsActive: true, Position: 1},
	{Code: "it", Name: "Italian", NativeName: "Italiano", IsActive: true, Position: 2},
	{Code: "de", Name: "German", NativeName: "Deutsch", IsActive: true, Position: 3},
	{Code: "es", Name: "Spanish", NativeName: "Español", IsActive: true, Position: 4},
	{Code: "pt", Name: "Portuguese", NativeName: "Português", IsActive: false, Position: 5},
	{Code: "nl", Name: "Dutch", NativeName: "Nederlands", IsActive: false, Position: 6},
	{Code: "pl", Name: "Polish", NativeName: "Polski", IsActive: false, Position: 7},
}

// IsSupportedLanguage reports whether code is an active translation target.
func IsSupportedLanguage(code string) bool {
	for _, l := range SupportedLanguages {
		if l.IsActive && l.Code == code {
			return true
		}
	}
	return false
}

// FilterSupportedLanguages returns the subset of codes that are active
// translation targets, order preserved, duplicates removed.
func FilterSupportedLanguages(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	var out []string
	for _, code := range codes {
		if seen[code] || !IsSupportedLanguage(code) {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}

// LanguageName resolves a language code to its English display name for
// use in provider prompts. Unknown codes are returned verbatim so the
// prompt stays intelligible rather than failing the unit.
func LanguageName(code string) string {
	for _, l := range SupportedLanguages {
		if l.Code == code {
			return l.Name
		}
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}
