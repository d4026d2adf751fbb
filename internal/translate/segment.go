// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translate

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// minParagraphChunk is the smallest paragraph worth a separate
	// provider call; smaller pieces are merged into their neighbor.
	minParagraphChunk = 100

	// chunkCeiling is the size above which an unsplittable chunk is
	// force-split at sentence boundaries.
	chunkCeiling = 3000

	// chunkTarget is the packing size for force-split sub-chunks.
	chunkTarget = 2000
)

// Chunk is one structurally bounded slice of a document body. The raw
// text of all chunks, concatenated in index order, reproduces the input
// exactly.
type Chunk struct {
	Index      int
	Text       string
	Structural bool // begins at a heading/paragraph boundary or document start
}

// Segment splits a document body into ordered chunks that each fit one
// provider call. Structural boundaries are preferred, in order: heading
// tags, paragraph tags, blank lines. Only when the body has no usable
// boundary and still exceeds the size ceiling is it force-split at
// sentence boundaries and greedily packed up to the target size.
func Segment(body string) []Chunk {
	if body == "" {
		return nil
	}

	var parts []string
	switch {
	case strings.Contains(body, "<h2>") || strings.Contains(body, "<h3>"):
		parts = splitBefore(body, "<h2>", "<h3>")
	case strings.Contains(body, "<p>"):
		parts = mergeSmall(splitBefore(body, "<p>"), minParagraphChunk)
	default:
		parts = splitBlankLines(body)
	}

	if len(parts) == 1 && utf8.RuneCountInString(parts[0]) > chunkCeiling {
		packed := packSentences(parts[0], chunkTarget)
		chunks := make([]Chunk, len(packed))
		for i, text := range packed {
			chunks[i] = Chunk{Index: i, Text: text, Structural: i == 0}
		}
		return chunks
	}

	chunks := make([]Chunk, len(parts))
	for i, text := range parts {
		chunks[i] = Chunk{Index: i, Text: text, Structural: true}
	}
	return chunks
}

// Reassemble joins translated chunk texts with a blank line. The original
// separators are deliberately normalized rather than round-tripped.
func Reassemble(translated []string) string {
	return strings.Join(translated, "\n\n")
}

// splitBefore cuts s immediately before each occurrence of any marker.
// All characters are preserved across the cut points.
func splitBefore(s string, markers ...string) []string {
	var cuts []int
	for _, m := range markers {
		for off := 0; ; {
			i := strings.Index(s[off:], m)
			if i < 0 {
				break
			}
			cuts = append(cuts, off+i)
			off += i + len(m)
		}
	}
	sort.Ints(cuts)

	var parts []string
	prev := 0
	for _, c := range cuts {
		if c == prev {
			continue
		}
		parts = append(parts, s[prev:c])
		prev = c
	}
	parts = append(parts, s[prev:])
	return parts
}

// splitBlankLines splits after each blank-line boundary, keeping the
// separator attached to the preceding chunk.
func splitBlankLines(s string) []string {
	raw := strings.SplitAfter(s, "\n\n")
	parts := raw[:0]
	for _, p := range raw {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// mergeSmall folds parts shorter than min into their predecessor so tiny
// paragraphs don't cost a provider call each.
func mergeSmall(parts []string, min int) []string {
	var out []string
	for _, p := range parts {
		if len(out) > 0 && utf8.RuneCountInString(p) < min {
			out[len(out)-1] += p
			continue
		}
		out = append(out, p)
	}
	return out
}

// packSentences splits s into sentences and greedily packs them into
// chunks of at most target runes. A sentence boundary is a period
// followed by whitespace and an uppercase letter or an opening tag.
func packSentences(s string, target int) []string {
	sentences := splitSentences(s)

	var chunks []string
	var cur strings.Builder
	curLen := 0
	for _, sent := range sentences {
		l := utf8.RuneCountInString(sent)
		if curLen > 0 && curLen+l > target {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
		cur.WriteString(sent)
		curLen += l
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// splitSentences cuts after sentence-ending periods, keeping the
// trailing whitespace with the sentence it ends.
func splitSentences(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '.' {
			continue
		}
		j := i + 1
		for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
			j++
		}
		if j == i+1 || j >= len(s) {
			continue
		}
		r, _ := utf8.DecodeRuneInString(s[j:])
		if r == '<' || unicode.IsUpper(r) {
			parts = append(parts, s[start:j])
			start = j
			i = j - 1
		}
	}
	if start < len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}
