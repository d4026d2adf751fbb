// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ValueKind tags a Value variant.
type ValueKind int

// Value kinds
const (
	KindNull ValueKind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Value is a tagged representation of an arbitrary JSON tree. Using an
// explicit sum type keeps the walker's recursion exhaustive instead of
// relying on runtime type switches over interface{}.
type Value struct {
	Kind ValueKind
	Str  string
	Num  json.Number
	Bool bool
	Arr  []Value
	Obj  map[string]Value
}

// DecodeValue parses a raw JSON document into a Value tree.
func DecodeValue(raw json.RawMessage) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Value{}, fmt.Errorf("decoding section data: %w", err)
	}
	return fromAny(v)
}

func fromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Value{Kind: KindNull}, nil
	case bool:
		return Value{Kind: KindBool, Bool: t}, nil
	case json.Number:
		return Value{Kind: KindNumber, Num: t}, nil
	case string:
		return Value{Kind: KindString, Str: t}, nil
	case []any:
		arr := make([]Value, len(t))
		for i, el := range t {
			child, err := fromAny(el)
			if err != nil {
				return Value{}, err
			}
			arr[i] = child
		}
		return Value{Kind: KindArray, Arr: arr}, nil
	case map[string]any:
		obj := make(map[string]Value, len(t))
		for k, el := range t {
			child, err := fromAny(el)
			if err != nil {
				return Value{}, err
			}
			obj[k] = child
		}
		return Value{Kind: KindObject, Obj: obj}, nil
	default:
		return Value{}, fmt.Errorf("unsupported JSON value of type %T", v)
	}
}

// MarshalJSON encodes the Value back to JSON. Object keys are emitted in
// sorted order for deterministic output.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.Bool)
	case KindNumber:
		if v.Num == "" {
			return []byte("0"), nil
		}
		return []byte(v.Num), nil
	case KindString:
		return json.Marshal(v.Str)
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, el := range v.Arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := json.Marshal(el)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindObject:
		keys := make([]string, 0, len(v.Obj))
		for k := range v.Obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := json.Marshal(v.Obj[k])
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.Kind)
	}
}

// TranslateFn translates one text unit into the walk's target language.
type TranslateFn func(ctx context.Context, text string) (string, error)

// TranslateTree rebuilds an isomorphic copy of the tree with every
// prose-like string leaf translated. The same string value is translated
// at most once no matter how often it occurs; object keys, URLs, style
// tokens and non-string leaves pass through unchanged. A failed leaf
// keeps its original text and never aborts the walk.
func TranslateTree(ctx context.Context, v Value, translate TranslateFn) Value {
	memo := make(map[string]string)
	return translateValue(ctx, v, translate, memo)
}

func translateValue(ctx context.Context, v Value, translate TranslateFn, memo map[string]string) Value {
	switch v.Kind {
	case KindString:
		if !IsProse(v.Str) {
			return v
		}
		if cached, ok := memo[v.Str]; ok {
			return Value{Kind: KindString, Str: cached}
		}
		out, err := translate(ctx, v.Str)
		if err != nil || out == "" {
			// The client already falls back internally; keep the
			// original as a defensive backstop.
			out = v.Str
		}
		memo[v.Str] = out
		return Value{Kind: KindString, Str: out}
	case KindArray:
		arr := make([]Value, len(v.Arr))
		for i, el := range v.Arr {
			arr[i] = translateValue(ctx, el, translate, memo)
		}
		return Value{Kind: KindArray, Arr: arr}
	case KindObject:
		obj := make(map[string]Value, len(v.Obj))
		for k, el := range v.Obj {
			obj[k] = translateValue(ctx, el, translate, memo)
		}
		return Value{Kind: KindObject, Obj: obj}
	default:
		// Numbers, booleans and null pass through unchanged.
		return v
	}
}

var (
	hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	cssValueRe = regexp.MustCompile(`^-?\d+(?:\.\d+)?(?:px|em|rem|pt|vh|vw|ch|ex|%)$`)
)

// IsProse reports whether a string leaf is human-readable text worth
// translating, as opposed to a URL, identifier, color or style token.
func IsProse(s string) bool {
	if utf8.RuneCountInString(s) < minTranslatableLen {
		return false
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return false
	}
	if hexColorRe.MatchString(s) || cssValueRe.MatchString(s) {
		return false
	}

	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	return hasLetter
}
