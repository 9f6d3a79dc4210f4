// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns raw symptom text into canonical symptom tokens.
// A token is lowercased and trimmed; two strings that differ only in case or
// surrounding whitespace normalize to the same token. No compatibility or
// composition folding is applied, so fullwidth letters, ligatures, and
// combining marks are kept as written.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Separator is the literal delimiter between symptoms in dataset rows and in
// the text handed to the classifier.
const Separator = ", "

// Normalize returns text lowercased with the full Unicode case mapping and
// trimmed. Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(text string) string {
	// Casers carry state; one per call.
	return strings.TrimSpace(cases.Lower(language.Und).String(text))
}

// SplitSymptoms normalizes text and splits it on Separator. Each piece is
// trimmed and empty pieces are dropped. Order and duplicates are preserved.
func SplitSymptoms(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	parts := strings.Split(normalized, Separator)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		tokens = append(tokens, p)
	}
	return tokens
}

// JoinSymptoms joins tokens with Separator.
func JoinSymptoms(tokens []string) string {
	return strings.Join(tokens, Separator)
}
