// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract recognizes known symptom phrases inside free text.
//
// Matching is literal substring containment against the normalized sentence.
// A token that occurs inside a longer word still matches: "pain" is found in
// "the painting is red". Word-boundary matching would change results and is
// deliberately not done here.
package extract

import (
	"strings"

	"github.com/pdiddy/symptomatch/internal/normalize"
)

// Extract returns the vocabulary tokens contained in sentence. The sentence
// is normalized first; tokens are compared as given. The result follows
// vocabulary order, not the order symptoms appear in the sentence, and holds
// each token at most once. Empty tokens never match.
//
// A nil result means nothing was recognized; that is not an error.
func Extract(sentence string, vocabulary []string) []string {
	text := normalize.Normalize(sentence)
	if text == "" {
		return nil
	}

	var matched []string
	seen := make(map[string]struct{})
	for _, tok := range vocabulary {
		if tok == "" {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		if strings.Contains(text, tok) {
			seen[tok] = struct{}{}
			matched = append(matched, tok)
		}
	}
	return matched
}

// Text extracts symptoms from sentence and joins them into the
// comma-separated form the classifier expects. It returns "" when nothing
// was recognized.
func Text(sentence string, vocabulary []string) string {
	return normalize.JoinSymptoms(Extract(sentence, vocabulary))
}
