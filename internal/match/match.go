// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match scores diseases against a set of recognized symptoms.
//
// A disease's score is the share of its own known symptoms that were
// recognized: 100 * |recognized ∩ known| / |known|. The denominator is the
// disease's symptom count, not the number of symptoms the user gave, so one
// correct symptom out of twenty known scores 5 even when it is the only
// symptom given.
package match

import (
	"errors"
	"fmt"
	"sort"

	"github.com/pdiddy/symptomatch/internal/knowledge"
	"github.com/pdiddy/symptomatch/internal/normalize"
	"github.com/pdiddy/symptomatch/pkg/types"
)

// ErrNoCandidates is returned when there is nothing to choose a best match
// from. It indicates an empty knowledge base was passed in.
var ErrNoCandidates = errors.New("no candidate diseases")

// ScoreAll returns the coverage percentage of every disease in kb.
// Extracted symptoms are normalized before comparison.
func ScoreAll(extracted []string, kb *knowledge.Base) map[string]float64 {
	present := make(map[string]struct{}, len(extracted))
	for _, s := range extracted {
		if s = normalize.Normalize(s); s != "" {
			present[s] = struct{}{}
		}
	}

	scores := make(map[string]float64, kb.Len())
	kb.Each(func(disease string, known map[string]struct{}) {
		if len(known) == 0 {
			return
		}
		hits := 0
		for s := range present {
			if _, ok := known[s]; ok {
				hits++
			}
		}
		scores[disease] = 100 * float64(hits) / float64(len(known))
	})
	return scores
}

// BestMatch returns the disease with the highest percentage. Ties go to the
// lexicographically smallest disease name so results are reproducible.
func BestMatch(percentages map[string]float64) (types.MatchResult, error) {
	if len(percentages) == 0 {
		return types.MatchResult{}, fmt.Errorf("selecting best match: %w", ErrNoCandidates)
	}

	var best types.MatchResult
	first := true
	for disease, pct := range percentages {
		if first || better(disease, pct, best) {
			best = types.MatchResult{Disease: disease, Percentage: pct}
			first = false
		}
	}
	return best, nil
}

// Rank returns every result ordered by percentage descending, then disease
// name ascending. A positive limit truncates the list. The first element of
// a non-empty ranking is the BestMatch.
func Rank(percentages map[string]float64, limit int) []types.MatchResult {
	ranked := make([]types.MatchResult, 0, len(percentages))
	for disease, pct := range percentages {
		ranked = append(ranked, types.MatchResult{Disease: disease, Percentage: pct})
	}
	sort.Slice(ranked, func(i, j int) bool {
		return better(ranked[i].Disease, ranked[i].Percentage, ranked[j])
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// better reports whether (disease, pct) outranks cur.
func better(disease string, pct float64, cur types.MatchResult) bool {
	if pct != cur.Percentage {
		return pct > cur.Percentage
	}
	return disease < cur.Disease
}
