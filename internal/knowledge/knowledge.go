// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package knowledge holds the disease knowledge base: every known disease
// mapped to the set of symptom tokens recorded for it across the dataset.
// A Base is immutable once built and safe for concurrent use.
package knowledge

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pdiddy/symptomatch/internal/normalize"
	"github.com/pdiddy/symptomatch/pkg/types"
)

// ErrData reports a malformed or empty dataset. It is fatal at startup.
var ErrData = errors.New("invalid dataset")

// Base maps disease names to their symptom token sets.
type Base struct {
	diseases map[string]map[string]struct{}

	vocabOnce sync.Once
	vocab     []string
}

// Build constructs a Base from dataset records. Each record's symptom text is
// split into tokens and unioned into the entry for its disease, so a disease
// listed on several rows accumulates all of their symptoms. Records with an
// empty disease name or no symptom tokens contribute nothing.
//
// Build fails with ErrData when records is empty or no record yields a token.
func Build(records []types.DatasetRecord) (*Base, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("building knowledge base: no records: %w", ErrData)
	}

	diseases := make(map[string]map[string]struct{})
	for _, rec := range records {
		name := strings.TrimSpace(rec.Disease)
		if name == "" {
			continue
		}
		tokens := normalize.SplitSymptoms(rec.Symptoms)
		if len(tokens) == 0 {
			continue
		}

		set, ok := diseases[name]
		if !ok {
			set = make(map[string]struct{}, len(tokens))
			diseases[name] = set
		}
		for _, tok := range tokens {
			set[tok] = struct{}{}
		}
	}

	if len(diseases) == 0 {
		return nil, fmt.Errorf("building knowledge base: %d records yielded no symptoms: %w", len(records), ErrData)
	}

	return &Base{diseases: diseases}, nil
}

// Vocabulary returns the union of every disease's symptoms in lexicographic
// order. It is computed on first use and cached for the lifetime of the Base;
// the returned slice is a copy.
func (b *Base) Vocabulary() []string {
	b.vocabOnce.Do(func() {
		seen := make(map[string]struct{})
		for _, set := range b.diseases {
			for tok := range set {
				seen[tok] = struct{}{}
			}
		}
		b.vocab = sortedKeys(seen)
	})
	out := make([]string, len(b.vocab))
	copy(out, b.vocab)
	return out
}

// Len returns the number of diseases.
func (b *Base) Len() int {
	return len(b.diseases)
}

// Contains reports whether disease is known.
func (b *Base) Contains(disease string) bool {
	_, ok := b.diseases[disease]
	return ok
}

// Diseases returns all disease names in lexicographic order.
func (b *Base) Diseases() []string {
	names := make([]string, 0, len(b.diseases))
	for name := range b.diseases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Symptoms returns the sorted symptom tokens of disease.
func (b *Base) Symptoms(disease string) ([]string, bool) {
	set, ok := b.diseases[disease]
	if !ok {
		return nil, false
	}
	return sortedKeys(set), true
}

// Records returns every disease with its symptoms, ordered by disease name.
func (b *Base) Records() []types.DiseaseRecord {
	names := b.Diseases()
	out := make([]types.DiseaseRecord, len(names))
	for i, name := range names {
		out[i] = types.DiseaseRecord{
			Disease:  name,
			Symptoms: sortedKeys(b.diseases[name]),
		}
	}
	return out
}

// Each calls fn for every disease with its symptom set. The set must not be
// modified. Iteration order is unspecified.
func (b *Base) Each(fn func(disease string, symptoms map[string]struct{})) {
	for name, set := range b.diseases {
		fn(name, set)
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
