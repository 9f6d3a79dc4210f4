// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	vocab := []string{"abdominal cramps", "bloating", "fever", "loose watery stools", "nausea", "rash"}

	tests := []struct {
		name     string
		sentence string
		vocab    []string
		want     []string
	}{
		{
			name:     "finds phrases regardless of case",
			sentence: "I have Loose watery stools with Abdominal cramps, Nausea, Bloating, Fever",
			vocab:    vocab,
			want:     []string{"abdominal cramps", "bloating", "fever", "loose watery stools", "nausea"},
		},
		{
			name:     "output follows vocabulary order not sentence order",
			sentence: "rash and then fever",
			vocab:    []string{"fever", "rash"},
			want:     []string{"fever", "rash"},
		},
		{
			name:     "reversed vocabulary reverses output",
			sentence: "rash and then fever",
			vocab:    []string{"rash", "fever"},
			want:     []string{"rash", "fever"},
		},
		{
			name:     "nothing recognized",
			sentence: "I feel great today",
			vocab:    vocab,
			want:     nil,
		},
		{
			name:     "empty sentence",
			sentence: "   ",
			vocab:    vocab,
			want:     nil,
		},
		{
			name:     "empty vocabulary",
			sentence: "fever",
			vocab:    nil,
			want:     nil,
		},
		{
			name:     "empty token never matches",
			sentence: "fever",
			vocab:    []string{"", "fever"},
			want:     []string{"fever"},
		},
		{
			name:     "duplicate tokens reported once",
			sentence: "fever fever",
			vocab:    []string{"fever", "fever"},
			want:     []string{"fever"},
		},
		{
			name:     "fullwidth input is not folded",
			sentence: "ＦＥＶＥＲ since monday",
			vocab:    vocab,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.sentence, tt.vocab))
		})
	}
}

func TestExtractSubstringFalsePositive(t *testing.T) {
	got := Extract("the painting is red", []string{"pain", "headache"})
	assert.Equal(t, []string{"pain"}, got)
}

func TestExtractOverlappingTokens(t *testing.T) {
	// Both the short and the long phrase are contained.
	got := Extract("severe chest pain at night", []string{"chest pain", "pain"})
	assert.Equal(t, []string{"chest pain", "pain"}, got)
}

func TestText(t *testing.T) {
	vocab := []string{"cough", "fever"}
	assert.Equal(t, "cough, fever", Text("Fever and a dry cough", vocab))
	assert.Equal(t, "", Text("nothing here", vocab))
}

func TestExtractMatchesOnlyLowercasedText(t *testing.T) {
	tests := []struct {
		name     string
		sentence string
		vocab    []string
		want     []string
	}{
		{name: "fullwidth is a different token", sentence: "ｐａｉｎ in my side", vocab: []string{"pain"}},
		{name: "ligature is a different token", sentence: "ﬁne rash", vocab: []string{"fine"}},
		{name: "decomposed accent keeps the base letters", sentence: "cafe\u0301 visit", vocab: []string{"cafe"}, want: []string{"cafe"}},
		{name: "uppercase accented letters lowercase", sentence: "ÉRUPTION on arms", vocab: []string{"éruption"}, want: []string{"éruption"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.sentence, tt.vocab)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
