// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// MatchResult is the coverage score of one disease: the percentage of the
// disease's known symptoms that were found in the input, in [0, 100].
type MatchResult struct {
	Disease    string  `json:"disease" yaml:"disease"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

// DiagnosisResult is the end-to-end output for one input sentence.
// Empty strings mean "absent": ClassifiedDisease is empty when no classifier
// is configured or the classifier failed, and every field is zero when no
// known symptom was recognized.
type DiagnosisResult struct {
	// ClassifiedDisease is the label returned by the external classifier.
	ClassifiedDisease string `json:"classified_disease,omitempty" yaml:"classified_disease,omitempty"`

	// BestMatchDisease is the disease whose known symptoms are best covered.
	BestMatchDisease string `json:"best_match_disease,omitempty" yaml:"best_match_disease,omitempty"`

	// BestMatchPercentage is the coverage of BestMatchDisease in [0, 100].
	BestMatchPercentage float64 `json:"best_match_percentage" yaml:"best_match_percentage"`

	// Extracted lists the recognized symptom tokens in vocabulary order.
	Extracted []string `json:"extracted,omitempty" yaml:"extracted,omitempty"`
}

// HasMatch reports whether a best-matching disease was found.
func (r DiagnosisResult) HasMatch() bool {
	return r.BestMatchDisease != ""
}

// DiagnosisRecord is a persisted diagnosis with its input text.
type DiagnosisRecord struct {
	ID        string          `json:"id" yaml:"id"`
	CreatedAt time.Time       `json:"created_at" yaml:"created_at"`
	Input     string          `json:"input" yaml:"input"`
	Result    DiagnosisResult `json:"result" yaml:"result"`
}
