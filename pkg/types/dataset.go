// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DatasetRecord is one row of the disease dataset: a disease name and its
// raw, comma-separated symptom text. A disease may appear in many rows.
type DatasetRecord struct {
	Disease  string `json:"disease" yaml:"disease"`
	Symptoms string `json:"symptoms" yaml:"symptoms"`
}

// DiseaseRecord is a disease together with its normalized, de-duplicated
// symptom tokens in sorted order.
type DiseaseRecord struct {
	Disease  string   `json:"disease" yaml:"disease"`
	Symptoms []string `json:"symptoms" yaml:"symptoms"`
}
