// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classifier

import (
	"fmt"
	"sort"
)

// LabelEncoder maps between disease names and the class indices a trained
// model emits. Classes are the distinct names in sorted order, which is the
// ordering the model's label encoder assigned at training time.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// NewLabelEncoder builds an encoder over the distinct names in labels.
func NewLabelEncoder(labels []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(labels))
	classes := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		classes = append(classes, l)
	}
	sort.Strings(classes)

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return &LabelEncoder{classes: classes, index: index}
}

// Len returns the number of classes.
func (e *LabelEncoder) Len() int {
	return len(e.classes)
}

// Decode returns the label of class i.
func (e *LabelEncoder) Decode(i int) (string, error) {
	if i < 0 || i >= len(e.classes) {
		return "", fmt.Errorf("class %d of %d: %w", i, len(e.classes), ErrUnknownLabel)
	}
	return e.classes[i], nil
}

// Encode returns the class index of label.
func (e *LabelEncoder) Encode(label string) (int, bool) {
	i, ok := e.index[label]
	return i, ok
}
