// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/pdiddy/symptomatch/internal/classifier"
	"github.com/pdiddy/symptomatch/internal/dataset"
	"github.com/pdiddy/symptomatch/internal/diagnose"
	"github.com/pdiddy/symptomatch/internal/knowledge"
	"github.com/pdiddy/symptomatch/internal/store"
	"github.com/pdiddy/symptomatch/pkg/types"
)

// loadKnowledgeBase builds the knowledge base from cfg.Dataset when set,
// otherwise from the local store.
func loadKnowledgeBase(ctx context.Context, cfg types.KnowledgeBaseConfig) (*knowledge.Base, error) {
	var records []types.DatasetRecord

	if cfg.Dataset != "" {
		recs, sum, err := dataset.LoadFile(cfg.Dataset, cfg.Columns)
		if err != nil {
			return nil, err
		}
		logger.Debug("dataset loaded", "path", cfg.Dataset, "rows", sum.Rows, "dropped", sum.Dropped)
		records = recs
	} else {
		s, err := store.NewStore(cfg)
		if err != nil {
			return nil, err
		}
		defer s.Close()

		records, err = s.Records(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, fmt.Errorf("store %s is empty: run \"symptomatch kb import <dataset.csv>\" or pass --dataset: %w",
				s.Path(), knowledge.ErrData)
		}
	}

	kb, err := knowledge.Build(records)
	if err != nil {
		return nil, err
	}
	logger.Debug("knowledge base ready", "diseases", kb.Len(), "symptoms", len(kb.Vocabulary()))
	return kb, nil
}

// newDiagnoser wires the configured classifier to a Diagnoser over kb.
// Class indices from the model are decoded against the knowledge base's
// disease names.
func newDiagnoser(ctx context.Context, cfg types.Config, kb *knowledge.Base, topN int) (*diagnose.Diagnoser, error) {
	labels := classifier.NewLabelEncoder(kb.Diseases())
	c, err := classifier.NewFromConfig(ctx, cfg.Classifier, labels, loadedSecrets)
	if err != nil {
		return nil, err
	}
	if c == nil {
		logger.Debug("no classifier configured, using symptom matching only")
	}

	return diagnose.New(kb, c,
		diagnose.WithLogger(logger),
		diagnose.WithClassifyTimeout(cfg.Server.ClassifyTimeout),
		diagnose.WithTopN(topN),
	), nil
}
