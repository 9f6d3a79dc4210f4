// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classifier reaches the external disease classifier. The model is
// a black box: it receives the comma-separated symptom text recognized in a
// sentence and answers with a disease label. Backends talk to a model server
// over HTTP or run a packaged model image through a container runtime.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/symptomatch/internal/container"
	"github.com/pdiddy/symptomatch/internal/secrets"
	"github.com/pdiddy/symptomatch/pkg/types"
)

var (
	// ErrEmptyLabel is returned when the model answers without a label.
	ErrEmptyLabel = errors.New("classifier returned no label")

	// ErrUnknownLabel is returned when a class index has no label.
	ErrUnknownLabel = errors.New("unknown class index")
)

// Classifier predicts a disease label from symptom text.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// Func adapts a function to the Classifier interface.
type Func func(ctx context.Context, text string) (string, error)

// Classify calls f.
func (f Func) Classify(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// NewFromConfig builds the classifier selected by cfg.Backend. The none
// backend (or an empty one) returns a nil Classifier: diagnosis then runs on
// symptom matching alone. labels decodes class indices returned by the model
// server and may be nil.
func NewFromConfig(ctx context.Context, cfg types.ClassifierConfig, labels *LabelEncoder, s secrets.Set) (Classifier, error) {
	var c Classifier

	switch cfg.Backend {
	case types.ClassifierNone, "":
		return nil, nil
	case types.ClassifierHTTP:
		if cfg.URL == "" {
			return nil, fmt.Errorf("classifier backend %q requires a url", cfg.Backend)
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = s.Get(secrets.ClassifierAPIKey)
		}
		c = &HTTPBackend{
			URL:       cfg.URL,
			APIKey:    apiKey,
			UserAgent: cfg.UserAgent,
			Labels:    labels,
			Timeout:   cfg.Timeout,
		}
	case types.ClassifierContainer:
		if cfg.Image == "" {
			return nil, fmt.Errorf("classifier backend %q requires an image", cfg.Backend)
		}
		rt, err := container.DetectRuntime(ctx)
		if err != nil {
			return nil, fmt.Errorf("container classifier: %w", err)
		}
		if err := rt.ImageExists(ctx, cfg.Image); err != nil {
			return nil, fmt.Errorf("container classifier: %w", err)
		}
		c = &ContainerBackend{
			Runtime: rt,
			Image:   cfg.Image,
			Options: container.RunOptions{Network: "none"},
			Timeout: cfg.Timeout,
		}
	default:
		return nil, fmt.Errorf("unsupported classifier backend %q: use none, http, or container", cfg.Backend)
	}

	if cfg.MaxRetries > 0 {
		c = WithRetry(c, cfg.MaxRetries)
	}
	return c, nil
}

// withTimeout derives a context bounded by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
