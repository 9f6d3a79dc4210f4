// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = 200 * time.Millisecond

type retrying struct {
	next       Classifier
	maxRetries int
}

// WithRetry wraps c so failed calls are retried up to maxRetries times with
// exponential backoff. Empty or unknown labels are not retried; the model
// answered and asking again will not change that.
func WithRetry(c Classifier, maxRetries int) Classifier {
	return &retrying{next: c, maxRetries: maxRetries}
}

func (r *retrying) Classify(ctx context.Context, text string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		label, err := r.next.Classify(ctx, text)
		if err == nil {
			return label, nil
		}
		if errors.Is(err, ErrEmptyLabel) || errors.Is(err, ErrUnknownLabel) {
			return "", err
		}
		if ctx.Err() != nil {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", r.maxRetries, lastErr)
}
