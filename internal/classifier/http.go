// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/symptomatch/internal/httputil"
)

// HTTPBackend posts symptom text to a model server.
//
// Request:  {"text": "fever, cough"}
// Response: {"label": "Influenza"} or {"class_index": 12}
//
// A class index is decoded through Labels. When both fields are present the
// label wins.
type HTTPBackend struct {
	URL       string
	APIKey    string
	UserAgent string
	Labels    *LabelEncoder
	Client    *http.Client

	// Timeout bounds one Classify call including retries on 429/503.
	Timeout time.Duration
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Label      string   `json:"label"`
	ClassIndex *int     `json:"class_index"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Classify sends text to the model server and returns the predicted label.
func (b *HTTPBackend) Classify(ctx context.Context, text string) (string, error) {
	ctx, cancel := withTimeout(ctx, b.Timeout)
	defer cancel()

	body, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}
	if b.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return "", fmt.Errorf("calling model server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("model server returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var cr classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decoding model server response: %w", err)
	}

	if label := strings.TrimSpace(cr.Label); label != "" {
		return label, nil
	}
	if cr.ClassIndex != nil {
		if b.Labels == nil {
			return "", fmt.Errorf("model returned class %d without a label encoder: %w", *cr.ClassIndex, ErrUnknownLabel)
		}
		return b.Labels.Decode(*cr.ClassIndex)
	}
	return "", ErrEmptyLabel
}
