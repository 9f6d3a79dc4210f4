// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classifier

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/symptomatch/internal/container"
)

// ContainerBackend runs a packaged model image once per call. The symptom
// text is written to the container's stdin; the first non-blank stdout line
// is the label.
type ContainerBackend struct {
	Runtime container.Runtime
	Image   string
	Options container.RunOptions

	// Timeout bounds one container run.
	Timeout time.Duration
}

// Classify runs the model image on text.
func (b *ContainerBackend) Classify(ctx context.Context, text string) (string, error) {
	ctx, cancel := withTimeout(ctx, b.Timeout)
	defer cancel()

	var out bytes.Buffer
	if err := b.Runtime.Run(ctx, b.Image, b.Options, strings.NewReader(text+"\n"), &out); err != nil {
		return "", fmt.Errorf("classifying with %s: %w", b.Image, err)
	}

	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		if label := strings.TrimSpace(sc.Text()); label != "" {
			return label, nil
		}
	}
	return "", ErrEmptyLabel
}
