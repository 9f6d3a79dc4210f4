// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package diagnose composes symptom extraction, the external classifier, and
// coverage scoring into one call that always returns a result.
//
// A sentence with no recognized symptom yields the zero result and the
// classifier is never consulted. A classifier failure only clears the
// classified label; scoring still runs on the recognized symptoms. Any other
// failure is logged and collapsed into the zero result.
package diagnose

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pdiddy/symptomatch/internal/classifier"
	"github.com/pdiddy/symptomatch/internal/extract"
	"github.com/pdiddy/symptomatch/internal/knowledge"
	"github.com/pdiddy/symptomatch/internal/match"
	"github.com/pdiddy/symptomatch/internal/normalize"
	"github.com/pdiddy/symptomatch/pkg/types"
)

// DefaultTopN is the ranking length of DiagnoseDetailed when none is set.
const DefaultTopN = 5

// Report is a diagnosis with the best-covered diseases behind it.
type Report struct {
	types.DiagnosisResult `yaml:",inline"`

	// Ranking lists diseases by coverage, highest first. It is empty when
	// no symptom was recognized.
	Ranking []types.MatchResult `json:"ranking,omitempty" yaml:"ranking,omitempty"`
}

// Diagnoser runs diagnoses against one knowledge base. It holds no mutable
// state and is safe for concurrent use.
type Diagnoser struct {
	kb              *knowledge.Base
	classifier      classifier.Classifier
	logger          *slog.Logger
	classifyTimeout time.Duration
	topN            int
}

// Option configures a Diagnoser.
type Option func(*Diagnoser)

// WithLogger sets the logger for classifier failures and recovered errors.
func WithLogger(l *slog.Logger) Option {
	return func(d *Diagnoser) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithClassifyTimeout bounds each classifier call. Zero means no bound
// beyond the caller's context.
func WithClassifyTimeout(t time.Duration) Option {
	return func(d *Diagnoser) { d.classifyTimeout = t }
}

// WithTopN sets the ranking length of DiagnoseDetailed.
func WithTopN(n int) Option {
	return func(d *Diagnoser) {
		if n > 0 {
			d.topN = n
		}
	}
}

// New returns a Diagnoser over kb. c may be nil, in which case diagnoses
// carry no classified label.
func New(kb *knowledge.Base, c classifier.Classifier, opts ...Option) *Diagnoser {
	d := &Diagnoser{
		kb:         kb,
		classifier: c,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		topN:       DefaultTopN,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Diagnose recognizes symptoms in sentence, asks the classifier for a label,
// and picks the best-covered disease. It never returns an error.
func (d *Diagnoser) Diagnose(ctx context.Context, sentence string) types.DiagnosisResult {
	r, _ := d.run(ctx, sentence, 0)
	return r
}

// DiagnoseDetailed is Diagnose plus the top-N coverage ranking.
func (d *Diagnoser) DiagnoseDetailed(ctx context.Context, sentence string) Report {
	r, ranking := d.run(ctx, sentence, d.topN)
	return Report{DiagnosisResult: r, Ranking: ranking}
}

func (d *Diagnoser) run(ctx context.Context, sentence string, topN int) (result types.DiagnosisResult, ranking []types.MatchResult) {
	defer func() {
		if p := recover(); p != nil {
			d.logger.Error("diagnosis failed", "panic", fmt.Sprint(p))
			result, ranking = types.DiagnosisResult{}, nil
		}
	}()

	extracted := extract.Extract(sentence, d.kb.Vocabulary())
	if len(extracted) == 0 {
		d.logger.Debug("no known symptoms recognized")
		return types.DiagnosisResult{}, nil
	}

	classified := d.classify(ctx, extracted)

	scores := match.ScoreAll(extracted, d.kb)
	best, err := match.BestMatch(scores)
	if err != nil {
		d.logger.Error("diagnosis failed", "error", err)
		return types.DiagnosisResult{}, nil
	}
	if topN > 0 {
		ranking = match.Rank(scores, topN)
	}

	return types.DiagnosisResult{
		ClassifiedDisease:   classified,
		BestMatchDisease:    best.Disease,
		BestMatchPercentage: best.Percentage,
		Extracted:           extracted,
	}, ranking
}

// classify asks the classifier for a label. Failures, panics included, are
// logged and yield "" so symptom matching still runs.
func (d *Diagnoser) classify(ctx context.Context, extracted []string) (label string) {
	if d.classifier == nil {
		return ""
	}
	defer func() {
		if p := recover(); p != nil {
			d.logger.Warn("classifier panicked, continuing with symptom matching", "panic", fmt.Sprint(p))
			label = ""
		}
	}()
	if d.classifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.classifyTimeout)
		defer cancel()
	}

	text := normalize.JoinSymptoms(extracted)
	label, err := d.classifier.Classify(ctx, text)
	if err != nil {
		d.logger.Warn("classifier failed, continuing with symptom matching", "error", err)
		return ""
	}
	return label
}
