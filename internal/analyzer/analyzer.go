// Package analyzer runs one URL through rendering, extraction, chunking,
// classification and aggregation.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mohammad-safakhou/toxscore/internal/chunk"
	"github.com/mohammad-safakhou/toxscore/internal/classifier"
	"github.com/mohammad-safakhou/toxscore/internal/extract"
	"github.com/mohammad-safakhou/toxscore/internal/helpers"
	"github.com/mohammad-safakhou/toxscore/internal/metrics"
	"github.com/mohammad-safakhou/toxscore/internal/score"
	"github.com/mohammad-safakhou/toxscore/tools/render"
	"github.com/rs/zerolog"
)

const DefaultBatchSize = 4

// Options wires an Analyzer. Renderer, Picker and Classifier are required.
type Options struct {
	Renderer   render.Renderer
	Picker     *extract.Picker
	Normalizer *extract.Normalizer
	Classifier classifier.Classifier
	BatchSize  int
	Logger     zerolog.Logger
}

// Analyzer is safe for concurrent use as long as its renderer and
// classifier are.
type Analyzer struct {
	renderer   render.Renderer
	picker     *extract.Picker
	normalizer *extract.Normalizer
	classifier classifier.Classifier
	batchSize  int
	logger     zerolog.Logger
}

func New(opts Options) (*Analyzer, error) {
	if opts.Renderer == nil {
		return nil, errors.New("analyzer: renderer is required")
	}
	if opts.Picker == nil || opts.Picker.Universal == nil {
		return nil, errors.New("analyzer: picker with a universal strategy is required")
	}
	if opts.Classifier == nil {
		return nil, errors.New("analyzer: classifier is required")
	}
	if opts.Normalizer == nil {
		opts.Normalizer = extract.NewNormalizer()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Analyzer{
		renderer:   opts.Renderer,
		picker:     opts.Picker,
		normalizer: opts.Normalizer,
		classifier: opts.Classifier,
		batchSize:  opts.BatchSize,
		logger:     opts.Logger,
	}, nil
}

// Result carries the report plus the bookkeeping that produced it.
type Result struct {
	URL        string                         `json:"url"`
	Strategy   string                         `json:"strategy"`
	Fragments  int                            `json:"fragments"`
	Chunks     int                            `json:"chunks"`
	Categories map[string]score.CategoryScore `json:"categories"`
	Report     score.Report                   `json:"report"`
}

// Analyze scores the page at rawURL. Every failure is an *Error; there are
// no partial results.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (res *Result, err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = KindOf(err).String()
		}
		metrics.ObserveAnalyze(outcome, time.Since(start))
	}()

	if strings.TrimSpace(rawURL) == "" {
		return nil, &Error{Kind: InputError, Err: ErrNoURL}
	}
	target, err := helpers.TargetURL(rawURL)
	if err != nil {
		return nil, &Error{Kind: InputError, Err: fmt.Errorf("invalid url %q: %w", rawURL, err)}
	}
	log := a.logger.With().Str("url", target).Logger()

	strategy := a.picker.ForURL(target)
	text, fragments, err := a.extractText(ctx, target, strategy)
	if err != nil {
		return nil, err
	}

	chunks := chunk.Split(text)
	if len(chunks) == 0 {
		log.Info().Str("strategy", strategy.Name()).Int("fragments", fragments).Msg("no extractable text")
		return nil, &Error{Kind: ExtractionEmpty, Err: ErrNoText}
	}
	metrics.ObserveChunks(len(chunks))

	results, err := a.classifier.Classify(ctx, chunks, a.batchSize)
	if err != nil {
		return nil, &Error{Kind: ClassifierFault, Err: fmt.Errorf("classify: %w", err)}
	}
	if len(results) != len(chunks) {
		return nil, &Error{Kind: ClassifierFault, Err: fmt.Errorf("%w: got %d, want %d", classifier.ErrBatchMismatch, len(results), len(chunks))}
	}

	acc := score.NewAccumulator()
	for _, r := range results {
		if err := acc.Add(r); err != nil {
			return nil, &Error{Kind: ClassifierFault, Err: err}
		}
	}
	categories, err := acc.Finalize()
	if err != nil {
		return nil, &Error{Kind: ClassifierFault, Err: err}
	}

	log.Info().
		Str("strategy", strategy.Name()).
		Int("fragments", fragments).
		Int("chunks", len(chunks)).
		Int("labels", len(categories)).
		Dur("elapsed", time.Since(start)).
		Msg("analysis complete")

	return &Result{
		URL:        target,
		Strategy:   strategy.Name(),
		Fragments:  fragments,
		Chunks:     len(chunks),
		Categories: categories,
		Report:     score.ToReport(categories),
	}, nil
}

// extractText renders target, runs strategy and normalizes the fragments. The
// document is released before returning so the browser tab never outlives
// extraction.
func (a *Analyzer) extractText(ctx context.Context, target string, strategy extract.Strategy) (string, int, error) {
	doc, err := a.renderer.Open(ctx, target)
	if err != nil {
		return "", 0, &Error{Kind: RenderFault, Err: fmt.Errorf("render: %w", err)}
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			a.logger.Debug().Err(cerr).Str("url", target).Msg("close document")
		}
	}()

	fragments := strategy.Extract(ctx, doc)
	// strategies swallow element faults, so a dead request only shows up here
	if err := ctx.Err(); err != nil {
		return "", 0, &Error{Kind: RenderFault, Err: fmt.Errorf("render: %w", err)}
	}

	kept := a.normalizer.Filter(fragments)
	metrics.ObserveFragments(len(kept))
	return extract.Join(kept), len(kept), nil
}

// Report is Analyze reduced to the caller-facing {label: {value, color}} map.
func (a *Analyzer) Report(ctx context.Context, rawURL string) (score.Report, error) {
	res, err := a.Analyze(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return res.Report, nil
}
