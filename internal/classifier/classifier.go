// Package classifier talks to a multi-label text-classification model.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/mohammad-safakhou/toxscore/config"
	"github.com/mohammad-safakhou/toxscore/internal/score"
	"github.com/rs/zerolog"
)

var (
	// ErrBatchMismatch means the model answered a batch with a different
	// number of results than inputs.
	ErrBatchMismatch = errors.New("classifier: result count does not match batch size")
	// ErrScoreRange means the model returned a score outside [0,1].
	ErrScoreRange = errors.New("classifier: score out of range")
)

// Classifier scores chunks. The result holds one slice per input chunk, in
// input order, with one entry per category the model supports. Scores are
// independent and need not sum to one. Implementations must be safe for
// concurrent use.
type Classifier interface {
	Classify(ctx context.Context, chunks []string, batchSize int) ([][]score.LabelScore, error)
}

// HTTPClassifier calls a Hugging Face style text-classification endpoint.
type HTTPClassifier struct {
	endpoint string
	token    string
	client   *http.Client
	logger   zerolog.Logger
}

func NewHTTPClassifier(cfg config.ClassifierConfig, logger zerolog.Logger) (*HTTPClassifier, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &HTTPClassifier{
		endpoint: cfg.Endpoint,
		token:    cfg.APIToken,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}, nil
}

type inferenceRequest struct {
	Inputs     []string            `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	// nil serializes as null, which asks for every label
	TopK *int `json:"top_k"`
}

// Classify sends chunks in batches of batchSize and concatenates the answers.
// Any failed batch fails the whole call.
func (c *HTTPClassifier) Classify(ctx context.Context, chunks []string, batchSize int) ([][]score.LabelScore, error) {
	if batchSize <= 0 {
		batchSize = 1
	}
	out := make([][]score.LabelScore, 0, len(chunks))
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		t0 := time.Now()
		res, err := c.classifyBatch(ctx, chunks[start:end])
		if err != nil {
			return nil, err
		}
		observeBatch(time.Since(t0))
		out = append(out, res...)
	}
	return out, nil
}

func (c *HTTPClassifier) classifyBatch(ctx context.Context, batch []string) ([][]score.LabelScore, error) {
	body, err := json.Marshal(inferenceRequest{Inputs: batch})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// read response body (best-effort) to include in error
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("classifier: %s: %s", resp.Status, bytes.TrimSpace(b))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("classifier response: %w", err)
	}
	results, err := decodeResults(raw, len(batch))
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Int("batch", len(batch)).Msg("batch classified")
	return results, nil
}

// decodeResults accepts the nested per-input form and, for single-input
// batches, the flat form some servers return.
func decodeResults(raw []byte, want int) ([][]score.LabelScore, error) {
	var nested [][]score.LabelScore
	if err := json.Unmarshal(raw, &nested); err != nil {
		var flat []score.LabelScore
		if ferr := json.Unmarshal(raw, &flat); ferr != nil || want != 1 {
			return nil, fmt.Errorf("decode classifier response: %w", err)
		}
		nested = [][]score.LabelScore{flat}
	}
	if len(nested) != want {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrBatchMismatch, len(nested), want)
	}
	for _, chunk := range nested {
		for _, ls := range chunk {
			if ls.Score < 0 || ls.Score > 1 {
				return nil, fmt.Errorf("%w: %s=%v", ErrScoreRange, ls.Label, ls.Score)
			}
		}
	}
	return nested, nil
}

// Lazy builds its classifier on first use and shares it afterwards. The
// instance is never replaced, including after a failed build.
type Lazy struct {
	build func() (Classifier, error)

	once sync.Once
	c    Classifier
	err  error
}

// NewLazy wraps build. build runs at most once.
func NewLazy(build func() (Classifier, error)) *Lazy {
	return &Lazy{build: build}
}

// Get returns the shared classifier, building it on first call.
func (l *Lazy) Get() (Classifier, error) {
	l.once.Do(func() {
		l.c, l.err = l.build()
		if l.err == nil && l.c == nil {
			l.err = errors.New("classifier: builder returned nil")
		}
	})
	return l.c, l.err
}

func (l *Lazy) Classify(ctx context.Context, chunks []string, batchSize int) ([][]score.LabelScore, error) {
	c, err := l.Get()
	if err != nil {
		return nil, fmt.Errorf("classifier init: %w", err)
	}
	return c.Classify(ctx, chunks, batchSize)
}

var (
	sharedMu sync.Mutex
	shared   *Lazy
)

// Shared returns the process-wide classifier over cfg. The first call fixes
// the configuration; later calls get the same instance.
func Shared(cfg config.ClassifierConfig, logger zerolog.Logger) *Lazy {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == nil {
		shared = NewLazy(func() (Classifier, error) {
			return NewHTTPClassifier(cfg, logger)
		})
	}
	return shared
}
