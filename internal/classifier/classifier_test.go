package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mohammad-safakhou/toxscore/config"
	"github.com/mohammad-safakhou/toxscore/internal/score"
	"github.com/rs/zerolog"
)

// echoServer scores every input with its length so answers can be traced
// back to the chunk they belong to.
func echoServer(t *testing.T, batches *[][]string) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if string(raw["parameters"]) != `{"top_k":null}` {
			http.Error(w, "missing top_k", http.StatusBadRequest)
			return
		}
		var inputs []string
		_ = json.Unmarshal(raw["inputs"], &inputs)
		mu.Lock()
		*batches = append(*batches, inputs)
		mu.Unlock()

		out := make([][]score.LabelScore, len(inputs))
		for i, in := range inputs {
			out[i] = []score.LabelScore{
				{Label: "toxic", Score: float64(len(in)) / 100},
				{Label: "insult", Score: 0.01},
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, endpoint string) *HTTPClassifier {
	t.Helper()
	c, err := NewHTTPClassifier(config.ClassifierConfig{
		Endpoint: endpoint,
		APIToken: "secret",
		Timeout:  5 * time.Second,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHTTPClassifier: %v", err)
	}
	return c
}

func TestClassifyBatchesInOrder(t *testing.T) {
	var batches [][]string
	srv := echoServer(t, &batches)
	c := newClient(t, srv.URL)

	chunks := make([]string, 10)
	for i := range chunks {
		chunks[i] = strings.Repeat("a", i+1)
	}
	got, err := c.Classify(context.Background(), chunks, 4)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(got) != len(chunks) {
		t.Fatalf("results = %d, want %d", len(got), len(chunks))
	}
	for i, r := range got {
		if want := float64(i+1) / 100; r[0].Score != want {
			t.Fatalf("chunk %d toxic = %v, want %v", i, r[0].Score, want)
		}
	}
	sizes := make([]int, len(batches))
	for i, b := range batches {
		sizes[i] = len(b)
	}
	if fmt.Sprint(sizes) != "[4 4 2]" {
		t.Fatalf("batch sizes = %v, want [4 4 2]", sizes)
	}
}

func TestClassifyRejectsBadAnswers(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "short answer", status: 200, body: `[[{"label":"toxic","score":0.1}]]`, want: ErrBatchMismatch},
		{name: "score above one", status: 200, body: `[[{"label":"toxic","score":1.5}],[{"label":"toxic","score":0.1}]]`, want: ErrScoreRange},
		{name: "upstream error", status: 503, body: `{"error":"Model is currently loading"}`},
		{name: "garbage", status: 200, body: `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newClient(t, srv.URL).Classify(context.Background(), []string{"one chunk", "two chunk"}, 4)
			if err == nil {
				t.Fatalf("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeFlatSingleResult(t *testing.T) {
	got, err := decodeResults([]byte(`[{"label":"toxic","score":0.4}]`), 1)
	if err != nil {
		t.Fatalf("decodeResults: %v", err)
	}
	if len(got) != 1 || got[0][0].Label != "toxic" {
		t.Fatalf("got %+v", got)
	}
	if _, err := decodeResults([]byte(`[{"label":"toxic","score":0.4}]`), 2); err == nil {
		t.Fatalf("flat form must not satisfy a multi-input batch")
	}
}

func TestLazyBuildsOnce(t *testing.T) {
	var builds int32
	l := NewLazy(func() (Classifier, error) {
		atomic.AddInt32(&builds, 1)
		return &HTTPClassifier{}, nil
	})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Get(); err != nil {
				t.Errorf("Get: %v", err)
			}
		}()
	}
	wg.Wait()
	if builds != 1 {
		t.Fatalf("builds = %d, want 1", builds)
	}
}

func TestLazyKeepsBuildError(t *testing.T) {
	var builds int
	l := NewLazy(func() (Classifier, error) {
		builds++
		return nil, errors.New("no model")
	})
	for i := 0; i < 2; i++ {
		if _, err := l.Classify(context.Background(), []string{"x"}, 1); err == nil {
			t.Fatalf("expected init error")
		}
	}
	if builds != 1 {
		t.Fatalf("builds = %d, want 1", builds)
	}
}
