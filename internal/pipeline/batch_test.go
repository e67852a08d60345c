package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oukeidos/nyamanga/internal/apperrors"
	"github.com/oukeidos/nyamanga/internal/embedder"
	"github.com/oukeidos/nyamanga/internal/openai"
)

// concurrencyEmbedder tracks how many AutoLocalize calls overlap.
type concurrencyEmbedder struct {
	stubEmbedder
	active, peak atomic.Int32
	failFor      string
	delay        time.Duration
}

func (c *concurrencyEmbedder) AutoLocalize(ctx context.Context, path string, opts embedder.AutoOptions) (*embedder.EmbedResult, error) {
	n := c.active.Add(1)
	defer c.active.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	select {
	case <-time.After(c.delay):
	case <-ctx.Done():
		return nil, apperrors.FromContext(ctx.Err())
	}
	if filepath.Base(path) == c.failFor {
		return nil, apperrors.New(apperrors.KindBadRequest, "API request failed (400): bad panel", nil)
	}
	return &embedder.EmbedResult{ImageB64: base64.StdEncoding.EncodeToString([]byte("OUT:" + filepath.Base(path))), RawResponse: openai.Response{}}, nil
}

func TestLocalizeBatch_ConcurrencyAndFailures(t *testing.T) {
	dir := realTempDir(t)
	var images []string
	for _, name := range []string{"a.png", "b.png", "c.png", "d.png", "e.png"} {
		images = append(images, writeImage(t, dir, name))
	}
	stub := &concurrencyEmbedder{failFor: "c.png", delay: 20 * time.Millisecond}
	p := newStubPipeline(t, stub)

	var mu sync.Mutex
	states := map[BatchState]int{}
	summary := p.LocalizeBatch(context.Background(), images, PanelRequest{TargetLanguage: "en"}, BatchOptions{
		Concurrency: 2,
		OnProgress: func(pr BatchProgress) {
			mu.Lock()
			states[pr.State]++
			mu.Unlock()
			if pr.Total != 5 {
				t.Errorf("Total = %d", pr.Total)
			}
		},
	})

	if summary.Total() != 5 || summary.Succeeded != 4 || summary.Failed != 1 || summary.Canceled != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if peak := stub.peak.Load(); peak > 2 {
		t.Fatalf("peak concurrency %d exceeds limit", peak)
	}
	if states[BatchStarted] != 5 || states[BatchCompleted] != 4 || states[BatchFailed] != 1 {
		t.Fatalf("progress states = %v", states)
	}
	for _, it := range summary.Items {
		if filepath.Base(it.ImagePath) == "c.png" {
			if it.State != BatchFailed || it.Err == nil || it.OutputPath != "" {
				t.Fatalf("failed item = %+v", it)
			}
			continue
		}
		want := "OUT:" + filepath.Base(it.ImagePath)
		data, err := os.ReadFile(it.OutputPath)
		if err != nil || string(data) != want {
			t.Fatalf("%s: output %q = %q, %v", it.ImagePath, it.OutputPath, data, err)
		}
		if filepath.Base(it.OutputPath) != filepath.Base(it.ImagePath[:len(it.ImagePath)-4])+"_localized.png" {
			t.Fatalf("output name = %q", it.OutputPath)
		}
	}
}

func TestLocalizeBatch_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	images := []string{writeImage(t, dir, "a.png"), writeImage(t, dir, "b.png")}
	stub := &concurrencyEmbedder{delay: time.Second}
	p := newStubPipeline(t, stub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary := p.LocalizeBatch(ctx, images, PanelRequest{}, BatchOptions{})
	if summary.Canceled != 2 || summary.Succeeded != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	for _, it := range summary.Items {
		if !apperrors.IsCanceled(it.Err) {
			t.Fatalf("item error = %v", it.Err)
		}
	}
}

func TestLocalizeBatch_OutputForError(t *testing.T) {
	dir := t.TempDir()
	images := []string{writeImage(t, dir, "a.png")}
	p := newStubPipeline(t, &concurrencyEmbedder{})
	boom := errors.New("no space")

	summary := p.LocalizeBatch(context.Background(), images, PanelRequest{}, BatchOptions{
		OutputFor: func(string) (string, error) { return "", boom },
	})
	if summary.Failed != 1 || !errors.Is(summary.Items[0].Err, boom) {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Items[0].Result == nil {
		t.Fatal("result should be kept even when saving fails")
	}
}

func TestBatchOptions_Normalize(t *testing.T) {
	tests := []struct {
		in, want int
		notes    int
	}{
		{0, DefaultConcurrency, 0},
		{3, 3, 0},
		{-1, MinConcurrency, 1},
		{50, MaxConcurrency, 1},
	}
	for _, tt := range tests {
		got, notes := BatchOptions{Concurrency: tt.in}.Normalize()
		if got.Concurrency != tt.want || len(notes) != tt.notes {
			t.Errorf("Normalize(%d) = %d, notes %v", tt.in, got.Concurrency, notes)
		}
	}
}

func TestPanelRequest_Normalize(t *testing.T) {
	req, notes := PanelRequest{ImagePath: " p.png ", SourceText: "  "}.Normalize()
	if req.ImagePath != "p.png" || req.TargetLanguage != embedder.DefaultTargetLanguage || req.Tone != embedder.DefaultTone {
		t.Fatalf("Normalize() = %+v", req)
	}
	if len(notes) != 1 {
		t.Fatalf("notes = %v", notes)
	}
	if req.Mode() != ModeAuto {
		t.Fatalf("blank source text should select auto mode")
	}
	if (PanelRequest{SourceText: "hi"}).Mode() != ModeTwoStep {
		t.Fatalf("source text should select two-step mode")
	}
}
