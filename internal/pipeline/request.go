package pipeline

import (
	"fmt"
	"strings"

	"github.com/oukeidos/nyamanga/internal/apperrors"
	"github.com/oukeidos/nyamanga/internal/embedder"
)

// Mode is how a panel was localized.
type Mode string

const (
	// ModeTwoStep rewrites the given dialogue, then typesets it.
	ModeTwoStep Mode = "two-step"
	// ModeAuto lets the image model read and translate the panel itself.
	ModeAuto Mode = "auto"
)

// PanelRequest describes one panel. An empty SourceText selects ModeAuto.
type PanelRequest struct {
	ImagePath      string
	SourceText     string
	TargetLanguage string
	Tone           string
	BubbleHint     string
	MaskPath       string
	StyleHint      string
}

// Mode reports which path LocalizePanel will take.
func (r PanelRequest) Mode() Mode {
	if strings.TrimSpace(r.SourceText) == "" {
		return ModeAuto
	}
	return ModeTwoStep
}

// Normalize trims fields and applies default language and tone.
func (r PanelRequest) Normalize() (PanelRequest, []string) {
	var notes []string
	r.ImagePath = strings.TrimSpace(r.ImagePath)
	r.MaskPath = strings.TrimSpace(r.MaskPath)
	r.SourceText = strings.TrimSpace(r.SourceText)
	r.BubbleHint = strings.TrimSpace(r.BubbleHint)
	r.StyleHint = strings.TrimSpace(r.StyleHint)
	if r.TargetLanguage = strings.TrimSpace(r.TargetLanguage); r.TargetLanguage == "" {
		r.TargetLanguage = embedder.DefaultTargetLanguage
		notes = append(notes, "target language not set, using "+embedder.DefaultTargetLanguage)
	}
	if r.Tone = strings.TrimSpace(r.Tone); r.Tone == "" {
		r.Tone = embedder.DefaultTone
	}
	return r, notes
}

// Validate checks the request before any API call.
func (r PanelRequest) Validate() error {
	if strings.TrimSpace(r.ImagePath) == "" {
		return apperrors.New(apperrors.KindIO, "No image selected.", fmt.Errorf("image path is required"))
	}
	return nil
}

const (
	MinConcurrency     = 1
	MaxConcurrency     = 8
	DefaultConcurrency = 2
	DefaultQPS         = 1.0
)

// ClampConcurrency bounds value to [MinConcurrency, MaxConcurrency].
func ClampConcurrency(value int) (int, bool) {
	if value < MinConcurrency {
		return MinConcurrency, true
	}
	if value > MaxConcurrency {
		return MaxConcurrency, true
	}
	return value, false
}

// BatchOptions controls LocalizeBatch.
type BatchOptions struct {
	Concurrency int
	// QPS caps request starts per second. Zero or less disables the limit.
	QPS float64
	// OutputFor picks where each result is written. Nil means
	// panels.SafeOutputPath.
	OutputFor func(imagePath string) (string, error)
	// OnProgress is called from worker goroutines and must be safe for
	// concurrent use.
	OnProgress func(BatchProgress)
}

// Normalize clamps concurrency and reports adjustments.
func (o BatchOptions) Normalize() (BatchOptions, []string) {
	var notes []string
	if o.Concurrency == 0 {
		o.Concurrency = DefaultConcurrency
	}
	if clamped, changed := ClampConcurrency(o.Concurrency); changed {
		notes = append(notes, fmt.Sprintf("concurrency clamped from %d to %d (max %d)", o.Concurrency, clamped, MaxConcurrency))
		o.Concurrency = clamped
	}
	return o, notes
}
