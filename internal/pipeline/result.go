package pipeline

import (
	"github.com/oukeidos/nyamanga/internal/embedder"
	"github.com/oukeidos/nyamanga/internal/openai"
)

// PanelResult is the outcome of LocalizePanel. In ModeAuto RewrittenText is
// empty and DialogueResponse is an empty map.
type PanelResult struct {
	Mode             Mode
	RewrittenText    string
	EditedImageB64   string
	DialogueResponse openai.Response
	ImageResponse    openai.Response
}

// Decode returns the edited image bytes.
func (r *PanelResult) Decode() ([]byte, error) {
	return embedder.DecodeImage(r.EditedImageB64)
}

// Save writes the edited image to path.
func (r *PanelResult) Save(path string) error {
	return (&embedder.EmbedResult{ImageB64: r.EditedImageB64, RawResponse: r.ImageResponse}).Save(path)
}

// BatchState is a per-panel progress state.
type BatchState string

const (
	BatchStarted   BatchState = "started"
	BatchCompleted BatchState = "completed"
	BatchFailed    BatchState = "failed"
	BatchCanceled  BatchState = "canceled"
)

// BatchProgress reports one panel's state change.
type BatchProgress struct {
	Index     int
	Total     int
	ImagePath string
	State     BatchState
	Err       error
}

// BatchItem is one panel's outcome.
type BatchItem struct {
	ImagePath  string
	OutputPath string
	Result     *PanelResult
	State      BatchState
	Err        error
}

// BatchSummary collects LocalizeBatch outcomes in input order.
type BatchSummary struct {
	Items     []BatchItem
	Succeeded int
	Failed    int
	Canceled  int
}

// Total is the number of panels requested.
func (s BatchSummary) Total() int { return len(s.Items) }
