package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Run records one evaluation batch persisted for later inspection.
type Run struct {
	ID           uuid.UUID `json:"id"`
	DocsPath     string    `json:"docs_path"`
	DialogsPath  string    `json:"dialogs_path"`
	RecordCount  int       `json:"record_count"`
	SkippedCount int       `json:"skipped_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// RecordWithScore is a stored conflict record plus its similarity to a
// query embedding.
type RecordWithScore struct {
	ConflictRecord
	Similarity float64 `json:"similarity"`
}

// RunStore persists evaluation runs and their artifacts.
type RunStore interface {
	CreateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	SaveRecords(ctx context.Context, runID uuid.UUID, records []ConflictRecord, embeddings [][]float32) error
	SavePredictions(ctx context.Context, runID uuid.UUID, preds []Prediction) error
	SaveSummaries(ctx context.Context, runID uuid.UUID, summaries []PolicySummary) error
	GetSummaries(ctx context.Context, runID uuid.UUID) ([]PolicySummary, error)
	GetPredictions(ctx context.Context, runID uuid.UUID, policy string) ([]Prediction, error)
	SimilarRecords(ctx context.Context, embedding []float32, limit int) ([]RecordWithScore, error)
}

// EmbeddingClient produces a vector embedding for a piece of text.
// Embeddings are used only for similarity lookup over stored records;
// they never feed a decision policy.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
