package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veridict/veridict/internal/dataset"
	"github.com/veridict/veridict/internal/domain"
	"go.uber.org/zap"
)

func TestWriter_Write(t *testing.T) {
	base := t.TempDir()
	w := NewWriter(base, zap.NewNop())
	w.now = func() time.Time {
		return time.Date(2025, 8, 25, 10, 30, 0, 0, time.UTC)
	}

	summaries := []domain.PolicySummary{
		{
			Policy:  "rule",
			Overall: domain.RateSet{N: 2, ExactMatchRate: 0.5, StaleRate: 0.5},
			ByScenario: map[domain.Scenario]domain.RateSet{
				domain.ScenarioMemTrueRAGStale: {N: 1, StaleRate: 1},
			},
		},
	}
	preds := []domain.Prediction{
		{
			RecordID:     uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
			DialogID:     "d1",
			Subject:      "algorithms",
			Policy:       "rule",
			ChosenSource: domain.SourceRetrieval,
			Answer:       "2025-03-01",
			Confidence:   0.73,
			GroundTruth:  "2025-04-15",
			Scenario:     domain.ScenarioMemTrueRAGStale,
			Stale:        true,
		},
	}
	skipped := &dataset.SkipReport{}
	skipped.Append(dataset.SkippedRow{RowID: "d9", Reason: "no document matches identifier"})

	runDir, err := w.Write(summaries, preds, skipped)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "2025-08-25_103000"), runDir)

	f, err := os.Open(filepath.Join(runDir, "predictions.csv"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, predictionsHeader, rows[0])
	assert.Equal(t, "d1", rows[1][1])
	assert.Equal(t, "retrieval", rows[1][4])
	assert.Equal(t, "0.73", rows[1][6])
	assert.Equal(t, "true", rows[1][10])

	var gotSummaries []domain.PolicySummary
	data, err := os.ReadFile(filepath.Join(runDir, "summary.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &gotSummaries))
	require.Len(t, gotSummaries, 1)
	assert.Equal(t, summaries[0].Overall, gotSummaries[0].Overall)

	var gotSkipped skippedFile
	data, err = os.ReadFile(filepath.Join(runDir, "skipped.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &gotSkipped))
	assert.Equal(t, 1, gotSkipped.Count)
	require.Len(t, gotSkipped.Rows, 1)
	assert.Equal(t, "d9", gotSkipped.Rows[0].RowID)
}

func TestWriter_Write_EmptySkips(t *testing.T) {
	w := NewWriter(t.TempDir(), zap.NewNop())

	runDir, err := w.Write(nil, nil, &dataset.SkipReport{})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(runDir, "skipped.json"))
	require.NoError(t, err)
	var got skippedFile
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 0, got.Count)
	assert.NotNil(t, got.Rows)
}
