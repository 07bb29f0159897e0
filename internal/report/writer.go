package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/veridict/veridict/internal/dataset"
	"github.com/veridict/veridict/internal/domain"
	"go.uber.org/zap"
)

// Writer emits the artifacts of one evaluation run into a timestamped
// directory under its base dir: predictions.csv, summary.json and
// skipped.json.
type Writer struct {
	baseDir string
	logger  *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

func NewWriter(baseDir string, logger *zap.Logger) *Writer {
	return &Writer{baseDir: baseDir, logger: logger, now: time.Now}
}

var predictionsHeader = []string{
	"record_id", "dialog_id", "subject", "policy", "chosen_source",
	"answer", "confidence", "ground_truth", "scenario", "exact_match", "stale",
}

// Write creates the run directory and writes all artifacts. It returns the
// directory path.
func (w *Writer) Write(summaries []domain.PolicySummary, preds []domain.Prediction, skipped *dataset.SkipReport) (string, error) {
	runDir := filepath.Join(w.baseDir, w.now().Format("2006-01-02_150405"))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}

	if err := w.writePredictions(filepath.Join(runDir, "predictions.csv"), preds); err != nil {
		return "", err
	}
	if err := writeJSONFile(filepath.Join(runDir, "summary.json"), summaries); err != nil {
		return "", err
	}
	if err := writeJSONFile(filepath.Join(runDir, "skipped.json"), skippedPayload(skipped)); err != nil {
		return "", err
	}

	w.logger.Info("wrote run artifacts",
		zap.String("dir", runDir),
		zap.Int("predictions", len(preds)),
		zap.Int("skipped", skipped.Count()))
	return runDir, nil
}

func (w *Writer) writePredictions(path string, preds []domain.Prediction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create predictions file: %w", err)
	}
	defer func() { _ = f.Close() }()

	cw := csv.NewWriter(f)
	if err := cw.Write(predictionsHeader); err != nil {
		return fmt.Errorf("write predictions header: %w", err)
	}
	for _, p := range preds {
		row := []string{
			p.RecordID.String(),
			p.DialogID,
			p.Subject,
			p.Policy,
			string(p.ChosenSource),
			p.Answer,
			strconv.FormatFloat(p.Confidence, 'f', -1, 64),
			p.GroundTruth,
			string(p.Scenario),
			strconv.FormatBool(p.ExactMatch),
			strconv.FormatBool(p.Stale),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write prediction row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

type skippedFile struct {
	Count int                  `json:"count"`
	Rows  []dataset.SkippedRow `json:"rows"`
}

func skippedPayload(skipped *dataset.SkipReport) skippedFile {
	payload := skippedFile{Count: skipped.Count(), Rows: skipped.Rows}
	if payload.Rows == nil {
		payload.Rows = []dataset.SkippedRow{}
	}
	return payload
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
