package dataset

import (
	"github.com/google/uuid"
	"github.com/veridict/veridict/internal/domain"
	"go.uber.org/zap"
)

// recordNamespace makes record IDs a deterministic function of the dialog
// ID, so repeated runs over the same dataset produce identical artifacts.
var recordNamespace = uuid.MustParse("9f1c6f52-7c30-4a88-b4f1-2a4f5c3d8e01")

// SkippedRow names one input row that was dropped and why. Skips are always
// reported alongside the final summary so data loss is never silent.
type SkippedRow struct {
	RowID  string `json:"row_id"`
	Reason string `json:"reason"`
}

// SkipReport collects skipped rows across loading and building.
type SkipReport struct {
	Rows []SkippedRow `json:"rows"`
}

func (r *SkipReport) Append(rows ...SkippedRow) {
	r.Rows = append(r.Rows, rows...)
}

func (r *SkipReport) Count() int {
	return len(r.Rows)
}

// Builder joins document rows with dialogue rows into conflict records.
type Builder struct {
	logger *zap.Logger
}

func NewBuilder(logger *zap.Logger) *Builder {
	return &Builder{logger: logger}
}

// Build matches each dialogue to its document by subject and produces one
// ConflictRecord per matched pair. Malformed rows are logged, counted in the
// report, and skipped; they never abort the batch.
func (b *Builder) Build(docs []DocumentRow, dialogues []DialogueRow) ([]domain.ConflictRecord, *SkipReport) {
	report := &SkipReport{}

	index := make(map[string]DocumentRow, len(docs))
	for _, doc := range docs {
		if doc.Subject == "" {
			b.skip(report, doc.DocID, &domain.MalformedRecordError{
				RowID: doc.DocID, Field: "subject", Reason: "missing join key",
			})
			continue
		}
		if _, dup := index[doc.Subject]; dup {
			// One document per subject; first row wins like the source data.
			b.logger.Warn("duplicate document for subject, keeping first",
				zap.String("subject", doc.Subject),
				zap.String("doc_id", doc.DocID))
			continue
		}
		index[doc.Subject] = doc
	}

	records := make([]domain.ConflictRecord, 0, len(dialogues))
	for _, dlg := range dialogues {
		doc, ok := index[dlg.Subject]
		if !ok {
			b.skip(report, dlg.DialogID, &domain.MalformedRecordError{
				RowID: dlg.DialogID, Field: "subject", Reason: "no document matches identifier",
			})
			continue
		}
		rec, err := b.BuildOne(doc, dlg)
		if err != nil {
			b.skip(report, dlg.DialogID, err)
			continue
		}
		records = append(records, rec)
	}

	return records, report
}

// BuildOne combines one document row and its matching dialogue row into a
// normalized ConflictRecord. It returns MalformedRecordError when a required
// field is missing. Pure transformation, no side effects.
func (b *Builder) BuildOne(doc DocumentRow, dlg DialogueRow) (domain.ConflictRecord, error) {
	if doc.FactText == "" {
		return domain.ConflictRecord{}, &domain.MalformedRecordError{
			RowID: dlg.DialogID, Field: "fact_text", Reason: "required field is empty",
		}
	}
	if dlg.GroundTruth == "" {
		return domain.ConflictRecord{}, &domain.MalformedRecordError{
			RowID: dlg.DialogID, Field: "ground_truth", Reason: "required field is empty",
		}
	}

	rec := domain.ConflictRecord{
		ID:            uuid.NewSHA1(recordNamespace, []byte(dlg.DialogID)),
		DialogID:      dlg.DialogID,
		Subject:       dlg.Subject,
		FactText:      doc.FactText,
		FactTimestamp: doc.FactTimestamp,
		Question:      dlg.Question,
		GroundTruth:   dlg.GroundTruth,
		Scenario:      b.scenario(dlg),
	}

	if dlg.Update != nil && dlg.Update.Text != "" {
		rec.MemoryText = dlg.Update.Text
		rec.MemoryTimestamp = ParseTimestamp(dlg.Update.Timestamp)
		if rec.MemoryTimestamp == nil {
			// The extraction pipeline sometimes omits the update timestamp;
			// fall back to the last date mentioned in the dialogue itself.
			rec.MemoryTimestamp = LatestMentionedDate(dlg.Turns)
		}
		rec.Reliability = clampReliability(dlg.DialogID, dlg.Update.Reliability, b.logger)
	}

	return rec, nil
}

func (b *Builder) scenario(dlg DialogueRow) domain.Scenario {
	if domain.ValidScenario(dlg.Scenario) {
		return domain.Scenario(dlg.Scenario)
	}
	if dlg.Scenario != "" {
		b.logger.Warn("unrecognized scenario tag",
			zap.String("dialog_id", dlg.DialogID),
			zap.String("scenario", dlg.Scenario))
	}
	return domain.ScenarioUnknown
}

func (b *Builder) skip(report *SkipReport, rowID string, err error) {
	b.logger.Warn("skipping malformed record",
		zap.String("row_id", rowID),
		zap.Error(err))
	report.Append(SkippedRow{RowID: rowID, Reason: err.Error()})
}

func clampReliability(dialogID string, v float64, logger *zap.Logger) float64 {
	if v < 0 || v > 1 {
		logger.Warn("reliability outside [0,1], clamping",
			zap.String("dialog_id", dialogID),
			zap.Float64("reliability", v))
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
