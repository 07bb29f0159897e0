package dataset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veridict/veridict/internal/domain"
	"go.uber.org/zap"
)

func doc(subject, factText, ts string) DocumentRow {
	return DocumentRow{
		DocID:         "doc-" + subject,
		Subject:       subject,
		FactText:      factText,
		FactTimestamp: ParseTimestamp(ts),
	}
}

func dialogue(id, subject, gt string, update *MemoryUpdate) DialogueRow {
	return DialogueRow{
		DialogID:    id,
		Subject:     subject,
		Question:    "When is the deadline?",
		GroundTruth: gt,
		Scenario:    string(domain.ScenarioMemTrueRAGStale),
		Update:      update,
	}
}

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder(zap.NewNop())

	docs := []DocumentRow{
		doc("algorithms", "2025-03-01", "2025-01-10"),
		doc("databases", "2025-03-05", "2025-01-12"),
	}
	dialogues := []DialogueRow{
		dialogue("d1", "algorithms", "2025-04-15", &MemoryUpdate{
			Text: "2025-04-15", Timestamp: "2025-02-01", Reliability: 0.9,
		}),
		dialogue("d2", "databases", "2025-03-05", nil),
	}

	records, report := b.Build(docs, dialogues)
	require.Len(t, records, 2)
	assert.Equal(t, 0, report.Count())

	withMemory := records[0]
	assert.Equal(t, "d1", withMemory.DialogID)
	assert.Equal(t, "2025-03-01", withMemory.FactText)
	assert.Equal(t, "2025-04-15", withMemory.MemoryText)
	require.NotNil(t, withMemory.MemoryTimestamp)
	assert.Equal(t, 0.9, withMemory.Reliability)
	assert.Equal(t, domain.ScenarioMemTrueRAGStale, withMemory.Scenario)

	noMemory := records[1]
	assert.False(t, noMemory.HasMemory())
	assert.Nil(t, noMemory.MemoryTimestamp)
	assert.Equal(t, 0.0, noMemory.Reliability)
}

func TestBuilder_Build_DeterministicIDs(t *testing.T) {
	b := NewBuilder(zap.NewNop())

	docs := []DocumentRow{doc("algorithms", "2025-03-01", "2025-01-10")}
	dialogues := []DialogueRow{dialogue("d1", "algorithms", "2025-04-15", nil)}

	first, _ := b.Build(docs, dialogues)
	second, _ := b.Build(docs, dialogues)
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestBuilder_Build_SkipsMalformedRows(t *testing.T) {
	b := NewBuilder(zap.NewNop())

	docs := []DocumentRow{
		doc("algorithms", "2025-03-01", "2025-01-10"),
		doc("networks", "", "2025-01-10"), // empty fact text
	}
	dialogues := []DialogueRow{
		dialogue("d1", "algorithms", "2025-04-15", nil),
		dialogue("d2", "nonexistent", "2025-04-15", nil), // unmatched subject
		dialogue("d3", "algorithms", "", nil),            // missing ground truth
		dialogue("d4", "networks", "2025-04-15", nil),    // doc without fact text
	}

	records, report := b.Build(docs, dialogues)
	assert.Len(t, records, 1)
	assert.Equal(t, 3, report.Count())

	reasons := map[string]string{}
	for _, row := range report.Rows {
		reasons[row.RowID] = row.Reason
	}
	assert.Contains(t, reasons["d2"], "no document matches")
	assert.Contains(t, reasons["d3"], "ground_truth")
	assert.Contains(t, reasons["d4"], "fact_text")
}

func TestBuilder_BuildOne_MalformedRecordError(t *testing.T) {
	b := NewBuilder(zap.NewNop())

	_, err := b.BuildOne(doc("algorithms", "", ""), dialogue("d1", "algorithms", "x", nil))
	require.Error(t, err)

	var mre *domain.MalformedRecordError
	require.True(t, errors.As(err, &mre))
	assert.Equal(t, "fact_text", mre.Field)
	assert.Equal(t, "d1", mre.RowID)
}

func TestBuilder_BuildOne_TimestampFromTurns(t *testing.T) {
	b := NewBuilder(zap.NewNop())

	dlg := dialogue("d1", "algorithms", "2025-04-15", &MemoryUpdate{
		Text: "2025-04-15", Reliability: 0.8, // no explicit timestamp
	})
	dlg.Turns = []Turn{
		{Role: "user", Text: "Is the deadline still 2025-03-01?"},
		{Role: "assistant", Text: "It moved to April 15, 2025."},
	}

	rec, err := b.BuildOne(doc("algorithms", "2025-03-01", "2025-01-10"), dlg)
	require.NoError(t, err)
	require.NotNil(t, rec.MemoryTimestamp)
	assert.Equal(t, "2025-04-15", rec.MemoryTimestamp.Format("2006-01-02"))
}

func TestBuilder_BuildOne_ClampsReliability(t *testing.T) {
	b := NewBuilder(zap.NewNop())

	dlg := dialogue("d1", "algorithms", "2025-04-15", &MemoryUpdate{
		Text: "2025-04-15", Timestamp: "2025-02-01", Reliability: 1.7,
	})
	rec, err := b.BuildOne(doc("algorithms", "2025-03-01", "2025-01-10"), dlg)
	require.NoError(t, err)
	assert.Equal(t, 1.0, rec.Reliability)
}
