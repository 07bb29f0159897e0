package domain

import (
	"time"

	"github.com/google/uuid"
)

// Scenario tags the kind of conflict a record represents. It is used only
// for stratified scoring and reporting, never as policy input.
type Scenario string

const (
	ScenarioMemTrueRAGStale Scenario = "MemTrue_RAGStale"
	ScenarioRAGTrueMemRumor Scenario = "RAGTrue_MemRumor"
	ScenarioUnknown         Scenario = "Unknown"
	ScenarioEdge            Scenario = "Edge"
)

func ValidScenario(s string) bool {
	switch Scenario(s) {
	case ScenarioMemTrueRAGStale, ScenarioRAGTrueMemRumor, ScenarioUnknown, ScenarioEdge:
		return true
	}
	return false
}

// Scenarios returns all scenario tags in reporting order.
func Scenarios() []Scenario {
	return []Scenario{ScenarioMemTrueRAGStale, ScenarioRAGTrueMemRumor, ScenarioUnknown, ScenarioEdge}
}

// Source identifies which information source a verdict committed to.
type Source string

const (
	SourceRetrieval Source = "retrieval"
	SourceMemory    Source = "memory"
	SourceAbstain   Source = "abstain"
)

// AbstainMarker is the fixed answer text emitted when a policy refuses to
// commit to either source.
const AbstainMarker = "unknown"

// ConflictRecord pairs a retrieved document claim with a dialogue-derived
// memory claim about the same subject. Records are built once at load time
// and read-only thereafter.
//
// GroundTruth and Scenario are scoring-only fields: a policy must be a pure
// function of the fact/memory fields and never reads them.
type ConflictRecord struct {
	ID              uuid.UUID  `json:"id"`
	DialogID        string     `json:"dialog_id"`
	Subject         string     `json:"subject"`
	FactText        string     `json:"fact_text"`
	FactTimestamp   *time.Time `json:"fact_timestamp,omitempty"`
	MemoryText      string     `json:"memory_text,omitempty"`
	MemoryTimestamp *time.Time `json:"memory_timestamp,omitempty"`
	Reliability     float64    `json:"reliability"`
	Question        string     `json:"question,omitempty"`

	GroundTruth string   `json:"ground_truth"`
	Scenario    Scenario `json:"scenario"`
}

// HasMemory reports whether a memory candidate competes with retrieval.
func (r *ConflictRecord) HasMemory() bool {
	return r.MemoryText != ""
}

// PolicyVerdict is the output of applying one policy to one record.
type PolicyVerdict struct {
	ChosenSource Source  `json:"chosen_source"`
	AnswerText   string  `json:"answer_text"`
	Confidence   float64 `json:"confidence"`
}
