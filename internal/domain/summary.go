package domain

import "github.com/google/uuid"

// RateSet holds the three evaluation rates over a set of predictions.
type RateSet struct {
	N              int     `json:"n"`
	ExactMatchRate float64 `json:"exact_match_rate"`
	StaleRate      float64 `json:"stale_rate"`
	AbstentionRate float64 `json:"abstention_rate"`
}

// PolicySummary is the aggregate result of one policy over a record set,
// overall and broken down by scenario.
type PolicySummary struct {
	Policy     string               `json:"policy"`
	Overall    RateSet              `json:"overall"`
	ByScenario map[Scenario]RateSet `json:"by_scenario"`
}

// Prediction is one scored verdict, suitable for row-oriented output.
type Prediction struct {
	RecordID     uuid.UUID `json:"record_id"`
	DialogID     string    `json:"dialog_id"`
	Subject      string    `json:"subject"`
	Policy       string    `json:"policy"`
	ChosenSource Source    `json:"chosen_source"`
	Answer       string    `json:"answer"`
	Confidence   float64   `json:"confidence"`
	GroundTruth  string    `json:"ground_truth"`
	Scenario     Scenario  `json:"scenario"`
	ExactMatch   bool      `json:"exact_match"`
	Stale        bool      `json:"stale"`
}
