package metrics

import (
	"strings"

	"github.com/veridict/veridict/internal/domain"
	"github.com/veridict/veridict/internal/policy"
)

// Aggregator runs the decision engine over a record set and reduces the
// verdicts to rates. The reduction is order-independent and has no state, so
// repeated runs over the same inputs are bit-identical.
type Aggregator struct {
	engine *policy.Engine
}

func NewAggregator(engine *policy.Engine) *Aggregator {
	return &Aggregator{engine: engine}
}

// Aggregate evaluates every record under one policy. It returns the summary
// plus the scored per-record predictions, or UnknownPolicyError when the
// policy name is invalid.
func (a *Aggregator) Aggregate(records []domain.ConflictRecord, policyName string) (*domain.PolicySummary, []domain.Prediction, error) {
	preds := make([]domain.Prediction, 0, len(records))
	for _, rec := range records {
		verdict, err := a.engine.Decide(rec, policyName)
		if err != nil {
			return nil, nil, err
		}
		preds = append(preds, domain.Prediction{
			RecordID:     rec.ID,
			DialogID:     rec.DialogID,
			Subject:      rec.Subject,
			Policy:       policyName,
			ChosenSource: verdict.ChosenSource,
			Answer:       verdict.AnswerText,
			Confidence:   verdict.Confidence,
			GroundTruth:  rec.GroundTruth,
			Scenario:     rec.Scenario,
			ExactMatch:   verdict.ChosenSource != domain.SourceAbstain && AnswersMatch(verdict.AnswerText, rec.GroundTruth),
			Stale:        verdict.ChosenSource == domain.SourceRetrieval && rec.Scenario == domain.ScenarioMemTrueRAGStale,
		})
	}

	summary := &domain.PolicySummary{
		Policy:     policyName,
		Overall:    rates(preds),
		ByScenario: make(map[domain.Scenario]domain.RateSet),
	}
	for _, sc := range domain.Scenarios() {
		var subset []domain.Prediction
		for _, p := range preds {
			if p.Scenario == sc {
				subset = append(subset, p)
			}
		}
		if len(subset) > 0 {
			summary.ByScenario[sc] = rates(subset)
		}
	}

	return summary, preds, nil
}

// AnswersMatch compares answer text against ground truth with
// case-insensitive, whitespace-normalized equality.
func AnswersMatch(answer, truth string) bool {
	return normalize(answer) == normalize(truth)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func rates(preds []domain.Prediction) domain.RateSet {
	rs := domain.RateSet{N: len(preds)}
	if rs.N == 0 {
		return rs
	}
	var matched, stale, abstained int
	for _, p := range preds {
		if p.ExactMatch {
			matched++
		}
		if p.Stale {
			stale++
		}
		if p.ChosenSource == domain.SourceAbstain {
			abstained++
		}
	}
	n := float64(rs.N)
	rs.ExactMatchRate = float64(matched) / n
	rs.StaleRate = float64(stale) / n
	rs.AbstentionRate = float64(abstained) / n
	return rs
}
