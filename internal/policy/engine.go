package policy

import (
	"math"

	"github.com/veridict/veridict/internal/domain"
)

// Policy names accepted by Decide.
const (
	PolicyRAGOnly = "rag_only"
	PolicyMemOnly = "mem_only"
	PolicyRule    = "rule"
	PolicyCons    = "cons"
)

// Names returns the selectable policy names in evaluation order.
func Names() []string {
	return []string{PolicyRAGOnly, PolicyMemOnly, PolicyRule, PolicyCons}
}

// Known reports whether name is a selectable policy.
func Known(name string) bool {
	switch name {
	case PolicyRAGOnly, PolicyMemOnly, PolicyRule, PolicyCons:
		return true
	}
	return false
}

// Params are the scoring constants shared by the rule and cons policies.
type Params struct {
	// RecencyDiscount weights a memory that is not strictly newer than the
	// retrieved fact. Discounted, not zeroed: an older memory could still be
	// a stale correction.
	RecencyDiscount float64

	// DecisionThreshold is the memory score above which rule trusts memory.
	// At exactly the threshold, retrieval wins.
	DecisionThreshold float64

	// AbstainLow and AbstainHigh bound the inclusive abstention band for the
	// cons policy.
	AbstainLow  float64
	AbstainHigh float64
}

func DefaultParams() Params {
	return Params{
		RecencyDiscount:   0.3,
		DecisionThreshold: 0.5,
		AbstainLow:        0.4,
		AbstainHigh:       0.6,
	}
}

// Engine applies decision policies to conflict records. All policies are
// deterministic and side-effect free: the same record and policy name always
// yield the identical verdict.
type Engine struct {
	params Params
}

func NewEngine(params Params) *Engine {
	return &Engine{params: params}
}

// Decide applies the named policy to the record. It returns
// UnknownPolicyError when the name is not one of the four policies.
func (e *Engine) Decide(rec domain.ConflictRecord, name string) (domain.PolicyVerdict, error) {
	switch name {
	case PolicyRAGOnly:
		return e.ragOnly(rec), nil
	case PolicyMemOnly:
		return e.memOnly(rec), nil
	case PolicyRule:
		return e.rule(rec), nil
	case PolicyCons:
		return e.conservative(rec), nil
	}
	return domain.PolicyVerdict{}, &domain.UnknownPolicyError{Name: name}
}

// MemoryScore computes the weighted evidence score for the memory candidate:
// reliability times a recency weight. The weight is 1.0 when the memory is
// strictly newer than the fact (or the fact carries no timestamp, which is
// treated as oldest), and RecencyDiscount otherwise. No memory text means
// score zero.
func (e *Engine) MemoryScore(rec domain.ConflictRecord) float64 {
	if !rec.HasMemory() {
		return 0
	}
	w := e.params.RecencyDiscount
	if rec.FactTimestamp == nil {
		w = 1.0
	} else if rec.MemoryTimestamp != nil && rec.MemoryTimestamp.After(*rec.FactTimestamp) {
		w = 1.0
	}
	return clamp(rec.Reliability) * w
}

func (e *Engine) ragOnly(rec domain.ConflictRecord) domain.PolicyVerdict {
	return domain.PolicyVerdict{
		ChosenSource: domain.SourceRetrieval,
		AnswerText:   rec.FactText,
		Confidence:   1.0,
	}
}

func (e *Engine) memOnly(rec domain.ConflictRecord) domain.PolicyVerdict {
	// A policy never emits an empty answer: no memory means retrieval.
	if !rec.HasMemory() {
		return e.ragOnly(rec)
	}
	return domain.PolicyVerdict{
		ChosenSource: domain.SourceMemory,
		AnswerText:   rec.MemoryText,
		Confidence:   clamp(rec.Reliability),
	}
}

func (e *Engine) rule(rec domain.ConflictRecord) domain.PolicyVerdict {
	s := e.MemoryScore(rec)
	confidence := clamp(math.Max(s, 1-s))
	if s > e.params.DecisionThreshold {
		return domain.PolicyVerdict{
			ChosenSource: domain.SourceMemory,
			AnswerText:   rec.MemoryText,
			Confidence:   confidence,
		}
	}
	return domain.PolicyVerdict{
		ChosenSource: domain.SourceRetrieval,
		AnswerText:   rec.FactText,
		Confidence:   confidence,
	}
}

func (e *Engine) conservative(rec domain.ConflictRecord) domain.PolicyVerdict {
	s := e.MemoryScore(rec)
	if s >= e.params.AbstainLow && s <= e.params.AbstainHigh {
		// Confidence in the abstention grows with distance from total
		// ambivalence: zero at the band midpoint.
		mid := (e.params.AbstainLow + e.params.AbstainHigh) / 2
		return domain.PolicyVerdict{
			ChosenSource: domain.SourceAbstain,
			AnswerText:   domain.AbstainMarker,
			Confidence:   clamp(math.Abs(s-mid) * 2),
		}
	}
	return e.rule(rec)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
