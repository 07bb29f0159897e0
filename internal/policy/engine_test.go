package policy

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/veridict/veridict/internal/domain"
)

func ts(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func record(factTS, memTS *time.Time, memText string, reliability float64) domain.ConflictRecord {
	return domain.ConflictRecord{
		DialogID:        "d1",
		Subject:         "algorithms",
		FactText:        "2025-03-01",
		FactTimestamp:   factTS,
		MemoryText:      memText,
		MemoryTimestamp: memTS,
		Reliability:     reliability,
	}
}

func TestDecide_RAGOnly(t *testing.T) {
	e := NewEngine(DefaultParams())

	records := []domain.ConflictRecord{
		record(ts("2025-03-01"), ts("2025-04-01"), "2025-04-15", 0.9),
		record(nil, nil, "", 0),
		record(ts("2025-03-01"), nil, "2025-04-15", 1.0),
	}
	for _, rec := range records {
		v, err := e.Decide(rec, PolicyRAGOnly)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.ChosenSource != domain.SourceRetrieval {
			t.Errorf("chosen_source = %s, want retrieval", v.ChosenSource)
		}
		if v.AnswerText != rec.FactText {
			t.Errorf("answer = %q, want fact text %q", v.AnswerText, rec.FactText)
		}
		if v.Confidence != 1.0 {
			t.Errorf("confidence = %f, want 1.0", v.Confidence)
		}
	}
}

func TestDecide_MemOnly(t *testing.T) {
	e := NewEngine(DefaultParams())

	rec := record(ts("2025-03-01"), ts("2025-04-01"), "2025-04-15", 0.7)
	v, err := e.Decide(rec, PolicyMemOnly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.ChosenSource != domain.SourceMemory {
		t.Errorf("chosen_source = %s, want memory", v.ChosenSource)
	}
	if v.AnswerText != "2025-04-15" {
		t.Errorf("answer = %q, want memory text", v.AnswerText)
	}
	if v.Confidence != 0.7 {
		t.Errorf("confidence = %f, want reliability 0.7", v.Confidence)
	}
}

func TestDecide_MemOnly_EmptyMemoryFallsBack(t *testing.T) {
	e := NewEngine(DefaultParams())

	rec := record(ts("2025-03-01"), nil, "", 0)
	v, err := e.Decide(rec, PolicyMemOnly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.ChosenSource != domain.SourceRetrieval {
		t.Errorf("chosen_source = %s, want retrieval fallback", v.ChosenSource)
	}
	if v.Confidence != 1.0 {
		t.Errorf("confidence = %f, want 1.0", v.Confidence)
	}
}

func TestMemoryScore(t *testing.T) {
	e := NewEngine(DefaultParams())

	tests := []struct {
		name string
		rec  domain.ConflictRecord
		want float64
	}{
		{
			name: "newer memory keeps full reliability",
			rec:  record(ts("2025-03-01"), ts("2025-04-01"), "2025-04-15", 0.9),
			want: 0.9,
		},
		{
			name: "older memory discounted",
			rec:  record(ts("2025-04-01"), ts("2025-03-01"), "2025-04-15", 0.9),
			want: 0.27,
		},
		{
			name: "equal timestamps discounted",
			rec:  record(ts("2025-03-01"), ts("2025-03-01"), "2025-04-15", 1.0),
			want: 0.3,
		},
		{
			name: "absent fact timestamp treated as oldest",
			rec:  record(nil, ts("2025-03-01"), "2025-04-15", 0.8),
			want: 0.8,
		},
		{
			name: "absent memory timestamp discounted against dated fact",
			rec:  record(ts("2025-03-01"), nil, "2025-04-15", 1.0),
			want: 0.3,
		},
		{
			name: "empty memory scores zero",
			rec:  record(ts("2025-03-01"), ts("2025-04-01"), "", 1.0),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.MemoryScore(tt.rec)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("MemoryScore() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestDecide_Rule(t *testing.T) {
	e := NewEngine(DefaultParams())

	tests := []struct {
		name           string
		rec            domain.ConflictRecord
		wantSource     domain.Source
		wantConfidence float64
	}{
		{
			name:           "fresh reliable memory wins",
			rec:            record(ts("2025-03-01"), ts("2025-04-01"), "2025-04-15", 0.9),
			wantSource:     domain.SourceMemory,
			wantConfidence: 0.9,
		},
		{
			name:           "stale memory loses",
			rec:            record(ts("2025-04-01"), ts("2025-03-01"), "2025-04-15", 0.9),
			wantSource:     domain.SourceRetrieval,
			wantConfidence: 0.73,
		},
		{
			name:           "empty memory resolves to retrieval",
			rec:            record(ts("2025-03-01"), nil, "", 0),
			wantSource:     domain.SourceRetrieval,
			wantConfidence: 1.0,
		},
		{
			name:           "exact threshold tie-breaks to retrieval",
			rec:            record(ts("2025-03-01"), ts("2025-04-01"), "2025-04-15", 0.5),
			wantSource:     domain.SourceRetrieval,
			wantConfidence: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := e.Decide(tt.rec, PolicyRule)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.ChosenSource != tt.wantSource {
				t.Errorf("chosen_source = %s, want %s", v.ChosenSource, tt.wantSource)
			}
			if math.Abs(v.Confidence-tt.wantConfidence) > 1e-9 {
				t.Errorf("confidence = %f, want %f", v.Confidence, tt.wantConfidence)
			}
			wantAnswer := tt.rec.FactText
			if tt.wantSource == domain.SourceMemory {
				wantAnswer = tt.rec.MemoryText
			}
			if v.AnswerText != wantAnswer {
				t.Errorf("answer = %q, want %q", v.AnswerText, wantAnswer)
			}
		})
	}
}

func TestDecide_Cons_AbstentionBand(t *testing.T) {
	e := NewEngine(DefaultParams())

	tests := []struct {
		name           string
		reliability    float64
		wantSource     domain.Source
		wantConfidence float64
	}{
		// Memory strictly newer in every case, so s == reliability.
		{"midpoint abstains with zero confidence", 0.5, domain.SourceAbstain, 0},
		{"lower band edge abstains", 0.4, domain.SourceAbstain, 0.2},
		{"upper band edge abstains", 0.6, domain.SourceAbstain, 0.2},
		{"inside band abstains", 0.55, domain.SourceAbstain, 0.1},
		{"below band follows rule", 0.39, domain.SourceRetrieval, 0.61},
		{"above band follows rule", 0.61, domain.SourceMemory, 0.61},
		{"well above band follows rule", 0.9, domain.SourceMemory, 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record(ts("2025-03-01"), ts("2025-04-01"), "2025-04-15", tt.reliability)
			v, err := e.Decide(rec, PolicyCons)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.ChosenSource != tt.wantSource {
				t.Errorf("chosen_source = %s, want %s", v.ChosenSource, tt.wantSource)
			}
			if math.Abs(v.Confidence-tt.wantConfidence) > 1e-9 {
				t.Errorf("confidence = %f, want %f", v.Confidence, tt.wantConfidence)
			}
			if tt.wantSource == domain.SourceAbstain && v.AnswerText != domain.AbstainMarker {
				t.Errorf("answer = %q, want abstention marker", v.AnswerText)
			}
		})
	}
}

func TestDecide_ConsMatchesRuleOutsideBand(t *testing.T) {
	e := NewEngine(DefaultParams())

	for _, reliability := range []float64{0, 0.1, 0.25, 0.39, 0.61, 0.75, 0.9, 1.0} {
		rec := record(ts("2025-03-01"), ts("2025-04-01"), "2025-04-15", reliability)
		s := e.MemoryScore(rec)
		if s >= 0.4 && s <= 0.6 {
			continue
		}
		ruleVerdict, err := e.Decide(rec, PolicyRule)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		consVerdict, err := e.Decide(rec, PolicyCons)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if consVerdict != ruleVerdict {
			t.Errorf("s=%f: cons = %+v, rule = %+v, want identical", s, consVerdict, ruleVerdict)
		}
	}
}

func TestDecide_Idempotent(t *testing.T) {
	e := NewEngine(DefaultParams())
	rec := record(ts("2025-03-01"), ts("2025-04-01"), "2025-04-15", 0.55)

	for _, name := range Names() {
		first, err := e.Decide(rec, name)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := e.Decide(rec, name)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first != second {
			t.Errorf("%s: repeated decide diverged: %+v vs %+v", name, first, second)
		}
	}
}

func TestDecide_UnknownPolicy(t *testing.T) {
	e := NewEngine(DefaultParams())
	rec := record(ts("2025-03-01"), nil, "", 0)

	_, err := e.Decide(rec, "latest_wins")
	if err == nil {
		t.Fatal("expected error for unknown policy")
	}
	var upe *domain.UnknownPolicyError
	if !errors.As(err, &upe) {
		t.Fatalf("error = %T, want *domain.UnknownPolicyError", err)
	}
	if upe.Name != "latest_wins" {
		t.Errorf("error name = %q, want latest_wins", upe.Name)
	}
}

func TestKnown(t *testing.T) {
	for _, name := range Names() {
		if !Known(name) {
			t.Errorf("expected %q to be known", name)
		}
	}
	for _, name := range []string{"", "RULE", "latest_wins", "rag"} {
		if Known(name) {
			t.Errorf("expected %q to be unknown", name)
		}
	}
}
