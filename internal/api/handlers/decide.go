package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/veridict/veridict/internal/domain"
	"github.com/veridict/veridict/internal/policy"
)

// DecideHandler applies a decision policy to an ad-hoc conflict, without
// touching any stored run.
type DecideHandler struct {
	engine *policy.Engine
}

func NewDecideHandler(engine *policy.Engine) *DecideHandler {
	return &DecideHandler{engine: engine}
}

type decideRequest struct {
	Policy          string  `json:"policy"`
	FactText        string  `json:"fact_text"`
	FactTimestamp   string  `json:"fact_timestamp,omitempty"`
	MemoryText      string  `json:"memory_text,omitempty"`
	MemoryTimestamp string  `json:"memory_timestamp,omitempty"`
	Reliability     float64 `json:"reliability"`
}

type decideResponse struct {
	ChosenSource string  `json:"chosen_source"`
	AnswerText   string  `json:"answer_text"`
	Confidence   float64 `json:"confidence"`
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *DecideHandler) Decide(w http.ResponseWriter, r *http.Request) {
	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FactText == "" {
		writeError(w, http.StatusBadRequest, "fact_text is required")
		return
	}
	if req.Reliability < 0 || req.Reliability > 1 {
		writeError(w, http.StatusBadRequest, "reliability must be in [0,1]")
		return
	}

	factTS, err := parseDate(req.FactTimestamp)
	if err != nil {
		writeError(w, http.StatusBadRequest, "fact_timestamp must be YYYY-MM-DD")
		return
	}
	memTS, err := parseDate(req.MemoryTimestamp)
	if err != nil {
		writeError(w, http.StatusBadRequest, "memory_timestamp must be YYYY-MM-DD")
		return
	}

	rec := domain.ConflictRecord{
		FactText:        req.FactText,
		FactTimestamp:   factTS,
		MemoryText:      req.MemoryText,
		MemoryTimestamp: memTS,
		Reliability:     req.Reliability,
	}

	verdict, err := h.engine.Decide(rec, req.Policy)
	if err != nil {
		var upe *domain.UnknownPolicyError
		if errors.As(err, &upe) {
			writeError(w, http.StatusBadRequest, upe.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "decide failed")
		return
	}

	writeJSON(w, http.StatusOK, decideResponse{
		ChosenSource: string(verdict.ChosenSource),
		AnswerText:   verdict.AnswerText,
		Confidence:   verdict.Confidence,
	})
}
