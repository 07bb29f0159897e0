package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/veridict/veridict/internal/domain"
	"github.com/veridict/veridict/internal/policy"
	"github.com/veridict/veridict/internal/store"
)

// RunsHandler serves persisted evaluation runs.
type RunsHandler struct {
	runs domain.RunStore
}

func NewRunsHandler(runs domain.RunStore) *RunsHandler {
	return &RunsHandler{runs: runs}
}

func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []domain.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *RunsHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	run, err := h.runs.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *RunsHandler) Summaries(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	if _, err := h.runs.GetRun(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	summaries, err := h.runs.GetSummaries(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get summaries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summaries": summaries})
}

func (h *RunsHandler) Predictions(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	policyName := r.URL.Query().Get("policy")
	if policyName != "" && !policy.Known(policyName) {
		writeError(w, http.StatusBadRequest, "unknown policy "+strconv.Quote(policyName))
		return
	}

	if _, err := h.runs.GetRun(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	preds, err := h.runs.GetPredictions(r.Context(), id, policyName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get predictions")
		return
	}
	if preds == nil {
		preds = []domain.Prediction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"predictions": preds})
}
