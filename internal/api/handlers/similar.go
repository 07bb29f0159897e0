package handlers

import (
	"net/http"
	"strconv"

	"github.com/veridict/veridict/internal/domain"
)

// SimilarHandler finds stored conflict records whose fact text is close to
// a free-text query, via embedding similarity.
type SimilarHandler struct {
	runs     domain.RunStore
	embedder domain.EmbeddingClient
}

func NewSimilarHandler(runs domain.RunStore, embedder domain.EmbeddingClient) *SimilarHandler {
	return &SimilarHandler{runs: runs, embedder: embedder}
}

func (h *SimilarHandler) Similar(w http.ResponseWriter, r *http.Request) {
	if h.embedder == nil {
		writeError(w, http.StatusServiceUnavailable, "no embedding provider configured")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	embedding, err := h.embedder.Embed(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to embed query")
		return
	}

	records, err := h.runs.SimilarRecords(r.Context(), embedding, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "similarity search failed")
		return
	}
	if records == nil {
		records = []domain.RecordWithScore{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}
