package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/0xfern/dexarb/internal/domain"
)

// DecisionLister defines the store methods the decision handler requires.
type DecisionLister interface {
	ListRecent(ctx context.Context, limit int) ([]domain.Decision, error)
}

// DecisionHandler serves recent evaluator decisions.
type DecisionHandler struct {
	decisions DecisionLister
	logger    *slog.Logger
}

// NewDecisionHandler creates a DecisionHandler with the given store and logger.
func NewDecisionHandler(decisions DecisionLister, logger *slog.Logger) *DecisionHandler {
	return &DecisionHandler{decisions: decisions, logger: logHandler(logger, "decisions")}
}

// listDecisionsResponse wraps the list decisions response.
type listDecisionsResponse struct {
	Decisions []domain.Decision `json:"decisions"`
}

// ListRecent returns the most recent decisions, accepted and rejected.
// GET /api/decisions?limit=50
func (h *DecisionHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50, 500)

	decisions, err := h.decisions.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list decisions failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list decisions")
		return
	}

	if decisions == nil {
		decisions = []domain.Decision{}
	}

	writeJSON(w, http.StatusOK, listDecisionsResponse{Decisions: decisions})
}
