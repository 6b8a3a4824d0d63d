package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/0xfern/dexarb/internal/domain"
)

// OpportunityLister defines the store methods the opportunity handler requires.
type OpportunityLister interface {
	ListRecent(ctx context.Context, limit int) ([]domain.Opportunity, error)
}

// OpportunityHandler serves discovered arbitrage opportunities.
type OpportunityHandler struct {
	opportunities OpportunityLister
	logger        *slog.Logger
}

// NewOpportunityHandler creates an OpportunityHandler with the given store and
// logger.
func NewOpportunityHandler(opportunities OpportunityLister, logger *slog.Logger) *OpportunityHandler {
	return &OpportunityHandler{
		opportunities: opportunities,
		logger:        logHandler(logger, "opportunities"),
	}
}

// listOpportunitiesResponse wraps the list opportunities response.
type listOpportunitiesResponse struct {
	Opportunities []domain.Opportunity `json:"opportunities"`
}

// ListRecent returns the most recently discovered opportunities.
// GET /api/opportunities?limit=50
func (h *OpportunityHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50, 500)

	opps, err := h.opportunities.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list opportunities failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list opportunities")
		return
	}

	if opps == nil {
		opps = []domain.Opportunity{}
	}

	writeJSON(w, http.StatusOK, listOpportunitiesResponse{Opportunities: opps})
}
