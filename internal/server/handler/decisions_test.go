package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xfern/dexarb/internal/domain"
)

type fakeDecisionLister struct {
	decisions []domain.Decision
	err       error
	gotLimit  int
}

func (f *fakeDecisionLister) ListRecent(_ context.Context, limit int) ([]domain.Decision, error) {
	f.gotLimit = limit
	return f.decisions, f.err
}

func testHandlerLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDecisionHandler_ListRecent(t *testing.T) {
	store := &fakeDecisionLister{
		decisions: []domain.Decision{
			{
				ID:          "d-1",
				Pair:        domain.TradingPair{Base: "ETH", Quote: "USDT"},
				Opportunity: true,
				EvaluatedAt: time.Now().UTC(),
			},
		},
	}
	h := NewDecisionHandler(store, testHandlerLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/decisions?limit=5", nil)
	rec := httptest.NewRecorder()
	h.ListRecent(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, store.gotLimit)

	var resp listDecisionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Decisions, 1)
	assert.Equal(t, "d-1", resp.Decisions[0].ID)
}

func TestDecisionHandler_LimitClamped(t *testing.T) {
	store := &fakeDecisionLister{}
	h := NewDecisionHandler(store, testHandlerLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/decisions?limit=9999", nil)
	rec := httptest.NewRecorder()
	h.ListRecent(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 500, store.gotLimit)
}

func TestDecisionHandler_EmptyListIsNotNull(t *testing.T) {
	h := NewDecisionHandler(&fakeDecisionLister{}, testHandlerLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/decisions", nil)
	rec := httptest.NewRecorder()
	h.ListRecent(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"decisions":[]}`, rec.Body.String())
}

func TestDecisionHandler_StoreError(t *testing.T) {
	h := NewDecisionHandler(&fakeDecisionLister{err: errors.New("pool closed")}, testHandlerLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/decisions", nil)
	rec := httptest.NewRecorder()
	h.ListRecent(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
