package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/portfel/tracker/internal/domain"
	"github.com/portfel/tracker/internal/engine"
	"github.com/portfel/tracker/internal/snapshot"
)

type mockPortfolio struct {
	positions []domain.Position
	summary   domain.Summary
	err       error
}

func (m *mockPortfolio) Positions(_ context.Context) ([]domain.Position, error) {
	return m.positions, m.err
}

func (m *mockPortfolio) Summary(_ context.Context) (domain.Summary, error) {
	return m.summary, m.err
}

type mockSnapshots struct {
	latest *snapshot.Snapshot
	list   []snapshot.Snapshot
	err    error
}

func (m *mockSnapshots) GetLatest(_ context.Context) (*snapshot.Snapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.latest == nil {
		return nil, snapshot.ErrNotFound
	}
	return m.latest, nil
}

func (m *mockSnapshots) GetByDate(_ context.Context, date time.Time) (*snapshot.Snapshot, error) {
	if m.latest != nil && m.latest.SnapshotDate.Equal(date) {
		return m.latest, nil
	}
	return nil, snapshot.ErrNotFound
}

func (m *mockSnapshots) History(_ context.Context, limit int) ([]snapshot.Snapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit < len(m.list) {
		return m.list[:limit], nil
	}
	return m.list, nil
}

type mockLedgerWriter struct {
	holding domain.Holding
	entry   domain.LedgerEntry
	err     error
}

func (m *mockLedgerWriter) CreateHolding(_ context.Context, h domain.Holding) (domain.Holding, error) {
	if m.err != nil {
		return domain.Holding{}, m.err
	}
	h.ID = 1
	m.holding = h
	return h, nil
}

func (m *mockLedgerWriter) RecordEntry(_ context.Context, e domain.LedgerEntry) (domain.LedgerEntry, error) {
	if m.err != nil {
		return domain.LedgerEntry{}, m.err
	}
	e.ID = 1
	m.entry = e
	return e, nil
}

type mockRefresher struct {
	called bool
	err    error
}

func (m *mockRefresher) Refresh(_ context.Context) error {
	m.called = true
	return m.err
}

func newTestHandler() (*Handler, *mockPortfolio, *mockSnapshots, *mockLedgerWriter, *mockRefresher) {
	portfolio := &mockPortfolio{}
	snapshots := &mockSnapshots{}
	ledger := &mockLedgerWriter{}
	refresher := &mockRefresher{}
	return NewHandler(portfolio, snapshots, ledger, refresher), portfolio, snapshots, ledger, refresher
}

func TestGetPositions(t *testing.T) {
	h, portfolio, _, _, _ := newTestHandler()
	portfolio.positions = []domain.Position{
		{
			Holding: domain.Holding{ID: 1, Type: domain.AssetTypeCrypto, Symbol: "BTC", Currency: "USD"},
			Qty:     decimal.RequireFromString("1.5"),
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/positions", nil)
	rec := httptest.NewRecorder()
	h.GetPositions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got []domain.Position
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(got) != 1 || got[0].Holding.Symbol != "BTC" {
		t.Errorf("unexpected positions: %+v", got)
	}
}

func TestGetPositionsLedgerOrderConflict(t *testing.T) {
	h, portfolio, _, _, _ := newTestHandler()
	portfolio.err = fmt.Errorf("holding 1: %w", engine.ErrLedgerOrder)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/positions", nil)
	rec := httptest.NewRecorder()
	h.GetPositions(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestGetSummary(t *testing.T) {
	h, portfolio, _, _, _ := newTestHandler()
	portfolio.summary = domain.Summary{
		NetWorth: decimal.RequireFromString("365000"),
		Currency: "PLN",
		Warnings: []string{"no EUR->PLN rate, converted 1:1"},
		Degraded: true,
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/summary", nil)
	rec := httptest.NewRecorder()
	h.GetSummary(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got domain.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if !got.Degraded || len(got.Warnings) != 1 {
		t.Errorf("degraded state not surfaced: %+v", got)
	}
}

func TestGetLatestSnapshotNotFound(t *testing.T) {
	h, _, _, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history/latest", nil)
	rec := httptest.NewRecorder()
	h.GetLatestSnapshot(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetSnapshotByDateInvalidFormat(t *testing.T) {
	h, _, _, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history/not-a-date", nil)
	req.SetPathValue("date", "not-a-date")
	rec := httptest.NewRecorder()
	h.GetSnapshotByDate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetHistoryLimit(t *testing.T) {
	h, _, snapshots, _, _ := newTestHandler()
	for i := range 5 {
		snapshots.list = append(snapshots.list, snapshot.Snapshot{ID: int64(i + 1)})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=2", nil)
	rec := httptest.NewRecorder()
	h.GetHistory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got []snapshot.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("returned %d snapshots, want 2", len(got))
	}
}

func TestCreateHolding(t *testing.T) {
	h, _, _, ledger, _ := newTestHandler()

	body := `{"type":"crypto","symbol":"BTC","name":"Bitcoin","currency":"USD"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/holdings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateHolding(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if ledger.holding.Symbol != "BTC" || ledger.holding.Type != domain.AssetTypeCrypto {
		t.Errorf("stored holding = %+v", ledger.holding)
	}
}

func TestCreateHoldingRejectsUnknownType(t *testing.T) {
	h, _, _, _, _ := newTestHandler()

	body := `{"type":"derivative","symbol":"X","currency":"USD"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/holdings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateHolding(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRecordEntry(t *testing.T) {
	h, _, _, ledger, _ := newTestHandler()

	body := `{"holdingId":1,"ts":"2025-03-10T12:00:00Z","action":"buy","qty":"0.5","price":"60000","fee":"50"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.RecordEntry(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if !ledger.entry.Qty.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("stored qty = %s, want 0.5", ledger.entry.Qty)
	}
}

func TestRecordEntryRejectsNegativeQty(t *testing.T) {
	h, _, _, _, _ := newTestHandler()

	body := `{"holdingId":1,"ts":"2025-03-10T12:00:00Z","action":"buy","qty":"-1","price":"10","fee":"0"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.RecordEntry(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRefresh(t *testing.T) {
	h, _, _, _, refresher := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil)
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !refresher.called {
		t.Error("refresher was not invoked")
	}
}

func TestRefreshError(t *testing.T) {
	h, _, _, _, refresher := newTestHandler()
	refresher.err = errors.New("provider down")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil)
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
