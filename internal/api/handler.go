package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/portfel/tracker/internal/domain"
	"github.com/portfel/tracker/internal/engine"
	"github.com/portfel/tracker/internal/snapshot"
)

// Portfolio computes positions and the portfolio summary on demand.
type Portfolio interface {
	Positions(ctx context.Context) ([]domain.Position, error)
	Summary(ctx context.Context) (domain.Summary, error)
}

// SnapshotReader serves the stored net-worth history.
type SnapshotReader interface {
	GetLatest(ctx context.Context) (*snapshot.Snapshot, error)
	GetByDate(ctx context.Context, date time.Time) (*snapshot.Snapshot, error)
	History(ctx context.Context, limit int) ([]snapshot.Snapshot, error)
}

// LedgerWriter is the ingestion surface for holdings and ledger entries.
type LedgerWriter interface {
	CreateHolding(ctx context.Context, h domain.Holding) (domain.Holding, error)
	RecordEntry(ctx context.Context, e domain.LedgerEntry) (domain.LedgerEntry, error)
}

// Refresher pulls fresh prices and FX rates from the market data providers.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Handler provides the HTTP endpoints for the portfolio API.
type Handler struct {
	portfolio Portfolio
	snapshots SnapshotReader
	ledger    LedgerWriter
	refresher Refresher
}

// NewHandler creates a new API handler.
func NewHandler(portfolio Portfolio, snapshots SnapshotReader, ledger LedgerWriter, refresher Refresher) *Handler {
	return &Handler{
		portfolio: portfolio,
		snapshots: snapshots,
		ledger:    ledger,
		refresher: refresher,
	}
}

// GetPositions handles GET /api/v1/positions.
func (h *Handler) GetPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.portfolio.Positions(r.Context())
	if err != nil {
		if errors.Is(err, engine.ErrLedgerOrder) {
			slog.Error("ledger ordering violation", "error", err)
			writeError(w, http.StatusConflict, "ledger ordering violation, portfolio cannot be computed")
			return
		}
		slog.Error("failed to compute positions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

// GetSummary handles GET /api/v1/summary.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.portfolio.Summary(r.Context())
	if err != nil {
		if errors.Is(err, engine.ErrLedgerOrder) {
			slog.Error("ledger ordering violation", "error", err)
			writeError(w, http.StatusConflict, "ledger ordering violation, portfolio cannot be computed")
			return
		}
		slog.Error("failed to compute summary", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetLatestSnapshot handles GET /api/v1/history/latest.
func (h *Handler) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	s, err := h.snapshots.GetLatest(r.Context())
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no snapshots found")
			return
		}
		slog.Error("failed to get latest snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetSnapshotByDate handles GET /api/v1/history/{date}.
func (h *Handler) GetSnapshotByDate(w http.ResponseWriter, r *http.Request) {
	dateStr := r.PathValue("date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	s, err := h.snapshots.GetByDate(r.Context(), date)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeError(w, http.StatusNotFound, "snapshot not found for date")
			return
		}
		slog.Error("failed to get snapshot by date", "date", dateStr, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetHistory handles GET /api/v1/history.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	const maxLimit = 365
	limit := 30
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = min(n, maxLimit)
		}
	}

	snapshots, err := h.snapshots.History(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list snapshots", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, snapshots)
}

type createHoldingRequest struct {
	Type     string `json:"type"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// CreateHolding handles POST /api/v1/holdings.
func (h *Handler) CreateHolding(w http.ResponseWriter, r *http.Request) {
	var req createHoldingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	assetType, err := domain.ParseAssetType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Symbol == "" || req.Currency == "" {
		writeError(w, http.StatusBadRequest, "symbol and currency are required")
		return
	}

	created, err := h.ledger.CreateHolding(r.Context(), domain.Holding{
		Type:     assetType,
		Symbol:   req.Symbol,
		Name:     req.Name,
		Currency: req.Currency,
	})
	if err != nil {
		slog.Error("failed to create holding", "symbol", req.Symbol, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create holding")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type recordEntryRequest struct {
	HoldingID int64           `json:"holdingId"`
	AccountID *int64          `json:"accountId,omitempty"`
	TS        time.Time       `json:"ts"`
	Action    string          `json:"action"`
	Qty       decimal.Decimal `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	Fee       decimal.Decimal `json:"fee"`
	Note      string          `json:"note,omitempty"`
}

// RecordEntry handles POST /api/v1/transactions.
func (h *Handler) RecordEntry(w http.ResponseWriter, r *http.Request) {
	var req recordEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	entry := domain.LedgerEntry{
		HoldingID: req.HoldingID,
		AccountID: req.AccountID,
		TS:        req.TS,
		Action:    domain.Action(req.Action),
		Qty:       req.Qty,
		Price:     req.Price,
		Fee:       req.Fee,
		Note:      req.Note,
	}
	if err := entry.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.ledger.RecordEntry(r.Context(), entry)
	if err != nil {
		slog.Error("failed to record ledger entry", "holding_id", req.HoldingID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record ledger entry")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Refresh handles POST /api/v1/refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.refresher.Refresh(r.Context()); err != nil {
		slog.Error("failed to refresh market data", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to refresh market data")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
