package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/portfel/tracker/internal/domain"
)

type mockHoldingSource struct {
	holdings []domain.Holding
}

func (m *mockHoldingSource) Holdings(_ context.Context) ([]domain.Holding, error) {
	return m.holdings, nil
}

type mockMarketStore struct {
	prices []domain.PricePoint
	rates  []domain.FXRate
}

func (m *mockMarketStore) SavePrice(_ context.Context, p domain.PricePoint) error {
	m.prices = append(m.prices, p)
	return nil
}

func (m *mockMarketStore) SaveRate(_ context.Context, fx domain.FXRate) error {
	m.rates = append(m.rates, fx)
	return nil
}

func TestRefreshStoresAllSources(t *testing.T) {
	nbpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/exchangerates/tables/A" {
			w.Write([]byte(`[{"table":"A","effectiveDate":"2024-03-01","rates":[{"code":"USD","mid":4.0}]}]`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer nbpServer.Close()

	geckoServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bitcoin":{"usd":60000}}`))
	}))
	defer geckoServer.Close()

	yahooServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"meta":{"currency":"USD","regularMarketPrice":189.43}}],"error":null}}`))
	}))
	defer yahooServer.Close()

	source := &mockHoldingSource{holdings: []domain.Holding{
		{ID: 1, Type: domain.AssetTypeCrypto, Symbol: "BTC", Currency: "USD"},
		{ID: 2, Type: domain.AssetTypeStock, Symbol: "AAPL", Currency: "USD"},
		{ID: 3, Type: domain.AssetTypeCash, Symbol: "PLN", Currency: "PLN"},
	}}
	store := &mockMarketStore{}

	svc := NewService(source, store,
		NewNBPClient(nbpServer.URL, 0, 1),
		NewCoinGeckoClient(geckoServer.URL, 0, 1),
		NewYahooClient(yahooServer.URL, 0, 1))

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Cash holdings get no price; BTC and AAPL do.
	if len(store.prices) != 2 {
		t.Fatalf("prices stored = %d, want 2", len(store.prices))
	}
	byID := map[int64]domain.PricePoint{}
	for _, p := range store.prices {
		byID[p.HoldingID] = p
	}
	if p := byID[1]; p.Source != "coingecko" || !p.Price.Equal(decimal.NewFromInt(60000)) {
		t.Errorf("BTC price = %+v", p)
	}
	if p := byID[2]; p.Source != "yahoo" || !p.Price.Equal(decimal.RequireFromString("189.43")) {
		t.Errorf("AAPL price = %+v", p)
	}

	if len(store.rates) != 1 || store.rates[0].Base != "USD" {
		t.Errorf("rates stored = %+v, want one USD/PLN", store.rates)
	}
}

func TestRefreshSurvivesProviderOutage(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	source := &mockHoldingSource{holdings: []domain.Holding{
		{ID: 1, Type: domain.AssetTypeCrypto, Symbol: "BTC", Currency: "USD"},
	}}
	store := &mockMarketStore{}

	svc := NewService(source, store,
		NewNBPClient(down.URL, 0, 1),
		NewCoinGeckoClient(down.URL, 0, 1),
		NewYahooClient(down.URL, 0, 1))

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("provider outage should degrade, not fail: %v", err)
	}
	if len(store.prices) != 0 || len(store.rates) != 0 {
		t.Errorf("nothing should have been stored, got %d prices %d rates", len(store.prices), len(store.rates))
	}
}
