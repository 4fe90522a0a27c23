package external

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/portfel/tracker/internal/domain"
)

// NBPClient fetches official PLN exchange rates from the National Bank of
// Poland. NBP publishes table A (major currencies) and table B (less common
// ones); both are read. All rates are quoted as 1 unit of the foreign
// currency in PLN.
type NBPClient struct {
	baseURL string
	client  *retryingClient
}

// NewNBPClient creates a new NBP API client.
func NewNBPClient(baseURL string, retryBase time.Duration, maxRetries int) *NBPClient {
	return &NBPClient{
		baseURL: baseURL,
		client:  newRetryingClient(retryBase, maxRetries),
	}
}

type nbpTable struct {
	Table         string `json:"table"`
	EffectiveDate string `json:"effectiveDate"`
	Rates         []struct {
		Currency string          `json:"currency"`
		Code     string          `json:"code"`
		Mid      decimal.Decimal `json:"mid"`
	} `json:"rates"`
}

// FetchRates fetches the current tables A and B and returns one directed
// CODE->PLN rate per currency, timestamped with the table's effective date.
// A failed table is logged and skipped; the call fails only when neither
// table could be read.
func (c *NBPClient) FetchRates(ctx context.Context) ([]domain.FXRate, error) {
	var rates []domain.FXRate
	var lastErr error

	for _, table := range []string{"A", "B"} {
		url := fmt.Sprintf("%s/exchangerates/tables/%s?format=json", c.baseURL, table)
		body, err := c.client.get(ctx, "NBP", url)
		if err != nil {
			slog.Warn("NBP table fetch failed", "table", table, "error", err)
			lastErr = err
			continue
		}

		var tables []nbpTable
		if err := json.Unmarshal(body, &tables); err != nil {
			slog.Warn("NBP table unparseable", "table", table, "error", err)
			lastErr = fmt.Errorf("parsing NBP table %s: %w", table, err)
			continue
		}

		for _, t := range tables {
			ts, err := time.Parse("2006-01-02", t.EffectiveDate)
			if err != nil {
				ts = time.Now().UTC()
			}
			for _, r := range t.Rates {
				rates = append(rates, domain.FXRate{
					TS:     ts,
					Base:   r.Code,
					Quote:  "PLN",
					Rate:   r.Mid,
					Source: "nbp",
				})
			}
		}
	}

	if len(rates) == 0 && lastErr != nil {
		return nil, fmt.Errorf("fetching NBP rates: %w", lastErr)
	}
	return rates, nil
}
