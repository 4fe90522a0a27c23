package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// YahooClient fetches stock and ETF quotes from the Yahoo Finance chart API.
type YahooClient struct {
	baseURL string
	client  *retryingClient
}

// NewYahooClient creates a new Yahoo Finance client.
func NewYahooClient(baseURL string, retryBase time.Duration, maxRetries int) *YahooClient {
	return &YahooClient{
		baseURL: baseURL,
		client:  newRetryingClient(retryBase, maxRetries),
	}
}

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string          `json:"currency"`
				RegularMarketPrice decimal.Decimal `json:"regularMarketPrice"`
				PreviousClose      decimal.Decimal `json:"previousClose"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchQuote fetches the current market price and quote currency for one
// ticker. The regular market price wins; the previous close stands in when
// the market is closed and no regular price is reported.
func (c *YahooClient) FetchQuote(ctx context.Context, symbol string) (decimal.Decimal, string, error) {
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d", c.baseURL, url.PathEscape(symbol))

	body, err := c.client.get(ctx, "Yahoo", reqURL)
	if err != nil {
		return decimal.Zero, "", err
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return decimal.Zero, "", fmt.Errorf("parsing Yahoo response for %s: %w", symbol, err)
	}
	if chart.Chart.Error != nil {
		return decimal.Zero, "", fmt.Errorf("Yahoo error for %s: %s", symbol, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return decimal.Zero, "", fmt.Errorf("no Yahoo quote for %s", symbol)
	}

	meta := chart.Chart.Result[0].Meta
	price := meta.RegularMarketPrice
	if price.IsZero() {
		price = meta.PreviousClose
	}
	if price.IsZero() {
		return decimal.Zero, "", fmt.Errorf("Yahoo returned no usable price for %s", symbol)
	}
	return price, meta.Currency, nil
}
