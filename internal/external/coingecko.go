package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// symbolToID maps common crypto symbols to CoinGecko coin IDs. Unknown symbols
// fall back to the lowercased symbol, which works for many smaller coins.
var symbolToID = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"USDT":  "tether",
	"BNB":   "binancecoin",
	"SOL":   "solana",
	"USDC":  "usd-coin",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"TRX":   "tron",
	"DOT":   "polkadot",
	"MATIC": "matic-network",
	"LTC":   "litecoin",
	"SHIB":  "shiba-inu",
	"AVAX":  "avalanche-2",
}

// CoinGeckoClient fetches crypto spot prices from the CoinGecko API.
type CoinGeckoClient struct {
	baseURL string
	client  *retryingClient
}

// NewCoinGeckoClient creates a new CoinGecko API client.
func NewCoinGeckoClient(baseURL string, retryBase time.Duration, maxRetries int) *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL: baseURL,
		client:  newRetryingClient(retryBase, maxRetries),
	}
}

// FetchPrices fetches current prices for the given symbols, quoted in
// vsCurrency, in a single simple/price call. Symbols CoinGecko does not know
// are omitted from the result.
func (c *CoinGeckoClient) FetchPrices(ctx context.Context, symbols []string, vsCurrency string) (map[string]decimal.Decimal, error) {
	if len(symbols) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	vs := strings.ToLower(vsCurrency)
	ids := make([]string, 0, len(symbols))
	idToSymbol := make(map[string]string, len(symbols))
	for _, symbol := range symbols {
		upper := strings.ToUpper(symbol)
		id, ok := symbolToID[upper]
		if !ok {
			id = strings.ToLower(symbol)
		}
		ids = append(ids, id)
		idToSymbol[id] = upper
	}

	reqURL := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s",
		c.baseURL, url.QueryEscape(strings.Join(ids, ",")), url.QueryEscape(vs))

	body, err := c.client.get(ctx, "CoinGecko", reqURL)
	if err != nil {
		return nil, err
	}

	// {"bitcoin":{"usd":45000},"ethereum":{"usd":2500},...}
	var raw map[string]map[string]decimal.Decimal
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing CoinGecko response: %w", err)
	}

	prices := make(map[string]decimal.Decimal)
	for id, quotes := range raw {
		price, ok := quotes[vs]
		if !ok {
			continue
		}
		symbol, ok := idToSymbol[id]
		if !ok {
			symbol = strings.ToUpper(id)
		}
		prices[symbol] = price
	}
	return prices, nil
}
