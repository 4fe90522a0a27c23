package domain

import (
	"fmt"
	"time"
)

// AssetType classifies a holding by asset class.
type AssetType string

const (
	AssetTypeCrypto AssetType = "crypto"
	AssetTypeStock  AssetType = "stock"
	AssetTypeETF    AssetType = "etf"
	AssetTypeBond   AssetType = "bond"
	AssetTypeCash   AssetType = "cash"
)

// ParseAssetType parses a string into an AssetType.
func ParseAssetType(s string) (AssetType, error) {
	switch AssetType(s) {
	case AssetTypeCrypto, AssetTypeStock, AssetTypeETF, AssetTypeBond, AssetTypeCash:
		return AssetType(s), nil
	default:
		return "", fmt.Errorf("unknown asset type: %q", s)
	}
}

// Holding identifies a tracked asset. Holdings are immutable once created and
// uniquely keyed by (asset type, symbol).
type Holding struct {
	ID        int64     `json:"id"`
	Type      AssetType `json:"type"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name,omitempty"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Key returns the canonical identity string: "crypto:BTC", "stock:AAPL".
func (h Holding) Key() string {
	return fmt.Sprintf("%s:%s", h.Type, h.Symbol)
}
