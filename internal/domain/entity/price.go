package entity

import "time"

// PricePoint is one sample of a normalized price series.
type PricePoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// PriceSeries is a normalized historical series for one asset.
// Fallback marks synthetic data substituted for an unreachable upstream.
type PriceSeries struct {
	TokenID  string       `json:"tokenId"`
	Points   []PricePoint `json:"points"`
	Fallback bool         `json:"fallback"`
}

// SpotPrice is a normalized point-in-time quote.
type SpotPrice struct {
	TokenID  string  `json:"tokenId"`
	Price    float64 `json:"price"`
	Fallback bool    `json:"fallback"`
}

// CoinInfo is the normalized single-asset detail record.
type CoinInfo struct {
	Name                     string  `json:"name"`
	Symbol                   string  `json:"symbol"`
	CurrentPrice             float64 `json:"current_price"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
	MarketCap                float64 `json:"market_cap"`
	TotalVolume              float64 `json:"total_volume"`
	Fallback                 bool    `json:"fallback"`
}

// CoinMarket is one row of the normalized paginated market listing.
type CoinMarket struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	Image                    string  `json:"image,omitempty"`
	CurrentPrice             float64 `json:"current_price"`
	MarketCap                float64 `json:"market_cap"`
	MarketCapRank            int     `json:"market_cap_rank"`
	TotalVolume              float64 `json:"total_volume"`
	High24h                  float64 `json:"high_24h"`
	Low24h                   float64 `json:"low_24h"`
	PriceChange24h           float64 `json:"price_change_24h"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
	Fallback                 bool    `json:"fallback"`
}
