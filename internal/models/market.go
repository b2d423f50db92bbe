package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MarketCandle represents a single OHLCV candle stored in the market_data
// collection. One logical "latest" candle exists per (symbol, interval).
type MarketCandle struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`

	// Symbol is the trading pair (e.g., "BTCUSDT").
	Symbol string `bson:"symbol" json:"symbol"`

	// Interval is the candle resolution (e.g., "1m", "5m", "1h", "1d").
	Interval string `bson:"interval" json:"interval"`

	Timestamp time.Time `bson:"timestamp" json:"timestamp"`

	Open   float64 `bson:"open" json:"open"`
	High   float64 `bson:"high" json:"high"`
	Low    float64 `bson:"low" json:"low"`
	Close  float64 `bson:"close" json:"close"`
	Volume float64 `bson:"volume" json:"volume"`

	// QuoteVolume is the volume denominated in the quote asset, when the
	// upstream feed provides it.
	QuoteVolume float64 `bson:"quote_volume,omitempty" json:"quote_volume,omitempty"`

	// Trades is the number of trades inside the candle window.
	Trades int64 `bson:"trades,omitempty" json:"trades,omitempty"`

	// Source is the exchange the candle came from (e.g., "binance").
	Source string `bson:"source" json:"source"`
}

// OrderBookLevel is a single (price, quantity) level of an order book side.
type OrderBookLevel struct {
	Price    float64 `bson:"price" json:"price"`
	Quantity float64 `bson:"quantity" json:"quantity"`
}

// OrderBookSnapshot is a point-in-time view of market depth for a symbol.
type OrderBookSnapshot struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Symbol    string             `bson:"symbol" json:"symbol"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	Bids      []OrderBookLevel   `bson:"bids" json:"bids"`
	Asks      []OrderBookLevel   `bson:"asks" json:"asks"`
	Source    string             `bson:"source" json:"source"`
}

// LiquidityZone marks a price band with concentrated resting liquidity.
// PriceLow <= PriceHigh always holds.
type LiquidityZone struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Symbol    string             `bson:"symbol" json:"symbol"`
	StartTime time.Time          `bson:"start_time" json:"start_time"`
	EndTime   time.Time          `bson:"end_time" json:"end_time"`
	PriceLow  float64            `bson:"price_low" json:"price_low"`
	PriceHigh float64            `bson:"price_high" json:"price_high"`

	AvgBidVolume float64 `bson:"avg_bid_volume" json:"avg_bid_volume"`
	AvgAskVolume float64 `bson:"avg_ask_volume" json:"avg_ask_volume"`

	// Strength is a computed metric for how pronounced the zone is.
	Strength float64 `bson:"strength" json:"strength"`

	Tags []string `bson:"tags,omitempty" json:"tags,omitempty"`
}
