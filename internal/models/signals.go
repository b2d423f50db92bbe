package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SignalType is the direction of a trade signal.
type SignalType string

const (
	SignalBuy        SignalType = "buy"
	SignalSell       SignalType = "sell"
	SignalNeutral    SignalType = "neutral"
	SignalStrongBuy  SignalType = "strong_buy"
	SignalStrongSell SignalType = "strong_sell"
)

// SignalSource is where a signal was produced.
type SignalSource string

const (
	SourceTechnical   SignalSource = "technical"
	SourceFundamental SignalSource = "fundamental"
	SourceSentiment   SignalSource = "sentiment"
	SourceAI          SignalSource = "ai"
	SourceCustom      SignalSource = "custom"
)

// TradeSignal is a single strategy signal emitted against a symbol.
type TradeSignal struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Symbol    string             `bson:"symbol" json:"symbol"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	Type      SignalType         `bson:"signal_type" json:"signal_type"`
	Source    SignalSource       `bson:"source" json:"source"`
	Strategy  string             `bson:"strategy" json:"strategy"`
	Price     float64            `bson:"price" json:"price"`

	// Confidence is bounded in [0, 1].
	Confidence float64 `bson:"confidence" json:"confidence"`

	// Indicators is an open map of indicator name to value; only scalar
	// values are flattened into the search document.
	Indicators map[string]any `bson:"indicators,omitempty" json:"indicators,omitempty"`

	// Timeframe the signal was computed on (e.g., "1m", "1h").
	Timeframe   string   `bson:"timeframe" json:"timeframe"`
	Tags        []string `bson:"tags,omitempty" json:"tags,omitempty"`
	Description string   `bson:"description,omitempty" json:"description,omitempty"`
}

// StrategyPerformance aggregates signal outcomes for a strategy over a
// date range. Symbol is empty when the record covers all symbols.
type StrategyPerformance struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Strategy string             `bson:"strategy" json:"strategy"`
	Symbol   string             `bson:"symbol,omitempty" json:"symbol,omitempty"`

	StartDate time.Time `bson:"start_date" json:"start_date"`
	EndDate   time.Time `bson:"end_date" json:"end_date"`

	TotalSignals int `bson:"total_signals" json:"total_signals"`
	WinCount     int `bson:"win_count" json:"win_count"`
	LossCount    int `bson:"loss_count" json:"loss_count"`

	ProfitFactor float64 `bson:"profit_factor" json:"profit_factor"`
	AvgWin       float64 `bson:"avg_win" json:"avg_win"`
	AvgLoss      float64 `bson:"avg_loss" json:"avg_loss"`
	MaxDrawdown  float64 `bson:"max_drawdown" json:"max_drawdown"`
	SharpeRatio  float64 `bson:"sharpe_ratio,omitempty" json:"sharpe_ratio,omitempty"`

	Timeframe string `bson:"timeframe" json:"timeframe"`
}

// WinRate is the fraction of winning signals, 0 when no signals exist.
func (sp StrategyPerformance) WinRate() float64 {
	if sp.TotalSignals == 0 {
		return 0
	}
	return float64(sp.WinCount) / float64(sp.TotalSignals)
}
