package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/whalewatch/searchsync/internal/models"
)

func signalAt(day int, signalType models.SignalType, price float64) models.TradeSignal {
	return models.TradeSignal{
		Symbol:    "BTCUSDT",
		Strategy:  "momentum",
		Type:      signalType,
		Price:     price,
		Timestamp: time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC),
	}
}

func TestPerformanceFromSignals(t *testing.T) {
	signals := []models.TradeSignal{
		signalAt(1, models.SignalBuy, 100),
		signalAt(2, models.SignalSell, 110), // +10% win
		signalAt(3, models.SignalBuy, 110),
		signalAt(4, models.SignalSell, 99), // -10% loss
		signalAt(5, models.SignalNeutral, 100),
		signalAt(6, models.SignalBuy, 100),
		signalAt(7, models.SignalSell, 120), // +20% win
	}

	perf := performanceFromSignals(signals)

	assert.Equal(t, 7, perf.TotalSignals)
	assert.Equal(t, 2, perf.WinCount)
	assert.Equal(t, 1, perf.LossCount)
	assert.InDelta(t, 0.15, perf.AvgWin, 1e-9)
	assert.InDelta(t, 0.10, perf.AvgLoss, 1e-9)
	assert.InDelta(t, 3.0, perf.ProfitFactor, 1e-9)
	assert.Equal(t, signals[0].Timestamp, perf.StartDate)
	assert.Equal(t, signals[6].Timestamp, perf.EndDate)
}

func TestPerformanceFromSignalsNoRoundTrips(t *testing.T) {
	signals := []models.TradeSignal{
		signalAt(1, models.SignalSell, 100),
		signalAt(2, models.SignalSell, 105),
	}

	perf := performanceFromSignals(signals)

	assert.Equal(t, 2, perf.TotalSignals)
	assert.Zero(t, perf.WinCount)
	assert.Zero(t, perf.LossCount)
	assert.Zero(t, perf.ProfitFactor)
	assert.Zero(t, perf.WinRate())
}

func TestPerformanceFromSignalsAllWins(t *testing.T) {
	signals := []models.TradeSignal{
		signalAt(1, models.SignalBuy, 100),
		signalAt(2, models.SignalSell, 150),
	}

	perf := performanceFromSignals(signals)

	assert.Equal(t, 1, perf.WinCount)
	assert.Zero(t, perf.LossCount)
	assert.InDelta(t, 0.5, perf.ProfitFactor, 1e-9, "with no losses the factor falls back to total profit")
	assert.InDelta(t, 0.5, perf.WinRate(), 1e-9, "rate is wins over all signals")
}

func TestPerformanceFromSignalsSkipsZeroEntryPrice(t *testing.T) {
	signals := []models.TradeSignal{
		signalAt(1, models.SignalBuy, 0),
		signalAt(2, models.SignalSell, 110),
	}

	perf := performanceFromSignals(signals)

	assert.Zero(t, perf.WinCount)
	assert.Zero(t, perf.LossCount)
}
