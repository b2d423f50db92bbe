package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/whalewatch/searchsync/internal/models"
	"github.com/whalewatch/searchsync/internal/store"
)

const (
	tradeSignalsIndexUID = "trade_signals_index"
	strategyPerfIndexUID = "strategy_performance_index"

	signalSyncLimit = 1000
)

// TradeSignalRepository stores strategy signals.
type TradeSignalRepository struct {
	base[models.TradeSignal]
}

func NewTradeSignalRepository(mgr *store.Manager) *TradeSignalRepository {
	return &TradeSignalRepository{base: newBase[models.TradeSignal](mgr, "trade_signals")}
}

// SignalsByStrategy returns signals for a strategy, newest first. Symbol
// and the time range are optional narrowing filters.
func (r *TradeSignalRepository) SignalsByStrategy(ctx context.Context, strategy, symbol string, start, end *time.Time, limit int64) []models.TradeSignal {
	filter := bson.M{"strategy": strategy}
	if symbol != "" {
		filter["symbol"] = symbol
	}
	return r.FindMany(ctx, timeRangeFilter(filter, start, end), 0, limit, tsDesc())
}

// SignalsBySymbol returns signals for a symbol, newest first, optionally
// narrowed by signal type and time range.
func (r *TradeSignalRepository) SignalsBySymbol(ctx context.Context, symbol string, signalType models.SignalType, start, end *time.Time, limit int64) []models.TradeSignal {
	filter := bson.M{"symbol": symbol}
	if signalType != "" {
		filter["signal_type"] = signalType
	}
	return r.FindMany(ctx, timeRangeFilter(filter, start, end), 0, limit, tsDesc())
}

// CalculatePerformance derives win/loss metrics for a strategy from its
// signal history over an optional window.
func (r *TradeSignalRepository) CalculatePerformance(ctx context.Context, strategy, symbol, timeframe string, start, end *time.Time) *models.StrategyPerformance {
	filter := bson.M{"strategy": strategy}
	if symbol != "" {
		filter["symbol"] = symbol
	}

	signals, err := r.findMany(ctx, timeRangeFilter(filter, start, end), 0, 0,
		bson.D{{Key: "timestamp", Value: 1}})
	if err != nil {
		r.log.WithError(err).Error("performance signal fetch failed")
		return nil
	}
	if len(signals) == 0 {
		return nil
	}

	perf := performanceFromSignals(signals)
	perf.Strategy = strategy
	perf.Symbol = symbol
	perf.Timeframe = timeframe
	return &perf
}

// performanceFromSignals pairs consecutive buy/sell signals into round
// trips and accumulates win/loss statistics. Signals must be in ascending
// timestamp order.
func performanceFromSignals(signals []models.TradeSignal) models.StrategyPerformance {
	var winCount, lossCount int
	var totalProfit, totalLoss float64

	for i := 0; i+1 < len(signals); i++ {
		entry, exit := signals[i], signals[i+1]
		if entry.Type != models.SignalBuy || exit.Type != models.SignalSell {
			continue
		}
		if entry.Price <= 0 {
			continue
		}
		if exit.Price > entry.Price {
			winCount++
			totalProfit += (exit.Price - entry.Price) / entry.Price
		} else {
			lossCount++
			totalLoss += (entry.Price - exit.Price) / entry.Price
		}
	}

	perf := models.StrategyPerformance{
		StartDate:    signals[0].Timestamp,
		EndDate:      signals[len(signals)-1].Timestamp,
		TotalSignals: len(signals),
		WinCount:     winCount,
		LossCount:    lossCount,
	}
	if winCount > 0 {
		perf.AvgWin = totalProfit / float64(winCount)
	}
	if lossCount > 0 {
		perf.AvgLoss = totalLoss / float64(lossCount)
	}
	if totalLoss > 0 {
		perf.ProfitFactor = totalProfit / totalLoss
	} else if totalProfit > 0 {
		perf.ProfitFactor = totalProfit // no losing trades; factor is unbounded
	}
	return perf
}

func (r *TradeSignalRepository) IndexUID() string { return tradeSignalsIndexUID }

// BuildIndexDocuments mirrors the most recent signals. Scalar indicator
// values are flattened to indicator_<name> fields so they stay filterable.
func (r *TradeSignalRepository) BuildIndexDocuments(ctx context.Context) ([]IndexDocument, int, error) {
	signals, err := r.findMany(ctx, bson.M{}, 0, signalSyncLimit, tsDesc())
	if err != nil {
		return nil, 0, err
	}

	docs := make([]IndexDocument, 0, len(signals))
	skipped := 0
	for _, s := range signals {
		if s.Symbol == "" || s.Timestamp.IsZero() {
			skipped++
			continue
		}
		doc := IndexDocument{
			"id":          s.ID.Hex(),
			"symbol":      s.Symbol,
			"timestamp":   isoTime(s.Timestamp),
			"signal_type": string(s.Type),
			"source":      string(s.Source),
			"strategy":    s.Strategy,
			"price":       s.Price,
			"confidence":  s.Confidence,
			"timeframe":   s.Timeframe,
			"tags":        s.Tags,
		}
		for name, value := range s.Indicators {
			switch value.(type) {
			case int, int32, int64, float32, float64, string, bool:
				doc["indicator_"+name] = value
			}
		}
		docs = append(docs, doc)
	}
	return docs, skipped, nil
}

// StrategyPerformanceRepository stores computed performance records.
type StrategyPerformanceRepository struct {
	base[models.StrategyPerformance]
}

func NewStrategyPerformanceRepository(mgr *store.Manager) *StrategyPerformanceRepository {
	return &StrategyPerformanceRepository{base: newBase[models.StrategyPerformance](mgr, "strategy_performance")}
}

// BestStrategies returns the top strategies by profit factor among those
// with at least minSignals signals.
func (r *StrategyPerformanceRepository) BestStrategies(ctx context.Context, topN int64, minSignals int) []models.StrategyPerformance {
	filter := bson.M{"total_signals": bson.M{"$gte": minSignals}}
	return r.FindMany(ctx, filter, 0, topN, bson.D{{Key: "profit_factor", Value: -1}})
}

func (r *StrategyPerformanceRepository) IndexUID() string { return strategyPerfIndexUID }

// BuildIndexDocuments mirrors every performance record and adds the
// derived win_rate so the index can sort on it.
func (r *StrategyPerformanceRepository) BuildIndexDocuments(ctx context.Context) ([]IndexDocument, int, error) {
	records, err := r.findMany(ctx, bson.M{}, 0, 0, nil)
	if err != nil {
		return nil, 0, err
	}

	docs := make([]IndexDocument, 0, len(records))
	skipped := 0
	for _, p := range records {
		if p.Strategy == "" {
			skipped++
			continue
		}
		docs = append(docs, IndexDocument{
			"id":            p.ID.Hex(),
			"strategy":      p.Strategy,
			"symbol":        p.Symbol,
			"start_date":    isoTime(p.StartDate),
			"end_date":      isoTime(p.EndDate),
			"total_signals": p.TotalSignals,
			"win_count":     p.WinCount,
			"loss_count":    p.LossCount,
			"win_rate":      p.WinRate(),
			"profit_factor": p.ProfitFactor,
			"avg_win":       p.AvgWin,
			"avg_loss":      p.AvgLoss,
			"max_drawdown":  p.MaxDrawdown,
			"timeframe":     p.Timeframe,
		})
	}
	return docs, skipped, nil
}
