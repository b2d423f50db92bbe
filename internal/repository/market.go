package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/whalewatch/searchsync/internal/models"
	"github.com/whalewatch/searchsync/internal/store"
)

const (
	marketDataIndexUID = "market_data_index"
	orderBookIndexUID  = "order_book_index"
	liquidityIndexUID  = "liquidity_zones_index"

	candleSyncLimit    = 1000
	orderBookSyncLimit = 100
)

// MarketDataRepository stores OHLCV candles.
type MarketDataRepository struct {
	base[models.MarketCandle]
}

func NewMarketDataRepository(mgr *store.Manager) *MarketDataRepository {
	return &MarketDataRepository{base: newBase[models.MarketCandle](mgr, "market_data")}
}

// LatestCandle returns the most recent candle for a symbol and interval.
func (r *MarketDataRepository) LatestCandle(ctx context.Context, symbol, interval string) *models.MarketCandle {
	result, err := r.findOne(ctx,
		bson.M{"symbol": symbol, "interval": interval},
		findOneSortedBy(tsDesc()))
	if err != nil {
		r.log.WithError(err).Error("latest candle lookup failed")
		return nil
	}
	return result
}

// Candles returns candles for a symbol in an optional time range, oldest
// first.
func (r *MarketDataRepository) Candles(ctx context.Context, symbol, interval string, start, end *time.Time, limit int64) []models.MarketCandle {
	filter := timeRangeFilter(bson.M{"symbol": symbol, "interval": interval}, start, end)
	return r.FindMany(ctx, filter, 0, limit, bson.D{{Key: "timestamp", Value: 1}})
}

// Symbols returns the distinct symbols present in the collection.
func (r *MarketDataRepository) Symbols(ctx context.Context) []string {
	coll, err := r.collection(ctx)
	if err != nil {
		r.log.WithError(err).Error("symbols lookup failed")
		return nil
	}

	raw, err := coll.Distinct(ctx, "symbol", bson.M{})
	if err != nil {
		r.log.WithError(err).Error("symbols lookup failed")
		return nil
	}

	symbols := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

func (r *MarketDataRepository) IndexUID() string { return marketDataIndexUID }

// BuildIndexDocuments flattens the latest candle per (symbol, interval)
// into search documents. Returns the documents, the number of records
// skipped for being untransformable, and any fetch error.
func (r *MarketDataRepository) BuildIndexDocuments(ctx context.Context) ([]IndexDocument, int, error) {
	groupKey := bson.D{
		{Key: "symbol", Value: "$symbol"},
		{Key: "interval", Value: "$interval"},
	}
	candles, err := r.latestPerGroup(ctx, groupKey, candleSyncLimit)
	if err != nil {
		return nil, 0, err
	}

	docs := make([]IndexDocument, 0, len(candles))
	skipped := 0
	for _, c := range candles {
		if c.Symbol == "" || c.Timestamp.IsZero() {
			skipped++
			continue
		}
		docs = append(docs, IndexDocument{
			"id":        c.ID.Hex(),
			"symbol":    c.Symbol,
			"interval":  c.Interval,
			"timestamp": isoTime(c.Timestamp),
			"open":      c.Open,
			"high":      c.High,
			"low":       c.Low,
			"close":     c.Close,
			"volume":    c.Volume,
			"source":    c.Source,
		})
	}
	return docs, skipped, nil
}

// OrderBookRepository stores order book snapshots.
type OrderBookRepository struct {
	base[models.OrderBookSnapshot]
}

func NewOrderBookRepository(mgr *store.Manager) *OrderBookRepository {
	return &OrderBookRepository{base: newBase[models.OrderBookSnapshot](mgr, "order_book")}
}

// LatestSnapshot returns the most recent order book for a symbol.
func (r *OrderBookRepository) LatestSnapshot(ctx context.Context, symbol string) *models.OrderBookSnapshot {
	result, err := r.findOne(ctx, bson.M{"symbol": symbol}, findOneSortedBy(tsDesc()))
	if err != nil {
		r.log.WithError(err).Error("latest order book lookup failed")
		return nil
	}
	return result
}

func (r *OrderBookRepository) IndexUID() string { return orderBookIndexUID }

// BuildIndexDocuments keeps the latest snapshot per symbol and flattens
// bid/ask levels into parallel price arrays so they stay filterable.
func (r *OrderBookRepository) BuildIndexDocuments(ctx context.Context) ([]IndexDocument, int, error) {
	snapshots, err := r.latestPerGroup(ctx, "$symbol", orderBookSyncLimit)
	if err != nil {
		return nil, 0, err
	}

	docs := make([]IndexDocument, 0, len(snapshots))
	skipped := 0
	for _, ob := range snapshots {
		if ob.Symbol == "" || ob.Timestamp.IsZero() {
			skipped++
			continue
		}
		docs = append(docs, flattenOrderBook(ob))
	}
	return docs, skipped, nil
}

func flattenOrderBook(ob models.OrderBookSnapshot) IndexDocument {
	bidPrices := make([]float64, 0, len(ob.Bids))
	for _, lvl := range ob.Bids {
		bidPrices = append(bidPrices, lvl.Price)
	}
	askPrices := make([]float64, 0, len(ob.Asks))
	for _, lvl := range ob.Asks {
		askPrices = append(askPrices, lvl.Price)
	}

	return IndexDocument{
		"id":         ob.ID.Hex(),
		"symbol":     ob.Symbol,
		"timestamp":  isoTime(ob.Timestamp),
		"bid_prices": bidPrices,
		"ask_prices": askPrices,
		"bid_depth":  len(ob.Bids),
		"ask_depth":  len(ob.Asks),
		"source":     ob.Source,
	}
}

// LiquidityZoneRepository stores detected liquidity zones.
type LiquidityZoneRepository struct {
	base[models.LiquidityZone]
}

func NewLiquidityZoneRepository(mgr *store.Manager) *LiquidityZoneRepository {
	return &LiquidityZoneRepository{base: newBase[models.LiquidityZone](mgr, "liquidity_zones")}
}

// ActiveZones returns zones whose price band overlaps the current price
// within a relative buffer, strongest first.
func (r *LiquidityZoneRepository) ActiveZones(ctx context.Context, symbol string, currentPrice, bufferPct float64) []models.LiquidityZone {
	buffer := currentPrice * bufferPct
	filter := bson.M{
		"symbol":     symbol,
		"price_low":  bson.M{"$lte": currentPrice + buffer},
		"price_high": bson.M{"$gte": currentPrice - buffer},
	}
	return r.FindMany(ctx, filter, 0, 0, bson.D{{Key: "strength", Value: -1}})
}

func (r *LiquidityZoneRepository) IndexUID() string { return liquidityIndexUID }

// BuildIndexDocuments mirrors every zone; the collection is low cardinality.
func (r *LiquidityZoneRepository) BuildIndexDocuments(ctx context.Context) ([]IndexDocument, int, error) {
	zones, err := r.findMany(ctx, bson.M{}, 0, 0, nil)
	if err != nil {
		return nil, 0, err
	}

	docs := make([]IndexDocument, 0, len(zones))
	skipped := 0
	for _, z := range zones {
		if z.Symbol == "" || z.PriceLow > z.PriceHigh {
			skipped++
			continue
		}
		docs = append(docs, IndexDocument{
			"id":             z.ID.Hex(),
			"symbol":         z.Symbol,
			"start_time":     isoTime(z.StartTime),
			"end_time":       isoTime(z.EndTime),
			"price_low":      z.PriceLow,
			"price_high":     z.PriceHigh,
			"price_band":     fmt.Sprintf("%g-%g", z.PriceLow, z.PriceHigh),
			"avg_bid_volume": z.AvgBidVolume,
			"avg_ask_volume": z.AvgAskVolume,
			"strength":       z.Strength,
			"tags":           z.Tags,
		})
	}
	return docs, skipped, nil
}
