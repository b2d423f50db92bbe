package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/whalewatch/searchsync/internal/models"
	"github.com/whalewatch/searchsync/internal/store"
)

const (
	whaleTxIndexUID      = "whale_transactions_index"
	whaleWalletIndexUID  = "whale_wallets_index"
	tokenHoldingIndexUID = "token_holdings_index"

	whaleTxSyncLimit      = 1000
	tokenHoldingSyncLimit = 2000
)

// WhaleTransactionRepository stores large on-chain transactions.
type WhaleTransactionRepository struct {
	base[models.WhaleTransaction]
}

func NewWhaleTransactionRepository(mgr *store.Manager) *WhaleTransactionRepository {
	return &WhaleTransactionRepository{base: newBase[models.WhaleTransaction](mgr, "whale_transactions")}
}

// RecentTransactions returns recent significant transactions, newest
// first, optionally narrowed by network, token and a USD floor.
func (r *WhaleTransactionRepository) RecentTransactions(ctx context.Context, network models.Network, token string, minUSDValue float64, limit int64) []models.WhaleTransaction {
	filter := bson.M{"significant": true}
	if network != "" {
		filter["network"] = network
	}
	if token != "" {
		filter["token"] = token
	}
	if minUSDValue > 0 {
		filter["usd_value"] = bson.M{"$gte": minUSDValue}
	}
	return r.FindMany(ctx, filter, 0, limit, tsDesc())
}

// WalletTransactions returns a wallet's transactions, newest first.
func (r *WhaleTransactionRepository) WalletTransactions(ctx context.Context, walletAddress string, start, end *time.Time, limit int64) []models.WhaleTransaction {
	filter := timeRangeFilter(bson.M{"wallet_address": walletAddress}, start, end)
	return r.FindMany(ctx, filter, 0, limit, tsDesc())
}

// DailyFlow is one day's aggregated token movement.
type DailyFlow struct {
	Date             string  `json:"date"`
	InflowAmount     float64 `json:"inflow_amount"`
	OutflowAmount    float64 `json:"outflow_amount"`
	InflowUSD        float64 `json:"inflow_usd"`
	OutflowUSD       float64 `json:"outflow_usd"`
	NetAmount        float64 `json:"net_amount"`
	NetUSD           float64 `json:"net_usd"`
	TransactionCount int     `json:"transaction_count"`
}

// TokenFlow summarizes a token's net flow over a lookback window.
type TokenFlow struct {
	Token      string      `json:"token"`
	Network    string      `json:"network"`
	PeriodDays int         `json:"period_days"`
	DailyFlows []DailyFlow `json:"daily_flows"`
}

type flowBucket struct {
	ID struct {
		Date   string                 `bson:"date"`
		TxType models.TransactionType `bson:"transaction_type"`
	} `bson:"_id"`
	TotalAmount float64 `bson:"total_amount"`
	TotalUSD    float64 `bson:"total_usd"`
	Count       int     `bson:"count"`
}

// TokenFlow buckets a token's transactions by day and direction inside the
// store's aggregation engine, then folds the buckets into daily in/out/net
// figures. Plain transfers count as inflow, everything else as outflow.
func (r *WhaleTransactionRepository) TokenFlow(ctx context.Context, token string, network models.Network, lookbackDays int) TokenFlow {
	since := time.Now().UTC().AddDate(0, 0, -lookbackDays)

	match := bson.M{"token": token, "timestamp": bson.M{"$gte": since}}
	if network != "" {
		match["network"] = network
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "date", Value: bson.D{{Key: "$dateToString", Value: bson.D{
					{Key: "format", Value: "%Y-%m-%d"},
					{Key: "date", Value: "$timestamp"},
				}}}},
				{Key: "transaction_type", Value: "$transaction_type"},
			}},
			{Key: "total_amount", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
			{Key: "total_usd", Value: bson.D{{Key: "$sum", Value: "$usd_value"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id.date", Value: 1}}}},
	}

	var buckets []flowBucket
	if err := r.aggregateInto(ctx, pipeline, &buckets); err != nil {
		r.log.WithError(err).Error("token flow aggregation failed")
		buckets = nil
	}

	networkLabel := string(network)
	if networkLabel == "" {
		networkLabel = "all"
	}

	return TokenFlow{
		Token:      token,
		Network:    networkLabel,
		PeriodDays: lookbackDays,
		DailyFlows: foldFlowBuckets(buckets),
	}
}

func foldFlowBuckets(buckets []flowBucket) []DailyFlow {
	byDate := make(map[string]*DailyFlow)
	var order []string

	for _, b := range buckets {
		day, ok := byDate[b.ID.Date]
		if !ok {
			day = &DailyFlow{Date: b.ID.Date}
			byDate[b.ID.Date] = day
			order = append(order, b.ID.Date)
		}

		if b.ID.TxType == models.TxTransfer {
			day.InflowAmount += b.TotalAmount
			day.InflowUSD += b.TotalUSD
		} else {
			day.OutflowAmount += b.TotalAmount
			day.OutflowUSD += b.TotalUSD
		}
		day.TransactionCount += b.Count
		day.NetAmount = day.InflowAmount - day.OutflowAmount
		day.NetUSD = day.InflowUSD - day.OutflowUSD
	}

	flows := make([]DailyFlow, 0, len(order))
	for _, date := range order {
		flows = append(flows, *byDate[date])
	}
	return flows
}

func (r *WhaleTransactionRepository) IndexUID() string { return whaleTxIndexUID }

// BuildIndexDocuments mirrors the most recent transactions with enum
// fields as plain strings.
func (r *WhaleTransactionRepository) BuildIndexDocuments(ctx context.Context) ([]IndexDocument, int, error) {
	txs, err := r.findMany(ctx, bson.M{}, 0, whaleTxSyncLimit, tsDesc())
	if err != nil {
		return nil, 0, err
	}

	docs := make([]IndexDocument, 0, len(txs))
	skipped := 0
	for _, tx := range txs {
		if tx.WalletAddress == "" || tx.TxHash == "" {
			skipped++
			continue
		}
		docs = append(docs, IndexDocument{
			"id":               tx.ID.Hex(),
			"wallet_address":   tx.WalletAddress,
			"transaction_hash": tx.TxHash,
			"network":          string(tx.Network),
			"timestamp":        isoTime(tx.Timestamp),
			"transaction_type": string(tx.Type),
			"token":            tx.Token,
			"amount":           tx.Amount,
			"usd_value":        tx.USDValue,
			"block_number":     tx.BlockNumber,
			"significant":      tx.Significant,
			"tags":             tx.Tags,
		})
	}
	return docs, skipped, nil
}

// WhaleWalletRepository stores tracked wallets.
type WhaleWalletRepository struct {
	base[models.WhaleWallet]
}

func NewWhaleWalletRepository(mgr *store.Manager) *WhaleWalletRepository {
	return &WhaleWalletRepository{base: newBase[models.WhaleWallet](mgr, "whale_wallets")}
}

// TopWhales returns the highest-value wallets, optionally narrowed by
// network and the exchange flag.
func (r *WhaleWalletRepository) TopWhales(ctx context.Context, network models.Network, isExchange *bool, limit int64) []models.WhaleWallet {
	filter := bson.M{}
	if network != "" {
		filter["networks"] = network
	}
	if isExchange != nil {
		filter["is_exchange"] = *isExchange
	}
	return r.FindMany(ctx, filter, 0, limit, bson.D{{Key: "total_value_usd", Value: -1}})
}

// WalletsByTag returns wallets carrying a tag, highest value first.
func (r *WhaleWalletRepository) WalletsByTag(ctx context.Context, tag string, limit int64) []models.WhaleWallet {
	return r.FindMany(ctx, bson.M{"tags": tag}, 0, limit, bson.D{{Key: "total_value_usd", Value: -1}})
}

func (r *WhaleWalletRepository) IndexUID() string { return whaleWalletIndexUID }

// BuildIndexDocuments mirrors every tracked wallet.
func (r *WhaleWalletRepository) BuildIndexDocuments(ctx context.Context) ([]IndexDocument, int, error) {
	wallets, err := r.findMany(ctx, bson.M{}, 0, 0, nil)
	if err != nil {
		return nil, 0, err
	}

	docs := make([]IndexDocument, 0, len(wallets))
	skipped := 0
	for _, w := range wallets {
		if w.Address == "" {
			skipped++
			continue
		}
		networks := make([]string, 0, len(w.Networks))
		for _, n := range w.Networks {
			networks = append(networks, string(n))
		}
		docs = append(docs, IndexDocument{
			"id":              w.ID.Hex(),
			"address":         w.Address,
			"name":            w.Name,
			"networks":        networks,
			"total_value_usd": w.TotalValueUSD,
			"first_seen":      isoTime(w.FirstSeen),
			"last_active":     isoTime(w.LastActive),
			"tags":            w.Tags,
			"is_exchange":     w.IsExchange,
			"is_institution":  w.IsInstitution,
			"watch_level":     w.WatchLevel,
		})
	}
	return docs, skipped, nil
}

// TokenHoldingRepository stores per-wallet token positions.
type TokenHoldingRepository struct {
	base[models.TokenHolding]
}

func NewTokenHoldingRepository(mgr *store.Manager) *TokenHoldingRepository {
	return &TokenHoldingRepository{base: newBase[models.TokenHolding](mgr, "token_holdings")}
}

// TopHolders returns the largest positions in a token on a network.
func (r *TokenHoldingRepository) TopHolders(ctx context.Context, token string, network models.Network, limit int64) []models.TokenHolding {
	filter := bson.M{"token": token, "network": network}
	return r.FindMany(ctx, filter, 0, limit, bson.D{{Key: "amount", Value: -1}})
}

// WalletHoldings returns a wallet's positions above an optional USD floor,
// most valuable first.
func (r *TokenHoldingRepository) WalletHoldings(ctx context.Context, walletAddress string, minUSDValue float64) []models.TokenHolding {
	filter := bson.M{"wallet_address": walletAddress}
	if minUSDValue > 0 {
		filter["usd_value"] = bson.M{"$gte": minUSDValue}
	}
	return r.FindMany(ctx, filter, 0, 0, bson.D{{Key: "usd_value", Value: -1}})
}

func (r *TokenHoldingRepository) IndexUID() string { return tokenHoldingIndexUID }

// HoldingDocumentID synthesizes the index identifier for a holding, which
// has no natural primary key.
func HoldingDocumentID(h models.TokenHolding) string {
	return fmt.Sprintf("%s_%s_%s", h.WalletAddress, h.Token, h.Network)
}

// BuildIndexDocuments mirrors holdings under their synthetic identity.
func (r *TokenHoldingRepository) BuildIndexDocuments(ctx context.Context) ([]IndexDocument, int, error) {
	holdings, err := r.findMany(ctx, bson.M{}, 0, tokenHoldingSyncLimit, nil)
	if err != nil {
		return nil, 0, err
	}

	docs := make([]IndexDocument, 0, len(holdings))
	skipped := 0
	for _, h := range holdings {
		if h.WalletAddress == "" || h.Token == "" || h.Network == "" {
			skipped++
			continue
		}
		docs = append(docs, IndexDocument{
			"id":             HoldingDocumentID(h),
			"wallet_address": h.WalletAddress,
			"token":          h.Token,
			"network":        string(h.Network),
			"amount":         h.Amount,
			"usd_value":      h.USDValue,
			"last_updated":   isoTime(h.LastUpdated),
		})
	}
	return docs, skipped, nil
}
