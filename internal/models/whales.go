package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Network is a supported blockchain network.
type Network string

const (
	NetworkEthereum  Network = "ethereum"
	NetworkBSC       Network = "bsc"
	NetworkPolygon   Network = "polygon"
	NetworkArbitrum  Network = "arbitrum"
	NetworkOptimism  Network = "optimism"
	NetworkAvalanche Network = "avalanche"
	NetworkSolana    Network = "solana"
)

// TransactionType classifies an on-chain transaction.
type TransactionType string

const (
	TxTransfer            TransactionType = "transfer"
	TxSwap                TransactionType = "swap"
	TxLiquidityAdd        TransactionType = "liquidity_add"
	TxLiquidityRemove     TransactionType = "liquidity_remove"
	TxContractInteraction TransactionType = "contract_interaction"
	TxNFTTrade            TransactionType = "nft_trade"
	TxStaking             TransactionType = "staking"
	TxOther               TransactionType = "other"
)

// WhaleTransaction is a large on-chain transaction attributed to a tracked
// wallet. TxHash is unique per network.
type WhaleTransaction struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	WalletAddress string             `bson:"wallet_address" json:"wallet_address"`
	TxHash        string             `bson:"transaction_hash" json:"transaction_hash"`
	Network       Network            `bson:"network" json:"network"`
	Timestamp     time.Time          `bson:"timestamp" json:"timestamp"`
	Type          TransactionType    `bson:"transaction_type" json:"transaction_type"`

	// Token is a token symbol or contract address.
	Token  string  `bson:"token" json:"token"`
	Amount float64 `bson:"amount" json:"amount"`

	// USDValue is the dollar value at transaction time, if known.
	USDValue float64 `bson:"usd_value,omitempty" json:"usd_value,omitempty"`

	ToAddress   string  `bson:"to_address,omitempty" json:"to_address,omitempty"`
	GasFee      float64 `bson:"gas_fee,omitempty" json:"gas_fee,omitempty"`
	BlockNumber int64   `bson:"block_number" json:"block_number"`

	// Significant marks transactions worth surfacing on their own.
	Significant bool     `bson:"significant" json:"significant"`
	Tags        []string `bson:"tags,omitempty" json:"tags,omitempty"`
}

// WhaleWallet is a tracked high-value wallet. FirstSeen <= LastActive.
type WhaleWallet struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Address string             `bson:"address" json:"address"`

	// Name is the known entity name, if the wallet has been identified.
	Name string `bson:"name,omitempty" json:"name,omitempty"`

	Networks      []Network `bson:"networks" json:"networks"`
	TotalValueUSD float64   `bson:"total_value_usd,omitempty" json:"total_value_usd,omitempty"`
	LastActive    time.Time `bson:"last_active,omitempty" json:"last_active,omitempty"`
	FirstSeen     time.Time `bson:"first_seen,omitempty" json:"first_seen,omitempty"`

	Tags          []string `bson:"tags,omitempty" json:"tags,omitempty"`
	IsExchange    bool     `bson:"is_exchange" json:"is_exchange"`
	IsInstitution bool     `bson:"is_institution" json:"is_institution"`

	// WatchLevel ranks importance from 1 (routine) to 5 (critical).
	WatchLevel int `bson:"watch_level" json:"watch_level"`

	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

// TokenHolding is a wallet's position in one token on one network. It has
// no natural primary key; identity is (wallet_address, token, network).
type TokenHolding struct {
	WalletAddress      string    `bson:"wallet_address" json:"wallet_address"`
	Token              string    `bson:"token" json:"token"`
	Network            Network   `bson:"network" json:"network"`
	Amount             float64   `bson:"amount" json:"amount"`
	USDValue           float64   `bson:"usd_value,omitempty" json:"usd_value,omitempty"`
	LastUpdated        time.Time `bson:"last_updated" json:"last_updated"`
	PercentageOfSupply float64   `bson:"percentage_of_supply,omitempty" json:"percentage_of_supply,omitempty"`
}
