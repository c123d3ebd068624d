package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Finding is a stored alert together with the transfer that triggered it.
type Finding struct {
	ID              uint        `db:"id" json:"-"`
	AlertID         string      `db:"alert_id" json:"alertId"`
	RouteID         string      `db:"route_id" json:"routeId"`
	Name            string      `db:"name" json:"name"`
	Description     string      `db:"description" json:"description"`
	Severity        string      `db:"severity" json:"severity"`
	Kind            string      `db:"kind" json:"type"`
	Metadata        []byte      `db:"metadata" json:"-"`
	ChainID         string      `db:"chain_id" json:"chainId"`
	BlockNumber     uint        `db:"block_number" json:"blockNumber"`
	LogIndex        uint        `db:"log_index" json:"logIndex"`
	TransactionHash common.Hash `db:"transaction_hash" json:"transactionHash"`
	CreatedAt       *time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       *time.Time  `db:"updated_at" json:"-"`
}

type FindingsFilter struct {
	AlertID  string
	RouteID  string
	Severity string
	Since    *time.Time
	Limit    uint64
}

type FindingsRepo interface {
	Ensure(ctx context.Context, findings ...*Finding) error
	Find(ctx context.Context, filter *FindingsFilter) ([]*Finding, error)
	FindByTxHash(ctx context.Context, txHash common.Hash) ([]*Finding, error)
}
