package alerts

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"
	"github.com/lib/pq"

	"github.com/poanetwork/escrow-monitor/db"
)

type DBAlertsProvider struct {
	db *db.DB
}

func NewDBAlertsProvider(db *db.DB) *DBAlertsProvider {
	return &DBAlertsProvider{
		db: db,
	}
}

type InvariantViolation struct {
	ChainID         string      `db:"chain_id" json:"chain_id"`
	BlockNumber     uint64      `db:"block_number" json:"block_number,string"`
	Age             uint64      `db:"age" json:"_value,string"`
	TransactionHash common.Hash `db:"transaction_hash" json:"tx_hash"`
	L1Balance       string      `db:"l1_balance" json:"l1_balance"`
	L2Supply        string      `db:"l2_supply" json:"l2_supply"`
}

func (p *DBAlertsProvider) FindInvariantViolations(ctx context.Context, params *AlertJobParams) (interface{}, error) {
	q, args, err := sq.Select(
		"f.chain_id", "f.block_number", "f.transaction_hash",
		"f.metadata->>'l1Balance' as l1_balance",
		"f.metadata->>'l2Supply' as l2_supply",
		"EXTRACT(EPOCH FROM now() - f.created_at)::int as age",
	).
		From("findings f").
		Where(sq.Eq{"f.route_id": params.RouteID, "f.chain_id": params.ChainID, "f.severity": string(SeverityCritical)}).
		Where(sq.Expr("f.created_at >= now() - ?::interval", fmt.Sprintf("%d seconds", int64(params.Window.Seconds())))).
		OrderBy("f.block_number DESC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	res := make([]InvariantViolation, 0, 5)
	err = p.db.SelectContext(ctx, &res, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't select alerts: %w", err)
	}
	return res, nil
}

type LargeWithdrawal struct {
	ChainID         string      `db:"chain_id" json:"chain_id"`
	BlockNumber     uint64      `db:"block_number" json:"block_number,string"`
	Age             uint64      `db:"age" json:"_value,string"`
	TransactionHash common.Hash `db:"transaction_hash" json:"tx_hash"`
	AlertID         string      `db:"alert_id" json:"alert_id"`
	Amount          string      `db:"amount" json:"amount"`
}

func (p *DBAlertsProvider) FindLargeWithdrawals(ctx context.Context, params *AlertJobParams) (interface{}, error) {
	query := sq.Select(
		"f.chain_id", "f.block_number", "f.transaction_hash", "f.alert_id",
		"f.metadata->>'amt' as amount",
		"EXTRACT(EPOCH FROM now() - f.created_at)::int as age",
	).
		From("findings f").
		Where(sq.Eq{"f.route_id": params.RouteID, "f.chain_id": params.ChainID}).
		Where(sq.Like{"f.alert_id": "%-" + WithdrawalAlertSuffix}).
		Where(sq.Expr("(f.metadata->>'amt')::numeric >= ?::numeric", params.Threshold)).
		Where(sq.Expr("f.created_at >= now() - ?::interval", fmt.Sprintf("%d seconds", int64(params.Window.Seconds()))))
	if len(params.IgnoredAddresses) > 0 {
		ignored := make(pq.StringArray, len(params.IgnoredAddresses))
		for i, addr := range params.IgnoredAddresses {
			ignored[i] = strings.ToLower(addr.Hex())
		}
		query = query.Where(sq.Expr("NOT (lower(f.metadata->>'dst') = ANY(?))", ignored))
	}
	q, args, err := query.
		OrderBy("f.block_number DESC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	res := make([]LargeWithdrawal, 0, 5)
	err = p.db.SelectContext(ctx, &res, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't select alerts: %w", err)
	}
	return res, nil
}
