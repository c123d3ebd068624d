package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/poanetwork/escrow-monitor/db"
	"github.com/poanetwork/escrow-monitor/entity"
)

const defaultFindingsLimit = 100

type findingsRepo basePostgresRepo

func NewFindingsRepo(table string, db *db.DB) entity.FindingsRepo {
	return (*findingsRepo)(newBasePostgresRepo(table, db))
}

func (r *findingsRepo) Ensure(ctx context.Context, findings ...*entity.Finding) error {
	if len(findings) == 0 {
		return nil
	}
	builder := psql.Insert(r.table).
		Columns("alert_id", "route_id", "name", "description", "severity", "kind", "metadata", "chain_id", "block_number", "log_index", "transaction_hash")
	for _, f := range findings {
		builder = builder.Values(f.AlertID, f.RouteID, f.Name, f.Description, f.Severity, f.Kind, f.Metadata, f.ChainID, f.BlockNumber, f.LogIndex, f.TransactionHash)
	}
	q, args, err := builder.
		Suffix("ON CONFLICT (chain_id, transaction_hash, log_index, alert_id) DO UPDATE SET updated_at = NOW(), metadata = EXCLUDED.metadata").
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	ids := make([]uint, 0, len(findings))
	err = r.db.SelectContext(ctx, &ids, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert findings: %w", err)
	}
	if len(ids) != len(findings) {
		return fmt.Errorf("returned different number of ids then inserted, expected %d, got %d", len(findings), len(ids))
	}
	for i, id := range ids {
		findings[i].ID = id
	}
	return nil
}

func (r *findingsRepo) Find(ctx context.Context, filter *entity.FindingsFilter) ([]*entity.Finding, error) {
	builder := psql.Select("*").
		From(r.table)
	if filter.AlertID != "" {
		builder = builder.Where(sq.Eq{"alert_id": filter.AlertID})
	}
	if filter.RouteID != "" {
		builder = builder.Where(sq.Eq{"route_id": filter.RouteID})
	}
	if filter.Severity != "" {
		builder = builder.Where(sq.Eq{"severity": filter.Severity})
	}
	if filter.Since != nil {
		builder = builder.Where(sq.GtOrEq{"created_at": *filter.Since})
	}
	limit := filter.Limit
	if limit == 0 {
		limit = defaultFindingsLimit
	}
	q, args, err := builder.
		OrderBy("block_number DESC", "log_index DESC", "id DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	findings := make([]*entity.Finding, 0, 10)
	err = r.db.SelectContext(ctx, &findings, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't find findings: %w", err)
	}
	return findings, nil
}

func (r *findingsRepo) FindByTxHash(ctx context.Context, txHash common.Hash) ([]*entity.Finding, error) {
	q, args, err := psql.Select("*").
		From(r.table).
		Where(sq.Eq{"transaction_hash": txHash}).
		OrderBy("log_index", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	findings := make([]*entity.Finding, 0, 4)
	err = r.db.SelectContext(ctx, &findings, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get findings by tx hash: %w", err)
	}
	return findings, nil
}
