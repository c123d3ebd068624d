package monitor

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/poanetwork/escrow-monitor/config"
	"github.com/poanetwork/escrow-monitor/entity"
	"github.com/poanetwork/escrow-monitor/ethclient"
)

type Evaluator struct {
	l1Client ethclient.Client
	reader   *ChainReader
	strategy config.ReadStrategy
}

func NewEvaluator(l1Client ethclient.Client, reader *ChainReader, strategy config.ReadStrategy) *Evaluator {
	return &Evaluator{
		l1Client: l1Client,
		reader:   reader,
		strategy: strategy,
	}
}

// Evaluate checks l1Balance(escrow) >= l2Supply for the route. Both reads must succeed,
// otherwise the first failure is returned and no result is produced.
func (e *Evaluator) Evaluate(ctx context.Context, route *Route, direction entity.Direction, event *entity.TransferEvent) (*entity.InvariantResult, error) {
	var l1Block uint
	if e.strategy == config.ReadStrategyPinned {
		l1Block = event.BlockNumber
	}

	var balance, supply *Amount
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		balance, err = e.reader.ReadBalance(gctx, e.l1Client, route.L1TokenAddress, route.L1EscrowAddress, l1Block)
		return err
	})
	g.Go(func() error {
		var err error
		supply, err = e.reader.ReadTotalSupply(gctx, route.L2Client, route.L2TokenAddress, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &entity.InvariantResult{
		RouteID:       route.ID,
		Direction:     direction,
		L1Balance:     balance.Value,
		L2Supply:      supply.Value,
		BlockNumber:   balance.BlockNumber,
		L2BlockNumber: supply.BlockNumber,
		Violated:      balance.Value.Cmp(supply.Value) < 0,
	}, nil
}
