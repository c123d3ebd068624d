package monitor

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/poanetwork/escrow-monitor/contract"
	"github.com/poanetwork/escrow-monitor/ethclient"
	"github.com/poanetwork/escrow-monitor/monitor/cache"
)

const methodBlockNumber = "eth_blockNumber"

type (
	BalanceCache = cache.Cache[cache.BalanceQuery, *big.Int]
	SupplyCache  = cache.Cache[cache.SupplyQuery, *big.Int]
)

// Amount is a token quantity together with the block it was read at.
type Amount struct {
	Value       *big.Int
	BlockNumber uint
}

// ChainReader reads token quantities through the consistency caches.
// Values handed out are copies, cached entries are never exposed.
type ChainReader struct {
	balances *BalanceCache
	supplies *SupplyCache
}

func NewChainReader(balances *BalanceCache, supplies *SupplyCache) *ChainReader {
	return &ChainReader{
		balances: balances,
		supplies: supplies,
	}
}

// ReadBalance returns balanceOf(holder) of token. blockNumber 0 means the chain head
// as currently reported by the client.
func (r *ChainReader) ReadBalance(ctx context.Context, client ethclient.Client, token, holder common.Address, blockNumber uint) (*Amount, error) {
	blockNumber, err := r.resolveBlock(ctx, client, token, blockNumber)
	if err != nil {
		return nil, err
	}
	key := cache.BalanceQuery{
		ChainID:     client.ChainID(),
		Token:       token,
		Holder:      holder,
		BlockNumber: blockNumber,
	}
	v, err := r.balances.GetOrCompute(ctx, key, func(ctx context.Context) (*big.Int, error) {
		return contract.NewTokenContract(client, token).BalanceOf(ctx, holder, blockNumber)
	})
	if err != nil {
		return nil, err
	}
	return &Amount{Value: new(big.Int).Set(v), BlockNumber: blockNumber}, nil
}

// ReadTotalSupply returns totalSupply() of token. blockNumber 0 means the chain head.
func (r *ChainReader) ReadTotalSupply(ctx context.Context, client ethclient.Client, token common.Address, blockNumber uint) (*Amount, error) {
	blockNumber, err := r.resolveBlock(ctx, client, token, blockNumber)
	if err != nil {
		return nil, err
	}
	key := cache.SupplyQuery{
		ChainID:     client.ChainID(),
		Token:       token,
		BlockNumber: blockNumber,
	}
	v, err := r.supplies.GetOrCompute(ctx, key, func(ctx context.Context) (*big.Int, error) {
		return contract.NewTokenContract(client, token).TotalSupply(ctx, blockNumber)
	})
	if err != nil {
		return nil, err
	}
	return &Amount{Value: new(big.Int).Set(v), BlockNumber: blockNumber}, nil
}

func (r *ChainReader) resolveBlock(ctx context.Context, client ethclient.Client, token common.Address, blockNumber uint) (uint, error) {
	if blockNumber > 0 {
		return blockNumber, nil
	}
	head, err := client.BlockNumber(ctx)
	if err != nil {
		return 0, &contract.ReadError{
			ChainID:  client.ChainID(),
			Contract: token,
			Method:   methodBlockNumber,
			Err:      fmt.Errorf("can't resolve chain head: %w", err),
		}
	}
	return head, nil
}
