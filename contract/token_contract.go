package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/poanetwork/escrow-monitor/contract/abi"
	"github.com/poanetwork/escrow-monitor/ethclient"
)

// ReadError is returned when a token quantity can't be read or decoded.
type ReadError struct {
	ChainID  string
	Contract common.Address
	Method   string
	Err      error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("can't read %s of contract %s on chain %s: %v", e.Method, e.Contract, e.ChainID, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

type TokenContract struct {
	*Contract
}

func NewTokenContract(client ethclient.Client, addr common.Address) *TokenContract {
	return &TokenContract{NewContract(client, addr, abi.ERC20ABI)}
}

func (c *TokenContract) BalanceOf(ctx context.Context, holder common.Address, blockNumber uint) (*big.Int, error) {
	return c.readAmount(ctx, blockNumber, "balanceOf", holder)
}

func (c *TokenContract) TotalSupply(ctx context.Context, blockNumber uint) (*big.Int, error) {
	return c.readAmount(ctx, blockNumber, "totalSupply")
}

func (c *TokenContract) readAmount(ctx context.Context, blockNumber uint, method string, args ...interface{}) (*big.Int, error) {
	values, err := c.Call(ctx, blockNumber, method, args...)
	if err == nil && len(values) != 1 {
		err = fmt.Errorf("unexpected number of return values %d", len(values))
	}
	if err != nil {
		return nil, &ReadError{ChainID: c.ChainID(), Contract: c.Address, Method: method, Err: err}
	}
	amount, ok := values[0].(*big.Int)
	if !ok {
		return nil, &ReadError{
			ChainID:  c.ChainID(),
			Contract: c.Address,
			Method:   method,
			Err:      fmt.Errorf("unexpected return type %T", values[0]),
		}
	}
	return amount, nil
}
