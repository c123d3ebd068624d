package monitor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poanetwork/escrow-monitor/config"
	"github.com/poanetwork/escrow-monitor/contract"
)

func TestChainReader_ReadBalanceAtHead(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.ReadStrategyHead, nil)
	env.l1.SetBalance(l1Token, optimismEscrow, 1000)

	amount, err := env.reader.ReadBalance(context.Background(), env.l1, l1Token, optimismEscrow, 0)
	require.NoError(t, err)
	require.Equal(t, "1000", amount.Value.String())
	require.Equal(t, uint(100), amount.BlockNumber)

	calls := env.l1.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, uint(100), calls[0].BlockNumber)
}

func TestChainReader_ReadPinned(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.ReadStrategyHead, nil)
	env.l1.SetTotalSupply(l1Token, 42)

	amount, err := env.reader.ReadTotalSupply(context.Background(), env.l1, l1Token, 90)
	require.NoError(t, err)
	require.Equal(t, "42", amount.Value.String())
	require.Equal(t, uint(90), amount.BlockNumber)
	require.Equal(t, uint(90), env.l1.Calls()[0].BlockNumber)
}

func TestChainReader_ReturnsCopies(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.ReadStrategyHead, nil)
	env.l1.SetBalance(l1Token, optimismEscrow, 1000)

	amount, err := env.reader.ReadBalance(context.Background(), env.l1, l1Token, optimismEscrow, 0)
	require.NoError(t, err)
	amount.Value.SetInt64(1)

	amount, err = env.reader.ReadBalance(context.Background(), env.l1, l1Token, optimismEscrow, 0)
	require.NoError(t, err)
	require.Equal(t, "1000", amount.Value.String())
	require.Equal(t, 1, env.l1.CallCount("balanceOf"))
}

func TestChainReader_Errors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.ReadStrategyHead, nil)
	errHead := errors.New("connection refused")
	env.l1.SetHeadError(errHead)

	_, err := env.reader.ReadBalance(context.Background(), env.l1, l1Token, optimismEscrow, 0)
	var readErr *contract.ReadError
	require.ErrorAs(t, err, &readErr)
	require.Equal(t, "1", readErr.ChainID)
	require.ErrorIs(t, err, errHead)

	env.l1.SetHeadError(nil)
	env.l1.SetReverts(l1Token)
	_, err = env.reader.ReadTotalSupply(context.Background(), env.l1, l1Token, 0)
	require.ErrorAs(t, err, &readErr)
	require.Equal(t, "totalSupply", readErr.Method)
	require.Equal(t, l1Token, readErr.Contract)
}
