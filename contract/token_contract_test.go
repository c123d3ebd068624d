package contract_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/poanetwork/escrow-monitor/contract"
	"github.com/poanetwork/escrow-monitor/ethclient/ethclienttest"
)

var (
	token  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	escrow = common.HexToAddress("0x467194771dAe2967Aef3ECbEDD3Bf9a310C76C65")
)

func TestTokenContract_BalanceOf(t *testing.T) {
	t.Parallel()

	client := ethclienttest.NewClient("1", 100)
	client.SetBalance(token, escrow, 900)

	c := contract.NewTokenContract(client, token)
	balance, err := c.BalanceOf(context.Background(), escrow, 95)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(900), balance)
	require.Equal(t, []ethclienttest.Call{{Contract: token, Method: "balanceOf", BlockNumber: 95}}, client.Calls())
}

func TestTokenContract_TotalSupply(t *testing.T) {
	t.Parallel()

	client := ethclienttest.NewClient("10", 100)
	client.SetTotalSupply(token, 1000)

	c := contract.NewTokenContract(client, token)
	supply, err := c.TotalSupply(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1000), supply)
}

func TestTokenContract_ReadError(t *testing.T) {
	t.Parallel()

	client := ethclienttest.NewClient("10", 100)
	client.SetReverts(token)

	c := contract.NewTokenContract(client, token)
	_, err := c.TotalSupply(context.Background(), 100)

	var readErr *contract.ReadError
	require.True(t, errors.As(err, &readErr))
	require.Equal(t, "10", readErr.ChainID)
	require.Equal(t, token, readErr.Contract)
	require.Equal(t, "totalSupply", readErr.Method)
	require.ErrorIs(t, err, ethclienttest.ErrReverted)
	require.Contains(t, err.Error(), token.String())
}

func TestTokenContract_UndecodableResponse(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		Name string
		Raw  []byte
	}{
		{"empty response", []byte{}},
		{"short response", []byte{0x01, 0x02, 0x03}},
	} {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			t.Parallel()

			client := ethclienttest.NewClient("42161", 100)
			client.SetRawResponse(token, test.Raw)
			c := contract.NewTokenContract(client, token)

			_, err := c.BalanceOf(context.Background(), escrow, 100)
			var readErr *contract.ReadError
			require.ErrorAs(t, err, &readErr)
			require.Equal(t, "42161", readErr.ChainID)
			require.Equal(t, token, readErr.Contract)
			require.Equal(t, "balanceOf", readErr.Method)
			require.Contains(t, err.Error(), "cannot decode balanceOf(...) result")

			_, err = c.TotalSupply(context.Background(), 100)
			require.ErrorAs(t, err, &readErr)
			require.Equal(t, "42161", readErr.ChainID)
			require.Equal(t, token, readErr.Contract)
			require.Equal(t, "totalSupply", readErr.Method)
			require.Contains(t, err.Error(), "cannot decode totalSupply(...) result")
		})
	}
}
