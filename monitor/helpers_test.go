package monitor_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/poanetwork/escrow-monitor/config"
	"github.com/poanetwork/escrow-monitor/contract/abi"
	"github.com/poanetwork/escrow-monitor/entity"
	"github.com/poanetwork/escrow-monitor/ethclient/ethclienttest"
	"github.com/poanetwork/escrow-monitor/logging"
	"github.com/poanetwork/escrow-monitor/monitor"
	"github.com/poanetwork/escrow-monitor/monitor/alerts"
	"github.com/poanetwork/escrow-monitor/monitor/cache"
)

var (
	l1Token        = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	l2Token        = common.HexToAddress("0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1")
	optimismEscrow = common.HexToAddress("0x467194771dAe2967Aef3ECbEDD3Bf9a310C76C65")
	arbitrumEscrow = common.HexToAddress("0xA10c7CE4b876998858b1a9E12b10092229539400")
	alice          = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob            = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

type testEnv struct {
	l1        *ethclienttest.Client
	optimism  *ethclienttest.Client
	arbitrum  *ethclienttest.Client
	routes    []*monitor.Route
	reader    *monitor.ChainReader
	evaluator *monitor.Evaluator
	handler   *monitor.Handler
}

func newTestEnv(t *testing.T, strategy config.ReadStrategy, publisher alerts.Publisher) *testEnv {
	t.Helper()

	env := &testEnv{
		l1:       ethclienttest.NewClient("1", 100),
		optimism: ethclienttest.NewClient("10", 5000),
		arbitrum: ethclienttest.NewClient("42161", 7000),
	}
	env.routes = []*monitor.Route{
		{
			ID:              "optimism",
			Name:            "Optimism",
			AlertPrefix:     "OPTSM",
			ChainID:         "10",
			L1EscrowAddress: optimismEscrow,
			L1TokenAddress:  l1Token,
			L2TokenAddress:  l2Token,
			L2Client:        env.optimism,
		},
		{
			ID:              "arbitrum",
			Name:            "Arbitrum",
			AlertPrefix:     "ARBTM",
			ChainID:         "42161",
			L1EscrowAddress: arbitrumEscrow,
			L1TokenAddress:  l1Token,
			L2TokenAddress:  l2Token,
			L2Client:        env.arbitrum,
		},
	}
	balances, err := cache.New[cache.BalanceQuery, *big.Int]("test_balance", 100)
	require.NoError(t, err)
	supplies, err := cache.New[cache.SupplyQuery, *big.Int]("test_supply", 100)
	require.NoError(t, err)
	env.reader = monitor.NewChainReader(balances, supplies)
	env.evaluator = monitor.NewEvaluator(env.l1, env.reader, strategy)
	env.handler = monitor.NewHandler(logging.Discard(), env.routes, env.evaluator, alerts.NewEmitter("Dai"), publisher)
	return env
}

func transferEvent(src, dst common.Address, amount int64, blockNumber uint) *entity.TransferEvent {
	return &entity.TransferEvent{
		ChainID:         "1",
		Token:           l1Token,
		Source:          src,
		Destination:     dst,
		Amount:          big.NewInt(amount),
		BlockNumber:     blockNumber,
		TransactionHash: common.BigToHash(big.NewInt(int64(blockNumber))),
	}
}

func transferLog(src, dst common.Address, amount int64, blockNumber uint64, index uint) types.Log {
	return types.Log{
		Address:     l1Token,
		Topics:      []common.Hash{abi.TransferEventSignature, src.Hash(), dst.Hash()},
		Data:        common.LeftPadBytes(big.NewInt(amount).Bytes(), 32),
		BlockNumber: blockNumber,
		TxHash:      common.BigToHash(new(big.Int).SetUint64(blockNumber*1000 + uint64(index))),
		Index:       index,
	}
}
