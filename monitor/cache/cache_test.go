package cache_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/poanetwork/escrow-monitor/monitor/cache"
)

var (
	ctx    = context.Background()
	dai    = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	l2Dai  = common.HexToAddress("0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1")
	escrow = common.HexToAddress("0x467194771dAe2967Aef3ECbEDD3Bf9a310C76C65")
)

func constant(v int64, calls *int32) func(context.Context) (*big.Int, error) {
	return func(context.Context) (*big.Int, error) {
		atomic.AddInt32(calls, 1)
		return big.NewInt(v), nil
	}
}

func TestCache_GetOrCompute(t *testing.T) {
	t.Parallel()

	c, err := cache.New[cache.BalanceQuery, *big.Int]("balance", 10)
	require.NoError(t, err)

	var calls int32
	key := cache.BalanceQuery{ChainID: "1", Token: dai, Holder: escrow, BlockNumber: 100}
	v, err := c.GetOrCompute(ctx, key, constant(900, &calls))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(900), v)

	v, err = c.GetOrCompute(ctx, key, constant(901, &calls))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(900), v)
	require.EqualValues(t, 1, calls)

	next := key
	next.BlockNumber = 101
	v, err = c.GetOrCompute(ctx, next, constant(901, &calls))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(901), v)
	require.EqualValues(t, 2, calls)
}

func TestCache_DistinctKeys(t *testing.T) {
	t.Parallel()

	c, err := cache.New[cache.SupplyQuery, *big.Int]("supply", 10)
	require.NoError(t, err)

	var calls int32
	optimism := cache.SupplyQuery{ChainID: "10", Token: l2Dai, BlockNumber: 100}
	arbitrum := cache.SupplyQuery{ChainID: "42161", Token: l2Dai, BlockNumber: 100}
	require.NotEqual(t, optimism.String(), arbitrum.String())

	v, err := c.GetOrCompute(ctx, optimism, constant(1000, &calls))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1000), v)
	v, err = c.GetOrCompute(ctx, arbitrum, constant(2000, &calls))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(2000), v)
	require.EqualValues(t, 2, calls)
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	c, err := cache.New[cache.SupplyQuery, *big.Int]("supply", 10)
	require.NoError(t, err)

	key := cache.SupplyQuery{ChainID: "10", Token: l2Dai, BlockNumber: 5}
	failure := errors.New("boom")
	_, err = c.GetOrCompute(ctx, key, func(context.Context) (*big.Int, error) {
		return nil, failure
	})
	require.ErrorIs(t, err, failure)
	_, ok := c.Get(key)
	require.False(t, ok)

	var calls int32
	v, err := c.GetOrCompute(ctx, key, constant(7, &calls))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(7), v)
	require.EqualValues(t, 1, calls)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c, err := cache.New[cache.SupplyQuery, *big.Int]("supply", 2)
	require.NoError(t, err)

	var calls int32
	keys := make([]cache.SupplyQuery, 3)
	for i := range keys {
		keys[i] = cache.SupplyQuery{ChainID: "10", Token: l2Dai, BlockNumber: uint(i)}
	}
	_, _ = c.GetOrCompute(ctx, keys[0], constant(0, &calls))
	_, _ = c.GetOrCompute(ctx, keys[1], constant(1, &calls))
	_, ok := c.Get(keys[0])
	require.True(t, ok)
	_, _ = c.GetOrCompute(ctx, keys[2], constant(2, &calls))

	require.Equal(t, 2, c.Len())
	_, ok = c.Get(keys[1])
	require.False(t, ok)
	_, ok = c.Get(keys[0])
	require.True(t, ok)
}

func TestCache_ConcurrentMissesShareComputation(t *testing.T) {
	t.Parallel()

	c, err := cache.New[cache.BalanceQuery, *big.Int]("balance", 10)
	require.NoError(t, err)

	key := cache.BalanceQuery{ChainID: "1", Token: dai, Holder: escrow, BlockNumber: 100}
	var calls int32
	release := make(chan struct{})
	compute := func(context.Context) (*big.Int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return big.NewInt(42), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrCompute(ctx, key, compute)
			require.NoError(t, err)
			require.Equal(t, big.NewInt(42), v)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, calls)
}

func TestNew_InvalidSize(t *testing.T) {
	t.Parallel()

	_, err := cache.New[cache.SupplyQuery, *big.Int]("supply", 0)
	require.Error(t, err)
}

func TestCache_CancelledWaiterDoesNotFailOthers(t *testing.T) {
	t.Parallel()

	c, err := cache.New[cache.SupplyQuery, *big.Int]("supply", 10)
	require.NoError(t, err)

	key := cache.SupplyQuery{ChainID: "10", Token: l2Dai, BlockNumber: 5000}
	release := make(chan struct{})
	started := make(chan struct{})
	var calls int32
	compute := func(computeCtx context.Context) (*big.Int, error) {
		atomic.AddInt32(&calls, 1)
		close(started)
		select {
		case <-release:
			return big.NewInt(900), nil
		case <-computeCtx.Done():
			return nil, computeCtx.Err()
		}
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.GetOrCompute(firstCtx, key, compute)
		firstErr <- err
	}()
	<-started

	type result struct {
		v   *big.Int
		err error
	}
	second := make(chan result, 1)
	go func() {
		v, err := c.GetOrCompute(context.Background(), key, compute)
		second <- result{v, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	res := <-second
	require.NoError(t, res.err)
	require.Equal(t, big.NewInt(900), res.v)
	require.EqualValues(t, 1, calls)

	v, ok := c.Get(key)
	require.True(t, ok)
	require.Equal(t, big.NewInt(900), v)
}
