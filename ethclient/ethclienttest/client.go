// Package ethclienttest provides an in-memory ethclient.Client for tests.
package ethclienttest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/poanetwork/escrow-monitor/contract/abi"
	"github.com/poanetwork/escrow-monitor/ethclient"
)

var ErrReverted = errors.New("execution reverted")

type Call struct {
	Contract    common.Address
	Method      string
	BlockNumber uint
}

// Client serves ERC20 balanceOf / totalSupply calls and logs from memory.
type Client struct {
	mu sync.Mutex

	chainID  string
	head     uint
	headErr  error
	balances map[common.Address]map[common.Address]*big.Int
	supplies map[common.Address]*big.Int
	reverts  map[common.Address]bool
	garbled  map[common.Address][]byte
	gate     <-chan struct{}
	logs     []types.Log
	calls    []Call
}

var _ ethclient.Client = (*Client)(nil)

func NewClient(chainID string, head uint) *Client {
	return &Client{
		chainID:  chainID,
		head:     head,
		balances: make(map[common.Address]map[common.Address]*big.Int),
		supplies: make(map[common.Address]*big.Int),
		reverts:  make(map[common.Address]bool),
		garbled:  make(map[common.Address][]byte),
	}
}

func (c *Client) SetHead(head uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.head = head
}

func (c *Client) SetHeadError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headErr = err
}

func (c *Client) SetBalance(token, holder common.Address, amount int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.balances[token] == nil {
		c.balances[token] = make(map[common.Address]*big.Int)
	}
	c.balances[token][holder] = big.NewInt(amount)
}

func (c *Client) SetTotalSupply(token common.Address, amount int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supplies[token] = big.NewInt(amount)
}

// SetReverts makes every call to the token fail.
func (c *Client) SetReverts(token common.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reverts[token] = true
}

// SetRawResponse makes every call to the addr return raw instead of an ABI encoded amount,
// like a node does for an address without code.
func (c *Client) SetRawResponse(addr common.Address, raw []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.garbled[addr] = raw
}

// SetCallGate holds every contract call until gate is closed or the call context is done.
func (c *Client) SetCallGate(gate <-chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gate = gate
}

func (c *Client) AddLogs(logs ...types.Log) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = append(c.logs, logs...)
}

func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// CallCount returns how many times the method was called on any contract.
func (c *Client) CallCount(method string) int {
	count := 0
	for _, call := range c.Calls() {
		if call.Method == method {
			count++
		}
	}
	return count
}

func (c *Client) ChainID() string {
	return c.chainID
}

func (c *Client) BlockNumber(ctx context.Context) (uint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head, c.headErr
}

func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber uint) ([]byte, error) {
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, errors.New("invalid call message")
	}
	method, err := abi.ERC20ABI.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.calls = append(c.calls, Call{Contract: *msg.To, Method: method.Name, BlockNumber: blockNumber})
	gate := c.gate
	c.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reverts[*msg.To] {
		return nil, ErrReverted
	}
	if raw, ok := c.garbled[*msg.To]; ok {
		return append([]byte(nil), raw...), nil
	}

	var amount *big.Int
	switch method.Name {
	case "balanceOf":
		amount = c.balances[*msg.To][args[0].(common.Address)]
	case "totalSupply":
		amount = c.supplies[*msg.To]
	default:
		return nil, fmt.Errorf("method %s is not supported", method.Name)
	}
	if amount == nil {
		amount = new(big.Int)
	}
	return method.Outputs.Pack(amount)
}

func (c *Client) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := make([]types.Log, 0, len(c.logs))
	for _, log := range c.logs {
		if matches(q, log) {
			res = append(res, log)
		}
	}
	return res, nil
}

func (c *Client) FilterLogsSafe(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	head, _ := c.BlockNumber(ctx)
	if q.ToBlock != nil && q.ToBlock.Uint64() > uint64(head) {
		return nil, ethclient.ErrNodeIsNotSynced
	}
	return c.FilterLogs(ctx, q)
}

func matches(q ethereum.FilterQuery, log types.Log) bool {
	if q.FromBlock != nil && log.BlockNumber < q.FromBlock.Uint64() {
		return false
	}
	if q.ToBlock != nil && log.BlockNumber > q.ToBlock.Uint64() {
		return false
	}
	if len(q.Addresses) > 0 && !containsAddress(q.Addresses, log.Address) {
		return false
	}
	for i, options := range q.Topics {
		if len(options) == 0 {
			continue
		}
		if i >= len(log.Topics) || !containsHash(options, log.Topics[i]) {
			return false
		}
	}
	return true
}

func containsAddress(list []common.Address, addr common.Address) bool {
	for _, a := range list {
		if a == addr {
			return true
		}
	}
	return false
}

func containsHash(list []common.Hash, h common.Hash) bool {
	for _, x := range list {
		if x == h {
			return true
		}
	}
	return false
}
