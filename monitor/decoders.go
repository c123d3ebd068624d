package monitor

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/poanetwork/escrow-monitor/contract/abi"
	"github.com/poanetwork/escrow-monitor/entity"
)

var (
	ErrNotTransfer       = errors.New("log is not a token transfer")
	ErrMalformedTransfer = errors.New("malformed transfer log")
)

// DecodeTransfer turns a raw Transfer log into a TransferEvent.
func DecodeTransfer(log *entity.Log) (*entity.TransferEvent, error) {
	event, data, err := abi.ERC20ABI.ParseLog(log)
	if err != nil {
		return nil, fmt.Errorf("can't parse log: %w", err)
	}
	if event != abi.Transfer {
		return nil, ErrNotTransfer
	}
	src, ok1 := data["src"].(common.Address)
	dst, ok2 := data["dst"].(common.Address)
	amount, ok3 := data["wad"].(*big.Int)
	if !ok1 || !ok2 || !ok3 {
		return nil, ErrMalformedTransfer
	}
	return &entity.TransferEvent{
		ChainID:         log.ChainID,
		Token:           log.Address,
		Source:          src,
		Destination:     dst,
		Amount:          amount,
		BlockNumber:     log.BlockNumber,
		LogIndex:        log.LogIndex,
		TransactionHash: log.TransactionHash,
	}, nil
}
