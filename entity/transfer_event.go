package entity

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TransferEvent is a decoded token transfer delivered to the invariant handler.
// It is consumed once and never persisted on its own.
type TransferEvent struct {
	ChainID         string
	Token           common.Address
	Source          common.Address
	Destination     common.Address
	Amount          *big.Int
	BlockNumber     uint
	LogIndex        uint
	TransactionHash common.Hash
}
