package cache

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// BalanceQuery identifies balanceOf(Holder) on Token at BlockNumber of ChainID.
type BalanceQuery struct {
	ChainID     string
	Token       common.Address
	Holder      common.Address
	BlockNumber uint
}

func (q BalanceQuery) String() string {
	return fmt.Sprintf("balance:%s:%s:%s:%d", q.ChainID, q.Token, q.Holder, q.BlockNumber)
}

// SupplyQuery identifies totalSupply() on Token at BlockNumber of ChainID.
type SupplyQuery struct {
	ChainID     string
	Token       common.Address
	BlockNumber uint
}

func (q SupplyQuery) String() string {
	return fmt.Sprintf("supply:%s:%s:%d", q.ChainID, q.Token, q.BlockNumber)
}
