package entity

import "math/big"

// InvariantResult is the outcome of a single l1Balance >= l2Supply check.
type InvariantResult struct {
	RouteID       string
	Direction     Direction
	L1Balance     *big.Int
	L2Supply      *big.Int
	BlockNumber   uint
	L2BlockNumber uint
	Violated      bool
}
