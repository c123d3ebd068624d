package presenter

import (
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type RouteInfo struct {
	ID              string
	Name            string
	AlertPrefix     string
	ChainID         string
	L1EscrowAddress common.Address
	L1TokenAddress  common.Address
	L2TokenAddress  common.Address
}

type RouteStatus struct {
	*RouteInfo
	L1ChainID          string
	LastFetchedBlock   uint
	LastProcessedBlock uint
	LatestFindings     []*FindingResult
}

type FindingResult struct {
	AlertID     string
	RouteID     string
	Name        string
	Description string
	Severity    string
	Type        string
	Metadata    json.RawMessage
	ChainID     string
	BlockNumber uint
	LogIndex    uint
	TxHash      common.Hash
	Link        string
	CreatedAt   *time.Time `json:",omitempty"`
}

type LogResult struct {
	LogID       uint
	ChainID     string
	Address     common.Address
	Topic0      *common.Hash `json:",omitempty"`
	Topic1      *common.Hash `json:",omitempty"`
	Topic2      *common.Hash `json:",omitempty"`
	Topic3      *common.Hash `json:",omitempty"`
	Data        hexutil.Bytes
	TxHash      common.Hash
	BlockNumber uint
}

type TxResult struct {
	TxHash   common.Hash
	Logs     []*LogResult
	Findings []*FindingResult
}
