package presenter

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/poanetwork/escrow-monitor/config"
	"github.com/poanetwork/escrow-monitor/entity"
)

var formats = map[string]string{
	"1":        "https://etherscan.io/tx/%s",
	"5":        "https://goerli.etherscan.io/tx/%s",
	"11155111": "https://sepolia.etherscan.io/tx/%s",
}

func txLink(chainID string, txHash common.Hash) string {
	if format, ok := formats[chainID]; ok {
		return fmt.Sprintf(format, txHash)
	}
	return txHash.String()
}

func routeToInfo(cfg *config.RouteConfig) *RouteInfo {
	return &RouteInfo{
		ID:              cfg.ID,
		Name:            cfg.Name,
		AlertPrefix:     cfg.AlertPrefix,
		ChainID:         cfg.Chain.ChainID,
		L1EscrowAddress: cfg.L1EscrowAddress,
		L1TokenAddress:  cfg.L1TokenAddress,
		L2TokenAddress:  cfg.L2TokenAddress,
	}
}

func findingToResult(f *entity.Finding) *FindingResult {
	metadata := json.RawMessage(f.Metadata)
	if len(metadata) == 0 {
		metadata = json.RawMessage("{}")
	}
	return &FindingResult{
		AlertID:     f.AlertID,
		RouteID:     f.RouteID,
		Name:        f.Name,
		Description: f.Description,
		Severity:    f.Severity,
		Type:        f.Kind,
		Metadata:    metadata,
		ChainID:     f.ChainID,
		BlockNumber: f.BlockNumber,
		LogIndex:    f.LogIndex,
		TxHash:      f.TransactionHash,
		Link:        txLink(f.ChainID, f.TransactionHash),
		CreatedAt:   f.CreatedAt,
	}
}

func findingsToResults(findings []*entity.Finding) []*FindingResult {
	res := make([]*FindingResult, len(findings))
	for i, f := range findings {
		res[i] = findingToResult(f)
	}
	return res
}

func logToResult(log *entity.Log) *LogResult {
	return &LogResult{
		LogID:       log.ID,
		ChainID:     log.ChainID,
		Address:     log.Address,
		Topic0:      log.Topic0,
		Topic1:      log.Topic1,
		Topic2:      log.Topic2,
		Topic3:      log.Topic3,
		Data:        log.Data,
		TxHash:      log.TransactionHash,
		BlockNumber: log.BlockNumber,
	}
}
