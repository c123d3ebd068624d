package monitor

import "github.com/poanetwork/escrow-monitor/entity"

type BlocksRange struct {
	From uint
	To   uint
}

// LogsBatch holds all watched logs of a single block.
type LogsBatch struct {
	BlockNumber uint
	Logs        []*entity.Log
}

func SplitBlockRange(fromBlock uint, toBlock uint, maxSize uint) []*BlocksRange {
	batches := make([]*BlocksRange, 0, 10)
	for fromBlock <= toBlock {
		batchToBlock := fromBlock + maxSize - 1
		if batchToBlock > toBlock {
			batchToBlock = toBlock
		}
		batches = append(batches, &BlocksRange{
			From: fromBlock,
			To:   batchToBlock,
		})
		fromBlock += maxSize
	}
	return batches
}

// SplitLogsInBatches groups logs ordered by block number into one batch per block.
func SplitLogsInBatches(logs []*entity.Log) []*LogsBatch {
	batches := make([]*LogsBatch, 0, 10)
	for start := 0; start < len(logs); {
		end := start + 1
		for end < len(logs) && logs[end].BlockNumber == logs[start].BlockNumber {
			end++
		}
		batches = append(batches, &LogsBatch{
			BlockNumber: logs[start].BlockNumber,
			Logs:        logs[start:end:end],
		})
		start = end
	}
	return batches
}
