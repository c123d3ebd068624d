package monitor

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/poanetwork/escrow-monitor/config"
	"github.com/poanetwork/escrow-monitor/contract/abi"
	"github.com/poanetwork/escrow-monitor/db"
	"github.com/poanetwork/escrow-monitor/entity"
	"github.com/poanetwork/escrow-monitor/ethclient"
	"github.com/poanetwork/escrow-monitor/logging"
	"github.com/poanetwork/escrow-monitor/repository"
	"github.com/poanetwork/escrow-monitor/utils"
)

const (
	defaultSyncedThreshold    = 10
	defaultBlockRangesChanCap = 10
	defaultLogsChanCap        = 200
	defaultRetryInterval      = 10 * time.Second
)

// Watcher polls L1 for token transfers touching any route escrow and feeds them to the Handler.
type Watcher struct {
	cfg                  *config.L1Config
	logger               logging.Logger
	repo                 *repository.Repo
	client               ethclient.Client
	handler              *Handler
	tokens               []common.Address
	escrows              []common.Address
	cursorMu             sync.Mutex
	logsCursor           *entity.LogsCursor
	blocksRangeChan      chan *BlocksRange
	logsChan             chan *LogsBatch
	headBlock            uint
	isSynced             atomic.Bool
	retryInterval        time.Duration
	syncedMetric         prometheus.Gauge
	headBlockMetric      prometheus.Gauge
	fetchedBlockMetric   prometheus.Gauge
	processedBlockMetric prometheus.Gauge
}

func NewWatcher(ctx context.Context, logger logging.Logger, repo *repository.Repo, cfg *config.Config, client ethclient.Client, handler *Handler) (*Watcher, error) {
	l1 := cfg.L1
	logsCursor, err := repo.LogsCursors.GetByChainIDAndAddress(ctx, client.ChainID(), l1.TokenAddress)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("failed to read logs cursor: %w", err)
		}
		start := l1.StartBlock
		if start == 0 {
			start = 1
		}
		logger.WithFields(logrus.Fields{
			"chain_id":    client.ChainID(),
			"address":     l1.TokenAddress,
			"start_block": start,
		}).Warn("token cursor is not present, starting indexing from scratch")
		logsCursor = &entity.LogsCursor{
			ChainID:            client.ChainID(),
			Address:            l1.TokenAddress,
			LastFetchedBlock:   start - 1,
			LastProcessedBlock: start - 1,
		}
	}
	commonLabels := prometheus.Labels{
		"chain_id": client.ChainID(),
		"address":  l1.TokenAddress.String(),
	}
	return &Watcher{
		cfg:                  l1,
		logger:               logger,
		repo:                 repo,
		client:               client,
		handler:              handler,
		tokens:               cfg.TokenAddresses(),
		escrows:              cfg.EscrowAddresses(),
		logsCursor:           logsCursor,
		blocksRangeChan:      make(chan *BlocksRange, defaultBlockRangesChanCap),
		logsChan:             make(chan *LogsBatch, defaultLogsChanCap),
		retryInterval:        defaultRetryInterval,
		syncedMetric:         SyncedWatcher.With(commonLabels),
		headBlockMetric:      LatestHeadBlock.With(commonLabels),
		fetchedBlockMetric:   LatestFetchedBlock.With(commonLabels),
		processedBlockMetric: LatestProcessedBlock.With(commonLabels),
	}, nil
}

func (w *Watcher) IsSynced() bool {
	return w.isSynced.Load()
}

func (w *Watcher) Start(ctx context.Context) {
	lastProcessedBlock := w.logsCursor.LastProcessedBlock
	lastFetchedBlock := w.logsCursor.LastFetchedBlock
	go w.StartBlockFetcher(ctx, lastFetchedBlock+1)
	go w.StartLogsProcessor(ctx)
	w.LoadUnprocessedLogs(ctx, lastProcessedBlock+1, lastFetchedBlock)
	go w.StartLogsFetcher(ctx)
}

func (w *Watcher) LoadUnprocessedLogs(ctx context.Context, fromBlock, toBlock uint) {
	if fromBlock > toBlock {
		return
	}
	w.logger.WithFields(logrus.Fields{
		"from_block": fromBlock,
		"to_block":   toBlock,
	}).Info("loading fetched but not yet processed blocks")

	var logs []*entity.Log
	ok := utils.Retry(ctx, w.retryInterval, func() error {
		var err error
		logs, err = w.repo.Logs.FindByBlockRange(ctx, w.client.ChainID(), w.tokens, fromBlock, toBlock)
		return err
	}, func(err error) {
		w.logger.WithError(err).Error("can't find unprocessed logs in block range")
	})
	if ok {
		w.submitLogs(logs, toBlock)
	}
}

func (w *Watcher) StartBlockFetcher(ctx context.Context, start uint) {
	w.logger.Info("starting new blocks tracker")

	for {
		head, err := w.client.BlockNumber(ctx)
		if err != nil {
			w.logger.WithError(err).Error("can't fetch latest block number")
		} else if head > w.cfg.BlockConfirmations {
			head -= w.cfg.BlockConfirmations
			w.recordHeadBlockNumber(head)

			for _, blocksRange := range SplitBlockRange(start, head, w.cfg.MaxBlockRangeSize) {
				w.logger.WithFields(logrus.Fields{
					"from_block": blocksRange.From,
					"to_block":   blocksRange.To,
				}).Info("scheduling new block range logs search")
				select {
				case w.blocksRangeChan <- blocksRange:
				case <-ctx.Done():
					return
				}
				start = blocksRange.To + 1
			}
		}

		if utils.ContextSleep(ctx, w.cfg.Chain.BlockIndexInterval) == nil {
			return
		}
	}
}

func (w *Watcher) StartLogsFetcher(ctx context.Context) {
	w.logger.Info("starting logs fetcher")
	for {
		select {
		case <-ctx.Done():
			return
		case blocksRange := <-w.blocksRangeChan:
			ok := utils.Retry(ctx, w.retryInterval, func() error {
				return w.tryToFetchLogs(ctx, blocksRange)
			}, func(err error) {
				w.logger.WithError(err).WithFields(logrus.Fields{
					"from_block": blocksRange.From,
					"to_block":   blocksRange.To,
				}).Error("failed logs fetching, retrying")
			})
			if !ok {
				return
			}
		}
	}
}

// buildFilterQueries selects transfers of watched tokens sent from or to any escrow.
func (w *Watcher) buildFilterQueries(blocksRange *BlocksRange) []ethereum.FilterQuery {
	escrowTopics := make([]common.Hash, len(w.escrows))
	for i, escrow := range w.escrows {
		escrowTopics[i] = escrow.Hash()
	}
	q := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(uint64(blocksRange.From)),
		ToBlock:   new(big.Int).SetUint64(uint64(blocksRange.To)),
		Addresses: w.tokens,
	}
	fromEscrow, toEscrow := q, q
	fromEscrow.Topics = [][]common.Hash{{abi.TransferEventSignature}, escrowTopics}
	toEscrow.Topics = [][]common.Hash{{abi.TransferEventSignature}, {}, escrowTopics}
	return []ethereum.FilterQuery{fromEscrow, toEscrow}
}

func (w *Watcher) fetchLogs(ctx context.Context, blocksRange *BlocksRange) ([]*entity.Log, error) {
	var logs []*entity.Log
	var logsBatch []types.Log
	var err error
	seen := make(map[logKey]bool)
	for _, q := range w.buildFilterQueries(blocksRange) {
		if w.cfg.Chain.SafeLogsRequest {
			logsBatch, err = w.client.FilterLogsSafe(ctx, q)
		} else {
			logsBatch, err = w.client.FilterLogs(ctx, q)
		}
		if err != nil {
			return nil, err
		}
		for _, log := range logsBatch {
			key := logKey{blockNumber: log.BlockNumber, logIndex: log.Index}
			if seen[key] {
				continue
			}
			seen[key] = true
			logs = append(logs, entity.NewLog(w.client.ChainID(), log))
		}
	}
	sort.Slice(logs, func(i, j int) bool {
		a, b := logs[i], logs[j]
		return a.BlockNumber < b.BlockNumber || (a.BlockNumber == b.BlockNumber && a.LogIndex < b.LogIndex)
	})
	return logs, nil
}

type logKey struct {
	blockNumber uint64
	logIndex    uint
}

func (w *Watcher) tryToFetchLogs(ctx context.Context, blocksRange *BlocksRange) error {
	logs, err := w.fetchLogs(ctx, blocksRange)
	if err != nil {
		return err
	}
	w.logger.WithFields(logrus.Fields{
		"count":      len(logs),
		"from_block": blocksRange.From,
		"to_block":   blocksRange.To,
	}).Info("fetched logs in range")
	if len(logs) > 0 {
		err = w.repo.Logs.Ensure(ctx, logs...)
		if err != nil {
			return err
		}
		w.logger.WithFields(logrus.Fields{
			"count":      len(logs),
			"from_block": blocksRange.From,
			"to_block":   blocksRange.To,
		}).Info("saved logs")
	}
	if err = w.recordFetchedBlockNumber(ctx, blocksRange.To); err != nil {
		return err
	}

	w.submitLogs(logs, blocksRange.To)
	return nil
}

func (w *Watcher) submitLogs(logs []*entity.Log, endBlock uint) {
	batches := SplitLogsInBatches(logs)
	w.logger.WithFields(logrus.Fields{
		"count": len(logs),
		"jobs":  len(batches),
	}).Info("create jobs for logs processor")
	for _, batch := range batches {
		w.logger.WithFields(logrus.Fields{
			"count":        len(batch.Logs),
			"block_number": batch.BlockNumber,
		}).Debug("submitting logs batch to logs processor")
		w.logsChan <- batch
	}
	if len(batches) == 0 || batches[len(batches)-1].BlockNumber < endBlock {
		w.logsChan <- &LogsBatch{
			BlockNumber: endBlock,
			Logs:        nil,
		}
	}
}

func (w *Watcher) StartLogsProcessor(ctx context.Context) {
	w.logger.Info("starting logs processor")
	for {
		select {
		case <-ctx.Done():
			return
		case logs := <-w.logsChan:
			w.processLogsBatch(ctx, logs)

			ok := utils.Retry(ctx, w.retryInterval, func() error {
				return w.recordProcessedBlockNumber(ctx, logs.BlockNumber)
			}, func(err error) {
				w.logger.WithError(err).WithField("block_number", logs.BlockNumber).
					Error("failed to update latest processed block number, retrying")
			})
			if !ok {
				return
			}
		}
	}
}

// processLogsBatch decodes and handles the batch. Failed evaluations are logged and counted
// by the handler, the batch is not retried.
func (w *Watcher) processLogsBatch(ctx context.Context, batch *LogsBatch) int {
	w.logger.WithFields(logrus.Fields{
		"count":        len(batch.Logs),
		"block_number": batch.BlockNumber,
	}).Debug("processing logs batch")
	events := make([]*entity.TransferEvent, 0, len(batch.Logs))
	for _, log := range batch.Logs {
		event, err := DecodeTransfer(log)
		if err != nil {
			w.logger.WithError(err).WithFields(logrus.Fields{
				"log_id":       log.ID,
				"block_number": log.BlockNumber,
				"tx_hash":      log.TransactionHash,
				"log_index":    log.LogIndex,
			}).Warn("received unknown event")
			continue
		}
		events = append(events, event)
	}
	findings, err := w.handler.HandleTransfers(ctx, events)
	if err != nil {
		w.logger.WithError(err).WithField("block_number", batch.BlockNumber).
			Error("some transfers in the batch were not evaluated")
	}
	return len(findings)
}

// ProcessBlockRange refetches and handles [fromBlock, toBlock] without touching the cursor.
func (w *Watcher) ProcessBlockRange(ctx context.Context, fromBlock, toBlock uint) error {
	if fromBlock == 0 || fromBlock > toBlock {
		return fmt.Errorf("invalid block range [%d, %d]", fromBlock, toBlock)
	}
	for _, blocksRange := range SplitBlockRange(fromBlock, toBlock, w.cfg.MaxBlockRangeSize) {
		logs, err := w.fetchLogs(ctx, blocksRange)
		if err != nil {
			return fmt.Errorf("can't fetch logs in range [%d, %d]: %w", blocksRange.From, blocksRange.To, err)
		}
		if len(logs) > 0 {
			if err = w.repo.Logs.Ensure(ctx, logs...); err != nil {
				return err
			}
		}
		count := 0
		for _, batch := range SplitLogsInBatches(logs) {
			count += w.processLogsBatch(ctx, batch)
		}
		w.logger.WithFields(logrus.Fields{
			"from_block": blocksRange.From,
			"to_block":   blocksRange.To,
			"logs":       len(logs),
			"findings":   count,
		}).Info("reprocessed block range")
	}
	return nil
}

func (w *Watcher) recordHeadBlockNumber(blockNumber uint) {
	w.cursorMu.Lock()
	defer w.cursorMu.Unlock()
	if blockNumber < w.headBlock {
		return
	}

	w.headBlock = blockNumber
	w.headBlockMetric.Set(float64(blockNumber))
	w.recordIsSynced()
}

func (w *Watcher) recordIsSynced() {
	synced := w.logsCursor.LastProcessedBlock+defaultSyncedThreshold > w.headBlock
	w.isSynced.Store(synced)
	if synced {
		w.syncedMetric.Set(1)
	} else {
		w.syncedMetric.Set(0)
	}
}

func (w *Watcher) recordFetchedBlockNumber(ctx context.Context, blockNumber uint) error {
	w.cursorMu.Lock()
	defer w.cursorMu.Unlock()
	if blockNumber < w.logsCursor.LastFetchedBlock {
		return nil
	}

	w.logsCursor.LastFetchedBlock = blockNumber
	w.fetchedBlockMetric.Set(float64(blockNumber))
	return w.repo.LogsCursors.Ensure(ctx, w.logsCursor)
}

func (w *Watcher) recordProcessedBlockNumber(ctx context.Context, blockNumber uint) error {
	w.cursorMu.Lock()
	defer w.cursorMu.Unlock()
	if blockNumber < w.logsCursor.LastProcessedBlock {
		return nil
	}

	w.logsCursor.LastProcessedBlock = blockNumber
	w.processedBlockMetric.Set(float64(blockNumber))
	w.recordIsSynced()
	return w.repo.LogsCursors.Ensure(ctx, w.logsCursor)
}
