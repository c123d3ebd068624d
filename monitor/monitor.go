package monitor

import (
	"context"
	"fmt"
	"math/big"

	"github.com/poanetwork/escrow-monitor/config"
	"github.com/poanetwork/escrow-monitor/db"
	"github.com/poanetwork/escrow-monitor/ethclient"
	"github.com/poanetwork/escrow-monitor/logging"
	"github.com/poanetwork/escrow-monitor/monitor/alerts"
	"github.com/poanetwork/escrow-monitor/monitor/cache"
	"github.com/poanetwork/escrow-monitor/repository"
)

type Monitor struct {
	cfg          *config.Config
	logger       logging.Logger
	watcher      *Watcher
	alertManager *alerts.AlertManager
}

// NewHandlerFromConfig wires the reader caches, evaluator and emitter for the configured routes.
func NewHandlerFromConfig(logger logging.Logger, cfg *config.Config, l1Client ethclient.Client, clients map[string]ethclient.Client, publisher alerts.Publisher) (*Handler, error) {
	routes, err := NewRoutes(cfg, clients)
	if err != nil {
		return nil, err
	}
	balances, err := cache.New[cache.BalanceQuery, *big.Int]("balance", cfg.Cache.BalanceSize)
	if err != nil {
		return nil, err
	}
	supplies, err := cache.New[cache.SupplyQuery, *big.Int]("supply", cfg.Cache.SupplySize)
	if err != nil {
		return nil, err
	}
	evaluator := NewEvaluator(l1Client, NewChainReader(balances, supplies), cfg.ReadStrategy)
	return NewHandler(logger.WithField("service", "handler"), routes, evaluator, alerts.NewEmitter(cfg.L1.TokenName), publisher), nil
}

// DialClients connects to the L1 chain and to every chain referenced by a route.
func DialClients(cfg *config.Config) (map[string]ethclient.Client, error) {
	names := []string{cfg.L1.ChainName}
	for _, route := range cfg.Routes {
		names = append(names, route.ChainName)
	}
	clients := make(map[string]ethclient.Client, len(names))
	for _, name := range names {
		if _, ok := clients[name]; ok {
			continue
		}
		chainCfg := cfg.Chains[name]
		client, err := ethclient.NewClient(chainCfg.RPC.Host, chainCfg.RPC.Timeout, chainCfg.RPC.RPS, chainCfg.ChainID)
		if err != nil {
			return nil, fmt.Errorf("can't dial %s rpc client: %w", name, err)
		}
		clients[name] = client
	}
	return clients, nil
}

func NewMonitor(ctx context.Context, logger logging.Logger, dbConn *db.DB, repo *repository.Repo, cfg *config.Config, clients map[string]ethclient.Client) (*Monitor, error) {
	logger.Info("initializing escrow monitor")
	l1Client, ok := clients[cfg.L1.ChainName]
	if !ok {
		return nil, fmt.Errorf("no client for l1 chain %s: %w", cfg.L1.ChainName, config.ErrUnknownChain)
	}
	publisher := alerts.MultiPublisher{
		alerts.NewLogPublisher(logger.WithField("service", "publisher")),
		alerts.MetricsPublisher{},
		alerts.NewDBPublisher(repo.Findings),
	}
	handler, err := NewHandlerFromConfig(logger, cfg, l1Client, clients, publisher)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize transfer handler: %w", err)
	}
	watcher, err := NewWatcher(ctx, logger.WithField("service", "watcher"), repo, cfg, l1Client, handler)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize l1 watcher: %w", err)
	}
	alertManager, err := alerts.NewAlertManager(logger.WithField("service", "alert_manager"), dbConn, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize alert manager: %w", err)
	}
	return &Monitor{
		cfg:          cfg,
		logger:       logger,
		watcher:      watcher,
		alertManager: alertManager,
	}, nil
}

func (m *Monitor) Start(ctx context.Context) {
	m.logger.Info("starting escrow monitor")
	go m.watcher.Start(ctx)
	go m.alertManager.Start(ctx, m.IsSynced)
}

func (m *Monitor) ProcessBlockRange(ctx context.Context, fromBlock, toBlock uint) error {
	return m.watcher.ProcessBlockRange(ctx, fromBlock, toBlock)
}

func (m *Monitor) IsSynced() bool {
	return m.watcher.IsSynced()
}
