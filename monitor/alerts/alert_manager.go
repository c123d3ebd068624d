package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/poanetwork/escrow-monitor/config"
	"github.com/poanetwork/escrow-monitor/db"
	"github.com/poanetwork/escrow-monitor/logging"
)

const (
	AlertInvariantViolation = "invariant_violation"
	AlertLargeWithdrawal    = "large_withdrawal"

	defaultAlertWindow = 24 * time.Hour
)

var ErrUnknownAlert = errors.New("unknown alert type")

type AlertManager struct {
	logger logging.Logger
	jobs   map[string]*Job
}

func NewAlertManager(logger logging.Logger, db *db.DB, cfg *config.Config) (*AlertManager, error) {
	return newAlertManager(logger, NewDBAlertsProvider(db), cfg)
}

type alertsProvider interface {
	FindInvariantViolations(ctx context.Context, params *AlertJobParams) (interface{}, error)
	FindLargeWithdrawals(ctx context.Context, params *AlertJobParams) (interface{}, error)
}

func newAlertManager(logger logging.Logger, provider alertsProvider, cfg *config.Config) (*AlertManager, error) {
	jobs := make(map[string]*Job, len(cfg.Alerts)*len(cfg.Routes))

	for _, route := range cfg.Routes {
		for name, alertCfg := range cfg.Alerts {
			key := route.ID + "/" + name
			switch name {
			case AlertInvariantViolation:
				jobs[key] = &Job{
					Interval: time.Minute,
					Timeout:  time.Second * 10,
					Func:     provider.FindInvariantViolations,
					Metric:   NewAlertInvariantViolation(route.ID),
				}
			case AlertLargeWithdrawal:
				if alertCfg == nil || alertCfg.Threshold == "" {
					return nil, fmt.Errorf("alert %s requires threshold", name)
				}
				jobs[key] = &Job{
					Interval: time.Minute * 5,
					Timeout:  time.Second * 20,
					Func:     provider.FindLargeWithdrawals,
					Metric:   NewAlertLargeWithdrawal(route.ID),
				}
			default:
				return nil, fmt.Errorf("%q: %w", name, ErrUnknownAlert)
			}
			jobs[key].Params = &AlertJobParams{
				RouteID: route.ID,
				ChainID: cfg.L1.Chain.ChainID,
				Window:  defaultAlertWindow,
			}
			if alertCfg != nil {
				if alertCfg.Window > 0 {
					jobs[key].Params.Window = alertCfg.Window
				}
				jobs[key].Params.Threshold = alertCfg.Threshold
				jobs[key].Params.IgnoredAddresses = alertCfg.IgnoredAddresses
			}
		}
	}

	return &AlertManager{
		logger: logger,
		jobs:   jobs,
	}, nil
}

func (m *AlertManager) Start(ctx context.Context, isSynced func() bool) {
	t := time.NewTicker(10 * time.Second)
	for !isSynced() {
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
			m.logger.Debug("waiting for escrow monitor to be synchronized")
		}
	}
	t.Stop()
	m.logger.Info("escrow monitor is synced, starting alert manager jobs")

	for name, job := range m.jobs {
		job.logger = m.logger.WithField("alert_job", name)
		go job.Start(ctx, isSynced)
	}
}
