package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/poanetwork/escrow-monitor/config"
	"github.com/poanetwork/escrow-monitor/db"
	"github.com/poanetwork/escrow-monitor/logging"
	"github.com/poanetwork/escrow-monitor/monitor"
	"github.com/poanetwork/escrow-monitor/presenter"
	"github.com/poanetwork/escrow-monitor/repository"
)

const defaultMetricsHost = ":2112"

func main() {
	logger := logging.New()

	cfg, err := config.ReadConfigFromFile("config.yml")
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	logger.SetLevel(cfg.LogLevel)

	dbConn, err := db.ConnectToDBAndMigrate(cfg.DBConfig)
	if err != nil {
		logger.WithError(err).Fatal("can't connect to database and apply migrations")
	}
	defer dbConn.Close()

	metricsHost := defaultMetricsHost
	if cfg.Metrics != nil && cfg.Metrics.Host != "" {
		metricsHost = cfg.Metrics.Host
	}
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		err := http.ListenAndServe(metricsHost, nil) //nolint:gosec
		if err != nil {
			logger.WithError(err).Fatal("can't start listener for prometheus metrics")
		}
	}()

	repo := repository.NewRepo(dbConn)
	if cfg.Presenter != nil {
		pr := presenter.NewPresenter(logger.WithField("service", "presenter"), repo, cfg)
		go func() {
			err := pr.Serve(cfg.Presenter.Host)
			if err != nil {
				logger.WithError(err).Fatal("can't serve presenter")
			}
		}()
	}

	clients, err := monitor.DialClients(cfg)
	if err != nil {
		logger.WithError(err).Fatal("can't dial rpc clients")
	}

	ctx, cancel := context.WithCancel(context.Background())
	m, err := monitor.NewMonitor(ctx, logger, dbConn, repo, cfg, clients)
	if err != nil {
		logger.WithError(err).Fatal("can't initialize escrow monitor")
	}
	m.Start(ctx)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	for range c {
		cancel()
		logger.Warn("caught termination signal, gracefully terminating")
		return
	}
}
