package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/poanetwork/escrow-monitor/config"
	"github.com/poanetwork/escrow-monitor/db"
	"github.com/poanetwork/escrow-monitor/logging"
	"github.com/poanetwork/escrow-monitor/monitor"
	"github.com/poanetwork/escrow-monitor/repository"
)

var (
	fromBlock = flag.Uint("fromBlock", 0, "starting block")
	toBlock   = flag.Uint("toBlock", 0, "ending block")
)

func main() {
	flag.Parse()

	logger := logging.New()

	cfg, err := config.ReadConfigFromFile("config.yml")
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	logger.SetLevel(cfg.LogLevel)

	if *fromBlock < cfg.L1.StartBlock {
		fromBlock = &cfg.L1.StartBlock
	}
	if *toBlock == 0 {
		logger.Fatal("toBlock is not specified")
	}
	if *toBlock < *fromBlock {
		logger.WithFields(logrus.Fields{
			"from_block": *fromBlock,
			"to_block":   *toBlock,
		}).Fatal("toBlock < fromBlock")
	}

	dbConn, err := db.ConnectToDBAndMigrate(cfg.DBConfig)
	if err != nil {
		logger.WithError(err).Fatal("can't connect to database and apply migrations")
	}
	defer dbConn.Close()

	clients, err := monitor.DialClients(cfg)
	if err != nil {
		logger.WithError(err).Fatal("can't dial rpc clients")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		for range c {
			cancel()
			logger.Warn("caught CTRL-C, gracefully terminating")
			return
		}
	}()

	repo := repository.NewRepo(dbConn)
	m, err := monitor.NewMonitor(ctx, logger, dbConn, repo, cfg, clients)
	if err != nil {
		logger.WithError(err).Fatal("can't initialize escrow monitor")
	}

	err = m.ProcessBlockRange(ctx, *fromBlock, *toBlock)
	if err != nil {
		logger.WithError(err).Fatal("can't manually process block range")
	}
}
