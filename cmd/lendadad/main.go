package main

import (
	"context"
	"flag"
	"net/http"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"lendada/agent"
	"lendada/chain"
	"lendada/config"
	"lendada/credit"
	"lendada/models"
	"lendada/observability/logging"
	"lendada/server"
)

func main() {
	configPath := flag.String("config", "lendada.toml", "path to the TOML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Logging is not configured yet.
		os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.Setup("lendadad", cfg.Environment, cfg.LogFile)
	logger.Info("configuration loaded", "config", cfg.Sanitized())

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := models.AutoMigrate(db); err != nil {
		logger.Error("auto migrate failed", "error", err)
		os.Exit(1)
	}

	submitter := chain.NewWalletClient(chain.WalletConfig{
		BaseURL: cfg.WalletBaseURL,
		Timeout: cfg.SubmitTimeout(),
	})
	indexer := chain.NewIndexerClient(chain.IndexerConfig{
		BaseURL:   cfg.IndexerBaseURL,
		ProjectID: cfg.IndexerProjectID,
	})

	collector := credit.NewCollector(indexer, logger)
	scorer := credit.NewService(collector)
	jobs := agent.NewManager(scorer, cfg.Agent.JobRetention(), logger)
	go jobs.Start(context.Background())
	poller := agent.NewPoller(jobs, cfg.Agent.PollInterval(), cfg.Agent.MaxPollAttempts)

	srv := server.New(server.Config{
		DB:            db,
		Submitter:     submitter,
		Jobs:          jobs,
		Poller:        poller,
		Market:        cfg.Market,
		Ops:           cfg.Ops,
		SubmitTimeout: cfg.SubmitTimeout(),
		Logger:        logger,
	})

	logger.Info("starting lendadad", "listen", cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, srv.Handler()); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
