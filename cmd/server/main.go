// Package main is the entry point for the Wheelhouse options income server.
// It scans option chains for delta-band opportunities, allocates capital
// across symbols, tracks news sentiment, and exposes everything over HTTP.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/wheelhouse-labs/wheelhouse/internal/clientdata"
	"github.com/wheelhouse-labs/wheelhouse/internal/clients/yahoo"
	"github.com/wheelhouse-labs/wheelhouse/internal/clients/yahoonews"
	"github.com/wheelhouse-labs/wheelhouse/internal/config"
	"github.com/wheelhouse-labs/wheelhouse/internal/database"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/history"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/portfolio"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/scanner"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/sentiment"
	"github.com/wheelhouse-labs/wheelhouse/internal/modules/stocks"
	"github.com/wheelhouse-labs/wheelhouse/internal/reliability"
	"github.com/wheelhouse-labs/wheelhouse/internal/scheduler"
	"github.com/wheelhouse-labs/wheelhouse/internal/server"
	"github.com/wheelhouse-labs/wheelhouse/pkg/logger"
)

const historyRetention = 90 * 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting Wheelhouse")

	// History database holds scan, allocation and sentiment snapshots.
	historyDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "history.db"),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	// Cache database holds API responses with TTLs.
	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	if err := history.InitSchema(historyDB.Conn()); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize history schema")
	}
	if err := clientdata.InitSchema(cacheDB.Conn()); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize cache schema")
	}

	cacheRepo := clientdata.NewRepository(cacheDB.Conn())
	yahooClient := yahoo.NewClient(cacheRepo, log)
	newsClient := yahoonews.NewClient(cacheRepo, log)

	scannerService := scanner.NewService(yahooClient, scanner.Config{
		RiskFreeRate:     cfg.RiskFreeRate,
		Band:             scanner.DeltaBand{Min: cfg.DeltaMin, Max: cfg.DeltaMax},
		ExpiryWindowDays: cfg.ExpiryWindowDays,
		Concurrency:      cfg.ScanConcurrency,
	}, log)

	allocator := portfolio.Allocator{
		TotalCapital: cfg.TotalCapital,
		MinFraction:  cfg.MinAllocation,
		MaxFraction:  cfg.MaxAllocation,
	}
	optimizer := portfolio.NewOptimizer(allocator, cfg.TopKPerSymbol, cfg.MaxGroupSymbols, log)
	portfolioService := portfolio.NewService(scannerService, optimizer, log)

	stocksService := stocks.NewService(yahooClient, log)
	sentimentService := sentiment.NewService(newsClient, log)
	historyRepo := history.NewRepository(historyDB.Conn(), log)
	portfolioService.SetRecorder(historyRepo)

	sched := scheduler.New(log)
	jobs := []scheduler.Job{
		scheduler.NewMarketScanJob(scannerService, historyRepo, cfg.Symbols, log),
		scheduler.NewStockSnapshotJob(stocksService, historyRepo, cfg.Symbols, log),
		scheduler.NewSentimentRefreshJob(sentimentService, historyRepo, cfg.Symbols, log),
		scheduler.NewHistoryPruneJob(historyRepo, historyRetention, log),
		clientdata.NewCleanupJob(cacheRepo, log),
	}

	if cfg.Backup != nil && cfg.Backup.Enabled {
		s3Client, err := reliability.NewS3Client(
			context.Background(),
			cfg.Backup.Endpoint,
			cfg.Backup.Region,
			cfg.Backup.AccessKeyID,
			cfg.Backup.SecretAccessKey,
			cfg.Backup.Bucket,
			log,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 backup client")
		}
		backupService := reliability.NewBackupService(s3Client, cfg.DataDir, cfg.Backup.RetentionCount, log)
		jobs = append(jobs, reliability.NewBackupJob(backupService, log))
		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("S3 backups enabled")
	}

	for _, job := range jobs {
		if err := sched.AddJob(job); err != nil {
			log.Fatal().Err(err).Str("job", job.Name()).Msg("Failed to register job")
		}
	}
	sched.Start()

	srv := server.New(server.Config{
		Log:              log,
		Config:           cfg,
		ScannerService:   scannerService,
		PortfolioService: portfolioService,
		StocksService:    stocksService,
		SentimentService: sentimentService,
		HistoryRepo:      historyRepo,
		Scheduler:        sched,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
