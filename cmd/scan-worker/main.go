package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"bilancio/internal/config"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
	applog "bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

// scan-worker runs the scheduled jobs: the daily recurring-expense scan
// and the monthly interest application, fanned out over every known user
// with bounded concurrency. The period marker in storage makes the
// interest job safe to fire more than once a month.
func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentCron)
	applog.SetDefault(logger)

	logger.Info("Starting scan-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	detector := services.NewDetectorService(repo)
	debts := services.NewDebtService(repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := cron.New()

	if _, err := c.AddFunc(cfg.ScanSchedule, func() {
		if err := forEachUser(ctx, repo, cfg.ScanConcurrency, func(ctx context.Context, userID int64) error {
			_, err := detector.Scan(ctx, userID)
			return err
		}); err != nil {
			logger.Error("Recurring scan job failed", "error", err)
		}
	}); err != nil {
		logger.Error("Invalid scan schedule", "spec", cfg.ScanSchedule, "error", err)
		os.Exit(1)
	}

	if _, err := c.AddFunc(cfg.InterestSchedule, func() {
		period := core.PeriodOf(time.Now())
		if err := forEachUser(ctx, repo, cfg.ScanConcurrency, func(ctx context.Context, userID int64) error {
			_, err := debts.ApplyMonthlyInterest(ctx, userID, period)
			if errors.Is(err, core.ErrAlreadyApplied) {
				return nil
			}
			return err
		}); err != nil {
			logger.Error("Interest job failed", "error", err)
		}
	}); err != nil {
		logger.Error("Invalid interest schedule", "spec", cfg.InterestSchedule, "error", err)
		os.Exit(1)
	}

	c.Start()
	logger.Info("Schedules registered",
		"scan", cfg.ScanSchedule,
		"interest", cfg.InterestSchedule,
		"concurrency", cfg.ScanConcurrency)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())

	stopCtx := c.Stop()
	<-stopCtx.Done()
	cancel()
	logger.Info("Scan worker stopped gracefully")
}

// forEachUser runs fn for every user with ledger rows, at most limit at a
// time. The first error cancels the remaining work.
func forEachUser(ctx context.Context, store ledger.Store, limit int, fn func(context.Context, int64) error) error {
	userIDs, err := store.ListUserIDs(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, userID := range userIDs {
		g.Go(func() error {
			return fn(ctx, userID)
		})
	}
	return g.Wait()
}
