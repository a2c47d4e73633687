package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/amnabbouti/launchpad-api-sub000/internal/app"
	"github.com/amnabbouti/launchpad-api-sub000/internal/items"
	"github.com/amnabbouti/launchpad-api-sub000/internal/licenses"
	"github.com/amnabbouti/launchpad-api-sub000/internal/platform/db"
	"github.com/amnabbouti/launchpad-api-sub000/internal/tenancy"
	"github.com/amnabbouti/launchpad-api-sub000/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	tenancyManager := tenancy.NewManager(tenancy.NewPoolBinder(pool), logger)
	scanner := jobs.NewScanner(logger, tenancyManager, items.NewRepository(pool), licenses.NewRepository(pool))

	maintenanceTask, err := jobs.NewMaintenanceScanTask(time.Now())
	if err != nil {
		logger.Error("build maintenance task", slog.Any("error", err))
		os.Exit(1)
	}
	sweepTask, err := jobs.NewLicenseSweepTask(time.Now())
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Scanner:   scanner,
		Cron: []jobs.CronRegistration{
			{Spec: "15 1 * * *", Task: maintenanceTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "45 1 * * *", Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
