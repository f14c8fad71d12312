package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sangkips/tablepos-api/internal/application/service"
	"github.com/sangkips/tablepos-api/internal/config"
	"github.com/sangkips/tablepos-api/internal/infrastructure/queue"
	"github.com/sangkips/tablepos-api/pkg/logger"
	"github.com/sangkips/tablepos-api/pkg/metrics"
	"github.com/sangkips/tablepos-api/pkg/printer"
	"github.com/sangkips/tablepos-api/pkg/tracing"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.App.Name+"-printworker", cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		tp, err := tracing.Init(cfg.Tracing.ServiceName+"-printworker", cfg.Tracing.Endpoint)
		if err != nil {
			logger.Warn(ctx).Err(err).Msg("tracing disabled")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = tracing.Shutdown(shutdownCtx, tp)
			}()
		}
	} else {
		tracing.InstallPropagator()
	}

	redisClient, err := queue.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	p, err := printer.New(printer.Config{
		Type:    printer.Type(cfg.Printer.Type),
		USBPath: cfg.Printer.USBPath,
		Address: cfg.Printer.Address,
	})
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to initialize printer")
	}
	defer p.Close()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		m = metrics.New(cfg.Metrics.Prefix, reg)
		srv := &http.Server{
			Addr:              ":" + cfg.App.Port,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx).Err(err).Msg("metrics server failed")
			}
		}()
		defer srv.Close()
	}

	loc, err := time.LoadLocation(cfg.Billing.Timezone)
	if err != nil {
		logger.Warn(ctx).Err(err).Str("timezone", cfg.Billing.Timezone).Msg("unknown timezone, printing in UTC")
		loc = time.UTC
	}

	processor := service.NewPrintJobProcessor(p, queue.NewDeduper(redisClient, cfg.Queue.DedupeTTL), m, cfg.Printer.CharWidth, loc)

	printQueue := queue.NewRedisQueue(redisClient, cfg.Queue.PrintersName, cfg.Queue.EnqueueRetries)
	worker := queue.NewWorker(printQueue, cfg.Queue.BlockTimeout)
	worker.Handle(queue.PrintKOTJob, processor.Handle)

	logger.Info(ctx).
		Str("queue", printQueue.Name()).
		Str("printer", cfg.Printer.Type).
		Msg("print worker starting")
	if err := worker.Run(ctx); err != nil {
		logger.Error(ctx).Err(err).Msg("worker stopped with error")
	}
}
