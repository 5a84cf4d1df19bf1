package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/infra/logger"
	"github.com/example/goshop/internal/infra/mq"
	"github.com/example/goshop/internal/monitor"
	"github.com/example/goshop/internal/repository/sqlstore"
	"github.com/example/goshop/internal/server"
	"github.com/example/goshop/internal/tasks"
)

func main() {
	configPath := flag.String("config", "", "path to config yaml")
	reportSpec := flag.String("report", "@every 1m", "cron spec for monitor stats log")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	log := logger.Init(&cfg.Log)
	defer log.Sync()

	db := sqlstore.Init(&cfg.Database)
	notifier := server.NewNotifier(cfg, db)
	conn := mq.Init(&cfg.RabbitMQ)
	defer conn.Close()

	reporter, err := monitor.StartReporter(*reportSpec)
	if err != nil {
		log.Fatal("invalid report spec", zap.Error(err))
	}
	defer reporter.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := mq.Consume(ctx, conn, cfg.Notify.Queue, cfg.RabbitMQ.Prefetch, tasks.Handlers(notifier)); err != nil {
		log.Error("notify worker stopped", zap.Error(err))
	}
	log.Info("notify worker exited")
}
