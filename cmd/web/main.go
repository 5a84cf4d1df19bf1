package main

import (
	"flag"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/infra/logger"
	"github.com/example/goshop/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to config yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	log := logger.Init(&cfg.Log)
	defer log.Sync()

	svc, cleanup, err := server.Bootstrap(cfg)
	if err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}
	defer cleanup()

	app := iris.New()
	server.RegisterRoutes(app, cfg, svc)

	addr := cfg.Server.Addr()
	log.Info("web server listening", zap.String("addr", addr))
	if err := server.Serve(app, addr); err != nil {
		log.Error("web server stopped", zap.Error(err))
	}
}
