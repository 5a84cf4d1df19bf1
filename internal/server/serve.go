package server

import (
	"context"
	"time"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Serve 启动 HTTP 服务，收到中断信号后优雅关闭并返回，调用方的 defer 照常执行
func Serve(app *iris.Application, addr string) error {
	iris.RegisterOnInterrupt(shutdownFunc(app, shutdownTimeout))
	return app.Listen(addr,
		iris.WithoutInterruptHandler,
		iris.WithoutServerError(iris.ErrServerClosed),
	)
}

func shutdownFunc(app *iris.Application, timeout time.Duration) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		zap.L().Info("shutting down http server")
		if err := app.Shutdown(ctx); err != nil {
			zap.L().Error("http server shutdown failed", zap.Error(err))
		}
	}
}
