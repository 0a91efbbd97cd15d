package main

import (
	"errors"
	"net/http"
	"os"

	"go.uber.org/zap"
)

// serve 启动 HTTP 服务，阻塞到收到退出信号或监听失败，监听失败时返回错误
func serve(srv *http.Server, quit <-chan os.Signal, logger *zap.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("classifier 服务启动成功", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-quit:
		return nil
	case err := <-serveErr:
		return err
	}
}
