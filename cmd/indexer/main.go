package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/supportbot/docclassify/internal/config"
	"github.com/supportbot/docclassify/internal/index"
	"github.com/supportbot/docclassify/internal/service"
	"github.com/supportbot/docclassify/pkg/logger"
)

// indexer 把 JSON 训练文档导入分类索引
func main() {
	configPath := flag.String("config", "configs/classifier.yaml", "配置文件路径")
	docsPath := flag.String("docs", "", "训练文档 JSON 文件（文档数组）")
	flag.Parse()

	if err := run(*configPath, *docsPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, docsPath string) error {
	if docsPath == "" {
		return errors.New("必须通过 -docs 指定训练文档文件")
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Index.MemOnly {
		return errors.New("内存索引无法持久化，请关闭 index.memOnly")
	}

	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	idx, err := index.Open(cfg.Index, zapLogger)
	if err != nil {
		return err
	}
	defer func() { _ = idx.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	indexService := service.NewIndexService(index.NewIndexer(idx, cfg.Index.BatchSize, zapLogger), cfg.Index.FieldNames(), zapLogger)
	n, err := indexService.LoadFile(ctx, docsPath)
	if err != nil {
		return err
	}

	stats, err := indexService.Stats()
	if err != nil {
		return err
	}
	zapLogger.Info("导入完成",
		zap.Int("imported", n),
		zap.Uint64("total", stats.Documents),
		zap.String("path", cfg.Index.Path))
	return nil
}
