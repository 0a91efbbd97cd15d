package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/supportbot/docclassify/internal/classify"
	"github.com/supportbot/docclassify/internal/config"
	"github.com/supportbot/docclassify/internal/handler"
	"github.com/supportbot/docclassify/internal/index"
	"github.com/supportbot/docclassify/internal/middleware"
	"github.com/supportbot/docclassify/internal/service"
	"github.com/supportbot/docclassify/pkg/logger"
	"github.com/supportbot/docclassify/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/classifier.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化日志
	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	zapLogger.Info("classifier 服务启动中...", zap.String("algorithm", cfg.Classifier.Algorithm))
	gin.SetMode(cfg.Server.Mode)

	// 打开索引
	idx, err := index.Open(cfg.Index, zapLogger)
	if err != nil {
		zapLogger.Fatal("打开索引失败", zap.Error(err))
	}
	defer func() {
		if err := idx.Close(); err != nil {
			zapLogger.Error("关闭索引失败", zap.Error(err))
		}
	}()

	// 初始化 Redis（可选，连接失败时不缓存）
	var cache service.ResponseCache
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewRedisClient(context.Background(), cfg.Redis)
		if err != nil {
			zapLogger.Warn("连接 Redis 失败，不启用缓存", zap.Error(err))
		} else {
			defer func() { _ = redisClient.Close() }()
			cache = service.NewRedisCache(redisClient, time.Duration(cfg.Redis.TTLSeconds)*time.Second)
			zapLogger.Info("Redis 缓存已启用", zap.Int("ttlSeconds", cfg.Redis.TTLSeconds))
		}
	}

	// 初始化分类处理器
	processor, err := classify.NewProcessor(
		classify.Options{
			Algorithm: cfg.Classifier.Algorithm,
			KNN: classify.KNNConfig{
				K:     cfg.Classifier.KNN.K,
				MinDf: cfg.Classifier.KNN.MinDf,
				MinTf: cfg.Classifier.KNN.MinTf,
			},
		},
		index.NewQueryParser(cfg.Index.DefaultField),
		index.NewSchema(idx.Mapping(), cfg.Index.FieldNames()),
		index.NewFactory(idx, cfg.Classifier.Bayes.MaxTrainingDocs, zapLogger),
		zapLogger,
	)
	if err != nil {
		zapLogger.Fatal("初始化分类处理器失败", zap.Error(err))
	}

	// 初始化服务
	indexer := index.NewIndexer(idx, cfg.Index.BatchSize, zapLogger)
	classifierService := service.NewClassifierService(processor, cache, indexer, zapLogger)
	indexService := service.NewIndexService(indexer, cfg.Index.FieldNames(), zapLogger)
	registry := service.NewStreamRegistry(zapLogger)

	// 初始化处理器
	classifierHandler := handler.NewClassifierHandler(classifierService, zapLogger)
	streamHandler := handler.NewStreamHandler(classifierService, registry, cfg.Server.AllowedOrigins, zapLogger)
	apiHandler := handler.NewAPIHandler(cfg.Server.Name, processor.Algorithm().Name(), indexService, registry, zapLogger)

	// 初始化路由
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Track(zapLogger), middleware.CORS(cfg.Server.AllowedOrigins))

	r.GET("/api/classify", classifierHandler.Classify)
	r.GET("/api/classify/stream", streamHandler.HandleStream)
	r.GET("/api/index/stats", apiHandler.IndexStats)
	r.GET("/api/health", apiHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket 连接会被劫持，不设置 WriteTimeout
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	if err := serve(srv, quit, zapLogger); err != nil {
		zapLogger.Error("服务启动失败", zap.Error(err))
	}

	zapLogger.Info("classifier 服务关闭中...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	registry.CloseAll()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("服务关闭失败", zap.Error(err))
	}
	zapLogger.Info("classifier 服务已关闭")
}
