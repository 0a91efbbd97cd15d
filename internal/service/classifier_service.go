package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/supportbot/docclassify/internal/classify"
	"github.com/supportbot/docclassify/internal/metrics"
	"github.com/supportbot/docclassify/internal/model"
)

// DocCounter 索引文档数，用于缓存键
type DocCounter interface {
	Count() (uint64, error)
}

// ClassifierService 文本分类服务
type ClassifierService struct {
	processor *classify.Processor
	cache     ResponseCache
	docs      DocCounter
	logger    *zap.Logger
}

// NewClassifierService 创建文本分类服务，cache 为 nil 时不缓存
func NewClassifierService(processor *classify.Processor, cache ResponseCache, docs DocCounter, logger *zap.Logger) *ClassifierService {
	return &ClassifierService{
		processor: processor,
		cache:     cache,
		docs:      docs,
		logger:    logger,
	}
}

// Classify 分类（先查缓存，未命中再调用处理器）
func (s *ClassifierService) Classify(ctx context.Context, req *model.ClassifyRequest) (*model.ClassifyResponse, error) {
	algorithm := req.Algorithm
	if algorithm == "" {
		algorithm = s.processor.Algorithm().Name()
	}

	label := algorithm
	if label != classify.AlgorithmKNN && label != classify.AlgorithmBayes {
		label = "unsupported"
	}

	key := s.key(algorithm, req)
	if cached := s.lookup(ctx, key); cached != nil {
		return cached, nil
	}

	start := time.Now()
	resp, err := s.processor.Process(ctx, req.ToClassify())
	metrics.ClassifyDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ClassifyCount.WithLabelValues(label, "error").Inc()
		s.logger.Warn("分类失败",
			zap.String("algorithm", algorithm),
			zap.Strings("domain", req.TrainFields),
			zap.String("range", req.TargetField),
			zap.Error(err))
		return nil, err
	}
	metrics.ClassifyCount.WithLabelValues(resp.Algorithm, "ok").Inc()

	result := model.NewClassifyResponse(resp)
	s.logger.Info("分类完成",
		zap.String("algorithm", result.Algorithm),
		zap.Int("classes", len(result.Classes)))

	s.store(ctx, key, result)
	return result, nil
}

// key 计算缓存键，无法确定索引状态时返回空串，本次请求不走缓存
func (s *ClassifierService) key(algorithm string, req *model.ClassifyRequest) string {
	if s.cache == nil {
		return ""
	}

	scope := cacheScope{Algorithm: algorithm, KNN: s.processor.KNN()}
	if s.docs != nil {
		n, err := s.docs.Count()
		if err != nil {
			s.logger.Warn("获取索引文档数失败，跳过缓存", zap.Error(err))
			return ""
		}
		scope.Documents = n
	}
	return cacheKey(scope, req)
}

// lookup 缓存读取失败只记录日志
func (s *ClassifierService) lookup(ctx context.Context, key string) *model.ClassifyResponse {
	if s.cache == nil || key == "" {
		return nil
	}

	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		s.logger.Warn("读取缓存失败", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !ok {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil
	}

	metrics.CacheLookups.WithLabelValues("hit").Inc()
	s.logger.Debug("命中缓存", zap.String("key", key))
	return cached
}

func (s *ClassifierService) store(ctx context.Context, key string, resp *model.ClassifyResponse) {
	if s.cache == nil || key == "" {
		return
	}
	if err := s.cache.Set(ctx, key, resp); err != nil {
		s.logger.Warn("写入缓存失败", zap.String("key", key), zap.Error(err))
	}
}
