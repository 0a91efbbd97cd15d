package index

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"go.uber.org/zap"

	"github.com/supportbot/docclassify/internal/classify"
)

// Factory 基于 bleve 索引构建分类器
type Factory struct {
	index           bleve.Index
	maxTrainingDocs int
	logger          *zap.Logger
}

// NewFactory 创建分类器工厂，maxTrainingDocs 限制贝叶斯一次读取的训练文档数
func NewFactory(index bleve.Index, maxTrainingDocs int, logger *zap.Logger) *Factory {
	return &Factory{
		index:           index,
		maxTrainingDocs: maxTrainingDocs,
		logger:          logger,
	}
}

// KNN 创建 k 近邻分类器
func (f *Factory) KNN(analyzer classify.Analyzer, q classify.Query, cfg classify.KNNConfig, targetField string, trainFields []string) (classify.Classifier, error) {
	if cfg.K <= 0 {
		return nil, fmt.Errorf("knn: k must be positive, got %d", cfg.K)
	}
	training, err := splitTraining(q)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("构建 knn 分类器",
		zap.Int("k", cfg.K),
		zap.Int("minDf", cfg.MinDf),
		zap.Int("minTf", cfg.MinTf),
		zap.String("target", targetField),
		zap.Strings("fields", trainFields))

	return &knnClassifier{
		index:    f.index,
		analyzer: analyzer,
		training: training,
		cfg:      cfg,
		target:   targetField,
		fields:   trainFields,
	}, nil
}

// Bayes 创建朴素贝叶斯分类器
func (f *Factory) Bayes(analyzer classify.Analyzer, q classify.Query, targetField string, trainFields []string) (classify.Classifier, error) {
	training, err := Compile(q)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("构建 bayes 分类器",
		zap.String("target", targetField),
		zap.Strings("fields", trainFields))

	return &bayesClassifier{
		index:    f.index,
		analyzer: analyzer,
		training: training,
		target:   targetField,
		fields:   trainFields,
		maxDocs:  f.maxTrainingDocs,
	}, nil
}
