// Package classify 把一次分类请求转换为分类器调用和按得分分层的结果。
//
// 查询解析、索引访问和分类算法都通过接口注入，本包只负责参数校验、查询组合、
// 分类器选择和结果筛选。
package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Request 一次分类请求
type Request struct {
	Algorithm   string   // 为空时使用启动配置中的算法
	Query       *string  // q，nil 表示未提供
	Analyze     *string  // analyze，nil 时退回 q
	Filters     []string // fq
	Dialect     string   // defType
	TrainFields []string // domain
	TargetField string   // range
}

// Response 分类响应
type Response struct {
	Algorithm string
	Classes   []Result
}

// Options 启动时加载的算法配置，之后只读
type Options struct {
	Algorithm string
	KNN       KNNConfig
}

// Processor 分类请求处理器，无状态，可并发使用
type Processor struct {
	algorithm Algorithm
	knn       KNNConfig
	parser    QueryParser
	schema    Schema
	factory   ClassifierFactory
	logger    *zap.Logger
}

// NewProcessor 创建分类请求处理器，算法名称非法时返回错误
func NewProcessor(opts Options, parser QueryParser, schema Schema, factory ClassifierFactory, logger *zap.Logger) (*Processor, error) {
	algorithm, err := ParseAlgorithm(opts.Algorithm, opts.KNN)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Processor{
		algorithm: algorithm,
		knn:       opts.KNN,
		parser:    parser,
		schema:    schema,
		factory:   factory,
		logger:    logger,
	}, nil
}

// Algorithm 返回默认算法
func (p *Processor) Algorithm() Algorithm {
	return p.algorithm
}

// Process 处理一次分类请求
func (p *Processor) Process(ctx context.Context, req Request) (*Response, error) {
	algorithm, err := p.resolveAlgorithm(req.Algorithm)
	if err != nil {
		return nil, err
	}

	if err := validate(req); err != nil {
		return nil, err
	}

	text, err := analyzeText(req)
	if err != nil {
		return nil, err
	}

	// 1. 解析主查询与过滤查询
	query, err := BuildQuery(ctx, p.parser, req.Query, req.Dialect, req.Filters)
	if err != nil {
		return nil, err
	}

	// 2. 分词器取自第一个训练字段
	analyzer, err := p.schema.AnalyzerFor(req.TrainFields[0])
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			return nil, err
		}
		return nil, &ClassificationError{Algorithm: algorithm.Name(), Err: err}
	}

	// 3. 构建分类器
	classifier, err := p.newClassifier(algorithm, analyzer, query, req)
	if err != nil {
		return nil, &ClassificationError{Algorithm: algorithm.Name(), Err: err}
	}

	// 4. 分类并筛选最高分档
	results, err := classifier.Classify(ctx, text)
	if err != nil {
		return nil, &ClassificationError{Algorithm: algorithm.Name(), Err: err}
	}

	classes := TopTier(results)
	p.logger.Debug("classified",
		zap.String("algorithm", algorithm.Name()),
		zap.Int("candidates", len(results)),
		zap.Int("returned", len(classes)))

	return &Response{
		Algorithm: algorithm.Name(),
		Classes:   classes,
	}, nil
}

// KNN 返回启动配置中的 knn 参数
func (p *Processor) KNN() KNNConfig {
	return p.knn
}

func (p *Processor) resolveAlgorithm(name string) (Algorithm, error) {
	if name == "" || name == p.algorithm.Name() {
		return p.algorithm, nil
	}
	return ParseAlgorithm(name, p.knn)
}

func (p *Processor) newClassifier(algorithm Algorithm, analyzer Analyzer, query Query, req Request) (Classifier, error) {
	switch a := algorithm.(type) {
	case KNNConfig:
		return p.factory.KNN(analyzer, query, a, req.TargetField, req.TrainFields)
	case BayesConfig:
		return p.factory.Bayes(analyzer, query, req.TargetField, req.TrainFields)
	default:
		panic(fmt.Sprintf("classify: unhandled algorithm %T", algorithm))
	}
}

// validate 在调用任何协作者之前检查必填参数
func validate(req Request) error {
	if len(req.TrainFields) == 0 {
		return invalidf("at least one training field (domain) is required")
	}
	for _, f := range req.TrainFields {
		if strings.TrimSpace(f) == "" {
			return invalidf("training field (domain) must not be blank")
		}
	}
	if strings.TrimSpace(req.TargetField) == "" {
		return invalidf("target field (range) is required")
	}
	return nil
}

// analyzeText 待分类文本，优先 analyze，其次 q
func analyzeText(req Request) (string, error) {
	if req.Analyze != nil {
		return *req.Analyze, nil
	}
	if req.Query != nil {
		return *req.Query, nil
	}
	return "", invalidf("nothing to classify: neither analyze nor q given")
}
