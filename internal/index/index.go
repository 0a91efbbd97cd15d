// Package index 把分类流程依赖的查询解析、字段分词和分类器绑定到 bleve 索引上。
package index

import (
	"errors"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"go.uber.org/zap"

	// 注册配置中可引用的分词器
	_ "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	_ "github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	_ "github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/en"

	"github.com/supportbot/docclassify/internal/config"
)

// BuildMapping 根据配置构建索引映射，每个字段都存储原文，分类时需要读回
func BuildMapping(cfg config.IndexConfig) (mapping.IndexMapping, error) {
	im := bleve.NewIndexMapping()
	if cfg.DefaultAnalyzer != "" {
		im.DefaultAnalyzer = cfg.DefaultAnalyzer
	}
	if cfg.DefaultField != "" {
		im.DefaultField = cfg.DefaultField
	}

	doc := bleve.NewDocumentMapping()
	for _, f := range cfg.Fields {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = f.Analyzer
		fm.Store = true
		doc.AddFieldMappingsAt(f.Name, fm)
	}
	im.DefaultMapping = doc

	if err := im.Validate(); err != nil {
		return nil, fmt.Errorf("invalid index mapping: %w", err)
	}
	return im, nil
}

// Open 打开索引，路径不存在时按配置创建；memOnly 时创建内存索引
func Open(cfg config.IndexConfig, logger *zap.Logger) (bleve.Index, error) {
	m, err := BuildMapping(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.MemOnly {
		logger.Info("创建内存索引", zap.Int("fields", len(cfg.Fields)))
		return bleve.NewMemOnly(m)
	}

	idx, err := bleve.Open(cfg.Path)
	if err == nil {
		logger.Info("索引已打开", zap.String("path", cfg.Path))
		return idx, nil
	}
	if !errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		return nil, fmt.Errorf("打开索引失败: %w", err)
	}

	idx, err = bleve.New(cfg.Path, m)
	if err != nil {
		return nil, fmt.Errorf("创建索引失败: %w", err)
	}
	logger.Info("索引已创建", zap.String("path", cfg.Path))
	return idx, nil
}
