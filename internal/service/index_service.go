package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/supportbot/docclassify/internal/index"
)

// IndexStats 索引统计
type IndexStats struct {
	Documents uint64   `json:"total_documents"`
	Fields    []string `json:"fields"`
	Status    string   `json:"status"`
}

// IndexService 训练文档管理服务
type IndexService struct {
	indexer *index.Indexer
	fields  []string
	logger  *zap.Logger
}

// NewIndexService 创建训练文档管理服务
func NewIndexService(indexer *index.Indexer, fields []string, logger *zap.Logger) *IndexService {
	return &IndexService{
		indexer: indexer,
		fields:  fields,
		logger:  logger,
	}
}

// AddDocuments 写入训练文档，只允许配置过的字段
func (s *IndexService) AddDocuments(ctx context.Context, docs []index.Document) error {
	known := make(map[string]bool, len(s.fields))
	for _, f := range s.fields {
		known[f] = true
	}
	for _, doc := range docs {
		for field := range doc.Fields {
			if !known[field] {
				return fmt.Errorf("文档 %q 包含未配置的字段 %q", doc.ID, field)
			}
		}
	}

	s.logger.Info("写入训练文档", zap.Int("count", len(docs)))
	if err := s.indexer.AddDocuments(ctx, docs); err != nil {
		return fmt.Errorf("写入训练文档失败: %w", err)
	}
	return nil
}

// LoadFile 从 JSON 文件（文档数组）导入训练文档
func (s *IndexService) LoadFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("读取文档文件失败: %w", err)
	}

	var docs []index.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return 0, fmt.Errorf("解析文档文件失败: %w", err)
	}

	if err := s.AddDocuments(ctx, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}

// Stats 索引统计
func (s *IndexService) Stats() (*IndexStats, error) {
	count, err := s.indexer.Count()
	if err != nil {
		return nil, fmt.Errorf("统计文档数量失败: %w", err)
	}
	return &IndexStats{
		Documents: count,
		Fields:    s.fields,
		Status:    "ready",
	}, nil
}
