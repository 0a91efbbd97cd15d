package index

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Document 训练文档
type Document struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

// Indexer 训练文档写入器
type Indexer struct {
	index     bleve.Index
	batchSize int
	logger    *zap.Logger
}

// NewIndexer 创建文档写入器
func NewIndexer(index bleve.Index, batchSize int, logger *zap.Logger) *Indexer {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Indexer{
		index:     index,
		batchSize: batchSize,
		logger:    logger,
	}
}

// AddDocuments 分批写入文档，ID 为空时自动生成；任一文档非法时一条都不写入
func (i *Indexer) AddDocuments(ctx context.Context, docs []Document) error {
	for n, doc := range docs {
		if len(doc.Fields) == 0 {
			return fmt.Errorf("document %d (%q) has no fields", n, doc.ID)
		}
	}

	for start := 0; start < len(docs); start += i.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + i.batchSize
		if end > len(docs) {
			end = len(docs)
		}

		batch := i.index.NewBatch()
		for _, doc := range docs[start:end] {
			id := doc.ID
			if id == "" {
				id = uuid.New().String()
			}

			data := make(map[string]interface{}, len(doc.Fields))
			for k, v := range doc.Fields {
				data[k] = v
			}
			if err := batch.Index(id, data); err != nil {
				return fmt.Errorf("索引文档 %s 失败: %w", id, err)
			}
		}

		if err := i.index.Batch(batch); err != nil {
			return fmt.Errorf("批量写入失败: %w", err)
		}
		i.logger.Info("文档已写入", zap.Int("count", end-start), zap.Int("done", end), zap.Int("total", len(docs)))
	}
	return nil
}

// Count 索引中的文档数量
func (i *Indexer) Count() (uint64, error) {
	return i.index.DocCount()
}
