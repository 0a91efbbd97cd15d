package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"

	"github.com/supportbot/docclassify/internal/classify"
	"github.com/supportbot/docclassify/internal/model"
)

// ResponseCache 分类结果缓存
type ResponseCache interface {
	Get(ctx context.Context, key string) (*model.ClassifyResponse, bool, error)
	Set(ctx context.Context, key string, resp *model.ClassifyResponse) error
}

// RedisCache 基于 Redis 的结果缓存
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache 创建 Redis 结果缓存
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get 读取缓存，未命中返回 false
func (c *RedisCache) Get(ctx context.Context, key string) (*model.ClassifyResponse, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var resp model.ClassifyResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, false, fmt.Errorf("decode cached response: %w", err)
	}
	return &resp, true, nil
}

// Set 写入缓存
func (c *RedisCache) Set(ctx context.Context, key string, resp *model.ClassifyResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// cacheScope 请求之外影响分类结果的状态
type cacheScope struct {
	Algorithm string
	KNN       classify.KNNConfig // 仅 knn 使用
	Documents uint64             // 索引文档数，导入新文档后缓存自然失效
}

// cacheKey 由算法、参数、索引状态和规范化后的请求参数计算缓存键
func cacheKey(scope cacheScope, req *model.ClassifyRequest) string {
	canonical := struct {
		Algorithm   string   `json:"a"`
		K           int      `json:"k,omitempty"`
		MinDf       int      `json:"mdf,omitempty"`
		MinTf       int      `json:"mtf,omitempty"`
		Documents   uint64   `json:"n"`
		Query       *string  `json:"q"`
		Analyze     *string  `json:"t"`
		Filters     []string `json:"f"`
		Dialect     string   `json:"d"`
		TrainFields []string `json:"tf"`
		TargetField string   `json:"r"`
	}{
		Algorithm:   scope.Algorithm,
		Documents:   scope.Documents,
		Query:       req.Query,
		Analyze:     req.Analyze,
		Filters:     req.Filters,
		Dialect:     req.Dialect,
		TrainFields: req.TrainFields,
		TargetField: req.TargetField,
	}
	if scope.Algorithm == classify.AlgorithmKNN {
		canonical.K = scope.KNN.K
		canonical.MinDf = scope.KNN.MinDf
		canonical.MinTf = scope.KNN.MinTf
	}
	data, _ := json.Marshal(canonical)
	return fmt.Sprintf("classify:%016x", xxhash.Sum64(data))
}
