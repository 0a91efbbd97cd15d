package model

import (
	"strconv"

	"github.com/supportbot/docclassify/internal/classify"
)

// ClassifyRequest 分类请求参数（HTTP 查询参数或 WebSocket 消息）
type ClassifyRequest struct {
	ID          string   `json:"id,omitempty"`
	Algorithm   string   `json:"algorithm,omitempty"`
	Query       *string  `json:"q,omitempty"`
	Analyze     *string  `json:"analyze,omitempty"`
	Filters     []string `json:"fq,omitempty"`
	Dialect     string   `json:"defType,omitempty"`
	TrainFields []string `json:"domain"`
	TargetField string   `json:"range"`
}

// ToClassify 转换为处理器请求
func (r *ClassifyRequest) ToClassify() classify.Request {
	return classify.Request{
		Algorithm:   r.Algorithm,
		Query:       r.Query,
		Analyze:     r.Analyze,
		Filters:     r.Filters,
		Dialect:     r.Dialect,
		TrainFields: r.TrainFields,
		TargetField: r.TargetField,
	}
}

// ClassEntry 单个类别，score 以十进制字符串输出
type ClassEntry struct {
	Class string `json:"class"`
	Score string `json:"score"`
}

// ClassifyResponse 分类响应
type ClassifyResponse struct {
	Algorithm string       `json:"algorithm"`
	Classes   []ClassEntry `json:"classes"`
}

// NewClassifyResponse 格式化处理器结果
func NewClassifyResponse(resp *classify.Response) *ClassifyResponse {
	classes := make([]ClassEntry, 0, len(resp.Classes))
	for _, c := range resp.Classes {
		classes = append(classes, ClassEntry{
			Class: c.Label,
			Score: FormatScore(c.Score),
		})
	}
	return &ClassifyResponse{
		Algorithm: resp.Algorithm,
		Classes:   classes,
	}
}

// FormatScore 最短十进制表示，不使用科学计数法
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// StreamMessage WebSocket 下行消息，成功时带 Result，失败时带 Error
type StreamMessage struct {
	ID     string            `json:"id,omitempty"`
	Result *ClassifyResponse `json:"result,omitempty"`
	Error  *ErrorInfo        `json:"error,omitempty"`
}

// ErrorInfo 错误详情
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
