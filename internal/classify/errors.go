package classify

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedAlgorithm 不支持的分类算法
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	// ErrInvalidRequest 请求参数缺失或非法
	ErrInvalidRequest = errors.New("invalid request")
)

// QueryParseError 查询解析失败，保留原始查询串
type QueryParseError struct {
	Query string
	Err   error
}

func (e *QueryParseError) Error() string {
	return fmt.Sprintf("parse query %q: %v", e.Query, e.Err)
}

func (e *QueryParseError) Unwrap() error {
	return e.Err
}

// ClassificationError 索引访问或分类器调用失败
type ClassificationError struct {
	Algorithm string
	Err       error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed (%s): %v", e.Algorithm, e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
