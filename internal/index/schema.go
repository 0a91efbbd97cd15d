package index

import (
	"fmt"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/supportbot/docclassify/internal/classify"
)

// Schema 字段分词器注册表，只认配置过的字段
type Schema struct {
	mapping mapping.IndexMapping
	fields  map[string]struct{}
}

// NewSchema 创建字段注册表
func NewSchema(m mapping.IndexMapping, fields []string) *Schema {
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return &Schema{mapping: m, fields: set}
}

// AnalyzerFor 返回字段配置的分词器
func (s *Schema) AnalyzerFor(field string) (classify.Analyzer, error) {
	if _, ok := s.fields[field]; !ok {
		return nil, fmt.Errorf("%w: unknown field %q", classify.ErrInvalidRequest, field)
	}

	name := s.mapping.AnalyzerNameForPath(field)
	a := s.mapping.AnalyzerNamed(name)
	if a == nil {
		return nil, fmt.Errorf("analyzer %q for field %q not found", name, field)
	}
	return &fieldAnalyzer{analyzer: a}, nil
}

type fieldAnalyzer struct {
	analyzer analysis.Analyzer
}

func (f *fieldAnalyzer) Tokens(text string) []string {
	stream := f.analyzer.Analyze([]byte(text))
	tokens := make([]string, 0, len(stream))
	for _, tok := range stream {
		tokens = append(tokens, string(tok.Term))
	}
	return tokens
}
