package index

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/supportbot/docclassify/internal/classify"
)

// 查询语法（defType）
const (
	DialectLucene = "lucene" // bleve 查询串语法，默认
	DialectMatch  = "match"  // 对默认字段分词后匹配
	DialectPhrase = "phrase" // 对默认字段短语匹配
)

// QueryParser 基于 bleve 的查询解析器
type QueryParser struct {
	defaultField string
}

// NewQueryParser 创建查询解析器，defaultField 用于 match/phrase 语法
func NewQueryParser(defaultField string) *QueryParser {
	return &QueryParser{defaultField: defaultField}
}

// Parse 按语法解析查询串
func (p *QueryParser) Parse(_ context.Context, text string, dialect string) (classify.Query, error) {
	switch dialect {
	case "", DialectLucene:
		q, err := query.NewQueryStringQuery(text).Parse()
		if err != nil {
			return nil, err
		}
		return q, nil
	case DialectMatch:
		q := bleve.NewMatchQuery(text)
		q.SetField(p.defaultField)
		return q, nil
	case DialectPhrase:
		q := bleve.NewMatchPhraseQuery(text)
		q.SetField(p.defaultField)
		return q, nil
	default:
		return nil, fmt.Errorf("unknown query dialect %q", dialect)
	}
}

// Compile 把核心流程产出的查询转换为 bleve 查询
//
// nil 表示不限制训练文档；复合查询中的过滤子句全部必须命中，主查询作为可选子句。
func Compile(q classify.Query) (query.Query, error) {
	switch v := q.(type) {
	case nil:
		return bleve.NewMatchAllQuery(), nil
	case query.Query:
		return v, nil
	case *classify.BooleanQuery:
		bq := bleve.NewBooleanQuery()
		for _, f := range v.Filters() {
			cq, err := Compile(f)
			if err != nil {
				return nil, err
			}
			bq.AddMust(cq)
		}
		optional := v.Optional()
		for _, s := range optional {
			cq, err := Compile(s)
			if err != nil {
				return nil, err
			}
			bq.AddShould(cq)
		}
		if len(optional) > 0 {
			bq.SetMinShould(0)
		}
		return bq, nil
	default:
		return nil, fmt.Errorf("unsupported query type %T", q)
	}
}

// trainingQuery 拆开的训练文档查询：主查询参与打分，过滤子句只限定范围
type trainingQuery struct {
	primary  query.Query   // 可能为 nil
	optional bool          // 有过滤子句时主查询只加分，不要求命中
	filters  []query.Query // 全部必须命中
}

// splitTraining 把核心流程产出的查询拆成主查询和过滤子句
func splitTraining(q classify.Query) (trainingQuery, error) {
	switch v := q.(type) {
	case nil:
		return trainingQuery{}, nil
	case query.Query:
		return trainingQuery{primary: v}, nil
	case *classify.BooleanQuery:
		var tq trainingQuery
		for _, f := range v.Filters() {
			cq, err := Compile(f)
			if err != nil {
				return trainingQuery{}, err
			}
			tq.filters = append(tq.filters, cq)
		}

		var optional []query.Query
		for _, s := range v.Optional() {
			cq, err := Compile(s)
			if err != nil {
				return trainingQuery{}, err
			}
			optional = append(optional, cq)
		}
		switch len(optional) {
		case 0:
		case 1:
			tq.primary = optional[0]
		default:
			tq.primary = bleve.NewDisjunctionQuery(optional...)
		}
		tq.optional = len(tq.filters) > 0
		return tq, nil
	default:
		return trainingQuery{}, fmt.Errorf("unsupported query type %T", q)
	}
}
