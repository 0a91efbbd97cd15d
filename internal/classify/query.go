package classify

import (
	"context"
	"strings"
)

// BuildQuery 解析主查询并与过滤查询组合
//
// primary 为 nil 或空白时不生成主查询子句，训练文档不受主查询限制。没有非空
// 过滤查询时直接返回主查询本身。
func BuildQuery(ctx context.Context, parser QueryParser, primary *string, dialect string, filters []string) (Query, error) {
	var base Query
	if primary != nil && strings.TrimSpace(*primary) != "" {
		q, err := parser.Parse(ctx, *primary, dialect)
		if err != nil {
			return nil, &QueryParseError{Query: *primary, Err: err}
		}
		base = q
	}

	var clauses []Clause
	for _, fq := range filters {
		if strings.TrimSpace(fq) == "" {
			continue
		}
		// 过滤查询始终使用默认语法
		q, err := parser.Parse(ctx, fq, "")
		if err != nil {
			return nil, &QueryParseError{Query: fq, Err: err}
		}
		clauses = append(clauses, Clause{Query: q, Occur: Filter})
	}

	if len(clauses) == 0 {
		return base, nil
	}

	if base != nil {
		clauses = append([]Clause{{Query: base, Occur: Should}}, clauses...)
	}
	return &BooleanQuery{Clauses: clauses}, nil
}
