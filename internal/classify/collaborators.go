package classify

import "context"

// Query 由 QueryParser 产出的查询，对核心流程不透明
type Query interface{}

// Occur 复合查询子句的出现方式
type Occur int

const (
	// Should 可选子句，不要求命中
	Should Occur = iota
	// Filter 必须命中的过滤子句，不参与打分
	Filter
)

// Clause 复合查询中的一个子句
type Clause struct {
	Query Query
	Occur Occur
}

// BooleanQuery 主查询与过滤查询组合后的复合查询
type BooleanQuery struct {
	Clauses []Clause
}

// Filters 返回所有过滤子句
func (q *BooleanQuery) Filters() []Query {
	var out []Query
	for _, c := range q.Clauses {
		if c.Occur == Filter {
			out = append(out, c.Query)
		}
	}
	return out
}

// Optional 返回可选子句
func (q *BooleanQuery) Optional() []Query {
	var out []Query
	for _, c := range q.Clauses {
		if c.Occur == Should {
			out = append(out, c.Query)
		}
	}
	return out
}

// QueryParser 查询解析器，dialect 为空时使用默认语法
type QueryParser interface {
	Parse(ctx context.Context, text string, dialect string) (Query, error)
}

// Analyzer 字段分词器
type Analyzer interface {
	Tokens(text string) []string
}

// Schema 字段与分词器注册表
type Schema interface {
	AnalyzerFor(field string) (Analyzer, error)
}

// Result 分类结果（类别 + 得分）
type Result struct {
	Label string
	Score float64
}

// Classifier 已配置好的分类器，结果按得分降序
type Classifier interface {
	Classify(ctx context.Context, text string) ([]Result, error)
}

// ClassifierFactory 基于索引构建分类器，query 为 nil 表示使用全部文档训练
type ClassifierFactory interface {
	KNN(analyzer Analyzer, query Query, cfg KNNConfig, targetField string, trainFields []string) (Classifier, error)
	Bayes(analyzer Analyzer, query Query, targetField string, trainFields []string) (Classifier, error)
}
