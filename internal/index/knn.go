package index

import (
	"context"
	"fmt"
	"sort"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/supportbot/docclassify/internal/classify"
)

// maxQueryTerms 相似文档查询最多使用的词数
const maxQueryTerms = 25

// knnClassifier 以待分类文本检索最相似的 k 篇训练文档，按目标字段投票
type knnClassifier struct {
	index    bleve.Index
	analyzer classify.Analyzer
	training trainingQuery
	cfg      classify.KNNConfig
	target   string
	fields   []string
}

// Classify 分类
func (c *knnClassifier) Classify(ctx context.Context, text string) ([]classify.Result, error) {
	terms, err := c.selectTerms(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return []classify.Result{}, nil
	}

	parts := []query.Query{bleve.NewDisjunctionQuery(c.termQueries(terms)...)}
	if len(c.training.filters) > 0 {
		restrict, err := c.restriction(ctx)
		if err != nil {
			return nil, err
		}
		if restrict == nil {
			return []classify.Result{}, nil
		}
		parts = append(parts, restrict)
	}
	if c.training.primary != nil && !c.training.optional {
		parts = append(parts, c.training.primary)
	}

	var q query.Query = bleve.NewConjunctionQuery(parts...)
	if c.training.primary != nil && c.training.optional {
		bq := bleve.NewBooleanQuery()
		bq.AddMust(parts...)
		bq.AddShould(c.training.primary)
		bq.SetMinShould(0)
		q = bq
	}

	req := bleve.NewSearchRequestOptions(q, c.cfg.K, 0, false)
	req.Fields = []string{c.target}

	res, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}
	return vote(res.Hits, c.target), nil
}

// restriction 把过滤子句解析为文档 ID 集合，boost 为 0 不影响相似度得分；
// 没有文档满足过滤条件时返回 nil
func (c *knnClassifier) restriction(ctx context.Context) (query.Query, error) {
	total, err := c.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("document count: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(c.training.filters...), int(total), 0, false)
	res, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("resolve filters: %w", err)
	}
	if len(res.Hits) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	restrict := bleve.NewDocIDQuery(ids)
	restrict.SetBoost(0)
	return restrict, nil
}

// selectTerms 按 minTf/minDf 过滤待分类文本中的词，词频高的优先
func (c *knnClassifier) selectTerms(ctx context.Context, text string) ([]string, error) {
	freq := make(map[string]int)
	for _, tok := range c.analyzer.Tokens(text) {
		freq[tok]++
	}

	terms := make([]string, 0, len(freq))
	for term, tf := range freq {
		if tf < c.cfg.MinTf {
			continue
		}
		if c.cfg.MinDf > 0 {
			df, err := c.docFreq(ctx, term)
			if err != nil {
				return nil, err
			}
			if df < uint64(c.cfg.MinDf) {
				continue
			}
		}
		terms = append(terms, term)
	}

	sort.Slice(terms, func(i, j int) bool {
		if freq[terms[i]] != freq[terms[j]] {
			return freq[terms[i]] > freq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxQueryTerms {
		terms = terms[:maxQueryTerms]
	}
	return terms, nil
}

// docFreq 包含该词（任一训练字段）的文档数
func (c *knnClassifier) docFreq(ctx context.Context, term string) (uint64, error) {
	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(c.termQueries([]string{term})...), 0, 0, false)
	res, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("document frequency of %q: %w", term, err)
	}
	return res.Total, nil
}

func (c *knnClassifier) termQueries(terms []string) []query.Query {
	out := make([]query.Query, 0, len(terms)*len(c.fields))
	for _, term := range terms {
		for _, field := range c.fields {
			tq := bleve.NewTermQuery(term)
			tq.SetField(field)
			out = append(out, tq)
		}
	}
	return out
}

// vote 每篇命中文档按相对得分为其类别投票，结果归一化后降序
func vote(hits search.DocumentMatchCollection, target string) []classify.Result {
	if len(hits) == 0 {
		return []classify.Result{}
	}

	var maxScore float64
	for _, hit := range hits {
		if hit.Score > maxScore {
			maxScore = hit.Score
		}
	}

	weights := make(map[string]float64)
	var total float64
	for _, hit := range hits {
		w := 1.0
		if maxScore > 0 {
			w = hit.Score / maxScore
		}
		for _, label := range fieldValues(hit.Fields[target]) {
			weights[label] += w
			total += w
		}
	}

	results := make([]classify.Result, 0, len(weights))
	for label, w := range weights {
		score := w
		if total > 0 {
			score = w / total
		}
		results = append(results, classify.Result{Label: label, Score: score})
	}
	sortResults(results)
	return results
}

// sortResults 得分降序，同分按类别名升序
func sortResults(results []classify.Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Label < results[j].Label
	})
}

// fieldValues 存储字段可能是单值或数组
func fieldValues(v interface{}) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
