package index

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/jbrukh/bayesian"

	"github.com/supportbot/docclassify/internal/classify"
)

// bayesClassifier 从索引取出训练文档，交给朴素贝叶斯分类器学习后打分
type bayesClassifier struct {
	index    bleve.Index
	analyzer classify.Analyzer
	training query.Query
	target   string
	fields   []string
	maxDocs  int
}

// Classify 分类
func (c *bayesClassifier) Classify(ctx context.Context, text string) ([]classify.Result, error) {
	docs, err := c.trainingSet(ctx)
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(docs))
	for label := range docs {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	switch len(labels) {
	case 0:
		return []classify.Result{}, nil
	case 1:
		// bayesian 至少需要两个类别
		return []classify.Result{{Label: labels[0], Score: 1}}, nil
	}

	classes := make([]bayesian.Class, len(labels))
	for i, label := range labels {
		classes[i] = bayesian.Class(label)
	}

	nb := bayesian.NewClassifier(classes...)
	for _, label := range labels {
		for _, tokens := range docs[label] {
			nb.Learn(tokens, bayesian.Class(label))
		}
	}

	scores, _, _ := nb.LogScores(c.analyzer.Tokens(text))
	probs := normalizeLog(scores)

	results := make([]classify.Result, len(labels))
	for i, label := range labels {
		results[i] = classify.Result{Label: label, Score: probs[i]}
	}
	sortResults(results)
	return results, nil
}

// trainingSet 按类别分组的训练文档词序列
func (c *bayesClassifier) trainingSet(ctx context.Context) (map[string][][]string, error) {
	req := bleve.NewSearchRequestOptions(c.training, c.maxDocs, 0, false)
	req.Fields = append([]string{c.target}, c.fields...)
	req.SortBy([]string{"_id"})

	res, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch training documents: %w", err)
	}

	docs := make(map[string][][]string)
	for _, hit := range res.Hits {
		labels := fieldValues(hit.Fields[c.target])
		if len(labels) == 0 {
			continue
		}

		var tokens []string
		for _, field := range c.fields {
			for _, value := range fieldValues(hit.Fields[field]) {
				tokens = append(tokens, c.analyzer.Tokens(value)...)
			}
		}

		for _, label := range labels {
			docs[label] = append(docs[label], tokens)
		}
	}
	return docs, nil
}

// normalizeLog 对数得分转换为和为 1 的概率
func normalizeLog(scores []float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}

	best := math.Inf(-1)
	for _, s := range scores {
		if s > best {
			best = s
		}
	}

	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - best)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
