package index

import (
	"context"
	"testing"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/supportbot/docclassify/internal/classify"
	"github.com/supportbot/docclassify/internal/config"
)

func testIndexConfig() config.IndexConfig {
	return config.IndexConfig{
		MemOnly:         true,
		DefaultField:    "body",
		DefaultAnalyzer: "standard",
		BatchSize:       2,
		Fields: []config.FieldConfig{
			{Name: "title", Analyzer: "standard"},
			{Name: "body", Analyzer: "standard"},
			{Name: "category", Analyzer: "keyword"},
		},
	}
}

var trainingDocs = []Document{
	{ID: "s1", Fields: map[string]string{"title": "derby", "body": "football match goal striker", "category": "sport"}},
	{ID: "s2", Fields: map[string]string{"title": "league", "body": "football league goal keeper", "category": "sport"}},
	{ID: "s3", Fields: map[string]string{"title": "open", "body": "tennis match serve", "category": "sport"}},
	{ID: "t1", Fields: map[string]string{"title": "release", "body": "computer software programming code", "category": "tech"}},
	{ID: "t2", Fields: map[string]string{"title": "patch", "body": "software bug code compiler", "category": "tech"}},
	{ID: "t3", Fields: map[string]string{"title": "silicon", "body": "computer hardware chip", "category": "tech"}},
}

func newTestIndex(t *testing.T, docs []Document) bleve.Index {
	t.Helper()
	idx, err := Open(testIndexConfig(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	require.NoError(t, NewIndexer(idx, 2, zap.NewNop()).AddDocuments(context.Background(), docs))
	return idx
}

func newTestProcessor(t *testing.T, idx bleve.Index, algorithm string) *classify.Processor {
	t.Helper()
	cfg := testIndexConfig()
	p, err := classify.NewProcessor(
		classify.Options{Algorithm: algorithm, KNN: classify.KNNConfig{K: 3, MinDf: 1, MinTf: 1}},
		NewQueryParser(cfg.DefaultField),
		NewSchema(idx.Mapping(), cfg.FieldNames()),
		NewFactory(idx, 1000, zap.NewNop()),
		zap.NewNop(),
	)
	require.NoError(t, err)
	return p
}

func strPtr(s string) *string { return &s }

func TestBuildMapping_UnknownAnalyzer(t *testing.T) {
	cfg := testIndexConfig()
	cfg.Fields = append(cfg.Fields, config.FieldConfig{Name: "extra", Analyzer: "no-such-analyzer"})

	_, err := BuildMapping(cfg)

	assert.Error(t, err)
}

func TestIndexer_AddDocuments(t *testing.T) {
	idx := newTestIndex(t, trainingDocs)
	indexer := NewIndexer(idx, 2, zap.NewNop())

	count, err := indexer.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(len(trainingDocs)), count)

	require.NoError(t, indexer.AddDocuments(context.Background(), []Document{
		{Fields: map[string]string{"body": "generated id", "category": "misc"}},
	}))
	count, err = indexer.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(len(trainingDocs)+1), count)

	err = indexer.AddDocuments(context.Background(), []Document{{ID: "empty"}})
	assert.Error(t, err)
}

func TestIndexer_InvalidDocumentWritesNothing(t *testing.T) {
	idx := newTestIndex(t, nil)
	indexer := NewIndexer(idx, 2, zap.NewNop())

	err := indexer.AddDocuments(context.Background(), []Document{
		{ID: "ok1", Fields: map[string]string{"body": "first"}},
		{ID: "ok2", Fields: map[string]string{"body": "second"}},
		{ID: "ok3", Fields: map[string]string{"body": "third"}},
		{ID: "empty"},
	})
	require.Error(t, err)

	count, err := indexer.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestQueryParser(t *testing.T) {
	parser := NewQueryParser("body")
	ctx := context.Background()

	t.Run("default dialect", func(t *testing.T) {
		q, err := parser.Parse(ctx, "category:tech", "")

		require.NoError(t, err)
		assert.Implements(t, (*query.Query)(nil), q)
	})

	t.Run("default dialect syntax error", func(t *testing.T) {
		_, err := parser.Parse(ctx, "category:(", "")

		assert.Error(t, err)
	})

	t.Run("match dialect uses default field", func(t *testing.T) {
		q, err := parser.Parse(ctx, "football goal", DialectMatch)

		require.NoError(t, err)
		mq, ok := q.(*query.MatchQuery)
		require.True(t, ok)
		assert.Equal(t, "body", mq.Field())
	})

	t.Run("phrase dialect", func(t *testing.T) {
		q, err := parser.Parse(ctx, "football goal", DialectPhrase)

		require.NoError(t, err)
		_, ok := q.(*query.MatchPhraseQuery)
		assert.True(t, ok)
	})

	t.Run("unknown dialect", func(t *testing.T) {
		_, err := parser.Parse(ctx, "x", "dismax")

		assert.Error(t, err)
	})
}

func TestCompile(t *testing.T) {
	t.Run("nil matches everything", func(t *testing.T) {
		q, err := Compile(nil)

		require.NoError(t, err)
		_, ok := q.(*query.MatchAllQuery)
		assert.True(t, ok)
	})

	t.Run("boolean query", func(t *testing.T) {
		primary := bleve.NewMatchQuery("foo")
		filter := bleve.NewMatchQuery("bar")

		q, err := Compile(&classify.BooleanQuery{Clauses: []classify.Clause{
			{Query: primary, Occur: classify.Should},
			{Query: filter, Occur: classify.Filter},
		}})

		require.NoError(t, err)
		bq, ok := q.(*query.BooleanQuery)
		require.True(t, ok)
		assert.NotNil(t, bq.Must)
		assert.NotNil(t, bq.Should)
	})

	t.Run("foreign query type", func(t *testing.T) {
		_, err := Compile("not a query")

		assert.Error(t, err)
	})
}

func TestSchema_AnalyzerFor(t *testing.T) {
	idx := newTestIndex(t, nil)
	schema := NewSchema(idx.Mapping(), testIndexConfig().FieldNames())

	t.Run("standard analyzer lowercases", func(t *testing.T) {
		a, err := schema.AnalyzerFor("body")

		require.NoError(t, err)
		assert.Equal(t, []string{"football", "goal"}, a.Tokens("Football GOAL"))
	})

	t.Run("keyword analyzer keeps text", func(t *testing.T) {
		a, err := schema.AnalyzerFor("category")

		require.NoError(t, err)
		assert.Equal(t, []string{"Sport News"}, a.Tokens("Sport News"))
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := schema.AnalyzerFor("nope")

		assert.ErrorIs(t, err, classify.ErrInvalidRequest)
	})
}

func TestKNN_EndToEnd(t *testing.T) {
	idx := newTestIndex(t, trainingDocs)
	p := newTestProcessor(t, idx, classify.AlgorithmKNN)

	resp, err := p.Process(context.Background(), classify.Request{
		Query:       strPtr("football goal"),
		TrainFields: []string{"body"},
		TargetField: "category",
	})

	require.NoError(t, err)
	assert.Equal(t, "knn", resp.Algorithm)
	require.Len(t, resp.Classes, 1)
	assert.Equal(t, "sport", resp.Classes[0].Label)
	assert.Equal(t, 1.0, resp.Classes[0].Score)
}

func TestKNN_FilterRestrictsTrainingSet(t *testing.T) {
	idx := newTestIndex(t, trainingDocs)
	p := newTestProcessor(t, idx, classify.AlgorithmKNN)

	resp, err := p.Process(context.Background(), classify.Request{
		Analyze:     strPtr("football goal"),
		Filters:     []string{"category:tech"},
		TrainFields: []string{"body"},
		TargetField: "category",
	})

	require.NoError(t, err)
	assert.Empty(t, resp.Classes)
}

func TestKNN_MinTfDropsRareTerms(t *testing.T) {
	idx := newTestIndex(t, trainingDocs)
	c := &knnClassifier{
		index:    idx,
		analyzer: &fieldAnalyzer{analyzer: idx.Mapping().AnalyzerNamed("standard")},
		training: trainingQuery{},
		cfg:      classify.KNNConfig{K: 3, MinTf: 2},
		target:   "category",
		fields:   []string{"body"},
	}

	terms, err := c.selectTerms(context.Background(), "code code football")
	require.NoError(t, err)
	assert.Equal(t, []string{"code"}, terms)

	c.cfg = classify.KNNConfig{K: 3, MinDf: 2}
	terms, err = c.selectTerms(context.Background(), "striker software")
	require.NoError(t, err)
	assert.Equal(t, []string{"software"}, terms)
}

func TestBayes_EndToEnd(t *testing.T) {
	idx := newTestIndex(t, trainingDocs)
	p := newTestProcessor(t, idx, classify.AlgorithmBayes)

	resp, err := p.Process(context.Background(), classify.Request{
		Query:       strPtr("software code compiler"),
		TrainFields: []string{"title", "body"},
		TargetField: "category",
	})

	require.NoError(t, err)
	assert.Equal(t, "bayes", resp.Algorithm)
	require.Len(t, resp.Classes, 1)
	assert.Equal(t, "tech", resp.Classes[0].Label)
	assert.Greater(t, resp.Classes[0].Score, 0.5)
}

func TestBayes_SingleClass(t *testing.T) {
	idx := newTestIndex(t, trainingDocs)
	p := newTestProcessor(t, idx, classify.AlgorithmBayes)

	resp, err := p.Process(context.Background(), classify.Request{
		Query:       strPtr("anything"),
		Filters:     []string{"category:sport"},
		TrainFields: []string{"body"},
		TargetField: "category",
	})

	require.NoError(t, err)
	assert.Equal(t, []classify.Result{{Label: "sport", Score: 1}}, resp.Classes)
}

func TestBayes_EmptyIndex(t *testing.T) {
	idx := newTestIndex(t, nil)
	p := newTestProcessor(t, idx, classify.AlgorithmBayes)

	resp, err := p.Process(context.Background(), classify.Request{
		Query:       strPtr("anything"),
		TrainFields: []string{"body"},
		TargetField: "category",
	})

	require.NoError(t, err)
	assert.Empty(t, resp.Classes)
}

func TestVote(t *testing.T) {
	assert.Empty(t, vote(nil, "category"))
}

func TestNormalizeLog(t *testing.T) {
	probs := normalizeLog([]float64{-1, -1})

	assert.InDelta(t, 0.5, probs[0], 1e-9)
	assert.InDelta(t, 0.5, probs[1], 1e-9)
}

func TestSplitTraining(t *testing.T) {
	primary := bleve.NewMatchQuery("foo")
	filter := bleve.NewMatchQuery("bar")

	t.Run("primary only is required", func(t *testing.T) {
		tq, err := splitTraining(primary)

		require.NoError(t, err)
		assert.Equal(t, primary, tq.primary)
		assert.False(t, tq.optional)
		assert.Empty(t, tq.filters)
	})

	t.Run("primary is optional next to filters", func(t *testing.T) {
		tq, err := splitTraining(&classify.BooleanQuery{Clauses: []classify.Clause{
			{Query: primary, Occur: classify.Should},
			{Query: filter, Occur: classify.Filter},
		}})

		require.NoError(t, err)
		assert.Equal(t, primary, tq.primary)
		assert.True(t, tq.optional)
		assert.Equal(t, []query.Query{filter}, tq.filters)
	})

	t.Run("nothing", func(t *testing.T) {
		tq, err := splitTraining(nil)

		require.NoError(t, err)
		assert.Nil(t, tq.primary)
		assert.Empty(t, tq.filters)
	})
}

func TestKNN_FilterDoesNotChangeScores(t *testing.T) {
	docs := []Document{
		{ID: "a1", Fields: map[string]string{"title": "red", "body": "apple", "category": "x"}},
		{ID: "a2", Fields: map[string]string{"title": "red", "body": "apple apple pie", "category": "y"}},
	}
	idx := newTestIndex(t, docs)
	p := newTestProcessor(t, idx, classify.AlgorithmKNN)

	run := func(filters ...string) []classify.Result {
		resp, err := p.Process(context.Background(), classify.Request{
			Analyze:     strPtr("apple"),
			Filters:     filters,
			TrainFields: []string{"body"},
			TargetField: "category",
		})
		require.NoError(t, err)
		return resp.Classes
	}

	unfiltered := run()
	require.NotEmpty(t, unfiltered)
	assert.Equal(t, unfiltered, run("title:red"))
}

func TestKNN_FilterMatchingEverythingKeepsResult(t *testing.T) {
	idx := newTestIndex(t, trainingDocs)
	p := newTestProcessor(t, idx, classify.AlgorithmKNN)

	run := func(filters ...string) []classify.Result {
		resp, err := p.Process(context.Background(), classify.Request{
			Analyze:     strPtr("football match code"),
			Filters:     filters,
			TrainFields: []string{"body"},
			TargetField: "category",
		})
		require.NoError(t, err)
		return resp.Classes
	}

	assert.Equal(t, run(), run("category:sport category:tech"))
}

func TestProcess_EmptyQueryTrainsOnEverything(t *testing.T) {
	idx := newTestIndex(t, trainingDocs)

	for _, algorithm := range []string{classify.AlgorithmKNN, classify.AlgorithmBayes} {
		t.Run(algorithm, func(t *testing.T) {
			p := newTestProcessor(t, idx, algorithm)
			base := classify.Request{
				Analyze:     strPtr("football goal striker"),
				TrainFields: []string{"body"},
				TargetField: "category",
			}

			absent, err := p.Process(context.Background(), base)
			require.NoError(t, err)

			withEmpty := base
			withEmpty.Query = strPtr("")
			empty, err := p.Process(context.Background(), withEmpty)
			require.NoError(t, err)

			require.Len(t, absent.Classes, 1)
			assert.Equal(t, "sport", absent.Classes[0].Label)
			assert.Equal(t, absent.Classes, empty.Classes)
		})
	}
}
