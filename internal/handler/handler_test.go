package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/supportbot/docclassify/internal/classify"
	"github.com/supportbot/docclassify/internal/middleware"
	"github.com/supportbot/docclassify/internal/model"
	"github.com/supportbot/docclassify/internal/service"
)

type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, req *model.ClassifyRequest) (*model.ClassifyResponse, error) {
	args := m.Called(ctx, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*model.ClassifyResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type stubStats struct {
	stats *service.IndexStats
	err   error
}

func (s stubStats) Stats() (*service.IndexStats, error) { return s.stats, s.err }

type stubCounter int

func (c stubCounter) Count() int { return int(c) }

func setupRouter(classifier Classifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	h := NewClassifierHandler(classifier, zap.NewNop())
	r.GET("/api/classify", h.Classify)
	return r
}

func sportResponse() *model.ClassifyResponse {
	return &model.ClassifyResponse{
		Algorithm: "knn",
		Classes:   []model.ClassEntry{{Class: "sport", Score: "0.5"}, {Class: "news", Score: "0.5"}},
	}
}

func TestClassifierHandler_Classify(t *testing.T) {
	classifier := new(MockClassifier)
	classifier.On("Classify", mock.Anything, mock.MatchedBy(func(req *model.ClassifyRequest) bool {
		return req.Query != nil && *req.Query == "football" &&
			req.Analyze == nil &&
			assert.ObjectsAreEqual([]string{"category:news", "lang:en"}, req.Filters) &&
			assert.ObjectsAreEqual([]string{"title", "body"}, req.TrainFields) &&
			req.TargetField == "category" &&
			req.Algorithm == "bayes" &&
			req.Dialect == "match"
	})).Return(sportResponse(), nil)

	r := setupRouter(classifier)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/api/classify?q=football&fq=category:news&fq=lang:en&domain=title&domain=body&range=category&algorithm=bayes&defType=match", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"algorithm":"knn","classes":[{"class":"sport","score":"0.5"},{"class":"news","score":"0.5"}]}`, w.Body.String())
	classifier.AssertExpectations(t)
}

func TestClassifierHandler_EmptyQueryIsPresent(t *testing.T) {
	classifier := new(MockClassifier)
	classifier.On("Classify", mock.Anything, mock.MatchedBy(func(req *model.ClassifyRequest) bool {
		return req.Query != nil && *req.Query == "" && req.Analyze != nil && *req.Analyze == "text"
	})).Return(&model.ClassifyResponse{Algorithm: "knn", Classes: []model.ClassEntry{}}, nil)

	r := setupRouter(classifier)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/classify?q=&analyze=text&domain=body&range=category", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"algorithm":"knn","classes":[]}`, w.Body.String())
}

func TestClassifierHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unsupported algorithm", fmt.Errorf("%w: svm", classify.ErrUnsupportedAlgorithm), http.StatusBadRequest, "UNSUPPORTED_ALGORITHM"},
		{"invalid request", fmt.Errorf("%w: no training fields", classify.ErrInvalidRequest), http.StatusBadRequest, "INVALID_REQUEST"},
		{"query parse", &classify.QueryParseError{Query: "a:(", Err: errors.New("syntax")}, http.StatusBadRequest, "QUERY_PARSE_ERROR"},
		{"classification", &classify.ClassificationError{Algorithm: "knn", Err: errors.New("index closed")}, http.StatusInternalServerError, "CLASSIFICATION_FAILED"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := new(MockClassifier)
			classifier.On("Classify", mock.Anything, mock.Anything).Return(nil, tt.err)

			r := setupRouter(classifier)
			req := httptest.NewRequest(http.MethodGet, "/api/classify?q=x&domain=body&range=category", nil)
			req.Header.Set(middleware.RequestIDHeader, "req-1")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			var body struct {
				Error     model.ErrorInfo `json:"error"`
				RequestID string          `json:"request_id"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
			assert.Equal(t, "req-1", body.RequestID)
		})
	}
}

func TestMapError_HidesInternalDetails(t *testing.T) {
	_, info := MapError(&classify.ClassificationError{Algorithm: "knn", Err: errors.New("/var/data/secret")})

	assert.NotContains(t, info.Message, "secret")
}

func TestAPIHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("health", func(t *testing.T) {
		h := NewAPIHandler("docclassify", "knn", stubStats{}, stubCounter(2), zap.NewNop())
		r := gin.New()
		r.GET("/api/health", h.Health)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"UP","service":"docclassify","algorithm":"knn","open_streams":2}`, w.Body.String())
	})

	t.Run("index stats", func(t *testing.T) {
		stats := &service.IndexStats{Documents: 6, Fields: []string{"body", "category"}, Status: "ready"}
		h := NewAPIHandler("docclassify", "knn", stubStats{stats: stats}, stubCounter(0), zap.NewNop())
		r := gin.New()
		r.GET("/api/index/stats", h.IndexStats)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/index/stats", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"total_documents":6,"fields":["body","category"],"status":"ready"}`, w.Body.String())
	})

	t.Run("index stats failure", func(t *testing.T) {
		h := NewAPIHandler("docclassify", "knn", stubStats{err: errors.New("closed")}, stubCounter(0), zap.NewNop())
		r := gin.New()
		r.GET("/api/index/stats", h.IndexStats)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/index/stats", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestStreamHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	classifier := new(MockClassifier)
	classifier.On("Classify", mock.Anything, mock.MatchedBy(func(req *model.ClassifyRequest) bool {
		return req.ID == "1"
	})).Return(sportResponse(), nil)
	classifier.On("Classify", mock.Anything, mock.MatchedBy(func(req *model.ClassifyRequest) bool {
		return req.ID == "2"
	})).Return(nil, fmt.Errorf("%w: svm", classify.ErrUnsupportedAlgorithm))

	registry := service.NewStreamRegistry(zap.NewNop())
	h := NewStreamHandler(classifier, registry, nil, zap.NewNop())
	r := gin.New()
	r.GET("/api/classify/stream", h.HandleStream)

	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/classify/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	t.Run("result", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(map[string]interface{}{
			"id": "1", "q": "football", "domain": []string{"body"}, "range": "category",
		}))

		var msg model.StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "1", msg.ID)
		assert.Nil(t, msg.Error)
		assert.Equal(t, sportResponse(), msg.Result)
	})

	t.Run("error", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(map[string]interface{}{
			"id": "2", "algorithm": "svm", "q": "x", "domain": []string{"body"}, "range": "category",
		}))

		var msg model.StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "2", msg.ID)
		assert.Nil(t, msg.Result)
		require.NotNil(t, msg.Error)
		assert.Equal(t, "UNSUPPORTED_ALGORITHM", msg.Error.Code)
	})

	t.Run("malformed message keeps connection", func(t *testing.T) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

		var msg model.StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		require.NotNil(t, msg.Error)
		assert.Equal(t, "INVALID_REQUEST", msg.Error.Code)
	})

	assert.Equal(t, 1, registry.Count())
}

func TestStreamHandler_RejectsOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewStreamHandler(new(MockClassifier), service.NewStreamRegistry(zap.NewNop()), []string{"https://ok.example"}, zap.NewNop())
	r := gin.New()
	r.GET("/api/classify/stream", h.HandleStream)

	srv := httptest.NewServer(r)
	defer srv.Close()

	header := http.Header{}
	header.Set("Origin", "https://evil.example")
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/classify/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, header)

	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
