package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/config"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/scoring"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bundledModels = map[scoring.FeatureSchema]string{
	scoring.SchemaRetired: filepath.Join("..", "..", "models", "credit_score_model.json"),
	scoring.SchemaAge:     filepath.Join("..", "..", "models", "credit_score_model_age.json"),
}

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T, modelPath string, schema scoring.FeatureSchema) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Port:           8080,
			RequestTimeout: 5 * time.Second,
			MaxBodyBytes:   8 << 10,
		},
		Model:     config.ModelConfig{Path: modelPath, Schema: string(schema)},
		Scoring:   config.ScoringConfig{Policy: "clip", CalibrationDir: t.TempDir()},
		RateLimit: config.RateLimitConfig{IPPerMinute: 60, BurstMultiplier: 1.5},
		Logging:   config.LoggingConfig{Level: "error", Format: "json"},
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *app {
	t.Helper()
	logger := monitoring.NewLoggerWithOptions(io.Discard, slog.LevelError, "json")
	a, err := newApp(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func newTestRouter(t *testing.T, schema scoring.FeatureSchema) (*app, *gin.Engine) {
	t.Helper()
	a := newTestApp(t, testConfig(t, bundledModels[schema], schema))
	return a, setupRouter(a)
}

func scoreBody(t *testing.T, req types.ScoreRequest) []byte {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return body
}

func postScore(router *gin.Engine, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/score", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		modelPath      string
		expectedStatus int
		expectedState  string
	}{
		{
			name:           "loaded classifier is healthy",
			modelPath:      bundledModels[scoring.SchemaRetired],
			expectedStatus: http.StatusOK,
			expectedState:  "ok",
		},
		{
			name:           "missing artifact degrades the service",
			modelPath:      filepath.Join(t.TempDir(), "missing.json"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedState:  "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t, testConfig(t, tt.modelPath, scoring.SchemaRetired))
			_ = a.handle.Load()
			router := setupRouter(a)

			w := get(router, "/health")
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedState, decodeJSON(t, w)["status"])
		})
	}

	t.Run("other methods are rejected", func(t *testing.T) {
		_, router := newTestRouter(t, scoring.SchemaRetired)
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(method, "/health", nil))
			assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		}
	})
}

func TestStatusEndpoint(t *testing.T) {
	t.Run("loaded classifier", func(t *testing.T) {
		a, router := newTestRouter(t, scoring.SchemaRetired)

		w := get(router, "/api/status")
		require.Equal(t, http.StatusOK, w.Code)

		var resp types.StatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.True(t, resp.ModelLoaded)
		assert.Equal(t, "retired", resp.Schema)
		assert.Equal(t, "clip", resp.Policy)
		assert.Equal(t, scoring.DefaultPMin, resp.PMin)
		assert.Equal(t, scoring.DefaultPMax, resp.PMax)
		assert.Positive(t, resp.Trees)
		assert.Empty(t, resp.Banner)
		assert.True(t, a.handle.Status().Loaded)
	})

	t.Run("missing artifact shows a banner", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.json")
		router := setupRouter(newTestApp(t, testConfig(t, path, scoring.SchemaRetired)))

		w := get(router, "/api/status")
		require.Equal(t, http.StatusOK, w.Code)

		var resp types.StatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.False(t, resp.ModelLoaded)
		assert.Contains(t, resp.Banner, path)
	})

	t.Run("naive policy is reported", func(t *testing.T) {
		cfg := testConfig(t, bundledModels[scoring.SchemaAge], scoring.SchemaAge)
		cfg.Scoring.Policy = "naive"
		router := setupRouter(newTestApp(t, cfg))

		var resp types.StatusResponse
		require.NoError(t, json.Unmarshal(get(router, "/api/status").Body.Bytes(), &resp))
		assert.Equal(t, "naive", resp.Policy)
		assert.Equal(t, "age", resp.Schema)
	})
}

func TestFormEndpoint(t *testing.T) {
	for schema := range bundledModels {
		t.Run(string(schema), func(t *testing.T) {
			_, router := newTestRouter(t, schema)

			w := get(router, "/api/form")
			require.Equal(t, http.StatusOK, w.Code)

			var form types.FormSpec
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &form))
			assert.Equal(t, string(schema), form.Schema)
			assert.Len(t, form.Sections, 2)
		})
	}
}

func TestScoreEndpoint_ValidRequests(t *testing.T) {
	for schema := range bundledModels {
		t.Run(string(schema), func(t *testing.T) {
			_, router := newTestRouter(t, schema)

			w := postScore(router, scoreBody(t, types.DefaultRequest(schema)))
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var resp types.ScoreResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.GreaterOrEqual(t, resp.CreditScore, scoring.MinScore)
			assert.LessOrEqual(t, resp.CreditScore, scoring.MaxScore)
			assert.Equal(t, scoring.DecisionFor(resp.CreditScore), resp.Decision)
			assert.Equal(t, resp.Decision.Label(), resp.DecisionLabel)
			assert.Equal(t, schema, resp.Schema)
			assert.Equal(t, scoring.PolicyClip, resp.Policy)
			assert.Len(t, resp.Features, len(schema.Columns()))
			assert.Len(t, resp.Importances, len(schema.Columns()))
			assert.NotEmpty(t, resp.RequestID)
			assert.Equal(t, w.Header().Get("X-Request-ID"), resp.RequestID)
		})
	}
}

func TestScoreEndpoint_FlagsFollowInput(t *testing.T) {
	_, router := newTestRouter(t, scoring.SchemaRetired)

	req := types.DefaultRequest(scoring.SchemaRetired)
	low := 0.05
	req.ExtScore3 = &low
	req.Annuity = 30000

	w := postScore(router, scoreBody(t, req))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp types.ScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	flags := make(map[scoring.RiskFlag]bool)
	for _, note := range resp.RiskFlags {
		flags[note.Flag] = true
		assert.NotEmpty(t, note.Message)
	}
	assert.True(t, flags[scoring.FlagHighDebtToIncome])
	assert.True(t, flags[scoring.FlagLowExternalRating])
}

func TestScoreEndpoint_InvalidRequests(t *testing.T) {
	negative := types.DefaultRequest(scoring.SchemaRetired)
	negative.CreditAmount = -5

	outOfRange := types.DefaultRequest(scoring.SchemaRetired)
	tooHigh := 1.5
	outOfRange.ExtScore1 = &tooHigh

	missingRetired := types.DefaultRequest(scoring.SchemaRetired)
	missingRetired.IsRetired = nil

	negativeChildren := types.DefaultRequest(scoring.SchemaRetired)
	minusOne := -1
	negativeChildren.NumChildren = &minusOne

	// Both amounts pass validation but their ratio overflows.
	unboundedRatio := types.DefaultRequest(scoring.SchemaRetired)
	unboundedRatio.CreditAmount = 1e308
	unboundedRatio.GoodsPrice = 1e-300

	tests := []struct {
		name             string
		contentType      string
		body             string
		expectedStatus   int
		expectedCategory string
		expectedDetails  map[string]interface{}
	}{
		{
			name:             "malformed JSON",
			contentType:      "application/json",
			body:             `{"credit_amount": `,
			expectedStatus:   http.StatusBadRequest,
			expectedCategory: "validation",
		},
		{
			name:             "missing required fields",
			contentType:      "application/json",
			body:             `{"credit_amount": 15000}`,
			expectedStatus:   http.StatusBadRequest,
			expectedCategory: "validation",
		},
		{
			name:             "negative credit amount",
			contentType:      "application/json",
			body:             string(scoreBody(t, negative)),
			expectedStatus:   http.StatusBadRequest,
			expectedCategory: "validation",
		},
		{
			name:             "external score above one",
			contentType:      "application/json",
			body:             string(scoreBody(t, outOfRange)),
			expectedStatus:   http.StatusBadRequest,
			expectedCategory: "validation",
		},
		{
			name:             "retirement flag missing",
			contentType:      "application/json",
			body:             string(scoreBody(t, missingRetired)),
			expectedStatus:   http.StatusBadRequest,
			expectedCategory: "validation",
		},
		{
			name:             "negative number of children",
			contentType:      "application/json",
			body:             string(scoreBody(t, negativeChildren)),
			expectedStatus:   http.StatusBadRequest,
			expectedCategory: "validation",
			expectedDetails:  map[string]interface{}{"num_children": "must not be negative"},
		},
		{
			name:             "credit to goods ratio not finite",
			contentType:      "application/json",
			body:             string(scoreBody(t, unboundedRatio)),
			expectedStatus:   http.StatusUnprocessableEntity,
			expectedCategory: "domain",
			expectedDetails:  map[string]interface{}{"operation": scoring.FeatureCreditGoodsRatio},
		},
		{
			name:             "form encoded body",
			contentType:      "application/x-www-form-urlencoded",
			body:             "credit_amount=15000",
			expectedStatus:   http.StatusUnsupportedMediaType,
			expectedCategory: "validation",
		},
		{
			name:             "oversized body",
			contentType:      "application/json",
			body:             `{"credit_amount": 15000, "padding": "` + strings.Repeat("x", 16<<10) + `"}`,
			expectedStatus:   http.StatusRequestEntityTooLarge,
			expectedCategory: "validation",
		},
	}

	_, router := newTestRouter(t, scoring.SchemaRetired)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/score", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			body := decodeJSON(t, w)
			assert.Equal(t, tt.expectedCategory, body["category"])
			if tt.expectedDetails != nil {
				assert.Equal(t, tt.expectedDetails, body["details"])
			}
		})
	}
}

func TestScoreEndpoint_ArtifactUnavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	a := newTestApp(t, testConfig(t, path, scoring.SchemaRetired))
	router := setupRouter(a)

	w := postScore(router, scoreBody(t, types.DefaultRequest(scoring.SchemaRetired)))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	body := decodeJSON(t, w)
	assert.Equal(t, "artifact_load", body["category"])
	assert.Contains(t, body["message"], path)

	w = get(router, "/api/importances")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	stats := a.metrics.GetScoringStats()
	assert.Equal(t, int64(2), stats["errors_by_category"].(map[string]int64)["artifact_load"])
}

func TestScoreEndpoint_RateLimited(t *testing.T) {
	cfg := testConfig(t, bundledModels[scoring.SchemaRetired], scoring.SchemaRetired)
	cfg.RateLimit.IPPerMinute = 2
	cfg.RateLimit.BurstMultiplier = 1
	router := setupRouter(newTestApp(t, cfg))

	body := scoreBody(t, types.DefaultRequest(scoring.SchemaRetired))
	for i := 0; i < 2; i++ {
		w := postScore(router, body)
		require.Equal(t, http.StatusOK, w.Code, "request %d", i)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := postScore(router, body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limit", decodeJSON(t, w)["category"])

	w = get(router, "/api/ratelimit")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "memory", decodeJSON(t, w)["backend"])
}

func TestImportancesEndpoint(t *testing.T) {
	_, router := newTestRouter(t, scoring.SchemaAge)

	w := get(router, "/api/importances")
	require.Equal(t, http.StatusOK, w.Code)

	var resp types.ImportancesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "age", resp.Schema)
	require.Len(t, resp.Importances, len(scoring.SchemaAge.Columns()))
	for i := 1; i < len(resp.Importances); i++ {
		assert.GreaterOrEqual(t, resp.Importances[i-1].Importance, resp.Importances[i].Importance)
	}
}

func TestMetricsEndpoints(t *testing.T) {
	_, router := newTestRouter(t, scoring.SchemaRetired)

	w := postScore(router, scoreBody(t, types.DefaultRequest(scoring.SchemaRetired)))
	require.Equal(t, http.StatusOK, w.Code)

	w = get(router, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "risk_decisions_total")
	assert.Contains(t, w.Body.String(), `route="/api/score"`)

	w = get(router, "/metrics/summary")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	for _, key := range []string{"metrics", "scoring", "rate_limit", "redis", "compression", "model"} {
		assert.Contains(t, body, key)
	}
}

func TestSwaggerDoc(t *testing.T) {
	_, router := newTestRouter(t, scoring.SchemaRetired)

	w := get(router, "/swagger/doc.json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Credit Risk-o-Meter API")

	var doc struct {
		Paths map[string]map[string]struct {
			Responses map[string]interface{} `json:"responses"`
		} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))

	// Every API route is documented under its method.
	for _, route := range router.Routes() {
		if !strings.HasPrefix(route.Path, "/api/") && route.Path != "/health" {
			continue
		}
		methods, ok := doc.Paths[route.Path]
		if assert.True(t, ok, "%s is undocumented", route.Path) {
			assert.Contains(t, methods, strings.ToLower(route.Method), route.Path)
		}
	}

	score := doc.Paths["/api/score"]["post"].Responses
	for _, code := range []string{"200", "400", "413", "415", "422", "429", "503"} {
		assert.Contains(t, score, code)
	}
}

func TestDashboardRoutes(t *testing.T) {
	_, router := newTestRouter(t, scoring.SchemaRetired)

	w := get(router, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "nonce-")

	w = get(router, "/api/does-not-exist")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/assets/app.js", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Empty(t, w.Header().Get("Content-Length"))
}

func TestConcurrentScoring(t *testing.T) {
	_, router := newTestRouter(t, scoring.SchemaRetired)
	body := scoreBody(t, types.DefaultRequest(scoring.SchemaRetired))

	const workers = 20
	scores := make([]int, workers)
	codes := make([]int, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := postScore(router, body)
			codes[i] = w.Code

			var resp types.ScoreResponse
			if json.Unmarshal(w.Body.Bytes(), &resp) == nil {
				scores[i] = resp.CreditScore
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		assert.Equal(t, http.StatusOK, codes[i])
		assert.Equal(t, scores[0], scores[i], "identical input must score identically")
	}
}
