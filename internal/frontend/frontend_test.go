package frontend

import (
	"html"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	dist, tmpl, err := Load()
	require.NoError(t, err)

	router := gin.New()
	router.Use(security.CSPMiddleware(""))
	router.NoRoute(NewSPAHandler(dist, tmpl))
	return router
}

func TestProcessHTMLForNonce(t *testing.T) {
	out := processHTMLForNonce(`<link rel="stylesheet" href="/a.css"><script src="/a.js"></script><link rel="icon" href="/f.ico">`)
	assert.Contains(t, out, `<script nonce="{{.Nonce}}" src="/a.js">`)
	assert.Contains(t, out, `<link nonce="{{.Nonce}}" rel="stylesheet" href="/a.css">`)
	assert.Contains(t, out, `<link rel="icon" href="/f.ico">`)
}

func TestSPAHandler_IndexCarriesNonce(t *testing.T) {
	router := newRouter(t)

	for _, path := range []string{"/", "/index.html", "/some/client/route"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

			policy := w.Header().Get("Content-Security-Policy")
			start := strings.Index(policy, "'nonce-") + len("'nonce-")
			nonce := policy[start : start+strings.Index(policy[start:], "'")]
			assert.Contains(t, html.UnescapeString(w.Body.String()), `<script nonce="`+nonce+`"`)
			assert.Contains(t, w.Body.String(), "Calculate Credit Score")
		})
	}
}

func TestSPAHandler_ServesAssets(t *testing.T) {
	router := newRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assets/app.js", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/score")
	assert.Equal(t, "public, max-age=3600", w.Header().Get("Cache-Control"))
}

func TestSPAHandler_UnknownAPIRoute(t *testing.T) {
	router := newRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"category":"validation"`)
}
