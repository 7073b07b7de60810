package security

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/ZanzyTHEbar/credit-risk-o-meter/internal/errors"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SecurityConfig holds security configuration
type SecurityConfig struct {
	MaxBodyBytes   int64         `json:"max_body_bytes"`
	AllowedOrigins []string      `json:"allowed_origins"`
	RequestTimeout time.Duration `json:"request_timeout"`
	EnableHSTS     bool          `json:"enable_hsts"`
	CSPReportURI   string        `json:"csp_report_uri"`
}

// DefaultSecurityConfig returns secure defaults
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxBodyBytes:   8 << 10,
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		RequestTimeout: 30 * time.Second,
	}
}

// SecurityMiddleware bundles the request hardening applied to the API
type SecurityMiddleware struct {
	config SecurityConfig
}

// NewSecurityMiddleware creates a new security middleware instance
func NewSecurityMiddleware(config SecurityConfig) *SecurityMiddleware {
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultSecurityConfig().MaxBodyBytes
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultSecurityConfig().RequestTimeout
	}
	return &SecurityMiddleware{config: config}
}

func (sm *SecurityMiddleware) Config() SecurityConfig { return sm.config }

// ValidateContentType rejects request bodies that are not JSON
func (sm *SecurityMiddleware) ValidateContentType(c *gin.Context) {
	if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut {
		contentType := strings.ToLower(c.GetHeader("Content-Type"))
		if !strings.HasPrefix(contentType, "application/json") {
			appErr := apperrors.NewValidationError("unsupported content type, expected application/json")
			appErr.HTTPStatus = http.StatusUnsupportedMediaType
			appErr.RequestID = c.GetString("request_id")
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
			return
		}
	}

	c.Next()
}

// LimitBody caps the request body; oversized payloads fail while binding
func (sm *SecurityMiddleware) LimitBody(c *gin.Context) {
	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, sm.config.MaxBodyBytes)
	}
	c.Next()
}

// RequestTimeout attaches a deadline to the request context
func (sm *SecurityMiddleware) RequestTimeout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sm.config.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Timeout", strconv.Itoa(int(sm.config.RequestTimeout.Seconds())))

	c.Next()
}

// CORSConfig allows the configured dashboard origins to call the API
func (sm *SecurityMiddleware) CORSConfig() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(sm.config.AllowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = sm.config.AllowedOrigins
	}

	return cors.New(cfg)
}

// Headers returns the CSP and security header middleware pair
func (sm *SecurityMiddleware) Headers() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		SecurityHeadersMiddleware(sm.config.EnableHSTS),
		CSPMiddleware(sm.config.CSPReportURI),
	}
}
