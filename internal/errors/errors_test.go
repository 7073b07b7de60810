package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		category   ErrorCategory
		httpStatus int
		prefix     string
	}{
		{
			name:       "validation error",
			err:        NewValidationError("annual_income must be positive"),
			category:   CategoryValidation,
			httpStatus: http.StatusBadRequest,
			prefix:     "[VALIDATION_ERROR]",
		},
		{
			name:       "domain error",
			err:        NewDomainError("income_per_child", "division by zero"),
			category:   CategoryDomain,
			httpStatus: http.StatusUnprocessableEntity,
			prefix:     "[DOMAIN_ERROR]",
		},
		{
			name:       "artifact load error",
			err:        NewArtifactLoadError("models/credit_score_model.json", fmt.Errorf("no such file")),
			category:   CategoryArtifactLoad,
			httpStatus: http.StatusServiceUnavailable,
			prefix:     "[ARTIFACT_LOAD_ERROR]",
		},
		{
			name:       "rate limit error",
			err:        NewRateLimitError("60"),
			category:   CategoryRateLimit,
			httpStatus: http.StatusTooManyRequests,
			prefix:     "[RATE_LIMIT_EXCEEDED]",
		},
		{
			name:       "configuration error",
			err:        NewConfigurationError("unknown schema", nil),
			category:   CategoryConfiguration,
			httpStatus: http.StatusInternalServerError,
			prefix:     "[CONFIGURATION_ERROR]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
			assert.Contains(t, tt.err.Error(), tt.prefix)
			assert.False(t, tt.err.Timestamp.IsZero())
		})
	}
}

func TestArtifactLoadErrorCarriesPath(t *testing.T) {
	cause := fmt.Errorf("open models/credit_score_model.json: no such file or directory")
	err := NewArtifactLoadError("models/credit_score_model.json", cause)

	assert.Contains(t, err.Error(), "models/credit_score_model.json")
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsArtifactLoadError(err))
	assert.False(t, IsDomainError(err))
}

func TestCategoryHelpersSeeThroughWrapping(t *testing.T) {
	domain := NewDomainError("payment_rate", "annual income is zero")
	wrapped := WrapError(domain, "deriving features for %s", "applicant")

	assert.True(t, IsDomainError(wrapped))
	assert.False(t, IsValidationError(wrapped))
	assert.Equal(t, CategoryDomain, CategoryOf(wrapped))
	assert.Equal(t, ErrorCategory(""), CategoryOf(fmt.Errorf("plain")))
}

func TestNewValidationErrorWithMap(t *testing.T) {
	err := NewValidationErrorWithMap(map[string]string{
		"region_tier": "must be 1, 2 or 3",
		"ext_score_3": "must be within [0, 1]",
	})

	assert.Equal(t, CategoryValidation, err.Category)
	assert.Len(t, err.ErrBuilder.Details.Errors, 2)
	assert.Equal(t, map[string]string{
		"region_tier": "must be 1, 2 or 3",
		"ext_score_3": "must be within [0, 1]",
	}, err.DetailMessages())
}

func TestMarshalJSON_DetailsAreReadable(t *testing.T) {
	tests := []struct {
		name    string
		err     *AppError
		details map[string]string
	}{
		{
			name:    "per-field messages",
			err:     NewValidationErrorWithMap(map[string]string{"num_children": "must not be negative"}),
			details: map[string]string{"num_children": "must not be negative"},
		},
		{
			name:    "plain detail",
			err:     NewDomainError("CREDIT_GOODS_RATIO", "CREDIT_GOODS_RATIO is not a finite number"),
			details: map[string]string{"operation": "CREDIT_GOODS_RATIO"},
		},
		{
			name: "no details",
			err:  NewTimeoutError("Request deadline exceeded", nil),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.err)
			require.NoError(t, err)

			var body struct {
				Message string            `json:"message"`
				Details map[string]string `json:"details"`
			}
			require.NoError(t, json.Unmarshal(data, &body))
			assert.Equal(t, tt.err.ErrBuilder.Msg, body.Message)
			assert.Equal(t, tt.details, body.Details)
			assert.NotContains(t, string(data), "label:")
		})
	}
}

type failingCloser struct{ closed bool }

func (f *failingCloser) Close() error {
	f.closed = true
	return fmt.Errorf("already closed")
}

func TestSafeClose(t *testing.T) {
	c := &failingCloser{}
	assert.NotPanics(t, func() { SafeClose(c, "population file") })
	assert.True(t, c.closed)

	assert.NotPanics(t, func() { SafeClose(nil, "nothing") })
}

func TestToAppError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, ToAppError(nil))
	})

	t.Run("app error passes through wrapping", func(t *testing.T) {
		original := NewDomainError("probability", "out of range")
		converted := ToAppError(fmt.Errorf("scoring: %w", original))
		assert.Same(t, original, converted)
	})

	t.Run("errbuilder error becomes internal", func(t *testing.T) {
		eb := errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("boom")
		converted := ToAppError(eb)
		assert.Equal(t, CategoryInternal, converted.Category)
	})

	t.Run("deadline exceeded becomes timeout", func(t *testing.T) {
		converted := ToAppError(context.DeadlineExceeded)
		assert.Equal(t, CategoryTimeout, converted.Category)
	})

	t.Run("binding failure becomes validation", func(t *testing.T) {
		converted := ToAppError(fmt.Errorf("invalid character 'x' looking for beginning of value"))
		assert.Equal(t, CategoryValidation, converted.Category)
	})

	t.Run("oversized body becomes 413", func(t *testing.T) {
		converted := ToAppError(&http.MaxBytesError{Limit: 8192})
		assert.Equal(t, CategoryValidation, converted.Category)
		assert.Equal(t, http.StatusRequestEntityTooLarge, converted.HTTPStatus)
	})

	t.Run("anything else is internal", func(t *testing.T) {
		converted := ToAppError(fmt.Errorf("unexpected"))
		assert.Equal(t, CategoryInternal, converted.Category)
		assert.Equal(t, http.StatusInternalServerError, converted.HTTPStatus)
	})
}

func TestErrorHandlerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(NewDomainError("credit_goods_ratio", "goods price is zero"))
	})
	r.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"category":"domain"`)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ok", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecoveryHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RecoveryHandler())
	r.GET("/panic", func(c *gin.Context) {
		panic("classifier exploded")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"category":"internal"`)
}
