package frontend

import (
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/ZanzyTHEbar/credit-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/security"
	"github.com/gin-gonic/gin"
)

// NewSPAHandler serves embedded assets and falls back to the rendered index
// for every other path. index.html is never served raw so it always carries
// the request's CSP nonce.
func NewSPAHandler(distFS fs.FS, indexTemplate *template.Template) gin.HandlerFunc {
	fileServer := http.FileServer(http.FS(distFS))

	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if strings.HasPrefix(path, "/api/") {
			appErr := apperrors.NewValidationError("unknown API route " + path)
			appErr.HTTPStatus = http.StatusNotFound
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
			return
		}

		if strings.HasPrefix(path, "/assets/") {
			c.Header("Cache-Control", "public, max-age=3600")
			fileServer.ServeHTTP(c.Writer, c.Request)
			return
		}

		cleanPath := strings.TrimPrefix(path, "/")
		if cleanPath != "" && cleanPath != "index.html" {
			if info, err := fs.Stat(distFS, cleanPath); err == nil && !info.IsDir() {
				c.Header("Cache-Control", "public, max-age=3600")
				fileServer.ServeHTTP(c.Writer, c.Request)
				return
			}
		}

		nonce := security.GetNonce(c)
		if nonce == "" {
			slog.Warn("CSP nonce not found in context, generating new one")
			var err error
			nonce, err = security.GenerateNonce()
			if err != nil {
				appErr := apperrors.NewInternalError("failed to generate nonce", err)
				c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
				return
			}
		}

		if err := RenderIndex(c, indexTemplate, nonce); err != nil {
			slog.Error("Failed to render index.html", "error", err, "path", path)
			appErr := apperrors.NewInternalError("failed to render page", err)
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
		}
	}
}
