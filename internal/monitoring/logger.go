package monitoring

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Logger provides enhanced structured logging with context
type Logger struct {
	*slog.Logger
	out    io.Writer
	format string
}

// NewLoggerWithOptions creates a logger with an explicit sink, level and
// format ("json" or "text").
func NewLoggerWithOptions(out io.Writer, level slog.Level, format string) *Logger {
	l := &Logger{out: out, format: strings.ToLower(format)}
	l.Logger = slog.New(l.handler(level))
	return l
}

func (l *Logger) handler(level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Add timestamp in RFC3339 format
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	}
	if l.format == "text" {
		return slog.NewTextHandler(l.out, opts)
	}
	return slog.NewJSONHandler(l.out, opts)
}

// ParseLevel maps a configured level name onto a slog level. Unknown names
// fall back to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// ScoringLogger logs a completed applicant assessment. Raw applicant
// fields are never logged.
func (l *Logger) ScoringLogger(schema, policy string, score int, decision string, flagCount int, duration time.Duration) {
	l.Info("Scoring Completed",
		"schema", schema,
		"policy", policy,
		"credit_score", score,
		"decision", decision,
		"risk_flags", flagCount,
		"duration_ms", duration.Milliseconds(),
	)
}

// ArtifactLogger logs the outcome of loading the classifier artifact
func (l *Logger) ArtifactLogger(path, schema string, trees int, duration time.Duration, err error) {
	if err != nil {
		l.Error("Classifier Artifact Load Failed",
			"path", path,
			"schema", schema,
			"error", err.Error(),
			"duration_ms", duration.Milliseconds(),
		)
		return
	}

	l.Info("Classifier Artifact Loaded",
		"path", path,
		"schema", schema,
		"trees", trees,
		"duration_ms", duration.Milliseconds(),
	)
}

// APIErrorLogger logs API errors with context
func (l *Logger) APIErrorLogger(err error, method, path, ip string, statusCode int) {
	_, file, line, ok := runtime.Caller(2)
	caller := "unknown"
	if ok {
		caller = file + ":" + strconv.Itoa(line)
	}

	l.Error("API Error",
		"error", err.Error(),
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"caller", caller,
	)
}

// RedisLogger logs rate limiter backend state changes
func (l *Logger) RedisLogger(addr string, healthy bool, err error) {
	level := slog.LevelInfo
	attrs := []any{"addr", addr, "healthy", healthy}
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, "error", err.Error())
	}
	l.Log(context.Background(), level, "Rate Limit Backend", attrs...)
}

// SystemLogger logs system-level events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

// SecurityLogger logs security-related events
func (l *Logger) SecurityLogger(event, ip, userAgent string, details map[string]interface{}) {
	attrs := []any{
		"event", event,
		"ip", ip,
		"user_agent", userAgent,
	}

	for key, value := range details {
		attrs = append(attrs, key, value)
	}

	l.Warn("Security Event", attrs...)
}

// SetLevel rebuilds the handler at the given level, keeping sink and format
func (l *Logger) SetLevel(level slog.Level) {
	l.Logger = slog.New(l.handler(level))
}

// Uptime reports how long the process has been running
func Uptime() time.Duration { return time.Since(startTime) }

var startTime = time.Now()
