package main

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"

	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/config"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/frontend"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/middleware"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/model"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/ratelimit"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/scoring"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/security"
)

// app holds the long-lived dependencies shared by every route
type app struct {
	cfg         *config.Config
	logger      *monitoring.Logger
	metrics     *monitoring.Metrics
	handle      *model.Handle
	scorer      *scoring.Scorer
	redis       *ratelimit.RedisClient
	limiter     *ratelimit.RateLimiter
	security    *security.SecurityMiddleware
	compression *middleware.CompressionMiddleware
	distFS      fs.FS
	index       *template.Template
}

func newApp(ctx context.Context, cfg *config.Config, logger *monitoring.Logger) (*app, error) {
	schema := cfg.FeatureSchema()

	cal, err := scoring.NewCalibrationStore(cfg.Scoring.CalibrationDir).LoadCalibration(schema)
	if err != nil {
		return nil, err
	}
	cal.Policy = cfg.Policy()

	normalizer, err := scoring.NewNormalizer(cal)
	if err != nil {
		return nil, err
	}

	handle := model.NewHandle(cfg.Model.Path, schema, logger)
	scorer, err := scoring.NewScorer(schema, normalizer, handle)
	if err != nil {
		return nil, err
	}

	metrics := monitoring.NewMetrics()

	// Redis is optional; the limiter degrades to memory without it
	redisClient, err := ratelimit.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.RedisLogger(cfg.Redis.Addr, false, err)
	} else if redisClient.IsEnabled() {
		logger.RedisLogger(cfg.Redis.Addr, true, nil)
	}

	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.Config{
		IPLimitPerMin:   cfg.RateLimit.IPPerMinute,
		BurstMultiplier: cfg.RateLimit.BurstMultiplier,
	}, metrics)

	distFS, index, err := frontend.Load()
	if err != nil {
		// The API stays usable without the dashboard
		slog.Warn("Frontend assets unavailable", "error", err)
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		handle:  handle,
		scorer:  scorer,
		redis:   redisClient,
		limiter: limiter,
		security: security.NewSecurityMiddleware(security.SecurityConfig{
			MaxBodyBytes:   cfg.Server.MaxBodyBytes,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			RequestTimeout: cfg.Server.RequestTimeout,
			EnableHSTS:     cfg.Server.EnableHSTS,
			CSPReportURI:   cfg.Server.CSPReportURI,
		}),
		compression: middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig()),
		distFS:      distFS,
		index:       index,
	}, nil
}

// Close releases the limiter's janitor and the Redis pool
func (a *app) Close() {
	a.limiter.Close()
	errors.SafeClose(a.redis, "redis client")
}
