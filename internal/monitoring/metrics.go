package monitoring

import (
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxResponseSamples = 1000

// Metrics holds application metrics. Counters are kept in process for the
// JSON summary and mirrored into a Prometheus registry for scraping.
type Metrics struct {
	RequestCount        int64
	ErrorCount          int64
	AverageResponseTime int64 // in nanoseconds
	StartTime           time.Time

	ResponseTimes      []time.Duration
	ResponseTimesMutex sync.RWMutex

	RequestCountByStatus map[int]int64
	StatusMutex          sync.RWMutex

	// Scoring metrics
	ScoresByDecision map[string]int64
	ErrorsByCategory map[string]int64
	ScoringMutex     sync.RWMutex

	// Rate limit metrics
	RateLimitIPBlocks      int64
	RateLimitRedisErrors   int64
	RateLimitFallbackCount int64

	registry        *prometheus.Registry
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	decisions       *prometheus.CounterVec
	creditScores    prometheus.Histogram
	scoringErrors   *prometheus.CounterVec
	rateLimitBlocks prometheus.Counter
	rateLimitFalls  prometheus.Counter
	classifierReady prometheus.Gauge
}

// NewMetrics creates a new metrics instance with its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		StartTime:            time.Now(),
		ResponseTimes:        make([]time.Duration, 0, maxResponseSamples),
		RequestCountByStatus: make(map[int]int64),
		ScoresByDecision:     make(map[string]int64),
		ErrorsByCategory:     make(map[string]int64),

		registry: reg,
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risk_http_requests_total",
				Help: "Total number of HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "risk_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risk_decisions_total",
				Help: "Total number of assessments by decision band",
			},
			[]string{"decision"},
		),
		creditScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "risk_credit_score",
			Help:    "Distribution of issued credit scores",
			Buckets: prometheus.LinearBuckets(100, 100, 10),
		}),
		scoringErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risk_scoring_errors_total",
				Help: "Total number of failed assessments by error category",
			},
			[]string{"category"},
		),
		rateLimitBlocks: factory.NewCounter(prometheus.CounterOpts{
			Name: "risk_rate_limit_blocks_total",
			Help: "Requests rejected by the IP rate limiter",
		}),
		rateLimitFalls: factory.NewCounter(prometheus.CounterOpts{
			Name: "risk_rate_limit_fallback_total",
			Help: "Rate limit checks served by the in-memory fallback",
		}),
		classifierReady: factory.NewGauge(prometheus.GaugeOpts{
			Name: "risk_classifier_loaded",
			Help: "1 when the classifier artifact is loaded",
		}),
	}
}

// Handler serves the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// IncrementRequest increments the request count
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// RecordResponseTime records response time for averaging and percentiles
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	current := atomic.LoadInt64(&m.AverageResponseTime)
	newAverage := (current + duration.Nanoseconds()) / 2
	atomic.StoreInt64(&m.AverageResponseTime, newAverage)

	m.ResponseTimesMutex.Lock()
	m.ResponseTimes = append(m.ResponseTimes, duration)
	if len(m.ResponseTimes) > maxResponseSamples {
		m.ResponseTimes = m.ResponseTimes[1:]
	}
	m.ResponseTimesMutex.Unlock()
}

// RecordRequestByStatus records request count by HTTP status code
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.StatusMutex.Lock()
	defer m.StatusMutex.Unlock()
	m.RequestCountByStatus[statusCode]++
}

// ObserveHTTP mirrors a finished request into Prometheus. route is the
// matched route pattern, not the raw path.
func (m *Metrics) ObserveHTTP(method, route string, statusCode int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordAssessment counts an issued score
func (m *Metrics) RecordAssessment(decision string, score int) {
	m.ScoringMutex.Lock()
	m.ScoresByDecision[decision]++
	m.ScoringMutex.Unlock()

	m.decisions.WithLabelValues(decision).Inc()
	m.creditScores.Observe(float64(score))
}

// RecordScoringError counts a failed assessment by error category
func (m *Metrics) RecordScoringError(category string) {
	m.ScoringMutex.Lock()
	m.ErrorsByCategory[category]++
	m.ScoringMutex.Unlock()

	m.scoringErrors.WithLabelValues(category).Inc()
}

// SetClassifierLoaded reports classifier availability
func (m *Metrics) SetClassifierLoaded(loaded bool) {
	if loaded {
		m.classifierReady.Set(1)
		return
	}
	m.classifierReady.Set(0)
}

// GetPercentileResponseTime calculates percentile response time
func (m *Metrics) GetPercentileResponseTime(percentile float64) time.Duration {
	m.ResponseTimesMutex.RLock()
	defer m.ResponseTimesMutex.RUnlock()

	if len(m.ResponseTimes) == 0 {
		return 0
	}

	times := make([]time.Duration, len(m.ResponseTimes))
	copy(times, m.ResponseTimes)

	sort.Slice(times, func(i, j int) bool {
		return times[i] < times[j]
	})

	index := int(float64(len(times)-1) * percentile / 100.0)
	if index >= len(times) {
		index = len(times) - 1
	}

	return times[index]
}

// GetStatusCodeDistribution returns request count by status code
func (m *Metrics) GetStatusCodeDistribution() map[int]int64 {
	m.StatusMutex.RLock()
	defer m.StatusMutex.RUnlock()

	distribution := make(map[int]int64, len(m.RequestCountByStatus))
	for code, count := range m.RequestCountByStatus {
		distribution[code] = count
	}
	return distribution
}

// GetScoringStats returns assessment counts by decision and error category
func (m *Metrics) GetScoringStats() map[string]interface{} {
	m.ScoringMutex.RLock()
	defer m.ScoringMutex.RUnlock()

	decisions := make(map[string]int64, len(m.ScoresByDecision))
	var total int64
	for k, v := range m.ScoresByDecision {
		decisions[k] = v
		total += v
	}
	errs := make(map[string]int64, len(m.ErrorsByCategory))
	for k, v := range m.ErrorsByCategory {
		errs[k] = v
	}

	return map[string]interface{}{
		"assessments":        total,
		"by_decision":        decisions,
		"errors_by_category": errs,
	}
}

// GetStats returns current metrics statistics
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errors := atomic.LoadInt64(&m.ErrorCount)
	avgResponseTime := atomic.LoadInt64(&m.AverageResponseTime)

	errorRate := float64(0)
	if requests > 0 {
		errorRate = float64(errors) / float64(requests) * 100
	}

	return map[string]interface{}{
		"uptime_seconds":       time.Since(m.StartTime).Seconds(),
		"total_requests":       requests,
		"error_count":          errors,
		"error_rate_percent":   errorRate,
		"avg_response_time_ms": float64(avgResponseTime) / 1000000,
		"start_time":           m.StartTime.Format(time.RFC3339),

		"p50_response_time_ms":     float64(m.GetPercentileResponseTime(50)) / 1000000,
		"p95_response_time_ms":     float64(m.GetPercentileResponseTime(95)) / 1000000,
		"p99_response_time_ms":     float64(m.GetPercentileResponseTime(99)) / 1000000,
		"status_code_distribution": m.GetStatusCodeDistribution(),

		"scoring":    m.GetScoringStats(),
		"rate_limit": m.GetRateLimitStats(),
	}
}

// IncrementRateLimitIPBlock increments IP-based rate limit blocks
func (m *Metrics) IncrementRateLimitIPBlock() {
	atomic.AddInt64(&m.RateLimitIPBlocks, 1)
	m.rateLimitBlocks.Inc()
}

// IncrementRateLimitRedisError increments Redis error count for rate limiting
func (m *Metrics) IncrementRateLimitRedisError() {
	atomic.AddInt64(&m.RateLimitRedisErrors, 1)
}

// IncrementRateLimitFallback increments fallback rate limiter usage count
func (m *Metrics) IncrementRateLimitFallback() {
	atomic.AddInt64(&m.RateLimitFallbackCount, 1)
	m.rateLimitFalls.Inc()
}

// GetRateLimitStats returns rate limiting statistics
func (m *Metrics) GetRateLimitStats() map[string]interface{} {
	return map[string]interface{}{
		"ip_blocks":      atomic.LoadInt64(&m.RateLimitIPBlocks),
		"redis_errors":   atomic.LoadInt64(&m.RateLimitRedisErrors),
		"fallback_count": atomic.LoadInt64(&m.RateLimitFallbackCount),
	}
}

// Reset resets the in-process counters (useful for testing). Prometheus
// counters are monotonic and are left alone.
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.RequestCount, 0)
	atomic.StoreInt64(&m.ErrorCount, 0)
	atomic.StoreInt64(&m.AverageResponseTime, 0)
	atomic.StoreInt64(&m.RateLimitIPBlocks, 0)
	atomic.StoreInt64(&m.RateLimitRedisErrors, 0)
	atomic.StoreInt64(&m.RateLimitFallbackCount, 0)

	m.ResponseTimesMutex.Lock()
	m.ResponseTimes = m.ResponseTimes[:0]
	m.ResponseTimesMutex.Unlock()

	m.StatusMutex.Lock()
	m.RequestCountByStatus = make(map[int]int64)
	m.StatusMutex.Unlock()

	m.ScoringMutex.Lock()
	m.ScoresByDecision = make(map[string]int64)
	m.ErrorsByCategory = make(map[string]int64)
	m.ScoringMutex.Unlock()

	m.StartTime = time.Now()
}
