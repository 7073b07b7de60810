package main

import (
	"net/http"
	"time"

	_ "github.com/ZanzyTHEbar/credit-risk-o-meter/docs"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/frontend"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/types"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func setupRouter(a *app) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	// Monitoring and error handling
	r.Use(monitoring.RequestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(a.metrics, a.logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(a.logger))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	// Security
	r.Use(a.security.CORSConfig())
	r.Use(a.security.Headers()...)
	r.Use(a.security.RequestTimeout)
	r.Use(a.compression.Handler())

	r.GET("/health", a.handleHealth)

	api := r.Group("/api")
	{
		api.GET("/status", a.handleStatus)
		api.GET("/form", a.handleForm)
		api.GET("/importances", a.handleImportances)
		api.GET("/ratelimit", a.limiter.HandleRateLimitStatus())
		api.POST("/score",
			a.security.ValidateContentType,
			a.security.LimitBody,
			a.limiter.IPRateLimitMiddleware(),
			a.handleScore,
		)
	}

	r.GET("/metrics", gin.WrapH(a.metrics.Handler()))
	r.GET("/metrics/summary", a.handleMetricsSummary)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if a.distFS != nil && a.index != nil {
		r.NoRoute(frontend.NewSPAHandler(a.distFS, a.index))
	}

	return r
}

// handleHealth godoc
// @Summary      Service health
// @Description  Reports whether the classifier is available. Answers 503 once a load attempt has failed.
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /health [get]
func (a *app) handleHealth(c *gin.Context) {
	st := a.handle.Status()

	status, code := "ok", http.StatusOK
	if st.Error != "" {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":       status,
		"model_loaded": st.Loaded,
		"uptime":       monitoring.Uptime().Round(time.Second).String(),
	})
}

// handleStatus godoc
// @Summary      Classifier status
// @Description  Configured artifact path, schema and normalization policy, plus the banner text shown when the classifier is unavailable.
// @Tags         scoring
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /api/status [get]
func (a *app) handleStatus(c *gin.Context) {
	loadErr := a.handle.Load()
	st := a.handle.Status()
	a.metrics.SetClassifierLoaded(st.Loaded)

	pMin, pMax := a.scorer.Normalizer().Range()
	resp := types.StatusResponse{
		Status:      "ok",
		ModelLoaded: st.Loaded,
		ModelPath:   st.Path,
		Schema:      st.Schema,
		Policy:      string(a.scorer.Normalizer().Policy()),
		PMin:        pMin,
		PMax:        pMax,
		Trees:       st.Trees,
		Version:     st.Version,
	}
	if loadErr != nil {
		resp.Status = "degraded"
		resp.Banner = errors.ToAppError(loadErr).ErrBuilder.Msg
	}

	c.JSON(http.StatusOK, resp)
}

// handleForm godoc
// @Summary      Input form description
// @Tags         scoring
// @Produce      json
// @Success      200  {object}  types.FormSpec
// @Router       /api/form [get]
func (a *app) handleForm(c *gin.Context) {
	c.JSON(http.StatusOK, types.DefaultForm(a.scorer.Schema()))
}

// handleImportances godoc
// @Summary      Global feature importances
// @Description  Importances of the loaded classifier, sorted descending.
// @Tags         scoring
// @Produce      json
// @Success      200  {object}  types.ImportancesResponse
// @Failure      503  {object}  errors.AppError
// @Router       /api/importances [get]
func (a *app) handleImportances(c *gin.Context) {
	importances, err := a.scorer.Importances()
	if err != nil {
		a.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.ImportancesResponse{
		Schema:      string(a.scorer.Schema()),
		Importances: importances,
	})
}

// handleScore godoc
// @Summary      Score an applicant
// @Description  Derives the feature vector, runs the classifier and maps the default probability onto a 0-1000 credit score.
// @Tags         scoring
// @Accept       json
// @Produce      json
// @Param        request  body      types.ScoreRequest  true  "Applicant"
// @Success      200      {object}  types.ScoreResponse
// @Failure      400      {object}  errors.AppError
// @Failure      413      {object}  errors.AppError
// @Failure      415      {object}  errors.AppError
// @Failure      422      {object}  errors.AppError
// @Failure      429      {object}  errors.AppError
// @Failure      503      {object}  errors.AppError
// @Router       /api/score [post]
func (a *app) handleScore(c *gin.Context) {
	start := time.Now()

	var req types.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.abortWithError(c, err)
		return
	}

	assessment, err := a.scorer.Score(req.ToRaw())
	if err != nil {
		a.abortWithError(c, err)
		return
	}

	a.metrics.RecordAssessment(string(assessment.Decision), assessment.CreditScore)
	a.logger.ScoringLogger(
		string(assessment.Schema),
		string(assessment.Policy),
		assessment.CreditScore,
		string(assessment.Decision),
		len(assessment.RiskFlags),
		time.Since(start),
	)

	c.JSON(http.StatusOK, types.NewScoreResponse(assessment, c.GetString("request_id")))
}

// handleMetricsSummary godoc
// @Summary      Request and scoring statistics
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /metrics/summary [get]
func (a *app) handleMetricsSummary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"metrics":     a.metrics.GetStats(),
		"scoring":     a.metrics.GetScoringStats(),
		"rate_limit":  a.limiter.GetStats(),
		"redis":       a.redis.GetPoolStats(),
		"compression": a.compression.GetStats(),
		"model":       a.handle.Status(),
	})
}

// abortWithError answers with a copy of the error; the cached load error is
// shared between requests and must not carry one request's ID.
func (a *app) abortWithError(c *gin.Context, err error) {
	resp := *errors.ToAppError(err)
	resp.RequestID = c.GetString("request_id")
	a.metrics.RecordScoringError(string(resp.Category))
	errors.LogError(c, &resp)
	c.AbortWithStatusJSON(resp.HTTPStatus, &resp)
}
