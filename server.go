package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/agencydesk/backoffice_backend/config"
	"bitbucket.org/agencydesk/backoffice_backend/export"
	"bitbucket.org/agencydesk/backoffice_backend/middlewares"
	"bitbucket.org/agencydesk/backoffice_backend/models"
	"bitbucket.org/agencydesk/backoffice_backend/querycache"
	"bitbucket.org/agencydesk/backoffice_backend/recon"
	"bitbucket.org/agencydesk/backoffice_backend/utils"
	"bitbucket.org/agencydesk/backoffice_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const defaultPort = "8080"

var tracer = otel.Tracer("backoffice_backend")

// RateLimiter is a fixed-window per-IP limiter backed by Redis.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	key := "ratelimit:" + c.ClientIP()

	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

// counterpartView is a CounterpartSummary enriched with the display names
// of both linked documents, resolved through the request's dataloaders.
type counterpartView struct {
	recon.CounterpartSummary
	CounterpartName string `json:"counterpart_name,omitempty"`
	ReportName      string `json:"report_name,omitempty"`
}

type entryView struct {
	recon.ViewEntry
	Counterparts []counterpartView `json:"counterparts"`
}

type viewResponse struct {
	Entries         []entryView              `json:"entries"`
	NetTotal        recon.CurrencyValueGroup `json:"net_total"`
	MatchedTotal    recon.CurrencyValueGroup `json:"matched_total"`
	RemainingTotal  recon.CurrencyValueGroup `json:"remaining_total"`
	DisplayCurrency string                   `json:"display_currency"`
}

func enrichView(ctx context.Context, view *recon.View) viewResponse {
	resp := viewResponse{
		Entries:         make([]entryView, 0, len(view.Entries)),
		NetTotal:        view.NetTotal,
		MatchedTotal:    view.MatchedTotal,
		RemainingTotal:  view.RemainingTotal,
		DisplayCurrency: view.DisplayCurrency,
	}
	for _, entry := range view.Entries {
		ev := entryView{ViewEntry: entry, Counterparts: make([]counterpartView, 0, len(entry.Counterparts))}
		for _, cp := range entry.Counterparts {
			cv := counterpartView{CounterpartSummary: cp}
			if report, err := middlewares.GetReport(ctx, cp.ReportID); err == nil {
				cv.ReportName = report.ReportNumber
			}
			switch cp.Scope {
			case recon.LinkScopeBilling:
				if billing, err := middlewares.GetBilling(ctx, cp.CounterpartID); err == nil {
					cv.CounterpartName = billing.BillingNumber
				}
			case recon.LinkScopeCost:
				if cost, err := middlewares.GetCost(ctx, cp.CounterpartID); err == nil {
					cv.CounterpartName = cost.CostNumber
				}
			}
			ev.Counterparts = append(ev.Counterparts, cv)
		}
		resp.Entries = append(resp.Entries, ev)
	}
	return resp
}

func viewQueryFromRequest(c *gin.Context) (workflow.ViewQuery, error) {
	kind, err := workflow.ParseEntityKind(c.Param("kind"))
	if err != nil {
		return workflow.ViewQuery{}, err
	}
	var filter models.EntityQuery
	if err := c.ShouldBindQuery(&filter); err != nil {
		return workflow.ViewQuery{}, err
	}
	displayCurrency := strings.ToUpper(strings.TrimSpace(c.Query("display_currency")))
	if displayCurrency == "" {
		displayCurrency = config.DefaultDisplayCurrency()
	}
	if !utils.IsValidCurrencyCode(displayCurrency) {
		return workflow.ViewQuery{}, fmt.Errorf("invalid display currency %q", displayCurrency)
	}
	return workflow.ViewQuery{Kind: kind, Filter: filter, DisplayCurrency: displayCurrency}, nil
}

func writeViewError(c *gin.Context, err error) {
	var invalidLink *recon.InvalidLinkError
	var missingWs *recon.MissingWorkspaceError
	switch {
	case errors.As(err, &invalidLink) || errors.As(err, &missingWs):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func reconciliationViewHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		query, err := viewQueryFromRequest(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx, span := tracer.Start(c.Request.Context(), "reconciliation.view")
		span.SetAttributes(attribute.String("kind", string(query.Kind)))
		defer span.End()

		view, err := workflow.BuildReconciliationView(ctx, query)
		if err != nil {
			writeViewError(c, err)
			return
		}
		c.JSON(http.StatusOK, enrichView(ctx, view))
	}
}

// reconciliationSummaryHandler returns only the currency totals of all
// three views. The dashboard landing page polls this.
func reconciliationSummaryHandler() gin.HandlerFunc {
	type kindTotals struct {
		NetTotal       recon.CurrencyValueGroup `json:"net_total"`
		MatchedTotal   recon.CurrencyValueGroup `json:"matched_total"`
		RemainingTotal recon.CurrencyValueGroup `json:"remaining_total"`
	}
	return func(c *gin.Context) {
		displayCurrency := strings.ToUpper(strings.TrimSpace(c.Query("display_currency")))
		if displayCurrency == "" {
			displayCurrency = config.DefaultDisplayCurrency()
		}
		if !utils.IsValidCurrencyCode(displayCurrency) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid display currency %q", displayCurrency)})
			return
		}
		ctx, span := tracer.Start(c.Request.Context(), "reconciliation.summary")
		defer span.End()

		summary := make(map[string]kindTotals, 3)
		for _, kind := range []workflow.EntityKind{workflow.EntityKindReports, workflow.EntityKindBillings, workflow.EntityKindCosts} {
			view, err := workflow.BuildReconciliationView(ctx, workflow.ViewQuery{Kind: kind, DisplayCurrency: displayCurrency})
			if err != nil {
				writeViewError(c, err)
				return
			}
			summary[string(kind)] = kindTotals{
				NetTotal:       view.NetTotal,
				MatchedTotal:   view.MatchedTotal,
				RemainingTotal: view.RemainingTotal,
			}
		}
		c.JSON(http.StatusOK, gin.H{"display_currency": displayCurrency, "totals": summary})
	}
}

func reconciliationExportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		query, err := viewQueryFromRequest(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		view, err := workflow.BuildReconciliationView(c.Request.Context(), query)
		if err != nil {
			writeViewError(c, err)
			return
		}
		filename := fmt.Sprintf("reconciliation-%s-%s.xlsx", query.Kind, time.Now().Format("2006-01-02"))
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := export.WriteReconciliationXLSX(c.Writer, view); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
	}
}

func writeMutationError(c *gin.Context, err error) {
	var invalidLink *recon.InvalidLinkError
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, utils.ErrorMutationRejected):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &invalidLink), errors.As(err, &validationErrs):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func registerLinkRoutes(api *gin.RouterGroup, caps models.Capabilities) {
	api.POST("/links/billing", func(c *gin.Context) {
		var input models.NewBillingReportLink
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		link, err := models.CreateBillingReportLink(c.Request.Context(), &input)
		if err != nil {
			writeMutationError(c, err)
			return
		}
		c.JSON(http.StatusCreated, link)
	})
	api.PATCH("/links/billing/:id", func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewBillingReportLink
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		link, err := models.UpdateBillingReportLink(c.Request.Context(), id, &input)
		if err != nil {
			writeMutationError(c, err)
			return
		}
		c.JSON(http.StatusOK, link)
	})
	api.DELETE("/links/billing/:id", func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		link, err := models.DeleteBillingReportLink(c.Request.Context(), id, caps)
		if err != nil {
			writeMutationError(c, err)
			return
		}
		c.JSON(http.StatusOK, link)
	})

	api.POST("/links/cost", func(c *gin.Context) {
		var input models.NewCostReportLink
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		link, err := models.CreateCostReportLink(c.Request.Context(), &input)
		if err != nil {
			writeMutationError(c, err)
			return
		}
		c.JSON(http.StatusCreated, link)
	})
	api.PATCH("/links/cost/:id", func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewCostReportLink
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		link, err := models.UpdateCostReportLink(c.Request.Context(), id, &input)
		if err != nil {
			writeMutationError(c, err)
			return
		}
		c.JSON(http.StatusOK, link)
	})
	api.DELETE("/links/cost/:id", func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		link, err := models.DeleteCostReportLink(c.Request.Context(), id, caps)
		if err != nil {
			writeMutationError(c, err)
			return
		}
		c.JSON(http.StatusOK, link)
	})
}

type newClarification struct {
	Scope       string          `json:"scope" binding:"required,oneof=billing report cost"`
	EntityId    int             `json:"entity_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"required"`
}

func clarificationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input newClarification
		if err := c.ShouldBindJSON(&input); err != nil {
			var validationErrs validator.ValidationErrors
			if errors.As(err, &validationErrs) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx := c.Request.Context()
		var link any
		var err error
		switch input.Scope {
		case "billing":
			link, err = models.ClarifyBilling(ctx, input.EntityId, input.Amount, input.Description)
		case "report":
			link, err = models.ClarifyReport(ctx, input.EntityId, input.Amount, input.Description)
		case "cost":
			link, err = models.ClarifyCost(ctx, input.EntityId, input.Amount, input.Description)
		}
		if err != nil {
			writeMutationError(c, err)
			return
		}
		c.JSON(http.StatusCreated, link)
	}
}

func exchangeRateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewExchangeRate
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rate, err := models.CreateExchangeRate(c.Request.Context(), &input)
		if err != nil {
			writeMutationError(c, err)
			return
		}
		c.JSON(http.StatusCreated, rate)
	}
}

func workspacesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		workspaces, err := models.GetWorkspaces(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, workspaces)
	}
}

func currenciesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		currencies, err := models.GetCurrencies(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, currencies)
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// customErrorLogger logs only requests that accumulated gin errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so the startup probe passes. Until DB and
	// Redis are ready, app endpoints return 503.
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production an explicit allowlist is required; everywhere else any
	// origin is accepted for developer convenience.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PATCH", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "x-correlation-id")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	// Optional rate limiting (recommended for production).
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := redis.NewClient(&redis.Options{Addr: os.Getenv("REDIS_ADDRESS")})
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(middlewares.AuthMiddleware())
	r.Use(middlewares.LoaderMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	// Destructive mutations are disabled unless explicitly switched on.
	caps := models.Capabilities{AllowDestructive: config.DestructiveActionsEnabled()}

	api := r.Group("/api")
	api.GET("/reconciliation/views/:kind", reconciliationViewHandler())
	api.GET("/reconciliation/summary", reconciliationSummaryHandler())
	api.GET("/reconciliation/export/:kind", reconciliationExportHandler())
	registerLinkRoutes(api, caps)
	api.POST("/clarifications", clarificationHandler())
	api.POST("/exchange-rates", exchangeRateHandler())
	api.GET("/workspaces", workspacesHandler())
	api.GET("/currencies", currenciesHandler())
	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that locks tables. Allow disabling migrations
	// on startup and running them as a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Other replicas invalidate cached views through Redis pub/sub; this
	// loop only observes and logs, the keys themselves are already gone.
	subCtx, cancelSub := context.WithCancel(context.Background())
	defer cancelSub()
	go querycache.SubscribeInvalidations(subCtx, func(agencyId string) {
		logger.WithFields(logrus.Fields{
			"module":   "querycache",
			"agencyId": agencyId,
		}).Info("reconciliation views invalidated")
	})

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/api")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	cancelSub()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
