package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/aquaticmetropolis/betagate/internal/cache"
	"github.com/aquaticmetropolis/betagate/internal/collector"
	"github.com/aquaticmetropolis/betagate/internal/errors"
	"github.com/aquaticmetropolis/betagate/internal/evaluation"
	"github.com/aquaticmetropolis/betagate/internal/metricdef"
	"github.com/aquaticmetropolis/betagate/internal/monitoring"
	"github.com/aquaticmetropolis/betagate/internal/ratelimit"
	"github.com/aquaticmetropolis/betagate/internal/report"
	"github.com/aquaticmetropolis/betagate/internal/security"
	"github.com/aquaticmetropolis/betagate/internal/storage"
	"github.com/aquaticmetropolis/betagate/internal/types"
)

func main() {
	// Structured logging setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment with defaults
	dataDir := getEnvOrDefault("DATA_DIR", "./data")
	port := getEnvOrDefault("PORT", "8080")
	redisAddr := os.Getenv("REDIS_ADDR")
	redisPassword := os.Getenv("REDIS_PASSWORD")
	adminSecret := getEnvOrDefault("ADMIN_TOKEN_SECRET", "change-me-before-going-live")
	webhookURL := os.Getenv("GATE_WEBHOOK_URL")
	evalInterval := getEnvDuration("EVAL_INTERVAL", 60*time.Second)
	evalWindow := getEnvDuration("EVAL_WINDOW", 7*24*time.Hour)
	replicaCount := getEnvInt("STORAGE_REPLICAS", 3)

	// Initialize storage backends. The first backend is the primary used for
	// reads; samples are written through the quorum store.
	var dbs []*storage.DB
	var repos []*storage.Repository
	var writers []storage.SampleWriter
	for i := 0; i < replicaCount; i++ {
		name := "gate.db"
		if i > 0 {
			name = fmt.Sprintf("gate_replica_%d.db", i)
		}
		db, err := storage.NewDB(dataDir, name)
		if err != nil {
			slog.Error("Failed to initialize storage backend", "backend", name, "error", err)
			os.Exit(1)
		}
		defer db.Close()

		repo := storage.NewRepository(db)
		dbs = append(dbs, db)
		repos = append(repos, repo)
		writers = append(writers, repo)
	}

	quorumStore, err := storage.NewQuorumStore(writers, 0)
	if err != nil {
		slog.Error("Failed to initialize quorum store", "error", err)
		os.Exit(1)
	}
	primaryRepo := repos[0]

	// Load metric definitions. An invalid definition set is a configuration
	// error and refuses startup.
	defStore := metricdef.NewStore(dataDir)
	defs, err := defStore.Load()
	if err != nil {
		slog.Error("Failed to load metric definitions", "error", err)
		os.Exit(1)
	}
	registry, err := metricdef.NewRegistry(defs)
	if err != nil {
		appErr := errors.NewConfigurationError("metric definitions rejected", err)
		slog.Error("Refusing to start with invalid metric definitions", "error", appErr.Error())
		os.Exit(1)
	}
	slog.Info("Metric definitions loaded", "count", len(defs))

	// Initialize monitoring system
	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()

	// Initialize Redis-backed rate limiting with in-memory fallback
	redisClient, err := ratelimit.NewRedisClient(redisAddr, redisPassword, 0)
	if err != nil {
		slog.Warn("Redis unavailable, continuing with fallback rate limiting", "error", err)
	}
	defer redisClient.Close()
	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.DefaultConfig())
	defer limiter.Close()
	if !limiter.UsingRedis() {
		appMetrics.IncrementRateLimitFallback()
	}

	// Sample collector buffers ingested samples and flushes them through the
	// quorum store in the background.
	sampleCollector := collector.New(registry, quorumStore, appMetrics, 256, 5*time.Second)
	sampleCollector.Start()

	// Evaluation engine reads from the primary backend
	engine := evaluation.NewEngine(registry, primaryRepo)

	// Gate decision notifier
	var notifier monitoring.GateNotifier
	if webhookURL != "" {
		notifier = monitoring.NewWebhookNotifier(webhookURL)
		slog.Info("Gate webhook notifier configured")
	}

	// Response cache for read endpoints
	appCache := cache.NewCache(5 * time.Minute)

	// runEvaluation drains pending samples, runs the pipeline, and persists
	// the result to a quorum of backends. Re-running a closed period is a
	// no-op at the storage layer.
	var evalMu sync.Mutex
	runEvaluation := func(ctx context.Context, periodStart, periodEnd time.Time) (*evaluation.Result, error) {
		evalMu.Lock()
		defer evalMu.Unlock()

		start := time.Now()
		sampleCollector.Flush(ctx)

		result, err := engine.Evaluate(ctx, periodStart, periodEnd)
		if err != nil {
			if errors.IsInsufficientData(err) {
				appMetrics.IncrementEvaluationDeferred()
			} else {
				appMetrics.IncrementEvaluationFailure()
			}
			return nil, err
		}

		acked := 0
		for i, repo := range repos {
			if err := repo.SaveResult(ctx, result); err != nil {
				slog.Error("Failed to persist evaluation result", "backend", i, "result_id", result.ID, "error", err)
				continue
			}
			acked++
		}
		if acked < quorumStore.Quorum() {
			appMetrics.IncrementEvaluationFailure()
			return nil, errors.NewInternalError(
				fmt.Sprintf("result persisted to %d of %d backends, quorum is %d", acked, len(repos), quorumStore.Quorum()), nil)
		}

		appMetrics.IncrementEvaluationRun()
		if result.Decision == evaluation.DecisionFail {
			appMetrics.IncrementGateFail()
		}
		appCache.Invalidate()

		appLogger.EvaluationLogger(result.ID, string(result.Decision), result.WeightedTotal,
			len(result.Recommendations), time.Since(start))

		if notifier != nil {
			go func(r *evaluation.Result) {
				nctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				n := monitoring.GateNotification{
					ResultID:        r.ID,
					Decision:        string(r.Decision),
					WeightedTotal:   r.WeightedTotal,
					Recommendations: len(r.Recommendations),
					PeriodStart:     r.PeriodStart,
					PeriodEnd:       r.PeriodEnd,
				}
				if err := notifier.NotifyDecision(nctx, n); err != nil {
					slog.Error("Gate notification failed", "result_id", r.ID, "error", err)
				}
			}(result)
		}

		return result, nil
	}

	// Background scheduler evaluates the trailing closed window
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(evalInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				periodEnd := time.Now().UTC().Truncate(time.Minute)
				periodStart := periodEnd.Add(-evalWindow)
				if _, err := runEvaluation(schedulerCtx, periodStart, periodEnd); err != nil {
					if errors.IsInsufficientData(err) {
						slog.Info("Scheduled evaluation deferred", "reason", err.Error())
					} else {
						slog.Error("Scheduled evaluation failed", "error", err)
					}
				}
			case <-schedulerCtx.Done():
				return
			}
		}
	}()

	r := gin.New()

	// Monitoring middleware first to capture all requests
	r.Use(monitoring.MonitoringMiddleware(appMetrics, appLogger))

	// Error handling middleware
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	// Security middleware setup
	securityConfig := security.DefaultSecurityConfig()
	securityMiddleware := security.NewSecurityMiddleware(securityConfig)
	r.Use(securityMiddleware.SecurityHeaders)
	r.Use(securityMiddleware.RequestTimeout)
	r.Use(securityMiddleware.ValidateContentType)

	// CORS for dashboard clients
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = securityConfig.AllowedOrigins
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	// Per-IP rate limiting across the API
	r.Use(ratelimit.IPRateLimitMiddleware(limiter, appMetrics))

	// Response cache for GET evaluation and report endpoints
	r.Use(appCache.Middleware(appMetrics))

	adminAuth := security.NewAdminAuth(adminSecret)

	// Sample ingestion endpoint. Accepts a batch or a single sample; a bad
	// sample in a batch is rejected individually, never the whole batch.
	r.POST("/samples", ratelimit.SessionRateLimitMiddleware(limiter, appMetrics), func(c *gin.Context) {
		var req types.IngestRequest
		if err := c.ShouldBindBodyWithJSON(&req); err != nil {
			var single types.MetricSample
			if err2 := c.ShouldBindBodyWithJSON(&single); err2 != nil {
				appErr := errors.NewValidationError("request body must be a sample or a batch of samples")
				errors.LogError(c, appErr)
				c.JSON(appErr.HTTPStatus, appErr)
				return
			}
			req.Samples = []types.MetricSample{single}
		}

		for i := range req.Samples {
			if req.Samples[i].SessionID != "" {
				if err := securityMiddleware.ValidateSessionID(req.Samples[i].SessionID); err != nil {
					appErr := errors.NewValidationError(err.Error())
					errors.LogError(c, appErr)
					c.JSON(appErr.HTTPStatus, appErr)
					return
				}
			}
		}

		resp := sampleCollector.Ingest(req.Samples)
		appLogger.IngestLogger(resp.Accepted, resp.Rejected, c.ClientIP())

		c.JSON(http.StatusAccepted, resp)
	})

	// Evaluation trigger, operator only
	r.POST("/evaluate", adminAuth.Middleware(), func(c *gin.Context) {
		var req types.EvaluateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			appErr := errors.NewValidationError("period_start and period_end are required")
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		result, err := runEvaluation(c.Request.Context(), req.PeriodStart, req.PeriodEnd)
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		c.JSON(http.StatusOK, result)
	})

	r.GET("/evaluations/latest", func(c *gin.Context) {
		result, err := primaryRepo.LatestResult(c.Request.Context())
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}
		c.JSON(http.StatusOK, result)
	})

	r.GET("/evaluations/:id", func(c *gin.Context) {
		result, err := primaryRepo.GetResult(c.Request.Context(), c.Param("id"))
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}
		c.JSON(http.StatusOK, result)
	})

	// Plain-text gate report for stakeholders
	r.GET("/reports/:id", func(c *gin.Context) {
		result, err := primaryRepo.GetResult(c.Request.Context(), c.Param("id"))
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		text, err := report.Render(registry, result)
		if err != nil {
			appErr := errors.NewInternalError("failed to render report", err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		c.String(http.StatusOK, text)
	})

	r.GET("/definitions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"definitions": registry.All(),
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Definition reload, operator only. The new set must satisfy the weight
	// budgets or the current set stays in effect.
	r.PUT("/definitions", adminAuth.Middleware(), func(c *gin.Context) {
		var newDefs []metricdef.Definition
		if err := c.ShouldBindJSON(&newDefs); err != nil {
			appErr := errors.NewValidationError("invalid definition payload")
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		if err := registry.Reload(newDefs); err != nil {
			appErr := errors.NewConfigurationError("definition set rejected", err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		if err := defStore.Save(newDefs); err != nil {
			slog.Error("Failed to persist metric definitions", "error", err)
		}
		appCache.Invalidate()

		c.JSON(http.StatusOK, gin.H{
			"message": "definitions reloaded",
			"count":   len(newDefs),
		})
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   "1.0.0",
			"storage": gin.H{
				"backends": quorumStore.Backends(),
				"quorum":   quorumStore.Quorum(),
			},
			"collector_pending": sampleCollector.Pending(),
			"metrics":           appMetrics.GetStats(),
		})
	})

	// Swagger documentation routes
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Metrics endpoint
	r.GET("/metrics", func(c *gin.Context) {
		stats := appMetrics.GetStats()
		c.JSON(http.StatusOK, stats)
	})

	// Cache stats endpoint
	r.GET("/cache/stats", func(c *gin.Context) {
		stats := appCache.Stats()
		c.JSON(http.StatusOK, stats)
	})

	// Connection pool stats endpoints
	r.GET("/pools/database", func(c *gin.Context) {
		pools := make([]map[string]interface{}, 0, len(dbs))
		for _, db := range dbs {
			pools = append(pools, db.GetPoolStats())
		}
		c.JSON(http.StatusOK, gin.H{
			"pool":  "database",
			"stats": pools,
		})
	})

	r.GET("/pools/redis", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"pool":  "redis",
			"stats": redisClient.GetPoolStats(),
		})
	})

	// Rate limiter stats endpoint
	r.GET("/ratelimit/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, limiter.GetStats())
	})

	// Performance profiling endpoints (development only)
	if os.Getenv("ENABLE_PROFILING") == "true" {
		slog.Info("Enabling performance profiling endpoints")
		r.GET("/debug/pprof/*filepath", gin.WrapF(pprof.Index))
		r.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
		r.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
		r.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
		r.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
	}

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stopScheduler()

	// Drain buffered samples before closing storage
	sampleCollector.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}

// getEnvOrDefault gets environment variable with fallback default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration parses a duration environment variable with fallback
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		slog.Warn("Invalid duration in environment, using default", "key", key, "value", value, "default", defaultValue)
	}
	return defaultValue
}

// getEnvInt parses an integer environment variable with fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
		slog.Warn("Invalid integer in environment, using default", "key", key, "value", value, "default", defaultValue)
	}
	return defaultValue
}
