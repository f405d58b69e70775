package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-pasar/internal/audit"
	"github.com/noah-isme/backend-pasar/internal/cart"
	"github.com/noah-isme/backend-pasar/internal/catalog"
	"github.com/noah-isme/backend-pasar/internal/common"
	"github.com/noah-isme/backend-pasar/internal/config"
	"github.com/noah-isme/backend-pasar/internal/health"
	"github.com/noah-isme/backend-pasar/internal/moderation"
	"github.com/noah-isme/backend-pasar/internal/obs"
	"github.com/noah-isme/backend-pasar/internal/promo"
	"github.com/noah-isme/backend-pasar/internal/ratelimit"
	"github.com/noah-isme/backend-pasar/internal/report"
	"github.com/noah-isme/backend-pasar/internal/report/pgsource"
	"github.com/noah-isme/backend-pasar/internal/seller"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "pasar")
	httpMetrics := obs.MustRegisterMetrics(metricsNamespace, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "pasar-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	taskClient := asynq.NewClient(asynq.RedisClientOpt{Addr: redisOpts.Addr, Password: redisOpts.Password, DB: redisOpts.DB})
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()

	catalogPg := catalog.PgSource{Pool: pool}
	catalogSvc, err := catalog.NewService(catalog.ServiceConfig{
		Source:       catalogPg,
		Cache:        catalog.NewCache(redisClient, 5*time.Minute),
		DefaultPage:  cfg.DefaultPage,
		DefaultLimit: cfg.DefaultLimit,
		MaxLimit:     cfg.MaxLimit,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := &catalog.Handler{Svc: catalogSvc}

	cartSvc := &cart.Service{
		Store:    cart.RedisStore{Client: redisClient, TTL: cfg.CartTTL},
		Catalog:  catalogPg,
		Promos:   promo.PgStore{Pool: pool},
		Shipping: cart.FlatRateShipping{PerSeller: 10_000},
	}
	cartHandler := &cart.Handler{Svc: cartSvc}

	reportSources := pgsource.New(pool)
	reportSvc := report.NewService(*cfg, report.Sources{
		Orders:  reportSources.Orders,
		Payouts: reportSources.Payouts,
		Audit:   reportSources.Audit,
		Returns: reportSources.Returns,
	})
	reportHandler := &report.Handler{
		Svc:     reportSvc,
		Exports: report.Enqueuer{Client: taskClient},
		Logger:  logger,
	}

	auditRec := audit.Recorder{
		Store:        audit.PgStore{Pool: pool},
		Enabled:      true,
		SamplingRate: 1.0,
	}
	moderationSvc := moderation.NewService(*cfg,
		moderation.PgQueueSource{Pool: pool},
		moderation.PgDecisionStore{Pool: pool},
		auditRec,
	)
	moderationHandler := &moderation.Handler{Svc: moderationSvc, DefaultPage: cfg.DefaultPage}

	limiter, err := ratelimit.NewRedisLimiter(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}
	writeLimit := ratelimit.Handler{
		Limiter: limiter,
		Key:     func(r *http.Request) string { return common.ClientIP(r) },
		OnError: func(err error) { logger.Error().Err(err).Msg("rate limit check") },
	}

	sellerResolver := seller.NewResolver(cfg.SellerHeader, envOrDefault("SELLER_ROOT_DOMAIN", ""))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(common.TrustedUserMiddleware)
	r.Use(obs.Telemetry{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", cart.SessionHeader, cfg.SellerHeader, common.TrustedUserHeader},
		ExposedHeaders:   []string{"Link", cart.SessionHeader, "X-Export-Truncated", "X-Export-Total-Matching"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	healthHandler := health.Handler{
		Checker: health.ProbeChecker{DB: pool, Redis: redisClient},
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/products", catalogHandler.List)

		v.Route("/cart", func(c chi.Router) {
			c.Use(cart.SessionMiddleware)
			c.Get("/", cartHandler.Get)
			c.Group(func(g chi.Router) {
				g.Use(writeLimit.Middleware)
				g.Post("/items", cartHandler.AddItem)
				g.Patch("/items", cartHandler.UpdateItem)
				g.Delete("/items", cartHandler.RemoveItem)
				g.Post("/promo", cartHandler.ApplyPromo)
				g.Delete("/promo", cartHandler.ClearPromo)
				g.Post("/merge", cartHandler.Merge)
			})
		})

		v.Route("/reports", func(rep chi.Router) {
			rep.Use(sellerResolver.Middleware)
			rep.Get("/orders", reportHandler.Orders)
			rep.Get("/orders/export", reportHandler.OrdersExport)
			rep.Get("/payouts", reportHandler.Payouts)
			rep.Get("/payouts/export", reportHandler.PayoutsExport)
			rep.Get("/returns", reportHandler.Returns)
			rep.Get("/returns/export", reportHandler.ReturnsExport)
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Get("/audit-log", reportHandler.Audit)
			admin.Get("/audit-log/export", reportHandler.AuditExport)
			admin.Get("/moderation/queue", moderationHandler.Queue)
			admin.With(writeLimit.Middleware).Post("/moderation/{kind}/{id}/decision", moderationHandler.Decide)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		<-sigCtx.Done()
		health.SetReady(false)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server shutdown complete")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
