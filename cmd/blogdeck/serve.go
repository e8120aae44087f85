package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/blogdeck/admin/handlers"
	"github.com/blogdeck/admin/internal/content"
	"github.com/blogdeck/admin/internal/deploy"
	"github.com/blogdeck/admin/internal/document/handler"
	"github.com/blogdeck/admin/internal/images"
	"github.com/blogdeck/admin/internal/oidc"
	"github.com/blogdeck/admin/internal/sessions"
	"github.com/blogdeck/admin/internal/settings"
	"github.com/blogdeck/admin/internal/storage"
	"github.com/blogdeck/admin/internal/tokens"
	"github.com/blogdeck/admin/pkg/logger"
	"github.com/blogdeck/admin/pkg/metrics"
	"github.com/blogdeck/admin/pkg/middleware"
)

var startTime = time.Now()

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	cfg := a.cfg
	logger.Infof("config summary: mongo=%v redis=%v minio=%v auth=%v", a.mongo != nil, a.redis != nil, cfg.MinIO.Endpoint != "", cfg.Admin.Username != "")

	if cfg.Server.Watch {
		w, err := content.NewWatcher(a.processor)
		if err != nil {
			logger.Warnf("file watching disabled: %v", err)
		} else {
			go func() {
				if err := w.Run(ctx); err != nil {
					logger.Errorf("watcher stopped: %v", err)
				}
			}()
		}
	}

	r, err := newRouter(ctx, a)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("admin API listening on http://%s%sadmin/", addr, cfg.Site.Root)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Infof("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// newRouter builds the gin engine: health, metrics, swagger and the admin
// API under <root>admin/api.
func newRouter(ctx context.Context, a *app) (*gin.Engine, error) {
	cfg := a.cfg
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Lightweight CORS middleware for the browser editor.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})
	r.Use(gin.Logger(), gin.Recovery())

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && a.redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(a.redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{"store": a.repo != nil}
		if cfg.MongoDB.URI != "" {
			deps["mongo"] = a.mongo != nil && a.mongo.Ping(c.Request.Context(), nil) == nil
			ready = ready && deps["mongo"]
		}
		if cfg.Redis.Host != "" {
			deps["redis"] = a.redis != nil && a.redis.Ping(c.Request.Context()).Err() == nil
			ready = ready && deps["redis"]
		}
		ready = ready && deps["store"]
		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	reg := prometheus.NewRegistry()
	metrics.RegisterCollectors(reg)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	apiBase := cfg.Site.Root + "admin/api"
	handlers.RegisterSwagger(r, apiBase)

	api := r.Group(apiBase)
	protected := api.Group("")
	if cfg.Admin.Username != "" {
		sessionsSvc := sessions.NewService(sessionRepository(a))
		sessions.SetBlacklistClient(a.redis)
		handlers.NewAuthHandler(cfg.Admin, sessionsSvc).Register(api)
		protected.Use(middleware.AuthMiddleware(verifier(ctx, a), sessionsSvc))
	} else {
		logger.Warnf("admin.username not set; the admin API is unauthenticated")
	}

	handler.RegisterDocumentRoutes(protected, a.docs)

	store := settings.NewStore(a.fs, cfg.Site.BaseDir)
	var mirror images.Mirror
	if cfg.MinIO.Endpoint != "" {
		m, err := storage.NewMinIOStorage(cfg.MinIO)
		if err != nil {
			logger.Warnf("image mirroring disabled: %v", err)
		} else {
			mirror = m
		}
	}
	uploader := images.NewUploader(a.fs, cfg.Site.SourceDir, cfg.Site.Root, store, mirror, cfg.Site.Location())
	var history deploy.History = deploy.NopHistory{}
	if cfg.MongoDB.URI != "" {
		history = deploy.MongoHistory{URI: cfg.MongoDB.URI, Database: cfg.MongoDB.Database}
	}
	runner := deploy.NewRunner(cfg.Admin.DeployCommand, cfg.Site.BaseDir, history)
	handlers.NewSiteHandler(store, uploader, runner).Register(protected)

	return r, nil
}

// sessionRepository prefers Redis, then Mongo, then process memory.
func sessionRepository(a *app) sessions.Repository {
	switch {
	case a.redis != nil:
		logger.Infof("using Redis for session storage")
		return sessions.NewRedisRepository(a.redis, "blogdeck:session:")
	case a.mongo != nil:
		logger.Infof("using MongoDB for session storage")
		return sessions.NewMongoRepository(a.mongo.Database(a.cfg.MongoDB.Database).Collection("sessions"))
	default:
		return sessions.NewMemoryRepository()
	}
}

// verifier accepts our own HS256 tokens and, when an issuer is configured,
// OIDC ID tokens.
func verifier(ctx context.Context, a *app) middleware.Verifier {
	own := tokens.NewVerifier(a.cfg.Admin.Secret)
	o := a.cfg.OIDC
	if o.Issuer == "" || o.ClientID == "" {
		return own
	}
	ver, err := oidc.NewVerifier(ctx, o.Issuer, o.ClientID)
	if err == nil {
		return middleware.FirstOf(own, ver)
	}
	logger.Warnf("failed to initialize OIDC verifier: %v", err)
	if strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
		logger.Warn("enabling insecure OIDC verifier (integration mode)")
		return middleware.FirstOf(own, oidc.NewInsecureVerifier())
	}
	return own
}
