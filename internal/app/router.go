package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/carolinavmo/PMR-atlas/handlers"
	diseasehandler "github.com/carolinavmo/PMR-atlas/internal/disease/handler"
	"github.com/carolinavmo/PMR-atlas/internal/media"
	"github.com/carolinavmo/PMR-atlas/internal/reader"
	"github.com/carolinavmo/PMR-atlas/pkg/middleware"
)

// Router mounts every route on a fresh engine.
//
//	/api/auth/{register,login,refresh}   public
//	/api/media/*key                      public, embedded in section content
//	/api/...                             bearer token + resolved caller
//	/health /ready /metrics /swagger     operational
func (a *App) Router() *gin.Engine {
	cfg := a.Config
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && a.Redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(a.Redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", a.ready)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})))
	handlers.RegisterSwagger(r)

	auth := handlers.NewAuthHandler(cfg, a.Users, a.Sessions, a.Revocations)
	mediaHandler := media.NewHandler(a.Media)

	api := r.Group("/api")
	auth.Register(api)
	mediaHandler.RegisterPublic(api)
	api.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "PMR Atlas API", "version": "1.0.0"})
	})

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(a.Verifier, a.Revocations), middleware.ResolveCaller(a.Users))
	auth.RegisterProtected(protected)
	diseasehandler.NewDiseaseHandler(a.Editor).Register(protected)
	reader.NewHandler(a.Reader).Register(protected)
	mediaHandler.Register(protected)

	return r
}

// Handler wraps the router with the configured CORS policy.
func (a *App) Handler() http.Handler {
	origins := a.Config.CORS.AllowedOrigins
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: !allowsAny(origins),
	}).Handler(a.Router())
}

func allowsAny(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return len(origins) == 0
}

// ready answers 200 only when every configured backend responds.
func (a *App) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	deps := gin.H{}
	ok := true
	if a.Mongo != nil {
		up := a.Mongo.Ping(ctx, nil) == nil
		deps["mongo"] = up
		ok = ok && up
	}
	if a.Redis != nil {
		up := a.Redis.Ping(ctx).Err() == nil
		deps["redis"] = up
		ok = ok && up
	}
	if n, err := a.Journal.Len(ctx); err == nil {
		deps["history_pending"] = n
	}
	deps["translation"] = a.Editor.TranslationConfigured()

	status, label := http.StatusOK, "ready"
	if !ok {
		status, label = http.StatusServiceUnavailable, "not_ready"
	}
	c.JSON(status, gin.H{"status": label, "deps": deps, "uptime": time.Since(a.started).Round(time.Second).String()})
}
