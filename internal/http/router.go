// Package httpapi wires the HTTP transport (Gin) to the studio controller,
// middleware and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging with redaction, panic recovery,
// metrics, compression, CORS, security headers, idempotency and rate
// limiting.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-image-studio/docs"
	"github.com/tbourn/go-image-studio/internal/config"
	"github.com/tbourn/go-image-studio/internal/domain"
	"github.com/tbourn/go-image-studio/internal/http/handlers"
	"github.com/tbourn/go-image-studio/internal/http/middleware"
	"github.com/tbourn/go-image-studio/internal/qr"
	"github.com/tbourn/go-image-studio/internal/repo"
	"github.com/tbourn/go-image-studio/internal/services"
	"github.com/tbourn/go-image-studio/internal/session"
	"github.com/tbourn/go-image-studio/internal/studio"
)

// maxBodyBytes caps request bodies; the largest payload is the input form.
const maxBodyBytes = 64 << 10

// Provider synthesizes prompts and images (see internal/genai).
type Provider interface {
	studio.PromptSynthesizer
	studio.ImageSynthesizer
}

// userRepoShim adapts the repository free functions to services.UserRepo.
type userRepoShim struct{}

func (userRepoShim) CreateUser(ctx context.Context, db *gorm.DB, username, hash, key string) (*domain.User, error) {
	return repo.CreateUser(ctx, db, username, hash, key)
}

func (userRepoShim) GetUser(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	return repo.GetUser(ctx, db, username)
}

func (userRepoShim) UserExists(ctx context.Context, db *gorm.DB, username string) (bool, error) {
	return repo.UserExists(ctx, db, username)
}

// replayShim stores generations for idempotent retries in generation_replays.
type replayShim struct {
	db    *gorm.DB
	ttl   time.Duration
	codes studio.CodeRenderer
}

func (s replayShim) Lookup(ctx context.Context, username, key string) (*studio.Generation, error) {
	rec, err := repo.GetReplay(ctx, s.db, username, key, time.Now().UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, studio.ErrReplayMiss
	}
	if err != nil {
		return nil, err
	}
	g := &studio.Generation{
		ImageURL:  rec.ImageURL,
		Prompt:    rec.Prompt,
		Request:   rec.SourceText,
		Summary:   rec.Summary,
		CreatedAt: rec.CreatedAt,
	}
	if s.codes != nil {
		g.QRCode = s.codes.Render(rec.ImageURL)
	}
	return g, nil
}

func (s replayShim) Remember(ctx context.Context, username, key string, g studio.Generation) error {
	_, err := repo.CreateReplay(ctx, s.db, repo.ReplayInput{
		Username:   username,
		Key:        key,
		ImageURL:   g.ImageURL,
		Prompt:     g.Prompt,
		SourceText: g.Request,
		Summary:    g.Summary,
	}, s.ttl)
	// A concurrent retry stored the same key first; either record will do.
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// exists reports whether a replay is stored, for the idempotency middleware.
func (s replayShim) exists(ctx context.Context, username, key string, now time.Time) (bool, error) {
	_, err := repo.GetReplay(ctx, s.db, username, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// RegisterRoutes attaches all middleware and HTTP endpoints to r and returns
// the controller serving them.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Identify: username from the session cookie, for logs and rate keys
//  4. Logger: structured access logs with redaction
//  5. Recovery: capture panics after the logger
//  6. Body size limit
//  7. Metrics
//  8. Compression
//  9. CORS and security headers
//
// Idempotency and rate limiting are mounted per route.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, ai Provider, cfg config.Config) (*studio.Controller, error) {
	sessions, err := session.NewManager(cfg.Session.Secret, cfg.Session.TTL)
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}
	cookie := handlers.CookieOptions{
		Name:   cfg.Session.CookieName,
		Path:   "/",
		Secure: cfg.Session.CookieSecure,
	}
	codes := qr.Renderer{}
	replays := replayShim{db: db, ttl: cfg.IdempotencyTTL, codes: codes}

	creds := services.NewCredentialService(db, userRepoShim{})
	if cfg.Credentials.MinPasswordLen > 0 {
		creds.MinPasswordLen = cfg.Credentials.MinPasswordLen
	}
	if cfg.Credentials.SecretKeyPrefix != "" {
		creds.SecretKeyPrefix = cfg.Credentials.SecretKeyPrefix
	}
	if cfg.Credentials.BcryptCost > 0 {
		creds.Cost = cfg.Credentials.BcryptCost
	}

	ctrl := &studio.Controller{
		Credentials:     creds,
		Sessions:        sessions,
		Prompts:         ai,
		Images:          ai,
		Codes:           codes,
		Replays:         replays,
		States:          studio.NewStateStore(cfg.Session.StateIdleTTL),
		Catalog:         studio.DefaultCatalog,
		HistoryLimit:    cfg.HistoryLimit,
		UpstreamTimeout: cfg.GenAI.Timeout,
		VerifyAccount:   cfg.Session.VerifyAccount,
	}

	r.HandleMethodNotAllowed = true
	apiBase := cfg.APIBasePath

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Identify(func(c *gin.Context) string {
		rec, err := sessions.Load(handlers.NewCookieSlot(c, cookie))
		if err != nil {
			return ""
		}
		return rec.Username
	}))
	r.Use(middleware.Logger(middleware.RedactOptions{}))
	r.Use(middleware.Recovery())
	r.Use(middleware.BodyLimit(maxBodyBytes))
	r.Use(middleware.Metrics())
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/metrics", joinPath(apiBase, "/studio/qr")})))
	useCORS(r, cfg.CORS.AllowedOrigins)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/ready", readiness(db))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = apiBase
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(ctrl, codes, handlers.Options{
		Catalog:    ctrl.Catalog,
		Cookie:     cookie,
		HistoryMax: ctrl.HistoryLimit,
	})

	loginLimit := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	genLimit := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	idem := middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, replays.exists)

	api := groupWithPrefix(r, apiBase)
	{
		api.GET("/session", h.Session)

		api.POST("/auth/register", loginLimit.Handler(), h.Register)
		api.POST("/auth/login", loginLimit.Handler(), h.Login)
		api.POST("/auth/logout", h.Logout)

		api.GET("/studio/options", h.Options)
		api.POST("/studio/request", h.Submit)
		// Idempotency runs first so replays bypass the limiter.
		api.POST("/studio/generate", idem, genLimit.Handler(), h.Generate)
		api.POST("/studio/new", h.NewImage)
		api.GET("/studio/history", h.History)
		api.GET("/studio/qr", h.QR)
	}
	return ctrl, nil
}

// readiness answers 200 once the account store can be queried.
func readiness(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		n, latest, err := repo.UsersStats(ctx, db)
		if err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("readiness probe failed")
			handlers.Fail(c, http.StatusServiceUnavailable, handlers.ErrCodeNotReady, "account store unavailable")
			return
		}
		body := gin.H{"status": "ready", "users": n}
		if latest != nil {
			body["latest_signup"] = latest.UTC()
		}
		c.JSON(http.StatusOK, body)
	}
}

// useCORS installs the CORS posture. Without an allowlist every origin is
// allowed but credentials (the session cookie) are not; with one, listed
// origins may send the cookie.
func useCORS(r *gin.Engine, origins []string) {
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "X-Request-ID", middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "Idempotency-Replayed"}
	methods := []string{"GET", "POST", "OPTIONS"}

	if len(origins) == 0 {
		// Force ACAO: * even without an Origin header (simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     methods,
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
		return
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     methods,
		AllowHeaders:     allowHeaders,
		ExposeHeaders:    exposeHeaders,
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

// joinPath joins the API base with a route path.
func joinPath(base, p string) string {
	if base == "" || base == "/" {
		return p
	}
	return base + p
}
