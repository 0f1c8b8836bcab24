// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, authentication, idempotency, and rate
// limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Identity before per-user concerns (auth → idempotency → rate limit)
package httpapi

import (
	"context"
	"errors"
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

	"github.com/tbourn/go-intranet-backend/docs"
	"github.com/tbourn/go-intranet-backend/internal/auth"
	"github.com/tbourn/go-intranet-backend/internal/config"
	"github.com/tbourn/go-intranet-backend/internal/derive"
	"github.com/tbourn/go-intranet-backend/internal/domain"
	"github.com/tbourn/go-intranet-backend/internal/http/handlers"
	"github.com/tbourn/go-intranet-backend/internal/http/middleware"
	"github.com/tbourn/go-intranet-backend/internal/repo"
	"github.com/tbourn/go-intranet-backend/internal/services"
)

// directoryRepoShim adapts the repository free functions to the
// services.DirectoryRepo interface expected by the DirectoryService. This
// keeps services decoupled from the concrete repo package while reusing
// existing functions.
type directoryRepoShim struct{}

func (directoryRepoShim) CreateTechnician(ctx context.Context, db *gorm.DB, t domain.Technician) (*domain.Technician, error) {
	return repo.CreateTechnician(ctx, db, t)
}

func (directoryRepoShim) ListTechnicians(ctx context.Context, db *gorm.DB) ([]domain.Technician, error) {
	return repo.ListTechnicians(ctx, db)
}

func (directoryRepoShim) GetTechnician(ctx context.Context, db *gorm.DB, id string) (*domain.Technician, error) {
	return repo.GetTechnician(ctx, db, id)
}

func (directoryRepoShim) UpdateTechnician(ctx context.Context, db *gorm.DB, t domain.Technician) (*domain.Technician, error) {
	return repo.UpdateTechnician(ctx, db, t)
}

func (directoryRepoShim) DeleteTechnician(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeleteTechnician(ctx, db, id)
}

func (directoryRepoShim) CreateJobSite(ctx context.Context, db *gorm.DB, s domain.JobSite) (*domain.JobSite, error) {
	return repo.CreateJobSite(ctx, db, s)
}

func (directoryRepoShim) ListJobSites(ctx context.Context, db *gorm.DB) ([]domain.JobSite, error) {
	return repo.ListJobSites(ctx, db)
}

func (directoryRepoShim) GetJobSite(ctx context.Context, db *gorm.DB, id string) (*domain.JobSite, error) {
	return repo.GetJobSite(ctx, db, id)
}

func (directoryRepoShim) UpdateJobSite(ctx context.Context, db *gorm.DB, s domain.JobSite) (*domain.JobSite, error) {
	return repo.UpdateJobSite(ctx, db, s)
}

func (directoryRepoShim) DeleteJobSite(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeleteJobSite(ctx, db, id)
}

// Deps are the collaborators built outside the router. Zero values fall
// back to database sessions and the built-in tariff table.
type Deps struct {
	Sessions auth.SessionStore
	Tariffs  *derive.TariffTable
	Version  string
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), compression, CORS
// and security headers, health and metrics endpoints, optional Swagger UI,
// and then mounts the versioned API under cfg.APIBasePath.
//
// Global middleware order:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. gzip
//  8. CORS and Security headers
//
// Authenticated API groups then add, in order: RequireAuth, the idempotency
// validator (keys are per user) and the rate limiter (bypassed on replay).
func RegisterRoutes(r *gin.Engine, db *gorm.DB, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"Cookie", "X-Api-Key"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Compress JSON responses; Prometheus negotiates its own encoding
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/swagger/"})))

	// 8) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{"X-Request-ID", "ETag", "Retry-After", "Idempotency-Replayed", "Content-Length"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": deps.Version})
	})

	// API docs
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		if deps.Version != "" {
			docs.SwaggerInfo.Version = deps.Version
		}
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/session store/tariffs
	sessions := deps.Sessions
	if sessions == nil {
		sessions = auth.DBSessions{DB: db}
	}
	tariffs := deps.Tariffs
	if tariffs == nil {
		tariffs = derive.DefaultTariffs()
	}

	authSvc := &services.AuthService{
		DB:       db,
		Tokens:   auth.Tokens{Secret: []byte(cfg.Auth.JWTSecret), TTL: cfg.Auth.SessionTTL},
		Sessions: sessions,
		Limiter:  auth.NewLoginLimiter(cfg.Auth.LoginRPS, cfg.Auth.LoginBurst),
	}
	dirSvc := services.NewDirectoryService(db, directoryRepoShim{})
	leaveSvc := &services.LeaveService{DB: db}
	h := handlers.New(handlers.Deps{
		DB:             db,
		IdempotencyTTL: cfg.IdempotencyTTL,
		Auth:           authSvc,
		Directory:      dirSvc,
		Planning:       &services.PlanningService{DB: db, Directory: dirSvc},
		Leave:          leaveSvc,
		Chat:           services.NewChatService(db),
		WorkLog: &services.WorkLogService{
			DB:                  db,
			Tariffs:             tariffs,
			UnlockConfirmations: cfg.Ledger.UnlockConfirmations,
		},
		Dashboard: &services.DashboardService{Auth: authSvc, Leave: leaveSvc},
	})

	// Token-bucket rate limiter per user (or IP before sign-in)
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())

	api := groupWithPrefix(r, cfg.APIBasePath)

	// Public API
	api.POST("/auth/login", rl.Handler(), h.Login)

	// Authenticated API
	authed := api.Group("",
		middleware.RequireAuth(authSvc),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idempotencyLookup(db)),
		rl.Handler(),
	)
	{
		// Session
		authed.POST("/auth/logout", h.Logout)
		authed.GET("/auth/me", h.Me)
		authed.GET("/accounts", h.ListAccounts)
		authed.GET("/dashboard", h.GetDashboard)

		// Directory
		authed.GET("/technicians", h.ListTechnicians)
		authed.POST("/technicians", h.CreateTechnician)
		authed.GET("/technicians/:id", h.GetTechnician)
		authed.PUT("/technicians/:id", h.UpdateTechnician)
		authed.DELETE("/technicians/:id", h.DeleteTechnician)
		authed.GET("/job-sites", h.ListJobSites)
		authed.POST("/job-sites", h.CreateJobSite)
		authed.PUT("/job-sites/:id", h.UpdateJobSite)
		authed.DELETE("/job-sites/:id", h.DeleteJobSite)

		// Planning
		authed.GET("/planning", h.GetPlanning)
		authed.PUT("/planning/cells/:date/:technicianId", h.SaveCell)
		authed.DELETE("/planning/cells/:date/:technicianId", h.ClearCell)
		authed.POST("/planning/fill", h.FillPlanning)

		// Leave (requester)
		authed.GET("/leave-requests/mine", h.ListMyLeave)
		authed.POST("/leave-requests", h.CreateLeave)
		authed.PUT("/leave-requests/:id", h.UpdateLeave)
		authed.POST("/leave-requests/:id/seen", h.MarkLeaveSeen)

		// Chat
		authed.POST("/chat/messages", h.SendMessage)
		authed.DELETE("/chat/messages/:id", h.DeleteMessage)
		authed.GET("/chat/conversations", h.ListConversations)
		authed.GET("/chat/conversations/:key/messages", h.ListMessages)

		// Work-tracking ledger
		authed.GET("/work-log", h.ListWorkLog)
		authed.POST("/work-log", h.CreateWorkLogLine)
		authed.PATCH("/work-log/:id", h.PatchWorkLogLine)
		authed.DELETE("/work-log/:id", h.DeleteWorkLogLine)
		authed.POST("/work-log/:id/lock", h.LockWorkLogLine)
		authed.POST("/work-log/:id/unlock", h.UnlockWorkLogLine)
		authed.GET("/tariffs", h.ListTariffs)
	}

	// Admin API
	admin := authed.Group("/admin", middleware.RequireLabel(domain.LabelAdmin))
	{
		admin.POST("/accounts", h.CreateAccount)
		admin.GET("/leave-requests", h.AdminListLeave)
		admin.PUT("/leave-requests/:id/status", h.DecideLeave)
		admin.PUT("/leave-requests/:id/comment", h.CommentLeave)
	}
}

// idempotencyLookup reports whether a live record exists for the key.
// Lookup failures are returned so the validator can log them.
func idempotencyLookup(db *gorm.DB) middleware.IdempotencyLookup {
	return func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
		_, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, repo.ErrNotFound):
			return false, nil
		default:
			return false, err
		}
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
