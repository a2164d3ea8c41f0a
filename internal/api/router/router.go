package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"acadef/backend/config"
	"acadef/backend/internal/api/handler"
	"acadef/backend/internal/api/middleware"
	"acadef/backend/internal/metrics"
	"acadef/backend/internal/model"
	"acadef/backend/pkg/jwt"
	"acadef/backend/pkg/redis"
)

// Deps infrastructure shared by the routes; DB, Redis and the registry may be nil
type Deps struct {
	JWT      *jwt.Manager
	Redis    *redis.Client
	DB       *gorm.DB
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// Setup builds the Gin engine
func Setup(cfg *config.Config, h *handler.Handler, deps Deps) *gin.Engine {
	r := gin.New()

	// a nil *redis.Client must not end up inside a non-nil interface
	var (
		blacklist middleware.Blacklist
		limiter   middleware.RateLimiter
	)
	if deps.Redis != nil {
		blacklist = deps.Redis
		limiter = deps.Redis
	}

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	r.GET("/health", healthHandler(deps.DB))
	if cfg.Metrics.Enabled && deps.Registry != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	authRequired := middleware.JWTAuth(deps.JWT, blacklist)
	adminOnly := middleware.RoleAuth(model.RoleAdmin)

	v1 := r.Group("/api/v1")
	{
		// ── auth ──
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(limiter, 10, time.Minute), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
			auth.POST("/logout", authRequired, h.Auth.Logout)
			auth.GET("/me", authRequired, h.Auth.GetCurrentUser)
			auth.PUT("/password", authRequired, h.Auth.ChangePassword)
		}

		// ── registration wizard ──
		reg := v1.Group("/registration")
		{
			reg.GET("/period", h.Registration.Window)
			reg.GET("/steps/1", h.Registration.StartStep)
			reg.POST("/steps/1", middleware.RateLimit(limiter, 5, time.Minute), h.Registration.Start)
			if cfg.Feature.LegacyRegisterEnabled {
				reg.POST("/legacy", middleware.RateLimit(limiter, 5, time.Minute), h.Registration.LegacyRegister)
			}

			candidates := reg.Group("/candidates/:candidate_id", authRequired)
			{
				candidates.GET("/steps/:step", h.Registration.GetStep)
				candidates.POST("/steps/:step", h.Registration.SubmitStep)
			}
		}

		// ── signing links (no session) ──
		signing := v1.Group("/signing")
		{
			signing.GET("/:token", h.Signing.Show)
			signing.GET("/:token/file", h.Signing.File)
			signing.POST("/:token", middleware.RateLimit(limiter, 20, time.Minute), h.Signing.Sign)
		}

		// ── documents (session) ──
		docs := v1.Group("/documents", authRequired)
		{
			docs.GET("/:id/file", h.Document.File)
			docs.POST("/:id/sign", h.Document.Sign)
		}

		// ── administration ──
		admin := v1.Group("/admin", authRequired, adminOnly)
		{
			periods := admin.Group("/periods")
			{
				periods.GET("", h.Period.List)
				periods.POST("", h.Period.Create)
				periods.GET("/:id", h.Period.Get)
				periods.PUT("/:id", h.Period.Update)
				periods.DELETE("/:id", h.Period.Delete)
				periods.PUT("/:id/toggle", h.Period.Toggle)
			}

			apps := admin.Group("/applications")
			{
				apps.GET("", h.Review.List)
				apps.GET("/promotion-years", h.Review.PromotionYears)
				apps.GET("/:id", h.Review.Detail)
				apps.POST("/:id/approve", h.Review.Approve)
				apps.POST("/:id/reject", h.Review.Reject)
				apps.DELETE("/:id", h.Review.Delete)
				apps.PUT("/:id/promotion", h.Review.UpdatePromotion)
				apps.POST("/:id/documents/regenerate", h.Review.RegenerateDocuments)
			}

			admin.GET("/export/applications", h.Export.ExportApplications)
		}
	}

	return r
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(ctx)
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
