package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"triostack/internal/config"
	"triostack/internal/handler"
	"triostack/internal/infra"
	"triostack/internal/middleware"
	"triostack/internal/model"
	"triostack/internal/repository"
	"triostack/internal/service"
	"triostack/internal/worker"
)

const (
	roleAdmin = string(model.RoleAdmin)
	roleHR    = string(model.RoleHR)
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← Mongo/Redis
func New(cfg *config.Config, m *infra.Mongo, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(m.Users())
	assetRepo := repository.NewAssetRepository(m.Assets())
	allocationRepo := repository.NewAllocationRepository(m.Allocations())

	// ── Services ─────────────────────────────────────────────────────────────
	dispatcher := worker.NewDispatcher(rdb)
	notifier := service.NewNotificationService(assetRepo, userRepo, dispatcher)

	authSvc := service.NewAuthService(userRepo, cfg)
	userSvc := service.NewUserService(userRepo)
	assetSvc := service.NewAssetService(assetRepo, userRepo)
	allocationSvc := service.NewAllocationService(allocationRepo, assetRepo, userRepo, notifier)
	reportSvc := service.NewReportService(assetRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	userH := handler.NewUserHandler(userSvc)
	assetH := handler.NewAssetHandler(assetSvc, reportSvc)
	allocationH := handler.NewAllocationHandler(allocationSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(m.Client, rdb))

	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/register", authH.Register)
		auth.POST("/refresh", authH.Refresh)
		auth.GET("/profile", jwtMW, authH.Profile)
		auth.PUT("/profile", jwtMW, authH.UpdateProfile)
	}

	users := api.Group("/users", jwtMW)
	{
		users.GET("", middleware.RequireRole(roleAdmin, roleHR), userH.List)
		users.GET("/stats", middleware.RequireRole(roleAdmin, roleHR), userH.Stats)
		users.GET("/role/:role", middleware.RequireRole(roleAdmin, roleHR), userH.ByRole)
		users.GET("/department/:department", middleware.RequireRole(roleAdmin, roleHR), userH.ByDepartment)
		users.GET("/:id", middleware.RequireSelfOrRole("id", roleAdmin, roleHR), userH.Get)
		users.PUT("/:id/change-password", middleware.RequireSelfOrRole("id", roleAdmin), userH.ChangePassword)
		users.POST("", middleware.RequireRole(roleAdmin), userH.Create)
		users.PUT("/:id", middleware.RequireRole(roleAdmin), userH.Update)
		users.DELETE("/:id", middleware.RequireRole(roleAdmin), userH.Delete)
		users.PUT("/:id/reset-password", middleware.RequireRole(roleAdmin), userH.ResetPassword)
		users.PUT("/:id/toggle-status", middleware.RequireRole(roleAdmin), userH.ToggleStatus)
	}

	assets := api.Group("/assets", jwtMW)
	{
		// Reads are open to every authenticated role
		assets.GET("", assetH.List)
		assets.GET("/stats", assetH.Stats)
		assets.GET("/expiring", assetH.Expiring)
		assets.GET("/expired", assetH.Expired)
		assets.GET("/available", assetH.Available)
		assets.GET("/type/:type", assetH.ByType)
		assets.GET("/:id", assetH.Get)

		assets.GET("/report/pdf", middleware.RequireRole(roleAdmin, roleHR), assetH.RegisterPDF)

		write := assets.Group("", middleware.RequireRole(roleAdmin, roleHR))
		{
			write.POST("", assetH.Create)
			write.PUT("/:id", assetH.Update)
			write.POST("/:id/assign", assetH.Assign)
			write.POST("/:id/unassign", assetH.Unassign)
			write.POST("/update-expired", assetH.UpdateExpired)
		}
		assets.DELETE("/:id", middleware.RequireRole(roleAdmin), assetH.Delete)
	}

	allocations := api.Group("/allocations", jwtMW)
	{
		allocations.GET("", allocationH.List)
		allocations.GET("/stats", allocationH.Stats)
		allocations.GET("/user/:id/active", allocationH.ActiveForUser)
		allocations.GET("/user/:id/history", allocationH.HistoryForUser)
		allocations.GET("/asset/:id/active", allocationH.ActiveForAsset)
		allocations.GET("/asset/:id/history", allocationH.HistoryForAsset)
		allocations.GET("/:id", allocationH.Get)

		write := allocations.Group("", middleware.RequireRole(roleAdmin, roleHR))
		{
			write.POST("", allocationH.Create)
			write.PUT("/:id", allocationH.Update)
			write.POST("/:id/return", allocationH.Return)
		}
		allocations.DELETE("/:id", middleware.RequireRole(roleAdmin), allocationH.Delete)
	}

	return r
}
