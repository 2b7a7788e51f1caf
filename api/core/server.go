package core

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/authenx/evidence-hub/api/common"
	handlerAssets "github.com/authenx/evidence-hub/api/handler/assets"
	"github.com/authenx/evidence-hub/api/middleware"
	"github.com/authenx/evidence-hub/cache"
	"github.com/authenx/evidence-hub/config"
	assetsRepo "github.com/authenx/evidence-hub/database/repo/assets"
	"github.com/authenx/evidence-hub/internal/checklist"
	"github.com/authenx/evidence-hub/internal/evidence"
	"github.com/authenx/evidence-hub/internal/status"
	"github.com/authenx/evidence-hub/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var startTime = time.Now()

// ServerDependencies 服务器依赖项
type ServerDependencies struct {
	DB         *gorm.DB
	Cache      cache.Provider
	Store      storage.Provider
	AssetsRepo *assetsRepo.Repository
	Evidence   *evidence.Service
	Checklist  *checklist.Service
	Reconciler *status.Reconciler
}

// 启动gin
func setupRouter(deps *ServerDependencies) (*gin.Engine, func()) {
	cfg := config.Get()
	router := gin.New()

	// 全局中间件
	// 仅在开发版本时启用 gin 日志
	if config.CommitHash == "" {
		router.Use(gin.Logger())
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  cfg.ServerDomain == "",
		AllowOrigins:     corsOrigins(cfg),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		AllowCredentials: cfg.ServerDomain != "",
		MaxAge:           12 * time.Hour,
	}))

	router.SetTrustedProxies(nil)

	// 限制上传文件大小
	router.MaxMultipartMemory = int64(cfg.UploadMaxSizeMB) << 20

	// 速率限制
	apiRateLimiter := middleware.NewRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, cfg.RateLimitExpireTime)
	cleanup := func() {
		apiRateLimiter.Stop()
	}

	router.GET("/health", func(context *gin.Context) {
		health := gin.H{
			"status":  "ok",
			"uptime":  time.Since(startTime).Round(time.Second).String(),
			"version": config.Version,
			"checks": gin.H{
				"database": checkDatabaseHealth(deps.DB),
				"cache":    checkCacheHealth(deps.Cache),
				"storage":  checkStorageHealth(deps.Store),
			},
		}
		httpStatus := http.StatusOK
		for _, checkResult := range health["checks"].(gin.H) {
			if result, ok := checkResult.(string); ok && result != "ok" {
				httpStatus = http.StatusServiceUnavailable
				break
			}
		}
		context.JSON(httpStatus, health)
	})
	router.GET("/version", func(context *gin.Context) {
		common.RespondSuccess(context, gin.H{
			"version": config.Version,
			"commit":  config.CommitHash,
		})
	})

	// 本地存储的公开访问路径
	if deps.Store != nil && deps.Store.Name() == "local" {
		filesGroup := router.Group("/files")
		filesGroup.Use(apiRateLimiter.Middleware())
		filesGroup.GET("/*path", serveLocalFile(deps.Store))
	}

	// 创建处理器（依赖注入）
	assetHandler := handlerAssets.NewHandler(deps.AssetsRepo, deps.Evidence, deps.Checklist, deps.Reconciler)

	apiGroup := router.Group("/api")
	apiGroup.Use(func(context *gin.Context) { // 所有API禁止缓存
		context.Header("Cache-Control", "no-store")
		context.Next()
	})
	{
		v1 := apiGroup.Group("/v1")
		v1.Use(apiRateLimiter.Middleware())
		{
			assetsGroup := v1.Group("/assets")
			{
				assetsGroup.POST("", assetHandler.CreateAsset)  // POST /api/v1/assets
				assetsGroup.GET("", assetHandler.ListAssets)    // GET /api/v1/assets?owner_id=
				assetsGroup.GET("/:id", assetHandler.GetAsset)  // GET /api/v1/assets/{id}

				assetsGroup.POST("/:id/evidence", assetHandler.UploadEvidence)          // POST /api/v1/assets/{id}/evidence
				assetsGroup.GET("/:id/evidence", assetHandler.ListEvidence)             // GET /api/v1/assets/{id}/evidence
				assetsGroup.DELETE("/:id/evidence/:name", assetHandler.DeleteEvidence)  // DELETE /api/v1/assets/{id}/evidence/{name}

				assetsGroup.POST("/:id/review", assetHandler.ReviewAsset) // POST /api/v1/assets/{id}/review
			}

			documentsGroup := v1.Group("/documents")
			{
				documentsGroup.PATCH("/:id", assetHandler.ToggleDocument) // PATCH /api/v1/documents/{id}
			}
		}
	}

	return router, cleanup
}

// serveLocalFile 从存储提供者流式读出对象
func serveLocalFile(store storage.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		objectPath := strings.TrimPrefix(c.Param("path"), "/")
		if objectPath == "" {
			c.Status(http.StatusNotFound)
			return
		}

		reader, err := store.Get(c.Request.Context(), objectPath)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.Status(http.StatusNotFound)
				return
			}
			c.Status(http.StatusInternalServerError)
			return
		}
		defer reader.Close()

		c.Header("Cache-Control", "public, max-age=86400")
		c.DataFromReader(http.StatusOK, -1, "image/jpeg", reader, nil)
	}
}

func corsOrigins(cfg *config.Config) []string {
	if cfg.ServerDomain == "" {
		return nil
	}
	return []string{cfg.ServerDomain}
}

// StartServer 创建 http.Server
func StartServer(deps *ServerDependencies) (*http.Server, func()) {
	cfg := config.Get()
	router, clean := setupRouter(deps)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, clean
}
