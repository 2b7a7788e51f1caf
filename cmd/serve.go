package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/authenx/evidence-hub/api/core"
	"github.com/authenx/evidence-hub/cache"
	"github.com/authenx/evidence-hub/config"
	"github.com/authenx/evidence-hub/database"
	assetsRepo "github.com/authenx/evidence-hub/database/repo/assets"
	documentsRepo "github.com/authenx/evidence-hub/database/repo/documents"
	"github.com/authenx/evidence-hub/internal/checklist"
	"github.com/authenx/evidence-hub/internal/evidence"
	"github.com/authenx/evidence-hub/internal/geocode"
	"github.com/authenx/evidence-hub/internal/status"
	"github.com/authenx/evidence-hub/internal/verify"
	"github.com/authenx/evidence-hub/storage"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start API server",
	Run: func(cmd *cobra.Command, args []string) {
		RunServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer() {
	config.InitConfig()
	cfg := config.Get()

	if err := os.MkdirAll("./data", os.ModePerm); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// 数据库
	db, err := database.NewDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to auto migrate database: %v", err)
	}

	// 存储
	store, err := storage.NewProvider(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage provider: %v", err)
	}
	log.Printf("[Storage] Using provider: %s", store.Name())

	// 缓存
	cacheProvider, err := cache.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize cache provider: %v", err)
	}

	// 仓库
	assets := assetsRepo.NewRepository(db)
	documents := documentsRepo.NewRepository(db)

	// 外部服务客户端
	verifier := verify.NewClient(cfg.VerifierURL, cfg.VerifierTimeout)
	geocoder := geocode.NewClient(cfg.GeocoderURL, cfg.GeocoderTimeout, cacheProvider, cfg.GeocoderCacheTTL)

	// 领域服务
	reconciler := status.NewReconciler(assets, documents, store)
	evidenceSvc := evidence.NewService(assets, store, verifier, geocoder, reconciler, cfg.PreviewMaxWidth, cfg.PreviewMaxHeight)
	checklistSvc := checklist.NewService(documents, reconciler)

	deps := &core.ServerDependencies{
		DB:         db,
		Cache:      cacheProvider,
		Store:      store,
		AssetsRepo: assets,
		Evidence:   evidenceSvc,
		Checklist:  checklistSvc,
		Reconciler: reconciler,
	}

	// 启动gin
	server, cleanup := core.StartServer(deps)
	go func() {
		log.Printf("Server started on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// 处理退出signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if cleanup != nil {
		cleanup()
		log.Println("Cleanup tasks finished.")
	}

	if err := cacheProvider.Close(); err != nil {
		log.Printf("Error closing cache provider: %v", err)
	}

	if err := database.CloseDB(db); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited successfully")
}
