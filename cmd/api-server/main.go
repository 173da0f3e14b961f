// Package main API Server 入口
package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"court-admin/internal/apiserver/auth"
	"court-admin/internal/apiserver/server"
	"court-admin/internal/config"
	"court-admin/internal/shared/cache"
	cacheredis "court-admin/internal/shared/cache/redis"
	"court-admin/internal/shared/objstore"
	"court-admin/internal/shared/storage"
	"court-admin/internal/shared/storage/dbutil"
	"court-admin/internal/shared/storage/driver/postgres"
	"court-admin/internal/shared/storage/driver/sqlite"
	"court-admin/internal/shared/storage/mongostore"
	"court-admin/internal/shared/storage/repository"
	"court-admin/pkg/logging"
)

func main() {
	cfg := config.Load()

	logger := logging.Default("api-server")
	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// 初始化主存储
	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()
	log.Printf("Connected to %s storage", cfg.DBDriver)

	// 初始化 Redis（登录限流 + 横幅缓存，可选）
	var c cache.Cache
	if cfg.RedisEnabled {
		redisCache, err := cacheredis.NewStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisCache.Close()
		c = redisCache
		log.Println("Connected to Redis")
	} else {
		log.Println("Redis disabled, login throttling off")
	}

	// 初始化 MinIO（横幅图片）
	images, err := objstore.NewClient(objstore.Config{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		Bucket:    cfg.MinIOBucket,
		UseSSL:    cfg.MinIOUseSSL,
	})
	if err != nil {
		log.Fatalf("Failed to init object storage: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := images.EnsureBucket(ctx); err != nil {
		log.Fatalf("Failed to ensure bucket: %v", err)
	}

	// 管理员引导：username 不存在时用 ADMIN_PASSWORD 创建
	if err := auth.EnsureAdminUser(ctx, store, cfg.AdminUsername, cfg.AdminPassword, logger); err != nil {
		log.Fatalf("Admin bootstrap failed: %v", err)
	}

	h := server.NewHandler(store, c, images, cfg.Auth, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped")
}

// openStore 按配置的驱动打开主存储并完成迁移
func openStore(cfg *config.Config) (storage.PersistentStore, error) {
	if cfg.DBDriver == "mongo" {
		return mongostore.NewStore(cfg.MongoURI, cfg.MongoDB)
	}

	var db *sql.DB
	var dialect dbutil.Dialect
	var err error

	switch cfg.DBDriver {
	case "sqlite":
		db, err = sqlite.Open(cfg.SQLitePath)
		dialect = sqlite.NewDialect()
	default:
		db, err = postgres.Open(cfg.DatabaseURL)
		dialect = postgres.NewDialect()
	}
	if err != nil {
		return nil, err
	}
	if err := dialect.AutoMigrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return repository.NewStore(db, dialect), nil
}
