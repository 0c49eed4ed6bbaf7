package main

import (
	"log"

	"github.com/dtales/backend/internal/config"
	"github.com/dtales/backend/internal/db"
	"github.com/dtales/backend/internal/handler"
	"github.com/dtales/backend/internal/router"
	"github.com/dtales/backend/internal/storage"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	gdb, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}()

	store := storage.NewS3Store(storage.Config{
		Endpoint:      cfg.StorageEndpoint,
		Region:        cfg.StorageRegion,
		Bucket:        cfg.StorageBucket,
		AccessKey:     cfg.StorageAccessKey,
		SecretKey:     cfg.StorageSecretKey,
		PublicBaseURL: cfg.StoragePublicBaseURL,
	})

	api := handler.NewAPI(gdb, store, cfg.AdminUsername, cfg.AdminPasswordHash)

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api, cfg.SessionSecret, cfg.AllowedOrigins)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
