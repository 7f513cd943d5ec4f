package main

import (
	"fmt"
	"os"

	"GameSync/internal/adapter"
	_ "GameSync/internal/adapter/localfeed"
	_ "GameSync/internal/adapter/npbweb"
	"GameSync/internal/api"
	"GameSync/internal/config"
	"GameSync/internal/repository"
	"GameSync/internal/service"
	"GameSync/internal/storage"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ops API入口：注册表统计/审计查询 + 手动触发摄取
func main() {
	log := logrus.New()
	log.SetLevel(logrus.InfoLevel)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}

	if err := run(cfg, log); err != nil {
		log.Errorf("服务退出: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	db, closeDB, err := repository.OpenDB(&cfg.Postgres, false)
	if err != nil {
		return err
	}
	defer closeDB()

	// 配置Gin运行模式（从配置读取：debug/release）
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.Default()

	// 注册pprof 方便调试和监测性能问题
	pprof.Register(r)

	// 注册表查询接口
	registryHandler := api.NewRegistryHandler(db, log)
	r.GET("/api/registry/stats", registryHandler.GetStats)
	r.GET("/api/registry/low-quality", registryHandler.GetLowQuality)
	r.GET("/api/registry/games", registryHandler.ListGames)
	r.GET("/api/registry/games/:canonical_id/providers", registryHandler.GetProviderGames)

	// 手动触发摄取
	registry := repository.NewGameRegistryRepository(db)
	store := storage.NewSnapshotStore(cfg.Data.Dir, log)
	providers := adapter.NewProviderRegistry(cfg, log).Enabled(cfg.Ingest.EnabledProviders)
	svc := service.NewIngestService(registry, store, providers, cfg, log)
	ingestHandler := api.NewIngestHandler(svc, log)
	r.POST("/api/ingest/:date", ingestHandler.IngestDateHandler)

	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	log.Infof("服务启动，端口：%d", port)
	return r.Run(fmt.Sprintf(":%d", port))
}
