package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"GameSync/internal/adapter"
	_ "GameSync/internal/adapter/localfeed"
	_ "GameSync/internal/adapter/npbweb"
	"GameSync/internal/config"
	"GameSync/internal/repository"
	"GameSync/internal/service"
	"GameSync/internal/storage"

	"github.com/sirupsen/logrus"
)

// 单日批跑入口：gamesync -mode live|recent|archive [-date YYYY-MM-DD] [-dry-run] [-verbose]
func main() {
	mode := flag.String("mode", service.ModeLive, "运行模式：live（今天+昨天）/recent（最近三天）/archive（指定或随机历史日期）")
	date := flag.String("date", "", "指定日期YYYY-MM-DD（仅archive模式生效）")
	dryRun := flag.Bool("dry-run", false, "只算不写：不写库、不留档、不落快照、不写报告")
	verbose := flag.Bool("verbose", false, "输出详细进度")
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}

	dates, err := service.ResolveDates(*mode, *date, time.Now())
	if err != nil {
		log.Fatalf("解析目标日期失败: %v", err)
	}

	if err := run(cfg, log, dates, *mode, *dryRun, *verbose); err != nil {
		log.Errorf("摄取失败: %v", err)
		os.Exit(1)
	}
}

// run 把需要释放的资源都圈在这里，保证出错路径也能关掉数据库句柄
func run(cfg *config.Config, log *logrus.Logger, dates []string, mode string, dryRun, verbose bool) error {
	db, closeDB, err := repository.OpenDB(&cfg.Postgres, verbose)
	if err != nil {
		return err
	}
	defer closeDB()

	registry := repository.NewGameRegistryRepository(db)
	store := storage.NewSnapshotStore(cfg.Data.Dir, log)
	providers := adapter.NewProviderRegistry(cfg, log).Enabled(cfg.Ingest.EnabledProviders)
	if len(providers) == 0 {
		return fmt.Errorf("没有可用数据源（检查config.yaml的providers与ingest.enabled_providers）")
	}

	svc := service.NewIngestService(registry, store, providers, cfg, log)
	ctx := context.Background()
	for _, d := range dates {
		res := svc.IngestDay(ctx, d, mode, dryRun)
		fmt.Printf("%s: processed=%d conflicts=%d lowQuality=%d errors=%d\n",
			d, res.Processed, res.Conflicts, res.LowQuality, len(res.Errors))
		if verbose {
			for _, e := range res.Errors {
				fmt.Printf("  - %s\n", e)
			}
		}
	}
	return nil
}
