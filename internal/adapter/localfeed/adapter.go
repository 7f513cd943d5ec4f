package localfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"GameSync/internal/adapter"
	"GameSync/internal/config"
	"GameSync/internal/interfaces"
	"GameSync/internal/model"

	"github.com/sirupsen/logrus"
)

func init() {
	adapter.Register(model.ProviderLocalFeed, NewLocalFeedAdapter)
}

// Adapter 本地JSON目录源：feed_dir/<date>/*.json 一个文件一条记录。
// 给回放历史数据和第三方离线包用，也方便在没有外网的环境跑全流程
type Adapter struct {
	cfg    *config.ProviderConfig
	logger *logrus.Logger
}

func NewLocalFeedAdapter(cfg *config.ProviderConfig, logger *logrus.Logger) interfaces.GameProvider {
	return &Adapter{cfg: cfg, logger: logger}
}

func (a *Adapter) GetName() string {
	return string(model.ProviderLocalFeed)
}

func (a *Adapter) Reliability() float64 {
	if a.cfg.Reliability > 0 {
		return a.cfg.Reliability
	}
	return 0.85
}

func (a *Adapter) FetchGames(ctx context.Context, dateISO string) ([]*model.ProviderRecord, error) {
	if a.cfg.FeedDir == "" {
		return nil, fmt.Errorf("localfeed未配置feed_dir")
	}
	dir := filepath.Join(a.cfg.FeedDir, dateISO)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			// 当日无数据不算错
			return nil, nil
		}
		return nil, fmt.Errorf("读取feed目录失败: %w", err)
	}

	var records []*model.ProviderRecord
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			a.logger.WithError(err).WithField("file", path).Warn("读取feed文件失败，跳过")
			continue
		}
		var rec model.ProviderRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			a.logger.WithError(err).WithField("file", path).Warn("解析feed文件失败，跳过")
			continue
		}
		if rec.Meta == nil {
			a.logger.WithField("file", path).Warn("feed文件缺失meta，跳过")
			continue
		}
		if rec.ProviderGameID == "" {
			rec.ProviderGameID = rec.Meta.GameID
		}
		if rec.RawData == nil {
			rec.RawData = json.RawMessage(data)
		}
		records = append(records, &rec)
	}
	return records, nil
}
