package npbweb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"GameSync/internal/adapter"
	"GameSync/internal/config"
	"GameSync/internal/interfaces"
	"GameSync/internal/model"
	"GameSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

func init() {
	adapter.Register(model.ProviderNPBWeb, NewNPBWebAdapter)
}

// Adapter 官网日程/比分JSON源
type Adapter struct {
	cfg        *config.ProviderConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewNPBWebAdapter(cfg *config.ProviderConfig, logger *logrus.Logger) interfaces.GameProvider {
	return &Adapter{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

// GetName ========== 实现GameProvider接口 ==========
func (a *Adapter) GetName() string {
	return string(model.ProviderNPBWeb)
}

func (a *Adapter) Reliability() float64 {
	if a.cfg.Reliability > 0 {
		return a.cfg.Reliability
	}
	return 0.95
}

func (a *Adapter) FetchGames(ctx context.Context, dateISO string) ([]*model.ProviderRecord, error) {
	url := fmt.Sprintf("%s/api/games?date=%s", a.cfg.BaseURL, dateISO)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("获取比赛列表失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("比赛列表接口返回%d", resp.StatusCode)
	}

	var games []npbGame
	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		return nil, fmt.Errorf("解析比赛列表失败: %w", err)
	}

	// 单条坏数据只跳过，不让整天抓取失败
	var records []*model.ProviderRecord
	for _, g := range games {
		if g.ID == "" || g.Home.Code == "" || g.Away.Code == "" {
			a.logger.WithField("game_id", g.ID).Warn("比赛记录缺失标识字段，跳过")
			continue
		}
		records = append(records, a.convert(g))
	}
	return records, nil
}

func (a *Adapter) convert(g npbGame) *model.ProviderRecord {
	meta := &model.GameMeta{
		GameID:    g.ID,
		DateISO:   g.Date,
		League:    g.League,
		Status:    mapStatus(g.Status),
		Venue:     g.Venue,
		StartTime: g.StartTime,
		Home:      model.TeamRef{ID: g.Home.Code, Name: g.Home.Name},
		Away:      model.TeamRef{ID: g.Away.Code, Name: g.Away.Name},
	}
	if g.Score != nil {
		hs, as := g.Score.Home, g.Score.Away
		meta.HomeScore, meta.AwayScore = &hs, &as
	}

	var box *model.BoxScore
	if g.BoxScore != nil {
		box = &model.BoxScore{
			Home: convertSide(g.BoxScore.Home),
			Away: convertSide(g.BoxScore.Away),
		}
	}
	return &model.ProviderRecord{
		ProviderGameID: g.ID,
		Meta:           meta,
		BoxScore:       box,
		RawData:        g,
	}
}

func convertSide(s npbBoxSide) model.TeamBoxScore {
	side := model.TeamBoxScore{Runs: s.Runs, Hits: s.Hits, Errors: s.Errors}
	for _, b := range s.Batting {
		side.Batters = append(side.Batters, model.BatterLine{
			Name: b.Name, Position: b.Position,
			AtBats: b.AB, Hits: b.H, Runs: b.R, RBI: b.RBI, HomeRuns: b.HR,
		})
	}
	for _, p := range s.Pitching {
		side.Pitchers = append(side.Pitchers, model.PitcherLine{
			Name: p.Name, Innings: p.IP, Strikeouts: p.SO, Walks: p.BB, EarnedRuns: p.ER,
		})
	}
	return side
}

func mapStatus(s string) string {
	switch s {
	case "before", "scheduled":
		return model.StatusScheduled
	case "ongoing", "live":
		return model.StatusLive
	case "result", "finished", "final":
		return model.StatusFinished
	default:
		return model.StatusScheduled
	}
}
