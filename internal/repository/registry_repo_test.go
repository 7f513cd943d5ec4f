package repository

import (
	"context"
	"testing"
	"time"

	"GameSync/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 仓储测试跑在内存sqlite上，表结构与线上一致（AutoMigrate同一套模型）

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.GameRegistry{},
		&model.ProviderGame{},
		&model.QualityIssue{},
	))
	return db
}

// 模型标签必须在Postgres和sqlite上都能建表（default:now()这类方言写法会让sqlite直接报语法错）
func TestAutoMigrate_PortableAcrossDialects(t *testing.T) {
	models := map[string]interface{}{
		"game_registry":  &model.GameRegistry{},
		"provider_games": &model.ProviderGame{},
		"quality_issues": &model.QualityIssue{},
	}
	for name, m := range models {
		t.Run(name, func(t *testing.T) {
			db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
				Logger: logger.Default.LogMode(logger.Silent),
			})
			require.NoError(t, err)
			assert.NoError(t, db.AutoMigrate(m))
		})
	}
}

func giantsTigers() *model.GameMeta {
	return &model.GameMeta{
		GameID:  "npb-001",
		DateISO: "2025-08-21",
		League:  "central",
		Status:  model.StatusScheduled,
		Venue:   "東京ドーム",
		Home:    model.TeamRef{ID: "G", Name: "ジャイアンツ"},
		Away:    model.TeamRef{ID: "T", Name: "タイガース"},
	}
}

func score(source string, rel float64) model.SourceScore {
	return model.SourceScore{Source: source, Reliability: rel, Timestamp: time.Now()}
}

func TestRegisterGame_New(t *testing.T) {
	repo := NewGameRegistryRepository(setupDB(t))
	ctx := context.Background()

	id, err := repo.RegisterGame(ctx, giantsTigers(), "npb-001", "npbweb", score("npbweb", 0.95), map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, "2025-08-21_T_G_00", id, "canonical id = 日期_客队_主队_两位序号")

	games, err := repo.GetGamesByDateRange(ctx, "2025-08-21", "2025-08-21")
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, 1, games[0].SourceCount)
	assert.Equal(t, 95.0, games[0].QualityScore, "首见时初始分 = reliability×100")
	assert.NotEmpty(t, games[0].Fingerprint)
	assert.False(t, games[0].FirstSeenAt.IsZero())
}

func TestRegisterGame_Idempotent(t *testing.T) {
	repo := NewGameRegistryRepository(setupDB(t))
	ctx := context.Background()

	id1, err := repo.RegisterGame(ctx, giantsTigers(), "npb-001", "npbweb", score("npbweb", 0.95), nil)
	require.NoError(t, err)
	// 同一对 (provider_game_id, provider_source) 再注册：同一个canonical id，不产生第二条映射
	id2, err := repo.RegisterGame(ctx, giantsTigers(), "npb-001", "npbweb", score("npbweb", 0.95), nil)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	refs, err := repo.GetProviderGameIDs(ctx, id1)
	require.NoError(t, err)
	assert.Len(t, refs, 1)

	games, err := repo.GetGamesByDateRange(ctx, "2025-08-21", "2025-08-21")
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, 1, games[0].SourceCount, "重复注册不虚增source_count")
}

func TestRegisterGame_TwoSourcesSameGame(t *testing.T) {
	repo := NewGameRegistryRepository(setupDB(t))
	ctx := context.Background()

	id1, err := repo.RegisterGame(ctx, giantsTigers(), "npb-001", "npbweb", score("npbweb", 0.95), nil)
	require.NoError(t, err)
	other := giantsTigers()
	other.GameID = "feed-77"
	other.Venue = "" // 另一家缺球场，不影响同场判定
	id2, err := repo.RegisterGame(ctx, other, "feed-77", "localfeed", score("localfeed", 0.85), nil)
	require.NoError(t, err)
	assert.Equal(t, id1, id2, "同日同对阵归并为同一条注册记录")

	games, err := repo.GetGamesByDateRange(ctx, "2025-08-21", "2025-08-21")
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, 2, games[0].SourceCount)

	// 映射按confidence降序
	refs, err := repo.GetProviderGameIDs(ctx, id1)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "npbweb", refs[0].ProviderSource)
	assert.Equal(t, 0.95, refs[0].Confidence)
	assert.Equal(t, "localfeed", refs[1].ProviderSource)
}

func TestRegisterGame_SwappedHomeAwayIsDifferentGame(t *testing.T) {
	repo := NewGameRegistryRepository(setupDB(t))
	ctx := context.Background()

	id1, err := repo.RegisterGame(ctx, giantsTigers(), "a", "npbweb", score("npbweb", 0.95), nil)
	require.NoError(t, err)
	swapped := giantsTigers()
	swapped.Home, swapped.Away = swapped.Away, swapped.Home
	id2, err := repo.RegisterGame(ctx, swapped, "b", "npbweb", score("npbweb", 0.95), nil)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2, "主客互换按设计是两场不同比赛")

	games, err := repo.GetGamesByDateRange(ctx, "2025-08-21", "2025-08-21")
	require.NoError(t, err)
	assert.Len(t, games, 2)
}

func TestGetStats(t *testing.T) {
	repo := NewGameRegistryRepository(setupDB(t))
	ctx := context.Background()

	// 空表
	stats, err := repo.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalGames)
	assert.Equal(t, 0.0, stats.DuplicateRate)

	// 一源一场：duplicateRate为0
	_, err = repo.RegisterGame(ctx, giantsTigers(), "npb-001", "npbweb", score("npbweb", 0.95), nil)
	require.NoError(t, err)
	stats, err = repo.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalGames)
	assert.Equal(t, int64(1), stats.TotalProviderLinks)
	assert.Equal(t, 0.0, stats.DuplicateRate)
	assert.Equal(t, 95.0, stats.AverageQuality)

	// 同一场再挂一个源：duplicateRate单调上升
	other := giantsTigers()
	other.GameID = "feed-77"
	_, err = repo.RegisterGame(ctx, other, "feed-77", "localfeed", score("localfeed", 0.85), nil)
	require.NoError(t, err)
	stats, err = repo.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalGames)
	assert.Equal(t, int64(2), stats.TotalProviderLinks)
	assert.Equal(t, 50.0, stats.DuplicateRate, "(2-1)/2×100")
}

func TestQualityIssuesAndLowQuality(t *testing.T) {
	repo := NewGameRegistryRepository(setupDB(t))
	ctx := context.Background()

	id, err := repo.RegisterGame(ctx, giantsTigers(), "npb-001", "npbweb", score("npbweb", 0.4), nil)
	require.NoError(t, err)

	require.NoError(t, repo.LogQualityIssue(ctx, id, model.IssueMissing, "缺失开赛时间", model.SeverityLow))
	require.NoError(t, repo.LogQualityIssue(ctx, id, model.IssueInvalid, "状态为finished但没有比分", model.SeverityMedium))
	// 只追加不去重
	require.NoError(t, repo.LogQualityIssue(ctx, id, model.IssueInvalid, "状态为finished但没有比分", model.SeverityMedium))

	rows, err := repo.GetLowQualityGames(ctx, 70)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, id, rows[0].CanonicalGameID)
	assert.Equal(t, 40.0, rows[0].QualityScore)
	assert.Equal(t, 3, rows[0].IssueCount)

	// 阈值以下才出现
	rows, err = repo.GetLowQualityGames(ctx, 30)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUpdateQualityScore(t *testing.T) {
	repo := NewGameRegistryRepository(setupDB(t))
	ctx := context.Background()

	id, err := repo.RegisterGame(ctx, giantsTigers(), "npb-001", "npbweb", score("npbweb", 0.95), nil)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateQualityScore(ctx, id, 62.5))

	games, err := repo.GetGamesByDateRange(ctx, "2025-08-21", "2025-08-21")
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, 62.5, games[0].QualityScore)
}

func TestGetGamesByDateRange(t *testing.T) {
	repo := NewGameRegistryRepository(setupDB(t))
	ctx := context.Background()

	for _, d := range []string{"2025-08-19", "2025-08-20", "2025-08-21"} {
		m := giantsTigers()
		m.DateISO = d
		m.GameID = "npb-" + d
		_, err := repo.RegisterGame(ctx, m, m.GameID, "npbweb", score("npbweb", 0.95), nil)
		require.NoError(t, err)
	}

	games, err := repo.GetGamesByDateRange(ctx, "2025-08-20", "2025-08-21")
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "2025-08-20", games[0].DateISO, "按日期升序")
	assert.Equal(t, "2025-08-21", games[1].DateISO)
}
