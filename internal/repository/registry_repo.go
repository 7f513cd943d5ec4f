package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"GameSync/internal/canonical"
	"GameSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProviderGameRef 某条注册记录背后的一个数据源引用
type ProviderGameRef struct {
	ProviderGameID string  `json:"providerGameId"`
	ProviderSource string  `json:"providerSource"`
	Confidence     float64 `json:"confidence"`
}

// LowQualityGame 低质量比赛条目（审计/告警用）
type LowQualityGame struct {
	CanonicalGameID string  `json:"canonicalGameId"`
	QualityScore    float64 `json:"qualityScore"`
	IssueCount      int     `json:"issueCount"`
}

// RegistryStats 注册表聚合统计
type RegistryStats struct {
	TotalGames         int64   `json:"totalGames"`
	TotalProviderLinks int64   `json:"totalProviderLinks"`
	AverageQuality     float64 `json:"averageQuality"`
	DuplicateRate      float64 `json:"duplicateRate"` // (links-games)/links*100，一源一场时为0
}

// GameRegistryRepository 去重注册表仓储
type GameRegistryRepository interface {
	// RegisterGame 注册一条数据源比赛记录，解析到canonical id并维护映射，返回canonical id
	RegisterGame(ctx context.Context, meta *model.GameMeta, providerGameID, providerSource string, score model.SourceScore, rawData interface{}) (string, error)
	// GetProviderGameIDs 列出指向某注册记录的全部数据源引用，按confidence降序（合并优先级用）
	GetProviderGameIDs(ctx context.Context, canonicalID string) ([]ProviderGameRef, error)
	// LogQualityIssue 追加一条质量问题（只追加，不去重）
	LogQualityIssue(ctx context.Context, canonicalID, issueType, description, severity string) error
	// GetLowQualityGames 列出质量分低于阈值的比赛及其问题数
	GetLowQualityGames(ctx context.Context, threshold float64) ([]LowQualityGame, error)
	// GetStats 注册表聚合统计
	GetStats(ctx context.Context) (*RegistryStats, error)
	// GetGamesByDateRange 按日期区间（含两端）扫描注册记录
	GetGamesByDateRange(ctx context.Context, startISO, endISO string) ([]*model.GameRegistry, error)
	// UpdateQualityScore 摄取器按合并后记录回写质量分
	UpdateQualityScore(ctx context.Context, canonicalID string, score float64) error
}

type gameRegistryRepository struct {
	db *gorm.DB
}

func NewGameRegistryRepository(db *gorm.DB) GameRegistryRepository {
	return &gameRegistryRepository{db: db}
}

// RegisterGame 同场判定走canonical_key；查到则刷新指纹与时间戳（质量分不动，
// 等摄取器按合并结果重算），查不到则铸造新canonical id。两个分支最后都会
// upsert (provider_game_id, provider_source) 映射并按映射实数对账source_count，
// 所以同一对键重复注册是幂等的，不会虚增计数。
// 整个读改写放在一个事务里，canonical_key唯一索引兜底并发下的先查后插竞态。
func (r *gameRegistryRepository) RegisterGame(ctx context.Context, meta *model.GameMeta, providerGameID, providerSource string, score model.SourceScore, rawData interface{}) (string, error) {
	if meta == nil {
		return "", fmt.Errorf("注册失败: meta为空")
	}
	key := canonical.BuildKey(meta)
	fp := canonical.Fingerprint(meta)
	dateISO := canonical.DateOnly(meta.DateISO)
	home := canonical.TeamCode(meta.Home.ID)
	away := canonical.TeamCode(meta.Away.ID)
	now := time.Now()

	var canonicalID string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.GameRegistry
		err := tx.Where("canonical_key = ?", key).First(&existing).Error
		switch {
		case err == nil:
			// 已有记录：只刷新变更检测相关字段
			canonicalID = existing.CanonicalGameID
			if err := tx.Model(&model.GameRegistry{}).
				Where("canonical_game_id = ?", canonicalID).
				Updates(map[string]interface{}{
					"fingerprint":     fp,
					"last_updated_at": now,
				}).Error; err != nil {
				return fmt.Errorf("刷新注册记录失败: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// 新记录：序号 = 已有同日同对阵记录数，补零到两位
			var seq int64
			if err := tx.Model(&model.GameRegistry{}).
				Where("date_iso = ? AND home_team = ? AND away_team = ?", dateISO, home, away).
				Count(&seq).Error; err != nil {
				return fmt.Errorf("统计同对阵记录失败: %w", err)
			}
			canonicalID = fmt.Sprintf("%s_%s_%s_%02d", dateISO, away, home, seq)
			rec := &model.GameRegistry{
				CanonicalGameID: canonicalID,
				CanonicalKey:    key,
				Fingerprint:     fp,
				DateISO:         dateISO,
				HomeTeam:        home,
				AwayTeam:        away,
				Venue:           meta.Venue,
				League:          meta.League,
				QualityScore:    score.Reliability * 100, // 首见时的初始分，后续由合并结果覆盖
				SourceCount:     1,
				FirstSeenAt:     now,
				LastUpdatedAt:   now,
			}
			if err := tx.Create(rec).Error; err != nil {
				return fmt.Errorf("创建注册记录失败: %w", err)
			}
		default:
			return fmt.Errorf("查询注册记录失败: %w", err)
		}

		// upsert数据源映射：冲突时只刷新confidence与原始报文，不改指向
		rawJSON, err := json.Marshal(rawData)
		if err != nil {
			rawJSON = []byte("null")
		}
		link := &model.ProviderGame{
			ProviderGameID:  providerGameID,
			ProviderSource:  providerSource,
			CanonicalGameID: canonicalID,
			ConfidenceScore: score.Reliability,
			RawData:         rawJSON,
			CreatedAt:       now,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_game_id"}, {Name: "provider_source"}},
			DoUpdates: clause.AssignmentColumns([]string{"confidence_score", "raw_data"}),
		}).Create(link).Error; err != nil {
			return fmt.Errorf("upsert数据源映射失败: %w", err)
		}

		// source_count按映射实数对账（重复注册/重跑不会虚增）
		var linkCount int64
		if err := tx.Model(&model.ProviderGame{}).
			Where("canonical_game_id = ?", canonicalID).
			Count(&linkCount).Error; err != nil {
			return fmt.Errorf("统计数据源映射失败: %w", err)
		}
		return tx.Model(&model.GameRegistry{}).
			Where("canonical_game_id = ?", canonicalID).
			Update("source_count", linkCount).Error
	})
	if err != nil {
		return "", err
	}
	return canonicalID, nil
}

func (r *gameRegistryRepository) GetProviderGameIDs(ctx context.Context, canonicalID string) ([]ProviderGameRef, error) {
	var links []*model.ProviderGame
	if err := r.db.WithContext(ctx).
		Where("canonical_game_id = ?", canonicalID).
		Order("confidence_score DESC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	refs := make([]ProviderGameRef, 0, len(links))
	for _, l := range links {
		refs = append(refs, ProviderGameRef{
			ProviderGameID: l.ProviderGameID,
			ProviderSource: l.ProviderSource,
			Confidence:     l.ConfidenceScore,
		})
	}
	return refs, nil
}

func (r *gameRegistryRepository) LogQualityIssue(ctx context.Context, canonicalID, issueType, description, severity string) error {
	issue := &model.QualityIssue{
		CanonicalGameID: canonicalID,
		IssueType:       issueType,
		Description:     description,
		Severity:        severity,
		DetectedAt:      time.Now(),
	}
	return r.db.WithContext(ctx).Create(issue).Error
}

func (r *gameRegistryRepository) GetLowQualityGames(ctx context.Context, threshold float64) ([]LowQualityGame, error) {
	var rows []LowQualityGame
	err := r.db.WithContext(ctx).
		Table("game_registry").
		Select("game_registry.canonical_game_id AS canonical_game_id, game_registry.quality_score AS quality_score, COUNT(quality_issues.id) AS issue_count").
		Joins("LEFT JOIN quality_issues ON quality_issues.canonical_game_id = game_registry.canonical_game_id").
		Where("game_registry.quality_score < ?", threshold).
		Group("game_registry.canonical_game_id, game_registry.quality_score").
		Order("game_registry.quality_score ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *gameRegistryRepository) GetStats(ctx context.Context) (*RegistryStats, error) {
	db := r.db.WithContext(ctx)
	stats := &RegistryStats{}
	if err := db.Model(&model.GameRegistry{}).Count(&stats.TotalGames).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.ProviderGame{}).Count(&stats.TotalProviderLinks).Error; err != nil {
		return nil, err
	}
	if stats.TotalGames > 0 {
		var avg sql.NullFloat64
		if err := db.Model(&model.GameRegistry{}).
			Select("AVG(quality_score)").Scan(&avg).Error; err != nil {
			return nil, err
		}
		if avg.Valid {
			stats.AverageQuality = avg.Float64
		}
	}
	// 一源一场时为0；同一场被更多源指向时单调上升
	if stats.TotalProviderLinks > 0 {
		stats.DuplicateRate = float64(stats.TotalProviderLinks-stats.TotalGames) / float64(stats.TotalProviderLinks) * 100
	}
	return stats, nil
}

func (r *gameRegistryRepository) GetGamesByDateRange(ctx context.Context, startISO, endISO string) ([]*model.GameRegistry, error) {
	var games []*model.GameRegistry
	if err := r.db.WithContext(ctx).
		Where("date_iso >= ? AND date_iso <= ?", startISO, endISO).
		Order("date_iso ASC, canonical_game_id ASC").
		Find(&games).Error; err != nil {
		return nil, err
	}
	return games, nil
}

func (r *gameRegistryRepository) UpdateQualityScore(ctx context.Context, canonicalID string, score float64) error {
	return r.db.WithContext(ctx).Model(&model.GameRegistry{}).
		Where("canonical_game_id = ?", canonicalID).
		Updates(map[string]interface{}{
			"quality_score":   score,
			"last_updated_at": time.Now(),
		}).Error
}
