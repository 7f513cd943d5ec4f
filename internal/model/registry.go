package model

import (
	"time"

	"gorm.io/datatypes"
)

// GameRegistry 去重注册表主表（同一场比赛多数据源去重后一条）
// canonical_game_id 为业务主键（日期+客队+主队+两位序号，如 2025-08-21_T_G_00）
type GameRegistry struct {
	CanonicalGameID string    `gorm:"column:canonical_game_id;primaryKey;type:varchar(64)"`
	CanonicalKey    string    `gorm:"column:canonical_key;type:varchar(64);uniqueIndex;not null"` // 自然键哈希，用于同场判定
	Fingerprint     string    `gorm:"column:fingerprint;type:varchar(64);not null"`               // 可变字段内容哈希，仅做变更检测，不参与身份判定
	DateISO         string    `gorm:"column:date_iso;type:varchar(10);index;not null"`
	HomeTeam        string    `gorm:"column:home_team;type:varchar(64);not null"`
	AwayTeam        string    `gorm:"column:away_team;type:varchar(64);not null"`
	Venue           string    `gorm:"column:venue;type:varchar(128)"`
	League          string    `gorm:"column:league;type:varchar(32)"`
	QualityScore    float64   `gorm:"column:quality_score;type:numeric(5,2);index;default:0"` // 0~100，由合并后记录算出
	SourceCount     int       `gorm:"column:source_count;type:int;default:1"`                 // 指向本记录的数据源数量（按provider_games实数对账）
	FirstSeenAt     time.Time `gorm:"column:first_seen_at;type:timestamp;not null"`
	LastUpdatedAt   time.Time `gorm:"column:last_updated_at;type:timestamp;not null"`
}

func (GameRegistry) TableName() string { return "game_registry" }

// ProviderGame 数据源比赛与注册表的映射，(provider_game_id, provider_source) 唯一
type ProviderGame struct {
	ID              uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	ProviderGameID  string         `gorm:"column:provider_game_id;type:varchar(64);not null;uniqueIndex:uq_provider_game"`
	ProviderSource  string         `gorm:"column:provider_source;type:varchar(32);not null;uniqueIndex:uq_provider_game;index"`
	CanonicalGameID string         `gorm:"column:canonical_game_id;type:varchar(64);not null;index"`
	ConfidenceScore float64        `gorm:"column:confidence_score;type:numeric(4,3);not null"` // 注册时SourceScore.reliability的快照
	RawData         datatypes.JSON `gorm:"column:raw_data;type:jsonb"`                         // 原始报文留档
	CreatedAt       time.Time      `gorm:"column:created_at;type:timestamp;not null"` // RegisterGame显式赋值，不依赖数据库默认值
}

func (ProviderGame) TableName() string { return "provider_games" }

// 质量问题类型
const (
	IssueConflict = "conflict"
	IssueMissing  = "missing"
	IssueInvalid  = "invalid"
)

// 质量问题严重度
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// QualityIssue 质量问题日志（只追加，不去重）
type QualityIssue struct {
	ID              uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	CanonicalGameID string     `gorm:"column:canonical_game_id;type:varchar(64);not null;index"`
	IssueType       string     `gorm:"column:issue_type;type:varchar(16);not null"` // conflict/missing/invalid
	Description     string     `gorm:"column:description;type:text"`
	Severity        string     `gorm:"column:severity;type:varchar(16);not null"` // low/medium/high/critical
	DetectedAt      time.Time  `gorm:"column:detected_at;type:timestamp;not null"`
	ResolvedAt      *time.Time `gorm:"column:resolved_at;type:timestamp"`
}

func (QualityIssue) TableName() string { return "quality_issues" }
