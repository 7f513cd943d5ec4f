package model

import (
	"time"
)

// ProviderType 数据源类型枚举
type ProviderType string

const (
	ProviderNPBWeb    ProviderType = "npbweb"    // 官网日程/比分JSON源
	ProviderLocalFeed ProviderType = "localfeed" // 本地JSON目录源（回放/备份）
)

// 赛事状态枚举（各源状态统一映射到这三种）
const (
	StatusScheduled = "scheduled"
	StatusLive      = "live"
	StatusFinished  = "finished"
)

// TeamRef 球队标识（id为短代码，如 G / T / C）
type TeamRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GameMeta 统一的比赛元数据模型（抹平各数据源差异）
// 一条GameMeta是"某一个数据源眼中的某一场比赛"，不是最终结论
type GameMeta struct {
	GameID    string  `json:"gameId"`              // 源内部比赛ID
	DateISO   string  `json:"date"`                // 比赛日期 YYYY-MM-DD（只取日期，不含时间）
	League    string  `json:"league"`              // 联盟（central/pacific/interleague）
	Status    string  `json:"status"`              // scheduled/live/finished
	Venue     string  `json:"venue,omitempty"`     // 球场（可缺失）
	StartTime string  `json:"startTime,omitempty"` // 开赛时间 HH:MM（可缺失）
	Home      TeamRef `json:"home"`                // 主队
	Away      TeamRef `json:"away"`                // 客队
	HomeScore *int    `json:"homeScore,omitempty"` // 主队得分（未开赛为nil）
	AwayScore *int    `json:"awayScore,omitempty"` // 客队得分
}

// BatterLine 打者单行数据
type BatterLine struct {
	Name     string `json:"name"`
	Position string `json:"position,omitempty"`
	AtBats   int    `json:"atBats"`
	Hits     int    `json:"hits"`
	Runs     int    `json:"runs"`
	RBI      int    `json:"rbi"`
	HomeRuns int    `json:"homeRuns"`
}

// PitcherLine 投手单行数据
type PitcherLine struct {
	Name       string  `json:"name"`
	Innings    float64 `json:"innings"`
	Strikeouts int     `json:"strikeouts"`
	Walks      int     `json:"walks"`
	EarnedRuns int     `json:"earnedRuns"`
}

// TeamBoxScore 单侧Box Score（顶层RHE + 球员明细）
type TeamBoxScore struct {
	Runs     int           `json:"runs"`
	Hits     int           `json:"hits"`
	Errors   int           `json:"errors"`
	Batters  []BatterLine  `json:"batters,omitempty"`
	Pitchers []PitcherLine `json:"pitchers,omitempty"`
}

// BoxScore 整场Box Score。合并逻辑只看顶层RHE，
// 球员明细结构太复杂，不做跨源字段级合并（见 service.ReliabilityMerge）
type BoxScore struct {
	Home TeamBoxScore `json:"home"`
	Away TeamBoxScore `json:"away"`
}

// SourceScore 数据源在注册时自报的可信度信息（由调用方提供，注册表不推导）
type SourceScore struct {
	Source      string    `json:"source"`              // 数据源名称
	Reliability float64   `json:"reliability"`         // 源级信任权重 0.0~1.0
	Timestamp   time.Time `json:"timestamp"`           // 抓取时间
	Conflicts   []string  `json:"conflicts,omitempty"` // 已知冲突列表
}

// ProviderRecord 数据源抓取到的一条原始比赛记录
type ProviderRecord struct {
	ProviderGameID string      `json:"providerGameId"` // 源内部比赛ID
	Meta           *GameMeta   `json:"meta"`
	BoxScore       *BoxScore   `json:"boxScore,omitempty"`
	RawData        interface{} `json:"rawData,omitempty"` // 原始报文（留档审计用）
}
