package interfaces

import (
	"context"

	"GameSync/internal/model"
)

// GameProvider 所有数据源必须实现的核心接口
type GameProvider interface {
	GetName() string                                                                    // 数据源名称
	Reliability() float64                                                               // 源级信任权重 0.0~1.0
	FetchGames(ctx context.Context, dateISO string) ([]*model.ProviderRecord, error)    // 抓取某日全部比赛
}

// SourcedRecord 归到同一注册记录的一条数据及其来源信息（合并输入）
type SourcedRecord struct {
	Provider    string                // 数据源名称
	Reliability float64               // 该源的信任权重
	Record      *model.ProviderRecord // 该源的原始记录
}

// MergeStrategy 合并策略接口。目前实现是"可靠度排序+缺字段补齐"，
// 更复杂的字段级仲裁（多数表决/按新鲜度加权）以后换实现即可，不动摄取流程
type MergeStrategy interface {
	Merge(group []*SourcedRecord) (*model.GameMeta, *model.BoxScore)
}
