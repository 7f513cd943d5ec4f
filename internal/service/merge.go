package service

import (
	"sort"

	"GameSync/internal/interfaces"
	"GameSync/internal/model"
)

// ReliabilityMerge 可靠度优先合并策略：
// 按源可靠度降序排，最高的一家作为基底（meta和BoxScore整体采用），
// 其余低可靠度源只用来补齐基底缺失的顶层字段（venue/startTime），
// 绝不覆盖基底已有值。
// BoxScore明确不做跨源字段级合并——结构太复杂，错并比缺失更糟，
// 低可靠度源的BoxScore直接弃用。
type ReliabilityMerge struct{}

func NewReliabilityMerge() interfaces.MergeStrategy {
	return &ReliabilityMerge{}
}

func (m *ReliabilityMerge) Merge(group []*interfaces.SourcedRecord) (*model.GameMeta, *model.BoxScore) {
	if len(group) == 0 {
		return nil, nil
	}

	// 稳定排序：可靠度相同保持注册顺序
	sorted := make([]*interfaces.SourcedRecord, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Reliability > sorted[j].Reliability
	})

	base := sorted[0].Record
	meta := cloneMeta(base.Meta)
	box := base.BoxScore
	if meta == nil {
		return nil, box
	}

	// 单源直通，没有可补的
	if len(sorted) == 1 {
		return meta, box
	}

	for _, s := range sorted[1:] {
		if s.Record == nil || s.Record.Meta == nil {
			continue
		}
		sm := s.Record.Meta
		if meta.Venue == "" && sm.Venue != "" {
			meta.Venue = sm.Venue
		}
		if meta.StartTime == "" && sm.StartTime != "" {
			meta.StartTime = sm.StartTime
		}
	}
	return meta, box
}

// cloneMeta 拷贝一份meta再补齐，避免改到数据源记录本身
func cloneMeta(src *model.GameMeta) *model.GameMeta {
	if src == nil {
		return nil
	}
	dst := *src
	if src.HomeScore != nil {
		v := *src.HomeScore
		dst.HomeScore = &v
	}
	if src.AwayScore != nil {
		v := *src.AwayScore
		dst.AwayScore = &v
	}
	return &dst
}
