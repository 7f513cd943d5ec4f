package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"GameSync/internal/canonical"
	"GameSync/internal/config"
	"GameSync/internal/interfaces"
	"GameSync/internal/model"
	"GameSync/internal/repository"
	"GameSync/internal/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// IngestService 单日摄取编排：抓取→留档→注册→分组合并→校验评分→落盘→报告。
// 抓取各源之间并发互不依赖；注册表写入全部走同一条串行路径，
// 先查后插的竞态由canonical_key唯一索引兜底（见repository.RegisterGame）。
type IngestService struct {
	registry  repository.GameRegistryRepository
	store     *storage.SnapshotStore
	providers []interfaces.GameProvider
	merge     interfaces.MergeStrategy
	cfg       *config.Config
	logger    *logrus.Logger
}

func NewIngestService(
	registry repository.GameRegistryRepository,
	store *storage.SnapshotStore,
	providers []interfaces.GameProvider,
	cfg *config.Config,
	logger *logrus.Logger,
) *IngestService {
	return &IngestService{
		registry:  registry,
		store:     store,
		providers: providers,
		merge:     NewReliabilityMerge(),
		cfg:       cfg,
		logger:    logger,
	}
}

// IngestResult 单日摄取结果
type IngestResult struct {
	Date       string   `json:"date"`
	Processed  int      `json:"processed"`  // 成功合并落盘的注册记录数
	Conflicts  int      `json:"conflicts"`  // 多源组数（无论合并有没有实际改字段）
	LowQuality int      `json:"lowQuality"` // 质量分低于阈值的记录数
	Errors     []string `json:"errors"`
}

// fetchOutcome 单个数据源的抓取结果
type fetchOutcome struct {
	provider interfaces.GameProvider
	records  []*model.ProviderRecord
	err      error
}

// IngestDay 摄取一天。任何顶层失败都会被收进Errors，运行报告照常落盘
// （dry-run除外：dry-run不写任何东西——不写库、不留档、不落快照、不写报告）。
func (s *IngestService) IngestDay(ctx context.Context, dateISO, mode string, dryRun bool) *IngestResult {
	res := &IngestResult{Date: dateISO, Errors: []string{}}
	s.logger.WithFields(logrus.Fields{
		"date":    dateISO,
		"mode":    mode,
		"dry_run": dryRun,
	}).Info("摄取开始")

	if err := s.run(ctx, dateISO, dryRun, res); err != nil {
		// 致命错误（如注册表不可用）：记一条，继续写报告
		res.Errors = append(res.Errors, fmt.Sprintf("致命错误: %v", err))
		s.logger.WithError(err).Error("摄取顶层失败")
	}

	if !dryRun {
		rep := &storage.RunReport{
			RunID:      uuid.NewString(),
			Date:       dateISO,
			Mode:       mode,
			Timestamp:  time.Now(),
			Processed:  res.Processed,
			Conflicts:  res.Conflicts,
			LowQuality: res.LowQuality,
			Errors:     res.Errors,
		}
		if stats, err := s.registry.GetStats(ctx); err == nil {
			rep.Stats = stats
		}
		if err := s.store.AppendRunReport(dateISO, rep); err != nil {
			s.logger.WithError(err).Warn("写运行报告失败")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"date":        dateISO,
		"processed":   res.Processed,
		"conflicts":   res.Conflicts,
		"low_quality": res.LowQuality,
		"errors":      len(res.Errors),
	}).Info("摄取完成")
	return res
}

func (s *IngestService) run(ctx context.Context, dateISO string, dryRun bool, res *IngestResult) error {
	// 1. 并发抓取各数据源（互相没有数据依赖，单个源挂掉不影响其他源）
	outcomes := s.fetchAll(ctx, dateISO)
	for _, o := range outcomes {
		if o.err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s抓取失败: %v", o.provider.GetName(), o.err))
			s.logger.WithError(o.err).WithField("provider", o.provider.GetName()).Warn("数据源抓取失败")
		}
	}

	// 2. 留档：合并逻辑跑之前先把原始记录写进staging区，失败忽略（非关键路径）
	if !dryRun {
		for _, o := range outcomes {
			for _, rec := range o.records {
				if err := s.store.Stage(o.provider.GetName(), dateISO, rec); err != nil {
					s.logger.WithError(err).WithField("provider", o.provider.GetName()).Warn("staging留档失败")
				}
			}
		}
	}

	// 3. 注册：逐条过注册表，按canonical id分组。
	// 注册表整体不可用（条条都失败）按致命错误处理，不逐条刷屏
	groups, err := s.register(ctx, outcomes, dryRun, res)
	if err != nil {
		return err
	}

	// 4~6. 逐组合并、校验评分、落盘。单组失败只跳过该组
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := s.processGroup(ctx, id, groups[id], dryRun, res); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: 合并落盘失败: %v", id, err))
			s.logger.WithError(err).WithField("canonical_id", id).Warn("该组处理失败，跳过")
			continue
		}
		res.Processed++
	}
	return nil
}

// fetchAll 并发抓取全部数据源，按下标写结果，不需要加锁
func (s *IngestService) fetchAll(ctx context.Context, dateISO string) []fetchOutcome {
	outcomes := make([]fetchOutcome, len(s.providers))
	var wg sync.WaitGroup
	for i, p := range s.providers {
		wg.Add(1)
		go func(i int, p interfaces.GameProvider) {
			defer wg.Done()
			records, err := p.FetchGames(ctx, dateISO)
			outcomes[i] = fetchOutcome{provider: p, records: records, err: err}
		}(i, p)
	}
	wg.Wait()
	return outcomes
}

// register 逐条注册并按canonical id分组。
// dry-run不碰数据库，直接用自然键要素在本地分组（id没有序号段）。
// 部分失败只影响失败的那几条；全部失败说明注册表本身不可用，返回致命错误
func (s *IngestService) register(ctx context.Context, outcomes []fetchOutcome, dryRun bool, res *IngestResult) (map[string][]*interfaces.SourcedRecord, error) {
	groups := make(map[string][]*interfaces.SourcedRecord)
	attempted := 0
	var regErrs []string
	for _, o := range outcomes {
		name := o.provider.GetName()
		rel := o.provider.Reliability()
		for _, rec := range o.records {
			if rec == nil || rec.Meta == nil {
				continue
			}
			var id string
			if dryRun {
				id = fmt.Sprintf("%s_%s_%s",
					canonical.DateOnly(rec.Meta.DateISO),
					canonical.TeamCode(rec.Meta.Away.ID),
					canonical.TeamCode(rec.Meta.Home.ID))
			} else {
				attempted++
				var err error
				id, err = s.registry.RegisterGame(ctx, rec.Meta, rec.ProviderGameID, name, model.SourceScore{
					Source:      name,
					Reliability: rel,
					Timestamp:   time.Now(),
				}, rec.RawData)
				if err != nil {
					regErrs = append(regErrs, fmt.Sprintf("%s注册%s失败: %v", name, rec.ProviderGameID, err))
					continue
				}
			}
			groups[id] = append(groups[id], &interfaces.SourcedRecord{
				Provider:    name,
				Reliability: rel,
				Record:      rec,
			})
		}
	}
	if attempted > 0 && len(regErrs) == attempted {
		return nil, fmt.Errorf("注册表不可用: %s", regErrs[0])
	}
	res.Errors = append(res.Errors, regErrs...)
	return groups, nil
}

// processGroup 合并一组同场记录，校验评分后落盘
func (s *IngestService) processGroup(ctx context.Context, canonicalID string, group []*interfaces.SourcedRecord, dryRun bool, res *IngestResult) error {
	// 多源即记一次冲突，不管合并有没有实际改字段
	if len(group) > 1 {
		res.Conflicts++
		if !dryRun {
			sources := make([]string, 0, len(group))
			for _, g := range group {
				sources = append(sources, g.Provider)
			}
			if err := s.registry.LogQualityIssue(ctx, canonicalID, model.IssueConflict,
				fmt.Sprintf("多数据源同场: %v", sources), model.SeverityLow); err != nil {
				s.logger.WithError(err).WithField("canonical_id", canonicalID).Warn("记录冲突问题失败")
			}
		}
	}

	meta, box := s.merge.Merge(group)
	if meta == nil {
		return fmt.Errorf("合并结果为空")
	}

	// 5. 校验与评分：质量分是合并后记录的函数，不是任何单源提交的函数
	score := canonical.QualityScore(meta, box)
	val := canonical.Validate(meta, box)
	for _, e := range val.Errors {
		res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", canonicalID, e))
		if !dryRun {
			if err := s.registry.LogQualityIssue(ctx, canonicalID, model.IssueInvalid, e, model.SeverityMedium); err != nil {
				s.logger.WithError(err).WithField("canonical_id", canonicalID).Warn("记录校验问题失败")
			}
		}
	}
	// 低质量只计数，不阻断落盘
	if score < s.cfg.Ingest.LowQualityThreshold {
		res.LowQuality++
	}
	if !dryRun {
		if err := s.registry.UpdateQualityScore(ctx, canonicalID, score); err != nil {
			return fmt.Errorf("回写质量分失败: %w", err)
		}
	}

	// 6. 落盘金记录快照，key_moments占位只建不覆盖
	if !dryRun {
		if err := s.store.PersistSnapshot(canonicalID, meta, box); err != nil {
			return err
		}
		if err := s.store.EnsureKeyMoments(canonicalID); err != nil {
			return err
		}
	}
	return nil
}

// 运行模式
const (
	ModeLive    = "live"    // 今天+昨天
	ModeRecent  = "recent"  // 最近三天
	ModeArchive = "archive" // 指定日期，或随机回看30~180天前
)

// ResolveDates 按模式解析出要摄取的日期列表（explicitDate只在archive模式下生效）
func ResolveDates(mode, explicitDate string, now time.Time) ([]string, error) {
	const layout = "2006-01-02"
	switch mode {
	case ModeLive:
		return []string{now.Format(layout), now.AddDate(0, 0, -1).Format(layout)}, nil
	case ModeRecent:
		return []string{
			now.Format(layout),
			now.AddDate(0, 0, -1).Format(layout),
			now.AddDate(0, 0, -2).Format(layout),
		}, nil
	case ModeArchive:
		if explicitDate != "" {
			if canonical.DateOnly(explicitDate) == "" {
				return nil, fmt.Errorf("日期格式不合法: %s（要求YYYY-MM-DD）", explicitDate)
			}
			return []string{canonical.DateOnly(explicitDate)}, nil
		}
		// 没指定就随机回看30~180天前的一天
		back := 30 + rand.Intn(151)
		return []string{now.AddDate(0, 0, -back).Format(layout)}, nil
	default:
		return nil, fmt.Errorf("未支持的模式: %s", mode)
	}
}
