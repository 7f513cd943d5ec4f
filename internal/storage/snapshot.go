package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"GameSync/internal/model"
	"GameSync/internal/repository"

	"github.com/sirupsen/logrus"
)

// SnapshotStore 文件留档区，根目录下三个分区：
//
//	staging/<provider>/<date>/<provider_game_id>.json  原始报文留档（合并前写入，审计/回放用）
//	games/<canonical_id>/{meta.json,boxscore.json,key_moments.json}  金记录快照
//	reports/<date>.jsonl  每次运行追加一条结构化报告（同日可多条）
type SnapshotStore struct {
	root   string
	logger *logrus.Logger
}

func NewSnapshotStore(root string, logger *logrus.Logger) *SnapshotStore {
	return &SnapshotStore{root: root, logger: logger}
}

// RunReport 单次摄取运行的结构化报告
type RunReport struct {
	RunID      string                    `json:"runId"`
	Date       string                    `json:"date"`
	Mode       string                    `json:"mode"`
	Timestamp  time.Time                 `json:"timestamp"`
	Processed  int                       `json:"processed"`
	Conflicts  int                       `json:"conflicts"`
	LowQuality int                       `json:"lowQuality"`
	Errors     []string                  `json:"errors"`
	Stats      *repository.RegistryStats `json:"stats,omitempty"` // 运行结束时注册表统计的快照
}

// Stage 把数据源原始记录写进staging区。失败不阻断摄取流程，由调用方忽略
func (s *SnapshotStore) Stage(provider, dateISO string, rec *model.ProviderRecord) error {
	dir := filepath.Join(s.root, "staging", sanitize(provider), sanitize(dateISO))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建staging目录失败: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, sanitize(rec.ProviderGameID)+".json"), rec); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"provider": provider,
		"game_id":  rec.ProviderGameID,
	}).Debug("原始记录已留档")
	return nil
}

// PersistSnapshot 落盘合并后的金记录快照（meta必写，boxscore有才写）
func (s *SnapshotStore) PersistSnapshot(canonicalID string, meta *model.GameMeta, box *model.BoxScore) error {
	dir := filepath.Join(s.root, "games", sanitize(canonicalID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建快照目录失败: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, "meta.json"), meta); err != nil {
		return err
	}
	if box != nil {
		if err := writeJSON(filepath.Join(dir, "boxscore.json"), box); err != nil {
			return err
		}
	}
	s.logger.WithField("canonical_id", canonicalID).Debug("金记录快照已落盘")
	return nil
}

// EnsureKeyMoments 创建关键时刻占位文件。已存在则不动（人工/后续任务会往里写内容）
func (s *SnapshotStore) EnsureKeyMoments(canonicalID string) error {
	dir := filepath.Join(s.root, "games", sanitize(canonicalID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建快照目录失败: %w", err)
	}
	path := filepath.Join(dir, "key_moments.json")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil // 占位已存在，绝不覆盖
		}
		return fmt.Errorf("创建key_moments占位失败: %w", err)
	}
	defer f.Close()
	_, err = f.WriteString("{\"moments\":[]}\n")
	return err
}

// AppendRunReport 往当日运行日志追加一条报告（jsonl，一行一条）
func (s *SnapshotStore) AppendRunReport(dateISO string, rep *RunReport) error {
	dir := filepath.Join(s.root, "reports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建reports目录失败: %w", err)
	}
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("序列化运行报告失败: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, sanitize(dateISO)+".jsonl"), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("打开运行日志失败: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("追加运行报告失败: %w", err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化失败: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("写文件失败: %w", err)
	}
	return nil
}

var unsafePath = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitize 数据源给的ID可能带斜杠等怪字符，落盘前统一替换掉
func sanitize(s string) string {
	return unsafePath.ReplaceAllString(s, "_")
}
