package storage

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"GameSync/internal/model"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*SnapshotStore, string) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	dir := t.TempDir()
	return NewSnapshotStore(dir, log), dir
}

func TestStage(t *testing.T) {
	store, dir := newTestStore(t)
	rec := &model.ProviderRecord{
		ProviderGameID: "npb-001",
		Meta:           &model.GameMeta{GameID: "npb-001", DateISO: "2025-08-21"},
	}
	require.NoError(t, store.Stage("npbweb", "2025-08-21", rec))

	data, err := os.ReadFile(filepath.Join(dir, "staging", "npbweb", "2025-08-21", "npb-001.json"))
	require.NoError(t, err)
	var got model.ProviderRecord
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "npb-001", got.ProviderGameID)
}

func TestStage_SanitizesProviderGameID(t *testing.T) {
	store, dir := newTestStore(t)
	// 数据源给的ID带斜杠不能变成子目录
	rec := &model.ProviderRecord{ProviderGameID: "2025/08/21 G対T"}
	require.NoError(t, store.Stage("npbweb", "2025-08-21", rec))

	entries, err := os.ReadDir(filepath.Join(dir, "staging", "npbweb", "2025-08-21"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].IsDir())
	assert.NotContains(t, entries[0].Name(), "/")
}

func TestPersistSnapshot(t *testing.T) {
	store, dir := newTestStore(t)
	meta := &model.GameMeta{
		GameID:  "npb-001",
		DateISO: "2025-08-21",
		Venue:   "東京ドーム",
		Home:    model.TeamRef{ID: "G"},
		Away:    model.TeamRef{ID: "T"},
	}
	box := &model.BoxScore{Home: model.TeamBoxScore{Runs: 4}}
	require.NoError(t, store.PersistSnapshot("2025-08-21_T_G_00", meta, box))

	gameDir := filepath.Join(dir, "games", "2025-08-21_T_G_00")
	var gotMeta model.GameMeta
	data, err := os.ReadFile(filepath.Join(gameDir, "meta.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &gotMeta))
	assert.Equal(t, "東京ドーム", gotMeta.Venue)

	var gotBox model.BoxScore
	data, err = os.ReadFile(filepath.Join(gameDir, "boxscore.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &gotBox))
	assert.Equal(t, 4, gotBox.Home.Runs)
}

func TestPersistSnapshot_NoBoxScore(t *testing.T) {
	store, dir := newTestStore(t)
	meta := &model.GameMeta{GameID: "npb-001", DateISO: "2025-08-21"}
	require.NoError(t, store.PersistSnapshot("2025-08-21_T_G_00", meta, nil))

	// box没有就不写boxscore.json
	_, err := os.Stat(filepath.Join(dir, "games", "2025-08-21_T_G_00", "boxscore.json"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "games", "2025-08-21_T_G_00", "meta.json"))
	assert.NoError(t, err)
}

func TestEnsureKeyMoments(t *testing.T) {
	store, dir := newTestStore(t)
	require.NoError(t, store.EnsureKeyMoments("2025-08-21_T_G_00"))

	path := filepath.Join(dir, "games", "2025-08-21_T_G_00", "key_moments.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"moments":[]}`, string(data))

	// 已有内容的占位文件不能被覆盖
	custom := `{"moments":[{"inning":9,"desc":"サヨナラ打"}]}`
	require.NoError(t, os.WriteFile(path, []byte(custom), 0o644))
	require.NoError(t, store.EnsureKeyMoments("2025-08-21_T_G_00"))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, custom, string(data))
}

func TestWritesEmitDebugLogs(t *testing.T) {
	log, hook := logrustest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	store := NewSnapshotStore(t.TempDir(), log)

	rec := &model.ProviderRecord{ProviderGameID: "npb-001"}
	require.NoError(t, store.Stage("npbweb", "2025-08-21", rec))
	require.NoError(t, store.PersistSnapshot("2025-08-21_T_G_00", &model.GameMeta{}, nil))

	require.Len(t, hook.Entries, 2)
	assert.Equal(t, "npbweb", hook.Entries[0].Data["provider"])
	assert.Equal(t, "2025-08-21_T_G_00", hook.Entries[1].Data["canonical_id"])
}

func TestAppendRunReport(t *testing.T) {
	store, dir := newTestStore(t)
	require.NoError(t, store.AppendRunReport("2025-08-21", &RunReport{RunID: "run-1", Date: "2025-08-21", Mode: "live"}))
	require.NoError(t, store.AppendRunReport("2025-08-21", &RunReport{RunID: "run-2", Date: "2025-08-21", Mode: "recent"}))

	data, err := os.ReadFile(filepath.Join(dir, "reports", "2025-08-21.jsonl"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first, second RunReport
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "run-1", first.RunID)
	assert.Equal(t, "run-2", second.RunID)
}
