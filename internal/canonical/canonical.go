package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"GameSync/internal/model"
)

// 本包只做纯计算：自然键、指纹、质量评分、校验。不碰数据库，不做I/O。

// BuildKey 由 日期(只取日期)+主队+客队 生成同场判定用的自然键。
// 主客按各自角色参与计算，不排序：同日同对阵但主客互换视为两场不同比赛。
// 注意：键里不含场次序号，双重赛（同日同对阵两连战）会归并进同一条注册记录，
// 当前按"每日单场"作为自然键的硬约束。
func BuildKey(meta *model.GameMeta) string {
	data := fmt.Sprintf("%s|%s|%s", DateOnly(meta.DateISO), TeamCode(meta.Home.ID), TeamCode(meta.Away.ID))
	h := sha256.Sum256([]byte(data))
	return hex.EncodeToString(h[:])[:32]
}

// Fingerprint 对可变字段（球场/状态/开赛时间/比分）做内容哈希，
// 只用于检测既有记录的底层数据有没有变化，绝不参与身份判定
func Fingerprint(meta *model.GameMeta) string {
	hs, as := "-", "-"
	if meta.HomeScore != nil {
		hs = fmt.Sprintf("%d", *meta.HomeScore)
	}
	if meta.AwayScore != nil {
		as = fmt.Sprintf("%d", *meta.AwayScore)
	}
	data := fmt.Sprintf("%s|%s|%s|%s|%s", meta.Venue, meta.Status, meta.StartTime, hs, as)
	h := sha256.Sum256([]byte(data))
	return hex.EncodeToString(h[:])[:32]
}

// 完整度评分权重（球场/开赛时间/终场比分/BoxScore各自独立贡献）
const (
	weightVenue     = 20.0
	weightStartTime = 20.0
	weightScore     = 30.0
	weightBoxScore  = 30.0
	// 状态或队伍标识缺失时的评分上限：基础身份都不全，其他字段再全也不可信
	identityCap = 25.0
)

// QualityScore 对合并后的记录计算 0~100 完整度评分
func QualityScore(meta *model.GameMeta, box *model.BoxScore) float64 {
	if meta == nil {
		return 0
	}
	score := 0.0
	if strings.TrimSpace(meta.Venue) != "" {
		score += weightVenue
	}
	if strings.TrimSpace(meta.StartTime) != "" {
		score += weightStartTime
	}
	if meta.HomeScore != nil && meta.AwayScore != nil {
		score += weightScore
	}
	if box != nil {
		score += weightBoxScore
	}
	if meta.Status == "" || TeamCode(meta.Home.ID) == "" || TeamCode(meta.Away.ID) == "" {
		if score > identityCap {
			score = identityCap
		}
	}
	return score
}

// Result 校验结果。Valid=false 仅发生在身份字段硬缺失；
// 逻辑矛盾（如 finished 却没有比分）只记入 Errors，不阻断入库
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate 校验一条（合并后的）比赛记录
func Validate(meta *model.GameMeta, box *model.BoxScore) Result {
	res := Result{Valid: true}
	if meta == nil {
		return Result{Valid: false, Errors: []string{"meta为空"}}
	}

	// 硬校验：身份字段缺失直接判无效
	if DateOnly(meta.DateISO) == "" {
		res.Valid = false
		res.Errors = append(res.Errors, "缺失比赛日期")
	}
	if TeamCode(meta.Home.ID) == "" {
		res.Valid = false
		res.Errors = append(res.Errors, "缺失主队标识")
	}
	if TeamCode(meta.Away.ID) == "" {
		res.Valid = false
		res.Errors = append(res.Errors, "缺失客队标识")
	}

	// 软校验：报告但不阻断
	if meta.Status == model.StatusFinished && (meta.HomeScore == nil || meta.AwayScore == nil) {
		res.Errors = append(res.Errors, "状态为finished但没有比分")
	}
	if box != nil && meta.HomeScore != nil && box.Home.Runs != *meta.HomeScore {
		res.Errors = append(res.Errors, fmt.Sprintf("主队比分与BoxScore不一致: %d vs %d", *meta.HomeScore, box.Home.Runs))
	}
	if box != nil && meta.AwayScore != nil && box.Away.Runs != *meta.AwayScore {
		res.Errors = append(res.Errors, fmt.Sprintf("客队比分与BoxScore不一致: %d vs %d", *meta.AwayScore, box.Away.Runs))
	}
	return res
}

var dateRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)

// DateOnly 从日期字符串截取 YYYY-MM-DD 部分（带时间的ISO串也能处理），格式不合法返回空串
func DateOnly(dateISO string) string {
	m := dateRe.FindStringSubmatch(strings.TrimSpace(dateISO))
	if m == nil {
		return ""
	}
	return m[1]
}

var nonAlphaNum = regexp.MustCompile(`[^A-Z0-9]+`)

// TeamCode 规范化球队短代码（去空白、转大写、去符号），保证各源写法差异不影响同场判定
func TeamCode(id string) string {
	s := strings.ToUpper(strings.TrimSpace(id))
	return nonAlphaNum.ReplaceAllString(s, "")
}
