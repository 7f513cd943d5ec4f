package api

import (
	"net/http"
	"strconv"

	"GameSync/internal/canonical"
	"GameSync/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RegistryHandler 注册表查询接口（审计/告警用，只读）
type RegistryHandler struct {
	repo   repository.GameRegistryRepository
	logger *logrus.Logger
}

func NewRegistryHandler(db *gorm.DB, logger *logrus.Logger) *RegistryHandler {
	return &RegistryHandler{
		repo:   repository.NewGameRegistryRepository(db),
		logger: logger,
	}
}

// GetStats 注册表聚合统计
// @Router /api/registry/stats [get]
func (h *RegistryHandler) GetStats(c *gin.Context) {
	stats, err := h.repo.GetStats(c.Request.Context())
	if err != nil {
		h.logger.Errorf("查询注册表统计失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetLowQuality 低质量比赛列表
// @Param threshold query number false "质量分阈值（默认70）"
// @Router /api/registry/low-quality [get]
func (h *RegistryHandler) GetLowQuality(c *gin.Context) {
	threshold := 70.0
	if v := c.Query("threshold"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "threshold必须是数字"})
			return
		}
		threshold = t
	}
	games, err := h.repo.GetLowQualityGames(c.Request.Context(), threshold)
	if err != nil {
		h.logger.Errorf("查询低质量比赛失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"threshold": threshold, "games": games})
}

// ListGames 按日期区间列出注册记录
// @Param from query string true "起始日期YYYY-MM-DD"
// @Param to query string true "截止日期YYYY-MM-DD"
// @Router /api/registry/games [get]
func (h *RegistryHandler) ListGames(c *gin.Context) {
	from := canonical.DateOnly(c.Query("from"))
	to := canonical.DateOnly(c.Query("to"))
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from/to必须是YYYY-MM-DD"})
		return
	}
	games, err := h.repo.GetGamesByDateRange(c.Request.Context(), from, to)
	if err != nil {
		h.logger.Errorf("按日期区间查询失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(games), "games": games})
}

// GetProviderGames 某条注册记录背后的全部数据源引用（按confidence降序）
// @Param canonical_id path string true "canonical id"
// @Router /api/registry/games/{canonical_id}/providers [get]
func (h *RegistryHandler) GetProviderGames(c *gin.Context) {
	canonicalID := c.Param("canonical_id")
	refs, err := h.repo.GetProviderGameIDs(c.Request.Context(), canonicalID)
	if err != nil {
		h.logger.Errorf("查询数据源映射失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"canonicalId": canonicalID, "providers": refs})
}
