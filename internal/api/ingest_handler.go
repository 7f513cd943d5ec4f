package api

import (
	"net/http"

	"GameSync/internal/canonical"
	"GameSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// IngestHandler 手动触发某日摄取
type IngestHandler struct {
	svc    *service.IngestService
	logger *logrus.Logger
}

func NewIngestHandler(svc *service.IngestService, logger *logrus.Logger) *IngestHandler {
	return &IngestHandler{svc: svc, logger: logger}
}

// IngestDateHandler 摄取指定日期
// @Param date path string true "日期YYYY-MM-DD"
// @Param dry_run query bool false "只算不写"
// @Router /api/ingest/{date} [post]
func (h *IngestHandler) IngestDateHandler(c *gin.Context) {
	date := canonical.DateOnly(c.Param("date"))
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "日期必须是YYYY-MM-DD"})
		return
	}
	dryRun := c.Query("dry_run") == "true"

	res := h.svc.IngestDay(c.Request.Context(), date, service.ModeArchive, dryRun)
	c.JSON(http.StatusOK, res)
}
