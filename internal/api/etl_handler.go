package api

import (
	"net/http"

	"RosterGraph/internal/adapter"
	"RosterGraph/internal/config"
	"RosterGraph/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ETLHandler struct {
	db     *gorm.DB
	logger *logrus.Logger
	cfg    *config.Config
}

func NewETLHandler(db *gorm.DB, logger *logrus.Logger, cfg *config.Config) *ETLHandler {
	return &ETLHandler{db: db, logger: logger, cfg: cfg}
}

// RunHandler 触发一次ETL运行（同步执行，跑完才返回）
// @Summary 触发名单图谱重建
// @Param mode query string false "运行模式：full（默认，全量重建）/ estimate（只估算不落库）"
// @Success 200 {object} service.RunResult
// @Failure 500 {object} map[string]string
// @Router /etl/run [post]
func (h *ETLHandler) RunHandler(c *gin.Context) {
	mode := c.DefaultQuery("mode", "full")
	if mode != "full" && mode != "estimate" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode必须为full或estimate"})
		return
	}

	source, err := adapter.NewSource(&h.cfg.Source, h.logger)
	if err != nil {
		h.logger.WithError(err).Error("创建数据源适配器失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	svc := service.NewETLService(h.db, h.logger, h.cfg, source)
	result, err := svc.Run(c.Request.Context(), mode == "estimate")
	if err != nil {
		h.logger.Errorf("ETL运行失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
