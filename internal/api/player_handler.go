package api

import (
	"errors"
	"net/http"
	"strconv"

	"RosterGraph/internal/config"
	"RosterGraph/internal/repository"
	"RosterGraph/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PlayerHandler 提供给寻路游戏前端的球员与连接查询接口
type PlayerHandler struct {
	playerRepo repository.PlayerRepository
	validate   *service.ValidationService
	logger     *logrus.Logger
}

// NewPlayerHandler 创建 PlayerHandler
func NewPlayerHandler(db *gorm.DB, logger *logrus.Logger, cfg *config.Config) *PlayerHandler {
	return &PlayerHandler{
		playerRepo: repository.NewPlayerRepository(db),
		validate:   service.NewValidationService(db, logger, cfg),
		logger:     logger,
	}
}

// ListPlayers 球员列表接口
// GET /api/players?name=mahomes&position=QB&college=Alabama&page=1&page_size=20
func (h *PlayerHandler) ListPlayers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := repository.PlayerFilter{
		Name:     c.Query("name"),
		Position: c.Query("position"),
		College:  c.Query("college"),
	}

	players, total, err := h.playerRepo.ListPlayers(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("ListPlayers failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":   total,
		"page":    page,
		"players": players,
	})
}

// GetPlayer 球员详情
// GET /api/players/:id
func (h *PlayerHandler) GetPlayer(c *gin.Context) {
	id := c.Param("id")
	player, err := h.playerRepo.GetPlayerByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
			return
		}
		h.logger.WithError(err).Error("GetPlayer failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, player)
}

// ListConnections 球员连接查询（寻路核心接口）
// GET /api/players/:id/connections?type=teammate&limit=100
func (h *PlayerHandler) ListConnections(c *gin.Context) {
	id := c.Param("id")
	connType := c.Query("type")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	conns, err := h.playerRepo.ListConnectionsByPlayer(c.Request.Context(), id, connType, limit)
	if err != nil {
		h.logger.WithError(err).Error("ListConnections failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"player_id":   id,
		"count":       len(conns),
		"connections": conns,
	})
}

// ValidateHandler 数据质量校验报告
// GET /api/validate
func (h *PlayerHandler) ValidateHandler(c *gin.Context) {
	report, err := h.validate.Validate(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Validate failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}
