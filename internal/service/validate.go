package service

import (
	"context"

	"RosterGraph/internal/config"
	"RosterGraph/internal/model"
	"RosterGraph/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ValidationReport 数据质量校验报告
type ValidationReport struct {
	Players           int64                          `json:"players"`
	ConnectionsByType map[model.ConnectionType]int64 `json:"connections_by_type"`
	TotalConnections  int64                          `json:"total_connections"`
	OrphanConnections int64                          `json:"orphan_connections"`
	Distribution      *repository.DistributionStats  `json:"distribution"`
	StarSamples       []*repository.PlayerSample     `json:"star_samples"`
	Healthy           bool                           `json:"healthy"`
}

// ValidationService 落库后的数据质量校验：
// 表计数、各类型边数、孤儿边、连接分布、明星球员抽查
type ValidationService struct {
	playerRepo repository.PlayerRepository
	logger     *logrus.Logger
	cfg        *config.Config
}

func NewValidationService(db *gorm.DB, logger *logrus.Logger, cfg *config.Config) *ValidationService {
	return &ValidationService{
		playerRepo: repository.NewPlayerRepository(db),
		logger:     logger,
		cfg:        cfg,
	}
}

// Validate 执行全部校验项并汇总报告。
// Healthy 判定：有球员、有边、无孤儿边
func (s *ValidationService) Validate(ctx context.Context) (*ValidationReport, error) {
	report := &ValidationReport{}

	players, err := s.playerRepo.CountPlayers(ctx)
	if err != nil {
		return nil, err
	}
	report.Players = players

	byType, err := s.playerRepo.CountConnectionsByType(ctx)
	if err != nil {
		return nil, err
	}
	report.ConnectionsByType = byType
	for _, n := range byType {
		report.TotalConnections += n
	}

	orphans, err := s.playerRepo.CountOrphanConnections(ctx)
	if err != nil {
		return nil, err
	}
	report.OrphanConnections = orphans

	dist, err := s.playerRepo.ConnectionDistribution(ctx)
	if err != nil {
		return nil, err
	}
	report.Distribution = dist

	samples, err := s.playerRepo.SamplePlayersByNames(ctx, s.cfg.ETL.StarNames)
	if err != nil {
		return nil, err
	}
	report.StarSamples = samples

	report.Healthy = report.Players > 0 && report.TotalConnections > 0 && report.OrphanConnections == 0
	s.logger.WithFields(logrus.Fields{
		"players":     report.Players,
		"connections": report.TotalConnections,
		"orphans":     report.OrphanConnections,
		"healthy":     report.Healthy,
	}).Info("数据校验完成")
	return report, nil
}
