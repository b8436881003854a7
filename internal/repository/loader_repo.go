package repository

import (
	"context"
	"fmt"
	"time"

	"RosterGraph/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LoaderRepository 批量加载仓储：按固定分块写入目标表。
// 一次运行内对同一张表的首个分块使用替换语义（先清表），其后所有分块（包括
// 跨调用、跨维度的后续批次）一律追加——是否首批由调用方跟踪并传入。
// 任何批次写失败即为致命错误，整次运行由运维重新发起，不做部分重试
type LoaderRepository interface {
	LoadPlayers(ctx context.Context, players []*model.Player) error
	LoadConnections(ctx context.Context, conns []*model.Connection, firstBatch bool) error
	ReplaceSeasonalStats(ctx context.Context, stats []*model.PlayerSeasonalStat) error
	// SweepOrphanConnections 落库后完整性清扫：删除端点不存在的边，返回删除数
	SweepOrphanConnections(ctx context.Context) (int64, error)
	// CreateIndexes 创建寻路查询所需索引
	CreateIndexes(ctx context.Context) error
}

type loaderRepository struct {
	db         *gorm.DB
	logger     *logrus.Logger
	batchSize  int
	chunkPause time.Duration // 分块间停顿，给库喘息（限速礼貌，不是正确性要求）
}

func NewLoaderRepository(db *gorm.DB, logger *logrus.Logger, batchSize int, chunkPause time.Duration) LoaderRepository {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &loaderRepository{db: db, logger: logger, batchSize: batchSize, chunkPause: chunkPause}
}

// LoadPlayers 球员整表重建：首个分块替换，其余追加
func (r *loaderRepository) LoadPlayers(ctx context.Context, players []*model.Player) error {
	if err := r.db.WithContext(ctx).Exec("DELETE FROM players").Error; err != nil {
		return fmt.Errorf("清空players失败: %w", err)
	}
	total := (len(players) + r.batchSize - 1) / r.batchSize
	for i := 0; i < len(players); i += r.batchSize {
		end := i + r.batchSize
		if end > len(players) {
			end = len(players)
		}
		if err := r.db.WithContext(ctx).Create(players[i:end]).Error; err != nil {
			return fmt.Errorf("写入players分块%d/%d失败: %w", i/r.batchSize+1, total, err)
		}
		r.pause()
	}
	r.logger.Infof("球员落库完成，共%d条（%d个分块）", len(players), total)
	return nil
}

// LoadConnections 边批量写入；firstBatch=true 时本批的首个分块替换整表
func (r *loaderRepository) LoadConnections(ctx context.Context, conns []*model.Connection, firstBatch bool) error {
	if firstBatch {
		if err := r.db.WithContext(ctx).Exec("DELETE FROM player_connections").Error; err != nil {
			return fmt.Errorf("清空player_connections失败: %w", err)
		}
	}
	if len(conns) == 0 {
		return nil
	}
	total := (len(conns) + r.batchSize - 1) / r.batchSize
	for i := 0; i < len(conns); i += r.batchSize {
		end := i + r.batchSize
		if end > len(conns) {
			end = len(conns)
		}
		if err := r.db.WithContext(ctx).Create(conns[i:end]).Error; err != nil {
			return fmt.Errorf("写入player_connections分块%d/%d失败: %w", i/r.batchSize+1, total, err)
		}
		r.pause()
	}
	return nil
}

// ReplaceSeasonalStats 赛季数据整表替换（显著性过滤开启时落库）
func (r *loaderRepository) ReplaceSeasonalStats(ctx context.Context, stats []*model.PlayerSeasonalStat) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM player_seasonal_stats").Error; err != nil {
			return err
		}
		if len(stats) == 0 {
			return nil
		}
		return tx.CreateInBatches(stats, r.batchSize).Error
	})
}

// SweepOrphanConnections 删除端点球员不存在的边（只删不修，数量非零说明上游有缺陷值得排查）
func (r *loaderRepository) SweepOrphanConnections(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		DELETE FROM player_connections
		WHERE NOT EXISTS (SELECT 1 FROM players p WHERE p.id = player_connections.player1_id)
		   OR NOT EXISTS (SELECT 1 FROM players p WHERE p.id = player_connections.player2_id)`)
	if res.Error != nil {
		return 0, fmt.Errorf("完整性清扫失败: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CreateIndexes 创建寻路查询索引（幂等）
func (r *loaderRepository) CreateIndexes(ctx context.Context) error {
	ddls := []string{
		`CREATE INDEX IF NOT EXISTS idx_connections_player1 ON player_connections(player1_id, connection_type)`,
		`CREATE INDEX IF NOT EXISTS idx_connections_player2 ON player_connections(player2_id, connection_type)`,
		`CREATE INDEX IF NOT EXISTS idx_players_name ON players(name)`,
	}
	for _, ddl := range ddls {
		if err := r.db.WithContext(ctx).Exec(ddl).Error; err != nil {
			return fmt.Errorf("创建索引失败: %w", err)
		}
	}
	r.logger.Info("索引创建完成")
	return nil
}

func (r *loaderRepository) pause() {
	if r.chunkPause > 0 {
		time.Sleep(r.chunkPause)
	}
}
