package repository

import (
	"context"

	"RosterGraph/internal/model"

	"gorm.io/gorm"
)

// StagingRepository 收敛名单暂存表仓储
// 暂存表是 Summarizer 与边生成器的共享输入：teammate 维度按赛季切片扫描，
// 其余维度做列裁剪全量扫描，跑完由调用方清空
type StagingRepository interface {
	ReplaceAll(ctx context.Context, rows []model.RosterRow) error
	ListSeasons(ctx context.Context) ([]int, error)
	ListBySeason(ctx context.Context, season int) ([]model.RosterRow, error)
	// ListForDimensions 列裁剪全量扫描（college/draft/position 维度用，不取 week 等无关列）
	ListForDimensions(ctx context.Context) ([]model.RosterRow, error)
	Clear(ctx context.Context) error
}

type stagingRepository struct {
	db        *gorm.DB
	batchSize int
}

func NewStagingRepository(db *gorm.DB, batchSize int) StagingRepository {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &stagingRepository{db: db, batchSize: batchSize}
}

// ReplaceAll 整表替换（一次运行一份快照）
func (r *stagingRepository) ReplaceAll(ctx context.Context, rows []model.RosterRow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM roster_rows_agg").Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, r.batchSize).Error
	})
}

func (r *stagingRepository) ListSeasons(ctx context.Context) ([]int, error) {
	var seasons []int
	if err := r.db.WithContext(ctx).Model(&model.RosterRow{}).
		Distinct("season").Order("season ASC").Pluck("season", &seasons).Error; err != nil {
		return nil, err
	}
	return seasons, nil
}

func (r *stagingRepository) ListBySeason(ctx context.Context, season int) ([]model.RosterRow, error) {
	var rows []model.RosterRow
	if err := r.db.WithContext(ctx).
		Where("season = ?", season).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *stagingRepository) ListForDimensions(ctx context.Context) ([]model.RosterRow, error) {
	var rows []model.RosterRow
	if err := r.db.WithContext(ctx).
		Select("canonical_id", "player_name", "college", "draft_year", "position", "season").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *stagingRepository) Clear(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("DELETE FROM roster_rows_agg").Error
}
