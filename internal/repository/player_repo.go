package repository

import (
	"context"
	"strings"

	"RosterGraph/internal/model"

	"gorm.io/gorm"
)

// PlayerFilter 球员列表筛选条件
type PlayerFilter struct {
	Name     string // 模糊匹配（大小写不敏感）
	Position string
	College  string
}

// DistributionStats 连接分布统计（数据质量校验用）
type DistributionStats struct {
	AvgConnections  float64 `json:"avg_connections"`
	MinConnections  int64   `json:"min_connections"`
	MaxConnections  int64   `json:"max_connections"`
	ZeroConnections int64   `json:"players_with_zero_connections"`
}

// PlayerSample 按名字抽查的球员样本（含连接数）
type PlayerSample struct {
	Name        string `json:"name"`
	Position    string `json:"position"`
	College     string `json:"college"`
	Connections int64  `json:"connections"`
}

// PlayerRepository 面向游戏层与校验的只读仓储
type PlayerRepository interface {
	ListPlayers(ctx context.Context, filter PlayerFilter, page, pageSize int) ([]*model.Player, int64, error)
	GetPlayerByID(ctx context.Context, id string) (*model.Player, error)
	// ListConnectionsByPlayer 查询某球员的边（player1/player2 任一端命中）
	ListConnectionsByPlayer(ctx context.Context, playerID string, connType string, limit int) ([]*model.Connection, error)
	CountPlayers(ctx context.Context) (int64, error)
	CountConnectionsByType(ctx context.Context) (map[model.ConnectionType]int64, error)
	CountOrphanConnections(ctx context.Context) (int64, error)
	ConnectionDistribution(ctx context.Context) (*DistributionStats, error)
	SamplePlayersByNames(ctx context.Context, names []string) ([]*PlayerSample, error)
}

type playerRepository struct {
	db *gorm.DB
}

func NewPlayerRepository(db *gorm.DB) PlayerRepository {
	return &playerRepository{db: db}
}

// ListPlayers 按过滤条件分页查询球员
func (r *playerRepository) ListPlayers(ctx context.Context, filter PlayerFilter, page, pageSize int) ([]*model.Player, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	db := r.db.WithContext(ctx).Model(&model.Player{})
	if filter.Name != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Name)+"%")
	}
	if filter.Position != "" {
		db = db.Where("position = ?", filter.Position)
	}
	if filter.College != "" {
		db = db.Where("college = ?", filter.College)
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var players []*model.Player
	if err := db.Order("name ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&players).Error; err != nil {
		return nil, 0, err
	}
	return players, total, nil
}

// GetPlayerByID 按 canonical_id 获取球员
func (r *playerRepository) GetPlayerByID(ctx context.Context, id string) (*model.Player, error) {
	var p model.Player
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListConnectionsByPlayer 查询某球员的边，可按连接类型过滤
func (r *playerRepository) ListConnectionsByPlayer(ctx context.Context, playerID string, connType string, limit int) ([]*model.Connection, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	db := r.db.WithContext(ctx).
		Where("player1_id = ? OR player2_id = ?", playerID, playerID)
	if connType != "" {
		db = db.Where("connection_type = ?", connType)
	}
	var conns []*model.Connection
	if err := db.Limit(limit).Find(&conns).Error; err != nil {
		return nil, err
	}
	return conns, nil
}

func (r *playerRepository) CountPlayers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Player{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// CountConnectionsByType 各连接类型的边数
func (r *playerRepository) CountConnectionsByType(ctx context.Context) (map[model.ConnectionType]int64, error) {
	type row struct {
		ConnectionType model.ConnectionType
		Count          int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&model.Connection{}).
		Select("connection_type, COUNT(*) as count").
		Group("connection_type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[model.ConnectionType]int64, len(rows))
	for _, r := range rows {
		counts[r.ConnectionType] = r.Count
	}
	return counts, nil
}

// CountOrphanConnections 端点球员不存在的边数（清扫后应为0）
func (r *playerRepository) CountOrphanConnections(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM player_connections pc
		WHERE NOT EXISTS (SELECT 1 FROM players p WHERE p.id = pc.player1_id)
		   OR NOT EXISTS (SELECT 1 FROM players p WHERE p.id = pc.player2_id)`).Scan(&n).Error
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ConnectionDistribution 球员连接数分布（平均/最小/最大/零连接球员数）
func (r *playerRepository) ConnectionDistribution(ctx context.Context) (*DistributionStats, error) {
	var stats DistributionStats
	err := r.db.WithContext(ctx).Raw(`
		WITH player_connection_counts AS (
			SELECT p.id,
			       (SELECT COUNT(*) FROM player_connections pc
			         WHERE pc.player1_id = p.id OR pc.player2_id = p.id) AS connection_count
			FROM players p
		)
		SELECT COALESCE(AVG(connection_count), 0)                        AS avg_connections,
		       COALESCE(MIN(connection_count), 0)                        AS min_connections,
		       COALESCE(MAX(connection_count), 0)                        AS max_connections,
		       COALESCE(SUM(CASE WHEN connection_count = 0 THEN 1 ELSE 0 END), 0) AS zero_connections
		FROM player_connection_counts`).Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// SamplePlayersByNames 按名字（大小写不敏感模糊）抽查球员及其连接数
func (r *playerRepository) SamplePlayersByNames(ctx context.Context, names []string) ([]*PlayerSample, error) {
	var samples []*PlayerSample
	for _, name := range names {
		if name == "" {
			continue
		}
		var rows []*PlayerSample
		err := r.db.WithContext(ctx).Raw(`
			SELECT p.name, p.position, p.college,
			       (SELECT COUNT(*) FROM player_connections pc
			         WHERE pc.player1_id = p.id OR pc.player2_id = p.id) AS connections
			FROM players p
			WHERE LOWER(p.name) LIKE ?`, "%"+strings.ToLower(name)+"%").Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		samples = append(samples, rows...)
	}
	return samples, nil
}
