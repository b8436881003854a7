package model

import (
	"gorm.io/datatypes"
)

// ConnectionType 连接类型枚举（下游寻路游戏使用的固定集合）
type ConnectionType string

const (
	ConnectionTeammate   ConnectionType = "teammate"    // 同队同赛季
	ConnectionCollege    ConnectionType = "college"     // 同一所大学
	ConnectionDraftClass ConnectionType = "draft_class" // 同届选秀
	ConnectionPosition   ConnectionType = "position"    // 同位置
)

// Player 球员主表（每次ETL全量重建，一名真实球员一条）
// ID 即 canonical_id：按固定优先级从多个源标识中归并出的唯一键
type Player struct {
	ID          string         `gorm:"column:id;primaryKey;type:varchar(64)"`
	Name        string         `gorm:"column:name;type:varchar(128);not null"`
	Position    string         `gorm:"column:position;type:varchar(16)"`
	College     string         `gorm:"column:college;type:varchar(128)"`
	DraftYear   int            `gorm:"column:draft_year;type:int;default:0"` // 0=未被选中/未知
	Teams       datatypes.JSON `gorm:"column:teams;type:jsonb"`              // 效力过的球队集合（无序）
	FirstSeason int            `gorm:"column:first_season;type:int"`
	LastSeason  int            `gorm:"column:last_season;type:int"`
}

func (Player) TableName() string { return "players" }

// Connection 球员连接边（无向，端点存储顺序任意，不保证 player1 < player2）
// metadata 按 connection_type 携带不同结构（队伍/赛季、大学、选秀年、位置等）
type Connection struct {
	ID             uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	Player1ID      string         `gorm:"column:player1_id;type:varchar(64);not null"`
	Player2ID      string         `gorm:"column:player2_id;type:varchar(64);not null"`
	ConnectionType ConnectionType `gorm:"column:connection_type;type:varchar(32);not null"`
	Metadata       datatypes.JSON `gorm:"column:metadata;type:jsonb"`
}

func (Connection) TableName() string { return "player_connections" }

// PlayerSeasonalStat 球员赛季数据（可选落库，仅用于显著性过滤与事后排查）
type PlayerSeasonalStat struct {
	ID            uint64  `gorm:"column:id;primaryKey;autoIncrement"`
	PlayerID      string  `gorm:"column:player_id;type:varchar(64);not null;uniqueIndex:uk_player_season"`
	Season        int     `gorm:"column:season;type:int;not null;uniqueIndex:uk_player_season"`
	FantasyPoints float64 `gorm:"column:fantasy_points;type:numeric(10,2);default:0"`
}

func (PlayerSeasonalStat) TableName() string { return "player_seasonal_stats" }
