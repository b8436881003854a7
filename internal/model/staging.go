package model

// RosterRow 合并富化后的名单行（Merger 输出；Aggregator 收敛后落入中间暂存表）
// 暂存表是 Summarizer 与边生成器的共享输入，各自独立扫描，跑完即删
type RosterRow struct {
	ID          uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	CanonicalID string `gorm:"column:canonical_id;type:varchar(64);not null;index"`
	PlayerName  string `gorm:"column:player_name;type:varchar(128)"`
	Team        string `gorm:"column:team;type:varchar(8)"`
	Season      int    `gorm:"column:season;type:int;index"`
	Week        int    `gorm:"column:week;type:int"`
	GameSegment string `gorm:"column:game_segment;type:varchar(8)"`
	Position    string `gorm:"column:position;type:varchar(16)"`
	College     string `gorm:"column:college;type:varchar(128)"`
	DraftYear   int    `gorm:"column:draft_year;type:int;default:0"`
}

func (RosterRow) TableName() string { return "roster_rows_agg" }
