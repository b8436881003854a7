package model

// RawRosterRecord 周度名单原始记录（一名球员在某队某赛季某周一条）
// 三个源标识来自不同命名空间，均可能缺失；字段在接入时一次性解析为固定 schema，
// 后续阶段不再做"列是否存在"式判断
type RawRosterRecord struct {
	Season      int
	Week        int    // 周/期次
	GameSegment string // REG/WC/DIV/CON/SB 等
	Team        string
	PlayerName  string
	PrimaryID   string // 跨目录主标识（选秀目录的键，主目录可回填）
	SecondaryID string // 名单源标识（球员主目录的键）
	FallbackID  string // 源内部行标识，仅兜底
	Position    string
	College     string
}

// MasterCatalogRecord 球员主目录记录（权威目录，按 SecondaryID 近似唯一）
type MasterCatalogRecord struct {
	SecondaryID string // 目录键
	PrimaryID   string // 交叉引用，用于回填名单记录
	DisplayName string
	College     string
	Position    string
}

// DraftRecord 选秀记录（按 PrimaryID 唯一）
type DraftRecord struct {
	PrimaryID   string
	DraftSeason int
}

// SeasonalStatRecord 赛季数据原始记录（PrimaryID 命名空间，用于显著性过滤）
type SeasonalStatRecord struct {
	PrimaryID     string
	Season        int
	FantasyPoints float64
}
