package interfaces

import (
	"context"

	"RosterGraph/internal/config"
	"RosterGraph/internal/model"

	"github.com/sirupsen/logrus"
)

// RosterSource 上游数据源必须实现的核心接口（按年返回表格化提取件）
// 单年拉取失败由调用方记日志后跳过，不应导致整次运行失败
type RosterSource interface {
	GetName() string                                                                 // 数据源名称
	FetchWeeklyRosters(ctx context.Context, year int) ([]model.RawRosterRecord, error)  // 拉取某年周度名单
	FetchPlayerMaster(ctx context.Context) ([]model.MasterCatalogRecord, error)         // 拉取球员主目录
	FetchDraftPicks(ctx context.Context, years []int) ([]model.DraftRecord, error)      // 拉取选秀记录
	FetchSeasonalStats(ctx context.Context, year int) ([]model.SeasonalStatRecord, error) // 拉取某年赛季数据
}

// Factory 数据源适配器工厂函数签名
// 入参：数据源配置、日志实例
// 出参：实现RosterSource接口的适配器实例
type Factory func(cfg *config.SourceConfig, logger *logrus.Logger) RosterSource
