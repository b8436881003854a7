package service

import (
	"context"
	"fmt"
	"time"

	"RosterGraph/internal/config"
	"RosterGraph/internal/interfaces"
	"RosterGraph/internal/model"
	"RosterGraph/internal/pipeline"
	"RosterGraph/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ETLService 全量重建批处理管道：
// 原始提取件 → 源合并 → 赛季收敛 → {球员汇总 → players；有界边生成 → edges} → 分块落库。
// 单线程同步执行；大中间体一经下游消费立即置 nil 释放，避免同时持有多份全量名单
type ETLService struct {
	db          *gorm.DB
	logger      *logrus.Logger
	cfg         *config.Config
	source      interfaces.RosterSource
	stagingRepo repository.StagingRepository
	loaderRepo  repository.LoaderRepository
	validate    *ValidationService
}

func NewETLService(db *gorm.DB, logger *logrus.Logger, cfg *config.Config, source interfaces.RosterSource) *ETLService {
	return &ETLService{
		db:          db,
		logger:      logger,
		cfg:         cfg,
		source:      source,
		stagingRepo: repository.NewStagingRepository(db, cfg.ETL.BatchSize),
		loaderRepo: repository.NewLoaderRepository(db, logger, cfg.ETL.BatchSize,
			time.Duration(cfg.ETL.ChunkPauseMS)*time.Millisecond),
		validate: NewValidationService(db, logger, cfg),
	}
}

// RunResult 一次运行的结果汇总
type RunResult struct {
	RunID            string                       `json:"run_id"`
	DryRun           bool                         `json:"dry_run"`
	Years            []int                        `json:"years"`
	YearsLoaded      int                          `json:"years_loaded"`
	Players          int                          `json:"players"`
	EdgeCounts       map[model.ConnectionType]int `json:"edge_counts"`
	TotalConnections int                          `json:"total_connections"`
	OrphansRemoved   int64                        `json:"orphans_removed"`
	Estimate         *pipeline.EstimateReport     `json:"estimate"`
	DurationSeconds  float64                      `json:"duration_seconds"`
}

// Run 执行一次完整运行；dryRun=true 时只做提取+估算，不产生任何写入。
// 失败不做任何步骤级重试，由运维重新发起整次运行
func (s *ETLService) Run(ctx context.Context, dryRun bool) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{
		RunID:      uuid.NewString(),
		DryRun:     dryRun,
		Years:      s.cfg.ETL.Years(),
		EdgeCounts: make(map[model.ConnectionType]int),
	}
	s.logger.WithFields(logrus.Fields{
		"run_id":  result.RunID,
		"dry_run": dryRun,
		"years":   result.Years,
	}).Info("ETL运行开始")

	if len(result.Years) == 0 {
		return nil, fmt.Errorf("赛季区间配置为空（start_year=%d, end_year=%d）", s.cfg.ETL.StartYear, s.cfg.ETL.EndYear)
	}

	// 1. 逐年提取名单（单年失败记日志后跳过；全部失败才致命）
	var rawAll []model.RawRosterRecord
	for _, year := range result.Years {
		recs, err := s.source.FetchWeeklyRosters(ctx, year)
		if err != nil {
			s.logger.WithError(err).WithField("year", year).Warn("该年名单拉取失败，跳过")
			continue
		}
		result.YearsLoaded++
		rawAll = append(rawAll, recs...)
	}
	if result.YearsLoaded == 0 {
		return nil, fmt.Errorf("所有赛季的名单数据均拉取失败")
	}
	rawAll = pipeline.FilterGameSegments(rawAll, s.cfg.ETL.GameSegments)
	s.logger.Infof("比赛阶段过滤后剩余%d条名单记录", len(rawAll))

	// 2. 主目录与选秀记录（均为可恢复缺陷：失败则按空目录继续）
	master, err := s.source.FetchPlayerMaster(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("球员主目录拉取失败，按空目录继续")
		master = nil
	}
	drafts, err := s.source.FetchDraftPicks(ctx, result.Years)
	if err != nil {
		s.logger.WithError(err).Warn("选秀记录拉取失败，draft_year将全部缺省为0")
		drafts = nil
	}

	// 3. 可选显著性过滤：在重量级join之前收缩工作集
	var statsAll []model.SeasonalStatRecord
	if s.cfg.ETL.MinFantasyPoints > 0 {
		for _, year := range result.Years {
			stats, err := s.source.FetchSeasonalStats(ctx, year)
			if err != nil {
				s.logger.WithError(err).WithField("year", year).Warn("该年赛季数据拉取失败，跳过")
				continue
			}
			statsAll = append(statsAll, stats...)
		}
		set := pipeline.BuildSignificanceSet(statsAll, master, s.cfg.ETL.MinFantasyPoints)
		rawAll = pipeline.FilterSignificant(rawAll, set, s.logger)
	}

	// 4. 源合并 + 赛季收敛（消费完立即释放大中间体）
	rows, _ := pipeline.MergeSources(rawAll, master, drafts, s.logger)
	rawAll, drafts = nil, nil
	aggRows := pipeline.AggregateSeasonTeam(rows)
	rows = nil
	s.logger.Infof("赛季收敛完成，共%d条收敛行", len(aggRows))

	// 5. 球员汇总（canonical_id 全缺为致命）
	players, err := pipeline.SummarizePlayers(aggRows, s.logger)
	if err != nil {
		return nil, err
	}
	result.Players = len(players)

	// 6. 估算永远先行（只读），供日志与 dry-run 结果使用
	gen := pipeline.NewGenerator(s.edgeCaps(), s.logger)
	result.Estimate = gen.Estimate(aggRows)
	s.logger.WithFields(logrus.Fields{
		"total":        result.Estimate.Total,
		"capped_total": result.Estimate.CappedTotal,
		"safe":         result.Estimate.Safe,
	}).Info("边数估算完成")

	if dryRun {
		result.DurationSeconds = time.Since(start).Seconds()
		s.logger.WithField("run_id", result.RunID).Info("DRY RUN：跳过全部落库")
		return result, nil
	}

	// 7. 球员先落库（边生成任何问题都不阻塞球员加载）
	if err := s.loaderRepo.LoadPlayers(ctx, players); err != nil {
		return nil, err
	}
	if s.cfg.ETL.MinFantasyPoints > 0 {
		if err := s.persistSeasonalStats(ctx, statsAll, players); err != nil {
			return nil, err
		}
	}
	statsAll, master = nil, nil

	// 8. 收敛行写入暂存表，两类消费者（边生成各维度）独立扫描
	if err := s.stagingRepo.ReplaceAll(ctx, aggRows); err != nil {
		return nil, fmt.Errorf("写入暂存表失败: %w", err)
	}
	players, aggRows = nil, nil

	if err := s.generateAndLoadEdges(ctx, gen, result); err != nil {
		return nil, err
	}

	// 9. 收尾：清空暂存表、建索引、完整性清扫
	if err := s.stagingRepo.Clear(ctx); err != nil {
		s.logger.WithError(err).Warn("清空暂存表失败")
	}
	if err := s.loaderRepo.CreateIndexes(ctx); err != nil {
		return nil, err
	}
	orphans, err := s.loaderRepo.SweepOrphanConnections(ctx)
	if err != nil {
		return nil, err
	}
	result.OrphansRemoved = orphans
	if orphans > 0 {
		// 非零说明上游有缺陷，值得排查，不是常规现象
		s.logger.WithField("orphans", orphans).Warn("完整性清扫删除了孤儿边")
	}

	// 全量运行结束自动做一次数据校验（只读，失败不影响运行结果）
	if _, err := s.validate.Validate(ctx); err != nil {
		s.logger.WithError(err).Warn("落库后数据校验失败")
	}

	result.DurationSeconds = time.Since(start).Seconds()
	s.logger.WithFields(logrus.Fields{
		"run_id":      result.RunID,
		"players":     result.Players,
		"connections": result.TotalConnections,
		"duration_s":  result.DurationSeconds,
	}).Info("ETL运行完成")
	return result, nil
}

// generateAndLoadEdges 按固定优先级顺序生成并增量落库四个维度的边：
// teammate（按赛季切片）→ college → draft_class → position。
// 全局计数跨维度线性传递；上限耗尽后后续维度整体跳过。
// 整个运行对边表的第一次写入使用替换语义，其后全部追加
func (s *ETLService) generateAndLoadEdges(ctx context.Context, gen *pipeline.Generator, result *RunResult) error {
	used := 0
	firstBatch := true

	load := func(connType model.ConnectionType, edges []*model.Connection) error {
		if err := s.loaderRepo.LoadConnections(ctx, edges, firstBatch); err != nil {
			return err
		}
		firstBatch = false
		result.EdgeCounts[connType] += len(edges)
		result.TotalConnections += len(edges)
		return nil
	}

	// teammate：价值最高，逐赛季扫描暂存表，边生成边落库
	seasons, err := s.stagingRepo.ListSeasons(ctx)
	if err != nil {
		return fmt.Errorf("读取暂存表赛季失败: %w", err)
	}
	for _, season := range seasons {
		rows, err := s.stagingRepo.ListBySeason(ctx, season)
		if err != nil {
			return fmt.Errorf("读取%d赛季暂存行失败: %w", season, err)
		}
		var edges []*model.Connection
		edges, used = gen.TeammateEdges(rows, used)
		if err := load(model.ConnectionTeammate, edges); err != nil {
			return err
		}
	}

	// 其余维度共用一次列裁剪全量扫描
	dimRows, err := s.stagingRepo.ListForDimensions(ctx)
	if err != nil {
		return fmt.Errorf("读取暂存表维度列失败: %w", err)
	}
	var edges []*model.Connection
	edges, used = gen.CollegeEdges(dimRows, used)
	if err := load(model.ConnectionCollege, edges); err != nil {
		return err
	}
	edges, used = gen.DraftClassEdges(dimRows, used)
	if err := load(model.ConnectionDraftClass, edges); err != nil {
		return err
	}
	edges, used = gen.PositionEdges(dimRows, used)
	if err := load(model.ConnectionPosition, edges); err != nil {
		return err
	}

	// 没有任何维度产出时也要完成边表替换（旧数据必须清掉）
	if firstBatch {
		if err := s.loaderRepo.LoadConnections(ctx, nil, true); err != nil {
			return err
		}
	}
	return nil
}

// persistSeasonalStats 落库显著性过滤实际用到的赛季数据（只保留本次入库球员的行）
func (s *ETLService) persistSeasonalStats(ctx context.Context, stats []model.SeasonalStatRecord, players []*model.Player) error {
	playerIDs := make(map[string]struct{}, len(players))
	for _, p := range players {
		playerIDs[p.ID] = struct{}{}
	}
	var rows []*model.PlayerSeasonalStat
	for _, st := range stats {
		if _, ok := playerIDs[st.PrimaryID]; !ok {
			continue
		}
		rows = append(rows, &model.PlayerSeasonalStat{
			PlayerID:      st.PrimaryID,
			Season:        st.Season,
			FantasyPoints: st.FantasyPoints,
		})
	}
	if err := s.loaderRepo.ReplaceSeasonalStats(ctx, rows); err != nil {
		return fmt.Errorf("写入赛季数据失败: %w", err)
	}
	return nil
}

func (s *ETLService) edgeCaps() pipeline.EdgeCaps {
	return pipeline.EdgeCaps{
		MaxTotalEdges:     s.cfg.ETL.Edges.MaxTotalEdges,
		TeammateGroupSize: s.cfg.ETL.Edges.TeammateGroupSize,
		CollegeGroupSize:  s.cfg.ETL.Edges.CollegeGroupSize,
		DraftGroupSize:    s.cfg.ETL.Edges.DraftGroupSize,
		PositionGroupSize: s.cfg.ETL.Edges.PositionGroupSize,
		Positions:         s.cfg.ETL.Edges.Positions,
		StarNames:         s.cfg.ETL.StarNames,
	}
}
