package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"RosterGraph/internal/config"
	"RosterGraph/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Player{},
		&model.Connection{},
		&model.PlayerSeasonalStat{},
		&model.RosterRow{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.ETL.StartYear = 2023
	cfg.ETL.EndYear = 2023
	cfg.ETL.Edges.MaxTotalEdges = 100000
	config.ApplyDefaults(cfg)
	return cfg
}

// fakeSource 返回固定提取件的内存数据源
type fakeSource struct {
	rosters  map[int][]model.RawRosterRecord
	master   []model.MasterCatalogRecord
	drafts   []model.DraftRecord
	stats    map[int][]model.SeasonalStatRecord
	failYear map[int]bool
}

func (f *fakeSource) GetName() string { return "fake" }

func (f *fakeSource) FetchWeeklyRosters(_ context.Context, year int) ([]model.RawRosterRecord, error) {
	if f.failYear[year] {
		return nil, fmt.Errorf("upstream missing %d", year)
	}
	return f.rosters[year], nil
}

func (f *fakeSource) FetchPlayerMaster(_ context.Context) ([]model.MasterCatalogRecord, error) {
	return f.master, nil
}

func (f *fakeSource) FetchDraftPicks(_ context.Context, _ []int) ([]model.DraftRecord, error) {
	return f.drafts, nil
}

func (f *fakeSource) FetchSeasonalStats(_ context.Context, year int) ([]model.SeasonalStatRecord, error) {
	return f.stats[year], nil
}

func fixtureSource() *fakeSource {
	return &fakeSource{
		rosters: map[int][]model.RawRosterRecord{
			2023: {
				{Season: 2023, Week: 1, GameSegment: "REG", Team: "KC", PlayerName: "Patrick Mahomes", PrimaryID: "g1", SecondaryID: "e1", Position: "QB", College: "Texas Tech"},
				{Season: 2023, Week: 1, GameSegment: "REG", Team: "KC", PlayerName: "Travis Kelce", PrimaryID: "g2", SecondaryID: "e2", Position: "TE", College: "Cincinnati"},
				{Season: 2023, Week: 2, GameSegment: "REG", Team: "KC", PlayerName: "Patrick Mahomes", PrimaryID: "g1", SecondaryID: "e1", Position: "QB", College: "Texas Tech"},
				{Season: 2023, Week: 1, GameSegment: "REG", Team: "NE", PlayerName: "Rhamondre Stevenson", PrimaryID: "g3", SecondaryID: "e3", Position: "RB", College: "Oklahoma"},
				{Season: 2023, Week: 1, GameSegment: "PRE", Team: "KC", PlayerName: "Cut In Camp", PrimaryID: "g4", Position: "WR"},
			},
		},
		master: []model.MasterCatalogRecord{
			{SecondaryID: "e1", PrimaryID: "g1", DisplayName: "Patrick Mahomes", College: "Texas Tech", Position: "QB"},
		},
		drafts: []model.DraftRecord{
			{PrimaryID: "g1", DraftSeason: 2017},
			{PrimaryID: "g2", DraftSeason: 2013},
		},
		stats: map[int][]model.SeasonalStatRecord{},
	}
}

func TestRunFullRebuild(t *testing.T) {
	db := testDB(t)
	svc := NewETLService(db, testLogger(), testConfig(), fixtureSource())

	result, err := svc.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// 季前赛记录被比赛阶段过滤掉，剩3名球员
	if result.Players != 3 {
		t.Fatalf("players = %d, want 3", result.Players)
	}
	var playerCount int64
	db.Model(&model.Player{}).Count(&playerCount)
	if playerCount != 3 {
		t.Fatalf("player rows = %d, want 3", playerCount)
	}

	// teammate: KC组(g1,g2)=1对；NE组单人=0
	if result.EdgeCounts[model.ConnectionTeammate] != 1 {
		t.Fatalf("teammate edges = %d, want 1", result.EdgeCounts[model.ConnectionTeammate])
	}
	// draft_class: g1=2017, g2=2013，各自单人组 → 0
	if result.EdgeCounts[model.ConnectionDraftClass] != 0 {
		t.Fatalf("draft edges = %d, want 0", result.EdgeCounts[model.ConnectionDraftClass])
	}
	var connCount int64
	db.Model(&model.Connection{}).Count(&connCount)
	if int(connCount) != result.TotalConnections {
		t.Fatalf("db connections = %d, result says %d", connCount, result.TotalConnections)
	}

	// 暂存表跑完即清
	var stagingCount int64
	db.Model(&model.RosterRow{}).Count(&stagingCount)
	if stagingCount != 0 {
		t.Fatalf("staging rows = %d, want 0", stagingCount)
	}
	if result.OrphansRemoved != 0 {
		t.Fatalf("orphans removed = %d, want 0", result.OrphansRemoved)
	}
	if result.Estimate == nil || !result.Estimate.Safe {
		t.Fatalf("estimate = %+v", result.Estimate)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	db := testDB(t)
	svc := NewETLService(db, testLogger(), testConfig(), fixtureSource())
	ctx := context.Background()

	first, err := svc.Run(ctx, false)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := svc.Run(ctx, false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.Players != second.Players || first.TotalConnections != second.TotalConnections {
		t.Fatalf("runs diverge: %+v vs %+v", first, second)
	}

	var playerCount, connCount int64
	db.Model(&model.Player{}).Count(&playerCount)
	db.Model(&model.Connection{}).Count(&connCount)
	if int(playerCount) != second.Players || int(connCount) != second.TotalConnections {
		t.Fatalf("tables accumulated instead of replacing: players=%d conns=%d", playerCount, connCount)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	db := testDB(t)
	svc := NewETLService(db, testLogger(), testConfig(), fixtureSource())

	result, err := svc.Run(context.Background(), true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.DryRun || result.Estimate == nil {
		t.Fatalf("result = %+v", result)
	}
	var playerCount, connCount, stagingCount int64
	db.Model(&model.Player{}).Count(&playerCount)
	db.Model(&model.Connection{}).Count(&connCount)
	db.Model(&model.RosterRow{}).Count(&stagingCount)
	if playerCount != 0 || connCount != 0 || stagingCount != 0 {
		t.Fatalf("dry run wrote rows: players=%d conns=%d staging=%d", playerCount, connCount, stagingCount)
	}
}

func TestRunSkipsFailedYears(t *testing.T) {
	db := testDB(t)
	src := fixtureSource()
	src.rosters[2022] = []model.RawRosterRecord{
		{Season: 2022, Week: 1, GameSegment: "REG", Team: "KC", PlayerName: "Patrick Mahomes", PrimaryID: "g1", Position: "QB"},
	}
	src.failYear = map[int]bool{2022: true}
	cfg := testConfig()
	cfg.ETL.StartYear = 2022

	result, err := svcRun(t, db, cfg, src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.YearsLoaded != 1 {
		t.Fatalf("years loaded = %d, want 1", result.YearsLoaded)
	}
}

func TestRunFailsWhenAllYearsFail(t *testing.T) {
	db := testDB(t)
	src := fixtureSource()
	src.failYear = map[int]bool{2023: true}

	if _, err := svcRun(t, db, testConfig(), src); err == nil {
		t.Fatal("expected error when every year fails")
	}
}

func TestRunZeroEdgeBudgetStillLoadsPlayers(t *testing.T) {
	db := testDB(t)
	cfg := testConfig()
	cfg.ETL.Edges.MaxTotalEdges = 0

	result, err := svcRun(t, db, cfg, fixtureSource())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Players != 3 {
		t.Fatalf("players = %d, want 3", result.Players)
	}
	if result.TotalConnections != 0 {
		t.Fatalf("connections = %d, want 0", result.TotalConnections)
	}
	var connCount int64
	db.Model(&model.Connection{}).Count(&connCount)
	if connCount != 0 {
		t.Fatalf("db connections = %d, want 0", connCount)
	}
}

func TestRunSignificanceFilterPersistsStats(t *testing.T) {
	db := testDB(t)
	cfg := testConfig()
	cfg.ETL.MinFantasyPoints = 50
	src := fixtureSource()
	src.stats = map[int][]model.SeasonalStatRecord{
		2023: {
			{PrimaryID: "g1", Season: 2023, FantasyPoints: 356.7},
			{PrimaryID: "g2", Season: 2023, FantasyPoints: 120.0},
			{PrimaryID: "g3", Season: 2023, FantasyPoints: 4.2}, // 阈值之下
		},
	}

	result, err := svcRun(t, db, cfg, src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Players != 2 {
		t.Fatalf("players = %d, want 2 (g3 filtered)", result.Players)
	}
	var statCount int64
	db.Model(&model.PlayerSeasonalStat{}).Count(&statCount)
	if statCount != 2 {
		t.Fatalf("seasonal stat rows = %d, want 2", statCount)
	}
}

func svcRun(t *testing.T, db *gorm.DB, cfg *config.Config, src *fakeSource) (*RunResult, error) {
	t.Helper()
	return NewETLService(db, testLogger(), cfg, src).Run(context.Background(), false)
}
