package repository

import (
	"context"
	"io"
	"path/filepath"
	"testing"

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

func silentLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestLoadPlayersReplaces(t *testing.T) {
	db := testDB(t)
	repo := NewLoaderRepository(db, silentLogger(), 2, 0)
	ctx := context.Background()

	first := []*model.Player{
		{ID: "g1", Name: "A"}, {ID: "g2", Name: "B"}, {ID: "g3", Name: "C"},
	}
	if err := repo.LoadPlayers(ctx, first); err != nil {
		t.Fatalf("LoadPlayers: %v", err)
	}

	// 第二次全量重建必须替换第一次的数据
	second := []*model.Player{{ID: "g9", Name: "Z"}}
	if err := repo.LoadPlayers(ctx, second); err != nil {
		t.Fatalf("LoadPlayers: %v", err)
	}

	var count int64
	db.Model(&model.Player{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 player after replace, got %d", count)
	}
	var p model.Player
	db.First(&p)
	if p.ID != "g9" {
		t.Fatalf("surviving player = %q, want g9", p.ID)
	}
}

func TestLoadConnectionsFirstBatchSemantics(t *testing.T) {
	db := testDB(t)
	repo := NewLoaderRepository(db, silentLogger(), 500, 0)
	ctx := context.Background()

	stale := []*model.Connection{
		{Player1ID: "old1", Player2ID: "old2", ConnectionType: model.ConnectionTeammate},
	}
	if err := repo.LoadConnections(ctx, stale, true); err != nil {
		t.Fatalf("LoadConnections: %v", err)
	}

	// 新一次运行：首批替换，其后追加
	batch1 := []*model.Connection{
		{Player1ID: "g1", Player2ID: "g2", ConnectionType: model.ConnectionTeammate},
	}
	batch2 := []*model.Connection{
		{Player1ID: "g1", Player2ID: "g3", ConnectionType: model.ConnectionCollege},
		{Player1ID: "g2", Player2ID: "g3", ConnectionType: model.ConnectionCollege},
	}
	if err := repo.LoadConnections(ctx, batch1, true); err != nil {
		t.Fatalf("LoadConnections: %v", err)
	}
	if err := repo.LoadConnections(ctx, batch2, false); err != nil {
		t.Fatalf("LoadConnections: %v", err)
	}

	var count int64
	db.Model(&model.Connection{}).Count(&count)
	if count != 3 {
		t.Fatalf("expected 3 connections, got %d", count)
	}
	var oldCount int64
	db.Model(&model.Connection{}).Where("player1_id = ?", "old1").Count(&oldCount)
	if oldCount != 0 {
		t.Fatal("stale connections must be cleared by the first batch")
	}
}

func TestLoadConnectionsEmptyFirstBatchClearsTable(t *testing.T) {
	db := testDB(t)
	repo := NewLoaderRepository(db, silentLogger(), 500, 0)
	ctx := context.Background()

	stale := []*model.Connection{
		{Player1ID: "old1", Player2ID: "old2", ConnectionType: model.ConnectionTeammate},
	}
	if err := repo.LoadConnections(ctx, stale, true); err != nil {
		t.Fatalf("LoadConnections: %v", err)
	}
	// 零产出的运行也要完成替换语义
	if err := repo.LoadConnections(ctx, nil, true); err != nil {
		t.Fatalf("LoadConnections: %v", err)
	}
	var count int64
	db.Model(&model.Connection{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected empty table, got %d rows", count)
	}
}

func TestSweepOrphanConnections(t *testing.T) {
	db := testDB(t)
	repo := NewLoaderRepository(db, silentLogger(), 500, 0)
	ctx := context.Background()

	if err := repo.LoadPlayers(ctx, []*model.Player{
		{ID: "g1", Name: "A"}, {ID: "g2", Name: "B"},
	}); err != nil {
		t.Fatalf("LoadPlayers: %v", err)
	}
	conns := []*model.Connection{
		{Player1ID: "g1", Player2ID: "g2", ConnectionType: model.ConnectionTeammate}, // 健康
		{Player1ID: "g1", Player2ID: "ghost", ConnectionType: model.ConnectionTeammate},
		{Player1ID: "ghost", Player2ID: "g2", ConnectionType: model.ConnectionCollege},
	}
	if err := repo.LoadConnections(ctx, conns, true); err != nil {
		t.Fatalf("LoadConnections: %v", err)
	}

	removed, err := repo.SweepOrphanConnections(ctx)
	if err != nil {
		t.Fatalf("SweepOrphanConnections: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	var count int64
	db.Model(&model.Connection{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 surviving connection, got %d", count)
	}
}

func TestCreateIndexesIdempotent(t *testing.T) {
	db := testDB(t)
	repo := NewLoaderRepository(db, silentLogger(), 500, 0)
	ctx := context.Background()

	if err := repo.CreateIndexes(ctx); err != nil {
		t.Fatalf("CreateIndexes: %v", err)
	}
	if err := repo.CreateIndexes(ctx); err != nil {
		t.Fatalf("CreateIndexes second run: %v", err)
	}
}

func TestReplaceSeasonalStats(t *testing.T) {
	db := testDB(t)
	repo := NewLoaderRepository(db, silentLogger(), 500, 0)
	ctx := context.Background()

	if err := repo.ReplaceSeasonalStats(ctx, []*model.PlayerSeasonalStat{
		{PlayerID: "g1", Season: 2022, FantasyPoints: 100},
		{PlayerID: "g1", Season: 2023, FantasyPoints: 200},
	}); err != nil {
		t.Fatalf("ReplaceSeasonalStats: %v", err)
	}
	if err := repo.ReplaceSeasonalStats(ctx, []*model.PlayerSeasonalStat{
		{PlayerID: "g2", Season: 2023, FantasyPoints: 50},
	}); err != nil {
		t.Fatalf("ReplaceSeasonalStats: %v", err)
	}
	var count int64
	db.Model(&model.PlayerSeasonalStat{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected replace semantics, got %d rows", count)
	}
}
