package repository

import (
	"context"
	"testing"

	"RosterGraph/internal/model"

	"gorm.io/gorm"
)

func seedGraph(t *testing.T, db *gorm.DB) {
	t.Helper()
	players := []*model.Player{
		{ID: "g1", Name: "Patrick Mahomes", Position: "QB", College: "Texas Tech"},
		{ID: "g2", Name: "Travis Kelce", Position: "TE", College: "Cincinnati"},
		{ID: "g3", Name: "Lonely Guy", Position: "K", College: "Unknown"},
	}
	if err := db.Create(players).Error; err != nil {
		t.Fatalf("seed players: %v", err)
	}
	conns := []*model.Connection{
		{Player1ID: "g1", Player2ID: "g2", ConnectionType: model.ConnectionTeammate},
		{Player1ID: "g2", Player2ID: "g1", ConnectionType: model.ConnectionPosition},
	}
	if err := db.Create(conns).Error; err != nil {
		t.Fatalf("seed connections: %v", err)
	}
}

func TestListPlayersFilter(t *testing.T) {
	db := testDB(t)
	seedGraph(t, db)
	repo := NewPlayerRepository(db)
	ctx := context.Background()

	players, total, err := repo.ListPlayers(ctx, PlayerFilter{Name: "mahomes"}, 1, 20)
	if err != nil {
		t.Fatalf("ListPlayers: %v", err)
	}
	if total != 1 || len(players) != 1 || players[0].ID != "g1" {
		t.Fatalf("case-insensitive name filter failed: total=%d players=%+v", total, players)
	}

	_, total, err = repo.ListPlayers(ctx, PlayerFilter{Position: "TE"}, 1, 20)
	if err != nil {
		t.Fatalf("ListPlayers: %v", err)
	}
	if total != 1 {
		t.Fatalf("position filter total = %d, want 1", total)
	}
}

func TestGetPlayerByID(t *testing.T) {
	db := testDB(t)
	seedGraph(t, db)
	repo := NewPlayerRepository(db)
	ctx := context.Background()

	p, err := repo.GetPlayerByID(ctx, "g1")
	if err != nil {
		t.Fatalf("GetPlayerByID: %v", err)
	}
	if p.Name != "Patrick Mahomes" {
		t.Fatalf("name = %q", p.Name)
	}
	if _, err := repo.GetPlayerByID(ctx, "missing"); err == nil {
		t.Fatal("expected error for missing player")
	}
}

func TestListConnectionsByPlayer(t *testing.T) {
	db := testDB(t)
	seedGraph(t, db)
	repo := NewPlayerRepository(db)
	ctx := context.Background()

	// g1 出现在任一端都算
	conns, err := repo.ListConnectionsByPlayer(ctx, "g1", "", 100)
	if err != nil {
		t.Fatalf("ListConnectionsByPlayer: %v", err)
	}
	if len(conns) != 2 {
		t.Fatalf("expected 2 connections, got %d", len(conns))
	}

	conns, err = repo.ListConnectionsByPlayer(ctx, "g1", string(model.ConnectionTeammate), 100)
	if err != nil {
		t.Fatalf("ListConnectionsByPlayer: %v", err)
	}
	if len(conns) != 1 {
		t.Fatalf("type filter expected 1, got %d", len(conns))
	}
}

func TestValidationQueries(t *testing.T) {
	db := testDB(t)
	seedGraph(t, db)
	repo := NewPlayerRepository(db)
	ctx := context.Background()

	n, err := repo.CountPlayers(ctx)
	if err != nil || n != 3 {
		t.Fatalf("CountPlayers = %d (%v), want 3", n, err)
	}

	byType, err := repo.CountConnectionsByType(ctx)
	if err != nil {
		t.Fatalf("CountConnectionsByType: %v", err)
	}
	if byType[model.ConnectionTeammate] != 1 || byType[model.ConnectionPosition] != 1 {
		t.Fatalf("byType = %v", byType)
	}

	orphans, err := repo.CountOrphanConnections(ctx)
	if err != nil || orphans != 0 {
		t.Fatalf("CountOrphanConnections = %d (%v), want 0", orphans, err)
	}

	dist, err := repo.ConnectionDistribution(ctx)
	if err != nil {
		t.Fatalf("ConnectionDistribution: %v", err)
	}
	if dist.MaxConnections != 2 || dist.MinConnections != 0 {
		t.Fatalf("distribution = %+v", dist)
	}
	if dist.ZeroConnections != 1 {
		t.Fatalf("zero connections = %d, want 1 (Lonely Guy)", dist.ZeroConnections)
	}

	samples, err := repo.SamplePlayersByNames(ctx, []string{"Mahomes"})
	if err != nil {
		t.Fatalf("SamplePlayersByNames: %v", err)
	}
	if len(samples) != 1 || samples[0].Connections != 2 {
		t.Fatalf("samples = %+v", samples)
	}
}
