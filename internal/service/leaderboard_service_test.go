package service

import (
	"errors"
	"testing"
	"time"

	"pontox/internal/domain"
)

func TestLeaderboardWeek(t *testing.T) {
	e := newTestEnv(t)
	ana := e.user("Ana", "ana@example.com")
	bruno := e.user("Bruno", "bruno@example.com")
	carla := e.user("Carla", "carla@example.com")
	dora := e.user("Dora", "dora@example.com")

	// Ten days ago: only visible in longer windows.
	e.credit(carla.ID, 1000)
	e.credit(ana.ID, 10)
	e.advance(10 * 24 * time.Hour)

	e.credit(ana.ID, 100)
	e.credit(ana.ID, 50)
	e.advance(time.Minute)
	e.credit(bruno.ID, 200)
	if _, err := e.ledger.AddPoints(e.ctx, bruno.ID, -150, domain.ReasonRedemption, "resgate"); err != nil {
		t.Fatal(err)
	}
	e.credit(dora.ID, 30)
	if _, err := e.ledger.AddPoints(e.ctx, dora.ID, -30, domain.ReasonManualAdjustment, "estorno"); err != nil {
		t.Fatal(err)
	}

	week, err := e.leaderboard.Leaderboard(e.ctx, domain.TimeframeWeek, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(week) != 2 {
		t.Fatalf("week = %+v", week)
	}
	if week[0].UserID != bruno.ID || week[0].Points != 200 || week[0].Rank != 1 || week[0].Name != "Bruno" {
		t.Errorf("first = %+v", week[0])
	}
	if week[1].UserID != ana.ID || week[1].Points != 150 || week[1].Rank != 2 {
		t.Errorf("second = %+v", week[1])
	}

	all, err := e.leaderboard.Leaderboard(e.ctx, domain.TimeframeAll, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].UserID != carla.ID || all[0].Points != 1000 {
		t.Errorf("all = %+v", all)
	}
}

func TestLeaderboardTieBreak(t *testing.T) {
	e := newTestEnv(t)
	ana := e.user("Ana", "ana@example.com")
	bruno := e.user("Bruno", "bruno@example.com")
	carla := e.user("Carla", "carla@example.com")

	e.credit(bruno.ID, 100)
	e.advance(time.Second)
	e.credit(ana.ID, 100)
	e.credit(carla.ID, 100)

	got, err := e.leaderboard.Leaderboard(e.ctx, domain.TimeframeMonth, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint{bruno.ID, ana.ID, carla.ID}
	for i, id := range want {
		if got[i].UserID != id {
			t.Errorf("rank %d = user %d, want %d", i+1, got[i].UserID, id)
		}
	}
}

func TestLeaderboardCacheInvalidatedByLedger(t *testing.T) {
	e := newTestEnv(t)
	ana := e.user("Ana", "ana@example.com")
	e.credit(ana.ID, 10)
	if got, _ := e.leaderboard.Leaderboard(e.ctx, domain.TimeframeAll, 10); len(got) != 1 || got[0].Points != 10 {
		t.Fatalf("first read = %+v", got)
	}
	e.credit(ana.ID, 5)
	if got, _ := e.leaderboard.Leaderboard(e.ctx, domain.TimeframeAll, 10); got[0].Points != 15 {
		t.Errorf("stale leaderboard: %+v", got)
	}
}

func TestLeaderboardInvalidTimeframe(t *testing.T) {
	e := newTestEnv(t)
	if _, err := e.leaderboard.Leaderboard(e.ctx, "decade", 10); !errors.Is(err, ErrInvalidTimeframe) {
		t.Errorf("err = %v", err)
	}
}
