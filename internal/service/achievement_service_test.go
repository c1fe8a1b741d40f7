package service

import (
	"testing"

	"pontox/internal/domain"
	"pontox/internal/repository"
	"pontox/internal/ws"
)

func TestFirstCheckInUnlocksAchievement(t *testing.T) {
	e := newTestEnv(t, withAchievementPoints("primeiro-checkin", 25))
	u := e.user("Ana", "ana@example.com")
	sp := e.spot("Cristo Redentor", -22.9519, -43.2105, 0)

	res, err := e.checkins.CheckIn(e.ctx, u.ID, sp.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Unlocked) != 1 || res.Unlocked[0] != "primeiro-checkin" {
		t.Fatalf("unlocked = %v", res.Unlocked)
	}
	if got := e.reload(u.ID); got.Points != 50+25 {
		t.Errorf("points = %d, want 75", got.Points)
	}
	if n := e.pub.count(u.ID, ws.EventAchievementUnlocked); n != 1 {
		t.Errorf("achievement events = %d", n)
	}

	again, err := e.achievements.Evaluate(e.ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 0 {
		t.Errorf("re-evaluate unlocked %v", again)
	}
	txs, _, _ := e.store.Points().List(e.ctx, repository.TransactionFilter{UserID: u.ID, Reason: domain.ReasonAchievement})
	if len(txs) != 1 {
		t.Errorf("achievement transactions = %d, want 1", len(txs))
	}
}

func TestLifetimeAchievementChainsFromOtherUnlocks(t *testing.T) {
	e := newTestEnv(t, withAchievementPoints("primeiro-checkin", 25))
	u := e.user("Ana", "ana@example.com")
	// 1490 + 25 from primeiro-checkin crosses the 1500 threshold of "ouro" in the same evaluation.
	e.credit(u.ID, 1440)
	sp := e.spot("Cristo Redentor", -22.9519, -43.2105, 0)
	res, err := e.checkins.CheckIn(e.ctx, u.ID, sp.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]bool{}
	for _, id := range res.Unlocked {
		got[id] = true
	}
	if !got["primeiro-checkin"] || !got["ouro"] {
		t.Errorf("unlocked = %v", res.Unlocked)
	}
}

func TestSummaryAndRates(t *testing.T) {
	e := newTestEnv(t)
	ana := e.user("Ana", "ana@example.com")
	e.user("Bruno", "bruno@example.com")
	sp := e.spot("Cristo Redentor", -22.9519, -43.2105, 0)
	if _, err := e.checkins.CheckIn(e.ctx, ana.ID, sp.ID, nil); err != nil {
		t.Fatal(err)
	}

	sum, err := e.achievements.Summary(e.ctx, ana.ID)
	if err != nil {
		t.Fatal(err)
	}
	if sum.UnlockedCount != 1 || sum.Total != len(e.cat.Achievements) || len(sum.Locked) != sum.Total-1 {
		t.Errorf("summary = %+v", sum)
	}
	for _, st := range sum.Locked {
		if st.ID == "explorador" && st.Progress != 1 {
			t.Errorf("explorador progress = %d, want 1", st.Progress)
		}
	}

	rates, err := e.achievements.Rates(e.ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range rates {
		if r.ID == "primeiro-checkin" && (r.Unlocked != 1 || r.Rate != 50) {
			t.Errorf("rate = %+v", r)
		}
	}
}
