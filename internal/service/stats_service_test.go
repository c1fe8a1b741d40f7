package service

import (
	"errors"
	"testing"
	"time"

	"pontox/internal/domain"
)

func TestDashboard(t *testing.T) {
	e := newTestEnv(t, withoutAchievements())
	ana := e.register("Ana Souza", "ana@example.com", "")
	bruno := e.register("Bruno Lima", "bruno@example.com", ana.Code())
	sp := e.spot("Cristo Redentor", -22.9519, -43.2105, 0)
	if _, err := e.checkins.CheckIn(e.ctx, bruno.ID, sp.ID, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := e.rewards.Redeem(e.ctx, ana.ID, "desconto-10", ""); err != nil {
		t.Fatal(err)
	}

	d, err := e.stats.Dashboard(e.ctx)
	if err != nil {
		t.Fatal(err)
	}
	// ana: 100 + 200 referral; bruno: 100 + 50 referral + 50 check-in.
	if d.TotalUsers != 2 || d.PointsIssued != 500 || d.PointsRedeemed != 150 || d.PointsOutstanding != 350 {
		t.Errorf("totals = users %d issued %d redeemed %d outstanding %d", d.TotalUsers, d.PointsIssued, d.PointsRedeemed, d.PointsOutstanding)
	}
	if d.TotalCheckIns != 1 || d.Referrals[domain.ReferralStatusRewarded] != 1 || d.Redemptions[domain.RedemptionStatusActive] != 1 {
		t.Errorf("counts = checkins %d referrals %v redemptions %v", d.TotalCheckIns, d.Referrals, d.Redemptions)
	}
	if d.LevelDistribution["Bronze"] != 2 || d.NewUsersWeek != 2 {
		t.Errorf("levels = %v new %d", d.LevelDistribution, d.NewUsersWeek)
	}
	if len(d.TopEarners) != 2 || d.TopEarners[0].UserID != ana.ID {
		t.Errorf("top earners = %+v", d.TopEarners)
	}
	if len(d.CheckInsBySpot) != 1 || d.CheckInsBySpot[0].CheckIns != 1 {
		t.Errorf("by spot = %+v", d.CheckInsBySpot)
	}
}

func TestActivityDaily(t *testing.T) {
	e := newTestEnv(t, withoutAchievements())
	u := e.user("Ana", "ana@example.com")
	e.advance(-2 * 24 * time.Hour)
	e.credit(u.ID, 40)
	e.advance(2 * 24 * time.Hour)
	e.credit(u.ID, 60)
	if _, err := e.ledger.AddPoints(e.ctx, u.ID, -30, domain.ReasonRedemption, ""); err != nil {
		t.Fatal(err)
	}

	series, err := e.stats.Activity(e.ctx, PeriodDaily, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 3 {
		t.Fatalf("series = %+v", series)
	}
	if series[0].Period != "2024-03-08" || series[0].PointsIssued != 40 {
		t.Errorf("oldest = %+v", series[0])
	}
	if series[1].PointsIssued != 0 {
		t.Errorf("middle = %+v", series[1])
	}
	if series[2].Period != "2024-03-10" || series[2].PointsIssued != 60 || series[2].PointsRedeemed != 30 {
		t.Errorf("today = %+v", series[2])
	}
}

func TestActivityWeeklyAndMonthly(t *testing.T) {
	e := newTestEnv(t)
	e.user("Ana", "ana@example.com")

	weeks, err := e.stats.Activity(e.ctx, PeriodWeekly, 2)
	if err != nil {
		t.Fatal(err)
	}
	// 2024-03-10 is a Sunday; its week starts on Monday 2024-03-04.
	if len(weeks) != 2 || weeks[1].Period != "2024-03-04" || weeks[0].Period != "2024-02-26" || weeks[1].Signups != 1 {
		t.Errorf("weeks = %+v", weeks)
	}
	months, err := e.stats.Activity(e.ctx, PeriodMonthly, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(months) != 3 || months[0].Period != "2024-01" || months[2].Period != "2024-03" {
		t.Errorf("months = %+v", months)
	}
	if _, err := e.stats.Activity(e.ctx, "hourly", 3); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("err = %v", err)
	}
}
