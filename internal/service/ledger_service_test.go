package service

import (
	"errors"
	"testing"

	"pontox/internal/domain"
	"pontox/internal/repository"
	"pontox/internal/ws"
	"pontox/pkg/level"
)

func TestAddPointsAppendsOneTransaction(t *testing.T) {
	e := newTestEnv(t)
	u := e.user("Ana", "ana@example.com")

	entry, err := e.ledger.AddPoints(e.ctx, u.ID, 100, domain.ReasonRegister, "Bônus de cadastro")
	if err != nil {
		t.Fatal(err)
	}
	if entry.Balance != 100 || entry.Transaction.Points != 100 {
		t.Errorf("entry = %+v", entry)
	}
	got := e.reload(u.ID)
	if got.Points != 100 || got.LifetimePoints != 100 || got.Level != string(level.Bronze) {
		t.Errorf("user = points %d lifetime %d level %s", got.Points, got.LifetimePoints, got.Level)
	}
	list, total, err := e.store.Points().List(e.ctx, repository.TransactionFilter{UserID: u.ID})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || list[0].Points != 100 || list[0].Reason != domain.ReasonRegister {
		t.Errorf("transactions = %+v", list)
	}
	if n := e.pub.count(u.ID, ws.EventPointsUpdated); n != 1 {
		t.Errorf("points_updated events = %d, want 1", n)
	}
}

func TestAddPointsRejects(t *testing.T) {
	e := newTestEnv(t)
	u := e.user("Ana", "ana@example.com")
	e.credit(u.ID, 50)

	tests := []struct {
		name   string
		userID uint
		delta  int64
		reason string
		want   error
	}{
		{"unknown user", 999, 10, domain.ReasonCheckin, ErrUserNotFound},
		{"invalid reason", u.ID, 10, "lottery", ErrInvalidReason},
		{"zero delta", u.ID, 0, domain.ReasonCheckin, ErrZeroPoints},
		{"overdraft", u.ID, -51, domain.ReasonRedemption, ErrInsufficientPoints},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.ledger.AddPoints(e.ctx, tt.userID, tt.delta, tt.reason, "")
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if got := e.reload(u.ID); got.Points != 50 {
		t.Errorf("points = %d after rejected appends, want 50", got.Points)
	}
	if _, total, _ := e.store.Points().List(e.ctx, repository.TransactionFilter{UserID: u.ID}); total != 1 {
		t.Errorf("transactions = %d, want 1", total)
	}
}

func TestRedemptionDoesNotLowerLevel(t *testing.T) {
	e := newTestEnv(t)
	u := e.user("Ana", "ana@example.com")
	e.credit(u.ID, 600)
	if got := e.reload(u.ID); got.Level != string(level.Silver) {
		t.Fatalf("level = %s, want Silver", got.Level)
	}
	if n := e.pub.count(u.ID, ws.EventLevelUp); n != 1 {
		t.Errorf("level_up events = %d, want 1", n)
	}

	if _, err := e.ledger.AddPoints(e.ctx, u.ID, -400, domain.ReasonRedemption, "resgate"); err != nil {
		t.Fatal(err)
	}
	got := e.reload(u.ID)
	if got.Points != 200 || got.LifetimePoints != 600 || got.Level != string(level.Silver) {
		t.Errorf("after redemption: points %d lifetime %d level %s", got.Points, got.LifetimePoints, got.Level)
	}
}

func TestLevelUpNotifies(t *testing.T) {
	e := newTestEnv(t)
	u := e.user("Ana", "ana@example.com")
	e.credit(u.ID, 1500)

	list, _, err := e.notify.List(e.ctx, u.ID, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Type != domain.NotifyLevelUp {
		t.Fatalf("notifications = %+v", list)
	}
}

func TestBalanceAndReconcile(t *testing.T) {
	e := newTestEnv(t)
	u := e.user("Ana", "ana@example.com")
	e.credit(u.ID, 300)
	if _, err := e.ledger.AddPoints(e.ctx, u.ID, -100, domain.ReasonRedemption, ""); err != nil {
		t.Fatal(err)
	}

	// Simulate drift in the materialised totals.
	stale := e.reload(u.ID)
	stale.Points, stale.LifetimePoints, stale.Level = 9999, 9999, string(level.Diamond)
	if err := e.store.Users().Update(e.ctx, stale); err != nil {
		t.Fatal(err)
	}

	bal, err := e.ledger.Balance(e.ctx, u.ID)
	if err != nil || bal != 200 {
		t.Fatalf("Balance = %d, %v; want 200", bal, err)
	}
	drifts, err := e.ledger.ReconcileAll(e.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(drifts) != 1 || drifts[0].StoredPoints != 9999 || drifts[0].LogPoints != 200 || drifts[0].LogLifetime != 300 {
		t.Errorf("drifts = %+v", drifts)
	}
	got := e.reload(u.ID)
	if got.Points != 200 || got.LifetimePoints != 300 || got.Level != string(level.Bronze) {
		t.Errorf("reconciled user = %+v", got)
	}
	if d, err := e.ledger.Reconcile(e.ctx, u.ID); err != nil || d != nil {
		t.Errorf("second reconcile = %+v, %v; want no drift", d, err)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	e := newTestEnv(t)
	u := e.user("Ana", "ana@example.com")
	for i := int64(1); i <= 3; i++ {
		e.credit(u.ID, i*10)
		e.advance(1)
	}
	list, total, err := e.ledger.History(e.ctx, u.ID, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(list) != 2 || list[0].Points != 30 || list[1].Points != 20 {
		t.Errorf("history = %+v total %d", list, total)
	}
}
