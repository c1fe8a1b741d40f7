package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"pontox/internal/domain"
	"pontox/internal/repository"
)

func TestCheckInOncePerSpotPerDay(t *testing.T) {
	e := newTestEnv(t, withoutAchievements())
	u := e.user("Ana", "ana@example.com")
	cristo := e.spot("Cristo Redentor", -22.9519, -43.2105, 80)
	pao := e.spot("Pão de Açúcar", -22.9486, -43.1566, 0)

	res, err := e.checkins.CheckIn(e.ctx, u.ID, cristo.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Points != 80 || res.Balance != 80 || res.Streak != 1 {
		t.Errorf("first check-in = %+v", res)
	}
	if _, err := e.checkins.CheckIn(e.ctx, u.ID, cristo.ID, nil); !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Errorf("same-day repeat err = %v", err)
	}
	if _, err := e.checkins.CheckIn(e.ctx, u.ID, pao.ID, nil); err != nil {
		t.Errorf("other spot same day: %v", err)
	}

	e.advance(24 * time.Hour)
	if _, err := e.checkins.CheckIn(e.ctx, u.ID, cristo.ID, nil); err != nil {
		t.Errorf("next day: %v", err)
	}
	if got := e.reload(u.ID); got.Points != 80+50+80 {
		t.Errorf("points = %d, want 210", got.Points)
	}
	list, total, err := e.checkins.History(e.ctx, u.ID, 0, 0)
	if err != nil || total != 3 || len(list) != 3 {
		t.Errorf("history = %d rows total %d err %v", len(list), total, err)
	}
}

func TestCheckInRejects(t *testing.T) {
	e := newTestEnv(t, withoutAchievements())
	u := e.user("Ana", "ana@example.com")
	sp := e.spot("Cristo Redentor", -22.9519, -43.2105, 0)
	closed := e.spot("Museu fechado", -22.90, -43.17, 0)
	closed.Active = false
	if err := e.store.Spots().Update(e.ctx, closed); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		spotID uint
		at     *Coordinates
		want   error
	}{
		{"unknown spot", 999, nil, ErrSpotNotFound},
		{"inactive spot", closed.ID, nil, ErrSpotInactive},
		{"bad coordinates", sp.ID, &Coordinates{Latitude: 123, Longitude: 0}, ErrInvalidCoordinates},
		{"too far", sp.ID, &Coordinates{Latitude: -22.9486, Longitude: -43.1566}, ErrTooFar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.checkins.CheckIn(e.ctx, u.ID, tt.spotID, tt.at); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if n, _ := e.store.CheckIns().Count(e.ctx); n != 0 {
		t.Errorf("check-ins stored = %d", n)
	}

	near := &Coordinates{Latitude: -22.9520, Longitude: -43.2100}
	res, err := e.checkins.CheckIn(e.ctx, u.ID, sp.ID, near)
	if err != nil {
		t.Fatal(err)
	}
	if res.CheckIn.Latitude == nil || *res.CheckIn.Latitude != near.Latitude {
		t.Errorf("coordinates not stored: %+v", res.CheckIn)
	}
}

func TestStreakBonus(t *testing.T) {
	e := newTestEnv(t, withoutAchievements())
	u := e.user("Ana", "ana@example.com")
	a := e.spot("Cristo Redentor", -22.9519, -43.2105, 10)
	b := e.spot("Pão de Açúcar", -22.9486, -43.1566, 10)

	for day := 1; day <= 7; day++ {
		res, err := e.checkins.CheckIn(e.ctx, u.ID, a.ID, nil)
		if err != nil {
			t.Fatalf("day %d: %v", day, err)
		}
		if res.Streak != day {
			t.Errorf("day %d streak = %d", day, res.Streak)
		}
		wantBonus := int64(0)
		if day == 7 {
			wantBonus = 100
		}
		if res.StreakBonus != wantBonus {
			t.Errorf("day %d bonus = %d, want %d", day, res.StreakBonus, wantBonus)
		}
		if day == 7 {
			// A second spot on the same day does not pay the bonus again.
			again, err := e.checkins.CheckIn(e.ctx, u.ID, b.ID, nil)
			if err != nil {
				t.Fatal(err)
			}
			if again.StreakBonus != 0 {
				t.Errorf("second check-in of day 7 paid bonus %d", again.StreakBonus)
			}
		}
		e.advance(24 * time.Hour)
	}

	streaks, _, _ := e.store.Points().List(e.ctx, repository.TransactionFilter{UserID: u.ID, Reason: domain.ReasonStreak})
	if len(streaks) != 1 || streaks[0].Points != 100 {
		t.Errorf("streak transactions = %+v", streaks)
	}
	if got := e.reload(u.ID); got.Points != 7*10+10+100 {
		t.Errorf("points = %d, want 180", got.Points)
	}
}

func TestStreakBreaks(t *testing.T) {
	e := newTestEnv(t, withoutAchievements())
	u := e.user("Ana", "ana@example.com")
	sp := e.spot("Cristo Redentor", -22.9519, -43.2105, 10)

	for _, gap := range []time.Duration{0, 24 * time.Hour, 48 * time.Hour} {
		e.advance(gap)
		if _, err := e.checkins.CheckIn(e.ctx, u.ID, sp.ID, nil); err != nil {
			t.Fatal(err)
		}
	}
	days, _ := e.store.CheckIns().Days(e.ctx, u.ID)
	if got := streakEndingAt(days, e.now.Format(domain.DayLayout)); got != 1 {
		t.Errorf("streak after gap = %d, want 1", got)
	}
	if got := longestStreak(days); got != 2 {
		t.Errorf("longest = %d, want 2", got)
	}
}

func TestNearby(t *testing.T) {
	e := newTestEnv(t)
	cristo := e.spot("Cristo Redentor", -22.9519, -43.2105, 0)
	pao := e.spot("Pão de Açúcar", -22.9486, -43.1566, 0)
	e.spot("Cataratas do Iguaçu", -25.6953, -54.4367, 0)

	got, err := e.checkins.Nearby(e.ctx, -22.9520, -43.2100, 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != cristo.ID || got[1].ID != pao.ID {
		t.Fatalf("nearby = %+v", got)
	}
	if !got[0].CanCheckIn || got[1].CanCheckIn {
		t.Errorf("can_checkin = %v, %v", got[0].CanCheckIn, got[1].CanCheckIn)
	}
	if got[0].Label == "" {
		t.Error("closest spot has no proximity label")
	}
	if _, err := e.checkins.Nearby(e.ctx, 100, 0, 10); !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("invalid coordinates err = %v", err)
	}
}

func TestCheckInBalanceIncludesAchievementBonus(t *testing.T) {
	e := newTestEnv(t, withAchievementPoints("primeiro-checkin", 25))
	u := e.user("Ana", "ana@example.com")
	sp := e.spot("Cristo Redentor", -22.9519, -43.2105, 0)

	res, err := e.checkins.CheckIn(e.ctx, u.ID, sp.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Unlocked) != 1 {
		t.Fatalf("unlocked = %v", res.Unlocked)
	}
	stored := e.reload(u.ID)
	if res.Balance != stored.Points || res.Balance != 75 {
		t.Errorf("response balance = %d, stored = %d, want 75", res.Balance, stored.Points)
	}
	if res.Level != stored.Level {
		t.Errorf("response level = %s, stored = %s", res.Level, stored.Level)
	}
}

func TestConcurrentCheckInSameSpotSameDay(t *testing.T) {
	e := newTestEnv(t, withoutAchievements())
	u := e.user("Ana", "ana@example.com")
	sp := e.spot("Cristo Redentor", -22.9519, -43.2105, 0)

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.checkins.CheckIn(e.ctx, u.ID, sp.ID, nil)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if !errors.Is(err, ErrAlreadyCheckedIn) {
				failures = append(failures, err)
			}
		}()
	}
	wg.Wait()

	if len(failures) > 0 {
		t.Fatalf("unexpected errors: %v", failures)
	}
	if successes != 1 {
		t.Errorf("successes = %d, want 1", successes)
	}
	if got := e.reload(u.ID); got.Points != 50 {
		t.Errorf("points = %d, want 50", got.Points)
	}
	txs, _, _ := e.store.Points().List(e.ctx, repository.TransactionFilter{UserID: u.ID, Reason: domain.ReasonCheckin})
	if len(txs) != 1 {
		t.Errorf("check-in transactions = %d, want 1", len(txs))
	}
}
