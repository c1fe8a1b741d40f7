package service

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"pontox/internal/domain"
	"pontox/internal/repository"
	"pontox/pkg/refcode"
)

func TestRegisterAssignsReferralCode(t *testing.T) {
	e := newTestEnv(t, withoutAchievements())
	u := e.register("Ana Souza", "ana@example.com", "")
	if !refcode.Valid(u.Code()) {
		t.Fatalf("code %q is not valid", u.Code())
	}
	owner, err := e.referrals.GetUserByCode(e.ctx, strings.ToLower(u.Code()))
	if err != nil || owner.ID != u.ID {
		t.Errorf("GetUserByCode = %+v, %v", owner, err)
	}
}

func TestRegisterWithReferralCode(t *testing.T) {
	e := newTestEnv(t, withoutAchievements())
	referrer := e.register("Ana Souza", "ana@example.com", "")
	friend := e.register("Bruno Lima", "bruno@example.com", referrer.Code())

	if got := e.reload(referrer.ID); got.Points != 100+200 {
		t.Errorf("referrer points = %d, want 300", got.Points)
	}
	if friend.Points != 100+50 {
		t.Errorf("referred points = %d, want 150", friend.Points)
	}
	if friend.ReferredBy == nil || *friend.ReferredBy != referrer.ID {
		t.Errorf("referred_by = %v", friend.ReferredBy)
	}

	ref, err := e.store.Referrals().GetByReferredID(e.ctx, friend.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ref.Status != domain.ReferralStatusRewarded || ref.PointsAwarded != 200 || ref.CompletedAt == nil {
		t.Errorf("referral = %+v", ref)
	}

	stats, err := e.referrals.Stats(e.ctx, referrer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 1 || stats.Rewarded != 1 || stats.PointsEarned != 200 {
		t.Errorf("stats = %+v", stats)
	}
	mine, _ := e.referrals.ListMine(e.ctx, referrer.ID)
	if len(mine) != 1 || mine[0].ReferredName != "Bruno Lima" {
		t.Errorf("ListMine = %+v", mine)
	}
	notes, _, _ := e.notify.List(e.ctx, referrer.ID, 10, 0)
	if len(notes) != 1 || notes[0].Type != domain.NotifyReferralRewarded {
		t.Errorf("referrer notifications = %+v", notes)
	}
}

func TestRegisterWithBadReferralCodeRollsBack(t *testing.T) {
	e := newTestEnv(t, withoutAchievements())
	_, err := e.auth.Register(e.ctx, RegisterInput{Email: "c@example.com", Name: "Carla", Password: "s3nha-segura", ReferralCode: "ZZZZ9999"})
	if !errors.Is(err, ErrReferralCodeNotFound) {
		t.Fatalf("err = %v, want ErrReferralCodeNotFound", err)
	}
	if _, err := e.store.Users().GetByEmail(e.ctx, "c@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("user persisted after failed registration: %v", err)
	}
	if txs, _ := e.store.Points().Since(e.ctx, e.now.AddDate(-1, 0, 0)); len(txs) != 0 {
		t.Errorf("transactions persisted: %+v", txs)
	}
}

func TestProcessReferralCodeRejects(t *testing.T) {
	e := newTestEnv(t, withoutAchievements())
	ana := e.register("Ana Souza", "ana@example.com", "")
	bruno := e.register("Bruno Lima", "bruno@example.com", ana.Code())
	carla := e.register("Carla Dias", "carla@example.com", "")

	tests := []struct {
		name   string
		userID uint
		code   string
		want   error
	}{
		{"malformed", carla.ID, "ab", ErrInvalidReferralCode},
		{"unknown", carla.ID, "QQQQ0000", ErrReferralCodeNotFound},
		{"self", carla.ID, carla.Code(), ErrSelfReferral},
		{"already referred", bruno.ID, carla.Code(), ErrAlreadyReferred},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.referrals.ProcessReferralCode(e.ctx, tt.userID, tt.code); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if got := e.reload(carla.ID); got.Points != 100 {
		t.Errorf("carla points = %d, want 100", got.Points)
	}

	ref, err := e.referrals.ProcessReferralCode(e.ctx, carla.ID, ana.Code())
	if err != nil {
		t.Fatal(err)
	}
	if ref.ReferrerID != ana.ID || ref.Status != domain.ReferralStatusRewarded {
		t.Errorf("referral = %+v", ref)
	}
	if _, err := e.referrals.ProcessReferralCode(e.ctx, carla.ID, ana.Code()); !errors.Is(err, ErrAlreadyReferred) {
		t.Errorf("double referral err = %v", err)
	}
	if got := e.reload(ana.ID); got.Points != 100+200+200 {
		t.Errorf("ana points = %d, want 500", got.Points)
	}
}

func TestShareLinks(t *testing.T) {
	e := newTestEnv(t, withoutAchievements())
	u := e.user("Dora Alves", "dora@example.com")

	links, err := e.referrals.ShareLinks(e.ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	code := e.reload(u.ID).Code()
	if code == "" {
		t.Fatal("code was not assigned")
	}
	if !strings.Contains(links.URL, code) {
		t.Errorf("links = %+v, want code %s", links, code)
	}
}

func TestConcurrentReferralAppliesOnce(t *testing.T) {
	e := newTestEnv(t, withoutAchievements())
	ana := e.register("Ana Souza", "ana@example.com", "")
	carla := e.register("Carla Dias", "carla@example.com", "")
	bruno := e.user("Bruno Lima", "bruno@example.com")

	codes := []string{ana.Code(), carla.Code()}
	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.referrals.ProcessReferralCode(e.ctx, bruno.ID, codes[i%len(codes)])
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case !errors.Is(err, ErrAlreadyReferred):
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("successes = %d, want 1", successes)
	}
	txs, _, _ := e.store.Points().List(e.ctx, repository.TransactionFilter{Reason: domain.ReasonReferral})
	if len(txs) != 2 {
		t.Errorf("referral transactions = %d, want 2 (one per side)", len(txs))
	}
}
