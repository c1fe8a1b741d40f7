package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"pontox/config"
	"pontox/internal/cache"
	"pontox/internal/catalog"
	"pontox/internal/models"
	"pontox/internal/repository/memory"
	"pontox/pkg/level"
)

type published struct {
	userID    uint
	eventType string
	data      interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *fakePublisher) Publish(userID uint, eventType string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{userID, eventType, data})
}

func (p *fakePublisher) count(userID uint, eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.userID == userID && e.eventType == eventType {
			n++
		}
	}
	return n
}

type fakePusher struct {
	mu     sync.Mutex
	tokens []string
}

func (p *fakePusher) SendToUser(_ context.Context, token, _, _, _ string, _ map[string]interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = append(p.tokens, token)
	return nil
}

// testEnv wires every service over one memory store and a movable clock.
type testEnv struct {
	t     *testing.T
	ctx   context.Context
	now   time.Time
	store *memory.Store
	pub   *fakePublisher
	push  *fakePusher
	cfg   *config.Config
	cat   *catalog.Catalog

	settings     *SettingsService
	notify       *NotificationService
	ledger       *LedgerService
	achievements *AchievementService
	referrals    *ReferralService
	rewards      *RewardService
	checkins     *CheckInService
	spots        *SpotService
	reviews      *ReviewService
	leaderboard  *LeaderboardService
	stats        *StatsService
	auth         *AuthService
	accounts     *AccountService
	admin        *AdminService
}

type envOption func(*testEnv)

// withoutAchievements leaves the achievement catalog empty so point totals only reflect
// the operation under test.
func withoutAchievements() envOption {
	return func(e *testEnv) {
		c := *e.cat
		c.Achievements = nil
		e.cat = &c
	}
}

// withAchievementPoints overrides the point value of one catalog achievement.
func withAchievementPoints(id string, pts int64) envOption {
	return func(e *testEnv) {
		c := *e.cat
		c.Achievements = append([]catalog.Achievement(nil), e.cat.Achievements...)
		for i := range c.Achievements {
			if c.Achievements[i].ID == id {
				c.Achievements[i].Points = pts
			}
		}
		e.cat = &c
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	e := &testEnv{
		t:    t,
		ctx:  context.Background(),
		now:  time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
		pub:  &fakePublisher{},
		push: &fakePusher{},
		cat:  cat,
		cfg: &config.Config{JWT: config.JWTConfig{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: time.Hour,
			Issuer:        "pontox-test",
		}},
	}
	for _, opt := range opts {
		opt(e)
	}
	clockFn := func() time.Time { return e.now }
	e.store = memory.New(memory.WithClock(clockFn))

	c := cache.New(time.Minute)
	e.settings = NewSettingsService(e.store)
	e.notify = NewNotificationService(e.store, e.push)
	e.ledger = NewLedgerService(e.store, e.notify, e.pub, c)
	e.achievements = NewAchievementService(e.store, e.cat, e.ledger, e.notify, e.pub)
	e.referrals = NewReferralService(e.store, e.ledger, e.settings, e.achievements, e.notify, "https://pontox.example.com")
	e.rewards = NewRewardService(e.store, e.cat, e.ledger, e.settings, e.notify)
	e.checkins = NewCheckInService(e.store, e.ledger, e.settings, e.achievements, 300)
	e.spots = NewSpotService(e.store, nil, "test")
	e.reviews = NewReviewService(e.store, e.ledger, e.settings, e.achievements)
	e.leaderboard = NewLeaderboardService(e.store, c)
	e.stats = NewStatsService(e.store, e.achievements, c)
	e.auth = NewAuthService(e.cfg, e.store, e.ledger, e.settings, e.referrals, e.achievements)
	e.accounts = NewAccountService(e.store, e.ledger, e.achievements, e.referrals, e.rewards)
	e.admin = NewAdminService(e.store, e.ledger, e.accounts, e.achievements, e.referrals, e.rewards, e.notify)

	for _, clk := range []interface{ SetClock(func() time.Time) }{
		e.settings, e.notify, e.ledger, e.achievements, e.referrals, e.rewards, e.checkins,
		e.spots, e.reviews, e.leaderboard, e.stats, e.auth, e.accounts, e.admin,
	} {
		clk.SetClock(clockFn)
	}
	return e
}

func (e *testEnv) advance(d time.Duration) { e.now = e.now.Add(d) }

// user creates a plain account with no points and no referral code.
func (e *testEnv) user(name, email string) *models.User {
	e.t.Helper()
	u := &models.User{Email: email, Name: name, Role: "USER", Level: string(level.Bronze)}
	if err := e.store.Users().Create(e.ctx, u); err != nil {
		e.t.Fatal(err)
	}
	return u
}

// register signs up through AuthService like a real client.
func (e *testEnv) register(name, email, referralCode string) *models.User {
	e.t.Helper()
	res, err := e.auth.Register(e.ctx, RegisterInput{Email: email, Name: name, Password: "s3nha-segura", ReferralCode: referralCode})
	if err != nil {
		e.t.Fatalf("register %s: %v", email, err)
	}
	return res.User
}

func (e *testEnv) spot(name string, lat, lng float64, points int64) *models.TouristSpot {
	e.t.Helper()
	sp := &models.TouristSpot{Name: name, Latitude: lat, Longitude: lng, CheckinPoints: points, Active: true}
	if err := e.store.Spots().Create(e.ctx, sp); err != nil {
		e.t.Fatal(err)
	}
	return sp
}

func (e *testEnv) reload(id uint) *models.User {
	e.t.Helper()
	u, err := e.store.Users().GetByID(e.ctx, id)
	if err != nil {
		e.t.Fatal(err)
	}
	return u
}

func (e *testEnv) credit(userID uint, pts int64) {
	e.t.Helper()
	if _, err := e.ledger.AddPoints(e.ctx, userID, pts, "manual_adjustment", "test credit"); err != nil {
		e.t.Fatal(err)
	}
}
