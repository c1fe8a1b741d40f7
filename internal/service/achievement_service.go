package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"pontox/internal/catalog"
	"pontox/internal/domain"
	"pontox/internal/models"
	"pontox/internal/repository"
	"pontox/internal/ws"
)

type AchievementStatus struct {
	catalog.Achievement
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
	Progress   int64      `json:"progress"`
}

type AchievementSummary struct {
	Unlocked      []AchievementStatus `json:"unlocked"`
	Locked        []AchievementStatus `json:"locked"`
	UnlockedCount int                 `json:"unlocked_count"`
	Total         int                 `json:"total"`
	Rate          float64             `json:"rate"`
}

type AchievementRate struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Unlocked int64   `json:"unlocked"`
	Rate     float64 `json:"rate"`
}

// AchievementService checks a user's progress against the static catalog and unlocks what is earned.
type AchievementService struct {
	clock
	store   repository.Store
	catalog *catalog.Catalog
	ledger  *LedgerService
	notify  *NotificationService
	pub     Publisher
}

func NewAchievementService(store repository.Store, cat *catalog.Catalog, ledger *LedgerService, notify *NotificationService, pub Publisher) *AchievementService {
	return &AchievementService{store: store, catalog: cat, ledger: ledger, notify: notify, pub: pub}
}

// progress computes every rule metric for a user.
func (s *AchievementService) progress(ctx context.Context, st repository.Store, userID uint) (map[string]int64, error) {
	u, err := st.Users().GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	_, checkins, err := st.CheckIns().ListByUser(ctx, userID, 1, 0)
	if err != nil {
		return nil, err
	}
	spots, err := st.CheckIns().DistinctSpots(ctx, userID)
	if err != nil {
		return nil, err
	}
	days, err := st.CheckIns().Days(ctx, userID)
	if err != nil {
		return nil, err
	}
	refs, err := st.Referrals().ListByReferrer(ctx, userID)
	if err != nil {
		return nil, err
	}
	var rewarded int64
	for _, r := range refs {
		if r.Status == domain.ReferralStatusRewarded {
			rewarded++
		}
	}
	reviews, err := st.Reviews().CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return map[string]int64{
		catalog.RuleCheckins:       checkins,
		catalog.RuleDistinctSpots:  spots,
		catalog.RuleReferrals:      rewarded,
		catalog.RuleLifetimePoints: u.LifetimePoints,
		catalog.RuleStreak:         int64(longestStreak(days)),
		catalog.RuleReviews:        reviews,
	}, nil
}

func (s *AchievementService) Summary(ctx context.Context, userID uint) (*AchievementSummary, error) {
	metrics, err := s.progress(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	held, err := s.store.Achievements().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	unlockedAt := make(map[string]time.Time, len(held))
	for _, ua := range held {
		unlockedAt[ua.AchievementID] = ua.UnlockedAt
	}

	sum := &AchievementSummary{Unlocked: []AchievementStatus{}, Locked: []AchievementStatus{}, Total: len(s.catalog.Achievements)}
	for _, a := range s.catalog.Achievements {
		st := AchievementStatus{Achievement: a, Progress: min(metrics[a.Rule.Kind], a.Rule.Threshold)}
		if at, ok := unlockedAt[a.ID]; ok {
			st.Unlocked, st.UnlockedAt, st.Progress = true, &at, a.Rule.Threshold
			sum.Unlocked = append(sum.Unlocked, st)
			continue
		}
		sum.Locked = append(sum.Locked, st)
	}
	sum.UnlockedCount = len(sum.Unlocked)
	if sum.Total > 0 {
		sum.Rate = float64(sum.UnlockedCount) / float64(sum.Total) * 100
	}
	return sum, nil
}

// Rates returns, per catalog achievement, how many users unlocked it and the share of all users.
func (s *AchievementService) Rates(ctx context.Context) ([]AchievementRate, error) {
	counts, err := s.store.Achievements().CountByAchievement(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.store.Users().Count(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]AchievementRate, 0, len(s.catalog.Achievements))
	for _, a := range s.catalog.Achievements {
		r := AchievementRate{ID: a.ID, Name: a.Name, Unlocked: counts[a.ID]}
		if users > 0 {
			r.Rate = float64(r.Unlocked) / float64(users) * 100
		}
		out = append(out, r)
	}
	return out, nil
}

// Evaluate unlocks every achievement whose rule the user now satisfies and credits its points.
// Achievements already held are skipped, so calling it repeatedly is safe.
func (s *AchievementService) Evaluate(ctx context.Context, userID uint) ([]catalog.Achievement, error) {
	unlocked, _, err := s.evaluate(ctx, userID)
	return unlocked, err
}

func (s *AchievementService) evaluate(ctx context.Context, userID uint) ([]catalog.Achievement, []*LedgerEntry, error) {
	var (
		unlocked []catalog.Achievement
		entries  []*LedgerEntry
	)
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		unlocked, entries = nil, nil
		metrics, err := s.progress(ctx, tx, userID)
		if err != nil {
			return err
		}
		held, err := tx.Achievements().ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		has := make(map[string]bool, len(held))
		for _, ua := range held {
			has[ua.AchievementID] = true
		}
		// Unlocks can raise lifetime points and satisfy further lifetime_points rules.
		for changed := true; changed; {
			changed = false
			for _, a := range s.catalog.Achievements {
				if has[a.ID] || metrics[a.Rule.Kind] < a.Rule.Threshold {
					continue
				}
				err := tx.Achievements().Unlock(ctx, &models.UserAchievement{UserID: userID, AchievementID: a.ID, UnlockedAt: s.now()})
				if errors.Is(err, repository.ErrDuplicate) {
					has[a.ID] = true
					continue
				}
				if err != nil {
					return err
				}
				has[a.ID] = true
				unlocked = append(unlocked, a)
				if a.Points > 0 {
					e, err := s.ledger.Append(ctx, tx, userID, a.Points, domain.ReasonAchievement,
						fmt.Sprintf("Conquista: %s", a.Name), WithReference("achievement_"+a.ID))
					if err != nil {
						return err
					}
					entries = append(entries, e)
					metrics[catalog.RuleLifetimePoints] = e.Lifetime
					changed = true
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.ledger.Committed(ctx, entries...)
	for _, a := range unlocked {
		if s.pub != nil {
			s.pub.Publish(userID, ws.EventAchievementUnlocked, a)
		}
		if s.notify != nil {
			err := s.notify.Notify(ctx, userID, domain.NotifyAchievementUnlocked, "Conquista desbloqueada!",
				fmt.Sprintf("Você desbloqueou \"%s\" e ganhou %d pontos.", a.Name, a.Points),
				map[string]interface{}{"achievement_id": a.ID})
			if err != nil {
				log.Printf("[achievement] notify user %d: %v", userID, err)
			}
		}
	}
	return unlocked, entries, nil
}

// evaluateQuietly runs Evaluate after another operation has committed; failures are logged
// because the triggering operation already succeeded. last is the final ledger entry the
// unlocks credited, nil when none carried points.
func (s *AchievementService) evaluateQuietly(ctx context.Context, userID uint) (unlocked []catalog.Achievement, last *LedgerEntry) {
	if s == nil {
		return nil, nil
	}
	unlocked, entries, err := s.evaluate(ctx, userID)
	if err != nil {
		log.Printf("[achievement] evaluate user %d: %v", userID, err)
		return nil, nil
	}
	if len(entries) > 0 {
		last = entries[len(entries)-1]
	}
	return unlocked, last
}
