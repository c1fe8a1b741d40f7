package service

import (
	"context"
	"errors"
	"strings"

	"pontox/internal/domain"
	"pontox/internal/models"
	"pontox/internal/repository"
	"pontox/pkg/level"
)

// LevelProgress describes where a user sits in the tier table.
type LevelProgress struct {
	Current   level.Level `json:"current"`
	Next      level.Level `json:"next,omitempty"`
	Remaining int64       `json:"remaining"`
	Progress  float64     `json:"progress"`
}

type Profile struct {
	*models.User
	HasPassword   bool          `json:"has_password"`
	GoogleLinked  bool          `json:"google_linked"`
	LevelProgress LevelProgress `json:"level_progress"`
}

type ProfileUpdate struct {
	Name      *string `json:"name"`
	Phone     *string `json:"phone"`
	AvatarURL *string `json:"avatar_url"`
}

type AccountDashboard struct {
	Profile            *Profile                   `json:"profile"`
	RecentTransactions []models.PointsTransaction `json:"recent_transactions"`
	ActiveRedemptions  []RedemptionView           `json:"active_redemptions"`
	Achievements       *AchievementSummary        `json:"achievements"`
	Referrals          *ReferralStats             `json:"referrals"`
	CheckIns           int64                      `json:"checkins"`
	UnreadCount        int64                      `json:"unread_notifications"`
}

type AccountService struct {
	clock
	store        repository.Store
	ledger       *LedgerService
	achievements *AchievementService
	referrals    *ReferralService
	rewards      *RewardService
}

func NewAccountService(store repository.Store, ledger *LedgerService, achievements *AchievementService, referrals *ReferralService, rewards *RewardService) *AccountService {
	return &AccountService{store: store, ledger: ledger, achievements: achievements, referrals: referrals, rewards: rewards}
}

func levelProgress(lifetime int64) LevelProgress {
	lp := LevelProgress{Current: level.For(lifetime), Progress: level.Progress(lifetime)}
	if next, remaining, ok := level.Next(lifetime); ok {
		lp.Next, lp.Remaining = next, remaining
	}
	return lp
}

func newProfile(u *models.User) *Profile {
	return &Profile{
		User:          u,
		HasPassword:   u.PasswordHash != "",
		GoogleLinked:  u.GoogleID != nil,
		LevelProgress: levelProgress(u.LifetimePoints),
	}
}

func (s *AccountService) Profile(ctx context.Context, userID uint) (*Profile, error) {
	u, err := s.store.Users().GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return newProfile(u), nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, userID uint, in ProfileUpdate) (*Profile, error) {
	var out *models.User
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		u, err := tx.Users().GetForUpdate(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return ErrInvalidName
			}
			u.Name = name
		}
		if in.Phone != nil {
			u.Phone = strings.TrimSpace(*in.Phone)
		}
		if in.AvatarURL != nil {
			u.AvatarURL = strings.TrimSpace(*in.AvatarURL)
		}
		out = u
		return tx.Users().Update(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return newProfile(out), nil
}

// Dashboard gathers everything the home screen shows in one call.
func (s *AccountService) Dashboard(ctx context.Context, userID uint) (*AccountDashboard, error) {
	p, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	d := &AccountDashboard{Profile: p, ActiveRedemptions: []RedemptionView{}}
	if d.RecentTransactions, _, err = s.ledger.History(ctx, userID, 5, 0); err != nil {
		return nil, err
	}
	reds, err := s.rewards.ListMine(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, r := range reds {
		if r.Status == domain.RedemptionStatusActive {
			d.ActiveRedemptions = append(d.ActiveRedemptions, r)
		}
	}
	if d.Achievements, err = s.achievements.Summary(ctx, userID); err != nil {
		return nil, err
	}
	if d.Referrals, err = s.referrals.Stats(ctx, userID); err != nil {
		return nil, err
	}
	if _, d.CheckIns, err = s.store.CheckIns().ListByUser(ctx, userID, 1, 0); err != nil {
		return nil, err
	}
	if d.UnreadCount, err = s.store.Notifications().UnreadCount(ctx, userID); err != nil {
		return nil, err
	}
	return d, nil
}
