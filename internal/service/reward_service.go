package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"pontox/internal/catalog"
	"pontox/internal/domain"
	"pontox/internal/models"
	"pontox/internal/repository"

	"github.com/google/uuid"
)

// RedemptionView is a redemption with its status resolved at read time.
type RedemptionView struct {
	models.Redemption
	Status string `json:"status"`
}

type RedeemResult struct {
	Redemption RedemptionView `json:"redemption"`
	Balance    int64          `json:"balance"`
	Replayed   bool           `json:"replayed"`
}

type RewardService struct {
	clock
	store    repository.Store
	catalog  *catalog.Catalog
	ledger   *LedgerService
	settings *SettingsService
	notify   *NotificationService
}

func NewRewardService(store repository.Store, cat *catalog.Catalog, ledger *LedgerService, settings *SettingsService, notify *NotificationService) *RewardService {
	return &RewardService{store: store, catalog: cat, ledger: ledger, settings: settings, notify: notify}
}

// Catalog lists the redeemable rewards.
func (s *RewardService) Catalog() []catalog.Reward {
	return s.catalog.ActiveRewards()
}

func (s *RewardService) view(r models.Redemption) RedemptionView {
	return RedemptionView{Redemption: r, Status: r.StatusAt(s.now())}
}

// newRedemptionCode returns a code like SX-3F9A1C07.
func newRedemptionCode() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "SX-" + strings.ToUpper(id[:8])
}

// Redeem exchanges points for a reward. With a non-empty idempotencyKey a repeated call
// returns the original redemption without debiting again.
func (s *RewardService) Redeem(ctx context.Context, userID uint, rewardID, idempotencyKey string) (*RedeemResult, error) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey != "" {
		if res, ok, err := s.replay(ctx, userID, idempotencyKey); err != nil || ok {
			return res, err
		}
	}

	var (
		red   *models.Redemption
		entry *LedgerEntry
	)
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		reward, ok := s.catalog.Reward(rewardID)
		if !ok {
			return ErrRewardNotFound
		}
		if !reward.IsActive() {
			return ErrRewardInactive
		}
		u, err := tx.Users().GetForUpdate(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		if u.Points < reward.Cost {
			return ErrInsufficientPoints
		}

		code, err := s.uniqueCode(ctx, tx)
		if err != nil {
			return err
		}
		days := int64(reward.ExpiryDays)
		if days <= 0 {
			days = s.settings.Int(ctx, tx, domain.SettingRedemptionExpiryDays)
		}
		now := s.now()
		red = &models.Redemption{
			UserID:     userID,
			RewardID:   reward.ID,
			RewardName: reward.Name,
			Cost:       reward.Cost,
			Code:       code,
			Status:     domain.RedemptionStatusActive,
			RedeemedAt: now,
			ExpiresAt:  now.AddDate(0, 0, int(days)),
		}
		if idempotencyKey != "" {
			key := idempotencyKey
			red.IdempotencyKey = &key
		}
		if err := tx.Redemptions().Create(ctx, red); err != nil {
			return err
		}
		entry, err = s.ledger.Append(ctx, tx, userID, -reward.Cost, domain.ReasonRedemption,
			fmt.Sprintf("Resgate: %s", reward.Name), WithReference("redemption_"+code),
			WithMetadata(map[string]interface{}{"reward_id": reward.ID, "code": code}))
		return err
	})
	if errors.Is(err, repository.ErrDuplicate) && idempotencyKey != "" {
		// A concurrent request with the same key won the race.
		if res, ok, rerr := s.replay(ctx, userID, idempotencyKey); rerr == nil && ok {
			return res, nil
		}
	}
	if err != nil {
		return nil, err
	}
	s.ledger.Committed(ctx, entry)
	if s.notify != nil {
		err := s.notify.Notify(ctx, userID, domain.NotifyRedemption, "Resgate confirmado",
			fmt.Sprintf("Seu código %s para \"%s\" vale até %s.", red.Code, red.RewardName, red.ExpiresAt.Format("02/01/2006")),
			map[string]interface{}{"code": red.Code, "reward_id": red.RewardID})
		if err != nil {
			log.Printf("[reward] notify user %d: %v", userID, err)
		}
	}
	return &RedeemResult{Redemption: s.view(*red), Balance: entry.Balance}, nil
}

func (s *RewardService) replay(ctx context.Context, userID uint, key string) (*RedeemResult, bool, error) {
	red, err := s.store.Redemptions().GetByIdempotencyKey(ctx, userID, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	u, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return &RedeemResult{Redemption: s.view(*red), Balance: u.Points, Replayed: true}, true, nil
}

func (s *RewardService) uniqueCode(ctx context.Context, tx repository.Store) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := newRedemptionCode()
		_, err := tx.Redemptions().GetByCode(ctx, code)
		if errors.Is(err, repository.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("failed to generate a unique redemption code after %d attempts", maxCodeAttempts)
}

// ListMine returns the user's redemptions, newest first, with expiry resolved now.
func (s *RewardService) ListMine(ctx context.Context, userID uint) ([]RedemptionView, error) {
	list, _, err := s.store.Redemptions().List(ctx, repository.RedemptionFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	out := make([]RedemptionView, 0, len(list))
	for _, r := range list {
		out = append(out, s.view(r))
	}
	return out, nil
}

// List is the admin view. Filtering by "expired" or "active" uses the resolved status.
func (s *RewardService) List(ctx context.Context, status string, limit, offset int) ([]RedemptionView, int64, error) {
	list, _, err := s.store.Redemptions().List(ctx, repository.RedemptionFilter{})
	if err != nil {
		return nil, 0, err
	}
	views := make([]RedemptionView, 0, len(list))
	for _, r := range list {
		v := s.view(r)
		if status != "" && v.Status != status {
			continue
		}
		views = append(views, v)
	}
	total := int64(len(views))
	if offset >= len(views) {
		return []RedemptionView{}, total, nil
	}
	views = views[offset:]
	if limit > 0 && limit < len(views) {
		views = views[:limit]
	}
	return views, total, nil
}

// MarkUsed validates a redemption code at the counter. Used and expired codes are rejected.
func (s *RewardService) MarkUsed(ctx context.Context, adminID uint, code string, meta AuditMeta) (*RedemptionView, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	var red *models.Redemption
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		r, err := tx.Redemptions().GetByCode(ctx, code)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRedemptionNotFound
		}
		if err != nil {
			return err
		}
		now := s.now()
		if r.StatusAt(now) != domain.RedemptionStatusActive {
			return ErrRedemptionNotActive
		}
		r.Status = domain.RedemptionStatusUsed
		r.UsedAt = &now
		if err := tx.Redemptions().Update(ctx, r); err != nil {
			return err
		}
		red = r
		return tx.Audit().Create(ctx, auditLog(adminID, "redemption.use", "redemption:"+r.Code,
			fmt.Sprintf("user %d reward %s", r.UserID, r.RewardID), meta, now))
	})
	if err != nil {
		return nil, err
	}
	v := s.view(*red)
	return &v, nil
}
