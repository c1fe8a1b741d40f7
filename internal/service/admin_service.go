package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"pontox/internal/domain"
	"pontox/internal/models"
	"pontox/internal/repository"
)

type UserDetail struct {
	Profile            *Profile                   `json:"profile"`
	RecentTransactions []models.PointsTransaction `json:"recent_transactions"`
	Redemptions        []RedemptionView           `json:"redemptions"`
	Achievements       *AchievementSummary        `json:"achievements"`
	Referrals          []ReferralView             `json:"referrals"`
	CheckIns           int64                      `json:"checkins"`
}

type AdminReferral struct {
	models.Referral
	ReferrerName string `json:"referrer_name"`
	ReferredName string `json:"referred_name"`
}

// AdminService backs the back-office screens.
type AdminService struct {
	clock
	store        repository.Store
	ledger       *LedgerService
	accounts     *AccountService
	achievements *AchievementService
	referrals    *ReferralService
	rewards      *RewardService
	notify       *NotificationService
}

func NewAdminService(store repository.Store, ledger *LedgerService, accounts *AccountService, achievements *AchievementService, referrals *ReferralService, rewards *RewardService, notify *NotificationService) *AdminService {
	return &AdminService{
		store:        store,
		ledger:       ledger,
		accounts:     accounts,
		achievements: achievements,
		referrals:    referrals,
		rewards:      rewards,
		notify:       notify,
	}
}

func (s *AdminService) ListUsers(ctx context.Context, f repository.UserFilter) ([]models.User, int64, error) {
	f.Search = strings.TrimSpace(f.Search)
	return s.store.Users().List(ctx, f)
}

func (s *AdminService) UserDetail(ctx context.Context, userID uint) (*UserDetail, error) {
	p, err := s.accounts.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	d := &UserDetail{Profile: p}
	if d.RecentTransactions, _, err = s.ledger.History(ctx, userID, 20, 0); err != nil {
		return nil, err
	}
	if d.Redemptions, err = s.rewards.ListMine(ctx, userID); err != nil {
		return nil, err
	}
	if d.Achievements, err = s.achievements.Summary(ctx, userID); err != nil {
		return nil, err
	}
	if d.Referrals, err = s.referrals.ListMine(ctx, userID); err != nil {
		return nil, err
	}
	if _, d.CheckIns, err = s.store.CheckIns().ListByUser(ctx, userID, 1, 0); err != nil {
		return nil, err
	}
	return d, nil
}

// AdjustPoints credits or debits a user by hand. The entry and its audit record commit together.
func (s *AdminService) AdjustPoints(ctx context.Context, adminID, userID uint, delta int64, description string, meta AuditMeta) (*LedgerEntry, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		description = "Ajuste manual"
	}
	var entry *LedgerEntry
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		e, err := s.ledger.Append(ctx, tx, userID, delta, domain.ReasonManualAdjustment, description,
			WithMetadata(map[string]interface{}{"admin_id": adminID}))
		if err != nil {
			return err
		}
		entry = e
		return tx.Audit().Create(ctx, auditLog(adminID, "points.adjust", fmt.Sprintf("user:%d", userID),
			fmt.Sprintf("%+d (%s)", delta, description), meta, s.now()))
	})
	if err != nil {
		return nil, err
	}
	s.ledger.Committed(ctx, entry)
	if s.notify != nil {
		body := fmt.Sprintf("Seu saldo foi ajustado em %+d pontos: %s", delta, description)
		if err := s.notify.Notify(ctx, userID, domain.NotifyPointsAdjusted, "Ajuste de pontos", body,
			map[string]interface{}{"delta": delta}); err != nil {
			log.Printf("[admin] notify user %d: %v", userID, err)
		}
	}
	if delta > 0 {
		s.achievements.evaluateQuietly(ctx, userID)
	}
	return entry, nil
}

func (s *AdminService) Transactions(ctx context.Context, f repository.TransactionFilter) ([]models.PointsTransaction, int64, error) {
	if f.Reason != "" && !domain.ValidReason(f.Reason) {
		return nil, 0, ErrInvalidReason
	}
	return s.store.Points().List(ctx, f)
}

func (s *AdminService) Referrals(ctx context.Context, status string, limit, offset int) ([]AdminReferral, int64, error) {
	refs, total, err := s.store.Referrals().List(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	names := map[uint]string{}
	name := func(id uint) string {
		if n, ok := names[id]; ok {
			return n
		}
		if u, err := s.store.Users().GetByID(ctx, id); err == nil {
			names[id] = u.Name
		}
		return names[id]
	}
	out := make([]AdminReferral, 0, len(refs))
	for _, r := range refs {
		out = append(out, AdminReferral{Referral: r, ReferrerName: name(r.ReferrerID), ReferredName: name(r.ReferredID)})
	}
	return out, total, nil
}

func (s *AdminService) AuditLogs(ctx context.Context, limit, offset int) ([]models.AuditLog, int64, error) {
	return s.store.Audit().List(ctx, limit, offset)
}

// Reconcile recomputes every user's totals from the transaction log and records the run.
func (s *AdminService) Reconcile(ctx context.Context, adminID uint, meta AuditMeta) ([]Drift, error) {
	drifts, err := s.ledger.ReconcileAll(ctx)
	if err != nil {
		return drifts, err
	}
	rec := auditLog(adminID, "ledger.reconcile", "users", fmt.Sprintf("%d corrected", len(drifts)), meta, s.now())
	if err := s.store.Audit().Create(ctx, rec); err != nil {
		return drifts, err
	}
	return drifts, nil
}
