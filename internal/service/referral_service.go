package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"pontox/internal/domain"
	"pontox/internal/models"
	"pontox/internal/repository"
	"pontox/pkg/refcode"
	"pontox/pkg/share"
)

const maxCodeAttempts = 10

type ReferralView struct {
	models.Referral
	ReferredName string `json:"referred_name"`
}

type ReferralStats struct {
	Code         string `json:"code"`
	Total        int    `json:"total"`
	Pending      int    `json:"pending"`
	Rewarded     int    `json:"rewarded"`
	PointsEarned int64  `json:"points_earned"`
}

// referralOutcome is what processing a code inside an atomic unit produced.
type referralOutcome struct {
	referral *models.Referral
	referrer *models.User
	entries  []*LedgerEntry
}

// ReferralService handles referral codes and the referral bonus flow.
type ReferralService struct {
	clock
	store        repository.Store
	ledger       *LedgerService
	settings     *SettingsService
	achievements *AchievementService
	notify       *NotificationService
	publicURL    string
}

func NewReferralService(store repository.Store, ledger *LedgerService, settings *SettingsService, achievements *AchievementService, notify *NotificationService, publicURL string) *ReferralService {
	return &ReferralService{
		store:        store,
		ledger:       ledger,
		settings:     settings,
		achievements: achievements,
		notify:       notify,
		publicURL:    strings.TrimRight(publicURL, "/"),
	}
}

// AssignCode generates a unique referral code for u and saves it through tx.
func (s *ReferralService) AssignCode(ctx context.Context, tx repository.Store, u *models.User) error {
	if u.Code() != "" {
		return nil
	}
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := refcode.Generate(strconv.FormatUint(uint64(u.ID), 10), u.Name)
		if err != nil {
			return err
		}
		if _, err := tx.Users().GetByReferralCode(ctx, code); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		u.ReferralCode = &code
		err = tx.Users().Update(ctx, u)
		if errors.Is(err, repository.ErrDuplicate) {
			u.ReferralCode = nil
			continue
		}
		return err
	}
	return fmt.Errorf("failed to generate a unique referral code after %d attempts", maxCodeAttempts)
}

// GetUserByCode validates the format and returns the owner of code.
func (s *ReferralService) GetUserByCode(ctx context.Context, code string) (*models.User, error) {
	return s.lookup(ctx, s.store, code)
}

func (s *ReferralService) lookup(ctx context.Context, st repository.Store, code string) (*models.User, error) {
	code = refcode.Normalize(code)
	if !refcode.Valid(code) {
		return nil, ErrInvalidReferralCode
	}
	u, err := st.Users().GetByReferralCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrReferralCodeNotFound
	}
	return u, err
}

// process creates the referral for referredID and credits both sides inside tx.
// Status moves pending -> completed -> rewarded within the same unit.
func (s *ReferralService) process(ctx context.Context, tx repository.Store, code string, referredID uint) (*referralOutcome, error) {
	referrer, err := s.lookup(ctx, tx, code)
	if err != nil {
		return nil, err
	}
	if referrer.ID == referredID {
		return nil, ErrSelfReferral
	}
	referred, err := tx.Users().GetForUpdate(ctx, referredID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if referred.ReferredBy != nil {
		return nil, ErrAlreadyReferred
	}
	if _, err := tx.Referrals().GetByReferredID(ctx, referredID); err == nil {
		return nil, ErrAlreadyReferred
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	ref := &models.Referral{
		ReferrerID: referrer.ID,
		ReferredID: referredID,
		Code:       referrer.Code(),
		Status:     domain.ReferralStatusPending,
		CreatedAt:  now,
	}
	if err := tx.Referrals().Create(ctx, ref); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyReferred
		}
		return nil, err
	}
	referred.ReferredBy = &referrer.ID
	if err := tx.Users().Update(ctx, referred); err != nil {
		return nil, err
	}
	ref.Status = domain.ReferralStatusCompleted
	ref.CompletedAt = &now

	out := &referralOutcome{referral: ref, referrer: referrer}
	reference := WithReference(fmt.Sprintf("referral_%d", ref.ID))
	if pts := s.settings.Int(ctx, tx, domain.SettingPointsReferralReferrer); pts > 0 {
		e, err := s.ledger.Append(ctx, tx, referrer.ID, pts, domain.ReasonReferral,
			fmt.Sprintf("Indicação de %s", firstName(referred.Name)), reference)
		if err != nil {
			return nil, err
		}
		out.entries = append(out.entries, e)
		ref.PointsAwarded = pts
	}
	if pts := s.settings.Int(ctx, tx, domain.SettingPointsReferralReferred); pts > 0 {
		e, err := s.ledger.Append(ctx, tx, referredID, pts, domain.ReasonReferral,
			"Bônus de boas-vindas por indicação", reference)
		if err != nil {
			return nil, err
		}
		out.entries = append(out.entries, e)
	}
	ref.Status = domain.ReferralStatusRewarded
	if err := tx.Referrals().Update(ctx, ref); err != nil {
		return nil, err
	}
	return out, nil
}

// afterCommit runs the side effects of a committed referral.
func (s *ReferralService) afterCommit(ctx context.Context, out *referralOutcome, referredName string) {
	if out == nil {
		return
	}
	s.ledger.Committed(ctx, out.entries...)
	if s.notify != nil && out.referral.PointsAwarded > 0 {
		err := s.notify.Notify(ctx, out.referrer.ID, domain.NotifyReferralRewarded, "Indicação confirmada!",
			fmt.Sprintf("%s se cadastrou com o seu código. Você ganhou %d pontos.", firstName(referredName), out.referral.PointsAwarded),
			map[string]interface{}{"referral_id": out.referral.ID})
		if err != nil {
			log.Printf("[referral] notify referrer %d: %v", out.referrer.ID, err)
		}
	}
	s.achievements.evaluateQuietly(ctx, out.referrer.ID)
}

// ProcessReferralCode applies code to an existing user who has not been referred yet,
// e.g. one who signed up with Google and could not enter a code.
func (s *ReferralService) ProcessReferralCode(ctx context.Context, userID uint, code string) (*models.Referral, error) {
	var out *referralOutcome
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		o, err := s.process(ctx, tx, code, userID)
		out = o
		return err
	})
	if err != nil {
		return nil, err
	}
	name := ""
	if u, err := s.store.Users().GetByID(ctx, userID); err == nil {
		name = u.Name
	}
	s.afterCommit(ctx, out, name)
	s.achievements.evaluateQuietly(ctx, userID)
	return out.referral, nil
}

// ListMine returns the referrals made by userID with the referred users' names.
func (s *ReferralService) ListMine(ctx context.Context, userID uint) ([]ReferralView, error) {
	refs, err := s.store.Referrals().ListByReferrer(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]ReferralView, 0, len(refs))
	for _, r := range refs {
		v := ReferralView{Referral: r}
		if u, err := s.store.Users().GetByID(ctx, r.ReferredID); err == nil {
			v.ReferredName = u.Name
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *ReferralService) Stats(ctx context.Context, userID uint) (*ReferralStats, error) {
	u, err := s.store.Users().GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	refs, err := s.store.Referrals().ListByReferrer(ctx, userID)
	if err != nil {
		return nil, err
	}
	st := &ReferralStats{Code: u.Code(), Total: len(refs)}
	for _, r := range refs {
		switch r.Status {
		case domain.ReferralStatusRewarded:
			st.Rewarded++
			st.PointsEarned += r.PointsAwarded
		default:
			st.Pending++
		}
	}
	return st, nil
}

// ShareLinks returns the share targets for the user's own code.
func (s *ReferralService) ShareLinks(ctx context.Context, userID uint) (*share.Links, error) {
	u, err := s.store.Users().GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if u.Code() == "" {
		err := s.store.Atomic(ctx, func(tx repository.Store) error { return s.AssignCode(ctx, tx, u) })
		if err != nil {
			return nil, err
		}
	}
	links := share.Build(s.publicURL, u.Code(), firstName(u.Name))
	return &links, nil
}

func firstName(name string) string {
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return name
}
