package service

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"
	"unicode/utf8"

	"pontox/config"
	"pontox/internal/auth"
	"pontox/internal/domain"
	"pontox/internal/models"
	"pontox/internal/repository"
	"pontox/pkg/level"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type RegisterInput struct {
	Email        string
	Name         string
	Phone        string
	Password     string
	ReferralCode string
}

// GoogleProfile is the identity returned by Google sign-in.
type GoogleProfile struct {
	ID        string
	Email     string
	Name      string
	AvatarURL string
}

type AuthResult struct {
	User   *models.User    `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
	IsNew  bool            `json:"is_new"`
}

type AuthService struct {
	clock
	cfg          *config.Config
	store        repository.Store
	ledger       *LedgerService
	settings     *SettingsService
	referrals    *ReferralService
	achievements *AchievementService
}

func NewAuthService(cfg *config.Config, store repository.Store, ledger *LedgerService, settings *SettingsService, referrals *ReferralService, achievements *AchievementService) *AuthService {
	return &AuthService{cfg: cfg, store: store, ledger: ledger, settings: settings, referrals: referrals, achievements: achievements}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func (s *AuthService) tokens(u *models.User) (*AuthResult, error) {
	pair, err := auth.GeneratePair(&s.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Tokens: pair}, nil
}

// Register creates an account, credits the sign-up bonus and applies an optional referral code,
// all in one atomic unit. An invalid referral code fails the whole registration.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Email:        email,
		Name:         name,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: string(hash),
	}
	if err := s.signup(ctx, u, in.ReferralCode); err != nil {
		return nil, err
	}
	res, err := s.tokens(u)
	if err != nil {
		return nil, err
	}
	res.IsNew = true
	return res, nil
}

// signup stores a new USER account with its referral code, bonus and referral, then runs the
// post-commit side effects and reloads u.
func (s *AuthService) signup(ctx context.Context, u *models.User, referralCode string) error {
	u.Role = domain.RoleUser
	u.Level = string(level.Bronze)
	u.CreatedAt = s.now()
	referralCode = strings.TrimSpace(referralCode)

	var (
		entries []*LedgerEntry
		out     *referralOutcome
	)
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		entries, out = nil, nil
		if _, err := tx.Users().GetByEmail(ctx, u.Email); err == nil {
			return ErrEmailExists
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if err := tx.Users().Create(ctx, u); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrEmailExists
			}
			return err
		}
		if err := s.referrals.AssignCode(ctx, tx, u); err != nil {
			return err
		}
		if pts := s.settings.Int(ctx, tx, domain.SettingPointsRegister); pts > 0 {
			e, err := s.ledger.Append(ctx, tx, u.ID, pts, domain.ReasonRegister, "Bônus de cadastro")
			if err != nil {
				return err
			}
			entries = append(entries, e)
		}
		if referralCode != "" {
			o, err := s.referrals.process(ctx, tx, referralCode, u.ID)
			if err != nil {
				return err
			}
			out = o
		}
		return nil
	})
	if err != nil {
		u.ID = 0
		return err
	}
	s.ledger.Committed(ctx, entries...)
	s.referrals.afterCommit(ctx, out, u.Name)
	s.achievements.evaluateQuietly(ctx, u.ID)
	if fresh, err := s.store.Users().GetByID(ctx, u.ID); err == nil {
		*u = *fresh
	}
	return nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCreds
		}
		return nil, err
	}
	if u.PasswordHash == "" {
		return nil, ErrPasswordNotSet
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCreds
	}
	return s.tokens(u)
}

// AdminLogin is Login restricted to ADMIN accounts. Non-admins get the same error as a wrong password.
func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (*AuthResult, error) {
	res, err := s.Login(ctx, email, password)
	if errors.Is(err, ErrPasswordNotSet) {
		return nil, ErrInvalidCreds
	}
	if err != nil {
		return nil, err
	}
	if !res.User.IsAdmin() {
		return nil, ErrInvalidCreds
	}
	return res, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	u, err := s.store.Users().GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return auth.GeneratePair(&s.cfg.JWT, u.ID, u.Email, u.Role)
}

// ChangePassword replaces the password after verifying the current one. Accounts created with
// Google may set a first password with an empty currentPassword.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	if utf8.RuneCountInString(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.store.Atomic(ctx, func(tx repository.Store) error {
		u, err := tx.Users().GetForUpdate(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		if u.PasswordHash != "" || currentPassword != "" {
			if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)); err != nil {
				return ErrInvalidCreds
			}
		}
		u.PasswordHash = string(hash)
		return tx.Users().Update(ctx, u)
	})
}

// LoginWithGoogle finds the user by Google ID, links an existing account with the same e-mail,
// or signs up a new one (with the optional referral code).
func (s *AuthService) LoginWithGoogle(ctx context.Context, p GoogleProfile, referralCode string) (*AuthResult, error) {
	if p.ID == "" {
		return nil, ErrInvalidToken
	}
	u, err := s.store.Users().GetByGoogleID(ctx, p.ID)
	if err == nil {
		return s.tokens(u)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	email, err := normalizeEmail(p.Email)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.Users().GetByEmail(ctx, email)
	if err == nil {
		gid := p.ID
		existing.GoogleID = &gid
		if existing.AvatarURL == "" {
			existing.AvatarURL = p.AvatarURL
		}
		if err := s.store.Users().Update(ctx, existing); err != nil {
			return nil, err
		}
		return s.tokens(existing)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	gid := p.ID
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = strings.Split(email, "@")[0]
	}
	u = &models.User{Email: email, Name: name, GoogleID: &gid, AvatarURL: p.AvatarURL}
	if err := s.signup(ctx, u, referralCode); err != nil {
		return nil, err
	}
	res, err := s.tokens(u)
	if err != nil {
		return nil, err
	}
	res.IsNew = true
	return res, nil
}

// SeedAdmin makes sure the configured back-office account exists with the ADMIN role.
// It is a no-op when no admin password is configured.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password, name string) error {
	if password == "" {
		log.Printf("[auth] ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	u, err := s.store.Users().GetByEmail(ctx, email)
	if err == nil {
		if u.IsAdmin() {
			return nil
		}
		u.Role = domain.RoleAdmin
		log.Printf("[auth] promoting %s to admin", email)
		return s.store.Users().Update(ctx, u)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		Level:        string(level.Bronze),
		CreatedAt:    s.now(),
	}
	if err := s.store.Users().Create(ctx, admin); err != nil {
		return err
	}
	log.Printf("[auth] seeded admin %s", email)
	return nil
}
