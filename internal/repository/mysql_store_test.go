package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"pontox/config"
	"pontox/internal/database"
	"pontox/internal/domain"
	"pontox/internal/models"
	"pontox/internal/repository"

	"github.com/google/uuid"
)

// openMySQL connects to the database named by DB_DSN; the tests skip without one.
func openMySQL(t *testing.T) *repository.GormStore {
	t.Helper()
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		t.Skip("DB_DSN not set")
	}
	db, err := database.NewDB(&config.DatabaseConfig{DSN: dsn, MaxIdleConns: 2, MaxOpenConns: 4, ConnMaxLifetime: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatal(err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	return repository.NewGormStore(db)
}

func createUser(t *testing.T, ctx context.Context, s repository.Store) *models.User {
	t.Helper()
	u := &models.User{Email: uuid.NewString() + "@example.com", Name: "Ana", Role: domain.RoleUser, Level: "Bronze"}
	if err := s.Users().Create(ctx, u); err != nil {
		t.Fatal(err)
	}
	return u
}

func appendPoints(ctx context.Context, s repository.Store, userID uint, pts int64, reason string) error {
	return s.Points().Append(ctx, &models.PointsTransaction{UserID: userID, Points: pts, Reason: reason, CreatedAt: time.Now().UTC()})
}

func TestGormTotalsExcludesRedemptionsFromLifetime(t *testing.T) {
	s := openMySQL(t)
	ctx := context.Background()
	u := createUser(t, ctx, s)

	for _, e := range []struct {
		pts    int64
		reason string
	}{
		{100, domain.ReasonRegister},
		{50, domain.ReasonCheckin},
		{-120, domain.ReasonRedemption},
	} {
		if err := appendPoints(ctx, s, u.ID, e.pts, e.reason); err != nil {
			t.Fatal(err)
		}
	}
	balance, lifetime, err := s.Points().Totals(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if balance != 30 || lifetime != 150 {
		t.Errorf("Totals = %d/%d, want 30/150", balance, lifetime)
	}
}

func TestGormNestedAtomicRollsBackToSavepoint(t *testing.T) {
	s := openMySQL(t)
	ctx := context.Background()
	u := createUser(t, ctx, s)
	errInner := errors.New("inner failed")

	err := s.Atomic(ctx, func(tx repository.Store) error {
		if err := appendPoints(ctx, tx, u.ID, 10, domain.ReasonManualAdjustment); err != nil {
			return err
		}
		if err := tx.Atomic(ctx, func(inner repository.Store) error {
			if err := appendPoints(ctx, inner, u.ID, 5, domain.ReasonManualAdjustment); err != nil {
				return err
			}
			return errInner
		}); !errors.Is(err, errInner) {
			t.Errorf("inner Atomic err = %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	balance, _, err := s.Points().Totals(ctx, u.ID)
	if err != nil || balance != 10 {
		t.Errorf("balance = %d, %v; want only the outer 10", balance, err)
	}
}

func TestGormErrorsMapToSentinels(t *testing.T) {
	s := openMySQL(t)
	ctx := context.Background()
	u := createUser(t, ctx, s)

	dup := &models.User{Email: u.Email, Name: "Outra", Role: domain.RoleUser, Level: "Bronze"}
	if err := s.Users().Create(ctx, dup); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("duplicate email err = %v", err)
	}
	if _, err := s.Users().GetByID(ctx, uint(1<<40)); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("missing user err = %v", err)
	}
}
