package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"pontox/internal/cache"
	"pontox/internal/domain"
	"pontox/internal/models"
	"pontox/internal/repository"
	"pontox/internal/telemetry"
	"pontox/internal/ws"
	"pontox/pkg/level"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
)

// LedgerEntry is the outcome of one append: the stored transaction and the user's totals after it.
type LedgerEntry struct {
	Transaction   models.PointsTransaction `json:"transaction"`
	Balance       int64                    `json:"balance"`
	Lifetime      int64                    `json:"lifetime_points"`
	Level         level.Level              `json:"level"`
	PreviousLevel level.Level              `json:"previous_level"`
}

// LeveledUp reports whether the append moved the user to a higher tier.
func (e *LedgerEntry) LeveledUp() bool {
	return level.Rank(e.Level) > level.Rank(e.PreviousLevel)
}

type entryOptions struct {
	reference string
	metadata  map[string]interface{}
}

type EntryOption func(*entryOptions)

// WithReference links the entry to the record that caused it, e.g. "checkin_12".
func WithReference(ref string) EntryOption {
	return func(o *entryOptions) { o.reference = ref }
}

func WithMetadata(m map[string]interface{}) EntryOption {
	return func(o *entryOptions) { o.metadata = m }
}

// Drift describes a user whose stored totals disagreed with the transaction log.
type Drift struct {
	UserID         uint  `json:"user_id"`
	StoredPoints   int64 `json:"stored_points"`
	LogPoints      int64 `json:"log_points"`
	StoredLifetime int64 `json:"stored_lifetime"`
	LogLifetime    int64 `json:"log_lifetime"`
}

// LedgerService owns every change to a user's points. The transaction log is the source of truth;
// User.Points, LifetimePoints and Level are materialised in the same atomic unit as each append.
type LedgerService struct {
	clock
	store  repository.Store
	notify *NotificationService
	pub    Publisher
	cache  *cache.TTL
}

func NewLedgerService(store repository.Store, notify *NotificationService, pub Publisher, c *cache.TTL) *LedgerService {
	return &LedgerService{store: store, notify: notify, pub: pub, cache: c}
}

// AddPoints appends one entry in its own atomic unit and publishes the result.
func (s *LedgerService) AddPoints(ctx context.Context, userID uint, delta int64, reason, description string, opts ...EntryOption) (*LedgerEntry, error) {
	var entry *LedgerEntry
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		e, err := s.Append(ctx, tx, userID, delta, reason, description, opts...)
		entry = e
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Committed(ctx, entry)
	return entry, nil
}

// Append writes an entry inside the caller's atomic unit. The caller must pass the
// returned entry to Committed once the unit commits.
func (s *LedgerService) Append(ctx context.Context, tx repository.Store, userID uint, delta int64, reason, description string, opts ...EntryOption) (*LedgerEntry, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "ledger.Append")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("points.delta", delta),
		attribute.String("points.reason", reason),
	)

	entry, err := s.append(ctx, tx, userID, delta, reason, description, opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return entry, nil
}

func (s *LedgerService) append(ctx context.Context, tx repository.Store, userID uint, delta int64, reason, description string, opts ...EntryOption) (*LedgerEntry, error) {
	if !domain.ValidReason(reason) {
		return nil, ErrInvalidReason
	}
	if delta == 0 {
		return nil, ErrZeroPoints
	}
	o := entryOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	u, err := tx.Users().GetForUpdate(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if u.Points+delta < 0 {
		return nil, ErrInsufficientPoints
	}

	prev := level.Level(u.Level)
	if !level.Valid(u.Level) {
		prev = level.For(u.LifetimePoints)
	}
	u.Points += delta
	if reason != domain.ReasonRedemption {
		u.LifetimePoints += delta
	}
	u.Level = string(level.For(u.LifetimePoints))

	t := &models.PointsTransaction{
		UserID:      userID,
		Points:      delta,
		Reason:      reason,
		Description: description,
		Reference:   o.reference,
		CreatedAt:   s.now(),
	}
	if len(o.metadata) > 0 {
		t.Metadata = datatypes.JSONMap(o.metadata)
	}
	if err := tx.Points().Append(ctx, t); err != nil {
		return nil, fmt.Errorf("append transaction: %w", err)
	}
	if err := tx.Users().Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user totals: %w", err)
	}
	return &LedgerEntry{
		Transaction:   *t,
		Balance:       u.Points,
		Lifetime:      u.LifetimePoints,
		Level:         level.Level(u.Level),
		PreviousLevel: prev,
	}, nil
}

// Committed runs the side effects of committed entries: cache invalidation, live events
// and level-up notifications. Nil entries are skipped.
func (s *LedgerService) Committed(ctx context.Context, entries ...*LedgerEntry) {
	for _, e := range entries {
		if e == nil {
			continue
		}
		if s.cache != nil {
			s.cache.Invalidate()
		}
		if s.pub != nil {
			s.pub.Publish(e.Transaction.UserID, ws.EventPointsUpdated, e)
		}
		if !e.LeveledUp() {
			continue
		}
		if s.pub != nil {
			s.pub.Publish(e.Transaction.UserID, ws.EventLevelUp, map[string]interface{}{
				"level":          e.Level,
				"previous_level": e.PreviousLevel,
			})
		}
		if s.notify != nil {
			title := fmt.Sprintf("Você subiu para o nível %s!", e.Level)
			body := fmt.Sprintf("Parabéns! Com %d pontos acumulados você alcançou o nível %s.", e.Lifetime, e.Level)
			if err := s.notify.Notify(ctx, e.Transaction.UserID, domain.NotifyLevelUp, title, body, map[string]interface{}{"level": string(e.Level)}); err != nil {
				log.Printf("[ledger] level-up notification for user %d: %v", e.Transaction.UserID, err)
			}
		}
	}
}

// Balance folds the user's transaction log.
func (s *LedgerService) Balance(ctx context.Context, userID uint) (int64, error) {
	if _, err := s.store.Users().GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	balance, _, err := s.store.Points().Totals(ctx, userID)
	return balance, err
}

func (s *LedgerService) History(ctx context.Context, userID uint, limit, offset int) ([]models.PointsTransaction, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.Points().List(ctx, repository.TransactionFilter{UserID: userID, Limit: limit, Offset: offset})
}

// Reconcile recomputes a user's materialised totals from the log. It returns the drift it
// corrected, or nil when the stored totals already matched.
func (s *LedgerService) Reconcile(ctx context.Context, userID uint) (*Drift, error) {
	var drift *Drift
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		d, err := s.reconcile(ctx, tx, userID)
		drift = d
		return err
	})
	if err == nil && drift != nil && s.cache != nil {
		s.cache.Invalidate()
	}
	return drift, err
}

// ReconcileAll reconciles every user and returns the drifts found.
func (s *LedgerService) ReconcileAll(ctx context.Context) ([]Drift, error) {
	users, err := s.store.Users().All(ctx)
	if err != nil {
		return nil, err
	}
	drifts := []Drift{}
	for _, u := range users {
		d, err := s.Reconcile(ctx, u.ID)
		if err != nil {
			return drifts, fmt.Errorf("reconcile user %d: %w", u.ID, err)
		}
		if d != nil {
			log.Printf("[ledger] corrected drift for user %d: points %d -> %d, lifetime %d -> %d",
				d.UserID, d.StoredPoints, d.LogPoints, d.StoredLifetime, d.LogLifetime)
			drifts = append(drifts, *d)
		}
	}
	return drifts, nil
}

func (s *LedgerService) reconcile(ctx context.Context, tx repository.Store, userID uint) (*Drift, error) {
	u, err := tx.Users().GetForUpdate(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	balance, lifetime, err := tx.Points().Totals(ctx, userID)
	if err != nil {
		return nil, err
	}
	lvl := string(level.For(lifetime))
	if u.Points == balance && u.LifetimePoints == lifetime && u.Level == lvl {
		return nil, nil
	}
	d := &Drift{UserID: userID, StoredPoints: u.Points, LogPoints: balance, StoredLifetime: u.LifetimePoints, LogLifetime: lifetime}
	u.Points, u.LifetimePoints, u.Level = balance, lifetime, lvl
	if err := tx.Users().Update(ctx, u); err != nil {
		return nil, err
	}
	return d, nil
}
