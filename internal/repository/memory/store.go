// Package memory is an in-process repository.Store.
//
// All state lives in a Data value guarded by one lock. Atomic holds the write lock for the
// whole unit, snapshots the state first and restores it if fn or the commit hook fails.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"pontox/internal/models"
	"pontox/internal/repository"
)

// Data is the full store state. It is exported so it can be persisted between runs.
type Data struct {
	Users         []models.User
	Transactions  []models.PointsTransaction
	Referrals     []models.Referral
	Spots         []models.TouristSpot
	CheckIns      []models.CheckIn
	Redemptions   []models.Redemption
	Achievements  []models.UserAchievement
	Reviews       []models.SpotReview
	Notifications []models.Notification
	Settings      map[string]string
	AuditLogs     []models.AuditLog
}

func (d *Data) clone() *Data {
	return &Data{
		Users:         slices.Clone(d.Users),
		Transactions:  slices.Clone(d.Transactions),
		Referrals:     slices.Clone(d.Referrals),
		Spots:         slices.Clone(d.Spots),
		CheckIns:      slices.Clone(d.CheckIns),
		Redemptions:   slices.Clone(d.Redemptions),
		Achievements:  slices.Clone(d.Achievements),
		Reviews:       slices.Clone(d.Reviews),
		Notifications: slices.Clone(d.Notifications),
		Settings:      maps.Clone(d.Settings),
		AuditLogs:     slices.Clone(d.AuditLogs),
	}
}

// CommitFunc receives the state after every committed write.
type CommitFunc func(ctx context.Context, d *Data) error

type Option func(*core)

// WithData seeds the store, e.g. with state loaded from disk.
func WithData(d *Data) Option {
	return func(c *core) {
		if d != nil {
			c.data = d.clone()
		}
	}
}

// WithCommitHook registers fn to run after each write. A failing hook rolls the write back.
func WithCommitHook(fn CommitFunc) Option {
	return func(c *core) { c.onCommit = fn }
}

// WithClock sets the clock used to fill zero timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *core) { c.now = now }
}

type core struct {
	mu       sync.RWMutex
	data     *Data
	onCommit CommitFunc
	now      func() time.Time
}

// Store implements repository.Store. A Store handed to an Atomic callback already holds
// the write lock and must not be used after the callback returns.
type Store struct {
	*core
	inTx bool
}

var _ repository.Store = (*Store)(nil)

func New(opts ...Option) *Store {
	c := &core{data: &Data{}, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.data.Settings == nil {
		c.data.Settings = map[string]string{}
	}
	return &Store{core: c}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() *Data {
	if s.inTx {
		return s.data.clone()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.clone()
}

func (s *Store) Users() repository.UserRepository { return userRepo{s} }
func (s *Store) Points() repository.PointsRepository { return pointsRepo{s} }
func (s *Store) Referrals() repository.ReferralRepository { return referralRepo{s} }
func (s *Store) Spots() repository.SpotRepository { return spotRepo{s} }
func (s *Store) CheckIns() repository.CheckInRepository { return checkInRepo{s} }
func (s *Store) Redemptions() repository.RedemptionRepository { return redemptionRepo{s} }
func (s *Store) Achievements() repository.AchievementRepository { return achievementRepo{s} }
func (s *Store) Reviews() repository.ReviewRepository { return reviewRepo{s} }
func (s *Store) Notifications() repository.NotificationRepository { return notificationRepo{s} }
func (s *Store) Settings() repository.SettingRepository { return settingRepo{s} }
func (s *Store) Audit() repository.AuditRepository { return auditRepo{s} }

func (s *Store) Atomic(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		snap := s.data.clone()
		if err := fn(s); err != nil {
			s.data = snap
			return err
		}
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(ctx, func() error {
		return fn(&Store{core: s.core, inTx: true})
	})
}

func (s *Store) read(fn func(d *Data)) {
	if s.inTx {
		fn(s.data)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

// write applies a single mutation. Mutations validate before changing d,
// so a failed write leaves the state untouched.
func (s *Store) write(ctx context.Context, fn func(d *Data) error) error {
	if s.inTx {
		return fn(s.data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(ctx, func() error { return fn(s.data) })
}

func (s *Store) commitLocked(ctx context.Context, fn func() error) error {
	snap := s.data.clone()
	if err := fn(); err != nil {
		s.data = snap
		return err
	}
	if s.onCommit != nil {
		if err := s.onCommit(ctx, s.data); err != nil {
			s.data = snap
			return err
		}
	}
	return nil
}

func (s *Store) stamp(t *time.Time) {
	if t.IsZero() {
		*t = s.now().UTC()
	}
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func nextID[T any](rows []T, id func(*T) uint) uint {
	var hi uint
	for i := range rows {
		if v := id(&rows[i]); v > hi {
			hi = v
		}
	}
	return hi + 1
}

func find[T any](rows []T, match func(*T) bool) (int, bool) {
	for i := range rows {
		if match(&rows[i]) {
			return i, true
		}
	}
	return -1, false
}

// newestFirst orders by created desc then id desc.
func newestFirst(ta, tb time.Time, ida, idb uint) bool {
	if !ta.Equal(tb) {
		return ta.After(tb)
	}
	return ida > idb
}
