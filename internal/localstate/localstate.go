// Package localstate persists the in-memory store to a SQLite key/value table,
// one JSON document per collection.
package localstate

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pontox/internal/models"
	"pontox/internal/repository/memory"

	_ "modernc.org/sqlite"
)

// Keys persisted by the local driver.
const (
	KeyUsers         = "users"
	KeyTransactions  = "points_transactions"
	KeySpots         = "tourist_spots"
	KeyCheckIns      = "checkins"
	KeyPointsConfig  = "points_config"
	KeyReferrals     = "referrals"
	KeyRedemptions   = "redemptions"
	KeyAchievements  = "user_achievements"
	KeyReviews       = "spot_reviews"
	KeyNotifications = "notifications"
	KeyAuditLogs     = "audit_logs"
)

// Keys lists every persisted key in load order.
var Keys = []string{
	KeyUsers, KeyTransactions, KeySpots, KeyCheckIns, KeyPointsConfig, KeyReferrals,
	KeyRedemptions, KeyAchievements, KeyReviews, KeyNotifications, KeyAuditLogs,
}

// CorruptStateError reports a persisted value that could not be decoded.
type CorruptStateError struct {
	Key string
	Err error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("local state %q is corrupt: %v", e.Key, e.Err)
}

func (e *CorruptStateError) Unwrap() error { return e.Err }

// Store is the SQLite file backing the local driver.
type Store struct {
	sqlDB *sql.DB

	mu   sync.Mutex
	last map[string][]byte
}

// Open opens (creating if needed) the state file at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("local state path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	_, err = sqlDB.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &Store{sqlDB: sqlDB, last: map[string][]byte{}}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Load reads every key into a memory.Data. Missing keys load as empty collections.
// A value that fails to decode returns *CorruptStateError, unless resetCorrupt is set,
// in which case the key is dropped and loading continues.
func (s *Store) Load(ctx context.Context, resetCorrupt bool) (*memory.Data, error) {
	d := &memory.Data{Settings: map[string]string{}}
	for _, key := range Keys {
		var raw string
		err := s.sqlDB.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		if err := decode(d, key, []byte(raw)); err != nil {
			if !resetCorrupt {
				return nil, &CorruptStateError{Key: key, Err: err}
			}
			log.Printf("[store] resetting corrupt local state %q: %v", key, err)
			if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
				return nil, fmt.Errorf("reset %s: %w", key, err)
			}
			continue
		}
		s.mu.Lock()
		s.last[key] = []byte(raw)
		s.mu.Unlock()
	}
	return d, nil
}

// Save writes the keys whose encoding changed since the last Load or Save, in one transaction.
// It has the memory.CommitFunc signature.
func (s *Store) Save(ctx context.Context, d *memory.Data) error {
	docs, err := encode(d)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	changed := map[string][]byte{}
	for _, key := range Keys {
		doc := docs[key]
		if bytes.Equal(doc, s.last[key]) {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, string(doc), now)
		if err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
		changed[key] = doc
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	for k, v := range changed {
		s.last[k] = v
	}
	return nil
}

// userRecord keeps the credential fields that models.User hides from API responses.
type userRecord struct {
	models.User
	PasswordHash string  `json:"password_hash,omitempty"`
	GoogleID     *string `json:"google_id,omitempty"`
	FCMToken     string  `json:"fcm_token,omitempty"`
}

type redemptionRecord struct {
	models.Redemption
	IdempotencyKey *string `json:"idempotency_key,omitempty"`
}

func encode(d *memory.Data) (map[string][]byte, error) {
	users := make([]userRecord, len(d.Users))
	for i, u := range d.Users {
		users[i] = userRecord{User: u, PasswordHash: u.PasswordHash, GoogleID: u.GoogleID, FCMToken: u.FCMToken}
	}
	redemptions := make([]redemptionRecord, len(d.Redemptions))
	for i, r := range d.Redemptions {
		redemptions[i] = redemptionRecord{Redemption: r, IdempotencyKey: r.IdempotencyKey}
	}
	values := map[string]any{
		KeyUsers:         users,
		KeyTransactions:  nonNil(d.Transactions),
		KeySpots:         nonNil(d.Spots),
		KeyCheckIns:      nonNil(d.CheckIns),
		KeyPointsConfig:  d.Settings,
		KeyReferrals:     nonNil(d.Referrals),
		KeyRedemptions:   redemptions,
		KeyAchievements:  nonNil(d.Achievements),
		KeyReviews:       nonNil(d.Reviews),
		KeyNotifications: nonNil(d.Notifications),
		KeyAuditLogs:     nonNil(d.AuditLogs),
	}
	out := make(map[string][]byte, len(values))
	for k, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		out[k] = b
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func decode(d *memory.Data, key string, raw []byte) error {
	switch key {
	case KeyUsers:
		var recs []userRecord
		if err := json.Unmarshal(raw, &recs); err != nil {
			return err
		}
		d.Users = make([]models.User, len(recs))
		for i, r := range recs {
			u := r.User
			u.PasswordHash, u.GoogleID, u.FCMToken = r.PasswordHash, r.GoogleID, r.FCMToken
			d.Users[i] = u
		}
		return nil
	case KeyRedemptions:
		var recs []redemptionRecord
		if err := json.Unmarshal(raw, &recs); err != nil {
			return err
		}
		d.Redemptions = make([]models.Redemption, len(recs))
		for i, r := range recs {
			red := r.Redemption
			red.IdempotencyKey = r.IdempotencyKey
			d.Redemptions[i] = red
		}
		return nil
	case KeyPointsConfig:
		settings := map[string]string{}
		if err := json.Unmarshal(raw, &settings); err != nil {
			return err
		}
		if settings == nil {
			settings = map[string]string{}
		}
		d.Settings = settings
		return nil
	case KeyTransactions:
		return into(raw, &d.Transactions)
	case KeySpots:
		return into(raw, &d.Spots)
	case KeyCheckIns:
		return into(raw, &d.CheckIns)
	case KeyReferrals:
		return into(raw, &d.Referrals)
	case KeyAchievements:
		return into(raw, &d.Achievements)
	case KeyReviews:
		return into(raw, &d.Reviews)
	case KeyNotifications:
		return into(raw, &d.Notifications)
	case KeyAuditLogs:
		return into(raw, &d.AuditLogs)
	}
	return fmt.Errorf("unknown key %q", key)
}

// into decodes raw into a fresh slice so a failed decode leaves dst untouched.
func into[T any](raw []byte, dst *[]T) error {
	var v []T
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*dst = v
	return nil
}
