package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"pontox/internal/domain"
	"pontox/internal/repository"
)

// SettingsService reads and updates the points configuration.
type SettingsService struct {
	clock
	store repository.Store
}

func NewSettingsService(store repository.Store) *SettingsService {
	return &SettingsService{store: store}
}

// Int returns an integer setting read through st (the current atomic unit, or nil for the base store).
// Missing or malformed values fall back to the default.
func (s *SettingsService) Int(ctx context.Context, st repository.Store, key string) int64 {
	if st == nil {
		st = s.store
	}
	val, err := st.Settings().Get(ctx, key)
	if err != nil || val == "" {
		val = domain.DefaultSettings[key]
	}
	n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	if err != nil {
		n, _ = strconv.ParseInt(domain.DefaultSettings[key], 10, 64)
	}
	return n
}

// PointsConfig returns every known setting with its effective value.
func (s *SettingsService) PointsConfig(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64, len(domain.DefaultSettings))
	for key := range domain.DefaultSettings {
		out[key] = s.Int(ctx, nil, key)
	}
	return out, nil
}

// Update validates and stores settings. Unknown keys and out-of-range values are rejected as a whole.
func (s *SettingsService) Update(ctx context.Context, adminID uint, values map[string]int64, meta AuditMeta) error {
	if len(values) == 0 {
		return ErrInvalidSetting
	}
	keys := make([]string, 0, len(values))
	for key, v := range values {
		if _, ok := domain.DefaultSettings[key]; !ok {
			return &Error{Code: ErrInvalidSetting.Code, Message: fmt.Sprintf("configuração desconhecida: %s", key), Status: ErrInvalidSetting.Status}
		}
		floor := int64(0)
		if key == domain.SettingPointsStreakDays || key == domain.SettingRedemptionExpiryDays {
			floor = 1
		}
		if v < floor {
			return &Error{Code: ErrInvalidSetting.Code, Message: fmt.Sprintf("valor inválido para %s", key), Status: ErrInvalidSetting.Status}
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return s.store.Atomic(ctx, func(tx repository.Store) error {
		var detail []string
		for _, key := range keys {
			v := strconv.FormatInt(values[key], 10)
			if err := tx.Settings().Set(ctx, key, v); err != nil {
				return err
			}
			detail = append(detail, key+"="+v)
		}
		return tx.Audit().Create(ctx, auditLog(adminID, "settings.update", "points_config", strings.Join(detail, ", "), meta, s.now()))
	})
}
