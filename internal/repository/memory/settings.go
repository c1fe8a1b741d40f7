package memory

import (
	"context"
	"maps"

	"pontox/internal/repository"
)

type settingRepo struct{ s *Store }

func (r settingRepo) Get(_ context.Context, key string) (string, error) {
	var (
		v  string
		ok bool
	)
	r.s.read(func(d *Data) { v, ok = d.Settings[key] })
	if !ok {
		return "", repository.ErrNotFound
	}
	return v, nil
}

func (r settingRepo) Set(ctx context.Context, key, value string) error {
	return r.s.write(ctx, func(d *Data) error {
		d.Settings[key] = value
		return nil
	})
}

func (r settingRepo) All(_ context.Context) (map[string]string, error) {
	var out map[string]string
	r.s.read(func(d *Data) { out = maps.Clone(d.Settings) })
	return out, nil
}

func (r settingRepo) SeedDefaults(ctx context.Context, defaults map[string]string) error {
	return r.s.write(ctx, func(d *Data) error {
		for k, v := range defaults {
			if _, ok := d.Settings[k]; !ok {
				d.Settings[k] = v
			}
		}
		return nil
	})
}
