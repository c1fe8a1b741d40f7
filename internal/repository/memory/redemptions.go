package memory

import (
	"context"
	"sort"

	"pontox/internal/models"
	"pontox/internal/repository"
)

type redemptionRepo struct{ s *Store }

func checkRedemptionUnique(d *Data, red *models.Redemption) error {
	for _, o := range d.Redemptions {
		if o.ID == red.ID {
			continue
		}
		if o.Code == red.Code {
			return repository.ErrDuplicate
		}
		if o.UserID == red.UserID && sameString(o.IdempotencyKey, red.IdempotencyKey) {
			return repository.ErrDuplicate
		}
	}
	return nil
}

func (r redemptionRepo) Create(ctx context.Context, red *models.Redemption) error {
	return r.s.write(ctx, func(d *Data) error {
		red.ID = 0
		if err := checkRedemptionUnique(d, red); err != nil {
			return err
		}
		red.ID = nextID(d.Redemptions, func(x *models.Redemption) uint { return x.ID })
		r.s.stamp(&red.RedeemedAt)
		d.Redemptions = append(d.Redemptions, *red)
		return nil
	})
}

func (r redemptionRepo) Update(ctx context.Context, red *models.Redemption) error {
	return r.s.write(ctx, func(d *Data) error {
		i, ok := find(d.Redemptions, func(x *models.Redemption) bool { return x.ID == red.ID })
		if !ok {
			return repository.ErrNotFound
		}
		if err := checkRedemptionUnique(d, red); err != nil {
			return err
		}
		d.Redemptions[i] = *red
		return nil
	})
}

func (r redemptionRepo) get(match func(*models.Redemption) bool) (*models.Redemption, error) {
	var out *models.Redemption
	r.s.read(func(d *Data) {
		if i, ok := find(d.Redemptions, match); ok {
			red := d.Redemptions[i]
			out = &red
		}
	})
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (r redemptionRepo) GetByCode(_ context.Context, code string) (*models.Redemption, error) {
	return r.get(func(x *models.Redemption) bool { return x.Code == code })
}

func (r redemptionRepo) GetByIdempotencyKey(_ context.Context, userID uint, key string) (*models.Redemption, error) {
	return r.get(func(x *models.Redemption) bool {
		return x.UserID == userID && x.IdempotencyKey != nil && *x.IdempotencyKey == key
	})
}

func (r redemptionRepo) List(_ context.Context, f repository.RedemptionFilter) ([]models.Redemption, int64, error) {
	var out []models.Redemption
	r.s.read(func(d *Data) {
		for _, red := range d.Redemptions {
			if f.UserID != 0 && red.UserID != f.UserID {
				continue
			}
			if f.Status != "" && red.Status != f.Status {
				continue
			}
			out = append(out, red)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].RedeemedAt, out[j].RedeemedAt, out[i].ID, out[j].ID)
	})
	return paginate(out, f.Limit, f.Offset), int64(len(out)), nil
}
