package memory

import (
	"context"
	"sort"

	"pontox/internal/models"
	"pontox/internal/repository"
)

type referralRepo struct{ s *Store }

func (r referralRepo) Create(ctx context.Context, ref *models.Referral) error {
	return r.s.write(ctx, func(d *Data) error {
		if _, dup := find(d.Referrals, func(x *models.Referral) bool { return x.ReferredID == ref.ReferredID }); dup {
			return repository.ErrDuplicate
		}
		ref.ID = nextID(d.Referrals, func(x *models.Referral) uint { return x.ID })
		r.s.stamp(&ref.CreatedAt)
		d.Referrals = append(d.Referrals, *ref)
		return nil
	})
}

func (r referralRepo) Update(ctx context.Context, ref *models.Referral) error {
	return r.s.write(ctx, func(d *Data) error {
		i, ok := find(d.Referrals, func(x *models.Referral) bool { return x.ID == ref.ID })
		if !ok {
			return repository.ErrNotFound
		}
		d.Referrals[i] = *ref
		return nil
	})
}

func (r referralRepo) GetByReferredID(_ context.Context, referredID uint) (*models.Referral, error) {
	var out *models.Referral
	r.s.read(func(d *Data) {
		if i, ok := find(d.Referrals, func(x *models.Referral) bool { return x.ReferredID == referredID }); ok {
			ref := d.Referrals[i]
			out = &ref
		}
	})
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (r referralRepo) ListByReferrer(_ context.Context, referrerID uint) ([]models.Referral, error) {
	list, _, _ := r.filter(func(x *models.Referral) bool { return x.ReferrerID == referrerID }, 0, 0)
	return list, nil
}

func (r referralRepo) List(_ context.Context, status string, limit, offset int) ([]models.Referral, int64, error) {
	return r.filter(func(x *models.Referral) bool { return status == "" || x.Status == status }, limit, offset)
}

func (r referralRepo) filter(match func(*models.Referral) bool, limit, offset int) ([]models.Referral, int64, error) {
	var out []models.Referral
	r.s.read(func(d *Data) {
		for i := range d.Referrals {
			if match(&d.Referrals[i]) {
				out = append(out, d.Referrals[i])
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return paginate(out, limit, offset), int64(len(out)), nil
}

func (r referralRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	out := map[string]int64{}
	r.s.read(func(d *Data) {
		for _, ref := range d.Referrals {
			out[ref.Status]++
		}
	})
	return out, nil
}
