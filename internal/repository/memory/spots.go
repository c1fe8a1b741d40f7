package memory

import (
	"context"
	"sort"

	"pontox/internal/models"
	"pontox/internal/repository"
)

type spotRepo struct{ s *Store }

func (r spotRepo) Create(ctx context.Context, sp *models.TouristSpot) error {
	return r.s.write(ctx, func(d *Data) error {
		sp.ID = nextID(d.Spots, func(x *models.TouristSpot) uint { return x.ID })
		r.s.stamp(&sp.CreatedAt)
		r.s.stamp(&sp.UpdatedAt)
		d.Spots = append(d.Spots, *sp)
		return nil
	})
}

func (r spotRepo) Update(ctx context.Context, sp *models.TouristSpot) error {
	return r.s.write(ctx, func(d *Data) error {
		i, ok := find(d.Spots, func(x *models.TouristSpot) bool { return x.ID == sp.ID })
		if !ok {
			return repository.ErrNotFound
		}
		sp.UpdatedAt = r.s.now().UTC()
		d.Spots[i] = *sp
		return nil
	})
}

func (r spotRepo) Delete(ctx context.Context, id uint) error {
	return r.s.write(ctx, func(d *Data) error {
		i, ok := find(d.Spots, func(x *models.TouristSpot) bool { return x.ID == id })
		if !ok {
			return repository.ErrNotFound
		}
		d.Spots = append(d.Spots[:i:i], d.Spots[i+1:]...)
		return nil
	})
}

func (r spotRepo) GetByID(_ context.Context, id uint) (*models.TouristSpot, error) {
	var out *models.TouristSpot
	r.s.read(func(d *Data) {
		if i, ok := find(d.Spots, func(x *models.TouristSpot) bool { return x.ID == id }); ok {
			sp := d.Spots[i]
			out = &sp
		}
	})
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (r spotRepo) List(_ context.Context, activeOnly bool) ([]models.TouristSpot, error) {
	var out []models.TouristSpot
	r.s.read(func(d *Data) {
		for _, sp := range d.Spots {
			if activeOnly && !sp.Active {
				continue
			}
			out = append(out, sp)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r spotRepo) Count(_ context.Context) (int64, error) {
	var n int64
	r.s.read(func(d *Data) { n = int64(len(d.Spots)) })
	return n, nil
}
