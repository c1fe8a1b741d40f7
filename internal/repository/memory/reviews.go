package memory

import (
	"context"
	"sort"

	"pontox/internal/models"
	"pontox/internal/repository"
)

type reviewRepo struct{ s *Store }

func (r reviewRepo) Create(ctx context.Context, rev *models.SpotReview) error {
	return r.s.write(ctx, func(d *Data) error {
		_, dup := find(d.Reviews, func(x *models.SpotReview) bool {
			return x.UserID == rev.UserID && x.SpotID == rev.SpotID
		})
		if dup {
			return repository.ErrDuplicate
		}
		rev.ID = nextID(d.Reviews, func(x *models.SpotReview) uint { return x.ID })
		r.s.stamp(&rev.CreatedAt)
		d.Reviews = append(d.Reviews, *rev)
		return nil
	})
}

func (r reviewRepo) ListBySpot(_ context.Context, spotID uint, limit, offset int) ([]models.SpotReview, int64, error) {
	var out []models.SpotReview
	r.s.read(func(d *Data) {
		for _, rev := range d.Reviews {
			if rev.SpotID == spotID {
				out = append(out, rev)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return paginate(out, limit, offset), int64(len(out)), nil
}

func (r reviewRepo) CountByUser(_ context.Context, userID uint) (int64, error) {
	var n int64
	r.s.read(func(d *Data) {
		for _, rev := range d.Reviews {
			if rev.UserID == userID {
				n++
			}
		}
	})
	return n, nil
}

func (r reviewRepo) AverageRating(_ context.Context, spotID uint) (float64, error) {
	var sum, n int
	r.s.read(func(d *Data) {
		for _, rev := range d.Reviews {
			if rev.SpotID == spotID {
				sum += rev.Rating
				n++
			}
		}
	})
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}
