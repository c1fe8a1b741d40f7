package memory

import (
	"context"
	"sort"
	"time"

	"pontox/internal/models"
	"pontox/internal/repository"
)

type checkInRepo struct{ s *Store }

func (r checkInRepo) Create(ctx context.Context, c *models.CheckIn) error {
	return r.s.write(ctx, func(d *Data) error {
		_, dup := find(d.CheckIns, func(x *models.CheckIn) bool {
			return x.UserID == c.UserID && x.SpotID == c.SpotID && x.Day == c.Day
		})
		if dup {
			return repository.ErrDuplicate
		}
		c.ID = nextID(d.CheckIns, func(x *models.CheckIn) uint { return x.ID })
		r.s.stamp(&c.CreatedAt)
		d.CheckIns = append(d.CheckIns, *c)
		return nil
	})
}

func (r checkInRepo) ListByUser(_ context.Context, userID uint, limit, offset int) ([]models.CheckIn, int64, error) {
	var out []models.CheckIn
	r.s.read(func(d *Data) {
		for _, c := range d.CheckIns {
			if c.UserID == userID {
				out = append(out, c)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return paginate(out, limit, offset), int64(len(out)), nil
}

func (r checkInRepo) Days(_ context.Context, userID uint) ([]string, error) {
	seen := map[string]bool{}
	var days []string
	r.s.read(func(d *Data) {
		for _, c := range d.CheckIns {
			if c.UserID == userID && !seen[c.Day] {
				seen[c.Day] = true
				days = append(days, c.Day)
			}
		}
	})
	sort.Strings(days)
	return days, nil
}

func (r checkInRepo) DistinctSpots(_ context.Context, userID uint) (int64, error) {
	seen := map[uint]bool{}
	r.s.read(func(d *Data) {
		for _, c := range d.CheckIns {
			if c.UserID == userID {
				seen[c.SpotID] = true
			}
		}
	})
	return int64(len(seen)), nil
}

func (r checkInRepo) CountBySpot(_ context.Context) (map[uint]int64, error) {
	out := map[uint]int64{}
	r.s.read(func(d *Data) {
		for _, c := range d.CheckIns {
			out[c.SpotID]++
		}
	})
	return out, nil
}

func (r checkInRepo) CountBySpotID(_ context.Context, spotID uint) (int64, error) {
	var n int64
	r.s.read(func(d *Data) {
		for _, c := range d.CheckIns {
			if c.SpotID == spotID {
				n++
			}
		}
	})
	return n, nil
}

func (r checkInRepo) Since(_ context.Context, since time.Time) ([]models.CheckIn, error) {
	var out []models.CheckIn
	r.s.read(func(d *Data) {
		for _, c := range d.CheckIns {
			if since.IsZero() || !c.CreatedAt.Before(since) {
				out = append(out, c)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r checkInRepo) Count(_ context.Context) (int64, error) {
	var n int64
	r.s.read(func(d *Data) { n = int64(len(d.CheckIns)) })
	return n, nil
}
