package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"pontox/internal/models"
	"pontox/internal/repository"
)

type userRepo struct{ s *Store }

func sameString(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}

func checkUserUnique(d *Data, u *models.User) error {
	for i := range d.Users {
		o := &d.Users[i]
		if o.ID == u.ID {
			continue
		}
		if strings.EqualFold(o.Email, u.Email) || sameString(o.GoogleID, u.GoogleID) || sameString(o.ReferralCode, u.ReferralCode) {
			return repository.ErrDuplicate
		}
	}
	return nil
}

func (r userRepo) Create(ctx context.Context, u *models.User) error {
	return r.s.write(ctx, func(d *Data) error {
		u.ID = 0
		if err := checkUserUnique(d, u); err != nil {
			return err
		}
		u.ID = nextID(d.Users, func(x *models.User) uint { return x.ID })
		r.s.stamp(&u.CreatedAt)
		r.s.stamp(&u.UpdatedAt)
		d.Users = append(d.Users, *u)
		return nil
	})
}

func (r userRepo) Update(ctx context.Context, u *models.User) error {
	return r.s.write(ctx, func(d *Data) error {
		i, ok := find(d.Users, func(x *models.User) bool { return x.ID == u.ID })
		if !ok {
			return repository.ErrNotFound
		}
		if err := checkUserUnique(d, u); err != nil {
			return err
		}
		u.UpdatedAt = r.s.now().UTC()
		d.Users[i] = *u
		return nil
	})
}

func (r userRepo) get(match func(*models.User) bool) (*models.User, error) {
	var out *models.User
	r.s.read(func(d *Data) {
		if i, ok := find(d.Users, match); ok {
			u := d.Users[i]
			out = &u
		}
	})
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (r userRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	return r.get(func(u *models.User) bool { return u.ID == id })
}

// GetForUpdate needs no extra locking: writers are already serialised.
func (r userRepo) GetForUpdate(ctx context.Context, id uint) (*models.User, error) {
	return r.GetByID(ctx, id)
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.get(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r userRepo) GetByGoogleID(_ context.Context, googleID string) (*models.User, error) {
	return r.get(func(u *models.User) bool { return u.GoogleID != nil && *u.GoogleID == googleID })
}

func (r userRepo) GetByReferralCode(_ context.Context, code string) (*models.User, error) {
	return r.get(func(u *models.User) bool { return u.ReferralCode != nil && *u.ReferralCode == code })
}

func (r userRepo) List(_ context.Context, f repository.UserFilter) ([]models.User, int64, error) {
	search := strings.ToLower(f.Search)
	var out []models.User
	r.s.read(func(d *Data) {
		for _, u := range d.Users {
			if f.Level != "" && u.Level != f.Level {
				continue
			}
			if f.Role != "" && u.Role != f.Role {
				continue
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(u.Name), search) &&
				!strings.Contains(strings.ToLower(u.Email), search) &&
				!strings.Contains(strings.ToLower(u.Code()), search) {
				continue
			}
			out = append(out, u)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return paginate(out, f.Limit, f.Offset), int64(len(out)), nil
}

func (r userRepo) All(_ context.Context) ([]models.User, error) {
	var out []models.User
	r.s.read(func(d *Data) {
		out = append(out, d.Users...)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r userRepo) Count(_ context.Context) (int64, error) {
	var n int64
	r.s.read(func(d *Data) { n = int64(len(d.Users)) })
	return n, nil
}

func (r userRepo) CountSince(_ context.Context, since time.Time) (int64, error) {
	var n int64
	r.s.read(func(d *Data) {
		for _, u := range d.Users {
			if !u.CreatedAt.Before(since) {
				n++
			}
		}
	})
	return n, nil
}
