package memory

import (
	"context"
	"sort"
	"time"

	"pontox/internal/models"
	"pontox/internal/repository"
)

type notificationRepo struct{ s *Store }

func (r notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	return r.s.write(ctx, func(d *Data) error {
		n.ID = nextID(d.Notifications, func(x *models.Notification) uint { return x.ID })
		r.s.stamp(&n.CreatedAt)
		d.Notifications = append(d.Notifications, *n)
		return nil
	})
}

func (r notificationRepo) ListByUser(_ context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	var out []models.Notification
	r.s.read(func(d *Data) {
		for _, n := range d.Notifications {
			if n.UserID == userID {
				out = append(out, n)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return paginate(out, limit, offset), nil
}

func (r notificationRepo) MarkRead(ctx context.Context, id, userID uint, at time.Time) error {
	return r.s.write(ctx, func(d *Data) error {
		i, ok := find(d.Notifications, func(x *models.Notification) bool { return x.ID == id && x.UserID == userID })
		if !ok {
			return repository.ErrNotFound
		}
		d.Notifications[i].ReadAt = &at
		return nil
	})
}

func (r notificationRepo) UnreadCount(_ context.Context, userID uint) (int64, error) {
	var n int64
	r.s.read(func(d *Data) {
		for _, x := range d.Notifications {
			if x.UserID == userID && x.ReadAt == nil {
				n++
			}
		}
	})
	return n, nil
}
