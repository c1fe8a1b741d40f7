package memory

import (
	"context"
	"sort"

	"pontox/internal/models"
)

type auditRepo struct{ s *Store }

func (r auditRepo) Create(ctx context.Context, l *models.AuditLog) error {
	return r.s.write(ctx, func(d *Data) error {
		l.ID = nextID(d.AuditLogs, func(x *models.AuditLog) uint { return x.ID })
		r.s.stamp(&l.CreatedAt)
		d.AuditLogs = append(d.AuditLogs, *l)
		return nil
	})
}

func (r auditRepo) List(_ context.Context, limit, offset int) ([]models.AuditLog, int64, error) {
	var out []models.AuditLog
	r.s.read(func(d *Data) { out = append(out, d.AuditLogs...) })
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return paginate(out, limit, offset), int64(len(out)), nil
}
