package memory

import (
	"context"
	"sort"
	"time"

	"pontox/internal/domain"
	"pontox/internal/models"
	"pontox/internal/repository"
)

type pointsRepo struct{ s *Store }

func (r pointsRepo) Append(ctx context.Context, tx *models.PointsTransaction) error {
	return r.s.write(ctx, func(d *Data) error {
		tx.ID = nextID(d.Transactions, func(x *models.PointsTransaction) uint { return x.ID })
		r.s.stamp(&tx.CreatedAt)
		d.Transactions = append(d.Transactions, *tx)
		return nil
	})
}

func (r pointsRepo) List(_ context.Context, f repository.TransactionFilter) ([]models.PointsTransaction, int64, error) {
	var out []models.PointsTransaction
	r.s.read(func(d *Data) {
		for _, tx := range d.Transactions {
			if f.UserID != 0 && tx.UserID != f.UserID {
				continue
			}
			if f.Reason != "" && tx.Reason != f.Reason {
				continue
			}
			if !f.Since.IsZero() && tx.CreatedAt.Before(f.Since) {
				continue
			}
			out = append(out, tx)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return paginate(out, f.Limit, f.Offset), int64(len(out)), nil
}

func (r pointsRepo) Since(_ context.Context, since time.Time) ([]models.PointsTransaction, error) {
	var out []models.PointsTransaction
	r.s.read(func(d *Data) {
		for _, tx := range d.Transactions {
			if since.IsZero() || !tx.CreatedAt.Before(since) {
				out = append(out, tx)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r pointsRepo) Totals(_ context.Context, userID uint) (int64, int64, error) {
	var balance, lifetime int64
	r.s.read(func(d *Data) {
		for _, tx := range d.Transactions {
			if tx.UserID != userID {
				continue
			}
			balance += tx.Points
			if tx.Reason != domain.ReasonRedemption {
				lifetime += tx.Points
			}
		}
	})
	return balance, lifetime, nil
}
