package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"pontox/internal/domain"
	"pontox/internal/models"
	"pontox/internal/repository"
)

const maxCommentLength = 1000

type ReviewResult struct {
	Review   models.SpotReview `json:"review"`
	Points   int64             `json:"points"`
	Balance  int64             `json:"balance"`
	Unlocked []string          `json:"achievements_unlocked"`
}

type SpotReviews struct {
	Reviews       []models.SpotReview `json:"reviews"`
	Total         int64               `json:"total"`
	AverageRating float64             `json:"average_rating"`
}

type ReviewService struct {
	clock
	store        repository.Store
	ledger       *LedgerService
	settings     *SettingsService
	achievements *AchievementService
}

func NewReviewService(store repository.Store, ledger *LedgerService, settings *SettingsService, achievements *AchievementService) *ReviewService {
	return &ReviewService{store: store, ledger: ledger, settings: settings, achievements: achievements}
}

// Create stores a user's single review of a spot and credits the review bonus.
func (s *ReviewService) Create(ctx context.Context, userID, spotID uint, rating int, comment string) (*ReviewResult, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > maxCommentLength {
		comment = string([]rune(comment)[:maxCommentLength])
	}

	var (
		res   *ReviewResult
		entry *LedgerEntry
	)
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		entry = nil
		spot, err := tx.Spots().GetByID(ctx, spotID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSpotNotFound
		}
		if err != nil {
			return err
		}
		r := &models.SpotReview{UserID: userID, SpotID: spotID, Rating: rating, Comment: comment, CreatedAt: s.now()}
		if err := tx.Reviews().Create(ctx, r); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyReviewed
			}
			return err
		}
		res = &ReviewResult{Review: *r}
		if pts := s.settings.Int(ctx, tx, domain.SettingPointsReview); pts > 0 {
			entry, err = s.ledger.Append(ctx, tx, userID, pts, domain.ReasonReview,
				fmt.Sprintf("Avaliação: %s", spot.Name), WithReference(fmt.Sprintf("review_%d", r.ID)))
			if err != nil {
				return err
			}
			res.Points, res.Balance = pts, entry.Balance
			return nil
		}
		u, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		res.Balance = u.Points
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.ledger.Committed(ctx, entry)
	unlocked, credited := s.achievements.evaluateQuietly(ctx, userID)
	for _, a := range unlocked {
		res.Unlocked = append(res.Unlocked, a.ID)
	}
	if credited != nil {
		res.Balance = credited.Balance
	}
	return res, nil
}

func (s *ReviewService) ListBySpot(ctx context.Context, spotID uint, limit, offset int) (*SpotReviews, error) {
	if _, err := s.store.Spots().GetByID(ctx, spotID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSpotNotFound
		}
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	list, total, err := s.store.Reviews().ListBySpot(ctx, spotID, limit, offset)
	if err != nil {
		return nil, err
	}
	avg, err := s.store.Reviews().AverageRating(ctx, spotID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.SpotReview{}
	}
	return &SpotReviews{Reviews: list, Total: total, AverageRating: avg}, nil
}
