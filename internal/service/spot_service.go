package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"pontox/internal/catalog"
	"pontox/internal/models"
	"pontox/internal/repository"
	"pontox/pkg/cloudinary"
	"pontox/pkg/location"
)

// SpotInput is the editable part of a tourist spot. Nil fields are left unchanged on update.
type SpotInput struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	Category      *string  `json:"category"`
	Address       *string  `json:"address"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	CheckinPoints *int64   `json:"checkin_points"`
	Active        *bool    `json:"active"`
}

type SpotDetail struct {
	models.TouristSpot
	CheckIns      int64   `json:"checkins"`
	AverageRating float64 `json:"average_rating"`
}

type SpotService struct {
	clock
	store       repository.Store
	images      cloudinary.Client
	imageFolder string
}

func NewSpotService(store repository.Store, images cloudinary.Client, imageFolder string) *SpotService {
	return &SpotService{store: store, images: images, imageFolder: imageFolder}
}

func (s *SpotService) List(ctx context.Context, includeInactive bool) ([]models.TouristSpot, error) {
	return s.store.Spots().List(ctx, !includeInactive)
}

func (s *SpotService) Get(ctx context.Context, id uint) (*SpotDetail, error) {
	sp, err := s.store.Spots().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSpotNotFound
	}
	if err != nil {
		return nil, err
	}
	n, err := s.store.CheckIns().CountBySpotID(ctx, id)
	if err != nil {
		return nil, err
	}
	avg, err := s.store.Reviews().AverageRating(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SpotDetail{TouristSpot: *sp, CheckIns: n, AverageRating: avg}, nil
}

func applySpotInput(sp *models.TouristSpot, in SpotInput) {
	if in.Name != nil {
		sp.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		sp.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		sp.Category = strings.TrimSpace(*in.Category)
	}
	if in.Address != nil {
		sp.Address = strings.TrimSpace(*in.Address)
	}
	if in.Latitude != nil {
		sp.Latitude = *in.Latitude
	}
	if in.Longitude != nil {
		sp.Longitude = *in.Longitude
	}
	if in.CheckinPoints != nil {
		sp.CheckinPoints = *in.CheckinPoints
	}
	if in.Active != nil {
		sp.Active = *in.Active
	}
}

func validateSpot(sp *models.TouristSpot) error {
	if sp.Name == "" || sp.CheckinPoints < 0 {
		return ErrInvalidSpot
	}
	if !location.ValidCoordinates(sp.Latitude, sp.Longitude) || (sp.Latitude == 0 && sp.Longitude == 0) {
		return ErrInvalidCoordinates
	}
	return nil
}

func (s *SpotService) Create(ctx context.Context, adminID uint, in SpotInput, meta AuditMeta) (*models.TouristSpot, error) {
	sp := &models.TouristSpot{Active: true}
	applySpotInput(sp, in)
	if err := validateSpot(sp); err != nil {
		return nil, err
	}
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		if err := tx.Spots().Create(ctx, sp); err != nil {
			return err
		}
		return tx.Audit().Create(ctx, auditLog(adminID, "spot.create", fmt.Sprintf("spot:%d", sp.ID), sp.Name, meta, s.now()))
	})
	if err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *SpotService) Update(ctx context.Context, adminID, id uint, in SpotInput, meta AuditMeta) (*models.TouristSpot, error) {
	var sp *models.TouristSpot
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		cur, err := tx.Spots().GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSpotNotFound
		}
		if err != nil {
			return err
		}
		applySpotInput(cur, in)
		if err := validateSpot(cur); err != nil {
			return err
		}
		if err := tx.Spots().Update(ctx, cur); err != nil {
			return err
		}
		sp = cur
		return tx.Audit().Create(ctx, auditLog(adminID, "spot.update", fmt.Sprintf("spot:%d", id), cur.Name, meta, s.now()))
	})
	if err != nil {
		return nil, err
	}
	return sp, nil
}

// Delete removes a spot that has never been visited. Spots with check-ins are deactivated
// instead so their history stays resolvable; deactivated reports which happened.
func (s *SpotService) Delete(ctx context.Context, adminID, id uint, meta AuditMeta) (deactivated bool, err error) {
	var imageURL string
	err = s.store.Atomic(ctx, func(tx repository.Store) error {
		sp, err := tx.Spots().GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSpotNotFound
		}
		if err != nil {
			return err
		}
		n, err := tx.CheckIns().CountBySpotID(ctx, id)
		if err != nil {
			return err
		}
		action := "spot.delete"
		if n > 0 {
			deactivated = true
			action = "spot.deactivate"
			sp.Active = false
			err = tx.Spots().Update(ctx, sp)
		} else {
			imageURL = sp.ImageURL
			err = tx.Spots().Delete(ctx, id)
		}
		if err != nil {
			return err
		}
		return tx.Audit().Create(ctx, auditLog(adminID, action, fmt.Sprintf("spot:%d", id), sp.Name, meta, s.now()))
	})
	if err == nil && imageURL != "" && s.images != nil {
		if derr := s.images.DeleteByURL(ctx, imageURL); derr != nil {
			log.Printf("[spot] delete image for spot %d: %v", id, derr)
		}
	}
	return deactivated, err
}

// SetImage uploads file to Cloudinary and stores the resulting URL on the spot.
func (s *SpotService) SetImage(ctx context.Context, adminID, id uint, file io.Reader, meta AuditMeta) (*models.TouristSpot, error) {
	if s.images == nil {
		return nil, ErrUploadUnavailable
	}
	if _, err := s.store.Spots().GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSpotNotFound
		}
		return nil, err
	}
	url, _, err := s.images.UploadImage(ctx, file, s.imageFolder, fmt.Sprintf("spot_%d", id))
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	var sp *models.TouristSpot
	err = s.store.Atomic(ctx, func(tx repository.Store) error {
		cur, err := tx.Spots().GetByID(ctx, id)
		if err != nil {
			return err
		}
		cur.ImageURL = url
		if err := tx.Spots().Update(ctx, cur); err != nil {
			return err
		}
		sp = cur
		return tx.Audit().Create(ctx, auditLog(adminID, "spot.image", fmt.Sprintf("spot:%d", id), url, meta, s.now()))
	})
	if err != nil {
		return nil, err
	}
	return sp, nil
}

// SeedDefaults inserts the catalog spots into an empty store.
func (s *SpotService) SeedDefaults(ctx context.Context, spots []catalog.Spot) (int, error) {
	n, err := s.store.Spots().Count(ctx)
	if err != nil || n > 0 {
		return 0, err
	}
	err = s.store.Atomic(ctx, func(tx repository.Store) error {
		for _, c := range spots {
			sp := &models.TouristSpot{
				Name:          c.Name,
				Description:   c.Description,
				Category:      c.Category,
				Address:       c.Address,
				Latitude:      c.Latitude,
				Longitude:     c.Longitude,
				CheckinPoints: c.CheckinPoints,
				Active:        true,
			}
			if err := tx.Spots().Create(ctx, sp); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(spots), nil
}
