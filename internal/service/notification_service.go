package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"pontox/internal/models"
	"pontox/internal/repository"
)

// Pusher delivers a push notification to a device token.
type Pusher interface {
	SendToUser(ctx context.Context, fcmToken string, notifType, title, body string, data map[string]interface{}) error
}

type NotificationService struct {
	clock
	store  repository.Store
	pusher Pusher
}

// NewNotificationService builds the service; pusher may be nil when push is not configured.
func NewNotificationService(store repository.Store, pusher Pusher) *NotificationService {
	return &NotificationService{store: store, pusher: pusher}
}

// Notify persists a notification and pushes it to the user's device when a token is registered.
func (s *NotificationService) Notify(ctx context.Context, userID uint, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return err
		}
		dataJSON = string(b)
	}
	err := s.store.Notifications().Create(ctx, &models.Notification{
		UserID:    userID,
		Type:      notifType,
		Title:     title,
		Body:      body,
		Data:      dataJSON,
		CreatedAt: s.now(),
	})
	if err != nil {
		return err
	}
	s.sendPush(ctx, userID, notifType, title, body, data)
	return nil
}

func (s *NotificationService) sendPush(ctx context.Context, userID uint, notifType, title, body string, data map[string]interface{}) {
	if s.pusher == nil {
		return
	}
	u, err := s.store.Users().GetByID(ctx, userID)
	if err != nil || u.FCMToken == "" {
		return
	}
	if err := s.pusher.SendToUser(ctx, u.FCMToken, notifType, title, body, data); err != nil {
		log.Printf("[notify] push to user %d failed: %v", userID, err)
	}
}

// List returns a page of the user's notifications and the unread count.
func (s *NotificationService) List(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	list, err := s.store.Notifications().ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	unread, err := s.store.Notifications().UnreadCount(ctx, userID)
	return list, unread, err
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	err := s.store.Notifications().MarkRead(ctx, id, userID, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotificationNotFound
	}
	return err
}

// SetFCMToken registers the device token pushes are sent to. An empty token disables push.
func (s *NotificationService) SetFCMToken(ctx context.Context, userID uint, token string) error {
	return s.store.Atomic(ctx, func(tx repository.Store) error {
		u, err := tx.Users().GetForUpdate(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		u.FCMToken = token
		return tx.Users().Update(ctx, u)
	})
}
