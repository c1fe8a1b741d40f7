package service

import (
	"time"

	"pontox/internal/models"
)

// clock is embedded by services that stamp records, so tests can pin time.
type clock struct {
	nowFn func() time.Time
}

func (c *clock) now() time.Time {
	if c.nowFn == nil {
		return time.Now().UTC()
	}
	return c.nowFn().UTC()
}

// SetClock replaces the time source.
func (c *clock) SetClock(fn func() time.Time) { c.nowFn = fn }

// Publisher pushes live events to a user's open connections.
type Publisher interface {
	Publish(userID uint, eventType string, data interface{})
}

// AuditMeta carries request details recorded with admin actions.
type AuditMeta struct {
	IP        string
	UserAgent string
}

func auditLog(actorID uint, action, resource, detail string, meta AuditMeta, at time.Time) *models.AuditLog {
	var uid *uint
	if actorID != 0 {
		id := actorID
		uid = &id
	}
	return &models.AuditLog{
		UserID:    uid,
		Action:    action,
		Resource:  resource,
		Detail:    detail,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		CreatedAt: at,
	}
}
