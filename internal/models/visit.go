package models

import (
	"time"

	"github.com/google/uuid"
)

// Visit is one recorded redirect event for a link. It is never mutated once stored.
type Visit struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	LinkID     string    `gorm:"index;size:36;not null" json:"link_id"`
	IPAddress  *string   `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent  *string   `gorm:"size:512" json:"user_agent,omitempty"`
	Referrer   *string   `gorm:"size:2048" json:"referrer,omitempty"`
	OccurredAt time.Time `gorm:"index;not null" json:"occurred_at"`
}

// TableName pins the gorm table name.
func (Visit) TableName() string { return "visits" }

// NewVisit stamps a visit of linkID at now. Empty request attributes are stored as NULL.
func NewVisit(linkID, ipAddress, userAgent, referrer string, now time.Time) Visit {
	return Visit{
		ID:         uuid.NewString(),
		LinkID:     linkID,
		IPAddress:  optional(ipAddress),
		UserAgent:  optional(userAgent),
		Referrer:   optional(referrer),
		OccurredAt: now.UTC(),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
