package models

import (
	"time"

	"github.com/google/uuid"
)

// LinkAnalytics is the stored long-run summary of all visits of one link.
// It is only ever replaced wholesale by a recomputation.
type LinkAnalytics struct {
	ID             string           `gorm:"primaryKey;size:36" json:"id"`
	LinkID         string           `gorm:"uniqueIndex;size:36;not null" json:"link_id"`
	TotalClicks    int64            `json:"total_clicks"`
	UniqueVisitors int64            `json:"unique_visitors"`
	TopReferrers   []string         `gorm:"serializer:json" json:"top_referrers"`
	TopUserAgents  []string         `gorm:"serializer:json" json:"top_user_agents"`
	ClicksByBucket map[string]int64 `gorm:"serializer:json" json:"clicks_by_bucket"`
	LastUpdated    time.Time        `json:"last_updated"`
}

// TableName pins the gorm table name.
func (LinkAnalytics) TableName() string { return "link_analytics" }

// NewLinkAnalytics returns a zeroed summary for linkID.
func NewLinkAnalytics(linkID string, now time.Time) LinkAnalytics {
	return LinkAnalytics{
		ID:             uuid.NewString(),
		LinkID:         linkID,
		TopReferrers:   []string{},
		TopUserAgents:  []string{},
		ClicksByBucket: map[string]int64{},
		LastUpdated:    now.UTC(),
	}
}
