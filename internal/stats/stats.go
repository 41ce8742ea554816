// Package stats turns a raw click stream into summarized analytics.
// Everything here is a pure function of its inputs.
package stats

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	apperrors "github.com/axellelanca/urlanalytics/internal/errors"
	"github.com/axellelanca/urlanalytics/internal/models"
)

// Granularity selects the width of the time buckets clicks are grouped into.
type Granularity string

const (
	Hour  Granularity = "hour"
	Day   Granularity = "day"
	Month Granularity = "month"
)

// TopLimit is the size of the referrer and user agent rankings.
const TopLimit = 5

// DefaultWindowDays is the averaging window used when the request is not bounded on both sides.
const DefaultWindowDays = 30

// ParseGranularity maps user input to a Granularity. The empty string means Day.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case "", Day:
		return Day, nil
	case Hour:
		return Hour, nil
	case Month:
		return Month, nil
	default:
		return "", fmt.Errorf("%w: %q (expected day, hour or month)", apperrors.ErrInvalidGranularity, s)
	}
}

// BucketKey returns the UTC bucket key of t.
func BucketKey(t time.Time, g Granularity) string {
	t = t.UTC()
	switch g {
	case Hour:
		return t.Format("2006-01-02T15") + ":00:00.000Z"
	case Month:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// GroupByBucket counts visits per bucket key.
func GroupByBucket(visits []models.Visit, g Granularity) map[string]int64 {
	buckets := make(map[string]int64)
	for _, v := range visits {
		buckets[BucketKey(v.OccurredAt, g)]++
	}
	return buckets
}

// TopN returns the n most frequent non-empty values, most frequent first.
// Ties keep the order in which values were first seen.
func TopN(values []string, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}

	slices.SortStableFunc(order, func(a, b string) int {
		return counts[b] - counts[a]
	})

	if len(order) > n {
		order = order[:n]
	}
	if order == nil {
		return []string{}
	}
	return order
}

// UniqueCount counts distinct non-empty values.
func UniqueCount(values []string) int64 {
	seen := make(map[string]struct{})
	for _, v := range values {
		if v != "" {
			seen[v] = struct{}{}
		}
	}
	return int64(len(seen))
}

// Window is an optional, inclusive date range.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// DaysInRange is the ceiling of the window length in days, or DefaultWindowDays
// unless both bounds are set.
func (w Window) DaysInRange() int {
	if w.Start == nil || w.End == nil {
		return DefaultWindowDays
	}
	return int(math.Ceil(float64(w.End.Sub(*w.Start)) / float64(24*time.Hour)))
}

// Summary is the windowed report computed for one analytics request.
type Summary struct {
	TotalClicks         int64            `json:"total_clicks"`
	UniqueVisitors      int64            `json:"unique_visitors"`
	AverageClicksPerDay float64          `json:"average_clicks_per_day"`
	TopReferrers        []string         `json:"top_referrers"`
	TopUserAgents       []string         `json:"top_user_agents"`
	ClicksByBucket      map[string]int64 `json:"clicks_by_bucket"`
	Granularity         Granularity      `json:"granularity"`
}

// Summarize computes the report for visits already filtered to w.
func Summarize(visits []models.Visit, w Window, g Granularity) Summary {
	ips, referrers, agents := columns(visits)
	total := int64(len(visits))

	return Summary{
		TotalClicks:         total,
		UniqueVisitors:      UniqueCount(ips),
		AverageClicksPerDay: float64(total) / float64(max(w.DaysInRange(), 1)),
		TopReferrers:        TopN(referrers, TopLimit),
		TopUserAgents:       TopN(agents, TopLimit),
		ClicksByBucket:      GroupByBucket(visits, g),
		Granularity:         g,
	}
}

// Rebuild replaces every derived field of current with values computed from all visits of the link.
// The stored series is bucketed per day.
func Rebuild(current models.LinkAnalytics, visits []models.Visit, now time.Time) models.LinkAnalytics {
	ips, referrers, agents := columns(visits)

	current.TotalClicks = int64(len(visits))
	current.UniqueVisitors = UniqueCount(ips)
	current.TopReferrers = TopN(referrers, TopLimit)
	current.TopUserAgents = TopN(agents, TopLimit)
	current.ClicksByBucket = GroupByBucket(visits, Day)
	current.LastUpdated = now.UTC()
	return current
}

func columns(visits []models.Visit) (ips, referrers, agents []string) {
	ips = make([]string, 0, len(visits))
	referrers = make([]string, 0, len(visits))
	agents = make([]string, 0, len(visits))
	for _, v := range visits {
		ips = append(ips, models.Deref(v.IPAddress))
		referrers = append(referrers, models.Deref(v.Referrer))
		agents = append(agents, models.Deref(v.UserAgent))
	}
	return ips, referrers, agents
}
