package services

import (
	"context"
	"fmt"
	"time"

	"github.com/axellelanca/urlanalytics/internal/models"
	"github.com/axellelanca/urlanalytics/internal/repository"
	"github.com/axellelanca/urlanalytics/internal/stats"
)

// AnalyticsService computes per-link reports and refreshes the stored summaries.
type AnalyticsService struct {
	links     repository.LinkRepository
	visits    repository.VisitRepository
	analytics repository.AnalyticsRepository
	clock     Clock
}

func NewAnalyticsService(links repository.LinkRepository, visits repository.VisitRepository, analytics repository.AnalyticsRepository, clock Clock) *AnalyticsService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &AnalyticsService{
		links:     links,
		visits:    visits,
		analytics: analytics,
		clock:     clock,
	}
}

// AnalyticsQuery asks for the report of one link over an optional window.
// An empty Granularity means per day.
type AnalyticsQuery struct {
	LinkID      string
	RequesterID string
	StartDate   *time.Time
	EndDate     *time.Time
	Granularity stats.Granularity
}

// AnalyticsReport is the stored summary plus the windowed figures and raw visits.
type AnalyticsReport struct {
	Link      models.Link          `json:"link"`
	Analytics models.LinkAnalytics `json:"analytics"`
	Summary   stats.Summary        `json:"summary"`
	Visits    []models.Visit       `json:"visits"`
}

// ComputeLinkAnalytics builds the report for a link owned by the requester.
// Visits are never read before ownership has been checked.
func (s *AnalyticsService) ComputeLinkAnalytics(ctx context.Context, q AnalyticsQuery) (*AnalyticsReport, error) {
	granularity, err := stats.ParseGranularity(string(q.Granularity))
	if err != nil {
		return nil, err
	}

	link, err := loadOwnedLink(ctx, s.links, q.LinkID, q.RequesterID)
	if err != nil {
		return nil, err
	}

	analytics, err := s.analytics.GetAnalyticsByLinkID(ctx, link.ID)
	if err != nil {
		return nil, err
	}

	window := stats.Window{Start: q.StartDate, End: q.EndDate}
	visits, err := s.visits.GetVisitsByLinkID(ctx, link.ID, window)
	if err != nil {
		return nil, fmt.Errorf("failed to load visits of link %s: %w", link.ID, err)
	}
	if visits == nil {
		visits = []models.Visit{}
	}

	return &AnalyticsReport{
		Link:      *link,
		Analytics: *analytics,
		Summary:   stats.Summarize(visits, window, granularity),
		Visits:    visits,
	}, nil
}

// RecomputeLinkAnalytics rebuilds the stored summary of a link from all of its visits.
func (s *AnalyticsService) RecomputeLinkAnalytics(ctx context.Context, linkID string) (*models.LinkAnalytics, error) {
	link, err := s.links.GetLinkByID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	return s.recompute(ctx, link.ID)
}

// RecomputeOwnedLinkAnalytics is RecomputeLinkAnalytics restricted to the link's owner.
func (s *AnalyticsService) RecomputeOwnedLinkAnalytics(ctx context.Context, linkID, requesterID string) (*models.LinkAnalytics, error) {
	link, err := loadOwnedLink(ctx, s.links, linkID, requesterID)
	if err != nil {
		return nil, err
	}
	return s.recompute(ctx, link.ID)
}

func (s *AnalyticsService) recompute(ctx context.Context, linkID string) (*models.LinkAnalytics, error) {
	visits, err := s.visits.GetVisitsByLinkID(ctx, linkID, stats.Window{})
	if err != nil {
		return nil, fmt.Errorf("failed to load visits of link %s: %w", linkID, err)
	}
	return s.analytics.RecomputeFromVisits(ctx, linkID, visits, s.clock.Now())
}

// ListLinkIDs returns the id of every stored link, for the periodic refresher.
func (s *AnalyticsService) ListLinkIDs(ctx context.Context) ([]string, error) {
	links, err := s.links.GetAllLinks(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.ID)
	}
	return ids, nil
}
