package services

import (
	"context"
	"fmt"
	"log"

	"github.com/axellelanca/urlanalytics/internal/models"
)

// VisitInput is the request metadata captured when a short link is followed.
type VisitInput struct {
	ShortCode string
	IPAddress string
	UserAgent string
	Referrer  string
}

// VisitResult carries the redirect target and what was recorded.
type VisitResult struct {
	OriginalURL string
	Link        models.Link
	Visit       models.Visit
}

// RecordVisit resolves a short code, stores a visit and bumps the link's click counter.
// A failed counter update is logged and does not fail the redirect, since the visit is already stored.
func (s *LinkService) RecordVisit(ctx context.Context, in VisitInput) (*VisitResult, error) {
	link, err := s.links.GetLinkByShortCode(ctx, in.ShortCode)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	visit := models.NewVisit(link.ID, in.IPAddress, in.UserAgent, in.Referrer, now)
	if err := s.visits.CreateVisit(ctx, &visit); err != nil {
		return nil, fmt.Errorf("failed to record visit for short code %s: %w", in.ShortCode, err)
	}

	updated := link.WithIncrementedClicks(now)
	if err := s.links.IncrementClickCount(ctx, link.ID, updated.UpdatedAt); err != nil {
		log.Printf("WARNING: visit %s stored but click count of link %s not updated: %v", visit.ID, link.ID, err)
		return &VisitResult{OriginalURL: link.OriginalURL, Link: *link, Visit: visit}, nil
	}

	return &VisitResult{OriginalURL: updated.OriginalURL, Link: updated, Visit: visit}, nil
}
