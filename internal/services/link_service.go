// Package services contains the business logic layer for the URL shortener application
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	apperrors "github.com/axellelanca/urlanalytics/internal/errors"
	"github.com/axellelanca/urlanalytics/internal/models"
	"github.com/axellelanca/urlanalytics/internal/repository"
)

// MaxCreateAttempts bounds the number of generated codes tried by CreateLink.
const MaxCreateAttempts = 5

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// LinkService provides business logic methods for managing shortened links.
// It acts as an intermediary between the HTTP handlers and the data repositories.
type LinkService struct {
	links  repository.LinkRepository
	visits repository.VisitRepository
	clock  Clock
}

// NewLinkService creates and returns a new instance of LinkService.
// A nil clock falls back to SystemClock.
func NewLinkService(links repository.LinkRepository, visits repository.VisitRepository, clock Clock) *LinkService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &LinkService{
		links:  links,
		visits: visits,
		clock:  clock,
	}
}

// CreateLinkInput carries one link creation request.
// OwnerID is nil for anonymous links; CustomCode is empty to get a generated code.
type CreateLinkInput struct {
	OriginalURL string
	OwnerID     *string
	CustomCode  string
	BaseURL     string
}

// CreatedLink is a persisted link together with its fully-qualified short URL.
type CreatedLink struct {
	Link     models.Link `json:"link"`
	ShortURL string      `json:"short_url"`
}

// CreateLink stores a new link. Custom codes are checked for availability and never regenerated;
// generated codes that collide in the store are regenerated up to MaxCreateAttempts times.
func (s *LinkService) CreateLink(ctx context.Context, in CreateLinkInput) (*CreatedLink, error) {
	if in.CustomCode != "" {
		link, err := s.buildLink(ctx, in.OriginalURL, in.OwnerID, in.CustomCode)
		if err != nil {
			return nil, err
		}
		if err := s.persist(ctx, &link, true); err != nil {
			return nil, err
		}
		return &CreatedLink{Link: link, ShortURL: link.ShortURL(in.BaseURL)}, nil
	}

	for attempt := 1; attempt <= MaxCreateAttempts; attempt++ {
		link, err := models.NewLink(in.OriginalURL, in.OwnerID, s.clock.Now())
		if err != nil {
			return nil, err
		}

		err = s.links.CreateLink(ctx, &link)
		if err == nil {
			return &CreatedLink{Link: link, ShortURL: link.ShortURL(in.BaseURL)}, nil
		}
		if !errors.Is(err, apperrors.ErrUniqueViolation) {
			return nil, fmt.Errorf("failed to create link: %w", err)
		}
		log.Printf("Short code '%s' already exists, retrying generation (%d/%d)...", link.ShortCode, attempt, MaxCreateAttempts)
	}

	return nil, fmt.Errorf("%w after %d attempts", apperrors.ErrCodeGenerationExhausted, MaxCreateAttempts)
}

// buildLink validates the request and returns an unsaved link, applying customCode when set.
func (s *LinkService) buildLink(ctx context.Context, originalURL string, ownerID *string, customCode string) (models.Link, error) {
	if customCode != "" {
		if err := models.ValidateCustomCode(customCode); err != nil {
			return models.Link{}, err
		}
		if err := s.ensureCodeAvailable(ctx, customCode); err != nil {
			return models.Link{}, err
		}
	}

	link, err := models.NewLink(originalURL, ownerID, s.clock.Now())
	if err != nil {
		return models.Link{}, err
	}
	if customCode != "" {
		link.ShortCode = customCode
	}
	return link, nil
}

// persist inserts link without any retry. A uniqueness violation on a custom code is reported as taken.
func (s *LinkService) persist(ctx context.Context, link *models.Link, custom bool) error {
	err := s.links.CreateLink(ctx, link)
	if err == nil {
		return nil
	}
	if custom && errors.Is(err, apperrors.ErrUniqueViolation) {
		return fmt.Errorf("%w: '%s'", apperrors.ErrCodeAlreadyTaken, link.ShortCode)
	}
	return fmt.Errorf("failed to create link: %w", err)
}

func (s *LinkService) ensureCodeAvailable(ctx context.Context, code string) error {
	_, err := s.links.GetLinkByShortCode(ctx, code)
	switch {
	case err == nil:
		return fmt.Errorf("%w: '%s'", apperrors.ErrCodeAlreadyTaken, code)
	case errors.Is(err, apperrors.ErrLinkNotFound):
		return nil
	default:
		return fmt.Errorf("failed to check short code availability: %w", err)
	}
}

// GetLinkByShortCode retrieves a link using its short code.
func (s *LinkService) GetLinkByShortCode(ctx context.Context, shortCode string) (*models.Link, error) {
	return s.links.GetLinkByShortCode(ctx, shortCode)
}

// UpdateLinkInput describes an owner edit. Empty fields are left unchanged.
type UpdateLinkInput struct {
	LinkID      string
	RequesterID string
	OriginalURL string
	CustomCode  string
}

// UpdateLink changes the target URL and/or the short code of a link owned by the requester.
// The click counter is never touched.
func (s *LinkService) UpdateLink(ctx context.Context, in UpdateLinkInput) (*models.Link, error) {
	link, err := loadOwnedLink(ctx, s.links, in.LinkID, in.RequesterID)
	if err != nil {
		return nil, err
	}

	codeChanged := in.CustomCode != "" && in.CustomCode != link.ShortCode
	if codeChanged {
		if err := models.ValidateCustomCode(in.CustomCode); err != nil {
			return nil, err
		}
		if err := s.ensureCodeAvailable(ctx, in.CustomCode); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	updated := *link
	if in.OriginalURL != "" {
		if updated, err = updated.WithUpdatedURL(in.OriginalURL, now); err != nil {
			return nil, err
		}
	}
	if codeChanged {
		updated = updated.WithShortCode(in.CustomCode, now)
	}

	if err := s.links.UpdateLink(ctx, &updated); err != nil {
		if errors.Is(err, apperrors.ErrUniqueViolation) {
			return nil, fmt.Errorf("%w: '%s'", apperrors.ErrCodeAlreadyTaken, updated.ShortCode)
		}
		return nil, fmt.Errorf("failed to update link %s: %w", link.ID, err)
	}
	return &updated, nil
}

// DeleteLink removes a link owned by the requester, with its visits and analytics.
func (s *LinkService) DeleteLink(ctx context.Context, linkID, requesterID string) error {
	if _, err := loadOwnedLink(ctx, s.links, linkID, requesterID); err != nil {
		return err
	}
	return s.links.DeleteLink(ctx, linkID)
}

// ListLinksQuery selects one page of an owner's links.
type ListLinksQuery struct {
	OwnerID   string
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// LinkPage is one page of links plus pagination totals.
type LinkPage struct {
	Links      []models.Link `json:"links"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"total_pages"`
}

// ListLinks returns the requested page of the owner's links. Unknown sort fields fall back to createdAt.
func (s *LinkService) ListLinks(ctx context.Context, q ListLinksQuery) (*LinkPage, error) {
	page := max(q.Page, 1)
	limit := q.Limit
	if limit < 1 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)

	sortBy := repository.SortField(q.SortBy)
	switch sortBy {
	case repository.SortByCreatedAt, repository.SortByClicks, repository.SortByUpdatedAt:
	default:
		sortBy = repository.SortByCreatedAt
	}

	links, err := s.links.ListLinksByOwner(ctx, q.OwnerID, repository.ListOptions{
		Page:      page,
		Limit:     limit,
		SortBy:    sortBy,
		Ascending: strings.EqualFold(q.SortOrder, "asc"),
	})
	if err != nil {
		return nil, err
	}
	total, err := s.links.CountLinksByOwner(ctx, q.OwnerID)
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []models.Link{}
	}

	return &LinkPage{
		Links:      links,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// loadOwnedLink fetches linkID and checks that requesterID owns it.
func loadOwnedLink(ctx context.Context, links repository.LinkRepository, linkID, requesterID string) (*models.Link, error) {
	link, err := links.GetLinkByID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if !link.IsOwnedBy(requesterID) {
		return nil, apperrors.ErrUnauthorized
	}
	return link, nil
}
