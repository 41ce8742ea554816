package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "github.com/axellelanca/urlanalytics/internal/errors"
	"github.com/axellelanca/urlanalytics/internal/models"
	"github.com/axellelanca/urlanalytics/internal/repository"
	"github.com/axellelanca/urlanalytics/internal/stats"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

// memLinks is an in-memory LinkRepository with injectable failures.
type memLinks struct {
	mu    sync.Mutex
	links map[string]models.Link

	// collisions makes the next N CreateLink calls report a unique violation.
	collisions   int
	createCalls  int
	createErr    error
	incrementErr error
	lookups      int

	// failURL and panicURL make CreateLink fail or panic for one original URL.
	failURL  map[string]error
	panicURL map[string]string
}

func newMemLinks() *memLinks {
	return &memLinks{links: map[string]models.Link{}}
}

func (m *memLinks) CreateLink(_ context.Context, link *models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	if err, ok := m.failURL[link.OriginalURL]; ok {
		return err
	}
	if msg, ok := m.panicURL[link.OriginalURL]; ok {
		panic(msg)
	}
	if m.collisions > 0 {
		m.collisions--
		return fmt.Errorf("create link: %w", apperrors.ErrUniqueViolation)
	}
	for _, l := range m.links {
		if l.ShortCode == link.ShortCode {
			return fmt.Errorf("create link: %w", apperrors.ErrUniqueViolation)
		}
	}
	m.links[link.ID] = *link
	return nil
}

func (m *memLinks) GetLinkByID(_ context.Context, id string) (*models.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	l, ok := m.links[id]
	if !ok {
		return nil, apperrors.ErrLinkNotFound
	}
	return &l, nil
}

func (m *memLinks) GetLinkByShortCode(_ context.Context, code string) (*models.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	for _, l := range m.links {
		if l.ShortCode == code {
			return &l, nil
		}
	}
	return nil, apperrors.ErrLinkNotFound
}

func (m *memLinks) owned(ownerID string) []models.Link {
	var out []models.Link
	for _, l := range m.links {
		if l.OwnerID != nil && *l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *memLinks) ListLinksByOwner(_ context.Context, ownerID string, opts repository.ListOptions) ([]models.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.owned(ownerID)
	start := (opts.Page - 1) * opts.Limit
	if start >= len(all) {
		return nil, nil
	}
	return all[start:min(start+opts.Limit, len(all))], nil
}

func (m *memLinks) CountLinksByOwner(_ context.Context, ownerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.owned(ownerID))), nil
}

func (m *memLinks) GetAllLinks(_ context.Context) ([]models.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Link, 0, len(m.links))
	for _, l := range m.links {
		out = append(out, l)
	}
	return out, nil
}

func (m *memLinks) UpdateLink(_ context.Context, link *models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.links[link.ID]
	if !ok {
		return apperrors.ErrLinkNotFound
	}
	cur.OriginalURL = link.OriginalURL
	cur.ShortCode = link.ShortCode
	cur.UpdatedAt = link.UpdatedAt
	m.links[link.ID] = cur
	return nil
}

func (m *memLinks) IncrementClickCount(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incrementErr != nil {
		return m.incrementErr
	}
	cur, ok := m.links[id]
	if !ok {
		return apperrors.ErrLinkNotFound
	}
	cur.ClickCount++
	cur.UpdatedAt = at
	m.links[id] = cur
	return nil
}

func (m *memLinks) DeleteLink(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.links, id)
	return nil
}

func (m *memLinks) put(l models.Link) models.Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[l.ID] = l
	return l
}

type memVisits struct {
	mu        sync.Mutex
	visits    []models.Visit
	createErr error
	queries   int
}

func (m *memVisits) CreateVisit(_ context.Context, v *models.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.visits = append(m.visits, *v)
	return nil
}

func (m *memVisits) GetVisitsByLinkID(_ context.Context, linkID string, w stats.Window) ([]models.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	var out []models.Visit
	for _, v := range m.visits {
		if v.LinkID != linkID {
			continue
		}
		if w.Start != nil && v.OccurredAt.Before(*w.Start) {
			continue
		}
		if w.End != nil && v.OccurredAt.After(*w.End) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *memVisits) CountVisitsByLinkID(ctx context.Context, linkID string) (int64, error) {
	vs, _ := m.GetVisitsByLinkID(ctx, linkID, stats.Window{})
	return int64(len(vs)), nil
}

type memAnalytics struct {
	mu   sync.Mutex
	rows map[string]models.LinkAnalytics
}

func newMemAnalytics() *memAnalytics {
	return &memAnalytics{rows: map[string]models.LinkAnalytics{}}
}

func (m *memAnalytics) GetAnalyticsByLinkID(_ context.Context, linkID string) (*models.LinkAnalytics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[linkID]
	if !ok {
		return nil, apperrors.ErrAnalyticsNotFound
	}
	return &a, nil
}

func (m *memAnalytics) CreateAnalytics(_ context.Context, a *models.LinkAnalytics) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[a.LinkID] = *a
	return nil
}

func (m *memAnalytics) UpdateAnalytics(ctx context.Context, a *models.LinkAnalytics) error {
	return m.CreateAnalytics(ctx, a)
}

func (m *memAnalytics) RecomputeFromVisits(_ context.Context, linkID string, visits []models.Visit, now time.Time) (*models.LinkAnalytics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[linkID]
	if !ok {
		cur = models.NewLinkAnalytics(linkID, now)
	}
	cur = stats.Rebuild(cur, visits, now)
	m.rows[linkID] = cur
	return &cur, nil
}

func ptr(s string) *string { return &s }

func seedLink(t interface{ Fatalf(string, ...any) }, repo *memLinks, rawURL, code string, owner *string) models.Link {
	l, err := models.NewLink(rawURL, owner, testNow.Add(-time.Hour))
	if err != nil {
		t.Fatalf("NewLink: %v", err)
	}
	if code != "" {
		l.ShortCode = code
	}
	return repo.put(l)
}
