package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	apperrors "github.com/axellelanca/urlanalytics/internal/errors"
)

var generatedCodeRe = regexp.MustCompile(`^[A-Za-z0-9]{6}$`)

func newTestLinkService() (*LinkService, *memLinks, *memVisits) {
	links := newMemLinks()
	visits := &memVisits{}
	return NewLinkService(links, visits, fixedClock{testNow}), links, visits
}

func TestCreateLink(t *testing.T) {
	svc, links, _ := newTestLinkService()
	owner := ptr("user-1")

	created, err := svc.CreateLink(context.Background(), CreateLinkInput{
		OriginalURL: "example.com/page",
		OwnerID:     owner,
		BaseURL:     "http://sho.rt/",
	})
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}
	if created.Link.OriginalURL != "https://example.com/page" {
		t.Errorf("original url = %q, want https:// prefix added", created.Link.OriginalURL)
	}
	if !generatedCodeRe.MatchString(created.Link.ShortCode) {
		t.Errorf("short code %q is not a generated code", created.Link.ShortCode)
	}
	if created.ShortURL != "http://sho.rt/"+created.Link.ShortCode {
		t.Errorf("short url = %q", created.ShortURL)
	}
	if created.Link.ClickCount != 0 || !created.Link.CreatedAt.Equal(testNow) || !created.Link.UpdatedAt.Equal(testNow) {
		t.Errorf("unexpected initial state: %+v", created.Link)
	}
	if created.Link.OwnerID == nil || *created.Link.OwnerID != "user-1" {
		t.Errorf("owner = %v, want user-1", created.Link.OwnerID)
	}
	if len(links.links) != 1 {
		t.Errorf("stored %d links, want 1", len(links.links))
	}
}

func TestCreateLinkRetriesGeneratedCodeCollisions(t *testing.T) {
	tests := []struct {
		name       string
		collisions int
		wantErr    error
		wantCalls  int
	}{
		{name: "success after collisions", collisions: MaxCreateAttempts - 1, wantCalls: MaxCreateAttempts},
		{name: "exhausted", collisions: MaxCreateAttempts, wantErr: apperrors.ErrCodeGenerationExhausted, wantCalls: MaxCreateAttempts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, links, _ := newTestLinkService()
			links.collisions = tt.collisions

			_, err := svc.CreateLink(context.Background(), CreateLinkInput{OriginalURL: "https://example.com"})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if links.createCalls != tt.wantCalls {
				t.Errorf("CreateLink called %d times, want %d", links.createCalls, tt.wantCalls)
			}
		})
	}
}

func TestCreateLinkStoreFailureIsNotRetried(t *testing.T) {
	svc, links, _ := newTestLinkService()
	links.createErr = apperrors.Store("create link", errors.New("disk full"))

	_, err := svc.CreateLink(context.Background(), CreateLinkInput{OriginalURL: "https://example.com"})
	if !errors.Is(err, apperrors.ErrStoreFailure) {
		t.Fatalf("err = %v, want store failure", err)
	}
	if links.createCalls != 1 {
		t.Errorf("CreateLink called %d times, want 1", links.createCalls)
	}
}

func TestCreateLinkCustomCode(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		url     string
		wantErr error
	}{
		{name: "valid", code: "my-code", url: "https://example.com"},
		{name: "taken", code: "taken", url: "https://example.com", wantErr: apperrors.ErrCodeAlreadyTaken},
		{name: "too short", code: "ab", url: "https://example.com", wantErr: apperrors.ErrInvalidShortCode},
		{name: "reserved", code: "api", url: "https://example.com", wantErr: apperrors.ErrInvalidShortCode},
		{name: "invalid url", code: "fresh", url: "ftp://example.com", wantErr: apperrors.ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, links, _ := newTestLinkService()
			seedLink(t, links, "https://other.example.com", "taken", nil)
			before := links.createCalls

			created, err := svc.CreateLink(context.Background(), CreateLinkInput{OriginalURL: tt.url, CustomCode: tt.code})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if links.createCalls != before {
					t.Errorf("store insert attempted for a rejected request")
				}
				return
			}
			if created.Link.ShortCode != tt.code {
				t.Errorf("short code = %q, want %q", created.Link.ShortCode, tt.code)
			}
		})
	}
}

func TestCreateLinkCustomCodeRaceReportsTaken(t *testing.T) {
	svc, links, _ := newTestLinkService()
	links.collisions = 1

	_, err := svc.CreateLink(context.Background(), CreateLinkInput{OriginalURL: "https://example.com", CustomCode: "racy"})
	if !errors.Is(err, apperrors.ErrCodeAlreadyTaken) {
		t.Fatalf("err = %v, want ErrCodeAlreadyTaken", err)
	}
	if links.createCalls != 1 {
		t.Errorf("custom code insert retried %d times", links.createCalls)
	}
}

func TestCreateLinkRejectsInvalidURL(t *testing.T) {
	svc, links, _ := newTestLinkService()
	for _, raw := range []string{"", "   ", "ftp://example.com", "https://", "http://exa mple.com"} {
		if _, err := svc.CreateLink(context.Background(), CreateLinkInput{OriginalURL: raw}); !errors.Is(err, apperrors.ErrInvalidURL) {
			t.Errorf("CreateLink(%q) err = %v, want ErrInvalidURL", raw, err)
		}
	}
	if len(links.links) != 0 {
		t.Errorf("invalid URLs were stored")
	}
}

func TestRecordVisit(t *testing.T) {
	svc, links, visits := newTestLinkService()
	link := seedLink(t, links, "https://example.com/target", "abc123", nil)

	res, err := svc.RecordVisit(context.Background(), VisitInput{
		ShortCode: "abc123",
		IPAddress: "10.0.0.1",
		UserAgent: "curl/8.0",
	})
	if err != nil {
		t.Fatalf("RecordVisit returned error: %v", err)
	}
	if res.OriginalURL != "https://example.com/target" {
		t.Errorf("original url = %q", res.OriginalURL)
	}
	if res.Link.ClickCount != 1 {
		t.Errorf("returned click count = %d, want 1", res.Link.ClickCount)
	}
	if !res.Link.UpdatedAt.After(link.UpdatedAt) {
		t.Errorf("updatedAt did not advance")
	}
	if len(visits.visits) != 1 || visits.visits[0].LinkID != link.ID {
		t.Fatalf("visits = %+v", visits.visits)
	}
	if visits.visits[0].Referrer != nil {
		t.Errorf("empty referrer should be stored as absent")
	}
	if stored := links.links[link.ID]; stored.ClickCount != 1 {
		t.Errorf("stored click count = %d, want 1", stored.ClickCount)
	}
}

func TestRecordVisitUnknownCode(t *testing.T) {
	svc, _, visits := newTestLinkService()
	_, err := svc.RecordVisit(context.Background(), VisitInput{ShortCode: "nope00"})
	if !errors.Is(err, apperrors.ErrLinkNotFound) {
		t.Fatalf("err = %v, want ErrLinkNotFound", err)
	}
	if len(visits.visits) != 0 {
		t.Errorf("visit recorded for unknown code")
	}
}

func TestRecordVisitCounterFailureStillRedirects(t *testing.T) {
	svc, links, visits := newTestLinkService()
	seedLink(t, links, "https://example.com", "abc123", nil)
	links.incrementErr = errors.New("locked")

	res, err := svc.RecordVisit(context.Background(), VisitInput{ShortCode: "abc123"})
	if err != nil {
		t.Fatalf("RecordVisit returned error: %v", err)
	}
	if res.OriginalURL != "https://example.com" {
		t.Errorf("original url = %q", res.OriginalURL)
	}
	if res.Link.ClickCount != 0 {
		t.Errorf("click count = %d, want unchanged 0", res.Link.ClickCount)
	}
	if len(visits.visits) != 1 {
		t.Errorf("visit should be kept, got %d", len(visits.visits))
	}
}

func TestRecordVisitStoreFailure(t *testing.T) {
	svc, links, visits := newTestLinkService()
	link := seedLink(t, links, "https://example.com", "abc123", nil)
	visits.createErr = apperrors.Store("create visit", errors.New("boom"))

	if _, err := svc.RecordVisit(context.Background(), VisitInput{ShortCode: "abc123"}); !errors.Is(err, apperrors.ErrStoreFailure) {
		t.Fatalf("err = %v, want store failure", err)
	}
	if links.links[link.ID].ClickCount != 0 {
		t.Errorf("counter incremented without a stored visit")
	}
}

func TestUpdateLink(t *testing.T) {
	svc, links, _ := newTestLinkService()
	link := seedLink(t, links, "https://example.com", "abc123", ptr("owner"))
	link.ClickCount = 7
	links.put(link)
	seedLink(t, links, "https://example.org", "taken", ptr("someone"))

	tests := []struct {
		name    string
		in      UpdateLinkInput
		wantErr error
	}{
		{name: "other user", in: UpdateLinkInput{LinkID: link.ID, RequesterID: "intruder", OriginalURL: "https://x.com"}, wantErr: apperrors.ErrUnauthorized},
		{name: "missing", in: UpdateLinkInput{LinkID: "missing", RequesterID: "owner"}, wantErr: apperrors.ErrLinkNotFound},
		{name: "taken code", in: UpdateLinkInput{LinkID: link.ID, RequesterID: "owner", CustomCode: "taken"}, wantErr: apperrors.ErrCodeAlreadyTaken},
		{name: "bad url", in: UpdateLinkInput{LinkID: link.ID, RequesterID: "owner", OriginalURL: "mailto://x"}, wantErr: apperrors.ErrInvalidURL},
		{name: "ok", in: UpdateLinkInput{LinkID: link.ID, RequesterID: "owner", OriginalURL: "new.example.com", CustomCode: "fresh"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated, err := svc.UpdateLink(context.Background(), tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if updated.OriginalURL != "https://new.example.com" || updated.ShortCode != "fresh" {
				t.Errorf("updated = %+v", updated)
			}
			if updated.ClickCount != 7 {
				t.Errorf("click count = %d, want 7", updated.ClickCount)
			}
			if stored := links.links[link.ID]; stored.ShortCode != "fresh" || stored.ClickCount != 7 {
				t.Errorf("stored = %+v", stored)
			}
		})
	}
}

func TestUpdateLinkCodeOnlyBumpsUpdatedAt(t *testing.T) {
	svc, links, _ := newTestLinkService()
	link := seedLink(t, links, "https://example.com", "abc123", ptr("owner"))
	link.UpdatedAt = testNow
	links.put(link)

	updated, err := svc.UpdateLink(context.Background(), UpdateLinkInput{LinkID: link.ID, RequesterID: "owner", CustomCode: "renamed"})
	if err != nil {
		t.Fatalf("UpdateLink returned error: %v", err)
	}
	if !updated.UpdatedAt.After(testNow) {
		t.Errorf("UpdatedAt = %v, want later than %v", updated.UpdatedAt, testNow)
	}
}

func TestDeleteLink(t *testing.T) {
	svc, links, _ := newTestLinkService()
	link := seedLink(t, links, "https://example.com", "abc123", ptr("owner"))

	if err := svc.DeleteLink(context.Background(), link.ID, "intruder"); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if err := svc.DeleteLink(context.Background(), link.ID, "owner"); err != nil {
		t.Fatalf("DeleteLink returned error: %v", err)
	}
	if _, ok := links.links[link.ID]; ok {
		t.Errorf("link still stored")
	}
}

func TestListLinks(t *testing.T) {
	svc, links, _ := newTestLinkService()
	for i := 0; i < 12; i++ {
		seedLink(t, links, "https://example.com/"+strings.Repeat("a", i+1), "", ptr("owner"))
	}
	seedLink(t, links, "https://example.com/other", "", ptr("someone"))

	page, err := svc.ListLinks(context.Background(), ListLinksQuery{OwnerID: "owner", Page: 2})
	if err != nil {
		t.Fatalf("ListLinks returned error: %v", err)
	}
	if page.Total != 12 || page.Limit != 10 || page.TotalPages != 2 || page.Page != 2 {
		t.Errorf("pagination = %+v", page)
	}
	if len(page.Links) != 2 {
		t.Errorf("page 2 has %d links, want 2", len(page.Links))
	}

	page, err = svc.ListLinks(context.Background(), ListLinksQuery{OwnerID: "nobody", Limit: 500})
	if err != nil {
		t.Fatalf("ListLinks returned error: %v", err)
	}
	if page.Limit != 100 || page.Links == nil || page.TotalPages != 0 {
		t.Errorf("empty page = %+v", page)
	}
}
