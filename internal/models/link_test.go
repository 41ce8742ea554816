package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	apperrors "github.com/axellelanca/urlanalytics/internal/errors"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "https://example.com/path?q=1", want: "https://example.com/path?q=1"},
		{in: "HTTP://Example.com", want: "http://Example.com"},
		{in: "HttpS://example.com/Path", want: "https://example.com/Path"},
		{in: "  example.com  ", want: "https://example.com"},
		{in: "sub.example.co.uk/a/b", want: "https://sub.example.co.uk/a/b"},
		{in: "127.0.0.1:8080/x", want: "https://127.0.0.1:8080/x"},
		{in: "", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "ftp://example.com", wantErr: true},
		{in: "javascript://alert(1)", wantErr: true},
		{in: "https://", wantErr: true},
		{in: "https://-bad-.com", wantErr: true},
		{in: "exa mple.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			if tt.wantErr {
				if !errors.Is(err, apperrors.ErrInvalidURL) {
					t.Fatalf("NormalizeURL(%q) err = %v, want ErrInvalidURL", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeURL(%q) returned error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func isGeneratedCode(code string) bool {
	if len(code) != ShortCodeLength {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(charset, r) {
			return false
		}
	}
	return true
}

func TestGenerateShortCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := GenerateShortCode()
		if err != nil {
			t.Fatalf("GenerateShortCode returned error: %v", err)
		}
		if !isGeneratedCode(code) {
			t.Fatalf("code %q has the wrong format", code)
		}
		seen[code] = true
	}
	if len(seen) < 195 {
		t.Errorf("only %d distinct codes out of 200", len(seen))
	}
}

func TestValidateCustomCode(t *testing.T) {
	valid := []string{"abc", "my-link_2024", "ABCDEFGHIJKLMNOPQRSTUVWXYZ012345"}
	invalid := []string{"ab", "with space", "émoji", "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456", "api", "Health", "metrics"}

	for _, code := range valid {
		if err := ValidateCustomCode(code); err != nil {
			t.Errorf("ValidateCustomCode(%q) = %v, want nil", code, err)
		}
	}
	for _, code := range invalid {
		if err := ValidateCustomCode(code); !errors.Is(err, apperrors.ErrInvalidShortCode) {
			t.Errorf("ValidateCustomCode(%q) = %v, want ErrInvalidShortCode", code, err)
		}
	}
}

func TestNewLink(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	owner := "user-1"

	link, err := NewLink("example.com", &owner, now)
	if err != nil {
		t.Fatalf("NewLink returned error: %v", err)
	}
	if link.ID == "" || link.ClickCount != 0 {
		t.Errorf("unexpected link %+v", link)
	}
	if link.CreatedAt.Location() != time.UTC || !link.CreatedAt.Equal(now) || !link.UpdatedAt.Equal(link.CreatedAt) {
		t.Errorf("timestamps = %v / %v", link.CreatedAt, link.UpdatedAt)
	}
	owner = "mutated"
	if *link.OwnerID != "user-1" {
		t.Errorf("owner id shares memory with the caller")
	}

	if _, err := NewLink("not a url", nil, now); !errors.Is(err, apperrors.ErrInvalidURL) {
		t.Errorf("invalid url err = %v", err)
	}

	anon, _ := NewLink("example.com", nil, now)
	if anon.OwnerID != nil || anon.IsOwnedBy("") || anon.IsOwnedBy("user-1") {
		t.Errorf("anonymous link must have no owner")
	}
}

func TestLinkCopies(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	link, err := NewLink("https://example.com", nil, now)
	if err != nil {
		t.Fatal(err)
	}

	clicked := link.WithIncrementedClicks(now)
	if clicked.ClickCount != 1 || link.ClickCount != 0 {
		t.Errorf("click counts: copy %d, original %d", clicked.ClickCount, link.ClickCount)
	}
	if !clicked.UpdatedAt.After(link.UpdatedAt) {
		t.Errorf("UpdatedAt must strictly increase even with an unchanged clock")
	}

	moved, err := clicked.WithUpdatedURL("example.org", now.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if moved.OriginalURL != "https://example.org" || moved.ClickCount != 1 {
		t.Errorf("moved = %+v", moved)
	}
	if _, err := clicked.WithUpdatedURL("ftp://x", now); !errors.Is(err, apperrors.ErrInvalidURL) {
		t.Errorf("WithUpdatedURL err = %v", err)
	}

	recoded := moved.WithShortCode("custom", now.Add(2*time.Minute))
	if recoded.ShortCode != "custom" || moved.ShortCode == "custom" {
		t.Errorf("WithShortCode changed the original")
	}
	if got := recoded.ShortURL("http://sho.rt/"); got != "http://sho.rt/custom" {
		t.Errorf("ShortURL = %q", got)
	}

	stale := moved.WithShortCode("stale", moved.UpdatedAt)
	if !stale.UpdatedAt.After(moved.UpdatedAt) {
		t.Errorf("WithShortCode must bump UpdatedAt with an unchanged clock")
	}
}

func TestNewVisit(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("X", -3600))
	v := NewVisit("link-1", "1.2.3.4", "", "https://ref.example.com", now)

	if v.ID == "" || v.LinkID != "link-1" {
		t.Errorf("visit = %+v", v)
	}
	if v.UserAgent != nil {
		t.Errorf("empty user agent should be nil")
	}
	if Deref(v.IPAddress) != "1.2.3.4" || Deref(v.Referrer) != "https://ref.example.com" {
		t.Errorf("ip = %q, referrer = %q", Deref(v.IPAddress), Deref(v.Referrer))
	}
	if v.OccurredAt.Location() != time.UTC || !v.OccurredAt.Equal(now) {
		t.Errorf("OccurredAt = %v", v.OccurredAt)
	}
}
