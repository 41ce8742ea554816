package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/axellelanca/urlanalytics/internal/errors"
)

// ShortCodeLength is the length of every auto-generated short code.
const ShortCodeLength = 6

// charset holds the 62 alphanumeric characters codes are drawn from (62^6 ~ 56 billion codes).
const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var (
	customCodeRe = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)
	hostnameRe   = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9.-]*[A-Za-z0-9])?$`)
)

// reservedCodes collide with top-level routes of the HTTP API.
var reservedCodes = map[string]struct{}{
	"api":     {},
	"health":  {},
	"metrics": {},
}

// Link is a stored mapping from a short code to its target URL.
// Values are treated as immutable: every change goes through a With* method returning a copy.
type Link struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	OriginalURL string    `gorm:"not null" json:"original_url"`
	ShortCode   string    `gorm:"uniqueIndex;size:32;not null" json:"short_code"`
	OwnerID     *string   `gorm:"index;size:64" json:"owner_id,omitempty"`
	ClickCount  int64     `gorm:"not null;default:0" json:"click_count"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

// TableName pins the gorm table name.
func (Link) TableName() string { return "links" }

// NewLink validates and normalizes rawURL and builds a fresh link with a generated id and short code.
func NewLink(rawURL string, ownerID *string, now time.Time) (Link, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return Link{}, err
	}

	code, err := GenerateShortCode()
	if err != nil {
		return Link{}, err
	}

	now = now.UTC()
	return Link{
		ID:          uuid.NewString(),
		OriginalURL: normalized,
		ShortCode:   code,
		OwnerID:     cloneString(ownerID),
		ClickCount:  0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// WithIncrementedClicks returns a copy with one more click and a bumped UpdatedAt.
// UpdatedAt never moves backwards, even with a coarse clock.
func (l Link) WithIncrementedClicks(now time.Time) Link {
	l.ClickCount++
	l.UpdatedAt = laterThan(l.UpdatedAt, now)
	return l
}

// WithUpdatedURL re-validates and re-normalizes rawURL; the click counter is left untouched.
func (l Link) WithUpdatedURL(rawURL string, now time.Time) (Link, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return Link{}, err
	}
	l.OriginalURL = normalized
	l.UpdatedAt = laterThan(l.UpdatedAt, now)
	return l, nil
}

// WithShortCode returns a copy carrying code instead of the current short code.
func (l Link) WithShortCode(code string, now time.Time) Link {
	l.ShortCode = code
	l.UpdatedAt = laterThan(l.UpdatedAt, now)
	return l
}

// ShortURL builds the fully-qualified short URL for this link.
func (l Link) ShortURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/" + l.ShortCode
}

// IsOwnedBy reports whether userID owns the link. Anonymous links are owned by nobody.
func (l Link) IsOwnedBy(userID string) bool {
	return l.OwnerID != nil && userID != "" && *l.OwnerID == userID
}

// NormalizeURL prepends https:// to scheme-less input and checks that the result is
// a well-formed absolute http(s) URL.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty URL", apperrors.ErrInvalidURL)
	}

	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if strings.Contains(raw, "://") {
			return "", fmt.Errorf("%w: unsupported scheme in %q", apperrors.ErrInvalidURL, raw)
		}
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrInvalidURL, err)
	}
	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: %q is not an absolute http(s) URL", apperrors.ErrInvalidURL, raw)
	}
	if !validHost(u.Hostname()) {
		return "", fmt.Errorf("%w: invalid host in %q", apperrors.ErrInvalidURL, raw)
	}
	// url.Parse lowercases the scheme; the rest of the input is kept as typed.
	return u.Scheme + raw[len(u.Scheme):], nil
}

func validHost(host string) bool {
	if host == "" {
		return false
	}
	if net.ParseIP(host) != nil {
		return true
	}
	return hostnameRe.MatchString(host)
}

// GenerateShortCode draws ShortCodeLength characters uniformly from the 62-character alphabet.
// Collisions are possible and are handled by the caller.
func GenerateShortCode() (string, error) {
	code := make([]byte, ShortCodeLength)
	max := big.NewInt(int64(len(charset)))
	for i := range code {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// ValidateCustomCode checks a caller-supplied short code.
func ValidateCustomCode(code string) error {
	if !customCodeRe.MatchString(code) {
		return fmt.Errorf("%w: %q must be 3-32 letters, digits, '-' or '_'", apperrors.ErrInvalidShortCode, code)
	}
	if _, reserved := reservedCodes[strings.ToLower(code)]; reserved {
		return fmt.Errorf("%w: %q is reserved", apperrors.ErrInvalidShortCode, code)
	}
	return nil
}

func laterThan(prev, now time.Time) time.Time {
	now = now.UTC()
	if !now.After(prev) {
		return prev.Add(time.Nanosecond)
	}
	return now
}

func cloneString(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
