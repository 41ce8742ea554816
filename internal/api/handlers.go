package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/axellelanca/urlanalytics/internal/errors"
	"github.com/axellelanca/urlanalytics/internal/metrics"
	"github.com/axellelanca/urlanalytics/internal/services"
	"github.com/axellelanca/urlanalytics/internal/stats"
)

// HealthCheckHandler handles the /health route to verify service status
// This endpoint is typically used by load balancers and monitoring systems
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateLinkRequest represents the JSON request body for creating one link
type CreateLinkRequest struct {
	OriginalURL string `json:"original_url" binding:"required"`
	CustomCode  string `json:"custom_code"`
}

// BulkCreateRequest carries up to services.MaxBulkItems links
type BulkCreateRequest struct {
	URLs []services.BulkItem `json:"urls"`
}

// UpdateLinkRequest lists the fields an owner may change; omitted fields are kept
type UpdateLinkRequest struct {
	OriginalURL string `json:"original_url"`
	CustomCode  string `json:"custom_code"`
}

// ownerRef returns nil for anonymous callers so the link is stored without owner
func ownerRef(c *gin.Context) *string {
	if id := currentUser(c); id != "" {
		return &id
	}
	return nil
}

// CreateShortLinkHandler handles the creation of a single shortened URL
// Authenticated callers become the owner of the link
func CreateShortLinkHandler(linkService *services.LinkService, baseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateLinkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		created, err := linkService.CreateLink(c.Request.Context(), services.CreateLinkInput{
			OriginalURL: req.OriginalURL,
			OwnerID:     ownerRef(c),
			CustomCode:  req.CustomCode,
			BaseURL:     baseURL,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		metrics.LinksCreatedTotal.Inc()
		c.JSON(http.StatusCreated, created)
	}
}

// BulkCreateHandler creates every URL of the batch independently
// 201 when all succeed, 207 on mixed results, 400 when every item failed
func BulkCreateHandler(linkService *services.LinkService, baseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BulkCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		result, err := linkService.BulkCreateLinks(c.Request.Context(), services.BulkCreateInput{
			Items:   req.URLs,
			OwnerID: ownerRef(c),
			BaseURL: baseURL,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		metrics.BulkItemsTotal.WithLabelValues("created").Add(float64(len(result.Links)))
		metrics.BulkItemsTotal.WithLabelValues("failed").Add(float64(len(result.Failed)))
		if len(result.Failed) > 0 {
			log.Printf("[BULK] %s", result.Message)
		}

		var statusCode int
		switch {
		case len(result.Failed) == 0:
			statusCode = http.StatusCreated
		case len(result.Links) == 0:
			statusCode = http.StatusBadRequest
		default:
			statusCode = http.StatusMultiStatus
		}
		c.JSON(statusCode, result)
	}
}

// ListLinksHandler returns one page of the caller's links
func ListLinksHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := intQuery(c, "page")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page parameter"})
			return
		}
		limit, err := intQuery(c, "limit")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}

		result, err := linkService.ListLinks(c.Request.Context(), services.ListLinksQuery{
			OwnerID:   currentUser(c),
			Page:      page,
			Limit:     limit,
			SortBy:    c.Query("sort_by"),
			SortOrder: c.Query("sort_order"),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// UpdateLinkHandler changes the target URL and/or the short code of one of the caller's links
func UpdateLinkHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateLinkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		if req.OriginalURL == "" && req.CustomCode == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Either 'original_url' or 'custom_code' must be provided"})
			return
		}

		link, err := linkService.UpdateLink(c.Request.Context(), services.UpdateLinkInput{
			LinkID:      c.Param("id"),
			RequesterID: currentUser(c),
			OriginalURL: req.OriginalURL,
			CustomCode:  req.CustomCode,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, link)
	}
}

// DeleteLinkHandler removes one of the caller's links with its visits and analytics
func DeleteLinkHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := linkService.DeleteLink(c.Request.Context(), c.Param("id"), currentUser(c)); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// GetAnalyticsHandler returns the analytics report of one of the caller's links
// Query: start_date, end_date (RFC 3339 or YYYY-MM-DD) and group_by (hour, day, month)
func GetAnalyticsHandler(analyticsService *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start, err := dateQuery(c, "start_date", false)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		end, err := dateQuery(c, "end_date", true)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if start != nil && end != nil && end.Before(*start) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must not be before start_date"})
			return
		}

		report, err := analyticsService.ComputeLinkAnalytics(c.Request.Context(), services.AnalyticsQuery{
			LinkID:      c.Param("id"),
			RequesterID: currentUser(c),
			StartDate:   start,
			EndDate:     end,
			Granularity: stats.Granularity(c.Query("group_by")),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// RefreshAnalyticsHandler rebuilds the stored analytics of one of the caller's links
func RefreshAnalyticsHandler(analyticsService *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		analytics, err := analyticsService.RecomputeOwnedLinkAnalytics(c.Request.Context(), c.Param("id"), currentUser(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, analytics)
	}
}

// RedirectHandler handles the redirection from a short URL to the original long URL
// The visit is recorded before redirecting
func RedirectHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		shortCode := c.Param("shortCode")

		result, err := linkService.RecordVisit(c.Request.Context(), services.VisitInput{
			ShortCode: shortCode,
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Referrer:  c.Request.Referer(),
		})
		if err != nil {
			if errors.Is(err, apperrors.ErrLinkNotFound) {
				metrics.RedirectsTotal.WithLabelValues("not_found").Inc()
				c.JSON(http.StatusNotFound, gin.H{"error": "Short URL not found"})
				return
			}
			metrics.RedirectsTotal.WithLabelValues("error").Inc()
			respondError(c, err)
			return
		}

		metrics.RedirectsTotal.WithLabelValues("found").Inc()
		c.Redirect(http.StatusFound, result.OriginalURL)
	}
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// dateQuery parses an optional date parameter, RFC 3339 or YYYY-MM-DD.
// With endOfDay a bare date is moved to 23:59:59.999999999 UTC of that day, so
// 2024-01-01..2024-01-07 spans 7 days and averageClicksPerDay divides by 7, not by
// the 6 a midnight end bound would give.
func dateQuery(c *gin.Context, key string, endOfDay bool) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, errors.New("invalid " + key + ": expected RFC 3339 or YYYY-MM-DD")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
