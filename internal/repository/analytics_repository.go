package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/axellelanca/urlanalytics/internal/errors"
	"github.com/axellelanca/urlanalytics/internal/models"
	"github.com/axellelanca/urlanalytics/internal/stats"
)

// AnalyticsRepository est l'interface d'accès aux statistiques agrégées.
type AnalyticsRepository interface {
	GetAnalyticsByLinkID(ctx context.Context, linkID string) (*models.LinkAnalytics, error)
	CreateAnalytics(ctx context.Context, analytics *models.LinkAnalytics) error
	UpdateAnalytics(ctx context.Context, analytics *models.LinkAnalytics) error
	// RecomputeFromVisits replaces the summary of linkID with one rebuilt from visits,
	// creating a zeroed record first when none exists.
	RecomputeFromVisits(ctx context.Context, linkID string, visits []models.Visit, now time.Time) (*models.LinkAnalytics, error)
}

// GormAnalyticsRepository est l'implémentation d'AnalyticsRepository utilisant GORM.
type GormAnalyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository crée et retourne une nouvelle instance de GormAnalyticsRepository.
func NewAnalyticsRepository(db *gorm.DB) *GormAnalyticsRepository {
	return &GormAnalyticsRepository{db: db}
}

func (r *GormAnalyticsRepository) GetAnalyticsByLinkID(ctx context.Context, linkID string) (*models.LinkAnalytics, error) {
	var analytics models.LinkAnalytics
	err := r.db.WithContext(ctx).Where("link_id = ?", linkID).First(&analytics).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrAnalyticsNotFound
	}
	if err != nil {
		return nil, translate("get analytics", err)
	}
	return &analytics, nil
}

func (r *GormAnalyticsRepository) CreateAnalytics(ctx context.Context, analytics *models.LinkAnalytics) error {
	return translate("create analytics", r.db.WithContext(ctx).Create(analytics).Error)
}

func (r *GormAnalyticsRepository) UpdateAnalytics(ctx context.Context, analytics *models.LinkAnalytics) error {
	return translate("update analytics", r.db.WithContext(ctx).Save(analytics).Error)
}

func (r *GormAnalyticsRepository) RecomputeFromVisits(ctx context.Context, linkID string, visits []models.Visit, now time.Time) (*models.LinkAnalytics, error) {
	current, err := r.GetAnalyticsByLinkID(ctx, linkID)
	if errors.Is(err, apperrors.ErrAnalyticsNotFound) {
		fresh := models.NewLinkAnalytics(linkID, now)
		err = r.CreateAnalytics(ctx, &fresh)
		switch {
		case err == nil:
			current = &fresh
		case errors.Is(err, apperrors.ErrUniqueViolation):
			// created concurrently by another recomputation
			current, err = r.GetAnalyticsByLinkID(ctx, linkID)
		}
	}
	if err != nil {
		return nil, err
	}

	rebuilt := stats.Rebuild(*current, visits, now)
	if err := r.UpdateAnalytics(ctx, &rebuilt); err != nil {
		return nil, err
	}
	return &rebuilt, nil
}

var _ AnalyticsRepository = (*GormAnalyticsRepository)(nil)
