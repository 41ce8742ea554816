package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/axellelanca/urlanalytics/internal/models"
	"github.com/axellelanca/urlanalytics/internal/stats"
)

// VisitRepository est l'interface d'accès aux visites.
type VisitRepository interface {
	CreateVisit(ctx context.Context, visit *models.Visit) error
	// GetVisitsByLinkID returns the visits of a link inside the window, oldest first.
	GetVisitsByLinkID(ctx context.Context, linkID string, window stats.Window) ([]models.Visit, error)
	CountVisitsByLinkID(ctx context.Context, linkID string) (int64, error)
}

// GormVisitRepository est l'implémentation de VisitRepository utilisant GORM.
type GormVisitRepository struct {
	db *gorm.DB
}

// NewVisitRepository crée et retourne une nouvelle instance de GormVisitRepository.
func NewVisitRepository(db *gorm.DB) *GormVisitRepository {
	return &GormVisitRepository{db: db}
}

// CreateVisit insère un nouvel enregistrement de visite dans la base de données.
func (r *GormVisitRepository) CreateVisit(ctx context.Context, visit *models.Visit) error {
	return translate("create visit", r.db.WithContext(ctx).Create(visit).Error)
}

// GetVisitsByLinkID récupère les visites d'un lien, filtrées par dates si fournies.
func (r *GormVisitRepository) GetVisitsByLinkID(ctx context.Context, linkID string, window stats.Window) ([]models.Visit, error) {
	q := r.db.WithContext(ctx).Where("link_id = ?", linkID)
	if window.Start != nil {
		q = q.Where("occurred_at >= ?", window.Start.UTC())
	}
	if window.End != nil {
		q = q.Where("occurred_at <= ?", window.End.UTC())
	}

	var visits []models.Visit
	if err := q.Order("occurred_at").Order("id").Find(&visits).Error; err != nil {
		return nil, translate("get visits by link", err)
	}
	return visits, nil
}

// CountVisitsByLinkID compte le nombre total de visites pour un lien donné.
func (r *GormVisitRepository) CountVisitsByLinkID(ctx context.Context, linkID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Visit{}).Where("link_id = ?", linkID).Count(&count).Error; err != nil {
		return 0, translate("count visits by link", err)
	}
	return count, nil
}

var _ VisitRepository = (*GormVisitRepository)(nil)
