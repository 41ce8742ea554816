package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/axellelanca/urlanalytics/internal/errors"
	"github.com/axellelanca/urlanalytics/internal/models"
)

// SortField names a column links can be ordered by when listed.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByClicks    SortField = "clicks"
	SortByUpdatedAt SortField = "updatedAt"
)

var sortColumns = map[SortField]string{
	SortByCreatedAt: "created_at",
	SortByClicks:    "click_count",
	SortByUpdatedAt: "updated_at",
}

// ListOptions drives the paginated listing of an owner's links. Page starts at 1.
type ListOptions struct {
	Page      int
	Limit     int
	SortBy    SortField
	Ascending bool
}

// LinkRepository est l'interface d'accès aux liens.
type LinkRepository interface {
	// CreateLink returns an error matching ErrUniqueViolation when the short code is taken.
	CreateLink(ctx context.Context, link *models.Link) error
	GetLinkByID(ctx context.Context, id string) (*models.Link, error)
	GetLinkByShortCode(ctx context.Context, shortCode string) (*models.Link, error)
	ListLinksByOwner(ctx context.Context, ownerID string, opts ListOptions) ([]models.Link, error)
	CountLinksByOwner(ctx context.Context, ownerID string) (int64, error)
	GetAllLinks(ctx context.Context) ([]models.Link, error)
	// UpdateLink writes the owner-editable fields; the click counter is never written.
	UpdateLink(ctx context.Context, link *models.Link) error
	// IncrementClickCount atomically adds one click.
	IncrementClickCount(ctx context.Context, id string, at time.Time) error
	// DeleteLink removes the link together with its visits and analytics.
	DeleteLink(ctx context.Context, id string) error
}

// GormLinkRepository est l'implémentation de LinkRepository utilisant GORM.
type GormLinkRepository struct {
	db *gorm.DB
}

// NewLinkRepository crée et retourne une nouvelle instance de GormLinkRepository.
func NewLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

// CreateLink insère un nouveau lien dans la base de données.
func (r *GormLinkRepository) CreateLink(ctx context.Context, link *models.Link) error {
	return translate("create link", r.db.WithContext(ctx).Create(link).Error)
}

// GetLinkByID récupère un lien par son identifiant.
func (r *GormLinkRepository) GetLinkByID(ctx context.Context, id string) (*models.Link, error) {
	return r.first(ctx, "get link by id", "id = ?", id)
}

// GetLinkByShortCode récupère un lien de la base de données en utilisant son shortCode.
func (r *GormLinkRepository) GetLinkByShortCode(ctx context.Context, shortCode string) (*models.Link, error) {
	return r.first(ctx, "get link by short code", "short_code = ?", shortCode)
}

func (r *GormLinkRepository) first(ctx context.Context, op, query string, arg any) (*models.Link, error) {
	var link models.Link
	err := r.db.WithContext(ctx).Where(query, arg).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrLinkNotFound
	}
	if err != nil {
		return nil, translate(op, err)
	}
	return &link, nil
}

// ListLinksByOwner retourne une page des liens d'un propriétaire.
func (r *GormLinkRepository) ListLinksByOwner(ctx context.Context, ownerID string, opts ListOptions) ([]models.Link, error) {
	column, ok := sortColumns[opts.SortBy]
	if !ok {
		column = sortColumns[SortByCreatedAt]
	}
	page := max(opts.Page, 1)
	limit := max(opts.Limit, 1)

	var links []models.Link
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: !opts.Ascending}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&links).Error
	if err != nil {
		return nil, translate("list links by owner", err)
	}
	return links, nil
}

// CountLinksByOwner compte les liens d'un propriétaire.
func (r *GormLinkRepository) CountLinksByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Link{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
		return 0, translate("count links by owner", err)
	}
	return count, nil
}

// GetAllLinks récupère tous les liens de la base de données.
func (r *GormLinkRepository) GetAllLinks(ctx context.Context) ([]models.Link, error) {
	var links []models.Link
	if err := r.db.WithContext(ctx).Order("created_at").Find(&links).Error; err != nil {
		return nil, translate("get all links", err)
	}
	return links, nil
}

// UpdateLink met à jour l'URL, le code court et la date de modification.
func (r *GormLinkRepository) UpdateLink(ctx context.Context, link *models.Link) error {
	res := r.db.WithContext(ctx).Model(&models.Link{}).Where("id = ?", link.ID).Updates(map[string]any{
		"original_url": link.OriginalURL,
		"short_code":   link.ShortCode,
		"updated_at":   link.UpdatedAt,
	})
	if res.Error != nil {
		return translate("update link", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrLinkNotFound
	}
	return nil
}

// IncrementClickCount incrémente le compteur de clics côté base.
func (r *GormLinkRepository) IncrementClickCount(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Link{}).Where("id = ?", id).Updates(map[string]any{
		"click_count": gorm.Expr("click_count + ?", 1),
		"updated_at":  at.UTC(),
	})
	if res.Error != nil {
		return translate("increment click count", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrLinkNotFound
	}
	return nil
}

// DeleteLink supprime le lien, ses visites et ses statistiques dans une transaction.
func (r *GormLinkRepository) DeleteLink(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("link_id = ?", id).Delete(&models.Visit{}).Error; err != nil {
			return err
		}
		if err := tx.Where("link_id = ?", id).Delete(&models.LinkAnalytics{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Link{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrLinkNotFound
		}
		return nil
	})
	if errors.Is(err, apperrors.ErrLinkNotFound) {
		return err
	}
	return translate("delete link", err)
}

var _ LinkRepository = (*GormLinkRepository)(nil)
