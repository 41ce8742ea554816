package services

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/iter"

	apperrors "github.com/axellelanca/urlanalytics/internal/errors"
	"github.com/axellelanca/urlanalytics/internal/models"
)

// MaxBulkItems is the largest batch BulkCreateLinks accepts.
const MaxBulkItems = 100

// BulkItem is one URL of a batch, optionally with a custom code.
type BulkItem struct {
	OriginalURL string `json:"original_url"`
	CustomCode  string `json:"custom_code,omitempty"`
}

// BulkFailure reports an item that could not be created, keyed by the URL as submitted.
type BulkFailure struct {
	URL   string `json:"url"`
	Error string `json:"error"`
	Err   error  `json:"-"`
}

// BulkCreateInput is a batch owned by OwnerID (nil for anonymous).
type BulkCreateInput struct {
	Items   []BulkItem
	OwnerID *string
	BaseURL string
}

// BulkCreateResult keeps successes and failures in input order.
type BulkCreateResult struct {
	Links     []models.Link `json:"links"`
	ShortURLs []string      `json:"short_urls"`
	Failed    []BulkFailure `json:"failed_urls"`
	Message   string        `json:"message"`
}

type bulkOutcome struct {
	link models.Link
	err  error
}

// BulkCreateLinks creates every item independently; one failing item never affects the others.
// Items are not retried on a short code collision.
func (s *LinkService) BulkCreateLinks(ctx context.Context, in BulkCreateInput) (*BulkCreateResult, error) {
	switch n := len(in.Items); {
	case n == 0:
		return nil, apperrors.ErrEmptyBatch
	case n > MaxBulkItems:
		return nil, fmt.Errorf("%w: %d items, maximum is %d", apperrors.ErrBatchTooLarge, n, MaxBulkItems)
	}

	outcomes := iter.Map(in.Items, func(item *BulkItem) bulkOutcome {
		link, err := s.createBulkItem(ctx, *item, in.OwnerID)
		return bulkOutcome{link: link, err: err}
	})

	result := &BulkCreateResult{
		Links:     []models.Link{},
		ShortURLs: []string{},
		Failed:    []BulkFailure{},
	}
	for i, o := range outcomes {
		if o.err != nil {
			result.Failed = append(result.Failed, BulkFailure{
				URL:   in.Items[i].OriginalURL,
				Error: o.err.Error(),
				Err:   o.err,
			})
			continue
		}
		result.Links = append(result.Links, o.link)
		result.ShortURLs = append(result.ShortURLs, o.link.ShortURL(in.BaseURL))
	}

	result.Message = fmt.Sprintf("Successfully created %d links", len(result.Links))
	if len(result.Failed) > 0 {
		result.Message += fmt.Sprintf(", %d failed", len(result.Failed))
	}
	return result, nil
}

func (s *LinkService) createBulkItem(ctx context.Context, item BulkItem, ownerID *string) (link models.Link, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()

	link, err = s.buildLink(ctx, item.OriginalURL, ownerID, item.CustomCode)
	if err != nil {
		return models.Link{}, err
	}
	if err := s.persist(ctx, &link, item.CustomCode != ""); err != nil {
		return models.Link{}, err
	}
	return link, nil
}
