// Package repository holds the persistence contracts of the service and their GORM implementations.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/axellelanca/urlanalytics/internal/errors"
)

// translate classifies a raw GORM error: uniqueness violations become ErrUniqueViolation,
// anything else becomes a StoreError.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%s: %w", op, apperrors.ErrUniqueViolation)
	}
	return apperrors.Store(op, err)
}
