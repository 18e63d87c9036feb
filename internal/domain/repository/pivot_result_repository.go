// Package repository internal/domain/repository/pivot_result_repository.go
package repository

import (
	"context"

	"github.com/damon-houk/ratepivot/internal/domain/entity"
)

// PivotResultRepository memoizes pivot results by request fingerprint
type PivotResultRepository interface {
	// Find returns the stored result for key, or false when none is stored or it expired
	Find(ctx context.Context, key string) ([]entity.PriceSeries, bool, error)

	// Store saves a result under key
	Store(ctx context.Context, key string, series []entity.PriceSeries) error
}
