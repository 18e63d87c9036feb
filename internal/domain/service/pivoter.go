package service

import (
	"context"

	"github.com/damon-houk/ratepivot/internal/domain/entity"
)

// Pivoter defines the interface for turning a raw rate document into price series
type Pivoter interface {
	// TransformDocument pivots raw, forward-filling up to (not including) bound when it is set
	TransformDocument(ctx context.Context, raw []byte, bound string) ([]entity.PriceSeries, error)
}
