// Package service internal/application/service/pivot_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/damon-houk/ratepivot/internal/apperrors"
	"github.com/damon-houk/ratepivot/internal/domain/entity"
	"github.com/damon-houk/ratepivot/internal/domain/pivot"
	"github.com/damon-houk/ratepivot/internal/domain/repository"
	domainservice "github.com/damon-houk/ratepivot/internal/domain/service"
	"github.com/damon-houk/ratepivot/internal/infrastructure/cache"
	"github.com/damon-houk/ratepivot/internal/infrastructure/logger"
	"github.com/damon-houk/ratepivot/internal/infrastructure/metrics"
	"github.com/damon-houk/ratepivot/internal/infrastructure/middleware"
)

// PivotService turns rate documents into per-currency price series
type PivotService struct {
	results     repository.PivotResultRepository
	metrics     *metrics.Metrics
	logger      logger.Logger
	maxFillDays int
}

// Option configures a PivotService
type Option func(*PivotService)

// WithMaxFillDays caps the calendar days forward-filled per currency.
// Zero, the default, leaves the walk uncapped.
func WithMaxFillDays(days int) Option {
	return func(s *PivotService) {
		s.maxFillDays = days
	}
}

var _ domainservice.Pivoter = (*PivotService)(nil)

// NewPivotService creates a new pivot service. results and m may be nil.
func NewPivotService(results repository.PivotResultRepository, m *metrics.Metrics, log logger.Logger, opts ...Option) *PivotService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	s := &PivotService{
		results: results,
		metrics: m,
		logger:  log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DecodeDocument parses a rate document.
// Invalid JSON is a parse error; valid JSON of the wrong shape is malformed input.
func DecodeDocument(raw []byte) (*entity.RateDocument, error) {
	var doc entity.RateDocument
	err := json.Unmarshal(raw, &doc)
	if err == nil {
		return &doc, nil
	}

	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, apperrors.ErrMalformedInput):
		return nil, err
	case errors.As(err, &typeErr):
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedInput, err)
	default:
		return nil, fmt.Errorf("%w: %v", apperrors.ErrParse, err)
	}
}

// TransformDocument validates the bound, then decodes and pivots raw.
// Results are looked up in and saved to the result repository when one is configured.
func (s *PivotService) TransformDocument(ctx context.Context, raw []byte, bound string) ([]entity.PriceSeries, error) {
	requestID := middleware.GetRequestID(ctx)

	if err := pivot.ValidateBound(bound); err != nil {
		s.logger.Warn("Rejected max date", map[string]interface{}{
			"request_id": requestID,
			"max_date":   bound,
		})
		s.metrics.ObservePivot(metrics.ResultInvalidArgument, 0, 0)
		return nil, err
	}

	key := cache.Fingerprint(raw, bound)
	if series, ok := s.lookup(ctx, key); ok {
		s.logger.Debug("Serving cached pivot result", map[string]interface{}{
			"request_id": requestID,
			"key":        key,
		})
		return series, nil
	}

	doc, err := DecodeDocument(raw)
	if err != nil {
		s.logger.Warn("Failed to decode rate document", map[string]interface{}{
			"request_id": requestID,
			"bytes":      len(raw),
			"error":      err.Error(),
		})
		s.metrics.ObservePivot(resultLabel(err), 0, 0)
		return nil, err
	}

	series, err := s.Transform(ctx, doc, bound)
	if err != nil {
		return nil, err
	}

	if s.results != nil {
		if err := s.results.Store(ctx, key, series); err != nil {
			// a failed store only costs a recomputation next time
			s.logger.Warn("Failed to store pivot result", map[string]interface{}{
				"request_id": requestID,
				"key":        key,
				"error":      err.Error(),
			})
		}
	}

	return series, nil
}

// Transform pivots an already decoded document
func (s *PivotService) Transform(ctx context.Context, doc *entity.RateDocument, bound string) ([]entity.PriceSeries, error) {
	requestID := middleware.GetRequestID(ctx)
	start := time.Now()

	fields := map[string]interface{}{
		"request_id": requestID,
		"max_date":   bound,
	}
	if doc != nil {
		fields["base"] = doc.Base
		fields["dates"] = len(doc.Rates)
	}
	s.logger.Info("Pivoting rate document", fields)

	result, err := pivot.Run(ctx, doc, bound, pivot.Options{MaxFillDays: s.maxFillDays})
	if err != nil {
		s.logger.Error("Pivot failed", map[string]interface{}{
			"request_id":    requestID,
			"max_fill_days": s.maxFillDays,
			"error":         err.Error(),
		})
		s.metrics.ObservePivot(resultLabel(err), time.Since(start), 0)
		return nil, err
	}

	duration := time.Since(start)
	s.metrics.ObservePivot(metrics.ResultOK, duration, result.Filled)

	s.logger.Info("Pivot completed", map[string]interface{}{
		"request_id":  requestID,
		"currencies":  result.Currencies,
		"min_date":    result.MinDate,
		"max_date":    result.MaxDate,
		"dates":       result.Dates,
		"filled":      result.Filled,
		"duration_ms": duration.Milliseconds(),
	})

	return result.Series, nil
}

func (s *PivotService) lookup(ctx context.Context, key string) ([]entity.PriceSeries, bool) {
	if s.results == nil {
		return nil, false
	}

	series, found, err := s.results.Find(ctx, key)
	switch {
	case err != nil:
		s.metrics.ObserveCacheLookup("error")
		s.logger.Warn("Failed to read pivot result", map[string]interface{}{
			"request_id": middleware.GetRequestID(ctx),
			"key":        key,
			"error":      err.Error(),
		})
		return nil, false
	case !found:
		s.metrics.ObserveCacheLookup("miss")
		return nil, false
	default:
		s.metrics.ObserveCacheLookup("hit")
		return series, true
	}
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInvalidArgument):
		return metrics.ResultInvalidArgument
	case errors.Is(err, apperrors.ErrMalformedInput):
		return metrics.ResultMalformed
	case errors.Is(err, apperrors.ErrParse):
		return metrics.ResultParseError
	case errors.Is(err, apperrors.ErrLimitExceeded):
		return metrics.ResultLimitExceeded
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.ResultCanceled
	default:
		return metrics.ResultInternal
	}
}
