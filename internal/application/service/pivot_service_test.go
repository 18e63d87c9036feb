// internal/application/service/pivot_service_test.go
package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/damon-houk/ratepivot/internal/apperrors"
	"github.com/damon-houk/ratepivot/internal/domain/entity"
	"github.com/damon-houk/ratepivot/internal/infrastructure/cache"
	"github.com/damon-houk/ratepivot/internal/infrastructure/logger"
	"github.com/damon-houk/ratepivot/internal/infrastructure/metrics"
	"github.com/damon-houk/ratepivot/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testDocument = `{"base":"USD","rates":{"2019-01-01":{"EUR":0.8,"BRL":3.7},"2019-01-03":{"EUR":0.9,"BRL":3.8}},"start_at":"2019-01-01","end_at":"2019-01-03"}`

func TestDecodeDocument(t *testing.T) {
	t.Run("Valid document", func(t *testing.T) {
		doc, err := DecodeDocument([]byte(testDocument))
		require.NoError(t, err)
		assert.Equal(t, "USD", doc.Base)
		assert.Equal(t, "2019-01-01", doc.StartAt)
		require.Len(t, doc.Rates, 2)
		assert.Equal(t, []string{"EUR", "BRL"}, doc.Rates[0].Rates.Currencies())
	})

	t.Run("Not JSON", func(t *testing.T) {
		for _, raw := range []string{"", "{", "rates", `{"rates":{}} trailing`} {
			_, err := DecodeDocument([]byte(raw))
			assert.ErrorIs(t, err, apperrors.ErrParse, raw)
		}
	})

	t.Run("Wrong shape", func(t *testing.T) {
		for _, raw := range []string{
			`[]`,
			`{"base":5}`,
			`{"rates":[1,2]}`,
			`{"rates":{"2019-01-01":3}}`,
			`{"rates":{"2019-01-01":{"EUR":"0.8"}}}`,
			`{"rates":{"2019-01-01":{"EUR":null}}}`,
		} {
			_, err := DecodeDocument([]byte(raw))
			assert.ErrorIs(t, err, apperrors.ErrMalformedInput, raw)
		}
	})
}

func TestTransformDocument(t *testing.T) {
	log := logger.NewJSONLogger(nil, logger.InfoLevel)
	ctx := context.Background()

	t.Run("Successful pivot without a repository", func(t *testing.T) {
		svc := NewPivotService(nil, nil, log)

		series, err := svc.TransformDocument(ctx, []byte(testDocument), "")

		assert.NoError(t, err)
		require.Len(t, series, 2)
		assert.Equal(t, "EUR", series[0].Currency)
		assert.Len(t, series[0].Prices, 3)
		assert.Equal(t, "2019-01-02", series[0].Prices[1].Date)
		assert.InDelta(t, 1.25, series[0].Prices[1].Price, 1e-12)
	})

	t.Run("Cache miss stores the result", func(t *testing.T) {
		repo := new(mocks.MockPivotResultRepository)
		svc := NewPivotService(repo, nil, log)
		key := cache.Fingerprint([]byte(testDocument), "2019-01-05")

		repo.On("Find", ctx, key).Return(nil, false, nil).Once()
		repo.On("Store", ctx, key, mock.AnythingOfType("[]entity.PriceSeries")).Return(nil).Once()

		series, err := svc.TransformDocument(ctx, []byte(testDocument), "2019-01-05")

		assert.NoError(t, err)
		require.Len(t, series, 2)
		assert.Len(t, series[1].Prices, 4)
		repo.AssertExpectations(t)
	})

	t.Run("Cache hit skips the pivot", func(t *testing.T) {
		repo := new(mocks.MockPivotResultRepository)
		svc := NewPivotService(repo, nil, log)
		raw := []byte("not even json")
		cached := []entity.PriceSeries{{Currency: "EUR"}}

		repo.On("Find", ctx, cache.Fingerprint(raw, "")).Return(cached, true, nil).Once()

		series, err := svc.TransformDocument(ctx, raw, "")

		assert.NoError(t, err)
		assert.Equal(t, cached, series)
		repo.AssertExpectations(t)
		repo.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Repository errors do not fail the pivot", func(t *testing.T) {
		repo := new(mocks.MockPivotResultRepository)
		svc := NewPivotService(repo, nil, log)

		repo.On("Find", ctx, mock.Anything).Return(nil, false, errors.New("disk gone")).Once()
		repo.On("Store", ctx, mock.Anything, mock.Anything).Return(errors.New("disk gone")).Once()

		series, err := svc.TransformDocument(ctx, []byte(testDocument), "")

		assert.NoError(t, err)
		assert.Len(t, series, 2)
		repo.AssertExpectations(t)
	})

	t.Run("Invalid bound is rejected before anything else", func(t *testing.T) {
		repo := new(mocks.MockPivotResultRepository)
		svc := NewPivotService(repo, nil, log)

		series, err := svc.TransformDocument(ctx, []byte("{"), "2019-1-5")

		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
		assert.Nil(t, series)
		repo.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
	})

	t.Run("Malformed input is not stored", func(t *testing.T) {
		repo := new(mocks.MockPivotResultRepository)
		svc := NewPivotService(repo, nil, log)
		raw := []byte(`{"rates":{"2019-01-01":{"EUR":0}}}`)

		repo.On("Find", ctx, mock.Anything).Return(nil, false, nil).Once()

		series, err := svc.TransformDocument(ctx, raw, "")

		assert.ErrorIs(t, err, apperrors.ErrMalformedInput)
		assert.Nil(t, series)
		repo.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Parse error", func(t *testing.T) {
		svc := NewPivotService(nil, nil, log)

		_, err := svc.TransformDocument(ctx, []byte(`{"rates":`), "")

		assert.ErrorIs(t, err, apperrors.ErrParse)
	})
}

func TestTransformRecordsMetricsAndLogs(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewJSONLogger(&buf, logger.DebugLevel)
	m := metrics.NewMetrics("test")
	svc := NewPivotService(cache.NewResultCache(0), m, log)
	ctx := context.Background()

	_, err := svc.TransformDocument(ctx, []byte(testDocument), "")
	require.NoError(t, err)

	// second call is served from the cache
	_, err = svc.TransformDocument(ctx, []byte(testDocument), "")
	require.NoError(t, err)

	_, err = svc.TransformDocument(ctx, []byte(`{"rates":{}}`), "")
	require.ErrorIs(t, err, apperrors.ErrMalformedInput)

	out := buf.String()
	assert.Contains(t, out, "Pivot completed")
	assert.Contains(t, out, "Serving cached pivot result")
	assert.Contains(t, out, "Pivot failed")

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	counts := map[string]float64{}
	for _, f := range families {
		if f.GetName() != "test_pivots_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			counts[metric.GetLabel()[0].GetValue()] = metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, counts[metrics.ResultOK])
	assert.Equal(t, 1.0, counts[metrics.ResultMalformed])
}

func TestTransformDocumentFillCap(t *testing.T) {
	log := logger.NewNopLogger()
	ctx := context.Background()

	t.Run("Bound beyond the cap is rejected", func(t *testing.T) {
		m := metrics.NewMetrics("capped")
		repo := new(mocks.MockPivotResultRepository)
		repo.On("Find", mock.Anything, mock.Anything).Return(nil, false, nil)
		svc := NewPivotService(repo, m, log, WithMaxFillDays(10))

		out, err := svc.TransformDocument(ctx, []byte(testDocument), "9999-12-31")

		assert.ErrorIs(t, err, apperrors.ErrLimitExceeded)
		assert.Nil(t, out)
		repo.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything)

		families, err := m.Registry().Gather()
		require.NoError(t, err)
		found := false
		for _, f := range families {
			if f.GetName() != "capped_pivots_total" {
				continue
			}
			for _, metric := range f.GetMetric() {
				if metric.GetLabel()[0].GetValue() == metrics.ResultLimitExceeded {
					found = true
					assert.Equal(t, 1.0, metric.GetCounter().GetValue())
				}
			}
		}
		assert.True(t, found)
	})

	t.Run("Bound within the cap is pivoted", func(t *testing.T) {
		svc := NewPivotService(nil, nil, log, WithMaxFillDays(10))

		out, err := svc.TransformDocument(ctx, []byte(testDocument), "2019-01-11")

		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Len(t, out[0].Prices, 10)
	})

	t.Run("Uncapped by default", func(t *testing.T) {
		svc := NewPivotService(nil, nil, log)

		out, err := svc.TransformDocument(ctx, []byte(testDocument), "2021-01-01")

		require.NoError(t, err)
		assert.Len(t, out[0].Prices, 731)
	})
}

func TestTransformDocumentCanceled(t *testing.T) {
	svc := NewPivotService(nil, nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := svc.TransformDocument(ctx, []byte(testDocument), "9999-12-31")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
}
