// internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/damon-houk/ratepivot/internal/domain/entity"
	"github.com/damon-houk/ratepivot/internal/infrastructure/logger"
	"github.com/stretchr/testify/mock"
)

// MockPivotResultRepository mocks the PivotResultRepository interface
type MockPivotResultRepository struct {
	mock.Mock
}

func (m *MockPivotResultRepository) Find(ctx context.Context, key string) ([]entity.PriceSeries, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]entity.PriceSeries), args.Bool(1), args.Error(2)
}

func (m *MockPivotResultRepository) Store(ctx context.Context, key string, series []entity.PriceSeries) error {
	args := m.Called(ctx, key, series)
	return args.Error(0)
}

// MockPivoter mocks the Pivoter interface
type MockPivoter struct {
	mock.Mock
}

func (m *MockPivoter) TransformDocument(ctx context.Context, raw []byte, bound string) ([]entity.PriceSeries, error) {
	args := m.Called(ctx, raw, bound)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.PriceSeries), args.Error(1)
}

// MockLogger mocks the logger interface
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Info(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Warn(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Error(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Fatal(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) WithField(key string, value interface{}) logger.Logger {
	args := m.Called(key, value)
	return args.Get(0).(logger.Logger)
}

func (m *MockLogger) WithFields(fields map[string]interface{}) logger.Logger {
	args := m.Called(fields)
	return args.Get(0).(logger.Logger)
}

func (m *MockLogger) Sync() error {
	args := m.Called()
	return args.Error(0)
}
