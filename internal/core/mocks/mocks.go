package mocks

import (
	"context"

	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
	"github.com/lorrc/atendimento-dashboard/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockDatasetSource is a mock implementation of ports.DatasetSource
type MockDatasetSource struct {
	mock.Mock
}

func NewMockDatasetSource() *MockDatasetSource {
	return &MockDatasetSource{}
}

func (m *MockDatasetSource) Load(ctx context.Context) (domain.Dataset, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Dataset), args.Error(1)
}

// MockRecordRepository is a mock implementation of ports.RecordRepository
type MockRecordRepository struct {
	mock.Mock
}

func NewMockRecordRepository() *MockRecordRepository {
	return &MockRecordRepository{}
}

func (m *MockRecordRepository) ListRecords(ctx context.Context) ([]domain.Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Record), args.Error(1)
}

func (m *MockRecordRepository) ReplaceRecords(ctx context.Context, records []domain.Record) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

// MockDashboardService is a mock implementation of ports.DashboardService
type MockDashboardService struct {
	mock.Mock
}

func NewMockDashboardService() *MockDashboardService {
	return &MockDashboardService{}
}

func (m *MockDashboardService) Toggle(ctx context.Context, facet domain.FacetName, value string) {
	m.Called(ctx, facet, value)
}

func (m *MockDashboardService) SetPeriod(ctx context.Context, start, end string) {
	m.Called(ctx, start, end)
}

func (m *MockDashboardService) ResetPeriod(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockDashboardService) Clear(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockDashboardService) ReplaceDataset(ctx context.Context, dataset domain.Dataset) {
	m.Called(ctx, dataset)
}

func (m *MockDashboardService) Current(ctx context.Context) ports.DashboardView {
	args := m.Called(ctx)
	return args.Get(0).(ports.DashboardView)
}

// MockRefreshService is a mock implementation of ports.RefreshService
type MockRefreshService struct {
	mock.Mock
}

func NewMockRefreshService() *MockRefreshService {
	return &MockRefreshService{}
}

func (m *MockRefreshService) Refresh(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockAuthService is a mock implementation of ports.AuthService
type MockAuthService struct {
	mock.Mock
}

func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

func (m *MockAuthService) Login(ctx context.Context, password string) (string, error) {
	args := m.Called(ctx, password)
	return args.String(0), args.Error(1)
}

// MockTokenIssuer is a mock implementation of ports.TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func NewMockTokenIssuer() *MockTokenIssuer {
	return &MockTokenIssuer{}
}

func (m *MockTokenIssuer) GenerateToken(subject string) (string, error) {
	args := m.Called(subject)
	return args.String(0), args.Error(1)
}
