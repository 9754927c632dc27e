package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"agrilift/portal/internal/models"
	"agrilift/portal/internal/services"
)

// --- Mocks ---

// MockExportService
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) CreateExport(ctx context.Context, input *models.Export) (*models.Export, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Export), args.Error(1)
}

func (m *MockExportService) SaveExport(ctx context.Context, export *models.Export) (*models.Export, error) {
	args := m.Called(ctx, export)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Export), args.Error(1)
}

func (m *MockExportService) FindExportByID(ctx context.Context, exportID string) (*models.Export, error) {
	args := m.Called(ctx, exportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Export), args.Error(1)
}

func (m *MockExportService) FindExportsByOwner(ctx context.Context, ownerID string, opts services.ListOptions) ([]models.Export, error) {
	args := m.Called(ctx, ownerID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Export), args.Error(1)
}

func (m *MockExportService) FindActiveExports(ctx context.Context, ownerID *string) ([]models.Export, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Export), args.Error(1)
}

func (m *MockExportService) UpdateStatus(ctx context.Context, exportID string, newStatus models.ExportStatus, note string) (*models.Export, error) {
	args := m.Called(ctx, exportID, newStatus, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Export), args.Error(1)
}

func (m *MockExportService) AddBuyer(ctx context.Context, exportID string, buyer models.Buyer) (*models.Export, error) {
	args := m.Called(ctx, exportID, buyer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Export), args.Error(1)
}

func (m *MockExportService) UpdateLogistics(ctx context.Context, exportID string, updates map[string]interface{}) (*models.Export, error) {
	args := m.Called(ctx, exportID, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Export), args.Error(1)
}

func (m *MockExportService) UpdatePayment(ctx context.Context, exportID string, updates map[string]interface{}) (*models.Export, error) {
	args := m.Called(ctx, exportID, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Export), args.Error(1)
}

func (m *MockExportService) AddActivity(ctx context.Context, exportID string, action models.ActivityAction, description, performedBy string, metadata bson.M) (*models.Export, error) {
	args := m.Called(ctx, exportID, action, description, performedBy, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Export), args.Error(1)
}

func (m *MockExportService) SoftDeleteExport(ctx context.Context, exportID, ownerID string) error {
	args := m.Called(ctx, exportID, ownerID)
	return args.Error(0)
}

func (m *MockExportService) HardDeleteExport(ctx context.Context, exportID string) error {
	args := m.Called(ctx, exportID)
	return args.Error(0)
}

// MockAnalyticsService
type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) StatsByStatus(ctx context.Context, ownerID *string) ([]services.StatusStats, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.StatusStats), args.Error(1)
}

func (m *MockAnalyticsService) MarketInsights(ctx context.Context) ([]services.MarketInsight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.MarketInsight), args.Error(1)
}

func (m *MockAnalyticsService) TopCrops(ctx context.Context, limit int) ([]services.CropStats, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.CropStats), args.Error(1)
}
