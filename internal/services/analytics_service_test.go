package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"agrilift/portal/internal/config"
	"agrilift/portal/internal/models"
	"agrilift/portal/internal/utils"
)

func setupTestDBAnalytics(t *testing.T, dbName string) *mongo.Database {
	return utils.SetupTestDB(t, dbName, ExportsCollection)
}

// seedExport inserts a record directly, bypassing the lifecycle, so tests
// control every field including status and actual revenue.
func seedExport(t *testing.T, db *mongo.Database, ownerID, crop string, status models.ExportStatus,
	markets []string, quantity float64, perUnit float64, actualRevenue *float64, profitMargin *float64, active bool) {
	t.Helper()
	export := models.Export{
		ExportID: utils.NewExportID(),
		OwnerID:  ownerID,
		Title:    crop + " deal",
		Product: models.Product{
			CropName: crop,
			Quantity: models.Quantity{Value: quantity, Unit: "quintal"},
			Price:    models.Price{PerUnit: perUnit, Currency: "USD", Total: quantity * perUnit},
		},
		Status:        status,
		Priority:      models.PriorityMedium,
		TargetMarkets: markets,
		ActualRevenue: actualRevenue,
		ProfitMargin:  profitMargin,
		IsActive:      active,
		Version:       1,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	_, err := db.Collection(ExportsCollection).InsertOne(context.Background(), export)
	require.NoError(t, err)
}

func fptr(v float64) *float64 { return &v }

func TestAnalyticsService_StatsByStatus(t *testing.T) {
	db := setupTestDBAnalytics(t, "testdb_analytics_status")
	svc := NewAnalyticsService(db, &config.Config{}, nil)
	ctx := context.Background()

	seedExport(t, db, "farmer-1", "Rice", models.StatusActive, nil, 100, 25, fptr(3000), nil, true)
	seedExport(t, db, "farmer-1", "Wheat", models.StatusActive, nil, 50, 20, fptr(1000), nil, true)
	seedExport(t, db, "farmer-2", "Rice", models.StatusCompleted, nil, 80, 30, fptr(2500), nil, true)
	// Drafts carry no revenue yet.
	seedExport(t, db, "farmer-2", "Mango", models.StatusDraft, nil, 10, 5, nil, nil, true)
	// Soft-deleted records never count.
	seedExport(t, db, "farmer-1", "Rice", models.StatusActive, nil, 999, 99, fptr(99999), nil, false)

	stats, err := svc.StatsByStatus(ctx, nil)
	require.NoError(t, err)
	require.Len(t, stats, 3)

	byStatus := map[models.ExportStatus]StatusStats{}
	total := int64(0)
	for _, s := range stats {
		byStatus[s.Status] = s
		total += s.Count
	}
	// Group counts sum to the number of active records.
	assert.Equal(t, int64(4), total)

	active := byStatus[models.StatusActive]
	assert.Equal(t, int64(2), active.Count)
	assert.Equal(t, 4000.0, active.TotalRevenue)
	require.NotNil(t, active.AvgRevenue)
	assert.Equal(t, 2000.0, *active.AvgRevenue)

	// No revenue in the group: sum is 0 and average is null, not 0.
	draft := byStatus[models.StatusDraft]
	assert.Equal(t, int64(1), draft.Count)
	assert.Equal(t, 0.0, draft.TotalRevenue)
	assert.Nil(t, draft.AvgRevenue)

	// Owner filter.
	owner := "farmer-1"
	stats, err = svc.StatsByStatus(ctx, &owner)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, models.StatusActive, stats[0].Status)
	assert.Equal(t, int64(2), stats[0].Count)
}

func TestAnalyticsService_MarketInsights(t *testing.T) {
	db := setupTestDBAnalytics(t, "testdb_analytics_markets")
	svc := NewAnalyticsService(db, &config.Config{}, nil)
	ctx := context.Background()

	// Overlapping but not identical market sets: each listing is unwound over
	// its individual markets, so UAE sees both listings.
	seedExport(t, db, "farmer-1", "Rice", models.StatusActive, []string{"UAE", "UK"}, 100, 25, fptr(3000), fptr(20), true)
	seedExport(t, db, "farmer-2", "Wheat", models.StatusActive, []string{"UAE"}, 50, 20, fptr(1000), fptr(10), true)
	seedExport(t, db, "farmer-2", "Mango", models.StatusDraft, nil, 10, 5, nil, nil, true)

	insights, err := svc.MarketInsights(ctx)
	require.NoError(t, err)
	require.Len(t, insights, 2)

	byMarket := map[string]MarketInsight{}
	for _, m := range insights {
		byMarket[m.Market] = m
	}

	uae := byMarket["UAE"]
	assert.Equal(t, int64(2), uae.Count)
	assert.Equal(t, 4000.0, uae.TotalRevenue)
	require.NotNil(t, uae.AvgProfitMargin)
	assert.Equal(t, 15.0, *uae.AvgProfitMargin)

	uk := byMarket["UK"]
	assert.Equal(t, int64(1), uk.Count)
	assert.Equal(t, 3000.0, uk.TotalRevenue)

	// Ranked by revenue descending.
	assert.Equal(t, "UAE", insights[0].Market)
}

func TestAnalyticsService_TopCrops(t *testing.T) {
	db := setupTestDBAnalytics(t, "testdb_analytics_crops")
	svc := NewAnalyticsService(db, &config.Config{}, nil)
	ctx := context.Background()

	seedExport(t, db, "farmer-1", "Rice", models.StatusCompleted, nil, 100, 25, fptr(3000), nil, true)
	seedExport(t, db, "farmer-2", "Rice", models.StatusActive, nil, 60, 35, fptr(2500), nil, true)
	seedExport(t, db, "farmer-1", "Wheat", models.StatusActive, nil, 50, 20, fptr(1000), nil, true)
	seedExport(t, db, "farmer-2", "Mango", models.StatusDraft, nil, 10, 5, nil, nil, true)

	crops, err := svc.TopCrops(ctx, 0)
	require.NoError(t, err)
	require.Len(t, crops, 3)

	// Rice wins on total revenue.
	rice := crops[0]
	assert.Equal(t, "Rice", rice.CropName)
	assert.Equal(t, int64(2), rice.Count)
	assert.Equal(t, 160.0, rice.TotalQuantity)
	assert.Equal(t, 5500.0, rice.TotalRevenue)
	require.NotNil(t, rice.AvgPrice)
	assert.Equal(t, 30.0, *rice.AvgPrice)

	// Revenue-free crops still appear, just at the bottom.
	assert.Equal(t, "Mango", crops[2].CropName)
	assert.Equal(t, 0.0, crops[2].TotalRevenue)

	// Limit truncates the ranking.
	crops, err = svc.TopCrops(ctx, 1)
	require.NoError(t, err)
	require.Len(t, crops, 1)
	assert.Equal(t, "Rice", crops[0].CropName)
}

func TestAnalyticsService_EmptyCollection(t *testing.T) {
	db := setupTestDBAnalytics(t, "testdb_analytics_empty")
	svc := NewAnalyticsService(db, &config.Config{}, nil)
	ctx := context.Background()

	stats, err := svc.StatsByStatus(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, stats, 0)

	insights, err := svc.MarketInsights(ctx)
	require.NoError(t, err)
	assert.Len(t, insights, 0)

	crops, err := svc.TopCrops(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, crops, 0)
}
