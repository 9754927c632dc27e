package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"agrilift/portal/internal/config"
	"agrilift/portal/internal/models"
)

// StatusStats is one per-status group row. AvgRevenue is nil when no record
// in the group carries an actual revenue: Mongo's $avg skips null/missing
// values instead of coercing them to zero, and $sum over only-missing values
// yields 0.
type StatusStats struct {
	Status       models.ExportStatus `bson:"_id" json:"status"`
	Count        int64               `bson:"count" json:"count"`
	TotalRevenue float64             `bson:"total_revenue" json:"total_revenue"`
	AvgRevenue   *float64            `bson:"avg_revenue" json:"avg_revenue"`
}

// MarketInsight is one per-market group row. Listings are unwound over their
// target markets before grouping, so a listing targeting three markets
// contributes to three rows.
type MarketInsight struct {
	Market          string   `bson:"_id" json:"market"`
	Count           int64    `bson:"count" json:"count"`
	TotalRevenue    float64  `bson:"total_revenue" json:"total_revenue"`
	AvgProfitMargin *float64 `bson:"avg_profit_margin" json:"avg_profit_margin"`
}

// CropStats is one per-crop group row, ranked by total revenue.
type CropStats struct {
	CropName      string   `bson:"_id" json:"crop_name"`
	Count         int64    `bson:"count" json:"count"`
	TotalQuantity float64  `bson:"total_quantity" json:"total_quantity"`
	AvgPrice      *float64 `bson:"avg_price" json:"avg_price"`
	TotalRevenue  float64  `bson:"total_revenue" json:"total_revenue"`
}

// IAnalyticsService answers read-only statistical questions over the active
// export records. All queries are pure reads and safe to run concurrently
// with lifecycle operations.
type IAnalyticsService interface {
	StatsByStatus(ctx context.Context, ownerID *string) ([]StatusStats, error)
	MarketInsights(ctx context.Context) ([]MarketInsight, error)
	TopCrops(ctx context.Context, limit int) ([]CropStats, error)
}

const defaultTopCropsLimit = 10

// analyticsService implements IAnalyticsService over aggregation pipelines,
// with short-TTL Redis caching for the owner-independent queries.
type analyticsService struct {
	db  *mongo.Database
	cfg *config.Config
	rdb *redis.Client // optional; nil disables caching
}

// NewAnalyticsService creates a new AnalyticsService. rdb may be nil.
func NewAnalyticsService(db *mongo.Database, cfg *config.Config, rdb *redis.Client) IAnalyticsService {
	return &analyticsService{db: db, cfg: cfg, rdb: rdb}
}

// StatsByStatus groups active exports by status, optionally for one owner.
// Group counts always sum to the total number of active records in scope.
func (s *analyticsService) StatsByStatus(ctx context.Context, ownerID *string) ([]StatusStats, error) {
	match := bson.M{"is_active": true}
	if ownerID != nil {
		match["owner_id"] = *ownerID
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$status",
			"count":         bson.M{"$sum": 1},
			"total_revenue": bson.M{"$sum": "$actual_revenue"},
			"avg_revenue":   bson.M{"$avg": "$actual_revenue"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}

	var results []StatusStats
	if err := s.aggregate(ctx, pipeline, &results); err != nil {
		return nil, storeErr("stats by status", err)
	}
	return results, nil
}

// MarketInsights groups active exports per individual target market. The
// unwind means overlapping-but-not-identical market sets still meet in the
// markets they share.
func (s *analyticsService) MarketInsights(ctx context.Context) ([]MarketInsight, error) {
	const cacheKey = "analytics:market_insights"

	var cached []MarketInsight
	if s.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"is_active": true}}},
		{{Key: "$unwind", Value: "$target_markets"}},
		{{Key: "$group", Value: bson.M{
			"_id":               "$target_markets",
			"count":             bson.M{"$sum": 1},
			"total_revenue":     bson.M{"$sum": "$actual_revenue"},
			"avg_profit_margin": bson.M{"$avg": "$profit_margin"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "total_revenue", Value: -1}, {Key: "_id", Value: 1}}}},
	}

	var results []MarketInsight
	if err := s.aggregate(ctx, pipeline, &results); err != nil {
		return nil, storeErr("market insights", err)
	}

	s.cacheSet(ctx, cacheKey, results)
	return results, nil
}

// TopCrops ranks crops of active exports by total actual revenue, descending,
// truncated to limit (default 10).
func (s *analyticsService) TopCrops(ctx context.Context, limit int) ([]CropStats, error) {
	if limit <= 0 {
		limit = s.cfg.TopCropsLimit
	}
	if limit <= 0 {
		limit = defaultTopCropsLimit
	}

	cacheKey := fmt.Sprintf("analytics:top_crops:%d", limit)
	var cached []CropStats
	if s.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"is_active": true}}},
		{{Key: "$group", Value: bson.M{
			"_id":            "$product.crop_name",
			"count":          bson.M{"$sum": 1},
			"total_quantity": bson.M{"$sum": "$product.quantity.value"},
			"avg_price":      bson.M{"$avg": "$product.price.per_unit"},
			"total_revenue":  bson.M{"$sum": "$actual_revenue"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "total_revenue", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}

	var results []CropStats
	if err := s.aggregate(ctx, pipeline, &results); err != nil {
		return nil, storeErr("top crops", err)
	}

	s.cacheSet(ctx, cacheKey, results)
	return results, nil
}

func (s *analyticsService) aggregate(ctx context.Context, pipeline mongo.Pipeline, out interface{}) error {
	cursor, err := s.db.Collection(ExportsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

// cacheGet returns true when the key was present and decoded. Cache errors
// are logged and treated as a miss.
func (s *analyticsService) cacheGet(ctx context.Context, key string, out interface{}) bool {
	if s.rdb == nil {
		return false
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("WARN: analytics cache read %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Printf("WARN: analytics cache decode %s: %v", key, err)
		return false
	}
	return true
}

func (s *analyticsService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.rdb == nil {
		return
	}
	ttl := s.cfg.AnalyticsCacheTTL
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		log.Printf("WARN: analytics cache write %s: %v", key, err)
	}
}
