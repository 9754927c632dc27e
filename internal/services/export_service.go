package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"agrilift/portal/internal/config"
	"agrilift/portal/internal/db"
	"agrilift/portal/internal/events"
	"agrilift/portal/internal/models"
	"agrilift/portal/internal/utils"
)

// ListOptions controls FindExportsByOwner pagination and filtering.
type ListOptions struct {
	Status *models.ExportStatus
	Limit  int64
	Offset int64
	SortBy string // "created_desc" (default) or "created_asc"
}

// IExportService defines the interface for export record and lifecycle operations.
type IExportService interface {
	CreateExport(ctx context.Context, input *models.Export) (*models.Export, error)
	SaveExport(ctx context.Context, export *models.Export) (*models.Export, error)
	FindExportByID(ctx context.Context, exportID string) (*models.Export, error)
	FindExportsByOwner(ctx context.Context, ownerID string, opts ListOptions) ([]models.Export, error)
	FindActiveExports(ctx context.Context, ownerID *string) ([]models.Export, error)
	UpdateStatus(ctx context.Context, exportID string, newStatus models.ExportStatus, note string) (*models.Export, error)
	AddBuyer(ctx context.Context, exportID string, buyer models.Buyer) (*models.Export, error)
	UpdateLogistics(ctx context.Context, exportID string, updates map[string]interface{}) (*models.Export, error)
	UpdatePayment(ctx context.Context, exportID string, updates map[string]interface{}) (*models.Export, error)
	AddActivity(ctx context.Context, exportID string, action models.ActivityAction, description, performedBy string, metadata bson.M) (*models.Export, error)
	SoftDeleteExport(ctx context.Context, exportID, ownerID string) error
	HardDeleteExport(ctx context.Context, exportID string) error
}

// ExportsCollection is the single logical collection of export aggregates.
const ExportsCollection = "exports"

const defaultListLimit = 50

// exportService implements IExportService.
type exportService struct {
	db        *mongo.Database
	cfg       *config.Config
	publisher events.Publisher // optional; nil means no hook subscribers
}

// NewExportService creates a new ExportService. publisher may be nil.
func NewExportService(db *mongo.Database, cfg *config.Config, publisher events.Publisher) IExportService {
	return &exportService{db: db, cfg: cfg, publisher: publisher}
}

// publish fires an event hook. Publish failures are logged, never propagated:
// the state transition has already committed.
func (s *exportService) publish(ctx context.Context, ev events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		log.Printf("WARN: failed to publish %s for export %s: %v", ev.Type, ev.ExportID, err)
	}
}

// CreateExport validates and persists a new export listing. A missing export
// id is generated (and regenerated on duplicate-key retry); the listing date
// and a listing_created activity entry are stamped in.
func (s *exportService) CreateExport(ctx context.Context, input *models.Export) (*models.Export, error) {
	collection := s.db.Collection(ExportsCollection)
	now := time.Now().UTC()

	export := input
	hadID := export.ExportID != ""

	if export.Status == "" {
		export.Status = models.StatusDraft
	}
	if export.Priority == "" {
		export.Priority = models.PriorityMedium
	}
	if export.Buyers == nil {
		export.Buyers = []models.Buyer{}
	}
	export.IsActive = true
	export.Version = 1
	export.CreatedAt = now
	export.UpdatedAt = now
	export.Timeline.ListingDate = now

	hasCreatedEntry := false
	for _, entry := range export.ActivityLog {
		if entry.Action == models.ActionListingCreated {
			hasCreatedEntry = true
			break
		}
	}
	if !hasCreatedEntry {
		export.ActivityLog = append(export.ActivityLog,
			models.NewActivityEntry(models.ActionListingCreated, "Export listing created", models.SystemActor, nil))
	}

	// Derived fields are refreshed before validation so what is persisted is
	// exactly what was checked.
	export.Recompute()
	if err := models.ValidateExport(export); err != nil {
		return nil, err
	}

	operation := func() error {
		if !hadID {
			export.ExportID = utils.NewExportID()
		}
		_, insertErr := collection.InsertOne(ctx, export)
		return insertErr
	}

	var err error
	if hadID {
		// Caller-supplied ids are not regenerated; a collision is bad input.
		_, err = collection.InsertOne(ctx, export)
		if db.IsMongoDuplicateKeyError(err) {
			return nil, &models.ValidationError{Field: "export_id", Message: fmt.Sprintf("id %q already exists", export.ExportID)}
		}
	} else {
		err = db.Try(operation)
	}
	if err != nil {
		return nil, storeErr(fmt.Sprintf("insert export for owner %s", export.OwnerID), err)
	}

	s.publish(ctx, events.New(events.TypeExportCreated, export.ExportID, export.OwnerID, map[string]interface{}{
		"title":  export.Title,
		"status": string(export.Status),
	}))

	return export, nil
}

// SaveExport persists a full record under an optimistic version check,
// recomputing derived fields first. The stored activity log is never
// shortened by a save.
func (s *exportService) SaveExport(ctx context.Context, export *models.Export) (*models.Export, error) {
	if export.ExportID == "" {
		return nil, &models.ValidationError{Field: "export_id", Message: "required"}
	}
	// Recompute first: validation must judge the derived values that will be
	// persisted, not stale caller-supplied ones.
	export.Recompute()
	if err := models.ValidateExport(export); err != nil {
		return nil, err
	}

	collection := s.db.Collection(ExportsCollection)

	// Append-only guard: a stale caller must not truncate the log.
	var current models.Export
	err := collection.FindOne(ctx, bson.M{"_id": export.ExportID}).Decode(&current)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("load export %s", export.ExportID), err)
	}
	if len(export.ActivityLog) < len(current.ActivityLog) {
		export.ActivityLog = current.ActivityLog
	}

	expectedVersion := export.Version
	export.Version = expectedVersion + 1
	export.UpdatedAt = time.Now().UTC()
	export.CreatedAt = current.CreatedAt // immutable

	filter := bson.M{"_id": export.ExportID, "version": expectedVersion}
	result, err := collection.ReplaceOne(ctx, filter, export)
	if err != nil {
		export.Version = expectedVersion
		return nil, storeErr(fmt.Sprintf("save export %s", export.ExportID), err)
	}
	if result.MatchedCount == 0 {
		export.Version = expectedVersion
		// The record existed above, so a miss here is a version race.
		return nil, ErrConflict
	}

	return export, nil
}

// FindExportByID returns an active (non soft-deleted) export record.
func (s *exportService) FindExportByID(ctx context.Context, exportID string) (*models.Export, error) {
	var export models.Export
	collection := s.db.Collection(ExportsCollection)
	filter := bson.M{"_id": exportID, "is_active": true}

	err := collection.FindOne(ctx, filter).Decode(&export)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("find export %s", exportID), err)
	}
	return &export, nil
}

// FindExportsByOwner returns the owner's active exports, most recent first by
// default, optionally filtered by status and paginated by limit/offset.
func (s *exportService) FindExportsByOwner(ctx context.Context, ownerID string, opts ListOptions) ([]models.Export, error) {
	collection := s.db.Collection(ExportsCollection)

	filter := bson.M{"owner_id": ownerID, "is_active": true}
	if opts.Status != nil {
		if !opts.Status.Valid() {
			return nil, &models.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", *opts.Status)}
		}
		filter["status"] = *opts.Status
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	sort := bson.D{{Key: "created_at", Value: -1}}
	if opts.SortBy == "created_asc" {
		sort = bson.D{{Key: "created_at", Value: 1}}
	}

	findOpts := options.Find().
		SetSort(sort).
		SetLimit(limit).
		SetSkip(opts.Offset)

	cursor, err := collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("list exports for owner %s", ownerID), err)
	}
	defer cursor.Close(ctx)

	var results []models.Export
	if err = cursor.All(ctx, &results); err != nil {
		return nil, storeErr("decode export list", err)
	}
	return results, nil
}

// FindActiveExports returns in-flight deals (active through shipped),
// optionally restricted to one owner.
func (s *exportService) FindActiveExports(ctx context.Context, ownerID *string) ([]models.Export, error) {
	collection := s.db.Collection(ExportsCollection)

	filter := bson.M{
		"is_active": true,
		"status":    bson.M{"$in": models.InFlightStatuses},
	}
	if ownerID != nil {
		filter["owner_id"] = *ownerID
	}

	cursor, err := collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, storeErr("list in-flight exports", err)
	}
	defer cursor.Close(ctx)

	var results []models.Export
	if err = cursor.All(ctx, &results); err != nil {
		return nil, storeErr("decode in-flight exports", err)
	}
	return results, nil
}

// applyAndLog is the single commit shared by the lifecycle operations: it
// applies the field mutations and pushes the activity entry in one update
// document, so the mutation and its log entry land atomically.
func (s *exportService) applyAndLog(ctx context.Context, exportID string, set bson.M, push bson.M, entry models.ActivityLogEntry) (*models.Export, error) {
	collection := s.db.Collection(ExportsCollection)

	if set == nil {
		set = bson.M{}
	}
	set["updated_at"] = time.Now().UTC()

	if push == nil {
		push = bson.M{}
	}
	push["activity_log"] = entry

	filter := bson.M{"_id": exportID, "is_active": true}
	update := bson.M{
		"$set":  set,
		"$push": push,
		"$inc":  bson.M{"version": 1},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Export
	err := collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, storeErr(fmt.Sprintf("update export %s", exportID), err)
	}
	return &updated, nil
}

// UpdateStatus sets the status and records a status_changed activity entry.
// Any status may be set from any other; no transition graph is enforced.
func (s *exportService) UpdateStatus(ctx context.Context, exportID string, newStatus models.ExportStatus, note string) (*models.Export, error) {
	if !newStatus.Valid() {
		return nil, &models.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", newStatus)}
	}

	entry := models.NewActivityEntry(
		models.ActionStatusChanged,
		fmt.Sprintf("Status changed to %s", newStatus),
		models.SystemActor,
		bson.M{"note": note},
	)

	updated, err := s.applyAndLog(ctx, exportID, bson.M{"status": newStatus}, nil, entry)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.New(events.TypeExportStatusChanged, updated.ExportID, updated.OwnerID, map[string]interface{}{
		"status": string(newStatus),
		"note":   note,
	}))

	return updated, nil
}

// AddBuyer appends a buyer to the deal and records a buyer_added entry.
// Buyers are intentionally not deduplicated by id.
func (s *exportService) AddBuyer(ctx context.Context, exportID string, buyer models.Buyer) (*models.Export, error) {
	if err := models.ValidateBuyer(&buyer); err != nil {
		return nil, err
	}
	if buyer.ID == "" {
		buyer.ID = primitive.NewObjectID().Hex()
	}

	entry := models.NewActivityEntry(
		models.ActionBuyerAdded,
		fmt.Sprintf("Buyer %s added", buyer.Name),
		models.SystemActor,
		bson.M{"buyer_id": buyer.ID, "buyer_type": string(buyer.Type)},
	)

	return s.applyAndLog(ctx, exportID, nil, bson.M{"buyers": buyer}, entry)
}

// Allowed field sets for the partial logistics/payment merges. Values land
// under the embedded record with per-field $set keys, so two concurrent
// partial updates touching different fields both apply.
var (
	allowedLogisticsFields = map[string]bool{
		"shipping_method": true, "carrier": true, "tracking_number": true,
		"container_number": true, "departure_port": true, "arrival_port": true,
		"departure_date": true, "estimated_arrival_date": true, "actual_arrival_date": true,
		"shipping_cost": true, "insurance_cost": true, "customs_cost": true,
		"status": true,
	}
	allowedPaymentFields = map[string]bool{
		"method": true, "amount": true, "currency": true, "exchange_rate": true,
		"status": true, "due_date": true, "paid_date": true,
		"transaction_id": true, "notes": true,
	}
)

// UpdateLogistics shallow-merges the supplied fields into the logistics
// record and records a logistics_updated entry.
func (s *exportService) UpdateLogistics(ctx context.Context, exportID string, updates map[string]interface{}) (*models.Export, error) {
	set, fields, err := buildPartialSet("logistics", updates, allowedLogisticsFields, func(key string, value interface{}) error {
		switch key {
		case "status":
			str, _ := value.(string)
			if !models.LogisticsStatus(str).Valid() {
				return &models.ValidationError{Field: "logistics.status", Message: fmt.Sprintf("unknown logistics status %q", str)}
			}
		case "shipping_cost", "insurance_cost", "customs_cost":
			if n, ok := toFloat(value); !ok || n < 0 {
				return &models.ValidationError{Field: "logistics." + key, Message: "must be a non-negative number"}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entry := models.NewActivityEntry(
		models.ActionLogisticsUpdated,
		"Logistics details updated",
		models.SystemActor,
		bson.M{"fields": fields},
	)

	return s.applyAndLog(ctx, exportID, set, nil, entry)
}

// UpdatePayment shallow-merges the supplied fields into the payment record
// and records a payment_updated entry.
func (s *exportService) UpdatePayment(ctx context.Context, exportID string, updates map[string]interface{}) (*models.Export, error) {
	set, fields, err := buildPartialSet("payment", updates, allowedPaymentFields, func(key string, value interface{}) error {
		switch key {
		case "status":
			str, _ := value.(string)
			if !models.PaymentStatus(str).Valid() {
				return &models.ValidationError{Field: "payment.status", Message: fmt.Sprintf("unknown payment status %q", str)}
			}
		case "method":
			str, _ := value.(string)
			if !models.PaymentMethod(str).Valid() {
				return &models.ValidationError{Field: "payment.method", Message: fmt.Sprintf("unknown payment method %q", str)}
			}
		case "amount", "exchange_rate":
			if n, ok := toFloat(value); !ok || n < 0 {
				return &models.ValidationError{Field: "payment." + key, Message: "must be a non-negative number"}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entry := models.NewActivityEntry(
		models.ActionPaymentUpdated,
		"Payment details updated",
		models.SystemActor,
		bson.M{"fields": fields},
	)

	return s.applyAndLog(ctx, exportID, set, nil, entry)
}

// AddActivity appends an arbitrary domain activity entry (deal_finalized,
// shipment_dispatched, ...). It is the low-level primitive the convenience
// operations build on, also exposed to callers directly.
func (s *exportService) AddActivity(ctx context.Context, exportID string, action models.ActivityAction, description, performedBy string, metadata bson.M) (*models.Export, error) {
	if !action.Valid() {
		return nil, &models.ValidationError{Field: "action", Message: fmt.Sprintf("unknown action %q", action)}
	}
	entry := models.NewActivityEntry(action, description, performedBy, metadata)
	return s.applyAndLog(ctx, exportID, nil, nil, entry)
}

// SoftDeleteExport marks the owner's export inactive. The record stays in the
// collection; analytics and listing queries no longer see it.
func (s *exportService) SoftDeleteExport(ctx context.Context, exportID, ownerID string) error {
	collection := s.db.Collection(ExportsCollection)
	now := time.Now().UTC()

	filter := bson.M{"_id": exportID, "owner_id": ownerID, "is_active": true}
	update := bson.M{
		"$set": bson.M{"is_active": false, "updated_at": now},
		"$inc": bson.M{"version": 1},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return storeErr(fmt.Sprintf("soft delete export %s", exportID), err)
	}
	if result.MatchedCount == 0 {
		// Work out why the update missed.
		var export models.Export
		errCheck := collection.FindOne(ctx, bson.M{"_id": exportID}).Decode(&export)
		if errors.Is(errCheck, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		if errCheck == nil && export.OwnerID != ownerID {
			return fmt.Errorf("export %s does not belong to owner %s: %w", exportID, ownerID, ErrNotFound)
		}
		return ErrNotFound // already inactive
	}

	s.publish(ctx, events.New(events.TypeExportDeleted, exportID, ownerID, map[string]interface{}{"soft": true}))
	return nil
}

// HardDeleteExport physically removes the record. Administrative/undo path
// only; normal flow uses SoftDeleteExport.
func (s *exportService) HardDeleteExport(ctx context.Context, exportID string) error {
	collection := s.db.Collection(ExportsCollection)

	var export models.Export
	err := collection.FindOneAndDelete(ctx, bson.M{"_id": exportID}).Decode(&export)
	if err != nil {
		return storeErr(fmt.Sprintf("hard delete export %s", exportID), err)
	}

	s.publish(ctx, events.New(events.TypeExportDeleted, exportID, export.OwnerID, map[string]interface{}{"soft": false}))
	return nil
}

// buildPartialSet turns a caller-supplied partial update into dotted $set
// keys under prefix, rejecting unknown fields and coercing RFC3339 strings
// into time values for *_date keys. It returns the set document and the list
// of touched field names.
func buildPartialSet(prefix string, updates map[string]interface{}, allowed map[string]bool, check func(key string, value interface{}) error) (bson.M, []string, error) {
	if len(updates) == 0 {
		return nil, nil, &models.ValidationError{Field: prefix, Message: "no fields provided for update"}
	}

	set := bson.M{}
	fields := make([]string, 0, len(updates))
	for key, value := range updates {
		if !allowed[key] {
			return nil, nil, &models.ValidationError{Field: prefix + "." + key, Message: "field cannot be updated"}
		}
		if err := check(key, value); err != nil {
			return nil, nil, err
		}
		if isDateField(key) {
			if str, ok := value.(string); ok {
				parsed, err := time.Parse(time.RFC3339, str)
				if err != nil {
					return nil, nil, &models.ValidationError{Field: prefix + "." + key, Message: "must be an RFC3339 timestamp"}
				}
				value = parsed
			}
		}
		set[prefix+"."+key] = value
		fields = append(fields, key)
	}
	return set, fields, nil
}

func isDateField(key string) bool {
	return len(key) > 5 && key[len(key)-5:] == "_date"
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
