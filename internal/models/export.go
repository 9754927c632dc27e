package models

import (
	"time"
)

// ExportStatus is the lifecycle state of an export deal. The constants are
// listed in the usual forward order (draft through completed), but no
// transition graph is enforced: any status may be set from any other, with
// "cancelled" available at any point.
type ExportStatus string

const (
	StatusDraft       ExportStatus = "draft"
	StatusActive      ExportStatus = "active"
	StatusNegotiating ExportStatus = "negotiating"
	StatusFinalized   ExportStatus = "finalized"
	StatusInProgress  ExportStatus = "in_progress"
	StatusShipped     ExportStatus = "shipped"
	StatusDelivered   ExportStatus = "delivered"
	StatusCompleted   ExportStatus = "completed"
	StatusCancelled   ExportStatus = "cancelled"
)

var validStatuses = map[ExportStatus]bool{
	StatusDraft: true, StatusActive: true, StatusNegotiating: true,
	StatusFinalized: true, StatusInProgress: true, StatusShipped: true,
	StatusDelivered: true, StatusCompleted: true, StatusCancelled: true,
}

// InFlightStatuses are the statuses of deals that are still being worked.
var InFlightStatuses = []ExportStatus{
	StatusActive, StatusNegotiating, StatusFinalized, StatusInProgress, StatusShipped,
}

func (s ExportStatus) Valid() bool { return validStatuses[s] }

// Priority of the listing.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var validPriorities = map[Priority]bool{
	PriorityLow: true, PriorityMedium: true, PriorityHigh: true, PriorityUrgent: true,
}

func (p Priority) Valid() bool { return validPriorities[p] }

// BuyerType classifies where a buyer was sourced from.
type BuyerType string

const (
	BuyerInternational  BuyerType = "international"
	BuyerLocal          BuyerType = "local"
	BuyerOnlinePlatform BuyerType = "online_platform"
)

var validBuyerTypes = map[BuyerType]bool{
	BuyerInternational: true, BuyerLocal: true, BuyerOnlinePlatform: true,
}

func (b BuyerType) Valid() bool { return validBuyerTypes[b] }

// DocumentType enumerates the export paperwork tracked per deal.
type DocumentType string

const (
	DocPhytosanitary      DocumentType = "phytosanitary"
	DocCertificateOrigin  DocumentType = "certificate_of_origin"
	DocCommercialInvoice  DocumentType = "commercial_invoice"
	DocPackingList        DocumentType = "packing_list"
	DocBillOfLading       DocumentType = "bill_of_lading"
	DocInsurance          DocumentType = "insurance"
	DocQualityCertificate DocumentType = "quality_certificate"
)

var validDocumentTypes = map[DocumentType]bool{
	DocPhytosanitary: true, DocCertificateOrigin: true, DocCommercialInvoice: true,
	DocPackingList: true, DocBillOfLading: true, DocInsurance: true, DocQualityCertificate: true,
}

func (d DocumentType) Valid() bool { return validDocumentTypes[d] }

// DocumentStatus tracks progress on a single document.
type DocumentStatus string

const (
	DocStatusPending    DocumentStatus = "pending"
	DocStatusInProgress DocumentStatus = "in_progress"
	DocStatusCompleted  DocumentStatus = "completed"
	DocStatusExpired    DocumentStatus = "expired"
)

var validDocumentStatuses = map[DocumentStatus]bool{
	DocStatusPending: true, DocStatusInProgress: true, DocStatusCompleted: true, DocStatusExpired: true,
}

func (d DocumentStatus) Valid() bool { return validDocumentStatuses[d] }

// LogisticsStatus tracks the shipment leg of the deal.
type LogisticsStatus string

const (
	LogisticsPending   LogisticsStatus = "pending"
	LogisticsBooked    LogisticsStatus = "booked"
	LogisticsInTransit LogisticsStatus = "in_transit"
	LogisticsArrived   LogisticsStatus = "arrived"
	LogisticsDelivered LogisticsStatus = "delivered"
)

var validLogisticsStatuses = map[LogisticsStatus]bool{
	LogisticsPending: true, LogisticsBooked: true, LogisticsInTransit: true,
	LogisticsArrived: true, LogisticsDelivered: true,
}

func (l LogisticsStatus) Valid() bool { return validLogisticsStatuses[l] }

// PaymentMethod is how the buyer settles the deal.
type PaymentMethod string

const (
	PayLetterOfCredit        PaymentMethod = "letter_of_credit"
	PayAdvancePayment        PaymentMethod = "advance_payment"
	PayOpenAccount           PaymentMethod = "open_account"
	PayDocumentaryCollection PaymentMethod = "documentary_collection"
)

var validPaymentMethods = map[PaymentMethod]bool{
	PayLetterOfCredit: true, PayAdvancePayment: true, PayOpenAccount: true, PayDocumentaryCollection: true,
}

func (p PaymentMethod) Valid() bool { return validPaymentMethods[p] }

// PaymentStatus tracks settlement progress.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPartial   PaymentStatus = "partial"
	PaymentCompleted PaymentStatus = "completed"
	PaymentOverdue   PaymentStatus = "overdue"
)

var validPaymentStatuses = map[PaymentStatus]bool{
	PaymentPending: true, PaymentPartial: true, PaymentCompleted: true, PaymentOverdue: true,
}

func (p PaymentStatus) Valid() bool { return validPaymentStatuses[p] }

// RiskType and RiskLevel describe identified deal risks.
type RiskType string

const (
	RiskQuality    RiskType = "quality"
	RiskLogistics  RiskType = "logistics"
	RiskPayment    RiskType = "payment"
	RiskRegulatory RiskType = "regulatory"
	RiskMarket     RiskType = "market"
	RiskWeather    RiskType = "weather"
)

var validRiskTypes = map[RiskType]bool{
	RiskQuality: true, RiskLogistics: true, RiskPayment: true,
	RiskRegulatory: true, RiskMarket: true, RiskWeather: true,
}

func (r RiskType) Valid() bool { return validRiskTypes[r] }

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

var validRiskLevels = map[RiskLevel]bool{RiskLow: true, RiskMedium: true, RiskHigh: true}

func (r RiskLevel) Valid() bool { return validRiskLevels[r] }

// Quantity is a measured amount of produce. Unit is one of "kg", "quintal", "ton".
type Quantity struct {
	Value float64 `bson:"value" json:"value"`
	Unit  string  `bson:"unit" json:"unit"`
}

var validQuantityUnits = map[string]bool{"kg": true, "quintal": true, "ton": true}

// Price holds per-unit pricing. Total is derived (Quantity.Value * PerUnit)
// and recomputed on every save; it is never independently settable.
type Price struct {
	PerUnit  float64 `bson:"per_unit" json:"per_unit"`
	Currency string  `bson:"currency" json:"currency"`
	Total    float64 `bson:"total" json:"total"`
}

// Quality describes the produce grade and its certifications.
type Quality struct {
	Grade          string   `bson:"grade,omitempty" json:"grade,omitempty"`
	Description    string   `bson:"description,omitempty" json:"description,omitempty"`
	Certifications []string `bson:"certifications,omitempty" json:"certifications,omitempty"`
}

// Product is the snapshot of what is being exported, embedded in the deal.
type Product struct {
	CropName     string     `bson:"crop_name" json:"crop_name"`
	Variety      string     `bson:"variety,omitempty" json:"variety,omitempty"`
	Quantity     Quantity   `bson:"quantity" json:"quantity"`
	Price        Price      `bson:"price" json:"price"`
	Quality      Quality    `bson:"quality,omitempty" json:"quality,omitempty"`
	HarvestDate  *time.Time `bson:"harvest_date,omitempty" json:"harvest_date,omitempty"`
	ExpiryDate   *time.Time `bson:"expiry_date,omitempty" json:"expiry_date,omitempty"`
	Packaging    string     `bson:"packaging,omitempty" json:"packaging,omitempty"`
	StorageNotes string     `bson:"storage_notes,omitempty" json:"storage_notes,omitempty"`
	Images       []string   `bson:"images,omitempty" json:"images,omitempty"` // S3 keys
}

// Buyer is an embedded buyer record on the deal. Buyers are not a separate
// collection; SelectedBuyerIDs on the Export references Buyer.ID values here.
type Buyer struct {
	ID             string    `bson:"id" json:"id"`
	Name           string    `bson:"name" json:"name"`
	Type           BuyerType `bson:"type" json:"type"`
	Country        string    `bson:"country,omitempty" json:"country,omitempty"`
	ContactEmail   string    `bson:"contact_email,omitempty" json:"contact_email,omitempty"`
	ContactPhone   string    `bson:"contact_phone,omitempty" json:"contact_phone,omitempty"`
	Requirements   []string  `bson:"requirements,omitempty" json:"requirements,omitempty"`
	Certifications []string  `bson:"certifications,omitempty" json:"certifications,omitempty"`
	Commission     float64   `bson:"commission" json:"commission"` // percentage, 0-100
	Active         bool      `bson:"active" json:"active"`
}

// Document is one piece of export paperwork. FileKey is an object-storage
// reference only; file handling happens outside this service.
type Document struct {
	Type      DocumentType   `bson:"type" json:"type"`
	Number    string         `bson:"number,omitempty" json:"number,omitempty"`
	IssueDate *time.Time     `bson:"issue_date,omitempty" json:"issue_date,omitempty"`
	ExpiryDate *time.Time    `bson:"expiry_date,omitempty" json:"expiry_date,omitempty"`
	IssuedBy  string         `bson:"issued_by,omitempty" json:"issued_by,omitempty"`
	Status    DocumentStatus `bson:"status" json:"status"`
	FileKey   string         `bson:"file_key,omitempty" json:"file_key,omitempty"`
	FileURL   string         `bson:"-" json:"file_url,omitempty"` // presigned at read time, never stored
	Notes     string         `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Logistics is a flat embedded record. Kept flat on purpose: partial updates
// are a shallow field-by-field merge, so nesting would make them lossy.
type Logistics struct {
	ShippingMethod       string          `bson:"shipping_method,omitempty" json:"shipping_method,omitempty"`
	Carrier              string          `bson:"carrier,omitempty" json:"carrier,omitempty"`
	TrackingNumber       string          `bson:"tracking_number,omitempty" json:"tracking_number,omitempty"`
	ContainerNumber      string          `bson:"container_number,omitempty" json:"container_number,omitempty"`
	DeparturePort        string          `bson:"departure_port,omitempty" json:"departure_port,omitempty"`
	ArrivalPort          string          `bson:"arrival_port,omitempty" json:"arrival_port,omitempty"`
	DepartureDate        *time.Time      `bson:"departure_date,omitempty" json:"departure_date,omitempty"`
	EstimatedArrivalDate *time.Time      `bson:"estimated_arrival_date,omitempty" json:"estimated_arrival_date,omitempty"`
	ActualArrivalDate    *time.Time      `bson:"actual_arrival_date,omitempty" json:"actual_arrival_date,omitempty"`
	ShippingCost         float64         `bson:"shipping_cost,omitempty" json:"shipping_cost,omitempty"`
	InsuranceCost        float64         `bson:"insurance_cost,omitempty" json:"insurance_cost,omitempty"`
	CustomsCost          float64         `bson:"customs_cost,omitempty" json:"customs_cost,omitempty"`
	Status               LogisticsStatus `bson:"status,omitempty" json:"status,omitempty"`
}

// Payment is a flat embedded record, same shallow-merge rules as Logistics.
type Payment struct {
	Method        PaymentMethod `bson:"method,omitempty" json:"method,omitempty"`
	Amount        float64       `bson:"amount,omitempty" json:"amount,omitempty"`
	Currency      string        `bson:"currency,omitempty" json:"currency,omitempty"`
	ExchangeRate  float64       `bson:"exchange_rate,omitempty" json:"exchange_rate,omitempty"`
	Status        PaymentStatus `bson:"status,omitempty" json:"status,omitempty"`
	DueDate       *time.Time    `bson:"due_date,omitempty" json:"due_date,omitempty"`
	PaidDate      *time.Time    `bson:"paid_date,omitempty" json:"paid_date,omitempty"`
	TransactionID string        `bson:"transaction_id,omitempty" json:"transaction_id,omitempty"`
	Notes         string        `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Timeline holds the expected and actual milestone dates of the deal.
// ListingDate is set once at creation.
type Timeline struct {
	ListingDate          time.Time  `bson:"listing_date" json:"listing_date"`
	ExpectedClosingDate  *time.Time `bson:"expected_closing_date,omitempty" json:"expected_closing_date,omitempty"`
	ActualClosingDate    *time.Time `bson:"actual_closing_date,omitempty" json:"actual_closing_date,omitempty"`
	ExpectedShipmentDate *time.Time `bson:"expected_shipment_date,omitempty" json:"expected_shipment_date,omitempty"`
	ActualShipmentDate   *time.Time `bson:"actual_shipment_date,omitempty" json:"actual_shipment_date,omitempty"`
	ExpectedDeliveryDate *time.Time `bson:"expected_delivery_date,omitempty" json:"expected_delivery_date,omitempty"`
	ActualDeliveryDate   *time.Time `bson:"actual_delivery_date,omitempty" json:"actual_delivery_date,omitempty"`
}

// Requirements lists what the buyer side demands of the shipment.
type Requirements struct {
	Packaging        []string `bson:"packaging,omitempty" json:"packaging,omitempty"`
	Labeling         []string `bson:"labeling,omitempty" json:"labeling,omitempty"`
	Certifications   []string `bson:"certifications,omitempty" json:"certifications,omitempty"`
	QualityStandards []string `bson:"quality_standards,omitempty" json:"quality_standards,omitempty"`
}

// Risk is one identified risk on the deal.
type Risk struct {
	Type        RiskType  `bson:"type" json:"type"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Probability RiskLevel `bson:"probability" json:"probability"`
	Impact      RiskLevel `bson:"impact" json:"impact"`
	Mitigation  string    `bson:"mitigation,omitempty" json:"mitigation,omitempty"`
}

// Feedback holds optional post-deal ratings (1-5) and comments.
type Feedback struct {
	BuyerRating  *int   `bson:"buyer_rating,omitempty" json:"buyer_rating,omitempty"`
	FarmerRating *int   `bson:"farmer_rating,omitempty" json:"farmer_rating,omitempty"`
	Comments     string `bson:"comments,omitempty" json:"comments,omitempty"`
}

// Export is the aggregate root for one agricultural export deal, from buyer
// outreach through documentation, logistics, payment and delivery.
//
// The export id (format "EXP<millis><seq>") doubles as the Mongo _id, which
// gives the uniqueness constraint for free. Version is an optimistic
// concurrency counter incremented by every write.
type Export struct {
	ExportID         string             `bson:"_id" json:"export_id"`
	OwnerID          string             `bson:"owner_id" json:"owner_id"`
	Title            string             `bson:"title" json:"title"`
	Description      string             `bson:"description,omitempty" json:"description,omitempty"`
	Product          Product            `bson:"product" json:"product"`
	Buyers           []Buyer            `bson:"buyers" json:"buyers"`
	SelectedBuyerIDs []string           `bson:"selected_buyer_ids,omitempty" json:"selected_buyer_ids,omitempty"`
	Status           ExportStatus       `bson:"status" json:"status"`
	Priority         Priority           `bson:"priority" json:"priority"`
	TargetMarkets    []string           `bson:"target_markets,omitempty" json:"target_markets,omitempty"`
	ExpectedRevenue  float64            `bson:"expected_revenue,omitempty" json:"expected_revenue,omitempty"`
	ActualRevenue    *float64           `bson:"actual_revenue,omitempty" json:"actual_revenue,omitempty"`
	ProfitMargin     *float64           `bson:"profit_margin,omitempty" json:"profit_margin,omitempty"` // derived percentage, capped at 100, negative on a loss
	Documents        []Document         `bson:"documents,omitempty" json:"documents,omitempty"`
	Logistics        Logistics          `bson:"logistics" json:"logistics"`
	Payment          Payment            `bson:"payment" json:"payment"`
	Timeline         Timeline           `bson:"timeline" json:"timeline"`
	Requirements     Requirements       `bson:"requirements,omitempty" json:"requirements,omitempty"`
	Risks            []Risk             `bson:"risks,omitempty" json:"risks,omitempty"`
	Feedback         *Feedback          `bson:"feedback,omitempty" json:"feedback,omitempty"`
	ActivityLog      []ActivityLogEntry `bson:"activity_log" json:"activity_log"`
	Tags             []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	IsFeatured       bool               `bson:"is_featured" json:"is_featured"`
	IsActive         bool               `bson:"is_active" json:"is_active"`
	Version          int64              `bson:"version" json:"version"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}
