package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"agrilift/portal/internal/api/middleware"
	"agrilift/portal/internal/models"
	"agrilift/portal/internal/services"
	"agrilift/portal/internal/storage"
)

// RestExportHandler handles REST requests for export listings.
type RestExportHandler struct {
	exportService services.IExportService
	docStorage    storage.IDocumentStorage // may be nil when S3 is not configured
}

// NewRestExportHandler creates a new RestExportHandler.
func NewRestExportHandler(exportService services.IExportService, docStorage storage.IDocumentStorage) *RestExportHandler {
	return &RestExportHandler{
		exportService: exportService,
		docStorage:    docStorage,
	}
}

// writeServiceError maps service errors to HTTP responses.
func writeServiceError(c *gin.Context, err error, fallback string) {
	var vErr *models.ValidationError
	var sErr *services.StoreUnavailableError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error(), "field": vErr.Field})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Export not found"})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Export was modified concurrently, retry with the latest version"})
	case errors.As(err, &sErr):
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Datastore temporarily unavailable"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// exportResponse decorates an export with its derived read-only fields.
func (h *RestExportHandler) exportResponse(c *gin.Context, e *models.Export) gin.H {
	now := time.Now().UTC()
	if h.docStorage != nil {
		for i := range e.Documents {
			if e.Documents[i].FileKey == "" {
				continue
			}
			url, err := h.docStorage.GeneratePresignedGetURL(c.Request.Context(), e.Documents[i].FileKey)
			if err != nil {
				log.Printf("Failed to presign document URL for %s: %v", e.ExportID, err)
				continue
			}
			e.Documents[i].FileURL = url
		}
	}
	return gin.H{
		"export":                e,
		"age_in_days":           e.AgeInDays(now),
		"days_until_delivery":   e.DaysUntilDelivery(now),
		"completion_percentage": e.CompletionPercentage(),
	}
}

func requestOwnerID(c *gin.Context) string {
	if v, ok := c.Get(middleware.ContextKeyOwnerID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// CreateExport handles POST /v1/export
func (h *RestExportHandler) CreateExport(c *gin.Context) {
	var input models.Export
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if ownerID := requestOwnerID(c); ownerID != "" {
		input.OwnerID = ownerID
	}

	created, err := h.exportService.CreateExport(c.Request.Context(), &input)
	if err != nil {
		writeServiceError(c, err, "Failed to create export")
		return
	}
	c.JSON(http.StatusCreated, h.exportResponse(c, created))
}

// GetExportByID handles GET /v1/export/:id
func (h *RestExportHandler) GetExportByID(c *gin.Context) {
	export, err := h.exportService.FindExportByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve export")
		return
	}
	c.JSON(http.StatusOK, h.exportResponse(c, export))
}

// ListOwnerExports handles GET /v1/export
func (h *RestExportHandler) ListOwnerExports(c *gin.Context) {
	ownerID := requestOwnerID(c)
	if ownerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	opts := services.ListOptions{SortBy: c.Query("sort")}

	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}
	opts.Limit = limit

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.ParseInt(offsetStr, 10, 64)
		if err == nil && offset > 0 {
			opts.Offset = offset
		}
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.ExportStatus(statusStr)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
			return
		}
		opts.Status = &status
	}

	exports, err := h.exportService.FindExportsByOwner(c.Request.Context(), ownerID, opts)
	if err != nil {
		writeServiceError(c, err, "Failed to list exports")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": exports, "count": len(exports)})
}

// ListActiveExports handles GET /v1/export/active
func (h *RestExportHandler) ListActiveExports(c *gin.Context) {
	var ownerID *string
	if o := c.Query("owner_id"); o != "" {
		ownerID = &o
	}
	exports, err := h.exportService.FindActiveExports(c.Request.Context(), ownerID)
	if err != nil {
		writeServiceError(c, err, "Failed to list active exports")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": exports, "count": len(exports)})
}

// SaveExport handles PUT /v1/export/:id
func (h *RestExportHandler) SaveExport(c *gin.Context) {
	var input models.Export
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	input.ExportID = c.Param("id")

	updated, err := h.exportService.SaveExport(c.Request.Context(), &input)
	if err != nil {
		writeServiceError(c, err, "Failed to save export")
		return
	}
	c.JSON(http.StatusOK, h.exportResponse(c, updated))
}

// UpdateStatus handles POST /v1/export/:id/status
func (h *RestExportHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status models.ExportStatus `json:"status"`
		Note   string              `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	updated, err := h.exportService.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, req.Note)
	if err != nil {
		writeServiceError(c, err, "Failed to update status")
		return
	}
	c.JSON(http.StatusOK, h.exportResponse(c, updated))
}

// AddBuyer handles POST /v1/export/:id/buyer
func (h *RestExportHandler) AddBuyer(c *gin.Context) {
	var buyer models.Buyer
	if err := c.ShouldBindJSON(&buyer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	updated, err := h.exportService.AddBuyer(c.Request.Context(), c.Param("id"), buyer)
	if err != nil {
		writeServiceError(c, err, "Failed to add buyer")
		return
	}
	c.JSON(http.StatusOK, h.exportResponse(c, updated))
}

// UpdateLogistics handles PATCH /v1/export/:id/logistics
func (h *RestExportHandler) UpdateLogistics(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	updated, err := h.exportService.UpdateLogistics(c.Request.Context(), c.Param("id"), updates)
	if err != nil {
		writeServiceError(c, err, "Failed to update logistics")
		return
	}
	c.JSON(http.StatusOK, h.exportResponse(c, updated))
}

// UpdatePayment handles PATCH /v1/export/:id/payment
func (h *RestExportHandler) UpdatePayment(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	updated, err := h.exportService.UpdatePayment(c.Request.Context(), c.Param("id"), updates)
	if err != nil {
		writeServiceError(c, err, "Failed to update payment")
		return
	}
	c.JSON(http.StatusOK, h.exportResponse(c, updated))
}

// AddActivity handles POST /v1/export/:id/activity
func (h *RestExportHandler) AddActivity(c *gin.Context) {
	var req struct {
		Action      models.ActivityAction `json:"action"`
		Description string                `json:"description"`
		Metadata    bson.M                `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	updated, err := h.exportService.AddActivity(
		c.Request.Context(), c.Param("id"), req.Action, req.Description, requestOwnerID(c), req.Metadata)
	if err != nil {
		writeServiceError(c, err, "Failed to record activity")
		return
	}
	c.JSON(http.StatusOK, h.exportResponse(c, updated))
}

// SoftDeleteExport handles DELETE /v1/export/:id
func (h *RestExportHandler) SoftDeleteExport(c *gin.Context) {
	ownerID := requestOwnerID(c)
	if ownerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	if err := h.exportService.SoftDeleteExport(c.Request.Context(), c.Param("id"), ownerID); err != nil {
		writeServiceError(c, err, "Failed to delete export")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HardDeleteExport handles DELETE /v1/admin/export/:id
func (h *RestExportHandler) HardDeleteExport(c *gin.Context) {
	if err := h.exportService.HardDeleteExport(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err, "Failed to delete export")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
