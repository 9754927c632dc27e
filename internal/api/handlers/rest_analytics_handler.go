package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"agrilift/portal/internal/services"
)

// RestAnalyticsHandler serves aggregated export statistics.
type RestAnalyticsHandler struct {
	analyticsService services.IAnalyticsService
}

// NewRestAnalyticsHandler creates a new RestAnalyticsHandler.
func NewRestAnalyticsHandler(analyticsService services.IAnalyticsService) *RestAnalyticsHandler {
	return &RestAnalyticsHandler{analyticsService: analyticsService}
}

// StatsByStatus handles GET /v1/analytics/status
func (h *RestAnalyticsHandler) StatsByStatus(c *gin.Context) {
	var ownerID *string
	if o := c.Query("owner_id"); o != "" {
		ownerID = &o
	}

	stats, err := h.analyticsService.StatsByStatus(c.Request.Context(), ownerID)
	if err != nil {
		writeServiceError(c, err, "Failed to compute status statistics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// MarketInsights handles GET /v1/analytics/markets
func (h *RestAnalyticsHandler) MarketInsights(c *gin.Context) {
	insights, err := h.analyticsService.MarketInsights(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, "Failed to compute market insights")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": insights})
}

// TopCrops handles GET /v1/analytics/crops
func (h *RestAnalyticsHandler) TopCrops(c *gin.Context) {
	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	crops, err := h.analyticsService.TopCrops(c.Request.Context(), limit)
	if err != nil {
		writeServiceError(c, err, "Failed to compute top crops")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": crops})
}
