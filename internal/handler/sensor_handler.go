package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/gazify-app/service-membership/internal/application"
	"github.com/gazify-app/service-membership/internal/platform/response"
)

// SensorHandler handles the anonymous gas sensor ingestion API.
type SensorHandler struct {
	service *application.ReadingService
}

// NewSensorHandler creates a new SensorHandler.
func NewSensorHandler(service *application.ReadingService) *SensorHandler {
	return &SensorHandler{service: service}
}

// RegisterRoutes registers the sensor routes. The sensor pushes without
// credentials, so these stay outside the auth middleware.
func (h *SensorHandler) RegisterRoutes(r *gin.RouterGroup) {
	sensor := r.Group("/sensor")
	{
		sensor.GET("/readings", h.ListAll)
		sensor.GET("/readings/last", h.Last)
		sensor.POST("/readings", h.Record)
		sensor.POST("/readings/last", h.AmendLast)
		sensor.PUT("/readings/:id/status", h.ToggleStatus)
	}
}

// ListAll handles GET /api/v1/sensor/readings.
func (h *SensorHandler) ListAll(c *gin.Context) {
	result, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Last handles GET /api/v1/sensor/readings/last.
func (h *SensorHandler) Last(c *gin.Context) {
	result, err := h.service.Last(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Record handles POST /api/v1/sensor/readings.
func (h *SensorHandler) Record(c *gin.Context) {
	var req application.ReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// AmendLast handles POST /api/v1/sensor/readings/last.
func (h *SensorHandler) AmendLast(c *gin.Context) {
	var req application.ReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.AmendLast(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ToggleStatus handles PUT /api/v1/sensor/readings/:id/status.
func (h *SensorHandler) ToggleStatus(c *gin.Context) {
	result, err := h.service.ToggleStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
