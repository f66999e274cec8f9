package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gazify-app/service-membership/internal/application"
	"github.com/gazify-app/service-membership/internal/platform/auth"
	"github.com/gazify-app/service-membership/internal/platform/middleware"
	"github.com/gazify-app/service-membership/internal/platform/response"
)

// SubscriberHandler handles HTTP requests for subscriber operations.
type SubscriberHandler struct {
	service *application.SubscriberService
}

// NewSubscriberHandler creates a new SubscriberHandler.
func NewSubscriberHandler(service *application.SubscriberService) *SubscriberHandler {
	return &SubscriberHandler{service: service}
}

// RegisterRoutes registers the reception-facing subscriber routes.
func (h *SubscriberHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	subs := r.Group("/subscribers")
	subs.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleReception))
	{
		subs.POST("/search", h.Search)
		subs.POST("", h.Create)
		subs.GET("/:key", h.Details)
		subs.PUT("/:key", h.Update)
		subs.POST("/:key/renew", h.Renew)
		subs.POST("/:key/blacklist", h.ToggleBlacklist)
	}
}

// Search handles POST /api/v1/subscribers/search.
func (h *SubscriberHandler) Search(c *gin.Context) {
	var req application.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Search(c.Request.Context(), req.Value)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Create handles POST /api/v1/subscribers.
func (h *SubscriberHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var form application.SubscriberForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Create(c.Request.Context(), userID, form)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Details handles GET /api/v1/subscribers/:key.
func (h *SubscriberHandler) Details(c *gin.Context) {
	result, err := h.service.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Update handles PUT /api/v1/subscribers/:key.
func (h *SubscriberHandler) Update(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var form application.SubscriberForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Update(c.Request.Context(), userID, c.Param("key"), form)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Renew handles POST /api/v1/subscribers/:key/renew.
func (h *SubscriberHandler) Renew(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.Renew(c.Request.Context(), userID, c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ToggleBlacklist handles POST /api/v1/subscribers/:key/blacklist.
func (h *SubscriberHandler) ToggleBlacklist(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	blacklisted, err := h.service.ToggleBlacklist(c.Request.Context(), userID, c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"is_black_listed": blacklisted})
}
