package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gazify-app/service-membership/internal/application"
	"github.com/gazify-app/service-membership/internal/platform/auth"
	"github.com/gazify-app/service-membership/internal/platform/middleware"
	"github.com/gazify-app/service-membership/internal/platform/response"
)

// AdminHandler handles admin HTTP requests over the subscriber base.
type AdminHandler struct {
	service *application.SubscriberService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service *application.SubscriberService) *AdminHandler {
	return &AdminHandler{service: service}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/subscribers", h.ListSubscribers)
		admin.GET("/stats/subscribers", h.SubscriberStats)
	}
}

// ListSubscribers handles GET /api/v1/admin/subscribers.
func (h *AdminHandler) ListSubscribers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	subscribers, total, err := h.service.List(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, subscribers, total, page, limit)
}

// SubscriberStats handles GET /api/v1/admin/stats/subscribers.
func (h *AdminHandler) SubscriberStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}
