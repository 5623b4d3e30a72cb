package emaillogs

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prospero-bookings/backend/pkg/response"
)

// Handler handles email log HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates an email logs handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterRoutes mounts the email log routes.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/api/bookings/:id/emails", h.ListByBooking)
}

// ListByBooking handles GET /api/bookings/:id/emails. Returns the dispatch
// history for a booking.
func (h *Handler) ListByBooking(c *gin.Context) {
	idStr := c.Param("id")
	bookingID, err := uuid.Parse(idStr)
	if err != nil {
		response.BadRequest(c, "Error while validating data, id: must be a valid UUID")
		return
	}
	logs, err := h.repo.ListByBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Internal(c, fmt.Sprintf("Error while getting email logs for booking id %s", idStr))
		return
	}
	response.OK(c, fmt.Sprintf("Email logs for booking id %s retrieved", idStr), logs)
}
