package bookings

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prospero-bookings/backend/internal/models"
	"github.com/prospero-bookings/backend/pkg/response"
)

// CreateRequest is the body for POST /api/bookings. Identifiers, status and
// timestamps are minted server-side and ignored if supplied.
type CreateRequest struct {
	Contact struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"contact"`
	Event struct {
		Title   string `json:"title"`
		Start   string `json:"start"`
		End     string `json:"end"`
		Details string `json:"details"`
	} `json:"event"`
	RequestNote *string `json:"requestNote"`
}

// EditRequest is the body for PATCH /api/bookings/:id. Absent fields keep
// their stored values; unrecognized keys are ignored.
type EditRequest struct {
	Status  *models.BookingStatus `json:"status"`
	Contact *struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
	} `json:"contact"`
	Event *struct {
		Title   *string `json:"title"`
		Start   *string `json:"start"`
		End     *string `json:"end"`
		Details *string `json:"details"`
	} `json:"event"`
	RequestNote *string `json:"requestNote"`
}

// Handler handles booking HTTP endpoints.
type Handler struct {
	svc    Service
	logger *zap.Logger
}

// NewHandler creates a bookings handler.
func NewHandler(svc Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the booking routes under /api/bookings.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/api/bookings")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Edit)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/approve", h.Approve)
	g.POST("/:id/deny", h.Deny)
	g.POST("/:id/cancel", h.Cancel)
}

// List handles GET /api/bookings?limit=&offset=.
func (h *Handler) List(c *gin.Context) {
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		response.BadRequest(c, "limit must be a non-negative integer")
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		response.BadRequest(c, "offset must be a non-negative integer")
		return
	}

	list, err := h.svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		if errors.Is(err, ErrNoBookings) {
			// Empty table is reported as a distinguished no-data condition.
			response.JSON(c, 404, "No data in the bookings table", []*models.Booking{})
			return
		}
		h.fail(c, err, "getting all the bookings")
		return
	}
	response.OK(c, "All data from bookings table retrieved", list)
}

// Get handles GET /api/bookings/:id.
func (h *Handler) Get(c *gin.Context) {
	id := c.Param("id")
	b, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, fmt.Sprintf("getting the booking id %s", id))
		return
	}
	response.OK(c, fmt.Sprintf("Retrieved data for booking id %s", id), b)
}

// Create handles POST /api/bookings.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	b, err := h.svc.Create(c.Request.Context(), &CreateInput{
		ContactName:  req.Contact.Name,
		ContactEmail: req.Contact.Email,
		EventTitle:   req.Event.Title,
		EventStart:   req.Event.Start,
		EventEnd:     req.Event.End,
		EventDetails: req.Event.Details,
		RequestNote:  req.RequestNote,
	})
	if err != nil {
		h.fail(c, err, "adding a new booking")
		return
	}
	response.OK(c, "Added a new booking", b)
}

// Edit handles PATCH /api/bookings/:id.
func (h *Handler) Edit(c *gin.Context) {
	id := c.Param("id")
	var req EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	patch := &Patch{
		Status:      req.Status,
		RequestNote: req.RequestNote,
	}
	if req.Contact != nil {
		patch.ContactName = req.Contact.Name
		patch.ContactEmail = req.Contact.Email
	}
	if req.Event != nil {
		patch.EventTitle = req.Event.Title
		patch.EventStart = req.Event.Start
		patch.EventEnd = req.Event.End
		patch.EventDetails = req.Event.Details
	}

	b, err := h.svc.Edit(c.Request.Context(), id, patch)
	if err != nil {
		if errors.Is(err, ErrNothingToUpdate) {
			response.BadRequest(c, fmt.Sprintf("No data to update for booking id %s", id))
			return
		}
		h.fail(c, err, fmt.Sprintf("editing the booking id %s", id))
		return
	}
	response.OK(c, fmt.Sprintf("Booking id %s edited", id), b)
}

// Delete handles DELETE /api/bookings/:id.
func (h *Handler) Delete(c *gin.Context) {
	id := c.Param("id")
	b, err := h.svc.Delete(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, fmt.Sprintf("deleting the booking id %s", id))
		return
	}
	response.OK(c, fmt.Sprintf("Booking id %s deleted", id), b)
}

// Approve handles POST /api/bookings/:id/approve.
func (h *Handler) Approve(c *gin.Context) {
	id := c.Param("id")
	b, err := h.svc.Approve(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyApproved):
			response.BadRequest(c, fmt.Sprintf("The booking id %s has already been approved", id))
		case errors.Is(err, ErrNotificationFailed):
			// The status change is committed; only the dispatch failed.
			response.Internal(c, "Error while trying to send the confirmation email")
		default:
			h.fail(c, err, fmt.Sprintf("approving the booking id %s", id))
		}
		return
	}
	response.OK(c, fmt.Sprintf("Email correctly sent to email address: %s", b.Contact.Email), b)
}

// Deny handles POST /api/bookings/:id/deny.
func (h *Handler) Deny(c *gin.Context) {
	id := c.Param("id")
	b, err := h.svc.Deny(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotPending) {
			response.BadRequest(c, fmt.Sprintf("The booking id %s is not pending", id))
			return
		}
		h.fail(c, err, fmt.Sprintf("denying the booking id %s", id))
		return
	}
	response.OK(c, fmt.Sprintf("Booking id %s denied", id), b)
}

// Cancel handles POST /api/bookings/:id/cancel.
func (h *Handler) Cancel(c *gin.Context) {
	id := c.Param("id")
	b, err := h.svc.Cancel(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrAlreadyCancelled) {
			response.BadRequest(c, fmt.Sprintf("The booking id %s is already cancelled", id))
			return
		}
		h.fail(c, err, fmt.Sprintf("cancelling the booking id %s", id))
		return
	}
	response.OK(c, fmt.Sprintf("Booking id %s cancelled", id), b)
}

// fail maps service errors onto the envelope. Storage faults are logged with
// their cause but never leak internals to the client.
func (h *Handler) fail(c *gin.Context, err error, operation string) {
	var ve *ValidationError
	var se *StorageError
	switch {
	case errors.As(err, &ve):
		response.BadRequest(c, fmt.Sprintf("Error while validating data, %s", ve.Error()))
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, fmt.Sprintf("No data for the booking id %s", c.Param("id")))
	case errors.As(err, &se):
		h.logger.Error("storage error", zap.String("operation", operation), zap.Error(se))
		response.Internal(c, fmt.Sprintf("Error while %s", operation))
	default:
		h.logger.Error("unexpected error", zap.String("operation", operation), zap.Error(err))
		response.Internal(c, fmt.Sprintf("Error while %s", operation))
	}
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return n, nil
}
