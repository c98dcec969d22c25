package api

import (
	"errors"
	"net/http"

	reqdto "careslot/internal/handler/dto/request"
	resdto "careslot/internal/handler/dto/response"
	"careslot/internal/handler/middleware"
	"careslot/internal/usecase/commands"
	"careslot/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	allocation commands.AllocationCommands
	queries    queries.BookingQueries
}

func NewBookingHandler(allocation commands.AllocationCommands, bookingQueries queries.BookingQueries) *BookingHandler {
	return &BookingHandler{
		allocation: allocation,
		queries:    bookingQueries,
	}
}

// @Summary Request a booking
// @Description Admit a booking request against a capacity pool; a full pool waitlists the request instead of rejecting it
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateBookingRequest true "Booking request"
// @Success 201 {object} resdto.AdmitResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req reqdto.CreateBookingRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	bucket, err := req.BucketDate()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bucket date"})
		return
	}

	result, err := h.allocation.Admit(c.Request.Context(), commands.AdmitInput{
		Kind:        req.ResourceKind(),
		ResourceID:  req.ResourceID,
		Date:        bucket,
		RequesterID: userID,
		Contact:     req.GetContact(),
		Note:        req.GetNote(),
	})
	if err != nil {
		h.writeAllocationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromAdmitResult(result))
}

// @Summary Cancel a booking
// @Description Release a held unit (or leave the waitlist) with reason cancelled; frees capacity and promotes the earliest waitlisted request
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.ReleaseResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	h.release(c, commands.ReasonCancelled)
}

// @Summary Complete a booking
// @Description Release a held unit with reason completed (check-out); staff only
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.ReleaseResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings/{id}/complete [post]
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	h.release(c, commands.ReasonCompleted)
}

func (h *BookingHandler) release(c *gin.Context, reason commands.ReleaseReason) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	result, err := h.allocation.Release(c.Request.Context(), h.actor(c), id, reason)
	if err != nil {
		h.writeAllocationError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromReleaseResult(result))
}

// @Summary Transfer a booking
// @Description Reschedule a booking into another pool; the old unit is released (with promotion) and a new record is admitted, atomically
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.TransferBookingRequest true "Target pool"
// @Success 200 {object} resdto.TransferResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings/{id}/transfer [post]
func (h *BookingHandler) TransferBooking(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	var req reqdto.TransferBookingRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	bucket, err := req.BucketDate()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bucket date"})
		return
	}

	result, err := h.allocation.Transfer(c.Request.Context(), h.actor(c), id, commands.TransferTarget{
		Kind:       req.ResourceKind(),
		ResourceID: req.ResourceID,
		Date:       bucket,
	})
	if err != nil {
		h.writeAllocationError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromTransferResult(result))
}

// @Summary Approve a booking
// @Description Staff ratification of a confirmed appointment booking
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings/{id}/approve [post]
func (h *BookingHandler) ApproveBooking(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	if err := h.allocation.Approve(c.Request.Context(), id); err != nil {
		h.writeAllocationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "approved"})
}

// @Summary Get booking
// @Description Get booking by ID; patients only see their own records
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 404 {object} map[string]string
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	role, _ := middleware.GetUserRole(c)

	view, err := h.queries.GetByID(c.Request.Context(), queries.Actor{ID: userID, Role: role}, id)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrBookingNotFound), errors.Is(err, queries.ErrForbidden):
			// Hide existence from non-owners
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FromBookingView(view))
}

// @Summary List my bookings
// @Description All bookings for the authenticated requester
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {array} resdto.BookingListResponse
// @Router /bookings [get]
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	items, err := h.queries.ListByRequester(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := make([]*resdto.BookingListResponse, len(items))
	for i, item := range items {
		response[i] = resdto.FromBookingListItem(item)
	}

	c.JSON(http.StatusOK, response)
}

func (h *BookingHandler) actor(c *gin.Context) commands.Actor {
	userID, _ := middleware.GetUserID(c)
	role, _ := middleware.GetUserRole(c)
	return commands.Actor{ID: userID, Role: role}
}

func (h *BookingHandler) bookingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID format"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *BookingHandler) writeAllocationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, commands.ErrInvalidKey):
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case errors.Is(err, commands.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
	case errors.Is(err, commands.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": "Operation not allowed for current booking status"})
	case errors.Is(err, commands.ErrTransferFailed):
		c.JSON(http.StatusConflict, gin.H{"error": "Transfer could not complete; the original booking is unchanged"})
	case errors.Is(err, commands.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Concurrent modification, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
