package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"careslot/internal/domain/pool"
	resdto "careslot/internal/handler/dto/response"
	"careslot/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PoolHandler struct {
	queries queries.BookingQueries
}

func NewPoolHandler(bookingQueries queries.BookingQueries) *PoolHandler {
	return &PoolHandler{queries: bookingQueries}
}

// @Summary Get pool snapshot
// @Description Capacity, waitlist depth and bookings for one pool; staff only
// @Tags pools
// @Produce json
// @Security BearerAuth
// @Param kind path string true "Resource kind"
// @Param resource_id path string true "Resource ID"
// @Param bucket query string false "Day (YYYY-MM-DD) for bucketed kinds"
// @Success 200 {object} resdto.PoolResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /pools/{kind}/{resource_id} [get]
func (h *PoolHandler) GetPool(c *gin.Context) {
	kind := pool.ResourceKind(strings.TrimSpace(c.Param("kind")))

	resourceID, err := uuid.Parse(c.Param("resource_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid resource ID format"})
		return
	}

	var bucket *time.Time
	if raw := strings.TrimSpace(c.Query("bucket")); raw != "" {
		t, parseErr := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bucket date"})
			return
		}
		bucket = &t
	}

	key, err := pool.NewKey(kind, resourceID, bucket)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pool key"})
		return
	}

	view, err := h.queries.GetPool(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, queries.ErrPoolNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Pool not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resdto.FromPoolView(view))
}
