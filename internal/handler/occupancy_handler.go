package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/unirooms/timetable-api/internal/service"
	"github.com/unirooms/timetable-api/pkg/response"
)

// OccupancyHandler exposes derived occupancy endpoints.
type OccupancyHandler struct {
	service *service.OccupancyService
}

// NewOccupancyHandler constructs an occupancy handler.
func NewOccupancyHandler(svc *service.OccupancyService) *OccupancyHandler {
	return &OccupancyHandler{service: svc}
}

// Room godoc
// @Summary Room occupancy
// @Description Weekly occupancy of one room, including shift breakdown
// @Tags Occupancy
// @Produce json
// @Param id path string true "Room ID"
// @Param period_id query string true "Academic period"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /occupancy/rooms/{id} [get]
func (h *OccupancyHandler) Room(c *gin.Context) {
	record, cached, err := h.service.RoomOccupancy(c.Request.Context(), c.Param("id"), c.Query("period_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, record, nil, map[string]interface{}{"cached": cached})
}

// Summary godoc
// @Summary Occupancy summary
// @Description Aggregate occupancy across all active rooms for one period
// @Tags Occupancy
// @Produce json
// @Param period_id query string true "Academic period"
// @Param include_rooms query bool false "Attach per-room records"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /occupancy/summary [get]
func (h *OccupancyHandler) Summary(c *gin.Context) {
	includeRooms, _ := strconv.ParseBool(c.DefaultQuery("include_rooms", "false"))

	summary, cached, err := h.service.Summary(c.Request.Context(), c.Query("period_id"), includeRooms)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil, map[string]interface{}{"cached": cached})
}

// Metrics godoc
// @Summary Runtime metrics snapshot
// @Description Cache hit ratio, request counters and runtime gauges
// @Tags Occupancy
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /occupancy/metrics [get]
func (h *OccupancyHandler) Metrics(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.SystemMetrics(), nil)
}
