package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/unirooms/timetable-api/internal/models"
	"github.com/unirooms/timetable-api/internal/service"
	"github.com/unirooms/timetable-api/internal/timetable"
	appErrors "github.com/unirooms/timetable-api/pkg/errors"
	"github.com/unirooms/timetable-api/pkg/response"
)

type scheduleService interface {
	List(ctx context.Context, filter models.TimeBlockFilter) ([]models.TimeBlock, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.TimeBlock, error)
	Create(ctx context.Context, req service.CreateBlocksRequest) ([]models.TimeBlock, error)
	Validate(ctx context.Context, req service.CreateBlocksRequest) (models.ConflictReport, error)
	Update(ctx context.Context, id string, req service.UpdateBlockRequest) (*models.TimeBlock, error)
	Delete(ctx context.Context, id string) error
	DeleteGroupBlocks(ctx context.Context, groupID, periodID string) (int64, error)
	Grid(ctx context.Context, filter models.TimeBlockFilter, firstHour, lastHour int) (timetable.Grid, error)
}

// ScheduleHandler exposes time block endpoints.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs a schedule handler.
func NewScheduleHandler(svc scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// List godoc
// @Summary List time blocks
// @Description List scheduled time blocks with optional filters
// @Tags Schedule
// @Produce json
// @Param period_id query string false "Academic period"
// @Param teacher_id query string false "Teacher filter"
// @Param room_id query string false "Room filter"
// @Param group_id query string false "Group filter"
// @Param day query string false "Day of week filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /blocks [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	filter := models.TimeBlockFilter{
		PeriodID:  c.Query("period_id"),
		TeacherID: c.Query("teacher_id"),
		RoomID:    c.Query("room_id"),
		GroupID:   c.Query("group_id"),
		Day:       c.Query("day"),
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "asc"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	blocks, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, blocks, pagination)
}

// Get godoc
// @Summary Get time block
// @Description Fetch a single time block by id
// @Tags Schedule
// @Produce json
// @Param id path string true "Block ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /blocks/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	block, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, block, nil)
}

// Create godoc
// @Summary Create time blocks
// @Description Create one block per requested day after conflict validation
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body service.CreateBlocksRequest true "Block payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /blocks [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req service.CreateBlocksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid block payload"))
		return
	}

	blocks, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, blocks)
}

// Validate godoc
// @Summary Validate time blocks
// @Description Dry-run conflict validation without persisting anything
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body service.CreateBlocksRequest true "Block payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /blocks/validate [post]
func (h *ScheduleHandler) Validate(c *gin.Context) {
	var req service.CreateBlocksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid block payload"))
		return
	}

	report, err := h.service.Validate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, report, nil)
}

// Update godoc
// @Summary Update time block
// @Description Move a block to a new slot after conflict validation
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Block ID"
// @Param payload body service.UpdateBlockRequest true "Block payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /blocks/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	var req service.UpdateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid block payload"))
		return
	}

	block, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, block, nil)
}

// Delete godoc
// @Summary Delete time block
// @Description Remove a block from the timetable
// @Tags Schedule
// @Produce json
// @Param id path string true "Block ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /blocks/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// DeleteGroupBlocks godoc
// @Summary Delete blocks of a group
// @Description Remove every block belonging to a group within a period
// @Tags Schedule
// @Produce json
// @Param id path string true "Group ID"
// @Param period_id query string true "Academic period"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /groups/{id}/blocks [delete]
func (h *ScheduleHandler) DeleteGroupBlocks(c *gin.Context) {
	deleted, err := h.service.DeleteGroupBlocks(c.Request.Context(), c.Param("id"), c.Query("period_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"deleted": deleted}, nil)
}

// Grid godoc
// @Summary Weekly timetable grid
// @Description Project blocks onto an hour-by-day grid for one period
// @Tags Schedule
// @Produce json
// @Param period_id query string true "Academic period"
// @Param teacher_id query string false "Teacher filter"
// @Param room_id query string false "Room filter"
// @Param group_id query string false "Group filter"
// @Param first_hour query int false "First hour of the grid"
// @Param last_hour query int false "Last hour of the grid"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /grid [get]
func (h *ScheduleHandler) Grid(c *gin.Context) {
	filter := models.TimeBlockFilter{
		PeriodID:  c.Query("period_id"),
		TeacherID: c.Query("teacher_id"),
		RoomID:    c.Query("room_id"),
		GroupID:   c.Query("group_id"),
	}
	firstHour, _ := strconv.Atoi(c.DefaultQuery("first_hour", "0"))
	lastHour, _ := strconv.Atoi(c.DefaultQuery("last_hour", "0"))

	grid, err := h.service.Grid(c.Request.Context(), filter, firstHour, lastHour)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, grid, nil)
}
