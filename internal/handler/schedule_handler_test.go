package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/unirooms/timetable-api/internal/models"
	"github.com/unirooms/timetable-api/internal/service"
	"github.com/unirooms/timetable-api/internal/timetable"
	appErrors "github.com/unirooms/timetable-api/pkg/errors"
)

type scheduleServiceMock struct {
	blocks      []models.TimeBlock
	block       *models.TimeBlock
	report      models.ConflictReport
	deleted     int64
	grid        timetable.Grid
	err         error
	lastRequest service.CreateBlocksRequest
}

func (m *scheduleServiceMock) List(ctx context.Context, filter models.TimeBlockFilter) ([]models.TimeBlock, *models.Pagination, error) {
	return m.blocks, &models.Pagination{Page: 1, PageSize: 20, TotalCount: len(m.blocks)}, m.err
}

func (m *scheduleServiceMock) Get(ctx context.Context, id string) (*models.TimeBlock, error) {
	return m.block, m.err
}

func (m *scheduleServiceMock) Create(ctx context.Context, req service.CreateBlocksRequest) ([]models.TimeBlock, error) {
	m.lastRequest = req
	return m.blocks, m.err
}

func (m *scheduleServiceMock) Validate(ctx context.Context, req service.CreateBlocksRequest) (models.ConflictReport, error) {
	m.lastRequest = req
	return m.report, m.err
}

func (m *scheduleServiceMock) Update(ctx context.Context, id string, req service.UpdateBlockRequest) (*models.TimeBlock, error) {
	return m.block, m.err
}

func (m *scheduleServiceMock) Delete(ctx context.Context, id string) error {
	return m.err
}

func (m *scheduleServiceMock) DeleteGroupBlocks(ctx context.Context, groupID, periodID string) (int64, error) {
	return m.deleted, m.err
}

func (m *scheduleServiceMock) Grid(ctx context.Context, filter models.TimeBlockFilter, firstHour, lastHour int) (timetable.Grid, error) {
	return m.grid, m.err
}

func TestScheduleHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{
		blocks: []models.TimeBlock{{ID: "b-1", PeriodID: "2026-1"}},
	}
	handler := NewScheduleHandler(mockSvc)

	payload, _ := json.Marshal(service.CreateBlocksRequest{
		PeriodID:  "2026-1",
		TeacherID: "t-1",
		RoomID:    "r-1",
		GroupID:   "g-1",
		SubjectID: "s-1",
		Days:      []string{"MONDAY"},
		StartTime: "07:00",
		EndTime:   "09:00",
	})
	c, w := newGinContext(http.MethodPost, "/blocks", payload)

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "2026-1", mockSvc.lastRequest.PeriodID)
}

func TestScheduleHandlerCreateMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&scheduleServiceMock{})

	c, w := newGinContext(http.MethodPost, "/blocks", []byte("{not json"))

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerCreateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conflictErr := appErrors.Wrap(
		&models.ScheduleConflictError{Report: models.ConflictReport{Kind: models.ConflictTeacher}},
		appErrors.ErrConflict.Code, http.StatusConflict, "schedule conflict")
	handler := NewScheduleHandler(&scheduleServiceMock{err: conflictErr})

	payload, _ := json.Marshal(service.CreateBlocksRequest{
		PeriodID: "2026-1", TeacherID: "t-1", RoomID: "r-1", GroupID: "g-1", SubjectID: "s-1",
		Days: []string{"MONDAY"}, StartTime: "07:00", EndTime: "09:00",
	})
	c, w := newGinContext(http.MethodPost, "/blocks", payload)

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope struct {
		Error struct {
			Code    string                `json:"code"`
			Details models.ConflictReport `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, appErrors.ErrConflict.Code, envelope.Error.Code)
	require.Equal(t, models.ConflictTeacher, envelope.Error.Details.Kind)
}

func TestScheduleHandlerValidateReturnsReport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{
		report: models.ConflictReport{Valid: false, Kind: models.ConflictRoom, Detail: "room busy"},
	}
	handler := NewScheduleHandler(mockSvc)

	payload, _ := json.Marshal(service.CreateBlocksRequest{
		PeriodID: "2026-1", TeacherID: "t-1", RoomID: "r-1", GroupID: "g-1", SubjectID: "s-1",
		Days: []string{"MONDAY"}, StartTime: "07:00", EndTime: "09:00",
	})
	c, w := newGinContext(http.MethodPost, "/blocks/validate", payload)

	handler.Validate(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.ConflictReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.False(t, envelope.Data.Valid)
	require.Equal(t, models.ConflictRoom, envelope.Data.Kind)
}

func TestScheduleHandlerDeleteGroupBlocks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&scheduleServiceMock{deleted: 4})

	c, w := newGinContext(http.MethodDelete, "/groups/g-1/blocks?period_id=2026-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "g-1"}}

	handler.DeleteGroupBlocks(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data map[string]int64 `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, int64(4), envelope.Data["deleted"])
}

func TestScheduleHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&scheduleServiceMock{err: appErrors.ErrNotFound})

	c, w := newGinContext(http.MethodGet, "/blocks/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
