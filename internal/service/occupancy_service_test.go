package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unirooms/timetable-api/internal/models"
	"github.com/unirooms/timetable-api/pkg/config"
	appErrors "github.com/unirooms/timetable-api/pkg/errors"
)

type mockRoomReader struct {
	rooms map[string]models.Room
}

func (m *mockRoomReader) FindByID(ctx context.Context, id string) (*models.Room, error) {
	if r, ok := m.rooms[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRoomReader) ListActive(ctx context.Context) ([]models.Room, error) {
	var list []models.Room
	for _, r := range m.rooms {
		if r.Active {
			list = append(list, r)
		}
	}
	return list, nil
}

type mockBlockReader struct {
	blocks []models.TimeBlock
}

func (m *mockBlockReader) ListByRoom(ctx context.Context, roomID, periodID string) ([]models.TimeBlock, error) {
	var list []models.TimeBlock
	for _, b := range m.blocks {
		if b.RoomID == roomID && b.PeriodID == periodID {
			list = append(list, b)
		}
	}
	return list, nil
}

func (m *mockBlockReader) ListByPeriod(ctx context.Context, periodID string) ([]models.TimeBlock, error) {
	var list []models.TimeBlock
	for _, b := range m.blocks {
		if b.PeriodID == periodID {
			list = append(list, b)
		}
	}
	return list, nil
}

func roomBlock(room string, day models.DayOfWeek, startH, endH int) models.TimeBlock {
	return models.TimeBlock{
		ID: room + string(day), PeriodID: "2026-1", TeacherID: "t1", RoomID: room,
		GroupID: "g1", SubjectID: "s1", Day: day,
		Start: models.NewTimeOfDay(startH, 0), End: models.NewTimeOfDay(endH, 0),
	}
}

func TestOccupancyServiceRoomOccupancy(t *testing.T) {
	rooms := &mockRoomReader{rooms: map[string]models.Room{
		"r1": {ID: "r1", Name: "Lab 101", OpensAt: models.NewTimeOfDay(6, 0), ClosesAt: models.NewTimeOfDay(14, 0), Active: true},
	}}
	// 6 days of 07:00-13:00 plus one 2h block: 38 occupied hours over a
	// 48-hour week (8 open hours, 6 scheduling days).
	var blocks []models.TimeBlock
	for _, day := range models.Weekdays {
		blocks = append(blocks, roomBlock("r1", day, 7, 13))
	}
	blocks = append(blocks, roomBlock("r1", models.Monday, 13, 15))

	svc := NewOccupancyService(rooms, &mockBlockReader{blocks: blocks}, nil, nil, config.OccupancyConfig{}, zap.NewNop())

	record, cached, err := svc.RoomOccupancy(context.Background(), "r1", "2026-1")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 48.0, record.TotalAvailableHours)
	assert.Equal(t, 38.0, record.TotalOccupiedHours)
	assert.Equal(t, 79.2, record.Percentage)
	assert.Equal(t, "r1", record.RoomID)
	assert.Equal(t, "2026-1", record.PeriodID)
	assert.WithinDuration(t, time.Now().UTC(), record.GeneratedAt, time.Minute)
}

func TestOccupancyServiceRoomNotFound(t *testing.T) {
	svc := NewOccupancyService(&mockRoomReader{}, &mockBlockReader{}, nil, nil, config.OccupancyConfig{}, zap.NewNop())

	_, _, err := svc.RoomOccupancy(context.Background(), "missing", "2026-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestOccupancyServiceDefaultDenominator(t *testing.T) {
	// No open hours recorded: falls back to the configured weekly default.
	rooms := &mockRoomReader{rooms: map[string]models.Room{
		"r1": {ID: "r1", Active: true},
	}}
	blocks := []models.TimeBlock{roomBlock("r1", models.Monday, 8, 12)}

	svc := NewOccupancyService(rooms, &mockBlockReader{blocks: blocks}, nil, nil, config.OccupancyConfig{DefaultWeeklyHours: 96}, zap.NewNop())

	record, _, err := svc.RoomOccupancy(context.Background(), "r1", "2026-1")
	require.NoError(t, err)
	assert.Equal(t, 96.0, record.TotalAvailableHours)
	assert.Equal(t, 4.2, record.Percentage)
}

func TestOccupancyServiceSummary(t *testing.T) {
	rooms := &mockRoomReader{rooms: map[string]models.Room{
		"rA": {ID: "rA", Active: true},
		"rB": {ID: "rB", Active: true},
	}}
	// rA: 90 of 96 hours, over-occupied. rB: 20 of 96, under-utilized.
	var blocks []models.TimeBlock
	for _, day := range models.Weekdays {
		blocks = append(blocks, roomBlock("rA", day, 6, 21)) // 15h x 6 = 90
	}
	blocks = append(blocks,
		roomBlock("rB", models.Monday, 7, 17),  // 10h
		roomBlock("rB", models.Tuesday, 7, 17), // 10h
	)

	svc := NewOccupancyService(rooms, &mockBlockReader{blocks: blocks}, nil, nil, config.OccupancyConfig{}, zap.NewNop())

	summary, cached, err := svc.Summary(context.Background(), "2026-1", true)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "2026-1", summary.PeriodID)
	assert.Equal(t, 2, summary.RoomCount)
	assert.Equal(t, 1, summary.OverOccupiedCount)
	assert.Equal(t, 1, summary.UnderUtilizedCount)
	assert.Equal(t, 57.3, summary.AverageOccupancy)
	assert.Len(t, summary.Rooms, 2)
}

func TestOccupancyServiceSummaryRequiresPeriod(t *testing.T) {
	svc := NewOccupancyService(&mockRoomReader{}, &mockBlockReader{}, nil, nil, config.OccupancyConfig{}, zap.NewNop())

	_, _, err := svc.Summary(context.Background(), "", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestOccupancyServiceCustomShiftBounds(t *testing.T) {
	rooms := &mockRoomReader{rooms: map[string]models.Room{
		"r1": {ID: "r1", OpensAt: models.NewTimeOfDay(8, 0), ClosesAt: models.NewTimeOfDay(20, 0), Active: true},
	}}
	blocks := []models.TimeBlock{roomBlock("r1", models.Monday, 8, 12)}

	cfg := config.OccupancyConfig{
		MorningStart:   "08:00",
		AfternoonStart: "13:00",
		EveningStart:   "17:00",
		EveningEnd:     "21:00",
		SchedulingDays: 5,
	}
	svc := NewOccupancyService(rooms, &mockBlockReader{blocks: blocks}, nil, nil, cfg, zap.NewNop())

	record, _, err := svc.RoomOccupancy(context.Background(), "r1", "2026-1")
	require.NoError(t, err)
	// 4 morning hours against a 5h x 5 day morning band.
	assert.Equal(t, 16.0, record.Shifts.Morning)
	assert.Equal(t, 0.0, record.Shifts.Afternoon)
	assert.Equal(t, 0.0, record.Shifts.Evening)
	// 12 open hours x 5 days.
	assert.Equal(t, 60.0, record.TotalAvailableHours)
}
