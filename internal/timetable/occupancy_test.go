package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unirooms/timetable-api/internal/models"
)

func TestComputeOccupancyPercentage(t *testing.T) {
	// 38 occupied hours against 48 available.
	blocks := []models.TimeBlock{
		block(t, "b1", "p1", "t-1", "r-1", models.Monday, "06:00", "16:00"),
		block(t, "b2", "p1", "t-1", "r-1", models.Tuesday, "06:00", "16:00"),
		block(t, "b3", "p1", "t-1", "r-1", models.Wednesday, "06:00", "16:00"),
		block(t, "b4", "p1", "t-1", "r-1", models.Thursday, "06:00", "14:00"),
	}

	record := ComputeOccupancy(blocks, OccupancyConfig{TotalAvailableHours: 48})
	assert.Equal(t, 38.0, record.TotalOccupiedHours)
	assert.Equal(t, 79.2, record.Percentage)
}

func TestComputeOccupancyZeroAvailableHours(t *testing.T) {
	blocks := []models.TimeBlock{
		block(t, "b1", "p1", "t-1", "r-1", models.Monday, "07:00", "09:00"),
	}

	record := ComputeOccupancy(blocks, OccupancyConfig{TotalAvailableHours: 0})
	assert.Equal(t, 0.0, record.Percentage)
	assert.Equal(t, 2.0, record.TotalOccupiedHours)
}

func TestComputeOccupancyClampsAtHundred(t *testing.T) {
	blocks := []models.TimeBlock{
		block(t, "b1", "p1", "t-1", "r-1", models.Monday, "06:00", "20:00"),
	}

	record := ComputeOccupancy(blocks, OccupancyConfig{TotalAvailableHours: 10})
	assert.Equal(t, 100.0, record.Percentage)
}

func TestComputeOccupancyEmptyRoom(t *testing.T) {
	record := ComputeOccupancy(nil, OccupancyConfig{TotalAvailableHours: 48})
	assert.Equal(t, 0.0, record.TotalOccupiedHours)
	assert.Equal(t, 0.0, record.Percentage)
	assert.Equal(t, models.ShiftBreakdown{}, record.Shifts)
}

func TestComputeOccupancyShiftBreakdown(t *testing.T) {
	// Morning 06-12, afternoon 12-18, evening 18-22 over six days gives
	// denominators of 36, 36 and 24 hours.
	blocks := []models.TimeBlock{
		block(t, "b1", "p1", "t-1", "r-1", models.Monday, "07:00", "09:00"),
		block(t, "b2", "p1", "t-1", "r-1", models.Monday, "11:00", "13:00"),
		block(t, "b3", "p1", "t-1", "r-1", models.Friday, "18:00", "20:00"),
	}

	record := ComputeOccupancy(blocks, OccupancyConfig{TotalAvailableHours: 96})
	require.Equal(t, 6.0, record.TotalOccupiedHours)
	// b2 straddles the morning/afternoon boundary: one hour lands each side.
	assert.Equal(t, 8.3, record.Shifts.Morning)
	assert.Equal(t, 2.8, record.Shifts.Afternoon)
	assert.Equal(t, 8.3, record.Shifts.Evening)
}

func TestSummarizeRollup(t *testing.T) {
	records := []models.OccupancyRecord{
		{Percentage: 92},
		{Percentage: 80},
		{Percentage: 40},
		{Percentage: 30},
		{Percentage: 60},
	}

	summary := Summarize(records)
	assert.Equal(t, 5, summary.RoomCount)
	assert.Equal(t, 1, summary.OverOccupiedCount)
	assert.Equal(t, 2, summary.UnderUtilizedCount)
	assert.Equal(t, 60.4, summary.AverageOccupancy)
}

func TestSummarizeThresholdsAreExclusive(t *testing.T) {
	records := []models.OccupancyRecord{
		{Percentage: 85},
		{Percentage: 50},
	}

	summary := Summarize(records)
	assert.Equal(t, 0, summary.OverOccupiedCount, "85 is not over-occupied")
	assert.Equal(t, 0, summary.UnderUtilizedCount, "50 is not under-utilized")
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	assert.Equal(t, 0, summary.RoomCount)
	assert.Equal(t, 0.0, summary.AverageOccupancy)
}
