package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unirooms/timetable-api/internal/models"
)

func TestClassAtHourContainment(t *testing.T) {
	blocks := []models.TimeBlock{
		block(t, "b1", "p1", "t-1", "r-1", models.Monday, "07:00", "09:00"),
	}

	assert.Nil(t, ClassAt(blocks, models.Monday, 6))
	require.NotNil(t, ClassAt(blocks, models.Monday, 7))
	require.NotNil(t, ClassAt(blocks, models.Monday, 8))
	// Hour 9 is the first row after the block ends.
	assert.Nil(t, ClassAt(blocks, models.Monday, 9))
	assert.Nil(t, ClassAt(blocks, models.Tuesday, 7))
}

func TestClassAtFirstMatchWinsOnInconsistentInput(t *testing.T) {
	// Two blocks claim the same cell, as can happen mid-edit before
	// revalidation. The projector stays total and picks list order.
	blocks := []models.TimeBlock{
		block(t, "b1", "p1", "t-1", "r-1", models.Monday, "08:00", "10:00"),
		block(t, "b2", "p1", "t-2", "r-1", models.Monday, "09:00", "11:00"),
	}

	got := ClassAt(blocks, models.Monday, 9)
	require.NotNil(t, got)
	assert.Equal(t, "b1", got.ID)
}

func TestProjectBuildsHourByDayGrid(t *testing.T) {
	blocks := []models.TimeBlock{
		block(t, "b1", "p1", "t-1", "r-1", models.Monday, "07:00", "09:00"),
		block(t, "b2", "p1", "t-2", "r-1", models.Wednesday, "08:00", "10:00"),
	}

	grid := Project(blocks, 7, 10)
	require.Len(t, grid.Cells, 4)

	cell := grid.At(models.Monday, 7)
	require.NotNil(t, cell)
	assert.Equal(t, "b1", cell.ID)

	cell = grid.At(models.Wednesday, 9)
	require.NotNil(t, cell)
	assert.Equal(t, "b2", cell.ID)

	assert.Nil(t, grid.At(models.Monday, 9))
	assert.Nil(t, grid.At(models.Saturday, 8))
	assert.Nil(t, grid.At(models.Monday, 12), "outside the projected window")
}

func TestProjectInvertedWindowIsEmpty(t *testing.T) {
	grid := Project(nil, 10, 7)
	assert.Empty(t, grid.Cells)
	assert.Nil(t, grid.At(models.Monday, 8))
}
