package timetable

import "github.com/unirooms/timetable-api/internal/models"

// ClassAt returns the block occupying the given day/hour cell, or nil when
// the cell is free. Containment is hour-granular, matching the one-row-per-
// hour rendering model: a block covers hours [hour(start), hour(end)).
//
// If several blocks claim the same cell the first in list order wins. The
// projector makes no consistency assumption because it can run on data that
// is mid-edit and not yet revalidated.
func ClassAt(blocks []models.TimeBlock, day models.DayOfWeek, hour int) *models.TimeBlock {
	for i := range blocks {
		b := &blocks[i]
		if b.Day != day {
			continue
		}
		if b.Start.Hour() <= hour && hour < b.End.Hour() {
			return b
		}
	}
	return nil
}

// Grid is an hour-by-day projection of a block collection, ready for
// rendering. Rows run from FirstHour to LastHour inclusive; columns follow
// models.Weekdays order.
type Grid struct {
	FirstHour int                    `json:"first_hour"`
	LastHour  int                    `json:"last_hour"`
	Days      []models.DayOfWeek     `json:"days"`
	Cells     [][]*models.TimeBlock  `json:"cells"`
}

// Project builds the grid for the hour range [firstHour, lastHour]. An
// inverted or out-of-range hour window yields an empty grid rather than a
// panic.
func Project(blocks []models.TimeBlock, firstHour, lastHour int) Grid {
	grid := Grid{FirstHour: firstHour, LastHour: lastHour, Days: models.Weekdays}
	if firstHour < 0 || lastHour > 23 || firstHour > lastHour {
		grid.Cells = [][]*models.TimeBlock{}
		return grid
	}

	grid.Cells = make([][]*models.TimeBlock, 0, lastHour-firstHour+1)
	for hour := firstHour; hour <= lastHour; hour++ {
		row := make([]*models.TimeBlock, len(models.Weekdays))
		for i, day := range models.Weekdays {
			row[i] = ClassAt(blocks, day, hour)
		}
		grid.Cells = append(grid.Cells, row)
	}
	return grid
}

// At looks up one cell of a projected grid. Out-of-window queries return nil.
func (g Grid) At(day models.DayOfWeek, hour int) *models.TimeBlock {
	if hour < g.FirstHour || hour > g.LastHour || len(g.Cells) == 0 {
		return nil
	}
	row := g.Cells[hour-g.FirstHour]
	for i, d := range g.Days {
		if d == day {
			return row[i]
		}
	}
	return nil
}
