package timetable

import "github.com/unirooms/timetable-api/internal/models"

// Overlaps reports whether two weekly blocks collide. Blocks on different
// days never overlap. Time ranges are half-open [start, end), so a block
// ending exactly when another starts is legal (back-to-back classes).
func Overlaps(a, b models.TimeBlock) bool {
	if a.Day != b.Day {
		return false
	}
	return a.Start < b.End && b.Start < a.End
}

// overlapHours returns the fractional hours the block spends inside the
// half-open band [from, to).
func overlapHours(b models.TimeBlock, from, to models.TimeOfDay) float64 {
	start := b.Start
	if from > start {
		start = from
	}
	end := b.End
	if to < end {
		end = to
	}
	return start.HoursUntil(end)
}
