package timetable

import (
	"math"

	"github.com/unirooms/timetable-api/internal/models"
)

// Policy thresholds for the campus rollup. Rooms above the first are flagged
// over-occupied, rooms below the second under-utilized.
const (
	OverOccupiedThreshold  = 85.0
	UnderUtilizedThreshold = 50.0
)

// ShiftBounds fixes the boundary times of the morning, afternoon and evening
// shifts. Each shift is the half-open band [start, nextStart).
type ShiftBounds struct {
	MorningStart   models.TimeOfDay
	AfternoonStart models.TimeOfDay
	EveningStart   models.TimeOfDay
	EveningEnd     models.TimeOfDay
}

// DefaultShiftBounds is the campus-wide shift layout: morning 06:00-12:00,
// afternoon 12:00-18:00, evening 18:00-22:00.
func DefaultShiftBounds() ShiftBounds {
	return ShiftBounds{
		MorningStart:   models.NewTimeOfDay(6, 0),
		AfternoonStart: models.NewTimeOfDay(12, 0),
		EveningStart:   models.NewTimeOfDay(18, 0),
		EveningEnd:     models.NewTimeOfDay(22, 0),
	}
}

// OccupancyConfig supplies the denominators for occupancy computation.
// SchedulingDays scales each shift's weekly available hours; zero falls back
// to the six teaching days.
type OccupancyConfig struct {
	TotalAvailableHours float64
	SchedulingDays      int
	Shifts              ShiftBounds
}

// ComputeOccupancy derives a room's weekly occupancy from its block
// collection. Blocks for one room are expected not to overlap (the validator
// enforces that upstream), so occupied time is a straight reduce. Percentages
// are rounded to one decimal and clamped to [0, 100]; a zero available-hours
// denominator yields zero rather than a division fault.
func ComputeOccupancy(roomBlocks []models.TimeBlock, cfg OccupancyConfig) models.OccupancyRecord {
	days := cfg.SchedulingDays
	if days <= 0 {
		days = len(models.Weekdays)
	}
	bounds := cfg.Shifts
	if bounds == (ShiftBounds{}) {
		bounds = DefaultShiftBounds()
	}

	var occupied, morning, afternoon, evening float64
	for _, b := range roomBlocks {
		occupied += b.Start.HoursUntil(b.End)
		morning += overlapHours(b, bounds.MorningStart, bounds.AfternoonStart)
		afternoon += overlapHours(b, bounds.AfternoonStart, bounds.EveningStart)
		evening += overlapHours(b, bounds.EveningStart, bounds.EveningEnd)
	}

	shiftDays := float64(days)
	record := models.OccupancyRecord{
		TotalAvailableHours: cfg.TotalAvailableHours,
		TotalOccupiedHours:  round1(occupied),
		Percentage:          percentage(occupied, cfg.TotalAvailableHours),
		Shifts: models.ShiftBreakdown{
			Morning:   percentage(morning, bounds.MorningStart.HoursUntil(bounds.AfternoonStart)*shiftDays),
			Afternoon: percentage(afternoon, bounds.AfternoonStart.HoursUntil(bounds.EveningStart)*shiftDays),
			Evening:   percentage(evening, bounds.EveningStart.HoursUntil(bounds.EveningEnd)*shiftDays),
		},
	}
	return record
}

// Summarize rolls per-room occupancy records up into campus statistics.
func Summarize(records []models.OccupancyRecord) models.OccupancySummary {
	summary := models.OccupancySummary{RoomCount: len(records)}
	if len(records) == 0 {
		return summary
	}

	var total float64
	for _, r := range records {
		total += r.Percentage
		if r.Percentage > OverOccupiedThreshold {
			summary.OverOccupiedCount++
		}
		if r.Percentage < UnderUtilizedThreshold {
			summary.UnderUtilizedCount++
		}
	}
	summary.AverageOccupancy = round1(total / float64(len(records)))
	return summary
}

func percentage(occupied, available float64) float64 {
	if available <= 0 {
		return 0
	}
	pct := round1(occupied / available * 100)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
