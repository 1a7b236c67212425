package models

import "time"

// ShiftBreakdown carries occupancy percentages per named shift of the day.
type ShiftBreakdown struct {
	Morning   float64 `json:"morning"`
	Afternoon float64 `json:"afternoon"`
	Evening   float64 `json:"evening"`
}

// OccupancyRecord is the derived weekly occupancy of one room for a period.
// It is recomputed from the current block collection, never stored.
type OccupancyRecord struct {
	RoomID              string         `json:"room_id"`
	PeriodID            string         `json:"period_id"`
	TotalAvailableHours float64        `json:"total_available_hours"`
	TotalOccupiedHours  float64        `json:"total_occupied_hours"`
	Percentage          float64        `json:"percentage"`
	Shifts              ShiftBreakdown `json:"shift_breakdown"`
	GeneratedAt         time.Time      `json:"generated_at"`
}

// OccupancySummary rolls occupancy up across many rooms.
type OccupancySummary struct {
	PeriodID           string            `json:"period_id"`
	RoomCount          int               `json:"room_count"`
	AverageOccupancy   float64           `json:"average_occupancy"`
	OverOccupiedCount  int               `json:"over_occupied_count"`
	UnderUtilizedCount int               `json:"under_utilized_count"`
	Rooms              []OccupancyRecord `json:"rooms,omitempty"`
	GeneratedAt        time.Time         `json:"generated_at"`
}
