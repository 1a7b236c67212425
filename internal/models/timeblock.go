package models

import "time"

// TimeBlock is one weekly recurring class commitment tying a teacher, room and
// group to a day-of-week and time range within an academic period.
type TimeBlock struct {
	ID        string    `db:"id" json:"id"`
	PeriodID  string    `db:"period_id" json:"period_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	RoomID    string    `db:"room_id" json:"room_id"`
	GroupID   string    `db:"group_id" json:"group_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	Day       DayOfWeek `db:"day_of_week" json:"day_of_week"`
	Start     TimeOfDay `db:"start_minutes" json:"start_time"`
	End       TimeOfDay `db:"end_minutes" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TimeRange renders the block's "HH:MM-HH:MM" span.
func (b TimeBlock) TimeRange() string {
	return b.Start.String() + "-" + b.End.String()
}

// TimeBlockFilter describes query params for listing time blocks.
type TimeBlockFilter struct {
	PeriodID  string
	TeacherID string
	RoomID    string
	GroupID   string
	Day       string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ConflictKind classifies why a proposed block set was rejected.
type ConflictKind string

const (
	// ConflictValidation marks caller-correctable input failures, distinct
	// from a taken slot so clients can render "fix your form" separately.
	ConflictValidation ConflictKind = "VALIDATION"
	ConflictTeacher    ConflictKind = "TEACHER"
	ConflictRoom       ConflictKind = "ROOM"
)

// ConflictReport is the outcome of validating a proposed block set.
// Conflicts are expected business outcomes, not faults, so they travel as
// data rather than errors.
type ConflictReport struct {
	Valid       bool         `json:"valid"`
	Kind        ConflictKind `json:"kind,omitempty"`
	Conflicting *TimeBlock   `json:"conflicting_block,omitempty"`
	Detail      string       `json:"detail,omitempty"`
}

// OKReport is the report returned when no conflicts were found.
func OKReport() ConflictReport {
	return ConflictReport{Valid: true}
}

// ScheduleConflictError carries a rejecting report across the error chain so
// handlers can include the full report in the 409 body.
type ScheduleConflictError struct {
	Report ConflictReport
}

func (e *ScheduleConflictError) Error() string {
	if e.Report.Detail != "" {
		return e.Report.Detail
	}
	return "schedule conflict"
}
