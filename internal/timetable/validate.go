package timetable

import (
	"fmt"

	"github.com/unirooms/timetable-api/internal/models"
)

// Validate checks a proposed set of weekly blocks against the existing block
// collection for the same period. It reports the first conflict in input
// order: proposed blocks in caller order, existing blocks in their given
// order, teacher dimension before room. excludeID skips one existing block,
// which lets an edited entry be revalidated against everything but its own
// prior version.
//
// The function is pure: it never mutates its inputs and calling it twice with
// identical ordered inputs yields an identical report.
func Validate(proposed, existing []models.TimeBlock, excludeID string) models.ConflictReport {
	if len(proposed) == 0 {
		return invalidInput("no blocks proposed")
	}

	for _, p := range proposed {
		if report, ok := checkInput(p); !ok {
			return report
		}
	}

	for _, p := range proposed {
		for _, e := range existing {
			if e.PeriodID != p.PeriodID {
				continue
			}
			if excludeID != "" && e.ID == excludeID {
				continue
			}
			if e.TeacherID == p.TeacherID && Overlaps(p, e) {
				return conflict(models.ConflictTeacher, e,
					fmt.Sprintf("teacher %s is already scheduled on %s %s", e.TeacherID, e.Day, e.TimeRange()))
			}
			if e.RoomID == p.RoomID && Overlaps(p, e) {
				return conflict(models.ConflictRoom, e,
					fmt.Sprintf("room %s is already booked on %s %s", e.RoomID, e.Day, e.TimeRange()))
			}
		}
	}

	return models.OKReport()
}

// checkInput enforces the preconditions on one proposed block before any
// overlap test runs. These failures are caller-correctable form errors.
func checkInput(b models.TimeBlock) (models.ConflictReport, bool) {
	switch {
	case !b.Day.Valid():
		return invalidInput(fmt.Sprintf("unknown day of week %q", string(b.Day))), false
	case b.Start >= b.End:
		return invalidInput(fmt.Sprintf("start time %s must precede end time %s", b.Start, b.End)), false
	case b.TeacherID == "":
		return invalidInput("teacher is required"), false
	case b.RoomID == "":
		return invalidInput("room is required"), false
	case b.GroupID == "":
		return invalidInput("group is required"), false
	case b.SubjectID == "":
		return invalidInput("subject is required"), false
	}
	return models.ConflictReport{}, true
}

func invalidInput(detail string) models.ConflictReport {
	return models.ConflictReport{Kind: models.ConflictValidation, Detail: detail}
}

func conflict(kind models.ConflictKind, existing models.TimeBlock, detail string) models.ConflictReport {
	blocked := existing
	return models.ConflictReport{Kind: kind, Conflicting: &blocked, Detail: detail}
}
