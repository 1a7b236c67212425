package models

import "strings"

// DayOfWeek enumerates the teaching days. Sunday is not schedulable.
type DayOfWeek string

const (
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
)

// Weekdays lists the teaching days in calendar order.
var Weekdays = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// dayAliases maps normalised English and Spanish day names onto the enum.
// The faculty-facing clients submit Spanish labels, so both spellings are accepted.
var dayAliases = map[string]DayOfWeek{
	"monday":    Monday,
	"lunes":     Monday,
	"tuesday":   Tuesday,
	"martes":    Tuesday,
	"wednesday": Wednesday,
	"miercoles": Wednesday,
	"thursday":  Thursday,
	"jueves":    Thursday,
	"friday":    Friday,
	"viernes":   Friday,
	"saturday":  Saturday,
	"sabado":    Saturday,
}

// ParseDayOfWeek resolves a day name after trimming, lowercasing and stripping
// the accented vowels used in Spanish day names.
func ParseDayOfWeek(raw string) (DayOfWeek, bool) {
	key := strings.Map(stripAccent, strings.ToLower(strings.TrimSpace(raw)))
	day, ok := dayAliases[key]
	return day, ok
}

// Valid reports whether the value is one of the six teaching days.
func (d DayOfWeek) Valid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday:
		return true
	}
	return false
}

func stripAccent(r rune) rune {
	switch r {
	case 'á':
		return 'a'
	case 'é':
		return 'e'
	case 'í':
		return 'i'
	case 'ó':
		return 'o'
	case 'ú':
		return 'u'
	}
	return r
}
