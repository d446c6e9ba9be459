// Package eventtime converts between clock representations and decides
// whether an event's scheduled date and time have been reached.
package eventtime

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var labelPattern = regexp.MustCompile(`^(0?[1-9]|1[0-2]):([0-5]\d)\s?([AaPp][Mm])$`)

// ErrInvalidLabel is returned when a time label is not in "hh:mm AM/PM" form.
var ErrInvalidLabel = errors.New("time must be in hh:mm AM/PM format")

// TimeOfDay is a wall-clock time on the 24-hour clock with minute resolution.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseLabel parses an "hh:mm AM/PM" label. The hour may be one or two digits,
// the space before the meridiem is optional and case is ignored.
func ParseLabel(label string) (TimeOfDay, error) {
	m := labelPattern.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return TimeOfDay{}, ErrInvalidLabel
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	pm := strings.EqualFold(m[3], "PM")
	return TimeOfDay{Hour: to24Hour(hour, pm), Minute: minute}, nil
}

// ValidLabel reports whether label parses as an "hh:mm AM/PM" time.
func ValidLabel(label string) bool {
	_, err := ParseLabel(label)
	return err == nil
}

// FromClock returns the time-of-day of t in t's location. Seconds are dropped.
func FromClock(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// Label renders the time as "hh:mm AM" or "hh:mm PM".
func (t TimeOfDay) Label() string {
	hour, pm := to12Hour(t.Hour)
	meridiem := "AM"
	if pm {
		meridiem = "PM"
	}
	return fmt.Sprintf("%02d:%02d %s", hour, t.Minute, meridiem)
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

// Before reports whether t is strictly earlier in the day than u.
func (t TimeOfDay) Before(u TimeOfDay) bool {
	return t.minutes() < u.minutes()
}

// to24Hour maps a 12-hour clock reading to 0-23: 12 AM is 0, 12 PM is 12.
func to24Hour(hour int, pm bool) int {
	if hour == 12 {
		hour = 0
	}
	if pm {
		hour += 12
	}
	return hour
}

func to12Hour(hour int) (int, bool) {
	pm := hour >= 12
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return hour, pm
}

// IsEventComplete reports whether an event scheduled on eventDate at the
// eventTime label has started as of now.
//
// Calendar dates are compared first: eventDate's year, month and day as
// stored against now's date in now's location. Only when both fall on the
// same day are the times of day compared, and reaching the event's minute
// counts as complete.
func IsEventComplete(eventDate time.Time, eventTime string, now time.Time) (bool, error) {
	tod, err := ParseLabel(eventTime)
	if err != nil {
		return false, err
	}

	switch compareDates(eventDate, now) {
	case -1:
		return true, nil
	case 1:
		return false, nil
	}
	return !FromClock(now).Before(tod), nil
}

func compareDates(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	switch {
	case ay != by:
		return sign(ay - by)
	case am != bm:
		return sign(int(am) - int(bm))
	default:
		return sign(ad - bd)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
