package validationtoken

import (
	"fmt"
	"strconv"
	"time"
)

// epoch is the fixed reference date the day index counts from. Changing it
// invalidates every outstanding token.
var epoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// today returns the current calendar date in UTC, with the time-of-day
// component stripped. Generation and verification must share this convention.
func today(now func() time.Time) time.Time {
	t := now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ElapsedDays returns the number of whole days between the epoch (2001-01-01)
// and the given date. A zero time value indicates a caller bug and is rejected.
func ElapsedDays(date time.Time) (int, error) {
	if date.IsZero() {
		return 0, fmt.Errorf("invalid value for the date parameter")
	}
	d := date.UTC()
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(epoch).Hours() / 24), nil
}

// HashValue derives the string payload to be signed for a user and day index.
// It is the decimal user id concatenated with the decimal day index, with no
// separator. Distinct (id, day) pairs can in theory concatenate to the same
// payload; the format is kept for compatibility with already issued tokens.
func HashValue(userID int64, dayIndex int) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("the user id cannot be empty")
	}
	if dayIndex < 0 {
		return "", fmt.Errorf("invalid value for the day index parameter")
	}
	return strconv.FormatInt(userID, 10) + strconv.Itoa(dayIndex), nil
}
