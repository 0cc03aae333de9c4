package models

import (
	"fmt"
	"time"
)

var macedonianWeekdays = [...]string{
	"недела", "понеделник", "вторник", "среда", "четврток", "петок", "сабота",
}

var macedonianMonths = [...]string{
	"јануари", "февруари", "март", "април", "мај", "јуни",
	"јули", "август", "септември", "октомври", "ноември", "декември",
}

// FormatMacedonianDate renders t as the long display date stored in Post.Date,
// e.g. "среда, 5 март 2025".
func FormatMacedonianDate(t time.Time) string {
	return fmt.Sprintf("%s, %d %s %d",
		macedonianWeekdays[t.Weekday()], t.Day(), macedonianMonths[t.Month()-1], t.Year())
}

// TimeAgo renders how long ago a post was created, given epoch milliseconds.
func TimeAgo(createdAt int64, now time.Time) string {
	seconds := (now.UnixMilli() - createdAt) / 1000
	if seconds < 0 {
		seconds = 0
	}
	switch {
	case seconds < 60:
		return fmt.Sprintf("пред %d секунди", seconds)
	case seconds < 3600:
		return fmt.Sprintf("пред %d минути", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("пред %d часа", seconds/3600)
	default:
		return fmt.Sprintf("пред %d дена", seconds/86400)
	}
}
