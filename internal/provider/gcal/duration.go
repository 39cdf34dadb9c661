package gcal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ewellner/daybridge/internal/domain/calendar"
)

const (
	minutesPerDay   = 1440
	defaultMinutes  = 60
	fallbackDisplay = "30m"
)

var (
	hoursPattern   = regexp.MustCompile(`(\d+)\s*h`)
	minutesPattern = regexp.MustCompile(`(\d+)\s*m`)
)

// ParseDurationMinutes turns a display duration string back into minutes.
// "All Day" maps to a full day; otherwise the matched <n>h and <n>m groups
// are summed. An unrecognized string defaults to 60.
func ParseDurationMinutes(s string) int {
	if strings.EqualFold(strings.TrimSpace(s), calendar.AllDayDuration) {
		return minutesPerDay
	}

	total := 0
	if m := hoursPattern.FindStringSubmatch(s); m != nil {
		if hours, err := strconv.Atoi(m[1]); err == nil {
			total += hours * 60
		}
	}
	if m := minutesPattern.FindStringSubmatch(s); m != nil {
		if minutes, err := strconv.Atoi(m[1]); err == nil {
			total += minutes
		}
	}
	if total == 0 {
		return defaultMinutes
	}
	return total
}

// FormatDuration derives the display duration string from an event's start
// and end. All-day entries get the literal string; a duration that rounds to
// zero gets a 30m floor.
func FormatDuration(start, end time.Time, allDay bool) string {
	if allDay {
		return calendar.AllDayDuration
	}

	minutes := int(end.Sub(start).Minutes())
	if minutes <= 0 {
		return fallbackDisplay
	}

	hours := minutes / 60
	rem := minutes % 60

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if rem > 0 {
		parts = append(parts, fmt.Sprintf("%dm", rem))
	}
	if len(parts) == 0 {
		return fallbackDisplay
	}
	return strings.Join(parts, " ")
}
