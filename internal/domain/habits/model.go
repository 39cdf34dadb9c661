package habits

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrLogNotFound   = errors.New("habit log not found")
)

// DateLayout is the calendar-day format used in log keys.
const DateLayout = "2006-01-02"

// Habit is a daily habit. Streak is derived from the completion logs and
// recomputed after every toggle; it is never hand-edited.
type Habit struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Category      string   `json:"category"`
	Icon          string   `json:"icon"`
	Color         string   `json:"color"`
	Streak        int      `json:"streak"`
	LinkedGoalIDs []string `json:"linkedGoalIds,omitempty"`
}

// Log records one completed day for a habit. Absence of a log means the day
// was not completed; logs are deleted rather than flagged false.
type Log struct {
	HabitID   string `json:"habitId"`
	Date      string `json:"date"` // YYYY-MM-DD
	Completed bool   `json:"completed"`
	Note      string `json:"note,omitempty"`
}

// NewID mints a habit id.
func NewID() string {
	return uuid.NewString()
}

// LogKey builds the composite log key {habitID}_{YYYY-MM-DD}.
func LogKey(habitID, date string) string {
	return fmt.Sprintf("%s_%s", habitID, date)
}

// Key returns the log's composite key.
func (l Log) Key() string {
	return LogKey(l.HabitID, l.Date)
}

// ComputeStreak counts consecutive completed days walking backward from
// today, stopping at the first gap. logs is the full log set keyed by
// composite key.
func ComputeStreak(habitID string, logs map[string]Log, today time.Time) int {
	streak := 0
	day := today
	for {
		if _, ok := logs[LogKey(habitID, day.Format(DateLayout))]; !ok {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
