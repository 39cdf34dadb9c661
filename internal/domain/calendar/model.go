package calendar

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var ErrEventNotFound = errors.New("event not found")

// EventType tags an event as work or personal. The external provider has no
// equivalent field, so provider-synced events always come back as work.
type EventType string

const (
	EventTypeWork     EventType = "work"
	EventTypePersonal EventType = "personal"
)

// AllDayDuration is the literal duration string for date-only events.
const AllDayDuration = "All Day"

const tempIDPrefix = "temp-"

// Event is a calendar event. ID is either a client-minted temporary id or
// the provider-assigned id once a mirror create has succeeded.
type Event struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Time      string    `json:"time"`      // localized HH:MM display string
	StartTime int64     `json:"startTime"` // epoch millis
	Type      EventType `json:"type"`
	Duration  string    `json:"duration"` // "1h", "30m", "All Day", ...
}

// NewTempID mints a temporary event id of the form temp-<timestamp>-<suffix>.
func NewTempID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// Fall back to a clock-derived suffix; uniqueness at this scale is
		// per-session, not global.
		return fmt.Sprintf("%s%d-%d", tempIDPrefix, time.Now().UnixMilli(), time.Now().UnixNano()%100000)
	}
	return fmt.Sprintf("%s%d-%s", tempIDPrefix, time.Now().UnixMilli(), hex.EncodeToString(b))
}

// IsTempID reports whether id is a client-minted placeholder.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}

// Start returns the event start as a time.Time.
func (e Event) Start() time.Time {
	return time.UnixMilli(e.StartTime)
}

// SortByStart orders events by start time ascending, in place.
func SortByStart(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime < events[j].StartTime
	})
}

// DisplayTime formats an event start for the dashboard's time column.
func DisplayTime(start time.Time) string {
	return start.Format("15:04")
}
