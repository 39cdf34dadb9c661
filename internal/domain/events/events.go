// Package events defines the dashboard change notifications fanned out to
// connected websocket clients via the cache layer's pub/sub channel.
package events

import "time"

// EventType names the collection a change touched.
type EventType string

const (
	EventGoalsChanged    EventType = "goals_changed"
	EventHabitsChanged   EventType = "habits_changed"
	EventCalendarChanged EventType = "calendar_changed"
	EventDatesChanged    EventType = "dates_changed"
	EventProfileChanged  EventType = "profile_changed"
)

// DashboardEvent tells a client which user's dashboard changed and where.
type DashboardEvent struct {
	UserID    string      `json:"userId"`
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewDashboardEvent(userID string, t EventType, payload interface{}) *DashboardEvent {
	return &DashboardEvent{
		UserID:    userID,
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}
