package dto

import "github.com/ewellner/daybridge/internal/domain/calendar"

// CreateCalendarEventRequest represents the request to create a new event
type CreateCalendarEventRequest struct {
	Title     string             `json:"title" binding:"required"`
	StartTime int64              `json:"startTime" binding:"required"` // epoch millis
	Duration  string             `json:"duration" binding:"omitempty,eventduration"`
	Type      calendar.EventType `json:"type" binding:"omitempty,oneof=work personal"`
}

func (r *CreateCalendarEventRequest) ToEvent() calendar.Event {
	return calendar.Event{
		Title:     r.Title,
		StartTime: r.StartTime,
		Duration:  r.Duration,
		Type:      r.Type,
	}
}

// UpdateCalendarEventRequest represents the request to update an event
type UpdateCalendarEventRequest struct {
	Title     *string             `json:"title,omitempty"`
	StartTime *int64              `json:"startTime,omitempty"`
	Duration  *string             `json:"duration,omitempty" binding:"omitempty,eventduration"`
	Type      *calendar.EventType `json:"type,omitempty" binding:"omitempty,oneof=work personal"`
}

// Apply merges the set fields onto an existing event.
func (r *UpdateCalendarEventRequest) Apply(ev *calendar.Event) {
	if r.Title != nil {
		ev.Title = *r.Title
	}
	if r.StartTime != nil {
		ev.StartTime = *r.StartTime
		ev.Time = calendar.DisplayTime(ev.Start())
	}
	if r.Duration != nil {
		ev.Duration = *r.Duration
	}
	if r.Type != nil {
		ev.Type = *r.Type
	}
}

// BatchCreateEventsRequest creates several events in one call.
type BatchCreateEventsRequest struct {
	Events []CreateCalendarEventRequest `json:"events" binding:"required,min=1,dive"`
}

// EventListResponse represents the response for listing calendar events
type EventListResponse struct {
	Events     []calendar.Event `json:"events"`
	TotalCount int              `json:"total_count"`
}
