package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ewellner/daybridge/internal/domain/calendar"
	"github.com/ewellner/daybridge/internal/storage"
)

var toolDispatches = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "assistant_tool_dispatches_total",
	Help: "Assistant tool calls executed by tool name and outcome",
}, []string{"tool", "outcome"})

const (
	toolCreateEvent = "create_calendar_event"
	toolDeleteEvent = "delete_calendar_event"
	toolUpdateEvent = "update_calendar_event"
)

func calendarTools() []Tool {
	stringProp := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "string", "description": desc}
	}
	return []Tool{{
		FunctionDeclarations: []FunctionDeclaration{
			{
				Name:        toolCreateEvent,
				Description: "Create a new calendar event for the user.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"title":    stringProp("Event title."),
						"date":     stringProp("Event date in YYYY-MM-DD format."),
						"time":     stringProp("Start time in 24-hour HH:MM format."),
						"duration": stringProp("Duration such as '1h', '30m', '1h 30m' or 'All Day'."),
					},
					"required": []string{"title", "date", "time"},
				},
			},
			{
				Name:        toolDeleteEvent,
				Description: "Delete an existing calendar event by its id.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"eventId": stringProp("Id of the event to delete, taken from the current schedule."),
					},
					"required": []string{"eventId"},
				},
			},
			{
				Name:        toolUpdateEvent,
				Description: "Update the title, time or duration of an existing calendar event.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"eventId":  stringProp("Id of the event to update, taken from the current schedule."),
						"title":    stringProp("New event title."),
						"date":     stringProp("New date in YYYY-MM-DD format."),
						"time":     stringProp("New start time in 24-hour HH:MM format."),
						"duration": stringProp("New duration such as '1h' or '30m'."),
					},
					"required": []string{"eventId"},
				},
			},
		},
	}}
}

func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// dispatch executes one tool call against the sync controller and returns a
// structured result for the follow-up model turn. Event ids are checked
// against the session's current state before any destructive action.
func (s *Service) dispatch(ctx context.Context, sess storage.Session, call FunctionCall) FunctionResponse {
	result := func(status string, extra map[string]interface{}) FunctionResponse {
		outcome := "ok"
		if status == "error" {
			outcome = "error"
		}
		toolDispatches.WithLabelValues(call.Name, outcome).Inc()

		resp := map[string]interface{}{"status": status}
		for k, v := range extra {
			resp[k] = v
		}
		return FunctionResponse{Name: call.Name, Response: resp}
	}

	switch call.Name {
	case toolCreateEvent:
		ev, err := s.eventFromArgs(call.Args)
		if err != nil {
			return result("error", map[string]interface{}{"message": err.Error()})
		}
		created, err := s.controller.CreateEvent(ctx, sess, ev)
		if err != nil {
			s.log.WithError(err).WithField("tool", call.Name).Error("Tool call failed")
			return result("error", map[string]interface{}{"message": "could not create the event"})
		}
		return result("created", map[string]interface{}{"eventId": created.ID, "title": created.Title})

	case toolDeleteEvent:
		id := stringArg(call.Args, "eventId")
		if !s.controller.HasEvent(ctx, sess, id) {
			return result("error", map[string]interface{}{"message": fmt.Sprintf("no event with id %q in the current schedule", id)})
		}
		if err := s.controller.DeleteEvent(ctx, sess, id); err != nil {
			s.log.WithError(err).WithField("tool", call.Name).Error("Tool call failed")
			return result("error", map[string]interface{}{"message": "could not delete the event"})
		}
		return result("deleted", map[string]interface{}{"eventId": id})

	case toolUpdateEvent:
		id := stringArg(call.Args, "eventId")
		if !s.controller.HasEvent(ctx, sess, id) {
			return result("error", map[string]interface{}{"message": fmt.Sprintf("no event with id %q in the current schedule", id)})
		}
		updated, err := s.updateEventFromArgs(ctx, sess, id, call.Args)
		if err != nil {
			s.log.WithError(err).WithField("tool", call.Name).Error("Tool call failed")
			return result("error", map[string]interface{}{"message": "could not update the event"})
		}
		return result("updated", map[string]interface{}{"eventId": updated.ID, "title": updated.Title})

	default:
		s.log.WithField("tool", call.Name).Warn("Model requested unknown tool")
		return result("error", map[string]interface{}{"message": "unknown tool"})
	}
}

func (s *Service) eventFromArgs(args map[string]interface{}) (calendar.Event, error) {
	title := stringArg(args, "title")
	date := stringArg(args, "date")
	clock := stringArg(args, "time")
	if title == "" || date == "" {
		return calendar.Event{}, fmt.Errorf("title and date are required")
	}
	if clock == "" {
		clock = "09:00"
	}

	start, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, time.Local)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("invalid date or time: %w", err)
	}

	duration := stringArg(args, "duration")
	if duration == "" {
		duration = "1h"
	}

	return calendar.Event{
		Title:     title,
		Time:      clock,
		StartTime: start.UnixMilli(),
		Type:      calendar.EventTypePersonal,
		Duration:  duration,
	}, nil
}

func (s *Service) updateEventFromArgs(ctx context.Context, sess storage.Session, id string, args map[string]interface{}) (calendar.Event, error) {
	snap, err := s.controller.Load(ctx, sess)
	if err != nil {
		return calendar.Event{}, err
	}
	var current *calendar.Event
	for i := range snap.Events {
		if snap.Events[i].ID == id {
			current = &snap.Events[i]
			break
		}
	}
	if current == nil {
		return calendar.Event{}, calendar.ErrEventNotFound
	}

	updated := *current
	if v := stringArg(args, "title"); v != "" {
		updated.Title = v
	}
	if v := stringArg(args, "duration"); v != "" {
		updated.Duration = v
	}

	date := stringArg(args, "date")
	clock := stringArg(args, "time")
	if date != "" || clock != "" {
		base := updated.Start()
		if date == "" {
			date = base.Format("2006-01-02")
		}
		if clock == "" {
			clock = base.Format("15:04")
		}
		start, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, time.Local)
		if err != nil {
			return calendar.Event{}, fmt.Errorf("invalid date or time: %w", err)
		}
		updated.StartTime = start.UnixMilli()
		updated.Time = clock
	}

	return s.controller.UpdateEvent(ctx, sess, updated)
}
