package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ewellner/daybridge/internal/domain/calendar"
	"github.com/ewellner/daybridge/internal/domain/profile"
	"github.com/ewellner/daybridge/internal/storage"
	"github.com/ewellner/daybridge/internal/syncer"
)

// fallbackReply is returned whenever the chat pipeline fails; the caller
// never sees a raw backend error.
const fallbackReply = "Sorry, I ran into a problem handling that. Please try again in a moment."

// fallbackBriefing is served when the briefing generation fails.
const fallbackBriefing = "<p>Good morning! I couldn't reach your assistant just now, " +
	"but your dashboard below is up to date. Have a great day.</p>"

const connectCalendarReply = "I can do that once your calendar is connected. " +
	"Link your account from the dashboard settings and ask me again."

// resyncDelay gives the provider time to settle before the post-tool
// refresh fetches the authoritative window.
const resyncDelay = time.Second

// Service is the conversational layer over the generative backend. Calendar
// mutations requested by the model are executed through the sync controller.
type Service struct {
	client     *Client
	controller *syncer.Controller
	log        *logrus.Logger

	now         func() time.Time
	resyncDelay time.Duration
}

func NewService(client *Client, controller *syncer.Controller, log *logrus.Logger) *Service {
	return &Service{
		client:      client,
		controller:  controller,
		log:         log,
		now:         time.Now,
		resyncDelay: resyncDelay,
	}
}

// systemContext renders the dashboard state and the clock into the system
// instruction so the model grounds its answers and tool arguments in real
// ids and times.
func (s *Service) systemContext(ctx context.Context, sess storage.Session) (*Content, error) {
	snap, err := s.controller.Load(ctx, sess)
	if err != nil {
		return nil, err
	}
	state, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}

	now := s.now()
	instruction := fmt.Sprintf(
		"You are a personal productivity assistant embedded in the user's dashboard.\n"+
			"Current date and time: %s (%s).\n"+
			"The user's dashboard state as JSON (goals, habits, habit logs, calendar events, important dates):\n%s\n"+
			"When referring to or modifying calendar events, always use the event ids from this state. "+
			"Be concise and friendly.",
		now.Format("Monday, January 2, 2006 15:04"), now.Location(), state)

	return &Content{Parts: []Part{{Text: instruction}}}, nil
}

// Chat runs one conversational turn. The model may answer directly or
// request calendar tool calls; tool calls are executed in order and their
// results fed back for a confirmation turn. Calendar tools require a linked
// calendar; without a token the turn short-circuits with an explanation
// instead of dispatching anything.
func (s *Service) Chat(ctx context.Context, sess storage.Session, history []Content, message string) string {
	reply, err := s.chat(ctx, sess, history, message)
	if err != nil {
		s.log.WithError(err).Error("Chat turn failed")
		return fallbackReply
	}
	return reply
}

func (s *Service) chat(ctx context.Context, sess storage.Session, history []Content, message string) (string, error) {
	system, err := s.systemContext(ctx, sess)
	if err != nil {
		return "", err
	}

	contents := append([]Content{}, history...)
	contents = append(contents, Content{Role: "user", Parts: []Part{{Text: message}}})

	first, err := s.client.generate(ctx, generateRequest{
		Contents:          contents,
		Tools:             calendarTools(),
		SystemInstruction: system,
	})
	if err != nil {
		return "", err
	}

	calls := functionCalls(first)
	if len(calls) == 0 {
		return text(first), nil
	}

	if sess.CalendarToken == "" {
		return connectCalendarReply, nil
	}

	results := make([]Part, 0, len(calls))
	for _, call := range calls {
		s.log.WithFields(logrus.Fields{
			"tool": call.Name,
			"uid":  sess.UID,
		}).Info("Dispatching assistant tool call")
		resp := s.dispatch(ctx, sess, call)
		results = append(results, Part{FunctionResponse: &resp})
	}

	// The provider needs a beat before its listing reflects the writes.
	go func() {
		time.Sleep(s.resyncDelay)
		bg, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if _, err := s.controller.RefreshCalendar(bg, sess); err != nil {
			s.log.WithError(err).Warn("Post-tool calendar refresh failed")
		}
	}()

	contents = append(contents, first)
	contents = append(contents, Content{Role: "user", Parts: results})

	second, err := s.client.generate(ctx, generateRequest{
		Contents:          contents,
		Tools:             calendarTools(),
		SystemInstruction: system,
	})
	if err != nil {
		return "", err
	}
	return text(second), nil
}

// Briefing generates the morning briefing as a small HTML fragment in the
// requested style. Failures degrade to a canned fragment.
func (s *Service) Briefing(ctx context.Context, sess storage.Session, style profile.BriefingStyle) string {
	system, err := s.systemContext(ctx, sess)
	if err != nil {
		s.log.WithError(err).Error("Briefing state load failed")
		return fallbackBriefing
	}

	tone := "warm and encouraging"
	switch style {
	case profile.BriefingStyleConcise:
		tone = "brief and to the point"
	case profile.BriefingStyleDetailed:
		tone = "thorough, walking through the day hour by hour"
	}

	prompt := fmt.Sprintf(
		"Write a short morning briefing for the user based on their dashboard state. "+
			"Mention today's schedule, goal progress worth noting and habit streaks. "+
			"Tone: %s. Respond with a small HTML fragment using only <p>, <strong> and <ul>/<li> tags. "+
			"No markdown, no <html> or <body> wrapper.", tone)

	out, err := s.client.generate(ctx, generateRequest{
		Contents:          []Content{{Role: "user", Parts: []Part{{Text: prompt}}}},
		SystemInstruction: system,
	})
	if err != nil {
		s.log.WithError(err).Error("Briefing generation failed")
		return fallbackBriefing
	}
	fragment := strings.TrimSpace(text(out))
	if fragment == "" {
		return fallbackBriefing
	}
	return fragment
}

// Suggestion is one recommended habit.
type Suggestion struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Icon     string `json:"icon"`
	Reason   string `json:"reason"`
}

// Suggestions asks the model for habit recommendations grounded in the
// user's goals. The response must be a strict JSON array; anything else
// degrades to no suggestions.
func (s *Service) Suggestions(ctx context.Context, sess storage.Session) []Suggestion {
	system, err := s.systemContext(ctx, sess)
	if err != nil {
		s.log.WithError(err).Error("Suggestions state load failed")
		return nil
	}

	prompt := "Suggest up to 3 new daily habits that would help the user reach their current goals. " +
		"Do not repeat habits they already track. Respond with a JSON array of objects with keys " +
		"\"title\", \"category\", \"icon\" (a single emoji) and \"reason\"."

	out, err := s.client.generate(ctx, generateRequest{
		Contents:          []Content{{Role: "user", Parts: []Part{{Text: prompt}}}},
		SystemInstruction: system,
		GenerationConfig:  &GenerationConfig{ResponseMIMEType: "application/json"},
	})
	if err != nil {
		s.log.WithError(err).Error("Suggestion generation failed")
		return nil
	}

	var suggestions []Suggestion
	if err := json.Unmarshal([]byte(strings.TrimSpace(text(out))), &suggestions); err != nil {
		s.log.WithError(err).Warn("Suggestion response was not a JSON array")
		return nil
	}
	return suggestions
}

// plannedEvent is the model's JSON shape for one planned slot.
type plannedEvent struct {
	Title    string `json:"title"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Duration string `json:"duration"`
}

// Plan asks the model to block out the user's day from a free-form prompt
// and creates the resulting events as a batch.
func (s *Service) Plan(ctx context.Context, sess storage.Session, prompt string) ([]calendar.Event, error) {
	system, err := s.systemContext(ctx, sess)
	if err != nil {
		return nil, err
	}

	instruction := fmt.Sprintf(
		"Plan the user's day based on this request: %q. Avoid overlapping their existing events. "+
			"Respond with a JSON array of objects with keys \"title\", \"date\" (YYYY-MM-DD), "+
			"\"time\" (24-hour HH:MM) and \"duration\" (such as \"1h\" or \"30m\").", prompt)

	out, err := s.client.generate(ctx, generateRequest{
		Contents:          []Content{{Role: "user", Parts: []Part{{Text: instruction}}}},
		SystemInstruction: system,
		GenerationConfig:  &GenerationConfig{ResponseMIMEType: "application/json"},
	})
	if err != nil {
		return nil, fmt.Errorf("plan generation failed: %w", err)
	}

	var planned []plannedEvent
	if err := json.Unmarshal([]byte(strings.TrimSpace(text(out))), &planned); err != nil {
		return nil, fmt.Errorf("plan response was not a JSON array: %w", err)
	}

	events := make([]calendar.Event, 0, len(planned))
	for _, p := range planned {
		start, err := time.ParseInLocation("2006-01-02 15:04", p.Date+" "+p.Time, time.Local)
		if err != nil {
			s.log.WithFields(logrus.Fields{"title": p.Title, "date": p.Date, "time": p.Time}).
				Warn("Skipping planned event with bad date or time")
			continue
		}
		events = append(events, calendar.Event{
			Title:     p.Title,
			Time:      p.Time,
			StartTime: start.UnixMilli(),
			Type:      calendar.EventTypePersonal,
			Duration:  p.Duration,
		})
	}

	created, err := s.controller.CreateEvents(ctx, sess, events)
	if err != nil {
		s.log.WithError(err).Warn("Some planned events failed to create")
	}
	return created, nil
}
