package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ewellner/daybridge/internal/domain/calendar"
	"github.com/ewellner/daybridge/internal/domain/dates"
	"github.com/ewellner/daybridge/internal/domain/goals"
	"github.com/ewellner/daybridge/internal/domain/habits"
	"github.com/ewellner/daybridge/internal/domain/profile"
	"github.com/ewellner/daybridge/internal/provider/gcal"
	"github.com/ewellner/daybridge/internal/storage"
	"github.com/ewellner/daybridge/internal/syncer"
	"github.com/ewellner/daybridge/pkg/config"
)

// stubStore is a minimal in-memory Store; only events carry state because
// that is all the assistant's tool calls touch.
type stubStore struct {
	events map[string]calendar.Event
}

func newStubStore() *stubStore {
	return &stubStore{events: make(map[string]calendar.Event)}
}

func (s *stubStore) Goals(context.Context, string) ([]goals.Goal, error)    { return nil, nil }
func (s *stubStore) PutGoal(context.Context, string, goals.Goal) error      { return nil }
func (s *stubStore) DeleteGoal(context.Context, string, string) error       { return nil }
func (s *stubStore) Habits(context.Context, string) ([]habits.Habit, error) { return nil, nil }
func (s *stubStore) PutHabit(context.Context, string, habits.Habit) error   { return nil }
func (s *stubStore) DeleteHabit(context.Context, string, string) error      { return nil }
func (s *stubStore) HabitLogs(context.Context, string) (map[string]habits.Log, error) {
	return nil, nil
}
func (s *stubStore) PutHabitLog(context.Context, string, habits.Log) error { return nil }
func (s *stubStore) DeleteHabitLog(context.Context, string, string) error  { return nil }

func (s *stubStore) Events(context.Context, string) ([]calendar.Event, error) {
	out := make([]calendar.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	return out, nil
}

func (s *stubStore) PutEvent(_ context.Context, _ string, e calendar.Event) error {
	s.events[e.ID] = e
	return nil
}

func (s *stubStore) DeleteEvent(_ context.Context, _ string, id string) error {
	delete(s.events, id)
	return nil
}

func (s *stubStore) ReplaceEvents(_ context.Context, _ string, events []calendar.Event) error {
	next := make(map[string]calendar.Event, len(events))
	for _, e := range events {
		next[e.ID] = e
	}
	s.events = next
	return nil
}

func (s *stubStore) Dates(context.Context, string) ([]dates.ImportantDate, error) { return nil, nil }
func (s *stubStore) PutDate(context.Context, string, dates.ImportantDate) error   { return nil }
func (s *stubStore) DeleteDate(context.Context, string, string) error             { return nil }
func (s *stubStore) Profile(context.Context, string) (*profile.Profile, error) {
	return nil, storage.ErrNotFound
}
func (s *stubStore) PutProfile(context.Context, string, profile.Profile) error { return nil }

type stubProvider struct{}

func (stubProvider) List(context.Context, string) ([]calendar.Event, error) { return nil, nil }
func (stubProvider) Create(_ context.Context, _ string, ev calendar.Event) (calendar.Event, error) {
	ev.ID = "prov-1"
	return ev, nil
}
func (stubProvider) Update(context.Context, string, string, gcal.EventPatch) error { return nil }
func (stubProvider) Delete(context.Context, string, string) error                  { return nil }

// fakeBackend serves queued generateContent responses and records the
// request bodies it saw.
type fakeBackend struct {
	t         *testing.T
	responses []Content
	requests  []generateRequest
	status    int
}

func (f *fakeBackend) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
		f.requests = append(f.requests, req)

		if f.status != 0 {
			w.WriteHeader(f.status)
			return
		}
		require.NotEmpty(f.t, f.responses, "backend received more calls than queued responses")
		next := f.responses[0]
		f.responses = f.responses[1:]
		json.NewEncoder(w).Encode(generateResponse{Candidates: []candidate{{Content: next}}})
	}
}

type serviceFixture struct {
	service *Service
	backend *fakeBackend
	store   *stubStore
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	backend := &fakeBackend{t: t}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	store := newStubStore()
	controller := syncer.NewController(storage.NewSelector(newStubStore(), store), stubProvider{}, zap.NewNop())
	client := NewClient(config.AssistantConfig{BaseURL: srv.URL, Model: "test-model", APIKey: "k"}, log)

	service := NewService(client, controller, log)
	// Keep the post-tool refresh goroutine asleep past the test.
	service.resyncDelay = time.Hour
	return &serviceFixture{service: service, backend: backend, store: store}
}

func textContent(s string) Content {
	return Content{Role: "model", Parts: []Part{{Text: s}}}
}

func callContent(name string, args map[string]interface{}) Content {
	return Content{Role: "model", Parts: []Part{{FunctionCall: &FunctionCall{Name: name, Args: args}}}}
}

func linkedSession() storage.Session {
	return storage.Session{UID: "user-1", CalendarToken: "tok"}
}

func TestChatPlainAnswer(t *testing.T) {
	f := newServiceFixture(t)
	f.backend.responses = []Content{textContent("You have a quiet afternoon.")}

	reply := f.service.Chat(context.Background(), linkedSession(), nil, "What's my day like?")
	assert.Equal(t, "You have a quiet afternoon.", reply)
	require.Len(t, f.backend.requests, 1)
	assert.NotNil(t, f.backend.requests[0].SystemInstruction, "dashboard state rides in the system instruction")
	assert.NotEmpty(t, f.backend.requests[0].Tools)
}

func TestChatToolCallWithoutTokenShortCircuits(t *testing.T) {
	f := newServiceFixture(t)
	f.backend.responses = []Content{
		callContent(toolCreateEvent, map[string]interface{}{
			"title": "Lunch", "date": "2026-03-11", "time": "12:00",
		}),
	}

	sess := storage.Session{UID: "user-1"}
	reply := f.service.Chat(context.Background(), sess, nil, "Add lunch tomorrow")
	assert.Equal(t, connectCalendarReply, reply)
	assert.Len(t, f.backend.requests, 1, "no confirmation turn without a token")
	assert.Empty(t, f.store.events, "nothing is created without a token")
}

func TestChatToolCallCreatesEventAndConfirms(t *testing.T) {
	f := newServiceFixture(t)
	f.backend.responses = []Content{
		callContent(toolCreateEvent, map[string]interface{}{
			"title": "Lunch", "date": "2026-03-11", "time": "12:00", "duration": "30m",
		}),
		textContent("Done, lunch is on your calendar."),
	}

	reply := f.service.Chat(context.Background(), linkedSession(), nil, "Add lunch tomorrow")
	assert.Equal(t, "Done, lunch is on your calendar.", reply)
	require.Len(t, f.backend.requests, 2)

	// The confirmation turn carries the tool result back to the model.
	second := f.backend.requests[1]
	last := second.Contents[len(second.Contents)-1]
	require.Len(t, last.Parts, 1)
	require.NotNil(t, last.Parts[0].FunctionResponse)
	assert.Equal(t, "created", last.Parts[0].FunctionResponse.Response["status"])

	require.Len(t, f.store.events, 1)
	for _, ev := range f.store.events {
		assert.Equal(t, "Lunch", ev.Title)
		assert.Equal(t, "30m", ev.Duration)
	}
}

func TestChatBackendFailureFallsBack(t *testing.T) {
	f := newServiceFixture(t)
	f.backend.status = http.StatusInternalServerError

	reply := f.service.Chat(context.Background(), linkedSession(), nil, "Hello")
	assert.Equal(t, fallbackReply, reply)
}

func TestDispatchRejectsUnknownEventID(t *testing.T) {
	f := newServiceFixture(t)
	sess := linkedSession()

	resp := f.service.dispatch(context.Background(), sess, FunctionCall{
		Name: toolDeleteEvent,
		Args: map[string]interface{}{"eventId": "not-a-real-id"},
	})
	assert.Equal(t, "error", resp.Response["status"])

	resp = f.service.dispatch(context.Background(), sess, FunctionCall{
		Name: toolUpdateEvent,
		Args: map[string]interface{}{"eventId": "not-a-real-id", "title": "x"},
	})
	assert.Equal(t, "error", resp.Response["status"])
}

func TestDispatchUnknownToolName(t *testing.T) {
	f := newServiceFixture(t)
	resp := f.service.dispatch(context.Background(), linkedSession(), FunctionCall{Name: "format_disk"})
	assert.Equal(t, "error", resp.Response["status"])
}

func TestBriefingFallsBackOnError(t *testing.T) {
	f := newServiceFixture(t)
	f.backend.status = http.StatusBadGateway

	out := f.service.Briefing(context.Background(), linkedSession(), profile.BriefingStyleConcise)
	assert.Equal(t, fallbackBriefing, out)
}

func TestBriefingReturnsFragment(t *testing.T) {
	f := newServiceFixture(t)
	f.backend.responses = []Content{textContent("<p>Busy morning, clear afternoon.</p>")}

	out := f.service.Briefing(context.Background(), linkedSession(), profile.BriefingStyleDetailed)
	assert.Equal(t, "<p>Busy morning, clear afternoon.</p>", out)
}

func TestSuggestionsRequireStrictJSON(t *testing.T) {
	f := newServiceFixture(t)
	f.backend.responses = []Content{textContent(`[{"title":"Walk","category":"health","icon":"🚶","reason":"supports your fitness goal"}]`)}

	got := f.service.Suggestions(context.Background(), linkedSession())
	require.Len(t, got, 1)
	assert.Equal(t, "Walk", got[0].Title)
	require.Len(t, f.backend.requests, 1)
	require.NotNil(t, f.backend.requests[0].GenerationConfig)
	assert.Equal(t, "application/json", f.backend.requests[0].GenerationConfig.ResponseMIMEType)
}

func TestSuggestionsDegradeOnProseResponse(t *testing.T) {
	f := newServiceFixture(t)
	f.backend.responses = []Content{textContent("Here are some ideas: walking, reading.")}

	assert.Nil(t, f.service.Suggestions(context.Background(), linkedSession()))
}

func TestPlanSkipsMalformedSlots(t *testing.T) {
	f := newServiceFixture(t)
	f.backend.responses = []Content{textContent(`[
		{"title":"Deep work","date":"2026-03-11","time":"09:00","duration":"2h"},
		{"title":"Broken","date":"soon","time":"later","duration":"1h"}
	]`)}

	created, err := f.service.Plan(context.Background(), linkedSession(), "Plan my morning")
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "Deep work", created[0].Title)
	assert.Equal(t, "2h", created[0].Duration)
}
