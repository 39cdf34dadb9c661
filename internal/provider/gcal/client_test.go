package gcal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ewellner/daybridge/internal/domain/calendar"
	"github.com/ewellner/daybridge/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.CalendarConfig{BaseURL: srv.URL, CalendarID: "primary"}, zap.NewNop())
}

func TestListMapsProviderEvents(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calendars/primary/events", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "true", r.URL.Query().Get("singleEvents"))
		assert.Equal(t, "startTime", r.URL.Query().Get("orderBy"))
		assert.NotEmpty(t, r.URL.Query().Get("timeMin"))
		assert.NotEmpty(t, r.URL.Query().Get("timeMax"))

		w.Write([]byte(`{"items":[
			{"id":"ev-1","summary":"Standup","start":{"dateTime":"2026-03-10T09:30:00Z"},"end":{"dateTime":"2026-03-10T09:45:00Z"}},
			{"id":"ev-2","summary":"Offsite","start":{"date":"2026-03-12"}},
			{"id":"ev-3","summary":"Cancelled thing","status":"cancelled","start":{"dateTime":"2026-03-10T10:00:00Z"}},
			{"id":"ev-4","summary":"Bad start","start":{"dateTime":"not-a-time"}},
			{"id":"ev-5","summary":"No start"}
		]}`))
	})

	events, err := client.List(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, events, 2, "cancelled and unparsable entries are skipped")

	assert.Equal(t, "ev-1", events[0].ID)
	assert.Equal(t, "Standup", events[0].Title)
	assert.Equal(t, calendar.EventTypeWork, events[0].Type)
	assert.Equal(t, "15m", events[0].Duration)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC).UnixMilli(), events[0].StartTime)

	assert.Equal(t, "ev-2", events[1].ID)
	assert.Equal(t, calendar.AllDayDuration, events[1].Duration)
}

func TestCreateSubstitutesProviderID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Dentist", body["summary"])
		w.Write([]byte(`{"id":"prov-42","summary":"Dentist"}`))
	})

	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	ev := calendar.Event{ID: "temp-1-abcd", Title: "Dentist", StartTime: start.UnixMilli(), Duration: "1h"}

	mirrored, err := client.Create(context.Background(), "tok", ev)
	require.NoError(t, err)
	assert.Equal(t, "prov-42", mirrored.ID)
	assert.Equal(t, "Dentist", mirrored.Title)
	assert.Equal(t, ev.StartTime, mirrored.StartTime)
}

func TestUpdateSendsOnlyPatchedFields(t *testing.T) {
	var got map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/calendars/primary/events/prov-42", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	})

	title := "Dentist (moved)"
	require.NoError(t, client.Update(context.Background(), "tok", "prov-42", EventPatch{Summary: &title}))
	assert.Equal(t, "Dentist (moved)", got["summary"])
	assert.NotContains(t, got, "start")
	assert.NotContains(t, got, "end")
}

func TestDeleteSurfacesProviderErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		http.Error(w, "not found", http.StatusNotFound)
	})

	err := client.Delete(context.Background(), "tok", "prov-42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
