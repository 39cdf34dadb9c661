// Package gcal wraps the external calendar provider's REST API: window
// listing plus single-event create/update/delete, with translation between
// the provider's event resource and the internal event shape.
package gcal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/ewellner/daybridge/internal/domain/calendar"
	"github.com/ewellner/daybridge/pkg/config"
)

// Rolling listing window: two months back, three months forward.
const (
	windowMonthsBack    = 2
	windowMonthsForward = 3
)

type Client struct {
	baseURL    string
	calendarID string
	http       *http.Client
	logger     *zap.Logger
}

func NewClient(cfg config.CalendarConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		calendarID: cfg.CalendarID,
		http:       &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Provider wire shapes. Start/End carry either dateTime or, for all-day
// entries, a bare date.
type providerTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
}

type providerEvent struct {
	ID       string        `json:"id,omitempty"`
	Summary  string        `json:"summary,omitempty"`
	Location string        `json:"location,omitempty"`
	Status   string        `json:"status,omitempty"`
	Start    *providerTime `json:"start,omitempty"`
	End      *providerTime `json:"end,omitempty"`
}

type providerEventList struct {
	Items []providerEvent `json:"items"`
}

// EventPatch carries the fields an update may change. Nil means untouched.
type EventPatch struct {
	Summary  *string
	Start    *time.Time
	End      *time.Time
	Location *string
}

// List fetches the provider's events in the rolling window, ordered by
// start time, and maps them to the internal shape. The provider has no
// event-type field, so every synced event lands in the work category.
func (c *Client) List(ctx context.Context, token string) ([]calendar.Event, error) {
	now := time.Now()
	timeMin := now.AddDate(0, -windowMonthsBack, 0)
	timeMax := now.AddDate(0, windowMonthsForward, 0)

	query := url.Values{}
	query.Set("timeMin", timeMin.Format(time.RFC3339))
	query.Set("timeMax", timeMax.Format(time.RFC3339))
	query.Set("singleEvents", "true")
	query.Set("orderBy", "startTime")

	endpoint := fmt.Sprintf("%s/calendars/%s/events?%s", c.baseURL, url.PathEscape(c.calendarID), query.Encode())

	var list providerEventList
	if err := c.do(ctx, http.MethodGet, endpoint, token, nil, &list); err != nil {
		return nil, err
	}

	events := make([]calendar.Event, 0, len(list.Items))
	for _, item := range list.Items {
		if item.Status == "cancelled" || item.Start == nil {
			continue
		}
		ev, ok := c.mapEvent(item)
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// Create mirrors an internal event onto the provider and returns it with
// the provider-assigned id substituted.
func (c *Client) Create(ctx context.Context, token string, ev calendar.Event) (calendar.Event, error) {
	start := ev.Start()
	end := start.Add(time.Duration(ParseDurationMinutes(ev.Duration)) * time.Minute)

	body := providerEvent{
		Summary: ev.Title,
		Start:   &providerTime{DateTime: start.Format(time.RFC3339)},
		End:     &providerTime{DateTime: end.Format(time.RFC3339)},
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events", c.baseURL, url.PathEscape(c.calendarID))

	var created providerEvent
	if err := c.do(ctx, http.MethodPost, endpoint, token, body, &created); err != nil {
		return calendar.Event{}, err
	}

	mirrored := ev
	mirrored.ID = created.ID
	return mirrored, nil
}

// Update patches an existing provider event by id.
func (c *Client) Update(ctx context.Context, token, id string, patch EventPatch) error {
	body := providerEvent{}
	if patch.Summary != nil {
		body.Summary = *patch.Summary
	}
	if patch.Start != nil {
		body.Start = &providerTime{DateTime: patch.Start.Format(time.RFC3339)}
	}
	if patch.End != nil {
		body.End = &providerTime{DateTime: patch.End.Format(time.RFC3339)}
	}
	if patch.Location != nil {
		body.Location = *patch.Location
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s", c.baseURL, url.PathEscape(c.calendarID), url.PathEscape(id))
	return c.do(ctx, http.MethodPatch, endpoint, token, body, nil)
}

// Delete removes a provider event by id.
func (c *Client) Delete(ctx context.Context, token, id string) error {
	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s", c.baseURL, url.PathEscape(c.calendarID), url.PathEscape(id))
	return c.do(ctx, http.MethodDelete, endpoint, token, nil, nil)
}

func (c *Client) mapEvent(item providerEvent) (calendar.Event, bool) {
	var start time.Time
	allDay := false

	switch {
	case item.Start.DateTime != "":
		t, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			c.logger.Warn("Skipping provider event with bad start time",
				zap.String("event_id", item.ID),
				zap.Error(err))
			return calendar.Event{}, false
		}
		start = t
	case item.Start.Date != "":
		t, err := time.ParseInLocation("2006-01-02", item.Start.Date, time.Local)
		if err != nil {
			return calendar.Event{}, false
		}
		start = t
		allDay = true
	default:
		return calendar.Event{}, false
	}

	end := start
	if item.End != nil {
		if item.End.DateTime != "" {
			if t, err := time.Parse(time.RFC3339, item.End.DateTime); err == nil {
				end = t
			}
		} else if item.End.Date != "" {
			if t, err := time.ParseInLocation("2006-01-02", item.End.Date, time.Local); err == nil {
				end = t
			}
		}
	}

	return calendar.Event{
		ID:        item.ID,
		Title:     item.Summary,
		Time:      calendar.DisplayTime(start),
		StartTime: start.UnixMilli(),
		Type:      calendar.EventTypeWork,
		Duration:  FormatDuration(start, end, allDay),
	}, true
}

// do issues one request with bearer auth; any non-2xx response is an error.
// No retry, no backoff: callers decide fallback behavior.
func (c *Client) do(ctx context.Context, method, endpoint, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gcal: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("gcal: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gcal: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("gcal: %s returned %s: %s", method, resp.Status, string(detail))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("gcal: decode response: %w", err)
		}
	}
	return nil
}
