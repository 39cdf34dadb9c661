package localstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewellner/daybridge/internal/domain/calendar"
	"github.com/ewellner/daybridge/internal/domain/goals"
	"github.com/ewellner/daybridge/internal/domain/habits"
	"github.com/ewellner/daybridge/internal/domain/profile"
	"github.com/ewellner/daybridge/internal/storage"
)

func TestMissingBlobsReadAsEmptyCollections(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	gs, err := s.Goals(ctx, "guest-1")
	require.NoError(t, err)
	assert.Empty(t, gs)

	logs, err := s.HabitLogs(ctx, "guest-1")
	require.NoError(t, err)
	assert.Empty(t, logs)

	_, err = s.Profile(ctx, "guest-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGoalRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()
	uid := "guest-1"

	g := goals.Goal{ID: "g-1", Title: "Read", Target: 12, Progress: 3,
		Subgoals: []goals.Subgoal{{ID: "sg-1", Title: "Pick a book", Completed: true}}}
	require.NoError(t, s.PutGoal(ctx, uid, g))

	// Put with the same id replaces, not appends.
	g.Progress = 4
	require.NoError(t, s.PutGoal(ctx, uid, g))

	got, err := s.Goals(ctx, uid)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, g, got[0])

	require.NoError(t, s.DeleteGoal(ctx, uid, g.ID))
	got, err = s.Goals(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHabitLogsKeyedByComposite(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()
	uid := "guest-1"

	l := habits.Log{HabitID: "h-1", Date: "2026-03-10", Completed: true}
	require.NoError(t, s.PutHabitLog(ctx, uid, l))

	logs, err := s.HabitLogs(ctx, uid)
	require.NoError(t, err)
	got, ok := logs[habits.LogKey("h-1", "2026-03-10")]
	require.True(t, ok)
	assert.Equal(t, l, got)

	require.NoError(t, s.DeleteHabitLog(ctx, uid, l.Key()))
	logs, err = s.HabitLogs(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestReplaceEventsOverwritesCollection(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()
	uid := "guest-1"

	require.NoError(t, s.PutEvent(ctx, uid, calendar.Event{ID: "old", Title: "Old"}))
	require.NoError(t, s.ReplaceEvents(ctx, uid, []calendar.Event{
		{ID: "new-1", Title: "New"},
		{ID: "new-2", Title: "Newer"},
	}))

	evs, err := s.Events(ctx, uid)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	ids := []string{evs[0].ID, evs[1].ID}
	assert.ElementsMatch(t, []string{"new-1", "new-2"}, ids)
}

func TestCollectionsAreScopedByUID(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	require.NoError(t, s.PutGoal(ctx, "guest-1", goals.Goal{ID: "g-1", Title: "Mine", Target: 1}))

	other, err := s.Goals(ctx, "guest-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestProfileRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()
	uid := "guest-1"

	p := profile.Profile{UID: uid, DisplayName: "Guest", Guest: true, Dashboard: profile.DefaultDashboard()}
	require.NoError(t, s.PutProfile(ctx, uid, p))

	got, err := s.Profile(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, p, *got)
}

func TestEraseDropsAllCollections(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()
	uid := "guest-1"

	require.NoError(t, s.PutGoal(ctx, uid, goals.Goal{ID: "g-1", Title: "Read", Target: 1}))
	require.NoError(t, s.PutEvent(ctx, uid, calendar.Event{ID: "e-1", Title: "Dentist"}))
	require.NoError(t, s.Erase(ctx, uid))

	gs, err := s.Goals(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, gs)
	evs, err := s.Events(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, evs)
}
