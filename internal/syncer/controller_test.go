package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

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
)

// memStore is an in-memory Store used to observe what the controller
// persists and to which backend.
type memStore struct {
	goals    map[string]map[string]goals.Goal
	habits   map[string]map[string]habits.Habit
	logs     map[string]map[string]habits.Log
	events   map[string]map[string]calendar.Event
	dates    map[string]map[string]dates.ImportantDate
	profiles map[string]profile.Profile

	putGoalErr  error
	putEventErr error
	replaced    [][]calendar.Event
}

func newMemStore() *memStore {
	return &memStore{
		goals:    make(map[string]map[string]goals.Goal),
		habits:   make(map[string]map[string]habits.Habit),
		logs:     make(map[string]map[string]habits.Log),
		events:   make(map[string]map[string]calendar.Event),
		dates:    make(map[string]map[string]dates.ImportantDate),
		profiles: make(map[string]profile.Profile),
	}
}

func (m *memStore) Goals(_ context.Context, uid string) ([]goals.Goal, error) {
	out := make([]goals.Goal, 0, len(m.goals[uid]))
	for _, g := range m.goals[uid] {
		out = append(out, g)
	}
	return out, nil
}

func (m *memStore) PutGoal(_ context.Context, uid string, g goals.Goal) error {
	if m.putGoalErr != nil {
		return m.putGoalErr
	}
	if m.goals[uid] == nil {
		m.goals[uid] = make(map[string]goals.Goal)
	}
	m.goals[uid][g.ID] = g
	return nil
}

func (m *memStore) DeleteGoal(_ context.Context, uid, id string) error {
	delete(m.goals[uid], id)
	return nil
}

func (m *memStore) Habits(_ context.Context, uid string) ([]habits.Habit, error) {
	out := make([]habits.Habit, 0, len(m.habits[uid]))
	for _, h := range m.habits[uid] {
		out = append(out, h)
	}
	return out, nil
}

func (m *memStore) PutHabit(_ context.Context, uid string, h habits.Habit) error {
	if m.habits[uid] == nil {
		m.habits[uid] = make(map[string]habits.Habit)
	}
	m.habits[uid][h.ID] = h
	return nil
}

func (m *memStore) DeleteHabit(_ context.Context, uid, id string) error {
	delete(m.habits[uid], id)
	return nil
}

func (m *memStore) HabitLogs(_ context.Context, uid string) (map[string]habits.Log, error) {
	out := make(map[string]habits.Log, len(m.logs[uid]))
	for k, l := range m.logs[uid] {
		out[k] = l
	}
	return out, nil
}

func (m *memStore) PutHabitLog(_ context.Context, uid string, l habits.Log) error {
	if m.logs[uid] == nil {
		m.logs[uid] = make(map[string]habits.Log)
	}
	m.logs[uid][l.Key()] = l
	return nil
}

func (m *memStore) DeleteHabitLog(_ context.Context, uid, key string) error {
	delete(m.logs[uid], key)
	return nil
}

func (m *memStore) Events(_ context.Context, uid string) ([]calendar.Event, error) {
	out := make([]calendar.Event, 0, len(m.events[uid]))
	for _, e := range m.events[uid] {
		out = append(out, e)
	}
	return out, nil
}

func (m *memStore) PutEvent(_ context.Context, uid string, e calendar.Event) error {
	if m.putEventErr != nil {
		return m.putEventErr
	}
	if m.events[uid] == nil {
		m.events[uid] = make(map[string]calendar.Event)
	}
	m.events[uid][e.ID] = e
	return nil
}

func (m *memStore) DeleteEvent(_ context.Context, uid, id string) error {
	delete(m.events[uid], id)
	return nil
}

func (m *memStore) ReplaceEvents(_ context.Context, uid string, events []calendar.Event) error {
	next := make(map[string]calendar.Event, len(events))
	for _, e := range events {
		next[e.ID] = e
	}
	m.events[uid] = next
	m.replaced = append(m.replaced, events)
	return nil
}

func (m *memStore) Dates(_ context.Context, uid string) ([]dates.ImportantDate, error) {
	out := make([]dates.ImportantDate, 0, len(m.dates[uid]))
	for _, d := range m.dates[uid] {
		out = append(out, d)
	}
	return out, nil
}

func (m *memStore) PutDate(_ context.Context, uid string, d dates.ImportantDate) error {
	if m.dates[uid] == nil {
		m.dates[uid] = make(map[string]dates.ImportantDate)
	}
	m.dates[uid][d.ID] = d
	return nil
}

func (m *memStore) DeleteDate(_ context.Context, uid, id string) error {
	delete(m.dates[uid], id)
	return nil
}

func (m *memStore) Profile(_ context.Context, uid string) (*profile.Profile, error) {
	p, ok := m.profiles[uid]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

func (m *memStore) PutProfile(_ context.Context, uid string, p profile.Profile) error {
	m.profiles[uid] = p
	return nil
}

// fakeProvider records mirror calls and can be primed to fail.
type fakeProvider struct {
	listEvents []calendar.Event
	listErr    error
	createErr  error
	nextID     string

	creates []calendar.Event
	updates []string
	deletes []string
}

func (f *fakeProvider) List(_ context.Context, _ string) ([]calendar.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listEvents, nil
}

func (f *fakeProvider) Create(_ context.Context, _ string, ev calendar.Event) (calendar.Event, error) {
	f.creates = append(f.creates, ev)
	if f.createErr != nil {
		return calendar.Event{}, f.createErr
	}
	ev.ID = f.nextID
	return ev, nil
}

func (f *fakeProvider) Update(_ context.Context, _ string, id string, _ gcal.EventPatch) error {
	f.updates = append(f.updates, id)
	return nil
}

func (f *fakeProvider) Delete(_ context.Context, _ string, id string) error {
	f.deletes = append(f.deletes, id)
	return nil
}

type fixture struct {
	controller *Controller
	local      *memStore
	remote     *memStore
	provider   *fakeProvider
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		local:    newMemStore(),
		remote:   newMemStore(),
		provider: &fakeProvider{nextID: "prov-1"},
		now:      time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	f.controller = NewController(storage.NewSelector(f.local, f.remote), f.provider, zap.NewNop())
	f.controller.now = func() time.Time { return f.now }
	return f
}

func guestSession() storage.Session {
	return storage.Session{UID: "guest-1", Guest: true}
}

func linkedSession() storage.Session {
	return storage.Session{UID: "user-1", CalendarToken: "tok"}
}

func day(t time.Time, offset int) string {
	return t.AddDate(0, 0, offset).Format(habits.DateLayout)
}

func TestGoalProgressClamping(t *testing.T) {
	f := newFixture(t)
	sess := guestSession()
	ctx := context.Background()

	g, err := f.controller.CreateGoal(ctx, sess, goals.Goal{Title: "Read", Target: 2})
	require.NoError(t, err)
	require.NotEmpty(t, g.ID)

	for i := 0; i < 5; i++ {
		g, err = f.controller.IncrementGoal(ctx, sess, g.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, g.Progress, "progress never exceeds target")

	for i := 0; i < 5; i++ {
		g, err = f.controller.DecrementGoal(ctx, sess, g.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, g.Progress, "progress never goes negative")

	// Guest mutations land in the local store only.
	assert.Equal(t, 0, f.local.goals[sess.UID][g.ID].Progress)
	assert.Empty(t, f.remote.goals)
}

func TestCreateGoalRejectsInvalidTarget(t *testing.T) {
	f := newFixture(t)
	_, err := f.controller.CreateGoal(context.Background(), guestSession(), goals.Goal{Title: "Bad"})
	assert.ErrorIs(t, err, goals.ErrInvalidTarget)
}

func TestToggleSubgoalLeavesProgressAlone(t *testing.T) {
	f := newFixture(t)
	sess := guestSession()
	ctx := context.Background()

	g, err := f.controller.CreateGoal(ctx, sess, goals.Goal{
		Title:    "Ship",
		Target:   10,
		Progress: 4,
		Subgoals: []goals.Subgoal{{ID: "sg-1", Title: "Draft"}},
	})
	require.NoError(t, err)

	g, err = f.controller.ToggleSubgoal(ctx, sess, g.ID, "sg-1")
	require.NoError(t, err)
	assert.True(t, g.Subgoals[0].Completed)
	assert.Equal(t, 4, g.Progress)

	_, err = f.controller.ToggleSubgoal(ctx, sess, g.ID, "missing")
	assert.ErrorIs(t, err, goals.ErrSubgoalNotFound)
}

func TestToggleHabitUpsertsAndDeletesLogs(t *testing.T) {
	f := newFixture(t)
	sess := guestSession()
	ctx := context.Background()

	h, err := f.controller.CreateHabit(ctx, sess, habits.Habit{Title: "Run"})
	require.NoError(t, err)

	h, err = f.controller.ToggleHabit(ctx, sess, h.ID, "", nil, "")
	require.NoError(t, err)
	assert.Equal(t, 1, h.Streak)

	key := habits.LogKey(h.ID, f.now.Format(habits.DateLayout))
	_, ok := f.local.logs[sess.UID][key]
	assert.True(t, ok, "completing writes a log record")

	// Toggling the same day again removes the log instead of flagging it.
	h, err = f.controller.ToggleHabit(ctx, sess, h.ID, "", nil, "")
	require.NoError(t, err)
	assert.Equal(t, 0, h.Streak)
	_, ok = f.local.logs[sess.UID][key]
	assert.False(t, ok)
}

func TestToggleHabitExplicitFlagIsIdempotent(t *testing.T) {
	f := newFixture(t)
	sess := guestSession()
	ctx := context.Background()

	g, err := f.controller.CreateGoal(ctx, sess, goals.Goal{Title: "Fitness", Target: 5})
	require.NoError(t, err)
	h, err := f.controller.CreateHabit(ctx, sess, habits.Habit{Title: "Run", LinkedGoalIDs: []string{g.ID}})
	require.NoError(t, err)

	yes, no := true, false
	key := habits.LogKey(h.ID, f.now.Format(habits.DateLayout))

	// Setting completed twice keeps the log and moves the goal only once.
	for i := 0; i < 2; i++ {
		h, err = f.controller.ToggleHabit(ctx, sess, h.ID, "", &yes, "felt great")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, h.Streak)
	assert.Equal(t, 1, f.local.goals[sess.UID][g.ID].Progress)
	assert.Equal(t, "felt great", f.local.logs[sess.UID][key].Note)

	// Clearing twice deletes the log once and never underflows the goal.
	for i := 0; i < 2; i++ {
		h, err = f.controller.ToggleHabit(ctx, sess, h.ID, "", &no, "")
		require.NoError(t, err)
	}
	assert.Equal(t, 0, h.Streak)
	assert.Equal(t, 0, f.local.goals[sess.UID][g.ID].Progress)
	_, ok := f.local.logs[sess.UID][key]
	assert.False(t, ok)
}

func TestToggleHabitRejectsBadDate(t *testing.T) {
	f := newFixture(t)
	sess := guestSession()
	h, err := f.controller.CreateHabit(context.Background(), sess, habits.Habit{Title: "Run"})
	require.NoError(t, err)

	_, err = f.controller.ToggleHabit(context.Background(), sess, h.ID, "10/03/2026", nil, "")
	assert.Error(t, err)
}

func TestStreakCountsConsecutiveDaysOnly(t *testing.T) {
	f := newFixture(t)
	sess := guestSession()
	ctx := context.Background()

	h, err := f.controller.CreateHabit(ctx, sess, habits.Habit{Title: "Meditate"})
	require.NoError(t, err)

	// Today, yesterday, and the day before: a three-day run.
	for _, offset := range []int{0, -1, -2} {
		h, err = f.controller.ToggleHabit(ctx, sess, h.ID, day(f.now, offset), nil, "")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, h.Streak)

	// Removing yesterday leaves only today before the gap.
	h, err = f.controller.ToggleHabit(ctx, sess, h.ID, day(f.now, -1), nil, "")
	require.NoError(t, err)
	assert.Equal(t, 1, h.Streak)
}

func TestRecomputeStreaksIsIdempotent(t *testing.T) {
	f := newFixture(t)
	sess := guestSession()
	ctx := context.Background()

	h, err := f.controller.CreateHabit(ctx, sess, habits.Habit{Title: "Stretch"})
	require.NoError(t, err)
	_, err = f.controller.ToggleHabit(ctx, sess, h.ID, day(f.now, 0), nil, "")
	require.NoError(t, err)
	_, err = f.controller.ToggleHabit(ctx, sess, h.ID, day(f.now, -1), nil, "")
	require.NoError(t, err)

	require.NoError(t, f.controller.RecomputeStreaks(ctx, sess))
	first := f.local.habits[sess.UID][h.ID].Streak
	require.NoError(t, f.controller.RecomputeStreaks(ctx, sess))
	assert.Equal(t, first, f.local.habits[sess.UID][h.ID].Streak)
	assert.Equal(t, 2, first)
}

func TestToggleHabitAdjustsLinkedGoals(t *testing.T) {
	f := newFixture(t)
	sess := guestSession()
	ctx := context.Background()

	g1, err := f.controller.CreateGoal(ctx, sess, goals.Goal{Title: "Fitness", Target: 3, Progress: 2})
	require.NoError(t, err)
	g2, err := f.controller.CreateGoal(ctx, sess, goals.Goal{Title: "Books", Target: 5})
	require.NoError(t, err)

	h, err := f.controller.CreateHabit(ctx, sess, habits.Habit{
		Title:         "Gym",
		LinkedGoalIDs: []string{g1.ID, g2.ID, "no-such-goal"},
	})
	require.NoError(t, err)

	_, err = f.controller.ToggleHabit(ctx, sess, h.ID, "", nil, "")
	require.NoError(t, err)
	assert.Equal(t, 3, f.local.goals[sess.UID][g1.ID].Progress)
	assert.Equal(t, 1, f.local.goals[sess.UID][g2.ID].Progress)

	// A second completion day; g1 is already at target and stays clamped.
	_, err = f.controller.ToggleHabit(ctx, sess, h.ID, day(f.now, -1), nil, "")
	require.NoError(t, err)
	assert.Equal(t, 3, f.local.goals[sess.UID][g1.ID].Progress)
	assert.Equal(t, 2, f.local.goals[sess.UID][g2.ID].Progress)

	// Un-completing walks both goals back down.
	_, err = f.controller.ToggleHabit(ctx, sess, h.ID, "", nil, "")
	require.NoError(t, err)
	assert.Equal(t, 2, f.local.goals[sess.UID][g1.ID].Progress)
	assert.Equal(t, 1, f.local.goals[sess.UID][g2.ID].Progress)
}

func TestLinkedGoalWriteFailureDoesNotFailToggle(t *testing.T) {
	f := newFixture(t)
	sess := guestSession()
	ctx := context.Background()

	g, err := f.controller.CreateGoal(ctx, sess, goals.Goal{Title: "Fitness", Target: 3})
	require.NoError(t, err)
	h, err := f.controller.CreateHabit(ctx, sess, habits.Habit{Title: "Gym", LinkedGoalIDs: []string{g.ID}})
	require.NoError(t, err)

	f.local.putGoalErr = errors.New("disk full")
	toggled, err := f.controller.ToggleHabit(ctx, sess, h.ID, "", nil, "")
	require.NoError(t, err)
	assert.Equal(t, 1, toggled.Streak)

	// The in-memory goal moved even though the write failed.
	snap, err := f.controller.Load(ctx, sess)
	require.NoError(t, err)
	require.Len(t, snap.Goals, 1)
	assert.Equal(t, 1, snap.Goals[0].Progress)
}

func TestPersistFailureKeepsOptimisticState(t *testing.T) {
	f := newFixture(t)
	sess := guestSession()
	ctx := context.Background()

	f.local.putGoalErr = errors.New("disk full")
	g, err := f.controller.CreateGoal(ctx, sess, goals.Goal{Title: "Read", Target: 5})
	require.NoError(t, err, "a failed backend write is logged, not surfaced")
	assert.NotEmpty(t, g.ID)

	f.local.putEventErr = errors.New("disk full")
	ev, err := f.controller.CreateEvent(ctx, sess, calendar.Event{Title: "Standup", StartTime: f.now.UnixMilli()})
	require.NoError(t, err)
	assert.True(t, calendar.IsTempID(ev.ID))

	// The optimistic in-memory state carries both records even though
	// neither write landed.
	snap, err := f.controller.Load(ctx, sess)
	require.NoError(t, err)
	require.Len(t, snap.Goals, 1)
	require.Len(t, snap.Events, 1)
	assert.Empty(t, f.local.goals[sess.UID])
	assert.Empty(t, f.local.events[sess.UID])
}

func TestSnapshotIsIsolatedFromLiveState(t *testing.T) {
	f := newFixture(t)
	sess := guestSession()
	ctx := context.Background()

	g, err := f.controller.CreateGoal(ctx, sess, goals.Goal{
		Title:    "Ship",
		Target:   3,
		Subgoals: []goals.Subgoal{{ID: "sub-1", Title: "Draft"}},
	})
	require.NoError(t, err)
	_, err = f.controller.CreateHabit(ctx, sess, habits.Habit{Title: "Write", LinkedGoalIDs: []string{g.ID}})
	require.NoError(t, err)

	snap, err := f.controller.Load(ctx, sess)
	require.NoError(t, err)

	_, err = f.controller.ToggleSubgoal(ctx, sess, g.ID, "sub-1")
	require.NoError(t, err)

	require.Len(t, snap.Goals, 1)
	require.Len(t, snap.Goals[0].Subgoals, 1)
	assert.False(t, snap.Goals[0].Subgoals[0].Completed, "snapshot does not track later mutations")

	// Writing into the snapshot's slices must not leak back either.
	snap.Habits[0].LinkedGoalIDs[0] = "poisoned"
	fresh, err := f.controller.Load(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, g.ID, fresh.Habits[0].LinkedGoalIDs[0])
}

func TestDeleteHabitRemovesOrphanedLogs(t *testing.T) {
	f := newFixture(t)
	sess := guestSession()
	ctx := context.Background()

	h, err := f.controller.CreateHabit(ctx, sess, habits.Habit{Title: "Run"})
	require.NoError(t, err)
	other, err := f.controller.CreateHabit(ctx, sess, habits.Habit{Title: "Read"})
	require.NoError(t, err)
	_, err = f.controller.ToggleHabit(ctx, sess, h.ID, "", nil, "")
	require.NoError(t, err)
	_, err = f.controller.ToggleHabit(ctx, sess, other.ID, "", nil, "")
	require.NoError(t, err)

	require.NoError(t, f.controller.DeleteHabit(ctx, sess, h.ID))
	assert.Len(t, f.local.logs[sess.UID], 1, "only the other habit's log survives")
	for _, l := range f.local.logs[sess.UID] {
		assert.Equal(t, other.ID, l.HabitID)
	}
}

func TestCreateEventWithoutTokenKeepsTempID(t *testing.T) {
	f := newFixture(t)
	sess := guestSession()

	ev, err := f.controller.CreateEvent(context.Background(), sess, calendar.Event{
		Title:     "Dentist",
		StartTime: f.now.UnixMilli(),
	})
	require.NoError(t, err)
	assert.True(t, calendar.IsTempID(ev.ID))
	assert.Equal(t, calendar.EventTypePersonal, ev.Type)
	assert.Equal(t, "1h", ev.Duration)
	assert.Empty(t, f.provider.creates, "no provider call without a token")
}

func TestCreateEventSwapsTempIDForProviderID(t *testing.T) {
	f := newFixture(t)
	sess := linkedSession()
	ctx := context.Background()

	ev, err := f.controller.CreateEvent(ctx, sess, calendar.Event{
		Title:     "Standup",
		StartTime: f.now.UnixMilli(),
	})
	require.NoError(t, err)
	assert.Equal(t, "prov-1", ev.ID)

	// The temporary record is gone from the backend; only the
	// provider-identified one remains.
	require.Len(t, f.remote.events[sess.UID], 1)
	_, ok := f.remote.events[sess.UID]["prov-1"]
	assert.True(t, ok)

	snap, err := f.controller.Load(ctx, sess)
	require.NoError(t, err)
	require.Len(t, snap.Events, 1)
	assert.Equal(t, "prov-1", snap.Events[0].ID)
}

func TestCreateEventMirrorFailureKeepsTempEvent(t *testing.T) {
	f := newFixture(t)
	f.provider.createErr = errors.New("upstream 503")
	sess := linkedSession()

	ev, err := f.controller.CreateEvent(context.Background(), sess, calendar.Event{
		Title:     "Standup",
		StartTime: f.now.UnixMilli(),
	})
	require.NoError(t, err, "mirror failure is not a request failure")
	assert.True(t, calendar.IsTempID(ev.ID))
	_, ok := f.remote.events[sess.UID][ev.ID]
	assert.True(t, ok, "temp event survives in the backend")
}

func TestUpdateEventSkipsProviderForTempIDs(t *testing.T) {
	f := newFixture(t)
	f.provider.createErr = errors.New("upstream 503")
	sess := linkedSession()
	ctx := context.Background()

	ev, err := f.controller.CreateEvent(ctx, sess, calendar.Event{
		Title:     "Standup",
		StartTime: f.now.UnixMilli(),
	})
	require.NoError(t, err)

	ev.Title = "Standup (moved)"
	_, err = f.controller.UpdateEvent(ctx, sess, ev)
	require.NoError(t, err)
	assert.Empty(t, f.provider.updates, "temp ids never reach the provider")
}

func TestDeleteEventMirrorsForProviderIDs(t *testing.T) {
	f := newFixture(t)
	sess := linkedSession()
	ctx := context.Background()

	ev, err := f.controller.CreateEvent(ctx, sess, calendar.Event{
		Title:     "Standup",
		StartTime: f.now.UnixMilli(),
	})
	require.NoError(t, err)
	require.Equal(t, "prov-1", ev.ID)

	require.NoError(t, f.controller.DeleteEvent(ctx, sess, ev.ID))
	assert.Equal(t, []string{"prov-1"}, f.provider.deletes)
	assert.Empty(t, f.remote.events[sess.UID])

	err = f.controller.DeleteEvent(ctx, sess, ev.ID)
	assert.ErrorIs(t, err, calendar.ErrEventNotFound)
}

func TestRefreshCalendarWithoutTokenReturnsStored(t *testing.T) {
	f := newFixture(t)
	sess := guestSession()
	ctx := context.Background()

	_, err := f.controller.CreateEvent(ctx, sess, calendar.Event{
		Title:     "Dentist",
		StartTime: f.now.UnixMilli(),
	})
	require.NoError(t, err)

	evs, err := f.controller.RefreshCalendar(ctx, sess)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, "Dentist", evs[0].Title)
	assert.Empty(t, f.local.replaced, "no wholesale replace without a provider fetch")
}

func TestRefreshCalendarProviderIsAuthoritative(t *testing.T) {
	f := newFixture(t)
	sess := linkedSession()
	ctx := context.Background()

	_, err := f.controller.CreateEvent(ctx, sess, calendar.Event{
		Title:     "Stale",
		StartTime: f.now.UnixMilli(),
	})
	require.NoError(t, err)

	f.provider.listEvents = []calendar.Event{
		{ID: "g-2", Title: "Later", StartTime: f.now.Add(2 * time.Hour).UnixMilli(), Type: calendar.EventTypeWork},
		{ID: "g-1", Title: "Sooner", StartTime: f.now.UnixMilli(), Type: calendar.EventTypeWork},
	}

	evs, err := f.controller.RefreshCalendar(ctx, sess)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, "g-1", evs[0].ID, "refresh result is sorted by start")
	assert.Equal(t, "g-2", evs[1].ID)

	require.Len(t, f.remote.replaced, 1)
	assert.Len(t, f.remote.events[sess.UID], 2)
}

func TestRefreshCalendarFallsBackOnProviderFailure(t *testing.T) {
	f := newFixture(t)
	sess := linkedSession()
	ctx := context.Background()

	created, err := f.controller.CreateEvent(ctx, sess, calendar.Event{
		Title:     "Keep me",
		StartTime: f.now.UnixMilli(),
	})
	require.NoError(t, err)

	f.provider.listErr = errors.New("upstream 502")
	evs, err := f.controller.RefreshCalendar(ctx, sess)
	require.NoError(t, err, "provider failure degrades to stored events")
	require.Len(t, evs, 1)
	assert.Equal(t, created.ID, evs[0].ID)
}

func TestHasEventValidatesIDs(t *testing.T) {
	f := newFixture(t)
	sess := guestSession()
	ctx := context.Background()

	ev, err := f.controller.CreateEvent(ctx, sess, calendar.Event{
		Title:     "Dentist",
		StartTime: f.now.UnixMilli(),
	})
	require.NoError(t, err)

	assert.True(t, f.controller.HasEvent(ctx, sess, ev.ID))
	assert.False(t, f.controller.HasEvent(ctx, sess, "made-up-id"))
}

func TestSessionRoutingSeparatesBackends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.controller.CreateGoal(ctx, guestSession(), goals.Goal{Title: "Guest goal", Target: 1})
	require.NoError(t, err)
	_, err = f.controller.CreateGoal(ctx, linkedSession(), goals.Goal{Title: "User goal", Target: 1})
	require.NoError(t, err)

	assert.Len(t, f.local.goals["guest-1"], 1)
	assert.Empty(t, f.local.goals["user-1"])
	assert.Len(t, f.remote.goals["user-1"], 1)
	assert.Empty(t, f.remote.goals["guest-1"])
}

func TestEvictForcesRehydration(t *testing.T) {
	f := newFixture(t)
	sess := linkedSession()
	ctx := context.Background()

	_, err := f.controller.Load(ctx, sess)
	require.NoError(t, err)

	// Data written behind the controller's back is invisible until eviction.
	require.NoError(t, f.remote.PutGoal(ctx, sess.UID, goals.Goal{ID: "g-out", Title: "Out of band", Target: 1}))
	snap, err := f.controller.Load(ctx, sess)
	require.NoError(t, err)
	assert.Empty(t, snap.Goals)

	f.controller.Evict(sess.UID)
	snap, err = f.controller.Load(ctx, sess)
	require.NoError(t, err)
	assert.Len(t, snap.Goals, 1)
}

func TestCreateEventsReportsFirstErrorButContinues(t *testing.T) {
	f := newFixture(t)
	sess := guestSession()

	created, err := f.controller.CreateEvents(context.Background(), sess, []calendar.Event{
		{Title: "", StartTime: f.now.UnixMilli()},
		{Title: "Valid", StartTime: f.now.UnixMilli()},
	})
	assert.Error(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "Valid", created[0].Title)
}

func TestCreateDateRequiresFields(t *testing.T) {
	f := newFixture(t)
	sess := guestSession()
	ctx := context.Background()

	_, err := f.controller.CreateDate(ctx, sess, dates.ImportantDate{Title: "Anniversary"})
	assert.Error(t, err)

	d, err := f.controller.CreateDate(ctx, sess, dates.ImportantDate{Title: "Anniversary", Date: "2026-06-01"})
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID)
	assert.Len(t, f.local.dates[sess.UID], 1)
}

func TestUpdateDatePatchesProvidedFields(t *testing.T) {
	f := newFixture(t)
	sess := guestSession()
	ctx := context.Background()

	d, err := f.controller.CreateDate(ctx, sess, dates.ImportantDate{Title: "Anniversary", Date: "2026-06-01", Category: "family"})
	require.NoError(t, err)

	updated, err := f.controller.UpdateDate(ctx, sess, d.ID, dates.ImportantDate{Date: "2026-06-02"})
	require.NoError(t, err)
	assert.Equal(t, "Anniversary", updated.Title)
	assert.Equal(t, "2026-06-02", updated.Date)
	assert.Equal(t, "family", updated.Category)

	stored, ok := f.local.dates[sess.UID][d.ID]
	require.True(t, ok)
	assert.Equal(t, "2026-06-02", stored.Date)

	_, err = f.controller.UpdateDate(ctx, sess, "missing", dates.ImportantDate{Title: "X"})
	assert.ErrorIs(t, err, dates.ErrDateNotFound)
}
