// Package syncer owns the dual-backend synchronization flow. Every mutation
// applies to the in-memory session state first, then writes through to the
// backend that is authoritative for the session, then mirrors calendar
// changes to the external provider when a token is present. Backend and
// mirror failures are logged; the optimistic in-memory state stands and the
// mutation still reports success.
package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ewellner/daybridge/internal/domain/calendar"
	"github.com/ewellner/daybridge/internal/domain/dates"
	"github.com/ewellner/daybridge/internal/domain/goals"
	"github.com/ewellner/daybridge/internal/domain/habits"
	"github.com/ewellner/daybridge/internal/provider/gcal"
	"github.com/ewellner/daybridge/internal/storage"
)

// CalendarProvider is the external calendar API surface the controller
// mirrors into. gcal.Client is the production implementation.
type CalendarProvider interface {
	List(ctx context.Context, token string) ([]calendar.Event, error)
	Create(ctx context.Context, token string, ev calendar.Event) (calendar.Event, error)
	Update(ctx context.Context, token, id string, patch gcal.EventPatch) error
	Delete(ctx context.Context, token, id string) error
}

// Controller coordinates per-session dashboard state across the local and
// remote stores and the calendar provider.
type Controller struct {
	stores   *storage.Selector
	provider CalendarProvider
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[string]*sessionState

	now func() time.Time
}

func NewController(stores *storage.Selector, provider CalendarProvider, logger *zap.Logger) *Controller {
	return &Controller{
		stores:   stores,
		provider: provider,
		logger:   logger,
		sessions: make(map[string]*sessionState),
		now:      time.Now,
	}
}

// state returns the session's working copy, creating it on first use. The
// caller must hold st.mu while reading or mutating it.
func (c *Controller) state(uid string) *sessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.sessions[uid]
	if !ok {
		st = &sessionState{logs: make(map[string]habits.Log)}
		c.sessions[uid] = st
	}
	return st
}

// ensureLoaded hydrates the working copy from the session's backend. Called
// with st.mu held.
func (c *Controller) ensureLoaded(ctx context.Context, sess storage.Session, st *sessionState) error {
	if st.loaded {
		return nil
	}
	store := c.stores.For(sess)

	gs, err := store.Goals(ctx, sess.UID)
	if err != nil {
		return fmt.Errorf("load goals: %w", err)
	}
	hs, err := store.Habits(ctx, sess.UID)
	if err != nil {
		return fmt.Errorf("load habits: %w", err)
	}
	logs, err := store.HabitLogs(ctx, sess.UID)
	if err != nil {
		return fmt.Errorf("load habit logs: %w", err)
	}
	evs, err := store.Events(ctx, sess.UID)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	ds, err := store.Dates(ctx, sess.UID)
	if err != nil {
		return fmt.Errorf("load important dates: %w", err)
	}

	st.goals = gs
	st.habits = hs
	st.logs = logs
	if st.logs == nil {
		st.logs = make(map[string]habits.Log)
	}
	st.events = evs
	calendar.SortByStart(st.events)
	st.dates = ds
	st.loaded = true
	return nil
}

// Load hydrates (if needed) and returns a snapshot of the session state.
func (c *Controller) Load(ctx context.Context, sess storage.Session) (Snapshot, error) {
	st := c.state(sess.UID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := c.ensureLoaded(ctx, sess, st); err != nil {
		return Snapshot{}, err
	}
	return st.snapshot(), nil
}

// Evict drops the in-memory working copy for a session. Used when the
// session kind changes so the next call rehydrates from the right backend.
func (c *Controller) Evict(uid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, uid)
}

// --- Goals ---

func (c *Controller) CreateGoal(ctx context.Context, sess storage.Session, g goals.Goal) (goals.Goal, error) {
	if err := g.Validate(); err != nil {
		return goals.Goal{}, err
	}
	if g.ID == "" {
		g.ID = goals.NewID()
	}

	st := c.state(sess.UID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := c.ensureLoaded(ctx, sess, st); err != nil {
		return goals.Goal{}, err
	}

	st.goals = append(st.goals, g)
	if err := c.stores.For(sess).PutGoal(ctx, sess.UID, g); err != nil {
		c.logger.Error("Failed to persist goal", zap.String("goal_id", g.ID), zap.Error(err))
	}
	return g, nil
}

func (c *Controller) UpdateGoal(ctx context.Context, sess storage.Session, g goals.Goal) (goals.Goal, error) {
	if err := g.Validate(); err != nil {
		return goals.Goal{}, err
	}

	st := c.state(sess.UID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := c.ensureLoaded(ctx, sess, st); err != nil {
		return goals.Goal{}, err
	}

	idx := st.goalIndex(g.ID)
	if idx < 0 {
		return goals.Goal{}, goals.ErrGoalNotFound
	}
	st.goals[idx] = g
	if err := c.stores.For(sess).PutGoal(ctx, sess.UID, g); err != nil {
		c.logger.Error("Failed to persist goal update", zap.String("goal_id", g.ID), zap.Error(err))
	}
	return g, nil
}

func (c *Controller) DeleteGoal(ctx context.Context, sess storage.Session, id string) error {
	st := c.state(sess.UID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := c.ensureLoaded(ctx, sess, st); err != nil {
		return err
	}

	idx := st.goalIndex(id)
	if idx < 0 {
		return goals.ErrGoalNotFound
	}
	st.goals = append(st.goals[:idx], st.goals[idx+1:]...)
	if err := c.stores.For(sess).DeleteGoal(ctx, sess.UID, id); err != nil {
		c.logger.Error("Failed to delete goal", zap.String("goal_id", id), zap.Error(err))
	}
	return nil
}

// IncrementGoal bumps progress by one, clamped to the target.
func (c *Controller) IncrementGoal(ctx context.Context, sess storage.Session, id string) (goals.Goal, error) {
	return c.mutateGoal(ctx, sess, id, func(g *goals.Goal) error {
		g.Increment()
		return nil
	})
}

// DecrementGoal drops progress by one, clamped to zero.
func (c *Controller) DecrementGoal(ctx context.Context, sess storage.Session, id string) (goals.Goal, error) {
	return c.mutateGoal(ctx, sess, id, func(g *goals.Goal) error {
		g.Decrement()
		return nil
	})
}

// ToggleSubgoal flips a subgoal's completion flag. Parent progress is not
// derived from subgoal state.
func (c *Controller) ToggleSubgoal(ctx context.Context, sess storage.Session, goalID, subgoalID string) (goals.Goal, error) {
	return c.mutateGoal(ctx, sess, goalID, func(g *goals.Goal) error {
		return g.ToggleSubgoal(subgoalID)
	})
}

func (c *Controller) mutateGoal(ctx context.Context, sess storage.Session, id string, fn func(*goals.Goal) error) (goals.Goal, error) {
	st := c.state(sess.UID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := c.ensureLoaded(ctx, sess, st); err != nil {
		return goals.Goal{}, err
	}

	idx := st.goalIndex(id)
	if idx < 0 {
		return goals.Goal{}, goals.ErrGoalNotFound
	}
	if err := fn(&st.goals[idx]); err != nil {
		return goals.Goal{}, err
	}
	g := st.goals[idx]
	if err := c.stores.For(sess).PutGoal(ctx, sess.UID, g); err != nil {
		c.logger.Error("Failed to persist goal mutation", zap.String("goal_id", id), zap.Error(err))
	}
	return g, nil
}

// --- Habits ---

func (c *Controller) CreateHabit(ctx context.Context, sess storage.Session, h habits.Habit) (habits.Habit, error) {
	if h.Title == "" {
		return habits.Habit{}, fmt.Errorf("habit title is required")
	}
	if h.ID == "" {
		h.ID = habits.NewID()
	}

	st := c.state(sess.UID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := c.ensureLoaded(ctx, sess, st); err != nil {
		return habits.Habit{}, err
	}

	st.habits = append(st.habits, h)
	if err := c.stores.For(sess).PutHabit(ctx, sess.UID, h); err != nil {
		c.logger.Error("Failed to persist habit", zap.String("habit_id", h.ID), zap.Error(err))
	}
	return h, nil
}

func (c *Controller) UpdateHabit(ctx context.Context, sess storage.Session, h habits.Habit) (habits.Habit, error) {
	st := c.state(sess.UID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := c.ensureLoaded(ctx, sess, st); err != nil {
		return habits.Habit{}, err
	}

	idx := st.habitIndex(h.ID)
	if idx < 0 {
		return habits.Habit{}, habits.ErrHabitNotFound
	}
	// Streak is derived from logs, never taken from the caller.
	h.Streak = st.habits[idx].Streak
	st.habits[idx] = h
	if err := c.stores.For(sess).PutHabit(ctx, sess.UID, h); err != nil {
		c.logger.Error("Failed to persist habit update", zap.String("habit_id", h.ID), zap.Error(err))
	}
	return h, nil
}

func (c *Controller) DeleteHabit(ctx context.Context, sess storage.Session, id string) error {
	st := c.state(sess.UID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := c.ensureLoaded(ctx, sess, st); err != nil {
		return err
	}

	idx := st.habitIndex(id)
	if idx < 0 {
		return habits.ErrHabitNotFound
	}
	st.habits = append(st.habits[:idx], st.habits[idx+1:]...)
	store := c.stores.For(sess)
	if err := store.DeleteHabit(ctx, sess.UID, id); err != nil {
		c.logger.Error("Failed to delete habit", zap.String("habit_id", id), zap.Error(err))
	}
	// Orphaned logs are removed best-effort; the habit delete stands.
	for key, l := range st.logs {
		if l.HabitID != id {
			continue
		}
		delete(st.logs, key)
		if err := store.DeleteHabitLog(ctx, sess.UID, key); err != nil {
			c.logger.Warn("Failed to delete orphaned habit log",
				zap.String("log_key", key), zap.Error(err))
		}
	}
	return nil
}

// ToggleHabit sets the habit's completion for a date. Completing upserts a
// log; un-completing deletes it. A nil completed flips the current state.
// Afterwards every habit's streak is recomputed from the full log set, and
// each linked goal's progress moves one step in the toggle's direction.
// Linked-goal writes are independent side effects: a failure is logged and
// does not undo the log write or the other goals' updates.
func (c *Controller) ToggleHabit(ctx context.Context, sess storage.Session, habitID, date string, completed *bool, note string) (habits.Habit, error) {
	if date == "" {
		date = c.now().Format(habits.DateLayout)
	}
	if _, err := time.Parse(habits.DateLayout, date); err != nil {
		return habits.Habit{}, fmt.Errorf("invalid date %q: %w", date, err)
	}

	st := c.state(sess.UID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := c.ensureLoaded(ctx, sess, st); err != nil {
		return habits.Habit{}, err
	}

	idx := st.habitIndex(habitID)
	if idx < 0 {
		return habits.Habit{}, habits.ErrHabitNotFound
	}
	store := c.stores.For(sess)

	key := habits.LogKey(habitID, date)
	existing, had := st.logs[key]
	completing := !had || !existing.Completed
	if completed != nil {
		completing = *completed
	}

	if completing {
		l := habits.Log{HabitID: habitID, Date: date, Completed: true, Note: note}
		if note == "" && had {
			l.Note = existing.Note
		}
		st.logs[key] = l
		if err := store.PutHabitLog(ctx, sess.UID, l); err != nil {
			c.logger.Error("Failed to persist habit log", zap.String("log_key", key), zap.Error(err))
		}
	} else if had {
		delete(st.logs, key)
		if err := store.DeleteHabitLog(ctx, sess.UID, key); err != nil {
			c.logger.Error("Failed to delete habit log", zap.String("log_key", key), zap.Error(err))
		}
	}

	// The recompute pass covers every habit, not just the toggled one.
	today := c.now()
	for i := range st.habits {
		st.habits[i].Streak = habits.ComputeStreak(st.habits[i].ID, st.logs, today)
		if err := store.PutHabit(ctx, sess.UID, st.habits[i]); err != nil {
			c.logger.Error("Failed to persist habit streak",
				zap.String("habit_id", st.habits[i].ID), zap.Error(err))
		}
	}
	h := &st.habits[idx]

	// Re-asserting the current completion state moves no goals.
	if completing == (had && existing.Completed) {
		return *h, nil
	}

	delta := 1
	if !completing {
		delta = -1
	}
	for _, goalID := range h.LinkedGoalIDs {
		gIdx := st.goalIndex(goalID)
		if gIdx < 0 {
			c.logger.Warn("Habit links to unknown goal",
				zap.String("habit_id", habitID), zap.String("goal_id", goalID))
			continue
		}
		st.goals[gIdx].AdjustProgress(delta)
		if err := store.PutGoal(ctx, sess.UID, st.goals[gIdx]); err != nil {
			c.logger.Error("Failed to persist linked goal progress",
				zap.String("habit_id", habitID),
				zap.String("goal_id", goalID),
				zap.Error(err))
		}
	}

	return *h, nil
}

// --- Important dates ---

func (c *Controller) CreateDate(ctx context.Context, sess storage.Session, d dates.ImportantDate) (dates.ImportantDate, error) {
	if d.Title == "" || d.Date == "" {
		return dates.ImportantDate{}, fmt.Errorf("important date requires a title and a date")
	}
	if d.ID == "" {
		d.ID = dates.NewID()
	}

	st := c.state(sess.UID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := c.ensureLoaded(ctx, sess, st); err != nil {
		return dates.ImportantDate{}, err
	}

	st.dates = append(st.dates, d)
	if err := c.stores.For(sess).PutDate(ctx, sess.UID, d); err != nil {
		c.logger.Error("Failed to persist important date", zap.String("date_id", d.ID), zap.Error(err))
	}
	return d, nil
}

func (c *Controller) UpdateDate(ctx context.Context, sess storage.Session, id string, update dates.ImportantDate) (dates.ImportantDate, error) {
	st := c.state(sess.UID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := c.ensureLoaded(ctx, sess, st); err != nil {
		return dates.ImportantDate{}, err
	}

	idx := st.dateIndex(id)
	if idx < 0 {
		return dates.ImportantDate{}, dates.ErrDateNotFound
	}

	d := &st.dates[idx]
	if update.Title != "" {
		d.Title = update.Title
	}
	if update.Date != "" {
		d.Date = update.Date
	}
	if update.Category != "" {
		d.Category = update.Category
	}

	if err := c.stores.For(sess).PutDate(ctx, sess.UID, *d); err != nil {
		c.logger.Error("Failed to persist important date update", zap.String("date_id", id), zap.Error(err))
	}
	return *d, nil
}

func (c *Controller) DeleteDate(ctx context.Context, sess storage.Session, id string) error {
	st := c.state(sess.UID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := c.ensureLoaded(ctx, sess, st); err != nil {
		return err
	}

	idx := st.dateIndex(id)
	if idx < 0 {
		return dates.ErrDateNotFound
	}
	st.dates = append(st.dates[:idx], st.dates[idx+1:]...)
	if err := c.stores.For(sess).DeleteDate(ctx, sess.UID, id); err != nil {
		c.logger.Error("Failed to delete important date", zap.String("date_id", id), zap.Error(err))
	}
	return nil
}

// --- Calendar ---

// CreateEvent inserts an event optimistically under a temporary id, writes
// it to the backend, then mirrors it to the provider when the session has a
// calendar token. On mirror success the temporary record is swapped for one
// carrying the provider id. Mirror failures leave the temporary event in
// place.
func (c *Controller) CreateEvent(ctx context.Context, sess storage.Session, ev calendar.Event) (calendar.Event, error) {
	if ev.Title == "" {
		return calendar.Event{}, fmt.Errorf("event title is required")
	}
	if ev.Type == "" {
		ev.Type = calendar.EventTypePersonal
	}
	if ev.Duration == "" {
		ev.Duration = "1h"
	}
	if ev.Time == "" {
		ev.Time = calendar.DisplayTime(ev.Start())
	}
	ev.ID = calendar.NewTempID()

	st := c.state(sess.UID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := c.ensureLoaded(ctx, sess, st); err != nil {
		return calendar.Event{}, err
	}
	store := c.stores.For(sess)

	st.events = append(st.events, ev)
	calendar.SortByStart(st.events)
	if err := store.PutEvent(ctx, sess.UID, ev); err != nil {
		c.logger.Error("Failed to persist event", zap.String("event_id", ev.ID), zap.Error(err))
	}

	if sess.CalendarToken == "" {
		return ev, nil
	}

	mirrorAttempts.WithLabelValues("create").Inc()
	mirrored, err := c.provider.Create(ctx, sess.CalendarToken, ev)
	if err != nil {
		mirrorFailures.WithLabelValues("create").Inc()
		c.logger.Error("Calendar mirror create failed, keeping temporary event",
			zap.String("event_id", ev.ID), zap.Error(err))
		return ev, nil
	}

	// Swap the temporary record for the provider-identified one.
	if idx := st.eventIndex(ev.ID); idx >= 0 {
		st.events[idx] = mirrored
	}
	if err := store.DeleteEvent(ctx, sess.UID, ev.ID); err != nil {
		c.logger.Warn("Failed to remove temporary event record",
			zap.String("event_id", ev.ID), zap.Error(err))
	}
	if err := store.PutEvent(ctx, sess.UID, mirrored); err != nil {
		c.logger.Error("Failed to persist provider event id",
			zap.String("event_id", mirrored.ID), zap.Error(err))
	}
	return mirrored, nil
}

// CreateEvents creates a batch sequentially; one failure does not stop the
// rest. The created events are returned alongside the first error seen.
func (c *Controller) CreateEvents(ctx context.Context, sess storage.Session, evs []calendar.Event) ([]calendar.Event, error) {
	created := make([]calendar.Event, 0, len(evs))
	var firstErr error
	for _, ev := range evs {
		out, err := c.CreateEvent(ctx, sess, ev)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		created = append(created, out)
	}
	return created, firstErr
}

// UpdateEvent applies new field values to an existing event and, for
// provider-identified events on a linked session, patches the provider copy.
func (c *Controller) UpdateEvent(ctx context.Context, sess storage.Session, ev calendar.Event) (calendar.Event, error) {
	st := c.state(sess.UID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := c.ensureLoaded(ctx, sess, st); err != nil {
		return calendar.Event{}, err
	}

	idx := st.eventIndex(ev.ID)
	if idx < 0 {
		return calendar.Event{}, calendar.ErrEventNotFound
	}
	if ev.Time == "" {
		ev.Time = calendar.DisplayTime(ev.Start())
	}
	st.events[idx] = ev
	calendar.SortByStart(st.events)

	if err := c.stores.For(sess).PutEvent(ctx, sess.UID, ev); err != nil {
		c.logger.Error("Failed to persist event update", zap.String("event_id", ev.ID), zap.Error(err))
	}

	if sess.CalendarToken != "" && !calendar.IsTempID(ev.ID) {
		start := ev.Start()
		end := start.Add(time.Duration(gcal.ParseDurationMinutes(ev.Duration)) * time.Minute)
		patch := gcal.EventPatch{Summary: &ev.Title, Start: &start, End: &end}
		mirrorAttempts.WithLabelValues("update").Inc()
		if err := c.provider.Update(ctx, sess.CalendarToken, ev.ID, patch); err != nil {
			mirrorFailures.WithLabelValues("update").Inc()
			c.logger.Error("Calendar mirror update failed",
				zap.String("event_id", ev.ID), zap.Error(err))
		}
	}
	return ev, nil
}

// DeleteEvent removes an event locally and, when mirrored, from the
// provider. Temporary ids never reach the provider.
func (c *Controller) DeleteEvent(ctx context.Context, sess storage.Session, id string) error {
	st := c.state(sess.UID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := c.ensureLoaded(ctx, sess, st); err != nil {
		return err
	}

	if !st.removeEvent(id) {
		return calendar.ErrEventNotFound
	}
	if err := c.stores.For(sess).DeleteEvent(ctx, sess.UID, id); err != nil {
		c.logger.Error("Failed to delete event", zap.String("event_id", id), zap.Error(err))
	}

	if sess.CalendarToken != "" && !calendar.IsTempID(id) {
		mirrorAttempts.WithLabelValues("delete").Inc()
		if err := c.provider.Delete(ctx, sess.CalendarToken, id); err != nil {
			mirrorFailures.WithLabelValues("delete").Inc()
			c.logger.Error("Calendar mirror delete failed",
				zap.String("event_id", id), zap.Error(err))
		}
	}
	return nil
}

// HasEvent reports whether an event id exists in the session's current
// state. Used to validate requested ids before acting on them.
func (c *Controller) HasEvent(ctx context.Context, sess storage.Session, id string) bool {
	st := c.state(sess.UID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := c.ensureLoaded(ctx, sess, st); err != nil {
		return false
	}
	return st.eventIndex(id) >= 0
}

// RefreshCalendar makes the provider window authoritative for a linked
// session: the fetched events replace the stored collection wholesale.
// Without a token, or when the provider call fails, the stored collection
// is returned unchanged.
func (c *Controller) RefreshCalendar(ctx context.Context, sess storage.Session) ([]calendar.Event, error) {
	st := c.state(sess.UID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := c.ensureLoaded(ctx, sess, st); err != nil {
		return nil, err
	}
	store := c.stores.For(sess)

	if sess.CalendarToken == "" {
		out := make([]calendar.Event, len(st.events))
		copy(out, st.events)
		return out, nil
	}

	mirrorAttempts.WithLabelValues("list").Inc()
	fetched, err := c.provider.List(ctx, sess.CalendarToken)
	if err != nil {
		mirrorFailures.WithLabelValues("list").Inc()
		c.logger.Error("Calendar refresh failed, serving stored events",
			zap.String("uid", sess.UID), zap.Error(err))
		out := make([]calendar.Event, len(st.events))
		copy(out, st.events)
		return out, nil
	}

	calendar.SortByStart(fetched)
	st.events = fetched
	if err := store.ReplaceEvents(ctx, sess.UID, fetched); err != nil {
		c.logger.Error("Failed to persist refreshed events",
			zap.String("uid", sess.UID), zap.Error(err))
	}

	out := make([]calendar.Event, len(fetched))
	copy(out, fetched)
	return out, nil
}

// RecomputeStreaks recalculates every habit's streak from the log set and
// persists the ones that changed. Used by the daily scheduler tick.
func (c *Controller) RecomputeStreaks(ctx context.Context, sess storage.Session) error {
	st := c.state(sess.UID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := c.ensureLoaded(ctx, sess, st); err != nil {
		return err
	}
	store := c.stores.For(sess)

	for i := range st.habits {
		streak := habits.ComputeStreak(st.habits[i].ID, st.logs, c.now())
		if streak == st.habits[i].Streak {
			continue
		}
		st.habits[i].Streak = streak
		if err := store.PutHabit(ctx, sess.UID, st.habits[i]); err != nil {
			c.logger.Error("Failed to persist recomputed streak",
				zap.String("habit_id", st.habits[i].ID), zap.Error(err))
		}
	}
	return nil
}
