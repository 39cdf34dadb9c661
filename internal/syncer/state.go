package syncer

import (
	"sync"

	"github.com/ewellner/daybridge/internal/domain/calendar"
	"github.com/ewellner/daybridge/internal/domain/dates"
	"github.com/ewellner/daybridge/internal/domain/goals"
	"github.com/ewellner/daybridge/internal/domain/habits"
)

// Snapshot is a copy of a session's dashboard state, safe to read after the
// controller lock is released.
type Snapshot struct {
	Goals  []goals.Goal          `json:"goals"`
	Habits []habits.Habit        `json:"habits"`
	Logs   map[string]habits.Log `json:"habitLogs"`
	Events []calendar.Event      `json:"events"`
	Dates  []dates.ImportantDate `json:"importantDates"`
}

// sessionState holds the in-memory working copy for one session. Mutations
// apply here first; the backing store write follows under the same lock.
type sessionState struct {
	mu     sync.Mutex
	loaded bool

	goals  []goals.Goal
	habits []habits.Habit
	logs   map[string]habits.Log
	events []calendar.Event
	dates  []dates.ImportantDate
}

func (st *sessionState) snapshot() Snapshot {
	snap := Snapshot{
		Goals:  make([]goals.Goal, len(st.goals)),
		Habits: make([]habits.Habit, len(st.habits)),
		Logs:   make(map[string]habits.Log, len(st.logs)),
		Events: make([]calendar.Event, len(st.events)),
		Dates:  make([]dates.ImportantDate, len(st.dates)),
	}
	copy(snap.Goals, st.goals)
	copy(snap.Habits, st.habits)
	copy(snap.Events, st.events)
	copy(snap.Dates, st.dates)
	for k, v := range st.logs {
		snap.Logs[k] = v
	}
	// The element copies above still share their inner slices with live
	// state; clone those so the snapshot stays stable after the lock is
	// released.
	for i := range snap.Goals {
		if sg := snap.Goals[i].Subgoals; sg != nil {
			snap.Goals[i].Subgoals = make([]goals.Subgoal, len(sg))
			copy(snap.Goals[i].Subgoals, sg)
		}
	}
	for i := range snap.Habits {
		if ids := snap.Habits[i].LinkedGoalIDs; ids != nil {
			snap.Habits[i].LinkedGoalIDs = make([]string, len(ids))
			copy(snap.Habits[i].LinkedGoalIDs, ids)
		}
	}
	return snap
}

func (st *sessionState) goalIndex(id string) int {
	for i := range st.goals {
		if st.goals[i].ID == id {
			return i
		}
	}
	return -1
}

func (st *sessionState) habitIndex(id string) int {
	for i := range st.habits {
		if st.habits[i].ID == id {
			return i
		}
	}
	return -1
}

func (st *sessionState) eventIndex(id string) int {
	for i := range st.events {
		if st.events[i].ID == id {
			return i
		}
	}
	return -1
}

func (st *sessionState) dateIndex(id string) int {
	for i := range st.dates {
		if st.dates[i].ID == id {
			return i
		}
	}
	return -1
}

func (st *sessionState) removeEvent(id string) bool {
	idx := st.eventIndex(id)
	if idx < 0 {
		return false
	}
	st.events = append(st.events[:idx], st.events[idx+1:]...)
	return true
}
