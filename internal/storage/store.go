// Package storage defines the persistence contract shared by the guest
// (on-disk) and authenticated (Postgres) backends. Call sites depend on the
// Store interface only; the Selector maps a session to the backend that is
// authoritative for it.
package storage

import (
	"context"
	"errors"

	"github.com/ewellner/daybridge/internal/domain/calendar"
	"github.com/ewellner/daybridge/internal/domain/dates"
	"github.com/ewellner/daybridge/internal/domain/goals"
	"github.com/ewellner/daybridge/internal/domain/habits"
	"github.com/ewellner/daybridge/internal/domain/profile"
)

var ErrNotFound = errors.New("record not found")

// Session identifies the caller for backend selection. Guest sessions are
// served by the local store; authenticated sessions by the remote store.
type Session struct {
	UID           string
	Guest         bool
	CalendarToken string
}

// Store is dumb persistence: per-collection reads, per-record puts and
// deletes. It performs no independent mutation and no validation.
type Store interface {
	Goals(ctx context.Context, uid string) ([]goals.Goal, error)
	PutGoal(ctx context.Context, uid string, g goals.Goal) error
	DeleteGoal(ctx context.Context, uid, id string) error

	Habits(ctx context.Context, uid string) ([]habits.Habit, error)
	PutHabit(ctx context.Context, uid string, h habits.Habit) error
	DeleteHabit(ctx context.Context, uid, id string) error

	// Habit logs are keyed by the composite {habitID}_{YYYY-MM-DD}.
	HabitLogs(ctx context.Context, uid string) (map[string]habits.Log, error)
	PutHabitLog(ctx context.Context, uid string, l habits.Log) error
	DeleteHabitLog(ctx context.Context, uid, key string) error

	Events(ctx context.Context, uid string) ([]calendar.Event, error)
	PutEvent(ctx context.Context, uid string, e calendar.Event) error
	DeleteEvent(ctx context.Context, uid, id string) error
	// ReplaceEvents overwrites the whole collection; used when the external
	// provider's window fetch is authoritative.
	ReplaceEvents(ctx context.Context, uid string, events []calendar.Event) error

	Dates(ctx context.Context, uid string) ([]dates.ImportantDate, error)
	PutDate(ctx context.Context, uid string, d dates.ImportantDate) error
	DeleteDate(ctx context.Context, uid, id string) error

	Profile(ctx context.Context, uid string) (*profile.Profile, error)
	PutProfile(ctx context.Context, uid string, p profile.Profile) error
}

// Eraser is implemented by backends that can drop every record for a uid
// in one call. The local store implements it for discarded guest sessions.
type Eraser interface {
	Erase(ctx context.Context, uid string) error
}

// Selector routes a session to its authoritative backend. The choice is
// re-evaluated on every call so a mutation always targets the backend
// matching the current session kind.
type Selector struct {
	local  Store
	remote Store
}

func NewSelector(local, remote Store) *Selector {
	return &Selector{local: local, remote: remote}
}

// For returns the backend that is authoritative for the session.
func (s *Selector) For(sess Session) Store {
	if sess.Guest {
		return s.local
	}
	return s.remote
}

// Local returns the guest backend directly (calendar fallback reads).
func (s *Selector) Local() Store { return s.local }

// Remote returns the authenticated backend directly.
func (s *Selector) Remote() Store { return s.remote }
