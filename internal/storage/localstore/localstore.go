// Package localstore is the guest-session backend: one JSON blob per entity
// collection on the local disk, via diskv. No migrations, no transactions;
// a stored blob is trusted as-is on read.
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/peterbourgon/diskv/v3"

	"github.com/ewellner/daybridge/internal/domain/calendar"
	"github.com/ewellner/daybridge/internal/domain/dates"
	"github.com/ewellner/daybridge/internal/domain/goals"
	"github.com/ewellner/daybridge/internal/domain/habits"
	"github.com/ewellner/daybridge/internal/domain/profile"
	"github.com/ewellner/daybridge/internal/storage"
)

// Collection keys, one blob each.
const (
	keyGoals   = "goals"
	keyHabits  = "habits"
	keyLogs    = "habit_logs"
	keyEvents  = "events"
	keyDates   = "important_dates"
	keyProfile = "profile"
)

type Store struct {
	d *diskv.Diskv
}

var _ storage.Store = (*Store)(nil)

// New opens the on-disk store rooted at basePath. Blobs land under one
// directory per uid.
func New(basePath string) *Store {
	return &Store{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPath,
		InverseTransform:  pathToKey,
		CacheSizeMax:      1024 * 1024, // 1MB
	})}
}

func keyToPath(s string) *diskv.PathKey {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) == 1 {
		return &diskv.PathKey{FileName: parts[0] + ".json"}
	}
	return &diskv.PathKey{Path: []string{parts[0]}, FileName: parts[1] + ".json"}
}

func pathToKey(pk *diskv.PathKey) string {
	name := strings.TrimSuffix(pk.FileName, ".json")
	if len(pk.Path) == 0 {
		return name
	}
	return fmt.Sprintf("%s/%s", strings.Join(pk.Path, "/"), name)
}

func blobKey(uid, collection string) string {
	return uid + "/" + collection
}

func readBlob[T any](s *Store, uid, collection string, out *T) error {
	data, err := s.d.Read(blobKey(uid, collection))
	if err != nil {
		// A missing blob means an empty collection, not an error.
		return nil
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

func writeBlob(s *Store, uid, collection string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("localstore: marshal %s: %w", collection, err)
	}
	return s.d.Write(blobKey(uid, collection), data)
}

func (s *Store) Goals(_ context.Context, uid string) ([]goals.Goal, error) {
	var list []goals.Goal
	if err := readBlob(s, uid, keyGoals, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) PutGoal(ctx context.Context, uid string, g goals.Goal) error {
	list, err := s.Goals(ctx, uid)
	if err != nil {
		return err
	}
	replaced := false
	for i := range list {
		if list[i].ID == g.ID {
			list[i] = g
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, g)
	}
	return writeBlob(s, uid, keyGoals, list)
}

func (s *Store) DeleteGoal(ctx context.Context, uid, id string) error {
	list, err := s.Goals(ctx, uid)
	if err != nil {
		return err
	}
	kept := list[:0]
	for _, g := range list {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	return writeBlob(s, uid, keyGoals, kept)
}

func (s *Store) Habits(_ context.Context, uid string) ([]habits.Habit, error) {
	var list []habits.Habit
	if err := readBlob(s, uid, keyHabits, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) PutHabit(ctx context.Context, uid string, h habits.Habit) error {
	list, err := s.Habits(ctx, uid)
	if err != nil {
		return err
	}
	replaced := false
	for i := range list {
		if list[i].ID == h.ID {
			list[i] = h
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, h)
	}
	return writeBlob(s, uid, keyHabits, list)
}

func (s *Store) DeleteHabit(ctx context.Context, uid, id string) error {
	list, err := s.Habits(ctx, uid)
	if err != nil {
		return err
	}
	kept := list[:0]
	for _, h := range list {
		if h.ID != id {
			kept = append(kept, h)
		}
	}
	return writeBlob(s, uid, keyHabits, kept)
}

func (s *Store) HabitLogs(_ context.Context, uid string) (map[string]habits.Log, error) {
	logs := make(map[string]habits.Log)
	if err := readBlob(s, uid, keyLogs, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) PutHabitLog(ctx context.Context, uid string, l habits.Log) error {
	logs, err := s.HabitLogs(ctx, uid)
	if err != nil {
		return err
	}
	logs[l.Key()] = l
	return writeBlob(s, uid, keyLogs, logs)
}

func (s *Store) DeleteHabitLog(ctx context.Context, uid, key string) error {
	logs, err := s.HabitLogs(ctx, uid)
	if err != nil {
		return err
	}
	delete(logs, key)
	return writeBlob(s, uid, keyLogs, logs)
}

func (s *Store) Events(_ context.Context, uid string) ([]calendar.Event, error) {
	var list []calendar.Event
	if err := readBlob(s, uid, keyEvents, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) PutEvent(ctx context.Context, uid string, e calendar.Event) error {
	list, err := s.Events(ctx, uid)
	if err != nil {
		return err
	}
	replaced := false
	for i := range list {
		if list[i].ID == e.ID {
			list[i] = e
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, e)
	}
	calendar.SortByStart(list)
	return writeBlob(s, uid, keyEvents, list)
}

func (s *Store) DeleteEvent(ctx context.Context, uid, id string) error {
	list, err := s.Events(ctx, uid)
	if err != nil {
		return err
	}
	kept := list[:0]
	for _, e := range list {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	return writeBlob(s, uid, keyEvents, kept)
}

func (s *Store) ReplaceEvents(_ context.Context, uid string, events []calendar.Event) error {
	return writeBlob(s, uid, keyEvents, events)
}

func (s *Store) Dates(_ context.Context, uid string) ([]dates.ImportantDate, error) {
	var list []dates.ImportantDate
	if err := readBlob(s, uid, keyDates, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) PutDate(ctx context.Context, uid string, d dates.ImportantDate) error {
	list, err := s.Dates(ctx, uid)
	if err != nil {
		return err
	}
	replaced := false
	for i := range list {
		if list[i].ID == d.ID {
			list[i] = d
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, d)
	}
	return writeBlob(s, uid, keyDates, list)
}

func (s *Store) DeleteDate(ctx context.Context, uid, id string) error {
	list, err := s.Dates(ctx, uid)
	if err != nil {
		return err
	}
	kept := list[:0]
	for _, d := range list {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	return writeBlob(s, uid, keyDates, kept)
}

func (s *Store) Profile(_ context.Context, uid string) (*profile.Profile, error) {
	data, err := s.d.Read(blobKey(uid, keyProfile))
	if err != nil {
		return nil, storage.ErrNotFound
	}
	var p profile.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) PutProfile(_ context.Context, uid string, p profile.Profile) error {
	return writeBlob(s, uid, keyProfile, p)
}

// Erase removes every blob stored for the uid. Used when a guest session is
// discarded.
func (s *Store) Erase(_ context.Context, uid string) error {
	var lastErr error
	for _, key := range []string{keyGoals, keyHabits, keyLogs, keyEvents, keyDates, keyProfile} {
		if !s.d.Has(blobKey(uid, key)) {
			continue
		}
		if err := s.d.Erase(blobKey(uid, key)); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
