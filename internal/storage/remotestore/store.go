// Package remotestore is the authenticated-session backend: per-user
// document rows in Postgres, one row per entity.
package remotestore

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ewellner/daybridge/internal/domain/calendar"
	"github.com/ewellner/daybridge/internal/domain/dates"
	"github.com/ewellner/daybridge/internal/domain/goals"
	"github.com/ewellner/daybridge/internal/domain/habits"
	"github.com/ewellner/daybridge/internal/domain/profile"
	"github.com/ewellner/daybridge/internal/infrastructure/persistence/postgres/connection"
	"github.com/ewellner/daybridge/internal/storage"
)

type Store struct {
	db *connection.Database
}

var _ storage.Store = (*Store)(nil)

func New(db *connection.Database) *Store {
	return &Store{db: db}
}

func (s *Store) Goals(ctx context.Context, uid string) ([]goals.Goal, error) {
	var records []GoalRecord
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", uid).
		Order("created_at").
		Find(&records).Error; err != nil {
		return nil, err
	}
	list := make([]goals.Goal, 0, len(records))
	for _, r := range records {
		list = append(list, recordToGoal(r))
	}
	return list, nil
}

func (s *Store) PutGoal(ctx context.Context, uid string, g goals.Goal) error {
	record, err := goalToRecord(uid, g)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&record).Error
}

func (s *Store) DeleteGoal(ctx context.Context, uid, id string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", uid, id).
		Delete(&GoalRecord{}).Error
}

func (s *Store) Habits(ctx context.Context, uid string) ([]habits.Habit, error) {
	var records []HabitRecord
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", uid).
		Order("created_at").
		Find(&records).Error; err != nil {
		return nil, err
	}
	list := make([]habits.Habit, 0, len(records))
	for _, r := range records {
		list = append(list, recordToHabit(r))
	}
	return list, nil
}

func (s *Store) PutHabit(ctx context.Context, uid string, h habits.Habit) error {
	record, err := habitToRecord(uid, h)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&record).Error
}

func (s *Store) DeleteHabit(ctx context.Context, uid, id string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", uid, id).
		Delete(&HabitRecord{}).Error
}

func (s *Store) HabitLogs(ctx context.Context, uid string) (map[string]habits.Log, error) {
	var records []HabitLogRecord
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", uid).
		Find(&records).Error; err != nil {
		return nil, err
	}
	logs := make(map[string]habits.Log, len(records))
	for _, r := range records {
		logs[r.Key] = habits.Log{
			HabitID:   r.HabitID,
			Date:      r.Date,
			Completed: true,
			Note:      r.Note,
		}
	}
	return logs, nil
}

func (s *Store) PutHabitLog(ctx context.Context, uid string, l habits.Log) error {
	record := HabitLogRecord{
		UserID:  uid,
		Key:     l.Key(),
		HabitID: l.HabitID,
		Date:    l.Date,
		Note:    l.Note,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&record).Error
}

func (s *Store) DeleteHabitLog(ctx context.Context, uid, key string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND key = ?", uid, key).
		Delete(&HabitLogRecord{}).Error
}

func (s *Store) Events(ctx context.Context, uid string) ([]calendar.Event, error) {
	var records []EventRecord
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", uid).
		Order("start_time").
		Find(&records).Error; err != nil {
		return nil, err
	}
	list := make([]calendar.Event, 0, len(records))
	for _, r := range records {
		list = append(list, recordToEvent(r))
	}
	return list, nil
}

func (s *Store) PutEvent(ctx context.Context, uid string, e calendar.Event) error {
	record := eventToRecord(uid, e)
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&record).Error
}

func (s *Store) DeleteEvent(ctx context.Context, uid, id string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", uid, id).
		Delete(&EventRecord{}).Error
}

func (s *Store) ReplaceEvents(ctx context.Context, uid string, events []calendar.Event) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", uid).Delete(&EventRecord{}).Error; err != nil {
			return err
		}
		for _, e := range events {
			record := eventToRecord(uid, e)
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Dates(ctx context.Context, uid string) ([]dates.ImportantDate, error) {
	var records []DateRecord
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", uid).
		Order("date").
		Find(&records).Error; err != nil {
		return nil, err
	}
	list := make([]dates.ImportantDate, 0, len(records))
	for _, r := range records {
		list = append(list, recordToDate(r))
	}
	return list, nil
}

func (s *Store) PutDate(ctx context.Context, uid string, d dates.ImportantDate) error {
	record := dateToRecord(uid, d)
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&record).Error
}

func (s *Store) DeleteDate(ctx context.Context, uid, id string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", uid, id).
		Delete(&DateRecord{}).Error
}

func (s *Store) Profile(ctx context.Context, uid string) (*profile.Profile, error) {
	var record ProfileRecord
	result := s.db.WithContext(ctx).First(&record, "uid = ?", uid)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, result.Error
	}
	p := recordToProfile(record)
	return &p, nil
}

func (s *Store) PutProfile(ctx context.Context, uid string, p profile.Profile) error {
	record, err := profileToRecord(uid, p)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&record).Error
}

// ProfileByEmail looks a profile up by its provider email; used when an
// OAuth callback must attach to an existing account.
func (s *Store) ProfileByEmail(ctx context.Context, email string) (*profile.Profile, error) {
	var record ProfileRecord
	result := s.db.WithContext(ctx).First(&record, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, result.Error
	}
	p := recordToProfile(record)
	return &p, nil
}

// LinkedProfiles returns every non-guest profile that holds a calendar
// token; used by the background re-sync job.
func (s *Store) LinkedProfiles(ctx context.Context) ([]profile.Profile, error) {
	var records []ProfileRecord
	if err := s.db.WithContext(ctx).
		Where("guest = false AND calendar_token <> ''").
		Find(&records).Error; err != nil {
		return nil, err
	}
	list := make([]profile.Profile, 0, len(records))
	for _, r := range records {
		list = append(list, recordToProfile(r))
	}
	return list, nil
}
