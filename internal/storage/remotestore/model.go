package remotestore

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/ewellner/daybridge/internal/domain/calendar"
	"github.com/ewellner/daybridge/internal/domain/dates"
	"github.com/ewellner/daybridge/internal/domain/goals"
	"github.com/ewellner/daybridge/internal/domain/habits"
	"github.com/ewellner/daybridge/internal/domain/profile"
)

// One row per entity, keyed by (user id, entity id). Rows are documents:
// the service replaces them whole, it never patches columns independently.

type GoalRecord struct {
	UserID    string         `gorm:"primaryKey;size:64"`
	ID        string         `gorm:"primaryKey;size:64"`
	Title     string         `gorm:"size:255;not null"`
	Category  string         `gorm:"size:100"`
	Progress  int            `gorm:"not null;default:0"`
	Target    int            `gorm:"not null;default:1"`
	Unit      string         `gorm:"size:50"`
	Color     string         `gorm:"size:30"`
	Icon      string         `gorm:"size:30"`
	Quadrant  string         `gorm:"size:40"`
	Subgoals  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"not null;default:current_timestamp"`
	UpdatedAt time.Time      `gorm:"not null;default:current_timestamp;autoUpdateTime"`
}

func (GoalRecord) TableName() string { return "goals" }

type HabitRecord struct {
	UserID        string         `gorm:"primaryKey;size:64"`
	ID            string         `gorm:"primaryKey;size:64"`
	Title         string         `gorm:"size:255;not null"`
	Category      string         `gorm:"size:100"`
	Icon          string         `gorm:"size:30"`
	Color         string         `gorm:"size:30"`
	Streak        int            `gorm:"not null;default:0"`
	LinkedGoalIDs datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt     time.Time      `gorm:"not null;default:current_timestamp"`
	UpdatedAt     time.Time      `gorm:"not null;default:current_timestamp;autoUpdateTime"`
}

func (HabitRecord) TableName() string { return "habits" }

type HabitLogRecord struct {
	UserID    string    `gorm:"primaryKey;size:64"`
	Key       string    `gorm:"primaryKey;size:128"` // {habitID}_{YYYY-MM-DD}
	HabitID   string    `gorm:"size:64;not null;index:idx_habit_log_habit"`
	Date      string    `gorm:"size:10;not null;index:idx_habit_log_date"`
	Note      string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null;default:current_timestamp"`
}

func (HabitLogRecord) TableName() string { return "habit_logs" }

type EventRecord struct {
	UserID    string    `gorm:"primaryKey;size:64"`
	ID        string    `gorm:"primaryKey;size:128"` // temp or provider id
	Title     string    `gorm:"size:255;not null"`
	Time      string    `gorm:"size:20"`
	StartTime int64     `gorm:"not null;index:idx_event_start"`
	Type      string    `gorm:"size:20;not null;default:'work'"`
	Duration  string    `gorm:"size:30"`
	CreatedAt time.Time `gorm:"not null;default:current_timestamp"`
	UpdatedAt time.Time `gorm:"not null;default:current_timestamp;autoUpdateTime"`
}

func (EventRecord) TableName() string { return "events" }

type DateRecord struct {
	UserID    string    `gorm:"primaryKey;size:64"`
	ID        string    `gorm:"primaryKey;size:64"`
	Title     string    `gorm:"size:255;not null"`
	Date      string    `gorm:"size:10;not null;index:idx_date_day"`
	Category  string    `gorm:"size:100"`
	CreatedAt time.Time `gorm:"not null;default:current_timestamp"`
	UpdatedAt time.Time `gorm:"not null;default:current_timestamp;autoUpdateTime"`
}

func (DateRecord) TableName() string { return "important_dates" }

type ProfileRecord struct {
	UID           string         `gorm:"primaryKey;size:64"`
	DisplayName   string         `gorm:"size:255"`
	PhotoURL      string         `gorm:"size:512"`
	Email         string         `gorm:"size:255;index:idx_profile_email"`
	CalendarToken string         `gorm:"size:2048"`
	Guest         bool           `gorm:"not null;default:false"`
	Avatar        datatypes.JSON `gorm:"type:jsonb"`
	Dashboard     datatypes.JSON `gorm:"type:jsonb"`
	Theme         string         `gorm:"size:10;not null;default:'auto'"`
	CreatedAt     time.Time      `gorm:"not null;default:current_timestamp"`
	UpdatedAt     time.Time      `gorm:"not null;default:current_timestamp;autoUpdateTime"`
}

func (ProfileRecord) TableName() string { return "profiles" }

// Models lists every record type for automigration.
func Models() []interface{} {
	return []interface{}{
		&GoalRecord{},
		&HabitRecord{},
		&HabitLogRecord{},
		&EventRecord{},
		&DateRecord{},
		&ProfileRecord{},
	}
}

func goalToRecord(uid string, g goals.Goal) (GoalRecord, error) {
	sub, err := json.Marshal(g.Subgoals)
	if err != nil {
		return GoalRecord{}, err
	}
	return GoalRecord{
		UserID:   uid,
		ID:       g.ID,
		Title:    g.Title,
		Category: g.Category,
		Progress: g.Progress,
		Target:   g.Target,
		Unit:     g.Unit,
		Color:    g.Color,
		Icon:     g.Icon,
		Quadrant: string(g.Quadrant),
		Subgoals: datatypes.JSON(sub),
	}, nil
}

func recordToGoal(r GoalRecord) goals.Goal {
	var sub []goals.Subgoal
	if len(r.Subgoals) > 0 {
		_ = json.Unmarshal(r.Subgoals, &sub)
	}
	return goals.Goal{
		ID:       r.ID,
		Title:    r.Title,
		Category: r.Category,
		Progress: r.Progress,
		Target:   r.Target,
		Unit:     r.Unit,
		Color:    r.Color,
		Icon:     r.Icon,
		Subgoals: sub,
		Quadrant: goals.Quadrant(r.Quadrant),
	}
}

func habitToRecord(uid string, h habits.Habit) (HabitRecord, error) {
	linked, err := json.Marshal(h.LinkedGoalIDs)
	if err != nil {
		return HabitRecord{}, err
	}
	return HabitRecord{
		UserID:        uid,
		ID:            h.ID,
		Title:         h.Title,
		Category:      h.Category,
		Icon:          h.Icon,
		Color:         h.Color,
		Streak:        h.Streak,
		LinkedGoalIDs: datatypes.JSON(linked),
	}, nil
}

func recordToHabit(r HabitRecord) habits.Habit {
	var linked []string
	if len(r.LinkedGoalIDs) > 0 {
		_ = json.Unmarshal(r.LinkedGoalIDs, &linked)
	}
	return habits.Habit{
		ID:            r.ID,
		Title:         r.Title,
		Category:      r.Category,
		Icon:          r.Icon,
		Color:         r.Color,
		Streak:        r.Streak,
		LinkedGoalIDs: linked,
	}
}

func eventToRecord(uid string, e calendar.Event) EventRecord {
	return EventRecord{
		UserID:    uid,
		ID:        e.ID,
		Title:     e.Title,
		Time:      e.Time,
		StartTime: e.StartTime,
		Type:      string(e.Type),
		Duration:  e.Duration,
	}
}

func recordToEvent(r EventRecord) calendar.Event {
	return calendar.Event{
		ID:        r.ID,
		Title:     r.Title,
		Time:      r.Time,
		StartTime: r.StartTime,
		Type:      calendar.EventType(r.Type),
		Duration:  r.Duration,
	}
}

func dateToRecord(uid string, d dates.ImportantDate) DateRecord {
	return DateRecord{
		UserID:   uid,
		ID:       d.ID,
		Title:    d.Title,
		Date:     d.Date,
		Category: d.Category,
	}
}

func recordToDate(r DateRecord) dates.ImportantDate {
	return dates.ImportantDate{
		ID:       r.ID,
		Title:    r.Title,
		Date:     r.Date,
		Category: r.Category,
	}
}

func profileToRecord(uid string, p profile.Profile) (ProfileRecord, error) {
	dash, err := json.Marshal(p.Dashboard)
	if err != nil {
		return ProfileRecord{}, err
	}
	var avatar datatypes.JSON
	if p.Avatar != nil {
		raw, err := json.Marshal(p.Avatar)
		if err != nil {
			return ProfileRecord{}, err
		}
		avatar = datatypes.JSON(raw)
	}
	return ProfileRecord{
		UID:           uid,
		DisplayName:   p.DisplayName,
		PhotoURL:      p.PhotoURL,
		Email:         p.Email,
		CalendarToken: p.CalendarToken,
		Guest:         p.Guest,
		Avatar:        avatar,
		Dashboard:     datatypes.JSON(dash),
		Theme:         string(p.Theme),
	}, nil
}

func recordToProfile(r ProfileRecord) profile.Profile {
	p := profile.Profile{
		UID:           r.UID,
		DisplayName:   r.DisplayName,
		PhotoURL:      r.PhotoURL,
		Email:         r.Email,
		CalendarToken: r.CalendarToken,
		Guest:         r.Guest,
		Theme:         profile.Theme(r.Theme),
	}
	if len(r.Avatar) > 0 {
		var a profile.Avatar
		if err := json.Unmarshal(r.Avatar, &a); err == nil {
			p.Avatar = &a
		}
	}
	if len(r.Dashboard) > 0 {
		_ = json.Unmarshal(r.Dashboard, &p.Dashboard)
	}
	if len(p.Dashboard.Sections) == 0 {
		p.Dashboard = profile.DefaultDashboard()
	}
	return p
}
