package dto

import "github.com/ewellner/daybridge/internal/domain/habits"

// CreateHabitRequest represents the request to create a new habit
type CreateHabitRequest struct {
	Title         string   `json:"title" binding:"required"`
	Category      string   `json:"category"`
	Icon          string   `json:"icon"`
	Color         string   `json:"color" binding:"omitempty,len=7"`
	LinkedGoalIDs []string `json:"linkedGoalIds"`
}

// UpdateHabitRequest represents the request to update an existing habit
type UpdateHabitRequest struct {
	Title         *string   `json:"title,omitempty"`
	Category      *string   `json:"category,omitempty"`
	Icon          *string   `json:"icon,omitempty"`
	Color         *string   `json:"color,omitempty" binding:"omitempty,len=7"`
	LinkedGoalIDs *[]string `json:"linkedGoalIds,omitempty"`
}

// Apply merges the set fields onto an existing habit.
func (r *UpdateHabitRequest) Apply(h *habits.Habit) {
	if r.Title != nil {
		h.Title = *r.Title
	}
	if r.Category != nil {
		h.Category = *r.Category
	}
	if r.Icon != nil {
		h.Icon = *r.Icon
	}
	if r.Color != nil {
		h.Color = *r.Color
	}
	if r.LinkedGoalIDs != nil {
		h.LinkedGoalIDs = *r.LinkedGoalIDs
	}
}

// ToggleHabitRequest marks or unmarks a habit for a day. Date defaults to
// today when omitted; a nil Completed flips the current state.
type ToggleHabitRequest struct {
	Date      string `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Completed *bool  `json:"completed,omitempty"`
	Note      string `json:"note,omitempty"`
}

// HabitListResponse represents the response for listing habits
type HabitListResponse struct {
	Habits     []habits.Habit        `json:"habits"`
	Logs       map[string]habits.Log `json:"logs"`
	TotalCount int                   `json:"total_count"`
}
