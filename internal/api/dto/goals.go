package dto

import "github.com/ewellner/daybridge/internal/domain/goals"

// CreateGoalRequest represents the request to create a new goal
type CreateGoalRequest struct {
	Title    string          `json:"title" binding:"required"`
	Category string          `json:"category"`
	Target   int             `json:"target" binding:"required,min=1"`
	Progress int             `json:"progress" binding:"omitempty,min=0"`
	Unit     string          `json:"unit"`
	Color    string          `json:"color" binding:"omitempty,len=7"` // e.g. "#ff8000"
	Icon     string          `json:"icon"`
	Quadrant goals.Quadrant  `json:"quadrant"`
	Subgoals []goals.Subgoal `json:"subgoals"`
}

// UpdateGoalRequest represents the request to update an existing goal
type UpdateGoalRequest struct {
	Title    *string          `json:"title,omitempty"`
	Category *string          `json:"category,omitempty"`
	Target   *int             `json:"target,omitempty" binding:"omitempty,min=1"`
	Progress *int             `json:"progress,omitempty" binding:"omitempty,min=0"`
	Unit     *string          `json:"unit,omitempty"`
	Color    *string          `json:"color,omitempty" binding:"omitempty,len=7"`
	Icon     *string          `json:"icon,omitempty"`
	Quadrant *goals.Quadrant  `json:"quadrant,omitempty"`
	Subgoals *[]goals.Subgoal `json:"subgoals,omitempty"`
}

// Apply merges the set fields onto an existing goal.
func (r *UpdateGoalRequest) Apply(g *goals.Goal) {
	if r.Title != nil {
		g.Title = *r.Title
	}
	if r.Category != nil {
		g.Category = *r.Category
	}
	if r.Target != nil {
		g.Target = *r.Target
	}
	if r.Progress != nil {
		g.Progress = *r.Progress
	}
	if r.Unit != nil {
		g.Unit = *r.Unit
	}
	if r.Color != nil {
		g.Color = *r.Color
	}
	if r.Icon != nil {
		g.Icon = *r.Icon
	}
	if r.Quadrant != nil {
		g.Quadrant = *r.Quadrant
	}
	if r.Subgoals != nil {
		g.Subgoals = *r.Subgoals
	}
}

// GoalListResponse represents the response for listing goals
type GoalListResponse struct {
	Goals      []goals.Goal `json:"goals"`
	TotalCount int          `json:"total_count"`
}
