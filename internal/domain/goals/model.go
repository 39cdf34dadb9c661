package goals

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrGoalNotFound    = errors.New("goal not found")
	ErrSubgoalNotFound = errors.New("subgoal not found")
	ErrInvalidTarget   = errors.New("target must be positive")
)

// Quadrant is an Eisenhower priority tag. Empty means untagged.
type Quadrant string

const (
	QuadrantNone          Quadrant = ""
	QuadrantUrgentImp     Quadrant = "urgent-important"
	QuadrantNotUrgentImp  Quadrant = "not-urgent-important"
	QuadrantUrgentNotImp  Quadrant = "urgent-not-important"
	QuadrantNeitherUrgent Quadrant = "not-urgent-not-important"
)

// Subgoal is an ordered checklist item under a goal. Completing subgoals
// does not feed back into the parent's numeric progress.
type Subgoal struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Goal is a numeric-progress goal. Progress is clamped to [0, Target] by
// Increment/Decrement only; direct edits are stored as given.
type Goal struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Category string    `json:"category"`
	Progress int       `json:"progress"`
	Target   int       `json:"target"`
	Unit     string    `json:"unit"`
	Color    string    `json:"color"`
	Icon     string    `json:"icon"`
	Subgoals []Subgoal `json:"subgoals,omitempty"`
	Quadrant Quadrant  `json:"quadrant,omitempty"`
}

// NewID mints a goal or subgoal id.
func NewID() string {
	return uuid.NewString()
}

// Increment bumps progress by one, clamped at Target.
func (g *Goal) Increment() {
	if g.Progress+1 > g.Target {
		g.Progress = g.Target
		return
	}
	g.Progress++
}

// Decrement drops progress by one, clamped at zero.
func (g *Goal) Decrement() {
	if g.Progress-1 < 0 {
		g.Progress = 0
		return
	}
	g.Progress--
}

// AdjustProgress applies a signed delta with the same clamp rule as
// Increment/Decrement. Used by linked-habit side effects.
func (g *Goal) AdjustProgress(delta int) {
	p := g.Progress + delta
	if p < 0 {
		p = 0
	}
	if p > g.Target {
		p = g.Target
	}
	g.Progress = p
}

// ToggleSubgoal flips the completed flag of one subgoal in place.
func (g *Goal) ToggleSubgoal(subgoalID string) error {
	for i := range g.Subgoals {
		if g.Subgoals[i].ID == subgoalID {
			g.Subgoals[i].Completed = !g.Subgoals[i].Completed
			return nil
		}
	}
	return ErrSubgoalNotFound
}

// Validate checks invariants enforced on create.
func (g *Goal) Validate() error {
	if g.Target <= 0 {
		return ErrInvalidTarget
	}
	return nil
}
