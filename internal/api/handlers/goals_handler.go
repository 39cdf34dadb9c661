package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ewellner/daybridge/internal/api/dto"
	"github.com/ewellner/daybridge/internal/domain/goals"
	"github.com/ewellner/daybridge/internal/storage"
	"github.com/ewellner/daybridge/internal/syncer"
)

// GoalsHandler handles HTTP requests for goal operations
type GoalsHandler struct {
	controller *syncer.Controller
	stores     *storage.Selector
}

func NewGoalsHandler(controller *syncer.Controller, stores *storage.Selector) *GoalsHandler {
	return &GoalsHandler{controller: controller, stores: stores}
}

func goalStatus(err error) int {
	switch {
	case errors.Is(err, goals.ErrGoalNotFound), errors.Is(err, goals.ErrSubgoalNotFound):
		return http.StatusNotFound
	case errors.Is(err, goals.ErrInvalidTarget):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ListGoals godoc
// @Summary List goals
// @Description List all goals for the current session
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.GoalListResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /api/goals [get]
func (h *GoalsHandler) ListGoals(c *gin.Context) {
	sess, _, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}

	snap, err := h.controller.Load(c.Request.Context(), sess)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dto.GoalListResponse{Goals: snap.Goals, TotalCount: len(snap.Goals)}})
}

// CreateGoal godoc
// @Summary Create a new goal
// @Description Create a goal with a positive numeric target
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param goal body dto.CreateGoalRequest true "Goal creation request"
// @Success 201 {object} goals.Goal
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /api/goals [post]
func (h *GoalsHandler) CreateGoal(c *gin.Context) {
	var req dto.CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, _, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}

	for i := range req.Subgoals {
		if req.Subgoals[i].ID == "" {
			req.Subgoals[i].ID = goals.NewID()
		}
	}

	created, err := h.controller.CreateGoal(c.Request.Context(), sess, goals.Goal{
		Title:    req.Title,
		Category: req.Category,
		Target:   req.Target,
		Progress: req.Progress,
		Unit:     req.Unit,
		Color:    req.Color,
		Icon:     req.Icon,
		Quadrant: req.Quadrant,
		Subgoals: req.Subgoals,
	})
	if err != nil {
		c.JSON(goalStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": created})
}

// UpdateGoal godoc
// @Summary Update a goal
// @Description Update fields of an existing goal
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Param goal body dto.UpdateGoalRequest true "Goal update request"
// @Success 200 {object} goals.Goal
// @Failure 404 {object} map[string]string "Goal not found"
// @Router /api/goals/{id} [put]
func (h *GoalsHandler) UpdateGoal(c *gin.Context) {
	var req dto.UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, _, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}

	snap, err := h.controller.Load(c.Request.Context(), sess)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	var current *goals.Goal
	for i := range snap.Goals {
		if snap.Goals[i].ID == id {
			current = &snap.Goals[i]
			break
		}
	}
	if current == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": goals.ErrGoalNotFound.Error()})
		return
	}

	updated := *current
	req.Apply(&updated)
	out, err := h.controller.UpdateGoal(c.Request.Context(), sess, updated)
	if err != nil {
		c.JSON(goalStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// DeleteGoal godoc
// @Summary Delete a goal
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Goal not found"
// @Router /api/goals/{id} [delete]
func (h *GoalsHandler) DeleteGoal(c *gin.Context) {
	sess, _, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}
	if err := h.controller.DeleteGoal(c.Request.Context(), sess, c.Param("id")); err != nil {
		c.JSON(goalStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "goal deleted"})
}

// IncrementGoal godoc
// @Summary Increment goal progress
// @Description Bump progress by one, clamped at the target
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Success 200 {object} goals.Goal
// @Failure 404 {object} map[string]string "Goal not found"
// @Router /api/goals/{id}/increment [post]
func (h *GoalsHandler) IncrementGoal(c *gin.Context) {
	sess, _, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}
	g, err := h.controller.IncrementGoal(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		c.JSON(goalStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": g})
}

// DecrementGoal godoc
// @Summary Decrement goal progress
// @Description Drop progress by one, clamped at zero
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Success 200 {object} goals.Goal
// @Failure 404 {object} map[string]string "Goal not found"
// @Router /api/goals/{id}/decrement [post]
func (h *GoalsHandler) DecrementGoal(c *gin.Context) {
	sess, _, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}
	g, err := h.controller.DecrementGoal(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		c.JSON(goalStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": g})
}

// ToggleSubgoal godoc
// @Summary Toggle a subgoal
// @Description Flip a subgoal's completion flag
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Param subgoalId path string true "Subgoal ID"
// @Success 200 {object} goals.Goal
// @Failure 404 {object} map[string]string "Goal or subgoal not found"
// @Router /api/goals/{id}/subgoals/{subgoalId}/toggle [post]
func (h *GoalsHandler) ToggleSubgoal(c *gin.Context) {
	sess, _, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}
	g, err := h.controller.ToggleSubgoal(c.Request.Context(), sess, c.Param("id"), c.Param("subgoalId"))
	if err != nil {
		c.JSON(goalStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": g})
}
