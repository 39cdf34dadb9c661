package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ewellner/daybridge/internal/api/dto"
	"github.com/ewellner/daybridge/internal/domain/habits"
	"github.com/ewellner/daybridge/internal/storage"
	"github.com/ewellner/daybridge/internal/syncer"
)

// HabitsHandler handles HTTP requests for habit operations
type HabitsHandler struct {
	controller *syncer.Controller
	stores     *storage.Selector
}

func NewHabitsHandler(controller *syncer.Controller, stores *storage.Selector) *HabitsHandler {
	return &HabitsHandler{controller: controller, stores: stores}
}

func habitStatus(err error) int {
	if errors.Is(err, habits.ErrHabitNotFound) || errors.Is(err, habits.ErrLogNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// ListHabits godoc
// @Summary List habits
// @Description List all habits and their completion logs
// @Tags habits
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.HabitListResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /api/habits [get]
func (h *HabitsHandler) ListHabits(c *gin.Context) {
	sess, _, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}

	snap, err := h.controller.Load(c.Request.Context(), sess)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dto.HabitListResponse{
		Habits:     snap.Habits,
		Logs:       snap.Logs,
		TotalCount: len(snap.Habits),
	}})
}

// CreateHabit godoc
// @Summary Create a new habit
// @Tags habits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param habit body dto.CreateHabitRequest true "Habit creation request"
// @Success 201 {object} habits.Habit
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /api/habits [post]
func (h *HabitsHandler) CreateHabit(c *gin.Context) {
	var req dto.CreateHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, _, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}

	created, err := h.controller.CreateHabit(c.Request.Context(), sess, habits.Habit{
		Title:         req.Title,
		Category:      req.Category,
		Icon:          req.Icon,
		Color:         req.Color,
		LinkedGoalIDs: req.LinkedGoalIDs,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": created})
}

// UpdateHabit godoc
// @Summary Update a habit
// @Tags habits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Habit ID"
// @Param habit body dto.UpdateHabitRequest true "Habit update request"
// @Success 200 {object} habits.Habit
// @Failure 404 {object} map[string]string "Habit not found"
// @Router /api/habits/{id} [put]
func (h *HabitsHandler) UpdateHabit(c *gin.Context) {
	var req dto.UpdateHabitRequest
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
	var current *habits.Habit
	for i := range snap.Habits {
		if snap.Habits[i].ID == id {
			current = &snap.Habits[i]
			break
		}
	}
	if current == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": habits.ErrHabitNotFound.Error()})
		return
	}

	updated := *current
	req.Apply(&updated)
	out, err := h.controller.UpdateHabit(c.Request.Context(), sess, updated)
	if err != nil {
		c.JSON(habitStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// DeleteHabit godoc
// @Summary Delete a habit
// @Description Delete a habit along with its completion logs
// @Tags habits
// @Produce json
// @Security BearerAuth
// @Param id path string true "Habit ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Habit not found"
// @Router /api/habits/{id} [delete]
func (h *HabitsHandler) DeleteHabit(c *gin.Context) {
	sess, _, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}
	if err := h.controller.DeleteHabit(c.Request.Context(), sess, c.Param("id")); err != nil {
		c.JSON(habitStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "habit deleted"})
}

// ToggleHabit godoc
// @Summary Toggle habit completion for a day
// @Description Mark or unmark a habit for a date; recomputes the streak and
// @Description moves linked goals' progress one step
// @Tags habits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Habit ID"
// @Param toggle body dto.ToggleHabitRequest false "Toggle request"
// @Success 200 {object} habits.Habit
// @Failure 404 {object} map[string]string "Habit not found"
// @Router /api/habits/{id}/toggle [post]
func (h *HabitsHandler) ToggleHabit(c *gin.Context) {
	var req dto.ToggleHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, _, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}

	toggled, err := h.controller.ToggleHabit(c.Request.Context(), sess, c.Param("id"), req.Date, req.Completed, req.Note)
	if err != nil {
		c.JSON(habitStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toggled})
}
