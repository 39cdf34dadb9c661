package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ewellner/daybridge/internal/api/dto"
	"github.com/ewellner/daybridge/internal/domain/calendar"
	"github.com/ewellner/daybridge/internal/storage"
	"github.com/ewellner/daybridge/internal/syncer"
)

// CalendarHandler handles HTTP requests for calendar events
type CalendarHandler struct {
	controller *syncer.Controller
	stores     *storage.Selector
}

func NewCalendarHandler(controller *syncer.Controller, stores *storage.Selector) *CalendarHandler {
	return &CalendarHandler{controller: controller, stores: stores}
}

func eventStatus(err error) int {
	if errors.Is(err, calendar.ErrEventNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// ListEvents godoc
// @Summary List calendar events
// @Description List the session's calendar events ordered by start time
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.EventListResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /api/calendar/events [get]
func (h *CalendarHandler) ListEvents(c *gin.Context) {
	sess, _, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}

	snap, err := h.controller.Load(c.Request.Context(), sess)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dto.EventListResponse{Events: snap.Events, TotalCount: len(snap.Events)}})
}

// CreateEvent godoc
// @Summary Create a calendar event
// @Description Create an event; mirrored to the linked provider when a
// @Description calendar token is present
// @Tags calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body dto.CreateCalendarEventRequest true "Event creation request"
// @Success 201 {object} calendar.Event
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /api/calendar/events [post]
func (h *CalendarHandler) CreateEvent(c *gin.Context) {
	var req dto.CreateCalendarEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, _, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}

	created, err := h.controller.CreateEvent(c.Request.Context(), sess, req.ToEvent())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": created})
}

// BatchCreateEvents godoc
// @Summary Create several calendar events
// @Description Create events sequentially; failures skip the event and
// @Description continue
// @Tags calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param events body dto.BatchCreateEventsRequest true "Batch creation request"
// @Success 201 {object} dto.EventListResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /api/calendar/events/batch [post]
func (h *CalendarHandler) BatchCreateEvents(c *gin.Context) {
	var req dto.BatchCreateEventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, _, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}

	events := make([]calendar.Event, 0, len(req.Events))
	for _, e := range req.Events {
		events = append(events, e.ToEvent())
	}

	created, err := h.controller.CreateEvents(c.Request.Context(), sess, events)
	if err != nil && len(created) == 0 {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": dto.EventListResponse{Events: created, TotalCount: len(created)}})
}

// UpdateEvent godoc
// @Summary Update a calendar event
// @Tags calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param event body dto.UpdateCalendarEventRequest true "Event update request"
// @Success 200 {object} calendar.Event
// @Failure 404 {object} map[string]string "Event not found"
// @Router /api/calendar/events/{id} [put]
func (h *CalendarHandler) UpdateEvent(c *gin.Context) {
	var req dto.UpdateCalendarEventRequest
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
	var current *calendar.Event
	for i := range snap.Events {
		if snap.Events[i].ID == id {
			current = &snap.Events[i]
			break
		}
	}
	if current == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": calendar.ErrEventNotFound.Error()})
		return
	}

	updated := *current
	req.Apply(&updated)
	out, err := h.controller.UpdateEvent(c.Request.Context(), sess, updated)
	if err != nil {
		c.JSON(eventStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// DeleteEvent godoc
// @Summary Delete a calendar event
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Event not found"
// @Router /api/calendar/events/{id} [delete]
func (h *CalendarHandler) DeleteEvent(c *gin.Context) {
	sess, _, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}
	if err := h.controller.DeleteEvent(c.Request.Context(), sess, c.Param("id")); err != nil {
		c.JSON(eventStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "event deleted"})
}

// RefreshCalendar godoc
// @Summary Refresh events from the linked calendar
// @Description Fetch the provider window and make it authoritative; without
// @Description a linked calendar the stored events are returned unchanged
// @Tags calendar
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.EventListResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /api/calendar/refresh [post]
func (h *CalendarHandler) RefreshCalendar(c *gin.Context) {
	sess, _, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}

	events, err := h.controller.RefreshCalendar(c.Request.Context(), sess)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dto.EventListResponse{Events: events, TotalCount: len(events)}})
}
