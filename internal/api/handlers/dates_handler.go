package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ewellner/daybridge/internal/api/dto"
	"github.com/ewellner/daybridge/internal/domain/dates"
	"github.com/ewellner/daybridge/internal/storage"
	"github.com/ewellner/daybridge/internal/syncer"
)

// DatesHandler handles HTTP requests for important dates
type DatesHandler struct {
	controller *syncer.Controller
	stores     *storage.Selector
}

func NewDatesHandler(controller *syncer.Controller, stores *storage.Selector) *DatesHandler {
	return &DatesHandler{controller: controller, stores: stores}
}

// ListDates godoc
// @Summary List important dates
// @Tags dates
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.DateListResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /api/dates [get]
func (h *DatesHandler) ListDates(c *gin.Context) {
	sess, _, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}

	snap, err := h.controller.Load(c.Request.Context(), sess)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dto.DateListResponse{Dates: snap.Dates, TotalCount: len(snap.Dates)}})
}

// CreateDate godoc
// @Summary Create an important date
// @Tags dates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param date body dto.CreateImportantDateRequest true "Important date creation request"
// @Success 201 {object} dates.ImportantDate
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /api/dates [post]
func (h *DatesHandler) CreateDate(c *gin.Context) {
	var req dto.CreateImportantDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, _, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}

	created, err := h.controller.CreateDate(c.Request.Context(), sess, req.ToDate())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": created})
}

// UpdateDate godoc
// @Summary Update an important date
// @Tags dates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Important date ID"
// @Param date body dto.UpdateImportantDateRequest true "Important date update request"
// @Success 200 {object} dates.ImportantDate
// @Failure 404 {object} map[string]string "Date not found"
// @Router /api/dates/{id} [put]
func (h *DatesHandler) UpdateDate(c *gin.Context) {
	var req dto.UpdateImportantDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, _, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}

	updated, err := h.controller.UpdateDate(c.Request.Context(), sess, c.Param("id"), req.ToDate())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, dates.ErrDateNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": updated})
}

// DeleteDate godoc
// @Summary Delete an important date
// @Tags dates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Important date ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Date not found"
// @Router /api/dates/{id} [delete]
func (h *DatesHandler) DeleteDate(c *gin.Context) {
	sess, _, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}
	if err := h.controller.DeleteDate(c.Request.Context(), sess, c.Param("id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, dates.ErrDateNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "important date deleted"})
}
