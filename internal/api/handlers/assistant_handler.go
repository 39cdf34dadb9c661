package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ewellner/daybridge/internal/api/dto"
	"github.com/ewellner/daybridge/internal/assistant"
	"github.com/ewellner/daybridge/internal/domain/profile"
	"github.com/ewellner/daybridge/internal/storage"
)

// AssistantHandler handles HTTP requests for the conversational assistant
type AssistantHandler struct {
	service *assistant.Service
	stores  *storage.Selector
}

func NewAssistantHandler(service *assistant.Service, stores *storage.Selector) *AssistantHandler {
	return &AssistantHandler{service: service, stores: stores}
}

// Chat godoc
// @Summary Send a chat message to the assistant
// @Description One conversational turn; the assistant may create, update or
// @Description delete calendar events on the user's behalf
// @Tags assistant
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param chat body dto.ChatRequest true "Chat request"
// @Success 200 {object} dto.ChatResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /api/assistant/chat [post]
func (h *AssistantHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, _, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}

	history := make([]assistant.Content, 0, len(req.History))
	for _, m := range req.History {
		history = append(history, assistant.Content{
			Role:  m.Role,
			Parts: []assistant.Part{{Text: m.Text}},
		})
	}

	reply := h.service.Chat(c.Request.Context(), sess, history, req.Message)
	c.JSON(http.StatusOK, gin.H{"data": dto.ChatResponse{Reply: reply}})
}

// Briefing godoc
// @Summary Generate the daily briefing
// @Description Returns a small HTML fragment; degrades to a canned fragment
// @Description when generation fails
// @Tags assistant
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.BriefingResponse
// @Router /api/assistant/briefing [get]
func (h *AssistantHandler) Briefing(c *gin.Context) {
	sess, p, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}

	style := profile.BriefingStyleConcise
	if p != nil {
		style = p.Dashboard.BriefingStyle
	}

	html := h.service.Briefing(c.Request.Context(), sess, style)
	c.JSON(http.StatusOK, gin.H{"data": dto.BriefingResponse{HTML: html}})
}

// Suggestions godoc
// @Summary Get habit suggestions
// @Description Habit recommendations grounded in the user's goals; an empty
// @Description list when generation fails
// @Tags assistant
// @Produce json
// @Security BearerAuth
// @Success 200 {array} assistant.Suggestion
// @Router /api/assistant/suggestions [get]
func (h *AssistantHandler) Suggestions(c *gin.Context) {
	sess, _, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}

	suggestions := h.service.Suggestions(c.Request.Context(), sess)
	if suggestions == nil {
		suggestions = []assistant.Suggestion{}
	}
	c.JSON(http.StatusOK, gin.H{"data": suggestions})
}

// Plan godoc
// @Summary Plan the day
// @Description Block out the day from a free-form prompt; the planned slots
// @Description are created as calendar events
// @Tags assistant
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body dto.PlanRequest true "Planning request"
// @Success 201 {object} dto.EventListResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /api/assistant/plan [post]
func (h *AssistantHandler) Plan(c *gin.Context) {
	var req dto.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, _, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}

	created, err := h.service.Plan(c.Request.Context(), sess, req.Prompt)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": dto.EventListResponse{Events: created, TotalCount: len(created)}})
}
