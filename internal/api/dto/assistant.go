package dto

// ChatMessage is one prior turn of the conversation.
type ChatMessage struct {
	Role string `json:"role" binding:"required,oneof=user model"`
	Text string `json:"text" binding:"required"`
}

// ChatRequest represents a conversational turn sent to the assistant
type ChatRequest struct {
	Message string        `json:"message" binding:"required"`
	History []ChatMessage `json:"history" binding:"omitempty,dive"`
}

// ChatResponse represents the assistant's reply
type ChatResponse struct {
	Reply string `json:"reply"`
}

// BriefingResponse carries the generated briefing HTML fragment
type BriefingResponse struct {
	HTML string `json:"html"`
}

// PlanRequest asks the assistant to block out the user's day
type PlanRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}
