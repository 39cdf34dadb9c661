// Package assistant integrates the generative-language backend: free-form
// chat with calendar tool calling, the morning briefing, habit suggestions,
// and day planning.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ewellner/daybridge/pkg/config"
)

// Wire types for the generateContent API.

type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

type FunctionCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

type FunctionResponse struct {
	Name     string                 `json:"name"`
	Response map[string]interface{} `json:"response"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type FunctionDeclaration struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations"`
}

type GenerationConfig struct {
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
}

type generateRequest struct {
	Contents          []Content         `json:"contents"`
	Tools             []Tool            `json:"tools,omitempty"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

type candidate struct {
	Content Content `json:"content"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

// Client calls the generative backend over plain HTTP and JSON.
type Client struct {
	baseURL string
	model   string
	apiKey  string
	http    *http.Client
	log     *logrus.Logger
}

func NewClient(cfg config.AssistantConfig, log *logrus.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// generate sends one generateContent call and returns the first candidate's
// content. An empty candidate list is an error.
func (c *Client) generate(ctx context.Context, req generateRequest) (Content, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return Content{}, fmt.Errorf("assistant: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Content{}, fmt.Errorf("assistant: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Content{}, fmt.Errorf("assistant: call backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Content{}, fmt.Errorf("assistant: backend returned %s: %s", resp.Status, string(detail))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Content{}, fmt.Errorf("assistant: decode response: %w", err)
	}
	if len(out.Candidates) == 0 {
		return Content{}, fmt.Errorf("assistant: backend returned no candidates")
	}
	return out.Candidates[0].Content, nil
}

// text concatenates the text parts of a content block.
func text(content Content) string {
	var buf bytes.Buffer
	for _, p := range content.Parts {
		buf.WriteString(p.Text)
	}
	return buf.String()
}

// functionCalls extracts the function-call parts of a content block in order.
func functionCalls(content Content) []FunctionCall {
	var calls []FunctionCall
	for _, p := range content.Parts {
		if p.FunctionCall != nil {
			calls = append(calls, *p.FunctionCall)
		}
	}
	return calls
}
