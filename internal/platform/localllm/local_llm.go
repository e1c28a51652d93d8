package localllm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nutriflow/internal/meal"
	"nutriflow/internal/profile"
)

const (
	DefaultURL   = "http://localhost:11434/api/generate"
	DefaultModel = "llama3"
)

// Client represents a client for a local Ollama-style LLM.
type Client struct {
	httpClient *http.Client
	apiURL     string
	model      string
}

// NewClient creates a new client for the local LLM. Empty arguments fall back
// to DefaultURL and DefaultModel.
func NewClient(apiURL, model string) *Client {
	if apiURL == "" {
		apiURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     apiURL,
		model:      model,
	}
}

// Request represents the request body for the generate endpoint.
type Request struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// Response represents the non-streaming generate response.
type Response struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// GenerateContent sends a prompt to the local LLM and returns its answer.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	reqBytes, err := json.Marshal(Request{Model: c.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("received non-OK status code %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var llmResp Response
	if err := json.NewDecoder(resp.Body).Decode(&llmResp); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	if strings.TrimSpace(llmResp.Response) == "" {
		return "", fmt.Errorf("no content found in response")
	}
	return llmResp.Response, nil
}

// GenerateMealText asks the local LLM for meal ideas using the taken items.
func (c *Client) GenerateMealText(ctx context.Context, items meal.TakenItems, p profile.Profile) (string, error) {
	text, err := c.GenerateContent(ctx, meal.BuildPrompt(items, p))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return text, nil
}
