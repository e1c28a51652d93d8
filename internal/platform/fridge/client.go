package fridge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nutriflow/internal/meal"
	"nutriflow/internal/profile"
)

// DefaultURL is where the fridge backend listens by default.
const DefaultURL = "http://localhost:8000"

// ErrNoFrame is returned when the backend has no camera frame to hand out.
var ErrNoFrame = errors.New("no camera frame available")

// Client talks to the camera-driven fridge backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new fridge backend client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// CaptureBeforeResult is the answer to a full-fridge capture.
type CaptureBeforeResult struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message,omitempty"`
	Error       string   `json:"error,omitempty"`
	BeforeItems []string `json:"before_items"`
}

// CaptureAfterResult is the answer to a "what was taken" capture.
type CaptureAfterResult struct {
	Success         bool                     `json:"success"`
	Message         string                   `json:"message,omitempty"`
	Error           string                   `json:"error,omitempty"`
	TakenItems      meal.TakenItems          `json:"taken_items"`
	MealSuggestion  string                   `json:"meal_suggestion"`
	Summary         string                   `json:"summary,omitempty"`
	AllergyWarnings []profile.AllergyWarning `json:"allergy_warnings"`
}

// Status reports the backend's camera and capture state.
type Status struct {
	CaptureRunning   bool             `json:"capture_running"`
	CameraActive     bool             `json:"camera_active"`
	BeforeItemsCount int              `json:"before_items_count"`
	CurrentStatus    string           `json:"current_status,omitempty"`
	UserProfile      *profile.Profile `json:"user_profile,omitempty"`
}

// CaptureBefore records the full fridge state and starts monitoring.
func (c *Client) CaptureBefore(ctx context.Context) (*CaptureBeforeResult, error) {
	var result CaptureBeforeResult
	if err := c.do(ctx, http.MethodPost, "/capture-before", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CaptureAfter compares the fridge with the recorded state and reports what was taken.
func (c *Client) CaptureAfter(ctx context.Context) (*CaptureAfterResult, error) {
	var result CaptureAfterResult
	if err := c.do(ctx, http.MethodPost, "/capture-after", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Status fetches the backend status.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var status Status
	if err := c.do(ctx, http.MethodGet, "/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// UpdateProfile pushes a profile to the backend.
func (c *Client) UpdateProfile(ctx context.Context, p profile.Profile) error {
	var result struct {
		Success bool `json:"success"`
	}
	if err := c.do(ctx, http.MethodPost, "/update-profile", p, &result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("fridge backend rejected profile update")
	}
	return nil
}

// Frame returns the current camera frame as encoded image bytes.
func (c *Client) Frame(ctx context.Context) ([]byte, error) {
	var result struct {
		Frame string `json:"frame"`
	}
	if err := c.do(ctx, http.MethodGet, "/video-frame", nil, &result); err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(result.Frame)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoFrame
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reqBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(reqBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fridge backend %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && path == "/video-frame" {
		return ErrNoFrame
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("fridge backend %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("fridge backend %s: failed to decode response: %w", path, err)
	}
	return nil
}
