package fridge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutriflow/internal/profile"
)

func newBackend(t *testing.T, routes map[string]http.HandlerFunc) *Client {
	t.Helper()
	mux := http.NewServeMux()
	for path, h := range routes {
		mux.HandleFunc(path, h)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return NewClient(server.URL + "/")
}

func TestCaptureAfter(t *testing.T) {
	client := newBackend(t, map[string]http.HandlerFunc{
		"/capture-after": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			w.Write([]byte(`{
				"success": true,
				"taken_items": {"tomato": 1, "eggs": 2, "cheese": 1},
				"meal_suggestion": "MEAL 1: Omelette",
				"summary": "tomato: 1\neggs: 2\ncheese: 1",
				"allergy_warnings": [{"item": "cheese", "allergy": "lactose", "warning": "careful"}]
			}`))
		},
	})

	result, err := client.CaptureAfter(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"tomato", "eggs", "cheese"}, result.TakenItems.Names())
	assert.Equal(t, 2, result.TakenItems[1].Count)
	assert.Equal(t, "MEAL 1: Omelette", result.MealSuggestion)
	require.Len(t, result.AllergyWarnings, 1)
	assert.Equal(t, "lactose", result.AllergyWarnings[0].Allergy)
}

func TestCaptureAfter_NothingTaken(t *testing.T) {
	client := newBackend(t, map[string]http.HandlerFunc{
		"/capture-after": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success": false, "message": "Nothing was taken out"}`))
		},
	})

	result, err := client.CaptureAfter(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Nothing was taken out", result.Message)
	assert.Empty(t, result.TakenItems)
}

func TestCaptureBefore_ServerError(t *testing.T) {
	client := newBackend(t, map[string]http.HandlerFunc{
		"/capture-before": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "camera offline", http.StatusInternalServerError)
		},
	})

	_, err := client.CaptureBefore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "camera offline")
}

func TestFrame(t *testing.T) {
	frame := []byte{0xff, 0xd8, 0xff}
	client := newBackend(t, map[string]http.HandlerFunc{
		"/video-frame": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"frame": base64.StdEncoding.EncodeToString(frame)})
		},
	})

	data, err := client.Frame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, frame, data)
}

func TestFrame_NotAvailable(t *testing.T) {
	client := newBackend(t, map[string]http.HandlerFunc{
		"/video-frame": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": "No frame available"}`))
		},
	})

	_, err := client.Frame(context.Background())
	assert.True(t, errors.Is(err, ErrNoFrame))
}

func TestUpdateProfile(t *testing.T) {
	var received profile.Profile
	client := newBackend(t, map[string]http.HandlerFunc{
		"/update-profile": func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.Write([]byte(`{"success": true}`))
		},
	})

	p := profile.Default()
	require.NoError(t, client.UpdateProfile(context.Background(), p))
	assert.Equal(t, p, received)
}

func TestStatus(t *testing.T) {
	client := newBackend(t, map[string]http.HandlerFunc{
		"/status": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"capture_running": true, "camera_active": true, "before_items_count": 6, "user_profile": {"name": "John", "age": 30}}`))
		},
	})

	status, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.CaptureRunning)
	assert.Equal(t, 6, status.BeforeItemsCount)
	require.NotNil(t, status.UserProfile)
	assert.Equal(t, "John", status.UserProfile.Name)
}
