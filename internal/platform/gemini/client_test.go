package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{
				genai.Text("MEAL 1: Omelette\n"),
				genai.Text("CALORIES: 300"),
			}}},
		},
	}

	text, err := responseText(resp)
	require.NoError(t, err)
	assert.Equal(t, "MEAL 1: Omelette\nCALORIES: 300", text)
}

func TestResponseText_Empty(t *testing.T) {
	_, err := responseText(&genai.GenerateContentResponse{})
	assert.Error(t, err)

	_, err = responseText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}}}}},
	})
	assert.Error(t, err)
}

func TestNewClient_MissingKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", "")
	assert.Error(t, err)
}
