package gemini

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Cyclone1070/kiro/internal/conversation"
	"github.com/Cyclone1070/kiro/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: []*genai.Part{{Text: text}}},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

func TestComplete_HappyPath_MapsHistoryAndOptions(t *testing.T) {
	var (
		gotModel    string
		gotContents []*genai.Content
		gotConfig   *genai.GenerateContentConfig
	)
	client := &MockGeminiClient{
		GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotModel, gotContents, gotConfig = model, contents, config
			return textResponse("Hello there!"), nil
		},
	}

	text, err := New(client).Complete(context.Background(), &provider.Request{
		System: "You are Kiro.",
		Turns: []conversation.Turn{
			{Role: conversation.RoleUser, Content: "hi"},
			{Role: conversation.RoleAssistant, Content: "hello"},
			{Role: conversation.RoleSystem, Content: "stopped early"},
			{Role: conversation.RoleToolResult, Content: "42", ToolCall: &conversation.ToolCall{Name: "calc"}},
		},
		Options: provider.Options{Model: "gemini-2.5-flash", Temperature: 0.2, MaxOutputTokens: 512},
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello there!", text)
	assert.Equal(t, "gemini-2.5-flash", gotModel)
	require.Len(t, gotContents, 3)
	assert.Equal(t, "user", gotContents[0].Role)
	assert.Equal(t, "model", gotContents[1].Role)
	assert.Equal(t, "[Tool Result: calc]\n42", gotContents[2].Parts[0].Text)
	require.NotNil(t, gotConfig.Temperature)
	assert.InDelta(t, 0.2, *gotConfig.Temperature, 0.0001)
	assert.Equal(t, int32(512), gotConfig.MaxOutputTokens)
	require.NotNil(t, gotConfig.SystemInstruction)
	assert.Equal(t, "You are Kiro.\n\nstopped early", gotConfig.SystemInstruction.Parts[0].Text)
}

func TestComplete_SkipsThoughtParts(t *testing.T) {
	client := &MockGeminiClient{
		GenerateContentFunc: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "planning...", Thought: true},
					{Text: "answer"},
				}},
			}}}, nil
		},
	}

	text, err := New(client).Complete(context.Background(), &provider.Request{Options: provider.Options{Model: "m"}})

	require.NoError(t, err)
	assert.Equal(t, "answer", text)
}

func TestComplete_NoCandidates_IsInvalidResponse(t *testing.T) {
	client := &MockGeminiClient{
		GenerateContentFunc: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return &genai.GenerateContentResponse{}, nil
		},
	}

	_, err := New(client).Complete(context.Background(), &provider.Request{})

	assert.ErrorIs(t, err, provider.ErrInvalidResponse)
}

func TestComplete_SafetyBlock_IsInvalidResponse(t *testing.T) {
	client := &MockGeminiClient{
		GenerateContentFunc: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}}}, nil
		},
	}

	_, err := New(client).Complete(context.Background(), &provider.Request{})

	assert.ErrorIs(t, err, provider.ErrInvalidResponse)
}

func TestComplete_DeadlineExceeded_IsTimeout(t *testing.T) {
	client := &MockGeminiClient{
		GenerateContentFunc: func(ctx context.Context, _ string, _ []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}

	_, err := New(client).Complete(context.Background(), &provider.Request{Options: provider.Options{Timeout: 20 * time.Millisecond}})

	assert.ErrorIs(t, err, provider.ErrTimeout)
}

func TestMapGeminiError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      error
		retryable bool
	}{
		{"unauthorized", &genai.APIError{Code: 401}, provider.ErrAuthentication, false},
		{"forbidden", genai.APIError{Code: 403}, provider.ErrAuthentication, false},
		{"rate limited", &genai.APIError{Code: 429}, provider.ErrRateLimit, true},
		{"bad request", &genai.APIError{Code: 400, Message: "bad field"}, provider.ErrInvalidRequest, false},
		{"server error", &genai.APIError{Code: 503}, provider.ErrServiceUnavailable, true},
		{"other status", &genai.APIError{Code: 404}, provider.ErrBadStatus, false},
		{"cancelled", context.Canceled, provider.ErrCancelled, false},
		{"plain", errors.New("boom"), provider.ErrNetwork, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapGeminiError(tt.err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.retryable, provider.IsRetryable(err))
		})
	}
	assert.NoError(t, mapGeminiError(nil))
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name     string
		apiErr   *genai.APIError
		expected time.Duration
	}{
		{"nil error", nil, 0},
		{"empty details", &genai.APIError{Code: 429, Details: []map[string]any{}}, 0},
		{"retryDelay as int", &genai.APIError{Details: []map[string]any{{"retryDelay": 120}}}, 120 * time.Second},
		{"retryDelay as int64", &genai.APIError{Details: []map[string]any{{"retryDelay": int64(60)}}}, 60 * time.Second},
		{"retryDelay as float64", &genai.APIError{Details: []map[string]any{{"retryDelay": 30.0}}}, 30 * time.Second},
		{"retryDelay as string", &genai.APIError{Details: []map[string]any{{"retryDelay": "15s"}}}, 15 * time.Second},
		{"retry_after field", &genai.APIError{Details: []map[string]any{{"retry_after": 90}}}, 90 * time.Second},
		{"retryAfter field", &genai.APIError{Details: []map[string]any{{"retryAfter": 45}}}, 45 * time.Second},
		{"unparseable", &genai.APIError{Details: []map[string]any{{"retryDelay": "soon"}}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseRetryAfter(tt.apiErr)
			if tt.expected == 0 {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.expected, *got)
		})
	}
}

func TestListModels_TrimsPrefix(t *testing.T) {
	client := &MockGeminiClient{
		ListModelsFunc: func(context.Context) ([]ModelInfo, error) {
			return []ModelInfo{{Name: "models/gemini-2.5-flash"}, {Name: "models/gemini-2.5-pro"}}, nil
		},
	}

	models, err := New(client).ListModels(context.Background())

	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "gemini-2.5-flash", models[0].Name)
}

func TestChatModel(t *testing.T) {
	assert.True(t, chatModel("models/gemini-2.5-flash"))
	assert.False(t, chatModel("models/gemini-embedding-001"))
	assert.False(t, chatModel("models/gemini-2.0-flash-live-001"))
	assert.False(t, chatModel("models/text-bison"))
}
