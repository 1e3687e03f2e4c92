package gemini

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Cyclone1070/kiro/internal/provider"
	"google.golang.org/genai"
)

// toGeminiContents converts flattened messages to Gemini contents. System
// turns are folded into the system instruction by the caller, so they are
// skipped here.
func toGeminiContents(messages []provider.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		if msg.Content == "" || msg.Role == "system" {
			continue
		}
		role := genai.Role(genai.RoleUser)
		if msg.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	return contents
}

// systemInstruction joins the request's system prompt with any system turns
// recorded in the history.
func systemInstruction(system string, messages []provider.Message) *genai.Content {
	parts := make([]string, 0, 2)
	if system != "" {
		parts = append(parts, system)
	}
	for _, msg := range messages {
		if msg.Role == "system" && msg.Content != "" {
			parts = append(parts, msg.Content)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return genai.NewContentFromText(strings.Join(parts, "\n\n"), genai.RoleUser)
}

// toGeminiConfig converts request options to Gemini config.
func toGeminiConfig(opts provider.Options) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SafetySettings: defaultSafetySettings(),
		Temperature:    genai.Ptr(float32(opts.Temperature)),
	}
	if opts.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxOutputTokens)
	}
	return cfg
}

// defaultSafetySettings returns safety settings with BLOCK_NONE for all categories.
func defaultSafetySettings() []*genai.SafetySetting {
	return []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdOff},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdOff},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdOff},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdOff},
	}
}

// fromGeminiResponse extracts the reply text. A max-tokens finish still
// returns what was generated.
func fromGeminiResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &provider.Error{Code: provider.ErrorCodeInvalidResponse, Message: "no candidates in response"}
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", &provider.Error{Code: provider.ErrorCodeInvalidResponse, Message: "content blocked by safety filters"}
	}
	if candidate.Content == nil {
		return "", &provider.Error{Code: provider.ErrorCodeInvalidResponse, Message: "empty candidate"}
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}

// mapGeminiError maps Gemini API errors to backend errors.
func mapGeminiError(err error) error {
	if err == nil {
		return nil
	}

	apiErr, ok := asAPIError(err)
	if !ok {
		return provider.ClassifyTransportError(err)
	}

	switch {
	case apiErr.Code == 401 || apiErr.Code == 403:
		return &provider.Error{Code: provider.ErrorCodeAuth, Status: apiErr.Code, Message: "authentication failed", Underlying: err}
	case apiErr.Code == 429:
		return &provider.Error{
			Code:       provider.ErrorCodeRateLimit,
			Status:     apiErr.Code,
			Message:    "rate limit exceeded",
			Underlying: err,
			Retryable:  true,
			RetryAfter: parseRetryAfter(apiErr),
		}
	case apiErr.Code == 400:
		return &provider.Error{Code: provider.ErrorCodeInvalidRequest, Status: apiErr.Code, Message: fmt.Sprintf("invalid request: %s", apiErr.Message), Underlying: err}
	case apiErr.Code >= 500:
		return &provider.Error{Code: provider.ErrorCodeUnavailable, Status: apiErr.Code, Message: "service unavailable", Underlying: err, Retryable: true}
	default:
		return &provider.Error{Code: provider.ErrorCodeBadStatus, Status: apiErr.Code, Message: fmt.Sprintf("API error: %s", apiErr.Message), Underlying: err}
	}
}

func asAPIError(err error) (*genai.APIError, bool) {
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return ptr, true
	}
	var val genai.APIError
	if errors.As(err, &val) {
		return &val, true
	}
	return nil, false
}

// parseRetryAfter looks for a retry delay in the error details. Values are
// seconds, either numeric or a duration string such as "30s".
func parseRetryAfter(apiErr *genai.APIError) *time.Duration {
	if apiErr == nil {
		return nil
	}
	for _, detail := range apiErr.Details {
		for _, key := range []string{"retryDelay", "retry_after", "retryAfter"} {
			v, ok := detail[key]
			if !ok {
				continue
			}
			var d time.Duration
			switch n := v.(type) {
			case int:
				d = time.Duration(n) * time.Second
			case int64:
				d = time.Duration(n) * time.Second
			case float64:
				d = time.Duration(n * float64(time.Second))
			case string:
				parsed, err := time.ParseDuration(n)
				if err != nil {
					continue
				}
				d = parsed
			default:
				continue
			}
			if d > 0 {
				return &d
			}
		}
	}
	return nil
}
