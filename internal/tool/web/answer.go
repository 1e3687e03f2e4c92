package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

type AnswerRequest struct {
	Query string `json:"query"`
}

func (r *AnswerRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return ErrQueryMissing
	}
	return nil
}

type instantAnswer struct {
	AbstractText   string `json:"AbstractText"`
	AbstractSource string `json:"AbstractSource"`
	AbstractURL    string `json:"AbstractURL"`
	Answer         string `json:"Answer"`
	Definition     string `json:"Definition"`
}

func (c *Client) answer(ctx context.Context, req *AnswerRequest) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.get(ctx, c.opts.AnswerURL, url.Values{
		"q":             {req.Query},
		"format":        {"json"},
		"no_html":       {"1"},
		"skip_disambig": {"1"},
	})
	if err != nil {
		return "", fmt.Errorf("error getting answer: %w", err)
	}
	defer resp.Body.Close()

	var ia instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&ia); err != nil {
		return "", fmt.Errorf("decode instant answer: %w", err)
	}

	text := ia.AbstractText
	if text == "" {
		text = ia.Answer
	}
	if text == "" {
		text = ia.Definition
	}
	if text == "" {
		return "", ErrNoAnswer
	}

	source := ia.AbstractSource
	if source == "" {
		source = "DuckDuckGo"
	}
	out := fmt.Sprintf("Answer: %s\n\nSource: %s", text, source)
	if ia.AbstractURL != "" {
		out += "\nMore info: " + ia.AbstractURL
	}
	return out, nil
}
