// Package textapi is a minimal client for an OpenAI-compatible
// chat-completions endpoint.
package textapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

type (
	Client struct {
		baseURL string
		apiKey  string
		model   string
		http    *http.Client
	}

	chatMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	chatRequest struct {
		Model    string        `json:"model"`
		Messages []chatMessage `json:"messages"`
	}

	chatResponse struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error,omitempty"`
	}
)

func NewClient(conf *core.Config) *Client {
	return &Client{
		baseURL: conf.TextAPI.BaseURL,
		apiKey:  conf.TextAPI.APIKey,
		model:   conf.TextAPI.Model,
		http:    &http.Client{Timeout: conf.TextAPI.Timeout},
	}
}

// GenerateText sends one system+user prompt pair and returns the first
// choice's content.
func (c *Client) GenerateText(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "encoding chat request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "building chat request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "calling text api")
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", errors.Wrap(err, "reading text api response")
	}
	if res.StatusCode != http.StatusOK {
		return "", errors.Errorf("text api: status %d: %s", res.StatusCode, truncate(resBody, 512))
	}

	var parsed chatResponse
	if err = json.Unmarshal(resBody, &parsed); err != nil {
		return "", errors.Wrap(err, "parsing text api response")
	}
	if parsed.Error != nil {
		return "", errors.Errorf("text api: %s: %s", parsed.Error.Type, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("text api returned no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return fmt.Sprintf("%s... (%d bytes)", b[:n], len(b))
}
