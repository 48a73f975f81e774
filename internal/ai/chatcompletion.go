package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ChatProvider speaks the chat-completions shape: a POST carrying a
// single-turn message list, reply parsed from choices[0].message.content.
type ChatProvider struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

type chatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatReq struct {
	Messages []chatMsg `json:"messages"`
	Model    string    `json:"model"`
}

type chatResp struct {
	Choices []struct {
		Message chatMsg `json:"message"`
	} `json:"choices"`
}

func NewChatProvider(baseURL, model string, client *http.Client) *ChatProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &ChatProvider{BaseURL: baseURL, Model: model, Client: client}
}

func (p *ChatProvider) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatReq{
		Messages: []chatMsg{{Role: "user", Content: prompt}},
		Model:    p.Model,
	})
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(p.BaseURL, "/") + "/openai"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return Fallback, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4*1024))
		return Fallback, nil
	}

	var decoded chatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("chat completion: decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("chat completion: response has no choices")
	}
	return decoded.Choices[0].Message.Content, nil
}
