package ai

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// PromptProvider embeds the prompt directly in the request target and treats
// the raw response body as the reply. Model, when set, is passed as an
// upstream query parameter.
type PromptProvider struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

func NewPromptProvider(baseURL, model string, client *http.Client) *PromptProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &PromptProvider{BaseURL: baseURL, Model: model, Client: client}
}

func (p *PromptProvider) Complete(ctx context.Context, prompt string) (string, error) {
	target := strings.TrimRight(p.BaseURL, "/") + "/" + url.PathEscape(prompt)
	if p.Model != "" {
		target += "?model=" + url.QueryEscape(p.Model)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return Fallback, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Fallback, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Fallback, nil
	}
	return string(body), nil
}
