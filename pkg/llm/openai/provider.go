package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chatbots-be/pkg/llm"
)

const responsesPath = "v1/responses"

// ResponsesProvider streams from an OpenAI-compatible Responses API.
type ResponsesProvider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// Ensure ResponsesProvider implements StreamingProvider
var _ llm.StreamingProvider = &ResponsesProvider{}

// NewResponsesProvider builds a client without an overall timeout, since
// streams stay open for as long as the model keeps talking. headerTimeout
// bounds the wait for the upstream to start answering.
func NewResponsesProvider(baseURL, apiKey string, headerTimeout time.Duration) *ResponsesProvider {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ResponseHeaderTimeout: headerTimeout,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
	}
	return &ResponsesProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Transport: transport},
	}
}

func (p *ResponsesProvider) Configured() bool {
	return strings.TrimSpace(p.APIKey) != ""
}

func (p *ResponsesProvider) OpenStream(ctx context.Context, req *llm.ResponseRequest) (io.ReadCloser, error) {
	if !p.Configured() {
		return nil, llm.ErrNotConfigured
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint, err := url.JoinPath(p.BaseURL, responsesPath)
	if err != nil {
		return nil, fmt.Errorf("build upstream url: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)
	httpReq.Header.Set("OpenAI-Beta", "responses=v1")

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return nil, &llm.StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	return resp.Body, nil
}
