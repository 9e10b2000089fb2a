package factory

import (
	"fmt"
	"time"

	"chatbots-be/pkg/llm"
	"chatbots-be/pkg/llm/openai"
)

type Options struct {
	BaseURL       string
	APIKey        string
	HeaderTimeout time.Duration
}

func NewStreamingProvider(providerType string, opts Options) (llm.StreamingProvider, error) {
	switch providerType {
	case "openai", "":
		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/"
		}
		return openai.NewResponsesProvider(baseURL, opts.APIKey, opts.HeaderTimeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
