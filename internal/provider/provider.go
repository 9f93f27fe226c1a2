// Package provider abstracts the language-model API used to answer
// messages.
package provider

import (
	"context"
	"fmt"
)

// Provider is an opaque chat-completion client.
type Provider interface {
	Name() string
	Chat(ctx context.Context, prompt, model string, temperature float64) (string, error)
}

// New builds a provider by name. An empty name means the default
// (openrouter); an unrecognized name is a configuration error.
func New(name, apiKey string) (Provider, error) {
	switch name {
	case "openrouter", "":
		return NewOpenAICompatible("openrouter", "https://openrouter.ai/api/v1", apiKey), nil
	case "openai":
		return NewOpenAICompatible("openai", "https://api.openai.com/v1", apiKey), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}
