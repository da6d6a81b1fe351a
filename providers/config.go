package providers

import "time"

// OllamaConfig configures the local Ollama provider. The server speaks the
// OpenAI-compatible protocol under /v1; the API key is a placeholder the
// wire format requires, not a real credential.
type OllamaConfig struct {
	BaseURL string        `json:"base_url" yaml:"base_url"`
	APIKey  string        `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Model   string        `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// ChooseModel picks the request model, then the configured one, then the
// provider default.
func ChooseModel(requested, configured, fallback string) string {
	if requested != "" {
		return requested
	}
	if configured != "" {
		return configured
	}
	return fallback
}
