package config

import "time"

// DefaultConfig returns the stock configuration: a local app on port 3000
// checked against a local Ollama endpoint.
func DefaultConfig() *Config {
	return &Config{
		App:       DefaultAppConfig(),
		LLM:       DefaultLLMConfig(),
		Browser:   DefaultBrowserConfig(),
		Artifacts: DefaultArtifactsConfig(),
		Metrics:   DefaultMetricsConfig(),
		Log:       DefaultLogConfig(),
	}
}

// DefaultAppConfig returns the default app-under-test settings.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		URL:         "http://localhost:3000",
		SuccessText: "All Tricks Complete",
		MaxActions:  30,
		ActionDelay: 500 * time.Millisecond,
		Timeout:     5 * time.Minute,
		PlayerCount: 0,
	}
}

// DefaultLLMConfig returns the default model endpoint settings. Local
// Ollama ignores the API key but the client requires one.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		BaseURL:     "http://localhost:11434/v1",
		APIKey:      "ollama",
		Model:       "qwen2.5vl:3b",
		Temperature: 0.1,
		MaxTokens:   0,
		Timeout:     2 * time.Minute,
	}
}

// DefaultBrowserConfig returns the default browser session settings.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Headless:       true,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		AllowedDomains: []string{"localhost", "127.0.0.1"},
		WaitInterval:   200 * time.Millisecond,
		WaitTimeout:    10 * time.Second,
	}
}

// DefaultArtifactsConfig returns the default artifact settings.
func DefaultArtifactsConfig() ArtifactsConfig {
	return ArtifactsConfig{
		Dir: "artifacts",
	}
}

// DefaultMetricsConfig returns the default metrics settings.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "agentsmoke",
	}
}

// DefaultLogConfig returns the default log settings.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     false,
		EnableStacktrace: false,
	}
}
