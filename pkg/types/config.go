package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "outline-engine/0.1"). Per prd002-research R5.2.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// LLMConfig holds settings for the chat-completion transport.
// Per prd001-outline R4.1-R4.3.
type LLMConfig struct {
	// APIKey is the bearer token for the chat completions endpoint. Resolved
	// from OPENAI_API_KEY, then LLM_API_KEY, then the secrets directory.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL is the API root (default "https://api.openai.com/v1").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Model is the model identifier (default "gpt-4").
	Model string `json:"model" yaml:"model"`

	// MaxRetries is the maximum number of attempts for a model call (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Timeout bounds each individual model call attempt (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// ResearchConfig holds settings for the research stage.
// Per prd002-research R5.1-R5.3.
type ResearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of sources to return (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// EnableWikipedia controls whether the Wikipedia backend is used.
	EnableWikipedia bool `json:"enable_wikipedia" yaml:"enable_wikipedia"`

	// EnableOpenLibrary controls whether the Open Library backend is used.
	EnableOpenLibrary bool `json:"enable_open_library" yaml:"enable_open_library"`
}

// LibraryConfig holds settings for the outline library.
// Per prd003-library R1.2.
type LibraryConfig struct {
	// DBPath is the SQLite database path (default "outlines.db").
	DBPath string `json:"db_path" yaml:"db_path"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	LLM      LLMConfig      `json:"llm" yaml:"llm"`
	Research ResearchConfig `json:"research" yaml:"research"`
	Library  LibraryConfig  `json:"library" yaml:"library"`
}
