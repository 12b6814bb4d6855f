// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package outline turns a set of research sources into a structured book
// outline by prompting a chat completion model and validating its JSON
// response. Per prd001-outline R1-R7 and docs/ARCHITECTURE.md §4.
package outline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pdiddy/outline-engine/internal/httputil"
	"github.com/pdiddy/outline-engine/internal/jsonutil"
	"github.com/pdiddy/outline-engine/pkg/types"
)

const (
	// DefaultTargetLength is the assumed book length in words when the
	// caller does not specify one.
	DefaultTargetLength = 50000

	// DefaultGenre is assumed when the caller does not specify a genre.
	DefaultGenre = "non-fiction"

	defaultBaseURL    = "https://api.openai.com/v1"
	defaultModel      = "gpt-4"
	defaultMaxRetries = 3
	defaultTimeout    = 60 * time.Second

	wordsPerChapter  = 4000
	minChapters      = 3
	maxChapters      = 30
	maxPromptSources = 10
	sourceExcerptLen = 500
)

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// ConfigFromEnv builds an LLM configuration from environment variables,
// filling in defaults for anything unset. OPENAI_API_KEY takes precedence
// over LLM_API_KEY.
func ConfigFromEnv() types.LLMConfig {
	cfg := types.LLMConfig{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		BaseURL: os.Getenv("LLM_BASE_URL"),
		Model:   os.Getenv("LLM_MODEL"),
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("LLM_API_KEY")
	}
	return withDefaults(cfg)
}

// withDefaults fills zero-valued config fields with package defaults.
func withDefaults(cfg types.LLMConfig) types.LLMConfig {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return cfg
}

// NewBackend selects the chat backend for the given configuration. Without
// an API key it returns a backend whose every call fails with ConfigError,
// so the pipeline surfaces a clear configuration failure instead of an
// opaque HTTP 401 (R4.5).
func NewBackend(cfg types.LLMConfig) ChatBackend {
	cfg = withDefaults(cfg)
	if cfg.APIKey == "" {
		return unavailableBackend{}
	}
	return &OpenAIBackend{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Client:  httputil.NewClient(cfg.Timeout),
	}
}

// GenerateRequest describes one outline generation call.
type GenerateRequest struct {
	Title        string
	Sources      []types.Source
	TargetLength int
	Genre        string
	Themes       []string
}

// Generate produces a book outline from research sources. It renders the
// prompt, calls the model with retries, extracts the JSON object from the
// response, and assembles a validated outline. Per prd001-outline R1.1.
func Generate(ctx context.Context, backend ChatBackend, cfg types.LLMConfig, req GenerateRequest) (*types.BookOutline, error) {
	cfg = withDefaults(cfg)
	if req.TargetLength <= 0 {
		req.TargetLength = DefaultTargetLength
	}
	if req.Genre == "" {
		req.Genre = DefaultGenre
	}

	log.Info("generating outline", "title", req.Title, "sources", len(req.Sources), "target_length", req.TargetLength)

	prompt, err := buildPrompt(req.Title, req.Sources, req.TargetLength, req.Genre, req.Themes)
	if err != nil {
		return nil, err
	}

	raw, err := callWithRetry(ctx, backend, prompt, cfg.MaxRetries)
	if err != nil {
		return nil, err
	}

	data, err := jsonutil.Extract(raw)
	if err != nil {
		return nil, err
	}

	outline, err := assembleOutline(data, req.Title, req.Sources, req.TargetLength, req.Genre)
	if err != nil {
		return nil, err
	}

	log.Info("outline generated", "title", outline.Title, "chapters", len(outline.Chapters), "total_word_count", outline.TotalWordCount)
	return outline, nil
}

// GenerateFromTexts wraps raw text passages as synthetic sources and returns
// the outline as a plain map. It exists for callers that predate the Source
// type (R7.1-R7.3).
func GenerateFromTexts(ctx context.Context, backend ChatBackend, cfg types.LLMConfig, title string, texts []string, targetLength int) (map[string]any, error) {
	sources := make([]types.Source, 0, len(texts))
	for i, text := range texts {
		sources = append(sources, types.Source{
			URL:        fmt.Sprintf("legacy://%d", i),
			Title:      fmt.Sprintf("Source %d", i+1),
			Content:    text,
			SourceType: "legacy",
		})
	}

	outline, err := Generate(ctx, backend, cfg, GenerateRequest{
		Title:        title,
		Sources:      sources,
		TargetLength: targetLength,
	})
	if err != nil {
		return nil, err
	}
	return outline.ToMap(), nil
}

// callWithRetry calls the backend up to maxRetries times with exponential
// backoff between attempts. Configuration errors abort immediately; any
// other failure is retried, and after the final attempt the last error is
// wrapped in a TransportError. The backoff sleep respects context
// cancellation (R3.1-R3.5).
func callWithRetry(ctx context.Context, backend ChatBackend, prompt string, maxRetries int) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			log.Warn("model call failed, retrying", "attempt", attempt-1, "backoff", backoff, "err", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		raw, err := backend.Complete(ctx, prompt)
		if err == nil {
			return raw, nil
		}

		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			return "", err
		}
		lastErr = err
	}

	return "", &TransportError{Attempts: maxRetries, Err: lastErr}
}
