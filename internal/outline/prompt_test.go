package outline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/outline-engine/internal/httputil"
	"github.com/pdiddy/outline-engine/pkg/types"
)

// --- estimateChapterCount ---

func TestEstimateChapterCount(t *testing.T) {
	tests := []struct {
		target int
		want   int
	}{
		{0, 3},
		{1000, 3},
		{12000, 3},
		{16000, 4},
		{50000, 12},
		{120000, 30},
		{200000, 30},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d words", tt.target), func(t *testing.T) {
			if got := estimateChapterCount(tt.target); got != tt.want {
				t.Errorf("estimateChapterCount(%d) = %d, want %d", tt.target, got, tt.want)
			}
		})
	}
}

// --- buildPrompt ---

func TestBuildPrompt(t *testing.T) {
	sources := []types.Source{
		{URL: "https://example.org/a", Title: "Garden History", Content: "Gardens are old", SourceType: "web"},
		{URL: "https://example.org/b", Content: "Untitled source text", SourceType: "web"},
	}

	prompt, err := buildPrompt("A History of Gardens", sources, 48000, "non-fiction", []string{"cultivation", "patience"})
	if err != nil {
		t.Fatalf("buildPrompt: %v", err)
	}

	checks := []string{
		"BOOK TITLE: A History of Gardens",
		"TARGET LENGTH: 48000 words",
		"GENRE: non-fiction",
		"THEMES: cultivation, patience",
		"NUMBER OF CHAPTERS: Approximately 12",
		"Source 1: Garden History",
		"Gardens are old...",
		"Source 2: https://example.org/b",
		`"word_budget": integer_word_count`,
		"Respond ONLY with the JSON object",
	}
	for _, want := range checks {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPromptNoThemes(t *testing.T) {
	prompt, err := buildPrompt("Untitled", nil, 50000, "fiction", nil)
	if err != nil {
		t.Fatalf("buildPrompt: %v", err)
	}
	if !strings.Contains(prompt, "THEMES: To be determined from sources") {
		t.Error("prompt should carry the placeholder themes line")
	}
}

func TestBuildPromptCapsSources(t *testing.T) {
	var sources []types.Source
	for i := 0; i < 15; i++ {
		sources = append(sources, types.Source{
			URL:     fmt.Sprintf("https://example.org/%d", i),
			Title:   fmt.Sprintf("Source Number %d", i+1),
			Content: "text",
		})
	}

	prompt, err := buildPrompt("Capped", sources, 50000, "non-fiction", nil)
	if err != nil {
		t.Fatalf("buildPrompt: %v", err)
	}

	if !strings.Contains(prompt, "Source 10: Source Number 10") {
		t.Error("prompt should include the tenth source")
	}
	if strings.Contains(prompt, "Source 11:") {
		t.Error("prompt should not include more than ten sources")
	}
}

func TestBuildPromptTruncatesContent(t *testing.T) {
	long := strings.Repeat("a", sourceExcerptLen) + "TAIL"
	sources := []types.Source{{URL: "https://example.org", Title: "Long", Content: long}}

	prompt, err := buildPrompt("Truncated", sources, 50000, "non-fiction", nil)
	if err != nil {
		t.Fatalf("buildPrompt: %v", err)
	}

	if strings.Contains(prompt, "TAIL") {
		t.Error("prompt should not include content past the excerpt limit")
	}
	if !strings.Contains(prompt, strings.Repeat("a", sourceExcerptLen)+"...") {
		t.Error("prompt should include the truncated excerpt with ellipsis")
	}
}

func TestBuildPromptSnippetFallback(t *testing.T) {
	sources := []types.Source{{URL: "https://example.org", Title: "Thin", Snippet: "only a snippet here"}}

	prompt, err := buildPrompt("Fallback", sources, 50000, "non-fiction", nil)
	if err != nil {
		t.Fatalf("buildPrompt: %v", err)
	}
	if !strings.Contains(prompt, "only a snippet here...") {
		t.Error("prompt should fall back to the snippet when content is empty")
	}
}

// --- sourceExcerpt ---

func TestSourceExcerpt(t *testing.T) {
	long := strings.Repeat("x", 800)
	tests := []struct {
		name string
		src  types.Source
		want string
	}{
		{"content used", types.Source{Content: "full text"}, "full text..."},
		{"snippet fallback", types.Source{Snippet: "short"}, "short..."},
		{"content wins over snippet", types.Source{Content: "full", Snippet: "short"}, "full..."},
		{"empty source", types.Source{}, "..."},
		{"long content truncated", types.Source{Content: long}, long[:sourceExcerptLen] + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sourceExcerpt(tt.src); got != tt.want {
				t.Errorf("sourceExcerpt() = %q, want %q", got, tt.want)
			}
		})
	}
}

// --- OpenAIBackend ---

func TestOpenAIBackendComplete(t *testing.T) {
	var got chatRequest
	var gotPath, gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices": [{"message": {"role": "assistant", "content": "{\"chapters\": []}"}}]}`)
	}))
	defer server.Close()

	backend := &OpenAIBackend{
		BaseURL: server.URL,
		APIKey:  "sk-test",
		Model:   "gpt-4",
		Client:  server.Client(),
	}

	content, err := backend.Complete(context.Background(), "outline my book")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if content != `{"chapters": []}` {
		t.Errorf("content = %q", content)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q, want /chat/completions", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer sk-test")
	}
	if got.Model != "gpt-4" {
		t.Errorf("model = %q, want gpt-4", got.Model)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(got.Messages))
	}
	if got.Messages[0].Role != "system" || got.Messages[0].Content != systemPrompt {
		t.Errorf("system message = %+v", got.Messages[0])
	}
	if got.Messages[1].Role != "user" || got.Messages[1].Content != "outline my book" {
		t.Errorf("user message = %+v", got.Messages[1])
	}
	if got.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", got.Temperature)
	}
	if got.MaxTokens != 4000 {
		t.Errorf("max_tokens = %d, want 4000", got.MaxTokens)
	}
}

func TestOpenAIBackendTrailingSlash(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"choices": [{"message": {"content": "ok"}}]}`)
	}))
	defer server.Close()

	backend := &OpenAIBackend{BaseURL: server.URL + "/", APIKey: "k", Model: "m", Client: server.Client()}
	if _, err := backend.Complete(context.Background(), "p"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q, want /chat/completions (no double slash)", gotPath)
	}
}

func TestOpenAIBackendStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	backend := &OpenAIBackend{BaseURL: server.URL, APIKey: "k", Model: "m", Client: server.Client()}
	_, err := backend.Complete(context.Background(), "p")

	var statusErr *httputil.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want *httputil.StatusError", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want %d", statusErr.StatusCode, http.StatusTooManyRequests)
	}
}

func TestOpenAIBackendEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices": []}`)
	}))
	defer server.Close()

	backend := &OpenAIBackend{BaseURL: server.URL, APIKey: "k", Model: "m", Client: server.Client()}
	_, err := backend.Complete(context.Background(), "p")

	if err == nil {
		t.Fatal("expected error for empty choices, got nil")
	}
	if !strings.Contains(err.Error(), "no choices") {
		t.Errorf("error = %q, want it to mention missing choices", err.Error())
	}
}
