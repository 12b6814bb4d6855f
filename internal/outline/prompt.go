// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package outline

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"text/template"

	"github.com/pdiddy/outline-engine/internal/httputil"
	"github.com/pdiddy/outline-engine/pkg/types"
)

// outlinePromptTmpl is the prompt sent to the chat model for every outline
// request. It embeds the research sources and the exact JSON structure the
// model must emit. Per prd001-outline R2.1-R2.5.
var outlinePromptTmpl = template.Must(template.New("outline").Parse(`You are an expert book outliner and editor. Create a detailed book outline based on the following research sources.

BOOK TITLE: {{.Title}}
TARGET LENGTH: {{.TargetLength}} words
GENRE: {{.Genre}}
THEMES: {{.Themes}}
NUMBER OF CHAPTERS: Approximately {{.ChapterCount}}

RESEARCH SOURCES:
{{range .Sources}}
Source {{.Index}}: {{.Label}}
Content: {{.Excerpt}}
{{end}}
Create a JSON response with this exact structure:
{
    "chapters": [
        {
            "title": "Chapter title",
            "word_budget": integer_word_count,
            "key_points": ["point 1", "point 2", "point 3"],
            "description": "Detailed description of chapter content",
            "order": chapter_number
        }
    ],
    "themes": ["theme1", "theme2", "theme3"],
    "tone_description": "Description of the book's tone and style",
    "plot_hypothesis": "For fiction: main plot arc. For non-fiction: core thesis/argument"
}

Requirements:
- Total word budget across all chapters should approximately equal {{.TargetLength}}
- Each chapter must have a clear focus
- Key points should be specific and actionable
- Order chapters logically (introduction to conclusion)
- For non-fiction: ensure logical flow of arguments
- For fiction: ensure proper story arc structure

Respond ONLY with the JSON object, no additional text.`))

// noThemes is rendered when the caller supplies no themes.
const noThemes = "To be determined from sources"

type promptData struct {
	Title        string
	TargetLength int
	Genre        string
	Themes       string
	ChapterCount int
	Sources      []promptSource
}

type promptSource struct {
	Index   int
	Label   string
	Excerpt string
}

// buildPrompt renders the outline prompt. It is deterministic for a given
// input: at most the first maxPromptSources sources are included, each with
// a bounded content excerpt.
func buildPrompt(title string, sources []types.Source, targetLength int, genre string, themes []string) (string, error) {
	data := promptData{
		Title:        title,
		TargetLength: targetLength,
		Genre:        genre,
		Themes:       noThemes,
		ChapterCount: estimateChapterCount(targetLength),
	}
	if len(themes) > 0 {
		data.Themes = strings.Join(themes, ", ")
	}

	for i, src := range sources {
		if i >= maxPromptSources {
			break
		}
		data.Sources = append(data.Sources, promptSource{
			Index:   i + 1,
			Label:   sourceLabel(src),
			Excerpt: sourceExcerpt(src),
		})
	}

	var buf bytes.Buffer
	if err := outlinePromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// estimateChapterCount derives a chapter count from the target word count,
// assuming roughly 4000 words per chapter, clamped to [3, 30].
func estimateChapterCount(targetLength int) int {
	count := targetLength / wordsPerChapter
	if count < minChapters {
		return minChapters
	}
	if count > maxChapters {
		return maxChapters
	}
	return count
}

// sourceLabel prefers the source title, falling back to its URL.
func sourceLabel(src types.Source) string {
	if src.Title != "" {
		return src.Title
	}
	return src.URL
}

// sourceExcerpt returns the first sourceExcerptLen bytes of the source
// content, falling back to the snippet, with an ellipsis marker appended.
func sourceExcerpt(src types.Source) string {
	content := src.Content
	if content == "" {
		content = src.Snippet
	}
	if len(content) > sourceExcerptLen {
		content = content[:sourceExcerptLen]
	}
	return content + "..."
}

// systemPrompt frames the assistant role for every outline request.
const systemPrompt = "You are a helpful book outlining assistant."

// ChatBackend abstracts the chat completion API so tests can supply a mock.
// Per Strategy pattern (prd001-outline R4.4).
type ChatBackend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAIBackend calls an OpenAI-compatible chat completions endpoint.
// Per prd001-outline R4.1.
type OpenAIBackend struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

// chatRequest is the request body for the chat completions API.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// chatMessage is a single message in the chat conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the response body from the chat completions API.
type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

// chatChoice is one completion choice in the response.
type chatChoice struct {
	Message chatMessage `json:"message"`
}

// Complete sends the prompt as a user message with fixed sampling settings
// and returns the assistant's text content (R4.2).
func (b *OpenAIBackend) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: b.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   4000,
	}

	client := b.Client
	if client == nil {
		client = httputil.NewClient(defaultTimeout)
	}

	url := strings.TrimSuffix(b.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + b.APIKey}

	var resp chatResponse
	if err := httputil.PostJSON(ctx, client, url, headers, reqBody, &resp); err != nil {
		return "", fmt.Errorf("calling chat completions: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completions returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// unavailableBackend is installed when no API key is configured. Every call
// fails with a ConfigError before any network activity, and the retry loop
// passes that error through without retrying.
type unavailableBackend struct{}

func (unavailableBackend) Complete(context.Context, string) (string, error) {
	return "", &ConfigError{Reason: "API key not set (OPENAI_API_KEY or LLM_API_KEY)"}
}
