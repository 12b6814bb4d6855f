// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package outline

import (
	"fmt"
	"sort"
	"time"

	"github.com/pdiddy/outline-engine/pkg/types"
)

// assembleOutline builds a validated BookOutline from the decoded model
// response. The response must carry a non-empty chapters list of objects;
// everything else is normalized with defaults. Chapters are stably sorted
// by order, so equal-order chapters keep their response position. Per
// prd001-outline R6.1-R6.4.
func assembleOutline(data map[string]any, title string, sources []types.Source, targetLength int, genre string) (*types.BookOutline, error) {
	rawChapters, ok := data["chapters"].([]any)
	if !ok {
		return nil, &ValidationError{Reason: "response has no chapters list"}
	}
	if len(rawChapters) == 0 {
		return nil, &ValidationError{Reason: "response chapters list is empty"}
	}

	defaultBudget := targetLength / len(rawChapters)
	chapters := make([]types.Chapter, 0, len(rawChapters))
	for i, entry := range rawChapters {
		cm, ok := entry.(map[string]any)
		if !ok {
			return nil, &ValidationError{Reason: fmt.Sprintf("chapter %d is not an object", i)}
		}
		chapters = append(chapters, chapterFromResponse(cm, i, defaultBudget))
	}

	sort.SliceStable(chapters, func(a, b int) bool {
		return chapters[a].Order < chapters[b].Order
	})

	total := 0
	for _, ch := range chapters {
		total += ch.WordBudget
	}

	return &types.BookOutline{
		Title:           title,
		Chapters:        chapters,
		Themes:          stringList(data["themes"]),
		ToneDescription: stringField(data, "tone_description"),
		PlotHypothesis:  stringField(data, "plot_hypothesis"),
		TotalWordCount:  total,
		TargetLength:    targetLength,
		Genre:           genre,
		References:      sources,
		GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// chapterFromResponse normalizes one chapter object from the model response.
// Missing or malformed fields fall back to positional defaults: a synthetic
// title, an even share of the target length, and the response position as
// order. Negative budgets clamp to zero.
func chapterFromResponse(m map[string]any, index, defaultBudget int) types.Chapter {
	title := stringField(m, "title")
	if title == "" {
		title = fmt.Sprintf("Chapter %d", index+1)
	}

	budget := intField(m, "word_budget", defaultBudget)
	if budget < 0 {
		budget = 0
	}

	return types.Chapter{
		Title:       title,
		WordBudget:  budget,
		KeyPoints:   stringList(m["key_points"]),
		Description: stringField(m, "description"),
		Order:       intField(m, "order", index+1),
	}
}

// stringField returns m[key] as a string, or "" when absent or not a string.
func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// intField returns m[key] as an int, accepting the numeric types a JSON
// decode or a test literal can produce. Anything else yields the fallback.
func intField(m map[string]any, key string, fallback int) int {
	switch n := m[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return fallback
}

// stringList coerces a response value into a string slice. A bare string
// becomes a one-element list; list elements that are not strings are
// stringified rather than dropped, since a lone numeric key point should
// not silently vanish from a chapter.
func stringList(v any) []string {
	switch vals := v.(type) {
	case string:
		return []string{vals}
	case []string:
		return append([]string{}, vals...)
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprint(item))
			}
		}
		return out
	}
	return nil
}
