package outline

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/outline-engine/pkg/types"
)

// decodeResponse runs raw JSON through encoding/json so test data carries the
// same dynamic types (float64 numbers, []any lists) as a real model response.
func decodeResponse(t *testing.T, raw string) map[string]any {
	t.Helper()
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		t.Fatalf("unmarshaling test response: %v", err)
	}
	return data
}

// --- assembleOutline ---

func TestAssembleOutlineSortsChapters(t *testing.T) {
	data := decodeResponse(t, `{
		"chapters": [
			{"title": "B", "word_budget": 1000, "order": 2},
			{"title": "A", "word_budget": 1000, "order": 1}
		]
	}`)

	outline, err := assembleOutline(data, "Sorted", nil, 2000, "non-fiction")
	if err != nil {
		t.Fatalf("assembleOutline: %v", err)
	}

	if outline.Chapters[0].Title != "A" || outline.Chapters[1].Title != "B" {
		t.Errorf("chapter order = %q, %q, want A then B", outline.Chapters[0].Title, outline.Chapters[1].Title)
	}
	if outline.TotalWordCount != 2000 {
		t.Errorf("TotalWordCount = %d, want 2000", outline.TotalWordCount)
	}
}

func TestAssembleOutlineStableOnEqualOrder(t *testing.T) {
	data := decodeResponse(t, `{
		"chapters": [
			{"title": "First", "order": 1},
			{"title": "Second", "order": 1},
			{"title": "Third", "order": 1}
		]
	}`)

	outline, err := assembleOutline(data, "Ties", nil, 3000, "non-fiction")
	if err != nil {
		t.Fatalf("assembleOutline: %v", err)
	}

	want := []string{"First", "Second", "Third"}
	for i, title := range want {
		if outline.Chapters[i].Title != title {
			t.Errorf("Chapters[%d].Title = %q, want %q (equal orders must keep response position)", i, outline.Chapters[i].Title, title)
		}
	}
}

func TestAssembleOutlineChapterDefaults(t *testing.T) {
	data := decodeResponse(t, `{"chapters": [{}, {}]}`)

	outline, err := assembleOutline(data, "Defaults", nil, 2000, "non-fiction")
	if err != nil {
		t.Fatalf("assembleOutline: %v", err)
	}

	first := outline.Chapters[0]
	if first.Title != "Chapter 1" {
		t.Errorf("Title = %q, want %q", first.Title, "Chapter 1")
	}
	if first.WordBudget != 1000 {
		t.Errorf("WordBudget = %d, want 1000 (even share of target)", first.WordBudget)
	}
	if first.Order != 1 {
		t.Errorf("Order = %d, want 1", first.Order)
	}
	if outline.Chapters[1].Title != "Chapter 2" || outline.Chapters[1].Order != 2 {
		t.Errorf("second chapter = %+v", outline.Chapters[1])
	}
	if outline.TotalWordCount != 2000 {
		t.Errorf("TotalWordCount = %d, want 2000", outline.TotalWordCount)
	}
}

func TestAssembleOutlineClampsNegativeBudget(t *testing.T) {
	data := decodeResponse(t, `{
		"chapters": [
			{"title": "Underwater", "word_budget": -500, "order": 1},
			{"title": "Normal", "word_budget": 800, "order": 2}
		]
	}`)

	outline, err := assembleOutline(data, "Clamped", nil, 2000, "non-fiction")
	if err != nil {
		t.Fatalf("assembleOutline: %v", err)
	}

	if outline.Chapters[0].WordBudget != 0 {
		t.Errorf("WordBudget = %d, want 0", outline.Chapters[0].WordBudget)
	}
	if outline.TotalWordCount != 800 {
		t.Errorf("TotalWordCount = %d, want 800", outline.TotalWordCount)
	}
}

func TestAssembleOutlineValidation(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantReason string
	}{
		{"missing chapters", `{"themes": ["a"]}`, "no chapters"},
		{"chapters not a list", `{"chapters": "three of them"}`, "no chapters"},
		{"empty chapters", `{"chapters": []}`, "empty"},
		{"chapter not an object", `{"chapters": [{"title": "ok"}, "not an object"]}`, "chapter 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := decodeResponse(t, tt.raw)

			_, err := assembleOutline(data, "Broken", nil, 2000, "non-fiction")

			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if !strings.Contains(err.Error(), tt.wantReason) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantReason)
			}
		})
	}
}

func TestAssembleOutlineCarriesResponseFields(t *testing.T) {
	data := decodeResponse(t, `{
		"chapters": [{"title": "Only", "word_budget": 5000, "order": 1}],
		"themes": ["memory", "loss"],
		"tone_description": "Elegiac.",
		"plot_hypothesis": "Nothing stays."
	}`)

	sources := []types.Source{{URL: "https://example.org", SourceType: "web"}}
	outline, err := assembleOutline(data, "Carried", sources, 5000, "fiction")
	if err != nil {
		t.Fatalf("assembleOutline: %v", err)
	}

	if len(outline.Themes) != 2 || outline.Themes[0] != "memory" {
		t.Errorf("Themes = %v", outline.Themes)
	}
	if outline.ToneDescription != "Elegiac." {
		t.Errorf("ToneDescription = %q", outline.ToneDescription)
	}
	if outline.PlotHypothesis != "Nothing stays." {
		t.Errorf("PlotHypothesis = %q", outline.PlotHypothesis)
	}
	if outline.Genre != "fiction" {
		t.Errorf("Genre = %q", outline.Genre)
	}
	if len(outline.References) != 1 || outline.References[0].URL != "https://example.org" {
		t.Errorf("References = %v", outline.References)
	}
	if _, err := time.Parse(time.RFC3339, outline.GeneratedAt); err != nil {
		t.Errorf("GeneratedAt = %q, not RFC 3339: %v", outline.GeneratedAt, err)
	}
}

func TestAssembleOutlineFractionalBudget(t *testing.T) {
	// JSON numbers decode to float64; fractional budgets truncate.
	data := decodeResponse(t, `{"chapters": [{"title": "Fraction", "word_budget": 1500.9, "order": 1}]}`)

	outline, err := assembleOutline(data, "Fraction", nil, 2000, "non-fiction")
	if err != nil {
		t.Fatalf("assembleOutline: %v", err)
	}
	if outline.Chapters[0].WordBudget != 1500 {
		t.Errorf("WordBudget = %d, want 1500", outline.Chapters[0].WordBudget)
	}
}

// --- chapterFromResponse ---

func TestChapterFromResponseNonNumericBudget(t *testing.T) {
	data := decodeResponse(t, `{"word_budget": "about a thousand"}`)

	ch := chapterFromResponse(data, 0, 1200)
	if ch.WordBudget != 1200 {
		t.Errorf("WordBudget = %d, want fallback 1200", ch.WordBudget)
	}
}

func TestChapterFromResponseBlankTitle(t *testing.T) {
	data := decodeResponse(t, `{"title": "", "order": 7}`)

	ch := chapterFromResponse(data, 4, 1000)
	if ch.Title != "Chapter 5" {
		t.Errorf("Title = %q, want %q", ch.Title, "Chapter 5")
	}
	if ch.Order != 7 {
		t.Errorf("Order = %d, want 7 (explicit order kept)", ch.Order)
	}
}

// --- stringList ---

func TestStringList(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"nil", nil, nil},
		{"bare string wrapped", "single point", []string{"single point"}},
		{"string slice copied", []string{"a", "b"}, []string{"a", "b"}},
		{"any slice of strings", []any{"x", "y"}, []string{"x", "y"}},
		{"non-strings stringified", []any{"first", float64(2), true}, []string{"first", "2", "true"}},
		{"number ignored", float64(3), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stringList(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
