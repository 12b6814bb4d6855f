// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research gathers book research sources from public web APIs and
// returns unified, deduplicated results.
// Implements: prd002-research (R1-R4);
//
//	docs/ARCHITECTURE.md § Research.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/charmbracelet/log"

	"github.com/pdiddy/outline-engine/internal/httputil"
	"github.com/pdiddy/outline-engine/pkg/types"
)

// defaultMaxResults caps returned sources when the config leaves MaxResults unset.
const defaultMaxResults = 10

// Backend searches a single public API. Each backend (Wikipedia, Open
// Library) implements this interface per the Strategy pattern (R2.4).
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]types.Source, error)
}

// Backends returns the enabled backends for the configuration.
func Backends(cfg types.ResearchConfig) []Backend {
	client := httputil.NewClient(cfg.Timeout)
	var backends []Backend
	if cfg.EnableWikipedia {
		backends = append(backends, &WikipediaBackend{Client: client, UserAgent: cfg.UserAgent})
	}
	if cfg.EnableOpenLibrary {
		backends = append(backends, &OpenLibraryBackend{Client: client, UserAgent: cfg.UserAgent})
	}
	return backends
}

// Output holds the gathered sources and dedup statistics.
type Output struct {
	Sources       []types.Source
	DupsRemoved   int
	BackendErrors []string
}

// Research fans out the query to all backends concurrently, deduplicates
// the sources, ranks them by relevance, and returns the top N (R1-R2).
// A failing backend degrades the result set instead of failing the run;
// its error is recorded and a warning written to w.
func Research(ctx context.Context, query string, backends []Backend, cfg types.ResearchConfig, w io.Writer) (Output, error) {
	if strings.TrimSpace(query) == "" {
		return Output{}, fmt.Errorf("query is empty: provide a topic to research")
	}
	if len(backends) == 0 {
		return Output{}, fmt.Errorf("no research backends configured")
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	type backendResult struct {
		sources []types.Source
		err     error
		name    string
	}

	ch := make(chan backendResult, len(backends))
	var wg sync.WaitGroup

	for _, b := range backends {
		wg.Add(1)
		go func(b Backend) {
			defer wg.Done()
			sources, err := b.Search(ctx, query, maxResults)
			ch <- backendResult{sources: sources, err: err, name: b.Name()}
		}(b)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var all []types.Source
	var backendErrors []string
	for br := range ch {
		if br.err != nil {
			msg := fmt.Sprintf("%s: %v", br.name, br.err)
			backendErrors = append(backendErrors, msg)
			fmt.Fprintf(w, "warning: backend %s failed: %v\n", br.name, br.err)
			continue
		}
		log.Debug("backend returned", "backend", br.name, "sources", len(br.sources))
		all = append(all, br.sources...)
	}

	deduped, removed := deduplicate(all)

	sort.Slice(deduped, func(i, j int) bool {
		return deduped[i].RelevanceScore > deduped[j].RelevanceScore
	})

	if len(deduped) > maxResults {
		deduped = deduped[:maxResults]
	}

	return Output{
		Sources:       deduped,
		DupsRemoved:   removed,
		BackendErrors: backendErrors,
	}, nil
}

// deduplicate merges sources that share a URL or normalized title (R2.1, R2.2).
func deduplicate(sources []types.Source) ([]types.Source, int) {
	seen := make(map[string]int) // dedup key → index in deduped
	var deduped []types.Source
	removed := 0

	for _, s := range sources {
		urlKey := ""
		if s.URL != "" {
			urlKey = "url:" + s.URL
		}
		if urlKey != "" {
			if idx, ok := seen[urlKey]; ok {
				mergeInto(&deduped[idx], s)
				removed++
				continue
			}
		}

		// Also check by normalized title.
		titleKey := "title:" + normalizeTitle(s.Title)
		if titleKey != "title:" {
			if idx, ok := seen[titleKey]; ok {
				mergeInto(&deduped[idx], s)
				removed++
				continue
			}
		}

		idx := len(deduped)
		deduped = append(deduped, s)
		if urlKey != "" {
			seen[urlKey] = idx
		}
		if titleKey != "title:" {
			seen[titleKey] = idx
		}
	}
	return deduped, removed
}

// mergeInto fills empty fields of dst from src and keeps the higher score (R2.2).
func mergeInto(dst *types.Source, src types.Source) {
	if dst.Title == "" && src.Title != "" {
		dst.Title = src.Title
	}
	if dst.Snippet == "" && src.Snippet != "" {
		dst.Snippet = src.Snippet
	}
	if dst.Content == "" && src.Content != "" {
		dst.Content = src.Content
	}
	if src.RelevanceScore > dst.RelevanceScore {
		dst.RelevanceScore = src.RelevanceScore
	}
	if dst.SourceType != src.SourceType && src.SourceType != "" && !strings.Contains(dst.SourceType, src.SourceType) {
		dst.SourceType = dst.SourceType + "," + src.SourceType
	}
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the title (R2.1).
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// positionScore assigns a rank-derived relevance score in [0.1, 1.0] for
// APIs that return results ordered by relevance but report no score (R2.3).
func positionScore(index, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	return 1.0 - float64(index)/float64(total-1)*0.9
}

// FormatTable writes sources as a human-readable table to w (R4.1).
func FormatTable(out Output, w io.Writer) {
	if len(out.Sources) == 0 {
		fmt.Fprintln(w, "No sources found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-50s  %-6s  %-6s  %s\n",
		"Rank", "Title", "Type", "Score", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, s := range out.Sources {
		title := s.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		fmt.Fprintf(w, "%-4d  %-50s  %-6s  %-6.2f  %s\n",
			i+1, title, s.SourceType, s.RelevanceScore, s.URL)
	}

	fmt.Fprintf(w, "\n%d sources", len(out.Sources))
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DupsRemoved)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes sources as indented JSON to w (R4.2).
func FormatJSON(out Output, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Sources)
}
