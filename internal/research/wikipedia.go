// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/outline-engine/internal/httputil"
	"github.com/pdiddy/outline-engine/pkg/types"
)

// wikipediaAPIBase is the MediaWiki action API endpoint. Declared as a var
// so tests can substitute an httptest server.
var wikipediaAPIBase = "https://en.wikipedia.org/w/api.php"

// wikipediaPageBase prefixes canonical article URLs.
var wikipediaPageBase = "https://en.wikipedia.org/wiki/"

// searchMarkupRe matches the HTML tags MediaWiki embeds in search snippets
// (e.g. <span class="searchmatch">).
var searchMarkupRe = regexp.MustCompile(`<[^>]*>`)

// WikipediaBackend queries the MediaWiki search API (R1.1).
type WikipediaBackend struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the backend identifier.
func (b *WikipediaBackend) Name() string { return "wikipedia" }

// Search queries the MediaWiki list=search endpoint and returns article
// sources ordered by the API's relevance ranking (R1.1, R2.3).
func (b *WikipediaBackend) Search(ctx context.Context, query string, limit int) ([]types.Source, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty Wikipedia query")
	}
	if limit <= 0 {
		limit = defaultMaxResults
	}

	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {fmt.Sprintf("%d", limit)},
		"format":   {"json"},
	}
	reqURL := wikipediaAPIBase + "?" + params.Encode()

	var wr wikiResponse
	if err := httputil.GetJSON(ctx, b.Client, reqURL, b.UserAgent, &wr); err != nil {
		return nil, fmt.Errorf("Wikipedia API request: %w", err)
	}

	total := len(wr.Query.Search)
	var sources []types.Source
	for i, page := range wr.Query.Search {
		sources = append(sources, types.Source{
			URL:            articleURL(page.Title),
			Title:          page.Title,
			Snippet:        stripSearchMarkup(page.Snippet),
			SourceType:     "wiki",
			RelevanceScore: positionScore(i, total),
		})
	}
	return sources, nil
}

// articleURL builds the canonical article URL from a page title.
func articleURL(title string) string {
	return wikipediaPageBase + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}

// stripSearchMarkup removes the searchmatch spans and HTML entities that
// MediaWiki embeds in snippets.
func stripSearchMarkup(s string) string {
	return html.UnescapeString(searchMarkupRe.ReplaceAllString(s, ""))
}

// MediaWiki API JSON structures.
type wikiResponse struct {
	Query wikiQuery `json:"query"`
}

type wikiQuery struct {
	Search []wikiPage `json:"search"`
}

type wikiPage struct {
	PageID    int    `json:"pageid"`
	Title     string `json:"title"`
	Snippet   string `json:"snippet"`
	WordCount int    `json:"wordcount"`
}
