// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/outline-engine/internal/httputil"
	"github.com/pdiddy/outline-engine/pkg/types"
)

// openLibraryAPIBase is the Open Library search endpoint. Declared as a var
// so tests can substitute an httptest server.
var openLibraryAPIBase = "https://openlibrary.org/search.json"

// openLibraryWorkBase prefixes work URLs built from document keys.
var openLibraryWorkBase = "https://openlibrary.org"

const openLibraryFields = "key,title,author_name,first_publish_year,subject"

// maxSnippetSubjects bounds how many subject tags a book snippet lists.
const maxSnippetSubjects = 5

// OpenLibraryBackend queries the Open Library search API (R1.2).
type OpenLibraryBackend struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the backend identifier.
func (b *OpenLibraryBackend) Name() string { return "open_library" }

// Search queries search.json and returns book sources ordered by the API's
// relevance ranking (R1.2, R2.3).
func (b *OpenLibraryBackend) Search(ctx context.Context, query string, limit int) ([]types.Source, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty Open Library query")
	}
	if limit <= 0 {
		limit = defaultMaxResults
	}

	params := url.Values{
		"q":      {query},
		"limit":  {fmt.Sprintf("%d", limit)},
		"fields": {openLibraryFields},
	}
	reqURL := openLibraryAPIBase + "?" + params.Encode()

	var olr openLibraryResponse
	if err := httputil.GetJSON(ctx, b.Client, reqURL, b.UserAgent, &olr); err != nil {
		return nil, fmt.Errorf("Open Library API request: %w", err)
	}

	total := len(olr.Docs)
	var sources []types.Source
	for i, doc := range olr.Docs {
		sources = append(sources, types.Source{
			URL:            openLibraryWorkBase + doc.Key,
			Title:          doc.Title,
			Snippet:        bookSnippet(doc),
			SourceType:     "book",
			RelevanceScore: positionScore(i, total),
		})
	}
	return sources, nil
}

// bookSnippet summarizes a work's authorship, publication year, and subject
// tags, since Open Library returns no descriptive text.
func bookSnippet(doc openLibraryDoc) string {
	var parts []string
	if len(doc.AuthorName) > 0 {
		parts = append(parts, "by "+strings.Join(doc.AuthorName, ", "))
	}
	if doc.FirstPublishYear > 0 {
		parts = append(parts, fmt.Sprintf("first published %d", doc.FirstPublishYear))
	}
	if len(doc.Subject) > 0 {
		subjects := doc.Subject
		if len(subjects) > maxSnippetSubjects {
			subjects = subjects[:maxSnippetSubjects]
		}
		parts = append(parts, "subjects: "+strings.Join(subjects, ", "))
	}
	return strings.Join(parts, "; ")
}

// Open Library API JSON structures.
type openLibraryResponse struct {
	NumFound int              `json:"numFound"`
	Docs     []openLibraryDoc `json:"docs"`
}

type openLibraryDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	Subject          []string `json:"subject"`
}
