// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the outline-engine pipeline.
// Implements: prd001-outline (Chapter, BookOutline, R2.1-R2.6, R6.1-R6.4);
//
//	prd002-research (Source, R3.1-R3.3);
//	prd003-library (OutlineSummary, R2.2).
//
// See docs/ARCHITECTURE.md § Pipeline Interface, § Data Structures.
package types

import "time"

// Source represents a research source feeding outline generation.
// Per prd002-research R3.1: a URL, optional title/content/snippet, a source
// type tag, and a relevance score. Sources are value objects owned by the
// caller; an outline references them, it does not copy them.
type Source struct {
	// URL is the canonical location of the source. The legacy text entry
	// point synthesizes "legacy://{index}" URLs for raw text input.
	URL string `json:"url" yaml:"url"`

	// Title is the source title; empty when the backend provides none.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Content is the full text of the source, when available.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// Snippet is a short excerpt used when full content is unavailable.
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`

	// SourceType identifies the origin kind (e.g. "web", "wiki", "book", "legacy").
	SourceType string `json:"source_type" yaml:"source_type"`

	// RelevanceScore is a value between 0.0 and 1.0 indicating relevance to the topic.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
}

// Chapter is one planned chapter of a book outline.
// Per prd001-outline R2.2-R2.3.
type Chapter struct {
	// Title is the chapter title.
	Title string `json:"title" yaml:"title"`

	// WordBudget is the planned word count for the chapter. Never negative.
	WordBudget int `json:"word_budget" yaml:"word_budget"`

	// KeyPoints lists the specific points the chapter covers, in order.
	KeyPoints []string `json:"key_points" yaml:"key_points"`

	// Description summarizes the planned chapter content.
	Description string `json:"description" yaml:"description"`

	// Order positions the chapter within the outline. Values need not be
	// unique or contiguous; chapters with equal order keep their input order.
	Order int `json:"order" yaml:"order"`
}

// BookOutline is the structured plan for a book: ordered chapters, themes,
// tone, and the research sources it was derived from.
// Per prd001-outline R2.1, R2.4-R2.6.
type BookOutline struct {
	// Title is the book title.
	Title string `json:"title" yaml:"title"`

	// Chapters holds the planned chapters sorted by Order. An outline
	// produced by the assembler always has at least one chapter.
	Chapters []Chapter `json:"chapters" yaml:"chapters"`

	// Themes lists the major themes the book develops.
	Themes []string `json:"themes" yaml:"themes"`

	// ToneDescription characterizes the book's tone and style.
	ToneDescription string `json:"tone_description" yaml:"tone_description"`

	// PlotHypothesis is the main plot arc for fiction, or the core thesis
	// for non-fiction.
	PlotHypothesis string `json:"plot_hypothesis" yaml:"plot_hypothesis"`

	// TotalWordCount is the sum of all chapter word budgets, snapshotted at
	// assembly time. It is not recomputed if chapters change afterwards.
	TotalWordCount int `json:"total_word_count" yaml:"total_word_count"`

	// TargetLength is the word count the outline was generated for.
	TargetLength int `json:"target_length" yaml:"target_length"`

	// Genre is the book genre (e.g. "non-fiction", "science fiction").
	Genre string `json:"genre" yaml:"genre"`

	// References holds the research sources the outline was generated from,
	// in the order the caller supplied them.
	References []Source `json:"references" yaml:"references"`

	// GeneratedAt is the RFC 3339 timestamp of assembly.
	GeneratedAt string `json:"generated_at" yaml:"generated_at"`
}

// ToMap converts the chapter to a plain nested mapping.
func (c Chapter) ToMap() map[string]any {
	return map[string]any{
		"title":       c.Title,
		"word_budget": c.WordBudget,
		"key_points":  append([]string{}, c.KeyPoints...),
		"description": c.Description,
		"order":       c.Order,
	}
}

// ChapterFromMap builds a Chapter from a plain mapping, filling defaults for
// absent keys. Numeric values may arrive as int or float64 depending on
// whether the mapping passed through a JSON round trip.
func ChapterFromMap(m map[string]any) Chapter {
	return Chapter{
		Title:       stringValue(m["title"], ""),
		WordBudget:  intValue(m["word_budget"], 1000),
		KeyPoints:   stringSlice(m["key_points"]),
		Description: stringValue(m["description"], ""),
		Order:       intValue(m["order"], 0),
	}
}

// ToMap converts the outline to a plain nested mapping suitable for
// persistence or transmission. References serialize only url, title, and
// source_type; content, snippet, and relevance score are dropped and cannot
// be recovered from the mapping. Per prd001-outline R6.1-R6.3.
func (o BookOutline) ToMap() map[string]any {
	chapters := make([]map[string]any, len(o.Chapters))
	for i, ch := range o.Chapters {
		chapters[i] = ch.ToMap()
	}
	refs := make([]map[string]any, len(o.References))
	for i, r := range o.References {
		refs[i] = map[string]any{
			"url":         r.URL,
			"title":       r.Title,
			"source_type": r.SourceType,
		}
	}
	return map[string]any{
		"title":            o.Title,
		"chapters":         chapters,
		"themes":           append([]string{}, o.Themes...),
		"tone_description": o.ToneDescription,
		"plot_hypothesis":  o.PlotHypothesis,
		"total_word_count": o.TotalWordCount,
		"target_length":    o.TargetLength,
		"genre":            o.Genre,
		"references":       refs,
		"generated_at":     o.GeneratedAt,
	}
}

// OutlineFromMap builds a BookOutline from a plain mapping, filling defaults
// for absent keys. Per prd001-outline R6.4.
func OutlineFromMap(m map[string]any) BookOutline {
	var chapters []Chapter
	for _, entry := range anySlice(m["chapters"]) {
		if cm, ok := entry.(map[string]any); ok {
			chapters = append(chapters, ChapterFromMap(cm))
		}
	}
	var refs []Source
	for _, entry := range anySlice(m["references"]) {
		rm, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		refs = append(refs, Source{
			URL:        stringValue(rm["url"], ""),
			Title:      stringValue(rm["title"], ""),
			SourceType: stringValue(rm["source_type"], "web"),
		})
	}
	return BookOutline{
		Title:           stringValue(m["title"], ""),
		Chapters:        chapters,
		Themes:          stringSlice(m["themes"]),
		ToneDescription: stringValue(m["tone_description"], ""),
		PlotHypothesis:  stringValue(m["plot_hypothesis"], ""),
		TotalWordCount:  intValue(m["total_word_count"], 0),
		TargetLength:    intValue(m["target_length"], 50000),
		Genre:           stringValue(m["genre"], "non-fiction"),
		References:      refs,
		GeneratedAt:     stringValue(m["generated_at"], time.Now().Format(time.RFC3339)),
	}
}

// OutlineSummary is a library listing row for a stored outline.
// Per prd003-library R2.2.
type OutlineSummary struct {
	// ID is the library row identifier.
	ID int64 `json:"id" yaml:"id"`

	// Title is the outline's book title.
	Title string `json:"title" yaml:"title"`

	// Genre is the outline's genre.
	Genre string `json:"genre" yaml:"genre"`

	// Chapters is the number of chapters in the outline.
	Chapters int `json:"chapters" yaml:"chapters"`

	// TotalWordCount is the outline's word budget total.
	TotalWordCount int `json:"total_word_count" yaml:"total_word_count"`

	// GeneratedAt is the outline's assembly timestamp.
	GeneratedAt string `json:"generated_at" yaml:"generated_at"`
}

func stringValue(v any, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}

func intValue(v any, fallback int) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return fallback
}

func stringSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return append([]string{}, vals...)
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func anySlice(v any) []any {
	switch vals := v.(type) {
	case []any:
		return vals
	case []map[string]any:
		out := make([]any, len(vals))
		for i, m := range vals {
			out[i] = m
		}
		return out
	}
	return nil
}
