// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package jsonutil recovers JSON objects from model text output.
//
// Model responses are not guaranteed to be clean JSON: the object the model
// was asked for may arrive wrapped in prose, markdown code fences, or both.
// Extract applies an ordered chain of recovery strategies and returns the
// first candidate that decodes to a JSON object, or a ParseError when none
// does. Per prd001-outline R5.1-R5.6.
package jsonutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// previewLimit bounds the response preview carried by ParseError.
const previewLimit = 500

// ParseError reports that no recovery strategy produced a valid JSON object.
type ParseError struct {
	// Preview holds up to the first 500 bytes of the original response.
	Preview string

	// Err is the decode failure from the last strategy attempted.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse model response as JSON: %v (response preview: %q)", e.Err, e.Preview)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	taggedFenceRe = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	anyFenceRe    = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
	braceSpanRe   = regexp.MustCompile(`(?s)\{.*\}`)
)

// candidateFuncs lists the recovery strategies in the order they are tried
// after a direct parse fails. Each returns zero or more candidate substrings.
var candidateFuncs = []func(string) []string{
	taggedFences,
	anonymousFences,
	braceSpans,
}

// Extract recovers a JSON object from raw model output.
//
// The trimmed text is parsed directly first. On failure the recovery chain
// runs: each ```json fenced block, then each anonymous fenced block, then the
// greedy brace span from the first "{" to the last "}". Candidates are tried
// in order of appearance and the first one that decodes to a JSON object
// wins; remaining candidates are not tried. As a last resort everything
// before the first "{" and after the last "}" is stripped and the remainder
// parsed. A candidate that decodes to an array or scalar does not count as
// success. When every strategy fails, Extract returns a ParseError carrying
// a bounded preview of the original response.
func Extract(raw string) (map[string]any, error) {
	obj, err := decodeObject(strings.TrimSpace(raw))
	if err == nil {
		return obj, nil
	}

	for _, strategy := range candidateFuncs {
		for _, candidate := range strategy(raw) {
			if obj, err := decodeObject(candidate); err == nil {
				return obj, nil
			}
		}
	}

	obj, err = decodeObject(trimToBraces(strings.TrimSpace(raw)))
	if err == nil {
		return obj, nil
	}
	return nil, &ParseError{Preview: preview(raw), Err: err}
}

// decodeObject parses a candidate and requires the result to be a JSON
// object. Arrays, scalars, and null are rejected so a later strategy can
// still find the object.
func decodeObject(candidate string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(candidate)), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("not a JSON object")
	}
	return obj, nil
}

// taggedFences returns the interiors of all ```json fenced blocks.
func taggedFences(raw string) []string {
	return fenceMatches(taggedFenceRe, raw)
}

// anonymousFences returns the interiors of all fenced blocks regardless of
// language tag. A tag, when present, is part of the interior and will fail
// to parse, which is what lets taggedFences take precedence.
func anonymousFences(raw string) []string {
	return fenceMatches(anyFenceRe, raw)
}

func fenceMatches(re *regexp.Regexp, raw string) []string {
	matches := re.FindAllStringSubmatch(raw, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// braceSpans returns the greedy brace-delimited span: first "{" through the
// last "}". For a response holding several independent objects this merges
// them into one candidate; first-successful-parse-wins is the contract, not
// multi-object disambiguation.
func braceSpans(raw string) []string {
	return braceSpanRe.FindAllString(raw, -1)
}

// trimToBraces strips everything before the first "{" and after the last "}".
// Returns the empty string when no such span exists.
func trimToBraces(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}

func preview(raw string) string {
	if len(raw) > previewLimit {
		return raw[:previewLimit]
	}
	return raw
}
