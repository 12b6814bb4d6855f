// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/outline-engine/pkg/types"
)

// ExportYAML writes the outline as YAML (R2.3).
func ExportYAML(o *types.BookOutline, w io.Writer) error {
	data, err := yaml.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportJSON writes the outline as indented JSON (R2.3).
func ExportJSON(o *types.BookOutline, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(o)
}

// ExportMarkdown writes the outline as a writing brief: front matter, the
// chapter plan with budgets and key points, and the reference list (R2.4).
func ExportMarkdown(o *types.BookOutline, w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", o.Title)
	fmt.Fprintf(&b, "- Genre: %s\n", o.Genre)
	fmt.Fprintf(&b, "- Target length: %d words\n", o.TargetLength)
	fmt.Fprintf(&b, "- Planned length: %d words across %d chapters\n", o.TotalWordCount, len(o.Chapters))
	if o.GeneratedAt != "" {
		fmt.Fprintf(&b, "- Generated: %s\n", o.GeneratedAt)
	}
	b.WriteString("\n")

	if len(o.Themes) > 0 {
		fmt.Fprintf(&b, "**Themes:** %s\n\n", strings.Join(o.Themes, ", "))
	}
	if o.ToneDescription != "" {
		fmt.Fprintf(&b, "**Tone:** %s\n\n", o.ToneDescription)
	}
	if o.PlotHypothesis != "" {
		fmt.Fprintf(&b, "**Thesis:** %s\n\n", o.PlotHypothesis)
	}

	b.WriteString("## Chapters\n\n")
	for i, ch := range o.Chapters {
		fmt.Fprintf(&b, "### %d. %s (%d words)\n\n", i+1, ch.Title, ch.WordBudget)
		if ch.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", ch.Description)
		}
		for _, point := range ch.KeyPoints {
			fmt.Fprintf(&b, "- %s\n", point)
		}
		if len(ch.KeyPoints) > 0 {
			b.WriteString("\n")
		}
	}

	if len(o.References) > 0 {
		b.WriteString("## References\n\n")
		for _, ref := range o.References {
			label := ref.Title
			if label == "" {
				label = ref.URL
			}
			fmt.Fprintf(&b, "- [%s](%s) (%s)\n", label, ref.URL, ref.SourceType)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
