package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/outline-engine/internal/library"
	"github.com/pdiddy/outline-engine/internal/outline"
	"github.com/pdiddy/outline-engine/internal/research"
	"github.com/pdiddy/outline-engine/internal/secrets"
	"github.com/pdiddy/outline-engine/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a book outline from research sources",
	Long: `Generate prompts a chat completion model with research sources and
assembles the response into a validated book outline. Sources come from a
sources file written by research --out, or from raw text passages given
with --source-text.

The outline is written to stdout or --out as YAML or JSON, and can be
stored in the outline library with --save.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("title", "", "book title (required)")
	generateCmd.Flags().String("sources", "", "path to a sources YAML file written by research --out")
	generateCmd.Flags().StringArray("source-text", nil, "raw source text passage (repeatable)")
	generateCmd.Flags().Int("target-length", 0, "target book length in words (default 50000)")
	generateCmd.Flags().String("genre", "", `book genre (default "non-fiction")`)
	generateCmd.Flags().StringArray("theme", nil, "theme to develop (repeatable)")
	generateCmd.Flags().String("model", "", "chat model identifier (default gpt-4)")
	generateCmd.Flags().String("out", "", "write the outline to a file instead of stdout")
	generateCmd.Flags().String("format", "yaml", "output format: yaml or json")
	generateCmd.Flags().Bool("save", false, "store the outline in the library")
	generateCmd.Flags().String("library", "", "library database path (default outlines.db)")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	if title == "" {
		return fmt.Errorf("provide --title for the book")
	}

	format, _ := cmd.Flags().GetString("format")
	if format != "yaml" && format != "json" {
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	sourcesFile, _ := cmd.Flags().GetString("sources")
	sourceTexts, _ := cmd.Flags().GetStringArray("source-text")
	if sourcesFile != "" && len(sourceTexts) > 0 {
		return fmt.Errorf("use either --sources or --source-text, not both")
	}
	if sourcesFile == "" && len(sourceTexts) == 0 {
		return fmt.Errorf("provide sources via --sources or --source-text")
	}

	targetLength, _ := cmd.Flags().GetInt("target-length")

	cfg := llmConfig(cmd)
	backend := outline.NewBackend(cfg)
	ctx := context.Background()

	var result *types.BookOutline
	if len(sourceTexts) > 0 {
		// Raw text passages go through the legacy entry point, which wraps
		// them as synthetic sources.
		m, err := outline.GenerateFromTexts(ctx, backend, cfg, title, sourceTexts, targetLength)
		if err != nil {
			return err
		}
		o := types.OutlineFromMap(m)
		result = &o
	} else {
		sf, err := research.LoadSources(sourcesFile)
		if err != nil {
			return err
		}
		genre, _ := cmd.Flags().GetString("genre")
		themes, _ := cmd.Flags().GetStringArray("theme")

		result, err = outline.Generate(ctx, backend, cfg, outline.GenerateRequest{
			Title:        title,
			Sources:      sf.Sources,
			TargetLength: targetLength,
			Genre:        genre,
			Themes:       themes,
		})
		if err != nil {
			return err
		}
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		store, err := library.Open(libraryPath(cmd))
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := store.Save(ctx, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved outline %d to the library\n", id)
	}

	outPath, _ := cmd.Flags().GetString("out")
	return writeOutline(result, format, outPath)
}

// llmConfig assembles model settings from the config file, environment, and
// flags, in increasing priority. The API key follows the secrets precedence.
func llmConfig(cmd *cobra.Command) types.LLMConfig {
	cfg := types.LLMConfig{
		BaseURL:    viper.GetString("llm.base_url"),
		Model:      viper.GetString("llm.model"),
		MaxRetries: viper.GetInt("llm.max_retries"),
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		cfg.Model = v
	}
	cfg.APIKey = secrets.ResolveAPIKey(loadedSecrets)
	return cfg
}

// writeOutline renders the outline to path, or stdout when path is empty.
func writeOutline(o *types.BookOutline, format, path string) error {
	w := io.Writer(os.Stdout)
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}

	var err error
	switch format {
	case "json":
		err = library.ExportJSON(o, w)
	default:
		err = library.ExportYAML(o, w)
	}
	if err == nil && path != "" {
		fmt.Fprintf(os.Stderr, "Wrote outline to %s\n", path)
	}
	return err
}
