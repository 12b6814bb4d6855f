package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/outline-engine/internal/research"
	"github.com/pdiddy/outline-engine/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "outline-engine/0.1"
)

var researchCmd = &cobra.Command{
	Use:   "research [query...]",
	Short: "Search public catalogs for sources on a topic",
	Long: `Research queries public catalogs (Wikipedia, Open Library) for sources
matching a book topic. Results are deduplicated across backends, ranked by
relevance, and can be written to a sources file for generate.`,
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().StringSlice("backend", []string{"wikipedia", "open_library"}, "backends to query: wikipedia, open_library")
	researchCmd.Flags().Int("max-results", 0, "maximum number of sources to return (0 = config or 10)")
	researchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	researchCmd.Flags().String("out", "", "write sources to a YAML file for generate")
	researchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("provide a topic to research")
	}

	cfg, err := researchConfig(cmd)
	if err != nil {
		return err
	}

	backends := research.Backends(cfg)
	out, err := research.Research(context.Background(), query, backends, cfg, os.Stderr)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("out"); path != "" {
		if err := research.SaveSources(path, query, out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved %d sources to %s\n", len(out.Sources), path)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return research.FormatJSON(out, os.Stdout)
	}
	research.FormatTable(out, os.Stdout)
	return nil
}

func researchConfig(cmd *cobra.Command) (types.ResearchConfig, error) {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")
	if maxResults == 0 {
		maxResults = viper.GetInt("research.max_results")
	}

	cfg := types.ResearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		MaxResults: maxResults,
	}

	names, _ := cmd.Flags().GetStringSlice("backend")
	for _, name := range names {
		switch name {
		case "wikipedia":
			cfg.EnableWikipedia = true
		case "open_library", "openlibrary":
			cfg.EnableOpenLibrary = true
		default:
			return cfg, fmt.Errorf("unknown backend %q: use wikipedia or open_library", name)
		}
	}
	return cfg, nil
}
