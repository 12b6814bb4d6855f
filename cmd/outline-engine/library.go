// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/outline-engine/internal/library"
	"github.com/pdiddy/outline-engine/pkg/types"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage the outline library (list, show, search, export, delete)",
	Long: `Library manages a local SQLite catalog of generated outlines. Use
subcommands to list stored outlines, inspect one, search titles and chapter
text, export an outline, or delete one.`,
}

// --- list subcommand ---

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored outlines",
	RunE:  runLibraryList,
}

func runLibraryList(cmd *cobra.Command, args []string) error {
	store, err := library.Open(libraryPath(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	summaries, err := store.List(context.Background())
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSummaries(summaries, jsonOutput)
}

// --- show subcommand ---

var libraryShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a stored outline as YAML",
	RunE:  runLibraryShow,
}

func runLibraryShow(cmd *cobra.Command, args []string) error {
	id, err := outlineID(args)
	if err != nil {
		return err
	}

	store, err := library.Open(libraryPath(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	o, err := store.Get(context.Background(), id)
	if err != nil {
		return err
	}
	return library.ExportYAML(o, os.Stdout)
}

// --- search subcommand ---

var librarySearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search stored outlines with full-text search",
	Long: `Search matches the query against outline titles, themes, and chapter
text using FTS5, ranked by relevance.`,
	RunE: runLibrarySearch,
}

func runLibrarySearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	if query == "" {
		return fmt.Errorf("provide a search query")
	}

	store, err := library.Open(libraryPath(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	summaries, err := store.Search(context.Background(), query)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSummaries(summaries, jsonOutput)
}

// --- export subcommand ---

var libraryExportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Export a stored outline to YAML, JSON, or Markdown",
	Long: `Export writes a stored outline to stdout or --out. The markdown form
is a writing brief with chapter budgets, key points, and references.`,
	RunE: runLibraryExport,
}

func runLibraryExport(cmd *cobra.Command, args []string) error {
	id, err := outlineID(args)
	if err != nil {
		return err
	}

	store, err := library.Open(libraryPath(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	o, err := store.Get(context.Background(), id)
	if err != nil {
		return err
	}

	w := io.Writer(os.Stdout)
	outPath, _ := cmd.Flags().GetString("out")
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer f.Close()
		w = f
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "yaml", "":
		err = library.ExportYAML(o, w)
	case "json":
		err = library.ExportJSON(o, w)
	case "markdown", "md":
		err = library.ExportMarkdown(o, w)
	default:
		return fmt.Errorf("unsupported format %q: use yaml, json, or markdown", format)
	}
	if err == nil && outPath != "" {
		fmt.Fprintf(os.Stderr, "Exported outline %d to %s\n", id, outPath)
	}
	return err
}

// --- delete subcommand ---

var libraryDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a stored outline",
	RunE:  runLibraryDelete,
}

func runLibraryDelete(cmd *cobra.Command, args []string) error {
	id, err := outlineID(args)
	if err != nil {
		return err
	}

	store, err := library.Open(libraryPath(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(context.Background(), id); err != nil {
		return err
	}
	fmt.Printf("Deleted outline %d\n", id)
	return nil
}

// --- shared helpers ---

// libraryPath resolves the database path from the --library flag, the
// config file, or the package default, in that order.
func libraryPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("library")
	if path == "" {
		path = viper.GetString("library.db_path")
	}
	if path == "" {
		path = library.DefaultDBPath
	}
	return path
}

func outlineID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("provide an outline ID (see library list)")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid outline ID %q", args[0])
	}
	return id, nil
}

func formatSummaries(summaries []types.OutlineSummary, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	if len(summaries) == 0 {
		fmt.Println("No outlines found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-40s  %-16s  %-8s  %-8s  %s\n",
		"ID", "Title", "Genre", "Chapters", "Words", "Generated")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for _, s := range summaries {
		title := s.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		genre := s.Genre
		if len(genre) > 16 {
			genre = genre[:13] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-40s  %-16s  %-8d  %-8d  %s\n",
			s.ID, title, genre, s.Chapters, s.TotalWordCount, s.GeneratedAt)
	}

	fmt.Fprintf(os.Stdout, "\n%d outlines\n", len(summaries))
	return nil
}

func init() {
	// Shared flag on the parent command, inherited by subcommands.
	libraryCmd.PersistentFlags().String("library", "", "library database path (default outlines.db)")

	// List and search flags.
	libraryListCmd.Flags().Bool("json", false, "output as JSON")
	librarySearchCmd.Flags().Bool("json", false, "output as JSON")

	// Export flags.
	libraryExportCmd.Flags().String("format", "yaml", "export format: yaml, json, or markdown")
	libraryExportCmd.Flags().String("out", "", "write to a file instead of stdout")

	// Wire subcommands.
	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(libraryShowCmd)
	libraryCmd.AddCommand(librarySearchCmd)
	libraryCmd.AddCommand(libraryExportCmd)
	libraryCmd.AddCommand(libraryDeleteCmd)

	rootCmd.AddCommand(libraryCmd)
}
