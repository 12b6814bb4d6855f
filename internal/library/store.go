// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library persists generated book outlines in a local SQLite catalog
// with full-text search.
// Implements: prd003-library (R1-R4);
//
//	docs/ARCHITECTURE.md § Outline Library.
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/outline-engine/pkg/types"
)

// DefaultDBPath is the library location relative to the working directory.
const DefaultDBPath = "outlines.db"

// Store manages the outline library SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the library database at dbPath, creating parent
// directories and the schema as needed (R1.1).
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating library directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS outlines (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			genre TEXT,
			target_length INTEGER,
			total_word_count INTEGER,
			themes TEXT,
			tone_description TEXT,
			plot_hypothesis TEXT,
			generated_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS chapters (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			outline_id INTEGER NOT NULL REFERENCES outlines(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			word_budget INTEGER,
			key_points TEXT,
			description TEXT,
			chapter_order INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chapters_outline_id ON chapters(outline_id)`,
		`CREATE TABLE IF NOT EXISTS outline_sources (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			outline_id INTEGER NOT NULL REFERENCES outlines(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			url TEXT,
			title TEXT,
			source_type TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outline_sources_outline_id ON outline_sources(outline_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 table over outline text. Its rowid mirrors outlines.id and is
	// kept in sync inside the Save and Delete transactions.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='outline_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		if _, err := s.db.Exec(
			`CREATE VIRTUAL TABLE outline_fts USING fts5(title, themes, chapters)`,
		); err != nil {
			return fmt.Errorf("creating FTS table: %w", err)
		}
	}

	return nil
}

// Save stores an outline with its chapters and references in one
// transaction and returns the assigned library ID (R1.2).
func (s *Store) Save(ctx context.Context, o *types.BookOutline) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	themesJSON, _ := json.Marshal(o.Themes)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO outlines (title, genre, target_length, total_word_count, themes, tone_description, plot_hypothesis, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.Title, o.Genre, o.TargetLength, o.TotalWordCount,
		string(themesJSON), o.ToneDescription, o.PlotHypothesis, o.GeneratedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting outline: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading outline id: %w", err)
	}

	chStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chapters (outline_id, position, title, word_budget, key_points, description, chapter_order)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing chapter insert: %w", err)
	}
	defer chStmt.Close()

	for i, ch := range o.Chapters {
		keyPointsJSON, _ := json.Marshal(ch.KeyPoints)
		if _, err := chStmt.ExecContext(ctx,
			id, i, ch.Title, ch.WordBudget, string(keyPointsJSON), ch.Description, ch.Order,
		); err != nil {
			return 0, fmt.Errorf("inserting chapter %d: %w", i, err)
		}
	}

	srcStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO outline_sources (outline_id, position, url, title, source_type)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing source insert: %w", err)
	}
	defer srcStmt.Close()

	for i, src := range o.References {
		if _, err := srcStmt.ExecContext(ctx,
			id, i, src.URL, src.Title, src.SourceType,
		); err != nil {
			return 0, fmt.Errorf("inserting source %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO outline_fts (rowid, title, themes, chapters) VALUES (?, ?, ?, ?)`,
		id, o.Title, strings.Join(o.Themes, " "), chapterText(o.Chapters),
	); err != nil {
		return 0, fmt.Errorf("indexing outline: %w", err)
	}

	return id, tx.Commit()
}

// chapterText flattens chapter titles, descriptions, and key points into one
// searchable string.
func chapterText(chapters []types.Chapter) string {
	var b strings.Builder
	for _, ch := range chapters {
		b.WriteString(ch.Title)
		b.WriteString(" ")
		b.WriteString(ch.Description)
		b.WriteString(" ")
		b.WriteString(strings.Join(ch.KeyPoints, " "))
		b.WriteString(" ")
	}
	return strings.TrimSpace(b.String())
}

// Get reconstructs a stored outline by library ID (R2.1).
func (s *Store) Get(ctx context.Context, id int64) (*types.BookOutline, error) {
	var (
		o          types.BookOutline
		themesJSON sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT title, genre, target_length, total_word_count, themes, tone_description, plot_hypothesis, generated_at
		 FROM outlines WHERE id = ?`, id,
	).Scan(&o.Title, &o.Genre, &o.TargetLength, &o.TotalWordCount,
		&themesJSON, &o.ToneDescription, &o.PlotHypothesis, &o.GeneratedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("outline %d not found", id)
		}
		return nil, fmt.Errorf("looking up outline: %w", err)
	}

	if themesJSON.Valid {
		json.Unmarshal([]byte(themesJSON.String), &o.Themes)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT title, word_budget, key_points, description, chapter_order
		 FROM chapters WHERE outline_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("querying chapters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ch            types.Chapter
			keyPointsJSON sql.NullString
		)
		if err := rows.Scan(&ch.Title, &ch.WordBudget, &keyPointsJSON, &ch.Description, &ch.Order); err != nil {
			return nil, fmt.Errorf("scanning chapter: %w", err)
		}
		if keyPointsJSON.Valid {
			json.Unmarshal([]byte(keyPointsJSON.String), &ch.KeyPoints)
		}
		o.Chapters = append(o.Chapters, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	srcRows, err := s.db.QueryContext(ctx,
		`SELECT url, title, source_type
		 FROM outline_sources WHERE outline_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer srcRows.Close()

	for srcRows.Next() {
		var src types.Source
		if err := srcRows.Scan(&src.URL, &src.Title, &src.SourceType); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		o.References = append(o.References, src)
	}
	return &o, srcRows.Err()
}

// List returns summaries of all stored outlines, newest first (R2.2).
func (s *Store) List(ctx context.Context) ([]types.OutlineSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT o.id, o.title, o.genre,
			(SELECT COUNT(*) FROM chapters c WHERE c.outline_id = o.id),
			o.total_word_count, o.generated_at
		 FROM outlines o
		 ORDER BY o.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying outlines: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// Search runs an FTS5 full-text query over outline titles, themes, and
// chapter text, returning matches in rank order (R3.1, R3.2).
func (s *Store) Search(ctx context.Context, query string) ([]types.OutlineSummary, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query is empty")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT o.id, o.title, o.genre,
			(SELECT COUNT(*) FROM chapters c WHERE c.outline_id = o.id),
			o.total_word_count, o.generated_at
		 FROM outline_fts
		 JOIN outlines o ON o.id = outline_fts.rowid
		 WHERE outline_fts MATCH ?
		 ORDER BY outline_fts.rank`, query)
	if err != nil {
		return nil, fmt.Errorf("searching outlines: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

func scanSummaries(rows *sql.Rows) ([]types.OutlineSummary, error) {
	var summaries []types.OutlineSummary
	for rows.Next() {
		var sum types.OutlineSummary
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Genre, &sum.Chapters, &sum.TotalWordCount, &sum.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Delete removes an outline with its chapters and sources (R4.1). Deleting
// an unknown ID is an error.
func (s *Store) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM outlines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting outline: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("outline %d not found", id)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM outline_fts WHERE rowid = ?`, id); err != nil {
		return fmt.Errorf("removing outline from index: %w", err)
	}

	return tx.Commit()
}
