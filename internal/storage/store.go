// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/tt-a1i/gpt/internal/model"
	"github.com/tt-a1i/gpt/internal/util"
)

var (
	ErrNotFound      = errors.New("transcript not found")
	ErrDatabaseError = errors.New("database error")
)

// Store persists transcripts to a SQLite database.
type Store struct {
	db   *sql.DB
	path string

	// maxTranscripts bounds the number of kept transcripts; oldest
	// transcripts are pruned on save. Zero means unbounded.
	maxTranscripts int
}

// Options configures a Store.
type Options struct {
	// Path is the database file location. Empty uses the default
	// ~/.gpt-tui/history.db.
	Path string

	// MaxTranscripts bounds the history size. Zero means unbounded.
	MaxTranscripts int
}

// DefaultPath returns the default history database location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".gpt-tui", "history.db"), nil
}

// Open opens (creating if necessary) the transcript store.
func Open(opts Options) (*Store, error) {
	path := opts.Path
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{
		db:             db,
		path:           path,
		maxTranscripts: opts.MaxTranscripts,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return err
	}
	_, err := s.db.Exec(InitMetadata)
	return err
}

// Close closes the store and releases resources.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save writes a transcript and all of its messages. An existing
// transcript with the same ID is replaced.
func (s *Store) Save(t *model.Transcript) error {
	if t == nil {
		return errors.New("transcript cannot be nil")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	// Replace rather than merge; the in-memory transcript is the
	// source of truth.
	if _, err := tx.Exec("DELETE FROM messages WHERE transcript_id = ?", t.ID); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM messages_fts WHERE transcript_id = ?", t.ID); err != nil {
		return fmt.Errorf("failed to clear search rows: %w", err)
	}

	usingContext := 0
	if t.UsingContext {
		usingContext = 1
	}

	_, err = tx.Exec(`
		INSERT INTO transcripts (id, title, created_at, updated_at, system_prompt, using_context, conversation_id, parent_message_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			updated_at = excluded.updated_at,
			system_prompt = excluded.system_prompt,
			using_context = excluded.using_context,
			conversation_id = excluded.conversation_id,
			parent_message_id = excluded.parent_message_id
	`, t.ID, t.GetTitle(), t.CreatedAt.Unix(), t.UpdatedAt.Unix(),
		t.SystemPrompt, usingContext, t.Thread.ConversationID, t.Thread.ParentMessageID)
	if err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}

	for i, msg := range t.Messages {
		isError := 0
		if msg.IsError {
			isError = 1
		}
		_, err := tx.Exec(`
			INSERT INTO messages (id, transcript_id, position, role, content, is_error, created_at, conversation_id, parent_message_id, token_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, msg.ID, t.ID, i, string(msg.Role), msg.Content, isError,
			msg.Timestamp.Unix(), msg.ConversationID, msg.ParentMessageID, msg.TokenCount)
		if err != nil {
			return fmt.Errorf("failed to save message: %w", err)
		}

		if !msg.IsError && msg.Content != "" {
			_, err := tx.Exec(`INSERT INTO messages_fts (content, transcript_id) VALUES (?, ?)`,
				msg.Content, t.ID)
			if err != nil {
				return fmt.Errorf("failed to index message: %w", err)
			}
		}
	}

	if err := s.pruneTx(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// pruneTx removes the oldest transcripts beyond the configured bound.
func (s *Store) pruneTx(tx *sql.Tx) error {
	if s.maxTranscripts <= 0 {
		return nil
	}

	rows, err := tx.Query(`
		SELECT id FROM transcripts
		ORDER BY updated_at DESC
		LIMIT -1 OFFSET ?
	`, s.maxTranscripts)
	if err != nil {
		return fmt.Errorf("failed to find stale transcripts: %w", err)
	}

	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		stale = append(stale, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, id := range stale {
		if err := deleteTx(tx, id); err != nil {
			return err
		}
	}

	return nil
}

func deleteTx(tx *sql.Tx, id string) error {
	if _, err := tx.Exec("DELETE FROM messages_fts WHERE transcript_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM messages WHERE transcript_id = ?", id); err != nil {
		return err
	}
	result, err := tx.Exec("DELETE FROM transcripts WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Load reads a transcript and its messages by ID.
func (s *Store) Load(id string) (*model.Transcript, error) {
	t := &model.Transcript{ID: id, MaxTokens: model.DefaultMaxTokens}

	var createdAt, updatedAt int64
	var usingContext int
	err := s.db.QueryRow(`
		SELECT title, created_at, updated_at, system_prompt, using_context, conversation_id, parent_message_id
		FROM transcripts WHERE id = ?
	`, id).Scan(&t.Title, &createdAt, &updatedAt, &t.SystemPrompt,
		&usingContext, &t.Thread.ConversationID, &t.Thread.ParentMessageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	t.CreatedAt = time.Unix(createdAt, 0)
	t.UpdatedAt = time.Unix(updatedAt, 0)
	t.UsingContext = usingContext != 0

	rows, err := s.db.Query(`
		SELECT id, role, content, is_error, created_at, conversation_id, parent_message_id, token_count
		FROM messages WHERE transcript_id = ?
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var msg model.Message
		var role string
		var isError int
		var ts int64
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &isError, &ts,
			&msg.ConversationID, &msg.ParentMessageID, &msg.TokenCount); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		msg.Role = model.Role(role)
		msg.IsError = isError != 0
		msg.Timestamp = time.Unix(ts, 0)
		t.Messages = append(t.Messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return t, nil
}

// previewRunes bounds the first-prompt preview carried in list metadata.
const previewRunes = 80

// previewColumn selects the first user prompt of a transcript for the
// list preview.
const previewColumn = `(
	SELECT p.content FROM messages p
	WHERE p.transcript_id = t.id AND p.role = 'user'
	ORDER BY p.position LIMIT 1
)`

// List returns metadata for all stored transcripts, newest first.
func (s *Store) List() ([]model.Meta, error) {
	rows, err := s.db.Query(`
		SELECT t.id, t.title, t.created_at, t.updated_at, COUNT(m.id), ` + previewColumn + `
		FROM transcripts t
		LEFT JOIN messages m ON m.transcript_id = t.id
		GROUP BY t.id
		ORDER BY t.updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	return scanMetas(rows)
}

// Search finds transcripts whose message content matches the query,
// newest first. Full-text search handles normal word queries; inputs
// the FTS grammar rejects (an unbalanced quote, a bare operator) fall
// back to a plain substring match.
func (s *Store) Search(query string) ([]model.Meta, error) {
	metas, err := s.searchFTS(query)
	if err == nil {
		return metas, nil
	}
	return s.searchLike(query)
}

func (s *Store) searchFTS(query string) ([]model.Meta, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT t.id, t.title, t.created_at, t.updated_at,
			(SELECT COUNT(*) FROM messages m WHERE m.transcript_id = t.id), `+previewColumn+`
		FROM messages_fts f
		JOIN transcripts t ON t.id = f.transcript_id
		WHERE messages_fts MATCH ?
		ORDER BY t.updated_at DESC
	`, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	return scanMetas(rows)
}

func (s *Store) searchLike(query string) ([]model.Meta, error) {
	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.db.Query(`
		SELECT DISTINCT t.id, t.title, t.created_at, t.updated_at,
			(SELECT COUNT(*) FROM messages m WHERE m.transcript_id = t.id), `+previewColumn+`
		FROM messages m
		JOIN transcripts t ON t.id = m.transcript_id
		WHERE m.is_error = 0 AND m.content LIKE ? ESCAPE '\'
		ORDER BY t.updated_at DESC
	`, pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	return scanMetas(rows)
}

// escapeLike escapes the LIKE wildcards so the query matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// scanMetas reads list metadata rows: id, title, created, updated,
// message count and the nullable first-prompt preview.
func scanMetas(rows *sql.Rows) ([]model.Meta, error) {
	var metas []model.Meta
	for rows.Next() {
		var meta model.Meta
		var createdAt, updatedAt int64
		var preview sql.NullString
		if err := rows.Scan(&meta.ID, &meta.Title, &createdAt, &updatedAt, &meta.MessageCount, &preview); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		meta.CreatedAt = time.Unix(createdAt, 0)
		meta.UpdatedAt = time.Unix(updatedAt, 0)
		meta.Preview = util.TruncateRunes(preview.String, previewRunes)
		metas = append(metas, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return metas, nil
}

// Delete removes a transcript and its messages.
func (s *Store) Delete(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if err := deleteTx(tx, id); err != nil {
		return err
	}

	return tx.Commit()
}

// Clear removes all stored transcripts.
func (s *Store) Clear() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM messages_fts",
		"DELETE FROM messages",
		"DELETE FROM transcripts",
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
	}

	return tx.Commit()
}

// Count returns the number of stored transcripts.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM transcripts").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return n, nil
}
