// Copyright (c) 2025-2026 tt-a1i
// SPDX-License-Identifier: MIT

// Package storage persists chat transcripts to a local SQLite database.
package storage

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// SQLite schema for the transcript history store with FTS (Full Text Search)
const Schema = `
-- Metadata table for schema version
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- Transcripts table: one row per chat session
CREATE TABLE IF NOT EXISTS transcripts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    created_at INTEGER NOT NULL,  -- Unix timestamp
    updated_at INTEGER NOT NULL,
    system_prompt TEXT,
    using_context INTEGER NOT NULL DEFAULT 1,
    conversation_id TEXT,
    parent_message_id TEXT
);

CREATE INDEX IF NOT EXISTS idx_transcripts_updated_at ON transcripts(updated_at);

-- Messages table: ordered entries within a transcript
CREATE TABLE IF NOT EXISTS messages (
    id TEXT NOT NULL,
    transcript_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    role TEXT NOT NULL,           -- user, assistant, system
    content TEXT NOT NULL,
    is_error INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    conversation_id TEXT,
    parent_message_id TEXT,
    token_count INTEGER,
    PRIMARY KEY (transcript_id, position),
    FOREIGN KEY(transcript_id) REFERENCES transcripts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_messages_transcript ON messages(transcript_id);

-- Full-text search virtual table over message content.
-- Rows are maintained by the store on save and delete.
CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    content,
    transcript_id UNINDEXED,
    tokenize='porter unicode61'
);
`

// InitMetadata seeds the metadata table
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
`
