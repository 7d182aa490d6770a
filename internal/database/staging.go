/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package database provides the restore tool's local staging store: a
// small SQLite watermark table tracking how far each fallback JSONL file
// has been replayed into ClickHouse, so a restart doesn't re-insert rows
// that already landed.
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// StagingStore persists, per fallback file, the last JSONL line offset
// that was successfully restored.
type StagingStore struct {
	db *sql.DB

	stmtWatermark *sql.Stmt
	stmtCommit    *sql.Stmt
}

const schema = `
CREATE TABLE IF NOT EXISTS restore_watermarks (
	fallback_file TEXT PRIMARY KEY,
	line_offset   INTEGER NOT NULL,
	updated_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

func NewStagingStore(dbPath string) (*StagingStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("staging store: open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("staging store: init schema: %w", err)
	}

	stmtWatermark, err := db.Prepare(`SELECT line_offset FROM restore_watermarks WHERE fallback_file = ?`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("staging store: prepare watermark query: %w", err)
	}
	stmtCommit, err := db.Prepare(`
		INSERT INTO restore_watermarks (fallback_file, line_offset, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(fallback_file) DO UPDATE SET
			line_offset = excluded.line_offset,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		_ = stmtWatermark.Close()
		_ = db.Close()
		return nil, fmt.Errorf("staging store: prepare commit statement: %w", err)
	}

	return &StagingStore{db: db, stmtWatermark: stmtWatermark, stmtCommit: stmtCommit}, nil
}

// Watermark returns the last line offset restored for file, or 0 if the
// file has never been restored from.
func (s *StagingStore) Watermark(file string) (int64, error) {
	var offset int64
	err := s.stmtWatermark.QueryRow(file).Scan(&offset)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("staging store: query watermark for %s: %w", file, err)
	}
	return offset, nil
}

// CommitWatermark records that file has been restored through lineOffset.
func (s *StagingStore) CommitWatermark(file string, lineOffset int64) error {
	if _, err := s.stmtCommit.Exec(file, lineOffset); err != nil {
		return fmt.Errorf("staging store: commit watermark for %s: %w", file, err)
	}
	return nil
}

func (s *StagingStore) Close() error {
	_ = s.stmtWatermark.Close()
	_ = s.stmtCommit.Close()
	return s.db.Close()
}
