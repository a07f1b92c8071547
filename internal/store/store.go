// SPDX-License-Identifier: Apache-2.0

// Package store persists terminated plan executions to SQLite. The engine
// only writes here; nothing in the execution path reads it back.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"github.com/deskpilot/deskpilot/internal/orchestrator"
)

// RunStore is a SQLite-backed sink for finished executions.
type RunStore struct {
	db *sql.DB
}

// NewRunStore opens (and if necessary creates) the run database.
func NewRunStore(dbPath string) (*RunStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening run database: %w", err)
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			command TEXT NOT NULL,
			status TEXT NOT NULL,
			reason TEXT,
			steps INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS run_steps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			step_index INTEGER NOT NULL,
			kind TEXT NOT NULL,
			reason TEXT,
			output TEXT,
			failed INTEGER NOT NULL DEFAULT 0,
			error TEXT
		);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, fmt.Errorf("error initializing run database: %w", err)
		}
	}

	return &RunStore{db: db}, nil
}

// SaveRun records one terminated execution with its full step history.
func (s *RunStore) SaveRun(command string, outcome orchestrator.Outcome, history orchestrator.History) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO runs (command, status, reason, steps) VALUES (?, ?, ?, ?)`,
		command, string(outcome.Status), outcome.Reason, len(history),
	)
	if err != nil {
		return fmt.Errorf("error inserting run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading run id: %w", err)
	}

	for _, entry := range history {
		var output []byte
		if entry.Output != nil {
			output, err = json.Marshal(entry.Output)
			if err != nil {
				return fmt.Errorf("error serializing step output: %w", err)
			}
		}
		if _, err := tx.Exec(
			`INSERT INTO run_steps (run_id, step_index, kind, reason, output, failed, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, entry.Index, string(entry.Kind), entry.Reason, string(output), entry.Failed, entry.Error,
		); err != nil {
			return fmt.Errorf("error inserting step %d: %w", entry.Index, err)
		}
	}

	return tx.Commit()
}

// RunSummary is one persisted run, without its steps.
type RunSummary struct {
	ID        int64
	Command   string
	Status    string
	Reason    string
	Steps     int
	CreatedAt string
}

// RecentRuns returns the most recent persisted runs, newest first.
func (s *RunStore) RecentRuns(limit int) ([]RunSummary, error) {
	rows, err := s.db.Query(
		`SELECT id, command, status, reason, steps, created_at
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Command, &r.Status, &r.Reason, &r.Steps, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close releases the database handle.
func (s *RunStore) Close() error {
	return s.db.Close()
}
