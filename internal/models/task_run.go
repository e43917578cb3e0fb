// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/fetcharr/internal/dbinterface"
)

// Task run statuses.
const (
	TaskStatusRunning   = "running"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
	TaskStatusStale     = "stale"
)

// TaskRun is one execution of a named task type.
type TaskRun struct {
	ID         int64      `json:"id"`
	TaskID     string     `json:"taskId"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Detail     string     `json:"detail,omitempty"`
}

// TaskRunStore enforces at-most-one-concurrent-run-per-task-id via a partial
// unique index on running rows.
type TaskRunStore struct {
	db dbinterface.Querier
}

// NewTaskRunStore returns a new TaskRunStore backed by db.
func NewTaskRunStore(db dbinterface.Querier) *TaskRunStore {
	return &TaskRunStore{db: db}
}

// TryStart records a running entry for taskID. Returns (0, false, nil) when a
// run with the same task id is already in flight.
func (s *TaskRunStore) TryStart(ctx context.Context, taskID string) (int64, bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO task_runs (task_id, status) VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`, taskID, TaskStatusRunning)
	if err != nil {
		// modernc reports partial-index conflicts as constraint errors
		// rather than honoring ON CONFLICT in some versions.
		if strings.Contains(err.Error(), "constraint") {
			return 0, false, nil
		}
		return 0, false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if affected == 0 {
		return 0, false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// Finish marks a run completed or failed.
func (s *TaskRunStore) Finish(ctx context.Context, runID int64, status, detail string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE task_runs SET status = ?, detail = ?, finished_at = CURRENT_TIMESTAMP WHERE id = ?
	`, status, detail, runID)
	return err
}

// ReconcileStale fails any run still marked running. Called once at startup:
// a running row from a previous process is a crash leftover, and in-memory
// running markers are only authoritative for the current process lifetime.
func (s *TaskRunStore) ReconcileStale(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE task_runs SET status = ?, detail = 'stale run from previous process', finished_at = CURRENT_TIMESTAMP
		WHERE status = ?
	`, TaskStatusStale, TaskStatusRunning)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		log.Warn().Int64("count", affected).Msg("tasks: failed stale runs from previous process")
	}
	return affected, nil
}
