package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pomodoro/internal/core/model"

	"github.com/google/uuid"
)

// CreateTask inserts an open task. intentID may be empty.
func (store *SQLiteStore) CreateTask(ctx context.Context, title, intentID string) (model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Task{}, fmt.Errorf("task title is empty")
	}
	task := model.Task{
		ID:        uuid.NewString(),
		Title:     title,
		IntentID:  intentID,
		CreatedAt: time.Now().UTC(),
	}
	_, err := store.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, intent_id, created_at) VALUES (?, ?, ?, ?)`,
		task.ID, task.Title, task.IntentID, task.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

// ListTasks returns tasks, open ones first, oldest first within each group.
// Done tasks are included on request. A non-empty intentID filters by intent.
func (store *SQLiteStore) ListTasks(ctx context.Context, includeDone bool, intentID string) ([]model.Task, error) {
	query := `SELECT id, title, intent_id, created_at, done_at FROM tasks`
	var where []string
	var args []any
	if !includeDone {
		where = append(where, `done_at IS NULL`)
	}
	if intentID != "" {
		where = append(where, `intent_id = ?`)
		args = append(args, intentID)
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY done_at IS NOT NULL, created_at`

	rows, err := store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// GetTask returns the task with the given id.
func (store *SQLiteStore) GetTask(ctx context.Context, id string) (model.Task, error) {
	row := store.db.QueryRowContext(ctx, `
		SELECT id, title, intent_id, created_at, done_at FROM tasks WHERE id=?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return task, err
}

// UpdateTask changes a task's title and intent.
func (store *SQLiteStore) UpdateTask(ctx context.Context, task model.Task) error {
	title := strings.TrimSpace(task.Title)
	if title == "" {
		return fmt.Errorf("task title is empty")
	}
	result, err := store.db.ExecContext(ctx, `
		UPDATE tasks SET title=?, intent_id=? WHERE id=?`, title, task.IntentID, task.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectAffected(result, ErrTaskNotFound, task.ID)
}

// SetTaskDone marks a task done, or open again when done is false.
func (store *SQLiteStore) SetTaskDone(ctx context.Context, id string, done bool) error {
	var doneAt any
	if done {
		doneAt = nowUTC()
	}
	result, err := store.db.ExecContext(ctx, `UPDATE tasks SET done_at=? WHERE id=?`, doneAt, id)
	if err != nil {
		return fmt.Errorf("set task done: %w", err)
	}
	return expectAffected(result, ErrTaskNotFound, id)
}

// DeleteTask removes a task.
func (store *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	result, err := store.db.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectAffected(result, ErrTaskNotFound, id)
}

func scanTask(row rowScanner) (model.Task, error) {
	var task model.Task
	var createdAt string
	var doneAt sql.NullString
	if err := row.Scan(&task.ID, &task.Title, &task.IntentID, &createdAt, &doneAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, err
		}
		return model.Task{}, fmt.Errorf("scan task: %w", err)
	}
	created, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return model.Task{}, fmt.Errorf("parse created_at: %w", err)
	}
	task.CreatedAt = created
	if doneAt.Valid {
		done, err := time.Parse(timeLayout, doneAt.String)
		if err != nil {
			return model.Task{}, fmt.Errorf("parse done_at: %w", err)
		}
		task.DoneAt = &done
	}
	return task, nil
}
