package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pomodoro/internal/core/model"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Fixed width keeps lexical order equal to time order in SQL comparisons.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var (
	// ErrIntentNotFound indicates no intent with the given id exists.
	ErrIntentNotFound = errors.New("intent not found")
	// ErrTaskNotFound indicates no task with the given id exists.
	ErrTaskNotFound = errors.New("task not found")
)

// SQLiteStore persists queues, the active queue, intents and focus history.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", pragma, err)
		}
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

func (store *SQLiteStore) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS queues (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		sessions   TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS active_queue (
		slot          INTEGER PRIMARY KEY CHECK (slot = 1),
		queue         TEXT NOT NULL,
		iterations    INTEGER NOT NULL,
		session_idx   INTEGER NOT NULL,
		session_cycle INTEGER NOT NULL,
		updated_at    TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS intents (
		id          TEXT PRIMARY KEY,
		label       TEXT NOT NULL,
		pinned      INTEGER NOT NULL DEFAULT 0,
		tags        TEXT NOT NULL DEFAULT '[]',
		created_at  TEXT NOT NULL,
		archived_at TEXT
	);

	CREATE TABLE IF NOT EXISTS focus_history (
		id           TEXT PRIMARY KEY,
		intent_id    TEXT NOT NULL DEFAULT '',
		queue_id     TEXT NOT NULL DEFAULT '',
		minutes      INTEGER NOT NULL,
		manual       INTEGER NOT NULL DEFAULT 0,
		completed_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS state (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		intent_id  TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		done_at    TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_focus_history_completed ON focus_history(completed_at);
	CREATE INDEX IF NOT EXISTS idx_tasks_intent ON tasks(intent_id);
	`
	_, err := store.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (store *SQLiteStore) Close() error {
	if store.db == nil {
		return nil
	}
	return store.db.Close()
}

// --- Queues ---

// ListQueues returns every queue in creation order.
func (store *SQLiteStore) ListQueues(ctx context.Context) ([]model.Queue, error) {
	rows, err := store.db.QueryContext(ctx, `SELECT id, name, sessions FROM queues ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list queues: %w", err)
	}
	defer rows.Close()

	var queues []model.Queue
	for rows.Next() {
		var queue model.Queue
		var sessions string
		if err := rows.Scan(&queue.ID, &queue.Name, &sessions); err != nil {
			return nil, fmt.Errorf("scan queue: %w", err)
		}
		if err := json.Unmarshal([]byte(sessions), &queue.Sessions); err != nil {
			return nil, fmt.Errorf("decode sessions of %s: %w", queue.ID, err)
		}
		queues = append(queues, queue)
	}
	return queues, rows.Err()
}

// GetQueue returns the queue with the given id.
func (store *SQLiteStore) GetQueue(ctx context.Context, id string) (model.Queue, error) {
	var queue model.Queue
	var sessions string
	err := store.db.QueryRowContext(ctx, `SELECT id, name, sessions FROM queues WHERE id=?`, id).
		Scan(&queue.ID, &queue.Name, &sessions)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Queue{}, fmt.Errorf("%w: %s", model.ErrQueueNotFound, id)
		}
		return model.Queue{}, fmt.Errorf("get queue: %w", err)
	}
	if err := json.Unmarshal([]byte(sessions), &queue.Sessions); err != nil {
		return model.Queue{}, fmt.Errorf("decode sessions of %s: %w", id, err)
	}
	return queue, nil
}

// CreateQueue inserts a new queue.
func (store *SQLiteStore) CreateQueue(ctx context.Context, queue model.Queue) (model.Queue, error) {
	sessions, err := encodeSessions(queue.Sessions)
	if err != nil {
		return model.Queue{}, err
	}
	now := nowUTC()
	_, err = store.db.ExecContext(ctx, `
		INSERT INTO queues (id, name, sessions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		queue.ID, queue.Name, sessions, now, now,
	)
	if err != nil {
		return model.Queue{}, fmt.Errorf("insert queue: %w", err)
	}
	return queue, nil
}

// UpdateQueue replaces the name and sessions of an existing queue.
func (store *SQLiteStore) UpdateQueue(ctx context.Context, id string, queue model.Queue) (model.Queue, error) {
	sessions, err := encodeSessions(queue.Sessions)
	if err != nil {
		return model.Queue{}, err
	}
	result, err := store.db.ExecContext(ctx, `
		UPDATE queues SET name=?, sessions=?, updated_at=? WHERE id=?`,
		queue.Name, sessions, nowUTC(), id,
	)
	if err != nil {
		return model.Queue{}, fmt.Errorf("update queue: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return model.Queue{}, fmt.Errorf("%w: %s", model.ErrQueueNotFound, id)
	}
	queue.ID = id
	return queue, nil
}

// DeleteQueue removes a queue and returns its id.
func (store *SQLiteStore) DeleteQueue(ctx context.Context, id string) (string, error) {
	result, err := store.db.ExecContext(ctx, `DELETE FROM queues WHERE id=?`, id)
	if err != nil {
		return "", fmt.Errorf("delete queue: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return "", fmt.Errorf("%w: %s", model.ErrQueueNotFound, id)
	}
	return id, nil
}

// --- Active queue ---

// SetActiveQueue stores the active queue snapshot; nil clears it.
func (store *SQLiteStore) SetActiveQueue(ctx context.Context, active *model.ActiveQueue) error {
	if active == nil {
		if _, err := store.db.ExecContext(ctx, `DELETE FROM active_queue`); err != nil {
			return fmt.Errorf("clear active queue: %w", err)
		}
		return nil
	}
	encoded, err := json.Marshal(active.Queue)
	if err != nil {
		return fmt.Errorf("encode active queue: %w", err)
	}
	_, err = store.db.ExecContext(ctx, `
		INSERT INTO active_queue (slot, queue, iterations, session_idx, session_cycle, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			queue=excluded.queue, iterations=excluded.iterations,
			session_idx=excluded.session_idx, session_cycle=excluded.session_cycle,
			updated_at=excluded.updated_at`,
		string(encoded), active.Iterations, active.SessionIdx, active.SessionCycle, nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("set active queue: %w", err)
	}
	return nil
}

// ActiveQueue returns the stored active queue, or nil when none is set.
func (store *SQLiteStore) ActiveQueue(ctx context.Context) (*model.ActiveQueue, error) {
	var active model.ActiveQueue
	var encoded string
	err := store.db.QueryRowContext(ctx, `
		SELECT queue, iterations, session_idx, session_cycle FROM active_queue WHERE slot=1`).
		Scan(&encoded, &active.Iterations, &active.SessionIdx, &active.SessionCycle)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load active queue: %w", err)
	}
	if err := json.Unmarshal([]byte(encoded), &active.Queue); err != nil {
		return nil, fmt.Errorf("decode active queue: %w", err)
	}
	return &active, nil
}

// --- Intents ---

// CreateIntent inserts a new unpinned intent.
func (store *SQLiteStore) CreateIntent(ctx context.Context, label string) (model.Intent, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return model.Intent{}, fmt.Errorf("intent label is empty")
	}
	intent := model.Intent{
		ID:        uuid.NewString(),
		Label:     label,
		Tags:      []string{},
		CreatedAt: time.Now().UTC(),
	}
	_, err := store.db.ExecContext(ctx, `
		INSERT INTO intents (id, label, pinned, tags, created_at) VALUES (?, ?, 0, '[]', ?)`,
		intent.ID, intent.Label, intent.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return model.Intent{}, fmt.Errorf("insert intent: %w", err)
	}
	return intent, nil
}

// ListIntents returns intents, pinned first. Archived intents are included on request.
func (store *SQLiteStore) ListIntents(ctx context.Context, includeArchived bool) ([]model.Intent, error) {
	query := `SELECT id, label, pinned, tags, created_at, archived_at FROM intents`
	if !includeArchived {
		query += ` WHERE archived_at IS NULL`
	}
	query += ` ORDER BY pinned DESC, created_at`

	rows, err := store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list intents: %w", err)
	}
	defer rows.Close()

	var intents []model.Intent
	for rows.Next() {
		intent, err := scanIntent(rows)
		if err != nil {
			return nil, err
		}
		intents = append(intents, intent)
	}
	return intents, rows.Err()
}

// GetIntent returns the intent with the given id.
func (store *SQLiteStore) GetIntent(ctx context.Context, id string) (model.Intent, error) {
	row := store.db.QueryRowContext(ctx, `
		SELECT id, label, pinned, tags, created_at, archived_at FROM intents WHERE id=?`, id)
	intent, err := scanIntent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Intent{}, fmt.Errorf("%w: %s", ErrIntentNotFound, id)
	}
	return intent, err
}

// UpdateIntent changes label, pin state and tags.
func (store *SQLiteStore) UpdateIntent(ctx context.Context, intent model.Intent) error {
	tags, err := json.Marshal(intent.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	result, err := store.db.ExecContext(ctx, `
		UPDATE intents SET label=?, pinned=?, tags=? WHERE id=?`,
		intent.Label, boolToInt(intent.Pinned), string(tags), intent.ID,
	)
	if err != nil {
		return fmt.Errorf("update intent: %w", err)
	}
	return expectAffected(result, ErrIntentNotFound, intent.ID)
}

// ArchiveIntent hides an intent from the default listing.
func (store *SQLiteStore) ArchiveIntent(ctx context.Context, id string) error {
	result, err := store.db.ExecContext(ctx, `UPDATE intents SET archived_at=? WHERE id=?`, nowUTC(), id)
	if err != nil {
		return fmt.Errorf("archive intent: %w", err)
	}
	return expectAffected(result, ErrIntentNotFound, id)
}

// UnarchiveIntent restores an archived intent.
func (store *SQLiteStore) UnarchiveIntent(ctx context.Context, id string) error {
	result, err := store.db.ExecContext(ctx, `UPDATE intents SET archived_at=NULL WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("unarchive intent: %w", err)
	}
	return expectAffected(result, ErrIntentNotFound, id)
}

// DeleteIntent removes an intent. Tasks filed under it become unfiled and it
// stops being the active intent. Focus history keeps the stale id.
func (store *SQLiteStore) DeleteIntent(ctx context.Context, id string) error {
	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete intent: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `DELETE FROM intents WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete intent: %w", err)
	}
	if err := expectAffected(result, ErrIntentNotFound, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE tasks SET intent_id='' WHERE intent_id=?`, id); err != nil {
		return fmt.Errorf("unfile tasks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM state WHERE key='active_intent' AND value=?`, id); err != nil {
		return fmt.Errorf("clear active intent: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete intent: %w", err)
	}
	return nil
}

// SetActiveIntent remembers the selected intent; an empty id clears it.
func (store *SQLiteStore) SetActiveIntent(ctx context.Context, id string) error {
	if id == "" {
		_, err := store.db.ExecContext(ctx, `DELETE FROM state WHERE key='active_intent'`)
		if err != nil {
			return fmt.Errorf("clear active intent: %w", err)
		}
		return nil
	}
	_, err := store.db.ExecContext(ctx, `
		INSERT INTO state (key, value) VALUES ('active_intent', ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`, id)
	if err != nil {
		return fmt.Errorf("set active intent: %w", err)
	}
	return nil
}

// ActiveIntentID returns the selected intent id, or "" when none is set.
func (store *SQLiteStore) ActiveIntentID(ctx context.Context) (string, error) {
	var id string
	err := store.db.QueryRowContext(ctx, `SELECT value FROM state WHERE key='active_intent'`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load active intent: %w", err)
	}
	return id, nil
}

// --- Focus history ---

// RecordFocus appends a completed focus phase.
func (store *SQLiteStore) RecordFocus(ctx context.Context, record model.FocusRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CompletedAt.IsZero() {
		record.CompletedAt = time.Now()
	}
	_, err := store.db.ExecContext(ctx, `
		INSERT INTO focus_history (id, intent_id, queue_id, minutes, manual, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID, record.IntentID, record.QueueID, record.Minutes,
		boolToInt(record.Manual), record.CompletedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert focus record: %w", err)
	}
	return nil
}

// ListFocus returns focus records completed in [since, until), oldest first.
func (store *SQLiteStore) ListFocus(ctx context.Context, since, until time.Time) ([]model.FocusRecord, error) {
	rows, err := store.db.QueryContext(ctx, `
		SELECT id, intent_id, queue_id, minutes, manual, completed_at
		FROM focus_history WHERE completed_at >= ? AND completed_at < ?
		ORDER BY completed_at`,
		since.UTC().Format(timeLayout), until.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("list focus history: %w", err)
	}
	defer rows.Close()

	var records []model.FocusRecord
	for rows.Next() {
		var record model.FocusRecord
		var manual int
		var completedAt string
		if err := rows.Scan(&record.ID, &record.IntentID, &record.QueueID, &record.Minutes, &manual, &completedAt); err != nil {
			return nil, fmt.Errorf("scan focus record: %w", err)
		}
		record.Manual = manual != 0
		record.CompletedAt, err = time.Parse(timeLayout, completedAt)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIntent(row rowScanner) (model.Intent, error) {
	var intent model.Intent
	var pinned int
	var tags, createdAt string
	var archivedAt sql.NullString
	if err := row.Scan(&intent.ID, &intent.Label, &pinned, &tags, &createdAt, &archivedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Intent{}, err
		}
		return model.Intent{}, fmt.Errorf("scan intent: %w", err)
	}
	intent.Pinned = pinned != 0
	if err := json.Unmarshal([]byte(tags), &intent.Tags); err != nil {
		return model.Intent{}, fmt.Errorf("decode tags: %w", err)
	}
	created, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return model.Intent{}, fmt.Errorf("parse created_at: %w", err)
	}
	intent.CreatedAt = created
	if archivedAt.Valid {
		archived, err := time.Parse(timeLayout, archivedAt.String)
		if err != nil {
			return model.Intent{}, fmt.Errorf("parse archived_at: %w", err)
		}
		intent.ArchivedAt = &archived
	}
	return intent, nil
}

func encodeSessions(sessions []model.Session) (string, error) {
	if sessions == nil {
		sessions = []model.Session{}
	}
	encoded, err := json.Marshal(sessions)
	if err != nil {
		return "", fmt.Errorf("encode sessions: %w", err)
	}
	return string(encoded), nil
}

func expectAffected(result sql.Result, notFound error, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func nowUTC() string {
	return time.Now().UTC().Format(timeLayout)
}
