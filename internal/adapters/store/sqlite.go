package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/hugo-lorenzo-mato/conductor/internal/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS handlers (
	handler_id    TEXT PRIMARY KEY,
	workflow_name TEXT NOT NULL,
	status        TEXT NOT NULL,
	ctx           TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_handlers_status ON handlers(status);
`

// SQLiteStore is the relational WorkflowStore: one row per handler ID,
// upserted on every checkpoint.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	// WAL mode for concurrent readers alongside the writer.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Update implements core.WorkflowStore as an idempotent upsert.
func (s *SQLiteStore) Update(ctx context.Context, h core.PersistedHandler) error {
	ctxJSON, err := json.Marshal(h.Ctx)
	if err != nil {
		return fmt.Errorf("marshaling context snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO handlers (handler_id, workflow_name, status, ctx)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(handler_id) DO UPDATE SET
			workflow_name = excluded.workflow_name,
			status = excluded.status,
			ctx = excluded.ctx
	`, h.HandlerID, h.WorkflowName, string(h.Status), string(ctxJSON))
	if err != nil {
		return core.ErrStorage("upserting handler").WithCause(err)
	}
	return nil
}

// Query implements core.WorkflowStore. Each non-nil allow-list becomes an
// IN clause; an empty allow-list short-circuits to zero rows.
func (s *SQLiteStore) Query(ctx context.Context, q core.HandlerQuery) ([]core.PersistedHandler, error) {
	sqlText := "SELECT handler_id, workflow_name, status, ctx FROM handlers WHERE 1=1"
	var args []any

	if q.HandlerIDIn != nil {
		if len(q.HandlerIDIn) == 0 {
			return nil, nil
		}
		sqlText += " AND handler_id IN (" + placeholders(len(q.HandlerIDIn)) + ")"
		for _, id := range q.HandlerIDIn {
			args = append(args, id)
		}
	}
	if q.WorkflowNameIn != nil {
		if len(q.WorkflowNameIn) == 0 {
			return nil, nil
		}
		sqlText += " AND workflow_name IN (" + placeholders(len(q.WorkflowNameIn)) + ")"
		for _, name := range q.WorkflowNameIn {
			args = append(args, name)
		}
	}
	if q.StatusIn != nil {
		if len(q.StatusIn) == 0 {
			return nil, nil
		}
		sqlText += " AND status IN (" + placeholders(len(q.StatusIn)) + ")"
		for _, status := range q.StatusIn {
			args = append(args, string(status))
		}
	}

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, core.ErrStorage("querying handlers").WithCause(err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.PersistedHandler
	for rows.Next() {
		var h core.PersistedHandler
		var status, ctxJSON string
		if err := rows.Scan(&h.HandlerID, &h.WorkflowName, &status, &ctxJSON); err != nil {
			return nil, core.ErrStorage("scanning handler row").WithCause(err)
		}
		h.Status = core.Status(status)
		if err := json.Unmarshal([]byte(ctxJSON), &h.Ctx); err != nil {
			return nil, fmt.Errorf("unmarshaling context for %s: %w", h.HandlerID, err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
