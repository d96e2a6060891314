// Package audit keeps the append-only compliance trail in its own
// SQLite file, separate from the ledger: violations are write-once
// evidence, never re-read by validation.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"stockdesk/internal/store"
	"stockdesk/internal/types"

	_ "modernc.org/sqlite"
)

type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

var _ store.AuditLog = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS compliance_violations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	agent_id TEXT NOT NULL,
	violation_type TEXT NOT NULL,
	rule TEXT NOT NULL,
	attempted_action TEXT NOT NULL,
	severity TEXT NOT NULL,
	reason TEXT NOT NULL,
	detected_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_violations_agent_time
	ON compliance_violations (agent_id, detected_at);
`

// Open initializes the audit database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("audit: database path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	return open(dsn, path)
}

// OpenMemory backs the store with an in-memory database. Test use.
func OpenMemory() (*Store, error) {
	return open("file::memory:?_pragma=busy_timeout(5000)", ":memory:")
}

func open(dsn, path string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: initializing schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// RecordViolation appends one violation row. Rows are never updated.
func (s *Store) RecordViolation(ctx context.Context, v store.Violation) error {
	if s == nil {
		return fmt.Errorf("audit: store not initialized")
	}
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return fmt.Errorf("audit: store closed")
	}
	attempted, err := json.Marshal(v.AttemptedAction)
	if err != nil {
		return fmt.Errorf("audit: encoding attempted action: %w", err)
	}
	severity := v.Severity
	if severity == "" {
		severity = "blocked"
	}
	detectedAt := v.DetectedAt
	if detectedAt.IsZero() {
		detectedAt = time.Now()
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO compliance_violations
			(agent_id, violation_type, rule, attempted_action, severity, reason, detected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.AgentID, string(v.ViolationType), string(v.Rule), string(attempted),
		severity, v.Reason, detectedAt.Unix(),
	)
	return err
}

// RecentViolations lists an agent's violations since the given instant,
// newest first.
func (s *Store) RecentViolations(ctx context.Context, agentID string, since time.Time) ([]store.Violation, error) {
	if s == nil {
		return nil, fmt.Errorf("audit: store not initialized")
	}
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return nil, fmt.Errorf("audit: store closed")
	}
	rows, err := db.QueryContext(ctx, `
		SELECT agent_id, violation_type, rule, attempted_action, severity, reason, detected_at
		FROM compliance_violations
		WHERE agent_id = ? AND detected_at >= ?
		ORDER BY detected_at DESC, id DESC`,
		agentID, since.Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Violation
	for rows.Next() {
		var (
			v         store.Violation
			vtype     string
			rule      string
			attempted string
			unix      int64
		)
		if err := rows.Scan(&v.AgentID, &vtype, &rule, &attempted, &v.Severity, &v.Reason, &unix); err != nil {
			return nil, err
		}
		v.ViolationType = types.ViolationType(vtype)
		v.Rule = types.Rule(rule)
		v.DetectedAt = time.Unix(unix, 0)
		if attempted != "" {
			_ = json.Unmarshal([]byte(attempted), &v.AttemptedAction)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
