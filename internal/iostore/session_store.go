package iostore

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/schema"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	sessionTable = "equipctl_sessions"
	sessionKey   = "current"
)

// SessionStoreImpl keeps one session row in a SQL table, or in memory for
// the none backend.
type SessionStoreImpl struct {
	db        *sql.DB
	tableName string
	backend   schema.DatabaseBackend

	// none backend
	mu      sync.Mutex
	memory  []byte
	updated time.Time
}

var _ contract.SessionStore = &SessionStoreImpl{} // Compile-time check

// NewSessionStore initializes a session store for the backend.
func NewSessionStore(backend schema.DatabaseBackend, connStr string) (*SessionStoreImpl, error) {
	return newSessionStore(sessionTable, backend, connStr)
}

func newSessionStore(tableName string, backend schema.DatabaseBackend, connStr string) (*SessionStoreImpl, error) {
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}
	if backend == schema.NoneBackend {
		return &SessionStoreImpl{tableName: tableName, backend: backend}, nil
	}

	db, err := openDB(backend, connStr, contract.GetSessionDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}
	if _, err := db.Exec(getCreateSessionTableQuery(tableName, backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}
	return &SessionStoreImpl{db: db, tableName: tableName, backend: backend}, nil
}

// getCreateSessionTableQuery returns the CREATE TABLE query for the given backend.
func getCreateSessionTableQuery(tableName string, backend schema.DatabaseBackend) string {
	quoted := quoteTableName(tableName, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				session_key VARCHAR(64) PRIMARY KEY,
				session_value BLOB NOT NULL,
				updated_at BIGINT NOT NULL
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				session_key TEXT PRIMARY KEY,
				session_value BYTEA NOT NULL,
				updated_at BIGINT NOT NULL
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				session_key TEXT PRIMARY KEY,
				session_value BLOB NOT NULL,
				updated_at INTEGER NOT NULL
			);
		`, quoted)
	}
}

// getUpsertQuery returns the UPSERT query for the backend.
func (ss *SessionStoreImpl) getUpsertQuery() string {
	quoted := quoteTableName(ss.tableName, ss.backend)
	switch ss.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (session_key, session_value, updated_at) VALUES (?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE session_value = new.session_value, updated_at = new.updated_at`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (session_key, session_value, updated_at) VALUES ($1, $2, $3)
			ON CONFLICT (session_key) DO UPDATE SET session_value = EXCLUDED.session_value, updated_at = EXCLUDED.updated_at`, quoted)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (session_key, session_value, updated_at) VALUES (?, ?, ?)`, quoted)
	}
}

// Load returns the stored session. The bool is false when nobody is signed in.
func (ss *SessionStoreImpl) Load() (schema.Session, bool, error) {
	raw, _, err := ss.read()
	if err != nil || raw == nil {
		return schema.Session{}, false, err
	}
	var session schema.Session
	if err := msgpack.Unmarshal(raw, &session); err != nil {
		return schema.Session{}, false, fmt.Errorf("failed to decode stored session: %w", err)
	}
	return session, session.Valid(), nil
}

// read returns the encoded session and its update time, or nil when absent.
func (ss *SessionStoreImpl) read() ([]byte, time.Time, error) {
	if ss.db == nil {
		ss.mu.Lock()
		defer ss.mu.Unlock()
		return ss.memory, ss.updated, nil
	}

	query := fmt.Sprintf(`SELECT session_value, updated_at FROM %s WHERE session_key = %s`,
		quoteTableName(ss.tableName, ss.backend), placeholder(ss.backend, 1))
	var value []byte
	var ts int64
	if err := ss.db.QueryRow(query, sessionKey).Scan(&value, &ts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, nil
		}
		return nil, time.Time{}, fmt.Errorf("failed to read session: %w", err)
	}
	return value, time.Unix(ts, 0), nil
}

// Save replaces the stored session.
func (ss *SessionStoreImpl) Save(session schema.Session) error {
	raw, err := msgpack.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	now := time.Now()

	if ss.db == nil {
		ss.mu.Lock()
		defer ss.mu.Unlock()
		ss.memory = raw
		ss.updated = now
		return nil
	}

	if _, err := ss.db.Exec(ss.getUpsertQuery(), sessionKey, raw, now.Unix()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete forgets the stored session. Deleting an absent session is not an error.
func (ss *SessionStoreImpl) Delete() error {
	if ss.db == nil {
		ss.mu.Lock()
		defer ss.mu.Unlock()
		ss.memory = nil
		ss.updated = time.Time{}
		return nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE session_key = %s`,
		quoteTableName(ss.tableName, ss.backend), placeholder(ss.backend, 1))
	if _, err := ss.db.Exec(query, sessionKey); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// GetStatus returns status information about the session store.
func (ss *SessionStoreImpl) GetStatus() (schema.SessionStatus, error) {
	status := schema.SessionStatus{
		Backend:   string(ss.backend),
		Connected: ss.db != nil || ss.backend == schema.NoneBackend,
	}

	raw, updated, err := ss.read()
	if err != nil {
		return status, err
	}
	if raw == nil {
		return status, nil
	}

	var session schema.Session
	if err := msgpack.Unmarshal(raw, &session); err != nil {
		return status, fmt.Errorf("failed to decode stored session: %w", err)
	}
	status.HasSession = session.Valid()
	status.Username = session.User.Username
	status.LastUpdated = updated
	return status, nil
}

// Close closes the underlying DB connection.
func (ss *SessionStoreImpl) Close() error {
	if ss.db != nil {
		return ss.db.Close()
	}
	return nil
}
