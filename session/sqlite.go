package session

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/oops"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS login_sessions (
	slot TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore keeps the record in a local SQLite database, one row per slot.
type SQLiteStore struct {
	sqlDB *sql.DB
	slot  string
}

// OpenSQLite opens (creating if needed) the database at path. An empty slot defaults to
// "default".
func OpenSQLite(path, slot string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, oops.Code("SESSION_STORE_OPEN").Errorf("storage path is required")
	}
	if slot == "" {
		slot = "default"
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, oops.Code("SESSION_STORE_OPEN").With("path", path).Wrap(err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, oops.Code("SESSION_STORE_OPEN").With("path", path).Wrap(err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, oops.Code("SESSION_STORE_OPEN").With("path", path).Wrap(err)
	}
	return &SQLiteStore{sqlDB: sqlDB, slot: slot}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save implements [Store].
func (s *SQLiteStore) Save(ctx context.Context, r Record) error {
	data, err := Encode(r)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO login_sessions (slot, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		s.slot, data, time.Now().UnixMilli(),
	)
	if err != nil {
		return oops.Code("SESSION_STORE_SAVE").With("slot", s.slot).Wrap(err)
	}
	return nil
}

// Load implements [Store].
func (s *SQLiteStore) Load(ctx context.Context) (Record, error) {
	var data []byte
	err := s.sqlDB.QueryRowContext(ctx, `SELECT data FROM login_sessions WHERE slot = ?`, s.slot).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, oops.Code("SESSION_STORE_LOAD").With("slot", s.slot).Wrap(err)
	}
	return Decode(data)
}

// Clear implements [Store].
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM login_sessions WHERE slot = ?`, s.slot); err != nil {
		return oops.Code("SESSION_STORE_CLEAR").With("slot", s.slot).Wrap(err)
	}
	return nil
}

// SetRaw writes data verbatim, bypassing [Encode].
func (s *SQLiteStore) SetRaw(ctx context.Context, data []byte) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO login_sessions (slot, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		s.slot, data, time.Now().UnixMilli(),
	)
	if err != nil {
		return oops.Code("SESSION_STORE_SAVE").With("slot", s.slot).Wrap(err)
	}
	return nil
}
