package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// MatchStore keeps operator-confirmed description-to-code matches in a
// local SQLite file, so learned matches survive restarts without touching
// the main database. It satisfies reconcile.MatchStore.
type MatchStore struct {
	conn *sql.DB
}

// OpenMatchStore opens (creating if needed) the learned-match database at
// the given path.
func OpenMatchStore(path string) (*MatchStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create match store directory: %v", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open match store: %v", err)
	}
	// modernc.org/sqlite does not support concurrent writers
	conn.SetMaxOpenConns(1)

	schema := `CREATE TABLE IF NOT EXISTS match_history (
		key        TEXT PRIMARY KEY,
		code       TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create match_history table: %v", err)
	}

	return &MatchStore{conn: conn}, nil
}

func (m *MatchStore) Get(key string) (string, bool, error) {
	var code string
	err := m.conn.QueryRow(`SELECT code FROM match_history WHERE key = ?`, key).Scan(&code)
	if err == sql.ErrNoRows {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}
	return code, true, nil
}

// Put records a confirmed match, overwriting any earlier code for the
// same key so operator corrections win.
func (m *MatchStore) Put(key, code string) error {
	_, err := m.conn.Exec(`INSERT INTO match_history (key, code, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET code = excluded.code, updated_at = excluded.updated_at`,
		key, code, time.Now())
	return err
}

func (m *MatchStore) Keys() ([]string, error) {
	rows, err := m.conn.Query(`SELECT key FROM match_history ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (m *MatchStore) Close() error {
	return m.conn.Close()
}
