package nvs

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps the region as a single blob row in a SQLite database,
// for hosts that already run one. Writes are staged in memory; Commit
// replaces the stored image inside a transaction, so a region update is
// all-or-nothing.
type SQLiteStore struct {
	path     string
	conn     *sql.DB
	staged   []byte
	capacity int
}

// NewSQLiteStore returns a store over the database file at path. The
// database is not touched until Init.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(capacity int) error {
	if capacity <= 0 {
		return fmt.Errorf("sqlite store: capacity must be positive, got %d", capacity)
	}
	if s.conn != nil {
		if s.capacity != capacity {
			return fmt.Errorf("sqlite store: already initialized with capacity %d", s.capacity)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("sqlite store: failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL", s.path)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("sqlite store: failed to open database: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS nvs_region (
			id INTEGER PRIMARY KEY CHECK (id = 0),
			image BLOB NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return fmt.Errorf("sqlite store: failed to create region table: %w", err)
	}

	staged := make([]byte, capacity)
	for i := range staged {
		staged[i] = EraseSentinel
	}

	var image []byte
	err = conn.QueryRow("SELECT image FROM nvs_region WHERE id = 0").Scan(&image)
	switch {
	case err == sql.ErrNoRows:
		// Fresh region, stays erased until the first commit.
	case err != nil:
		conn.Close()
		return fmt.Errorf("sqlite store: failed to load region image: %w", err)
	case len(image) != capacity:
		conn.Close()
		return fmt.Errorf("sqlite store: stored image has size %d, want %d", len(image), capacity)
	default:
		copy(staged, image)
	}

	s.conn = conn
	s.staged = staged
	s.capacity = capacity
	return nil
}

func (s *SQLiteStore) ReadBytes(offset, length int) ([]byte, error) {
	if s.conn == nil {
		return nil, ErrNotInitialized
	}
	if offset < 0 || length < 0 || offset+length > s.capacity {
		return nil, ErrOutOfRange
	}

	out := make([]byte, length)
	copy(out, s.staged[offset:offset+length])
	return out, nil
}

func (s *SQLiteStore) WriteBytes(offset int, data []byte) error {
	if s.conn == nil {
		return ErrNotInitialized
	}
	if offset < 0 || offset+len(data) > s.capacity {
		return ErrOutOfRange
	}

	copy(s.staged[offset:], data)
	return nil
}

func (s *SQLiteStore) Commit() error {
	if s.conn == nil {
		return ErrNotInitialized
	}

	query := `
		INSERT OR REPLACE INTO nvs_region (id, image, updated_at)
		VALUES (0, ?, CURRENT_TIMESTAMP)
	`
	if _, err := s.conn.Exec(query, s.staged); err != nil {
		return fmt.Errorf("sqlite store: failed to commit region image: %w", err)
	}
	return nil
}

// Erase drops the stored image and resets the staged region to the erase
// sentinel, so subsequent reads see never-written storage.
func (s *SQLiteStore) Erase() error {
	if s.conn == nil {
		return ErrNotInitialized
	}

	if _, err := s.conn.Exec("DELETE FROM nvs_region WHERE id = 0"); err != nil {
		return fmt.Errorf("sqlite store: failed to erase region: %w", err)
	}
	for i := range s.staged {
		s.staged[i] = EraseSentinel
	}
	return nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	if s.conn == nil {
		return nil
	}

	err := s.conn.Close()
	s.conn = nil
	s.staged = nil
	s.capacity = 0
	return err
}
