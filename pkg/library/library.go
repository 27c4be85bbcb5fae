// Package library keeps saved programs in an SQLite database.
package library

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite"

	"github.com/antibyte/gwbasic/pkg/logger"
	"github.com/antibyte/gwbasic/pkg/program"
)

var (
	ErrProgramNotFound  = errors.New("library: program not found")
	ErrChecksumMismatch = errors.New("library: checksum mismatch")
)

// Entry describes a stored program.
type Entry struct {
	ID       string
	Name     string
	Format   program.Mode
	Lines    int
	Size     int
	Checksum string
	SavedAt  time.Time
}

// Library is a program catalog backed by SQLite. It is safe for concurrent
// use.
type Library struct {
	conn *sql.DB
}

func libraryDebugLog(format string, args ...interface{}) {
	logger.Debug(logger.AreaLibrary, format, args...)
}

// Open opens or creates the database at path and makes sure its tables
// exist.
func Open(path string) (*Library, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Ensure the database is accessible
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := CreateTables(db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info(logger.AreaLibrary, "[LIBRARY] opened %s", path)
	return &Library{conn: db}, nil
}

// CreateTables ensures all required tables exist in the database.
func CreateTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS programs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			format INTEGER NOT NULL,
			line_count INTEGER NOT NULL,
			content BLOB NOT NULL,
			checksum TEXT NOT NULL,
			saved_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_programs_saved ON programs(saved_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// Close closes the database.
func (l *Library) Close() error {
	return l.conn.Close()
}

func checksum(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Save stores the program under name in the given format. Saving over an
// existing name keeps its id.
func (l *Library) Save(ctx context.Context, name string, store *program.Store, mode program.Mode) (*Entry, error) {
	var buf bytes.Buffer
	if err := store.SaveTo(&buf, mode); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:       uuid.New().String(),
		Name:     name,
		Format:   mode,
		Lines:    len(store.LineNumbers()),
		Size:     buf.Len(),
		Checksum: checksum(buf.Bytes()),
		SavedAt:  time.Now(),
	}

	err := l.conn.QueryRowContext(ctx, `
		INSERT INTO programs (id, name, format, line_count, content, checksum, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			format = excluded.format,
			line_count = excluded.line_count,
			content = excluded.content,
			checksum = excluded.checksum,
			saved_at = excluded.saved_at
		RETURNING id`,
		entry.ID, entry.Name, int(entry.Format), entry.Lines, buf.Bytes(), entry.Checksum, entry.SavedAt.Unix(),
	).Scan(&entry.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to save program %q: %w", name, err)
	}

	libraryDebugLog("[LIBRARY] saved %q (%s, %d lines, %d bytes)", name, mode, entry.Lines, entry.Size)
	return entry, nil
}

// Load reads the program stored under name into store.
func (l *Library) Load(ctx context.Context, name string, store *program.Store) (*Entry, error) {
	entry, content, err := l.get(ctx, name)
	if err != nil {
		return nil, err
	}
	if checksum(content) != entry.Checksum {
		logger.Error(logger.AreaLibrary, "[LIBRARY] checksum mismatch for %q", name)
		return nil, ErrChecksumMismatch
	}
	if err := store.Load(bytes.NewReader(content)); err != nil {
		return nil, err
	}
	libraryDebugLog("[LIBRARY] loaded %q", name)
	return entry, nil
}

// Get returns the entry for name without its content.
func (l *Library) Get(ctx context.Context, name string) (*Entry, error) {
	entry, _, err := l.get(ctx, name)
	return entry, err
}

func (l *Library) get(ctx context.Context, name string) (*Entry, []byte, error) {
	var (
		entry   Entry
		format  int
		savedAt int64
		content []byte
	)
	err := l.conn.QueryRowContext(ctx, `
		SELECT id, name, format, line_count, content, checksum, saved_at
		FROM programs WHERE name = ?`, name,
	).Scan(&entry.ID, &entry.Name, &format, &entry.Lines, &content, &entry.Checksum, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrProgramNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read program %q: %w", name, err)
	}
	entry.Format = program.Mode(format)
	entry.Size = len(content)
	entry.SavedAt = time.Unix(savedAt, 0)
	return &entry, content, nil
}

// List returns all entries ordered by name.
func (l *Library) List(ctx context.Context) ([]Entry, error) {
	rows, err := l.conn.QueryContext(ctx, `
		SELECT id, name, format, line_count, length(content), checksum, saved_at
		FROM programs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			format  int
			savedAt int64
		)
		if err := rows.Scan(&e.ID, &e.Name, &format, &e.Lines, &e.Size, &e.Checksum, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan program: %w", err)
		}
		e.Format = program.Mode(format)
		e.SavedAt = time.Unix(savedAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes the program stored under name.
func (l *Library) Delete(ctx context.Context, name string) error {
	res, err := l.conn.ExecContext(ctx, `DELETE FROM programs WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete program %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProgramNotFound
	}
	return nil
}
