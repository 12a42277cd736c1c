package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const commentsSchema = `
CREATE TABLE IF NOT EXISTS comments (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	text TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comments_created ON comments(created_at);
`

// Comment is one entry of the append-only feedback log.
type Comment struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Comments is the feedback log, stored in SQLite.
type Comments struct {
	db *sql.DB
}

// OpenComments opens the database at path (":memory:" for tests) and applies
// the schema.
func OpenComments(path string) (*Comments, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create comments dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open comments db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writes.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(commentsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply comments schema: %w", err)
	}
	return &Comments{db: db}, nil
}

// Add appends a comment and returns it with its ID and timestamp set.
func (c *Comments) Add(ctx context.Context, name, text string) (Comment, error) {
	cm := Comment{
		ID:        uuid.NewString(),
		Name:      name,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO comments (id, name, text, created_at) VALUES (?, ?, ?, ?)`,
		cm.ID, cm.Name, cm.Text, cm.CreatedAt.UnixNano())
	if err != nil {
		return Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	return cm, nil
}

// List returns up to limit comments, newest first.
func (c *Comments) List(ctx context.Context, limit int) ([]Comment, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, name, text, created_at FROM comments ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	out := []Comment{}
	for rows.Next() {
		var cm Comment
		var ts int64
		if err := rows.Scan(&cm.ID, &cm.Name, &cm.Text, &ts); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		cm.CreatedAt = time.Unix(0, ts).UTC()
		out = append(out, cm)
	}
	return out, rows.Err()
}

func (c *Comments) Close() error {
	return c.db.Close()
}
