package source

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/recomodel/internal/domain/interaction"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS products (
	id     TEXT PRIMARY KEY,
	status TEXT NOT NULL DEFAULT 'active'
);
CREATE TABLE IF NOT EXISTS interactions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    TEXT NOT NULL,
	product_id TEXT NOT NULL,
	action     TEXT NOT NULL,
	weight     REAL
);
CREATE INDEX IF NOT EXISTS interactions_user ON interactions(user_id);
`

// SQLite reads interactions from a local database file with users, products
// and interactions tables.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: sqlite path is required", interaction.ErrUnavailable)
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite db: %w", interaction.ErrUnavailable, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping sqlite db: %w", interaction.ErrUnavailable, err)
	}
	return &SQLite{db: db}, nil
}

// EnsureSchema creates the tables when they do not exist.
func (s *SQLite) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Count returns the number of users or active products.
func (s *SQLite) Count(ctx context.Context, kind interaction.Kind) (int, error) {
	query := `SELECT COUNT(*) FROM users`
	if kind == interaction.Items {
		query = `SELECT COUNT(*) FROM products WHERE status = 'active'`
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count %s: %w", interaction.ErrUnavailable, kind, err)
	}
	return n, nil
}

// Fetch reads every interaction row. A NULL weight takes the action default.
func (s *SQLite) Fetch(ctx context.Context) ([]interaction.Raw, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, product_id, action, weight FROM interactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: query interactions: %w", interaction.ErrUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	var out []interaction.Raw
	for rows.Next() {
		var (
			actor, item, action string
			weight              sql.NullFloat64
		)
		if err := rows.Scan(&actor, &item, &action, &weight); err != nil {
			return nil, fmt.Errorf("%w: scan interaction: %w", interaction.ErrUnavailable, err)
		}
		a := interaction.ParseAction(action)
		w := a.DefaultWeight()
		if weight.Valid {
			w = weight.Float64
		}
		out = append(out, interaction.Raw{ActorID: actor, ItemID: item, Action: a, Weight: w})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read interactions: %w", interaction.ErrUnavailable, err)
	}
	return out, nil
}

// AddUser inserts a user if absent.
func (s *SQLite) AddUser(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO users (id) VALUES (?)`, id); err != nil {
		return fmt.Errorf("insert user %s: %w", id, err)
	}
	return nil
}

// AddProduct inserts or updates a product.
func (s *SQLite) AddProduct(ctx context.Context, id, status string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (id, status) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET status = excluded.status`,
		id, status)
	if err != nil {
		return fmt.Errorf("insert product %s: %w", id, err)
	}
	return nil
}

// AddInteraction appends one interaction. A zero weight is stored as NULL so
// the action default applies on read.
func (s *SQLite) AddInteraction(ctx context.Context, r interaction.Raw) error {
	var weight sql.NullFloat64
	if r.Weight != 0 {
		weight = sql.NullFloat64{Float64: r.Weight, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (user_id, product_id, action, weight) VALUES (?, ?, ?, ?)`,
		r.ActorID, r.ItemID, r.Action.String(), weight)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

// Close releases the underlying SQLite connection.
func (s *SQLite) Close(context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
