package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopbot-labs/shopbot/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
//
// Interaction IDs come from AUTOINCREMENT columns, so identifier
// reservation is atomic even under concurrent requests.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS interactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		username TEXT NOT NULL,
		interaction TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_interactions_code ON interactions(code);

	CREATE TABLE IF NOT EXISTS product_interactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		username TEXT NOT NULL,
		product_name TEXT NOT NULL,
		price TEXT NOT NULL,
		description TEXT NOT NULL,
		stock_availability TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_product_interactions_code ON product_interactions(code);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateUser persists a registered user.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
	INSERT INTO users (username, password_hash, created_at)
	VALUES (?, ?, ?)
	ON CONFLICT(username) DO UPDATE SET
		password_hash = excluded.password_hash`

	_, err := s.db.ExecContext(ctx, query,
		user.Username, user.PasswordHash, user.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by username.
func (s *SQLiteStore) GetUser(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT username, password_hash, created_at FROM users WHERE username = ?`

	row := s.db.QueryRowContext(ctx, query, username)

	var user domain.User
	var createdAt int64
	err := row.Scan(&user.Username, &user.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.CreatedAt = time.Unix(createdAt, 0)
	return &user, nil
}

// SaveInteraction persists one chat turn.
func (s *SQLiteStore) SaveInteraction(ctx context.Context, in *domain.Interaction) (int64, error) {
	query := `
	INSERT INTO interactions (code, created_at, username, interaction)
	VALUES (?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		in.Code, in.Timestamp.Unix(), in.Username, in.Text,
	)
	if err != nil {
		return 0, fmt.Errorf("save interaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("interaction insert id: %w", err)
	}
	return id, nil
}

// SaveProductInteraction persists the product record of a resolved turn.
func (s *SQLiteStore) SaveProductInteraction(ctx context.Context, in *domain.ProductInteraction) (int64, error) {
	query := `
	INSERT INTO product_interactions (code, created_at, username, product_name, price, description, stock_availability)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		in.Code, in.Timestamp.Unix(), in.Username,
		in.ProductName, in.Price, in.Description, in.StockAvailability,
	)
	if err != nil {
		return 0, fmt.Errorf("save product interaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("product interaction insert id: %w", err)
	}
	return id, nil
}

// ListInteractions returns the most recent interactions, newest first.
func (s *SQLiteStore) ListInteractions(ctx context.Context, limit int) ([]*domain.Interaction, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
	SELECT id, code, created_at, username, interaction
	FROM interactions ORDER BY id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close interaction rows", "error", closeErr)
		}
	}()

	var out []*domain.Interaction
	for rows.Next() {
		var in domain.Interaction
		var createdAt int64
		if err := rows.Scan(&in.ID, &in.Code, &createdAt, &in.Username, &in.Text); err != nil {
			return nil, fmt.Errorf("scan interaction row: %w", err)
		}
		in.Timestamp = time.Unix(createdAt, 0)
		out = append(out, &in)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return out, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
