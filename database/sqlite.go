package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/xid"

	"chatty/models"
)

// SQLiteStore is the embedded backend
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database file at path
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single writer avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	tables := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		is_avatar_image_set BOOLEAN NOT NULL DEFAULT 0,
		avatar_image TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		sender TEXT NOT NULL,
		recipient TEXT NOT NULL,
		pair_key TEXT NOT NULL,
		text TEXT NOT NULL,
		quote TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages(pair_key, updated_at);
	`

	_, err := s.db.ExecContext(ctx, tables)
	return err
}

// User queries

const userColumns = "id, username, email, password, is_avatar_image_set, avatar_image, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Password,
		&user.IsAvatarImageSet, &user.AvatarImage, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser inserts a new user into the database
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	id := xid.New().String()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		id, user.Username, user.Email, user.Password, user.IsAvatarImageSet, user.AvatarImage, now, now,
	)
	if err != nil {
		return uniqueViolation(err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// uniqueViolation maps a UNIQUE constraint failure to the field that caused it
func uniqueViolation(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		switch {
		case strings.Contains(sqliteErr.Error(), "users.username"):
			return ErrDuplicateUsername
		case strings.Contains(sqliteErr.Error(), "users.email"):
			return ErrDuplicateEmail
		}
	}
	return err
}

// GetUserByID retrieves a user by their ID
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
}

// GetUserByUsername retrieves a user by their username
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", username))
}

// GetUserByEmail retrieves a user by their email
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email))
}

// ListUsers returns users other than excludeID, optionally filtered by a
// username prefix. instr is used instead of LIKE because LIKE ignores case.
func (s *SQLiteStore) ListUsers(ctx context.Context, excludeID, prefix string) ([]*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id != ?"
	args := []any{excludeID}
	if prefix != "" {
		query += " AND instr(username, ?) = 1"
		args = append(args, prefix)
	}
	query += " ORDER BY created_at, rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// SetAvatar stores the avatar image and marks it as set
func (s *SQLiteStore) SetAvatar(ctx context.Context, id, image string) (*models.User, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE users SET is_avatar_image_set = 1, avatar_image = ?, updated_at = ? WHERE id = ?",
		image, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, err
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetUserByID(ctx, id)
}

// Message queries

const messageColumns = "id, sender, recipient, text, quote, created_at, updated_at"

func scanMessage(row interface{ Scan(...any) error }) (*models.Message, error) {
	msg := &models.Message{}
	err := row.Scan(&msg.ID, &msg.Sender, &msg.Users[1], &msg.Text, &msg.Quote, &msg.CreatedAt, &msg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	msg.Users[0] = msg.Sender
	return msg, nil
}

// CreateMessage inserts a message and fills in its ID and timestamps
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	now := time.Now().UTC()
	id := xid.New().String()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (id, sender, recipient, pair_key, text, quote, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		id, msg.Sender, msg.Users[1], PairKey(msg.Users[0], msg.Users[1]), msg.Text, msg.Quote, now, now,
	)
	if err != nil {
		return err
	}

	msg.ID = id
	msg.CreatedAt = now
	msg.UpdatedAt = now
	return nil
}

// GetMessageByID retrieves a message by its ID
func (s *SQLiteStore) GetMessageByID(ctx context.Context, id string) (*models.Message, error) {
	return scanMessage(s.db.QueryRowContext(ctx, "SELECT "+messageColumns+" FROM messages WHERE id = ?", id))
}

// GetConversation retrieves messages between two users in chronological order
func (s *SQLiteStore) GetConversation(ctx context.Context, a, b string) ([]*models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+messageColumns+" FROM messages WHERE pair_key = ? ORDER BY updated_at, rowid",
		PairKey(a, b),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
