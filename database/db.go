// Package database holds the durable accounts and messages collections.
// Two backends implement the same Store: MongoDB, the production document
// store, and SQLite for single-node deployments and tests.
package database

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"chatty/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrDuplicateEmail    = errors.New("duplicate email")
)

// UserStore is the accounts collection
type UserStore interface {
	// CreateUser inserts user and fills in ID and timestamps. Unique
	// username and email are enforced by the store itself.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// ListUsers returns every user except excludeID whose username starts
	// with prefix (case-sensitive). An empty prefix matches everyone.
	ListUsers(ctx context.Context, excludeID, prefix string) ([]*models.User, error)
	SetAvatar(ctx context.Context, id, image string) (*models.User, error)
}

// MessageStore is the messages collection
type MessageStore interface {
	CreateMessage(ctx context.Context, msg *models.Message) error
	GetMessageByID(ctx context.Context, id string) (*models.Message, error)
	// GetConversation returns the messages exchanged between a and b in
	// either direction, oldest update first.
	GetConversation(ctx context.Context, a, b string) ([]*models.Message, error)
}

type Store interface {
	UserStore
	MessageStore
	Close(ctx context.Context) error
}

// Backends accepted by Open
const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Options selects and configures a backend
type Options struct {
	Driver     string
	MongoURL   string
	MongoDB    string
	SQLitePath string
}

// Open connects to the configured backend and prepares its schema/indexes
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverMongo:
		return NewMongoStore(ctx, opts.MongoURL, opts.MongoDB)
	case DriverSQLite:
		return NewSQLiteStore(ctx, opts.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

// PairKey is the order-independent conversation key for two participants
func PairKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair[0] + ":" + pair[1]
}
