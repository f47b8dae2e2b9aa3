// Package store defines the data-access contract shared by every backing store.
//
// Adapters live in sub-packages (mongostore, pgstore, memstore) and map their
// store-native documents or rows to the types declared here before returning.
// Reads that find nothing return a nil value and a nil error; errors are reserved
// for store failures and constraint violations.
package store

import (
	"context"
	"errors"
)

var (
	// ErrUserExists signals the email is already registered.
	ErrUserExists = errors.New("user already exists")
	// ErrOwnerNotFound indicates a playlist references an email with no user row.
	ErrOwnerNotFound = errors.New("owner not found")
	// ErrNotInitialized is returned when an operation runs before Init or after Close.
	ErrNotInitialized = errors.New("database manager not initialized")
)

// Provider names a backing store implementation.
type Provider string

const (
	ProviderMongo    Provider = "mongodb"
	ProviderPostgres Provider = "postgresql"
)

// DatabaseManager is the contract controllers use to reach persistence.
type DatabaseManager interface {
	// Init connects to the store. It must be called once before any other method.
	Init(ctx context.Context) error
	// Close releases the connection.
	Close(ctx context.Context) error

	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, user NewUser) (*User, error)

	CreatePlaylist(ctx context.Context, playlist PlaylistInput) (*Playlist, error)
	GetPlaylistByID(ctx context.Context, id string) (*Playlist, error)
	// GetPlaylistPairs lists every playlist without songs. Callers filter by owner.
	GetPlaylistPairs(ctx context.Context) ([]PlaylistPair, error)
	// UpdatePlaylistByID replaces name, owner email and the full song list.
	UpdatePlaylistByID(ctx context.Context, id string, playlist PlaylistInput) (*Playlist, error)
	DeletePlaylistByID(ctx context.Context, id string) (bool, error)
}
