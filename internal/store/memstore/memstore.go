// Package memstore keeps users and playlists in process memory.
//
// It follows the document adapter's semantics (no owner pre-check, songs stored
// with their playlist). It backs the service and HTTP tests; the provider
// selector never returns it.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"playlister/internal/store"
)

// Manager is an in-memory store.DatabaseManager.
type Manager struct {
	mu             sync.RWMutex
	ready          bool
	users          map[int64]*store.User
	emails         map[string]int64
	playlists      map[int64]*store.Playlist
	nextUserID     int64
	nextPlaylistID int64
}

var _ store.DatabaseManager = (*Manager)(nil)

// New returns an empty manager. Init must still be called before use.
func New() *Manager {
	return &Manager{}
}

// Init resets the manager to an empty, ready state.
func (m *Manager) Init(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = make(map[int64]*store.User)
	m.emails = make(map[string]int64)
	m.playlists = make(map[int64]*store.Playlist)
	m.nextUserID = 1
	m.nextPlaylistID = 1
	m.ready = true
	return nil
}

// Close drops all state.
func (m *Manager) Close(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ready = false
	m.users = nil
	m.emails = nil
	m.playlists = nil
	return nil
}

// GetUserByID returns the user or nil.
func (m *Manager) GetUserByID(_ context.Context, id string) (*store.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.ready {
		return nil, store.ErrNotInitialized
	}
	key, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	user, ok := m.users[key]
	if !ok {
		return nil, nil
	}
	clone := *user
	return &clone, nil
}

// GetUserByEmail returns the user or nil.
func (m *Manager) GetUserByEmail(_ context.Context, email string) (*store.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.ready {
		return nil, store.ErrNotInitialized
	}
	key, ok := m.emails[email]
	if !ok {
		return nil, nil
	}
	clone := *m.users[key]
	return &clone, nil
}

// CreateUser registers a user, rejecting duplicate emails.
func (m *Manager) CreateUser(_ context.Context, user store.NewUser) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return nil, store.ErrNotInitialized
	}
	if _, exists := m.emails[user.Email]; exists {
		return nil, fmt.Errorf("create user %q: %w", user.Email, store.ErrUserExists)
	}

	id := m.nextUserID
	m.nextUserID++

	created := &store.User{
		ID:           formatID(id),
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
	}
	m.users[id] = created
	m.emails[user.Email] = id

	clone := *created
	return &clone, nil
}

// CreatePlaylist stores a playlist with its songs.
func (m *Manager) CreatePlaylist(_ context.Context, playlist store.PlaylistInput) (*store.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return nil, store.ErrNotInitialized
	}

	id := m.nextPlaylistID
	m.nextPlaylistID++

	created := &store.Playlist{
		ID:         formatID(id),
		Name:       playlist.Name,
		OwnerEmail: playlist.OwnerEmail,
		Songs:      store.CloneSongs(playlist.Songs),
	}
	m.playlists[id] = created
	return clonePlaylist(created), nil
}

// GetPlaylistByID returns the playlist or nil.
func (m *Manager) GetPlaylistByID(_ context.Context, id string) (*store.Playlist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.ready {
		return nil, store.ErrNotInitialized
	}
	key, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	return clonePlaylist(m.playlists[key]), nil
}

// GetPlaylistPairs lists every playlist ordered by id.
func (m *Manager) GetPlaylistPairs(_ context.Context) ([]store.PlaylistPair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.ready {
		return nil, store.ErrNotInitialized
	}

	keys := make([]int64, 0, len(m.playlists))
	for k := range m.playlists {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	pairs := make([]store.PlaylistPair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, m.playlists[k].Pair())
	}
	return pairs, nil
}

// UpdatePlaylistByID replaces the playlist, returning nil when it does not exist.
func (m *Manager) UpdatePlaylistByID(_ context.Context, id string, playlist store.PlaylistInput) (*store.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return nil, store.ErrNotInitialized
	}
	key, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	existing, ok := m.playlists[key]
	if !ok {
		return nil, nil
	}

	existing.Name = playlist.Name
	existing.OwnerEmail = playlist.OwnerEmail
	existing.Songs = store.CloneSongs(playlist.Songs)
	return clonePlaylist(existing), nil
}

// DeletePlaylistByID removes the playlist and reports whether it existed.
func (m *Manager) DeletePlaylistByID(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return false, store.ErrNotInitialized
	}
	key, ok := parseID(id)
	if !ok {
		return false, nil
	}
	if _, ok := m.playlists[key]; !ok {
		return false, nil
	}
	delete(m.playlists, key)
	return true, nil
}

func clonePlaylist(src *store.Playlist) *store.Playlist {
	if src == nil {
		return nil
	}
	clone := *src
	clone.Songs = store.CloneSongs(src.Songs)
	return &clone
}

func parseID(id string) (int64, bool) {
	v, err := strconv.ParseInt(id, 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
