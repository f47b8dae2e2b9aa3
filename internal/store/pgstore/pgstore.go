// Package pgstore implements store.DatabaseManager on PostgreSQL.
//
// Users, playlists and songs live in three tables. Playlists keep both a
// foreign key to their owner and the owner's email; songs reference their
// playlist and are removed with it.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"playlister/internal/config"
	"playlister/internal/store"
)

const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
)

// Manager is a PostgreSQL-backed store.DatabaseManager.
type Manager struct {
	driver string
	dsn    string
	logger zerolog.Logger

	mu     sync.RWMutex
	db     *sql.DB
	preset *sql.DB
}

var _ store.DatabaseManager = (*Manager)(nil)

// New returns a manager that opens its own pool on Init using the configured
// driver (pgx or postgres).
func New(cfg config.PostgresConfig, logger zerolog.Logger) *Manager {
	driver := cfg.Driver
	if driver == "" {
		driver = "pgx"
	}
	return &Manager{driver: driver, dsn: cfg.DSN(), logger: logger}
}

// NewWithDB returns a manager over an existing handle. Init still pings and
// ensures the schema; Close closes the handle.
func NewWithDB(db *sql.DB, logger zerolog.Logger) *Manager {
	return &Manager{preset: db, logger: logger}
}

// Init opens the pool, pings the server and creates any missing tables.
func (m *Manager) Init(ctx context.Context) error {
	db := m.preset
	if db == nil {
		var err error
		db, err = sql.Open(m.driver, m.dsn)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxIdleConns)
		db.SetConnMaxLifetime(connMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping database: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	m.mu.Lock()
	m.db = db
	m.mu.Unlock()

	m.logger.Info().Str("driver", m.driver).Msg("connected to postgresql, schema ready")
	return nil
}

// Close closes the pool.
func (m *Manager) Close(_ context.Context) error {
	m.mu.Lock()
	db := m.db
	m.db = nil
	m.mu.Unlock()

	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	m.logger.Info().Msg("postgresql connection closed")
	return nil
}

func (m *Manager) handle() (*sql.DB, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.db == nil {
		return nil, store.ErrNotInitialized
	}
	return m.db, nil
}

// GetUserByID returns the user or nil.
func (m *Manager) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	db, err := m.handle()
	if err != nil {
		return nil, err
	}
	key, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	return queryUser(ctx, db, selectUserByIDQuery, key)
}

// GetUserByEmail returns the user or nil.
func (m *Manager) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	db, err := m.handle()
	if err != nil {
		return nil, err
	}
	return queryUser(ctx, db, selectUserByEmailQuery, email)
}

func queryUser(ctx context.Context, db *sql.DB, query string, arg any) (*store.User, error) {
	user, err := scanUser(db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// CreateUser inserts a user. A taken email yields store.ErrUserExists.
func (m *Manager) CreateUser(ctx context.Context, in store.NewUser) (*store.User, error) {
	db, err := m.handle()
	if err != nil {
		return nil, err
	}

	var id int64
	err = db.QueryRowContext(ctx, insertUserQuery,
		in.FirstName, in.LastName, in.Email, in.PasswordHash, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create user %q: %w: %w", in.Email, store.ErrUserExists, err)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &store.User{
		ID:           formatID(id),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
	}, nil
}

// CreatePlaylist resolves the owner by email, inserts the playlist and its
// songs in one transaction, then reads the result back.
func (m *Manager) CreatePlaylist(ctx context.Context, in store.PlaylistInput) (*store.Playlist, error) {
	db, err := m.handle()
	if err != nil {
		return nil, err
	}

	var ownerID int64
	err = db.QueryRowContext(ctx, selectOwnerIDQuery, in.OwnerEmail).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("create playlist for %q: %w", in.OwnerEmail, store.ErrOwnerNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup owner: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	var id int64
	if err := tx.QueryRowContext(ctx, insertPlaylistQuery,
		in.Name, in.OwnerEmail, ownerID, time.Now().UTC(),
	).Scan(&id); err != nil {
		return nil, fmt.Errorf("insert playlist: %w", err)
	}

	if err := insertSongsTx(ctx, tx, id, in.Songs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit playlist create: %w", err)
	}
	tx = nil

	return reloadPlaylist(ctx, db, id)
}

// GetPlaylistByID returns the playlist with its songs, or nil.
func (m *Manager) GetPlaylistByID(ctx context.Context, id string) (*store.Playlist, error) {
	db, err := m.handle()
	if err != nil {
		return nil, err
	}
	key, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	return readPlaylist(ctx, db, key)
}

func readPlaylist(ctx context.Context, db *sql.DB, id int64) (*store.Playlist, error) {
	rows, err := db.QueryContext(ctx, selectPlaylistWithSongsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("get playlist: %w", err)
	}
	defer rows.Close()

	var playlist *store.Playlist
	for rows.Next() {
		var (
			playlistID int64
			name       string
			ownerEmail string
			row        songRow
		)
		if err := rows.Scan(&playlistID, &name, &ownerEmail, &row.title, &row.artist, &row.year, &row.youTubeID); err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		if playlist == nil {
			playlist = &store.Playlist{
				ID:         formatID(playlistID),
				Name:       name,
				OwnerEmail: ownerEmail,
				Songs:      []store.Song{},
			}
		}
		if song, ok := row.song(); ok {
			playlist.Songs = append(playlist.Songs, song)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlist: %w", err)
	}
	return playlist, nil
}

func reloadPlaylist(ctx context.Context, db *sql.DB, id int64) (*store.Playlist, error) {
	playlist, err := readPlaylist(ctx, db, id)
	if err != nil {
		return nil, fmt.Errorf("reload playlist: %w", err)
	}
	if playlist == nil {
		return nil, fmt.Errorf("reload playlist %d: removed concurrently", id)
	}
	return playlist, nil
}

// GetPlaylistPairs lists id, name and owner email of every playlist by
// ascending id.
func (m *Manager) GetPlaylistPairs(ctx context.Context) ([]store.PlaylistPair, error) {
	db, err := m.handle()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, selectPlaylistPairsQuery)
	if err != nil {
		return nil, fmt.Errorf("list playlist pairs: %w", err)
	}
	defer rows.Close()

	pairs := []store.PlaylistPair{}
	for rows.Next() {
		var (
			id   int64
			pair store.PlaylistPair
		)
		if err := rows.Scan(&id, &pair.Name, &pair.OwnerEmail); err != nil {
			return nil, fmt.Errorf("scan playlist pair: %w", err)
		}
		pair.ID = formatID(id)
		pairs = append(pairs, pair)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlist pairs: %w", err)
	}
	return pairs, nil
}

// UpdatePlaylistByID replaces name, owner email and the full song list in one
// transaction. It returns nil when the playlist does not exist.
func (m *Manager) UpdatePlaylistByID(ctx context.Context, id string, in store.PlaylistInput) (*store.Playlist, error) {
	db, err := m.handle()
	if err != nil {
		return nil, err
	}
	key, ok := parseID(id)
	if !ok {
		return nil, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, updatePlaylistQuery, in.Name, in.OwnerEmail, time.Now().UTC(), key)
	if err != nil {
		return nil, fmt.Errorf("update playlist: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	if _, err := tx.ExecContext(ctx, deleteSongsQuery, key); err != nil {
		return nil, fmt.Errorf("clear playlist songs: %w", err)
	}
	if err := insertSongsTx(ctx, tx, key, in.Songs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit playlist update: %w", err)
	}
	tx = nil

	// a delete that lands after the commit reads as a missing playlist
	playlist, err := readPlaylist(ctx, db, key)
	if err != nil {
		return nil, fmt.Errorf("reload playlist: %w", err)
	}
	return playlist, nil
}

// DeletePlaylistByID removes the playlist; its songs go with it.
func (m *Manager) DeletePlaylistByID(ctx context.Context, id string) (bool, error) {
	db, err := m.handle()
	if err != nil {
		return false, err
	}
	key, ok := parseID(id)
	if !ok {
		return false, nil
	}

	res, err := db.ExecContext(ctx, deletePlaylistQuery, key)
	if err != nil {
		return false, fmt.Errorf("delete playlist: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func insertSongsTx(ctx context.Context, tx *sql.Tx, playlistID int64, songs []store.Song) error {
	if len(songs) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, insertSongQuery)
	if err != nil {
		return fmt.Errorf("prepare insert song: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for idx, song := range songs {
		if _, err := stmt.ExecContext(ctx,
			playlistID,
			idx,
			song.Title,
			song.Artist,
			nullableInt(song.Year),
			nullableString(song.YouTubeID),
			now,
		); err != nil {
			return fmt.Errorf("insert song %d: %w", idx, err)
		}
	}
	return nil
}

// isUniqueViolation reports SQLSTATE 23505 from either driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
