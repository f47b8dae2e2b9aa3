package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"playlister/internal/store"
)

// schemaStatements create the tables when missing. They never drop or alter
// existing objects.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		first_name    TEXT NOT NULL,
		last_name     TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS playlists (
		id            BIGSERIAL PRIMARY KEY,
		name          TEXT NOT NULL,
		owner_email   TEXT NOT NULL,
		owner_user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS songs (
		id          BIGSERIAL PRIMARY KEY,
		playlist_id BIGINT NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
		position    INTEGER NOT NULL DEFAULT 0,
		title       TEXT NOT NULL,
		artist      TEXT NOT NULL,
		year        INTEGER,
		youtube_id  TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS playlists_owner_email_idx ON playlists (owner_email)`,
	`CREATE INDEX IF NOT EXISTS songs_playlist_position_idx ON songs (playlist_id, position)`,
}

const (
	selectUserByIDQuery = `
		SELECT id, first_name, last_name, email, password_hash
		FROM users
		WHERE id = $1`

	selectUserByEmailQuery = `
		SELECT id, first_name, last_name, email, password_hash
		FROM users
		WHERE email = $1`

	insertUserQuery = `
		INSERT INTO users (first_name, last_name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id`

	selectOwnerIDQuery = `SELECT id FROM users WHERE email = $1`

	insertPlaylistQuery = `
		INSERT INTO playlists (name, owner_email, owner_user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id`

	// owner_user_id follows owner_email when the new email belongs to a user.
	updatePlaylistQuery = `
		UPDATE playlists
		SET name = $1,
			owner_email = $2,
			owner_user_id = COALESCE((SELECT id FROM users WHERE email = $2), owner_user_id),
			updated_at = $3
		WHERE id = $4`

	selectPlaylistWithSongsQuery = `
		SELECT p.id, p.name, p.owner_email, s.title, s.artist, s.year, s.youtube_id
		FROM playlists p
		LEFT JOIN songs s ON s.playlist_id = p.id
		WHERE p.id = $1
		ORDER BY s.position ASC, s.id ASC`

	selectPlaylistPairsQuery = `
		SELECT id, name, owner_email
		FROM playlists
		ORDER BY id ASC`

	deleteSongsQuery = `DELETE FROM songs WHERE playlist_id = $1`

	insertSongQuery = `
		INSERT INTO songs (playlist_id, position, title, artist, year, youtube_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`

	deletePlaylistQuery = `DELETE FROM playlists WHERE id = $1`
)

func ensureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	tx = nil
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*store.User, error) {
	var (
		id   int64
		user store.User
	)
	if err := row.Scan(&id, &user.FirstName, &user.LastName, &user.Email, &user.PasswordHash); err != nil {
		return nil, err
	}
	user.ID = formatID(id)
	return &user, nil
}

// songRow holds the nullable song columns of the playlist join. Title is NULL
// when the playlist has no songs.
type songRow struct {
	title     sql.NullString
	artist    sql.NullString
	year      sql.NullInt64
	youTubeID sql.NullString
}

func (r songRow) song() (store.Song, bool) {
	if !r.title.Valid {
		return store.Song{}, false
	}
	song := store.Song{Title: r.title.String, Artist: r.artist.String}
	if r.year.Valid {
		year := int(r.year.Int64)
		song.Year = &year
	}
	if r.youTubeID.Valid {
		id := r.youTubeID.String
		song.YouTubeID = &id
	}
	return song, true
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// parseID accepts positive decimal ids only.
func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
