// Package storetest holds a behavioural suite every store.DatabaseManager must pass.
package storetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playlister/internal/store"
)

// Factory returns an initialised manager. The suite closes nothing; the factory
// is expected to register its own cleanup with t.Cleanup.
type Factory func(t *testing.T) store.DatabaseManager

// Run executes the suite against the managers produced by newManager.
func Run(t *testing.T, newManager Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, db store.DatabaseManager)
	}{
		{"CreateUserThenReadByEmail", testCreateUserThenReadByEmail},
		{"CreateUserRejectsDuplicateEmail", testCreateUserDuplicate},
		{"GetUserByID", testGetUserByID},
		{"CreatePlaylistKeepsSongs", testCreatePlaylistKeepsSongs},
		{"UpdatePlaylistReplacesEverything", testUpdatePlaylist},
		{"UpdateMissingPlaylistReturnsNil", testUpdateMissing},
		{"DeletePlaylist", testDeletePlaylist},
		{"PlaylistPairs", testPlaylistPairs},
		{"UnknownIdentifiers", testUnknownIdentifiers},
		{"JoeShmoScenario", testJoeShmoScenario},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newManager(t))
		})
	}
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s.%s@example.com", prefix, uuid.NewString())
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func mustCreateUser(t *testing.T, db store.DatabaseManager, prefix string) *store.User {
	t.Helper()
	user, err := db.CreateUser(context.Background(), store.NewUser{
		FirstName:    "Create",
		LastName:     "User",
		Email:        uniqueEmail(prefix),
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
	})
	require.NoError(t, err)
	require.NotNil(t, user)
	return user
}

func testCreateUserThenReadByEmail(t *testing.T, db store.DatabaseManager) {
	ctx := context.Background()
	input := store.NewUser{
		FirstName:    "Create",
		LastName:     "User",
		Email:        uniqueEmail("create.user"),
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
	}

	created, err := db.CreateUser(ctx, input)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, input.Email, created.Email)

	got, err := db.GetUserByEmail(ctx, input.Email)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, input.FirstName, got.FirstName)
	assert.Equal(t, input.LastName, got.LastName)
	assert.Equal(t, input.Email, got.Email)
	assert.Equal(t, input.PasswordHash, got.PasswordHash)
	assert.Equal(t, created.ID, got.ID)
}

func testCreateUserDuplicate(t *testing.T, db store.DatabaseManager) {
	ctx := context.Background()
	user := mustCreateUser(t, db, "dup")

	_, err := db.CreateUser(ctx, store.NewUser{
		FirstName:    "Other",
		LastName:     "Person",
		Email:        user.Email,
		PasswordHash: "hash",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrUserExists)
}

func testGetUserByID(t *testing.T, db store.DatabaseManager) {
	ctx := context.Background()
	user := mustCreateUser(t, db, "by.id")

	got, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.Email, got.Email)

	missing, err := db.GetUserByEmail(ctx, uniqueEmail("nobody"))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testCreatePlaylistKeepsSongs(t *testing.T, db store.DatabaseManager) {
	ctx := context.Background()
	owner := mustCreateUser(t, db, "owner")

	songs := []store.Song{
		{Title: "With Everything", Artist: "A", Year: intPtr(1999), YouTubeID: strPtr("ONE1")},
		{Title: "Bare", Artist: "B"},
		{Title: "Year Only", Artist: "C", Year: intPtr(2010)},
	}
	created, err := db.CreatePlaylist(ctx, store.PlaylistInput{
		Name:       "To Read Back",
		OwnerEmail: owner.Email,
		Songs:      songs,
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "To Read Back", created.Name)
	assert.Equal(t, owner.Email, created.OwnerEmail)
	assert.Equal(t, songs, created.Songs)

	fetched, err := db.GetPlaylistByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	require.Len(t, fetched.Songs, len(songs))
	assert.Equal(t, songs, fetched.Songs)
	assert.Nil(t, fetched.Songs[1].Year)
	assert.Nil(t, fetched.Songs[1].YouTubeID)
	assert.Nil(t, fetched.Songs[2].YouTubeID)
}

func testUpdatePlaylist(t *testing.T, db store.DatabaseManager) {
	ctx := context.Background()
	owner := mustCreateUser(t, db, "update")

	created, err := db.CreatePlaylist(ctx, store.PlaylistInput{
		Name:       "Before Update",
		OwnerEmail: owner.Email,
		Songs:      []store.Song{{Title: "Old", Artist: "X", Year: intPtr(1990), YouTubeID: strPtr("OLD")}},
	})
	require.NoError(t, err)

	next := store.PlaylistInput{
		Name:       "After Update",
		OwnerEmail: owner.Email,
		Songs: []store.Song{
			{Title: "New 1", Artist: "Y", Year: intPtr(2020), YouTubeID: strPtr("NEW1")},
			{Title: "New 2", Artist: "Z", Year: intPtr(2021), YouTubeID: strPtr("NEW2")},
		},
	}

	for i := 0; i < 2; i++ {
		updated, err := db.UpdatePlaylistByID(ctx, created.ID, next)
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "After Update", updated.Name)
		assert.Equal(t, next.Songs, updated.Songs)

		fetched, err := db.GetPlaylistByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.Equal(t, next.Name, fetched.Name)
		assert.Equal(t, next.Songs, fetched.Songs)
	}

	emptied, err := db.UpdatePlaylistByID(ctx, created.ID, store.PlaylistInput{Name: "Empty", OwnerEmail: owner.Email})
	require.NoError(t, err)
	require.NotNil(t, emptied)
	assert.Empty(t, emptied.Songs)
}

func testUpdateMissing(t *testing.T, db store.DatabaseManager) {
	ctx := context.Background()
	owner := mustCreateUser(t, db, "missing")

	created, err := db.CreatePlaylist(ctx, store.PlaylistInput{Name: "Gone", OwnerEmail: owner.Email})
	require.NoError(t, err)
	ok, err := db.DeletePlaylistByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, ok)

	updated, err := db.UpdatePlaylistByID(ctx, created.ID, store.PlaylistInput{Name: "Ghost", OwnerEmail: owner.Email})
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func testDeletePlaylist(t *testing.T, db store.DatabaseManager) {
	ctx := context.Background()
	owner := mustCreateUser(t, db, "delete")

	created, err := db.CreatePlaylist(ctx, store.PlaylistInput{
		Name:       "To Delete",
		OwnerEmail: owner.Email,
		Songs:      []store.Song{{Title: "Bye", Artist: "Q"}},
	})
	require.NoError(t, err)

	ok, err := db.DeletePlaylistByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	fetched, err := db.GetPlaylistByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched)

	again, err := db.DeletePlaylistByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, again)
}

func testPlaylistPairs(t *testing.T, db store.DatabaseManager) {
	ctx := context.Background()
	owner := mustCreateUser(t, db, "pairs")

	before, err := db.GetPlaylistPairs(ctx)
	require.NoError(t, err)
	require.NotNil(t, before)

	names := []string{"Pair One", "Pair Two", "Pair Three"}
	ids := make(map[string]string, len(names))
	for _, name := range names {
		created, err := db.CreatePlaylist(ctx, store.PlaylistInput{
			Name:       name,
			OwnerEmail: owner.Email,
			Songs:      []store.Song{{Title: "S", Artist: "A"}},
		})
		require.NoError(t, err)
		ids[created.ID] = name
	}

	after, err := db.GetPlaylistPairs(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before)+len(names))

	found := 0
	for _, pair := range after {
		name, ok := ids[pair.ID]
		if !ok {
			continue
		}
		found++
		assert.Equal(t, name, pair.Name)
		assert.Equal(t, owner.Email, pair.OwnerEmail)
	}
	assert.Equal(t, len(names), found)
}

func testUnknownIdentifiers(t *testing.T, db store.DatabaseManager) {
	ctx := context.Background()

	for _, id := range []string{"not-an-id", "", "999999999"} {
		user, err := db.GetUserByID(ctx, id)
		require.NoError(t, err, id)
		assert.Nil(t, user, id)

		playlist, err := db.GetPlaylistByID(ctx, id)
		require.NoError(t, err, id)
		assert.Nil(t, playlist, id)

		deleted, err := db.DeletePlaylistByID(ctx, id)
		require.NoError(t, err, id)
		assert.False(t, deleted, id)
	}
}

func testJoeShmoScenario(t *testing.T, db store.DatabaseManager) {
	ctx := context.Background()
	const email = "joe@shmo.com"

	joe, err := db.GetUserByEmail(ctx, email)
	require.NoError(t, err)
	if joe == nil {
		joe, err = db.CreateUser(ctx, store.NewUser{
			FirstName:    "Joe",
			LastName:     "Shmo",
			Email:        email,
			PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		})
		require.NoError(t, err)
	}
	assert.Equal(t, "Joe", joe.FirstName)
	assert.Equal(t, "Shmo", joe.LastName)

	created, err := db.CreatePlaylist(ctx, store.PlaylistInput{
		Name:       "Vitest List",
		OwnerEmail: joe.Email,
		Songs: []store.Song{
			{Title: "Song A", Artist: "Artist A", Year: intPtr(2001), YouTubeID: strPtr("AAA111")},
			{Title: "Song B", Artist: "Artist B", Year: intPtr(2002), YouTubeID: strPtr("BBB222")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Vitest List", created.Name)
	assert.Len(t, created.Songs, 2)

	_, err = db.UpdatePlaylistByID(ctx, created.ID, store.PlaylistInput{
		Name:       created.Name,
		OwnerEmail: joe.Email,
		Songs:      []store.Song{{Title: "Song C", Artist: "Artist C", Year: intPtr(2003), YouTubeID: strPtr("CCC333")}},
	})
	require.NoError(t, err)

	fetched, err := db.GetPlaylistByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Len(t, fetched.Songs, 1)

	deleted, err := db.DeletePlaylistByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	gone, err := db.GetPlaylistByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
