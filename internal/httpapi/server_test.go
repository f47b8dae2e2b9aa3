package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playlister/internal/app/playlists"
	"playlister/internal/app/users"
	"playlister/internal/auth"
	"playlister/internal/logging"
	"playlister/internal/normalize"
	"playlister/internal/store/memstore"
)

const testSecret = "test-secret-0123456789"

type harness struct {
	handler http.Handler
	tokens  *auth.TokenManager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	db := memstore.New()
	require.NoError(t, db.Init(ctx))
	t.Cleanup(func() { _ = db.Close(ctx) })

	tokens := auth.NewTokenManager(testSecret, time.Hour)
	srv := New(users.New(db), playlists.New(db), tokens, logging.Nop(), []string{"http://localhost:3000"})
	return &harness{handler: srv.Routes(), tokens: tokens}
}

func (h *harness) do(t *testing.T, method, path string, body any, session *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if session != nil {
		req.AddCookie(session)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

// register signs up a user and returns its session cookie.
func (h *harness) register(t *testing.T, email string) *http.Cookie {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/auth/register", map[string]string{
		"firstName":      "Joe",
		"lastName":       "Shmo",
		"email":          email,
		"password":       "aaaaaaaa",
		"passwordVerify": "aaaaaaaa",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return sessionCookie(t, rec)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", auth.CookieName)
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRegisterLoginLogout(t *testing.T) {
	h := newHarness(t)
	session := h.register(t, "joe@shmo.com")

	rec := h.do(t, http.MethodGet, "/auth/loggedIn", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"loggedIn":true,"user":{"firstName":"Joe","lastName":"Shmo","email":"joe@shmo.com"}}`, rec.Body.String())

	rec = h.do(t, http.MethodPost, "/auth/register", map[string]string{
		"firstName": "Joe", "lastName": "Shmo", "email": "joe@shmo.com",
		"password": "aaaaaaaa", "passwordVerify": "aaaaaaaa",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(t, http.MethodPost, "/auth/login", loginRequest{Email: "joe@shmo.com", Password: "wrong-password"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodPost, "/auth/login", loginRequest{Email: "joe@shmo.com", Password: "aaaaaaaa"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body userResponse
	decode(t, rec, &body)
	assert.True(t, body.Success)
	assert.Equal(t, "joe@shmo.com", body.User.Email)
	assert.NotEmpty(t, sessionCookie(t, rec).Value)

	rec = h.do(t, http.MethodGet, "/auth/logout", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, -1, sessionCookie(t, rec).MaxAge)
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/auth/register", map[string]string{
		"firstName": "Joe", "lastName": "Shmo", "email": "joe@shmo.com",
		"password": "short", "passwordVerify": "short",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString("{"))
	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoggedInWithoutSession(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/auth/loggedIn", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body loggedInResponse
	decode(t, rec, &body)
	assert.False(t, body.LoggedIn)
	assert.Nil(t, body.User)

	// a valid token for a user that no longer exists
	token, expires, err := h.tokens.Issue("424242")
	require.NoError(t, err)
	rec = h.do(t, http.MethodGet, "/auth/loggedIn", nil, h.tokens.Cookie(token, expires))
	decode(t, rec, &body)
	assert.False(t, body.LoggedIn)
}

func TestStoreRequiresSession(t *testing.T) {
	h := newHarness(t)

	for _, path := range []string{"/store/playlists", "/store/playlistpairs", "/store/playlist/1"} {
		rec := h.do(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.JSONEq(t, `{"success":false,"errorMessage":"UNAUTHORIZED"}`, rec.Body.String())
	}

	forged := &http.Cookie{Name: auth.CookieName, Value: "not-a-token"}
	rec := h.do(t, http.MethodGet, "/store/playlists", nil, forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPlaylistLifecycle(t *testing.T) {
	h := newHarness(t)
	joe := h.register(t, "joe@shmo.com")

	rec := h.do(t, http.MethodPost, "/store/playlist", map[string]any{
		"name": "Road Trip",
		"songs": []map[string]any{
			{"title": "Song A", "artist": "Artist A", "year": 2001, "youTubeId": "AAA111"},
			{"title": "Song B", "artist": "Artist B", "year": 2002, "youtubeId": "BBB222"},
		},
	}, joe)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Playlist normalize.CanonicalPlaylist `json:"playlist"`
	}
	decode(t, rec, &created)
	id := created.Playlist.ID
	require.NotEmpty(t, id)
	assert.Equal(t, "joe@shmo.com", created.Playlist.OwnerEmail)
	require.Len(t, created.Playlist.Songs, 2)
	assert.Equal(t, "BBB222", *created.Playlist.Songs[1].YouTubeID)

	rec = h.do(t, http.MethodGet, "/store/playlist/"+id, nil, joe)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"youTubeId":"BBB222"`)
	assert.NotContains(t, rec.Body.String(), `"youtubeId"`)

	rec = h.do(t, http.MethodGet, "/store/playlistpairs", nil, joe)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"idNamePairs":[{"_id":"`+id+`","name":"Road Trip"}]}`, rec.Body.String())

	rec = h.do(t, http.MethodPut, "/store/playlist/"+id, map[string]any{
		"playlist": map[string]any{"name": "Renamed", "songs": []map[string]any{{"title": "Only", "artist": "One"}}},
	}, joe)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true,"id":"`+id+`","message":"Playlist updated!"}`, rec.Body.String())

	rec = h.do(t, http.MethodGet, "/store/playlists", nil, joe)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Success bool                           `json:"success"`
		Data    []normalize.CanonicalPlaylist `json:"data"`
	}
	decode(t, rec, &list)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Renamed", list.Data[0].Name)
	require.Len(t, list.Data[0].Songs, 1)
	assert.Nil(t, list.Data[0].Songs[0].Year)

	rec = h.do(t, http.MethodDelete, "/store/playlist/"+id, nil, joe)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())

	rec = h.do(t, http.MethodGet, "/store/playlist/"+id, nil, joe)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlaylistOwnership(t *testing.T) {
	h := newHarness(t)
	joe := h.register(t, "joe@shmo.com")
	jane := h.register(t, "jane@example.com")

	rec := h.do(t, http.MethodPost, "/store/playlist", map[string]any{"playlist": map[string]any{"name": "Joe's"}}, joe)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Playlist normalize.CanonicalPlaylist `json:"playlist"`
	}
	decode(t, rec, &created)
	assert.Equal(t, "Joe's", created.Playlist.Name)
	assert.Empty(t, created.Playlist.Songs)
	path := "/store/playlist/" + created.Playlist.ID

	rec = h.do(t, http.MethodGet, path, nil, jane)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"success":false,"errorMessage":"authentication error"}`, rec.Body.String())

	rec = h.do(t, http.MethodPut, path, map[string]any{"playlist": map[string]any{"name": "Mine now"}}, jane)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, http.MethodDelete, path, nil, jane)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, http.MethodGet, "/store/playlistpairs", nil, jane)
	assert.JSONEq(t, `{"success":true,"idNamePairs":[]}`, rec.Body.String())

	rec = h.do(t, http.MethodGet, path, nil, joe)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPlaylistBadRequests(t *testing.T) {
	h := newHarness(t)
	joe := h.register(t, "joe@shmo.com")

	rec := h.do(t, http.MethodPost, "/store/playlist", map[string]any{"songs": []any{}}, joe)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/store/playlist", map[string]any{"name": "x", "ownerEmail": "ghost@example.com"}, joe)
	assert.Equal(t, http.StatusCreated, rec.Code, "in-memory store does not pre-check the owner")

	rec = h.do(t, http.MethodPut, "/store/playlist/1", map[string]any{"name": "no wrapper"}, joe)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "You must provide a body to update")

	rec = h.do(t, http.MethodPut, "/store/playlist/9999", map[string]any{"playlist": map[string]any{"name": "x"}}, joe)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodDelete, "/store/playlist/not-an-id", nil, joe)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type failingPlaylists struct {
	PlaylistService
}

func (failingPlaylists) Pairs(context.Context, string) ([]normalize.CanonicalPair, error) {
	return nil, errors.New("connection reset")
}

func (failingPlaylists) List(context.Context) ([]*normalize.CanonicalPlaylist, error) {
	return nil, errors.New("connection reset")
}

func (failingPlaylists) Get(context.Context, string, string) (*normalize.CanonicalPlaylist, error) {
	return nil, errors.New("connection reset")
}

func TestListingsFallBackToEmptyOnStoreFailure(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, time.Hour)
	srv := New(nil, failingPlaylists{}, tokens, logging.Nop(), nil)
	handler := srv.Routes()

	token, expires, err := tokens.Issue("1")
	require.NoError(t, err)
	session := tokens.Cookie(token, expires)

	send := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(session)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	rec := send("/store/playlistpairs")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"idNamePairs":[]}`, rec.Body.String())

	rec = send("/store/playlists")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, rec.Body.String())

	rec = send("/store/playlist/1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPreflightIsAnsweredBeforeRouting(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodOptions, "/store/playlist/1", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
