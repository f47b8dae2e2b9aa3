// Package mongostore implements store.DatabaseManager on MongoDB.
//
// Songs are embedded in their playlist document, so every write is a single
// document operation.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"playlister/internal/config"
	"playlister/internal/store"
)

// Manager is a MongoDB-backed store.DatabaseManager.
type Manager struct {
	uri    string
	dbName string
	logger zerolog.Logger

	mu        sync.RWMutex
	client    *mongo.Client
	users     *mongo.Collection
	playlists *mongo.Collection
}

var _ store.DatabaseManager = (*Manager)(nil)

// New returns a manager for the configured deployment. No connection is made
// until Init.
func New(cfg config.MongoConfig, logger zerolog.Logger) *Manager {
	return &Manager{
		uri:    cfg.URI,
		dbName: cfg.DatabaseName(),
		logger: logger,
	}
}

// Init connects, pings the primary and ensures the unique email index.
func (m *Manager) Init(ctx context.Context) error {
	client, err := mongo.Connect(options.Client().ApplyURI(m.uri))
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(m.dbName)
	users := db.Collection(usersCollection)
	if _, err := users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	}); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("ensure users email index: %w", err)
	}

	m.mu.Lock()
	m.client = client
	m.users = users
	m.playlists = db.Collection(playlistsCollection)
	m.mu.Unlock()

	m.logger.Info().Str("database", m.dbName).Msg("connected to mongodb")
	return nil
}

// Close disconnects the client.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	client := m.client
	m.client, m.users, m.playlists = nil, nil, nil
	m.mu.Unlock()

	if client == nil {
		return nil
	}
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}
	m.logger.Info().Msg("mongodb connection closed")
	return nil
}

func (m *Manager) collections() (users, playlists *mongo.Collection, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.client == nil {
		return nil, nil, store.ErrNotInitialized
	}
	return m.users, m.playlists, nil
}

// GetUserByID returns the user or nil.
func (m *Manager) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	users, _, err := m.collections()
	if err != nil {
		return nil, err
	}
	oid, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	return findUser(ctx, users, bson.M{"_id": oid})
}

// GetUserByEmail returns the user or nil.
func (m *Manager) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	users, _, err := m.collections()
	if err != nil {
		return nil, err
	}
	return findUser(ctx, users, bson.M{"email": email})
}

func findUser(ctx context.Context, users *mongo.Collection, filter bson.M) (*store.User, error) {
	var doc userDocument
	err := users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toUser(), nil
}

// CreateUser inserts a user. A taken email yields store.ErrUserExists.
func (m *Manager) CreateUser(ctx context.Context, in store.NewUser) (*store.User, error) {
	users, _, err := m.collections()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := userDocument{
		ID:           bson.NewObjectID(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Playlists:    []bson.ObjectID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("create user %q: %w: %w", in.Email, store.ErrUserExists, err)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toUser(), nil
}

// CreatePlaylist inserts the playlist with its songs embedded. The owner is
// not checked against the users collection.
func (m *Manager) CreatePlaylist(ctx context.Context, in store.PlaylistInput) (*store.Playlist, error) {
	_, playlists, err := m.collections()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := playlistDocument{
		ID:         bson.NewObjectID(),
		Name:       in.Name,
		OwnerEmail: in.OwnerEmail,
		Songs:      songDocuments(in.Songs),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := playlists.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert playlist: %w", err)
	}
	return doc.toPlaylist(), nil
}

// GetPlaylistByID returns the playlist or nil.
func (m *Manager) GetPlaylistByID(ctx context.Context, id string) (*store.Playlist, error) {
	_, playlists, err := m.collections()
	if err != nil {
		return nil, err
	}
	oid, ok := parseID(id)
	if !ok {
		return nil, nil
	}

	var doc playlistDocument
	err = playlists.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find playlist: %w", err)
	}
	return doc.toPlaylist(), nil
}

// GetPlaylistPairs lists every playlist without its songs.
func (m *Manager) GetPlaylistPairs(ctx context.Context) ([]store.PlaylistPair, error) {
	_, playlists, err := m.collections()
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetProjection(bson.D{{Key: "name", Value: 1}, {Key: "ownerEmail", Value: 1}}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := playlists.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find playlist pairs: %w", err)
	}

	var docs []playlistDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode playlist pairs: %w", err)
	}

	pairs := make([]store.PlaylistPair, 0, len(docs))
	for i := range docs {
		pairs = append(pairs, docs[i].toPair())
	}
	return pairs, nil
}

// UpdatePlaylistByID replaces name, owner email and songs in one atomic
// document update and returns the new document, or nil when id is unknown.
func (m *Manager) UpdatePlaylistByID(ctx context.Context, id string, in store.PlaylistInput) (*store.Playlist, error) {
	_, playlists, err := m.collections()
	if err != nil {
		return nil, err
	}
	oid, ok := parseID(id)
	if !ok {
		return nil, nil
	}

	update := bson.M{
		"$set": bson.M{
			"name":       in.Name,
			"ownerEmail": in.OwnerEmail,
			"songs":      songDocuments(in.Songs),
			"updatedAt":  time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc playlistDocument
	err = playlists.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update playlist: %w", err)
	}
	return doc.toPlaylist(), nil
}

// DeletePlaylistByID reports whether a document was removed.
func (m *Manager) DeletePlaylistByID(ctx context.Context, id string) (bool, error) {
	_, playlists, err := m.collections()
	if err != nil {
		return false, err
	}
	oid, ok := parseID(id)
	if !ok {
		return false, nil
	}

	res, err := playlists.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("delete playlist: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// parseID turns a hex string into an ObjectID. Anything else is treated as an
// unknown id.
func parseID(id string) (bson.ObjectID, bool) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, false
	}
	return oid, true
}
