package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"playlister/internal/store"
)

const (
	usersCollection     = "users"
	playlistsCollection = "playlists"
)

type userDocument struct {
	ID           bson.ObjectID   `bson:"_id,omitempty"`
	FirstName    string          `bson:"firstName"`
	LastName     string          `bson:"lastName"`
	Email        string          `bson:"email"`
	PasswordHash string          `bson:"passwordHash"`
	Playlists    []bson.ObjectID `bson:"playlists"`
	CreatedAt    time.Time       `bson:"createdAt"`
	UpdatedAt    time.Time       `bson:"updatedAt"`
}

type playlistDocument struct {
	ID         bson.ObjectID  `bson:"_id,omitempty"`
	Name       string         `bson:"name"`
	OwnerEmail string         `bson:"ownerEmail"`
	Songs      []songDocument `bson:"songs"`
	CreatedAt  time.Time      `bson:"createdAt,omitempty"`
	UpdatedAt  time.Time      `bson:"updatedAt,omitempty"`
}

// songDocument is embedded in playlistDocument. Older documents spell the
// video id youtubeId; only youTubeId is written.
type songDocument struct {
	Title           string  `bson:"title"`
	Artist          string  `bson:"artist"`
	Year            *int    `bson:"year"`
	YouTubeID       *string `bson:"youTubeId"`
	LegacyYouTubeID *string `bson:"youtubeId,omitempty"`
}

func (d *userDocument) toUser() *store.User {
	return &store.User{
		ID:           d.ID.Hex(),
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
	}
}

func (d *playlistDocument) toPlaylist() *store.Playlist {
	songs := make([]store.Song, 0, len(d.Songs))
	for _, s := range d.Songs {
		songs = append(songs, s.toSong())
	}
	return &store.Playlist{
		ID:         d.ID.Hex(),
		Name:       d.Name,
		OwnerEmail: d.OwnerEmail,
		Songs:      songs,
	}
}

func (d *playlistDocument) toPair() store.PlaylistPair {
	return store.PlaylistPair{
		ID:         d.ID.Hex(),
		Name:       d.Name,
		OwnerEmail: d.OwnerEmail,
	}
}

func (s songDocument) toSong() store.Song {
	videoID := s.YouTubeID
	if videoID == nil {
		videoID = s.LegacyYouTubeID
	}
	song := store.Song{Title: s.Title, Artist: s.Artist}
	if s.Year != nil {
		year := *s.Year
		song.Year = &year
	}
	if videoID != nil {
		id := *videoID
		song.YouTubeID = &id
	}
	return song
}

func songDocuments(songs []store.Song) []songDocument {
	docs := make([]songDocument, 0, len(songs))
	for _, s := range store.CloneSongs(songs) {
		docs = append(docs, songDocument{
			Title:     s.Title,
			Artist:    s.Artist,
			Year:      s.Year,
			YouTubeID: s.YouTubeID,
		})
	}
	return docs
}
