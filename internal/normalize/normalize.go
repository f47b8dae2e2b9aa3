// Package normalize converts store values into the wire shape shared by every
// backing store, and maps inbound song JSON onto store.Song.
package normalize

import (
	"encoding/json"

	"playlister/internal/store"
)

// CanonicalSong is a song as clients see it. Year and YouTubeID are null
// when absent.
type CanonicalSong struct {
	Title     string  `json:"title"`
	Artist    string  `json:"artist"`
	Year      *int    `json:"year"`
	YouTubeID *string `json:"youTubeId"`
}

// CanonicalPlaylist is a playlist as clients see it.
type CanonicalPlaylist struct {
	ID         string          `json:"_id"`
	Name       string          `json:"name"`
	OwnerEmail string          `json:"ownerEmail"`
	Songs      []CanonicalSong `json:"songs"`
}

// CanonicalPair is the listing entry for a playlist.
type CanonicalPair struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Playlist returns the canonical form of p, or nil for nil.
func Playlist(p *store.Playlist) *CanonicalPlaylist {
	if p == nil {
		return nil
	}
	out := &CanonicalPlaylist{
		ID:         p.ID,
		Name:       p.Name,
		OwnerEmail: p.OwnerEmail,
		Songs:      make([]CanonicalSong, 0, len(p.Songs)),
	}
	for _, s := range store.CloneSongs(p.Songs) {
		out.Songs = append(out.Songs, CanonicalSong(s))
	}
	return out
}

// Pairs returns the canonical listing entries. The result is never nil.
func Pairs(pairs []store.PlaylistPair) []CanonicalPair {
	out := make([]CanonicalPair, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, CanonicalPair{ID: p.ID, Name: p.Name})
	}
	return out
}

// SongInput is a song as submitted by clients. Both youTubeId and the older
// youtubeId spelling are accepted; youTubeId wins when both are set.
type SongInput struct {
	Title     string
	Artist    string
	Year      *int
	YouTubeID *string
}

type songInputJSON struct {
	Title           string  `json:"title"`
	Artist          string  `json:"artist"`
	Year            *int    `json:"year"`
	YouTubeID       *string `json:"youTubeId"`
	LegacyYouTubeID *string `json:"youtubeId"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *SongInput) UnmarshalJSON(data []byte) error {
	var raw songInputJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	videoID := raw.YouTubeID
	if videoID == nil {
		videoID = raw.LegacyYouTubeID
	}
	*s = SongInput{
		Title:     raw.Title,
		Artist:    raw.Artist,
		Year:      raw.Year,
		YouTubeID: videoID,
	}
	return nil
}

// Song maps the input onto store.Song.
func (s SongInput) Song() store.Song {
	return store.Song(s)
}

// Songs maps inputs onto store songs. The result is never nil.
func Songs(in []SongInput) []store.Song {
	out := make([]store.Song, 0, len(in))
	for _, s := range in {
		out = append(out, s.Song())
	}
	return out
}
