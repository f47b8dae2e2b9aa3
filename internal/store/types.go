package store

// User is a registered account.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
}

// NewUser carries the fields needed to register a user.
type NewUser struct {
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
}

// Song is an entry of a playlist. It has no identity of its own.
type Song struct {
	Title     string
	Artist    string
	Year      *int
	YouTubeID *string
}

// Playlist is an ordered list of songs owned by the user with OwnerEmail.
type Playlist struct {
	ID         string
	Name       string
	OwnerEmail string
	Songs      []Song
}

// PlaylistInput is the writable part of a playlist.
type PlaylistInput struct {
	Name       string
	OwnerEmail string
	Songs      []Song
}

// PlaylistPair is the lightweight listing projection of a playlist.
type PlaylistPair struct {
	ID         string
	Name       string
	OwnerEmail string
}

// Pair derives the listing projection of p.
func (p *Playlist) Pair() PlaylistPair {
	return PlaylistPair{ID: p.ID, Name: p.Name, OwnerEmail: p.OwnerEmail}
}

// CloneSongs returns a deep copy of songs so callers cannot alias adapter state.
func CloneSongs(songs []Song) []Song {
	out := make([]Song, len(songs))
	for i, s := range songs {
		out[i] = Song{Title: s.Title, Artist: s.Artist}
		if s.Year != nil {
			year := *s.Year
			out[i].Year = &year
		}
		if s.YouTubeID != nil {
			id := *s.YouTubeID
			out[i].YouTubeID = &id
		}
	}
	return out
}
