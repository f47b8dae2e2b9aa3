package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"playlister/internal/app/playlists"
	"playlister/internal/logging"
	"playlister/internal/normalize"
	"playlister/internal/store"
)

// createPlaylistRequest accepts the fields either at the top level or nested
// under "playlist".
type createPlaylistRequest struct {
	Name       string                `json:"name"`
	OwnerEmail string                `json:"ownerEmail"`
	Songs      []normalize.SongInput `json:"songs"`
	Playlist   *struct {
		Name  string                `json:"name"`
		Songs []normalize.SongInput `json:"songs"`
	} `json:"playlist"`
}

func (req createPlaylistRequest) resolve() playlists.CreateRequest {
	out := playlists.CreateRequest{Name: req.Name, OwnerEmail: req.OwnerEmail, Songs: req.Songs}
	if req.Playlist != nil {
		if out.Name == "" {
			out.Name = req.Playlist.Name
		}
		if out.Songs == nil {
			out.Songs = req.Playlist.Songs
		}
	}
	return out
}

type updatePlaylistRequest struct {
	Playlist *playlists.UpdateRequest `json:"playlist"`
}

func (s *Server) createPlaylist(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	created, err := s.playlists.Create(r.Context(), logging.UserID(r.Context()), req.resolve())
	if err != nil {
		switch {
		case errors.Is(err, playlists.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED")
		case errors.Is(err, playlists.ErrNameRequired):
			writeError(w, http.StatusBadRequest, "Playlist name is required")
		case errors.Is(err, store.ErrOwnerNotFound):
			writeError(w, http.StatusBadRequest, "Playlist Not Created!")
		default:
			s.internalError(w, r, err, "create playlist")
		}
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Playlist *normalize.CanonicalPlaylist `json:"playlist"`
	}{Playlist: created})
}

func (s *Server) getPlaylist(w http.ResponseWriter, r *http.Request) {
	playlist, err := s.playlists.Get(r.Context(), logging.UserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.playlistError(w, r, err, "get playlist")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success  bool                         `json:"success"`
		Playlist *normalize.CanonicalPlaylist `json:"playlist"`
	}{Success: true, Playlist: playlist})
}

func (s *Server) updatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req updatePlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Playlist == nil {
		writeError(w, http.StatusBadRequest, "You must provide a body to update")
		return
	}

	updated, err := s.playlists.Update(r.Context(), logging.UserID(r.Context()), mux.Vars(r)["id"], *req.Playlist)
	if err != nil {
		s.playlistError(w, r, err, "update playlist")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
		Message string `json:"message"`
	}{Success: true, ID: updated.ID, Message: "Playlist updated!"})
}

func (s *Server) deletePlaylist(w http.ResponseWriter, r *http.Request) {
	if err := s.playlists.Delete(r.Context(), logging.UserID(r.Context()), mux.Vars(r)["id"]); err != nil {
		s.playlistError(w, r, err, "delete playlist")
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// listPlaylistPairs always answers with a list; store failures are logged
// and reported as an empty list.
func (s *Server) listPlaylistPairs(w http.ResponseWriter, r *http.Request) {
	pairs, err := s.playlists.Pairs(r.Context(), logging.UserID(r.Context()))
	if err != nil {
		s.logger.WithContext(r.Context()).Error().Err(err).Msg("list playlist pairs")
		pairs = []normalize.CanonicalPair{}
	}

	writeJSON(w, http.StatusOK, struct {
		Success     bool                      `json:"success"`
		IDNamePairs []normalize.CanonicalPair `json:"idNamePairs"`
	}{Success: true, IDNamePairs: pairs})
}

// listPlaylists mirrors listPlaylistPairs: failures yield an empty list.
func (s *Server) listPlaylists(w http.ResponseWriter, r *http.Request) {
	all, err := s.playlists.List(r.Context())
	if err != nil {
		s.logger.WithContext(r.Context()).Error().Err(err).Msg("list playlists")
		all = []*normalize.CanonicalPlaylist{}
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool                           `json:"success"`
		Data    []*normalize.CanonicalPlaylist `json:"data"`
	}{Success: true, Data: all})
}

func (s *Server) playlistError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, playlists.ErrNotFound):
		writeError(w, http.StatusNotFound, "Playlist not found!")
	case errors.Is(err, playlists.ErrForbidden):
		writeError(w, http.StatusForbidden, "authentication error")
	default:
		s.internalError(w, r, err, msg)
	}
}
