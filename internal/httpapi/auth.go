package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"playlister/internal/app/users"
	"playlister/internal/store"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userView struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type userResponse struct {
	Success bool     `json:"success"`
	User    userView `json:"user"`
}

type loggedInResponse struct {
	LoggedIn     bool      `json:"loggedIn"`
	User         *userView `json:"user"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

func viewOf(u *store.User) userView {
	return userView{FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req users.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	user, err := s.users.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrEmailTaken):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, users.ErrMissingFields),
			errors.Is(err, users.ErrPasswordTooShort),
			errors.Is(err, users.ErrPasswordMismatch):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.internalError(w, r, err, "register user")
		}
		return
	}

	s.startSession(w, r, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	user, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrMissingFields):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, users.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, err.Error())
		default:
			s.internalError(w, r, err, "login")
		}
		return
	}

	s.startSession(w, r, user)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, user *store.User) {
	token, expires, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.internalError(w, r, err, "issue session token")
		return
	}
	http.SetCookie(w, s.tokens.Cookie(token, expires))
	writeJSON(w, http.StatusOK, userResponse{Success: true, User: viewOf(user)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, s.tokens.ClearCookie())
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{Success: true})
}

func (s *Server) handleLoggedIn(w http.ResponseWriter, r *http.Request) {
	userID, err := s.tokens.UserID(r)
	if err != nil {
		writeJSON(w, http.StatusOK, loggedInResponse{LoggedIn: false, ErrorMessage: "?"})
		return
	}

	user, err := s.users.Get(r.Context(), userID)
	if errors.Is(err, users.ErrNotFound) {
		writeJSON(w, http.StatusOK, loggedInResponse{LoggedIn: false, ErrorMessage: "?"})
		return
	}
	if err != nil {
		s.internalError(w, r, err, "load session user")
		return
	}

	view := viewOf(user)
	writeJSON(w, http.StatusOK, loggedInResponse{LoggedIn: true, User: &view})
}
