package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"playlister/internal/app/playlists"
	"playlister/internal/app/users"
	"playlister/internal/auth"
	"playlister/internal/httpapi/middleware"
	"playlister/internal/logging"
	"playlister/internal/normalize"
	"playlister/internal/store"
)

// UserService captures the user-facing operations needed by the HTTP handlers.
type UserService interface {
	Register(ctx context.Context, req users.RegisterRequest) (*store.User, error)
	Login(ctx context.Context, email, password string) (*store.User, error)
	Get(ctx context.Context, id string) (*store.User, error)
}

// PlaylistService coordinates playlist-related operations.
type PlaylistService interface {
	Create(ctx context.Context, callerID string, req playlists.CreateRequest) (*normalize.CanonicalPlaylist, error)
	Get(ctx context.Context, callerID, id string) (*normalize.CanonicalPlaylist, error)
	Pairs(ctx context.Context, callerID string) ([]normalize.CanonicalPair, error)
	List(ctx context.Context) ([]*normalize.CanonicalPlaylist, error)
	Update(ctx context.Context, callerID, id string, req playlists.UpdateRequest) (*normalize.CanonicalPlaylist, error)
	Delete(ctx context.Context, callerID, id string) error
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	users          UserService
	playlists      PlaylistService
	tokens         *auth.TokenManager
	logger         *logging.Logger
	allowedOrigins []string
}

// New configures a Server.
func New(users UserService, playlists PlaylistService, tokens *auth.TokenManager, logger *logging.Logger, allowedOrigins []string) *Server {
	return &Server{
		users:          users,
		playlists:      playlists,
		tokens:         tokens,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
}

// Routes exposes the /auth and /store handlers behind request logging,
// panic recovery and CORS.
func (s *Server) Routes() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	authRouter := router.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	authRouter.HandleFunc("/logout", s.handleLogout).Methods(http.MethodGet)
	authRouter.HandleFunc("/loggedIn", s.handleLoggedIn).Methods(http.MethodGet)

	storeRouter := router.PathPrefix("/store").Subrouter()
	storeRouter.Use(s.requireUser)
	storeRouter.HandleFunc("/playlist", s.createPlaylist).Methods(http.MethodPost)
	storeRouter.HandleFunc("/playlist/{id}", s.getPlaylist).Methods(http.MethodGet)
	storeRouter.HandleFunc("/playlist/{id}", s.updatePlaylist).Methods(http.MethodPut)
	storeRouter.HandleFunc("/playlist/{id}", s.deletePlaylist).Methods(http.MethodDelete)
	storeRouter.HandleFunc("/playlistpairs", s.listPlaylistPairs).Methods(http.MethodGet)
	storeRouter.HandleFunc("/playlists", s.listPlaylists).Methods(http.MethodGet)

	httpLogger := s.logger.Component("http")
	var handler http.Handler = router
	handler = middleware.CORS(s.allowedOrigins)(handler)
	handler = middleware.Recovery(httpLogger)(handler)
	handler = middleware.RequestLogging(httpLogger)(handler)
	return handler
}

// requireUser rejects requests without a valid session cookie and stores the
// user id on the request context.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.tokens.UserID(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED")
			return
		}
		next.ServeHTTP(w, r.WithContext(logging.ContextWithUserID(r.Context(), userID)))
	})
}

type errorResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, ErrorMessage: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// internalError logs err with the request's identifiers and answers 500.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	s.logger.WithContext(r.Context()).Error().Err(err).Msg(msg)
	writeError(w, http.StatusInternalServerError, "Server error")
}
