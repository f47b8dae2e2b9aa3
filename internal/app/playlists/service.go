package playlists

import (
	"context"
	"errors"
	"fmt"

	"playlister/internal/normalize"
	"playlister/internal/store"
)

var (
	// ErrUnauthorized means the caller does not map to a user.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means the playlist belongs to someone else.
	ErrForbidden = errors.New("playlist belongs to another user")
	// ErrNotFound means no playlist has the requested id.
	ErrNotFound = errors.New("playlist not found")
	// ErrNameRequired rejects creation without a name.
	ErrNameRequired = errors.New("playlist name is required")
)

// Store captures the persistence needs for playlist workflows.
type Store interface {
	GetUserByID(ctx context.Context, id string) (*store.User, error)
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
	CreatePlaylist(ctx context.Context, in store.PlaylistInput) (*store.Playlist, error)
	GetPlaylistByID(ctx context.Context, id string) (*store.Playlist, error)
	GetPlaylistPairs(ctx context.Context) ([]store.PlaylistPair, error)
	UpdatePlaylistByID(ctx context.Context, id string, in store.PlaylistInput) (*store.Playlist, error)
	DeletePlaylistByID(ctx context.Context, id string) (bool, error)
}

// CreateRequest is the input of Create. OwnerEmail defaults to the caller's
// email.
type CreateRequest struct {
	Name       string                `json:"name"`
	OwnerEmail string                `json:"ownerEmail"`
	Songs      []normalize.SongInput `json:"songs"`
}

// UpdateRequest is the input of Update. A nil Name keeps the current name;
// Songs always replaces the whole list.
type UpdateRequest struct {
	Name  *string               `json:"name"`
	Songs []normalize.SongInput `json:"songs"`
}

// Service coordinates playlist-related operations.
type Service interface {
	Create(ctx context.Context, callerID string, req CreateRequest) (*normalize.CanonicalPlaylist, error)
	Get(ctx context.Context, callerID, id string) (*normalize.CanonicalPlaylist, error)
	Pairs(ctx context.Context, callerID string) ([]normalize.CanonicalPair, error)
	List(ctx context.Context) ([]*normalize.CanonicalPlaylist, error)
	Update(ctx context.Context, callerID, id string, req UpdateRequest) (*normalize.CanonicalPlaylist, error)
	Delete(ctx context.Context, callerID, id string) error
}

type service struct {
	store Store
}

// New constructs a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) Create(ctx context.Context, callerID string, req CreateRequest) (*normalize.CanonicalPlaylist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	caller, err := s.store.GetUserByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("lookup caller: %w", err)
	}
	if caller == nil {
		return nil, ErrUnauthorized
	}
	if req.Name == "" {
		return nil, ErrNameRequired
	}

	ownerEmail := req.OwnerEmail
	if ownerEmail == "" {
		ownerEmail = caller.Email
	}

	created, err := s.store.CreatePlaylist(ctx, store.PlaylistInput{
		Name:       req.Name,
		OwnerEmail: ownerEmail,
		Songs:      normalize.Songs(req.Songs),
	})
	if err != nil {
		return nil, fmt.Errorf("create playlist: %w", err)
	}
	return normalize.Playlist(created), nil
}

func (s *service) Get(ctx context.Context, callerID, id string) (*normalize.CanonicalPlaylist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	playlist, err := s.owned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	return normalize.Playlist(playlist), nil
}

func (s *service) Pairs(ctx context.Context, callerID string) ([]normalize.CanonicalPair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	caller, err := s.store.GetUserByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("lookup caller: %w", err)
	}
	if caller == nil {
		return normalize.Pairs(nil), nil
	}

	all, err := s.store.GetPlaylistPairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list playlist pairs: %w", err)
	}

	mine := make([]store.PlaylistPair, 0, len(all))
	for _, pair := range all {
		if pair.OwnerEmail == caller.Email {
			mine = append(mine, pair)
		}
	}
	return normalize.Pairs(mine), nil
}

func (s *service) List(ctx context.Context) ([]*normalize.CanonicalPlaylist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pairs, err := s.store.GetPlaylistPairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list playlist pairs: %w", err)
	}

	out := make([]*normalize.CanonicalPlaylist, 0, len(pairs))
	for _, pair := range pairs {
		playlist, err := s.store.GetPlaylistByID(ctx, pair.ID)
		if err != nil {
			return nil, fmt.Errorf("get playlist %s: %w", pair.ID, err)
		}
		// deleted between the two reads
		if playlist == nil {
			continue
		}
		out = append(out, normalize.Playlist(playlist))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, callerID, id string, req UpdateRequest) (*normalize.CanonicalPlaylist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current, err := s.owned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	name := current.Name
	if req.Name != nil {
		name = *req.Name
	}

	updated, err := s.store.UpdatePlaylistByID(ctx, id, store.PlaylistInput{
		Name:       name,
		OwnerEmail: current.OwnerEmail,
		Songs:      normalize.Songs(req.Songs),
	})
	if err != nil {
		return nil, fmt.Errorf("update playlist: %w", err)
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	return normalize.Playlist(updated), nil
}

func (s *service) Delete(ctx context.Context, callerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.owned(ctx, callerID, id); err != nil {
		return err
	}

	deleted, err := s.store.DeletePlaylistByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// owned reads the playlist and checks that its owner email resolves to the
// caller.
func (s *service) owned(ctx context.Context, callerID, id string) (*store.Playlist, error) {
	playlist, err := s.store.GetPlaylistByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get playlist: %w", err)
	}
	if playlist == nil {
		return nil, ErrNotFound
	}

	owner, err := s.store.GetUserByEmail(ctx, playlist.OwnerEmail)
	if err != nil {
		return nil, fmt.Errorf("lookup owner: %w", err)
	}
	if owner == nil || owner.ID != callerID {
		return nil, ErrForbidden
	}
	return playlist, nil
}
