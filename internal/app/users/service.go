package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"playlister/internal/auth"
	"playlister/internal/store"
)

const minPasswordLength = 8

var (
	// ErrMissingFields rejects a registration with empty fields.
	ErrMissingFields = errors.New("please enter all required fields")
	// ErrPasswordTooShort rejects passwords under eight characters.
	ErrPasswordTooShort = errors.New("please enter a password of at least 8 characters")
	// ErrPasswordMismatch rejects a registration whose passwords differ.
	ErrPasswordMismatch = errors.New("please enter the same password twice")
	// ErrEmailTaken rejects a registration for an existing email.
	ErrEmailTaken = errors.New("an account with this email address already exists")
	// ErrInvalidCredentials indicates a login failure.
	ErrInvalidCredentials = errors.New("wrong email or password provided")
	// ErrNotFound means no user has the requested id.
	ErrNotFound = errors.New("user not found")
)

// Store describes the persistence operations required by the user service.
type Store interface {
	GetUserByID(ctx context.Context, id string) (*store.User, error)
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
	CreateUser(ctx context.Context, in store.NewUser) (*store.User, error)
}

// RegisterRequest is the input of Register.
type RegisterRequest struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	PasswordVerify string `json:"passwordVerify"`
}

// Service exposes user-related workflows.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*store.User, error)
	Login(ctx context.Context, email, password string) (*store.User, error)
	Get(ctx context.Context, id string) (*store.User, error)
}

type service struct {
	store Store
}

// New wires a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*store.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" || req.PasswordVerify == "" {
		return nil, ErrMissingFields
	}
	if len(req.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if req.Password != req.PasswordVerify {
		return nil, ErrPasswordMismatch
	}

	existing, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, store.NewUser{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if errors.Is(err, store.ErrUserExists) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*store.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		auth.CompareDummy(password)
		return nil, ErrInvalidCredentials
	}
	if !auth.ComparePassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *service) Get(ctx context.Context, id string) (*store.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}
