package main

import (
	"context"
	"errors"
	"fmt"

	"playlister/internal/auth"
	"playlister/internal/store"
)

const (
	demoEmail    = "joe@shmo.com"
	demoPassword = "aaaaaaaa"
)

type userCreator interface {
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
	CreateUser(ctx context.Context, user store.NewUser) (*store.User, error)
}

// ensureDemoUser registers the demo account unless it already exists.
func ensureDemoUser(ctx context.Context, db userCreator) error {
	existing, err := db.GetUserByEmail(ctx, demoEmail)
	if err != nil {
		return fmt.Errorf("lookup demo user: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := auth.HashPassword(demoPassword)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	if _, err := db.CreateUser(ctx, store.NewUser{
		FirstName:    "Joe",
		LastName:     "Shmo",
		Email:        demoEmail,
		PasswordHash: hash,
	}); err != nil && !errors.Is(err, store.ErrUserExists) {
		return fmt.Errorf("bootstrap demo user: %w", err)
	}
	return nil
}
