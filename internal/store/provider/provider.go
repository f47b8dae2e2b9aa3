// Package provider picks the store.DatabaseManager implementation for the
// process. It is the only package that knows about both adapters.
package provider

import (
	"github.com/rs/zerolog"

	"playlister/internal/config"
	"playlister/internal/store"
	"playlister/internal/store/mongostore"
	"playlister/internal/store/pgstore"
)

// Resolve maps a configured provider name to a store.Provider. postgresql and
// postgres select the relational store; every other value, including empty,
// selects the document store.
func Resolve(name string) store.Provider {
	if config.IsPostgresProvider(name) {
		return store.ProviderPostgres
	}
	return store.ProviderMongo
}

// New builds the manager for cfg.Provider. The manager is not initialised;
// the caller owns Init and Close.
func New(cfg config.DatabaseConfig, logger zerolog.Logger) store.DatabaseManager {
	p := Resolve(cfg.Provider)
	logger.Info().
		Str("provider", string(p)).
		Str("configured", cfg.Provider).
		Msg("database provider selected")

	switch p {
	case store.ProviderPostgres:
		return pgstore.New(cfg.Postgres, logger.With().Str("component", "pgstore").Logger())
	default:
		return mongostore.New(cfg.Mongo, logger.With().Str("component", "mongostore").Logger())
	}
}
