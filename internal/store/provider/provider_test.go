package provider

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"playlister/internal/config"
	"playlister/internal/store"
	"playlister/internal/store/mongostore"
	"playlister/internal/store/pgstore"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		in   string
		want store.Provider
	}{
		{in: "", want: store.ProviderMongo},
		{in: "mongodb", want: store.ProviderMongo},
		{in: "mongo", want: store.ProviderMongo},
		{in: "postgresql", want: store.ProviderPostgres},
		{in: "postgres", want: store.ProviderPostgres},
		{in: "  PostgreSQL ", want: store.ProviderPostgres},
		{in: "mysql", want: store.ProviderMongo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.in))
		})
	}
}

func TestNewBuildsSelectedAdapter(t *testing.T) {
	cfg := config.DatabaseConfig{
		Mongo:    config.MongoConfig{URI: "mongodb://127.0.0.1:27017/playlister"},
		Postgres: config.PostgresConfig{URL: "postgres://u:p@127.0.0.1/playlister", Driver: "pgx"},
	}

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	cfg.Provider = "postgres"
	assert.IsType(t, &pgstore.Manager{}, New(cfg, logger))
	assert.Contains(t, buf.String(), `"provider":"postgresql"`)

	cfg.Provider = ""
	assert.IsType(t, &mongostore.Manager{}, New(cfg, logger))
	assert.Contains(t, buf.String(), `"provider":"mongodb"`)
}
