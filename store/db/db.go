package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/bazaarbot/internal/profile"
	"github.com/hrygo/bazaarbot/store"
	"github.com/hrygo/bazaarbot/store/db/postgres"
	"github.com/hrygo/bazaarbot/store/db/sqlite"
)

// PostgreSQL (with pgvector) serves production and owns semantic search.
// SQLite serves dev and demo mode; retrieval falls back to text search there.

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.New("unknown db driver: only 'postgres' and 'sqlite' are supported")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
