package composer

import (
	"context"
	"io/fs"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-cms-composer/internal/storage"
)

// GetMigrationsFS returns the embedded goose migrations for hosts that run
// their own migration tooling.
func GetMigrationsFS() fs.FS {
	return storage.MigrationsFS()
}

// Migrate applies the embedded migrations to db.
func Migrate(ctx context.Context, db *bun.DB) error {
	return storage.Migrate(ctx, db)
}
