package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-cms-composer/internal/storage"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	ctx := context.Background()
	for _, driver := range []string{storage.DriverSQLite3, storage.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			db, err := storage.Open(ctx, driver, "file:"+driver+"_migrate?mode=memory&cache=shared", storage.Options{MaxOpenConns: 1})
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer db.Close()

			if err := storage.Migrate(ctx, db); err != nil {
				t.Fatalf("migrate: %v", err)
			}
			// Applying twice is a no-op.
			if err := storage.Migrate(ctx, db); err != nil {
				t.Fatalf("second migrate: %v", err)
			}

			for _, table := range []string{"pages", "locale_contents", "live_contents", "block_translation_meta"} {
				var count int
				if err := db.NewSelect().TableExpr(table).ColumnExpr("COUNT(*)").Scan(ctx, &count); err != nil {
					t.Fatalf("table %s: %v", table, err)
				}
			}
		})
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := storage.Open(context.Background(), "oracle", "", storage.Options{})
	if !errors.Is(err, storage.ErrUnsupportedDriver) {
		t.Fatalf("expected ErrUnsupportedDriver, got %v", err)
	}
}
