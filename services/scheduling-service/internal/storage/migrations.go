package storage

import (
	"context"
	"embed"

	"github.com/md-rashed-zaman/techsched/libs/db"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the schema up to date.
func Migrate(ctx context.Context, pool *db.Pool) error {
	return db.Migrate(ctx, pool, migrations, "migrations")
}
