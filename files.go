package auth

import (
	"context"
	"embed"
	"io/fs"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the migration files for this package
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// MigrationsFS returns the users migrations rooted at the directory that
// holds the numbered SQL files, ready for migrate.Migrations.Discover.
func MigrationsFS() (fs.FS, error) {
	root, err := MigrationsFS()
	if err != nil {
		return nil, err
	}
	return root, nil
}

// Migrate applies the users schema. Extra file systems, e.g. the posts
// migrations, are applied in the same run.
func Migrate(ctx context.Context, db *bun.DB, extra ...fs.FS) (*migrate.MigrationGroup, error) {
	migrations := migrate.NewMigrations()

	root, err := MigrationsFS()
	if err != nil {
		return nil, err
	}

	sources := append([]fs.FS{root}, extra...)
	for _, src := range sources {
		if err := migrations.Discover(src); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to discover migrations")
		}
	}

	migrator := migrate.NewMigrator(db, migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to init migrations table")
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to run migrations")
	}

	return group, nil
}
