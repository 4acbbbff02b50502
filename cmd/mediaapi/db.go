package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"

	auth "github.com/goliatone/go-mediaauth"
	"github.com/goliatone/go-mediaauth/config"
	"github.com/goliatone/go-mediaauth/posts"
)

type database struct {
	client *persistence.Client
	db     *bun.DB
}

// Close closes the bun DB and its pool. The persistence client never stores
// the *sql.DB, so its own Close is not safe to call.
func (d *database) Close() error {
	return d.db.Close()
}

// openDatabase connects through go-persistence-bun and applies the users and
// posts migrations.
func openDatabase(ctx context.Context, cfg config.PersistenceConfig, logger *slog.Logger) (*database, error) {
	sqldb, err := sql.Open(cfg.GetDriver(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	postgres := cfg.GetDriver() == config.DriverPostgres

	var dialect schema.Dialect = sqlitedialect.New()
	if postgres {
		dialect = pgdialect.New()
	} else {
		// sqlite serialises writers, a single connection avoids SQLITE_BUSY
		sqldb.SetMaxOpenConns(1)
	}

	persistence.RegisterModel((*auth.User)(nil))
	persistence.RegisterModel(
		(*posts.Post)(nil),
		(*posts.Comment)(nil),
		(*posts.Like)(nil),
	)

	client, err := persistence.New(cfg, sqldb, dialect)
	if err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("db connect error: %w", err)
	}

	client.SetLogger(func(format string, a ...any) {
		logger.Debug(fmt.Sprintf(format, a...), "component", "persistence")
	})

	db, ok := client.DB().(*bun.DB)
	if !ok {
		sqldb.Close()
		return nil, fmt.Errorf("unexpected persistence db type %T", client.DB())
	}

	if !postgres {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
			sqldb.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	usersFS, err := auth.MigrationsFS()
	if err != nil {
		sqldb.Close()
		return nil, err
	}
	client.RegisterSQLMigrations(usersFS, posts.MigrationsFS())

	if err := client.Migrate(ctx); err != nil {
		sqldb.Close()
		return nil, err
	}

	if report := client.Report(); report != nil && !report.IsZero() {
		logger.Info("migrations applied", "group", report.String())
	}

	return &database{client: client, db: db}, nil
}
