package credentials

import (
	"errors"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	svcerrors "github.com/sys3222/akshare-mcp-adapter/internal/errors"
)

// Migrate applies every pending migration in migrationsFS to the database
// reachable at dsn; a no-op when the schema is already current. The server
// wiring (service.Build) does not call it, so the users table must already
// exist when the gateway starts.
func Migrate(dsn string, migrationsFS fs.FS) error {
	src, err := iofs.New(migrationsFS, ".")
	if err != nil {
		return svcerrors.Internal("failed to load migration source", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return svcerrors.Internal("failed to initialize migrator", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return svcerrors.Internal("failed to apply migrations", err)
	}
	return nil
}
