package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"bidding-engine/utils"
)

// MigrateUp applies every pending migration in dir to the database at dsn.
func MigrateUp(dir, dsn string) error {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return fmt.Errorf("repository: parse dsn: %w", err)
	}
	// migration files hold several statements each
	cfg.MultiStatements = true

	m, err := migrate.New(
		fmt.Sprintf("file://%s", dir),
		fmt.Sprintf("mysql://%s", cfg.FormatDSN()),
	)
	if err != nil {
		return fmt.Errorf("repository: open migrations: %w", err)
	}
	defer m.Close()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		utils.Info("no change in migration", map[string]any{"dir": dir})
		return nil
	}
	if err != nil {
		return fmt.Errorf("repository: migrate up: %w", err)
	}

	version, _, _ := m.Version()
	utils.Info("migrated up", map[string]any{"dir": dir, "version": version})
	return nil
}
