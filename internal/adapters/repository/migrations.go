package repository

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/okian/radar/pkg/logger"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

type migration struct {
	version string
	sql     string
}

func loadMigrations() ([]migration, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	out := make([]migration, 0, len(names))
	for _, name := range names {
		data, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		out = append(out, migration{version: strings.TrimSuffix(name, ".sql"), sql: string(data)})
	}
	return out, nil
}

// Migrate applies every embedded migration not yet recorded in schema_migrations.
func (s *SQLStore) Migrate(ctx context.Context) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeErr("migrate", fmt.Errorf("begin migration tx: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		return storeErr("migrate", fmt.Errorf("ensure schema_migrations: %w", err))
	}

	for _, m := range migrations {
		var count int
		if err := tx.GetContext(ctx, &count, s.db.Rebind("SELECT COUNT(1) FROM schema_migrations WHERE version = ?"), m.version); err != nil {
			return storeErr("migrate", fmt.Errorf("scan migration version: %w", err))
		}
		if count > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			return storeErr("migrate", fmt.Errorf("apply migration %s: %w", m.version, err))
		}
		if _, err := tx.ExecContext(ctx, s.db.Rebind("INSERT INTO schema_migrations (version) VALUES (?)"), m.version); err != nil {
			return storeErr("migrate", fmt.Errorf("record migration %s: %w", m.version, err))
		}
		s.log.Info(ctx, "applied migration", logger.String("version", m.version))
	}

	if err := tx.Commit(); err != nil {
		return storeErr("migrate", fmt.Errorf("commit migrations: %w", err))
	}
	return nil
}
