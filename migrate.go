package auth

import (
	"context"
	"io/fs"
	"sort"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

const migrationsRoot = "data/sql/migrations"

// Migrate applies the embedded schema migrations in filename order. The
// statements are idempotent (IF NOT EXISTS), so running this at every
// startup is safe.
func Migrate(ctx context.Context, db bun.IDB) error {
	entries, err := fs.ReadDir(migrationsFS, migrationsRoot)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to read embedded migrations")
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		raw, err := fs.ReadFile(migrationsFS, migrationsRoot+"/"+name)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to read migration "+name)
		}

		for _, stmt := range splitStatements(string(raw)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return errors.Wrap(err, errors.CategoryInternal, "migration failed: "+name)
			}
		}
	}

	return nil
}

// splitStatements breaks a migration file into single statements; the
// SQLite shim does not accept multi-statement Exec calls.
func splitStatements(src string) []string {
	parts := strings.Split(src, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if stmt := strings.TrimSpace(p); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
