package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

//go:embed migrations
var migrationFS embed.FS

type migration struct {
	filename string
	sql      string
}

// loadMigrations returns the embedded migrations of a dialect in filename
// order. Filenames are YYYY-MM-DD-NNN-description.sql.
func loadMigrations(dialect string) ([]migration, error) {
	dir := path.Join("migrations", dialect)
	entries, err := fs.ReadDir(migrationFS, dir)
	if err != nil {
		return nil, fmt.Errorf("read %s migrations: %w", dialect, err)
	}
	var out []migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		content, err := fs.ReadFile(migrationFS, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		out = append(out, migration{filename: e.Name(), sql: string(content)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].filename < out[j].filename })
	return out, nil
}

var migrationPrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-\d{3}-`)

// descriptionFromFilename strips the YYYY-MM-DD-NNN- prefix and .sql suffix.
func descriptionFromFilename(filename string) string {
	name := strings.TrimSuffix(filename, ".sql")
	name = migrationPrefix.ReplaceAllString(name, "")
	return strings.ReplaceAll(name, "-", " ")
}

// Migrate applies pending migrations, each file and its record insert in a
// single transaction, and returns the filenames it applied.
func (s *Postgres) Migrate(ctx context.Context) ([]string, error) {
	files, err := loadMigrations("postgres")
	if err != nil {
		return nil, err
	}

	// The migrations table may not exist yet.
	applied := make(map[string]bool)
	rows, err := s.pool.Query(ctx, "SELECT migration FROM migrations")
	if err == nil {
		names, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err == nil {
			for _, n := range names {
				applied[n] = true
			}
		}
	}

	var ran []string
	for _, m := range files {
		if applied[m.filename] {
			s.log.Debugw("skip migration", "migration", m.filename)
			continue
		}
		err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.sql); err != nil {
				return fmt.Errorf("run %s: %w", m.filename, err)
			}
			_, err := tx.Exec(ctx, "INSERT INTO migrations (migration, description) VALUES (@migration, @description)",
				pgx.NamedArgs{"migration": m.filename, "description": descriptionFromFilename(m.filename)})
			if err != nil {
				return fmt.Errorf("record %s: %w", m.filename, err)
			}
			return nil
		})
		if err != nil {
			return ran, err
		}
		s.log.Infow("applied migration", "migration", m.filename)
		ran = append(ran, m.filename)
	}
	return ran, nil
}

// Migrate applies pending SQLite migrations the same way as Postgres.
func (s *SQLite) Migrate(ctx context.Context) ([]string, error) {
	files, err := loadMigrations("sqlite")
	if err != nil {
		return nil, err
	}

	applied := make(map[string]bool)
	if rows, err := s.db.QueryContext(ctx, "SELECT migration FROM migrations"); err == nil {
		for rows.Next() {
			var name string
			if rows.Scan(&name) == nil {
				applied[name] = true
			}
		}
		rows.Close()
	}

	var ran []string
	for _, m := range files {
		if applied[m.filename] {
			s.log.Debugw("skip migration", "migration", m.filename)
			continue
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return ran, fmt.Errorf("begin %s: %w", m.filename, err)
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			tx.Rollback()
			return ran, fmt.Errorf("run %s: %w", m.filename, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO migrations (migration, description) VALUES (?, ?)",
			m.filename, descriptionFromFilename(m.filename)); err != nil {
			tx.Rollback()
			return ran, fmt.Errorf("record %s: %w", m.filename, err)
		}
		if err := tx.Commit(); err != nil {
			return ran, fmt.Errorf("commit %s: %w", m.filename, err)
		}
		s.log.Infow("applied migration", "migration", m.filename)
		ran = append(ran, m.filename)
	}
	return ran, nil
}
