package store

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const migrationsTable = `
    CREATE TABLE IF NOT EXISTS schema_migrations (
        version    TEXT PRIMARY KEY,
        applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )
`

// Migrate applies every *.up.sql file found in fsys that has not been
// recorded in schema_migrations yet, in lexical order. Each file runs in its
// own transaction together with its bookkeeping row.
func (s *Store) Migrate(ctx context.Context, fsys fs.FS) error {
	applied, err := ApplyMigrations(ctx, s.pool, fsys)
	if err != nil {
		return err
	}
	for _, version := range applied {
		s.logger.Printf("store: applied migration %s", version)
	}
	return nil
}

// ApplyMigrations is Migrate for a bare pool. It returns the versions applied.
func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS) ([]string, error) {
	files, err := upMigrations(fsys)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no migration files found")
	}

	if _, err := pool.Exec(ctx, migrationsTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	var applied []string
	for _, file := range files {
		version := strings.TrimSuffix(path.Base(file), ".up.sql")
		payload, err := fs.ReadFile(fsys, file)
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", file, err)
		}

		var ran bool
		err = WithTx(ctx, pool, func(tx pgx.Tx) error {
			tag, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT DO NOTHING`, version)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return nil
			}
			if _, err := tx.Exec(ctx, string(payload)); err != nil {
				return err
			}
			ran = true
			return nil
		})
		if err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", file, err)
		}
		if ran {
			applied = append(applied, version)
		}
	}
	return applied, nil
}

func upMigrations(fsys fs.FS) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".up.sql") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Slice(files, func(i, j int) bool { return path.Base(files[i]) < path.Base(files[j]) })
	return files, nil
}
