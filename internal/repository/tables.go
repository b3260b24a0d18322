package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// SchemaTables are the tables the migrations must have created.
var SchemaTables = []string{"accounts", "posts", "comments"}

type TablesRepository interface {
	CountTables(ctx context.Context, names []string) (int, error)
}

type tablesRepository struct {
	db *sqlx.DB
}

func NewTablesRepository(db *sqlx.DB) TablesRepository {
	return &tablesRepository{db: db}
}

func (r *tablesRepository) CountTables(ctx context.Context, names []string) (int, error) {
	var count int

	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = ANY($1)
	`, pq.Array(names))
	if err != nil {
		return 0, fmt.Errorf("count schema tables: %w", err)
	}

	return count, nil
}

// SchemaCheck fails unless every table in SchemaTables exists.
func SchemaCheck(tables TablesRepository) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		count, err := tables.CountTables(ctx, SchemaTables)
		if err != nil {
			return err
		}
		if count != len(SchemaTables) {
			return fmt.Errorf("schema incomplete: found %d of %d tables", count, len(SchemaTables))
		}
		return nil
	}
}
