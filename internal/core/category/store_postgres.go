// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package category

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/folio/internal/platform/database/schema"
	"github.com/taibuivan/folio/internal/platform/dberr"
	"github.com/taibuivan/folio/internal/platform/postgres"
)

const resource = "Category"

var table = schema.CoreCategory

var selectColumns = strings.Join(table.Columns(), ", ")

// PostgresRepository implements [Repository] on core.category.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository for categories.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func scanCategory(row pgx.Row) (*Category, error) {
	category := &Category{}
	err := row.Scan(
		&category.ID, &category.Name, &category.Slug, &category.Description,
		&category.ImageCount, &category.CreatedAt, &category.UpdatedAt,
	)
	return category, err
}

func (repository *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*Category, int, error) {
	db := postgres.Conn(ctx, repository.pool)

	var total int
	if err := db.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, table.Table)).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, resource, "count_categories")
	}

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s ASC LIMIT $1 OFFSET $2`,
		selectColumns, table.Table, table.Name)

	rows, err := db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, resource, "list_categories")
	}
	defer rows.Close()

	categories := make([]*Category, 0)
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, resource, "scan_categories")
		}
		categories = append(categories, category)
	}

	return categories, total, dberr.Wrap(rows.Err(), resource, "list_categories")
}

func (repository *PostgresRepository) ListIDs(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT %s::text FROM %s ORDER BY %s`, table.ID, table.Table, table.ID)

	rows, err := postgres.Conn(ctx, repository.pool).Query(ctx, query)
	if err != nil {
		return nil, dberr.Wrap(err, resource, "list_category_ids")
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	return ids, dberr.Wrap(err, resource, "list_category_ids")
}

func (repository *PostgresRepository) find(ctx context.Context, column, value, action string) (*Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, selectColumns, table.Table, column)

	category, err := scanCategory(postgres.Conn(ctx, repository.pool).QueryRow(ctx, query, value))
	if err != nil {
		return nil, dberr.Wrap(err, resource, action)
	}
	return category, nil
}

func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*Category, error) {
	return repository.find(ctx, table.ID, id, "get_category")
}

func (repository *PostgresRepository) FindBySlug(ctx context.Context, slug string) (*Category, error) {
	return repository.find(ctx, table.Slug, slug, "get_category_by_slug")
}

func (repository *PostgresRepository) Create(ctx context.Context, category *Category) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, 0, NOW(), NOW())
		RETURNING %s, %s
	`,
		table.Table, table.ID, table.Name, table.Slug, table.Description,
		table.ImageCount, table.CreatedAt, table.UpdatedAt,
		table.CreatedAt, table.UpdatedAt,
	)

	err := postgres.Conn(ctx, repository.pool).QueryRow(ctx, query,
		category.ID, category.Name, category.Slug, category.Description,
	).Scan(&category.CreatedAt, &category.UpdatedAt)

	return dberr.Wrap(err, resource, "create_category")
}

func (repository *PostgresRepository) Update(ctx context.Context, category *Category) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = NOW()
		WHERE %s = $1
		RETURNING %s, %s
	`,
		table.Table, table.Name, table.Slug, table.Description, table.UpdatedAt,
		table.ID, table.ImageCount, table.UpdatedAt,
	)

	err := postgres.Conn(ctx, repository.pool).QueryRow(ctx, query,
		category.ID, category.Name, category.Slug, category.Description,
	).Scan(&category.ImageCount, &category.UpdatedAt)

	return dberr.Wrap(err, resource, "update_category")
}

func (repository *PostgresRepository) SetImageCount(ctx context.Context, id string, count int) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = NOW() WHERE %s = $1`,
		table.Table, table.ImageCount, table.UpdatedAt, table.ID)

	tag, err := postgres.Conn(ctx, repository.pool).Exec(ctx, query, id, count)
	if err != nil {
		return dberr.Wrap(err, resource, "set_category_image_count")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, resource, "set_category_image_count")
	}
	return nil
}

func (repository *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table.Table, table.ID)

	tag, err := postgres.Conn(ctx, repository.pool).Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, resource, "delete_category")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, resource, "delete_category")
	}
	return nil
}
