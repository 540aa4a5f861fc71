// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/folio/internal/platform/database/schema"
	"github.com/taibuivan/folio/internal/platform/dberr"
	"github.com/taibuivan/folio/internal/platform/postgres"
)

const resource = "Series"

var table = schema.CoreSeries

// selectColumns is the projection scanned by [scanSeries]. The sequence is
// read as text[] so it scans straight into []string in stored order.
var selectColumns = strings.Join([]string{
	table.ID, table.Title, table.Slug, table.Description, table.Images + "::text[]",
	table.CoverImageID, table.CategoryID, table.Featured, table.Status,
	table.CreatedAt, table.UpdatedAt,
}, ", ")

// PostgresRepository implements [Repository] on core.series.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository for series.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func scanSeries(row pgx.Row) (*Series, error) {
	series := &Series{}
	err := row.Scan(
		&series.ID, &series.Title, &series.Slug, &series.Description, &series.Images,
		&series.CoverImageID, &series.CategoryID, &series.Featured, &series.Status,
		&series.CreatedAt, &series.UpdatedAt,
	)
	if series.Images == nil {
		series.Images = []string{}
	}
	return series, err
}

func (repository *PostgresRepository) List(ctx context.Context, filter Filter, limit, offset int) ([]*Series, int, error) {
	db := postgres.Conn(ctx, repository.pool)

	conditions := []string{"TRUE"}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		conditions = append(conditions, column+" = $"+strconv.Itoa(len(args)))
	}

	if filter.Status != nil {
		add(table.Status, *filter.Status)
	}
	if filter.Featured != nil {
		add(table.Featured, *filter.Featured)
	}
	if filter.CategoryID != nil {
		add(table.CategoryID, *filter.CategoryID)
	}
	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s`, table.Table, where)
	if err := db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, resource, "count_series")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s
		ORDER BY %s DESC
		LIMIT $%d OFFSET $%d
	`, selectColumns, table.Table, where, table.CreatedAt, len(args)+1, len(args)+2)

	rows, err := db.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, resource, "list_series")
	}
	defer rows.Close()

	list := make([]*Series, 0)
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, resource, "scan_series")
		}
		list = append(list, series)
	}

	return list, total, dberr.Wrap(rows.Err(), resource, "list_series")
}

func (repository *PostgresRepository) ListIDs(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT %s::text FROM %s ORDER BY %s`, table.ID, table.Table, table.ID)

	rows, err := postgres.Conn(ctx, repository.pool).Query(ctx, query)
	if err != nil {
		return nil, dberr.Wrap(err, resource, "list_series_ids")
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	return ids, dberr.Wrap(err, resource, "list_series_ids")
}

func (repository *PostgresRepository) find(ctx context.Context, column, value, action string) (*Series, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, selectColumns, table.Table, column)

	series, err := scanSeries(postgres.Conn(ctx, repository.pool).QueryRow(ctx, query, value))
	if err != nil {
		return nil, dberr.Wrap(err, resource, action)
	}
	return series, nil
}

func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*Series, error) {
	return repository.find(ctx, table.ID, id, "get_series")
}

func (repository *PostgresRepository) FindBySlug(ctx context.Context, slug string) (*Series, error) {
	return repository.find(ctx, table.Slug, slug, "get_series_by_slug")
}

func (repository *PostgresRepository) Create(ctx context.Context, series *Series) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5::uuid[], $6, $7, $8, $9, NOW(), NOW())
		RETURNING %s, %s
	`,
		table.Table, table.ID, table.Title, table.Slug, table.Description, table.Images,
		table.CoverImageID, table.CategoryID, table.Featured, table.Status, table.CreatedAt, table.UpdatedAt,
		table.CreatedAt, table.UpdatedAt,
	)

	if series.Images == nil {
		series.Images = []string{}
	}

	err := postgres.Conn(ctx, repository.pool).QueryRow(ctx, query,
		series.ID, series.Title, series.Slug, series.Description, series.Images,
		series.CoverImageID, series.CategoryID, series.Featured, series.Status,
	).Scan(&series.CreatedAt, &series.UpdatedAt)

	return dberr.Wrap(err, resource, "create_series")
}

func (repository *PostgresRepository) Update(ctx context.Context, series *Series) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = NOW()
		WHERE %s = $1
		RETURNING %s
	`,
		table.Table,
		table.Title, table.Slug, table.Description, table.CategoryID, table.Featured, table.Status, table.UpdatedAt,
		table.ID, table.UpdatedAt,
	)

	err := postgres.Conn(ctx, repository.pool).QueryRow(ctx, query,
		series.ID, series.Title, series.Slug, series.Description, series.CategoryID, series.Featured, series.Status,
	).Scan(&series.UpdatedAt)

	return dberr.Wrap(err, resource, "update_series")
}

func (repository *PostgresRepository) SetImages(ctx context.Context, id string, images []string, coverImageID *string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2::uuid[], %s = $3, %s = NOW() WHERE %s = $1`,
		table.Table, table.Images, table.CoverImageID, table.UpdatedAt, table.ID)

	if images == nil {
		images = []string{}
	}

	tag, err := postgres.Conn(ctx, repository.pool).Exec(ctx, query, id, images, coverImageID)
	if err != nil {
		return dberr.Wrap(err, resource, "set_series_images")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, resource, "set_series_images")
	}
	return nil
}

func (repository *PostgresRepository) DetachCategory(ctx context.Context, categoryID string) ([]string, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = NULL, %s = NOW() WHERE %s = $1 RETURNING %s::text`,
		table.Table, table.CategoryID, table.UpdatedAt, table.CategoryID, table.ID)

	rows, err := postgres.Conn(ctx, repository.pool).Query(ctx, query, categoryID)
	if err != nil {
		return nil, dberr.Wrap(err, resource, "detach_category")
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	return ids, dberr.Wrap(err, resource, "detach_category")
}

func (repository *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table.Table, table.ID)

	tag, err := postgres.Conn(ctx, repository.pool).Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, resource, "delete_series")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, resource, "delete_series")
	}
	return nil
}
