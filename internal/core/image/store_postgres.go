// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package image

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

const resource = "Image"

var table = schema.CoreImage

// selectColumns is the projection scanned by [scanImage].
var selectColumns = strings.Join([]string{
	table.ID, table.Title, table.Description, table.URL, table.ThumbnailURL,
	table.CategoryID, table.SeriesID, table.Featured, table.SortOrder,
	table.Views, table.Likes, table.Status, table.CreatedAt, table.UpdatedAt,
}, ", ")

// PostgresRepository implements [Repository] on core.image.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository for images.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func scanImage(row pgx.Row) (*Image, error) {
	image := &Image{}
	err := row.Scan(
		&image.ID, &image.Title, &image.Description, &image.URL, &image.ThumbnailURL,
		&image.CategoryID, &image.SeriesID, &image.Featured, &image.Order,
		&image.Views, &image.Likes, &image.Status, &image.CreatedAt, &image.UpdatedAt,
	)
	return image, err
}

func collect(rows pgx.Rows, action string) ([]*Image, error) {
	defer rows.Close()

	images := make([]*Image, 0)
	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, dberr.Wrap(err, resource, action)
		}
		images = append(images, image)
	}

	return images, dberr.Wrap(rows.Err(), resource, action)
}

// whereClause renders filter as a WHERE clause with positional arguments.
func whereClause(filter Filter) (string, []any) {
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
	if filter.SeriesID != nil {
		add(table.SeriesID, *filter.SeriesID)
	}

	return strings.Join(conditions, " AND "), args
}

func (repository *PostgresRepository) List(ctx context.Context, filter Filter, limit, offset int) ([]*Image, int, error) {
	db := postgres.Conn(ctx, repository.pool)
	where, args := whereClause(filter)

	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s`, table.Table, where)
	if err := db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, resource, "count_images")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s
		ORDER BY %s ASC, %s DESC
		LIMIT $%d OFFSET $%d
	`, selectColumns, table.Table, where, table.SortOrder, table.CreatedAt, len(args)+1, len(args)+2)

	rows, err := db.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, resource, "list_images")
	}

	images, err := collect(rows, "scan_images")
	return images, total, err
}

func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*Image, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, selectColumns, table.Table, table.ID)

	image, err := scanImage(postgres.Conn(ctx, repository.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, resource, "get_image")
	}
	return image, nil
}

func (repository *PostgresRepository) FindByIDs(ctx context.Context, ids []string) ([]*Image, error) {
	if len(ids) == 0 {
		return []*Image{}, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ANY($1::uuid[])`, selectColumns, table.Table, table.ID)

	rows, err := postgres.Conn(ctx, repository.pool).Query(ctx, query, ids)
	if err != nil {
		return nil, dberr.Wrap(err, resource, "find_images_by_ids")
	}
	return collect(rows, "scan_images_by_ids")
}

func (repository *PostgresRepository) FindBySeries(ctx context.Context, seriesID string) ([]*Image, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s ASC`,
		selectColumns, table.Table, table.SeriesID, table.SortOrder)

	rows, err := postgres.Conn(ctx, repository.pool).Query(ctx, query, seriesID)
	if err != nil {
		return nil, dberr.Wrap(err, resource, "find_images_by_series")
	}
	return collect(rows, "scan_images_by_series")
}

func (repository *PostgresRepository) Create(ctx context.Context, image *Image) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING %s, %s
	`,
		table.Table, table.ID, table.Title, table.Description, table.URL, table.ThumbnailURL,
		table.CategoryID, table.Featured, table.SortOrder, table.Status, table.CreatedAt, table.UpdatedAt,
		table.CreatedAt, table.UpdatedAt,
	)

	err := postgres.Conn(ctx, repository.pool).QueryRow(ctx, query,
		image.ID, image.Title, image.Description, image.URL, image.ThumbnailURL,
		image.CategoryID, image.Featured, image.Order, image.Status,
	).Scan(&image.CreatedAt, &image.UpdatedAt)

	return dberr.Wrap(err, resource, "create_image")
}

func (repository *PostgresRepository) Update(ctx context.Context, image *Image) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = $8, %s = $9, %s = NOW()
		WHERE %s = $1
		RETURNING %s
	`,
		table.Table,
		table.Title, table.Description, table.URL, table.ThumbnailURL, table.CategoryID,
		table.Featured, table.SortOrder, table.Status, table.UpdatedAt,
		table.ID, table.UpdatedAt,
	)

	err := postgres.Conn(ctx, repository.pool).QueryRow(ctx, query,
		image.ID, image.Title, image.Description, image.URL, image.ThumbnailURL,
		image.CategoryID, image.Featured, image.Order, image.Status,
	).Scan(&image.UpdatedAt)

	return dberr.Wrap(err, resource, "update_image")
}

func (repository *PostgresRepository) SetSeries(ctx context.Context, id string, seriesID *string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = NOW() WHERE %s = $1`,
		table.Table, table.SeriesID, table.UpdatedAt, table.ID)

	tag, err := postgres.Conn(ctx, repository.pool).Exec(ctx, query, id, seriesID)
	if err != nil {
		return dberr.Wrap(err, resource, "set_image_series")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, resource, "set_image_series")
	}
	return nil
}

// detach clears column on every row equal to value and returns the affected ids.
func (repository *PostgresRepository) detach(ctx context.Context, column, value, action string) ([]string, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = NULL, %s = NOW() WHERE %s = $1 RETURNING %s::text`,
		table.Table, column, table.UpdatedAt, column, table.ID)

	rows, err := postgres.Conn(ctx, repository.pool).Query(ctx, query, value)
	if err != nil {
		return nil, dberr.Wrap(err, resource, action)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, dberr.Wrap(err, resource, action)
	}
	return ids, nil
}

func (repository *PostgresRepository) DetachSeries(ctx context.Context, seriesID string) ([]string, error) {
	return repository.detach(ctx, table.SeriesID, seriesID, "detach_series")
}

func (repository *PostgresRepository) DetachCategory(ctx context.Context, categoryID string) ([]string, error) {
	return repository.detach(ctx, table.CategoryID, categoryID, "detach_category")
}

func (repository *PostgresRepository) CountPublished(ctx context.Context, categoryID, excludeID string) (int, error) {
	query := fmt.Sprintf(`
		SELECT count(*)
		FROM %s
		WHERE %s = $1 AND %s = $2 AND ($3 = '' OR %s::text <> $3)
	`, table.Table, table.CategoryID, table.Status, table.ID)

	var count int
	err := postgres.Conn(ctx, repository.pool).QueryRow(ctx, query, categoryID, StatusPublished, excludeID).Scan(&count)
	return count, dberr.Wrap(err, resource, "count_published_images")
}

func (repository *PostgresRepository) Increment(ctx context.Context, id string, counter Counter) (int64, error) {
	column := table.Views
	if counter == CounterLikes {
		column = table.Likes
	}

	// Counters skip updatedat; engagement is not an edit.
	query := fmt.Sprintf(`UPDATE %s SET %s = %s + 1 WHERE %s = $1 RETURNING %s`,
		table.Table, column, column, table.ID, column)

	var value int64
	err := postgres.Conn(ctx, repository.pool).QueryRow(ctx, query, id).Scan(&value)
	return value, dberr.Wrap(err, resource, "increment_"+string(counter))
}

func (repository *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table.Table, table.ID)

	tag, err := postgres.Conn(ctx, repository.pool).Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, resource, "delete_image")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, resource, "delete_image")
	}
	return nil
}
