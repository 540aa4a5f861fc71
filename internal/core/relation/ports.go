// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package relation

import (
	"context"

	"github.com/taibuivan/folio/internal/core/category"
	"github.com/taibuivan/folio/internal/core/image"
	"github.com/taibuivan/folio/internal/core/series"
)

// ImageStore is the slice of the image collection the engine writes through.
type ImageStore interface {
	FindByID(ctx context.Context, id string) (*image.Image, error)
	FindByIDs(ctx context.Context, ids []string) ([]*image.Image, error)
	FindBySeries(ctx context.Context, seriesID string) ([]*image.Image, error)
	SetSeries(ctx context.Context, id string, seriesID *string) error
	DetachSeries(ctx context.Context, seriesID string) ([]string, error)
	DetachCategory(ctx context.Context, categoryID string) ([]string, error)
	CountPublished(ctx context.Context, categoryID, excludeID string) (int, error)
	Delete(ctx context.Context, id string) error
}

// SeriesStore is the slice of the series collection the engine writes through.
type SeriesStore interface {
	ListIDs(ctx context.Context) ([]string, error)
	FindByID(ctx context.Context, id string) (*series.Series, error)
	SetImages(ctx context.Context, id string, images []string, coverImageID *string) error
	DetachCategory(ctx context.Context, categoryID string) ([]string, error)
	Delete(ctx context.Context, id string) error
}

// CategoryStore is the slice of the category collection the engine writes through.
type CategoryStore interface {
	ListIDs(ctx context.Context) ([]string, error)
	FindByID(ctx context.Context, id string) (*category.Category, error)
	SetImageCount(ctx context.Context, id string, count int) error
	Delete(ctx context.Context, id string) error
}

// Transactor groups the writes of one engine operation.
//
// The postgres implementation commits them together; [NoTx] applies each
// write as it is issued.
type Transactor interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoTx runs operations without a transaction.
type NoTx struct{}

// Run calls fn with ctx unchanged.
func (NoTx) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
