// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package image

import "context"

// Repository is the image collection of the entity store.
//
// Single-row writes are atomic. Methods that return NOT_FOUND do so with an
// [apperr.AppError] for the "Image" resource.
type Repository interface {
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Image, int, error)
	FindByID(ctx context.Context, id string) (*Image, error)

	// FindByIDs returns the images that exist among ids, in no particular order.
	FindByIDs(ctx context.Context, ids []string) ([]*Image, error)

	// FindBySeries returns every image whose series back-reference is seriesID.
	FindBySeries(ctx context.Context, seriesID string) ([]*Image, error)

	Create(ctx context.Context, image *Image) error

	// Update writes the editable metadata. It never touches SeriesID or the counters.
	Update(ctx context.Context, image *Image) error

	// SetSeries overwrites the series back-reference; nil unsets it.
	SetSeries(ctx context.Context, id string, seriesID *string) error

	// DetachSeries unsets the back-reference on every image pointing at
	// seriesID and returns their identifiers.
	DetachSeries(ctx context.Context, seriesID string) ([]string, error)

	// DetachCategory unsets the category on every image in categoryID and
	// returns their identifiers.
	DetachCategory(ctx context.Context, categoryID string) ([]string, error)

	// CountPublished counts published images in categoryID, ignoring excludeID
	// when it is non-empty.
	CountPublished(ctx context.Context, categoryID, excludeID string) (int, error)

	// Increment adds one to counter and returns the new value.
	Increment(ctx context.Context, id string, counter Counter) (int64, error)

	Delete(ctx context.Context, id string) error
}
