// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import "context"

// Repository is the series collection of the entity store.
type Repository interface {
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Series, int, error)
	ListIDs(ctx context.Context) ([]string, error)
	FindByID(ctx context.Context, id string) (*Series, error)
	FindBySlug(ctx context.Context, slug string) (*Series, error)

	// Create stores a new series. Images and CoverImageID are stored as given.
	Create(ctx context.Context, series *Series) error

	// Update writes title, slug, description, category, featured and status.
	Update(ctx context.Context, series *Series) error

	// SetImages overwrites the ordered sequence and the cover in one write.
	SetImages(ctx context.Context, id string, images []string, coverImageID *string) error

	// DetachCategory unsets the category on every series in categoryID.
	DetachCategory(ctx context.Context, categoryID string) ([]string, error)

	Delete(ctx context.Context, id string) error
}
