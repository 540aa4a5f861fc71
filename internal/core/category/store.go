// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package category

import "context"

// Repository is the category collection of the entity store.
type Repository interface {
	// List returns categories ordered by name.
	List(ctx context.Context, limit, offset int) ([]*Category, int, error)
	ListIDs(ctx context.Context) ([]string, error)
	FindByID(ctx context.Context, id string) (*Category, error)
	FindBySlug(ctx context.Context, slug string) (*Category, error)
	Create(ctx context.Context, category *Category) error

	// Update writes name, slug and description.
	Update(ctx context.Context, category *Category) error

	// SetImageCount overwrites the derived published-image count.
	SetImageCount(ctx context.Context, id string, count int) error

	Delete(ctx context.Context, id string) error
}
