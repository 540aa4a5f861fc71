// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package category manages the flat taxonomy that images and series are filed under.
//
// ImageCount is derived data: the number of published images in the category.
// Only the relationship engine writes it.
package category

import "time"

// Category groups images and series by subject.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description"`
	ImageCount  int       `json:"image_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Clone returns a deep copy.
func (category *Category) Clone() *Category {
	clone := *category
	if category.Description != nil {
		description := *category.Description
		clone.Description = &description
	}
	return &clone
}

// CreateInput is the payload for a new category.
type CreateInput struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
}

// Patch is a partial update. The image count is not editable.
type Patch struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
}

const (
	FieldName        = "name"
	FieldSlug        = "slug"
	FieldDescription = "description"
)

const (
	maxNameLength        = 100
	maxSlugLength        = 100
	maxDescriptionLength = 2000
)
