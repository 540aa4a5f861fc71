// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package series manages curated, ordered collections of images.
//
// A series owns the display order of its members in Images. Each member image
// carries a back-reference to the series; the two sides are kept consistent by
// the relationship engine, which is the only writer of Images and CoverImageID.
package series

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/taibuivan/folio/internal/core/image"
)

// Status is the visibility of a series.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Statuses lists every valid status.
var Statuses = []string{string(StatusDraft), string(StatusPublished)}

// Series is an ordered collection of images.
type Series struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Description  *string   `json:"description"`
	Images       []string  `json:"images"`
	CoverImageID *string   `json:"cover_image"`
	CategoryID   *string   `json:"category"`
	Featured     bool      `json:"featured"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Contains reports whether imageID is in the sequence.
func (series *Series) Contains(imageID string) bool {
	return slices.Contains(series.Images, imageID)
}

// Clone returns a deep copy.
func (series *Series) Clone() *Series {
	clone := *series
	clone.Images = slices.Clone(series.Images)
	if clone.Images == nil {
		clone.Images = []string{}
	}
	clone.Description = cloneString(series.Description)
	clone.CoverImageID = cloneString(series.CoverImageID)
	clone.CategoryID = cloneString(series.CategoryID)
	return &clone
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

// Detail is a series with its member images populated in display order.
type Detail struct {
	*Series
	Items []*image.Image `json:"items"`
}

// RepairReport describes what a reconciliation pass changed.
type RepairReport struct {
	Series *Series `json:"series"`

	// Dropped lists sequence entries removed because the image no longer
	// exists or now belongs to another series.
	Dropped []string `json:"dropped"`

	// Attached lists members whose missing back-reference was restored.
	Attached []string `json:"attached"`

	// Appended lists images pointing at the series that were missing from
	// the sequence. They are added at the end.
	Appended []string `json:"appended"`

	// CoverReset is set when the cover was reassigned.
	CoverReset bool `json:"cover_reset"`
}

// Changed reports whether the pass wrote anything.
func (report *RepairReport) Changed() bool {
	return len(report.Dropped) > 0 || len(report.Attached) > 0 || len(report.Appended) > 0 || report.CoverReset
}

// Filter narrows series listings. Nil fields do not filter.
type Filter struct {
	Status     *Status
	Featured   *bool
	CategoryID *string
}

// CacheKey renders the filter as a stable cache key fragment.
func (filter Filter) CacheKey() string {
	parts := make([]string, 0, 3)
	if filter.Status != nil {
		parts = append(parts, "status="+string(*filter.Status))
	}
	if filter.Featured != nil {
		parts = append(parts, "featured="+strconv.FormatBool(*filter.Featured))
	}
	if filter.CategoryID != nil {
		parts = append(parts, "category="+*filter.CategoryID)
	}
	if len(parts) == 0 {
		return "all"
	}
	return strings.Join(parts, "&")
}

// CreateInput is the payload for a new series. Images, when given, are added
// in order through the relationship engine after the series exists.
type CreateInput struct {
	Title        string   `json:"title"`
	Slug         string   `json:"slug"`
	Description  *string  `json:"description"`
	Images       []string `json:"images"`
	CoverImageID *string  `json:"cover_image"`
	CategoryID   *string  `json:"category"`
	Featured     bool     `json:"featured"`
	Status       Status   `json:"status"`
}

// Patch is a partial metadata update. Membership changes go through the
// dedicated routes; CoverImageID is checked against current members.
type Patch struct {
	Title        *string `json:"title"`
	Slug         *string `json:"slug"`
	Description  *string `json:"description"`
	CoverImageID *string `json:"cover_image"`
	CategoryID   *string `json:"category"`
	Featured     *bool   `json:"featured"`
	Status       *Status `json:"status"`
}

// AddImageInput is the payload of POST /series/{id}/images.
type AddImageInput struct {
	ImageID string `json:"image"`
}

// ReorderInput is the payload of PUT /series/{id}/images/order.
type ReorderInput struct {
	Images []string `json:"images"`
}

// CoverInput is the payload of PUT /series/{id}/cover. An empty image unsets the cover.
type CoverInput struct {
	ImageID string `json:"image"`
}

const (
	FieldTitle       = "title"
	FieldSlug        = "slug"
	FieldDescription = "description"
	FieldImages      = "images"
	FieldImage       = "image"
	FieldCoverImage  = "cover_image"
	FieldCategory    = "category"
	FieldStatus      = "status"
)

const (
	maxTitleLength       = 200
	maxSlugLength        = 100
	maxDescriptionLength = 4000
	maxReorderLength     = 1000
)
