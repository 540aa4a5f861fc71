// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package image manages portfolio images: their metadata, publish status and
// engagement counters.
//
// An image references at most one category and at most one series. Both
// references are maintained by the relationship engine; this package never
// writes the series back-reference itself.
package image

import (
	"strconv"
	"strings"
	"time"
)

// Status is the lifecycle state of an image. Only published images count
// towards a category's image count.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Statuses lists every valid status, in lifecycle order.
var Statuses = []string{string(StatusDraft), string(StatusPublished), string(StatusArchived)}

// Image is a single photograph in the portfolio.
type Image struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  *string   `json:"description"`
	URL          string    `json:"url"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	CategoryID   *string   `json:"category"`
	SeriesID     *string   `json:"series"`
	Featured     bool      `json:"featured"`
	Order        int       `json:"order"`
	Views        int64     `json:"views"`
	Likes        int64     `json:"likes"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Published reports whether the image counts towards its category.
func (image *Image) Published() bool {
	return image.Status == StatusPublished
}

// InSeries reports whether the series back-reference equals seriesID.
func (image *Image) InSeries(seriesID string) bool {
	return image.SeriesID != nil && *image.SeriesID == seriesID
}

// Clone returns a deep copy so callers never share pointer fields.
func (image *Image) Clone() *Image {
	clone := *image
	clone.Description = cloneString(image.Description)
	clone.ThumbnailURL = cloneString(image.ThumbnailURL)
	clone.CategoryID = cloneString(image.CategoryID)
	clone.SeriesID = cloneString(image.SeriesID)
	return &clone
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

// Filter narrows image listings. Nil fields do not filter.
type Filter struct {
	Status     *Status
	Featured   *bool
	CategoryID *string
	SeriesID   *string
}

// CacheKey renders the filter as a stable cache key fragment.
func (filter Filter) CacheKey() string {
	parts := make([]string, 0, 4)
	if filter.Status != nil {
		parts = append(parts, "status="+string(*filter.Status))
	}
	if filter.Featured != nil {
		parts = append(parts, "featured="+strconv.FormatBool(*filter.Featured))
	}
	if filter.CategoryID != nil {
		parts = append(parts, "category="+*filter.CategoryID)
	}
	if filter.SeriesID != nil {
		parts = append(parts, "series="+*filter.SeriesID)
	}
	if len(parts) == 0 {
		return "all"
	}
	return strings.Join(parts, "&")
}

// CreateInput is the payload accepted when registering an uploaded image.
//
// The binary has already been stored by the upload pipeline; URL and
// ThumbnailURL point at it. Series membership is assigned afterwards through
// the series routes.
type CreateInput struct {
	Title        string  `json:"title"`
	Description  *string `json:"description"`
	URL          string  `json:"url"`
	ThumbnailURL *string `json:"thumbnail_url"`
	CategoryID   *string `json:"category"`
	Featured     bool    `json:"featured"`
	Order        int     `json:"order"`
	Status       Status  `json:"status"`
}

// Patch is a partial update. Nil fields are left unchanged; an empty
// CategoryID unsets the category.
type Patch struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	URL          *string `json:"url"`
	ThumbnailURL *string `json:"thumbnail_url"`
	CategoryID   *string `json:"category"`
	Featured     *bool   `json:"featured"`
	Order        *int    `json:"order"`
	Status       *Status `json:"status"`
}

// Counter identifies an engagement counter.
type Counter string

const (
	CounterViews Counter = "views"
	CounterLikes Counter = "likes"
)

const (
	FieldTitle        = "title"
	FieldDescription  = "description"
	FieldURL          = "url"
	FieldThumbnailURL = "thumbnail_url"
	FieldCategory     = "category"
	FieldOrder        = "order"
	FieldStatus       = "status"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 4000
)
