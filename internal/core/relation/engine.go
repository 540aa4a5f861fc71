// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package relation keeps the links between images, series and categories consistent.

It is the only writer of a series' image sequence and cover, of an image's
series back-reference, and of a category's image count. Every operation
follows the same shape:

 1. Load the entities involved and check they exist.
 2. Apply the writes through a [Transactor].
 3. Invalidate the cache namespaces the writes could have made stale.

# Membership

A series stores its members as an ordered sequence of image identifiers; each
member image points back at the series. Reads tolerate the two sides
diverging, and [Engine.RepairSeries] reconciles them.

# Cascades

Deletes run their cascade steps in a fixed order. A step failing after an
earlier step was applied is reported as PARTIAL_CASCADE_FAILURE naming the
step. Every step can be repeated, so the caller retries the whole operation.
*/
package relation

import (
	"context"
	"log/slog"
	"slices"

	"github.com/taibuivan/folio/internal/core/category"
	"github.com/taibuivan/folio/internal/core/series"
	"github.com/taibuivan/folio/internal/platform/apperr"
	"github.com/taibuivan/folio/internal/platform/cache"
	"github.com/taibuivan/folio/internal/platform/constants"
	"github.com/taibuivan/folio/pkg/slice"
)

// Engine implements the relationship operations.
type Engine struct {
	images     ImageStore
	series     SeriesStore
	categories CategoryStore
	tx         Transactor
	cache      cache.Cache
	logger     *slog.Logger
}

// Options wires an [Engine].
type Options struct {
	Images     ImageStore
	Series     SeriesStore
	Categories CategoryStore

	// Transactor defaults to [NoTx].
	Transactor Transactor

	// Cache defaults to [cache.Nop].
	Cache  cache.Cache
	Logger *slog.Logger
}

// NewEngine builds an engine over the three collections.
func NewEngine(options Options) *Engine {
	if options.Transactor == nil {
		options.Transactor = NoTx{}
	}
	if options.Cache == nil {
		options.Cache = cache.Nop{}
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &Engine{
		images:     options.Images,
		series:     options.Series,
		categories: options.Categories,
		tx:         options.Transactor,
		cache:      options.Cache,
		logger:     options.Logger,
	}
}

// Invalidation scopes per kind of write.
var (
	membershipScope = []string{constants.CacheNamespaceSeries, constants.CacheNamespaceImages}
	countScope      = []string{constants.CacheNamespaceCategories}
	imageScope      = []string{constants.CacheNamespaceImages, constants.CacheNamespaceSeries, constants.CacheNamespaceCategories}
	categoryScope   = []string{constants.CacheNamespaceCategories, constants.CacheNamespaceImages, constants.CacheNamespaceSeries}
)

// mutate runs fn through the transactor and then invalidates scope.
//
// Invalidation runs after commit and also after a failure, since a store
// without transactions may have kept some of the writes.
func (engine *Engine) mutate(ctx context.Context, operation string, scope []string, fn func(ctx context.Context) error) error {
	err := engine.tx.Run(ctx, fn)

	for _, namespace := range scope {
		engine.cache.Invalidate(ctx, cache.Prefix(namespace))
	}

	switch {
	case err == nil:
		engine.logger.Debug("relation_applied", slog.String("operation", operation))
	case apperr.HasCode(err, apperr.CodePartialCascade):
		engine.logger.Error("relation_partial_cascade",
			slog.String("operation", operation),
			slog.Any("error", err),
			slog.Any("cause", apperr.As(err).Cause),
		)
	default:
		engine.logger.Debug("relation_rejected", slog.String("operation", operation), slog.Any("error", err))
	}

	return err
}

// # Membership

/*
AddImageToSeries appends imageID to the series and points the image at it.

Description: Both entities must exist. Adding a current member writes nothing
except restoring its back-reference when it diverged. An image that belonged
to another series is moved; the previous series keeps the stale entry until
it is repaired.

Returns:
  - *series.Series: The series after the write
  - error: NOT_FOUND for a missing series or image
*/
func (engine *Engine) AddImageToSeries(ctx context.Context, seriesID, imageID string) (*series.Series, error) {
	var result *series.Series

	err := engine.mutate(ctx, "add_image_to_series", membershipScope, func(ctx context.Context) error {
		target, err := engine.series.FindByID(ctx, seriesID)
		if err != nil {
			return err
		}

		member, err := engine.images.FindByID(ctx, imageID)
		if err != nil {
			return err
		}

		if !target.Contains(imageID) {
			if member.SeriesID != nil && *member.SeriesID != seriesID {
				engine.logger.Warn("image_moved_between_series",
					slog.String("image_id", imageID),
					slog.String("from_series_id", *member.SeriesID),
					slog.String("to_series_id", seriesID),
				)
			}

			images := append(slices.Clone(target.Images), imageID)
			if err := engine.series.SetImages(ctx, seriesID, images, target.CoverImageID); err != nil {
				return err
			}
		}

		if !member.InSeries(seriesID) {
			if err := engine.images.SetSeries(ctx, imageID, &seriesID); err != nil {
				return err
			}
		}

		result, err = engine.series.FindByID(ctx, seriesID)
		return err
	})

	return result, err
}

/*
RemoveImageFromSeries takes imageID out of the series.

Description: Removing a non-member is a no-op, except that a back-reference
still pointing at this series is cleared. When the removed image was the
cover, the cover moves to the new first member or is unset. The image itself
does not have to exist.

Returns:
  - *series.Series: The series after the write
  - error: NOT_FOUND for a missing series
*/
func (engine *Engine) RemoveImageFromSeries(ctx context.Context, seriesID, imageID string) (*series.Series, error) {
	var result *series.Series

	err := engine.mutate(ctx, "remove_image_from_series", membershipScope, func(ctx context.Context) error {
		var err error
		result, err = engine.removeMember(ctx, seriesID, imageID)
		return err
	})

	return result, err
}

func (engine *Engine) removeMember(ctx context.Context, seriesID, imageID string) (*series.Series, error) {
	target, err := engine.series.FindByID(ctx, seriesID)
	if err != nil {
		return nil, err
	}

	if target.Contains(imageID) {
		remaining := slice.Filter(target.Images, func(id string) bool { return id != imageID })
		cover := nextCover(target.CoverImageID, remaining)

		if err := engine.series.SetImages(ctx, seriesID, remaining, cover); err != nil {
			return nil, err
		}
	}

	if err := engine.detachFrom(ctx, seriesID, imageID); err != nil {
		return nil, err
	}

	return engine.series.FindByID(ctx, seriesID)
}

// detachFrom clears the image's back-reference if it points at seriesID.
// A missing image is ignored.
func (engine *Engine) detachFrom(ctx context.Context, seriesID, imageID string) error {
	member, err := engine.images.FindByID(ctx, imageID)
	if apperr.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	if !member.InSeries(seriesID) {
		return nil
	}
	return engine.images.SetSeries(ctx, imageID, nil)
}

/*
ReorderSeriesImages sets the display order of the series.

Description: order is reduced to current members, keeping the first
occurrence of each. Identifiers that are not members are ignored and never
added. Members missing from order leave the series and their back-reference
is cleared. The cover follows the remove rule when it is dropped.
*/
func (engine *Engine) ReorderSeriesImages(ctx context.Context, seriesID string, order []string) (*series.Series, error) {
	var result *series.Series

	err := engine.mutate(ctx, "reorder_series_images", membershipScope, func(ctx context.Context) error {
		target, err := engine.series.FindByID(ctx, seriesID)
		if err != nil {
			return err
		}

		members := slice.Set(target.Images)
		reordered := slice.Unique(slice.Filter(order, func(id string) bool {
			_, ok := members[id]
			return ok
		}))
		dropped := slice.Difference(target.Images, reordered)

		if err := engine.series.SetImages(ctx, seriesID, reordered, nextCover(target.CoverImageID, reordered)); err != nil {
			return err
		}

		for _, imageID := range dropped {
			if err := engine.detachFrom(ctx, seriesID, imageID); err != nil {
				return err
			}
		}

		if len(dropped) > 0 {
			engine.logger.Info("series_members_dropped_by_reorder",
				slog.String("series_id", seriesID),
				slog.Int("dropped", len(dropped)),
			)
		}

		result, err = engine.series.FindByID(ctx, seriesID)
		return err
	})

	return result, err
}

/*
SetCoverImage sets or, with an empty imageID, unsets the series cover.

Returns:
  - error: NOT_FOUND for a missing series, INVALID_REFERENCE when imageID is
    not a member
*/
func (engine *Engine) SetCoverImage(ctx context.Context, seriesID, imageID string) (*series.Series, error) {
	var result *series.Series

	err := engine.mutate(ctx, "set_cover_image", membershipScope, func(ctx context.Context) error {
		target, err := engine.series.FindByID(ctx, seriesID)
		if err != nil {
			return err
		}

		var cover *string
		if imageID != "" {
			if !target.Contains(imageID) {
				return apperr.InvalidReference("Cover image must be one of the series images")
			}
			cover = &imageID
		}

		if err := engine.series.SetImages(ctx, seriesID, target.Images, cover); err != nil {
			return err
		}

		result, err = engine.series.FindByID(ctx, seriesID)
		return err
	})

	return result, err
}

// nextCover keeps current when it is still in images, otherwise falls back to
// the first image, or nil when images is empty.
func nextCover(current *string, images []string) *string {
	if current == nil {
		return nil
	}
	if slices.Contains(images, *current) {
		return current
	}
	if len(images) == 0 {
		return nil
	}
	first := images[0]
	return &first
}

// # Category counts

// RecomputeCategoryCount overwrites the image count of a category with the
// number of its published images.
func (engine *Engine) RecomputeCategoryCount(ctx context.Context, categoryID string) (*category.Category, error) {
	var result *category.Category

	err := engine.mutate(ctx, "recompute_category_count", countScope, func(ctx context.Context) error {
		if err := engine.recount(ctx, categoryID, ""); err != nil {
			return err
		}

		var err error
		result, err = engine.categories.FindByID(ctx, categoryID)
		return err
	})

	return result, err
}

// RecountCategories recomputes several categories in one operation. Empty and
// repeated identifiers are skipped, as are categories that no longer exist.
func (engine *Engine) RecountCategories(ctx context.Context, categoryIDs ...string) error {
	ids := slice.Unique(slice.Filter(categoryIDs, func(id string) bool { return id != "" }))
	if len(ids) == 0 {
		return nil
	}

	return engine.mutate(ctx, "recount_categories", countScope, func(ctx context.Context) error {
		for _, categoryID := range ids {
			err := engine.recount(ctx, categoryID, "")
			if apperr.IsNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// recount counts published images in categoryID, ignoring excludeID, and
// stores the result.
func (engine *Engine) recount(ctx context.Context, categoryID, excludeID string) error {
	if _, err := engine.categories.FindByID(ctx, categoryID); err != nil {
		return err
	}

	count, err := engine.images.CountPublished(ctx, categoryID, excludeID)
	if err != nil {
		return err
	}

	return engine.categories.SetImageCount(ctx, categoryID, count)
}
