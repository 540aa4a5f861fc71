// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package relation

import (
	"context"
	"log/slog"

	"github.com/taibuivan/folio/internal/platform/apperr"
)

// cascade runs the steps of one delete in order and classifies failures.
type cascade struct {
	logger  *slog.Logger
	applied bool
}

// step runs fn. A failure after an earlier step was applied becomes a
// PARTIAL_CASCADE_FAILURE naming this step; a failure of the first applied
// step is returned unchanged.
func (tracker *cascade) step(name string, fn func() error) error {
	if err := fn(); err != nil {
		if tracker.applied {
			return apperr.PartialCascade(name, err)
		}
		return err
	}

	tracker.applied = true
	tracker.logger.Debug("cascade_step_applied", slog.String("step", name))
	return nil
}

/*
DeleteImage removes an image after detaching it from its relations.

Description: Steps, in order:
 1. recount_category: the category count is recomputed without the image.
 2. remove_from_series: the image leaves its series, moving the cover if needed.
 3. delete_image: the record is removed.

A category or series that no longer exists is skipped.

Returns:
  - error: NOT_FOUND for a missing image, PARTIAL_CASCADE_FAILURE when a later
    step fails
*/
func (engine *Engine) DeleteImage(ctx context.Context, imageID string) error {
	return engine.mutate(ctx, "delete_image", imageScope, func(ctx context.Context) error {
		target, err := engine.images.FindByID(ctx, imageID)
		if err != nil {
			return err
		}

		tracker := &cascade{logger: engine.logger.With(slog.String("image_id", imageID))}

		if target.CategoryID != nil {
			categoryID := *target.CategoryID
			err := tracker.step("recount_category", func() error {
				return skipNotFound(engine.recount(ctx, categoryID, imageID))
			})
			if err != nil {
				return err
			}
		}

		if target.SeriesID != nil {
			seriesID := *target.SeriesID
			err := tracker.step("remove_from_series", func() error {
				_, err := engine.removeMember(ctx, seriesID, imageID)
				return skipNotFound(err)
			})
			if err != nil {
				return err
			}
		}

		return tracker.step("delete_image", func() error {
			return engine.images.Delete(ctx, imageID)
		})
	})
}

/*
DeleteSeries removes a series. Its images are kept and their back-references
cleared.

Steps: detach_images, delete_series.
*/
func (engine *Engine) DeleteSeries(ctx context.Context, seriesID string) error {
	return engine.mutate(ctx, "delete_series", membershipScope, func(ctx context.Context) error {
		if _, err := engine.series.FindByID(ctx, seriesID); err != nil {
			return err
		}

		tracker := &cascade{logger: engine.logger.With(slog.String("series_id", seriesID))}

		err := tracker.step("detach_images", func() error {
			detached, err := engine.images.DetachSeries(ctx, seriesID)
			if err == nil {
				engine.logger.Info("series_images_detached", slog.String("series_id", seriesID), slog.Int("count", len(detached)))
			}
			return err
		})
		if err != nil {
			return err
		}

		return tracker.step("delete_series", func() error {
			return engine.series.Delete(ctx, seriesID)
		})
	})
}

/*
DeleteCategory removes a category. Images and series filed under it are kept
and left uncategorized.

Steps: detach_images, detach_series, delete_category.
*/
func (engine *Engine) DeleteCategory(ctx context.Context, categoryID string) error {
	return engine.mutate(ctx, "delete_category", categoryScope, func(ctx context.Context) error {
		if _, err := engine.categories.FindByID(ctx, categoryID); err != nil {
			return err
		}

		tracker := &cascade{logger: engine.logger.With(slog.String("category_id", categoryID))}

		err := tracker.step("detach_images", func() error {
			_, err := engine.images.DetachCategory(ctx, categoryID)
			return err
		})
		if err != nil {
			return err
		}

		err = tracker.step("detach_series", func() error {
			_, err := engine.series.DetachCategory(ctx, categoryID)
			return err
		})
		if err != nil {
			return err
		}

		return tracker.step("delete_category", func() error {
			return engine.categories.Delete(ctx, categoryID)
		})
	})
}

func skipNotFound(err error) error {
	if apperr.IsNotFound(err) {
		return nil
	}
	return err
}
