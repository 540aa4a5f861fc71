// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package relation

import (
	"context"
	"log/slog"
	"slices"

	"github.com/taibuivan/folio/internal/core/image"
	"github.com/taibuivan/folio/internal/core/series"
	"github.com/taibuivan/folio/pkg/pointer"
)

/*
RepairSeries reconciles both sides of a series membership.

Description: Walking the stored sequence:
  - entries whose image is missing, repeated, or points at another series
    are dropped;
  - members with no back-reference get it restored.

Images pointing at the series but absent from the sequence are then appended
in their display order. The cover follows the remove rule when it is no
longer a member. A consistent series is not written.
*/
func (engine *Engine) RepairSeries(ctx context.Context, seriesID string) (*series.RepairReport, error) {
	var report *series.RepairReport

	err := engine.mutate(ctx, "repair_series", membershipScope, func(ctx context.Context) error {
		target, err := engine.series.FindByID(ctx, seriesID)
		if err != nil {
			return err
		}

		report = &series.RepairReport{Dropped: []string{}, Attached: []string{}, Appended: []string{}}

		stored, err := engine.images.FindByIDs(ctx, target.Images)
		if err != nil {
			return err
		}
		byID := make(map[string]*image.Image, len(stored))
		for _, member := range stored {
			byID[member.ID] = member
		}

		kept := make([]string, 0, len(target.Images))
		seen := make(map[string]struct{}, len(target.Images))

		for _, imageID := range target.Images {
			member, ok := byID[imageID]
			_, repeated := seen[imageID]

			switch {
			case !ok || repeated:
				report.Dropped = append(report.Dropped, imageID)
				continue
			case member.SeriesID == nil:
				if err := engine.images.SetSeries(ctx, imageID, &seriesID); err != nil {
					return err
				}
				report.Attached = append(report.Attached, imageID)
			case *member.SeriesID != seriesID:
				report.Dropped = append(report.Dropped, imageID)
				continue
			}

			seen[imageID] = struct{}{}
			kept = append(kept, imageID)
		}

		orphans, err := engine.images.FindBySeries(ctx, seriesID)
		if err != nil {
			return err
		}
		for _, orphan := range orphans {
			if _, ok := seen[orphan.ID]; ok {
				continue
			}
			seen[orphan.ID] = struct{}{}
			kept = append(kept, orphan.ID)
			report.Appended = append(report.Appended, orphan.ID)
		}

		cover := nextCover(target.CoverImageID, kept)
		report.CoverReset = !pointer.Equal(cover, target.CoverImageID)

		if !slices.Equal(kept, target.Images) || report.CoverReset {
			if err := engine.series.SetImages(ctx, seriesID, kept, cover); err != nil {
				return err
			}
		}

		report.Series, err = engine.series.FindByID(ctx, seriesID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if report.Changed() {
		engine.logger.Info("series_repaired",
			slog.String("series_id", seriesID),
			slog.Int("dropped", len(report.Dropped)),
			slog.Int("attached", len(report.Attached)),
			slog.Int("appended", len(report.Appended)),
			slog.Bool("cover_reset", report.CoverReset),
		)
	}

	return report, nil
}

// RepairSummary is the outcome of [Engine.RepairAll].
type RepairSummary struct {
	Checked   int                    `json:"checked"`
	Repaired  []*series.RepairReport `json:"repaired"`
	Recounted int                    `json:"recounted"`
}

// RepairAll repairs every series and then recounts every category. Each series
// is repaired in its own operation; the pass stops at the first failure.
func (engine *Engine) RepairAll(ctx context.Context) (*RepairSummary, error) {
	summary := &RepairSummary{Repaired: []*series.RepairReport{}}

	seriesIDs, err := engine.series.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	for _, seriesID := range seriesIDs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		report, err := engine.RepairSeries(ctx, seriesID)
		if err != nil {
			return summary, err
		}

		summary.Checked++
		if report.Changed() {
			summary.Repaired = append(summary.Repaired, report)
		}
	}

	categoryIDs, err := engine.categories.ListIDs(ctx)
	if err != nil {
		return summary, err
	}
	if err := engine.RecountCategories(ctx, categoryIDs...); err != nil {
		return summary, err
	}
	summary.Recounted = len(categoryIDs)

	return summary, nil
}
